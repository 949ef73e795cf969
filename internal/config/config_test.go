package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadWithFileOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
server:
  port: 9090
http:
  timeout_seconds: 45
  user_agent: review-agent
  rate_per_second: 0.5
  burst: 1
feed:
  base_url: https://feeds.example
  intermediaries:
    - name: relay
      scheme: query_param
      base_url: https://relay.example/raw
    - name: origin
      scheme: direct
metadata:
  base_url: https://lookup.example
table:
  default_window: 25
logging:
  development: false
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Fatalf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.HTTP.UserAgent != "review-agent" || cfg.HTTP.RatePerSecond != 0.5 || cfg.HTTP.Burst != 1 {
		t.Fatalf("expected http overrides to apply: %+v", cfg.HTTP)
	}
	if len(cfg.Feed.Intermediaries) != 2 {
		t.Fatalf("expected two intermediaries, got %+v", cfg.Feed.Intermediaries)
	}
	if got := cfg.Feed.Intermediaries[1]; got.Name != "origin" || got.Scheme != SchemeDirect {
		t.Fatalf("unexpected second intermediary: %+v", got)
	}
	if cfg.Table.DefaultWindow != 25 || cfg.Logging.Development {
		t.Fatalf("expected table/logging overrides: %+v %+v", cfg.Table, cfg.Logging)
	}
	if got := cfg.RequestTimeout(); got != 45*time.Second {
		t.Fatalf("expected request timeout 45s, got %v", got)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 8080 || cfg.Table.DefaultWindow != 50 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.HandlerTimeout() != time.Minute {
		t.Fatalf("unexpected handler timeout: %s", cfg.HandlerTimeout())
	}
	if cfg.SessionIdleTimeout() != time.Hour {
		t.Fatalf("expected 1h idle timeout, got %s", cfg.SessionIdleTimeout())
	}
	if len(cfg.Feed.Intermediaries) != 2 {
		t.Fatalf("expected primary and secondary intermediaries, got %+v", cfg.Feed.Intermediaries)
	}
	if cfg.Feed.Intermediaries[0].Name != "allorigins" || cfg.Feed.Intermediaries[1].Name != "corsproxy" {
		t.Fatalf("unexpected intermediary order: %+v", cfg.Feed.Intermediaries)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("REVIEWS_SERVER_PORT", "9191")
	t.Setenv("REVIEWS_TABLE_DEFAULT_WINDOW", "10")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 9191 || cfg.Table.DefaultWindow != 10 {
		t.Fatalf("expected env overrides, got port=%d window=%d", cfg.Server.Port, cfg.Table.DefaultWindow)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestConfigValidateErrors(t *testing.T) {
	t.Parallel()

	base := Config{
		Server:   ServerConfig{Port: 8080, HandlerTimeoutSeconds: 30},
		HTTP:     HTTPConfig{TimeoutSeconds: 10},
		Feed:     FeedConfig{BaseURL: "https://feeds.example", Intermediaries: []IntermediaryConfig{{Name: "d", Scheme: SchemeDirect}}},
		Metadata: MetadataConfig{BaseURL: "https://lookup.example"},
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("expected base config to be valid, got %v", err)
	}

	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "invalid port",
			cfg: func() Config {
				c := base
				c.Server.Port = 0
				return c
			}(),
			want: "server.port",
		},
		{
			name: "invalid timeout",
			cfg: func() Config {
				c := base
				c.HTTP.TimeoutSeconds = 0
				return c
			}(),
			want: "http.timeout_seconds",
		},
		{
			name: "invalid handler timeout",
			cfg: func() Config {
				c := base
				c.Server.HandlerTimeoutSeconds = 0
				return c
			}(),
			want: "server.handler_timeout_seconds",
		},
		{
			name: "no intermediaries",
			cfg: func() Config {
				c := base
				c.Feed.Intermediaries = nil
				return c
			}(),
			want: "feed.intermediaries",
		},
		{
			name: "unknown scheme",
			cfg: func() Config {
				c := base
				c.Feed.Intermediaries = []IntermediaryConfig{{Name: "x", Scheme: "socks"}}
				return c
			}(),
			want: "not supported",
		},
		{
			name: "relay without base url",
			cfg: func() Config {
				c := base
				c.Feed.Intermediaries = []IntermediaryConfig{{Name: "x", Scheme: SchemeRawQuery}}
				return c
			}(),
			want: "base_url must be set",
		},
		{
			name: "negative window",
			cfg: func() Config {
				c := base
				c.Table.DefaultWindow = -1
				return c
			}(),
			want: "table.default_window",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
