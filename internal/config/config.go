// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Feed     FeedConfig     `mapstructure:"feed"`
	Metadata MetadataConfig `mapstructure:"metadata"`
	Table    TableConfig    `mapstructure:"table"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port                  int `mapstructure:"port"`
	SessionIdleMinutes    int `mapstructure:"session_idle_minutes"`
	HandlerTimeoutSeconds int `mapstructure:"handler_timeout_seconds"`
}

// HTTPConfig configures the outbound HTTP client.
type HTTPConfig struct {
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
	UserAgent      string  `mapstructure:"user_agent"`
	RatePerSecond  float64 `mapstructure:"rate_per_second"`
	Burst          int     `mapstructure:"burst"`
}

// IntermediaryConfig describes one relay in the feed fetch chain.
type IntermediaryConfig struct {
	Name    string `mapstructure:"name"`
	Scheme  string `mapstructure:"scheme"`
	BaseURL string `mapstructure:"base_url"`
}

// FeedConfig controls where review feeds are fetched from.
type FeedConfig struct {
	BaseURL        string               `mapstructure:"base_url"`
	Intermediaries []IntermediaryConfig `mapstructure:"intermediaries"`
}

// MetadataConfig controls the application lookup endpoint.
type MetadataConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// TableConfig controls the review table defaults.
type TableConfig struct {
	DefaultWindow int `mapstructure:"default_window"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Supported intermediary schemes.
const (
	SchemeQueryParam = "query_param"
	SchemeRawQuery   = "raw_query"
	SchemeDirect     = "direct"
)

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("REVIEWS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.session_idle_minutes", 60)
	v.SetDefault("server.handler_timeout_seconds", 60)
	v.SetDefault("http.timeout_seconds", 15)
	v.SetDefault("http.user_agent", "storefront-reviews/0.1")
	v.SetDefault("http.rate_per_second", 2.0)
	v.SetDefault("http.burst", 2)
	v.SetDefault("feed.base_url", "https://itunes.apple.com")
	v.SetDefault("feed.intermediaries", []map[string]any{
		{"name": "allorigins", "scheme": SchemeQueryParam, "base_url": "https://api.allorigins.win/raw"},
		{"name": "corsproxy", "scheme": SchemeRawQuery, "base_url": "https://corsproxy.io/"},
	})
	v.SetDefault("metadata.base_url", "https://itunes.apple.com")
	v.SetDefault("table.default_window", 50)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Server.SessionIdleMinutes < 0 {
		return fmt.Errorf("server.session_idle_minutes must be >= 0")
	}
	if c.Server.HandlerTimeoutSeconds <= 0 {
		return fmt.Errorf("server.handler_timeout_seconds must be > 0")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.Feed.BaseURL == "" {
		return fmt.Errorf("feed.base_url must be set")
	}
	if c.Metadata.BaseURL == "" {
		return fmt.Errorf("metadata.base_url must be set")
	}
	if len(c.Feed.Intermediaries) == 0 {
		return fmt.Errorf("feed.intermediaries must list at least one intermediary")
	}
	for i, im := range c.Feed.Intermediaries {
		if im.Name == "" {
			return fmt.Errorf("feed.intermediaries[%d].name must be set", i)
		}
		switch im.Scheme {
		case SchemeQueryParam, SchemeRawQuery:
			if im.BaseURL == "" {
				return fmt.Errorf("feed.intermediaries[%d].base_url must be set for scheme %q", i, im.Scheme)
			}
		case SchemeDirect:
		default:
			return fmt.Errorf("feed.intermediaries[%d].scheme %q is not supported", i, im.Scheme)
		}
	}
	if c.Table.DefaultWindow < 0 {
		return fmt.Errorf("table.default_window must be >= 0")
	}
	return nil
}

// SessionIdleTimeout converts the idle session limit into a duration. Zero
// disables expiry.
func (c Config) SessionIdleTimeout() time.Duration {
	return time.Duration(c.Server.SessionIdleMinutes) * time.Minute
}

// HandlerTimeout bounds a single API request, including a full fetch.
func (c Config) HandlerTimeout() time.Duration {
	return time.Duration(c.Server.HandlerTimeoutSeconds) * time.Second
}

// RequestTimeout converts the HTTP timeout into a duration.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}
