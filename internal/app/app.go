// Package app builds and holds the long-lived services shared by the CLI
// commands, acting as a small dependency injection container.
package app

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/storefront-reviews/internal/clock/system"
	"github.com/JakeFAU/storefront-reviews/internal/config"
	"github.com/JakeFAU/storefront-reviews/internal/feed"
	collyfetcher "github.com/JakeFAU/storefront-reviews/internal/fetcher/colly"
	"github.com/JakeFAU/storefront-reviews/internal/id/uuid"
	"github.com/JakeFAU/storefront-reviews/internal/metadata"
	"github.com/JakeFAU/storefront-reviews/internal/metrics"
	"github.com/JakeFAU/storefront-reviews/internal/pipeline"
	"github.com/JakeFAU/storefront-reviews/internal/policy/ratelimit"
	"github.com/JakeFAU/storefront-reviews/internal/reviews"
	"github.com/JakeFAU/storefront-reviews/internal/session"
)

// App holds the services every command needs: configuration, the logger,
// and the fetch stack sessions are built on.
type App struct {
	cfg      config.Config
	logger   *zap.Logger
	feed     *feed.Fetcher
	metadata *metadata.Fetcher
}

// New wires the transport, intermediary chain, and lookups from cfg.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	limiter := ratelimit.New(ratelimit.Config{
		DefaultRPS:   cfg.HTTP.RatePerSecond,
		DefaultBurst: cfg.HTTP.Burst,
	})
	transport := collyfetcher.New(collyfetcher.Config{
		UserAgent: cfg.HTTP.UserAgent,
		Timeout:   cfg.RequestTimeout(),
	}, limiter)
	return NewWithFetcher(cfg, transport, logger)
}

// NewWithFetcher wires the app around an existing transport.
func NewWithFetcher(cfg config.Config, transport reviews.Fetcher, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	steps, err := feed.IntermediariesFromConfig(cfg.Feed.Intermediaries)
	if err != nil {
		return nil, fmt.Errorf("build intermediaries: %w", err)
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("no intermediaries configured")
	}
	metrics.Init()

	chain := feed.NewChain(transport, steps, logger.Named("chain"))
	names := make([]string, 0, len(steps))
	for _, s := range steps {
		names = append(names, s.Name())
	}
	logger.Info("fetch stack initialized",
		zap.Strings("intermediaries", names),
		zap.Float64("rate_per_second", cfg.HTTP.RatePerSecond),
		zap.Duration("timeout", cfg.RequestTimeout()),
	)

	return &App{
		cfg:      cfg,
		logger:   logger,
		feed:     feed.NewFetcher(chain, cfg.Feed.BaseURL, logger.Named("feed")),
		metadata: metadata.NewFetcher(transport, chain.Primary(), cfg.Metadata.BaseURL, logger.Named("metadata")),
	}, nil
}

// Config returns the loaded configuration.
func (a *App) Config() config.Config {
	return a.cfg
}

// Logger returns the shared zap logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// NewSession builds an idle pipeline session on the shared fetch stack.
func (a *App) NewSession() *pipeline.Session {
	return pipeline.NewSession(pipeline.Deps{
		Feed:          a.feed,
		Metadata:      a.metadata,
		Logger:        a.logger.Named("session"),
		DefaultWindow: a.cfg.Table.DefaultWindow,
	})
}

// NewRegistry builds the session registry served by the HTTP API.
func (a *App) NewRegistry() *session.Registry {
	return session.NewRegistry(a.NewSession, uuid.New(), system.New(), a.logger.Named("sessions"))
}

// Close flushes buffered log entries.
func (a *App) Close() {
	a.logger.Debug("shutting down application services")
	// Sync reports ENOTTY when logging to a terminal.
	_ = a.logger.Sync()
}
