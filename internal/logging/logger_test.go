// Package logging includes tests for the zap logger helpers.
package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/JakeFAU/storefront-reviews/internal/reviews"
)

// TestNewDevelopmentLogger confirms the development logger builds and logs.
func TestNewDevelopmentLogger(t *testing.T) {
	t.Parallel()

	logger, err := New(true)
	if err != nil {
		t.Fatalf("New(true) error = %v", err)
	}
	if logger == nil {
		t.Fatal("expected logger to be non-nil")
	}
	defer logger.Sync() //nolint:errcheck // best-effort flush
	logger.Info("development logger ready")
}

// TestNewProductionLogger ensures the production logger configuration succeeds.
func TestNewProductionLogger(t *testing.T) {
	t.Parallel()

	logger, err := New(false)
	if err != nil {
		t.Fatalf("New(false) error = %v", err)
	}
	if logger == nil {
		t.Fatal("expected logger to be non-nil")
	}
	defer logger.Sync() //nolint:errcheck // best-effort flush
	logger.Info("production logger ready")
}

// TestWithTargetAddsFields checks the target fields are attached to every entry.
func TestWithTargetAddsFields(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.InfoLevel)
	logger := WithTarget(zap.New(core), reviews.Target{AppID: "123", Region: "gb"})
	logger.Info("fetching")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["app_id"] != "123" || fields["region"] != "gb" {
		t.Fatalf("unexpected fields: %+v", fields)
	}
}

// TestWithTargetNilLogger ensures a nil logger degrades to a no-op logger.
func TestWithTargetNilLogger(t *testing.T) {
	t.Parallel()

	if WithTarget(nil, reviews.Target{}) == nil {
		t.Fatal("expected non-nil logger")
	}
}
