// Package pipeline runs the resolve, fetch, normalize, and load sequence for
// one user session and keeps the state a front end renders from.
package pipeline

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/JakeFAU/storefront-reviews/internal/logging"
	"github.com/JakeFAU/storefront-reviews/internal/metrics"
	"github.com/JakeFAU/storefront-reviews/internal/normalize"
	"github.com/JakeFAU/storefront-reviews/internal/resolver"
	"github.com/JakeFAU/storefront-reviews/internal/reviews"
	"github.com/JakeFAU/storefront-reviews/internal/table"
)

// FeedSource returns the raw feed entries for a target.
type FeedSource interface {
	Fetch(ctx context.Context, target reviews.Target) ([]normalize.RawEntry, error)
}

// MetadataSource looks up display metadata. It reports false instead of
// failing.
type MetadataSource interface {
	Lookup(ctx context.Context, target reviews.Target) (reviews.Metadata, bool)
}

// Deps wires a Session to its collaborators.
type Deps struct {
	Feed          FeedSource
	Metadata      MetadataSource
	Logger        *zap.Logger
	DefaultWindow int
}

// Session owns one review table plus the file stem, app name, and message
// slot of the most recent fetch. Only one fetch may run at a time.
type Session struct {
	feed     FeedSource
	metadata MetadataSource
	logger   *zap.Logger
	table    *table.Table

	mu       sync.RWMutex
	inFlight bool
	fileStem string
	appName  string
	message  string
}

// Result describes a successful fetch.
type Result struct {
	Target        reviews.Target
	Metadata      reviews.Metadata
	MetadataFound bool
	Total         int
}

// NewSession constructs an idle Session with an empty table.
func NewSession(deps Deps) *Session {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		feed:     deps.Feed,
		metadata: deps.Metadata,
		logger:   logger,
		table:    table.New(deps.DefaultWindow),
		fileStem: reviews.DefaultFileStem,
	}
}

// Table exposes the session's review table for windowing, sorting, and export.
func (s *Session) Table() *table.Table {
	return s.table
}

// Fetch loads the reviews behind rawURL. The table and message are cleared
// first; on failure the table stays empty and the message carries the
// user-facing reason. A concurrent call returns reviews.ErrFetchInFlight
// without touching any state.
func (s *Session) Fetch(ctx context.Context, rawURL, region string) (Result, error) {
	if !s.begin() {
		return Result{}, reviews.ErrFetchInFlight
	}
	defer s.end()

	res, err := s.run(ctx, rawURL, region)
	metrics.ObserveFetch(reviews.Kind(err))
	s.setMessage(reviews.UserMessage(err))
	return res, err
}

func (s *Session) run(ctx context.Context, rawURL, region string) (Result, error) {
	target, err := resolver.Resolve(rawURL, region)
	if err != nil {
		return Result{}, err
	}
	logger := logging.WithTarget(s.logger, target)

	var (
		raw   []normalize.RawEntry
		md    reviews.Metadata
		found bool
		g     errgroup.Group
	)
	g.Go(func() error {
		md, found = s.metadata.Lookup(ctx, target)
		return nil
	})
	g.Go(func() error {
		var fetchErr error
		raw, fetchErr = s.feed.Fetch(ctx, target)
		return fetchErr
	})
	err = g.Wait()

	if found {
		s.setMetadata(md)
	}
	if err != nil {
		logger.Warn("fetch failed", zap.String("kind", reviews.Kind(err)), zap.Error(err))
		return Result{}, err
	}

	rows := normalize.Entries(raw)
	s.table.ReplaceAll(rows)
	logger.Info("reviews loaded",
		zap.Int("total", len(rows)),
		zap.Bool("metadata", found),
	)
	return Result{Target: target, Metadata: md, MetadataFound: found, Total: len(rows)}, nil
}

func (s *Session) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		return false
	}
	s.inFlight = true
	s.message = ""
	s.fileStem = reviews.DefaultFileStem
	s.appName = ""
	s.table.Clear()
	return true
}

func (s *Session) end() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
}

func (s *Session) setMessage(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = msg
}

func (s *Session) setMetadata(md reviews.Metadata) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appName = md.Name
	if md.FileStem != "" {
		s.fileStem = md.FileStem
	}
}

// InFlight reports whether a fetch is running.
func (s *Session) InFlight() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inFlight
}

// Message returns the current user-facing message, empty after success.
func (s *Session) Message() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.message
}

// AppName returns the looked-up display name, empty when unknown.
func (s *Session) AppName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.appName
}

// ExportFilename returns "<stem>_reviews.csv".
func (s *Session) ExportFilename() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fileStem + "_reviews.csv"
}

// View is a consistent snapshot of the session for rendering.
type View struct {
	Summary  string           `json:"summary"`
	Total    int              `json:"total"`
	Shown    int              `json:"shown"`
	Window   int              `json:"window"`
	Reviews  []reviews.Review `json:"reviews"`
	Sort     table.SortState  `json:"sort"`
	AppName  string           `json:"app_name,omitempty"`
	Message  string           `json:"message,omitempty"`
	InFlight bool             `json:"in_flight"`
}

// Snapshot captures the current window and status. Table fields come from a
// single table read, so the summary always matches the reviews.
func (s *Session) Snapshot() View {
	tv := s.table.View()
	s.mu.RLock()
	defer s.mu.RUnlock()
	return View{
		Summary:  tv.Summary,
		Total:    tv.Total,
		Shown:    len(tv.Rows),
		Window:   tv.WindowSize,
		Reviews:  tv.Rows,
		Sort:     tv.Sort,
		AppName:  s.appName,
		Message:  s.message,
		InFlight: s.inFlight,
	}
}
