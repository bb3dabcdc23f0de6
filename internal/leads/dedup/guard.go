// Package dedup suppresses repeat submissions of the same request.
//
// A submission is a duplicate when a lead with the same identity key
// (lower-cased email) and category was created inside the window. Lookup
// failures never block intake: the guard reports Unknown and callers decide.
package dedup

import (
	"context"
	"strings"
	"time"

	"homni_backend/platform/logger"
)

// DefaultWindow is the look-back period for duplicate submissions.
const DefaultWindow = 24 * time.Hour

// Verdict is the outcome of a duplicate check.
type Verdict int

const (
	// Unique means no matching lead was found inside the window.
	Unique Verdict = iota
	// Duplicate means a matching lead exists inside the window.
	Duplicate
	// Unknown means the lookup failed.
	Unknown
)

func (v Verdict) String() string {
	switch v {
	case Unique:
		return "unique"
	case Duplicate:
		return "duplicate"
	default:
		return "unknown"
	}
}

// RecentLeadFinder is satisfied by the leads repository.
type RecentLeadFinder interface {
	HasRecentLead(ctx context.Context, identityKey, category string, since time.Time) (bool, error)
}

// VerdictRecorder receives every verdict, for metrics.
type VerdictRecorder interface {
	RecordDedupVerdict(verdict string)
}

// Guard checks submissions against recent leads.
type Guard struct {
	finder   RecentLeadFinder
	window   time.Duration
	now      func() time.Time
	log      *logger.Logger
	recorder VerdictRecorder
}

// Option configures a Guard.
type Option func(*Guard)

// WithWindow overrides DefaultWindow. Non-positive values are ignored.
func WithWindow(window time.Duration) Option {
	return func(g *Guard) {
		if window > 0 {
			g.window = window
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(g *Guard) {
		g.now = now
	}
}

// WithRecorder reports verdicts to r.
func WithRecorder(r VerdictRecorder) Option {
	return func(g *Guard) {
		g.recorder = r
	}
}

// New creates a Guard backed by finder.
func New(finder RecentLeadFinder, log *logger.Logger, opts ...Option) *Guard {
	g := &Guard{
		finder: finder,
		window: DefaultWindow,
		now:    time.Now,
		log:    log,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Window returns the configured look-back period.
func (g *Guard) Window() time.Duration {
	return g.window
}

// Check classifies a submission. An empty identity key is always Unique.
func (g *Guard) Check(ctx context.Context, identityKey, category string) Verdict {
	key := strings.ToLower(strings.TrimSpace(identityKey))
	if key == "" {
		return g.record(Unique)
	}

	since := g.now().Add(-g.window)
	found, err := g.finder.HasRecentLead(ctx, key, category, since)
	if err != nil {
		g.log.WithContext(ctx).DuplicateCheckFailed(category, err)
		return g.record(Unknown)
	}
	if found {
		return g.record(Duplicate)
	}
	return g.record(Unique)
}

// IsDuplicate is Check collapsed to a boolean; Unknown counts as not duplicate.
func (g *Guard) IsDuplicate(ctx context.Context, identityKey, category string) bool {
	return g.Check(ctx, identityKey, category) == Duplicate
}

func (g *Guard) record(v Verdict) Verdict {
	if g.recorder != nil {
		g.recorder.RecordDedupVerdict(v.String())
	}
	return v
}
