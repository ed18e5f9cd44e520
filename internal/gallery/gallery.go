// Package gallery keeps the session-local history of generated moods.
//
// Entries are ordered newest first and never persisted. The newest entry is
// highlighted for [HighlightWindow] after insertion.
package gallery

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aidarkhanov/nanoid/v2"
	"github.com/desertthunder/moody/internal/shared"
	"github.com/desertthunder/moody/internal/transient"
)

// HighlightWindow is how long the newest entry stays highlighted.
const HighlightWindow = 900 * time.Millisecond

const jitterAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// Entry is one generated mood. IDs combine a millisecond timestamp with random
// jitter and are unlikely, not guaranteed, to be unique.
type Entry struct {
	ID        string    `json:"id"`
	Mood      string    `json:"mood"`
	CreatedAt time.Time `json:"createdAt"`
}

// Generator produces a playlist for a mood. Only successful generations are recorded.
type Generator func(ctx context.Context, mood string) error

// Gallery is the ordered mood history of one session.
type Gallery struct {
	mu      sync.Mutex
	entries []Entry
	window  time.Duration
	now     func() time.Time
	jitter  func() string
	flags   *transient.Set
}

// Option configures a [Gallery].
type Option func(*Gallery, *[]transient.Option)

// WithClock overrides the timestamp source and timer source.
func WithClock(now func() time.Time, after transient.AfterFunc) Option {
	return func(g *Gallery, opts *[]transient.Option) {
		g.now = now
		*opts = append(*opts, transient.WithAfterFunc(after))
	}
}

// WithJitter overrides the random id suffix.
func WithJitter(fn func() string) Option {
	return func(g *Gallery, _ *[]transient.Option) { g.jitter = fn }
}

// WithWindow overrides [HighlightWindow].
func WithWindow(d time.Duration) Option {
	return func(g *Gallery, _ *[]transient.Option) { g.window = d }
}

// WithExpireHook runs fn when the highlight of an entry expires.
func WithExpireHook(fn func(id string)) Option {
	return func(_ *Gallery, opts *[]transient.Option) {
		*opts = append(*opts, transient.WithExpireHook(fn))
	}
}

// New creates an empty [Gallery].
func New(opts ...Option) *Gallery {
	g := &Gallery{window: HighlightWindow, now: time.Now, jitter: randomJitter}
	var setOpts []transient.Option
	for _, opt := range opts {
		opt(g, &setOpts)
	}
	g.flags = transient.New(setOpts...)
	return g
}

func randomJitter() string {
	s, err := nanoid.GenerateString(jitterAlphabet, 6)
	if err != nil {
		return "000000"
	}
	return s
}

// Add prepends an entry for mood and moves the highlight to it.
func (g *Gallery) Add(mood string) Entry {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	e := Entry{
		ID:        fmt.Sprintf("%d-%s", now.UnixMilli(), g.jitter()),
		Mood:      mood,
		CreatedAt: now,
	}
	g.entries = append([]Entry{e}, g.entries...)

	g.flags.Reset()
	g.flags.Mark(e.ID, g.window)
	return e
}

// Submit runs generate for mood and records an entry only when it succeeds.
func (g *Gallery) Submit(ctx context.Context, mood string, generate Generator) (Entry, error) {
	mood = strings.TrimSpace(mood)
	if mood == "" {
		return Entry{}, fmt.Errorf("%w: mood is required", shared.ErrInvalidInput)
	}
	if err := generate(ctx, mood); err != nil {
		return Entry{}, err
	}
	return g.Add(mood), nil
}

// Entries returns a copy of the history, newest first.
func (g *Gallery) Entries() []Entry {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Entry, len(g.entries))
	copy(out, g.entries)
	return out
}

// Len returns the number of entries.
func (g *Gallery) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.entries)
}

// Newest returns the most recent entry.
func (g *Gallery) Newest() (Entry, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.entries) == 0 {
		return Entry{}, false
	}
	return g.entries[0], true
}

// IsNew reports whether the entry with id is still highlighted.
func (g *Gallery) IsNew(id string) bool {
	return g.flags.Has(id)
}

// Close cancels the pending highlight timer.
func (g *Gallery) Close() {
	g.flags.Close()
}
