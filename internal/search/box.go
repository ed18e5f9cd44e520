package search

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/desertthunder/moody/internal/transient"
)

// NewArrivalWindow is how long fresh results carry the "new" marker.
const NewArrivalWindow = 360 * time.Millisecond

// Ordering decides which of several overlapping responses ends up displayed.
type Ordering int

const (
	// LastRequestWins discards responses to queries older than the latest issued one.
	LastRequestWins Ordering = iota
	// LastResponseWins applies every response as it lands, so a slow earlier query can overwrite newer results.
	LastResponseWins
)

func (o Ordering) String() string {
	if o == LastResponseWins {
		return "last-response-wins"
	}
	return "last-request-wins"
}

// Ticket identifies one issued query.
type Ticket struct {
	Seq   uint64
	Query string
	// Empty is set for blank queries, which clear the results without a lookup.
	Empty bool
}

// Box holds the result set of one search view.
type Box struct {
	mu       sync.Mutex
	searcher Searcher
	ordering Ordering
	window   time.Duration
	fresh    *transient.Set

	issued  uint64
	applied uint64
	query   string
	results []Result
	err     error
}

// BoxOption configures a [Box].
type BoxOption func(*Box, *[]transient.Option)

// WithOrdering selects how overlapping responses are reconciled.
func WithOrdering(o Ordering) BoxOption {
	return func(b *Box, _ *[]transient.Option) { b.ordering = o }
}

// WithWindow overrides [NewArrivalWindow].
func WithWindow(d time.Duration) BoxOption {
	return func(b *Box, _ *[]transient.Option) { b.window = d }
}

// WithAfterFunc overrides the timer source of the "new" markers.
func WithAfterFunc(fn transient.AfterFunc) BoxOption {
	return func(_ *Box, opts *[]transient.Option) {
		*opts = append(*opts, transient.WithAfterFunc(fn))
	}
}

// WithExpireHook runs fn whenever a "new" marker expires, e.g. to schedule a redraw.
func WithExpireHook(fn func(id string)) BoxOption {
	return func(_ *Box, opts *[]transient.Option) {
		*opts = append(*opts, transient.WithExpireHook(fn))
	}
}

// NewBox creates a search box backed by searcher.
func NewBox(searcher Searcher, opts ...BoxOption) *Box {
	b := &Box{searcher: searcher, window: NewArrivalWindow, results: []Result{}}
	var setOpts []transient.Option
	for _, opt := range opts {
		opt(b, &setOpts)
	}
	b.fresh = transient.New(setOpts...)
	return b
}

// Begin issues a new query and returns its ticket.
//
// A blank query clears the results and markers immediately.
func (b *Box) Begin(query string) Ticket {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.issued++
	t := Ticket{Seq: b.issued, Query: query, Empty: strings.TrimSpace(query) == ""}
	b.query = query
	if t.Empty {
		b.results = []Result{}
		b.err = nil
		b.applied = t.Seq
		b.fresh.Reset()
	}
	return t
}

// Complete applies the response to t. It reports whether the response was applied.
//
// On success the result set is replaced as a whole and every result is marked new.
// On failure the previous results stay and the error is recorded.
func (b *Box) Complete(t Ticket, results []Result, err error) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if t.Empty {
		return false
	}
	if b.ordering == LastRequestWins && t.Seq < b.issued {
		return false
	}

	if t.Seq > b.applied {
		b.applied = t.Seq
	}
	if err != nil {
		b.err = err
		return true
	}

	b.err = nil
	b.results = dedupe(results)
	b.fresh.Reset()
	for _, r := range b.results {
		b.fresh.Mark(r.ID, b.window)
	}
	return true
}

// Search runs Begin, the lookup and Complete in sequence.
// It returns the lookup error, if any, even when the response was discarded.
func (b *Box) Search(ctx context.Context, query string) error {
	t := b.Begin(query)
	if t.Empty {
		return nil
	}
	results, err := b.searcher.Lookup(ctx, query)
	b.Complete(t, results, err)
	return err
}

// Results returns a copy of the current result set.
func (b *Box) Results() []Result {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Result, len(b.results))
	copy(out, b.results)
	return out
}

// IsNew reports whether the result with id still carries the "new" marker.
func (b *Box) IsNew(id string) bool {
	return b.fresh.Has(id)
}

// Query returns the latest issued query.
func (b *Box) Query() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.query
}

// Err returns the error of the latest applied response.
func (b *Box) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

// Pending reports whether a query has been issued whose response has not been applied.
func (b *Box) Pending() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.applied < b.issued
}

// Ordering returns the reconciliation policy of the box.
func (b *Box) Ordering() Ordering { return b.ordering }

// Close cancels all pending markers. The box must not be used afterwards.
func (b *Box) Close() {
	b.fresh.Close()
}
