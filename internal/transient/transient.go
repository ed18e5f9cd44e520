// Package transient tracks short-lived UI markers such as "new arrival" and highlight flags.
//
// Every marker owns a cancellable timer. A [Set] is owned by one view and must be
// closed when that view is torn down; after Close no marker can fire or be added.
package transient

import (
	"sync"
	"time"
)

// Stopper is a pending timer that can be cancelled.
type Stopper interface {
	Stop() bool
}

// AfterFunc schedules fn to run once after d.
type AfterFunc func(d time.Duration, fn func()) Stopper

// RealAfterFunc wraps [time.AfterFunc].
func RealAfterFunc(d time.Duration, fn func()) Stopper {
	return time.AfterFunc(d, fn)
}

type mark struct {
	gen   uint64
	timer Stopper
}

// Set is a concurrency-safe collection of expiring markers keyed by id.
type Set struct {
	mu       sync.Mutex
	after    AfterFunc
	marks    map[string]mark
	gen      uint64
	closed   bool
	onExpire func(id string)
}

// Option configures a [Set].
type Option func(*Set)

// WithAfterFunc replaces the timer source, typically with a fake clock in tests.
func WithAfterFunc(fn AfterFunc) Option {
	return func(s *Set) { s.after = fn }
}

// WithExpireHook registers fn to run after a marker expires on its own.
// It runs on the timer goroutine without the set's lock held.
func WithExpireHook(fn func(id string)) Option {
	return func(s *Set) { s.onExpire = fn }
}

// New creates an empty [Set].
func New(opts ...Option) *Set {
	s := &Set{after: RealAfterFunc, marks: make(map[string]mark)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Mark flags id for d, replacing any pending marker for the same id.
// It reports false when the set is closed or d is not positive.
func (s *Set) Mark(id string, d time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || d <= 0 {
		return false
	}
	if m, ok := s.marks[id]; ok {
		m.timer.Stop()
	}

	s.gen++
	gen := s.gen
	s.marks[id] = mark{gen: gen, timer: s.after(d, func() { s.expire(id, gen) })}
	return true
}

func (s *Set) expire(id string, gen uint64) {
	s.mu.Lock()
	m, ok := s.marks[id]
	if !ok || m.gen != gen || s.closed {
		s.mu.Unlock()
		return
	}
	delete(s.marks, id)
	hook := s.onExpire
	s.mu.Unlock()

	if hook != nil {
		hook(id)
	}
}

// Has reports whether id is currently marked.
func (s *Set) Has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.marks[id]
	return ok
}

// Len returns the number of active markers.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.marks)
}

// IDs returns the ids of all active markers in no particular order.
func (s *Set) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.marks))
	for id := range s.marks {
		ids = append(ids, id)
	}
	return ids
}

// Clear removes the marker for id and stops its timer.
func (s *Set) Clear(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.marks[id]; ok {
		m.timer.Stop()
		delete(s.marks, id)
	}
}

// Reset removes every marker and stops all timers. The set stays usable.
func (s *Set) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopAll()
}

// Close stops all timers and rejects future marks. It is safe to call more than once.
func (s *Set) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopAll()
	s.closed = true
}

// Closed reports whether Close has been called.
func (s *Set) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Set) stopAll() {
	for id, m := range s.marks {
		m.timer.Stop()
		delete(s.marks, id)
	}
}
