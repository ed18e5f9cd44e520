package profile

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/desertthunder/moody/internal/models"
	"github.com/desertthunder/moody/internal/shared"
)

// ErrFavoritesFull is returned when adding beyond [models.MaxFavorites].
var ErrFavoritesFull = fmt.Errorf("%w: at most %d favorites", shared.ErrInvalidInput, models.MaxFavorites)

// Favorites is an ordered set of favorite artists capped at [models.MaxFavorites].
// Names compare case-insensitively.
type Favorites struct {
	mu    sync.Mutex
	items []string
}

// NewFavorites builds a set from items, dropping blanks, duplicates and anything past the cap.
func NewFavorites(items ...string) *Favorites {
	f := &Favorites{}
	for _, it := range items {
		if err := f.Add(it); errors.Is(err, ErrFavoritesFull) {
			break
		}
	}
	return f
}

// Add appends name. Adding an existing name is a no-op; adding to a full set
// returns [ErrFavoritesFull] and leaves the set unchanged.
func (f *Favorites) Add(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: favorite name is required", shared.ErrInvalidInput)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.index(name) >= 0 {
		return nil
	}
	if len(f.items) >= models.MaxFavorites {
		return ErrFavoritesFull
	}
	f.items = append(f.items, name)
	return nil
}

// Remove deletes name and reports whether it was present.
func (f *Favorites) Remove(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	i := f.index(strings.TrimSpace(name))
	if i < 0 {
		return false
	}
	f.items = slices.Delete(f.items, i, i+1)
	return true
}

// Toggle removes name when present and adds it otherwise. It reports whether name is now a favorite.
func (f *Favorites) Toggle(name string) (bool, error) {
	if f.Remove(name) {
		return false, nil
	}
	if err := f.Add(name); err != nil {
		return false, err
	}
	return true, nil
}

// Contains reports whether name is a favorite.
func (f *Favorites) Contains(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.index(strings.TrimSpace(name)) >= 0
}

// Items returns a copy of the favorites in insertion order.
func (f *Favorites) Items() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.items)
}

// Len returns the number of favorites.
func (f *Favorites) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}

// Full reports whether another favorite would be rejected.
func (f *Favorites) Full() bool {
	return f.Len() >= models.MaxFavorites
}

func (f *Favorites) index(name string) int {
	return slices.IndexFunc(f.items, func(s string) bool { return strings.EqualFold(s, name) })
}
