// Package search implements live filtered search with transient "new arrival" markers.
//
// A [Box] owns the current result set of one search view. Lookups go through a
// [Searcher], either a [LocalSearcher] over a fixed candidate list or a remote
// profile search adapted with [SearcherFunc].
//
// Every issued query gets a sequence number. Under [LastRequestWins] a response
// older than the latest issued query is discarded; [LastResponseWins] keeps the
// unordered behavior where a slow earlier response can overwrite newer results.
package search

import (
	"context"
	"strings"

	"github.com/mozillazg/go-unidecode"
)

// Result is a single search hit. ID is unique within one result set.
type Result struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	Text      string `json:"text,omitempty"`
	Online    bool   `json:"online,omitempty"`
}

// Searcher looks up results for a non-empty query.
type Searcher interface {
	Lookup(ctx context.Context, query string) ([]Result, error)
}

// SearcherFunc adapts a function to [Searcher].
type SearcherFunc func(ctx context.Context, query string) ([]Result, error)

func (f SearcherFunc) Lookup(ctx context.Context, query string) ([]Result, error) {
	return f(ctx, query)
}

// DefaultArtists is the candidate list offered when picking favorite artists.
var DefaultArtists = []string{
	"Taylor Swift", "Drake", "Beyonce", "The Weeknd", "Adele", "Kendrick Lamar",
	"Billie Eilish", "Coldplay", "Radiohead", "Rihanna", "Ed Sheeran", "Bruno Mars",
	"Dua Lipa", "Ariana Grande", "Post Malone", "Travis Scott", "Playboi Carti",
	"Lil Uzi Vert", "The 1975", "Arctic Monkeys", "Kings of Leon", "The Strokes",
	"Franz Ferdinand", "Two Door Cinema Club", "Tame Impala", "MGMT", "Vampire Weekend",
	"Foster the People", "The Killers",
}

// LocalSearcher matches a query as a case- and accent-insensitive substring of candidate names.
type LocalSearcher struct {
	candidates []Result
	folded     []string
}

// NewLocalSearcher builds a [LocalSearcher] over names. Each name is its own id; duplicates are dropped.
func NewLocalSearcher(names ...string) *LocalSearcher {
	results := make([]Result, 0, len(names))
	for _, n := range names {
		results = append(results, Result{ID: n, Name: n})
	}
	return NewLocalSearcherFromResults(results)
}

// NewLocalSearcherFromResults builds a [LocalSearcher] over prepared results.
func NewLocalSearcherFromResults(results []Result) *LocalSearcher {
	s := &LocalSearcher{}
	for _, r := range dedupe(results) {
		s.candidates = append(s.candidates, r)
		s.folded = append(s.folded, Fold(r.Name))
	}
	return s
}

// Lookup returns candidates whose folded name contains the folded query, in candidate order.
func (s *LocalSearcher) Lookup(ctx context.Context, query string) ([]Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	q := Fold(query)
	out := []Result{}
	if q == "" {
		return out, nil
	}
	for i, name := range s.folded {
		if strings.Contains(name, q) {
			out = append(out, s.candidates[i])
		}
	}
	return out, nil
}

// Fold lowercases s and transliterates it to ASCII so "Beyoncé" matches "beyonce".
func Fold(s string) string {
	return strings.ToLower(strings.TrimSpace(unidecode.Unidecode(s)))
}

func dedupe(results []Result) []Result {
	seen := make(map[string]struct{}, len(results))
	out := make([]Result, 0, len(results))
	for _, r := range results {
		if _, ok := seen[r.ID]; ok {
			continue
		}
		seen[r.ID] = struct{}{}
		out = append(out, r)
	}
	return out
}
