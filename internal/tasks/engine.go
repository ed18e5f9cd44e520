package tasks

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sourcegraph/conc/pool"

	"github.com/desertthunder/moody/internal/models"
	"github.com/desertthunder/moody/internal/services"
	"github.com/desertthunder/moody/internal/shared"
)

// Recommendation limits.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// NoDataBucket labels a recommendation made without any listening history.
const NoDataBucket = "no_data"

const (
	poolSize          = 20
	maxPoolOffset     = 30
	fallbackArtists   = 10
	perArtistFallback = 5
	perArtistPick     = 2
	genreWorkers      = 4
	day               = 24 * time.Hour
)

// Recommender builds mood recommendations and playlists from a listener's history.
type Recommender interface {
	// Recommend picks up to limit tracks suiting mood.
	Recommend(ctx context.Context, progress chan<- ProgressUpdate, mood string, limit int) (*models.Recommendation, error)

	// BuildPlaylist recommends tracks for mood and saves them as a new private playlist.
	BuildPlaylist(ctx context.Context, progress chan<- ProgressUpdate, mood, name string, limit int) (*PlaylistResult, error)
}

// PlaylistResult is the outcome of [MoodEngine.BuildPlaylist].
type PlaylistResult struct {
	Playlist       *services.Playlist
	Recommendation *models.Recommendation
}

// MoodEngine implements [Recommender] on top of a [services.Service].
type MoodEngine struct {
	service services.Service
	now     func() time.Time
	rand    func() *rand.Rand
	workers int
	logger  *log.Logger
}

// EngineOption configures a [MoodEngine].
type EngineOption func(*MoodEngine)

// WithNow replaces the clock used to rotate time ranges.
func WithNow(now func() time.Time) EngineOption {
	return func(e *MoodEngine) { e.now = now }
}

// WithRand fixes the random source. Without it each call draws a fresh seed.
func WithRand(r *rand.Rand) EngineOption {
	return func(e *MoodEngine) { e.rand = func() *rand.Rand { return r } }
}

// WithWorkers bounds the concurrent genre lookups.
func WithWorkers(n int) EngineOption {
	return func(e *MoodEngine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithEngineLogger sets the logger for non-fatal lookup failures.
func WithEngineLogger(l *log.Logger) EngineOption {
	return func(e *MoodEngine) { e.logger = l }
}

// NewMoodEngine creates a [MoodEngine] backed by service.
func NewMoodEngine(service services.Service, opts ...EngineOption) *MoodEngine {
	e := &MoodEngine{
		service: service,
		now:     time.Now,
		rand:    func() *rand.Rand { return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())) },
		workers: genreWorkers,
		logger:  log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ClampLimit applies [DefaultLimit] to non-positive limits and caps at [MaxLimit].
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

// TimeRangeFor picks the personalization window for t, rotating daily.
func TimeRangeFor(t time.Time) string {
	days := t.UnixMilli() / day.Milliseconds()
	return services.TimeRanges[days%int64(len(services.TimeRanges))]
}

// Recommend picks up to limit tracks suiting mood.
func (e *MoodEngine) Recommend(ctx context.Context, progress chan<- ProgressUpdate, mood string, limit int) (*models.Recommendation, error) {
	if e.service == nil {
		return nil, fmt.Errorf("%w: music service not initialized", shared.ErrServiceUnavailable)
	}
	limit = ClampLimit(limit)
	r := e.rand()
	bucket, patterns := Patterns(mood)

	tracks, err := e.candidates(ctx, progress, r)
	if err != nil {
		return nil, err
	}
	if len(tracks) == 0 {
		rec := newRecommendation(NoDataBucket, nil)
		sendProgress(progress, selectUpdate(rec))
		return rec, nil
	}

	genres, err := e.genres(ctx, progress, tracks)
	if err != nil {
		return nil, err
	}

	scored := make([]scoredTrack, len(tracks))
	matched := 0
	for i, tr := range tracks {
		var trackGenres []string
		for _, id := range tr.ArtistIDs {
			trackGenres = append(trackGenres, genres[id]...)
		}
		scored[i] = scoredTrack{Track: tr, score: score(trackGenres, patterns)}
		if scored[i].score > 0 {
			matched++
		}
	}
	sendProgress(progress, scoreUpdate(bucket, matched, len(scored)))

	rec := newRecommendation(bucket, selectTracks(scored, limit, r))
	sendProgress(progress, selectUpdate(rec))
	return rec, nil
}

// BuildPlaylist recommends tracks for mood and saves them as a new private playlist.
//
// An empty name becomes "Mood • <bucket>".
func (e *MoodEngine) BuildPlaylist(ctx context.Context, progress chan<- ProgressUpdate, mood, name string, limit int) (*PlaylistResult, error) {
	rec, err := e.Recommend(ctx, progress, mood, limit)
	if err != nil {
		return nil, err
	}
	if len(rec.Tracks) == 0 {
		return nil, fmt.Errorf("%w: no tracks to add for mood %q", shared.ErrNotFound, NormalizeMood(mood))
	}

	bucket := rec.Mood.Bucket
	if name = strings.TrimSpace(name); name == "" {
		name = PlaylistName(bucket)
	}

	sendProgress(progress, createPlaylistUpdate(nil))
	pl, err := e.service.CreatePlaylist(ctx, name, PlaylistDescription(bucket), false)
	if err != nil {
		return nil, fmt.Errorf("create playlist: %w", err)
	}
	sendProgress(progress, createPlaylistUpdate(pl))

	uris := make([]string, len(rec.Tracks))
	for i, t := range rec.Tracks {
		uris[i] = t.URI
	}
	if err := e.service.AddTracks(ctx, pl.ID, uris); err != nil {
		return nil, fmt.Errorf("add tracks to %s: %w", pl.ID, err)
	}
	pl.TrackCount = len(uris)
	sendProgress(progress, addTracksUpdate(len(uris)))

	return &PlaylistResult{Playlist: pl, Recommendation: rec}, nil
}

// PlaylistName is the default title of a generated playlist.
func PlaylistName(bucket string) string {
	return "Mood • " + bucket
}

// PlaylistDescription is the description of a generated playlist.
func PlaylistDescription(bucket string) string {
	return fmt.Sprintf("Here's a playlist when you feel %s", bucket)
}

// candidates gathers the track pool: a random page of top tracks, or the top artists' own
// top tracks when the listener has none.
func (e *MoodEngine) candidates(ctx context.Context, progress chan<- ProgressUpdate, r *rand.Rand) ([]services.Track, error) {
	timeRange := TimeRangeFor(e.now())
	sendProgress(progress, fetchTopTracksUpdate(timeRange))

	tracks, err := e.service.TopTracks(ctx, timeRange, poolSize, r.IntN(maxPoolOffset))
	if err != nil {
		return nil, fmt.Errorf("fetch top tracks: %w", err)
	}
	if len(tracks) > 0 {
		sendProgress(progress, poolUpdate(tracks))
		return tracks, nil
	}

	sendProgress(progress, fetchTopArtistsUpdate())
	artists, err := e.service.TopArtists(ctx, timeRange, fallbackArtists)
	if err != nil {
		return nil, fmt.Errorf("fetch top artists: %w", err)
	}
	for _, a := range artists {
		top, err := e.service.ArtistTopTracks(ctx, a.ID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			e.logger.Warn("skipping artist", "artist", a.ID, "error", err)
			continue
		}
		tracks = append(tracks, top[:min(len(top), perArtistFallback)]...)
	}
	sendProgress(progress, poolUpdate(tracks))
	return tracks, nil
}

// genres looks up every artist in tracks, [services.MaxArtistIDs] at a time.
//
// A failed chunk leaves its artists without genres. It is an error only when every chunk fails.
func (e *MoodEngine) genres(ctx context.Context, progress chan<- ProgressUpdate, tracks []services.Track) (map[string][]string, error) {
	var ids []string
	seen := make(map[string]bool)
	for _, t := range tracks {
		for _, id := range t.ArtistIDs {
			if id != "" && !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}

	chunks := slices.Collect(slices.Chunk(ids, services.MaxArtistIDs))
	p := pool.NewWithResults[[]services.Artist]().WithContext(ctx).WithMaxGoroutines(e.workers)
	for i, chunk := range chunks {
		p.Go(func(ctx context.Context) ([]services.Artist, error) {
			sendProgress(progress, fetchGenresUpdate(i+1, len(chunks)))
			return e.service.Artists(ctx, chunk)
		})
	}
	results, err := p.Wait()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if len(results) == 0 {
			return nil, fmt.Errorf("fetch genres: %w", err)
		}
		e.logger.Warn("genre lookup incomplete", "error", err)
	}

	genres := make(map[string][]string, len(ids))
	for _, artists := range results {
		for _, a := range artists {
			genres[a.ID] = a.Genres
		}
	}
	return genres, nil
}

type scoredTrack struct {
	services.Track
	score int
}

func (t scoredTrack) artistKey() string {
	if id := t.PrimaryArtistID(); id != "" {
		return id
	}
	return strings.ToLower(t.Artist)
}

type artistGroup struct {
	key    string
	best   int
	tracks []scoredTrack
}

// selectTracks spreads limit picks across artists, favouring tracks that match the mood.
//
// Half as many artists as the limit are chosen, by best score with random tie-breaks,
// and contribute at most [perArtistPick] tracks each. Remaining slots are filled from
// the rest of the pool under the same per-artist cap.
func selectTracks(all []scoredTrack, limit int, r *rand.Rand) []services.Track {
	all = dedupe(all)
	preferred := slices.DeleteFunc(slices.Clone(all), func(t scoredTrack) bool { return t.score <= 0 })
	if len(preferred) == 0 {
		preferred = all
	}

	ranked := rankArtists(groupByArtist(preferred, r), r)
	everyone := groupByArtist(all, r)
	want := (limit + 1) / 2

	chosen := make([]string, 0, want)
	picked := make(map[string]bool)
	for _, g := range ranked {
		if len(chosen) == want {
			break
		}
		chosen = append(chosen, g.key)
		picked[g.key] = true
	}
	if len(chosen) < want {
		for _, g := range rankArtists(everyone, r) {
			if len(chosen) == want {
				break
			}
			if !picked[g.key] {
				chosen = append(chosen, g.key)
				picked[g.key] = true
			}
		}
	}

	byKey := make(map[string]*artistGroup, len(ranked))
	for _, g := range ranked {
		byKey[g.key] = g
	}

	out := make([]services.Track, 0, limit)
	taken := make(map[string]bool)
	perArtist := make(map[string]int)
	take := func(t scoredTrack) {
		if len(out) >= limit || taken[t.ID] || perArtist[t.artistKey()] >= perArtistPick {
			return
		}
		taken[t.ID] = true
		perArtist[t.artistKey()]++
		out = append(out, t.Track)
	}

	for _, key := range chosen {
		if g, ok := byKey[key]; ok {
			for _, t := range g.tracks {
				take(t)
			}
		}
		if g, ok := everyone[key]; ok {
			for _, t := range g.tracks {
				take(t)
			}
		}
	}

	rest := slices.Clone(all)
	slices.SortStableFunc(rest, func(a, b scoredTrack) int { return cmp.Compare(b.score, a.score) })
	for _, t := range rest {
		if len(out) >= limit {
			break
		}
		take(t)
	}
	return out
}

// dedupe keeps the first track for each canonical title and primary artist.
func dedupe(tracks []scoredTrack) []scoredTrack {
	seen := make(map[string]bool, len(tracks))
	out := make([]scoredTrack, 0, len(tracks))
	for _, t := range tracks {
		if t.ID == "" {
			continue
		}
		key := trackKey(t.Title, t.artistKey())
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	return out
}

// groupByArtist buckets tracks by primary artist, each bucket shuffled then ordered by score.
func groupByArtist(tracks []scoredTrack, r *rand.Rand) map[string]*artistGroup {
	groups := make(map[string]*artistGroup)
	for _, t := range tracks {
		key := t.artistKey()
		g, ok := groups[key]
		if !ok {
			g = &artistGroup{key: key}
			groups[key] = g
		}
		g.tracks = append(g.tracks, t)
		g.best = max(g.best, t.score)
	}
	for _, g := range groups {
		r.Shuffle(len(g.tracks), func(i, j int) { g.tracks[i], g.tracks[j] = g.tracks[j], g.tracks[i] })
		slices.SortStableFunc(g.tracks, func(a, b scoredTrack) int { return cmp.Compare(b.score, a.score) })
	}
	return groups
}

// rankArtists orders groups by best score, breaking ties at random.
func rankArtists(groups map[string]*artistGroup, r *rand.Rand) []*artistGroup {
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	r.Shuffle(len(keys), func(i, j int) { keys[i], keys[j] = keys[j], keys[i] })

	ranked := make([]*artistGroup, len(keys))
	for i, k := range keys {
		ranked[i] = groups[k]
	}
	slices.SortStableFunc(ranked, func(a, b *artistGroup) int { return cmp.Compare(b.best, a.best) })
	return ranked
}

func newRecommendation(bucket string, tracks []services.Track) *models.Recommendation {
	rec := &models.Recommendation{
		Mood: models.MoodVector{
			Valence:      0.5,
			Energy:       0.5,
			Tempo:        120,
			Danceability: 0.5,
			Bucket:       bucket,
		},
		Tracks: make([]models.RecommendedTrack, 0, len(tracks)),
	}
	for _, t := range tracks {
		rec.Tracks = append(rec.Tracks, models.RecommendedTrack{
			ID:     t.ID,
			Name:   t.Title,
			Artist: t.Artist,
			URI:    t.URI,
		})
	}
	return rec
}
