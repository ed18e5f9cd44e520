package tasks

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desertthunder/moody/internal/services"
	"github.com/desertthunder/moody/internal/shared"
)

type fakeService struct {
	mu            sync.Mutex
	topTracks     []services.Track
	topArtists    []services.Artist
	artistTracks  map[string][]services.Track
	genres        map[string][]string
	topTracksErr  error
	artistsErr    error
	createErr     error
	addErr        error
	timeRanges    []string
	artistLookups [][]string
	created       []string
	added         map[string][]string
}

func (f *fakeService) Name() string { return "Fake" }

func (f *fakeService) TopTracks(ctx context.Context, timeRange string, limit, offset int) ([]services.Track, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.timeRanges = append(f.timeRanges, timeRange)
	if f.topTracksErr != nil {
		return nil, f.topTracksErr
	}
	return f.topTracks, nil
}

func (f *fakeService) TopArtists(ctx context.Context, timeRange string, limit int) ([]services.Artist, error) {
	return f.topArtists, nil
}

func (f *fakeService) ArtistTopTracks(ctx context.Context, artistID string) ([]services.Track, error) {
	tracks, ok := f.artistTracks[artistID]
	if !ok {
		return nil, fmt.Errorf("%w: artist %s", shared.ErrNotFound, artistID)
	}
	return tracks, nil
}

func (f *fakeService) Artists(ctx context.Context, ids []string) ([]services.Artist, error) {
	f.mu.Lock()
	f.artistLookups = append(f.artistLookups, ids)
	f.mu.Unlock()
	if f.artistsErr != nil {
		return nil, f.artistsErr
	}
	out := make([]services.Artist, 0, len(ids))
	for _, id := range ids {
		out = append(out, services.Artist{ID: id, Name: id, Genres: f.genres[id]})
	}
	return out, nil
}

func (f *fakeService) CreatePlaylist(ctx context.Context, name, description string, public bool) (*services.Playlist, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, name+"|"+description)
	return &services.Playlist{ID: "pl1", Name: name, Description: description, URL: "https://open.spotify.com/playlist/pl1"}, nil
}

func (f *fakeService) AddTracks(ctx context.Context, playlistID string, uris []string) error {
	if f.addErr != nil {
		return f.addErr
	}
	if f.added == nil {
		f.added = make(map[string][]string)
	}
	f.added[playlistID] = append(f.added[playlistID], uris...)
	return nil
}

func (f *fakeService) Playlist(ctx context.Context, playlistID string) (*services.Playlist, error) {
	return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
}

func (f *fakeService) SearchArtists(ctx context.Context, query string, limit int) ([]services.Artist, error) {
	return nil, nil
}

func track(id, title, artistID string) services.Track {
	return services.Track{
		ID:        id,
		Title:     title,
		Artist:    "Artist " + artistID,
		ArtistIDs: []string{artistID},
		URI:       "spotify:track:" + id,
	}
}

func newTestEngine(svc services.Service) *MoodEngine {
	return NewMoodEngine(svc,
		WithRand(rand.New(rand.NewPCG(1, 2))),
		WithNow(func() time.Time { return time.UnixMilli(0) }),
	)
}

func TestRecommend(t *testing.T) {
	t.Run("prefers tracks whose artists match the mood", func(t *testing.T) {
		svc := &fakeService{
			topTracks: []services.Track{
				track("t1", "Dancing Queen", "abba"),
				track("t2", "Paranoid", "sabbath"),
				track("t3", "Waterloo", "abba"),
				track("t4", "Get Lucky", "daft"),
				track("t5", "Iron Man", "sabbath"),
			},
			genres: map[string][]string{
				"abba":    {"Europop", "Swedish Pop"},
				"daft":    {"French House", "Disco"},
				"sabbath": {"Heavy Metal", "Stoner Rock"},
			},
		}
		rec, err := newTestEngine(svc).Recommend(context.Background(), nil, "Happy", 4)
		require.NoError(t, err)

		assert.Equal(t, "happy", rec.Mood.Bucket)
		assert.Equal(t, 0.5, rec.Mood.Valence)
		assert.Equal(t, 120.0, rec.Mood.Tempo)
		ids := make([]string, len(rec.Tracks))
		for i, tr := range rec.Tracks {
			ids[i] = tr.ID
		}
		assert.ElementsMatch(t, []string{"t1", "t3", "t4", "t2"}, ids[:4])
		assert.NotContains(t, ids[:3], "t2")
		assert.NotContains(t, ids[:3], "t5")
	})

	t.Run("caps each artist at two tracks", func(t *testing.T) {
		svc := &fakeService{genres: map[string][]string{"a": {"pop"}, "b": {"pop"}}}
		for i := range 6 {
			svc.topTracks = append(svc.topTracks, track(fmt.Sprintf("a%d", i), fmt.Sprintf("Song A%d", i), "a"))
			svc.topTracks = append(svc.topTracks, track(fmt.Sprintf("b%d", i), fmt.Sprintf("Song B%d", i), "b"))
		}
		rec, err := newTestEngine(svc).Recommend(context.Background(), nil, "happy", 10)
		require.NoError(t, err)
		require.Len(t, rec.Tracks, 4)

		counts := map[string]int{}
		for _, tr := range rec.Tracks {
			counts[tr.Artist]++
		}
		assert.Equal(t, map[string]int{"Artist a": 2, "Artist b": 2}, counts)
	})

	t.Run("collapses remasters and featured versions", func(t *testing.T) {
		svc := &fakeService{
			topTracks: []services.Track{
				track("t1", "Hey Jude", "beatles"),
				track("t2", "Hey Jude - Remastered 2015", "beatles"),
				track("t3", "Hey Jude (feat. Someone)", "beatles"),
				track("t4", "Hey Jude", "cover"),
			},
		}
		rec, err := newTestEngine(svc).Recommend(context.Background(), nil, "happy", 10)
		require.NoError(t, err)
		require.Len(t, rec.Tracks, 2)

		ids := []string{rec.Tracks[0].ID, rec.Tracks[1].ID}
		assert.ElementsMatch(t, []string{"t1", "t4"}, ids)
	})

	t.Run("falls back to all tracks when nothing matches", func(t *testing.T) {
		svc := &fakeService{
			topTracks: []services.Track{track("t1", "One", "x"), track("t2", "Two", "y")},
			genres:    map[string][]string{"x": {"polka"}, "y": {"sea shanty"}},
		}
		rec, err := newTestEngine(svc).Recommend(context.Background(), nil, "dark", 20)
		require.NoError(t, err)
		assert.Len(t, rec.Tracks, 2)
		assert.Equal(t, "dark", rec.Mood.Bucket)
	})

	t.Run("unknown moods keep their label", func(t *testing.T) {
		svc := &fakeService{topTracks: []services.Track{track("t1", "One", "x")}}
		rec, err := newTestEngine(svc).Recommend(context.Background(), nil, "  Bittersweet ", 5)
		require.NoError(t, err)
		assert.Equal(t, "bittersweet", rec.Mood.Bucket)
	})

	t.Run("blank mood is happy", func(t *testing.T) {
		svc := &fakeService{topTracks: []services.Track{track("t1", "One", "x")}}
		rec, err := newTestEngine(svc).Recommend(context.Background(), nil, "", 5)
		require.NoError(t, err)
		assert.Equal(t, DefaultMood, rec.Mood.Bucket)
	})

	t.Run("falls back to top artists", func(t *testing.T) {
		var many []services.Track
		for i := range 8 {
			many = append(many, track(fmt.Sprintf("m%d", i), fmt.Sprintf("Hit %d", i), "m"))
		}
		svc := &fakeService{
			topArtists:   []services.Artist{{ID: "m"}, {ID: "missing"}, {ID: "n"}},
			artistTracks: map[string][]services.Track{"m": many, "n": {track("n1", "Only", "n")}},
		}
		eng := newTestEngine(svc)
		pool, err := eng.candidates(context.Background(), nil, rand.New(rand.NewPCG(3, 4)))
		require.NoError(t, err)
		assert.Len(t, pool, perArtistFallback+1)

		rec, err := eng.Recommend(context.Background(), nil, "chill", 20)
		require.NoError(t, err)
		assert.Len(t, rec.Tracks, 3)
	})

	t.Run("empty history yields no_data", func(t *testing.T) {
		rec, err := newTestEngine(&fakeService{}).Recommend(context.Background(), nil, "happy", 20)
		require.NoError(t, err)
		assert.Equal(t, NoDataBucket, rec.Mood.Bucket)
		assert.NotNil(t, rec.Tracks)
		assert.Empty(t, rec.Tracks)
	})

	t.Run("top tracks failure is returned", func(t *testing.T) {
		svc := &fakeService{topTracksErr: shared.ErrTokenExpired}
		_, err := newTestEngine(svc).Recommend(context.Background(), nil, "happy", 20)
		assert.ErrorIs(t, err, shared.ErrTokenExpired)
	})

	t.Run("genre failure on every chunk is returned", func(t *testing.T) {
		svc := &fakeService{topTracks: []services.Track{track("t1", "One", "x")}, artistsErr: shared.ErrForbidden}
		_, err := newTestEngine(svc).Recommend(context.Background(), nil, "happy", 20)
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})

	t.Run("nil service", func(t *testing.T) {
		_, err := NewMoodEngine(nil).Recommend(context.Background(), nil, "happy", 20)
		assert.ErrorIs(t, err, shared.ErrServiceUnavailable)
	})

	t.Run("looks up genres in chunks", func(t *testing.T) {
		svc := &fakeService{}
		for i := range 120 {
			svc.topTracks = append(svc.topTracks, track(fmt.Sprintf("t%d", i), fmt.Sprintf("Song %d", i), fmt.Sprintf("a%d", i)))
		}
		_, err := newTestEngine(svc).Recommend(context.Background(), nil, "happy", 20)
		require.NoError(t, err)

		require.Len(t, svc.artistLookups, 3)
		sizes := []int{}
		for _, ids := range svc.artistLookups {
			sizes = append(sizes, len(ids))
		}
		assert.ElementsMatch(t, []int{50, 50, 20}, sizes)
	})

	t.Run("rotates the time range daily", func(t *testing.T) {
		svc := &fakeService{}
		for d := range 4 {
			at := time.UnixMilli(int64(d) * day.Milliseconds())
			_, err := NewMoodEngine(svc, WithNow(func() time.Time { return at })).Recommend(context.Background(), nil, "happy", 20)
			require.NoError(t, err)
		}
		assert.Equal(t, []string{services.ShortTerm, services.MediumTerm, services.LongTerm, services.ShortTerm}, svc.timeRanges)
	})

	t.Run("publishes progress without blocking", func(t *testing.T) {
		svc := &fakeService{topTracks: []services.Track{track("t1", "One", "x")}}
		progress := make(chan ProgressUpdate, 1)
		_, err := newTestEngine(svc).Recommend(context.Background(), progress, "happy", 20)
		require.NoError(t, err)

		update := <-progress
		assert.Equal(t, FetchPool, update.Phase)
	})
}

func TestBuildPlaylist(t *testing.T) {
	t.Run("creates and fills the playlist", func(t *testing.T) {
		svc := &fakeService{
			topTracks: []services.Track{track("t1", "One", "x"), track("t2", "Two", "y")},
			genres:    map[string][]string{"x": {"ambient"}},
		}
		res, err := newTestEngine(svc).BuildPlaylist(context.Background(), nil, "Chill", "", 20)
		require.NoError(t, err)

		assert.Equal(t, "pl1", res.Playlist.ID)
		assert.Equal(t, 2, res.Playlist.TrackCount)
		assert.Equal(t, []string{"Mood • chill|Here's a playlist when you feel chill"}, svc.created)
		assert.ElementsMatch(t, []string{"spotify:track:t1", "spotify:track:t2"}, svc.added["pl1"])
		assert.Equal(t, "chill", res.Recommendation.Mood.Bucket)
	})

	t.Run("custom name", func(t *testing.T) {
		svc := &fakeService{topTracks: []services.Track{track("t1", "One", "x")}}
		res, err := newTestEngine(svc).BuildPlaylist(context.Background(), nil, "happy", "  Friday  ", 20)
		require.NoError(t, err)
		assert.Equal(t, "Friday", res.Playlist.Name)
	})

	t.Run("nothing to add", func(t *testing.T) {
		_, err := newTestEngine(&fakeService{}).BuildPlaylist(context.Background(), nil, "happy", "", 20)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("create failure", func(t *testing.T) {
		svc := &fakeService{topTracks: []services.Track{track("t1", "One", "x")}, createErr: shared.ErrForbidden}
		_, err := newTestEngine(svc).BuildPlaylist(context.Background(), nil, "happy", "", 20)
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})

	t.Run("add failure", func(t *testing.T) {
		boom := errors.New("boom")
		svc := &fakeService{topTracks: []services.Track{track("t1", "One", "x")}, addErr: boom}
		_, err := newTestEngine(svc).BuildPlaylist(context.Background(), nil, "happy", "", 20)
		assert.ErrorIs(t, err, boom)
	})
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, ClampLimit(0))
	assert.Equal(t, DefaultLimit, ClampLimit(-3))
	assert.Equal(t, 7, ClampLimit(7))
	assert.Equal(t, MaxLimit, ClampLimit(500))
}
