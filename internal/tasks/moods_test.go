package tasks

import (
	"slices"
	"testing"
)

func TestMoods(t *testing.T) {
	moods := Moods()
	if len(moods) != len(moodPatterns) {
		t.Fatalf("expected %d moods, got %d", len(moodPatterns), len(moods))
	}
	if !slices.IsSorted(moods) {
		t.Errorf("expected sorted moods, got %v", moods)
	}
	for _, m := range []string{"happy", "chill", "party", "free"} {
		if !slices.Contains(moods, m) {
			t.Errorf("expected %q in moods", m)
		}
	}
}

func TestPatterns(t *testing.T) {
	tests := []struct {
		name   string
		mood   string
		bucket string
		same   string
	}{
		{name: "known", mood: "chill", bucket: "chill", same: "chill"},
		{name: "case and space", mood: "  ChILL ", bucket: "chill", same: "chill"},
		{name: "blank", mood: "   ", bucket: "happy", same: "happy"},
		{name: "unknown", mood: "Wistful", bucket: "wistful", same: "happy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bucket, patterns := Patterns(tt.mood)
			if bucket != tt.bucket {
				t.Errorf("expected bucket %q, got %q", tt.bucket, bucket)
			}
			if len(patterns) != len(compiledMoods[tt.same]) || patterns[0] != compiledMoods[tt.same][0] {
				t.Errorf("expected %s patterns", tt.same)
			}
		})
	}
}

func TestScore(t *testing.T) {
	_, chill := Patterns("chill")
	tests := []struct {
		name   string
		genres []string
		want   int
	}{
		{name: "none", genres: nil, want: 0},
		{name: "one match per genre", genres: []string{"chill lo-fi beats"}, want: 1},
		{name: "variants", genres: []string{"Lofi", "lo fi house", "Laid Back"}, want: 3},
		{name: "no match", genres: []string{"death metal", "grindcore"}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := score(tt.genres, chill); got != tt.want {
				t.Errorf("score(%v) = %d, want %d", tt.genres, got, tt.want)
			}
		})
	}
}

func TestCanonicalTitle(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Hey Jude", "hey jude"},
		{"Hey Jude - Remastered 2015", "hey jude"},
		{"Heroes (feat. David Bowie)", "heroes"},
		{"Heroes [featuring Someone]", "heroes"},
		{"Blue Monday (12\" Version)", "blue monday"},
		{"Smells Like Teen Spirit - Live", "smells like teen spirit"},
		{"Señorita", "senorita"},
		{"Simon & Garfunkel", "simon and garfunkel"},
		{"Don't Stop Me Now", "don t stop me now"},
		{"Olive Tree", "olive tree"},
		{"Version", "version"},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			if got := CanonicalTitle(tt.title); got != tt.want {
				t.Errorf("CanonicalTitle(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}

func TestPhaseString(t *testing.T) {
	for phase, want := range map[Phase]string{
		FetchPool:      "fetch_pool",
		FetchGenres:    "fetch_genres",
		ScoreTracks:    "score_tracks",
		SelectTracks:   "select_tracks",
		CreatePlaylist: "create_playlist",
		AddTracks:      "add_tracks",
		Phase(99):      "",
	} {
		if got := phase.String(); got != want {
			t.Errorf("Phase(%d).String() = %q, want %q", phase, got, want)
		}
	}
}

func TestSendProgress(t *testing.T) {
	sendProgress(nil, ProgressUpdate{})

	ch := make(chan ProgressUpdate, 1)
	sendProgress(ch, ProgressUpdate{Message: "first"})
	sendProgress(ch, ProgressUpdate{Message: "dropped"})
	if got := <-ch; got.Message != "first" {
		t.Errorf("expected first update, got %q", got.Message)
	}
}
