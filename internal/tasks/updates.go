package tasks

import (
	"fmt"

	"github.com/desertthunder/moody/internal/models"
	"github.com/desertthunder/moody/internal/services"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchPool Phase = iota
	FetchGenres
	ScoreTracks
	SelectTracks
	CreatePlaylist
	AddTracks
)

func (p Phase) String() string {
	switch p {
	case FetchPool:
		return "fetch_pool"
	case FetchGenres:
		return "fetch_genres"
	case ScoreTracks:
		return "score_tracks"
	case SelectTracks:
		return "select_tracks"
	case CreatePlaylist:
		return "create_playlist"
	case AddTracks:
		return "add_tracks"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
		// Channel full, skip this update
	}
}

func fetchTopTracksUpdate(timeRange string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPool,
		Step:    1,
		Total:   2,
		Message: fmt.Sprintf("Fetching top tracks (%s)...", timeRange),
	}
}

func fetchTopArtistsUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPool,
		Step:    2,
		Total:   2,
		Message: "No top tracks, falling back to top artists...",
	}
}

func poolUpdate(tracks []services.Track) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPool,
		Step:    2,
		Total:   2,
		Message: fmt.Sprintf("Found %d candidate tracks", len(tracks)),
		Data:    len(tracks),
	}
}

func fetchGenresUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchGenres,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Looking up artist genres...", step, total),
	}
}

func scoreUpdate(bucket string, matched, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ScoreTracks,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("%d of %d tracks match %q", matched, total, bucket),
	}
}

func selectUpdate(rec *models.Recommendation) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SelectTracks,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Selected %d tracks", len(rec.Tracks)),
		Data:    rec,
	}
}

func createPlaylistUpdate(pl *services.Playlist) ProgressUpdate {
	if pl == nil {
		return ProgressUpdate{
			Phase:   CreatePlaylist,
			Step:    0,
			Total:   1,
			Message: "Creating playlist on Spotify...",
		}
	}
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Playlist created: %s (ID: %s)", pl.Name, pl.ID),
		Data:    pl,
	}
}

func addTracksUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AddTracks,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Added %d tracks", count),
	}
}
