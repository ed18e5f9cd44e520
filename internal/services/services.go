// package services defines interface Service for interacting with music streaming APIs
//
// Spotify
package services

import (
	"context"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Time ranges accepted by the personalization endpoints.
const (
	ShortTerm  = "short_term"
	MediumTerm = "medium_term"
	LongTerm   = "long_term"
)

// TimeRanges lists the personalization time ranges from most to least recent.
var TimeRanges = []string{ShortTerm, MediumTerm, LongTerm}

// Service defines the music provider operations used to build mood playlists.
type Service interface {
	// TopTracks returns the user's most played tracks for timeRange.
	TopTracks(ctx context.Context, timeRange string, limit, offset int) ([]Track, error)

	// TopArtists returns the user's most played artists for timeRange.
	TopArtists(ctx context.Context, timeRange string, limit int) ([]Artist, error)

	// ArtistTopTracks returns an artist's most popular tracks.
	ArtistTopTracks(ctx context.Context, artistID string) ([]Track, error)

	// Artists looks up artists by id, including their genres. At most [MaxArtistIDs] ids per call.
	Artists(ctx context.Context, ids []string) ([]Artist, error)

	// CreatePlaylist creates an empty playlist owned by the user.
	CreatePlaylist(ctx context.Context, name, description string, public bool) (*Playlist, error)

	// AddTracks appends tracks, given as URIs, to a playlist.
	AddTracks(ctx context.Context, playlistID string, uris []string) error

	// Playlist looks up a playlist by id.
	Playlist(ctx context.Context, playlistID string) (*Playlist, error)

	// SearchArtists searches the catalog for artists matching query.
	SearchArtists(ctx context.Context, query string, limit int) ([]Artist, error)

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}

// Playlist represents a music playlist from any service
type Playlist struct {
	ID          string
	Name        string
	Description string
	URL         string
	TrackCount  int
	Public      bool
}

// Track represents a music track from any service
type Track struct {
	ID        string
	Title     string
	Artist    string   // Primary artist name
	ArtistIDs []string // Artist ids, primary first
	Album     string
	Duration  int // Duration in seconds
	ISRC      string
	URI       string
}

// PrimaryArtistID returns the id of the first credited artist.
func (t Track) PrimaryArtistID() string {
	if len(t.ArtistIDs) == 0 {
		return ""
	}
	return t.ArtistIDs[0]
}

// Artist represents a performer with the genres the service assigns them.
type Artist struct {
	ID     string
	Name   string
	Genres []string
}
