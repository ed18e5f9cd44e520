// Spotify API implementation of [Service]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/desertthunder/moody/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	// MaxArtistIDs is the most ids accepted by one several-artists lookup.
	MaxArtistIDs = 50
	// MaxPlaylistAdd is the most URIs accepted by one add-tracks request.
	MaxPlaylistAdd = 100
)

type externalURLs struct {
	Spotify string `json:"spotify"`
}

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

type externalIDs struct {
	ISRC string `json:"isrc"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Artists     []SpotifyArtist `json:"artists"`
	Album       SpotifyAlbum    `json:"album"`
	DurationMS  int             `json:"duration_ms"`
	Explicit    bool            `json:"explicit"`
	ExternalIDs externalIDs     `json:"external_ids"`
	Popularity  int             `json:"popularity"`
	URI         string          `json:"uri"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Genres     []string       `json:"genres"`
	Images     []SpotifyImage `json:"images"`
	Popularity int            `json:"popularity"`
	URI        string         `json:"uri"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Artists     []SpotifyArtist `json:"artists"`
	ReleaseDate string          `json:"release_date"`
	TotalTracks int             `json:"total_tracks"`
	Images      []SpotifyImage  `json:"images"`
	URI         string          `json:"uri"`
}

type Owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type playlistTracks struct {
	Total int `json:"total"`
}

// SpotifyPlaylist represents a simplified playlist object.
type SpotifyPlaylist struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	Owner        Owner          `json:"owner"`
	Public       bool           `json:"public"`
	Tracks       playlistTracks `json:"tracks"`
	Images       []SpotifyImage `json:"images"`
	ExternalURLs externalURLs   `json:"external_urls"`
	URI          string         `json:"uri"`
}

// SpotifyPaging is a page of items from a paginated endpoint.
type SpotifyPaging[T any] struct {
	Items    []T     `json:"items"`
	Total    int     `json:"total"`
	Limit    int     `json:"limit"`
	Offset   int     `json:"offset"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
}

// SpotifyError is the error object returned by the Web API.
type SpotifyError struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// SpotifyService implements the Service interface for Spotify API interactions.
// Uses [oauth2] for authentication and provides methods for playlist and track operations.
type SpotifyService struct {
	config         *oauth2.Config
	token          *oauth2.Token
	source         oauth2.TokenSource
	httpClient     *http.Client
	baseURL        string
	limiter        *rate.Limiter
	credentials    map[string]string
	onTokenRefresh func(*oauth2.Token)
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(credentials map[string]string) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id in credentials", shared.ErrMissingCredentials)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret in credentials", shared.ErrMissingCredentials)
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = "http://127.0.0.1:8080/api/v1/spotify/callback"
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"user-read-private",
			"user-read-email",
			"user-top-read",
			"playlist-modify-public",
			"playlist-modify-private",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifyService{
		config:      config,
		httpClient:  http.DefaultClient,
		baseURL:     spotifyBaseURL,
		limiter:     rate.NewLimiter(rate.Limit(10), 5),
		credentials: credentials,
	}, nil
}

// SetBaseURL points the service at another API root, such as a test server.
func (s *SpotifyService) SetBaseURL(u string) {
	s.baseURL = strings.TrimRight(u, "/")
}

// SetRateLimit sets the maximum requests per second sent to the API.
func (s *SpotifyService) SetRateLimit(perSecond float64, burst int) {
	s.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
}

// SetTokenRefreshCallback registers fn to receive each new token obtained by the service,
// including refreshed ones, so it can be persisted.
func (s *SpotifyService) SetTokenRefreshCallback(fn func(*oauth2.Token)) {
	s.onTokenRefresh = fn
}

// Authenticate performs OAuth2 authentication with Spotify. Expects either an "access_token" or "auth_code" in credentials.
func (s *SpotifyService) Authenticate(ctx context.Context, credentials map[string]string) error {
	if accessToken, ok := credentials["access_token"]; ok && accessToken != "" {
		s.useToken(ctx, &oauth2.Token{AccessToken: accessToken, RefreshToken: credentials["refresh_token"]})
		return nil
	}

	if authCode, ok := credentials["auth_code"]; ok && authCode != "" {
		token, err := s.Exchange(ctx, authCode)
		if err != nil {
			return err
		}
		s.useToken(ctx, token)
		return nil
	}

	return fmt.Errorf("%w: missing access_token or auth_code in credentials", shared.ErrMissingCredentials)
}

// Exchange trades an authorization code for a token.
func (s *SpotifyService) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := s.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to exchange auth code: %v", shared.ErrAuthFailed, err)
	}
	return token, nil
}

// ForToken returns a copy of the service acting on behalf of the user who owns token.
// The copy shares the rate limiter and refresh callback.
func (s *SpotifyService) ForToken(ctx context.Context, token *oauth2.Token) *SpotifyService {
	return s.ForUser(ctx, token, s.onTokenRefresh)
}

// ForUser is like [SpotifyService.ForToken] but reports refreshed tokens to onRefresh
// instead of the shared callback.
func (s *SpotifyService) ForUser(ctx context.Context, token *oauth2.Token, onRefresh func(*oauth2.Token)) *SpotifyService {
	clone := *s
	clone.onTokenRefresh = onRefresh
	clone.useToken(ctx, token)
	return &clone
}

func (s *SpotifyService) useToken(ctx context.Context, token *oauth2.Token) {
	s.token = token
	s.source = &refreshableTokenSource{
		source:   s.config.TokenSource(ctx, token),
		callback: s.onTokenRefresh,
		last:     token.AccessToken,
	}
	s.httpClient = oauth2.NewClient(ctx, s.source)
}

// CurrentToken returns the token in use, refreshing it first when it has expired.
func (s *SpotifyService) CurrentToken() (*oauth2.Token, error) {
	if s.source == nil {
		return nil, shared.ErrNotAuthenticated
	}
	return s.source.Token()
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// refreshableTokenSource reports every token that differs from the last one seen.
type refreshableTokenSource struct {
	mu       sync.Mutex
	source   oauth2.TokenSource
	callback func(*oauth2.Token)
	last     string
}

func (r *refreshableTokenSource) Token() (*oauth2.Token, error) {
	token, err := r.source.Token()
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	changed := token.AccessToken != r.last
	r.last = token.AccessToken
	r.mu.Unlock()

	if changed && r.callback != nil {
		func() {
			defer func() { _ = recover() }()
			r.callback(token)
		}()
	}
	return token, nil
}

// doRequest performs an authenticated HTTP request to the Spotify API.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, body any, result any) error {
	if s.token == nil {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return spotifyError(resp)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

func spotifyError(resp *http.Response) error {
	var payload struct {
		Error SpotifyError `json:"error"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	_ = json.Unmarshal(data, &payload)

	msg := payload.Error.Message
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: spotify: %s", shared.ErrTokenExpired, msg)
	case http.StatusForbidden:
		return fmt.Errorf("%w: spotify: %s", shared.ErrForbidden, msg)
	case http.StatusNotFound:
		return fmt.Errorf("%w: spotify: %s", shared.ErrNotFound, msg)
	default:
		return fmt.Errorf("%w: spotify status %d: %s", shared.ErrAPIRequest, resp.StatusCode, msg)
	}
}

// UserTopTracks retrieves the user's top tracks for timeRange.
func (s *SpotifyService) UserTopTracks(ctx context.Context, timeRange string, limit, offset int) (*SpotifyPaging[SpotifyTrack], error) {
	endpoint := fmt.Sprintf("/me/top/tracks?time_range=%s&limit=%d&offset=%d", url.QueryEscape(timeRange), clampLimit(limit), offset)

	var response SpotifyPaging[SpotifyTrack]
	if err := s.doRequest(ctx, "GET", endpoint, nil, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// UserTopArtists retrieves the user's top artists for timeRange.
func (s *SpotifyService) UserTopArtists(ctx context.Context, timeRange string, limit int) (*SpotifyPaging[SpotifyArtist], error) {
	endpoint := fmt.Sprintf("/me/top/artists?time_range=%s&limit=%d", url.QueryEscape(timeRange), clampLimit(limit))

	var response SpotifyPaging[SpotifyArtist]
	if err := s.doRequest(ctx, "GET", endpoint, nil, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// SeveralArtists retrieves up to [MaxArtistIDs] artists by their IDs.
func (s *SpotifyService) SeveralArtists(ctx context.Context, artistIDs []string) ([]SpotifyArtist, error) {
	if len(artistIDs) == 0 {
		return nil, fmt.Errorf("%w: no artist IDs provided", shared.ErrInvalidArgument)
	}
	if len(artistIDs) > MaxArtistIDs {
		return nil, fmt.Errorf("%w: maximum %d artist IDs allowed", shared.ErrInvalidArgument, MaxArtistIDs)
	}

	endpoint := "/artists?ids=" + url.QueryEscape(strings.Join(artistIDs, ","))

	var response struct {
		Artists []*SpotifyArtist `json:"artists"`
	}
	if err := s.doRequest(ctx, "GET", endpoint, nil, &response); err != nil {
		return nil, err
	}

	artists := make([]SpotifyArtist, 0, len(response.Artists))
	for _, a := range response.Artists {
		// unknown ids come back as null
		if a != nil {
			artists = append(artists, *a)
		}
	}
	return artists, nil
}

// SpotifyArtistTopTracks retrieves an artist's top tracks in the user's market.
func (s *SpotifyService) SpotifyArtistTopTracks(ctx context.Context, artistID string) ([]SpotifyTrack, error) {
	endpoint := fmt.Sprintf("/artists/%s/top-tracks?market=from_token", url.PathEscape(artistID))

	var response struct {
		Tracks []SpotifyTrack `json:"tracks"`
	}
	if err := s.doRequest(ctx, "GET", endpoint, nil, &response); err != nil {
		return nil, err
	}
	return response.Tracks, nil
}

// SearchArtists searches the catalog for artists matching query.
func (s *SpotifyService) SearchArtists(ctx context.Context, query string, limit int) ([]Artist, error) {
	endpoint := fmt.Sprintf("/search?type=artist&q=%s&limit=%d", url.QueryEscape(query), clampLimit(limit))

	var response struct {
		Artists SpotifyPaging[SpotifyArtist] `json:"artists"`
	}
	if err := s.doRequest(ctx, "GET", endpoint, nil, &response); err != nil {
		return nil, err
	}
	return toArtists(response.Artists.Items), nil
}

// Playlist retrieves a playlist by ID.
func (s *SpotifyService) Playlist(ctx context.Context, playlistID string) (*Playlist, error) {
	endpoint := fmt.Sprintf("/playlists/%s", url.PathEscape(playlistID))

	var sp SpotifyPlaylist
	if err := s.doRequest(ctx, "GET", endpoint, nil, &sp); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
		}
		return nil, err
	}
	return toPlaylist(sp), nil
}

// Service interface implementation

// TopTracks retrieves the user's top tracks.
func (s *SpotifyService) TopTracks(ctx context.Context, timeRange string, limit, offset int) ([]Track, error) {
	page, err := s.UserTopTracks(ctx, timeRange, limit, offset)
	if err != nil {
		return nil, err
	}
	return toTracks(page.Items), nil
}

// TopArtists retrieves the user's top artists.
func (s *SpotifyService) TopArtists(ctx context.Context, timeRange string, limit int) ([]Artist, error) {
	page, err := s.UserTopArtists(ctx, timeRange, limit)
	if err != nil {
		return nil, err
	}
	return toArtists(page.Items), nil
}

// ArtistTopTracks retrieves an artist's top tracks.
func (s *SpotifyService) ArtistTopTracks(ctx context.Context, artistID string) ([]Track, error) {
	tracks, err := s.SpotifyArtistTopTracks(ctx, artistID)
	if err != nil {
		return nil, err
	}
	return toTracks(tracks), nil
}

// Artists retrieves artists with their genres.
func (s *SpotifyService) Artists(ctx context.Context, ids []string) ([]Artist, error) {
	artists, err := s.SeveralArtists(ctx, ids)
	if err != nil {
		return nil, err
	}
	return toArtists(artists), nil
}

// CreatePlaylist creates a playlist for the current user.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, name, description string, public bool) (*Playlist, error) {
	body := map[string]any{
		"name":        name,
		"description": description,
		"public":      public,
	}

	var sp SpotifyPlaylist
	if err := s.doRequest(ctx, "POST", "/me/playlists", body, &sp); err != nil {
		return nil, err
	}
	return toPlaylist(sp), nil
}

// AddTracks adds uris to a playlist in batches of [MaxPlaylistAdd].
func (s *SpotifyService) AddTracks(ctx context.Context, playlistID string, uris []string) error {
	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))
	for start := 0; start < len(uris); start += MaxPlaylistAdd {
		end := min(start+MaxPlaylistAdd, len(uris))
		body := map[string]any{"uris": uris[start:end]}
		if err := s.doRequest(ctx, "POST", endpoint, body, nil); err != nil {
			return fmt.Errorf("failed to add tracks %d-%d: %w", start, end, err)
		}
	}
	return nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	return min(limit, 50)
}

func toTracks(items []SpotifyTrack) []Track {
	tracks := make([]Track, 0, len(items))
	for _, st := range items {
		if st.ID == "" {
			continue
		}
		track := Track{
			ID:       st.ID,
			Title:    st.Name,
			Album:    st.Album.Name,
			Duration: st.DurationMS / 1000,
			ISRC:     st.ExternalIDs.ISRC,
			URI:      st.URI,
		}
		if track.URI == "" {
			track.URI = "spotify:track:" + st.ID
		}
		for i, a := range st.Artists {
			if i == 0 {
				track.Artist = a.Name
			}
			track.ArtistIDs = append(track.ArtistIDs, a.ID)
		}
		tracks = append(tracks, track)
	}
	return tracks
}

func toPlaylist(sp SpotifyPlaylist) *Playlist {
	return &Playlist{
		ID:          sp.ID,
		Name:        sp.Name,
		Description: sp.Description,
		URL:         sp.ExternalURLs.Spotify,
		TrackCount:  sp.Tracks.Total,
		Public:      sp.Public,
	}
}

func toArtists(items []SpotifyArtist) []Artist {
	artists := make([]Artist, 0, len(items))
	for _, a := range items {
		artists = append(artists, Artist{ID: a.ID, Name: a.Name, Genres: a.Genres})
	}
	return artists
}
