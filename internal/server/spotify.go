package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"golang.org/x/oauth2"

	"github.com/desertthunder/moody/internal/models"
	"github.com/desertthunder/moody/internal/services"
	"github.com/desertthunder/moody/internal/shared"
)

// MusicProvider links user accounts to a music service and acts on their behalf.
type MusicProvider interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	// Client returns a service using token. onRefresh receives every refreshed token.
	Client(ctx context.Context, token *oauth2.Token, onRefresh func(*oauth2.Token)) services.Service
}

type spotifyProvider struct {
	spotify *services.SpotifyService
}

// SpotifyProvider adapts a [services.SpotifyService] to a [MusicProvider].
func SpotifyProvider(s *services.SpotifyService) MusicProvider {
	return spotifyProvider{spotify: s}
}

func (p spotifyProvider) AuthURL(state string) string { return p.spotify.GetAuthURL(state) }

func (p spotifyProvider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	return p.spotify.Exchange(ctx, code)
}

func (p spotifyProvider) Client(ctx context.Context, token *oauth2.Token, onRefresh func(*oauth2.Token)) services.Service {
	return p.spotify.ForUser(ctx, token, onRefresh)
}

// musicFor returns the music service acting as userID. Refreshed tokens are written
// back to the user.
func (a *App) musicFor(ctx context.Context, userID string) (services.Service, error) {
	if a.music == nil {
		return nil, fmt.Errorf("%w: spotify is not configured", shared.ErrServiceUnavailable)
	}

	user, err := a.users.Get(userID)
	if err != nil {
		return nil, err
	}
	token := user.Spotify()
	if !token.Linked() {
		return nil, fmt.Errorf("%w: connect spotify first", shared.ErrNotLinked)
	}

	persist := func(t *oauth2.Token) {
		_, err := a.users.Mutate(userID, func(u *models.User) error {
			u.SetSpotify(mergeToken(u.Spotify(), t))
			return nil
		})
		if err != nil {
			a.logger.Warn("failed to store refreshed spotify token", "user", userID, "error", err)
		}
	}
	return a.music.Client(ctx, toOAuth(token), persist), nil
}

func toOAuth(t models.SpotifyToken) *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    t.TokenType,
		Expiry:       t.Expiry,
	}
}

// mergeToken keeps the stored refresh token when a refresh response omits it.
func mergeToken(stored models.SpotifyToken, t *oauth2.Token) models.SpotifyToken {
	next := models.SpotifyToken{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    t.TokenType,
		Expiry:       t.Expiry,
	}
	if next.RefreshToken == "" {
		next.RefreshToken = stored.RefreshToken
	}
	return next
}

// SpotifyHandler links a Spotify account through the authorization code flow.
//
// The state parameter is a short-lived signed token naming the user, so the callback
// needs no session and cannot be replayed for another account.
type SpotifyHandler struct {
	app *App
}

func (h *SpotifyHandler) Routes() []Route {
	return []Route{
		{Method: http.MethodGet, Path: apiPrefix + "/spotify/authorize", Handler: h.authorize, Auth: true},
		{Method: http.MethodGet, Path: apiPrefix + "/spotify/callback", Handler: h.callback},
		{Method: http.MethodGet, Path: apiPrefix + "/spotify/artists", Handler: h.searchArtists, Auth: true},
		{Method: http.MethodGet, Path: apiPrefix + "/me/top", Handler: h.topArtists, Auth: true},
	}
}

// topArtistsLimit is the page size Spotify allows for top items.
const topArtistsLimit = 50

// topArtists lists the caller's most played artists. timeRange defaults to medium_term.
func (h *SpotifyHandler) topArtists(w http.ResponseWriter, r *http.Request) {
	timeRange := r.URL.Query().Get("timeRange")
	if timeRange == "" {
		timeRange = services.MediumTerm
	}
	if !slices.Contains(services.TimeRanges, timeRange) {
		h.app.fail(w, r, fmt.Errorf("%w: timeRange must be one of %s", shared.ErrInvalidInput, strings.Join(services.TimeRanges, ", ")))
		return
	}
	limit, err := limitParam(r, topArtistsLimit)
	if err != nil {
		h.app.fail(w, r, err)
		return
	}

	userID := h.app.userID(r)
	svc, err := h.app.musicFor(r.Context(), userID)
	if err != nil {
		h.app.fail(w, r, err)
		return
	}
	artists, err := svc.TopArtists(r.Context(), timeRange, min(limit, topArtistsLimit))
	if err != nil {
		h.app.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.TopArtistsResponse{UserID: userID, TopArtists: artistResponses(artists)})
}

// searchArtists searches the Spotify catalog by artist name.
func (h *SpotifyHandler) searchArtists(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		h.app.fail(w, r, fmt.Errorf("%w: q is required", shared.ErrMissingArgument))
		return
	}
	limit, err := limitParam(r, 10)
	if err != nil {
		h.app.fail(w, r, err)
		return
	}

	svc, err := h.app.musicFor(r.Context(), h.app.userID(r))
	if err != nil {
		h.app.fail(w, r, err)
		return
	}
	artists, err := svc.SearchArtists(r.Context(), q, min(limit, topArtistsLimit))
	if err != nil {
		h.app.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, artistResponses(artists))
}

func artistResponses(artists []services.Artist) []models.ArtistResponse {
	out := make([]models.ArtistResponse, 0, len(artists))
	for _, a := range artists {
		out = append(out, models.ArtistResponse{ID: a.ID, Name: a.Name, Genres: a.Genres})
	}
	return out
}

func (h *SpotifyHandler) authorize(w http.ResponseWriter, r *http.Request) {
	if h.app.music == nil {
		h.app.fail(w, r, fmt.Errorf("%w: spotify is not configured", shared.ErrServiceUnavailable))
		return
	}
	state, err := h.app.issuer.IssueState(h.app.userID(r))
	if err != nil {
		h.app.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.AuthorizeResponse{URL: h.app.music.AuthURL(state)})
}

// callback validates the state, exchanges the code and stores the token on the user.
func (h *SpotifyHandler) callback(w http.ResponseWriter, r *http.Request) {
	if h.app.music == nil {
		http.Error(w, "Spotify is not configured", http.StatusServiceUnavailable)
		return
	}

	query := r.URL.Query()
	userID, err := h.app.issuer.ParseState(query.Get("state"))
	if err != nil {
		h.app.logger.Warn("spotify callback with invalid state", "error", err)
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	code := query.Get("code")
	if code == "" {
		h.app.logger.Warn("spotify authorization failed", "user", userID,
			"error", query.Get("error"), "description", query.Get("error_description"))
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}

	token, err := h.app.music.Exchange(r.Context(), code)
	if err != nil {
		h.app.logger.Error("spotify token exchange failed", "user", userID, "error", err)
		http.Error(w, "Token exchange failed", http.StatusBadGateway)
		return
	}

	_, err = h.app.users.Mutate(userID, func(u *models.User) error {
		u.SetSpotify(mergeToken(u.Spotify(), token))
		return nil
	})
	if errors.Is(err, shared.ErrNotFound) {
		http.Error(w, "Account not found", http.StatusNotFound)
		return
	} else if err != nil {
		h.app.logger.Error("failed to store spotify token", "user", userID, "error", err)
		http.Error(w, "Failed to link account", http.StatusInternalServerError)
		return
	}

	h.app.logger.Info("spotify linked", "user", userID)
	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, linkedPage)
}

const linkedPage = `
<!DOCTYPE html>
<html>
<head>
    <title>Spotify Linked</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #eaf6ff; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #1DB954; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>✓ Spotify Linked</h1>
        <p>You can close this window and pick a mood in Moody.</p>
    </div>
</body>
</html>
`
