package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/moody/internal/shared"
	"golang.org/x/oauth2"
)

func testCredentials() map[string]string {
	return map[string]string{
		"client_id":     "test_client_id",
		"client_secret": "test_client_secret",
	}
}

// newTestSpotify returns a service authenticated against a test server running handler.
func newTestSpotify(t *testing.T, handler http.HandlerFunc) *SpotifyService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	srv, err := NewSpotifyService(testCredentials())
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	srv.SetBaseURL(server.URL)
	srv.SetRateLimit(1000, 100)
	if err := srv.Authenticate(context.Background(), map[string]string{"access_token": "test"}); err != nil {
		t.Fatalf("failed to authenticate: %v", err)
	}
	return srv
}

func TestSpotifyService(t *testing.T) {
	t.Run("NewSpotifyService", func(t *testing.T) {
		t.Run("With Valid Credentials", func(t *testing.T) {
			credentials := testCredentials()
			credentials["redirect_uri"] = "http://example.com/callback"

			srv, err := NewSpotifyService(credentials)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if srv == nil {
				t.Fatal("expected service to be created")
			}

			if srv.Name() != "Spotify" {
				t.Errorf("expected service name 'Spotify', got %s", srv.Name())
			}
			if srv.config.RedirectURL != "http://example.com/callback" {
				t.Errorf("expected redirect URI to be kept, got %s", srv.config.RedirectURL)
			}
		})

		t.Run("Missing Client ID", func(t *testing.T) {
			_, err := NewSpotifyService(map[string]string{"client_secret": "test_client_secret"})
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("Missing Client Secret", func(t *testing.T) {
			_, err := NewSpotifyService(map[string]string{"client_id": "test_client_id"})
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("Default Redirect URI", func(t *testing.T) {
			srv, err := NewSpotifyService(testCredentials())
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if !strings.HasSuffix(srv.config.RedirectURL, "/api/v1/spotify/callback") {
				t.Errorf("expected default redirect URI, got %s", srv.config.RedirectURL)
			}
		})
	})

	t.Run("Get AuthURL", func(t *testing.T) {
		srv, err := NewSpotifyService(testCredentials())
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		authURL := srv.GetAuthURL("test_state")
		if !strings.Contains(authURL, "accounts.spotify.com") {
			t.Error("auth URL should contain Spotify domain")
		}
		if !strings.Contains(authURL, "test_client_id") {
			t.Error("auth URL should contain client_id")
		}
		if !strings.Contains(authURL, "test_state") {
			t.Error("auth URL should contain state")
		}
		if !strings.Contains(authURL, "user-top-read") {
			t.Error("auth URL should request the top-read scope")
		}
	})

	t.Run("Authenticate", func(t *testing.T) {
		srv, err := NewSpotifyService(testCredentials())
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		t.Run("Not Authenticated", func(t *testing.T) {
			if _, err := srv.TopTracks(context.Background(), ShortTerm, 20, 0); !errors.Is(err, shared.ErrNotAuthenticated) {
				t.Errorf("expected ErrNotAuthenticated, got %v", err)
			}
			if _, err := srv.CurrentToken(); !errors.Is(err, shared.ErrNotAuthenticated) {
				t.Errorf("expected ErrNotAuthenticated, got %v", err)
			}
		})

		t.Run("WithAccessToken", func(t *testing.T) {
			err := srv.Authenticate(context.Background(), map[string]string{"access_token": "test_access_token"})
			if err != nil {
				t.Errorf("expected no error with access token, got %v", err)
			}

			token, err := srv.CurrentToken()
			if err != nil {
				t.Fatalf("expected token, got %v", err)
			}
			if token.AccessToken != "test_access_token" {
				t.Errorf("expected access token to be 'test_access_token', got %s", token.AccessToken)
			}
		})

		t.Run("Missing Credentials", func(t *testing.T) {
			err := srv.Authenticate(context.Background(), map[string]string{})
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})
	})

	t.Run("ForToken", func(t *testing.T) {
		srv, err := NewSpotifyService(testCredentials())
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		user := srv.ForToken(context.Background(), &oauth2.Token{AccessToken: "user_token"})
		if srv.token != nil {
			t.Error("expected the original service to stay unauthenticated")
		}
		token, err := user.CurrentToken()
		if err != nil || token.AccessToken != "user_token" {
			t.Errorf("expected user token, got %v (%v)", token, err)
		}
	})

	t.Run("ForUser", func(t *testing.T) {
		srv, err := NewSpotifyService(testCredentials())
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}
		srv.SetTokenRefreshCallback(func(*oauth2.Token) { t.Error("shared callback should not be used") })

		var got *oauth2.Token
		user := srv.ForUser(context.Background(), &oauth2.Token{AccessToken: "user_token"}, func(tok *oauth2.Token) { got = tok })
		if user.onTokenRefresh == nil {
			t.Fatal("expected per-user callback")
		}
		user.onTokenRefresh(&oauth2.Token{AccessToken: "new"})
		if got == nil || got.AccessToken != "new" {
			t.Errorf("expected per-user callback to receive token, got %v", got)
		}
	})

	t.Run("Service Interface", func(t *testing.T) {
		srv, err := NewSpotifyService(testCredentials())
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		var _ Service = srv
	})

	t.Run("TopTracks", func(t *testing.T) {
		srv := newTestSpotify(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/me/top/tracks" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			q := r.URL.Query()
			if q.Get("time_range") != MediumTerm || q.Get("limit") != "20" || q.Get("offset") != "7" {
				t.Errorf("unexpected query %s", r.URL.RawQuery)
			}
			if got := r.Header.Get("Authorization"); got != "Bearer test" {
				t.Errorf("expected bearer token, got %q", got)
			}
			io.WriteString(w, `{"items": [
				{"id": "t1", "name": "Song", "uri": "spotify:track:t1", "duration_ms": 180000,
				 "album": {"name": "Album"}, "artists": [{"id": "a1", "name": "Adele"}, {"id": "a2", "name": "Drake"}]},
				{"id": "t2", "name": "No URI", "artists": []},
				{"id": "", "name": "local file"}
			], "total": 3, "limit": 20, "offset": 7}`)
		})

		tracks, err := srv.TopTracks(context.Background(), MediumTerm, 20, 7)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(tracks) != 2 {
			t.Fatalf("expected 2 tracks, got %d", len(tracks))
		}

		first := tracks[0]
		if first.Title != "Song" || first.Artist != "Adele" || first.Album != "Album" || first.Duration != 180 {
			t.Errorf("unexpected track %+v", first)
		}
		if first.PrimaryArtistID() != "a1" || len(first.ArtistIDs) != 2 {
			t.Errorf("expected both artist ids, got %v", first.ArtistIDs)
		}
		if tracks[1].URI != "spotify:track:t2" {
			t.Errorf("expected synthesized URI, got %s", tracks[1].URI)
		}
		if tracks[1].PrimaryArtistID() != "" {
			t.Error("expected no primary artist")
		}
	})

	t.Run("Artists", func(t *testing.T) {
		srv := newTestSpotify(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("ids") != "a1,missing" {
				t.Errorf("unexpected ids %s", r.URL.Query().Get("ids"))
			}
			io.WriteString(w, `{"artists": [{"id": "a1", "name": "Adele", "genres": ["pop", "soul"]}, null]}`)
		})

		artists, err := srv.Artists(context.Background(), []string{"a1", "missing"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(artists) != 1 || artists[0].Genres[1] != "soul" {
			t.Errorf("unexpected artists %+v", artists)
		}

		if _, err := srv.Artists(context.Background(), nil); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument for no ids, got %v", err)
		}
		if _, err := srv.Artists(context.Background(), make([]string, MaxArtistIDs+1)); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument for too many ids, got %v", err)
		}
	})

	t.Run("SearchArtists", func(t *testing.T) {
		srv := newTestSpotify(t, func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if r.URL.Path != "/search" || q.Get("type") != "artist" || q.Get("q") != "daft punk" || q.Get("limit") != "5" {
				t.Errorf("unexpected request %s?%s", r.URL.Path, r.URL.RawQuery)
			}
			io.WriteString(w, `{"artists": {"items": [{"id": "a1", "name": "Daft Punk", "genres": ["french house"]}], "total": 1}}`)
		})

		artists, err := srv.SearchArtists(context.Background(), "daft punk", 5)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(artists) != 1 || artists[0].Name != "Daft Punk" || artists[0].Genres[0] != "french house" {
			t.Errorf("unexpected artists %+v", artists)
		}
	})

	t.Run("Playlist", func(t *testing.T) {
		srv := newTestSpotify(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/playlists/p1" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			io.WriteString(w, `{"id": "p1", "name": "Mood • chill", "public": false, "tracks": {"total": 12},
				"external_urls": {"spotify": "https://open.spotify.com/playlist/p1"}}`)
		})

		pl, err := srv.Playlist(context.Background(), "p1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if pl.Name != "Mood • chill" || pl.TrackCount != 12 || pl.URL != "https://open.spotify.com/playlist/p1" {
			t.Errorf("unexpected playlist %+v", pl)
		}
	})

	t.Run("CreatePlaylist", func(t *testing.T) {
		srv := newTestSpotify(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || r.URL.Path != "/me/playlists" {
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			}
			var body map[string]any
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode body: %v", err)
			}
			if body["name"] != "Mood • happy" || body["public"] != false {
				t.Errorf("unexpected body %v", body)
			}
			w.WriteHeader(http.StatusCreated)
			io.WriteString(w, `{"id": "p1", "name": "Mood • happy", "external_urls": {"spotify": "https://open.spotify.com/playlist/p1"}}`)
		})

		pl, err := srv.CreatePlaylist(context.Background(), "Mood • happy", "Here's a playlist when you feel happy", false)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if pl.ID != "p1" || pl.URL != "https://open.spotify.com/playlist/p1" {
			t.Errorf("unexpected playlist %+v", pl)
		}
	})

	t.Run("AddTracks", func(t *testing.T) {
		var mu sync.Mutex
		var batches []int
		srv := newTestSpotify(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/playlists/p1/tracks" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			var body struct {
				URIs []string `json:"uris"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode body: %v", err)
			}
			mu.Lock()
			batches = append(batches, len(body.URIs))
			mu.Unlock()
			w.WriteHeader(http.StatusCreated)
			io.WriteString(w, `{"snapshot_id": "s"}`)
		})

		uris := make([]string, 250)
		for i := range uris {
			uris[i] = "spotify:track:x"
		}
		if err := srv.AddTracks(context.Background(), "p1", uris); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(batches) != 3 || batches[0] != 100 || batches[1] != 100 || batches[2] != 50 {
			t.Errorf("expected batches of 100, 100, 50, got %v", batches)
		}
	})

	t.Run("Error Mapping", func(t *testing.T) {
		tests := []struct {
			status int
			want   error
		}{
			{http.StatusUnauthorized, shared.ErrTokenExpired},
			{http.StatusForbidden, shared.ErrForbidden},
			{http.StatusNotFound, shared.ErrNotFound},
			{http.StatusTooManyRequests, shared.ErrAPIRequest},
		}

		for _, tt := range tests {
			t.Run(http.StatusText(tt.status), func(t *testing.T) {
				srv := newTestSpotify(t, func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(tt.status)
					io.WriteString(w, `{"error": {"status": 0, "message": "nope"}}`)
				})

				_, err := srv.TopArtists(context.Background(), LongTerm, 10)
				if !errors.Is(err, tt.want) {
					t.Errorf("expected %v, got %v", tt.want, err)
				}
				if !strings.Contains(err.Error(), "nope") {
					t.Errorf("expected API message in %v", err)
				}
			})
		}

		t.Run("Playlist Not Found", func(t *testing.T) {
			srv := newTestSpotify(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			})

			_, err := srv.Playlist(context.Background(), "missing")
			if !errors.Is(err, shared.ErrPlaylistNotFound) {
				t.Errorf("expected ErrPlaylistNotFound, got %v", err)
			}
		})
	})

	t.Run("SetTokenRefreshCallback", func(t *testing.T) {
		credentials := map[string]string{
			"client_id":     "test_client_id",
			"client_secret": "test_client_secret",
		}

		srv, err := NewSpotifyService(credentials)
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		t.Run("sets callback successfully", func(t *testing.T) {
			srv.SetTokenRefreshCallback(func(token *oauth2.Token) {
				// Callback set for testing
			})

			if srv.onTokenRefresh == nil {
				t.Error("expected callback to be set")
			}
		})

		t.Run("can set nil callback", func(t *testing.T) {
			srv.SetTokenRefreshCallback(nil)
			if srv.onTokenRefresh != nil {
				t.Error("expected callback to be nil")
			}
		})

		t.Run("callback can be replaced", func(t *testing.T) {
			srv.SetTokenRefreshCallback(func(token *oauth2.Token) {
				// First callback
			})

			srv.SetTokenRefreshCallback(func(token *oauth2.Token) {
				// Second callback
			})

			if srv.onTokenRefresh == nil {
				t.Error("expected callback to be set")
			}
		})
	})

	t.Run("refreshableTokenSource", func(t *testing.T) {
		t.Run("calls callback on first token fetch", func(t *testing.T) {
			callbackCalled := false
			var capturedToken *oauth2.Token

			mockSource := &mockTokenSource{
				token: &oauth2.Token{AccessToken: "test_token"},
			}

			source := &refreshableTokenSource{
				source: mockSource,
				callback: func(token *oauth2.Token) {
					callbackCalled = true
					capturedToken = token
				},
			}

			token, err := source.Token()
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if !callbackCalled {
				t.Error("expected callback to be called on first fetch")
			}
			if capturedToken == nil {
				t.Error("expected token to be captured")
			}
			if capturedToken.AccessToken != "test_token" {
				t.Errorf("expected captured token to be 'test_token', got %s", capturedToken.AccessToken)
			}
			if token.AccessToken != "test_token" {
				t.Errorf("expected returned token to be 'test_token', got %s", token.AccessToken)
			}
		})

		t.Run("calls callback when token changes", func(t *testing.T) {
			callCount := 0
			var capturedTokens []*oauth2.Token

			mockSource := &mockTokenSource{
				token: &oauth2.Token{AccessToken: "token1"},
			}

			source := &refreshableTokenSource{
				source: mockSource,
				callback: func(token *oauth2.Token) {
					callCount++
					capturedTokens = append(capturedTokens, token)
				},
			}

			_, _ = source.Token()
			if callCount != 1 {
				t.Errorf("expected callback called once, got %d", callCount)
			}

			mockSource.token = &oauth2.Token{AccessToken: "token2"}
			token2, _ := source.Token()

			if callCount != 2 {
				t.Errorf("expected callback called twice, got %d", callCount)
			}
			if len(capturedTokens) != 2 {
				t.Errorf("expected 2 captured tokens, got %d", len(capturedTokens))
			}
			if token2.AccessToken != "token2" {
				t.Errorf("expected new token, got %s", token2.AccessToken)
			}
		})

		t.Run("doesn't call callback when token unchanged", func(t *testing.T) {
			callCount := 0

			mockSource := &mockTokenSource{
				token: &oauth2.Token{AccessToken: "same_token"},
			}

			source := &refreshableTokenSource{
				source: mockSource,
				callback: func(token *oauth2.Token) {
					callCount++
				},
			}

			source.Token()
			source.Token()
			source.Token()

			if callCount != 1 {
				t.Errorf("expected callback called once, got %d", callCount)
			}
		})

		t.Run("handles nil callback gracefully", func(t *testing.T) {
			mockSource := &mockTokenSource{
				token: &oauth2.Token{AccessToken: "test_token"},
			}

			source := &refreshableTokenSource{
				source:   mockSource,
				callback: nil,
			}

			token, err := source.Token()
			if err != nil {
				t.Fatalf("expected no error with nil callback, got %v", err)
			}
			if token.AccessToken != "test_token" {
				t.Error("expected token to be returned despite nil callback")
			}
		})

		t.Run("propagates source errors", func(t *testing.T) {
			mockSource := &mockTokenSource{
				err: errors.New("token source error"),
			}

			source := &refreshableTokenSource{
				source: mockSource,
				callback: func(token *oauth2.Token) {
					t.Error("callback should not be called on error")
				},
			}

			token, err := source.Token()
			if err == nil {
				t.Fatal("expected error from source")
			}
			if !strings.Contains(err.Error(), "token source error") {
				t.Errorf("expected source error, got %v", err)
			}
			if token != nil {
				t.Error("expected nil token on error")
			}
		})

		t.Run("handles callback panic gracefully", func(t *testing.T) {
			defer func() {
				if r := recover(); r != nil {
					t.Error("expected panic to be contained within callback")
				}
			}()

			mockSource := &mockTokenSource{
				token: &oauth2.Token{AccessToken: "test_token"},
			}

			source := &refreshableTokenSource{
				source: mockSource,
				callback: func(token *oauth2.Token) {
					panic("callback panic")
				},
			}

			func() {
				defer func() {
					_ = recover()
				}()
				source.Token()
			}()
		})
	})
}

// mockTokenSource implements [oauth2.TokenSource] for testing
type mockTokenSource struct {
	token *oauth2.Token
	err   error
}

func (m *mockTokenSource) Token() (*oauth2.Token, error) {
	return m.token, m.err
}
