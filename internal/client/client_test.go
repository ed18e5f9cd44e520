package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desertthunder/moody/internal/models"
	"github.com/desertthunder/moody/internal/profile"
	"github.com/desertthunder/moody/internal/session"
	"github.com/desertthunder/moody/internal/shared"
	tu "github.com/desertthunder/moody/internal/testing"
	"github.com/desertthunder/moody/internal/theme"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, srv.Client()), srv
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestNew(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		c := New("", nil)
		assert.Equal(t, DefaultBaseURL, c.BaseURL())
		assert.NotNil(t, c.httpClient)
	})

	t.Run("trims trailing slash", func(t *testing.T) {
		assert.Equal(t, "http://api.test", New("http://api.test/", nil).BaseURL())
	})

	t.Run("from session", func(t *testing.T) {
		c := FromSession(&session.Session{Token: "tok", BaseURL: "http://api.test"}, nil)
		assert.Equal(t, "http://api.test", c.BaseURL())
		assert.Equal(t, "tok", c.Token())
	})
}

func TestRequests(t *testing.T) {
	t.Run("sends bearer token and decodes JSON", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/api/v1/profile", r.URL.Path)
			assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
			writeJSON(t, w, http.StatusOK, models.ProfileResponse{ID: "u1", Username: "ada", Color: 0x1db954})
		})
		c.SetToken("secret")

		p, err := c.Profile(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "ada", p.Username)
		assert.Equal(t, 0x1db954, p.Color)
	})

	t.Run("omits bearer without token", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Empty(t, r.Header.Get("Authorization"))
			writeJSON(t, w, http.StatusOK, []string{"happy"})
		})
		moods, err := c.Moods(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"happy"}, moods)
	})

	t.Run("server message is surfaced", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, http.StatusConflict, models.ErrorResponse{Error: "username already taken"})
		})
		err := c.UpdateUsername(context.Background(), "ada")

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
		assert.Equal(t, "username already taken", apiErr.Message)
		assert.ErrorIs(t, err, shared.ErrConflict)
	})

	t.Run("default message without body", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
		err := c.RemoveFriend(context.Background(), "u2")

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "Not Found", apiErr.Message)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("status mapping", func(t *testing.T) {
		tests := []struct {
			status int
			want   error
		}{
			{http.StatusBadRequest, shared.ErrInvalidInput},
			{http.StatusUnauthorized, shared.ErrUnauthorized},
			{http.StatusForbidden, shared.ErrForbidden},
			{http.StatusServiceUnavailable, shared.ErrServiceUnavailable},
			{http.StatusInternalServerError, shared.ErrAPIRequest},
		}
		for _, tt := range tests {
			err := &APIError{StatusCode: tt.status, Message: "x"}
			assert.ErrorIs(t, err, tt.want, "status %d", tt.status)
		}
	})

	t.Run("connection failure", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		srv.Close()

		_, err := New(srv.URL, nil).Profile(context.Background())
		assert.ErrorIs(t, err, shared.ErrServiceUnavailable)
		assert.Contains(t, err.Error(), "could not connect")
	})

	t.Run("transport error", func(t *testing.T) {
		rt := tu.NewMockRoundTripper(nil, errors.New("dial failed"))

		_, err := New("http://moody.test", &http.Client{Transport: rt}).Profile(context.Background())
		assert.ErrorIs(t, err, shared.ErrServiceUnavailable)
		assert.Equal(t, 1, rt.Calls())
		assert.Equal(t, "/api/v1/profile", rt.Requests[0].URL.Path)
	})

	t.Run("cancelled context", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, http.StatusOK, []string{})
		})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := c.Moods(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("malformed response", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("{not json"))
		})
		_, err := c.Profile(context.Background())
		assert.ErrorIs(t, err, shared.ErrAPIRequest)
	})
}

func TestAuth(t *testing.T) {
	t.Run("login adopts token", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/v1/authentication/login", r.URL.Path)
			var req models.LoginRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "ada@example.com", req.Email)
			writeJSON(t, w, http.StatusOK, models.AuthResponse{Token: "jwt", User: models.ProfileResponse{Username: "ada"}})
		})

		resp, err := c.Login(context.Background(), "ada@example.com", "hunter22")
		require.NoError(t, err)
		assert.Equal(t, "ada", resp.User.Username)
		assert.Equal(t, "jwt", c.Token())
	})

	t.Run("logout forgets token", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPut, r.Method)
			assert.Equal(t, "/api/v1/authentication/logout", r.URL.Path)
			writeJSON(t, w, http.StatusOK, models.MessageResponse{Message: "ok"})
		})
		c.SetToken("jwt")
		require.NoError(t, c.Logout(context.Background()))
		assert.Empty(t, c.Token())
	})

	t.Run("verify sends code as query", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "12345", r.URL.Query().Get("token"))
			w.WriteHeader(http.StatusNoContent)
		})
		require.NoError(t, c.VerifyEmail(context.Background(), "12345"))
	})
}

func TestProfileAPI(t *testing.T) {
	t.Run("single field updates use query parameters", func(t *testing.T) {
		var got []string
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPut, r.Method)
			got = append(got, r.URL.Path+"?"+r.URL.RawQuery)
			writeJSON(t, w, http.StatusOK, models.ProfileResponse{})
		})
		ctx := context.Background()
		require.NoError(t, c.UpdateUsername(ctx, "ada"))
		require.NoError(t, c.UpdateBio(ctx, "hi there"))
		require.NoError(t, c.UpdateColor(ctx, 0xff0000))
		require.NoError(t, c.UpdateFirstName(ctx, "Ada"))
		require.NoError(t, c.UpdateLastName(ctx, "Lovelace"))

		assert.Equal(t, []string{
			"/api/v1/profile/username?username=ada",
			"/api/v1/profile/bio?bio=hi+there",
			"/api/v1/profile/color?color=16711680",
			"/api/v1/profile/fname?fname=Ada",
			"/api/v1/profile/lname?lname=Lovelace",
		}, got)
	})

	t.Run("composite patch", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPatch, r.Method)
			body, _ := io.ReadAll(r.Body)
			assert.JSONEq(t, `{"bio":"new","favorites":["Drake"]}`, string(body))
			writeJSON(t, w, http.StatusOK, models.ProfileResponse{Bio: "new", Favorites: []string{"Drake"}})
		})
		bio := "new"
		favs := []string{"Drake"}
		resp, err := c.UpdateProfile(context.Background(), models.ProfilePatch{Bio: &bio, Favorites: &favs})
		require.NoError(t, err)
		assert.Equal(t, "new", resp.Bio)
	})

	t.Run("drives a saver", func(t *testing.T) {
		var patches int
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			patches++
			writeJSON(t, w, http.StatusOK, models.ProfileResponse{})
		})
		d := profile.NewDraft(profile.Snapshot{Username: "ada", Color: theme.DefaultProfile})
		require.NoError(t, d.Set(profile.FieldBio, "hello"))

		report, err := profile.NewSaver(c, profile.Composite).Save(context.Background(), d)
		require.NoError(t, err)
		assert.Equal(t, 1, patches)
		assert.Equal(t, []profile.Group{profile.GroupBio}, report.Applied)
		assert.False(t, d.Dirty())
	})

	t.Run("profile searcher", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/v1/profile/search", r.URL.Path)
			assert.Equal(t, "ad", r.URL.Query().Get("q"))
			writeJSON(t, w, http.StatusOK, []models.ProfileSummary{
				{ID: "u1", Username: "ada", Name: "Ada Lovelace", Online: true},
				{ID: "u2", Username: "adam", Bio: "drums"},
			})
		})

		results, err := c.ProfileSearcher().Lookup(context.Background(), "ad")
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "ada", results[0].Name)
		assert.Equal(t, "Ada Lovelace", results[0].Text)
		assert.True(t, results[0].Online)
		assert.Equal(t, "drums", results[1].Text)
	})
}

func TestUploadPicture(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

	t.Run("presign, upload, commit", func(t *testing.T) {
		var uploaded []byte
		var steps []string
		mux := http.NewServeMux()
		srv := httptest.NewServer(mux)
		t.Cleanup(srv.Close)

		mux.HandleFunc("POST /api/v1/profile/picture/upload-url", func(w http.ResponseWriter, r *http.Request) {
			steps = append(steps, "presign")
			var req models.UploadURLRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "image/png", req.ContentType)
			assert.Equal(t, int64(len(png)), req.FileSize)
			writeJSON(t, w, http.StatusOK, models.UploadURLResponse{UploadURL: srv.URL + "/bucket/key.png", ObjectKey: "profile-images/u1/key.png"})
		})
		mux.HandleFunc("PUT /bucket/key.png", func(w http.ResponseWriter, r *http.Request) {
			steps = append(steps, "upload")
			assert.Empty(t, r.Header.Get("Authorization"))
			assert.Equal(t, "image/png", r.Header.Get("Content-Type"))
			uploaded, _ = io.ReadAll(r.Body)
		})
		mux.HandleFunc("PUT /api/v1/profile/picture", func(w http.ResponseWriter, r *http.Request) {
			steps = append(steps, "commit")
			var req models.PictureCommit
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "profile-images/u1/key.png", req.ObjectKey)
			writeJSON(t, w, http.StatusOK, models.PictureResponse{ProfileImageURL: "https://cdn.test/key.png"})
		})

		c := New(srv.URL, srv.Client())
		c.SetToken("jwt")
		resp, err := c.UploadPicture(context.Background(), png)
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.test/key.png", resp.ProfileImageURL)
		assert.Equal(t, []string{"presign", "upload", "commit"}, steps)
		assert.Equal(t, png, uploaded)
	})

	t.Run("upload rejected", func(t *testing.T) {
		var committed bool
		mux := http.NewServeMux()
		srv := httptest.NewServer(mux)
		t.Cleanup(srv.Close)
		mux.HandleFunc("POST /api/v1/profile/picture/upload-url", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, http.StatusOK, models.UploadURLResponse{UploadURL: srv.URL + "/bucket/key.png", ObjectKey: "k"})
		})
		mux.HandleFunc("PUT /bucket/key.png", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		})
		mux.HandleFunc("PUT /api/v1/profile/picture", func(w http.ResponseWriter, r *http.Request) {
			committed = true
		})

		_, err := New(srv.URL, srv.Client()).UploadPicture(context.Background(), png)
		assert.ErrorIs(t, err, shared.ErrForbidden)
		assert.False(t, committed)
	})

	t.Run("empty image", func(t *testing.T) {
		_, err := New("", nil).UploadPicture(context.Background(), nil)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}

func TestMoodEndpoints(t *testing.T) {
	t.Run("recommend", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/v1/playlist", r.URL.Path)
			assert.Equal(t, "chill", r.URL.Query().Get("mood"))
			assert.Equal(t, "5", r.URL.Query().Get("limit"))
			writeJSON(t, w, http.StatusOK, models.Recommendation{Mood: models.MoodVector{Bucket: "chill"}})
		})
		rec, err := c.Recommend(context.Background(), "chill", 5)
		require.NoError(t, err)
		assert.Equal(t, "chill", rec.Mood.Bucket)
	})

	t.Run("generate mood omits limit", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.False(t, r.URL.Query().Has("limit"))
			writeJSON(t, w, http.StatusOK, models.Recommendation{})
		})
		require.NoError(t, c.GenerateMood(context.Background(), "happy"))
	})

	t.Run("generate mood error", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, http.StatusForbidden, models.ErrorResponse{Error: "spotify account not linked"})
		})
		err := c.GenerateMood(context.Background(), "happy")
		assert.True(t, errors.Is(err, shared.ErrForbidden))
	})

	t.Run("playlist from mood", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			writeJSON(t, w, http.StatusCreated, models.PlaylistResponse{ID: "p1", Name: "Mood • chill", TrackCount: 20})
		})
		pl, err := c.PlaylistFromMood(context.Background(), models.PlaylistFromMoodRequest{Mood: "chill"})
		require.NoError(t, err)
		assert.Equal(t, 20, pl.TrackCount)
	})

	t.Run("spotify authorize", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, http.StatusOK, models.AuthorizeResponse{URL: "https://accounts.spotify.com/authorize?x=1"})
		})
		u, err := c.SpotifyAuthorizeURL(context.Background())
		require.NoError(t, err)
		assert.Contains(t, u, "accounts.spotify.com")
	})

	t.Run("playlist detail escapes the id", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/v1/playlists/a%2Fb", r.URL.EscapedPath())
			writeJSON(t, w, http.StatusOK, models.PlaylistResponse{ID: "a/b", TrackCount: 9})
		})
		pl, err := c.Playlist(context.Background(), "a/b")
		require.NoError(t, err)
		assert.Equal(t, 9, pl.TrackCount)
	})

	t.Run("create playlist", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/api/v1/playlist", r.URL.Path)
			var body models.CreatePlaylistRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "Road trip", body.Name)
			assert.Equal(t, []string{"spotify:track:1", "spotify:track:2"}, body.URIs)
			writeJSON(t, w, http.StatusCreated, models.TracksAddedResponse{PlaylistID: "sp9", Name: body.Name, TracksAdded: len(body.URIs)})
		})
		resp, err := c.CreatePlaylist(context.Background(), "Road trip", []string{"spotify:track:1", "spotify:track:2"})
		require.NoError(t, err)
		assert.Equal(t, "sp9", resp.PlaylistID)
		assert.Equal(t, 2, resp.TracksAdded)
	})

	t.Run("add to playlist", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/v1/playlist/add", r.URL.Path)
			var body models.AddTracksRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "sp1", body.PlaylistID)
			writeJSON(t, w, http.StatusOK, models.TracksAddedResponse{PlaylistID: body.PlaylistID, TracksAdded: len(body.URIs)})
		})
		resp, err := c.AddToPlaylist(context.Background(), "sp1", []string{"spotify:track:1"})
		require.NoError(t, err)
		assert.Equal(t, 1, resp.TracksAdded)
	})

	t.Run("add to a missing playlist", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, http.StatusNotFound, models.ErrorResponse{Error: "playlist not found"})
		})
		_, err := c.AddToPlaylist(context.Background(), "nope", []string{"spotify:track:1"})
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})

	t.Run("top artists", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/v1/me/top", r.URL.Path)
			assert.Equal(t, "short_term", r.URL.Query().Get("timeRange"))
			assert.Equal(t, "3", r.URL.Query().Get("limit"))
			writeJSON(t, w, http.StatusOK, models.TopArtistsResponse{
				UserID:     "u1",
				TopArtists: []models.ArtistResponse{{ID: "a1", Name: "Radiohead"}},
			})
		})
		top, err := c.TopArtists(context.Background(), "short_term", 3)
		require.NoError(t, err)
		require.Len(t, top.TopArtists, 1)
		assert.Equal(t, "Radiohead", top.TopArtists[0].Name)
	})

	t.Run("top artists omits defaults", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Empty(t, r.URL.RawQuery)
			writeJSON(t, w, http.StatusOK, models.TopArtistsResponse{})
		})
		_, err := c.TopArtists(context.Background(), "", 0)
		require.NoError(t, err)
	})

	t.Run("artist searcher", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/v1/spotify/artists", r.URL.Path)
			assert.Equal(t, "radio", r.URL.Query().Get("q"))
			writeJSON(t, w, http.StatusOK, []models.ArtistResponse{
				{ID: "a1", Name: "Radiohead", Genres: []string{"alternative rock", "art rock"}},
			})
		})
		results, err := c.ArtistSearcher().Lookup(context.Background(), "radio")
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "a1", results[0].ID)
		assert.Equal(t, "alternative rock, art rock", results[0].Text)
	})
}
