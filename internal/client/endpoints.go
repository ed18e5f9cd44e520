package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/desertthunder/moody/internal/models"
	"github.com/desertthunder/moody/internal/profile"
	"github.com/desertthunder/moody/internal/search"
	"github.com/desertthunder/moody/internal/shared"
)

var _ profile.API = (*Client)(nil)

// Register creates an account and adopts the returned token.
func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	if err := c.post(ctx, "/authentication/register", req, &resp); err != nil {
		return nil, err
	}
	c.SetToken(resp.Token)
	return &resp, nil
}

// Login authenticates with email and password and adopts the returned token.
func (c *Client) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	if err := c.post(ctx, "/authentication/login", models.LoginRequest{Email: email, Password: password}, &resp); err != nil {
		return nil, err
	}
	c.SetToken(resp.Token)
	return &resp, nil
}

// Logout revokes the current token and forgets it.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.put(ctx, "/authentication/logout", nil, nil, nil); err != nil {
		return err
	}
	c.SetToken("")
	return nil
}

// CurrentUser returns the authenticated user.
func (c *Client) CurrentUser(ctx context.Context) (*models.ProfileResponse, error) {
	var resp models.ProfileResponse
	if err := c.get(ctx, "/authentication/user", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// OnlineUsers lists users currently logged in.
func (c *Client) OnlineUsers(ctx context.Context) ([]models.ProfileSummary, error) {
	var resp []models.ProfileSummary
	if err := c.get(ctx, "/authentication/online-users", nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// VerifyEmail submits the emailed verification code.
func (c *Client) VerifyEmail(ctx context.Context, code string) error {
	return c.put(ctx, "/authentication/validate-email-verification-token", url.Values{"token": {code}}, nil, nil)
}

// ResendVerification mails a fresh verification code.
func (c *Client) ResendVerification(ctx context.Context) error {
	return c.post(ctx, "/authentication/resend-email-verification", nil, nil)
}

// SendPasswordReset mails a reset code to email when an account exists.
func (c *Client) SendPasswordReset(ctx context.Context, email string) error {
	return c.put(ctx, "/authentication/send-password-reset-token", url.Values{"email": {email}}, nil, nil)
}

// ResetPassword sets a new password using an emailed reset code.
func (c *Client) ResetPassword(ctx context.Context, req models.ResetPasswordRequest) error {
	return c.put(ctx, "/authentication/reset-password", nil, req, nil)
}

// Profile returns the caller's profile.
func (c *Client) Profile(ctx context.Context) (*models.ProfileResponse, error) {
	var resp models.ProfileResponse
	if err := c.get(ctx, "/profile", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) updateField(ctx context.Context, path, key, value string) error {
	return c.put(ctx, "/profile/"+path, url.Values{key: {value}}, nil, nil)
}

// UpdateUsername changes the caller's username.
func (c *Client) UpdateUsername(ctx context.Context, username string) error {
	return c.updateField(ctx, "username", "username", username)
}

// UpdateBio changes the caller's bio.
func (c *Client) UpdateBio(ctx context.Context, bio string) error {
	return c.updateField(ctx, "bio", "bio", bio)
}

// UpdateColor changes the caller's theme color, given as 0xRRGGBB.
func (c *Client) UpdateColor(ctx context.Context, color int) error {
	return c.updateField(ctx, "color", "color", strconv.Itoa(color))
}

// UpdateFirstName changes the caller's first name.
func (c *Client) UpdateFirstName(ctx context.Context, name string) error {
	return c.updateField(ctx, "fname", "fname", name)
}

// UpdateLastName changes the caller's last name.
func (c *Client) UpdateLastName(ctx context.Context, name string) error {
	return c.updateField(ctx, "lname", "lname", name)
}

// UpdateAccount changes names and password in one request.
func (c *Client) UpdateAccount(ctx context.Context, update models.AccountUpdate) error {
	return c.put(ctx, "/profile/account", nil, update, nil)
}

// UpdateProfile applies a composite patch and returns the stored profile.
func (c *Client) UpdateProfile(ctx context.Context, patch models.ProfilePatch) (*models.ProfileResponse, error) {
	var resp models.ProfileResponse
	if err := c.do(ctx, http.MethodPatch, "/profile", nil, patch, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SearchProfiles finds other users by username or name.
func (c *Client) SearchProfiles(ctx context.Context, query string) ([]models.ProfileSummary, error) {
	var resp []models.ProfileSummary
	if err := c.get(ctx, "/profile/search", url.Values{"q": {query}}, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// ProfileSearcher adapts [Client.SearchProfiles] to a [search.Searcher].
func (c *Client) ProfileSearcher() search.Searcher {
	return search.SearcherFunc(func(ctx context.Context, query string) ([]search.Result, error) {
		profiles, err := c.SearchProfiles(ctx, query)
		if err != nil {
			return nil, err
		}
		results := make([]search.Result, 0, len(profiles))
		for _, p := range profiles {
			text := p.Name
			if text == "" {
				text = p.Bio
			}
			results = append(results, search.Result{
				ID:        p.ID,
				Name:      p.Username,
				AvatarURL: p.AvatarURL,
				Text:      text,
				Online:    p.Online,
			})
		}
		return results, nil
	})
}

// RequestUploadURL asks for a presigned URL to upload a profile picture.
func (c *Client) RequestUploadURL(ctx context.Context, contentType string, size int64) (*models.UploadURLResponse, error) {
	var resp models.UploadURLResponse
	req := models.UploadURLRequest{ContentType: contentType, FileSize: size}
	if err := c.post(ctx, "/profile/picture/upload-url", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Upload PUTs data to a presigned storage URL. The bearer token is not sent.
func (c *Client) Upload(ctx context.Context, uploadURL, contentType string, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.ContentLength = int64(len(data))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Message: "upload failed"}
	}
	return nil
}

// CommitPicture makes an uploaded object the caller's profile picture.
func (c *Client) CommitPicture(ctx context.Context, objectKey string) (*models.PictureResponse, error) {
	var resp models.PictureResponse
	if err := c.put(ctx, "/profile/picture", nil, models.PictureCommit{ObjectKey: objectKey}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UploadPicture runs the whole picture flow: sniff, presign, upload, commit.
func (c *Client) UploadPicture(ctx context.Context, data []byte) (*models.PictureResponse, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: image is empty", shared.ErrInvalidInput)
	}
	contentType := mimetype.Detect(data).String()
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}

	presigned, err := c.RequestUploadURL(ctx, contentType, int64(len(data)))
	if err != nil {
		return nil, err
	}
	if err := c.Upload(ctx, presigned.UploadURL, contentType, data); err != nil {
		return nil, err
	}
	return c.CommitPicture(ctx, presigned.ObjectKey)
}

// Friends lists accepted friends.
func (c *Client) Friends(ctx context.Context) ([]models.ProfileSummary, error) {
	var resp []models.ProfileSummary
	if err := c.get(ctx, "/friends", nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// FriendRequests lists pending incoming requests.
func (c *Client) FriendRequests(ctx context.Context) ([]models.FriendRequestView, error) {
	var resp []models.FriendRequestView
	if err := c.get(ctx, "/friends/requests", nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// SendFriendRequest asks username to be friends.
func (c *Client) SendFriendRequest(ctx context.Context, username string) error {
	return c.post(ctx, "/friends/requests", models.FriendRequest{Username: username}, nil)
}

// AcceptFriendRequest accepts the pending request id.
func (c *Client) AcceptFriendRequest(ctx context.Context, id string) error {
	return c.put(ctx, "/friends/requests/"+url.PathEscape(id)+"/accept", nil, nil, nil)
}

// RemoveFriend ends the friendship with the user id.
func (c *Client) RemoveFriend(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/friends/"+url.PathEscape(id), nil, nil, nil)
}

// Moods lists the supported mood labels.
func (c *Client) Moods(ctx context.Context) ([]string, error) {
	var resp []string
	if err := c.get(ctx, "/moods", nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Recommend fetches tracks for mood. A zero limit uses the server default.
func (c *Client) Recommend(ctx context.Context, mood string, limit int) (*models.Recommendation, error) {
	query := url.Values{"mood": {mood}}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	var resp models.Recommendation
	if err := c.get(ctx, "/playlist", query, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GenerateMood adapts [Client.Recommend] to a mood gallery generator.
func (c *Client) GenerateMood(ctx context.Context, mood string) error {
	_, err := c.Recommend(ctx, mood, 0)
	return err
}

// PlaylistFromMood creates a Spotify playlist for a mood.
func (c *Client) PlaylistFromMood(ctx context.Context, req models.PlaylistFromMoodRequest) (*models.PlaylistResponse, error) {
	var resp models.PlaylistResponse
	if err := c.post(ctx, "/playlist/from-mood", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Playlists lists the caller's generated playlists, newest first.
func (c *Client) Playlists(ctx context.Context) ([]models.PlaylistResponse, error) {
	var resp []models.PlaylistResponse
	if err := c.get(ctx, "/playlists", nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Playlist returns one generated playlist refreshed from Spotify.
func (c *Client) Playlist(ctx context.Context, id string) (*models.PlaylistResponse, error) {
	var resp models.PlaylistResponse
	if err := c.get(ctx, "/playlists/"+url.PathEscape(id), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreatePlaylist creates a private Spotify playlist holding uris. A blank name uses the server default.
func (c *Client) CreatePlaylist(ctx context.Context, name string, uris []string) (*models.TracksAddedResponse, error) {
	var resp models.TracksAddedResponse
	if err := c.post(ctx, "/playlist", models.CreatePlaylistRequest{Name: name, URIs: uris}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AddToPlaylist appends uris to the Spotify playlist playlistID.
func (c *Client) AddToPlaylist(ctx context.Context, playlistID string, uris []string) (*models.TracksAddedResponse, error) {
	var resp models.TracksAddedResponse
	if err := c.post(ctx, "/playlist/add", models.AddTracksRequest{PlaylistID: playlistID, URIs: uris}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TopArtists lists the caller's most played Spotify artists. Empty values use the server defaults.
func (c *Client) TopArtists(ctx context.Context, timeRange string, limit int) (*models.TopArtistsResponse, error) {
	query := url.Values{}
	if timeRange != "" {
		query.Set("timeRange", timeRange)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	var resp models.TopArtistsResponse
	if err := c.get(ctx, "/me/top", query, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SearchArtists searches the Spotify catalog by artist name.
func (c *Client) SearchArtists(ctx context.Context, query string, limit int) ([]models.ArtistResponse, error) {
	q := url.Values{"q": {query}}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var resp []models.ArtistResponse
	if err := c.get(ctx, "/spotify/artists", q, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// ArtistSearcher adapts [Client.SearchArtists] to a [search.Searcher].
func (c *Client) ArtistSearcher() search.Searcher {
	return search.SearcherFunc(func(ctx context.Context, query string) ([]search.Result, error) {
		artists, err := c.SearchArtists(ctx, query, 0)
		if err != nil {
			return nil, err
		}
		results := make([]search.Result, 0, len(artists))
		for _, a := range artists {
			results = append(results, search.Result{ID: a.ID, Name: a.Name, Text: strings.Join(a.Genres, ", ")})
		}
		return results, nil
	})
}

// SpotifyAuthorizeURL returns the consent URL that links a Spotify account.
func (c *Client) SpotifyAuthorizeURL(ctx context.Context) (string, error) {
	var resp models.AuthorizeResponse
	if err := c.get(ctx, "/spotify/authorize", nil, &resp); err != nil {
		return "", err
	}
	return resp.URL, nil
}
