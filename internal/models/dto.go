package models

import "time"

// RegisterRequest is the body of POST /authentication/register.
type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	Username  string `json:"username" validate:"required,min=2,max=32"`
	FirstName string `json:"firstName" validate:"max=64"`
	LastName  string `json:"lastName" validate:"max=64"`
}

// LoginRequest is the body of POST /authentication/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ResetPasswordRequest is the body of PUT /authentication/reset-password.
type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Token       string `json:"token" validate:"required,len=5,numeric"`
	NewPassword string `json:"newPassword" validate:"required,min=8,max=72"`
}

// AuthResponse carries a bearer token and the authenticated user.
type AuthResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expiresAt"`
	User      ProfileResponse `json:"user"`
}

// ProfileResponse is the public and private view of the caller's profile.
type ProfileResponse struct {
	ID              string   `json:"id"`
	Username        string   `json:"username"`
	FirstName       string   `json:"firstName"`
	LastName        string   `json:"lastName"`
	Email           string   `json:"email"`
	Bio             string   `json:"bio"`
	Color           int      `json:"color"`
	Favorites       []string `json:"favorites"`
	ProfileImageURL string   `json:"profileImageUrl,omitempty"`
	Verified        bool     `json:"verified"`
	Online          bool     `json:"online"`
	SpotifyLinked   bool     `json:"spotifyLinked"`
}

// ProfileSummary is one row of a profile search or friend list.
type ProfileSummary struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Name      string `json:"name,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	Bio       string `json:"bio,omitempty"`
	Color     int    `json:"color"`
	Online    bool   `json:"online"`
}

// AccountUpdate is the body of PUT /profile/account. Nil fields are left untouched.
type AccountUpdate struct {
	FirstName *string `json:"firstName,omitempty" validate:"omitempty,max=64"`
	LastName  *string `json:"lastName,omitempty" validate:"omitempty,max=64"`
	Password  *string `json:"password,omitempty" validate:"omitempty,min=8,max=72"`
}

// Empty reports whether the update carries no fields.
func (a AccountUpdate) Empty() bool {
	return a.FirstName == nil && a.LastName == nil && a.Password == nil
}

// ProfilePatch is the body of PATCH /profile, applied in one transaction. Nil fields are left untouched.
type ProfilePatch struct {
	Username  *string   `json:"username,omitempty" validate:"omitempty,min=2,max=32"`
	Bio       *string   `json:"bio,omitempty" validate:"omitempty,max=1000"`
	Color     *int      `json:"color,omitempty" validate:"omitempty,min=0,max=16777215"`
	FirstName *string   `json:"firstName,omitempty" validate:"omitempty,max=64"`
	LastName  *string   `json:"lastName,omitempty" validate:"omitempty,max=64"`
	Password  *string   `json:"password,omitempty" validate:"omitempty,min=8,max=72"`
	Favorites *[]string `json:"favorites,omitempty" validate:"omitempty,max=3,dive,required,max=128"`
}

// Empty reports whether the patch carries no fields.
func (p ProfilePatch) Empty() bool {
	return p.Username == nil && p.Bio == nil && p.Color == nil && p.FirstName == nil &&
		p.LastName == nil && p.Password == nil && p.Favorites == nil
}

// UploadURLRequest is the body of POST /profile/picture/upload-url.
type UploadURLRequest struct {
	ContentType string `json:"contentType" validate:"required"`
	FileSize    int64  `json:"fileSize" validate:"required,gt=0"`
}

// UploadURLResponse carries a presigned PUT URL for a profile image.
type UploadURLResponse struct {
	UploadURL string `json:"uploadUrl"`
	ObjectKey string `json:"objectKey"`
	ExpiresIn int    `json:"expiresIn"`
}

// PictureCommit is the body of PUT /profile/picture.
type PictureCommit struct {
	ObjectKey string `json:"objectKey" validate:"required"`
}

// PictureResponse carries a presigned GET URL for the committed image.
type PictureResponse struct {
	ProfileImageURL string `json:"profileImageUrl"`
}

// FriendRequest is the body of POST /friends/requests.
type FriendRequest struct {
	Username string `json:"username" validate:"required"`
}

// FriendRequestView is a pending friend request.
type FriendRequestView struct {
	ID        string         `json:"id"`
	From      ProfileSummary `json:"from"`
	CreatedAt time.Time      `json:"createdAt"`
}

// MoodVector describes the audio features targeted for a mood.
type MoodVector struct {
	Valence      float64 `json:"valence"`
	Energy       float64 `json:"energy"`
	Tempo        float64 `json:"tempo"`
	Danceability float64 `json:"danceability"`
	Bucket       string  `json:"bucket"`
}

// RecommendedTrack is a single track of a recommendation.
type RecommendedTrack struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Artist string `json:"artist"`
	URI    string `json:"uri"`
}

// Recommendation is the result of GET /playlist.
type Recommendation struct {
	Mood   MoodVector         `json:"mood"`
	Tracks []RecommendedTrack `json:"tracks"`
}

// PlaylistFromMoodRequest is the body of POST /playlist/from-mood.
type PlaylistFromMoodRequest struct {
	Mood  string `json:"mood" validate:"required,max=64"`
	Name  string `json:"name" validate:"max=100"`
	Limit int    `json:"limit" validate:"omitempty,min=1,max=100"`
}

// PlaylistResponse describes a playlist created on Spotify.
type PlaylistResponse struct {
	ID         string    `json:"id"`
	SpotifyID  string    `json:"spotifyId"`
	Name       string    `json:"name"`
	Mood       string    `json:"mood"`
	URL        string    `json:"url"`
	TrackCount int       `json:"trackCount"`
	CreatedAt  time.Time `json:"createdAt"`
}

// CreatePlaylistRequest is the body of POST /playlist. A blank name uses [DefaultPlaylistName].
type CreatePlaylistRequest struct {
	Name string   `json:"name" validate:"max=100"`
	URIs []string `json:"uris" validate:"required,min=1,dive,required"`
}

// DefaultPlaylistName names playlists created without a name.
const DefaultPlaylistName = "My Mood Playlist"

// AddTracksRequest is the body of POST /playlist/add.
type AddTracksRequest struct {
	PlaylistID string   `json:"playlistId" validate:"required"`
	URIs       []string `json:"uris" validate:"required,min=1,dive,required"`
}

// TracksAddedResponse reports tracks added to a Spotify playlist.
type TracksAddedResponse struct {
	PlaylistID  string `json:"playlistId"`
	Name        string `json:"name,omitempty"`
	TracksAdded int    `json:"tracksAdded"`
	URL         string `json:"url,omitempty"`
}

// ArtistResponse is a Spotify artist.
type ArtistResponse struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Genres []string `json:"genres,omitempty"`
}

// TopArtistsResponse is the result of GET /me/top.
type TopArtistsResponse struct {
	UserID     string           `json:"userId"`
	TopArtists []ArtistResponse `json:"topArtists"`
}

// AuthorizeResponse carries the Spotify consent URL.
type AuthorizeResponse struct {
	URL string `json:"url"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse is the body of successful responses without data.
type MessageResponse struct {
	Message string `json:"message"`
}
