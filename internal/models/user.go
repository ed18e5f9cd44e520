package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/moody/internal/shared"
)

const (
	MaxFavorites      = 3
	MaxBioLength      = 1000
	MaxUsernameLength = 32
	DefaultColor      = 0xeaf6ff
	MaxColor          = 0xffffff
	// MaxCodeAttempts is the number of wrong codes after which a verification or reset code is discarded.
	MaxCodeAttempts = 5
)

// SpotifyToken is the OAuth token of a user's linked Spotify account.
type SpotifyToken struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	Expiry       time.Time
}

// Linked reports whether the token can be used to call Spotify.
func (t SpotifyToken) Linked() bool {
	return t.AccessToken != "" || t.RefreshToken != ""
}

// User is an account holder with a public profile.
type User struct {
	id                    string
	sequence              int
	email                 string
	username              string
	firstName             string
	lastName              string
	passwordHash          string
	bio                   string
	color                 int
	favorites             []string
	imageKey              string
	verified              bool
	verificationHash      string
	verificationExpiresAt *time.Time
	verificationAttempts  int
	resetHash             string
	resetExpiresAt        *time.Time
	resetAttempts         int
	online                bool
	spotify               SpotifyToken
	createdAt             time.Time
	updatedAt             time.Time
	deletedAt             *time.Time
}

// NewUser creates a [User] with the default profile color and current timestamps.
func NewUser(sequence int, email, username, passwordHash string) *User {
	now := time.Now()
	return &User{
		sequence:     sequence,
		email:        strings.ToLower(strings.TrimSpace(email)),
		username:     strings.TrimSpace(username),
		passwordHash: passwordHash,
		color:        DefaultColor,
		favorites:    []string{},
		createdAt:    now,
		updatedAt:    now,
	}
}

func (u *User) ID() string                        { return u.id }
func (u *User) Sequence() int                     { return u.sequence }
func (u *User) Email() string                     { return u.email }
func (u *User) Username() string                  { return u.username }
func (u *User) FirstName() string                 { return u.firstName }
func (u *User) LastName() string                  { return u.lastName }
func (u *User) PasswordHash() string              { return u.passwordHash }
func (u *User) Bio() string                       { return u.bio }
func (u *User) Color() int                        { return u.color }
func (u *User) ImageKey() string                  { return u.imageKey }
func (u *User) Verified() bool                    { return u.verified }
func (u *User) VerificationHash() string          { return u.verificationHash }
func (u *User) VerificationExpiresAt() *time.Time { return u.verificationExpiresAt }
func (u *User) VerificationAttempts() int         { return u.verificationAttempts }
func (u *User) ResetHash() string                 { return u.resetHash }
func (u *User) ResetExpiresAt() *time.Time        { return u.resetExpiresAt }
func (u *User) ResetAttempts() int                { return u.resetAttempts }
func (u *User) Online() bool                      { return u.online }
func (u *User) Spotify() SpotifyToken             { return u.spotify }
func (u *User) CreatedAt() time.Time              { return u.createdAt }
func (u *User) UpdatedAt() time.Time              { return u.updatedAt }
func (u *User) DeletedAt() *time.Time             { return u.deletedAt }

// Favorites returns a copy of the user's favorite artists.
func (u *User) Favorites() []string {
	out := make([]string, len(u.favorites))
	copy(out, u.favorites)
	return out
}

// Name returns "first last", trimmed.
func (u *User) Name() string {
	return strings.TrimSpace(u.firstName + " " + u.lastName)
}

func (u *User) SetID(id string)               { u.id = id }
func (u *User) SetSequence(sequence int)      { u.sequence = sequence }
func (u *User) SetEmail(email string)         { u.email = strings.ToLower(strings.TrimSpace(email)) }
func (u *User) SetUsername(username string)   { u.username = strings.TrimSpace(username) }
func (u *User) SetFirstName(name string)      { u.firstName = strings.TrimSpace(name) }
func (u *User) SetLastName(name string)       { u.lastName = strings.TrimSpace(name) }
func (u *User) SetPasswordHash(hash string)   { u.passwordHash = hash }
func (u *User) SetBio(bio string)             { u.bio = bio }
func (u *User) SetColor(color int)            { u.color = color }
func (u *User) SetImageKey(key string)        { u.imageKey = key }
func (u *User) SetVerified(verified bool)     { u.verified = verified }
func (u *User) SetOnline(online bool)         { u.online = online }
func (u *User) SetSpotify(token SpotifyToken) { u.spotify = token }
func (u *User) SetCreatedAt(t time.Time)      { u.createdAt = t }
func (u *User) SetUpdatedAt(t time.Time)      { u.updatedAt = t }
func (u *User) SetDeletedAt(t *time.Time)     { u.deletedAt = t }

// SetFavorites replaces the favorites list.
func (u *User) SetFavorites(favorites []string) {
	u.favorites = append([]string{}, favorites...)
}

// SetVerification stores a hashed verification code and its expiry and clears the attempt count.
func (u *User) SetVerification(hash string, expiresAt *time.Time) {
	u.verificationHash = hash
	u.verificationExpiresAt = expiresAt
	u.verificationAttempts = 0
}

// SetReset stores a hashed password reset code and its expiry and clears the attempt count.
func (u *User) SetReset(hash string, expiresAt *time.Time) {
	u.resetHash = hash
	u.resetExpiresAt = expiresAt
	u.resetAttempts = 0
}

// SetCodeAttempts restores the wrong code counts read from storage.
func (u *User) SetCodeAttempts(verification, reset int) {
	u.verificationAttempts = verification
	u.resetAttempts = reset
}

// FailVerification counts a wrong verification code. The code is discarded
// once [MaxCodeAttempts] is reached.
func (u *User) FailVerification() {
	u.verificationAttempts++
	if u.verificationAttempts >= MaxCodeAttempts {
		u.verificationHash = ""
		u.verificationExpiresAt = nil
	}
}

// FailReset counts a wrong password reset code. The code is discarded once
// [MaxCodeAttempts] is reached.
func (u *User) FailReset() {
	u.resetAttempts++
	if u.resetAttempts >= MaxCodeAttempts {
		u.resetHash = ""
		u.resetExpiresAt = nil
	}
}

// Validate checks the profile invariants enforced on every write.
func (u *User) Validate() error {
	if u.email == "" || !strings.Contains(u.email, "@") {
		return fmt.Errorf("%w: email is required", shared.ErrInvalidInput)
	}
	if u.username == "" {
		return fmt.Errorf("%w: username is required", shared.ErrInvalidInput)
	}
	if len([]rune(u.username)) > MaxUsernameLength {
		return fmt.Errorf("%w: username must be at most %d characters", shared.ErrInvalidInput, MaxUsernameLength)
	}
	if u.passwordHash == "" {
		return fmt.Errorf("%w: password is required", shared.ErrInvalidInput)
	}
	if len([]rune(u.bio)) > MaxBioLength {
		return fmt.Errorf("%w: bio must be at most %d characters", shared.ErrInvalidInput, MaxBioLength)
	}
	if u.color < 0 || u.color > MaxColor {
		return fmt.Errorf("%w: color %d out of range", shared.ErrInvalidInput, u.color)
	}
	if len(u.favorites) > MaxFavorites {
		return fmt.Errorf("%w: at most %d favorites", shared.ErrInvalidInput, MaxFavorites)
	}
	return nil
}
