package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/moody/internal/models"
	"github.com/desertthunder/moody/internal/shared"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const userColumns = `id, sequence, email, username, first_name, last_name, password_hash, bio, color, favorites,
	image_key, verified, verification_hash, verification_expires_at, verification_attempts,
	reset_hash, reset_expires_at, reset_attempts, online,
	spotify_access_token, spotify_refresh_token, spotify_token_type, spotify_expiry,
	created_at, updated_at, deleted_at`

// UserRepository implements [models.Repository] for user [models.User] persistence.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new [UserRepository] with the given database connection
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user into the database with generated ID and sequence.
//
// A duplicate email or username yields [shared.ErrConflict].
func (r *UserRepository) Create(user *models.User) error {
	if err := user.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "users")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	user.SetID(id)
	user.SetSequence(sequence)

	favorites, err := json.Marshal(user.Favorites())
	if err != nil {
		return fmt.Errorf("failed to encode favorites: %w", err)
	}

	query := `
		INSERT INTO users (id, sequence, email, username, first_name, last_name, password_hash, bio, color, favorites,
			verification_hash, verification_expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		user.Email(),
		user.Username(),
		user.FirstName(),
		user.LastName(),
		user.PasswordHash(),
		user.Bio(),
		user.Color(),
		string(favorites),
		user.VerificationHash(),
		nullTime(user.VerificationExpiresAt()),
		user.CreatedAt(),
		user.UpdatedAt(),
	)
	if err != nil {
		user.SetID("")
		return wrapWriteError("failed to insert user", err)
	}

	return nil
}

// Get retrieves a user by ID, excluding soft-deleted users
func (r *UserRepository) Get(id string) (*models.User, error) {
	return r.getBy("id", id)
}

// GetByEmail retrieves a user by (case-insensitive) email, excluding soft-deleted users
func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	return r.getBy("email", strings.ToLower(strings.TrimSpace(email)))
}

// GetByUsername retrieves a user by exact username, excluding soft-deleted users
func (r *UserRepository) GetByUsername(username string) (*models.User, error) {
	return r.getBy("username", strings.TrimSpace(username))
}

func (r *UserRepository) getBy(column, value string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE %s = ? AND deleted_at IS NULL`, userColumns, column)

	user, err := scanUser(r.db.QueryRow(query, value))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: user %s", shared.ErrNotFound, value)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return user, nil
}

// Update writes every mutable column of an existing user.
func (r *UserRepository) Update(user *models.User) error {
	return updateUser(r.db, user)
}

// Mutate loads a user, applies fn and writes the result inside a single transaction.
//
// Either every change made by fn is persisted or none is.
func (r *UserRepository) Mutate(id string, fn func(*models.User) error) (*models.User, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = ? AND deleted_at IS NULL`, userColumns)
	user, err := scanUser(tx.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: user %s", shared.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	if err := fn(user); err != nil {
		return nil, err
	}

	if err := updateUser(tx, user); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit user update: %w", err)
	}
	return user, nil
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func updateUser(db execer, user *models.User) error {
	if err := user.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	favorites, err := json.Marshal(user.Favorites())
	if err != nil {
		return fmt.Errorf("failed to encode favorites: %w", err)
	}

	now := time.Now()
	user.SetUpdatedAt(now)
	spotify := user.Spotify()

	query := `
		UPDATE users
		SET email = ?, username = ?, first_name = ?, last_name = ?, password_hash = ?, bio = ?, color = ?,
			favorites = ?, image_key = ?, verified = ?, verification_hash = ?, verification_expires_at = ?,
			verification_attempts = ?, reset_hash = ?, reset_expires_at = ?, reset_attempts = ?, online = ?, spotify_access_token = ?, spotify_refresh_token = ?,
			spotify_token_type = ?, spotify_expiry = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := db.Exec(query,
		user.Email(),
		user.Username(),
		user.FirstName(),
		user.LastName(),
		user.PasswordHash(),
		user.Bio(),
		user.Color(),
		string(favorites),
		user.ImageKey(),
		user.Verified(),
		user.VerificationHash(),
		nullTime(user.VerificationExpiresAt()),
		user.VerificationAttempts(),
		user.ResetHash(),
		nullTime(user.ResetExpiresAt()),
		user.ResetAttempts(),
		user.Online(),
		spotify.AccessToken,
		spotify.RefreshToken,
		spotify.TokenType,
		nullTime(nonZero(spotify.Expiry)),
		now,
		user.ID(),
	)
	if err != nil {
		return wrapWriteError("failed to update user", err)
	}

	return expectOne(result, fmt.Errorf("%w: user not found or already deleted: %s", shared.ErrNotFound, user.ID()))
}

// SetOnline flips the online flag without touching other columns.
func (r *UserRepository) SetOnline(id string, online bool) error {
	result, err := r.db.Exec(`UPDATE users SET online = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`, online, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update online status: %w", err)
	}
	return expectOne(result, fmt.Errorf("%w: user %s", shared.ErrNotFound, id))
}

// Delete soft-deletes a user by ID
func (r *UserRepository) Delete(id string) error {
	now := time.Now()

	query := `
		UPDATE users
		SET deleted_at = ?, online = 0
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	return expectOne(result, fmt.Errorf("%w: user not found or already deleted: %s", shared.ErrNotFound, id))
}

// List retrieves all users matching the given criteria, excluding soft-deleted users.
//
// Supported criteria: "email" (string), "online" (bool), "exclude" (user id).
func (r *UserRepository) List(criteria map[string]any) ([]*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE deleted_at IS NULL`, userColumns)
	args := []any{}

	if email, ok := criteria["email"].(string); ok && email != "" {
		query += " AND email = ?"
		args = append(args, strings.ToLower(email))
	}
	if online, ok := criteria["online"].(bool); ok {
		query += " AND online = ?"
		args = append(args, online)
	}
	if exclude, ok := criteria["exclude"].(string); ok && exclude != "" {
		query += " AND id <> ?"
		args = append(args, exclude)
	}

	query += " ORDER BY sequence ASC"

	return r.query(query, args...)
}

// Search finds users whose username or full name contains query, case-insensitively.
// The caller identified by excludeID is never part of the result.
func (r *UserRepository) Search(query, excludeID string, limit int) ([]*models.User, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return []*models.User{}, nil
	}
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	pattern := "%" + escapeLike(query) + "%"
	stmt := fmt.Sprintf(`
		SELECT %s FROM users
		WHERE deleted_at IS NULL AND id <> ?
		  AND (LOWER(username) LIKE ? ESCAPE '\' OR LOWER(first_name || ' ' || last_name) LIKE ? ESCAPE '\')
		ORDER BY CASE WHEN LOWER(username) LIKE ? ESCAPE '\' THEN 0 ELSE 1 END, username ASC
		LIMIT ?
	`, userColumns)

	return r.query(stmt, excludeID, pattern, pattern, escapeLike(query)+"%", limit)
}

func (r *UserRepository) query(query string, args ...any) ([]*models.User, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return users, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*models.User, error) {
	var (
		id, email, username, firstName, lastName string
		passwordHash, bio, favorites, imageKey   string
		verificationHash, resetHash              string
		accessToken, refreshToken, tokenType     string
		sequence, color                          int
		verificationAttempts, resetAttempts      int
		verified, online                         bool
		verificationExpiresAt, resetExpiresAt    sql.NullTime
		spotifyExpiry, deletedAt                 sql.NullTime
		createdAt, updatedAt                     time.Time
	)

	err := row.Scan(
		&id, &sequence, &email, &username, &firstName, &lastName, &passwordHash, &bio, &color, &favorites,
		&imageKey, &verified, &verificationHash, &verificationExpiresAt, &verificationAttempts,
		&resetHash, &resetExpiresAt, &resetAttempts, &online, &accessToken, &refreshToken, &tokenType, &spotifyExpiry,
		&createdAt, &updatedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}

	user := models.NewUser(sequence, email, username, passwordHash)
	user.SetID(id)
	user.SetFirstName(firstName)
	user.SetLastName(lastName)
	user.SetBio(bio)
	user.SetColor(color)
	user.SetImageKey(imageKey)
	user.SetVerified(verified)
	user.SetOnline(online)
	user.SetVerification(verificationHash, timePtr(verificationExpiresAt))
	user.SetReset(resetHash, timePtr(resetExpiresAt))
	user.SetCodeAttempts(verificationAttempts, resetAttempts)
	user.SetSpotify(models.SpotifyToken{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    tokenType,
		Expiry:       spotifyExpiry.Time,
	})
	user.SetCreatedAt(createdAt)
	user.SetUpdatedAt(updatedAt)
	user.SetDeletedAt(timePtr(deletedAt))

	var favs []string
	if favorites != "" {
		if err := json.Unmarshal([]byte(favorites), &favs); err != nil {
			return nil, fmt.Errorf("failed to decode favorites: %w", err)
		}
	}
	user.SetFavorites(favs)

	return user, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
