package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/moody/internal/models"
	"github.com/desertthunder/moody/internal/shared"
)

// FriendshipRepository persists [models.Friendship] rows.
type FriendshipRepository struct {
	db *sql.DB
}

// NewFriendshipRepository creates a new FriendshipRepository with the given database connection
func NewFriendshipRepository(db *sql.DB) *FriendshipRepository {
	return &FriendshipRepository{db: db}
}

// Create stores a pending friend request.
//
// A request between two users that already have one, in either direction, yields [shared.ErrConflict].
func (r *FriendshipRepository) Create(f *models.Friendship) error {
	if err := f.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if existing, err := r.Between(f.RequesterID(), f.AddresseeID()); err == nil {
		return fmt.Errorf("%w: friendship %s already %s", shared.ErrConflict, existing.ID(), existing.Status())
	} else if !errors.Is(err, shared.ErrNotFound) {
		return err
	}

	f.SetID(shared.GenerateID())

	query := `
		INSERT INTO friendships (id, requester_id, addressee_id, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query, f.ID(), f.RequesterID(), f.AddresseeID(), string(f.Status()), f.CreatedAt(), f.UpdatedAt())
	if err != nil {
		f.SetID("")
		return wrapWriteError("failed to insert friendship", err)
	}
	return nil
}

// Get retrieves a friendship by ID
func (r *FriendshipRepository) Get(id string) (*models.Friendship, error) {
	row := r.db.QueryRow(`
		SELECT id, requester_id, addressee_id, status, created_at, updated_at
		FROM friendships WHERE id = ?
	`, id)

	f, err := scanFriendship(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: friendship %s", shared.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query friendship: %w", err)
	}
	return f, nil
}

// Between finds the friendship linking two users in either direction.
func (r *FriendshipRepository) Between(a, b string) (*models.Friendship, error) {
	row := r.db.QueryRow(`
		SELECT id, requester_id, addressee_id, status, created_at, updated_at
		FROM friendships
		WHERE (requester_id = ? AND addressee_id = ?) OR (requester_id = ? AND addressee_id = ?)
	`, a, b, b, a)

	f, err := scanFriendship(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no friendship between %s and %s", shared.ErrNotFound, a, b)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query friendship: %w", err)
	}
	return f, nil
}

// Update writes the status of an existing friendship.
func (r *FriendshipRepository) Update(f *models.Friendship) error {
	if err := f.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	f.SetUpdatedAt(now)

	result, err := r.db.Exec(`UPDATE friendships SET status = ?, updated_at = ? WHERE id = ?`, string(f.Status()), now, f.ID())
	if err != nil {
		return fmt.Errorf("failed to update friendship: %w", err)
	}
	return expectOne(result, fmt.Errorf("%w: friendship %s", shared.ErrNotFound, f.ID()))
}

// Accept marks a pending request addressed to userID as accepted.
func (r *FriendshipRepository) Accept(id, userID string) (*models.Friendship, error) {
	f, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	if f.AddresseeID() != userID {
		return nil, fmt.Errorf("%w: only the addressee can accept a request", shared.ErrForbidden)
	}
	if f.Status() == models.FriendshipAccepted {
		return f, nil
	}

	f.SetStatus(models.FriendshipAccepted)
	if err := r.Update(f); err != nil {
		return nil, err
	}
	return f, nil
}

// Delete removes a friendship row. Friendships are not soft-deleted so the pair can reconnect later.
func (r *FriendshipRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM friendships WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete friendship: %w", err)
	}

	return expectOne(result, fmt.Errorf("%w: friendship %s", shared.ErrNotFound, id))
}

// List retrieves friendships matching the given criteria.
//
// Supported criteria: "user" (participant id), "addressee" (user id), "status" ([models.FriendshipStatus]).
func (r *FriendshipRepository) List(criteria map[string]any) ([]*models.Friendship, error) {
	query := `
		SELECT id, requester_id, addressee_id, status, created_at, updated_at
		FROM friendships WHERE 1 = 1
	`
	args := []any{}

	if user, ok := criteria["user"].(string); ok && user != "" {
		query += " AND (requester_id = ? OR addressee_id = ?)"
		args = append(args, user, user)
	}
	if addressee, ok := criteria["addressee"].(string); ok && addressee != "" {
		query += " AND addressee_id = ?"
		args = append(args, addressee)
	}
	if status, ok := criteria["status"].(models.FriendshipStatus); ok && status != "" {
		query += " AND status = ?"
		args = append(args, string(status))
	}

	query += " ORDER BY created_at ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query friendships: %w", err)
	}
	defer rows.Close()

	friendships := []*models.Friendship{}
	for rows.Next() {
		f, err := scanFriendship(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan friendship: %w", err)
		}
		friendships = append(friendships, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return friendships, nil
}

// Friends returns the accepted friends of userID as users, ordered by username.
func (r *FriendshipRepository) Friends(userID string) ([]*models.User, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM users
		WHERE deleted_at IS NULL AND id IN (
			SELECT CASE WHEN requester_id = ? THEN addressee_id ELSE requester_id END
			FROM friendships
			WHERE status = ? AND (requester_id = ? OR addressee_id = ?)
		)
		ORDER BY username ASC
	`, userColumns)

	rows, err := r.db.Query(query, userID, string(models.FriendshipAccepted), userID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query friends: %w", err)
	}
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan friend: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return users, nil
}

func scanFriendship(row scanner) (*models.Friendship, error) {
	var (
		id, requester, addressee, status string
		createdAt, updatedAt             time.Time
	)
	if err := row.Scan(&id, &requester, &addressee, &status, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	f := models.NewFriendship(requester, addressee)
	f.SetID(id)
	f.SetStatus(models.FriendshipStatus(status))
	f.SetCreatedAt(createdAt)
	f.SetUpdatedAt(updatedAt)
	return f, nil
}
