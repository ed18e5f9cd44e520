package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/moody/internal/models"
	"github.com/desertthunder/moody/internal/shared"
)

const playlistColumns = `id, sequence, user_id, mood, name, spotify_id, url, track_count, created_at, updated_at, deleted_at`

// PlaylistRepository stores the history of playlists generated from a mood. Deletes are soft.
type PlaylistRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewPlaylistRepository creates a new PlaylistRepository with the given database connection
func NewPlaylistRepository(db *sql.DB) *PlaylistRepository {
	return &PlaylistRepository{db: db, now: time.Now}
}

// Create assigns an ID and sequence to playlist and records it.
func (r *PlaylistRepository) Create(playlist *models.GeneratedPlaylist) error {
	if err := playlist.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "playlists")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}
	playlist.SetID(shared.GenerateID())
	playlist.SetSequence(sequence)

	_, err = r.db.Exec(
		`INSERT INTO playlists (id, sequence, user_id, mood, name, spotify_id, url, track_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		playlist.ID(), sequence, playlist.UserID(), playlist.Mood(), playlist.Name(),
		playlist.SpotifyID(), playlist.URL(), playlist.TrackCount(), playlist.CreatedAt(), playlist.UpdatedAt(),
	)
	if err != nil {
		return wrapWriteError("failed to insert playlist", err)
	}
	return nil
}

// Get returns a live playlist by ID or [shared.ErrPlaylistNotFound].
func (r *PlaylistRepository) Get(id string) (*models.GeneratedPlaylist, error) {
	row := r.db.QueryRow(`SELECT `+playlistColumns+` FROM playlists WHERE id = ? AND deleted_at IS NULL`, id)
	playlist, err := scanPlaylist(row)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id)
	case err != nil:
		return nil, fmt.Errorf("failed to query playlist: %w", err)
	}
	return playlist, nil
}

// Update renames a playlist and records its track count.
func (r *PlaylistRepository) Update(playlist *models.GeneratedPlaylist) error {
	if err := playlist.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := r.now()
	result, err := r.db.Exec(
		`UPDATE playlists SET name = ?, track_count = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`,
		playlist.Name(), playlist.TrackCount(), now, playlist.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update playlist: %w", err)
	}
	if err := expectOne(result, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlist.ID())); err != nil {
		return err
	}
	playlist.SetUpdatedAt(now)
	return nil
}

// Delete hides a playlist from every query.
func (r *PlaylistRepository) Delete(id string) error {
	result, err := r.db.Exec(`UPDATE playlists SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, r.now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete playlist: %w", err)
	}
	return expectOne(result, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id))
}

// List returns live playlists newest first.
//
// Supported criteria: "user_id" (string), "mood" (string), "spotify_id" (string).
func (r *PlaylistRepository) List(criteria map[string]any) ([]*models.GeneratedPlaylist, error) {
	query := `SELECT ` + playlistColumns + ` FROM playlists WHERE deleted_at IS NULL`
	var args []any
	for _, column := range []string{"user_id", "mood", "spotify_id"} {
		if v, ok := criteria[column].(string); ok && v != "" {
			query += " AND " + column + " = ?"
			args = append(args, v)
		}
	}

	rows, err := r.db.Query(query+" ORDER BY sequence DESC", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}
	defer rows.Close()

	playlists := []*models.GeneratedPlaylist{}
	for rows.Next() {
		playlist, err := scanPlaylist(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan playlist: %w", err)
		}
		playlists = append(playlists, playlist)
	}
	return playlists, rows.Err()
}

func scanPlaylist(row scanner) (*models.GeneratedPlaylist, error) {
	var (
		id, userID, mood, name, spotifyID, url string
		sequence, trackCount                   int
		createdAt, updatedAt                   time.Time
		deletedAt                              sql.NullTime
	)
	if err := row.Scan(&id, &sequence, &userID, &mood, &name, &spotifyID, &url, &trackCount, &createdAt, &updatedAt, &deletedAt); err != nil {
		return nil, err
	}

	playlist := models.NewGeneratedPlaylist(userID, mood, name, spotifyID, url, trackCount)
	playlist.SetID(id)
	playlist.SetSequence(sequence)
	playlist.SetCreatedAt(createdAt)
	playlist.SetUpdatedAt(updatedAt)
	playlist.SetDeletedAt(timePtr(deletedAt))
	return playlist, nil
}
