package repositories

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/moody/internal/models"
	"github.com/desertthunder/moody/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		t.Fatalf("failed to enable foreign keys: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

// createUser inserts a user with a throwaway password hash.
func createUser(t *testing.T, repo *UserRepository, email, username string) *models.User {
	t.Helper()

	user := models.NewUser(0, email, username, "$2a$10$hash")
	if err := repo.Create(user); err != nil {
		t.Fatalf("failed to create user %s: %v", username, err)
	}
	return user
}

func TestUserRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		user := createUser(t, repo, "test@example.com", "tester")

		if user.ID() == "" {
			t.Error("user ID should be set after creation")
		}
		if user.Sequence() != 1 {
			t.Errorf("expected sequence 1, got %d", user.Sequence())
		}
	})

	t.Run("Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		user := models.NewUser(0, "Test@Example.com", "tester", "hash")
		user.SetFirstName("Test")
		user.SetLastName("User")
		user.SetFavorites([]string{"Drake", "Adele"})

		if err := repo.Create(user); err != nil {
			t.Fatalf("failed to create user: %v", err)
		}

		retrieved, err := repo.Get(user.ID())
		if err != nil {
			t.Fatalf("failed to get user: %v", err)
		}

		if retrieved.Email() != "test@example.com" {
			t.Errorf("expected normalized email, got %s", retrieved.Email())
		}
		if retrieved.Name() != "Test User" {
			t.Errorf("expected name Test User, got %s", retrieved.Name())
		}
		if retrieved.Color() != models.DefaultColor {
			t.Errorf("expected default color, got %#x", retrieved.Color())
		}
		if got := retrieved.Favorites(); len(got) != 2 || got[0] != "Drake" {
			t.Errorf("expected favorites to round-trip, got %v", got)
		}
	})

	t.Run("GetByEmail and GetByUsername", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		user := createUser(t, repo, "lookup@example.com", "lookup")

		byEmail, err := repo.GetByEmail("  LOOKUP@example.com ")
		if err != nil {
			t.Fatalf("failed to get by email: %v", err)
		}
		if byEmail.ID() != user.ID() {
			t.Errorf("expected %s, got %s", user.ID(), byEmail.ID())
		}

		byName, err := repo.GetByUsername("lookup")
		if err != nil {
			t.Fatalf("failed to get by username: %v", err)
		}
		if byName.ID() != user.ID() {
			t.Errorf("expected %s, got %s", user.ID(), byName.ID())
		}
	})

	t.Run("Update", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		user := createUser(t, repo, "test@example.com", "tester")

		user.SetBio("hello there")
		user.SetColor(0x8ab4f8)
		user.SetSpotify(models.SpotifyToken{AccessToken: "access", RefreshToken: "refresh", TokenType: "Bearer"})
		if err := repo.Update(user); err != nil {
			t.Fatalf("failed to update user: %v", err)
		}

		retrieved, err := repo.Get(user.ID())
		if err != nil {
			t.Fatalf("failed to get user: %v", err)
		}

		if retrieved.Bio() != "hello there" {
			t.Errorf("expected bio to be updated, got %s", retrieved.Bio())
		}
		if retrieved.Color() != 0x8ab4f8 {
			t.Errorf("expected color 0x8ab4f8, got %#x", retrieved.Color())
		}
		if !retrieved.Spotify().Linked() {
			t.Error("expected spotify token to be stored")
		}
	})

	t.Run("Mutate", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		user := createUser(t, repo, "test@example.com", "tester")

		updated, err := repo.Mutate(user.ID(), func(u *models.User) error {
			u.SetUsername("renamed")
			u.SetBio("new bio")
			return nil
		})
		if err != nil {
			t.Fatalf("failed to mutate user: %v", err)
		}
		if updated.Username() != "renamed" {
			t.Errorf("expected renamed, got %s", updated.Username())
		}

		retrieved, _ := repo.Get(user.ID())
		if retrieved.Username() != "renamed" || retrieved.Bio() != "new bio" {
			t.Errorf("expected both fields persisted, got %s / %s", retrieved.Username(), retrieved.Bio())
		}
	})

	t.Run("Mutate is atomic", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		createUser(t, repo, "taken@example.com", "taken")
		user := createUser(t, repo, "test@example.com", "tester")

		_, err := repo.Mutate(user.ID(), func(u *models.User) error {
			u.SetBio("should not persist")
			u.SetUsername("taken")
			return nil
		})
		if !errors.Is(err, shared.ErrConflict) {
			t.Fatalf("expected conflict, got %v", err)
		}

		retrieved, _ := repo.Get(user.ID())
		if retrieved.Bio() != "" || retrieved.Username() != "tester" {
			t.Errorf("expected no changes after failed mutation, got %s / %s", retrieved.Username(), retrieved.Bio())
		}
	})

	t.Run("Code attempts persist", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		user := createUser(t, repo, "test@example.com", "tester")
		expires := time.Now().Add(time.Hour)

		_, err := repo.Mutate(user.ID(), func(u *models.User) error {
			u.SetReset("$2a$10$code", &expires)
			u.FailReset()
			u.FailReset()
			u.FailVerification()
			return nil
		})
		if err != nil {
			t.Fatalf("failed to mutate user: %v", err)
		}

		retrieved, _ := repo.Get(user.ID())
		if retrieved.ResetAttempts() != 2 || retrieved.VerificationAttempts() != 1 {
			t.Errorf("expected 2 reset and 1 verification attempts, got %d / %d", retrieved.ResetAttempts(), retrieved.VerificationAttempts())
		}
		if retrieved.ResetHash() == "" {
			t.Error("reset code should survive attempts under the limit")
		}

		_, err = repo.Mutate(user.ID(), func(u *models.User) error {
			for u.ResetHash() != "" {
				u.FailReset()
			}
			return nil
		})
		if err != nil {
			t.Fatalf("failed to mutate user: %v", err)
		}
		retrieved, _ = repo.Get(user.ID())
		if retrieved.ResetAttempts() != models.MaxCodeAttempts || retrieved.ResetExpiresAt() != nil {
			t.Errorf("expected the code discarded after %d attempts, got %d", models.MaxCodeAttempts, retrieved.ResetAttempts())
		}
	})

	t.Run("SetOnline and List", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		alice := createUser(t, repo, "alice@example.com", "alice")
		createUser(t, repo, "bob@example.com", "bob")

		if err := repo.SetOnline(alice.ID(), true); err != nil {
			t.Fatalf("failed to set online: %v", err)
		}

		online, err := repo.List(map[string]any{"online": true})
		if err != nil {
			t.Fatalf("failed to list users: %v", err)
		}
		if len(online) != 1 || online[0].ID() != alice.ID() {
			t.Errorf("expected only alice online, got %d users", len(online))
		}

		all, err := repo.List(map[string]any{"exclude": alice.ID()})
		if err != nil {
			t.Fatalf("failed to list users: %v", err)
		}
		if len(all) != 1 {
			t.Errorf("expected 1 user excluding alice, got %d", len(all))
		}
	})

	t.Run("Search", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		me := createUser(t, repo, "me@example.com", "melody")
		mel := createUser(t, repo, "mel@example.com", "mel_b")
		other := models.NewUser(0, "carmen@example.com", "cjones", "hash")
		other.SetFirstName("Carmen")
		other.SetLastName("Melrose")
		if err := repo.Create(other); err != nil {
			t.Fatalf("failed to create user: %v", err)
		}

		tc := []struct {
			name  string
			query string
			want  []string
		}{
			{name: "prefix matches first", query: "MEL", want: []string{mel.Username(), other.Username()}},
			{name: "matches full name", query: "carmen mel", want: []string{other.Username()}},
			{name: "underscore is literal", query: "l_b", want: []string{mel.Username()}},
			{name: "empty query", query: "  ", want: []string{}},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				users, err := repo.Search(tt.query, me.ID(), 10)
				if err != nil {
					t.Fatalf("search failed: %v", err)
				}
				if len(users) != len(tt.want) {
					t.Fatalf("expected %d results, got %d", len(tt.want), len(users))
				}
				for i, u := range users {
					if u.Username() != tt.want[i] {
						t.Errorf("result %d: expected %s, got %s", i, tt.want[i], u.Username())
					}
				}
			})
		}
	})

	t.Run("Delete", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		user := createUser(t, repo, "test@example.com", "tester")

		if err := repo.Delete(user.ID()); err != nil {
			t.Fatalf("failed to delete user: %v", err)
		}

		if _, err := repo.Get(user.ID()); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected not found after delete, got %v", err)
		}
	})
}

func TestFriendshipRepository(t *testing.T) {
	setup := func(t *testing.T) (*sql.DB, *FriendshipRepository, *models.User, *models.User) {
		db := setupTestDB(t)
		users := NewUserRepository(db)
		alice := createUser(t, users, "alice@example.com", "alice")
		bob := createUser(t, users, "bob@example.com", "bob")
		return db, NewFriendshipRepository(db), alice, bob
	}

	t.Run("Create and Accept", func(t *testing.T) {
		db, repo, alice, bob := setup(t)
		defer db.Close()

		f := models.NewFriendship(alice.ID(), bob.ID())
		if err := repo.Create(f); err != nil {
			t.Fatalf("failed to create friendship: %v", err)
		}

		pending, err := repo.List(map[string]any{"addressee": bob.ID(), "status": models.FriendshipPending})
		if err != nil {
			t.Fatalf("failed to list requests: %v", err)
		}
		if len(pending) != 1 {
			t.Fatalf("expected 1 pending request, got %d", len(pending))
		}

		if _, err := repo.Accept(f.ID(), alice.ID()); !errors.Is(err, shared.ErrForbidden) {
			t.Errorf("expected requester accept to be forbidden, got %v", err)
		}

		accepted, err := repo.Accept(f.ID(), bob.ID())
		if err != nil {
			t.Fatalf("failed to accept: %v", err)
		}
		if accepted.Status() != models.FriendshipAccepted {
			t.Errorf("expected accepted status, got %s", accepted.Status())
		}

		friends, err := repo.Friends(alice.ID())
		if err != nil {
			t.Fatalf("failed to list friends: %v", err)
		}
		if len(friends) != 1 || friends[0].ID() != bob.ID() {
			t.Errorf("expected bob as alice's friend, got %d friends", len(friends))
		}
	})

	t.Run("Duplicate in either direction", func(t *testing.T) {
		db, repo, alice, bob := setup(t)
		defer db.Close()

		if err := repo.Create(models.NewFriendship(alice.ID(), bob.ID())); err != nil {
			t.Fatalf("failed to create friendship: %v", err)
		}
		err := repo.Create(models.NewFriendship(bob.ID(), alice.ID()))
		if !errors.Is(err, shared.ErrConflict) {
			t.Errorf("expected conflict, got %v", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		db, repo, alice, bob := setup(t)
		defer db.Close()

		f := models.NewFriendship(alice.ID(), bob.ID())
		if err := repo.Create(f); err != nil {
			t.Fatalf("failed to create friendship: %v", err)
		}
		if err := repo.Delete(f.ID()); err != nil {
			t.Fatalf("failed to delete friendship: %v", err)
		}
		if _, err := repo.Between(alice.ID(), bob.ID()); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected not found, got %v", err)
		}
	})
}

func TestPlaylistRepository(t *testing.T) {
	t.Run("Create and List newest first", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		user := createUser(t, NewUserRepository(db), "test@example.com", "tester")
		repo := NewPlaylistRepository(db)

		for _, mood := range []string{"happy", "chill"} {
			p := models.NewGeneratedPlaylist(user.ID(), mood, "Mood • "+mood, "sp-"+mood, "https://open.spotify.com/playlist/sp-"+mood, 10)
			if err := repo.Create(p); err != nil {
				t.Fatalf("failed to create playlist: %v", err)
			}
		}

		playlists, err := repo.List(map[string]any{"user_id": user.ID()})
		if err != nil {
			t.Fatalf("failed to list playlists: %v", err)
		}
		if len(playlists) != 2 {
			t.Fatalf("expected 2 playlists, got %d", len(playlists))
		}
		if playlists[0].Mood() != "chill" {
			t.Errorf("expected newest first, got %s", playlists[0].Mood())
		}

		byMood, _ := repo.List(map[string]any{"user_id": user.ID(), "mood": "happy"})
		if len(byMood) != 1 {
			t.Errorf("expected 1 happy playlist, got %d", len(byMood))
		}
	})

	t.Run("Update and Delete", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		user := createUser(t, NewUserRepository(db), "test@example.com", "tester")
		repo := NewPlaylistRepository(db)
		p := models.NewGeneratedPlaylist(user.ID(), "happy", "Mood • happy", "sp-1", "", 0)
		if err := repo.Create(p); err != nil {
			t.Fatalf("failed to create playlist: %v", err)
		}

		p.SetTrackCount(12)
		if err := repo.Update(p); err != nil {
			t.Fatalf("failed to update playlist: %v", err)
		}
		got, err := repo.Get(p.ID())
		if err != nil {
			t.Fatalf("failed to get playlist: %v", err)
		}
		if got.TrackCount() != 12 {
			t.Errorf("expected 12 tracks, got %d", got.TrackCount())
		}

		if err := repo.Delete(p.ID()); err != nil {
			t.Fatalf("failed to delete playlist: %v", err)
		}
		if _, err := repo.Get(p.ID()); !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Errorf("expected not found after delete, got %v", err)
		}
	})
}
