package shared

import (
	"errors"
	"slices"
	"testing"
)

func TestMigrationRunner(t *testing.T) {
	t.Run("loadMigrations", func(t *testing.T) {
		migrations, err := loadMigrations()
		if err != nil {
			t.Fatalf("failed to load migrations: %v", err)
		}

		if len(migrations) == 0 {
			t.Fatal("expected at least one migration")
		}

		for i := 1; i < len(migrations); i++ {
			if migrations[i].Version <= migrations[i-1].Version {
				t.Errorf("migrations not sorted: version %d comes after %d", migrations[i].Version, migrations[i-1].Version)
			}
		}

		for _, m := range migrations {
			if m.Name == "" {
				t.Errorf("migration version %d has no name", m.Version)
			}
			if m.Up == "" {
				t.Errorf("migration version %d missing up SQL", m.Version)
			}
			if m.Down == "" {
				t.Errorf("migration version %d missing down SQL", m.Version)
			}
		}
	})

	t.Run("RunMigrations And Rollback", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		var count int
		err = db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count)
		if err != nil {
			t.Fatalf("failed to query schema_migrations: %v", err)
		}
		if count == 0 {
			t.Error("expected at least one migration to be applied")
		}

		_, err = db.Exec("SELECT 1 FROM users LIMIT 1")
		if err != nil {
			t.Errorf("users table should exist after migrations: %v", err)
		}

		reverted, err := RollbackMigration(db)
		if err != nil {
			t.Fatalf("failed to rollback migration: %v", err)
		}
		if reverted.Name != "add_code_attempts" {
			t.Errorf("expected add_code_attempts to be reverted first, got %q", reverted.Name)
		}
		if _, err := db.Exec("SELECT reset_attempts FROM users LIMIT 1"); err == nil {
			t.Error("reset_attempts should be dropped after rollback")
		}

		var newCount int
		err = db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&newCount)
		if err != nil {
			t.Fatalf("failed to query schema_migrations after rollback: %v", err)
		}
		if newCount >= count {
			t.Errorf("expected migration count to decrease after rollback, got %d (was %d)", newCount, count)
		}
	})

	t.Run("Rollback without migrations", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		if _, err := RollbackMigration(db); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Idempotent Migrations", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations first time: %v", err)
		}

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations second time: %v", err)
		}

		var count int
		err = db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count)
		if err != nil {
			t.Fatalf("failed to query schema_migrations: %v", err)
		}

		migrations, _ := loadMigrations()
		if count != len(migrations) {
			t.Errorf("expected %d migrations to be applied, got %d", len(migrations), count)
		}
	})

	t.Run("AppliedMigrations", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		versions, err := AppliedMigrations(db)
		if err != nil {
			t.Fatalf("failed to list migrations: %v", err)
		}
		if len(versions) != 0 {
			t.Errorf("expected no applied migrations, got %v", versions)
		}

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		versions, err = AppliedMigrations(db)
		if err != nil {
			t.Fatalf("failed to list migrations: %v", err)
		}
		if len(versions) == 0 || versions[0] != 0 {
			t.Errorf("expected version 0 to be applied, got %v", versions)
		}
	})

	t.Run("Schema Constraints", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		insert := `INSERT INTO users (id, sequence, email, username, password_hash) VALUES (?, ?, ?, ?, ?)`
		if _, err := db.Exec(insert, "u1", 1, "a@example.com", "alpha", "x"); err != nil {
			t.Fatalf("failed to insert user: %v", err)
		}
		if _, err := db.Exec(insert, "u2", 2, "a@example.com", "beta", "x"); err == nil {
			t.Error("expected duplicate email to be rejected")
		}

		var color int
		if err := db.QueryRow("SELECT color FROM users WHERE id = 'u1'").Scan(&color); err != nil {
			t.Fatalf("failed to read color: %v", err)
		}
		if color != 0xeaf6ff {
			t.Errorf("expected default color %#x, got %#x", 0xeaf6ff, color)
		}

		_, err = db.Exec(`INSERT INTO friendships (id, requester_id, addressee_id) VALUES ('f1', 'u1', 'u1')`)
		if err == nil {
			t.Error("expected self friendship to be rejected")
		}
	})
}

func TestStatements(t *testing.T) {
	tests := []struct {
		name   string
		script string
		want   []string
	}{
		{"empty", "", nil},
		{"single", "DROP TABLE users;", []string{"DROP TABLE users"}},
		{
			name:   "comments may contain semicolons",
			script: "-- users; friends\nCREATE TABLE a (id TEXT);\n\nCREATE TABLE b (id TEXT); -- trailing",
			want:   []string{"CREATE TABLE a (id TEXT)", "CREATE TABLE b (id TEXT)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statements(tt.script); !slices.Equal(got, tt.want) {
				t.Errorf("statements() = %q, want %q", got, tt.want)
			}
		})
	}
}
