package storage

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"
)

func openMigrated(t *testing.T) *sql.DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "qa.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return db
}

func insertSession(t *testing.T, db *sql.DB, id string) {
	t.Helper()
	now := time.Now().UTC()
	if _, err := db.Exec(
		`INSERT INTO sessions (id, created_at, updated_at) VALUES (?, ?, ?)`, id, now, now,
	); err != nil {
		t.Fatalf("insert session %s: %v", id, err)
	}
}

func insertMessage(db *sql.DB, id, sessionID string) error {
	_, err := db.Exec(
		`INSERT INTO messages (id, session_id, role, content, created_at) VALUES (?, ?, 'user', 'hi', ?)`,
		id, sessionID, time.Now().UTC(),
	)
	return err
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{name: "temp dir", path: filepath.Join(t.TempDir(), "qa.db")},
		{name: "missing directory", path: "/nonexistent/path/qa.db", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, err := New(tt.path)
			if db != nil {
				defer func() { _ = db.Close() }()
			}
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got := db.Stats().MaxOpenConnections; got != 25 {
				t.Errorf("MaxOpenConnections = %d, want 25", got)
			}
		})
	}
}

// Every pooled connection comes from the DSN, not only the one that ran the
// PRAGMA in New.
func TestNew_ForeignKeysOnEveryConnection(t *testing.T) {
	db := openMigrated(t)
	ctx := context.Background()

	conns := make([]*sql.Conn, 3)
	for i := range conns {
		c, err := db.Conn(ctx)
		if err != nil {
			t.Fatalf("Conn() error = %v", err)
		}
		conns[i] = c
	}
	defer func() {
		for _, c := range conns {
			_ = c.Close()
		}
	}()

	for i, c := range conns {
		var enabled int
		if err := c.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&enabled); err != nil {
			t.Fatalf("conn %d: PRAGMA foreign_keys: %v", i, err)
		}
		if enabled != 1 {
			t.Errorf("conn %d: foreign_keys = %d, want 1", i, enabled)
		}
	}
}

func TestMigrate_RejectsOrphanMessage(t *testing.T) {
	db := openMigrated(t)

	if err := insertMessage(db, "m1", "no-such-session"); err == nil {
		t.Fatal("insert with unknown session_id succeeded, want foreign key error")
	}

	insertSession(t, db, "s1")
	if err := insertMessage(db, "m1", "s1"); err != nil {
		t.Fatalf("insert with known session_id: %v", err)
	}
}

func TestMigrate_DeleteSessionCascades(t *testing.T) {
	db := openMigrated(t)

	insertSession(t, db, "keep")
	insertSession(t, db, "drop")
	for _, m := range []struct{ id, session string }{
		{"m1", "keep"}, {"m2", "drop"}, {"m3", "drop"},
	} {
		if err := insertMessage(db, m.id, m.session); err != nil {
			t.Fatalf("insert %s: %v", m.id, err)
		}
	}

	if _, err := db.Exec(`DELETE FROM sessions WHERE id = ?`, "drop"); err != nil {
		t.Fatalf("delete session: %v", err)
	}

	counts := map[string]int{"keep": 1, "drop": 0}
	for session, want := range counts {
		var got int
		if err := db.QueryRow(`SELECT COUNT(*) FROM messages WHERE session_id = ?`, session).Scan(&got); err != nil {
			t.Fatalf("count %s: %v", session, err)
		}
		if got != want {
			t.Errorf("messages for %s = %d, want %d", session, got, want)
		}
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	db := openMigrated(t)
	insertSession(t, db, "s1")

	if err := Migrate(db); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM sessions`).Scan(&n); err != nil {
		t.Fatalf("count sessions: %v", err)
	}
	if n != 1 {
		t.Errorf("sessions after second Migrate() = %d, want 1", n)
	}
}

func TestMigrate_MessageDefaults(t *testing.T) {
	db := openMigrated(t)
	insertSession(t, db, "s1")
	if err := insertMessage(db, "m1", "s1"); err != nil {
		t.Fatalf("insert message: %v", err)
	}

	var (
		model    string
		fallback int
	)
	if err := db.QueryRow(`SELECT model, used_fallback FROM messages WHERE id = 'm1'`).Scan(&model, &fallback); err != nil {
		t.Fatalf("select message: %v", err)
	}
	if model != "" || fallback != 0 {
		t.Errorf("defaults = (%q, %d), want (\"\", 0)", model, fallback)
	}

	if err := insertMessage(db, "m1", "s1"); err == nil {
		t.Error("duplicate message id accepted, want unique constraint error")
	}
}
