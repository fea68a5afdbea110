// Package progress persists the learner's server-held state: XP, streak,
// profile, and per-module completion.
package progress

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"pandai/pkg/schema"
)

// Store persists learner progress in SQLite.
type Store struct {
	db *sql.DB
}

const ddl = `
CREATE TABLE IF NOT EXISTS profile (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	display_name TEXT NOT NULL,
	username TEXT NOT NULL,
	level INTEGER NOT NULL,
	progress REAL NOT NULL,
	streak_days INTEGER NOT NULL,
	xp INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS module_completion (
	module_id TEXT PRIMARY KEY,
	completed_at INTEGER NOT NULL
);
`

// Open opens the store and applies the schema. A fresh database is seeded
// with a starter profile so /api/state always has something to show.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("progress: storage path is required")
	}
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("progress: open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("progress: ping sqlite db: %w", err)
	}
	if _, err := db.Exec(ddl); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("progress: apply schema: %w", err)
	}
	if _, err := db.Exec(
		`INSERT OR IGNORE INTO profile (id, display_name, username, level, progress, streak_days, xp)
		 VALUES (1, ?, ?, ?, ?, ?, ?)`,
		"Wira", "@DeeDotz", 12, 0.62, 5, 1200,
	); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("progress: seed profile: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Stats loads the profile row plus the learner's streak and XP.
func (s *Store) Stats(ctx context.Context) (schema.Profile, int, int, error) {
	var p schema.Profile
	var streak, xp int
	err := s.db.QueryRowContext(ctx,
		`SELECT display_name, username, level, progress, streak_days, xp FROM profile WHERE id = 1`,
	).Scan(&p.DisplayName, &p.Username, &p.Level, &p.Progress, &streak, &xp)
	if err != nil {
		return schema.Profile{}, 0, 0, fmt.Errorf("progress: load profile: %w", err)
	}
	return p, streak, xp, nil
}

// Completed returns the set of finished module ids.
func (s *Store) Completed(ctx context.Context) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT module_id FROM module_completion`)
	if err != nil {
		return nil, fmt.Errorf("progress: load completions: %w", err)
	}
	defer rows.Close()

	done := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("progress: scan completion: %w", err)
		}
		done[id] = true
	}
	return done, rows.Err()
}

// CompleteModule marks a module finished and awards XP. Completing a
// module twice keeps the first completion and awards nothing.
func (s *Store) CompleteModule(ctx context.Context, moduleID string, awardXP int) error {
	moduleID = strings.TrimSpace(moduleID)
	if moduleID == "" {
		return errors.New("progress: module id is required")
	}
	if awardXP < 0 {
		return errors.New("progress: xp award must not be negative")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("progress: begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO module_completion (module_id, completed_at) VALUES (?, ?)`,
		moduleID, time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("progress: record completion: %w", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("progress: rows affected: %w", err)
	}
	if inserted > 0 && awardXP > 0 {
		if _, err := tx.ExecContext(ctx, `UPDATE profile SET xp = xp + ? WHERE id = 1`, awardXP); err != nil {
			return fmt.Errorf("progress: award xp: %w", err)
		}
	}
	return tx.Commit()
}
