// Package sqlite persists artifact metadata in a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	// register sqlite driver
	_ "modernc.org/sqlite"

	"github.com/davidbz/cthai/internal/domain"
)

const defaultListLimit = 50

// Store implements domain.ArtifactStore backed by SQLite.
type Store struct {
	db *sql.DB
}

// New opens (or creates) a SQLite store at the given path.
func New(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema() error {
	const schema = `
CREATE TABLE IF NOT EXISTS artifacts (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	kind TEXT NOT NULL CHECK(kind IN ('image','video','audio','vision')),
	url TEXT NOT NULL,
	storage_id TEXT NOT NULL,
	prompt TEXT NOT NULL,
	model TEXT NOT NULL DEFAULT '',
	resolution TEXT NOT NULL DEFAULT '',
	duration TEXT NOT NULL DEFAULT '',
	voice TEXT NOT NULL DEFAULT '',
	response TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_artifacts_user_kind_created ON artifacts(user_id, kind, created_at DESC);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close releases underlying database resources.
func (s *Store) Close() error {
	return s.db.Close()
}

// Insert saves a new artifact and assigns its ID and creation time.
func (s *Store) Insert(ctx context.Context, a *domain.Artifact) error {
	if a == nil || a.UserID == "" {
		return errors.New("artifact insert requires user id")
	}
	if !a.Kind.Valid() {
		return fmt.Errorf("invalid kind %q", a.Kind)
	}

	id := uuid.New().String()
	created := a.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
INSERT INTO artifacts(id, user_id, kind, url, storage_id, prompt, model, resolution, duration, voice, response, created_at)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		a.UserID,
		string(a.Kind),
		a.URL,
		a.StorageID,
		a.Prompt,
		a.Model,
		a.Resolution,
		a.Duration,
		a.Voice,
		a.Response,
		created,
	)
	if err != nil {
		return fmt.Errorf("insert artifact: %w", err)
	}

	a.ID = id
	a.CreatedAt = created
	return nil
}

// ListByUser returns the latest artifacts of one kind for a user.
func (s *Store) ListByUser(ctx context.Context, userID string, kind domain.ArtifactKind, limit int) ([]*domain.Artifact, error) {
	if userID == "" {
		return nil, errors.New("user id required")
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, user_id, kind, url, storage_id, prompt, model, resolution, duration, voice, response, created_at
FROM artifacts
WHERE user_id = ? AND kind = ?
ORDER BY created_at DESC, rowid DESC
LIMIT ?`, userID, string(kind), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var artifacts []*domain.Artifact
	for rows.Next() {
		var a domain.Artifact
		var k string
		if err := rows.Scan(&a.ID, &a.UserID, &k, &a.URL, &a.StorageID, &a.Prompt, &a.Model,
			&a.Resolution, &a.Duration, &a.Voice, &a.Response, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Kind = domain.ArtifactKind(k)
		artifacts = append(artifacts, &a)
	}
	return artifacts, rows.Err()
}
