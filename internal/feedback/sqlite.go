package feedback

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// feedbackColumns is the column list, in scan order, shared by every SELECT
// in this package. Both backends use the same table shape.
const feedbackColumns = `id, topic, profile_hash, profile_summary, recommended_grade, agreed, comment, created_at, updated_at`

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS feedback (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	topic             TEXT NOT NULL,
	profile_hash      TEXT NOT NULL,
	profile_summary   TEXT DEFAULT '',
	recommended_grade TEXT NOT NULL,
	agreed            INTEGER NOT NULL DEFAULT 0,
	comment           TEXT DEFAULT '',
	created_at        DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at        DATETIME DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(topic, profile_hash)
);
CREATE INDEX IF NOT EXISTS idx_feedback_topic ON feedback(topic);
CREATE INDEX IF NOT EXISTS idx_feedback_profile ON feedback(profile_hash);
CREATE INDEX IF NOT EXISTS idx_feedback_created ON feedback(created_at);
`

// SQLiteStore keeps the feedback log in a single-file database. It is the
// default backend for stdio deployments, where a local file beats standing up
// a database server next to an editor integration.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens the database at dbPath, creating the file, its parent
// directory, and the schema as needed.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("creating feedback directory: %w", err)
	}

	// WAL keeps readers off the writer's back; the busy timeout rides out
	// the lock held during checkpoints.
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening feedback db: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying feedback schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Save upserts a verdict. On replacement the row keeps its original id and
// created_at, so repeat submissions do not masquerade as new entries.
func (s *SQLiteStore) Save(ctx context.Context, fb *Feedback) error {
	now := time.Now()

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO feedback (topic, profile_hash, profile_summary, recommended_grade, agreed, comment, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(topic, profile_hash) DO UPDATE SET
			profile_summary   = excluded.profile_summary,
			recommended_grade = excluded.recommended_grade,
			agreed            = excluded.agreed,
			comment           = excluded.comment,
			updated_at        = excluded.updated_at
		RETURNING id, created_at`,
		fb.Topic, fb.ProfileHash, fb.ProfileSummary, fb.RecommendedGrade, fb.Agreed, fb.Comment, now, now,
	)
	if err := row.Scan(&fb.ID, &fb.CreatedAt); err != nil {
		return fmt.Errorf("saving feedback: %w", err)
	}

	fb.UpdatedAt = now
	return nil
}

// Get returns the verdict for a topic and profile hash, or (nil, nil) when
// none has been recorded.
func (s *SQLiteStore) Get(ctx context.Context, topic, profileHash string) (*Feedback, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+feedbackColumns+` FROM feedback WHERE topic = ? AND profile_hash = ? LIMIT 1`,
		topic, profileHash)

	fb, err := scanFeedback(row)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("reading feedback: %w", err)
	}
	return fb, nil
}

// List returns entries newest-first.
func (s *SQLiteStore) List(ctx context.Context, limit, offset int) ([]*Feedback, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+feedbackColumns+` FROM feedback ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing feedback: %w", err)
	}
	defer rows.Close()

	var entries []*Feedback
	for rows.Next() {
		fb, err := scanFeedback(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning feedback row: %w", err)
		}
		entries = append(entries, fb)
	}
	return entries, rows.Err()
}

// Count reports the number of stored entries.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM feedback`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting feedback: %w", err)
	}
	return n, nil
}

// Delete removes an entry by id.
func (s *SQLiteStore) Delete(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM feedback WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting feedback: %w", err)
	}
	return nil
}

// ExportJSON writes the full log to w.
func (s *SQLiteStore) ExportJSON(ctx context.Context, w io.Writer) error {
	return exportJSON(ctx, s, w)
}

// ImportJSON merges entries from r, keeping existing verdicts on collision.
func (s *SQLiteStore) ImportJSON(ctx context.Context, r io.Reader) (int, int, error) {
	return importJSON(ctx, s, r)
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// scanFeedback reads one row laid out in feedbackColumns order. It accepts
// both *sql.Row and *sql.Rows.
func scanFeedback(row interface{ Scan(...any) error }) (*Feedback, error) {
	var fb Feedback
	err := row.Scan(
		&fb.ID, &fb.Topic, &fb.ProfileHash, &fb.ProfileSummary,
		&fb.RecommendedGrade, &fb.Agreed, &fb.Comment,
		&fb.CreatedAt, &fb.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &fb, nil
}
