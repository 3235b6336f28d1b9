package feedback

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	_ "github.com/lib/pq"
)

// Connection pool sizing for the shared feedback database. The feedback
// write path is low-volume; these exist to cap fan-out under the HTTP server,
// not to tune throughput.
const (
	pgMaxOpenConns    = 25
	pgMaxIdleConns    = 5
	pgConnMaxLifetime = 5 * time.Minute
)

// PostgresStore is the feedback backend for server deployments, where the
// log is shared across instances. Schema management lives in migrations, not
// here; the store assumes the feedback table exists.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an existing connection. The connection is pinged
// once so a bad handle fails at startup instead of on first use.
func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("pinging feedback database: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// NewPostgresStoreFromURL opens a pooled connection to databaseURL.
func NewPostgresStoreFromURL(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("opening feedback database: %w", err)
	}

	db.SetMaxOpenConns(pgMaxOpenConns)
	db.SetMaxIdleConns(pgMaxIdleConns)
	db.SetConnMaxLifetime(pgConnMaxLifetime)

	store, err := NewPostgresStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// Save upserts a verdict. The conflict target is the (topic, profile_hash)
// unique constraint; on replacement the row keeps its id and created_at.
func (s *PostgresStore) Save(ctx context.Context, fb *Feedback) error {
	now := time.Now()

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO feedback (topic, profile_hash, profile_summary, recommended_grade, agreed, comment, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (topic, profile_hash) DO UPDATE SET
			profile_summary   = EXCLUDED.profile_summary,
			recommended_grade = EXCLUDED.recommended_grade,
			agreed            = EXCLUDED.agreed,
			comment           = EXCLUDED.comment,
			updated_at        = EXCLUDED.updated_at
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
func (s *PostgresStore) Get(ctx context.Context, topic, profileHash string) (*Feedback, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+feedbackColumns+` FROM feedback WHERE topic = $1 AND profile_hash = $2 LIMIT 1`,
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
func (s *PostgresStore) List(ctx context.Context, limit, offset int) ([]*Feedback, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+feedbackColumns+` FROM feedback ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
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
func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM feedback`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting feedback: %w", err)
	}
	return n, nil
}

// Delete removes an entry by id.
func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM feedback WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting feedback: %w", err)
	}
	return nil
}

// ExportJSON writes the full log to w.
func (s *PostgresStore) ExportJSON(ctx context.Context, w io.Writer) error {
	return exportJSON(ctx, s, w)
}

// ImportJSON merges entries from r, keeping existing verdicts on collision.
func (s *PostgresStore) ImportJSON(ctx context.Context, r io.Reader) (int, int, error) {
	return importJSON(ctx, s, r)
}

// Close closes the underlying database.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
