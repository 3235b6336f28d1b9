package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/prushi369-byte/uspstf-screening/internal/domain"
)

// EvaluationRepository persists the audit trail of screening evaluations.
// The profile and recommendation list are stored as JSONB so records stay
// readable even as the catalog evolves.
type EvaluationRepository struct {
	db  *pgxpool.Pool
	log *logrus.Logger
}

// NewEvaluationRepository creates a new evaluation repository
func NewEvaluationRepository(db *pgxpool.Pool, logger *logrus.Logger) *EvaluationRepository {
	return &EvaluationRepository{
		db:  db,
		log: logger,
	}
}

// Save inserts a completed evaluation record
func (r *EvaluationRepository) Save(ctx context.Context, record *domain.EvaluationRecord) error {
	profileJSON, err := json.Marshal(record.Profile)
	if err != nil {
		return fmt.Errorf("encoding profile: %w", err)
	}

	recommendationsJSON, err := json.Marshal(record.Recommendations)
	if err != nil {
		return fmt.Errorf("encoding recommendations: %w", err)
	}

	topicsJSON, err := json.Marshal(record.MatchedTopics)
	if err != nil {
		return fmt.Errorf("encoding matched topics: %w", err)
	}

	query := `
		INSERT INTO evaluations (
			id, profile, pack_years, recommendations, matched_topics, matched_count, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)`

	_, err = r.db.Exec(ctx, query,
		record.ID,
		profileJSON,
		record.PackYears,
		recommendationsJSON,
		topicsJSON,
		record.MatchedCount,
		record.CreatedAt,
	)

	if err != nil {
		r.log.WithFields(logrus.Fields{
			"evaluation_id": record.ID,
			"error":         err,
		}).Error("Failed to save evaluation record")
		return fmt.Errorf("saving evaluation record: %w", err)
	}

	r.log.WithFields(logrus.Fields{
		"evaluation_id": record.ID,
		"matched_count": record.MatchedCount,
	}).Info("Evaluation record saved")

	return nil
}

// Get retrieves an evaluation record by its ID
func (r *EvaluationRepository) Get(ctx context.Context, id string) (*domain.EvaluationRecord, error) {
	query := `
		SELECT id, profile, pack_years, recommendations, matched_topics, matched_count, created_at
		FROM evaluations
		WHERE id = $1`

	record, err := scanEvaluation(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("evaluation not found: %w", domain.ErrNotFound)
		}
		r.log.WithFields(logrus.Fields{
			"evaluation_id": id,
			"error":         err,
		}).Error("Failed to get evaluation record")
		return nil, fmt.Errorf("getting evaluation record: %w", err)
	}

	return record, nil
}

// List retrieves evaluation records ordered by creation time, newest first
func (r *EvaluationRepository) List(ctx context.Context, limit, offset int) ([]*domain.EvaluationRecord, error) {
	query := `
		SELECT id, profile, pack_years, recommendations, matched_topics, matched_count, created_at
		FROM evaluations
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		r.log.WithError(err).Error("Failed to list evaluation records")
		return nil, fmt.Errorf("listing evaluation records: %w", err)
	}
	defer rows.Close()

	var records []*domain.EvaluationRecord
	for rows.Next() {
		record, err := scanEvaluation(rows)
		if err != nil {
			r.log.WithError(err).Error("Failed to scan evaluation row")
			return nil, fmt.Errorf("scanning evaluation row: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating evaluation rows: %w", err)
	}

	return records, nil
}

// Count returns the total number of stored evaluation records
func (r *EvaluationRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM evaluations`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting evaluation records: %w", err)
	}
	return count, nil
}

// Delete removes an evaluation record from the database
func (r *EvaluationRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM evaluations WHERE id = $1`, id)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"evaluation_id": id,
			"error":         err,
		}).Error("Failed to delete evaluation record")
		return fmt.Errorf("deleting evaluation record: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("evaluation not found: %w", domain.ErrNotFound)
	}

	r.log.WithField("evaluation_id", id).Info("Evaluation record deleted")

	return nil
}

// scanner abstracts pgx.Row and pgx.Rows for shared scanning.
type scanner interface {
	Scan(dest ...any) error
}

func scanEvaluation(row scanner) (*domain.EvaluationRecord, error) {
	var (
		record              domain.EvaluationRecord
		profileJSON         []byte
		recommendationsJSON []byte
		topicsJSON          []byte
	)

	err := row.Scan(
		&record.ID,
		&profileJSON,
		&record.PackYears,
		&recommendationsJSON,
		&topicsJSON,
		&record.MatchedCount,
		&record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(profileJSON, &record.Profile); err != nil {
		return nil, fmt.Errorf("decoding profile: %w", err)
	}
	if err := json.Unmarshal(recommendationsJSON, &record.Recommendations); err != nil {
		return nil, fmt.Errorf("decoding recommendations: %w", err)
	}
	if err := json.Unmarshal(topicsJSON, &record.MatchedTopics); err != nil {
		return nil, fmt.Errorf("decoding matched topics: %w", err)
	}

	return &record, nil
}
