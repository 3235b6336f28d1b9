// Package feedback keeps a log of clinician verdicts on recommended screening
// topics. Each entry says whether the recommendation for a given patient
// profile was accepted in practice; the accumulated log feeds catalog review.
package feedback

import (
	"context"
	"io"
	"time"
)

// Feedback is one verdict on one recommended topic. The (Topic, ProfileHash)
// pair identifies the entry: submitting again for the same pair replaces the
// earlier verdict rather than appending a duplicate.
type Feedback struct {
	ID               int64     `json:"id,omitempty"`
	Topic            string    `json:"topic"`
	ProfileHash      string    `json:"profile_hash"`
	ProfileSummary   string    `json:"profile_summary,omitempty"`
	RecommendedGrade string    `json:"recommended_grade"`
	Agreed           bool      `json:"agreed"`
	Comment          string    `json:"comment,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Store is implemented by the SQLite and PostgreSQL backends. Entries are
// keyed by (topic, profile_hash); Save replaces on collision.
type Store interface {
	// Save writes fb, replacing any earlier verdict for the same topic and
	// profile. On return fb.ID and the timestamps are populated.
	Save(ctx context.Context, fb *Feedback) error

	// Get looks up the verdict for a topic and profile hash. A missing entry
	// is (nil, nil), not an error.
	Get(ctx context.Context, topic, profileHash string) (*Feedback, error)

	// List returns entries newest-first.
	List(ctx context.Context, limit, offset int) ([]*Feedback, error)

	// Count reports how many entries the store holds.
	Count(ctx context.Context) (int64, error)

	// Delete removes the entry with the given id. Deleting a missing id is
	// not an error.
	Delete(ctx context.Context, id int64) error

	// ExportJSON writes every entry to w in the versioned envelope format.
	ExportJSON(ctx context.Context, w io.Writer) error

	// ImportJSON merges entries from r. Pairs already present are skipped so
	// local verdicts survive an import.
	ImportJSON(ctx context.Context, r io.Reader) (imported, skipped int, err error)

	Close() error
}

// FeedbackExport is the envelope written by ExportJSON and read back by
// ImportJSON. Version lets a later format migrate old files.
type FeedbackExport struct {
	Version    string      `json:"version"`
	ExportedAt time.Time   `json:"exported_at"`
	Count      int         `json:"count"`
	Feedback   []*Feedback `json:"feedback"`
}
