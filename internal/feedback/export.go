package feedback

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// exportVersion tags the JSON envelope.
const exportVersion = "1.0"

// exportBatchLimit bounds a single export. A deployment's feedback log is
// expected to stay orders of magnitude below this.
const exportBatchLimit = 1_000_000

// exportJSON writes the full contents of st to w as an indented envelope.
// Both backends delegate here so the file format cannot drift between them.
func exportJSON(ctx context.Context, st Store, w io.Writer) error {
	entries, err := st.List(ctx, exportBatchLimit, 0)
	if err != nil {
		return fmt.Errorf("listing feedback for export: %w", err)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(&FeedbackExport{
		Version:    exportVersion,
		ExportedAt: time.Now(),
		Count:      len(entries),
		Feedback:   entries,
	})
}

// importJSON merges entries from r into st. A (topic, profile_hash) pair
// already in the store is skipped, so verdicts recorded locally win over the
// imported file.
func importJSON(ctx context.Context, st Store, r io.Reader) (imported, skipped int, err error) {
	var export FeedbackExport
	if err := json.NewDecoder(r).Decode(&export); err != nil {
		return 0, 0, fmt.Errorf("decoding feedback export: %w", err)
	}

	for _, fb := range export.Feedback {
		existing, err := st.Get(ctx, fb.Topic, fb.ProfileHash)
		if err != nil {
			return imported, skipped, fmt.Errorf("checking for existing feedback: %w", err)
		}
		if existing != nil {
			skipped++
			continue
		}
		if err := st.Save(ctx, fb); err != nil {
			return imported, skipped, fmt.Errorf("importing feedback entry: %w", err)
		}
		imported++
	}
	return imported, skipped, nil
}
