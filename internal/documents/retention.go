package documents

import (
	"context"

	"docscan-backend/internal/shared/metrics"
	"docscan-backend/internal/shared/storage/object"
	"docscan-backend/internal/shared/telemetry"
)

// Sweeper trims a user's unsaved documents down to Cap, evicting the
// oldest scans first. Saved documents are never touched.
type Sweeper struct {
	Repo  Repo
	Store object.ObjectStore
	Cap   int
}

// Sweep deletes unsaved documents beyond the cap for one user and
// returns the number of rows evicted. Blob deletion failures are
// logged and do not abort the sweep.
func (s *Sweeper) Sweep(ctx context.Context, userID string) (int, error) {
	if s.Cap <= 0 {
		return 0, nil
	}

	docs, err := s.Repo.ListUnsaved(ctx, userID)
	if err != nil {
		return 0, err
	}
	if len(docs) <= s.Cap {
		return 0, nil
	}

	evicted := 0
	for _, doc := range docs[s.Cap:] {
		if err := s.Repo.Delete(ctx, userID, doc.ID); err != nil {
			telemetry.Warn("retention delete failed", map[string]any{
				"documentId": doc.ID,
				"error":      err.Error(),
			})
			continue
		}
		evicted++
		if doc.FilePath != "" && s.Store != nil {
			if err := s.Store.Delete(ctx, doc.FilePath); err != nil {
				telemetry.Warn("retention blob delete failed", map[string]any{
					"documentId": doc.ID,
					"error":      err.Error(),
				})
			}
		}
	}

	if evicted > 0 {
		metrics.AddRetentionEvicted(evicted)
		telemetry.Info("retention sweep", map[string]any{
			"evicted": evicted,
			"cap":     s.Cap,
		})
	}
	return evicted, nil
}
