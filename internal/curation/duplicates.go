package curation

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jonjanego/spotify-library-curation/internal/analysis"
	"github.com/jonjanego/spotify-library-curation/internal/library"
)

// DuplicateRemovalResult tallies a remove-duplicates run.
type DuplicateRemovalResult struct {
	OperationID     string   `json:"operation_id"`
	Success         bool     `json:"success"`
	TotalDuplicates int      `json:"total_duplicates"`
	RemovedCount    int      `json:"removed_count"`
	Errors          []string `json:"errors"`
}

// RemoveDuplicates scans the collection in strict mode, keeps the most
// recently liked member of every duplicate group, and removes the rest
// in batches. A failed batch is recorded and skipped; there is no retry
// at this level. Authorization rejections abort the run.
func (s *Service) RemoveDuplicates(ctx context.Context) (*DuplicateRemovalResult, error) {
	entries, err := s.source.FetchAll(ctx)
	if err != nil {
		return nil, err
	}

	plans := analysis.PlanRemovals(analysis.FindDuplicates(entries, true))

	var removeIDs []string
	for _, plan := range plans {
		for _, member := range plan.Remove {
			removeIDs = append(removeIDs, member.Entry.Track.ID)
		}
	}

	result := &DuplicateRemovalResult{
		OperationID:     uuid.New().String(),
		TotalDuplicates: len(removeIDs),
		Errors:          []string{},
	}
	s.logger.Info("removing duplicates",
		"operation", result.OperationID, "groups", len(plans), "tracks", len(removeIDs))

	for start := 0; start < len(removeIDs); start += s.removeBatchSize {
		end := min(start+s.removeBatchSize, len(removeIDs))
		batch := removeIDs[start:end]

		if err := s.source.RemoveSavedTracks(ctx, batch); err != nil {
			if errors.Is(err, library.ErrReauthRequired) {
				return nil, err
			}
			result.Errors = append(result.Errors,
				fmt.Sprintf("removing tracks %d-%d: %v", start+1, end, err))
			continue
		}
		result.RemovedCount += len(batch)
	}

	result.Success = len(result.Errors) == 0

	if result.RemovedCount > 0 {
		s.invalidate()
	}

	s.logger.Info("duplicate removal finished",
		"operation", result.OperationID, "removed", result.RemovedCount, "errors", len(result.Errors))
	return result, nil
}
