package curation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jonjanego/spotify-library-curation/internal/analysis"
	"github.com/jonjanego/spotify-library-curation/internal/library"
)

// ErrNoYearsSelected rejects a create-year-playlists call naming no
// years. Validation happens before any remote call.
var ErrNoYearsSelected = errors.New("no years selected")

// YearPlaylistDetail records what happened for one requested year.
type YearPlaylistDetail struct {
	Year         int    `json:"year"`
	PlaylistID   string `json:"playlist_id,omitempty"`
	PlaylistName string `json:"playlist_name,omitempty"`
	TracksAdded  int    `json:"tracks_added"`
	TotalTracks  int    `json:"total_tracks"`
	Success      bool   `json:"success"`
	Error        string `json:"error,omitempty"`
}

// YearPlaylistResult tallies a create-year-playlists run.
type YearPlaylistResult struct {
	OperationID      string               `json:"operation_id"`
	Success          bool                 `json:"success"`
	PlaylistsCreated int                  `json:"playlists_created"`
	Years            []YearPlaylistDetail `json:"years"`
	Errors           []string             `json:"errors"`
}

// CreateYearPlaylists builds one private playlist per requested year
// holding that year's liked tracks in the order they were liked. Years
// with no liked tracks record a structured failure; other years
// continue. Playlist-append batches are retried with linearly growing
// backoff before the year is given up on.
func (s *Service) CreateYearPlaylists(ctx context.Context, years []int) (*YearPlaylistResult, error) {
	if len(years) == 0 {
		return nil, ErrNoYearsSelected
	}

	entries, err := s.source.FetchAll(ctx)
	if err != nil {
		return nil, err
	}

	buckets := make(map[int]analysis.YearBucket)
	for _, bucket := range analysis.ByYear(entries, s.location) {
		buckets[bucket.Year] = bucket
	}

	result := &YearPlaylistResult{
		OperationID: uuid.New().String(),
		Years:       []YearPlaylistDetail{},
		Errors:      []string{},
	}
	s.logger.Info("creating year playlists", "operation", result.OperationID, "years", years)

	for _, year := range years {
		detail := s.createOneYearPlaylist(ctx, year, buckets[year])
		if detail.Error == library.ErrReauthRequired.Error() {
			return nil, library.ErrReauthRequired
		}

		result.Years = append(result.Years, detail)
		if detail.PlaylistID != "" {
			result.PlaylistsCreated++
		}
		if detail.Error != "" {
			result.Errors = append(result.Errors, fmt.Sprintf("%d: %s", year, detail.Error))
		}
	}

	result.Success = len(result.Errors) == 0

	if result.PlaylistsCreated > 0 {
		s.invalidate()
	}

	s.logger.Info("year playlists finished", "operation", result.OperationID,
		"created", result.PlaylistsCreated, "errors", len(result.Errors))
	return result, nil
}

// createOneYearPlaylist handles a single year end to end. Errors are
// folded into the detail record rather than returned.
func (s *Service) createOneYearPlaylist(ctx context.Context, year int, bucket analysis.YearBucket) YearPlaylistDetail {
	detail := YearPlaylistDetail{
		Year:        year,
		TotalTracks: bucket.Count,
	}

	if bucket.Count == 0 {
		detail.Error = "no liked tracks in this year"
		return detail
	}

	name := fmt.Sprintf("Liked Songs %d", year)
	description := fmt.Sprintf("Tracks liked during %d", year)

	playlistID, err := s.source.CreatePlaylist(ctx, name, description, false)
	if err != nil {
		if errors.Is(err, library.ErrReauthRequired) {
			detail.Error = library.ErrReauthRequired.Error()
			return detail
		}
		detail.Error = fmt.Sprintf("creating playlist: %v", err)
		return detail
	}
	detail.PlaylistID = playlistID
	detail.PlaylistName = name

	// Created playlists are not reliably private even when requested
	// so; re-assert before filling.
	if err := s.source.EnsurePlaylistPrivate(ctx, playlistID); err != nil {
		s.logger.Warn("could not re-assert playlist privacy", "playlist", playlistID, "err", err)
	}

	trackIDs := make([]string, len(bucket.Entries))
	for i, entry := range bucket.Entries {
		trackIDs[i] = entry.Track.ID
	}

	for start := 0; start < len(trackIDs); start += s.playlistBatchSize {
		end := min(start+s.playlistBatchSize, len(trackIDs))
		batch := trackIDs[start:end]

		if err := s.appendWithRetry(ctx, playlistID, batch); err != nil {
			if errors.Is(err, library.ErrReauthRequired) {
				detail.Error = library.ErrReauthRequired.Error()
				return detail
			}
			detail.Error = fmt.Sprintf("adding tracks %d-%d: %v", start+1, end, err)
			return detail
		}
		detail.TracksAdded += len(batch)
	}

	detail.Success = detail.TracksAdded == detail.TotalTracks
	return detail
}

// appendWithRetry issues one playlist-append batch, retrying with a
// linearly increasing delay: attempt times the backoff unit.
func (s *Service) appendWithRetry(ctx context.Context, playlistID string, trackIDs []string) error {
	var lastErr error
	for attempt := 1; attempt <= s.appendAttempts; attempt++ {
		err := s.source.AddPlaylistTracks(ctx, playlistID, trackIDs)
		if err == nil {
			return nil
		}
		if errors.Is(err, library.ErrReauthRequired) {
			return err
		}

		lastErr = err
		if attempt < s.appendAttempts {
			delay := time.Duration(attempt) * s.backoffUnit
			s.logger.Warn("playlist append failed, retrying",
				"playlist", playlistID, "attempt", attempt, "delay", delay, "err", err)
			s.sleep(delay)
		}
	}
	return lastErr
}
