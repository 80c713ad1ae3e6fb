package curation

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jonjanego/spotify-library-curation/internal/analysis"
	"github.com/jonjanego/spotify-library-curation/internal/library"
)

// ErrNoAlbumsSelected rejects a remove-albums call that names no
// targets. Validation happens before any remote call.
var ErrNoAlbumsSelected = errors.New("no albums selected")

// AlbumRemovalDetail records what happened to one album.
type AlbumRemovalDetail struct {
	AlbumID        string `json:"album_id"`
	Name           string `json:"name"`
	Artist         string `json:"artist"`
	TracksRemoved  int    `json:"tracks_removed"`
	TotalLiked     int    `json:"total_liked"`
	WasInLibrary   bool   `json:"was_in_library"`
	AddedToLibrary bool   `json:"added_to_library"`
	Success        bool   `json:"success"`
	Error          string `json:"error,omitempty"`
}

// AlbumRemovalResult tallies a remove-albums run.
type AlbumRemovalResult struct {
	OperationID     string               `json:"operation_id"`
	Success         bool                 `json:"success"`
	AlbumsProcessed int                  `json:"albums_processed"`
	TracksRemoved   int                  `json:"tracks_removed"`
	AlbumsAdded     int                  `json:"albums_added"`
	Albums          []AlbumRemovalDetail `json:"albums"`
	Errors          []string             `json:"errors"`
}

// RemoveAlbums clears the liked tracks of the selected albums. With
// removeAll set, every notable album is targeted and preserved as a
// saved album first; otherwise the explicit selection is intersected
// with the current analysis, and albums are saved to the library first
// only when addToLibrary is set. Albums are processed independently: a
// failure on one never blocks the rest, and a failed add-to-library
// does not block removing that album's tracks.
func (s *Service) RemoveAlbums(ctx context.Context, selection []string, removeAll, addToLibrary bool) (*AlbumRemovalResult, error) {
	if !removeAll && len(selection) == 0 {
		return nil, ErrNoAlbumsSelected
	}

	entries, err := s.source.FetchAll(ctx)
	if err != nil {
		return nil, err
	}

	stats := analysis.AnalyzeAlbums(ctx, entries, s.source.CheckSavedAlbums, s.albumCfg)

	result := &AlbumRemovalResult{
		OperationID: uuid.New().String(),
		Albums:      []AlbumRemovalDetail{},
		Errors:      append([]string{}, stats.Warnings...),
	}

	targets := resolveTargets(stats.Albums, selection, removeAll)
	s.logger.Info("removing albums",
		"operation", result.OperationID, "targets", len(targets), "remove_all", removeAll)

	for _, stat := range targets {
		detail := s.removeOneAlbum(ctx, stat, removeAll || addToLibrary)
		if detail.Error == library.ErrReauthRequired.Error() {
			return nil, library.ErrReauthRequired
		}

		result.Albums = append(result.Albums, detail)
		result.AlbumsProcessed++
		result.TracksRemoved += detail.TracksRemoved
		if detail.AddedToLibrary {
			result.AlbumsAdded++
		}
		if detail.Error != "" {
			result.Errors = append(result.Errors,
				fmt.Sprintf("%s - %s: %s", detail.Artist, detail.Name, detail.Error))
		}
	}

	result.Success = len(result.Errors) == 0

	if result.TracksRemoved > 0 || result.AlbumsAdded > 0 {
		s.invalidate()
	}

	s.logger.Info("album removal finished", "operation", result.OperationID,
		"albums", result.AlbumsProcessed, "tracks_removed", result.TracksRemoved, "errors", len(result.Errors))
	return result, nil
}

// removeOneAlbum saves the album to the library when asked, then
// removes its liked tracks in batches. Errors are folded into the
// detail record rather than returned.
func (s *Service) removeOneAlbum(ctx context.Context, stat analysis.AlbumStat, addFirst bool) AlbumRemovalDetail {
	detail := AlbumRemovalDetail{
		AlbumID:      stat.Album.ID,
		Name:         stat.Album.Title,
		Artist:       stat.Artist,
		TotalLiked:   stat.LikedCount,
		WasInLibrary: stat.InLibrary,
	}

	if addFirst && !stat.InLibrary {
		if err := s.source.AddSavedAlbums(ctx, []string{stat.Album.ID}); err != nil {
			if errors.Is(err, library.ErrReauthRequired) {
				detail.Error = library.ErrReauthRequired.Error()
				return detail
			}
			// Track removal still proceeds.
			detail.Error = fmt.Sprintf("saving album to library: %v", err)
			s.logger.Warn("could not save album", "album", stat.Album.Title, "err", err)
		} else {
			detail.AddedToLibrary = true
		}
	}

	trackIDs := make([]string, len(stat.Entries))
	for i, entry := range stat.Entries {
		trackIDs[i] = entry.Track.ID
	}

	for start := 0; start < len(trackIDs); start += s.removeBatchSize {
		end := min(start+s.removeBatchSize, len(trackIDs))
		batch := trackIDs[start:end]

		if err := s.source.RemoveSavedTracks(ctx, batch); err != nil {
			if errors.Is(err, library.ErrReauthRequired) {
				detail.Error = library.ErrReauthRequired.Error()
				return detail
			}
			if detail.Error != "" {
				detail.Error += "; "
			}
			detail.Error += fmt.Sprintf("removing tracks %d-%d: %v", start+1, end, err)
			continue
		}
		detail.TracksRemoved += len(batch)
	}

	detail.Success = detail.TracksRemoved == detail.TotalLiked
	return detail
}

// resolveTargets picks the albums to act on: all notable ones in
// remove-all mode, otherwise the explicit selection intersected with
// the analysis. Unknown selected IDs are silently dropped by the
// intersection.
func resolveTargets(albums []analysis.AlbumStat, selection []string, removeAll bool) []analysis.AlbumStat {
	if removeAll {
		var notable []analysis.AlbumStat
		for _, stat := range albums {
			if stat.Notable {
				notable = append(notable, stat)
			}
		}
		return notable
	}

	selected := make(map[string]bool, len(selection))
	for _, id := range selection {
		selected[id] = true
	}

	var targets []analysis.AlbumStat
	for _, stat := range albums {
		if selected[stat.Album.ID] {
			targets = append(targets, stat)
		}
	}
	return targets
}
