package curation

import (
	"context"
	"time"

	"github.com/jonjanego/spotify-library-curation/internal/analysis"
)

// DuplicateReport is the read-only duplicate scan result.
type DuplicateReport struct {
	Mode        string                    `json:"mode"`
	TotalTracks int                       `json:"total_tracks"`
	GroupCount  int                       `json:"group_count"`
	Extras      int                       `json:"extras"`
	Groups      []analysis.DuplicateGroup `json:"groups"`
}

// Duplicates scans the collection for duplicate groups. Strict mode
// keys on title, artists, and album; loose mode drops the album so
// re-releases of the same recording collapse together.
func (s *Service) Duplicates(ctx context.Context, strict bool) (*DuplicateReport, error) {
	entries, err := s.source.FetchAll(ctx)
	if err != nil {
		return nil, err
	}

	groups := analysis.FindDuplicates(entries, strict)

	mode := "loose"
	if strict {
		mode = "strict"
	}

	report := &DuplicateReport{
		Mode:        mode,
		TotalTracks: len(entries),
		GroupCount:  len(groups),
		Groups:      groups,
	}
	for _, group := range groups {
		report.Extras += len(group.Members) - 1
	}
	return report, nil
}

// AlbumReport is the read-only album analysis result.
type AlbumReport struct {
	TotalTracks  int                  `json:"total_tracks"`
	NotableCount int                  `json:"notable_count"`
	Albums       []analysis.AlbumStat `json:"albums"`
	Warnings     []string             `json:"warnings,omitempty"`
}

// Albums groups the collection by album and classifies each against
// the notability thresholds, checking saved-album membership remotely.
func (s *Service) Albums(ctx context.Context) (*AlbumReport, error) {
	entries, err := s.source.FetchAll(ctx)
	if err != nil {
		return nil, err
	}

	stats := analysis.AnalyzeAlbums(ctx, entries, s.source.CheckSavedAlbums, s.albumCfg)

	report := &AlbumReport{
		TotalTracks: len(entries),
		Albums:      stats.Albums,
		Warnings:    stats.Warnings,
	}
	for _, stat := range stats.Albums {
		if stat.Notable {
			report.NotableCount++
		}
	}
	return report, nil
}

// YearReport is the read-only per-year breakdown.
type YearReport struct {
	TotalTracks int                   `json:"total_tracks"`
	Years       []analysis.YearBucket `json:"years"`
}

// Years buckets the collection by the year each track was liked, in
// the service's configured timezone.
func (s *Service) Years(ctx context.Context) (*YearReport, error) {
	entries, err := s.source.FetchAll(ctx)
	if err != nil {
		return nil, err
	}

	return &YearReport{
		TotalTracks: len(entries),
		Years:       analysis.ByYear(entries, s.location),
	}, nil
}

// RefreshResult reports a forced snapshot refresh.
type RefreshResult struct {
	TotalTracks int       `json:"total_tracks"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// Refresh discards the cached library snapshot and fetches the
// collection again from the remote service.
func (s *Service) Refresh(ctx context.Context) (*RefreshResult, error) {
	entries, err := s.source.Refresh(ctx)
	if err != nil {
		return nil, err
	}

	s.logger.Info("library snapshot refreshed", "tracks", len(entries))
	return &RefreshResult{
		TotalTracks: len(entries),
		FetchedAt:   time.Now(),
	}, nil
}
