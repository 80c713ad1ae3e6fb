package analysis

import (
	"context"
	"fmt"
	"math"
	"sort"
)

// BatchMembershipFunc answers, for a batch of album IDs, whether the
// user has explicitly saved each album to their library. Results are
// positional: out[i] corresponds to albumIDs[i].
type BatchMembershipFunc func(ctx context.Context, albumIDs []string) ([]bool, error)

// AlbumConfig holds the album classification thresholds. The notability
// rules are product heuristics, not derived constants, so they stay
// configurable.
type AlbumConfig struct {
	// MinTotalTracks is the smallest declared track count an album
	// needs to appear in results at all. Singles never qualify.
	MinTotalTracks int

	// NotablePercent classifies an album as notable when its liked
	// percentage exceeds it outright.
	NotablePercent int

	// PartialPercent and PartialLikedCount together classify large
	// albums with many liked tracks: notable when likedCount exceeds
	// PartialLikedCount and the percentage exceeds PartialPercent.
	PartialPercent    int
	PartialLikedCount int

	// MembershipBatchSize is how many album IDs go into one remote
	// membership check.
	MembershipBatchSize int
}

// DefaultAlbumConfig returns the thresholds the dashboard ships with.
func DefaultAlbumConfig() AlbumConfig {
	return AlbumConfig{
		MinTotalTracks:      2,
		NotablePercent:      70,
		PartialPercent:      50,
		PartialLikedCount:   5,
		MembershipBatchSize: 20,
	}
}

// AlbumStat is the per-album analysis result.
type AlbumStat struct {
	Album      Album        `json:"album"`
	Artist     string       `json:"artist"`
	LikedCount int          `json:"liked_count"`
	Percent    int          `json:"percent"`
	InLibrary  bool         `json:"in_library"`
	Notable    bool         `json:"notable"`
	Entries    []LikedEntry `json:"entries"`
}

// AlbumAnalysis bundles the per-album stats with any warnings raised
// while checking remote library membership.
type AlbumAnalysis struct {
	Albums   []AlbumStat `json:"albums"`
	Warnings []string    `json:"warnings,omitempty"`
}

type albumKey struct {
	id    string
	title string
}

// AnalyzeAlbums groups the collection by album, computes the liked
// fraction of each album's declared track count, checks remote library
// membership in batches, and classifies albums against cfg's
// thresholds. Results are sorted by percentage descending; ties keep
// discovery order.
//
// A failed membership batch never aborts the analysis: the albums in
// that batch are conservatively treated as not in the library and the
// failure is recorded as a warning.
func AnalyzeAlbums(ctx context.Context, entries []LikedEntry, check BatchMembershipFunc, cfg AlbumConfig) AlbumAnalysis {
	groups := make(map[albumKey][]LikedEntry)
	var order []albumKey

	for _, entry := range entries {
		k := albumKey{id: entry.Track.Album.ID, title: entry.Track.Album.Title}
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], entry)
	}

	var analysis AlbumAnalysis
	inLibrary := make(map[string]bool)

	batchSize := cfg.MembershipBatchSize
	if batchSize <= 0 {
		batchSize = DefaultAlbumConfig().MembershipBatchSize
	}

	if check != nil {
		ids := make([]string, 0, len(order))
		for _, k := range order {
			if k.id != "" {
				ids = append(ids, k.id)
			}
		}

		for start := 0; start < len(ids); start += batchSize {
			end := min(start+batchSize, len(ids))
			batch := ids[start:end]

			saved, err := check(ctx, batch)
			if err != nil {
				analysis.Warnings = append(analysis.Warnings,
					fmt.Sprintf("membership check for %d albums failed, treating as not saved: %v", len(batch), err))
				continue
			}
			for i, id := range batch {
				if i < len(saved) {
					inLibrary[id] = saved[i]
				}
			}
		}
	}

	for _, k := range order {
		members := groups[k]
		album := members[0].Track.Album
		if album.TotalTracks < cfg.MinTotalTracks {
			continue
		}

		sorted := make([]LikedEntry, len(members))
		copy(sorted, members)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].AddedAt.Before(sorted[j].AddedAt)
		})

		liked := len(sorted)
		percent := int(math.Round(100 * float64(liked) / float64(album.TotalTracks)))

		notable := percent > cfg.NotablePercent ||
			(liked > cfg.PartialLikedCount && percent > cfg.PartialPercent)

		analysis.Albums = append(analysis.Albums, AlbumStat{
			Album:      album,
			Artist:     sorted[0].Track.Artists[0],
			LikedCount: liked,
			Percent:    percent,
			InLibrary:  inLibrary[album.ID],
			Notable:    notable,
			Entries:    sorted,
		})
	}

	sort.SliceStable(analysis.Albums, func(i, j int) bool {
		return analysis.Albums[i].Percent > analysis.Albums[j].Percent
	})

	return analysis
}
