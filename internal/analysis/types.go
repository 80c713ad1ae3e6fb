// Package analysis implements the library analysis core: duplicate
// detection, album completeness statistics, and year bucketing over the
// user's liked-track collection.
package analysis

import (
	"errors"
	"fmt"
	"time"
)

// Album identifies the release a track belongs to.
type Album struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	TotalTracks int    `json:"total_tracks"`
}

// Track is an immutable view of a liked track. Instances are built and
// validated at the library boundary; the analysis core only reads them.
type Track struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Artists []string `json:"artists"`
	Album   Album    `json:"album"`
	URI     string   `json:"uri"`
}

// LikedEntry pairs a track with the instant the user liked it.
// Source order is not meaningful; timestamp ordering drives tie-breaks.
type LikedEntry struct {
	Track   Track     `json:"track"`
	AddedAt time.Time `json:"added_at"`
}

// Validation errors for track records.
var (
	ErrMissingID      = errors.New("track has no ID")
	ErrMissingTitle   = errors.New("track has no title")
	ErrMissingArtists = errors.New("track has no artists")
)

// Validate reports whether the track satisfies the invariants the
// analysis core depends on. The library boundary rejects tracks that
// fail validation before they ever reach an analysis function.
func (t Track) Validate() error {
	if t.ID == "" {
		return ErrMissingID
	}
	if t.Title == "" {
		return fmt.Errorf("%w: track %s", ErrMissingTitle, t.ID)
	}
	if len(t.Artists) == 0 {
		return fmt.Errorf("%w: track %s", ErrMissingArtists, t.ID)
	}
	return nil
}
