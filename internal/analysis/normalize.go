package analysis

import (
	"fmt"
	"sort"
	"strings"
)

// keyDelimiter separates the segments of a normalization key. It never
// occurs in Spotify track or album titles' meaningful positions, and a
// collision would only merge two already near-identical records.
const keyDelimiter = "|"

// Key computes the comparison key used for duplicate detection.
//
// The title is lower-cased and trimmed. Artist names are lower-cased,
// trimmed, and sorted lexicographically before joining, so the order
// artists appear in the source record never affects equality. When
// includeAlbum is true (strict mode, the duplicate-scan default) the
// lower-cased album title is appended as a third segment; this keeps a
// live take or remaster from matching the studio recording. Loose mode
// omits the album and matches every version of a song.
//
// Key panics on a track with no title or no artists: such records are
// rejected at the library boundary, so reaching here with one is a
// programming error.
func Key(t Track, includeAlbum bool) string {
	if t.Title == "" || len(t.Artists) == 0 {
		panic(fmt.Sprintf("analysis.Key: unvalidated track %q", t.ID))
	}

	artists := make([]string, len(t.Artists))
	for i, a := range t.Artists {
		artists[i] = strings.ToLower(strings.TrimSpace(a))
	}
	sort.Strings(artists)

	segments := []string{
		strings.ToLower(strings.TrimSpace(t.Title)),
		strings.Join(artists, ","),
	}
	if includeAlbum {
		segments = append(segments, strings.ToLower(strings.TrimSpace(t.Album.Title)))
	}

	return strings.Join(segments, keyDelimiter)
}
