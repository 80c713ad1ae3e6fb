package analysis

import (
	"sort"
	"time"
)

// YearBucket groups the liked entries added during one calendar year.
type YearBucket struct {
	Year    int          `json:"year"`
	Count   int          `json:"count"`
	Entries []LikedEntry `json:"entries"`
}

// ByYear partitions the collection by the calendar year each entry was
// liked, evaluated in loc (time.Local when nil). Buckets come back
// sorted by year descending, each bucket's entries sorted by timestamp
// ascending. Every entry lands in exactly one bucket.
func ByYear(entries []LikedEntry, loc *time.Location) []YearBucket {
	if loc == nil {
		loc = time.Local
	}

	byYear := make(map[int][]LikedEntry)
	for _, entry := range entries {
		year := entry.AddedAt.In(loc).Year()
		byYear[year] = append(byYear[year], entry)
	}

	buckets := make([]YearBucket, 0, len(byYear))
	for year, members := range byYear {
		sort.SliceStable(members, func(i, j int) bool {
			return members[i].AddedAt.Before(members[j].AddedAt)
		})
		buckets = append(buckets, YearBucket{
			Year:    year,
			Count:   len(members),
			Entries: members,
		})
	}

	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].Year > buckets[j].Year
	})

	return buckets
}
