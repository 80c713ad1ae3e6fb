package analysis

import (
	"testing"
	"time"
)

func entry(id, title, artist, album string, added time.Time) LikedEntry {
	return LikedEntry{
		Track: Track{
			ID:      id,
			Title:   title,
			Artists: []string{artist},
			Album:   Album{ID: album + "-id", Title: album, TotalTracks: 10},
			URI:     "spotify:track:" + id,
		},
		AddedAt: added,
	}
}

func TestFindDuplicates(t *testing.T) {
	baseTime := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		entries      []LikedEntry
		includeAlbum bool
		wantGroups   int
		wantSizes    []int
	}{
		{
			name:         "empty input",
			entries:      nil,
			includeAlbum: true,
			wantGroups:   0,
		},
		{
			name: "no duplicates",
			entries: []LikedEntry{
				entry("1", "One", "A", "X", baseTime),
				entry("2", "Two", "A", "X", baseTime),
			},
			includeAlbum: true,
			wantGroups:   0,
		},
		{
			name: "case and whitespace variants collapse",
			entries: []LikedEntry{
				entry("1", "Song", "Artist", "Z", baseTime),
				entry("2", "  song ", " ARTIST", "z", baseTime.Add(time.Hour)),
			},
			includeAlbum: true,
			wantGroups:   1,
			wantSizes:    []int{2},
		},
		{
			name: "strict mode separates albums",
			entries: []LikedEntry{
				entry("1", "Song", "Artist", "Studio", baseTime),
				entry("2", "Song", "Artist", "Live", baseTime.Add(time.Hour)),
			},
			includeAlbum: true,
			wantGroups:   0,
		},
		{
			name: "loose mode merges across albums",
			entries: []LikedEntry{
				entry("1", "Song", "Artist", "Studio", baseTime),
				entry("2", "Song", "Artist", "Live", baseTime.Add(time.Hour)),
			},
			includeAlbum: false,
			wantGroups:   1,
			wantSizes:    []int{2},
		},
		{
			name: "two independent groups",
			entries: []LikedEntry{
				entry("1", "Alpha", "A", "X", baseTime),
				entry("2", "Beta", "B", "Y", baseTime),
				entry("3", "Alpha", "A", "X", baseTime.Add(time.Hour)),
				entry("4", "Beta", "B", "Y", baseTime.Add(2 * time.Hour)),
				entry("5", "Gamma", "C", "Z", baseTime),
			},
			includeAlbum: true,
			wantGroups:   2,
			wantSizes:    []int{2, 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			groups := FindDuplicates(tt.entries, tt.includeAlbum)
			if len(groups) != tt.wantGroups {
				t.Fatalf("got %d groups, want %d", len(groups), tt.wantGroups)
			}
			for i, g := range groups {
				if len(g.Members) != tt.wantSizes[i] {
					t.Errorf("group %d has %d members, want %d", i, len(g.Members), tt.wantSizes[i])
				}
				for _, m := range g.Members {
					if got := Key(m.Entry.Track, tt.includeAlbum); got != g.Key {
						t.Errorf("member %s key = %q, want group key %q", m.Entry.Track.ID, got, g.Key)
					}
				}
			}
		})
	}
}

// Groups must be disjoint and exhaustive: every entry with a same-key
// sibling appears in exactly one group, singletons never appear.
func TestFindDuplicatesPartition(t *testing.T) {
	baseTime := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	entries := []LikedEntry{
		entry("1", "Alpha", "A", "X", baseTime),
		entry("2", "Alpha", "A", "X", baseTime.Add(time.Minute)),
		entry("3", "Alpha", "A", "X", baseTime.Add(2 * time.Minute)),
		entry("4", "Beta", "B", "Y", baseTime),
		entry("5", "Beta", "B", "Y", baseTime),
		entry("6", "Solo", "C", "Z", baseTime),
	}

	groups := FindDuplicates(entries, true)

	seen := make(map[int]bool)
	for _, g := range groups {
		for _, m := range g.Members {
			if seen[m.Position] {
				t.Errorf("position %d appears in more than one group", m.Position)
			}
			seen[m.Position] = true
		}
	}

	// Entries 1-5 have siblings, entry 6 does not.
	for pos := 0; pos < 5; pos++ {
		if !seen[pos] {
			t.Errorf("position %d has a duplicate but is in no group", pos)
		}
	}
	if seen[5] {
		t.Error("singleton entry appeared in a group")
	}
}

// Loose keys coarsen strict keys: every strict-mode group must sit
// entirely inside some loose-mode group.
func TestLooseCoarsensStrict(t *testing.T) {
	baseTime := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	entries := []LikedEntry{
		entry("1", "Song", "Artist", "Studio", baseTime),
		entry("2", "Song", "Artist", "Studio", baseTime.Add(time.Minute)),
		entry("3", "Song", "Artist", "Live", baseTime.Add(2 * time.Minute)),
		entry("4", "Other", "Artist", "Studio", baseTime),
		entry("5", "Other", "Artist", "Studio", baseTime),
	}

	strict := FindDuplicates(entries, true)
	loose := FindDuplicates(entries, false)

	looseByPos := make(map[int]string)
	for _, g := range loose {
		for _, m := range g.Members {
			looseByPos[m.Position] = g.Key
		}
	}

	for _, g := range strict {
		var parent string
		for i, m := range g.Members {
			lk, ok := looseByPos[m.Position]
			if !ok {
				t.Fatalf("strict member at position %d missing from loose groups", m.Position)
			}
			if i == 0 {
				parent = lk
			} else if lk != parent {
				t.Errorf("strict group %q split across loose groups %q and %q", g.Key, parent, lk)
			}
		}
	}
}

func TestPlanRemovals(t *testing.T) {
	baseTime := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("keeps most recent", func(t *testing.T) {
		entries := []LikedEntry{
			entry("old", "Song", "Artist", "X", baseTime),
			entry("new", "Song", "Artist", "X", baseTime.Add(time.Hour)),
			entry("mid", "Song", "Artist", "X", baseTime.Add(time.Minute)),
		}
		plans := PlanRemovals(FindDuplicates(entries, true))
		if len(plans) != 1 {
			t.Fatalf("got %d plans, want 1", len(plans))
		}
		if got := plans[0].Keep.Entry.Track.ID; got != "new" {
			t.Errorf("kept %q, want \"new\"", got)
		}
		if len(plans[0].Remove) != 2 {
			t.Errorf("got %d removals, want 2", len(plans[0].Remove))
		}
		for _, m := range plans[0].Remove {
			if m.Entry.AddedAt.After(plans[0].Keep.Entry.AddedAt) {
				t.Errorf("removed member %s is newer than kept member", m.Entry.Track.ID)
			}
		}
	})

	t.Run("identical timestamps keep earliest fetch position", func(t *testing.T) {
		entries := []LikedEntry{
			entry("first", "Song", "Artist", "X", baseTime),
			entry("second", "Song", "Artist", "X", baseTime),
		}
		plans := PlanRemovals(FindDuplicates(entries, true))
		if len(plans) != 1 {
			t.Fatalf("got %d plans, want 1", len(plans))
		}
		if got := plans[0].Keep.Entry.Track.ID; got != "first" {
			t.Errorf("kept %q, want \"first\"", got)
		}
	})
}
