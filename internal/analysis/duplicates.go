package analysis

import "sort"

// GroupMember is one entry of a duplicate group, tagged with its
// position in the fetched collection.
type GroupMember struct {
	Position int        `json:"position"`
	Entry    LikedEntry `json:"entry"`
}

// DuplicateGroup is a set of liked entries sharing one normalization
// key. Groups always have at least two members and are recomputed fresh
// on every scan.
type DuplicateGroup struct {
	Key     string        `json:"key"`
	Members []GroupMember `json:"members"`
}

// FindDuplicates groups the collection by normalization key and returns
// the groups with more than one member. Members keep their source order
// within a group; groups are emitted in order of first occurrence, which
// is deterministic for a fixed input but otherwise not significant.
func FindDuplicates(entries []LikedEntry, includeAlbum bool) []DuplicateGroup {
	byKey := make(map[string][]GroupMember)
	var keyOrder []string

	for i, entry := range entries {
		k := Key(entry.Track, includeAlbum)
		if _, seen := byKey[k]; !seen {
			keyOrder = append(keyOrder, k)
		}
		byKey[k] = append(byKey[k], GroupMember{Position: i, Entry: entry})
	}

	var groups []DuplicateGroup
	for _, k := range keyOrder {
		members := byKey[k]
		if len(members) < 2 {
			continue
		}
		groups = append(groups, DuplicateGroup{Key: k, Members: members})
	}

	return groups
}

// RemovalPlan records the keep/remove split for one duplicate group.
type RemovalPlan struct {
	Key    string
	Keep   GroupMember
	Remove []GroupMember
}

// PlanRemovals decides, per group, which member survives: the one liked
// most recently. When timestamps are identical the member with the
// lowest fetch position wins, via a stable sort on timestamp descending.
func PlanRemovals(groups []DuplicateGroup) []RemovalPlan {
	plans := make([]RemovalPlan, 0, len(groups))
	for _, g := range groups {
		members := make([]GroupMember, len(g.Members))
		copy(members, g.Members)

		sort.SliceStable(members, func(i, j int) bool {
			return members[i].Entry.AddedAt.After(members[j].Entry.AddedAt)
		})

		plans = append(plans, RemovalPlan{
			Key:    g.Key,
			Keep:   members[0],
			Remove: members[1:],
		})
	}
	return plans
}
