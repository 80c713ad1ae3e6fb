package curation

import (
	"context"
	"testing"
	"time"

	"github.com/jonjanego/spotify-library-curation/internal/analysis"
)

func duplicateEntries(baseTime time.Time) []analysis.LikedEntry {
	return []analysis.LikedEntry{
		likedEntry("dup-old", "Song", "Artist", "alb", 10, baseTime),
		likedEntry("dup-mid", "Song", "Artist", "alb", 10, baseTime.Add(time.Hour)),
		likedEntry("dup-new", "Song", "Artist", "alb", 10, baseTime.Add(2*time.Hour)),
		likedEntry("solo", "Other", "Artist", "alb", 10, baseTime),
	}
}

func TestRemoveDuplicatesKeepsNewest(t *testing.T) {
	baseTime := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	source := newFakeSource(duplicateEntries(baseTime))
	svc := NewService(source, WithSleep(noSleep))

	result, err := svc.RemoveDuplicates(context.Background())
	if err != nil {
		t.Fatalf("RemoveDuplicates() error: %v", err)
	}

	if !result.Success {
		t.Errorf("Success = false, errors: %v", result.Errors)
	}
	if result.TotalDuplicates != 2 || result.RemovedCount != 2 {
		t.Errorf("got total=%d removed=%d, want 2/2", result.TotalDuplicates, result.RemovedCount)
	}

	removed := make(map[string]bool)
	for _, call := range source.removeCalls {
		for _, id := range call {
			removed[id] = true
		}
	}
	if !removed["dup-old"] || !removed["dup-mid"] {
		t.Errorf("older duplicates not removed: %v", removed)
	}
	if removed["dup-new"] || removed["solo"] {
		t.Errorf("kept tracks were removed: %v", removed)
	}

	if source.invalidated != 1 {
		t.Errorf("cache invalidated %d times, want 1", source.invalidated)
	}
}

func TestRemoveDuplicatesBatches(t *testing.T) {
	baseTime := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	// Five copies: four removals, batch size two -> two full
	// batches plus a remainder.
	var entries []analysis.LikedEntry
	for i := 0; i < 5; i++ {
		id := string(rune('a' + i))
		entries = append(entries, likedEntry(id, "Song", "Artist", "alb", 10, baseTime.Add(time.Duration(i)*time.Minute)))
	}

	source := newFakeSource(entries)
	svc := NewService(source, WithSleep(noSleep), WithBatchSizes(2, 100))

	result, err := svc.RemoveDuplicates(context.Background())
	if err != nil {
		t.Fatalf("RemoveDuplicates() error: %v", err)
	}
	if result.RemovedCount != 4 {
		t.Errorf("RemovedCount = %d, want 4", result.RemovedCount)
	}
	if len(source.removeCalls) != 2 {
		t.Errorf("got %d remove calls, want 2", len(source.removeCalls))
	}
	for i, call := range source.removeCalls {
		if len(call) > 2 {
			t.Errorf("call %d carried %d tracks, batch limit is 2", i, len(call))
		}
	}
}

func TestRemoveDuplicatesFailedBatchIsSkipped(t *testing.T) {
	baseTime := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	var entries []analysis.LikedEntry
	for i := 0; i < 5; i++ {
		id := string(rune('a' + i))
		entries = append(entries, likedEntry(id, "Song", "Artist", "alb", 10, baseTime.Add(time.Duration(i)*time.Minute)))
	}

	source := newFakeSource(entries)
	source.removeErrs[0] = errRemote

	svc := NewService(source, WithSleep(noSleep), WithBatchSizes(2, 100))
	result, err := svc.RemoveDuplicates(context.Background())
	if err != nil {
		t.Fatalf("RemoveDuplicates() error: %v", err)
	}

	if result.Success {
		t.Error("Success = true despite a failed batch")
	}
	if result.RemovedCount != 2 {
		t.Errorf("RemovedCount = %d, want 2", result.RemovedCount)
	}
	if len(result.Errors) != 1 {
		t.Errorf("got %d errors, want 1: %v", len(result.Errors), result.Errors)
	}
	// The second batch still ran.
	if len(source.removeCalls) != 2 {
		t.Errorf("got %d remove calls, want 2", len(source.removeCalls))
	}
}

func TestRemoveDuplicatesIdempotent(t *testing.T) {
	baseTime := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	source := newFakeSource(duplicateEntries(baseTime))
	svc := NewService(source, WithSleep(noSleep))

	if _, err := svc.RemoveDuplicates(context.Background()); err != nil {
		t.Fatalf("first run error: %v", err)
	}

	second, err := svc.RemoveDuplicates(context.Background())
	if err != nil {
		t.Fatalf("second run error: %v", err)
	}
	if second.TotalDuplicates != 0 || second.RemovedCount != 0 {
		t.Errorf("second run found %d duplicates, want 0", second.TotalDuplicates)
	}
	if !second.Success {
		t.Errorf("second run Success = false: %v", second.Errors)
	}
}

func TestRemoveDuplicatesNoDuplicatesNoInvalidation(t *testing.T) {
	baseTime := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	source := newFakeSource([]analysis.LikedEntry{
		likedEntry("1", "One", "A", "alb", 10, baseTime),
		likedEntry("2", "Two", "A", "alb", 10, baseTime),
	})
	svc := NewService(source, WithSleep(noSleep))

	result, err := svc.RemoveDuplicates(context.Background())
	if err != nil {
		t.Fatalf("RemoveDuplicates() error: %v", err)
	}
	if result.RemovedCount != 0 {
		t.Errorf("RemovedCount = %d, want 0", result.RemovedCount)
	}
	if source.invalidated != 0 {
		t.Errorf("cache invalidated with nothing removed")
	}
}
