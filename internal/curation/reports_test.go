package curation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonjanego/spotify-library-curation/internal/analysis"
)

func TestDuplicatesReportModes(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	// Same track on two albums: a loose duplicate but not a strict one.
	entries := []analysis.LikedEntry{
		likedEntry("t1", "Song", "Artist", "album1", 10, base),
		likedEntry("t2", "Song", "Artist", "album2", 12, base.Add(time.Hour)),
		likedEntry("t3", "Other", "Artist", "album1", 10, base),
	}

	svc := NewService(newFakeSource(entries))

	strict, err := svc.Duplicates(context.Background(), true)
	if err != nil {
		t.Fatalf("Duplicates(strict) error = %v", err)
	}
	if strict.Mode != "strict" {
		t.Errorf("Mode = %q, want %q", strict.Mode, "strict")
	}
	if strict.GroupCount != 0 {
		t.Errorf("strict GroupCount = %d, want 0", strict.GroupCount)
	}
	if strict.TotalTracks != 3 {
		t.Errorf("TotalTracks = %d, want 3", strict.TotalTracks)
	}

	loose, err := svc.Duplicates(context.Background(), false)
	if err != nil {
		t.Fatalf("Duplicates(loose) error = %v", err)
	}
	if loose.Mode != "loose" {
		t.Errorf("Mode = %q, want %q", loose.Mode, "loose")
	}
	if loose.GroupCount != 1 {
		t.Errorf("loose GroupCount = %d, want 1", loose.GroupCount)
	}
	if loose.Extras != 1 {
		t.Errorf("Extras = %d, want 1", loose.Extras)
	}
}

func TestDuplicatesReportFetchError(t *testing.T) {
	source := newFakeSource(nil)
	source.fetchErr = errRemote

	svc := NewService(source)

	if _, err := svc.Duplicates(context.Background(), true); !errors.Is(err, errRemote) {
		t.Errorf("Duplicates() error = %v, want %v", err, errRemote)
	}
}

func TestAlbumsReportCountsNotable(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	// album1: 8 of 10 liked, notable. album2: 1 of 12 liked, not.
	var entries []analysis.LikedEntry
	for i := 0; i < 8; i++ {
		entries = append(entries, likedEntry(
			"a1-"+string(rune('a'+i)), "Track "+string(rune('A'+i)), "Artist", "album1", 10, base))
	}
	entries = append(entries, likedEntry("a2-a", "Lone Track", "Artist", "album2", 12, base))

	source := newFakeSource(entries)
	source.saved["album1"] = true

	svc := NewService(source)

	report, err := svc.Albums(context.Background())
	if err != nil {
		t.Fatalf("Albums() error = %v", err)
	}

	if report.NotableCount != 1 {
		t.Errorf("NotableCount = %d, want 1", report.NotableCount)
	}
	if len(report.Albums) != 2 {
		t.Fatalf("len(Albums) = %d, want 2", len(report.Albums))
	}
	if !report.Albums[0].Notable || report.Albums[0].Album.ID != "album1" {
		t.Errorf("expected album1 first and notable, got %+v", report.Albums[0])
	}
	if !report.Albums[0].InLibrary {
		t.Error("expected album1 to be reported as in library")
	}
}

func TestYearsReport(t *testing.T) {
	entries := []analysis.LikedEntry{
		likedEntry("t1", "One", "Artist", "album1", 10, time.Date(2022, 5, 1, 0, 0, 0, 0, time.UTC)),
		likedEntry("t2", "Two", "Artist", "album1", 10, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		likedEntry("t3", "Three", "Artist", "album2", 8, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)),
	}

	svc := NewService(newFakeSource(entries), WithLocation(time.UTC))

	report, err := svc.Years(context.Background())
	if err != nil {
		t.Fatalf("Years() error = %v", err)
	}

	if report.TotalTracks != 3 {
		t.Errorf("TotalTracks = %d, want 3", report.TotalTracks)
	}
	if len(report.Years) != 2 {
		t.Fatalf("len(Years) = %d, want 2", len(report.Years))
	}
	if report.Years[0].Year != 2024 || report.Years[0].Count != 2 {
		t.Errorf("Years[0] = %+v, want year 2024 with 2 tracks", report.Years[0])
	}
}

func TestRefreshReportsCount(t *testing.T) {
	entries := []analysis.LikedEntry{
		likedEntry("t1", "One", "Artist", "album1", 10, time.Now()),
		likedEntry("t2", "Two", "Artist", "album1", 10, time.Now()),
	}

	svc := NewService(newFakeSource(entries))

	result, err := svc.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if result.TotalTracks != 2 {
		t.Errorf("TotalTracks = %d, want 2", result.TotalTracks)
	}
	if result.FetchedAt.IsZero() {
		t.Error("expected FetchedAt to be set")
	}
}
