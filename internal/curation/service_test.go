package curation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonjanego/spotify-library-curation/internal/analysis"
	"github.com/jonjanego/spotify-library-curation/internal/library"
)

// fakeSource is an in-memory library.Source. Mutations apply to the
// entry list so consecutive operations observe each other's effects.
type fakeSource struct {
	entries []analysis.LikedEntry

	fetchErr   error
	removeErrs map[int]error // keyed by remove-call index
	addErr     error
	checkErr   error
	createErr  error
	appendErrs []error // consumed one per append call

	saved map[string]bool // album ID -> in library

	removeCalls  [][]string
	addCalls     [][]string
	checkCalls   [][]string
	created      []string
	privacyCalls []string
	appendCalls  map[string][][]string
	invalidated  int
}

var _ library.Source = (*fakeSource)(nil)

func newFakeSource(entries []analysis.LikedEntry) *fakeSource {
	return &fakeSource{
		entries:     entries,
		saved:       make(map[string]bool),
		removeErrs:  make(map[int]error),
		appendCalls: make(map[string][][]string),
	}
}

func (f *fakeSource) FetchAll(_ context.Context) ([]analysis.LikedEntry, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	out := make([]analysis.LikedEntry, len(f.entries))
	copy(out, f.entries)
	return out, nil
}

func (f *fakeSource) Refresh(ctx context.Context) ([]analysis.LikedEntry, error) {
	return f.FetchAll(ctx)
}

func (f *fakeSource) RemoveSavedTracks(_ context.Context, trackIDs []string) error {
	call := len(f.removeCalls)
	f.removeCalls = append(f.removeCalls, trackIDs)
	if err := f.removeErrs[call]; err != nil {
		return err
	}

	gone := make(map[string]bool, len(trackIDs))
	for _, id := range trackIDs {
		gone[id] = true
	}
	var kept []analysis.LikedEntry
	for _, entry := range f.entries {
		if !gone[entry.Track.ID] {
			kept = append(kept, entry)
		}
	}
	f.entries = kept
	return nil
}

func (f *fakeSource) AddSavedAlbums(_ context.Context, albumIDs []string) error {
	f.addCalls = append(f.addCalls, albumIDs)
	if f.addErr != nil {
		return f.addErr
	}
	for _, id := range albumIDs {
		f.saved[id] = true
	}
	return nil
}

func (f *fakeSource) CheckSavedAlbums(_ context.Context, albumIDs []string) ([]bool, error) {
	f.checkCalls = append(f.checkCalls, albumIDs)
	if f.checkErr != nil {
		return nil, f.checkErr
	}
	out := make([]bool, len(albumIDs))
	for i, id := range albumIDs {
		out[i] = f.saved[id]
	}
	return out, nil
}

func (f *fakeSource) CreatePlaylist(_ context.Context, name, _ string, _ bool) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	id := fmt.Sprintf("playlist-%d", len(f.created))
	f.created = append(f.created, name)
	return id, nil
}

func (f *fakeSource) EnsurePlaylistPrivate(_ context.Context, playlistID string) error {
	f.privacyCalls = append(f.privacyCalls, playlistID)
	return nil
}

func (f *fakeSource) AddPlaylistTracks(_ context.Context, playlistID string, trackIDs []string) error {
	if len(f.appendErrs) > 0 {
		err := f.appendErrs[0]
		f.appendErrs = f.appendErrs[1:]
		if err != nil {
			return err
		}
	}
	f.appendCalls[playlistID] = append(f.appendCalls[playlistID], trackIDs)
	return nil
}

func (f *fakeSource) InvalidateCache() error {
	f.invalidated++
	return nil
}

func likedEntry(id, title, artist, albumID string, totalTracks int, added time.Time) analysis.LikedEntry {
	return analysis.LikedEntry{
		Track: analysis.Track{
			ID:      id,
			Title:   title,
			Artists: []string{artist},
			Album:   analysis.Album{ID: albumID, Title: "Album " + albumID, TotalTracks: totalTracks},
			URI:     "spotify:track:" + id,
		},
		AddedAt: added,
	}
}

func noSleep(time.Duration) {}

var errRemote = errors.New("remote call failed")
