package library

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/jonjanego/spotify-library-curation/internal/analysis"
	"github.com/jonjanego/spotify-library-curation/internal/cache"
)

// Source is the capability the analysis handlers and the curation
// service require from the library collaborator.
type Source interface {
	// FetchAll returns the liked-track collection, served from the
	// snapshot cache when fresh.
	FetchAll(ctx context.Context) ([]analysis.LikedEntry, error)
	// Refresh refetches the collection unconditionally and replaces
	// the cached snapshot.
	Refresh(ctx context.Context) ([]analysis.LikedEntry, error)

	RemoveSavedTracks(ctx context.Context, trackIDs []string) error
	AddSavedAlbums(ctx context.Context, albumIDs []string) error
	CheckSavedAlbums(ctx context.Context, albumIDs []string) ([]bool, error)
	CreatePlaylist(ctx context.Context, name, description string, public bool) (string, error)
	EnsurePlaylistPrivate(ctx context.Context, playlistID string) error
	AddPlaylistTracks(ctx context.Context, playlistID string, trackIDs []string) error

	// InvalidateCache discards the snapshot; called after every
	// successful write mutation.
	InvalidateCache() error
}

// CachingSource serves the collection from a snapshot cache and
// delegates everything else to the API client.
type CachingSource struct {
	client *Client
	cache  *cache.SnapshotCache
	logger *log.Logger
}

var _ Source = (*CachingSource)(nil)

// NewSource wraps an authenticated client with the snapshot cache.
func NewSource(client *Client, snapshots *cache.SnapshotCache, logger *log.Logger) *CachingSource {
	return &CachingSource{
		client: client,
		cache:  snapshots,
		logger: logger,
	}
}

// FetchAll returns the cached snapshot when fresh, otherwise refetches.
// A stale snapshot and a missing one behave identically.
func (s *CachingSource) FetchAll(ctx context.Context) ([]analysis.LikedEntry, error) {
	if snap, ok := s.cache.Get(); ok {
		s.logger.Debug("serving liked tracks from snapshot", "tracks", len(snap.Entries), "fetched_at", snap.FetchedAt)
		return snap.Entries, nil
	}
	return s.Refresh(ctx)
}

// Refresh performs a full refetch and replaces the snapshot.
func (s *CachingSource) Refresh(ctx context.Context) ([]analysis.LikedEntry, error) {
	entries, err := s.client.FetchAllLiked(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Put(entries); err != nil {
		// A snapshot write failure only costs the next request a
		// refetch.
		s.logger.Warn("could not persist library snapshot", "err", err)
	}
	return entries, nil
}

func (s *CachingSource) RemoveSavedTracks(ctx context.Context, trackIDs []string) error {
	return s.client.RemoveSavedTracks(ctx, trackIDs)
}

func (s *CachingSource) AddSavedAlbums(ctx context.Context, albumIDs []string) error {
	return s.client.AddSavedAlbums(ctx, albumIDs)
}

func (s *CachingSource) CheckSavedAlbums(ctx context.Context, albumIDs []string) ([]bool, error) {
	return s.client.CheckSavedAlbums(ctx, albumIDs)
}

func (s *CachingSource) CreatePlaylist(ctx context.Context, name, description string, public bool) (string, error) {
	return s.client.CreatePlaylist(ctx, name, description, public)
}

func (s *CachingSource) EnsurePlaylistPrivate(ctx context.Context, playlistID string) error {
	return s.client.EnsurePlaylistPrivate(ctx, playlistID)
}

func (s *CachingSource) AddPlaylistTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	return s.client.AddPlaylistTracks(ctx, playlistID, trackIDs)
}

func (s *CachingSource) InvalidateCache() error {
	if err := s.cache.Invalidate(); err != nil {
		return fmt.Errorf("invalidating library snapshot: %w", err)
	}
	return nil
}
