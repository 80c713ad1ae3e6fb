package library

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/zmb3/spotify/v2"
)

// RemoveSavedTracks removes the given tracks from the user's liked
// collection. Callers batch; one call here is one remote request.
func (c *Client) RemoveSavedTracks(ctx context.Context, trackIDs []string) error {
	if len(trackIDs) == 0 {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	if err := c.api.RemoveTracksFromLibrary(ctx, toSpotifyIDs(trackIDs)...); err != nil {
		if isAuthError(err) {
			return ErrReauthRequired
		}
		return fmt.Errorf("removing saved tracks: %w", err)
	}
	return nil
}

// AddSavedAlbums saves the given albums to the user's library. The
// spotify package does not wrap this endpoint, so the call goes through
// the raw authorized HTTP client.
func (c *Client) AddSavedAlbums(ctx context.Context, albumIDs []string) error {
	if len(albumIDs) == 0 {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/me/albums?ids=%s", apiBaseURL, url.QueryEscape(strings.Join(albumIDs, ",")))
	if err := c.doJSON(ctx, http.MethodPut, endpoint, nil); err != nil {
		return fmt.Errorf("saving albums: %w", err)
	}
	return nil
}

// CheckSavedAlbums reports, positionally, whether each album is already
// saved in the user's library.
func (c *Client) CheckSavedAlbums(ctx context.Context, albumIDs []string) ([]bool, error) {
	if len(albumIDs) == 0 {
		return nil, nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/me/albums/contains?ids=%s", apiBaseURL, url.QueryEscape(strings.Join(albumIDs, ",")))

	var saved []bool
	if err := c.doJSON(ctx, http.MethodGet, endpoint, &saved); err != nil {
		return nil, fmt.Errorf("checking saved albums: %w", err)
	}
	if len(saved) != len(albumIDs) {
		return nil, fmt.Errorf("checking saved albums: got %d results for %d albums", len(saved), len(albumIDs))
	}
	return saved, nil
}

// CreatePlaylist creates a playlist for the current user and returns
// its ID.
func (c *Client) CreatePlaylist(ctx context.Context, name, description string, public bool) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}
	user, err := c.api.CurrentUser(ctx)
	if err != nil {
		if isAuthError(err) {
			return "", ErrReauthRequired
		}
		return "", fmt.Errorf("getting current user: %w", err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}
	playlist, err := c.api.CreatePlaylistForUser(ctx, user.ID, name, description, public, false)
	if err != nil {
		if isAuthError(err) {
			return "", ErrReauthRequired
		}
		return "", fmt.Errorf("creating playlist: %w", err)
	}
	return playlist.ID.String(), nil
}

// EnsurePlaylistPrivate re-asserts that a playlist is private. Newly
// created playlists are not reliably private even when requested so,
// hence the explicit follow-up call.
func (c *Client) EnsurePlaylistPrivate(ctx context.Context, playlistID string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	if err := c.api.ChangePlaylistAccess(ctx, spotify.ID(playlistID), false); err != nil {
		if isAuthError(err) {
			return ErrReauthRequired
		}
		return fmt.Errorf("making playlist private: %w", err)
	}
	return nil
}

// AddPlaylistTracks appends tracks to a playlist. Callers batch; one
// call here is one remote request.
func (c *Client) AddPlaylistTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	if len(trackIDs) == 0 {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	if _, err := c.api.AddTracksToPlaylist(ctx, spotify.ID(playlistID), toSpotifyIDs(trackIDs)...); err != nil {
		if isAuthError(err) {
			return ErrReauthRequired
		}
		return fmt.Errorf("adding playlist tracks: %w", err)
	}
	return nil
}

// doJSON issues a request with the authorized HTTP client and decodes a
// JSON response body into out when out is non-nil.
func (c *Client) doJSON(ctx context.Context, method, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return ErrReauthRequired
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("spotify returned %s", resp.Status)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

// toSpotifyIDs converts plain string IDs to the spotify package's ID
// type.
func toSpotifyIDs(ids []string) []spotify.ID {
	out := make([]spotify.ID, len(ids))
	for i, id := range ids {
		out[i] = spotify.ID(id)
	}
	return out
}
