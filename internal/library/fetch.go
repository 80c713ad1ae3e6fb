package library

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zmb3/spotify/v2"

	"github.com/jonjanego/spotify-library-curation/internal/analysis"
)

// pageSize is the maximum liked-tracks page Spotify serves.
const pageSize = 50

// FetchAllLiked retrieves the user's full liked-track collection,
// page by page. Transient page failures are retried with exponential
// backoff; if retries exhaust after at least one page succeeded, the
// partial collection is returned rather than an error. Authorization
// rejections surface immediately as ErrReauthRequired.
func (c *Client) FetchAllLiked(ctx context.Context) ([]analysis.LikedEntry, error) {
	var entries []analysis.LikedEntry

	page, err := c.retryPage(ctx, func() (*spotify.SavedTrackPage, error) {
		p, err := c.api.CurrentUsersTracks(ctx, spotify.Limit(pageSize))
		return p, err
	})
	if err != nil {
		if isAuthError(err) {
			return nil, ErrReauthRequired
		}
		return nil, fmt.Errorf("fetching liked tracks: %w", err)
	}

	for {
		for _, saved := range page.Tracks {
			entry, err := convertSavedTrack(saved)
			if err != nil {
				c.logger.Warn("skipping malformed track record", "err", err)
				continue
			}
			entries = append(entries, entry)
		}

		c.logger.Debug("fetched liked tracks page", "total", len(entries))

		_, err = c.retryPage(ctx, func() (*spotify.SavedTrackPage, error) {
			return page, c.api.NextPage(ctx, page)
		})
		if errors.Is(err, spotify.ErrNoMorePages) {
			break
		}
		if err != nil {
			if isAuthError(err) {
				return nil, ErrReauthRequired
			}
			// At least one page made it; hand back what we have.
			c.logger.Warn("liked-tracks fetch incomplete, returning partial collection",
				"fetched", len(entries), "err", err)
			return entries, nil
		}
	}

	c.logger.Info("fetched liked tracks", "total", len(entries))
	return entries, nil
}

// retryPage runs one page fetch with backoff. Authorization errors and
// pagination-end are returned without retrying.
func (c *Client) retryPage(ctx context.Context, fetch func() (*spotify.SavedTrackPage, error)) (*spotify.SavedTrackPage, error) {
	var lastErr error
	for attempt := 1; attempt <= c.fetchAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		page, err := fetch()
		if err == nil {
			return page, nil
		}
		if errors.Is(err, spotify.ErrNoMorePages) || isAuthError(err) {
			return nil, err
		}

		lastErr = err
		if attempt < c.fetchAttempts {
			delay := c.backoff(attempt)
			c.logger.Warn("page fetch failed, retrying", "attempt", attempt, "delay", delay, "err", err)
			c.sleep(delay)
		}
	}
	return nil, lastErr
}

// convertSavedTrack maps a Spotify saved-track record onto the analysis
// value types, validating at the boundary so the core never sees a
// malformed record.
func convertSavedTrack(saved spotify.SavedTrack) (analysis.LikedEntry, error) {
	artists := make([]string, len(saved.Artists))
	for i, a := range saved.Artists {
		artists[i] = a.Name
	}

	// Zero value on parse failure; such entries sort oldest.
	addedAt, _ := time.Parse(time.RFC3339, saved.AddedAt)

	track := analysis.Track{
		ID:      saved.ID.String(),
		Title:   saved.Name,
		Artists: artists,
		Album: analysis.Album{
			ID:          saved.Album.ID.String(),
			Title:       saved.Album.Name,
			TotalTracks: int(saved.Album.TotalTracks),
		},
		URI: string(saved.URI),
	}
	if err := track.Validate(); err != nil {
		return analysis.LikedEntry{}, err
	}

	return analysis.LikedEntry{Track: track, AddedAt: addedAt}, nil
}
