package plex

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/cesargomez89/plexsage/internal/domain"
)

// CreatePlaylist creates an audio playlist from track rating keys. Keys that
// cannot be fetched are skipped and counted; if none remain no playlist is
// created and Success is false.
func (c *Client) CreatePlaylist(ctx context.Context, name string, ids []string) (domain.PlaylistResult, error) {
	var res domain.PlaylistResult

	machineID, err := c.Identity(ctx)
	if err != nil {
		return res, err
	}

	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		_, err := c.doRequest(ctx, http.MethodGet, "/library/metadata/"+url.PathEscape(id), nil)
		if err != nil {
			var se *StatusError
			if !errors.As(err, &se) {
				return res, fmt.Errorf("failed to fetch track %s: %w", id, err)
			}
			c.logger.Warn("Skipping track for playlist", "id", id, "status", se.StatusCode)
			res.SkippedCount++
			continue
		}
		valid = append(valid, id)
	}

	if res.SkippedCount > 0 {
		c.logger.Info("Playlist tracks skipped", "name", name, "skipped", res.SkippedCount, "requested", len(ids))
	}
	if len(valid) == 0 {
		return res, nil
	}

	q := url.Values{}
	q.Set("type", "audio")
	q.Set("title", name)
	q.Set("smart", "0")
	q.Set("uri", fmt.Sprintf("server://%s/com.plexapp.plugins.library/library/metadata/%s", machineID, strings.Join(valid, ",")))

	mc, err := c.doRequest(ctx, http.MethodPost, "/playlists", q)
	if err != nil {
		return res, fmt.Errorf("failed to create playlist: %w", err)
	}
	if len(mc.Metadata) == 0 {
		return res, fmt.Errorf("failed to create playlist: empty response")
	}

	playlistID := mc.Metadata[0].RatingKey
	res.Success = true
	res.ID = playlistID
	res.AddedCount = len(valid)
	res.URL = fmt.Sprintf("%s/web/index.html#!/server/%s/playlist?key=%s",
		c.baseURL, machineID, url.QueryEscape("/playlists/"+playlistID))
	return res, nil
}
