// Package plex implements the media source over the Plex HTTP API.
package plex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/cesargomez89/plexsage/internal/constants"
	"github.com/cesargomez89/plexsage/internal/domain"
	"github.com/cesargomez89/plexsage/internal/httpclient"
	"github.com/cesargomez89/plexsage/internal/logger"
)

var ErrLibraryNotFound = errors.New("music library not found")

// StatusError is returned for non-2xx Plex responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.StatusCode == http.StatusUnauthorized {
		return "plex rejected the token (status 401)"
	}
	return fmt.Sprintf("plex returned status %d", e.StatusCode)
}

// Client talks to one Plex server and one music library on it.
type Client struct {
	baseURL string
	token   string
	library string
	http    *httpclient.Client
	logger  *logger.Logger

	mu         sync.Mutex
	sectionKey string
}

func NewClient(baseURL, token, library string, log *logger.Logger, opts ...httpclient.Option) *Client {
	if log == nil {
		log = logger.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		library: library,
		http:    httpclient.NewClient(nil, 0, opts...),
		logger:  log.WithComponent("plex"),
	}
}

// doRequest performs an authenticated request and decodes the MediaContainer.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values) (*MediaContainer, error) {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", constants.MimeTypeJSON)
	req.Header.Set(constants.PlexHeaderToken, c.token)
	req.Header.Set(constants.PlexHeaderClientID, constants.PlexClientID)
	req.Header.Set(constants.PlexHeaderProduct, constants.PlexProduct)

	c.logger.Debug("plex request", "method", method, "path", path)

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close() //nolint:errcheck // deferred cleanup

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("plex request error", "status", resp.StatusCode, "path", path)
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if len(body) == 0 {
		return &MediaContainer{}, nil
	}

	var parsed APIResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &parsed.MediaContainer, nil
}

// Identity returns the server's machine identifier.
func (c *Client) Identity(ctx context.Context) (string, error) {
	mc, err := c.doRequest(ctx, http.MethodGet, "/identity", nil)
	if err != nil {
		return "", err
	}
	return mc.MachineIdentifier, nil
}

// section resolves and caches the key of the configured music library.
func (c *Client) section(ctx context.Context) (string, error) {
	c.mu.Lock()
	key := c.sectionKey
	c.mu.Unlock()
	if key != "" {
		return key, nil
	}

	mc, err := c.doRequest(ctx, http.MethodGet, "/library/sections", nil)
	if err != nil {
		return "", err
	}
	for _, d := range mc.Directory {
		if d.Type == "artist" && strings.EqualFold(d.Title, c.library) {
			c.mu.Lock()
			c.sectionKey = d.Key
			c.mu.Unlock()
			return d.Key, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrLibraryNotFound, c.library)
}

// fetchAll pages through a section listing. A positive limit fetches a
// single page of that size.
func (c *Client) fetchAll(ctx context.Context, query url.Values, limit int) ([]Metadata, error) {
	key, err := c.section(ctx)
	if err != nil {
		return nil, err
	}
	path := fmt.Sprintf("/library/sections/%s/all", key)

	pageSize := constants.PlexPageSize
	if limit > 0 {
		pageSize = limit
	}

	var all []Metadata
	for start := 0; ; start += pageSize {
		q := url.Values{}
		for k, v := range query {
			q[k] = v
		}
		q.Set(constants.PlexHeaderPageStart, strconv.Itoa(start))
		q.Set(constants.PlexHeaderPageSize, strconv.Itoa(pageSize))

		mc, err := c.doRequest(ctx, http.MethodGet, path, q)
		if err != nil {
			return nil, err
		}
		all = append(all, mc.Metadata...)

		if limit > 0 || len(mc.Metadata) < pageSize {
			break
		}
		if mc.TotalSize > 0 && len(all) >= mc.TotalSize {
			break
		}
	}
	return all, nil
}

// AllGroups returns album metadata keyed by album rating key.
func (c *Client) AllGroups(ctx context.Context) (map[string]domain.GroupMeta, error) {
	q := url.Values{}
	q.Set("type", strconv.Itoa(constants.PlexTypeAlbum))
	albums, err := c.fetchAll(ctx, q, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list albums: %w", err)
	}
	return MapGroups(albums), nil
}

// AllEntries returns every track in the library.
func (c *Client) AllEntries(ctx context.Context) ([]domain.RawEntry, error) {
	q := url.Values{}
	q.Set("type", strconv.Itoa(constants.PlexTypeTrack))
	tracks, err := c.fetchAll(ctx, q, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracks: %w", err)
	}
	return MapEntries(tracks), nil
}

// Search runs a filtered track listing. Genre names are resolved to Plex
// genre keys; names the library does not know match nothing.
func (c *Client) Search(ctx context.Context, sq domain.SearchQuery) ([]domain.RawEntry, error) {
	q := url.Values{}
	q.Set("type", strconv.Itoa(constants.PlexTypeTrack))

	if len(sq.Genres) > 0 {
		keys, err := c.genreKeys(ctx, sq.Genres)
		if err != nil {
			return nil, err
		}
		if len(keys) == 0 {
			return nil, nil
		}
		q.Set("genre", strings.Join(keys, ","))
	}

	if len(sq.Decades) > 0 {
		decades := make([]string, 0, len(sq.Decades))
		for _, d := range sq.Decades {
			decades = append(decades, strconv.Itoa(d))
		}
		q.Set("decade", strings.Join(decades, ","))
	}

	if sq.MinRating > 0 {
		q.Set("userRating>>", strconv.Itoa(sq.MinRating))
	}

	if sq.Random {
		q.Set("sort", "random")
	}

	tracks, err := c.fetchAll(ctx, q, sq.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search tracks: %w", err)
	}
	return MapEntries(tracks), nil
}

// Entry fetches one track by rating key.
func (c *Client) Entry(ctx context.Context, id string) (domain.RawEntry, error) {
	mc, err := c.doRequest(ctx, http.MethodGet, "/library/metadata/"+url.PathEscape(id), nil)
	var se *StatusError
	if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
		return domain.RawEntry{}, fmt.Errorf("%w: %s", domain.ErrEntryNotFound, id)
	}
	if err != nil {
		return domain.RawEntry{}, fmt.Errorf("failed to fetch track %s: %w", id, err)
	}
	for _, m := range mc.Metadata {
		if m.Type == "" || m.Type == "track" {
			return mapEntry(m), nil
		}
	}
	return domain.RawEntry{}, fmt.Errorf("%w: %s is not a track", domain.ErrEntryNotFound, id)
}

func (c *Client) filterChoices(ctx context.Context, filter string, libType int) ([]Directory, error) {
	key, err := c.section(ctx)
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("type", strconv.Itoa(libType))
	mc, err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("/library/sections/%s/%s", key, filter), q)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s choices: %w", filter, err)
	}
	return mc.Directory, nil
}

func (c *Client) genreKeys(ctx context.Context, names []string) ([]string, error) {
	choices, err := c.filterChoices(ctx, "genre", constants.PlexTypeTrack)
	if err != nil {
		return nil, err
	}
	var keys []string
	for _, name := range names {
		for _, d := range choices {
			if strings.EqualFold(d.Title, name) {
				keys = append(keys, d.Key)
				break
			}
		}
	}
	return keys, nil
}

// LibraryStats lists genres and decades known to the server. Plex filter
// choices carry no counts, so every Count is zero.
func (c *Client) LibraryStats(ctx context.Context) (domain.LibraryStats, error) {
	var stats domain.LibraryStats

	genres, err := c.filterChoices(ctx, "genre", constants.PlexTypeTrack)
	if err != nil {
		return stats, err
	}
	for _, g := range genres {
		stats.Genres = append(stats.Genres, domain.NamedCount{Name: g.Title})
	}

	decades, err := c.filterChoices(ctx, "decade", constants.PlexTypeAlbum)
	if err != nil {
		return stats, err
	}
	for _, d := range decades {
		name := d.Title
		if name != "" && !strings.HasSuffix(name, "s") {
			name += "s"
		}
		stats.Decades = append(stats.Decades, domain.NamedCount{Name: name})
	}

	stats.TotalEntries, err = c.TotalEntries(ctx)
	if err != nil {
		return stats, err
	}
	return stats, nil
}

// TotalEntries asks for an empty page of tracks and reads the container size.
func (c *Client) TotalEntries(ctx context.Context) (int, error) {
	key, err := c.section(ctx)
	if err != nil {
		return 0, err
	}
	q := url.Values{}
	q.Set("type", strconv.Itoa(constants.PlexTypeTrack))
	q.Set(constants.PlexHeaderPageStart, "0")
	q.Set(constants.PlexHeaderPageSize, "0")
	mc, err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("/library/sections/%s/all", key), q)
	if err != nil {
		return 0, fmt.Errorf("failed to count tracks: %w", err)
	}
	return mc.TotalSize, nil
}
