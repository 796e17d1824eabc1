// Package lastfm provides a client for the Last.fm API.
package lastfm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/gigbox/internal/infra/httpjson"
)

// defaultBaseURL is the Last.fm API root.
const defaultBaseURL = "https://ws.audioscrobbler.com/2.0/"

// Client is a Last.fm API client.
type Client struct {
	api *httpjson.Client

	// Cache for artist tags, keyed by lower-cased artist name
	artistTagCache map[string][]Tag
	cacheMu        sync.RWMutex
}

// Config represents Last.fm client configuration.
type Config struct {
	APIKey  string
	BaseURL string // Defaults to the public API
}

// Tag represents a Last.fm tag.
type Tag struct {
	Name  string
	Count int // Tag count/frequency
}

// GetTopTagsResponse represents the response from artist.getTopTags API.
type GetTopTagsResponse struct {
	TopTags struct {
		Tag []struct {
			Name  string `json:"name"`
			Count int    `json:"count"`
		} `json:"tag"`
	} `json:"toptags"`
}

// LastFMError represents an error response from Last.fm API.
type LastFMError struct {
	Error   int    `json:"error"`
	Message string `json:"message"`
}

// New creates a new Last.fm client.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("last.fm API key is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Client{
		api: &httpjson.Client{
			BaseURL:     baseURL,
			HTTP:        &http.Client{Timeout: 10 * time.Second},
			Params:      url.Values{"api_key": {cfg.APIKey}, "format": {"json"}},
			DecodeError: decodeError,
		},
		artistTagCache: make(map[string][]Tag),
	}, nil
}

// GetArtistTopTags retrieves top tags for an artist from Last.fm.
// Reference: https://www.last.fm/api/show/artist.getTopTags
func (c *Client) GetArtistTopTags(ctx context.Context, artistName string, limit int) ([]Tag, error) {
	if artistName == "" {
		return nil, errors.New("artist name is required")
	}

	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	// Check cache first
	cacheKey := strings.ToLower(artistName)
	c.cacheMu.RLock()
	if tags, ok := c.artistTagCache[cacheKey]; ok {
		c.cacheMu.RUnlock()
		zlog.Debug().Msgf("using cached tags for artist: %s", artistName)
		return truncate(tags, limit), nil
	}
	c.cacheMu.RUnlock()

	params := url.Values{}
	params.Set("method", "artist.getTopTags")
	params.Set("artist", artistName)
	params.Set("autocorrect", "1")

	var response GetTopTagsResponse
	if err := c.api.Get(ctx, "/", params, &response); err != nil {
		return nil, errors.Wrapf(err, "failed to get top tags for %q", artistName)
	}

	tags := make([]Tag, 0, len(response.TopTags.Tag))
	for _, t := range response.TopTags.Tag {
		tags = append(tags, Tag{
			Name:  t.Name,
			Count: t.Count,
		})
	}

	c.cacheMu.Lock()
	c.artistTagCache[cacheKey] = tags
	c.cacheMu.Unlock()
	zlog.Debug().Msgf("cached tags for artist: %s (count: %d)", artistName, len(tags))

	return truncate(tags, limit), nil
}

// ArtistGenres returns the artist's top tag names, lower-cased so they
// line up with catalog genre tags.
func (c *Client) ArtistGenres(ctx context.Context, artistName string, limit int) ([]string, error) {
	tags, err := c.GetArtistTopTags(ctx, artistName, limit)
	if err != nil {
		return nil, err
	}
	genres := make([]string, 0, len(tags))
	for _, t := range tags {
		genres = append(genres, strings.ToLower(t.Name))
	}
	return genres, nil
}

// decodeError reports Last.fm errors, which may arrive with a 200 status.
func decodeError(status int, body []byte) error {
	var apiError LastFMError
	if err := json.Unmarshal(body, &apiError); err == nil && apiError.Error != 0 {
		return errors.Errorf("last.fm API error %d: %s", apiError.Error, apiError.Message)
	}
	return httpjson.StatusError(status, body)
}

func truncate(tags []Tag, limit int) []Tag {
	if len(tags) > limit {
		return tags[:limit]
	}
	return tags
}

