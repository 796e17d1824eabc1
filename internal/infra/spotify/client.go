// Package spotify provides a client for the Spotify API.
package spotify

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"

	"github.com/osa030/gigbox/internal/domain/artist"
	"github.com/osa030/gigbox/internal/domain/playlist"
	"github.com/osa030/gigbox/internal/domain/track"
)

// maxTracksPerRequest is the playlist endpoint's per-request item cap.
const maxTracksPerRequest = 100

// Scopes lists the OAuth scopes the dashboard needs.
var Scopes = []string{
	spotifyauth.ScopeUserReadPrivate,
	spotifyauth.ScopeUserReadEmail,
	spotifyauth.ScopePlaylistModifyPublic,
	spotifyauth.ScopePlaylistModifyPrivate,
	spotifyauth.ScopeUserReadPlaybackState,
	spotifyauth.ScopeUserModifyPlaybackState,
	spotifyauth.ScopeStreaming,
}

// Client is a Spotify API client.
type Client struct {
	client *spotify.Client
	market string
}

// Config represents Spotify client configuration.
type Config struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	Market       string
}

// User represents the authenticated Spotify user.
type User struct {
	ID          string
	DisplayName string
	Email       string
}

// New creates a new Spotify client.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RefreshToken == "" {
		return nil, errors.New("spotify credentials are required")
	}

	auth := spotifyauth.New(
		spotifyauth.WithClientID(cfg.ClientID),
		spotifyauth.WithClientSecret(cfg.ClientSecret),
		spotifyauth.WithScopes(Scopes...),
	)

	// Create token from refresh token
	token := &oauth2.Token{
		RefreshToken: cfg.RefreshToken,
	}

	// Get HTTP client with auto-refresh capability
	httpClient := auth.Client(ctx, token)

	return newClient(httpClient, "", cfg.Market), nil
}

// newClient builds a Client around httpClient. An empty baseURL uses the
// public API.
func newClient(httpClient *http.Client, baseURL, market string) *Client {
	var opts []spotify.ClientOption
	if baseURL != "" {
		opts = append(opts, spotify.WithBaseURL(baseURL))
	}
	if market == "" {
		market = "from_token"
	}
	return &Client{
		client: spotify.New(httpClient, opts...),
		market: market,
	}
}

// CurrentUser returns the authenticated user.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	u, err := c.client.CurrentUser(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get current user")
	}
	return &User{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		Email:       u.Email,
	}, nil
}

// SearchArtist returns the best catalog match for query.
// A query without matches returns a nil artist and no error.
func (c *Client) SearchArtist(ctx context.Context, query string) (*artist.Artist, error) {
	if query == "" {
		return nil, errors.New("search query is required")
	}

	result, err := c.client.Search(ctx, query, spotify.SearchTypeArtist, spotify.Limit(1))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to search artist %q", query)
	}

	if result.Artists == nil || len(result.Artists.Artists) == 0 {
		return nil, nil
	}

	a := result.Artists.Artists[0]
	return &artist.Artist{
		ID:     string(a.ID),
		Name:   a.Name,
		Genres: append([]string(nil), a.Genres...),
	}, nil
}

// TopTrack returns the artist's first top track in the configured market.
// An artist without top tracks returns a nil track and no error.
func (c *Client) TopTrack(ctx context.Context, artistID string) (*track.Track, error) {
	tracks, err := c.client.GetArtistsTopTracks(ctx, spotify.ID(artistID), c.market)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get top tracks for artist %s", artistID)
	}
	if len(tracks) == 0 {
		return nil, nil
	}
	return convertTrack(&tracks[0]), nil
}

// CreatePlaylist creates a playlist for the current user.
func (c *Client) CreatePlaylist(ctx context.Context, name, description string, public bool) (*playlist.Playlist, error) {
	user, err := c.client.CurrentUser(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get current user")
	}

	p, err := c.client.CreatePlaylistForUser(ctx, user.ID, name, description, public, false)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create playlist")
	}

	return &playlist.Playlist{
		ID:          string(p.ID),
		Name:        p.Name,
		Description: p.Description,
		Public:      p.IsPublic,
		URL:         c.GetPlaylistURL(string(p.ID)),
	}, nil
}

// AddTracksToPlaylist adds tracks to a playlist.
// trackIDs can be Spotify IDs, URLs, or URIs.
func (c *Client) AddTracksToPlaylist(ctx context.Context, playlistID string, trackIDs []string) error {
	ids := make([]spotify.ID, len(trackIDs))
	for i, trackID := range trackIDs {
		ids[i] = spotify.ID(extractTrackID(trackID))
	}

	for i := 0; i < len(ids); i += maxTracksPerRequest {
		end := i + maxTracksPerRequest
		if end > len(ids) {
			end = len(ids)
		}

		if _, err := c.client.AddTracksToPlaylist(ctx, spotify.ID(extractPlaylistID(playlistID)), ids[i:end]...); err != nil {
			return errors.Wrap(err, "failed to add tracks to playlist")
		}
	}

	return nil
}

// Play starts playback of uris on the given device.
func (c *Client) Play(ctx context.Context, deviceID string, uris []string) error {
	opt := &spotify.PlayOptions{
		DeviceID: deviceIDPtr(deviceID),
		URIs:     make([]spotify.URI, len(uris)),
	}
	for i, uri := range uris {
		opt.URIs[i] = spotify.URI(uri)
	}
	if err := c.client.PlayOpt(ctx, opt); err != nil {
		return errors.Wrap(err, "failed to start playback")
	}
	return nil
}

// SetRepeat sets the repeat mode ("track", "context" or "off").
func (c *Client) SetRepeat(ctx context.Context, deviceID, state string) error {
	if err := c.client.RepeatOpt(ctx, state, &spotify.PlayOptions{DeviceID: deviceIDPtr(deviceID)}); err != nil {
		return errors.Wrapf(err, "failed to set repeat mode %s", state)
	}
	return nil
}

// Previous skips to the previous track on the device.
func (c *Client) Previous(ctx context.Context, deviceID string) error {
	if err := c.client.PreviousOpt(ctx, &spotify.PlayOptions{DeviceID: deviceIDPtr(deviceID)}); err != nil {
		return errors.Wrap(err, "failed to skip to previous track")
	}
	return nil
}

// Next skips to the next track on the device.
func (c *Client) Next(ctx context.Context, deviceID string) error {
	if err := c.client.NextOpt(ctx, &spotify.PlayOptions{DeviceID: deviceIDPtr(deviceID)}); err != nil {
		return errors.Wrap(err, "failed to skip to next track")
	}
	return nil
}

// TogglePlay pauses the device when it is playing and resumes it otherwise.
func (c *Client) TogglePlay(ctx context.Context, deviceID string) error {
	state, err := c.client.PlayerState(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get player state")
	}

	opt := &spotify.PlayOptions{DeviceID: deviceIDPtr(deviceID)}
	if state.Playing {
		err = c.client.PauseOpt(ctx, opt)
	} else {
		err = c.client.PlayOpt(ctx, opt)
	}
	if err != nil {
		return errors.Wrap(err, "failed to toggle playback")
	}
	return nil
}

// GetPlaylistURL returns the Spotify URL for a playlist.
func (c *Client) GetPlaylistURL(playlistID string) string {
	return fmt.Sprintf("https://open.spotify.com/playlist/%s", playlistID)
}

// convertTrack converts a Spotify FullTrack to domain Track.
func convertTrack(t *spotify.FullTrack) *track.Track {
	artists := make([]string, len(t.Artists))
	for i, a := range t.Artists {
		artists[i] = a.Name
	}

	var cover string
	if len(t.Album.Images) > 0 {
		cover = t.Album.Images[0].URL
	}

	return &track.Track{
		URI:      string(t.URI),
		Name:     t.Name,
		Album:    t.Album.Name,
		Artists:  artists,
		CoverURL: cover,
	}
}

// deviceIDPtr returns nil for an empty device so the active device is used.
func deviceIDPtr(deviceID string) *spotify.ID {
	if deviceID == "" {
		return nil
	}
	id := spotify.ID(deviceID)
	return &id
}

// extractPlaylistID extracts the playlist ID from a Spotify playlist URL or URI.
func extractPlaylistID(input string) string {
	return extractID(input, "playlist")
}

// extractTrackID extracts the track ID from a Spotify track URL or URI.
func extractTrackID(input string) string {
	return extractID(input, "track")
}

// extractID extracts the ID of the given kind from a Spotify URL or URI.
// Input that is neither is returned trimmed.
func extractID(input, kind string) string {
	input = strings.TrimSpace(input)

	// Handle Spotify URI format: spotify:<kind>:ID
	if prefix := "spotify:" + kind + ":"; strings.HasPrefix(input, prefix) {
		return strings.TrimPrefix(input, prefix)
	}

	// Handle URL format: https://open.spotify.com/<kind>/ID or https://open.spotify.com/intl-XX/<kind>/ID
	sep := "/" + kind + "/"
	if strings.Contains(input, "open.spotify.com") && strings.Contains(input, sep) {
		parts := strings.Split(input, sep)
		id := strings.Split(parts[len(parts)-1], "?")[0]
		return strings.TrimRight(id, "/")
	}

	return input
}
