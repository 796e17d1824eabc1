// Package playlist saves discovered tracks to a catalog playlist.
package playlist

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/gigbox/internal/domain/playlist"
)

// DefaultDescription is attached to every created playlist.
const DefaultDescription = "Concert discoveries from gigbox"

// Catalog defines the playlist operations needed by the writer.
type Catalog interface {
	CreatePlaylist(ctx context.Context, name, description string, public bool) (*playlist.Playlist, error)
	AddTracksToPlaylist(ctx context.Context, playlistID string, trackURIs []string) error
}

// Config holds writer configuration.
type Config struct {
	DefaultName string // Used when Create is called without a name
	Description string
}

// Writer creates playlists and fills them with tracks.
type Writer struct {
	catalog Catalog
	config  Config
}

// NewWriter creates a new writer.
func NewWriter(catalog Catalog, config Config) *Writer {
	if config.DefaultName == "" {
		config.DefaultName = "gigbox discoveries"
	}
	if config.Description == "" {
		config.Description = DefaultDescription
	}
	return &Writer{catalog: catalog, config: config}
}

// Create creates a private playlist for the current user.
func (w *Writer) Create(ctx context.Context, name string) (*playlist.Playlist, error) {
	if name == "" {
		name = w.config.DefaultName
	}

	// Visibility is sent as a boolean; the typed client has no string form.
	p, err := w.catalog.CreatePlaylist(ctx, name, w.config.Description, false)
	if err != nil {
		zlog.Error().Err(err).Msgf("playlist creation failed: name=%s", name)
		return nil, errors.Wrap(err, "failed to create playlist")
	}

	zlog.Info().Msgf("playlist created: id=%s name=%s", p.ID, p.Name)
	return p, nil
}

// AddTracks appends uris to the playlist. The catalog client batches
// requests at its per-request limit.
func (w *Writer) AddTracks(ctx context.Context, p *playlist.Playlist, uris []string) error {
	if p == nil || p.ID == "" {
		return errors.New("playlist is required")
	}
	if len(uris) == 0 {
		return nil
	}

	if err := w.catalog.AddTracksToPlaylist(ctx, p.ID, uris); err != nil {
		zlog.Error().Err(err).Msgf("adding tracks failed: playlist=%s", p.ID)
		return errors.Wrap(err, "failed to add tracks")
	}

	p.AppendTracks(uris)
	zlog.Info().Msgf("added %d tracks to playlist %s", len(uris), p.ID)
	return nil
}

// Save creates a playlist and adds uris to it. Tracks are not added when
// creation fails. A failed add still returns the created playlist.
func (w *Writer) Save(ctx context.Context, name string, uris []string) (*playlist.Playlist, error) {
	p, err := w.Create(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := w.AddTracks(ctx, p, uris); err != nil {
		return p, err
	}
	return p, nil
}
