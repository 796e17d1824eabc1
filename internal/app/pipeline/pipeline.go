package pipeline

import (
	"context"
	"sort"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/gigbox/internal/domain/artist"
	"github.com/osa030/gigbox/internal/domain/event"
	"github.com/osa030/gigbox/internal/domain/track"
	"github.com/osa030/gigbox/internal/infra/seatgeek"
)

// Ticketing defines the ticketing operations needed by the pipeline.
type Ticketing interface {
	SearchEvents(ctx context.Context, q seatgeek.Query) ([]event.Event, error)
}

// Catalog defines the music catalog operations needed by the pipeline.
type Catalog interface {
	SearchArtist(ctx context.Context, query string) (*artist.Artist, error)
	TopTrack(ctx context.Context, artistID string) (*track.Track, error)
}

// Tagger supplies genre tags for artists the catalog has none for.
type Tagger interface {
	ArtistGenres(ctx context.Context, artistName string, limit int) ([]string, error)
}

// Config holds pipeline configuration.
type Config struct {
	Query    func() seatgeek.Query // Builds the ticketing query for a run
	TagLimit int                   // Max fallback tags per artist
}

// Pipeline runs the discovery stages in order.
type Pipeline struct {
	ticketing Ticketing
	catalog   Catalog
	tagger    Tagger
	config    Config
}

// New creates a new pipeline. tagger may be nil.
func New(ticketing Ticketing, catalog Catalog, tagger Tagger, config Config) *Pipeline {
	if config.TagLimit <= 0 {
		config.TagLimit = 5
	}
	return &Pipeline{
		ticketing: ticketing,
		catalog:   catalog,
		tagger:    tagger,
		config:    config,
	}
}

// Run executes every stage sequentially and reports each stage's output.
// A lookup failure stops the run; partial failures in later stages are
// combined into the returned error while the run continues.
func (p *Pipeline) Run(ctx context.Context, report func(Progress)) (*Result, error) {
	if report == nil {
		report = func(Progress) {}
	}

	idx, err := p.LookupPerformers(ctx)
	report(Progress{Stage: StagePerformers, Index: idx, Err: err})
	if err != nil {
		return nil, err
	}

	var runErr error

	artists, err := p.ResolveArtists(ctx, idx)
	report(Progress{Stage: StageArtists, Artists: artists, Err: err})
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		runErr = errors.CombineErrors(runErr, err)
	}

	artistEvents := BuildArtistEvents(artists, idx)
	report(Progress{Stage: StageArtistEvents, ArtistEvents: artistEvents})

	tracks, err := p.SelectTracks(ctx, artists)
	report(Progress{Stage: StageTracks, Tracks: tracks, Err: err})
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		runErr = errors.CombineErrors(runErr, err)
	}

	songEvents := BuildSongEvents(tracks.ArtistSong, artistEvents)
	report(Progress{Stage: StageSongEvents, SongEvents: songEvents})

	zlog.Info().Msgf("discovery finished: performers=%d artists=%d songs=%d linked=%d",
		len(idx), artists.Present(), len(tracks.AllSongs), len(songEvents))

	return &Result{
		Index:        idx,
		Artists:      artists,
		ArtistEvents: artistEvents,
		Tracks:       tracks,
		SongEvents:   songEvents,
	}, runErr
}

// LookupPerformers queries the ticketing API and indexes event IDs by performer.
func (p *Pipeline) LookupPerformers(ctx context.Context) (event.Index, error) {
	var q seatgeek.Query
	if p.config.Query != nil {
		q = p.config.Query()
	}

	events, err := p.ticketing.SearchEvents(ctx, q)
	if err != nil {
		zlog.Error().Err(err).Msg("performer lookup failed")
		return event.Index{}, errors.Wrap(err, "performer lookup failed")
	}

	idx := event.Index{}
	for _, ev := range events {
		for _, name := range ev.Performers {
			if name == "" {
				continue
			}
			idx.Add(event.Key(name), ev.ID)
		}
	}

	zlog.Info().Msgf("performer lookup: events=%d performers=%d", len(events), len(idx))
	return idx, nil
}

// ResolveArtists issues one catalog search per performer key, in key order.
// Misses are stored as nil entries. Failed keys are left out of the result
// and reported through a *PartialFailure.
func (p *Pipeline) ResolveArtists(ctx context.Context, idx event.Index) (Artists, error) {
	artists := make(Artists, len(idx))
	failures := make(map[string]error)

	for _, key := range idx.Keys() {
		if err := ctx.Err(); err != nil {
			return artists, errors.Wrap(err, "artist resolution cancelled")
		}

		a, err := p.catalog.SearchArtist(ctx, key.String())
		if err != nil {
			zlog.Warn().Err(err).Msgf("artist search failed: key=%s", key.Encode())
			failures[key.String()] = err
			continue
		}
		if a == nil {
			zlog.Debug().Msgf("no catalog match: key=%s", key.Encode())
		}
		artists[key] = a
	}

	return artists, newPartialFailure(StageArtists, len(idx), failures)
}

// SelectTracks fetches each present artist's top track and buckets it by genre.
// Artists without a top track contribute nothing.
func (p *Pipeline) SelectTracks(ctx context.Context, artists Artists) (track.Set, error) {
	set := track.NewSet()
	failures := make(map[string]error)

	keys := make([]event.Key, 0, len(artists))
	for k, a := range artists {
		if a != nil {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return set, errors.Wrap(err, "track selection cancelled")
		}

		a := artists[key]
		t, err := p.catalog.TopTrack(ctx, a.ID)
		if err != nil {
			zlog.Warn().Err(err).Msgf("top track lookup failed: artist=%s", a.ID)
			failures[a.ID] = err
			continue
		}
		if t == nil {
			zlog.Debug().Msgf("no top track: artist=%s", a.ID)
			continue
		}

		set.Add(a.ID, t.URI, p.genresFor(ctx, a))
	}

	return set, newPartialFailure(StageTracks, len(keys), failures)
}

// genresFor returns the artist's catalog genres, falling back to the tagger
// when the catalog has none.
func (p *Pipeline) genresFor(ctx context.Context, a *artist.Artist) []string {
	if len(a.Genres) > 0 || p.tagger == nil {
		return a.Genres
	}
	tags, err := p.tagger.ArtistGenres(ctx, a.Name, p.config.TagLimit)
	if err != nil {
		zlog.Debug().Err(err).Msgf("genre fallback failed: artist=%s", a.Name)
		return nil
	}
	return tags
}

// BuildArtistEvents joins artists with the performer index on the
// performer key, producing artist ID -> event IDs.
func BuildArtistEvents(artists Artists, idx event.Index) map[string][]string {
	keys := make([]event.Key, 0, len(artists))
	for k := range artists {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	out := make(map[string][]string)
	for _, key := range keys {
		a := artists[key]
		if a == nil {
			continue
		}
		ids, ok := idx[key]
		if !ok {
			continue
		}
		out[a.ID] = mergeIDs(out[a.ID], ids)
	}
	return out
}

// BuildSongEvents joins artist ID -> track URI with artist ID -> event IDs.
// Artists sharing a track URI have their event IDs merged in artist ID order.
func BuildSongEvents(artistSong map[string]string, artistEvents map[string][]string) map[string][]string {
	ids := make([]string, 0, len(artistSong))
	for id := range artistSong {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make(map[string][]string)
	for _, id := range ids {
		uri := artistSong[id]
		events, ok := artistEvents[id]
		if uri == "" || !ok || len(events) == 0 {
			continue
		}
		out[uri] = mergeIDs(out[uri], events)
	}
	return out
}

// mergeIDs appends the IDs from add not already in dst.
func mergeIDs(dst, add []string) []string {
	for _, id := range add {
		found := false
		for _, existing := range dst {
			if existing == id {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, id)
		}
	}
	return dst
}
