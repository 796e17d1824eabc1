package pipeline

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/gigbox/internal/domain/artist"
	"github.com/osa030/gigbox/internal/domain/event"
	"github.com/osa030/gigbox/internal/domain/track"
	"github.com/osa030/gigbox/internal/infra/seatgeek"
)

type fakeTicketing struct {
	events []event.Event
	err    error
	query  seatgeek.Query
}

func (f *fakeTicketing) SearchEvents(ctx context.Context, q seatgeek.Query) ([]event.Event, error) {
	f.query = q
	return f.events, f.err
}

type fakeCatalog struct {
	artists     map[string]*artist.Artist
	searchErrs  map[string]error
	tracks      map[string]*track.Track
	trackErrs   map[string]error
	searchCalls []string
}

func (f *fakeCatalog) SearchArtist(ctx context.Context, query string) (*artist.Artist, error) {
	f.searchCalls = append(f.searchCalls, query)
	if err := f.searchErrs[query]; err != nil {
		return nil, err
	}
	return f.artists[query], nil
}

func (f *fakeCatalog) TopTrack(ctx context.Context, artistID string) (*track.Track, error) {
	if err := f.trackErrs[artistID]; err != nil {
		return nil, err
	}
	return f.tracks[artistID], nil
}

type fakeTagger struct {
	tags  map[string][]string
	calls int
}

func (f *fakeTagger) ArtistGenres(ctx context.Context, artistName string, limit int) ([]string, error) {
	f.calls++
	return f.tags[artistName], nil
}

func TestRun_Scenario(t *testing.T) {
	ticketing := &fakeTicketing{events: []event.Event{
		{ID: "123", Performers: []string{"The Band"}},
	}}
	catalog := &fakeCatalog{
		artists: map[string]*artist.Artist{
			"The Band": {ID: "a1", Name: "The Band", Genres: []string{"indie rock"}},
		},
		tracks: map[string]*track.Track{
			"a1": {URI: "spotify:track:t1"},
		},
	}

	var stages []Stage
	p := New(ticketing, catalog, nil, Config{})
	result, err := p.Run(context.Background(), func(pr Progress) {
		stages = append(stages, pr.Stage)
	})
	require.NoError(t, err)

	assert.Equal(t, []Stage{StagePerformers, StageArtists, StageArtistEvents, StageTracks, StageSongEvents}, stages)

	require.Contains(t, result.Artists, event.Key("The Band"))
	assert.Equal(t, "a1", result.Artists["The Band"].ID)

	assert.Equal(t, []string{"spotify:track:t1"}, result.Tracks.AllSongs)
	assert.Equal(t, []string{"spotify:track:t1"}, result.Tracks.SongsByGenre[track.GenreIndie])
	assert.Equal(t, []string{"spotify:track:t1"}, result.Tracks.SongsByGenre[track.GenreRock])
	assert.Empty(t, result.Tracks.SongsByGenre[track.GenrePop])
	assert.Equal(t, map[string]string{"a1": "spotify:track:t1"}, result.Tracks.ArtistSong)

	assert.Equal(t, map[string][]string{"spotify:track:t1": {"123"}}, result.SongEvents)
}

func TestRun_LookupFailureStops(t *testing.T) {
	ticketing := &fakeTicketing{err: errors.New("network down")}
	catalog := &fakeCatalog{}

	var stages []Stage
	p := New(ticketing, catalog, nil, Config{})
	result, err := p.Run(context.Background(), func(pr Progress) {
		stages = append(stages, pr.Stage)
		if pr.Stage == StagePerformers {
			assert.Error(t, pr.Err)
			assert.Empty(t, pr.Index)
		}
	})

	require.Error(t, err)
	assert.Nil(t, result)
	assert.Equal(t, []Stage{StagePerformers}, stages)
	assert.Empty(t, catalog.searchCalls)
}

func TestLookupPerformers_UsesQueryAndKeepsNames(t *testing.T) {
	ticketing := &fakeTicketing{events: []event.Event{
		{ID: "1", Performers: []string{"The Band", "Openers"}},
		{ID: "2", Performers: []string{"The Band", ""}},
		{ID: "3", Performers: []string{"Sunn  O)))", " Trailing Space "}},
	}}
	p := New(ticketing, &fakeCatalog{}, nil, Config{
		Query: func() seatgeek.Query { return seatgeek.Query{City: "Toronto"} },
	})

	idx, err := p.LookupPerformers(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Toronto", ticketing.query.City)
	assert.Equal(t, event.Index{
		"The Band":         {"1", "2"},
		"Openers":          {"1"},
		"Sunn  O)))":       {"3"},
		" Trailing Space ": {"3"},
	}, idx)

	for key := range idx {
		assert.Equal(t, key, event.DecodeKey(key.Encode()))
	}
}

func TestResolveArtists_QueriesRawPerformerName(t *testing.T) {
	catalog := &fakeCatalog{}
	p := New(&fakeTicketing{}, catalog, nil, Config{})

	_, err := p.ResolveArtists(context.Background(), event.Index{"Sunn  O)))": {"1"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Sunn  O)))"}, catalog.searchCalls)
}

func TestResolveArtists_MissIsExplicitNil(t *testing.T) {
	catalog := &fakeCatalog{artists: map[string]*artist.Artist{
		"Known": {ID: "a1", Name: "Known"},
	}}
	p := New(&fakeTicketing{}, catalog, nil, Config{})

	artists, err := p.ResolveArtists(context.Background(), event.Index{"Known": {"1"}, "Unknown": {"2"}})
	require.NoError(t, err)

	require.Contains(t, artists, event.Key("Unknown"))
	assert.Nil(t, artists["Unknown"])
	assert.Equal(t, 1, artists.Present())
	assert.Equal(t, []string{"Known", "Unknown"}, catalog.searchCalls)

	// Misses never reach downstream joins
	assert.Equal(t, map[string][]string{"a1": {"1"}}, BuildArtistEvents(artists, event.Index{"Known": {"1"}, "Unknown": {"2"}}))
}

func TestResolveArtists_PartialFailureKeepsProgress(t *testing.T) {
	catalog := &fakeCatalog{
		artists: map[string]*artist.Artist{
			"A": {ID: "a"},
			"C": {ID: "c"},
		},
		searchErrs: map[string]error{"B": errors.New("429 rate limit")},
	}
	p := New(&fakeTicketing{}, catalog, nil, Config{})

	artists, err := p.ResolveArtists(context.Background(), event.Index{"A": {"1"}, "B": {"2"}, "C": {"3"}})
	require.Error(t, err)

	var pf *PartialFailure
	require.True(t, errors.As(err, &pf))
	assert.Equal(t, StageArtists, pf.Stage)
	assert.Equal(t, 3, pf.Total)
	assert.Equal(t, []string{"B"}, pf.Keys())
	assert.Contains(t, err.Error(), "1 of 3 items failed")

	// Items before and after the failure are kept
	assert.Equal(t, "a", artists["A"].ID)
	assert.Equal(t, "c", artists["C"].ID)
	assert.NotContains(t, artists, event.Key("B"))
}

func TestResolveArtists_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	catalog := &fakeCatalog{}
	p := New(&fakeTicketing{}, catalog, nil, Config{})

	_, err := p.ResolveArtists(ctx, event.Index{"A": {"1"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, catalog.searchCalls)
}

func TestSelectTracks(t *testing.T) {
	catalog := &fakeCatalog{
		tracks: map[string]*track.Track{
			"a1": {URI: "spotify:track:t1"},
			"a3": {URI: "spotify:track:t3"},
		},
		trackErrs: map[string]error{"a4": errors.New("500 server error")},
	}
	tagger := &fakeTagger{tags: map[string][]string{"Three": {"funk", "soul"}}}
	p := New(&fakeTicketing{}, catalog, tagger, Config{})

	set, err := p.SelectTracks(context.Background(), Artists{
		"One":     {ID: "a1", Name: "One", Genres: []string{"indie rock", "jazz"}},
		"Two":     {ID: "a2", Name: "Two", Genres: []string{"pop"}}, // no top track
		"Three":   {ID: "a3", Name: "Three"},                        // tags from fallback
		"Four":    {ID: "a4", Name: "Four"},                         // fails
		"Missing": nil,
	})

	var pf *PartialFailure
	require.True(t, errors.As(err, &pf))
	assert.Equal(t, []string{"a4"}, pf.Keys())

	assert.Equal(t, []string{"spotify:track:t1", "spotify:track:t3"}, set.AllSongs)
	assert.Equal(t, []string{"spotify:track:t1"}, set.SongsByGenre[track.GenreRock])
	assert.Equal(t, []string{"spotify:track:t1"}, set.SongsByGenre[track.GenreIndie])
	assert.Equal(t, []string{"spotify:track:t1"}, set.SongsByGenre[track.GenreJazz])
	assert.Equal(t, []string{"spotify:track:t3"}, set.SongsByGenre[track.GenreFunk])
	assert.Empty(t, set.SongsByGenre[track.GenrePop])
	assert.Equal(t, []string{"spotify:track:t1"}, set.AllGenres["indie rock"])
	assert.Equal(t, []string{"spotify:track:t3"}, set.AllGenres["soul"])
	assert.NotContains(t, set.ArtistSong, "a2")
	assert.Equal(t, 1, tagger.calls)
}

func TestBuildSongEvents(t *testing.T) {
	tests := []struct {
		name         string
		artistSong   map[string]string
		artistEvents map[string][]string
		expected     map[string][]string
	}{
		{
			name:         "joined on artist id",
			artistSong:   map[string]string{"a1": "u1", "a2": "u2"},
			artistEvents: map[string][]string{"a1": {"e1"}, "a2": {"e2", "e3"}},
			expected:     map[string][]string{"u1": {"e1"}, "u2": {"e2", "e3"}},
		},
		{
			name:         "artist without events is skipped",
			artistSong:   map[string]string{"a1": "u1", "a2": "u2"},
			artistEvents: map[string][]string{"a1": {"e1"}},
			expected:     map[string][]string{"u1": {"e1"}},
		},
		{
			name:         "artist without track is skipped",
			artistSong:   map[string]string{"a1": "u1"},
			artistEvents: map[string][]string{"a1": {"e1"}, "a2": {"e2"}},
			expected:     map[string][]string{"u1": {"e1"}},
		},
		{
			name:         "shared track uri merges event ids",
			artistSong:   map[string]string{"a2": "u1", "a1": "u1"},
			artistEvents: map[string][]string{"a1": {"e1", "e2"}, "a2": {"e2", "e3"}},
			expected:     map[string][]string{"u1": {"e1", "e2", "e3"}},
		},
		{
			name:         "empty inputs",
			artistSong:   map[string]string{},
			artistEvents: map[string][]string{},
			expected:     map[string][]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, BuildSongEvents(tt.artistSong, tt.artistEvents))
		})
	}
}

func TestBuildArtistEvents_SameArtistForTwoKeys(t *testing.T) {
	a := &artist.Artist{ID: "a1"}
	out := BuildArtistEvents(
		Artists{"The Band": a, "Band, The": a},
		event.Index{"The Band": {"e1"}, "Band, The": {"e2", "e1"}},
	)
	assert.Equal(t, map[string][]string{"a1": {"e2", "e1"}}, out)
}

func TestPartialFailure_NilWhenEmpty(t *testing.T) {
	assert.NoError(t, newPartialFailure(StageTracks, 3, map[string]error{}))
}
