// Package pipeline joins ticketing listings with catalog artists and tracks.
package pipeline

import (
	"github.com/osa030/gigbox/internal/domain/artist"
	"github.com/osa030/gigbox/internal/domain/event"
	"github.com/osa030/gigbox/internal/domain/track"
)

// Stage identifies a pipeline step.
type Stage int

const (
	StagePerformers   Stage = iota // Ticketing lookup
	StageArtists                   // Catalog artist resolution
	StageArtistEvents              // artist ID -> event IDs join
	StageTracks                    // Top track selection and genre bucketing
	StageSongEvents                // track URI -> event IDs join
)

// String returns the string representation of the stage.
func (s Stage) String() string {
	switch s {
	case StagePerformers:
		return "performers"
	case StageArtists:
		return "artists"
	case StageArtistEvents:
		return "artist_events"
	case StageTracks:
		return "tracks"
	case StageSongEvents:
		return "song_events"
	default:
		return "unknown"
	}
}

// Artists maps performer keys to their catalog match.
// A nil value records a search without matches.
type Artists map[event.Key]*artist.Artist

// Present returns the number of keys with a match.
func (a Artists) Present() int {
	n := 0
	for _, v := range a {
		if v != nil {
			n++
		}
	}
	return n
}

// Clone returns a deep copy.
func (a Artists) Clone() Artists {
	if a == nil {
		return nil
	}
	out := make(Artists, len(a))
	for k, v := range a {
		out[k] = v.Clone()
	}
	return out
}

// Progress reports the output of a completed stage. Only the field that
// matches Stage is set.
type Progress struct {
	Stage        Stage
	Index        event.Index
	Artists      Artists
	ArtistEvents map[string][]string
	Tracks       track.Set
	SongEvents   map[string][]string
	Err          error // stage-level error, possibly a *PartialFailure
}

// Result is the combined output of a full run.
type Result struct {
	Index        event.Index
	Artists      Artists
	ArtistEvents map[string][]string
	Tracks       track.Set
	SongEvents   map[string][]string
}
