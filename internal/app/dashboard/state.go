// Package dashboard holds the serialized dashboard state.
package dashboard

import (
	"github.com/osa030/gigbox/internal/app/pipeline"
	"github.com/osa030/gigbox/internal/domain/event"
	"github.com/osa030/gigbox/internal/domain/track"
)

// maxErrors bounds the error history kept in State.
const maxErrors = 20

// User is the signed-in catalog user.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email,omitempty"`
}

// Player mirrors the playback SDK session.
type Player struct {
	Phase           string   `json:"phase"`
	DeviceID        string   `json:"deviceId,omitempty"`
	Position        int64    `json:"position"` // ms
	Duration        int64    `json:"duration"` // ms
	TrackName       string   `json:"trackName"`
	AlbumName       string   `json:"albumName"`
	ArtistNames     []string `json:"artistName"`
	CurrentCover    string   `json:"currentAlbumCover,omitempty"`
	PrevCover1      string   `json:"prevAlbumCover1,omitempty"`
	PrevCover2      string   `json:"prevAlbumCover2,omitempty"`
	NextCover1      string   `json:"nextAlbumCover1,omitempty"`
	NextCover2      string   `json:"nextAlbumCover2,omitempty"`
	Playing         bool     `json:"playing"`
	CurrentTrackURI string   `json:"currentTrackUri,omitempty"`
}

// State is the full dashboard state.
type State struct {
	Version      uint64                   `json:"version"`    // incremented on every applied update
	Generation   uint64                   `json:"generation"` // current discovery run
	Discovering  bool                     `json:"discovering"`
	User         User                     `json:"user"`
	Events       event.Index              `json:"events"`
	Artists      pipeline.Artists         `json:"artists"`
	ArtistEvent  map[string][]string      `json:"artistEvent"`
	ArtistSong   map[string]string        `json:"artistSong"`
	SongEvent    map[string][]string      `json:"songEvent"`
	AllSongs     []string                 `json:"allSongs"`
	SongsByGenre map[track.Genre][]string `json:"songsByGenre"`
	AllGenres    map[string][]string      `json:"allGenres"`
	CurrentEvent map[string][]event.Event `json:"currentEvent"`
	CurrentGenre []track.Genre            `json:"currentGenre"`
	Player       Player                   `json:"player"`
	Errors       []string                 `json:"errors,omitempty"`
}

// NewState returns the initial state.
func NewState() State {
	return State{
		Events:       event.Index{},
		Artists:      pipeline.Artists{},
		ArtistEvent:  map[string][]string{},
		ArtistSong:   map[string]string{},
		SongEvent:    map[string][]string{},
		AllSongs:     []string{},
		SongsByGenre: track.NewSet().SongsByGenre,
		AllGenres:    map[string][]string{},
		CurrentEvent: map[string][]event.Event{},
		CurrentGenre: []track.Genre{},
		Player:       Player{Phase: "uninitialized"},
	}
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	out := s
	out.Events = s.Events.Clone()
	out.Artists = s.Artists.Clone()
	out.ArtistEvent = cloneIDs(s.ArtistEvent)
	out.SongEvent = cloneIDs(s.SongEvent)

	set := track.Set{
		AllSongs:     s.AllSongs,
		SongsByGenre: s.SongsByGenre,
		ArtistSong:   s.ArtistSong,
		AllGenres:    s.AllGenres,
	}.Clone()
	out.AllSongs = set.AllSongs
	out.SongsByGenre = set.SongsByGenre
	out.ArtistSong = set.ArtistSong
	out.AllGenres = set.AllGenres

	out.CurrentEvent = make(map[string][]event.Event, len(s.CurrentEvent))
	for uri, events := range s.CurrentEvent {
		out.CurrentEvent[uri] = append([]event.Event(nil), events...)
	}
	out.CurrentGenre = append([]track.Genre(nil), s.CurrentGenre...)
	out.Player.ArtistNames = append([]string(nil), s.Player.ArtistNames...)
	out.Errors = append([]string(nil), s.Errors...)
	return out
}

// FilteredSongs returns the songs of the selected genres in selection order
// without duplicates, or every song when no genre is selected.
func (s State) FilteredSongs() []string {
	if len(s.CurrentGenre) == 0 {
		return append([]string(nil), s.AllSongs...)
	}
	seen := make(map[string]bool)
	out := []string{}
	for _, g := range s.CurrentGenre {
		for _, uri := range s.SongsByGenre[g] {
			if !seen[uri] {
				seen[uri] = true
				out = append(out, uri)
			}
		}
	}
	return out
}

// EventsForTrack returns the event IDs linked to a track URI.
func (s State) EventsForTrack(uri string) []string {
	return s.SongEvent[uri]
}

func cloneIDs(m map[string][]string) map[string][]string {
	out := make(map[string][]string, len(m))
	for k, v := range m {
		out[k] = append([]string(nil), v...)
	}
	return out
}
