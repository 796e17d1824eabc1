package dashboard

import (
	"github.com/osa030/gigbox/internal/app/pipeline"
	"github.com/osa030/gigbox/internal/domain/event"
	"github.com/osa030/gigbox/internal/domain/track"
)

// Update is a typed state change applied by the Store.
type Update interface {
	apply(s *State)
}

// generational is implemented by updates that belong to a discovery run.
type generational interface {
	generation() uint64
}

// Gen stamps an update with the discovery run that produced it.
type Gen uint64

func (g Gen) generation() uint64 { return uint64(g) }

// DiscoveryStarted begins a new discovery run and clears the previous results.
type DiscoveryStarted struct {
	Gen
}

func (u DiscoveryStarted) apply(s *State) {
	s.Generation = uint64(u.Gen)
	s.Discovering = true
	s.Events = event.Index{}
	s.Artists = pipeline.Artists{}
	s.ArtistEvent = map[string][]string{}
	s.SongEvent = map[string][]string{}
	empty := track.NewSet()
	s.AllSongs = empty.AllSongs
	s.SongsByGenre = empty.SongsByGenre
	s.ArtistSong = empty.ArtistSong
	s.AllGenres = empty.AllGenres
}

// DiscoveryFinished marks the run as done. Err is the run's error, if any.
type DiscoveryFinished struct {
	Gen
	Err error
}

func (u DiscoveryFinished) apply(s *State) {
	s.Discovering = false
	if u.Err != nil {
		s.pushError("discovery: " + u.Err.Error())
	}
}

// UserLoaded sets the signed-in user.
type UserLoaded struct {
	User User
}

func (u UserLoaded) apply(s *State) { s.User = u.User }

// EventsLoaded sets the performer index.
type EventsLoaded struct {
	Gen
	Index event.Index
}

func (u EventsLoaded) apply(s *State) { s.Events = u.Index.Clone() }

// ArtistsResolved sets the resolved artists.
type ArtistsResolved struct {
	Gen
	Artists pipeline.Artists
}

func (u ArtistsResolved) apply(s *State) { s.Artists = u.Artists.Clone() }

// ArtistEventsBuilt sets artist ID -> event IDs.
type ArtistEventsBuilt struct {
	Gen
	ArtistEvent map[string][]string
}

func (u ArtistEventsBuilt) apply(s *State) { s.ArtistEvent = cloneIDs(u.ArtistEvent) }

// TracksSelected sets the selected tracks and their genre buckets.
type TracksSelected struct {
	Gen
	Set track.Set
}

func (u TracksSelected) apply(s *State) {
	set := u.Set.Clone()
	s.AllSongs = set.AllSongs
	s.SongsByGenre = set.SongsByGenre
	s.ArtistSong = set.ArtistSong
	s.AllGenres = set.AllGenres
}

// SongEventsBuilt sets track URI -> event IDs.
type SongEventsBuilt struct {
	Gen
	SongEvent map[string][]string
}

func (u SongEventsBuilt) apply(s *State) { s.SongEvent = cloneIDs(u.SongEvent) }

// EventDetailsLoaded caches event details for a track URI.
type EventDetailsLoaded struct {
	URI    string
	Events []event.Event
}

func (u EventDetailsLoaded) apply(s *State) {
	s.CurrentEvent[u.URI] = append([]event.Event(nil), u.Events...)
}

// GenreToggled adds the genre to the filter, or removes it when selected.
type GenreToggled struct {
	Genre track.Genre
}

func (u GenreToggled) apply(s *State) {
	for i, g := range s.CurrentGenre {
		if g == u.Genre {
			s.CurrentGenre = append(s.CurrentGenre[:i:i], s.CurrentGenre[i+1:]...)
			return
		}
	}
	s.CurrentGenre = append(s.CurrentGenre, u.Genre)
}

// PlayerPhaseChanged records the player lifecycle phase.
type PlayerPhaseChanged struct {
	Phase string
}

func (u PlayerPhaseChanged) apply(s *State) { s.Player.Phase = u.Phase }

// DeviceReady records the playback device ID.
type DeviceReady struct {
	DeviceID string
}

func (u DeviceReady) apply(s *State) {
	s.Player.Phase = "ready"
	s.Player.DeviceID = u.DeviceID
}

// DeviceNotReady records that the device went offline and clears its ID.
type DeviceNotReady struct {
	DeviceID string
}

func (u DeviceNotReady) apply(s *State) {
	s.Player.Phase = "not-ready"
	s.Player.DeviceID = ""
}

// PlayerStateChanged carries a playback state notification.
// Nil cover fields leave the current value unchanged.
type PlayerStateChanged struct {
	TrackURI     string
	TrackName    string
	AlbumName    string
	ArtistNames  []string
	CurrentCover string
	PrevCover1   *string
	PrevCover2   *string
	NextCover1   *string
	NextCover2   *string
	Position     int64
	Duration     int64
	Paused       bool
}

func (u PlayerStateChanged) apply(s *State) {
	p := &s.Player
	p.CurrentTrackURI = u.TrackURI
	p.TrackName = u.TrackName
	p.AlbumName = u.AlbumName
	p.ArtistNames = append([]string(nil), u.ArtistNames...)
	p.CurrentCover = u.CurrentCover
	p.Position = u.Position
	p.Duration = u.Duration
	p.Playing = !u.Paused

	setIf(&p.PrevCover1, u.PrevCover1)
	setIf(&p.PrevCover2, u.PrevCover2)
	setIf(&p.NextCover1, u.NextCover1)
	setIf(&p.NextCover2, u.NextCover2)
}

// PlayerError records a player or control error.
type PlayerError struct {
	Source  string
	Message string
}

func (u PlayerError) apply(s *State) { s.pushError(u.Source + ": " + u.Message) }

func setIf(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func (s *State) pushError(msg string) {
	s.Errors = append(s.Errors, msg)
	if len(s.Errors) > maxErrors {
		s.Errors = s.Errors[len(s.Errors)-maxErrors:]
	}
}
