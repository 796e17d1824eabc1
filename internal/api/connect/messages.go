package connect

import (
	"github.com/osa030/gigbox/internal/app/dashboard"
	"github.com/osa030/gigbox/internal/app/playback"
	"github.com/osa030/gigbox/internal/domain/artist"
	"github.com/osa030/gigbox/internal/domain/playlist"
)

type GetStateRequest struct{}

type GetStateResponse struct {
	State         dashboard.State `json:"state"`
	FilteredSongs []string        `json:"filteredSongs"`
}

type DiscoverRequest struct {
	// Wait blocks until the run finishes.
	Wait bool `json:"wait"`
}

type DiscoverResponse struct {
	Started bool   `json:"started"`
	Songs   int    `json:"songs"`
	Linked  int    `json:"linked"`
	Error   string `json:"error,omitempty"`
}

type ToggleGenreRequest struct {
	Genre string `json:"genre"`
}

type ToggleGenreResponse struct {
	CurrentGenre  []string `json:"currentGenre"`
	FilteredSongs []string `json:"filteredSongs"`
}

type GetArtistRequest struct {
	Name string `json:"name"`
}

type GetArtistResponse struct {
	Artist   *artist.Artist `json:"artist"`
	EventIDs []string       `json:"eventIds"`
}

type CreatePlaylistRequest struct {
	Name string `json:"name"`
}

type CreatePlaylistResponse struct {
	Playlist *playlist.Playlist `json:"playlist"`
	Error    string             `json:"error,omitempty"` // set when tracks could not be added
}

type SubscribeStateRequest struct{}

type CommandRequest struct{}

type CommandResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type RepeatRequest struct {
	Mode string `json:"mode"`
}

type NotifyRequest struct {
	Notification playback.Notification `json:"notification"`
}

type NotifyResponse struct{}
