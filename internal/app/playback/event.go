package playback

import "context"

// Listener names registered on the player.
const (
	EventInitializationError = "initialization_error"
	EventAuthenticationError = "authentication_error"
	EventAccountError        = "account_error"
	EventPlaybackError       = "playback_error"
	EventPlayerStateChanged  = "player_state_changed"
	EventReady               = "ready"
	EventNotReady            = "not_ready"
)

// ErrorEvents lists the error listener names.
var ErrorEvents = []string{
	EventInitializationError,
	EventAuthenticationError,
	EventAccountError,
	EventPlaybackError,
}

// KnownEvent reports whether name is a listener the player emits.
func KnownEvent(name string) bool {
	switch name {
	case EventInitializationError, EventAuthenticationError, EventAccountError, EventPlaybackError,
		EventPlayerStateChanged, EventReady, EventNotReady:
		return true
	}
	return false
}

// Handler receives player notifications.
type Handler func(ctx context.Context, n Notification)

// Notification is a single player callback.
type Notification struct {
	Name     string    `json:"name"`
	Message  string    `json:"message,omitempty"`  // error events
	DeviceID string    `json:"deviceId,omitempty"` // ready and not_ready
	State    *SDKState `json:"state,omitempty"`    // player_state_changed; nil when playback moved away
}

// SDKState is the playback state reported by the SDK.
type SDKState struct {
	Paused      bool        `json:"paused"`
	Position    int64       `json:"position"`
	Duration    int64       `json:"duration"`
	TrackWindow TrackWindow `json:"track_window"`
}

// TrackWindow holds the current track and its neighbours.
type TrackWindow struct {
	Current  SDKTrack   `json:"current_track"`
	Previous []SDKTrack `json:"previous_tracks"`
	Next     []SDKTrack `json:"next_tracks"`
}

// SDKTrack is a track as reported by the SDK.
type SDKTrack struct {
	URI     string      `json:"uri"`
	Name    string      `json:"name"`
	Album   SDKAlbum    `json:"album"`
	Artists []SDKArtist `json:"artists"`
}

// SDKAlbum is an album as reported by the SDK.
type SDKAlbum struct {
	Name   string     `json:"name"`
	Images []SDKImage `json:"images"`
}

// SDKImage is a cover image.
type SDKImage struct {
	URL string `json:"url"`
}

// SDKArtist is an artist as reported by the SDK.
type SDKArtist struct {
	Name string `json:"name"`
}

// Cover returns the first album image URL, or "".
func (t SDKTrack) Cover() string {
	if len(t.Album.Images) == 0 {
		return ""
	}
	return t.Album.Images[0].URL
}

// ArtistNames returns the artist names in order.
func (t SDKTrack) ArtistNames() []string {
	names := make([]string, len(t.Artists))
	for i, a := range t.Artists {
		names[i] = a.Name
	}
	return names
}
