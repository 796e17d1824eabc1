// Package playlist provides the Playlist domain entity.
package playlist

// Playlist represents a playlist written to the user's library.
type Playlist struct {
	ID          string   `json:"id"`          // Catalog playlist ID
	Name        string   `json:"name"`        // Playlist name
	Description string   `json:"description"` // Playlist description
	Public      bool     `json:"public"`      // Visibility flag
	URL         string   `json:"url"`         // Web URL
	TrackURIs   []string `json:"trackUris"`   // Track URIs appended so far
}

// AppendTracks records uris as added to the playlist.
func (p *Playlist) AppendTracks(uris []string) {
	p.TrackURIs = append(p.TrackURIs, uris...)
}

// TrackCount returns the number of tracks appended.
func (p *Playlist) TrackCount() int {
	return len(p.TrackURIs)
}
