// Package track provides the Track domain entity and genre bucketing.
package track

// Track represents a playable catalog track.
type Track struct {
	URI      string   // Catalog URI (spotify:track:...)
	Name     string   // Track name
	Album    string   // Album name
	Artists  []string // Artist names
	CoverURL string   // First album image URL
}

// Set holds the tracks selected for a discovery run.
type Set struct {
	AllSongs     []string            // Track URIs in selection order
	SongsByGenre map[Genre][]string  // Fixed genre bucket -> track URIs
	ArtistSong   map[string]string   // Artist ID -> track URI
	AllGenres    map[string][]string // Raw genre tag -> track URIs
}

// NewSet creates an empty set with every fixed genre bucket present.
func NewSet() Set {
	byGenre := make(map[Genre][]string, len(Genres))
	for _, g := range Genres {
		byGenre[g] = []string{}
	}
	return Set{
		AllSongs:     []string{},
		SongsByGenre: byGenre,
		ArtistSong:   make(map[string]string),
		AllGenres:    make(map[string][]string),
	}
}

// Add records uri as the selected track for artistID with the given genre tags.
func (s *Set) Add(artistID, uri string, tags []string) {
	s.AllSongs = append(s.AllSongs, uri)
	s.ArtistSong[artistID] = uri

	for _, g := range Classify(tags) {
		s.SongsByGenre[g] = append(s.SongsByGenre[g], uri)
	}
	for _, tag := range tags {
		s.AllGenres[tag] = append(s.AllGenres[tag], uri)
	}
}

// Clone returns a deep copy of the set.
func (s Set) Clone() Set {
	out := Set{
		AllSongs:     append([]string(nil), s.AllSongs...),
		SongsByGenre: make(map[Genre][]string, len(s.SongsByGenre)),
		ArtistSong:   make(map[string]string, len(s.ArtistSong)),
		AllGenres:    make(map[string][]string, len(s.AllGenres)),
	}
	for g, uris := range s.SongsByGenre {
		out.SongsByGenre[g] = append([]string(nil), uris...)
	}
	for id, uri := range s.ArtistSong {
		out.ArtistSong[id] = uri
	}
	for tag, uris := range s.AllGenres {
		out.AllGenres[tag] = append([]string(nil), uris...)
	}
	return out
}
