package track

import "strings"

// Genre is one of the fixed genre buckets.
type Genre string

const (
	GenreRock       Genre = "rock"
	GenreCountry    Genre = "country"
	GenrePunk       Genre = "punk"
	GenreMetal      Genre = "metal"
	GenreBlues      Genre = "blues"
	GenreJazz       Genre = "jazz"
	GenreSoul       Genre = "soul"
	GenreFolk       Genre = "folk"
	GenrePop        Genre = "pop"
	GenreElectronic Genre = "electronic"
	GenreIndie      Genre = "indie"
	GenreRap        Genre = "rap"
	GenreHipHop     Genre = "hiphop"
	GenreFunk       Genre = "funk"
)

// Genres lists the fixed buckets in display order.
var Genres = []Genre{
	GenreRock,
	GenreCountry,
	GenrePunk,
	GenreMetal,
	GenreBlues,
	GenreJazz,
	GenreSoul,
	GenreFolk,
	GenrePop,
	GenreElectronic,
	GenreIndie,
	GenreRap,
	GenreHipHop,
	GenreFunk,
}

// ParseGenre returns the bucket named s.
func ParseGenre(s string) (Genre, bool) {
	for _, g := range Genres {
		if string(g) == s {
			return g, true
		}
	}
	return "", false
}

// Classify returns every bucket whose name is a substring of the
// comma-joined tags. Matching is case-sensitive.
func Classify(tags []string) []Genre {
	joined := strings.Join(tags, ",")
	var out []Genre
	for _, g := range Genres {
		if strings.Contains(joined, string(g)) {
			out = append(out, g)
		}
	}
	return out
}
