// Package artist provides the Artist domain entity.
package artist

import "strings"

// Artist represents a catalog artist matched to a performer.
type Artist struct {
	ID     string   `json:"id"`     // Catalog artist ID
	Name   string   `json:"name"`   // Display name
	Genres []string `json:"genres"` // Genre tags in catalog order
}

// GenreString joins the genre tags with commas.
func (a *Artist) GenreString() string {
	return strings.Join(a.Genres, ",")
}

// Clone returns a copy of the artist. A nil artist clones to nil.
func (a *Artist) Clone() *Artist {
	if a == nil {
		return nil
	}
	c := *a
	c.Genres = append([]string(nil), a.Genres...)
	return &c
}
