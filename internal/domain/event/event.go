// Package event provides the ticketing-side domain entities.
package event

import (
	"sort"
	"strings"
)

// spacePlaceholder is the encoded form of a space inside a Key.
const spacePlaceholder = "%20"

// Key is a performer name used to join ticketing listings with catalog data.
type Key string

// Encode returns the key with spaces replaced by the %20 placeholder.
func (k Key) Encode() string {
	return strings.ReplaceAll(string(k), " ", spacePlaceholder)
}

// DecodeKey reverses Key.Encode.
func DecodeKey(encoded string) Key {
	return Key(strings.ReplaceAll(encoded, spacePlaceholder, " "))
}

// String returns the performer name.
func (k Key) String() string {
	return string(k)
}

// Index maps performer keys to the ids of the events they play.
type Index map[Key][]string

// Add records eventID for the performer key, ignoring duplicates.
func (idx Index) Add(key Key, eventID string) {
	for _, id := range idx[key] {
		if id == eventID {
			return
		}
	}
	idx[key] = append(idx[key], eventID)
}

// Keys returns the index keys in sorted order.
func (idx Index) Keys() []Key {
	keys := make([]Key, 0, len(idx))
	for k := range idx {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Clone returns a deep copy of the index.
func (idx Index) Clone() Index {
	if idx == nil {
		return nil
	}
	out := make(Index, len(idx))
	for k, ids := range idx {
		out[k] = append([]string(nil), ids...)
	}
	return out
}

// Event represents a single ticketing listing.
type Event struct {
	ID            string   `json:"id"`            // Ticketing event ID
	Title         string   `json:"title"`         // Listing title
	DateTimeLocal string   `json:"datetimeLocal"` // Local start time as returned by the API
	URL           string   `json:"url"`           // Ticket page URL
	Venue         string   `json:"venue"`         // Venue name
	City          string   `json:"city"`          // Venue city
	Performers    []string `json:"performers"`    // Performer names
}
