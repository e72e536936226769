// package models defines the data model for the tracklist to playlist pipeline
package models

import (
	"fmt"
	"strings"
)

// SearchCandidate is a single catalog search result.
type SearchCandidate struct {
	ID     string `json:"id"`     // Opaque catalog track id
	URI    string `json:"uri"`    // Catalog URI, when the catalog has one
	Name   string `json:"name"`   // Display title
	Artist string `json:"artist"` // Primary artist display name
	Album  string `json:"album,omitempty"`
}

func (c SearchCandidate) String() string {
	return fmt.Sprintf("%s - %s", c.Artist, c.Name)
}

// AcceptedTrack is a candidate whose title and artist both matched the tracklist entry.
type AcceptedTrack struct {
	ID     string `json:"id"`
	Artist string `json:"artist"`
}

// Playlist is the output of a run.
type Playlist struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Public      bool     `json:"public"`
	Description string   `json:"description"`
	TrackIDs    []string `json:"track_ids"`
}

// DistinctArtists returns the artists of tracks in order of first appearance.
func DistinctArtists(tracks []AcceptedTrack) []string {
	seen := make(map[string]struct{}, len(tracks))
	artists := make([]string, 0, len(tracks))
	for _, t := range tracks {
		if _, ok := seen[t.Artist]; ok {
			continue
		}
		seen[t.Artist] = struct{}{}
		artists = append(artists, t.Artist)
	}
	return artists
}

// Describe builds the playlist description from the accepted tracks' artists.
func Describe(tracks []AcceptedTrack) string {
	return "Songs by " + strings.Join(DistinctArtists(tracks), ", ")
}

// TrackIDs returns the ids of tracks in order.
func TrackIDs(tracks []AcceptedTrack) []string {
	ids := make([]string, len(tracks))
	for i, t := range tracks {
		ids[i] = t.ID
	}
	return ids
}
