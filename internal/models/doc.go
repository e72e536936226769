// Package models defines the domain entities shared by the tracklist pipeline.
//
//   - [SearchCandidate] : A track returned by a catalog search
//   - [AcceptedTrack] : A candidate that passed title and artist matching
//   - [Playlist] : The created playlist and its ordered track ids
//
// Raw tracklist entries are plain strings of the form "artist - title[ extra]" and have no type of their own.
package models
