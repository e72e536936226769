// Package tasks turns a tracklist into a playlist with real-time progress reporting.
//
// # Build
//
// [PlaylistBuilder.Build] runs the whole pipeline for one tracklist:
//
//  1. Searches the catalog for every raw entry, in broadcast order
//  2. Evaluates the top candidate with a [matching.Matcher]
//  3. Creates the playlist, described by the distinct accepted artists
//  4. Adds the accepted tracks, when there are any
//
// A failed search only affects its own entry. A failed create or add ends the run; the partial [BuildResult] is
// returned alongside the error and nothing is rolled back.
//
// # Progress Reporting
//
// Updates are sent over a channel with select and default so a slow reader never stalls a build.
// [ProgressUpdate.Data] carries the [EntryResult] for match updates and the created [models.Playlist].
package tasks
