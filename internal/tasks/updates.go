package tasks

import (
	"fmt"

	"github.com/desertthunder/bbcx/internal/matching"
	"github.com/desertthunder/bbcx/internal/models"
)

// ProgressUpdate represents a progress event during a build.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data (*EntryResult, *models.Playlist)
}

// Operation phase enumeration
type Phase int

const (
	SearchTracks Phase = iota
	MatchTrack
	CreatePlaylist
	AddTracks
)

func (p Phase) String() string {
	switch p {
	case SearchTracks:
		return "search_tracks"
	case MatchTrack:
		return "match_track"
	case CreatePlaylist:
		return "create_playlist"
	case AddTracks:
		return "add_tracks"
	default:
		return ""
	}
}

func searchTracksUpdate(step, total int, entry string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SearchTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Searching: %s", step, total, entry),
	}
}

func matchTrackUpdate(step, total int, result *EntryResult) ProgressUpdate {
	var msg string
	switch result.Outcome {
	case matching.Accepted:
		msg = fmt.Sprintf("[%d/%d] ✓ %s", step, total, result.Candidate)
	case matching.Rejected:
		msg = fmt.Sprintf("[%d/%d] ✗ Not found: %q by %q (top result: %s)",
			step, total, result.ExpectedTitle, result.ExpectedArtist, result.Candidate)
	case matching.NotFound:
		msg = fmt.Sprintf("[%d/%d] ✗ Not found: %s", step, total, result.Entry)
	case matching.Skipped:
		msg = fmt.Sprintf("[%d/%d] ⚠ Skipped: %v", step, total, result.Err)
	case matching.SearchFailed:
		msg = fmt.Sprintf("[%d/%d] ⚠ Search failed: %s", step, total, result.Entry)
	}

	return ProgressUpdate{
		Phase:   MatchTrack,
		Step:    step,
		Total:   total,
		Message: msg,
		Data:    result,
	}
}

func creatingPlaylistUpdate(name string, dryRun bool) ProgressUpdate {
	msg := fmt.Sprintf("Creating playlist %q...", name)
	if dryRun {
		msg = fmt.Sprintf("Dry run: skipping creation of %q", name)
	}
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    1,
		Total:   1,
		Message: msg,
	}
}

func createdPlaylistUpdate(pl *models.Playlist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Playlist created: %s (ID: %s)", pl.Name, pl.ID),
		Data:    pl,
	}
}

func addTracksUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AddTracks,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Adding %d tracks...", count),
	}
}
