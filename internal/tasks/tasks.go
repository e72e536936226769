package tasks

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/bbcx/internal/matching"
	"github.com/desertthunder/bbcx/internal/models"
	"github.com/desertthunder/bbcx/internal/services"
	"github.com/desertthunder/bbcx/internal/shared"
	"golang.org/x/time/rate"
)

// DefaultSearchLimit is how many candidates are requested per entry.
const DefaultSearchLimit = 5

// EntryResult records how one tracklist entry was resolved.
type EntryResult struct {
	Position       int                     `json:"position"` // 1-based position in the tracklist
	Entry          string                  `json:"entry"`
	Outcome        matching.Outcome        `json:"outcome"`
	Candidate      *models.SearchCandidate `json:"candidate,omitempty"` // Evaluated candidate (nil if none)
	Track          *models.AcceptedTrack   `json:"track,omitempty"`     // Accepted track (nil unless accepted)
	ExpectedArtist string                  `json:"expected_artist,omitempty"`
	ExpectedTitle  string                  `json:"expected_title,omitempty"`
	Err            error                   `json:"-"`
}

// ErrMessage returns the entry's error message, empty when there was none.
func (r EntryResult) ErrMessage() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// BuildResult contains all data from a build.
type BuildResult struct {
	RunID         string                 `json:"run_id"`
	DryRun        bool                   `json:"dry_run"`
	Playlist      *models.Playlist       `json:"playlist"`
	Entries       []EntryResult          `json:"entries"`
	Accepted      []models.AcceptedTrack `json:"accepted"`
	Total         int                    `json:"total"`
	AcceptedCount int                    `json:"accepted_count"`
	RejectedCount int                    `json:"rejected_count"` // Total minus accepted
}

// Outcomes counts entries per outcome.
func (r *BuildResult) Outcomes() map[matching.Outcome]int {
	counts := make(map[matching.Outcome]int)
	for _, e := range r.Entries {
		counts[e.Outcome]++
	}
	return counts
}

// BuilderOpts configures a [PlaylistBuilder].
type BuilderOpts struct {
	Matcher     *matching.Matcher
	SearchLimit int     // Candidates requested per search, [DefaultSearchLimit] when unset
	RateLimit   float64 // Searches per second, unlimited when zero
	Public      bool
	DryRun      bool // Match only; no playlist is created
	Logger      *log.Logger
}

// PlaylistBuilder builds a playlist from raw tracklist entries against a catalog.
type PlaylistBuilder struct {
	catalog     services.Catalog
	matcher     *matching.Matcher
	limiter     *rate.Limiter
	searchLimit int
	public      bool
	dryRun      bool
	logger      *log.Logger
}

// NewPlaylistBuilder creates a PlaylistBuilder for catalog.
func NewPlaylistBuilder(catalog services.Catalog, opts BuilderOpts) *PlaylistBuilder {
	b := &PlaylistBuilder{
		catalog:     catalog,
		matcher:     opts.Matcher,
		searchLimit: opts.SearchLimit,
		public:      opts.Public,
		dryRun:      opts.DryRun,
		logger:      opts.Logger,
	}

	if b.matcher == nil {
		b.matcher = matching.NewMatcher(matching.DefaultMaxDistance)
	}
	if b.searchLimit <= 0 {
		b.searchLimit = DefaultSearchLimit
	}
	if b.logger == nil {
		b.logger = shared.NewLogger(io.Discard)
	}
	if opts.RateLimit > 0 {
		b.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}
	return b
}

// sendProgress sends a progress update through the channel without blocking.
func (b *PlaylistBuilder) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Build searches, matches, and creates the playlist name from entries.
//
// On a create or add failure the partial result is returned with the error.
func (b *PlaylistBuilder) Build(ctx context.Context, progress chan<- ProgressUpdate, entries []string, name string) (*BuildResult, error) {
	if b.catalog == nil {
		return nil, fmt.Errorf("%w: catalog not initialized", shared.ErrServiceUnavailable)
	}

	result := &BuildResult{
		RunID:   shared.GenerateID(),
		DryRun:  b.dryRun,
		Entries: make([]EntryResult, 0, len(entries)),
		Total:   len(entries),
	}
	logger := shared.WithLogger(b.logger, "run", result.RunID, "catalog", b.catalog.Name())
	logger.Info("starting build", "playlist", name, "entries", len(entries), "dry_run", b.dryRun)

	total := len(entries)
	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		b.sendProgress(progress, searchTracksUpdate(i+1, total, entry))

		er, err := b.resolve(ctx, logger, i+1, entry)
		if err != nil {
			return result, err
		}

		result.Entries = append(result.Entries, er)
		if er.Track != nil {
			result.Accepted = append(result.Accepted, *er.Track)
		}
		b.sendProgress(progress, matchTrackUpdate(i+1, total, &result.Entries[len(result.Entries)-1]))
	}

	result.AcceptedCount = len(result.Accepted)
	result.RejectedCount = result.Total - result.AcceptedCount

	result.Playlist = &models.Playlist{
		Name:        name,
		Public:      b.public,
		Description: models.Describe(result.Accepted),
		TrackIDs:    models.TrackIDs(result.Accepted),
	}

	b.sendProgress(progress, creatingPlaylistUpdate(name, b.dryRun))
	if b.dryRun {
		logger.Info("dry run complete", "accepted", result.AcceptedCount, "rejected", result.RejectedCount)
		return result, nil
	}

	id, err := b.catalog.CreatePlaylist(ctx, name, b.public, result.Playlist.Description)
	if err != nil {
		return result, fmt.Errorf("%w: %w", shared.ErrPlaylistCreation, err)
	}
	result.Playlist.ID = id
	b.sendProgress(progress, createdPlaylistUpdate(result.Playlist))
	logger.Info("created playlist", "id", id, "name", name)

	if len(result.Accepted) > 0 {
		b.sendProgress(progress, addTracksUpdate(len(result.Accepted)))
		if err := b.catalog.AddTracks(ctx, id, result.Playlist.TrackIDs); err != nil {
			return result, fmt.Errorf("%w: playlist %s: %w", shared.ErrTrackAddition, id, err)
		}
	}

	logger.Info("build complete", "accepted", result.AcceptedCount, "rejected", result.RejectedCount)
	return result, nil
}

// resolve searches for one entry and evaluates its top candidate.
// Only context errors are returned; everything else is recorded on the result.
func (b *PlaylistBuilder) resolve(ctx context.Context, logger *log.Logger, position int, entry string) (EntryResult, error) {
	er := EntryResult{Position: position, Entry: entry}

	if b.limiter != nil {
		if err := b.limiter.Wait(ctx); err != nil {
			return er, err
		}
	}

	candidates, err := b.catalog.Search(ctx, entry, b.searchLimit)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return er, ctxErr
		}
		logger.Warn("search failed", "entry", entry, "error", err)
		er.Outcome = matching.SearchFailed
		er.Err = fmt.Errorf("%w: %w", shared.ErrSearch, err)
		return er, nil
	}

	track, verdict := b.matcher.Select(entry, candidates)
	er.Outcome = verdict.Outcome
	er.Candidate = verdict.Candidate
	er.Track = track
	er.ExpectedArtist = verdict.ExpectedArtist
	er.ExpectedTitle = verdict.ExpectedTitle
	er.Err = verdict.Err

	switch verdict.Outcome {
	case matching.Accepted:
		logger.Debug("accepted", "entry", entry, "track", track.ID)
	case matching.Rejected:
		logger.Info("not found", "title", verdict.ExpectedTitle, "artist", verdict.ExpectedArtist, "top", verdict.Candidate.String())
	case matching.NotFound:
		logger.Info("not found", "entry", entry)
	case matching.Skipped:
		logger.Warn("skipping entry", "entry", entry, "error", verdict.Err)
	}
	return er, nil
}
