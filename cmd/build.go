package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/desertthunder/bbcx/internal/formatter"
	"github.com/desertthunder/bbcx/internal/matching"
	"github.com/desertthunder/bbcx/internal/shared"
	"github.com/desertthunder/bbcx/internal/sounds"
	"github.com/desertthunder/bbcx/internal/tasks"
	"github.com/desertthunder/bbcx/internal/ui"
	"github.com/urfave/cli/v3"
)

// owner is implemented by catalogs that can confirm their credentials before any writes.
type owner interface {
	Owner(ctx context.Context) (string, error)
}

// Tracklist fetches an episode's tracklist and prints it or writes it to --output.
func (r *Runner) Tracklist(ctx context.Context, cmd *cli.Command) error {
	pageURL := cmd.String("url")
	output := cmd.String("output")

	r.logger.Info("fetching tracklist", "url", pageURL)
	episode, err := r.episodeSource().Episode(ctx, pageURL)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(episode, true)
	}

	if output == "" {
		return sounds.WriteTracklist(r.output, episode.Entries)
	}

	if err := sounds.SaveTracklist(output, episode.Entries); err != nil {
		return err
	}

	r.writePlain("%s\n", r.painter.OK(fmt.Sprintf("✓ Saved %d entries to %s", len(episode.Entries), output)))
	if episode.Title != "" {
		r.writePlain("  Episode: %s\n", episode.Title)
	}
	return nil
}

// loadEntries reads entries from --url or --file and picks the playlist name.
func (r *Runner) loadEntries(ctx context.Context, cmd *cli.Command) ([]string, string, error) {
	pageURL := cmd.String("url")
	file := cmd.String("file")
	name := cmd.String("name")

	switch {
	case pageURL != "" && file != "":
		return nil, "", fmt.Errorf("%w: use either --url or --file, not both", shared.ErrInvalidArgument)
	case pageURL == "" && file == "":
		return nil, "", fmt.Errorf("%w: --url or --file is required", shared.ErrMissingArgument)
	}

	if file != "" {
		entries, err := sounds.LoadTracklist(file)
		if err != nil {
			return nil, "", err
		}
		if name == "" {
			return nil, "", fmt.Errorf("%w: --name is required with --file", shared.ErrMissingArgument)
		}
		return entries, name, nil
	}

	r.logger.Info("fetching tracklist", "url", pageURL)
	episode, err := r.episodeSource().Episode(ctx, pageURL)
	if err != nil {
		return nil, "", err
	}
	if name == "" {
		name = episode.Title
	}
	if name == "" {
		return nil, "", fmt.Errorf("%w: episode has no title, pass --name", shared.ErrMissingArgument)
	}
	return episode.Entries, name, nil
}

// Build runs the tracklist to playlist pipeline.
//
// Rejected entries are reported but do not fail the command; source, credential, and remote write failures do.
func (r *Runner) Build(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	entries, name, err := r.loadEntries(ctx, cmd)
	if err != nil {
		return err
	}

	catalog, err := r.spotifyCatalog(ctx)
	if err != nil {
		return err
	}

	dryRun := cmd.Bool("dry-run")
	if o, ok := catalog.(owner); ok && !dryRun {
		id, err := o.Owner(ctx)
		if err != nil {
			return authHint(err)
		}
		r.logger.Debug("resolved playlist owner", "owner", id)
	}

	cfg := r.config.Matching
	builder := tasks.NewPlaylistBuilder(catalog, tasks.BuilderOpts{
		Matcher:     matching.NewMatcher(cfg.MaxDistance),
		SearchLimit: cfg.SearchLimit,
		RateLimit:   cfg.RateLimit,
		Public:      r.config.Playlist.Public && !cmd.Bool("private"),
		DryRun:      dryRun,
		Logger:      r.logger,
	})

	r.writePlain("%s\n", r.painter.Title(fmt.Sprintf("Building %q from %d entries", name, len(entries))))

	progress := make(chan tasks.ProgressUpdate, 64)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		r.printProgress(progress)
	}()

	result, buildErr := builder.Build(ctx, progress, entries, name)
	close(progress)
	wg.Wait()

	if result != nil {
		if path := cmd.String("report"); path != "" {
			if err := formatter.WriteReport(result, path, format); err != nil {
				r.logger.Error("failed to write report", "error", err)
			} else {
				r.logger.Info("report written", "path", path, "format", format)
			}
		}

		if cmd.Bool("json") {
			if err := r.writeJSON(result, true); err != nil {
				return err
			}
		} else {
			r.writePlainln("%s", ui.Summary(r.painter, result))
		}
	}

	if buildErr != nil {
		return authHint(buildErr)
	}
	return nil
}

func (r *Runner) printProgress(progress <-chan tasks.ProgressUpdate) {
	for update := range progress {
		switch update.Phase {
		case tasks.SearchTracks:
			r.logger.Debug(update.Message)
		case tasks.MatchTrack:
			if result, ok := update.Data.(*tasks.EntryResult); ok {
				r.writePlain("%s\n", ui.Outcome(r.painter, result.Outcome, update.Message))
			}
		default:
			r.writePlain("%s\n", r.painter.Help(update.Message))
		}
	}
}

// matchReport explains a match decision.
type matchReport struct {
	A           string `json:"a"`
	B           string `json:"b"`
	NormalizedA string `json:"normalized_a"`
	NormalizedB string `json:"normalized_b"`
	Distance    int    `json:"distance"`
	MaxDistance int    `json:"max_distance"`
	Match       bool   `json:"match"`
}

// Match evaluates the match predicate on two strings.
func (r *Runner) Match(ctx context.Context, cmd *cli.Command) error {
	a, b := cmd.StringArg("a"), cmd.StringArg("b")
	if a == "" || b == "" {
		return fmt.Errorf("%w: two names are required", shared.ErrMissingArgument)
	}

	maxDistance := cmd.Int("max-distance")
	if maxDistance <= 0 {
		maxDistance = r.config.Matching.MaxDistance
	}
	if maxDistance <= 0 {
		maxDistance = matching.DefaultMaxDistance
	}

	matcher := matching.NewMatcher(maxDistance)
	report := matchReport{
		A:           a,
		B:           b,
		NormalizedA: matching.Normalize(a),
		NormalizedB: matching.Normalize(b),
		MaxDistance: maxDistance,
		Match:       matcher.Match(a, b),
	}
	report.Distance = matching.Distance(report.NormalizedA, report.NormalizedB)

	if cmd.Bool("json") {
		return r.writeJSON(report, false)
	}

	verdict := r.painter.Err("✗ no match")
	if report.Match {
		verdict = r.painter.OK("✓ match")
	}
	r.writePlain("%s\n", verdict)
	r.writePlain("  %q → %q\n", a, report.NormalizedA)
	r.writePlain("  %q → %q\n", b, report.NormalizedB)
	r.writePlain("  distance %d (max %d)\n", report.Distance, report.MaxDistance)
	return nil
}
