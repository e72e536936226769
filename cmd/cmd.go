// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// initCommand writes a starter config file
func initCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "init",
		Usage:  "Create a config.toml with default settings",
		Action: r.Init,
	}
}

// authCommand handles Spotify authentication
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "auth",
		Usage:  "Authenticate with Spotify using OAuth2 and save tokens to the config file",
		Action: r.Auth,
	}
}

// tracklistCommand scrapes a tracklist without touching Spotify
func tracklistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tracklist",
		Aliases: []string{"tl"},
		Usage:   "Fetch an episode's tracklist from BBC Sounds",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "url",
				Aliases:  []string{"u"},
				Usage:    "BBC Sounds episode URL",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the tracklist to this file instead of stdout",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output the episode as JSON",
			},
		},
		Action: r.Tracklist,
	}
}

// buildCommand runs the full tracklist to playlist pipeline
func buildCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "build",
		Usage: "Build a Spotify playlist from a BBC Sounds episode or tracklist file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "url",
				Aliases: []string{"u"},
				Usage:   "BBC Sounds episode URL",
			},
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "Tracklist file with one \"artist - title\" entry per line",
			},
			&cli.StringFlag{
				Name:    "name",
				Aliases: []string{"n"},
				Usage:   "Playlist name (defaults to the episode title)",
			},
			&cli.BoolFlag{
				Name:  "private",
				Usage: "Create a private playlist",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Search and match only; do not create a playlist",
			},
			&cli.StringFlag{
				Name:    "report",
				Aliases: []string{"r"},
				Usage:   "Write a run report to this file",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "Report format: text, markdown, csv, or json",
				Value: "text",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print the result as JSON",
			},
		},
		Action: r.Build,
	}
}

// matchCommand checks two names against the match predicate
func matchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "match",
		Usage:     "Check whether two titles or artists would be treated as the same",
		ArgsUsage: "<a> <b>",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "a"},
			&cli.StringArg{Name: "b"},
		},
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "max-distance",
				Usage: "Edit distance threshold (defaults to [matching] max_distance)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Match,
	}
}
