package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/bbcx/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)
	app := newApp(NewRunner(RunnerOpts{Logger: logger}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, os.Args); err != nil {
		stop()
		logger.Fatalf("application error: %v", err)
	}
}

func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "bbcx",
		Usage:   "Turn BBC Sounds tracklists into Spotify playlists",
		Version: "0.1.0",
		Writer:  r.output,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.StringFlag{
				Name:  "env",
				Usage: "Path to a .env file with Spotify credentials",
				Value: ".env",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable debug logging",
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "Disable colored output",
			},
		},
		Before:   r.setup,
		Commands: r.register(),
	}
}
