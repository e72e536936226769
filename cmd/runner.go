package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/bbcx/internal/services"
	"github.com/desertthunder/bbcx/internal/shared"
	"github.com/desertthunder/bbcx/internal/sounds"
	"github.com/desertthunder/bbcx/internal/ui"
	"github.com/urfave/cli/v3"
)

// EpisodeSource loads a tracklist and show title from an episode page.
type EpisodeSource interface {
	Episode(ctx context.Context, pageURL string) (*sounds.Episode, error)
}

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The catalog and episode source are built on first use from the loaded config unless injected.
type Runner struct {
	config      *shared.Config
	configPath  string
	catalog     services.Catalog
	source      EpisodeSource
	httpClient  *http.Client
	logger      *log.Logger
	output      io.Writer
	painter     ui.Painter
	openBrowser func(string) error
	authTimeout time.Duration
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config      *shared.Config
	ConfigPath  string
	Catalog     services.Catalog
	Source      EpisodeSource
	HTTPClient  *http.Client
	Logger      *log.Logger
	Output      io.Writer
	Painter     ui.Painter
	OpenBrowser func(string) error
	AuthTimeout time.Duration
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Painter == nil {
		opts.Painter = ui.Styles
	}
	if opts.OpenBrowser == nil {
		opts.OpenBrowser = shared.OpenBrowser
	}
	if opts.AuthTimeout <= 0 {
		opts.AuthTimeout = 2 * time.Minute
	}

	return &Runner{
		config:      opts.Config,
		configPath:  opts.ConfigPath,
		catalog:     opts.Catalog,
		source:      opts.Source,
		httpClient:  opts.HTTPClient,
		logger:      opts.Logger,
		output:      opts.Output,
		painter:     opts.Painter,
		openBrowser: opts.OpenBrowser,
		authTimeout: opts.AuthTimeout,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		initCommand, authCommand, tracklistCommand, buildCommand, matchCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// setup loads config.toml and the dotenv file named by the global flags before any command runs.
func (r *Runner) setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}
	if cmd.Bool("no-color") {
		r.painter = ui.Plain{}
	}

	r.configPath = cmd.String("config")
	if _, err := os.Stat(r.configPath); err == nil {
		config, err := shared.LoadConfig(r.configPath)
		if err != nil {
			return ctx, err
		}
		r.config = config
	} else {
		r.logger.Debug("config file not found, using defaults", "path", r.configPath)
	}

	lookup, err := shared.EnvLookup(cmd.String("env"))
	if err != nil {
		return ctx, err
	}
	r.config.ApplyEnv(lookup)

	return ctx, nil
}

// episodeSource returns the injected source or a scraper built from the [sounds] config section.
func (r *Runner) episodeSource() EpisodeSource {
	if r.source == nil {
		r.source = sounds.NewScraper(sounds.ScraperOpts{
			Timeout:     time.Duration(r.config.Sounds.TimeoutSeconds) * time.Second,
			UserAgent:   r.config.Sounds.UserAgent,
			TitlePrefix: r.config.Playlist.TitlePrefix,
		})
	}
	return r.source
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
