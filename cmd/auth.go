package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/bbcx/internal/services"
	"github.com/desertthunder/bbcx/internal/shared"
	"github.com/urfave/cli/v3"
)

// Init writes the default config file to the --config path.
func (r *Runner) Init(ctx context.Context, cmd *cli.Command) error {
	if err := shared.CreateConfigFile(r.configPath); err != nil {
		return err
	}

	r.writePlain("%s\n", r.painter.OK("✓ Created "+r.configPath))
	r.writePlain("%s\n", r.painter.Help("Add your Spotify client_id and client_secret, then run: bbcx auth"))
	return nil
}

// Auth performs the OAuth2 authorization code flow for Spotify.
//
// Starts a local HTTP server, opens the browser for user authorization, and saves the exchanged tokens.
func (r *Runner) Auth(ctx context.Context, cmd *cli.Command) error {
	creds := r.config.Credentials.Spotify
	if !creds.HasClient() {
		return fmt.Errorf("%w: Spotify client_id and client_secret must be set in %s or the environment",
			shared.ErrMissingCredentials, r.configPath)
	}

	spotify, err := services.NewSpotifyService(creds.Map(), services.WithHTTPClient(r.httpClient))
	if err != nil {
		return fmt.Errorf("failed to create Spotify service: %w", err)
	}

	token, err := r.doOAuth(ctx, spotify)
	if err != nil {
		return fmt.Errorf("authorization failed: %w", err)
	}

	if err := r.saveTokens(token); err != nil {
		return err
	}

	r.writePlainln("%s", r.painter.OK("✓ Authorization successful"))
	r.writePlain("✓ Tokens saved to %s\n", r.configPath)

	if err := spotify.OAuthenticate(ctx, token); err == nil {
		if user, err := spotify.UserProfile(ctx); err != nil {
			r.logger.Warn("could not fetch profile", "error", err)
		} else {
			r.writePlain("Signed in as %s (%s)\n", user.DisplayName, user.ID)
		}
	}

	r.writePlain("\n%s\n", r.painter.Help("You can now use: bbcx build --url <episode url>"))
	return nil
}
