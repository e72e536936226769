package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/desertthunder/bbcx/internal/server"
	"github.com/desertthunder/bbcx/internal/services"
	"github.com/desertthunder/bbcx/internal/shared"
	"golang.org/x/oauth2"
)

// spotifyCatalog returns the injected catalog or a Spotify service authenticated with the saved tokens.
func (r *Runner) spotifyCatalog(ctx context.Context) (services.Catalog, error) {
	if r.catalog != nil {
		return r.catalog, nil
	}

	creds := r.config.Credentials.Spotify
	if !creds.HasClient() {
		return nil, fmt.Errorf("%w: set client_id and client_secret in %s or CLIENT_ID and CLIENT_SECRET in the environment",
			shared.ErrMissingCredentials, r.configPath)
	}

	spotify, err := services.NewSpotifyService(creds.Map(), services.WithHTTPClient(r.httpClient))
	if err != nil {
		return nil, err
	}

	if err := spotify.OAuthenticate(ctx, creds.Token()); err != nil {
		return nil, fmt.Errorf("%w (run `bbcx auth` first)", err)
	}
	spotify.SetTokenRefreshCallback(func(token *oauth2.Token) {
		if err := r.saveTokens(token); err != nil {
			r.logger.Warn("failed to save refreshed token", "error", err)
		} else {
			r.logger.Debug("saved refreshed token", "path", r.configPath)
		}
	})

	r.catalog = spotify
	return spotify, nil
}

// saveTokens stores token in the config and writes it to the config path, when one is set.
func (r *Runner) saveTokens(token *oauth2.Token) error {
	if r.config == nil {
		return fmt.Errorf("%w: config is nil", shared.ErrMissingConfig)
	}

	if err := r.config.Credentials.Spotify.Update(token); err != nil {
		return fmt.Errorf("failed to update spotify configuration: %w", err)
	}

	if r.configPath == "" {
		return nil
	}

	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

// doOAuth executes the OAuth2 authorization flow with a local HTTP server
func (r *Runner) doOAuth(ctx context.Context, oauthSrv services.OAuthService) (*oauth2.Token, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	authURL := oauthSrv.GetAuthURL(state)
	oauthHandler := server.NewOAuthHandler(oauthSrv.GetOAuthConfig(), state).WithHTTPClient(r.httpClient)
	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(r.logger))
	router.Handler(oauthHandler)

	addr := net.JoinHostPort(r.config.Server.Host, strconv.Itoa(r.config.Server.Port))
	callbackServer := server.NewCallbackServer(addr, router)
	if err := callbackServer.Start(); err != nil {
		return nil, err
	}
	r.logger.Info("started OAuth callback server", "addr", callbackServer.Addr(), "routes", oauthHandler.Routes())

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := callbackServer.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("error shutting down server", "error", err)
		}
	}()

	r.writePlain("→ Opening browser for Spotify authorization...\n")
	if err := r.openBrowser(authURL); err != nil {
		r.logger.Warn("failed to open browser automatically", "error", err)
		r.writePlainln("%s", r.painter.Warn("⚠ Could not open browser automatically."))
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (%s timeout)...\n", r.authTimeout)

	waitCtx, cancel := context.WithTimeout(ctx, r.authTimeout)
	defer cancel()

	return oauthHandler.Wait(waitCtx, callbackServer.Errors())
}

// authHint adds the re-authorization instruction to errors caused by missing or rejected tokens.
func authHint(err error) error {
	if errors.Is(err, shared.ErrTokenExpired) || errors.Is(err, shared.ErrNotAuthenticated) {
		return fmt.Errorf("%w (run `bbcx auth` to sign in again)", err)
	}
	return err
}
