// package services defines the catalog interfaces used by the playlist builder
//
// Spotify
package services

import (
	"context"

	"github.com/desertthunder/bbcx/internal/models"
	"golang.org/x/oauth2"
)

// Catalog is the remote music catalog the playlist builder searches and writes to.
type Catalog interface {
	// Search returns up to limit tracks for query, most relevant first.
	Search(ctx context.Context, query string, limit int) ([]models.SearchCandidate, error)

	// CreatePlaylist creates a playlist owned by the configured user and returns its id.
	CreatePlaylist(ctx context.Context, name string, public bool, description string) (string, error)

	// AddTracks appends the tracks, in order, to an existing playlist.
	AddTracks(ctx context.Context, playlistID string, trackIDs []string) error

	// Name returns the name of the catalog (e.g., "Spotify")
	Name() string
}

// CatalogFuncs adapts plain functions to [Catalog].
type CatalogFuncs struct {
	SearchFunc         func(ctx context.Context, query string, limit int) ([]models.SearchCandidate, error)
	CreatePlaylistFunc func(ctx context.Context, name string, public bool, description string) (string, error)
	AddTracksFunc      func(ctx context.Context, playlistID string, trackIDs []string) error
	CatalogName        string
}

func (f CatalogFuncs) Search(ctx context.Context, query string, limit int) ([]models.SearchCandidate, error) {
	return f.SearchFunc(ctx, query, limit)
}

func (f CatalogFuncs) CreatePlaylist(ctx context.Context, name string, public bool, description string) (string, error) {
	return f.CreatePlaylistFunc(ctx, name, public, description)
}

func (f CatalogFuncs) AddTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	return f.AddTracksFunc(ctx, playlistID, trackIDs)
}

func (f CatalogFuncs) Name() string {
	if f.CatalogName == "" {
		return "catalog"
	}
	return f.CatalogName
}

// OAuthService is a [Catalog] that authenticates with the OAuth2 authorization code flow.
type OAuthService interface {
	Catalog

	// GetAuthURL returns the URL the user visits to grant access.
	GetAuthURL(state string) string

	// GetOAuthConfig exposes the client configuration for the callback handler's code exchange.
	GetOAuthConfig() *oauth2.Config

	// OAuthenticate installs token, refreshing it as needed.
	OAuthenticate(ctx context.Context, token *oauth2.Token) error
}
