// Spotify Web API implementation of [Catalog]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/desertthunder/bbcx/internal/models"
	"github.com/desertthunder/bbcx/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	// maxTracksPerRequest is the Web API limit for adding items to a playlist.
	maxTracksPerRequest = 100
	maxSearchLimit      = 50
	trackURIPrefix      = "spotify:track:"
)

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Country     string `json:"country"`
	Product     string `json:"product"` // premium, free, etc.
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      SpotifyAlbum    `json:"album"`
	DurationMS int             `json:"duration_ms"`
	Popularity int             `json:"popularity"`
	URI        string          `json:"uri"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ReleaseDate string `json:"release_date"`
	URI         string `json:"uri"`
}

// SpotifySearchResponse is the body of GET /search with type=track.
type SpotifySearchResponse struct {
	Tracks struct {
		Items []SpotifyTrack `json:"items"`
		Total int            `json:"total"`
	} `json:"tracks"`
}

// SpotifyPlaylist represents the parts of a created playlist this client reads.
type SpotifyPlaylist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Public      bool   `json:"public"`
	URI         string `json:"uri"`
}

type createPlaylistRequest struct {
	Name        string `json:"name"`
	Public      bool   `json:"public"`
	Description string `json:"description"`
}

type addTracksRequest struct {
	URIs []string `json:"uris"`
}

// Candidate converts a Spotify track to a [models.SearchCandidate].
func (t SpotifyTrack) Candidate() models.SearchCandidate {
	c := models.SearchCandidate{
		ID:    t.ID,
		URI:   t.URI,
		Name:  t.Name,
		Album: t.Album.Name,
	}
	if len(t.Artists) > 0 {
		c.Artist = t.Artists[0].Name
	}
	return c
}

// SpotifyOption configures a [SpotifyService].
type SpotifyOption func(*SpotifyService)

// WithBaseURL points the service at a different API root.
func WithBaseURL(u string) SpotifyOption {
	return func(s *SpotifyService) { s.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient sets the client used for API calls and token refreshes.
func WithHTTPClient(c *http.Client) SpotifyOption {
	return func(s *SpotifyService) { s.baseClient = c }
}

// SpotifyService implements [OAuthService] for the Spotify Web API.
type SpotifyService struct {
	config         *oauth2.Config
	token          *oauth2.Token
	baseURL        string
	baseClient     *http.Client
	httpClient     *http.Client
	owner          string
	onTokenRefresh func(*oauth2.Token)
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
//
// Recognized keys are client_id, client_secret, redirect_uri and username.
func NewSpotifyService(credentials map[string]string, opts ...SpotifyOption) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = "http://127.0.0.1:3000/callback"
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"playlist-modify-public",
			"playlist-modify-private",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	s := &SpotifyService{
		config:     config,
		baseURL:    spotifyBaseURL,
		baseClient: http.DefaultClient,
		owner:      credentials["username"],
	}
	for _, opt := range opts {
		opt(s)
	}
	s.httpClient = s.baseClient

	return s, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// GetOAuthConfig returns the OAuth2 client configuration.
func (s *SpotifyService) GetOAuthConfig() *oauth2.Config {
	return s.config
}

// SetTokenRefreshCallback registers fn to be called whenever a new access token is obtained.
func (s *SpotifyService) SetTokenRefreshCallback(fn func(*oauth2.Token)) {
	s.onTokenRefresh = fn
}

// Authenticate installs credentials from a map. Expects either an "access_token" or "auth_code".
func (s *SpotifyService) Authenticate(ctx context.Context, credentials map[string]string) error {
	if accessToken, ok := credentials["access_token"]; ok && accessToken != "" {
		return s.OAuthenticate(ctx, &oauth2.Token{
			AccessToken:  accessToken,
			RefreshToken: credentials["refresh_token"],
		})
	}

	if authCode, ok := credentials["auth_code"]; ok && authCode != "" {
		token, err := s.config.Exchange(s.clientContext(ctx), authCode)
		if err != nil {
			return fmt.Errorf("%w: failed to exchange auth code: %v", shared.ErrAuthFailed, err)
		}
		return s.OAuthenticate(ctx, token)
	}

	return fmt.Errorf("%w: missing access_token or auth_code", shared.ErrMissingCredentials)
}

// OAuthenticate installs token. Expired tokens with a refresh token are refreshed on first use.
func (s *SpotifyService) OAuthenticate(ctx context.Context, token *oauth2.Token) error {
	if token == nil || (token.AccessToken == "" && token.RefreshToken == "") {
		return fmt.Errorf("%w: empty token", shared.ErrNotAuthenticated)
	}

	ctx = s.clientContext(ctx)
	s.token = token
	ts := &refreshableTokenSource{
		base:      s.config.TokenSource(ctx, token),
		last:      token.AccessToken,
		onRefresh: s.notifyRefresh,
	}
	s.httpClient = oauth2.NewClient(ctx, ts)
	return nil
}

func (s *SpotifyService) notifyRefresh(token *oauth2.Token) {
	s.token = token
	if s.onTokenRefresh != nil {
		s.onTokenRefresh(token)
	}
}

// clientContext carries the base client so oauth2 uses it for refreshes too.
func (s *SpotifyService) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, s.baseClient)
}

// refreshableTokenSource reports each newly minted access token.
type refreshableTokenSource struct {
	base      oauth2.TokenSource
	mu        sync.Mutex
	last      string
	onRefresh func(*oauth2.Token)
}

func (r *refreshableTokenSource) Token() (*oauth2.Token, error) {
	token, err := r.base.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrTokenExpired, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if token.AccessToken != r.last {
		r.last = token.AccessToken
		if r.onRefresh != nil {
			r.onRefresh(token)
		}
	}
	return token, nil
}

// doRequest performs an authenticated request against the Web API, encoding body and decoding into result when non-nil.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, body any, result any) error {
	if s.token == nil {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, shared.ErrTokenExpired) {
			return fmt.Errorf("%w: %v", shared.ErrTokenExpired, err)
		}
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: spotify API returned 401", shared.ErrTokenExpired)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		msg := fmt.Sprintf("spotify API error: status %d", resp.StatusCode)
		if retry := resp.Header.Get("Retry-After"); retry != "" {
			msg += fmt.Sprintf(" (retry after %ss)", retry)
		}
		if len(snippet) > 0 {
			msg += ": " + strings.TrimSpace(string(snippet))
		}
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, msg)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// UserProfile retrieves the current authenticated user's profile.
func (s *SpotifyService) UserProfile(ctx context.Context) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Owner returns the configured username, falling back to the authenticated user's id.
func (s *SpotifyService) Owner(ctx context.Context) (string, error) {
	if s.owner != "" {
		return s.owner, nil
	}

	user, err := s.UserProfile(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to resolve playlist owner: %w", err)
	}
	s.owner = user.ID
	return s.owner, nil
}

// SearchTracks performs a track search and returns the raw Spotify tracks.
func (s *SpotifyService) SearchTracks(ctx context.Context, query string, limit int) ([]SpotifyTrack, error) {
	if limit <= 0 {
		limit = 5
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "track")
	params.Set("limit", fmt.Sprint(limit))

	var response SpotifySearchResponse
	if err := s.doRequest(ctx, http.MethodGet, "/search?"+params.Encode(), nil, &response); err != nil {
		return nil, err
	}
	return response.Tracks.Items, nil
}

// Catalog interface implementation

// Search returns up to limit tracks for query, in Spotify's relevance order.
func (s *SpotifyService) Search(ctx context.Context, query string, limit int) ([]models.SearchCandidate, error) {
	tracks, err := s.SearchTracks(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	candidates := make([]models.SearchCandidate, 0, len(tracks))
	for _, t := range tracks {
		candidates = append(candidates, t.Candidate())
	}
	return candidates, nil
}

// CreatePlaylist creates a playlist owned by [SpotifyService.Owner].
func (s *SpotifyService) CreatePlaylist(ctx context.Context, name string, public bool, description string) (string, error) {
	owner, err := s.Owner(ctx)
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("/users/%s/playlists", url.PathEscape(owner))
	body := createPlaylistRequest{Name: name, Public: public, Description: description}

	var playlist SpotifyPlaylist
	if err := s.doRequest(ctx, http.MethodPost, endpoint, body, &playlist); err != nil {
		return "", err
	}
	if playlist.ID == "" {
		return "", fmt.Errorf("%w: response carried no playlist id", shared.ErrAPIRequest)
	}
	return playlist.ID, nil
}

// AddTracks appends tracks to a playlist, 100 per request as the API requires.
func (s *SpotifyService) AddTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	if len(trackIDs) == 0 {
		return nil
	}

	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))
	uris := make([]string, len(trackIDs))
	for i, id := range trackIDs {
		uris[i] = TrackURI(id)
	}

	for start := 0; start < len(uris); start += maxTracksPerRequest {
		end := min(start+maxTracksPerRequest, len(uris))
		if err := s.doRequest(ctx, http.MethodPost, endpoint, addTracksRequest{URIs: uris[start:end]}, nil); err != nil {
			return fmt.Errorf("failed to add tracks %d-%d: %w", start+1, end, err)
		}
	}
	return nil
}

// TrackURI turns a bare track id into a Spotify track URI.
func TrackURI(id string) string {
	if strings.HasPrefix(id, "spotify:") {
		return id
	}
	return trackURIPrefix + id
}
