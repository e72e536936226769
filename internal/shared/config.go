package shared

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"golang.org/x/oauth2"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Server      ServerConfig      `toml:"server"`
	Matching    MatchingConfig    `toml:"matching"`
	Playlist    PlaylistConfig    `toml:"playlist"`
	Sounds      SoundsConfig      `toml:"sounds"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API credentials and the most recent OAuth2 tokens.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
	Username     string `toml:"username"`
	AccessToken  string `toml:"access_token"`
	RefreshToken string `toml:"refresh_token"`
	TokenType    string `toml:"token_type"`
	Expiry       string `toml:"expiry"` // RFC 3339
}

// ServerConfig contains settings for the local OAuth callback server.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// MatchingConfig tunes catalog search and the match predicate.
type MatchingConfig struct {
	MaxDistance int     `toml:"max_distance"`
	SearchLimit int     `toml:"search_limit"`
	RateLimit   float64 `toml:"rate_limit"` // searches per second, 0 disables
}

// PlaylistConfig contains defaults for created playlists.
type PlaylistConfig struct {
	Public      bool   `toml:"public"`
	TitlePrefix string `toml:"title_prefix"`
}

// SoundsConfig contains settings for fetching BBC Sounds pages.
type SoundsConfig struct {
	UserAgent      string `toml:"user_agent"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Map returns the credentials in the form expected by services.NewSpotifyService.
func (s SpotifyConfig) Map() map[string]string {
	return map[string]string{
		"client_id":     s.ClientID,
		"client_secret": s.ClientSecret,
		"redirect_uri":  s.RedirectURI,
		"username":      s.Username,
	}
}

// HasClient reports whether client credentials are present.
func (s SpotifyConfig) HasClient() bool {
	return s.ClientID != "" && s.ClientSecret != ""
}

// Token builds an [oauth2.Token] from the stored values, or nil when no token has been saved.
func (s SpotifyConfig) Token() *oauth2.Token {
	if s.AccessToken == "" && s.RefreshToken == "" {
		return nil
	}
	token := &oauth2.Token{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		TokenType:    s.TokenType,
	}
	if s.Expiry != "" {
		if expiry, err := time.Parse(time.RFC3339, s.Expiry); err == nil {
			token.Expiry = expiry
		}
	}
	return token
}

// Update stores the given token. A token without a refresh token keeps the previous one,
// since Spotify omits it on refresh.
func (s *SpotifyConfig) Update(token *oauth2.Token) error {
	if token == nil {
		return fmt.Errorf("%w: nil token", ErrInvalidArgument)
	}
	s.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		s.RefreshToken = token.RefreshToken
	}
	s.TokenType = token.TokenType
	if token.Expiry.IsZero() {
		s.Expiry = ""
	} else {
		s.Expiry = token.Expiry.UTC().Format(time.RFC3339)
	}
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SaveConfig writes the configuration to path as TOML. The file holds tokens, so it is written 0600.
func SaveConfig(path string, config *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// EnvLookup returns a lookup function over the process environment and the optional dotenv file at path.
//
// Process variables win over file values. A missing file is not an error.
func EnvLookup(path string) (func(string) (string, bool), error) {
	fileEnv := map[string]string{}
	if path != "" {
		values, err := godotenv.Read(path)
		switch {
		case err == nil:
			fileEnv = values
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("%w: failed to read %s: %v", ErrInvalidConfig, path, err)
		}
	}

	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			return v, true
		}
		v, ok := fileEnv[key]
		return v, ok && v != ""
	}, nil
}

// ApplyEnv overrides Spotify credentials with environment values.
//
// Both the bare names (CLIENT_ID, CLIENT_SECRET, REDIRECT_URI, USERNAME) and SPOTIFY_-prefixed
// variants are honored; the prefixed name wins.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if lookup == nil {
		return
	}
	pick := func(name string, dst *string) {
		if v, ok := lookup("SPOTIFY_" + name); ok {
			*dst = v
			return
		}
		if v, ok := lookup(name); ok {
			*dst = v
		}
	}

	spotify := &c.Credentials.Spotify
	pick("CLIENT_ID", &spotify.ClientID)
	pick("CLIENT_SECRET", &spotify.ClientSecret)
	pick("REDIRECT_URI", &spotify.RedirectURI)
	pick("USERNAME", &spotify.Username)
}
