// Package services defines the [Catalog] interface the playlist builder talks to and implements it for Spotify.
//
// # Catalog Interface
//
// A catalog searches tracks, creates playlists and appends tracks to them. [CatalogFuncs] adapts plain
// functions to the interface so the builder can be driven without a network in tests.
//
// # Spotify Implementation
//
// [SpotifyService] uses OAuth2 for authentication with automatic token refresh.
//
// The [oauth2.Config.Client] refreshes expired tokens using the refresh token, and
// [SpotifyService.SetTokenRefreshCallback] lets callers persist the new token.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrNotAuthenticated] : no token installed
//   - [shared.ErrTokenExpired] : the API answered 401, reauthorization needed
//   - [shared.ErrAPIRequest] : HTTP request failed
//
// # API Mappings
//
// Search results map [SpotifyTrack] → [models.SearchCandidate], taking the first listed artist as the primary one.
// Track ids are turned into "spotify:track:" URIs when they are added to a playlist.
package services
