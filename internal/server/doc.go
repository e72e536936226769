// Package server runs the short-lived local HTTP server that receives the Spotify OAuth callback.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
// [RequestLogger] logs each request with its status.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # OAuth Callback Handler
//
// [OAuthHandler] implements the OAuth2 authorization code callback. It serves the path of the configured redirect
// URI, validates the state parameter, exchanges the code for tokens, and delivers exactly one result.
//
// # Callback Server
//
// [CallbackServer] binds the listener before returning from Start so address conflicts surface immediately, then
// serves until Shutdown. `bbcx auth` starts one, opens the browser, and waits on [OAuthHandler.Wait].
package server
