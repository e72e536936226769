package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/desertthunder/bbcx/internal/shared"
	"golang.org/x/oauth2"
)

const defaultCallbackPath = "/callback"

// OAuthResult contains the result of an OAuth authorization flow.
type OAuthResult struct {
	Token *oauth2.Token
	err   error
}

func (o *OAuthResult) Error() error {
	return o.err
}

// OAuthHandler handles OAuth2 callback requests for authorization code flow.
// Implements the Handler interface for registration with a Router.
type OAuthHandler struct {
	config      *oauth2.Config
	state       string
	client      *http.Client
	resultChan  chan OAuthResult
	once        sync.Once
	callbackHit bool
	mu          sync.Mutex
}

// NewOAuthHandler creates a new OAuth handler with the given OAuth2 config and state token.
// The state token should be cryptographically random for CSRF protection.
func NewOAuthHandler(config *oauth2.Config, state string) *OAuthHandler {
	return &OAuthHandler{
		config:     config,
		state:      state,
		resultChan: make(chan OAuthResult, 1),
	}
}

// WithHTTPClient sets the client used for the token exchange.
func (h *OAuthHandler) WithHTTPClient(c *http.Client) *OAuthHandler {
	h.client = c
	return h
}

// Routes returns the path of the configured redirect URI, "/callback" when it has none.
func (h *OAuthHandler) Routes() []string {
	u, err := url.Parse(h.config.RedirectURL)
	if err != nil || u.Path == "" || u.Path == "/" {
		return []string{defaultCallbackPath}
	}
	return []string{u.Path}
}

// ServeHTTP handles the OAuth callback request.
//
// Validates state parameter, exchanges authorization code for tokens, and sends the result through the result channel.
func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.callbackHit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.callbackHit = true
	h.mu.Unlock()

	query := r.URL.Query()
	if query.Get("state") != h.state {
		h.Send(OAuthResult{err: fmt.Errorf("%w: invalid state parameter", shared.ErrAuthFailed)})
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	code := query.Get("code")
	if code == "" {
		err := fmt.Errorf("%w: %s - %s", shared.ErrAuthFailed, query.Get("error"), query.Get("error_description"))
		h.Send(OAuthResult{err: err})
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	if h.client != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, h.client)
	}

	token, err := h.config.Exchange(ctx, code)
	if err != nil {
		h.Send(OAuthResult{err: fmt.Errorf("%w: token exchange failed: %v", shared.ErrAuthFailed, err)})
		http.Error(w, "Token exchange failed", http.StatusInternalServerError)
		return
	}

	h.Send(OAuthResult{Token: token})

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, successPage)
}

// Send sends the OAuth result through the channel (only once).
func (h *OAuthHandler) Send(result OAuthResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the result channel for receiving OAuth flow completion.
//
// Channel will receive exactly one result and then be closed.
func (h *OAuthHandler) Result() <-chan OAuthResult {
	return h.resultChan
}

// Wait blocks until the callback delivers a token, serverErrs reports a failure, or ctx is done.
func (h *OAuthHandler) Wait(ctx context.Context, serverErrs <-chan error) (*oauth2.Token, error) {
	select {
	case result := <-h.resultChan:
		if result.Error() != nil {
			return nil, result.Error()
		}
		if result.Token == nil {
			return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
		}
		return result.Token, nil
	case err := <-serverErrs:
		return nil, fmt.Errorf("callback server error: %w", err)
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: waiting for authorization: %v", shared.ErrTimeout, ctx.Err())
	}
}

const successPage = `<!DOCTYPE html>
<html>
<head>
    <title>bbcx: Authorization Successful</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #1DB954; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>✓ Spotify connected</h1>
        <p>You can close this window and return to the terminal to build playlists.</p>
    </div>
</body>
</html>
`
