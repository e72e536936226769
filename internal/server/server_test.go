package server

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/bbcx/internal/shared"
	"golang.org/x/oauth2"
)

func newTokenServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("failed to parse token request: %v", err)
			return
		}
		if r.Form.Get("code") != "good-code" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"access","token_type":"Bearer","refresh_token":"refresh","expires_in":3600}`))
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestHandler(tokenURL string) *OAuthHandler {
	config := &oauth2.Config{
		ClientID:     "id",
		ClientSecret: "secret",
		RedirectURL:  "http://127.0.0.1:3000/spotify/callback",
		Endpoint: oauth2.Endpoint{
			AuthURL:   "http://example.invalid/authorize",
			TokenURL:  tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	return NewOAuthHandler(config, "state-123")
}

func TestOAuthHandler(t *testing.T) {
	t.Run("routes follow redirect uri", func(t *testing.T) {
		h := newTestHandler("")
		if routes := h.Routes(); len(routes) != 1 || routes[0] != "/spotify/callback" {
			t.Errorf("unexpected routes %v", routes)
		}

		h.config.RedirectURL = "http://127.0.0.1:3000"
		if routes := h.Routes(); routes[0] != "/callback" {
			t.Errorf("expected default route, got %v", routes)
		}
	})

	t.Run("exchanges code for token", func(t *testing.T) {
		tokens := newTokenServer(t)
		h := newTestHandler(tokens.URL).WithHTTPClient(tokens.Client())

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/spotify/callback?state=state-123&code=good-code", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if !strings.Contains(rec.Body.String(), "Spotify connected") {
			t.Error("expected success page")
		}

		token, err := h.Wait(context.Background(), nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if token.AccessToken != "access" || token.RefreshToken != "refresh" {
			t.Errorf("unexpected token %+v", token)
		}
	})

	t.Run("invalid state", func(t *testing.T) {
		h := newTestHandler("")

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/spotify/callback?state=wrong&code=good-code", nil))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		if _, err := h.Wait(context.Background(), nil); !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
	})

	t.Run("user denied access", func(t *testing.T) {
		h := newTestHandler("")

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/spotify/callback?state=state-123&error=access_denied", nil))

		_, err := h.Wait(context.Background(), nil)
		if !errors.Is(err, shared.ErrAuthFailed) || !strings.Contains(err.Error(), "access_denied") {
			t.Errorf("expected access_denied auth failure, got %v", err)
		}
	})

	t.Run("exchange failure", func(t *testing.T) {
		tokens := newTokenServer(t)
		h := newTestHandler(tokens.URL).WithHTTPClient(tokens.Client())

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/spotify/callback?state=state-123&code=bad-code", nil))

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
		if _, err := h.Wait(context.Background(), nil); !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
	})

	t.Run("second callback rejected", func(t *testing.T) {
		h := newTestHandler("")

		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/spotify/callback?state=wrong", nil))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/spotify/callback?state=state-123&code=x", nil))
		if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "already processed") {
			t.Errorf("expected replay to be rejected, got %d %q", rec.Code, rec.Body.String())
		}
	})

	t.Run("wait times out", func(t *testing.T) {
		h := newTestHandler("")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		if _, err := h.Wait(ctx, nil); !errors.Is(err, shared.ErrTimeout) {
			t.Errorf("expected ErrTimeout, got %v", err)
		}
	})

	t.Run("wait reports server errors", func(t *testing.T) {
		h := newTestHandler("")
		errs := make(chan error, 1)
		errs <- errors.New("address in use")

		if _, err := h.Wait(context.Background(), errs); err == nil || !strings.Contains(err.Error(), "address in use") {
			t.Errorf("expected server error, got %v", err)
		}
	})
}

func TestBasicRouter(t *testing.T) {
	t.Run("middleware order", func(t *testing.T) {
		var order []string
		mark := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		router := NewBasicRouter()
		router.Use(mark("first"), mark("second"))
		router.Handle(http.MethodGet, "/ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "handler")
		}))

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ping", nil))

		if strings.Join(order, ",") != "first,second,handler" {
			t.Errorf("unexpected order %v", order)
		}
	})

	t.Run("method filter", func(t *testing.T) {
		router := NewBasicRouter()
		router.Handle(http.MethodGet, "/ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ping", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})

	t.Run("registers handler routes", func(t *testing.T) {
		router := NewBasicRouter()
		router.Handler(newTestHandler(""))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/spotify/callback?state=wrong", nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected handler to be reached, got %d", rec.Code)
		}

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/other", nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("request logger omits query", func(t *testing.T) {
		var buf bytes.Buffer
		logger := shared.NewLogger(&buf)
		shared.SetLogLevel(logger, log.DebugLevel)

		router := NewBasicRouter()
		router.Use(RequestLogger(logger))
		router.Handle(http.MethodGet, "/callback", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/callback?code=secret", nil))

		out := buf.String()
		if !strings.Contains(out, "/callback") || !strings.Contains(out, "418") {
			t.Errorf("expected path and status in log, got %q", out)
		}
		if strings.Contains(out, "secret") {
			t.Errorf("query leaked into log: %q", out)
		}
	})
}

func TestCallbackServer(t *testing.T) {
	router := NewBasicRouter()
	router.Handle(http.MethodGet, "/ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "pong")
	}))

	srv := NewCallbackServer("127.0.0.1:0", router)
	if err := srv.Start(); err != nil {
		t.Fatalf("failed to start: %v", err)
	}
	defer srv.Shutdown(context.Background())

	resp, err := http.Get("http://" + srv.Addr() + "/ping")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if string(body) != "pong" {
		t.Errorf("expected pong, got %q", body)
	}

	t.Run("address in use", func(t *testing.T) {
		if err := NewCallbackServer(srv.Addr(), router).Start(); err == nil {
			t.Error("expected bind error")
		}
	})
}
