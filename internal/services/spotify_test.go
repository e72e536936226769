package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/bbcx/internal/shared"
	"golang.org/x/oauth2"
)

var testCredentials = map[string]string{
	"client_id":     "test_client_id",
	"client_secret": "test_client_secret",
}

// newTestService returns an authenticated service pointed at handler.
func newTestService(t *testing.T, handler http.Handler, creds map[string]string) *SpotifyService {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	if creds == nil {
		creds = testCredentials
	}

	srv, err := NewSpotifyService(creds, WithBaseURL(server.URL), WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}

	if err := srv.Authenticate(context.Background(), map[string]string{"access_token": "tok"}); err != nil {
		t.Fatalf("failed to authenticate: %v", err)
	}

	return srv
}

func TestSpotifyService(t *testing.T) {
	t.Run("NewSpotifyService", func(t *testing.T) {
		t.Run("With Valid Credentials", func(t *testing.T) {
			srv, err := NewSpotifyService(testCredentials)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if srv.Name() != "Spotify" {
				t.Errorf("expected service name 'Spotify', got %s", srv.Name())
			}
		})

		t.Run("Missing Client ID", func(t *testing.T) {
			_, err := NewSpotifyService(map[string]string{"client_secret": "s"})
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("Missing Client Secret", func(t *testing.T) {
			_, err := NewSpotifyService(map[string]string{"client_id": "id"})
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("Default Redirect URI", func(t *testing.T) {
			srv, err := NewSpotifyService(testCredentials)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if srv.config.RedirectURL != "http://127.0.0.1:3000/callback" {
				t.Errorf("expected default redirect URI, got %s", srv.config.RedirectURL)
			}
		})
	})

	t.Run("Get AuthURL", func(t *testing.T) {
		srv, err := NewSpotifyService(testCredentials)
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		authURL := srv.GetAuthURL("test_state")
		for _, want := range []string{"accounts.spotify.com", "test_client_id", "test_state", "playlist-modify-public"} {
			if !strings.Contains(authURL, want) {
				t.Errorf("auth URL %q should contain %q", authURL, want)
			}
		}
	})

	t.Run("Authenticate", func(t *testing.T) {
		srv, err := NewSpotifyService(testCredentials)
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		t.Run("Missing Credentials", func(t *testing.T) {
			err := srv.Authenticate(context.Background(), map[string]string{})
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("Empty Token", func(t *testing.T) {
			err := srv.OAuthenticate(context.Background(), &oauth2.Token{})
			if !errors.Is(err, shared.ErrNotAuthenticated) {
				t.Errorf("expected ErrNotAuthenticated, got %v", err)
			}
		})

		t.Run("Requests Before Authentication", func(t *testing.T) {
			_, err := srv.Search(context.Background(), "q", 5)
			if !errors.Is(err, shared.ErrNotAuthenticated) {
				t.Errorf("expected ErrNotAuthenticated, got %v", err)
			}
		})
	})

	t.Run("Service Interface", func(t *testing.T) {
		srv, err := NewSpotifyService(testCredentials)
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		var _ OAuthService = srv
	})
}

func TestSpotifySearch(t *testing.T) {
	t.Run("maps tracks to candidates", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/search" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			q := r.URL.Query()
			if q.Get("q") != "Kokoroko - Abusey Junction" || q.Get("type") != "track" || q.Get("limit") != "5" {
				t.Errorf("unexpected query %v", q)
			}
			if got := r.Header.Get("Authorization"); got != "Bearer tok" {
				t.Errorf("unexpected authorization header %q", got)
			}

			fmt.Fprint(w, `{"tracks":{"total":2,"items":[
				{"id":"t1","name":"Abusey Junction","uri":"spotify:track:t1","artists":[{"name":"KOKOROKO"},{"name":"Other"}],"album":{"name":"Kokoroko"}},
				{"id":"t2","name":"Abusey Junction - Live","uri":"spotify:track:t2","artists":[]}
			]}}`)
		})
		srv := newTestService(t, handler, nil)

		candidates, err := srv.Search(context.Background(), "Kokoroko - Abusey Junction", 5)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(candidates) != 2 {
			t.Fatalf("expected 2 candidates, got %d", len(candidates))
		}
		first := candidates[0]
		if first.ID != "t1" || first.Name != "Abusey Junction" || first.Artist != "KOKOROKO" || first.Album != "Kokoroko" {
			t.Errorf("unexpected candidate %+v", first)
		}
		if candidates[1].Artist != "" {
			t.Errorf("expected empty artist for track without artists, got %q", candidates[1].Artist)
		}
	})

	t.Run("clamps limit", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("limit"); got != "50" {
				t.Errorf("expected limit 50, got %s", got)
			}
			fmt.Fprint(w, `{"tracks":{"items":[]}}`)
		})
		srv := newTestService(t, handler, nil)

		if _, err := srv.Search(context.Background(), "q", 500); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("unauthorized", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})
		srv := newTestService(t, handler, nil)

		_, err := srv.Search(context.Background(), "q", 5)
		if !errors.Is(err, shared.ErrTokenExpired) {
			t.Errorf("expected ErrTokenExpired, got %v", err)
		}
	})

	t.Run("server error", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "3")
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprint(w, `{"error":"slow down"}`)
		})
		srv := newTestService(t, handler, nil)

		_, err := srv.Search(context.Background(), "q", 5)
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Fatalf("expected ErrAPIRequest, got %v", err)
		}
		if !strings.Contains(err.Error(), "429") || !strings.Contains(err.Error(), "retry after 3s") {
			t.Errorf("expected status and retry hint in %q", err.Error())
		}
	})
}

func TestSpotifyCreatePlaylist(t *testing.T) {
	t.Run("uses configured username", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || r.URL.Path != "/users/dj/playlists" {
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			}

			var body createPlaylistRequest
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("failed to decode body: %v", err)
				return
			}
			if body.Name != "Gilles Peterson: Show" || !body.Public || body.Description != "Songs by A" {
				t.Errorf("unexpected body %+v", body)
			}

			w.WriteHeader(http.StatusCreated)
			fmt.Fprint(w, `{"id":"pl1","name":"Gilles Peterson: Show"}`)
		})
		creds := map[string]string{"client_id": "id", "client_secret": "secret", "username": "dj"}
		srv := newTestService(t, handler, creds)

		id, err := srv.CreatePlaylist(context.Background(), "Gilles Peterson: Show", true, "Songs by A")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if id != "pl1" {
			t.Errorf("expected pl1, got %s", id)
		}
	})

	t.Run("resolves owner from profile", func(t *testing.T) {
		var calls []string
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls = append(calls, r.URL.Path)
			switch r.URL.Path {
			case "/me":
				fmt.Fprint(w, `{"id":"user42","display_name":"User"}`)
			case "/users/user42/playlists":
				fmt.Fprint(w, `{"id":"pl2"}`)
			default:
				w.WriteHeader(http.StatusNotFound)
			}
		})
		srv := newTestService(t, handler, nil)

		id, err := srv.CreatePlaylist(context.Background(), "Name", false, "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if id != "pl2" {
			t.Errorf("expected pl2, got %s", id)
		}
		if len(calls) != 2 || calls[0] != "/me" {
			t.Errorf("unexpected calls %v", calls)
		}
	})

	t.Run("missing id in response", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{}`)
		})
		creds := map[string]string{"client_id": "id", "client_secret": "secret", "username": "dj"}
		srv := newTestService(t, handler, creds)

		if _, err := srv.CreatePlaylist(context.Background(), "Name", true, ""); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})
}

func TestSpotifyAddTracks(t *testing.T) {
	t.Run("chunks requests", func(t *testing.T) {
		var mu sync.Mutex
		var batches [][]string
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/playlists/pl1/tracks" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			var body addTracksRequest
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("failed to decode body: %v", err)
				return
			}
			mu.Lock()
			batches = append(batches, body.URIs)
			mu.Unlock()
			w.WriteHeader(http.StatusCreated)
			fmt.Fprint(w, `{"snapshot_id":"s"}`)
		})
		srv := newTestService(t, handler, nil)

		ids := make([]string, 150)
		for i := range ids {
			ids[i] = fmt.Sprintf("id%d", i)
		}

		if err := srv.AddTracks(context.Background(), "pl1", ids); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(batches) != 2 || len(batches[0]) != 100 || len(batches[1]) != 50 {
			t.Fatalf("unexpected batches: %d", len(batches))
		}
		if batches[0][0] != "spotify:track:id0" || batches[1][49] != "spotify:track:id149" {
			t.Errorf("unexpected uris %s, %s", batches[0][0], batches[1][49])
		}
	})

	t.Run("no tracks makes no request", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Errorf("unexpected request %s", r.URL.Path)
		})
		srv := newTestService(t, handler, nil)

		if err := srv.AddTracks(context.Background(), "pl1", nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("failure names the batch", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		})
		srv := newTestService(t, handler, nil)

		err := srv.AddTracks(context.Background(), "pl1", []string{"a"})
		if !errors.Is(err, shared.ErrAPIRequest) || !strings.Contains(err.Error(), "1-1") {
			t.Errorf("unexpected error %v", err)
		}
	})
}

func TestTrackURI(t *testing.T) {
	if got := TrackURI("abc"); got != "spotify:track:abc" {
		t.Errorf("TrackURI(abc) = %s", got)
	}
	if got := TrackURI("spotify:track:abc"); got != "spotify:track:abc" {
		t.Errorf("TrackURI kept prefix wrong: %s", got)
	}
}

type sequenceTokenSource struct {
	tokens []*oauth2.Token
	i      int
}

func (s *sequenceTokenSource) Token() (*oauth2.Token, error) {
	if s.i >= len(s.tokens) {
		return nil, errors.New("exhausted")
	}
	t := s.tokens[s.i]
	s.i++
	return t, nil
}

func TestRefreshableTokenSource(t *testing.T) {
	t.Run("calls callback only when the token changes", func(t *testing.T) {
		var refreshed []string
		ts := &refreshableTokenSource{
			base: &sequenceTokenSource{tokens: []*oauth2.Token{
				{AccessToken: "a"}, {AccessToken: "a"}, {AccessToken: "b"},
			}},
			last:      "a",
			onRefresh: func(tok *oauth2.Token) { refreshed = append(refreshed, tok.AccessToken) },
		}

		for range 3 {
			if _, err := ts.Token(); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}

		if len(refreshed) != 1 || refreshed[0] != "b" {
			t.Errorf("expected one refresh to b, got %v", refreshed)
		}
	})

	t.Run("wraps refresh failures", func(t *testing.T) {
		ts := &refreshableTokenSource{base: &sequenceTokenSource{}}
		if _, err := ts.Token(); !errors.Is(err, shared.ErrTokenExpired) {
			t.Errorf("expected ErrTokenExpired, got %v", err)
		}
	})

	t.Run("service callback receives refreshed token", func(t *testing.T) {
		srv, err := NewSpotifyService(testCredentials)
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		var got *oauth2.Token
		srv.SetTokenRefreshCallback(func(tok *oauth2.Token) { got = tok })
		srv.notifyRefresh(&oauth2.Token{AccessToken: "fresh"})

		if got == nil || got.AccessToken != "fresh" || srv.token.AccessToken != "fresh" {
			t.Errorf("callback not invoked with fresh token: %+v", got)
		}
	})
}
