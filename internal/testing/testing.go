// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/bbcx/internal/models"
)

// MockCatalog is a test double for [services.Catalog].
//
// Results and SearchErrs are keyed by the exact search query.
type MockCatalog struct {
	Results    map[string][]models.SearchCandidate
	SearchErrs map[string]error
	CreateErr  error
	AddErr     error
	PlaylistID string

	mu       sync.Mutex
	Queries  []string
	Limits   []int
	Created  []CreatedPlaylist
	AddCalls [][]string
}

// CreatedPlaylist records a CreatePlaylist call.
type CreatedPlaylist struct {
	Name        string
	Public      bool
	Description string
}

func (m *MockCatalog) Search(ctx context.Context, query string, limit int) ([]models.SearchCandidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Queries = append(m.Queries, query)
	m.Limits = append(m.Limits, limit)

	if err := m.SearchErrs[query]; err != nil {
		return nil, err
	}
	return m.Results[query], nil
}

func (m *MockCatalog) CreatePlaylist(ctx context.Context, name string, public bool, description string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Created = append(m.Created, CreatedPlaylist{Name: name, Public: public, Description: description})

	if m.CreateErr != nil {
		return "", m.CreateErr
	}
	if m.PlaylistID == "" {
		return "playlist-1", nil
	}
	return m.PlaylistID, nil
}

func (m *MockCatalog) AddTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AddCalls = append(m.AddCalls, append([]string(nil), trackIDs...))
	return m.AddErr
}

func (m *MockCatalog) Name() string { return "mock" }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites int, target io.Writer) *LimitedWriter {
	return &LimitedWriter{maxWrites: maxWrites, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
