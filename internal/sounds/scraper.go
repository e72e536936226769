package sounds

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/desertthunder/bbcx/internal/shared"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	tracklistMarker = "Tracklist"
	titleClass      = "sc-c-marquee__title-1"
	// tracklistModuleIndex is where the tracklist module sits when no module is titled "Tracklist".
	tracklistModuleIndex = 1
)

// Episode is what a BBC Sounds episode page yields.
type Episode struct {
	URL     string
	Title   string   // Show title with the configured prefix, empty when the page has none
	Entries []string // Raw "artist - title" entries in broadcast order
}

type preloadedState struct {
	Modules struct {
		Data []stateModule `json:"data"`
	} `json:"modules"`
}

type stateModule struct {
	ID    string          `json:"id"`
	Title string          `json:"title"`
	Data  json.RawMessage `json:"data"`
}

type trackItem struct {
	Titles struct {
		Primary   *string `json:"primary"`
		Secondary *string `json:"secondary"`
		Tertiary  *string `json:"tertiary"`
	} `json:"titles"`
}

// Entry formats the item as a raw tracklist entry.
func (t trackItem) Entry() string {
	if t.Titles.Primary == nil {
		return ""
	}
	entry := *t.Titles.Primary
	if t.Titles.Secondary != nil {
		entry += " - " + *t.Titles.Secondary
	}
	if t.Titles.Tertiary != nil {
		entry += " " + *t.Titles.Tertiary
	}
	return strings.TrimSpace(entry)
}

// ScraperOpts configures a [Scraper].
type ScraperOpts struct {
	HTTPClient  *http.Client
	UserAgent   string
	Timeout     time.Duration
	TitlePrefix string
}

// Scraper fetches BBC Sounds episode pages.
type Scraper struct {
	client      *http.Client
	userAgent   string
	titlePrefix string
}

// NewScraper creates a Scraper. A nil client gets one with opts.Timeout (20s when unset).
func NewScraper(opts ScraperOpts) *Scraper {
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 20 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	return &Scraper{
		client:      client,
		userAgent:   opts.UserAgent,
		titlePrefix: opts.TitlePrefix,
	}
}

// Episode fetches pageURL and extracts its title and tracklist.
func (s *Scraper) Episode(ctx context.Context, pageURL string) (*Episode, error) {
	body, err := s.fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	episode, err := ParseEpisode(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	episode.URL = pageURL
	if episode.Title != "" {
		episode.Title = s.titlePrefix + episode.Title
	}
	return episode, nil
}

// Tracklist fetches pageURL and returns only its entries.
func (s *Scraper) Tracklist(ctx context.Context, pageURL string) ([]string, error) {
	episode, err := s.Episode(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return episode.Entries, nil
}

// Title fetches pageURL and returns the prefixed show title.
func (s *Scraper) Title(ctx context.Context, pageURL string) (string, error) {
	body, err := s.fetch(ctx, pageURL)
	if err != nil {
		return "", err
	}

	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: failed to parse page: %v", shared.ErrSourceExtraction, err)
	}

	title := findTitle(doc)
	if title == "" {
		return "", fmt.Errorf("%w: page has no show title", shared.ErrSourceExtraction)
	}
	return s.titlePrefix + title, nil
}

func (s *Scraper) fetch(ctx context.Context, pageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid url %q: %v", shared.ErrInvalidArgument, pageURL, err)
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch page: %v", shared.ErrSourceExtraction, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: page returned status %d", shared.ErrSourceExtraction, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read page: %v", shared.ErrSourceExtraction, err)
	}
	return body, nil
}

// ParseEpisode extracts the title and tracklist from an episode page.
//
// A missing tracklist is an error; a missing title is not.
func ParseEpisode(r io.Reader) (*Episode, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse page: %v", shared.ErrSourceExtraction, err)
	}

	script := findTracklistScript(doc)
	if script == "" {
		return nil, fmt.Errorf("%w: no script mentions %q", shared.ErrSourceExtraction, tracklistMarker)
	}

	entries, err := parseState(script)
	if err != nil {
		return nil, err
	}

	return &Episode{
		Title:   findTitle(doc),
		Entries: entries,
	}, nil
}

// findTracklistScript returns the text of the last <script> mentioning the tracklist.
func findTracklistScript(doc *html.Node) string {
	var found string
	walk(doc, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.DataAtom == atom.Script {
			if text := textContent(n); strings.Contains(text, tracklistMarker) {
				found = text
			}
		}
		return true
	})
	return found
}

func findTitle(doc *html.Node) string {
	var title string
	walk(doc, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.DataAtom == atom.Span && hasClass(n, titleClass) {
			title = strings.TrimSpace(textContent(n))
			return false
		}
		return true
	})
	return title
}

func hasClass(n *html.Node, class string) bool {
	for _, attr := range n.Attr {
		if attr.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(attr.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}

func textContent(n *html.Node) string {
	var b strings.Builder
	walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
		return true
	})
	return b.String()
}

// walk visits n and its descendants depth-first until visit returns false.
func walk(n *html.Node, visit func(*html.Node) bool) bool {
	if !visit(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, visit) {
			return false
		}
	}
	return true
}

// parseState decodes the state object assigned in script and formats its tracklist module.
func parseState(script string) ([]string, error) {
	start := strings.Index(script, "{")
	end := strings.LastIndex(script, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: no JSON object in tracklist script", shared.ErrSourceExtraction)
	}

	var state preloadedState
	if err := json.Unmarshal([]byte(script[start:end+1]), &state); err != nil {
		return nil, fmt.Errorf("%w: failed to decode page state: %v", shared.ErrSourceExtraction, err)
	}

	module, ok := tracklistModule(state.Modules.Data)
	if !ok {
		return nil, fmt.Errorf("%w: page state has no tracklist module", shared.ErrSourceExtraction)
	}

	var items []trackItem
	if err := json.Unmarshal(module.Data, &items); err != nil {
		return nil, fmt.Errorf("%w: failed to decode tracklist: %v", shared.ErrSourceExtraction, err)
	}

	entries := make([]string, 0, len(items))
	for _, item := range items {
		if entry := item.Entry(); entry != "" {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

func tracklistModule(modules []stateModule) (stateModule, bool) {
	for _, m := range modules {
		if strings.EqualFold(m.Title, tracklistMarker) || strings.Contains(strings.ToLower(m.ID), "tracklist") {
			return m, true
		}
	}
	if len(modules) > tracklistModuleIndex {
		return modules[tracklistModuleIndex], true
	}
	return stateModule{}, false
}
