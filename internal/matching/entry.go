package matching

import (
	"fmt"
	"strings"

	"github.com/desertthunder/bbcx/internal/shared"
)

// SplitEntry splits a tracklist entry into the expected artist and title, both lower-cased.
//
// The " - " separator written by the tracklist source is preferred so that hyphenated artists
// ("Jay-Z - Song") survive; entries without it are split on the first bare "-".
func SplitEntry(raw string) (artist, title string, err error) {
	artist, title, ok := strings.Cut(raw, " - ")
	if !ok {
		artist, title, ok = strings.Cut(raw, "-")
	}
	if !ok {
		return "", "", fmt.Errorf("%w: no delimiter in %q", shared.ErrEntryParse, raw)
	}

	artist = strings.ToLower(strings.TrimSpace(artist))
	title = strings.ToLower(strings.TrimSpace(title))
	if artist == "" || title == "" {
		return "", "", fmt.Errorf("%w: empty artist or title in %q", shared.ErrEntryParse, raw)
	}

	return artist, title, nil
}

// CandidateTitle trims a catalog title at its first "-", dropping suffixes like " - Remastered 2011".
func CandidateTitle(name string) string {
	if i := strings.Index(name, "-"); i >= 0 {
		name = name[:i]
	}
	return strings.TrimSpace(name)
}
