package matching

import (
	"strings"

	"github.com/xrash/smetrics"
)

// DefaultMaxDistance is the largest edit distance still treated as the same name.
const DefaultMaxDistance = 3

// Matcher compares display names. The zero value uses [DefaultMaxDistance].
type Matcher struct {
	MaxDistance int
}

// NewMatcher returns a Matcher with the given threshold; non-positive values select the default.
func NewMatcher(maxDistance int) *Matcher {
	return &Matcher{MaxDistance: maxDistance}
}

func (m *Matcher) maxDistance() int {
	if m == nil || m.MaxDistance <= 0 {
		return DefaultMaxDistance
	}
	return m.MaxDistance
}

// Match reports whether a and b name the same title or artist.
func (m *Matcher) Match(a, b string) bool {
	a, b = Normalize(a), Normalize(b)

	if a == b {
		return true
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return true
	}
	return Distance(a, b) <= m.maxDistance()
}

// Match reports whether a and b name the same title or artist using the default threshold.
func Match(a, b string) bool {
	var m Matcher
	return m.Match(a, b)
}

// Distance is the Levenshtein distance between a and b with unit insert, delete and substitute costs.
func Distance(a, b string) int {
	return smetrics.WagnerFischer(a, b, 1, 1, 1)
}
