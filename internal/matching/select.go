package matching

import "github.com/desertthunder/bbcx/internal/models"

// Outcome classifies how a single tracklist entry was resolved.
type Outcome int

const (
	Accepted     Outcome = iota // top candidate matched
	Rejected                    // top candidate did not match
	NotFound                    // search returned nothing
	Skipped                     // entry could not be parsed
	SearchFailed                // search call failed
)

func (o Outcome) String() string {
	switch o {
	case Accepted:
		return "accepted"
	case Rejected:
		return "rejected"
	case NotFound:
		return "not_found"
	case Skipped:
		return "skipped"
	case SearchFailed:
		return "search_failed"
	default:
		return ""
	}
}

// MarshalText implements [encoding.TextMarshaler] so outcomes render by name in reports.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Verdict explains a selection.
type Verdict struct {
	Outcome        Outcome
	Candidate      *models.SearchCandidate // evaluated candidate, nil when there was none
	ExpectedArtist string
	ExpectedTitle  string
	Err            error // parse error for Skipped
}

// Select evaluates the top candidate for raw and returns the accepted track, if any.
func (m *Matcher) Select(raw string, candidates []models.SearchCandidate) (*models.AcceptedTrack, Verdict) {
	if len(candidates) == 0 {
		return nil, Verdict{Outcome: NotFound}
	}

	top := candidates[0]
	verdict := Verdict{Candidate: &top}

	artist, title, err := SplitEntry(raw)
	if err != nil {
		verdict.Outcome = Skipped
		verdict.Err = err
		return nil, verdict
	}
	verdict.ExpectedArtist = artist
	verdict.ExpectedTitle = title

	if !m.Match(CandidateTitle(top.Name), title) || !m.Match(top.Artist, artist) {
		verdict.Outcome = Rejected
		return nil, verdict
	}

	verdict.Outcome = Accepted
	return &models.AcceptedTrack{ID: top.ID, Artist: top.Artist}, verdict
}

// Select evaluates the top candidate for raw with the default threshold.
func Select(raw string, candidates []models.SearchCandidate) (*models.AcceptedTrack, Verdict) {
	var m Matcher
	return m.Select(raw, candidates)
}
