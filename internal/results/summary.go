package results

import "time"

// Counts tallies outcomes. Valid, Invalid and Errored are disjoint.
type Counts struct {
	Total    int  `json:"total"`
	Valid    int  `json:"valid"`
	Invalid  int  `json:"invalid"`
	Errored  int  `json:"errored"`
	AllValid bool `json:"allValid"`
}

// RunSummary is built once at the end of a run and not mutated afterwards.
type RunSummary struct {
	Timestamp      time.Time     `json:"-"`
	ProjectRoot    string        `json:"projectRoot"`
	FilesValidated int           `json:"filesValidated"`
	Results        []FileResult  `json:"results"`
	Counts         Counts        `json:"summary"`
	Duration       time.Duration `json:"-"`
}

func Tally(rs []FileResult) Counts {
	c := Counts{Total: len(rs)}
	for _, r := range rs {
		switch r.Status {
		case StatusValid:
			c.Valid++
		case StatusInvalid:
			c.Invalid++
		default:
			c.Errored++
		}
	}
	c.AllValid = c.Valid == c.Total
	return c
}

func NewRunSummary(ts time.Time, root string, rs []FileResult) *RunSummary {
	return &RunSummary{
		Timestamp:      ts,
		ProjectRoot:    root,
		FilesValidated: len(rs),
		Results:        rs,
		Counts:         Tally(rs),
	}
}

// Failed returns the results that are not VALID, in run order.
func (s *RunSummary) Failed() []FileResult {
	if s == nil {
		return nil
	}
	var out []FileResult
	for _, r := range s.Results {
		if r.Status != StatusValid {
			out = append(out, r)
		}
	}
	return out
}

// FormatTimestamp renders t as ISO-8601 UTC with millisecond precision.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}
