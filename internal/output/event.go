package output

import (
	"gamlvalidate/internal/results"
	"gamlvalidate/internal/schema"
)

const (
	EventRunStarted  = "run.started"
	EventFileStarted = "file.started"
	EventFileSchema  = "file.schema"
	EventSchemaFetch = "schema.fetch"
	EventFileResult  = "file.result"
	EventRunFinished = "run.finished"
)

// Event is a lifecycle record. Sinks receive every Event in run order; in
// NDJSON mode each one is written as a single JSON line:
// - run.started
// - file.started
// - file.schema
// - schema.fetch (only when a schema is actually downloaded)
// - file.result
// - run.finished
type Event struct {
	Type      string `json:"type"`
	Timestamp string `json:"timestamp,omitempty"`
	Root      string `json:"root,omitempty"`
	Files     int    `json:"files,omitempty"`

	Index     int    `json:"index,omitempty"`
	File      string `json:"file,omitempty"`
	SchemaRef string `json:"schema_ref,omitempty"`
	Location  string `json:"location,omitempty"`
	Cached    bool   `json:"cached,omitempty"`

	Result *results.FileResult `json:"result,omitempty"`

	Counts      *results.Counts `json:"counts,omitempty"`
	SchemaStats *schema.Stats   `json:"schema_stats,omitempty"`
	DurationMS  int64           `json:"duration_ms,omitempty"`
	ExitCode    int             `json:"exit_code,omitempty"`

	// Summary carries the full run to sinks that persist it.
	Summary *results.RunSummary `json:"-"`
}

// ResultEvent wraps a file outcome; index is 1-based.
func ResultEvent(r results.FileResult, index int) Event {
	return Event{Type: EventFileResult, Index: index, File: r.File, Result: &r}
}
