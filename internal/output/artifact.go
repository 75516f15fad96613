package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"gamlvalidate/internal/results"
	"gamlvalidate/internal/validation"
)

const SummaryFileName = "validation-summary.json"

// ArtifactSink persists one JSON document per file plus a run summary when
// it receives run.finished. Nothing is written before that.
type ArtifactSink struct {
	dir      string
	progress io.Writer
	logger   zerolog.Logger
	mu       sync.Mutex
}

type fileArtifact struct {
	Timestamp string                       `json:"timestamp"`
	GamlFile  string                       `json:"gamlFile"`
	Valid     bool                         `json:"valid"`
	Errors    []validation.ValidationError `json:"errors"`
	Error     *string                      `json:"error"`
}

type summaryArtifact struct {
	Timestamp      string               `json:"timestamp"`
	ProjectRoot    string               `json:"projectRoot"`
	FilesValidated int                  `json:"filesValidated"`
	Results        []results.FileResult `json:"results"`
	Summary        results.Counts       `json:"summary"`
}

// NewArtifactSink writes into dir. progress, when non-nil, receives one line
// per artifact written.
func NewArtifactSink(dir string, progress io.Writer, logger zerolog.Logger) (*ArtifactSink, error) {
	if dir == "" {
		return nil, fmt.Errorf("results directory required")
	}
	return &ArtifactSink{dir: dir, progress: progress, logger: logger}, nil
}

func (s *ArtifactSink) Write(v any) error {
	e, ok := v.(Event)
	if !ok || e.Type != EventRunFinished || e.Summary == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persist(e.Summary)
}

func (s *ArtifactSink) persist(sum *results.RunSummary) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create results directory: %w", err)
	}

	ts := results.FormatTimestamp(sum.Timestamp)
	s.progressf("\nSaving individual validation results...\n")

	owners := make(map[string]string, len(sum.Results))
	for _, r := range sum.Results {
		name := ArtifactName(r.File)
		if prev, dup := owners[name]; dup {
			s.logger.Warn().Str("artifact", name).Str("previous", prev).Str("file", r.File).Msg("artifact name collision; overwriting")
		}
		owners[name] = r.File

		if err := writeJSON(filepath.Join(s.dir, name), newFileArtifact(ts, r)); err != nil {
			return err
		}
		s.progressf("  ✓ %s\n", name)
	}

	rs := sum.Results
	if rs == nil {
		rs = []results.FileResult{}
	}
	err := writeJSON(filepath.Join(s.dir, SummaryFileName), summaryArtifact{
		Timestamp:      ts,
		ProjectRoot:    sum.ProjectRoot,
		FilesValidated: sum.FilesValidated,
		Results:        rs,
		Summary:        sum.Counts,
	})
	if err != nil {
		return err
	}
	s.progressf("  ✓ %s\n", SummaryFileName)
	s.progressf("\nAll results saved to: %s\n", s.dir)
	return nil
}

func (s *ArtifactSink) progressf(format string, args ...any) {
	if s.progress == nil {
		return
	}
	fmt.Fprintf(s.progress, format, args...)
	_ = flush(s.progress)
}

func (s *ArtifactSink) Close() error {
	return nil
}

// ArtifactName derives "<base>-validation.json" from a slash-separated
// relative path. Files sharing a base name map to the same artifact.
func ArtifactName(file string) string {
	base := path.Base(filepath.ToSlash(file))
	base = strings.TrimSuffix(base, path.Ext(base))
	return base + "-validation.json"
}

func newFileArtifact(ts string, r results.FileResult) fileArtifact {
	a := fileArtifact{
		Timestamp: ts,
		GamlFile:  r.File,
		Valid:     r.Valid,
	}
	switch r.Status {
	case results.StatusInvalid:
		a.Errors = r.Errors
		if a.Errors == nil {
			a.Errors = []validation.ValidationError{}
		}
	case results.StatusError:
		msg := r.Error
		a.Error = &msg
	}
	return a
}

func writeJSON(dst string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(dst), err)
	}
	b = append(b, '\n')
	if err := os.WriteFile(dst, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", dst, err)
	}
	return nil
}
