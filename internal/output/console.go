package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"

	"gamlvalidate/internal/results"
)

const ruleWidth = 80

type ConsoleSink struct {
	writer io.Writer
	format string // "text", "ndjson"
	mu     sync.Mutex
	total  int

	heading *color.Color
	ok      *color.Color
	bad     *color.Color
	warn    *color.Color
	dim     *color.Color
}

func NewConsoleSink(w io.Writer, format string, noColor bool) *ConsoleSink {
	if w == nil {
		w = os.Stdout
	}
	if format == "" {
		format = "text"
	}

	s := &ConsoleSink{
		writer:  w,
		format:  format,
		heading: color.New(color.Bold),
		ok:      color.New(color.FgGreen, color.Bold),
		bad:     color.New(color.FgRed, color.Bold),
		warn:    color.New(color.FgYellow),
		dim:     color.New(color.Faint),
	}
	if noColor {
		for _, c := range []*color.Color{s.heading, s.ok, s.bad, s.warn, s.dim} {
			c.DisableColor()
		}
	}
	return s
}

func (s *ConsoleSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := v.(Event)
	if !ok {
		return nil
	}

	switch s.format {
	case "ndjson":
		if err := json.NewEncoder(s.writer).Encode(e); err != nil {
			return err
		}
		return flush(s.writer)
	case "text":
		if err := s.writeText(e); err != nil {
			return err
		}
		return flush(s.writer)
	default:
		return fmt.Errorf("unsupported console format: %s", s.format)
	}
}

func (s *ConsoleSink) writeText(e Event) error {
	p := &printer{w: s.writer}
	rule := strings.Repeat("=", ruleWidth)

	switch e.Type {
	case EventRunStarted:
		s.total = e.Files
		p.println(rule)
		p.color(s.heading, "GAML FILE VALIDATION\n")
		p.println(rule)
		p.printf("Project root: %s\n", e.Root)
		p.printf("Files to validate: %d\n", e.Files)
		p.println(rule)
		p.println()

	case EventFileStarted:
		p.color(s.heading, "[%d/%d] Validating: %s\n", e.Index, s.total, e.File)
		p.println(strings.Repeat("-", ruleWidth))

	case EventFileSchema:
		p.printf("  Schema URL: %s\n", e.SchemaRef)
		if e.Cached {
			p.color(s.dim, "  Using cached schema\n")
		}

	case EventSchemaFetch:
		p.printf("  Fetching schema from: %s\n", e.Location)

	case EventFileResult:
		if e.Result != nil {
			s.writeResult(p, *e.Result)
		}
		p.println()

	case EventRunFinished:
		if e.Summary != nil {
			s.writeSummary(p, e.Summary)
		}
	}
	return p.err
}

func (s *ConsoleSink) writeResult(p *printer, r results.FileResult) {
	switch r.Status {
	case results.StatusValid:
		p.color(s.ok, "✅ VALID: File conforms to schema\n")
	case results.StatusInvalid:
		p.color(s.bad, "❌ INVALID: Schema validation failed\n")
		p.printf("\nErrors found: %d\n", len(r.Errors))
		for i, ve := range r.Errors {
			path := ve.Path
			if path == "" {
				path = "(root)"
			}
			p.printf("\n  Error %d:\n", i+1)
			p.printf("    Path: %s\n", path)
			p.printf("    Message: %s\n", ve.Message)
			if len(ve.Params) > 0 {
				b, err := json.Marshal(ve.Params)
				if err == nil {
					p.printf("    Params: %s\n", b)
				}
			}
		}
	default:
		p.color(s.bad, "❌ ERROR: %s\n", r.Error)
		return
	}

	na := func(v string) string {
		if v == "" {
			return "N/A"
		}
		return v
	}
	p.printf("\nFile statistics:\n")
	p.printf("  - File: %s\n", na(r.Meta.File))
	p.printf("  - Version: %s\n", na(r.Meta.Version))
	p.printf("  - Game Name: %s\n", na(r.Meta.GameName))
	p.printf("  - Game Type: %s\n", na(r.Meta.GameType))
	p.printf("  - Schema Reference: %s\n", na(r.Meta.Schema))
	for _, w := range r.Warnings {
		p.color(s.warn, "  ⚠️  WARNING: %s\n", w)
	}
}

func (s *ConsoleSink) writeSummary(p *printer, sum *results.RunSummary) {
	rule := strings.Repeat("=", ruleWidth)
	p.println(rule)
	p.color(s.heading, "VALIDATION SUMMARY\n")
	p.println(rule)
	p.printf("Total files: %d\n", sum.Counts.Total)
	p.printf("Valid: %d\n", sum.Counts.Valid)
	p.printf("Invalid: %d\n", sum.Counts.Invalid)
	p.printf("Errored: %d\n", sum.Counts.Errored)
	p.println()

	if sum.Counts.AllValid {
		p.color(s.ok, "✅ All GAML files are valid!\n")
	} else {
		p.color(s.bad, "❌ Some GAML files have validation errors.\n")
		p.println()
		p.println("Files with errors:")
		for _, r := range sum.Failed() {
			p.printf("  - %s\n", r.File)
		}
	}
	p.println(rule)
}

func (s *ConsoleSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.format != "text" && s.format != "ndjson" {
		return fmt.Errorf("unsupported console format: %s", s.format)
	}
	return nil
}

// printer keeps the first write error so rendering code stays linear.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *printer) println(args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintln(p.w, args...)
}

func (p *printer) color(c *color.Color, format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = c.Fprintf(p.w, format, args...)
}

// flush pushes buffered console output (e.g. a bufio.Writer) after each event
// so progress shows up while a schema download is in flight.
func flush(w io.Writer) error {
	if f, ok := w.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}
