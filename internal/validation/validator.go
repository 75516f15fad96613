// Package validation evaluates GAML documents against JSON Schemas.
//
// It is a thin adapter over santhosh-tekuri/jsonschema: it compiles each
// schema once per reference, collects every violation (not just the first),
// and flattens the library's error tree into stable, sorted records.
package validation

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"gamlvalidate/internal/document"
	"gamlvalidate/internal/schema"
)

// ErrSchemaCompile means the fetched schema could not be compiled.
var ErrSchemaCompile = errors.New("failed to compile schema")

// ValidationError is one schema violation. Path is a JSON pointer into the
// document; "" is the document root.
type ValidationError struct {
	Path    string         `json:"path"`
	Message string         `json:"message"`
	Params  map[string]any `json:"params"`
}

// Result is the outcome of validating one document.
type Result struct {
	Valid  bool
	Errors []ValidationError
}

// URLLoader loads schemas referenced through $ref.
type URLLoader func(url string) (io.ReadCloser, error)

type Validator struct {
	draft     *jsonschema.Draft
	loadURL   URLLoader
	assertFmt bool

	mu       sync.Mutex
	compiled map[string]*jsonschema.Schema
}

type Option func(*Validator)

// WithDraft sets the draft used for schemas without "$schema". Defaults to
// draft-07.
func WithDraft(d *jsonschema.Draft) Option {
	return func(v *Validator) {
		if d != nil {
			v.draft = d
		}
	}
}

// WithURLLoader routes $ref loading through l. Non-http(s) URLs still use the
// library's default loaders.
func WithURLLoader(l URLLoader) Option {
	return func(v *Validator) {
		v.loadURL = l
	}
}

// WithFormatAssertions makes "format" a validating keyword.
func WithFormatAssertions(enabled bool) Option {
	return func(v *Validator) {
		v.assertFmt = enabled
	}
}

func New(opts ...Option) *Validator {
	v := &Validator{
		draft:    jsonschema.Draft7,
		compiled: make(map[string]*jsonschema.Schema),
	}
	for _, apply := range opts {
		if apply != nil {
			apply(v)
		}
	}
	return v
}

// ParseDraft maps a draft name (4, 6, 7, 2019-09, 2020-12) to a Draft.
func ParseDraft(name string) (*jsonschema.Draft, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "draft")) {
	case "4", "-04", "04":
		return jsonschema.Draft4, nil
	case "6", "-06", "06":
		return jsonschema.Draft6, nil
	case "", "7", "-07", "07":
		return jsonschema.Draft7, nil
	case "2019-09", "-2019-09", "2019":
		return jsonschema.Draft2019, nil
	case "2020-12", "-2020-12", "2020":
		return jsonschema.Draft2020, nil
	default:
		return nil, fmt.Errorf("unsupported JSON Schema draft %q", name)
	}
}

// Validate evaluates doc against s and reports every violation.
func (v *Validator) Validate(s *schema.Document, doc *document.Document) (Result, error) {
	if s == nil {
		return Result{}, fmt.Errorf("Validate: nil schema")
	}
	if doc == nil {
		return Result{}, fmt.Errorf("Validate: nil document")
	}

	compiled, err := v.compile(s)
	if err != nil {
		return Result{}, err
	}

	err = compiled.Validate(doc.Root)
	if err == nil {
		return Result{Valid: true}, nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return Result{}, fmt.Errorf("schema evaluation failed: %w", err)
	}
	return Result{Valid: false, Errors: flatten(ve)}, nil
}

func (v *Validator) compile(s *schema.Document) (*jsonschema.Schema, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if c, ok := v.compiled[s.Ref]; ok {
		return c, nil
	}

	c := jsonschema.NewCompiler()
	c.Draft = v.draft
	c.AssertFormat = v.assertFmt
	if v.loadURL != nil {
		c.LoadURL = v.loadRef
	}
	if err := c.AddResource(s.Ref, bytes.NewReader(s.Raw)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaCompile, err)
	}
	compiled, err := c.Compile(s.Ref)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaCompile, err)
	}
	v.compiled[s.Ref] = compiled
	return compiled, nil
}

func (v *Validator) loadRef(url string) (io.ReadCloser, error) {
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		return v.loadURL(url)
	}
	return jsonschema.LoadURL(url)
}

// flatten collects the leaves of the error tree. The library walks object
// properties in map order, so the result is sorted for stable output.
func flatten(root *jsonschema.ValidationError) []ValidationError {
	var out []ValidationError
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			out = append(out, convert(e)...)
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(root)

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		ap, bp := a.Params["schemaPath"].(string), b.Params["schemaPath"].(string)
		if ap != bp {
			return ap < bp
		}
		return a.Message < b.Message
	})
	return out
}

var quotedName = regexp.MustCompile(`'((?:[^'\\]|\\.)*)'`)

// convert maps one leaf error to records. "required" and
// "additionalProperties" leaves name several properties in one message; they
// are split into one record per property.
func convert(e *jsonschema.ValidationError) []ValidationError {
	keyword := lastKeyword(e.KeywordLocation)
	base := func() map[string]any {
		return map[string]any{
			"keyword":    keyword,
			"schemaPath": "#" + e.KeywordLocation,
		}
	}

	var names []string
	var param, format string
	switch keyword {
	case "required":
		names, param, format = quotedNames(e.Message), "missingProperty", "missing required property '%s'"
	case "additionalProperties":
		names, param, format = quotedNames(e.Message), "additionalProperty", "additional property '%s' is not allowed"
	}
	if len(names) == 0 {
		return []ValidationError{{Path: e.InstanceLocation, Message: e.Message, Params: base()}}
	}

	out := make([]ValidationError, 0, len(names))
	for _, n := range names {
		p := base()
		p[param] = n
		out = append(out, ValidationError{
			Path:    e.InstanceLocation,
			Message: fmt.Sprintf(format, n),
			Params:  p,
		})
	}
	return out
}

func quotedNames(msg string) []string {
	matches := quotedName.FindAllStringSubmatch(msg, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, strings.ReplaceAll(m[1], `\'`, `'`))
	}
	return out
}

func lastKeyword(loc string) string {
	i := strings.LastIndex(loc, "/")
	if i < 0 {
		return loc
	}
	seg := loc[i+1:]
	seg = strings.ReplaceAll(seg, "~1", "/")
	return strings.ReplaceAll(seg, "~0", "~")
}
