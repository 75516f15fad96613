// Package document loads GAML files into a generic, JSON-compatible tree.
//
// A GAML file is ordinary YAML. Only a handful of top-level fields mean
// anything to the validator (schema, file, version, game.name, game.type);
// everything else is opaque and is handed to the schema validator as-is.
package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// SchemaField is the top-level key that carries the schema reference.
const SchemaField = "schema"

// Document is one parsed GAML file. Root holds only JSON value types:
// map[string]any, []any, json.Number, string, bool and nil.
type Document struct {
	Path string
	Root any
}

// Meta is display-only information about a document; absent fields are "".
type Meta struct {
	File     string `json:"file,omitempty"`
	Version  string `json:"version,omitempty"`
	GameName string `json:"gameName,omitempty"`
	GameType string `json:"gameType,omitempty"`
	Schema   string `json:"schema,omitempty"`
}

// Load reads and parses path. When the only problem is a missing schema
// reference, the parsed document is returned together with
// ErrMissingSchemaReference so callers can still report its metadata.
func Load(path string) (*Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s is not a regular file", ErrNotFound, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	doc, err := Parse(path, data)
	if err != nil {
		return nil, err
	}
	if _, err := doc.SchemaRef(); err != nil {
		return doc, err
	}
	return doc, nil
}

// Parse decodes exactly one YAML document from data.
func Parse(path string, data []byte) (*Document, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))

	var raw any
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: document is empty", ErrParse)
		}
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	var extra any
	switch err := dec.Decode(&extra); {
	case err == nil:
		return nil, fmt.Errorf("%w: expected a single document, found more than one", ErrParse)
	case !errors.Is(err, io.EOF):
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	root, err := normalize(raw, "")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return &Document{Path: path, Root: root}, nil
}

// Lookup walks nested mappings by key. It reports false when any step is
// missing or is not a mapping.
func (d *Document) Lookup(keys ...string) (any, bool) {
	if d == nil {
		return nil, false
	}
	cur := d.Root
	for _, k := range keys {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[k]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// String returns the value at keys when it is a string.
func (d *Document) String(keys ...string) (string, bool) {
	v, ok := d.Lookup(keys...)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// SchemaRef returns the declared schema reference.
func (d *Document) SchemaRef() (string, error) {
	v, ok := d.Lookup(SchemaField)
	if !ok || v == nil {
		return "", ErrMissingSchemaReference
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %q must be a string, got %s", ErrMissingSchemaReference, SchemaField, typeName(v))
	}
	if strings.TrimSpace(s) == "" {
		return "", ErrMissingSchemaReference
	}
	return strings.TrimSpace(s), nil
}

func (d *Document) Meta() Meta {
	return Meta{
		File:     d.display("file"),
		Version:  d.display("version"),
		GameName: d.display("game", "name"),
		GameType: d.display("game", "type"),
		Schema:   d.display(SchemaField),
	}
}

func (d *Document) display(keys ...string) string {
	v, ok := d.Lookup(keys...)
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}

// normalize converts a yaml.v3 decoded tree into JSON value types so it can
// be handed to a JSON Schema validator unchanged.
func normalize(v any, at string) (any, error) {
	switch t := v.(type) {
	case nil, string, bool:
		return t, nil
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			n, err := normalize(child, at+"/"+k)
			if err != nil {
				return nil, err
			}
			out[k] = n
		}
		return out, nil
	case map[any]any:
		out := make(map[string]any, len(t))
		keys := make([]string, 0, len(t))
		byKey := make(map[string]any, len(t))
		for k, child := range t {
			ks := fmt.Sprint(k)
			keys = append(keys, ks)
			byKey[ks] = child
		}
		sort.Strings(keys)
		for _, k := range keys {
			n, err := normalize(byKey[k], at+"/"+k)
			if err != nil {
				return nil, err
			}
			out[k] = n
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, child := range t {
			n, err := normalize(child, at+"/"+strconv.Itoa(i))
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	case int:
		return json.Number(strconv.Itoa(t)), nil
	case int64:
		return json.Number(strconv.FormatInt(t, 10)), nil
	case uint64:
		return json.Number(strconv.FormatUint(t, 10)), nil
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return nil, fmt.Errorf("value at %s is not representable in JSON: %v", pointerOrRoot(at), t)
		}
		return json.Number(strconv.FormatFloat(t, 'g', -1, 64)), nil
	case time.Time:
		return t.Format(time.RFC3339Nano), nil
	case []byte:
		return string(t), nil
	default:
		return fmt.Sprint(t), nil
	}
}

func pointerOrRoot(at string) string {
	if at == "" {
		return "(root)"
	}
	return at
}

func typeName(v any) string {
	switch v.(type) {
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case json.Number:
		return "number"
	case bool:
		return "boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}
