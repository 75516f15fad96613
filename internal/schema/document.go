package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Document is a parsed JSON Schema. It is shared through the Cache and must
// not be mutated.
type Document struct {
	// Ref is the reference exactly as written in the GAML file.
	Ref string
	// Raw is the body as fetched; the validator compiles from it.
	Raw []byte
	// Value is the decoded schema with numbers kept as json.Number.
	Value any
}

// ParseDocument decodes body as a single JSON value.
func ParseDocument(ref string, body []byte) (*Document, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty response body", ErrSchemaParse)
		}
		return nil, fmt.Errorf("%w: %v", ErrSchemaParse, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: unexpected data after top-level value", ErrSchemaParse)
	}

	raw := make([]byte, len(body))
	copy(raw, body)
	return &Document{Ref: ref, Raw: raw, Value: v}, nil
}
