package validation

import (
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"gamlvalidate/internal/document"
	"gamlvalidate/internal/schema"
)

const gameSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["schema", "game"],
  "properties": {
    "schema": {"type": "string"},
    "game": {
      "type": "object",
      "required": ["name", "type"],
      "properties": {
        "name": {"type": "string"},
        "type": {"enum": ["puzzle", "arcade"]},
        "players": {"type": "integer", "minimum": 1}
      }
    }
  }
}`

func mustSchema(t *testing.T, ref, body string) *schema.Document {
	t.Helper()
	s, err := schema.ParseDocument(ref, []byte(body))
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}
	return s
}

func mustDoc(t *testing.T, yamlText string) *document.Document {
	t.Helper()
	d, err := document.Parse("test.gaml", []byte(yamlText))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return d
}

func TestValidate_Valid(t *testing.T) {
	v := New()
	s := mustSchema(t, "https://schemas.example.com/game.json", gameSchema)
	d := mustDoc(t, "schema: x\ngame:\n  name: Tetris\n  type: puzzle\n  players: 2\n")

	res, err := v.Validate(s, d)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !res.Valid || len(res.Errors) != 0 {
		t.Fatalf("expected valid, got %+v", res)
	}
}

func TestValidate_ReportsAllViolations(t *testing.T) {
	v := New()
	s := mustSchema(t, "https://schemas.example.com/game.json", gameSchema)
	d := mustDoc(t, "schema: x\ngame:\n  type: puzzle\n  players: 0\n")

	res, err := v.Validate(s, d)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if res.Valid {
		t.Fatal("expected invalid")
	}
	if len(res.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %+v", res.Errors)
	}

	missing := res.Errors[0]
	if missing.Path != "/game" {
		t.Fatalf("unexpected path %q", missing.Path)
	}
	if missing.Message != "missing required property 'name'" {
		t.Fatalf("unexpected message %q", missing.Message)
	}
	if missing.Params["keyword"] != "required" || missing.Params["missingProperty"] != "name" {
		t.Fatalf("unexpected params %+v", missing.Params)
	}
	if sp, _ := missing.Params["schemaPath"].(string); !strings.HasSuffix(sp, "/required") {
		t.Fatalf("unexpected schemaPath %q", sp)
	}

	if res.Errors[1].Path != "/game/players" || res.Errors[1].Params["keyword"] != "minimum" {
		t.Fatalf("unexpected second error %+v", res.Errors[1])
	}
}

func TestValidate_MissingAtRootHasEmptyPath(t *testing.T) {
	v := New()
	s := mustSchema(t, "https://schemas.example.com/game.json", gameSchema)
	d := mustDoc(t, "file: c.gaml\n")

	res, err := v.Validate(s, d)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	var props []string
	for _, e := range res.Errors {
		if e.Path != "" {
			t.Fatalf("expected root path, got %q", e.Path)
		}
		props = append(props, e.Params["missingProperty"].(string))
	}
	if !reflect.DeepEqual(props, []string{"game", "schema"}) {
		t.Fatalf("expected one error per missing property, got %v", props)
	}
}

func TestValidate_AdditionalProperties(t *testing.T) {
	v := New()
	s := mustSchema(t, "https://schemas.example.com/strict.json",
		`{"type":"object","properties":{"schema":{}},"additionalProperties":false}`)
	d := mustDoc(t, "schema: x\nextra: 1\n")

	res, err := v.Validate(s, d)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(res.Errors) != 1 {
		t.Fatalf("expected 1 error, got %+v", res.Errors)
	}
	if res.Errors[0].Params["additionalProperty"] != "extra" {
		t.Fatalf("unexpected params %+v", res.Errors[0].Params)
	}
}

func TestValidate_Deterministic(t *testing.T) {
	s := mustSchema(t, "https://schemas.example.com/game.json", gameSchema)
	d := mustDoc(t, "game:\n  type: racing\n  players: -1\n  name: 7\n")

	first, err := New().Validate(s, d)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	for i := 0; i < 20; i++ {
		again, err := New().Validate(s, d)
		if err != nil {
			t.Fatalf("Validate: %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs:\n%+v\n%+v", i, first, again)
		}
	}
}

func TestValidate_CompileFailure(t *testing.T) {
	v := New()
	s := mustSchema(t, "https://schemas.example.com/broken.json", `{"type": 12}`)

	_, err := v.Validate(s, mustDoc(t, "schema: x\n"))
	if !errors.Is(err, ErrSchemaCompile) {
		t.Fatalf("expected ErrSchemaCompile, got %v", err)
	}
}

func TestValidate_RemoteRefsUseLoader(t *testing.T) {
	var loads []string
	loader := func(url string) (io.ReadCloser, error) {
		loads = append(loads, url)
		return io.NopCloser(strings.NewReader(`{"definitions":{"name":{"type":"string","minLength":3}}}`)), nil
	}
	v := New(WithURLLoader(loader))
	s := mustSchema(t, "https://schemas.example.com/game.json",
		`{"properties":{"name":{"$ref":"defs.json#/definitions/name"}}}`)

	res, err := v.Validate(s, mustDoc(t, "name: ab\n"))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if res.Valid || len(res.Errors) != 1 || res.Errors[0].Path != "/name" {
		t.Fatalf("unexpected result %+v", res)
	}

	if _, err := v.Validate(s, mustDoc(t, "name: abc\n")); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !reflect.DeepEqual(loads, []string{"https://schemas.example.com/defs.json"}) {
		t.Fatalf("expected one load of the sibling schema, got %v", loads)
	}
}

func TestValidate_NilInputs(t *testing.T) {
	v := New()
	if _, err := v.Validate(nil, &document.Document{}); err == nil {
		t.Fatal("expected error for nil schema")
	}
	if _, err := v.Validate(&schema.Document{}, nil); err == nil {
		t.Fatal("expected error for nil document")
	}
}

func TestParseDraft(t *testing.T) {
	tests := map[string]*jsonschema.Draft{
		"":          jsonschema.Draft7,
		"7":         jsonschema.Draft7,
		"draft-07":  jsonschema.Draft7,
		"4":         jsonschema.Draft4,
		"2020-12":   jsonschema.Draft2020,
		"draft2019": jsonschema.Draft2019,
	}
	for in, want := range tests {
		got, err := ParseDraft(in)
		if err != nil {
			t.Fatalf("ParseDraft(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseDraft(%q) returned the wrong draft", in)
		}
	}
	if _, err := ParseDraft("3"); err == nil {
		t.Fatal("expected error for unsupported draft")
	}
}

func TestLastKeyword(t *testing.T) {
	tests := map[string]string{
		"/properties/game/required": "required",
		"/properties/a~1b":          "a/b",
		"/x/a~0b":                   "a~b",
		"":                          "",
	}
	for in, want := range tests {
		if got := lastKeyword(in); got != want {
			t.Errorf("lastKeyword(%q) = %q, want %q", in, got, want)
		}
	}
}
