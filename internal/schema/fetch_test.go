package schema

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-github/v81/github"
)

func newTestAPI(t *testing.T, mux *http.ServeMux) *github.Client {
	t.Helper()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client := github.NewClient(nil)
	u, err := url.Parse(server.URL + "/")
	if err != nil {
		t.Fatalf("parse server URL: %v", err)
	}
	client.BaseURL = u
	return client
}

func TestGitHubFetcher_DownloadsBlobViaContentsAPI(t *testing.T) {
	schemaBody := `{"type":"object","required":["name"]}`
	var gotRef string

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/schemas/contents/gaml/game.json", func(w http.ResponseWriter, r *http.Request) {
		gotRef = r.URL.Query().Get("ref")
		fmt.Fprintf(w, `{"type":"file","name":"game.json","path":"gaml/game.json","encoding":"base64","content":%q}`,
			base64.StdEncoding.EncodeToString([]byte(schemaBody)))
	})

	f := NewGitHubFetcher(newTestAPI(t, mux), nil)
	body, err := f.Fetch(context.Background(), "https://github.com/acme/schemas/blob/v2/gaml/game.json")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(body) != schemaBody {
		t.Fatalf("got body %q", body)
	}
	if gotRef != "v2" {
		t.Fatalf("expected ref=v2 query, got %q", gotRef)
	}
}

func TestGitHubFetcher_APIErrorIsPresented(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/private/contents/game.json", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message":"Not Found"}`)
	})

	f := NewGitHubFetcher(newTestAPI(t, mux), nil)
	_, err := f.Fetch(context.Background(), "https://github.com/acme/private/blob/main/game.json")
	if !errors.Is(err, ErrFetch) {
		t.Fatalf("expected ErrFetch, got %v", err)
	}
	if !strings.Contains(err.Error(), "404 Not Found") {
		t.Fatalf("expected status in message, got %v", err)
	}
	if strings.Contains(err.Error(), "http://") {
		t.Fatalf("request URL leaked into message: %v", err)
	}
}

func TestGitHubFetcher_NonBlobFallsBack(t *testing.T) {
	fallback := &countingFetcher{body: []byte(`{}`)}
	f := NewGitHubFetcher(github.NewClient(nil), fallback)

	if _, err := f.Fetch(context.Background(), "https://schemas.example.com/gaml.json"); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if fallback.calls != 1 {
		t.Fatalf("expected fallback to be used, calls=%d", fallback.calls)
	}
	if got := f.Location("https://github.com/a/b/blob/main/s.json"); got != "github api: a/b/s.json@main" {
		t.Fatalf("unexpected location %q", got)
	}
}

func TestParseDocument(t *testing.T) {
	doc, err := ParseDocument("ref", []byte(` {"maximum": 10} `))
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}
	m, ok := doc.Value.(map[string]any)
	if !ok {
		t.Fatalf("expected object, got %T", doc.Value)
	}
	if _, ok := m["maximum"].(interface{ String() string }); !ok {
		t.Fatalf("expected json.Number, got %T", m["maximum"])
	}

	for _, bad := range []string{"", "{", `{} {}`, `{"a":1} trailing`} {
		if _, err := ParseDocument("ref", []byte(bad)); !errors.Is(err, ErrSchemaParse) {
			t.Errorf("ParseDocument(%q): expected ErrSchemaParse, got %v", bad, err)
		}
	}
}

func TestDescribeAPIError_ScrubsRequest(t *testing.T) {
	got := describeAPIError(errors.New("GET https://api.github.com/repos/a/b/contents/x: 500 boom"))
	if got != "500 boom" {
		t.Fatalf("got %q", got)
	}
}
