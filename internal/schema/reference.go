package schema

import (
	"net/url"
	"strings"
)

// DefaultExpectedReference is the substring a GAML schema reference is
// expected to contain.
const DefaultExpectedReference = "megadigo/gaml-schema"

// RawURL rewrites a GitHub "blob" page URL into its raw-content counterpart.
// Each substitution applies to the first occurrence only; references already
// in raw form pass through unchanged.
func RawURL(ref string) string {
	out := strings.Replace(ref, "github.com", "raw.githubusercontent.com", 1)
	return strings.Replace(out, "/blob/", "/", 1)
}

// BlobLocation identifies a file inside a GitHub repository at a given ref.
type BlobLocation struct {
	Owner string
	Repo  string
	Ref   string
	Path  string
}

// ParseBlobURL parses https://github.com/<owner>/<repo>/blob/<ref>/<path>.
// Branch names containing '/' are not supported: the first segment after
// "blob" is always taken as the ref.
func ParseBlobURL(ref string) (BlobLocation, bool) {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") {
		return BlobLocation{}, false
	}
	host := strings.ToLower(u.Hostname())
	if host != "github.com" && host != "www.github.com" {
		return BlobLocation{}, false
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 5 || parts[2] != "blob" {
		return BlobLocation{}, false
	}
	for _, p := range parts[:4] {
		if p == "" {
			return BlobLocation{}, false
		}
	}
	return BlobLocation{
		Owner: parts[0],
		Repo:  parts[1],
		Ref:   parts[3],
		Path:  strings.Join(parts[4:], "/"),
	}, true
}

// CheckReference returns an advisory warning when ref does not contain the
// expected substring. An empty expected value disables the check.
func CheckReference(ref, expected string) (string, bool) {
	expected = strings.TrimSpace(expected)
	if expected == "" || ref == "" || strings.Contains(ref, expected) {
		return "", false
	}
	return "schema reference may be incorrect (expected to contain " + expected + ")", true
}
