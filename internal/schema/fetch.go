package schema

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v81/github"
)

// Fetcher retrieves the raw bytes of a schema reference. One call is one
// attempt; there is no retry.
type Fetcher interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

// Locator is implemented by fetchers that can say where a reference will be
// fetched from, for reporting.
type Locator interface {
	Location(ref string) string
}

// HTTPFetcher issues a single GET against the raw-content form of a reference.
type HTTPFetcher struct {
	Client *http.Client
}

func NewHTTPFetcher(client *http.Client) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{Client: client}
}

func (f *HTTPFetcher) Location(ref string) string {
	return RawURL(ref)
}

func (f *HTTPFetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
	location := RawURL(ref)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid schema URL %q: %v", ErrFetch, location, err)
	}
	req.Header.Set("Accept", "application/json, */*")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: network error: %v", ErrFetch, unwrapURLError(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: HTTP %d", ErrFetch, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: network error: %v", ErrFetch, err)
	}
	return body, nil
}

// GitHubFetcher downloads blob references through the GitHub contents API so
// schemas in private repositories can be read with a token. Other references
// go to Fallback.
type GitHubFetcher struct {
	API      *github.Client
	Fallback Fetcher
}

func NewGitHubFetcher(api *github.Client, fallback Fetcher) *GitHubFetcher {
	return &GitHubFetcher{API: api, Fallback: fallback}
}

func (f *GitHubFetcher) Location(ref string) string {
	if loc, ok := ParseBlobURL(ref); ok {
		return fmt.Sprintf("github api: %s/%s/%s@%s", loc.Owner, loc.Repo, loc.Path, loc.Ref)
	}
	if l, ok := f.Fallback.(Locator); ok {
		return l.Location(ref)
	}
	return ref
}

func (f *GitHubFetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
	loc, ok := ParseBlobURL(ref)
	if !ok {
		if f.Fallback == nil {
			return nil, fmt.Errorf("%w: not a GitHub blob URL: %s", ErrFetch, ref)
		}
		return f.Fallback.Fetch(ctx, ref)
	}

	opts := &github.RepositoryContentGetOptions{Ref: loc.Ref}
	file, _, _, err := f.API.Repositories.GetContents(ctx, loc.Owner, loc.Repo, loc.Path, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrFetch, describeAPIError(err))
	}
	if file == nil {
		return nil, fmt.Errorf("%w: %s is a directory, not a file", ErrFetch, loc.Path)
	}

	// Files over the contents API size limit come back with encoding "none"
	// and no inline content.
	if file.GetEncoding() != "none" && file.Content != nil {
		content, err := file.GetContent()
		if err != nil {
			return nil, fmt.Errorf("%w: decode content: %v", ErrFetch, err)
		}
		return []byte(content), nil
	}

	rc, _, err := f.API.Repositories.DownloadContents(ctx, loc.Owner, loc.Repo, loc.Path, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrFetch, describeAPIError(err))
	}
	defer rc.Close()
	body, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: network error: %v", ErrFetch, err)
	}
	return body, nil
}

// describeAPIError renders GitHub API failures without the full request URL.
func describeAPIError(err error) string {
	var er *github.ErrorResponse
	if errors.As(err, &er) {
		msg := strings.TrimSpace(er.Message)
		if msg == "" {
			msg = "GitHub API request failed"
		}
		if er.Response != nil {
			code := er.Response.StatusCode
			return fmt.Sprintf("GitHub API request failed (%d %s): %s", code, http.StatusText(code), msg)
		}
		return fmt.Sprintf("GitHub API request failed: %s", msg)
	}
	if scrubbed := scrubRequestFromErrorString(strings.TrimSpace(err.Error())); scrubbed != "" {
		return scrubbed
	}
	return "GitHub API request failed"
}

// scrubRequestFromErrorString drops a leading "GET https://...: " prefix.
func scrubRequestFromErrorString(s string) string {
	if !strings.HasPrefix(s, "GET ") {
		return s
	}
	if i := strings.Index(s, "://"); i >= 0 {
		if j := strings.Index(s[i:], ": "); j >= 0 {
			return strings.TrimSpace(s[i+j+2:])
		}
	}
	return ""
}

// unwrapURLError strips the "Get <url>:" prefix net/http adds.
func unwrapURLError(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) && ue.Err != nil {
		return ue.Err
	}
	return err
}
