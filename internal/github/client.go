package github

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-github/v81/github"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

// Client bundles the go-github API client with the plain HTTP client used for
// raw schema downloads. Both share one transport chain.
type Client struct {
	Client *github.Client
	HTTP   *http.Client
}

type options struct {
	verbose bool
	logger  zerolog.Logger
	base    http.RoundTripper
}

type Option func(*options)

// WithVerbose logs one line per request and response at debug level.
func WithVerbose(enabled bool, logger zerolog.Logger) Option {
	return func(o *options) {
		o.verbose = enabled
		o.logger = logger
	}
}

// WithTransport replaces http.DefaultTransport as the innermost transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) {
		o.base = rt
	}
}

// loggingRoundTripper emits one line per request and response (including
// latency) when verbose logging is enabled.
type loggingRoundTripper struct {
	base   http.RoundTripper
	logger zerolog.Logger
}

func (t *loggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	t.logger.Debug().Str("method", req.Method).Str("url", req.URL.String()).Msg("http request")
	resp, err := t.base.RoundTrip(req)
	dur := time.Since(start).Truncate(time.Millisecond)
	if err != nil {
		t.logger.Debug().Err(err).Dur("elapsed", dur).Msg("http request failed")
	} else {
		t.logger.Debug().Int("status", resp.StatusCode).Dur("elapsed", dur).Msg("http response")
	}
	return resp, err
}

// githubHosts are the only hosts that ever receive the access token.
var githubHosts = map[string]bool{
	"github.com":                true,
	"api.github.com":            true,
	"raw.githubusercontent.com": true,
}

// IsGitHubHost reports whether host belongs to GitHub.
func IsGitHubHost(host string) bool {
	return githubHosts[strings.ToLower(host)]
}

// hostScopedTransport routes GitHub-bound requests through the authenticated
// transport and everything else through the bare one, so schema references on
// third-party hosts never see the token.
type hostScopedTransport struct {
	authed http.RoundTripper
	plain  http.RoundTripper
}

func (t *hostScopedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if IsGitHubHost(req.URL.Hostname()) {
		return t.authed.RoundTrip(req)
	}
	return t.plain.RoundTrip(req)
}

func NewClient(ctx context.Context, token string, opts ...Option) (*Client, error) {
	if ctx == nil {
		return nil, fmt.Errorf("github client: ctx is nil")
	}

	o := &options{logger: zerolog.Nop()}
	for _, apply := range opts {
		if apply != nil {
			apply(o)
		}
	}

	transport := o.base
	if transport == nil {
		transport = http.DefaultTransport
	}
	if o.verbose {
		transport = &loggingRoundTripper{base: transport, logger: o.logger}
	}
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		transport = &hostScopedTransport{
			authed: &oauth2.Transport{Source: ts, Base: transport},
			plain:  transport,
		}
	}
	// Always provide an http.Client so verbose logging works even without a token.
	tc := &http.Client{Transport: transport}

	return &Client{
		Client: github.NewClient(tc),
		HTTP:   tc,
	}, nil
}
