// Package schema resolves GAML schema references into parsed JSON Schema
// documents, fetching each distinct reference at most once per process.
package schema

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// FetchHook is called right before a reference is fetched over the network.
type FetchHook func(ref, location string)

// Stats counts resolver activity for reporting.
type Stats struct {
	Fetches   int64 `json:"fetches"`
	CacheHits int64 `json:"cache_hits"`
	Failures  int64 `json:"failures"`
}

type Resolver struct {
	fetcher Fetcher
	cache   *Cache
	group   Group
	logger  zerolog.Logger
	onFetch FetchHook

	// failed remembers references whose single fetch attempt failed, so the
	// same broken URL is not retried for every file that declares it.
	mu     sync.Mutex
	failed map[string]error

	fetches   atomic.Int64
	cacheHits atomic.Int64
	failures  atomic.Int64
}

type Option func(*Resolver)

// WithCache shares an existing cache instead of starting empty.
func WithCache(c *Cache) Option {
	return func(r *Resolver) {
		if c != nil {
			r.cache = c
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(r *Resolver) {
		r.logger = l
	}
}

func WithFetchHook(h FetchHook) Option {
	return func(r *Resolver) {
		r.onFetch = h
	}
}

func NewResolver(f Fetcher, opts ...Option) *Resolver {
	r := &Resolver{
		fetcher: f,
		cache:   NewCache(),
		logger:  zerolog.Nop(),
		failed:  make(map[string]error),
	}
	for _, apply := range opts {
		if apply != nil {
			apply(r)
		}
	}
	return r
}

// Cached reports whether ref is already resolved.
func (r *Resolver) Cached(ref string) bool {
	_, ok := r.cache.Get(ref)
	return ok
}

func (r *Resolver) Stats() Stats {
	return Stats{
		Fetches:   r.fetches.Load(),
		CacheHits: r.cacheHits.Load(),
		Failures:  r.failures.Load(),
	}
}

// Resolve returns the schema for ref, from cache when possible. The original
// reference string is the cache key; the fetched location may differ.
func (r *Resolver) Resolve(ctx context.Context, ref string) (*Document, error) {
	if ctx == nil {
		return nil, fmt.Errorf("Resolve: nil context")
	}
	if r == nil || r.fetcher == nil {
		return nil, fmt.Errorf("Resolve: nil fetcher (use NewResolver)")
	}
	if ref == "" {
		return nil, ErrEmptyReference
	}

	if doc, ok := r.cache.Get(ref); ok {
		r.cacheHits.Add(1)
		r.logger.Debug().Str("ref", ref).Msg("schema cache hit")
		return doc, nil
	}
	if err := r.previousFailure(ref); err != nil {
		r.logger.Debug().Str("ref", ref).Msg("schema previously failed; not refetching")
		return nil, err
	}

	doc, err, _ := r.group.Do(ref, func() (*Document, error) {
		// Re-check under single-flight: a concurrent caller may have filled it.
		if doc, ok := r.cache.Get(ref); ok {
			return doc, nil
		}
		if err := r.previousFailure(ref); err != nil {
			return nil, err
		}
		doc, err := r.fetch(ctx, ref)
		if err != nil {
			r.rememberFailure(ref, err)
			return nil, err
		}
		r.cache.Set(ref, doc)
		return doc, nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (r *Resolver) fetch(ctx context.Context, ref string) (*Document, error) {
	location := ref
	if l, ok := r.fetcher.(Locator); ok {
		location = l.Location(ref)
	}
	if r.onFetch != nil {
		r.onFetch(ref, location)
	}
	r.fetches.Add(1)
	r.logger.Debug().Str("ref", ref).Str("location", location).Msg("fetching schema")

	body, err := r.fetcher.Fetch(ctx, ref)
	if err != nil {
		return nil, err
	}
	return ParseDocument(ref, body)
}

func (r *Resolver) previousFailure(ref string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failed[ref]
}

func (r *Resolver) rememberFailure(ref string, err error) {
	r.failures.Add(1)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed[ref] = err
}
