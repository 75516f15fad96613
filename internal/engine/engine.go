package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"gamlvalidate/internal/config"
	"gamlvalidate/internal/document"
	"gamlvalidate/internal/logging"
	"gamlvalidate/internal/output"
	"gamlvalidate/internal/results"
	"gamlvalidate/internal/schema"
	"gamlvalidate/internal/validation"
)

// ExitCode is 0 only when every discovered file is valid.
//
// 0 = all files valid (including an empty run)
// 1 = any file invalid or errored, or the run could not complete
func ExitCode(s *results.RunSummary) int {
	if s != nil && s.Counts.AllValid {
		return 0
	}
	return 1
}

type Engine struct {
	fetcher schema.Fetcher
	cache   *schema.Cache
	logger  zerolog.Logger
	stdout  io.Writer
	now     func() time.Time
}

type Option func(*Engine)

// WithCache injects the schema cache; a fresh one is used otherwise.
func WithCache(c *schema.Cache) Option {
	return func(e *Engine) {
		if c != nil {
			e.cache = c
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithStdout redirects the console report.
func WithStdout(w io.Writer) Option {
	return func(e *Engine) {
		if w != nil {
			e.stdout = w
		}
	}
}

// WithClock replaces time.Now for the run timestamp and duration.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

func NewEngine(f schema.Fetcher, opts ...Option) *Engine {
	e := &Engine{
		fetcher: f,
		cache:   schema.NewCache(),
		logger:  zerolog.Nop(),
		stdout:  os.Stdout,
		now:     time.Now,
	}
	for _, apply := range opts {
		if apply != nil {
			apply(e)
		}
	}
	return e
}

func setupOutputManager(cfg *config.Config, stdout io.Writer, logger zerolog.Logger) (*output.Manager, error) {
	outMgr := output.NewManager()

	// Console Sink
	var progress io.Writer
	if !cfg.Output.NoConsole {
		if err := outMgr.AddSink(output.NewConsoleSink(stdout, cfg.Output.ConsoleFormat, cfg.Output.NoColor)); err != nil {
			outMgr.Close()
			return nil, err
		}
		if cfg.Output.ConsoleFormat == "text" {
			progress = stdout
		}
	}

	// Artifact Sink
	as, err := output.NewArtifactSink(cfg.Output.ResultsDir, progress, logging.WithComponent(logger, "artifacts"))
	if err != nil {
		outMgr.Close()
		return nil, err
	}
	if err := outMgr.AddSink(as); err != nil {
		outMgr.Close()
		return nil, err
	}

	// Metrics Sink
	if cfg.Output.MetricsFile != "" {
		ms, err := output.NewMetricsSink(cfg.Output.MetricsFile)
		if err != nil {
			outMgr.Close()
			return nil, err
		}
		if err := outMgr.AddSink(ms); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	return outMgr, nil
}

// Run validates every discovered file in order. Per-file failures become
// ERROR results and never stop the batch; the returned error is reserved for
// conditions that leave the run unusable (unreadable root, artifacts not
// writable). A summary is returned whenever validation itself completed.
func (e *Engine) Run(ctx context.Context, cfg *config.Config) (*results.RunSummary, error) {
	if ctx == nil {
		return nil, errors.New("Run: nil context")
	}
	if cfg == nil {
		return nil, errors.New("Run: nil config")
	}
	if e.fetcher == nil {
		return nil, errors.New("Run: nil fetcher (use NewEngine)")
	}

	start := e.now()
	root := cfg.Input.Root

	files, err := Discover(root, DiscoverOptions{
		Extension: cfg.Input.Extension,
		SkipDirs:  cfg.Input.SkipDirs,
		Logger:    logging.WithComponent(e.logger, "discovery"),
	})
	if err != nil {
		return nil, err
	}
	e.logger.Debug().Str("root", root).Int("files", len(files)).Msg("discovered files")

	draft, err := validation.ParseDraft(cfg.Schema.Draft)
	if err != nil {
		return nil, err
	}

	outMgr, err := setupOutputManager(cfg, e.stdout, e.logger)
	if err != nil {
		return nil, fmt.Errorf("create output sinks: %w", err)
	}
	defer outMgr.Close()

	// The fetch hook reports downloads against the file being processed.
	var curIndex int
	var curFile string
	resolver := schema.NewResolver(e.fetcher,
		schema.WithCache(e.cache),
		schema.WithLogger(logging.WithComponent(e.logger, "schema")),
		schema.WithFetchHook(func(ref, location string) {
			_ = outMgr.Write(output.Event{Type: output.EventSchemaFetch, Index: curIndex, File: curFile, SchemaRef: ref, Location: location})
		}),
	)
	validator := validation.New(
		validation.WithDraft(draft),
		validation.WithURLLoader(refLoader(ctx, resolver)),
	)

	_ = outMgr.Write(output.Event{
		Type:      output.EventRunStarted,
		Timestamp: results.FormatTimestamp(start),
		Root:      root,
		Files:     len(files),
	})

	rs := make([]results.FileResult, 0, len(files))
	for i, path := range files {
		curIndex, curFile = i+1, relativeName(root, path)
		_ = outMgr.Write(output.Event{Type: output.EventFileStarted, Index: curIndex, File: curFile})

		r := e.validateFile(ctx, cfg, resolver, validator, outMgr, curIndex, path, curFile)
		rs = append(rs, r)
		_ = outMgr.Write(output.ResultEvent(r, curIndex))
	}

	sum := results.NewRunSummary(start, root, rs)
	sum.Duration = e.now().Sub(start)
	stats := resolver.Stats()
	e.logger.Debug().
		Int64("fetches", stats.Fetches).
		Int64("cache_hits", stats.CacheHits).
		Dur("elapsed", sum.Duration).
		Msg("run finished")

	err = outMgr.Write(output.Event{
		Type:        output.EventRunFinished,
		Counts:      &sum.Counts,
		SchemaStats: &stats,
		DurationMS:  sum.Duration.Milliseconds(),
		ExitCode:    ExitCode(sum),
		Summary:     sum,
	})
	if err != nil {
		return sum, fmt.Errorf("write results: %w", err)
	}
	return sum, nil
}

// validateFile drives one file through load, resolve and validate. Every
// failure is converted into an ERROR result.
func (e *Engine) validateFile(ctx context.Context, cfg *config.Config, resolver *schema.Resolver, validator *validation.Validator, outMgr *output.Manager, index int, path, rel string) results.FileResult {
	doc, err := document.Load(path)
	if err != nil {
		e.logger.Debug().Err(err).Str("file", rel).Msg("load failed")
		r := results.ErroredResult(rel, "", err.Error())
		r.Path = path
		return r
	}

	ref, _ := doc.SchemaRef()
	_ = outMgr.Write(output.Event{Type: output.EventFileSchema, Index: index, File: rel, SchemaRef: ref, Cached: resolver.Cached(ref)})

	schemaDoc, err := resolver.Resolve(ctx, ref)
	if err != nil {
		r := results.ErroredResult(rel, ref, err.Error())
		r.Path = path
		return r
	}

	res, err := validator.Validate(schemaDoc, doc)
	if err != nil {
		r := results.ErroredResult(rel, ref, err.Error())
		r.Path = path
		return r
	}

	var r results.FileResult
	if res.Valid {
		r = results.ValidResult(rel, ref)
	} else {
		r = results.InvalidResult(rel, ref, res.Errors)
	}
	r.Path = path
	r.Meta = doc.Meta()
	if w, ok := schema.CheckReference(ref, cfg.Schema.ExpectedReference); ok {
		r.Warnings = append(r.Warnings, w)
	}
	return r
}

// refLoader serves remote $refs from the same resolver, and so the same cache,
// as top-level schemas.
func refLoader(ctx context.Context, r *schema.Resolver) validation.URLLoader {
	return func(url string) (io.ReadCloser, error) {
		doc, err := r.Resolve(ctx, url)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(bytes.NewReader(doc.Raw)), nil
	}
}
