package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"gamlvalidate/internal/schema"
	"gamlvalidate/internal/validation"
)

const (
	DefaultExtension  = ".gaml"
	DefaultResultsDir = "validator/results"
	DefaultFileName   = ".gamlvalidate.yaml"
)

// DefaultSkipDirs are directory names never descended into.
var DefaultSkipDirs = []string{".git", "node_modules"}

type Config struct {
	// MAINTAINER NOTE: fields settable from the config file must also be
	// listed in File (file.go) and wired in internal/cli/validate.go.
	Input   Input
	Schema  Schema
	Output  Output
	Runtime Runtime
}

type Input struct {
	// Root is the directory searched for documents (positional argument).
	// Validate makes it absolute.
	Root string

	// Extension selects files by suffix (see --ext). A leading dot is added if missing.
	Extension string

	// SkipDirs lists directory names pruned from discovery (see --skip-dir).
	// Values may be provided as repeated flags and/or comma-separated lists.
	SkipDirs []string
}

type Schema struct {
	// GitHubAPI downloads github.com blob references through the contents API
	// instead of raw.githubusercontent.com (see --github-api).
	GitHubAPI bool

	// Auth attaches a GitHub token to requests for GitHub hosts (see --auth).
	// Implied by GitHubAPI.
	Auth bool

	// Token overrides token discovery when Auth is set (see --token).
	Token string

	// ExpectedReference is the substring the advisory reference check looks for
	// (see --expected-schema). Empty disables the check.
	ExpectedReference string

	// Draft is the JSON Schema draft assumed when a schema has no "$schema"
	// (see --draft). Allowed values: 4, 6, 7, 2019-09, 2020-12.
	Draft string
}

type Output struct {
	// ResultsDir receives per-file and summary artifacts (see --results-dir).
	// Relative paths are resolved against Input.Root.
	ResultsDir string

	// ConsoleFormat controls the console sink (see --console-format).
	// Allowed values: text, ndjson.
	ConsoleFormat string

	// NoConsole suppresses the console sink (see --no-console).
	NoConsole bool

	// NoColor disables coloured console output (see --no-color).
	NoColor bool

	// MetricsFile writes Prometheus text-format metrics at the end of the run
	// (see --metrics-file). Empty disables it.
	MetricsFile string
}

type Runtime struct {
	// Verbose enables debug logging and HTTP tracing (see --verbose).
	Verbose bool

	// LogLevel sets the diagnostic log level (see --log-level).
	LogLevel string

	// ConfigFile is the YAML file flags were merged with, if any (see --config).
	ConfigFile string
}

func New() *Config {
	return &Config{
		Input: Input{
			Root:      ".",
			Extension: DefaultExtension,
			SkipDirs:  append([]string(nil), DefaultSkipDirs...),
		},
		Schema: Schema{
			ExpectedReference: schema.DefaultExpectedReference,
			Draft:             "7",
		},
		Output: Output{
			ResultsDir:    DefaultResultsDir,
			ConsoleFormat: "text",
		},
		Runtime: Runtime{
			LogLevel: "warn",
		},
	}
}

func (c *Config) Validate() error {
	// Input
	if strings.TrimSpace(c.Input.Root) == "" {
		c.Input.Root = "."
	}
	root, err := filepath.Abs(c.Input.Root)
	if err != nil {
		return fmt.Errorf("invalid root %q: %w", c.Input.Root, err)
	}
	c.Input.Root = root

	c.Input.Extension = strings.TrimSpace(c.Input.Extension)
	if c.Input.Extension == "" {
		return errors.New("--ext must not be empty")
	}
	if !strings.HasPrefix(c.Input.Extension, ".") {
		c.Input.Extension = "." + c.Input.Extension
	}
	if strings.ContainsAny(c.Input.Extension, `/\`) {
		return fmt.Errorf("invalid --ext value %q", c.Input.Extension)
	}

	c.Input.SkipDirs = splitCommaList(c.Input.SkipDirs)
	for _, d := range c.Input.SkipDirs {
		if strings.ContainsAny(d, `/\`) {
			return fmt.Errorf("invalid --skip-dir value %q: expected a directory name, not a path", d)
		}
	}

	// Schema
	if c.Schema.GitHubAPI {
		c.Schema.Auth = true
	}
	c.Schema.Token = strings.TrimSpace(c.Schema.Token)
	c.Schema.ExpectedReference = strings.TrimSpace(c.Schema.ExpectedReference)
	c.Schema.Draft = strings.TrimSpace(c.Schema.Draft)
	if _, err := validation.ParseDraft(c.Schema.Draft); err != nil {
		return fmt.Errorf("invalid --draft value: %w", err)
	}

	// Output
	c.Output.ConsoleFormat = normalizeEnumValue(c.Output.ConsoleFormat)
	if c.Output.ConsoleFormat == "" {
		return errors.New("--console-format must be one of: text, ndjson")
	}
	if c.Output.ConsoleFormat != "text" && c.Output.ConsoleFormat != "ndjson" {
		return fmt.Errorf("unsupported --console-format: %s (must be one of: text, ndjson)", c.Output.ConsoleFormat)
	}

	if strings.TrimSpace(c.Output.ResultsDir) == "" {
		c.Output.ResultsDir = DefaultResultsDir
	}
	if !filepath.IsAbs(c.Output.ResultsDir) {
		c.Output.ResultsDir = filepath.Join(c.Input.Root, c.Output.ResultsDir)
	}
	c.Output.ResultsDir = filepath.Clean(c.Output.ResultsDir)

	c.Output.MetricsFile = strings.TrimSpace(c.Output.MetricsFile)
	if c.Output.MetricsFile != "" && !filepath.IsAbs(c.Output.MetricsFile) {
		c.Output.MetricsFile = filepath.Join(c.Input.Root, c.Output.MetricsFile)
	}

	// Runtime
	c.Runtime.LogLevel = normalizeEnumValue(c.Runtime.LogLevel)
	if c.Runtime.LogLevel == "" {
		c.Runtime.LogLevel = "warn"
	}
	if _, err := zerolog.ParseLevel(c.Runtime.LogLevel); err != nil {
		return fmt.Errorf("unsupported --log-level: %s", c.Runtime.LogLevel)
	}

	return nil
}

func normalizeEnumValue(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func splitCommaList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			p := strings.TrimSpace(part)
			if p == "" {
				continue
			}
			out = append(out, p)
		}
	}
	return out
}
