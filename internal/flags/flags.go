package flags

// Package flags defines canonical CLI flag names shared across the CLI and
// config packages. Keeping these as constants avoids drift between Cobra flag
// wiring and config-file merging, which checks whether a flag was set.
// IMPORTANT: These are flag *names* without leading dashes.
// Example usage:
//
//	cmd.Flags().StringVar(&cfg.Input.Extension, flags.FlagExtension, "", "...")
//	arg := "--" + flags.FlagExtension
const (
	// Input
	FlagExtension = "ext"
	FlagSkipDir   = "skip-dir"
	FlagConfig    = "config"

	// Schema
	FlagGitHubAPI      = "github-api"
	FlagAuth           = "auth"
	FlagToken          = "token"
	FlagExpectedSchema = "expected-schema"
	FlagDraft          = "draft"

	// Output
	FlagResultsDir    = "results-dir"
	FlagConsoleFormat = "console-format"
	FlagNoConsole     = "no-console"
	FlagNoColor       = "no-color"
	FlagMetricsFile   = "metrics-file"

	// Runtime
	FlagVerbose  = "verbose"
	FlagLogLevel = "log-level"
)
