package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"gamlvalidate/internal/flags"
)

var (
	buildVersion = "dev"
	buildCommit  = "unknown"
	buildDate    = "unknown"
)

// globalOpts holds the persistent flags shared by every subcommand.
var globalOpts struct {
	verbose  bool
	logLevel string
}

var rootCmd = &cobra.Command{
	Use:   "gamlvalidate",
	Short: "Validate GAML files against their declared JSON Schemas",
	Long: `gamlvalidate finds every GAML file under a directory, downloads the JSON Schema
each one declares in its "schema" field, and validates the file against it.

Each schema is downloaded at most once per run. Results are printed to the
console and written as JSON artifacts.

Examples:
	# Validate the current directory
	gamlvalidate validate

	# Validate another tree, streaming NDJSON events
	gamlvalidate validate ./games --console-format ndjson

	# Print build info
	gamlvalidate version

Exit codes:
	0 = every file is valid (also when no files were found)
	1 = any file is invalid or errored, or the run could not complete`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&globalOpts.verbose, flags.FlagVerbose, false, "Enable verbose logging (prints every HTTP request and cache decision)")
	rootCmd.PersistentFlags().StringVar(&globalOpts.logLevel, flags.FlagLogLevel, "warn", "Diagnostic log level: debug|info|warn|error")
}

func SetBuildInfo(version, commit, date string) {
	if version != "" {
		buildVersion = version
	}
	if commit != "" {
		buildCommit = commit
	}
	if date != "" {
		buildDate = date
	}

	rootCmd.Version = fmt.Sprintf("%s (%s) %s", buildVersion, buildCommit, buildDate)
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

func BuildInfo() (version, commit, date string) {
	return buildVersion, buildCommit, buildDate
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
