package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"gamlvalidate/internal/config"
	"gamlvalidate/internal/engine"
	"gamlvalidate/internal/flags"
	gh "gamlvalidate/internal/github"
	"gamlvalidate/internal/logging"
	"gamlvalidate/internal/schema"
)

// exit is replaced in tests.
var exit = os.Exit

const validateLong = `Validate every GAML file under ROOT (default: the current directory).

Each file must name its JSON Schema in a top-level "schema" field. The schema is
downloaded once per run and reused for every file that references it. GitHub
"blob" page URLs are rewritten to raw.githubusercontent.com, or read through
the GitHub contents API with --github-api.

Output:
	Console output is controlled by --console-format (default: text). NDJSON mode
	emits one lifecycle event per line (run.started, file.started, file.schema,
	schema.fetch, file.result, run.finished).
	Per-file results and validation-summary.json are written to --results-dir
	(default: validator/results under ROOT).

Configuration:
	Flags may also be set in a YAML file given with --config, or in
	.gamlvalidate.yaml inside ROOT. Flags set on the command line win.

Environment:
	With --auth or --github-api a GitHub token is taken from --token, then
	GITHUB_TOKEN, then GH_TOKEN, then "gh auth token". It is only ever sent to
	GitHub hosts.

Exit codes:
	0 = every file is valid (also when no files were found)
	1 = any file is invalid or errored, or the run could not complete

Examples:
	gamlvalidate validate
	gamlvalidate validate ./games --skip-dir vendor --no-color
	gamlvalidate validate --github-api --console-format ndjson
`

func newValidateCmd() *cobra.Command {
	cfg := config.New()

	cmd := &cobra.Command{
		Use:   "validate [root]",
		Short: "Validate GAML files against their declared schemas",
		Long:  validateLong,
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			code, err := runValidate(cmd, cfg, args)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			}
			exit(code)
		},
	}

	f := cmd.Flags()

	// Input
	f.StringVar(&cfg.Input.Extension, flags.FlagExtension, cfg.Input.Extension, "File extension to validate")
	f.StringSliceVar(&cfg.Input.SkipDirs, flags.FlagSkipDir, cfg.Input.SkipDirs, "Directory names never descended into (repeatable; comma-separated accepted)")
	f.StringVar(&cfg.Runtime.ConfigFile, flags.FlagConfig, "", "YAML config file (default: "+config.DefaultFileName+" in ROOT, if present)")

	// Schema
	f.BoolVar(&cfg.Schema.GitHubAPI, flags.FlagGitHubAPI, false, "Read github.com blob references through the GitHub contents API (implies --auth)")
	f.BoolVar(&cfg.Schema.Auth, flags.FlagAuth, false, "Send a GitHub token with requests to GitHub hosts")
	f.StringVar(&cfg.Schema.Token, flags.FlagToken, "", "GitHub token (default: GITHUB_TOKEN, GH_TOKEN or gh auth token)")
	f.StringVar(&cfg.Schema.ExpectedReference, flags.FlagExpectedSchema, cfg.Schema.ExpectedReference, "Warn when a schema reference does not contain this text (empty disables)")
	f.StringVar(&cfg.Schema.Draft, flags.FlagDraft, cfg.Schema.Draft, "JSON Schema draft for schemas without $schema: 4|6|7|2019-09|2020-12")

	// Output
	f.StringVar(&cfg.Output.ResultsDir, flags.FlagResultsDir, cfg.Output.ResultsDir, "Directory for JSON result artifacts (relative to ROOT)")
	f.StringVar(&cfg.Output.ConsoleFormat, flags.FlagConsoleFormat, cfg.Output.ConsoleFormat, "Console output format: text|ndjson")
	f.BoolVar(&cfg.Output.NoConsole, flags.FlagNoConsole, false, "Suppress console output (artifacts are still written)")
	f.BoolVar(&cfg.Output.NoColor, flags.FlagNoColor, false, "Disable coloured console output")
	f.StringVar(&cfg.Output.MetricsFile, flags.FlagMetricsFile, "", "Write Prometheus text-format metrics to this path")

	return cmd
}

// runValidate returns the process exit code. A non-nil error means the run
// could not complete and is always paired with exit code 1.
func runValidate(cmd *cobra.Command, cfg *config.Config, args []string) (int, error) {
	if len(args) == 1 {
		cfg.Input.Root = args[0]
	}
	cfg.Runtime.Verbose = globalOpts.verbose
	cfg.Runtime.LogLevel = globalOpts.logLevel

	path, err := config.FindFile(cfg.Runtime.ConfigFile, cfg.Input.Root)
	if err != nil {
		return 1, err
	}
	if path != "" {
		file, err := config.LoadFile(path)
		if err != nil {
			return 1, err
		}
		cfg.Apply(file, cmd.Flags().Changed)
		cfg.Runtime.ConfigFile = path
	}

	if err := cfg.Validate(); err != nil {
		return 1, err
	}

	logger := logging.New(cmd.ErrOrStderr(), logging.Config{
		Level:   cfg.Runtime.LogLevel,
		Verbose: cfg.Runtime.Verbose,
	})
	if cfg.Runtime.ConfigFile != "" {
		logger.Debug().Str("path", cfg.Runtime.ConfigFile).Msg("loaded config file")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var token string
	if cfg.Schema.Auth {
		tok, source, err := gh.ResolveAuthToken(ctx, cfg.Schema.Token)
		if err != nil {
			return 1, fmt.Errorf("failed to resolve GitHub auth token: %w", err)
		}
		if tok == "" {
			logger.Warn().Msg("no GitHub token found; fetching schemas anonymously")
		} else {
			logger.Debug().Str("source", string(source)).Msg("using GitHub token")
		}
		token = tok
	}

	client, err := gh.NewClient(ctx, token, gh.WithVerbose(cfg.Runtime.Verbose, logging.WithComponent(logger, "http")))
	if err != nil {
		return 1, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	var fetcher schema.Fetcher = schema.NewHTTPFetcher(client.HTTP)
	if cfg.Schema.GitHubAPI {
		fetcher = schema.NewGitHubFetcher(client.Client, fetcher)
	}

	eng := engine.NewEngine(fetcher,
		engine.WithLogger(logger),
		engine.WithStdout(cmd.OutOrStdout()),
	)
	sum, err := eng.Run(ctx, cfg)
	if err != nil {
		return 1, err
	}
	return engine.ExitCode(sum), nil
}

func init() {
	rootCmd.AddCommand(newValidateCmd())
}
