package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/fooddb/internal/config"
	"github.com/JonMunkholm/fooddb/internal/core"
	"github.com/JonMunkholm/fooddb/internal/logging"
	"github.com/JonMunkholm/fooddb/internal/store"
)

type runOptions struct {
	source  string
	dest    string
	format  string
	asJSON  bool
	verbose bool
}

// newRunCmd builds "run" (commit) or "preview" (dry run).
func newRunCmd(commit bool) *cobra.Command {
	var opts runOptions

	use, short := "run <spreadsheet.csv>", "Apply a spreadsheet to the destination locale"
	if !commit {
		use, short = "preview <spreadsheet.csv>", "Validate a spreadsheet and show the planned changes without writing"
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDerive(cmd.Context(), cmd, opts, args[0], commit)
		},
	}

	cmd.Flags().StringVar(&opts.source, "source", "", "Source locale id (required)")
	cmd.Flags().StringVar(&opts.dest, "dest", "", "Destination locale id (required)")
	cmd.Flags().StringVar(&opts.format, "format", "", "Spreadsheet format (default: DERIVE_DEFAULT_FORMAT)")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print the result as JSON")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log at debug level")

	_ = cmd.MarkFlagRequired("source")
	_ = cmd.MarkFlagRequired("dest")

	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		opts.source = strings.TrimSpace(opts.source)
		opts.dest = strings.TrimSpace(opts.dest)
		if opts.source == opts.dest {
			return withCode(exitUsage, fmt.Errorf("--source and --dest must differ"))
		}
		if opts.format != "" {
			if _, ok := core.GetFormat(opts.format); !ok {
				return withCode(exitUsage, fmt.Errorf("%w: %s", core.ErrUnknownFormat, opts.format))
			}
		}
		return nil
	}

	return cmd
}

func runDerive(ctx context.Context, cmd *cobra.Command, opts runOptions, path string, commit bool) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return withCode(exitUsage, fmt.Errorf("load configuration: %w", err))
	}
	level := cfg.Logging.Level
	if opts.verbose {
		level = "debug"
	}
	logging.SetupWriter(os.Stderr, level, cfg.Logging.Format)

	f, err := os.Open(path)
	if err != nil {
		return withCode(exitUsage, err)
	}
	defer f.Close()

	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	service := core.NewService(store.New(pool), cfg.Derive)
	req := core.DeriveRequest{
		Format:       opts.format,
		SourceLocale: opts.source,
		DestLocale:   opts.dest,
		FileName:     filepath.Base(path),
		Input:        f,
	}

	var result *core.DeriveResult
	if commit {
		result, err = service.Derive(ctx, req)
	} else {
		result, err = service.Preview(ctx, req)
	}

	out := cmd.OutOrStdout()
	if problems, ok := core.AsRejected(err); ok {
		printRejected(out, problems)
		return withCode(exitRejected, err)
	}
	if err != nil {
		return core.NewUserError(err)
	}

	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	printResult(out, result)
	return nil
}

func newFormatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List the spreadsheet formats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			printFormats(cmd.OutOrStdout(), core.Formats())
			return nil
		},
	}
}
