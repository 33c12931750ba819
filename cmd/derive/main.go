// Command derive applies a curated spreadsheet to a destination locale from
// the command line, or previews what it would do.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	_ "github.com/JonMunkholm/fooddb/internal/core/formats" // Register spreadsheet formats
)

const (
	exitOK       = 0
	exitFailure  = 1
	exitUsage    = 2
	exitRejected = 3
)

// exitError carries the process exit code for an error.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitFailure
}

func newRootCmd() *cobra.Command {
	var noColor bool

	root := &cobra.Command{
		Use:           "derive",
		Short:         "Derive a food database locale from a curated spreadsheet",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				color.NoColor = true
			}
		},
	}
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable coloured output")

	root.AddCommand(newRunCmd(true), newRunCmd(false), newFormatsCmd())
	return root
}

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Overload()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		var ee *exitError
		if !errors.As(err, &ee) || ee.code != exitRejected {
			printError(os.Stderr, err)
		}
	}
	os.Exit(exitCode(err))
}
