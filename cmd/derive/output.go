package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/JonMunkholm/fooddb/internal/core"
)

var (
	heading = color.New(color.Bold)
	good    = color.New(color.FgGreen)
	warn    = color.New(color.FgYellow)
	bad     = color.New(color.FgRed)
	faint   = color.New(color.FgHiBlack)
)

func printResult(w io.Writer, r *core.DeriveResult) {
	if r.Committed {
		good.Fprintf(w, "Derived %s from %s", r.DestLocale, r.SourceLocale)
	} else {
		warn.Fprintf(w, "Preview of %s from %s (nothing written)", r.DestLocale, r.SourceLocale)
	}
	faint.Fprintf(w, "  run %s, format %s, %dms\n", r.RunID, r.Format, r.DurationMS)

	heading.Fprintln(w, "\nActions")
	fmt.Fprintf(w, "  include   %d\n", r.Actions.Include)
	fmt.Fprintf(w, "  new       %d\n", r.Actions.New)
	fmt.Fprintf(w, "  clone     %d\n", r.Actions.Clone)
	fmt.Fprintf(w, "  no action %d\n", r.Actions.NoAction)

	heading.Fprintln(w, "\nChanges")
	fmt.Fprintf(w, "  foods created       %d\n", len(r.CreatedCodes))
	fmt.Fprintf(w, "  foods copied        %d\n", len(r.CopiedCodes))
	fmt.Fprintf(w, "  local foods written %d\n", r.LocalCreated)
	fmt.Fprintf(w, "  local foods copied  %d\n", r.LocalCopied)
	fmt.Fprintf(w, "  foods in locale     %d\n", r.FoodsIncluded)

	if codes := append(append([]string{}, r.CreatedCodes...), r.CopiedCodes...); len(codes) > 0 {
		heading.Fprintln(w, "\nNew codes")
		fmt.Fprintf(w, "  %s\n", strings.Join(codes, " "))
	}

	if len(r.Substitutions) > 0 {
		heading.Fprintln(w, "\nCodes changed to avoid existing foods")
		from := make([]string, 0, len(r.Substitutions))
		for k := range r.Substitutions {
			from = append(from, k)
		}
		sort.Strings(from)
		for _, k := range from {
			fmt.Fprintf(w, "  %s -> %s\n", k, warn.Sprint(r.Substitutions[k]))
		}
	}
}

func printRejected(w io.Writer, problems []string) {
	bad.Fprintf(w, "Spreadsheet rejected with %d error(s); nothing was written\n", len(problems))
	for _, p := range problems {
		fmt.Fprintf(w, "  %s %s\n", bad.Sprint("x"), p)
	}
}

func printFormats(w io.Writer, formats []core.Format) {
	for _, f := range formats {
		fmt.Fprintf(w, "%s  %s\n", heading.Sprintf("%-6s", f.Key), f.Label)
		if f.Description != "" {
			faint.Fprintf(w, "        %s\n", f.Description)
		}
	}
}

// printError writes err to the terminal. Errors with a catalogued message
// show it with its code and action, then the underlying cause.
func printError(w io.Writer, err error) {
	cause := err
	var ue *core.UserError
	if errors.As(err, &ue) {
		cause = ue.Technical
	}

	if !core.IsUserFacing(err) {
		fmt.Fprintln(w, bad.Sprint("error:"), cause)
		return
	}
	fmt.Fprintln(w, bad.Sprint("error:"), core.FormatUserError(err))
	faint.Fprintf(w, "  %v\n", cause)
}
