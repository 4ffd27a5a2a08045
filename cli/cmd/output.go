// ABOUTME: Shared output helpers for leafdoctor commands
// ABOUTME: JSON printing, terminal detection and the progress spinner

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/agrisense/leafdoctor/cli/internal/tui/spinner"
)

// interactive is true when stdin and stdout are terminals. Tests leave it false.
var interactive = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// printJSON writes v as indented JSON
func printJSON(w io.Writer, v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}
	fmt.Fprintln(w, string(data))
}

// withSpinner runs fn behind a spinner on stderr when attached to a
// terminal and human output is requested
func withSpinner[T any](ctx context.Context, title string, fn func(context.Context) (T, error)) (T, error) {
	if IsJSONOutput() || !interactive() {
		return fn(ctx)
	}
	return spinner.Run(ctx, os.Stderr, title, fn)
}
