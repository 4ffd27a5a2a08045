// ABOUTME: History command for the leafdoctor CLI
// ABOUTME: Lists diagnoses made from this machine, newest first

package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agrisense/leafdoctor/cli/internal/history"
	"github.com/agrisense/leafdoctor/cli/internal/tui/styles"
)

var historyStore = func() *history.History {
	return history.New(history.DefaultConfigDir())
}

var historyClear bool

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent diagnoses",
	Run: func(cmd *cobra.Command, args []string) {
		if exitCode := runHistory(os.Stdout, historyClear); exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().BoolVar(&historyClear, "clear", false, "Forget all recorded diagnoses")
}

func runHistory(w io.Writer, clearAll bool) int {
	store := historyStore()
	if clearAll {
		if err := store.Clear(); err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			return 2
		}
		fmt.Fprintln(w, "History cleared")
		return 0
	}

	entries, err := store.Load()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	if IsJSONOutput() {
		printJSON(w, entries)
		return 0
	}
	if len(entries) == 0 {
		fmt.Fprintln(w, styles.Subtitle.Render("No diagnoses yet"))
		return 0
	}
	fmt.Fprintln(w, formatHistoryHuman(entries))
	return 0
}

func formatHistoryHuman(entries []history.Entry) string {
	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s  %-8s %-28s %s %5.1f%%  %s",
			e.DiagnosedAt.Local().Format("2006-01-02 15:04"),
			e.Crop,
			e.Disease,
			styles.SeverityBar(e.SeverityPercent, 10),
			e.SeverityPercent,
			styles.Subtitle.Render(e.ImagePath))
	}
	return b.String()
}
