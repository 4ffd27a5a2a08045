// ABOUTME: Chat command for the leafdoctor CLI
// ABOUTME: Asks the farming assistant a question, optionally about a diagnosis

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/agrisense/leafdoctor/cli/internal/client"
	"github.com/agrisense/leafdoctor/cli/internal/tui/styles"
)

var (
	chatLanguage string
	chatCrop     string
	chatDisease  string
	chatSeverity float64
	chatLast     bool
)

var chatCmd = &cobra.Command{
	Use:   "chat <question>",
	Short: "Ask the farming assistant",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		in := client.ChatInput{Message: strings.Join(args, " "), Language: chatLanguage}
		if chatLast {
			if e, ok := historyStore().Latest(); ok {
				in.Diagnosis = &client.ChatDiagnosis{Crop: e.Crop, Disease: e.Disease, SeverityPercent: e.SeverityPercent}
			}
		}
		if chatCrop != "" || chatDisease != "" {
			in.Diagnosis = &client.ChatDiagnosis{Crop: chatCrop, Disease: chatDisease, SeverityPercent: chatSeverity}
		}
		if exitCode := runChat(ctx, os.Stdout, in); exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringVar(&chatLanguage, "language", "en", "Reply language (en, hi, te, ta, kn, mr)")
	chatCmd.Flags().StringVar(&chatCrop, "crop", "", "Crop from a previous diagnosis")
	chatCmd.Flags().StringVar(&chatDisease, "disease", "", "Disease from a previous diagnosis")
	chatCmd.Flags().Float64Var(&chatSeverity, "severity", 0, "Severity percentage from a previous diagnosis")
	chatCmd.Flags().BoolVar(&chatLast, "last", false, "Ask about the most recent diagnosis from history")
}

func runChat(ctx context.Context, w io.Writer, in client.ChatInput) int {
	c := client.New(GetAPIURL())
	reply, err := withSpinner(ctx, "Thinking", func(ctx context.Context) (*client.ChatReply, error) {
		return c.Chat(ctx, in)
	})
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	if IsJSONOutput() {
		printJSON(w, reply)
		return 0
	}
	fmt.Fprintln(w, reply.Reply)
	if reply.Source == "fallback" {
		fmt.Fprintln(w, styles.Subtitle.Render("(offline answer)"))
	}
	return 0
}
