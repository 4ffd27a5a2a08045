// ABOUTME: Crops command for the leafdoctor CLI
// ABOUTME: Lists the crop vocabulary and which crops can be diagnosed

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

var cropsCmd = &cobra.Command{
	Use:   "crops",
	Short: "List supported crops",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		if exitCode := runCrops(ctx, os.Stdout); exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(cropsCmd)
}

func runCrops(ctx context.Context, w io.Writer) int {
	crops, err := client.New(GetAPIURL()).Crops(ctx)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	if IsJSONOutput() {
		printJSON(w, crops)
		return 0
	}
	fmt.Fprintln(w, formatCropsHuman(crops))
	return 0
}

func formatCropsHuman(crops []client.CropInfo) string {
	var b strings.Builder
	for i, c := range crops {
		if i > 0 {
			b.WriteString("\n")
		}
		if !c.Supported {
			fmt.Fprintf(&b, "%-8s %s", c.Name, styles.Subtitle.Render("no disease model"))
			continue
		}
		fmt.Fprintf(&b, "%-8s %s", c.Name, strings.Join(c.Labels, ", "))
	}
	return b.String()
}
