// ABOUTME: Health command for the leafdoctor CLI
// ABOUTME: Checks backend connectivity and collaborator status

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/agrisense/leafdoctor/cli/internal/client"
	"github.com/agrisense/leafdoctor/cli/internal/tui/styles"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check backend connectivity",
	Long: `Check connectivity to the LeafDoctor backend and report model server,
catalog, upload archive and LLM status.

Exit codes:
  0 - Service healthy
  1 - Service degraded (a model or the catalog is unavailable)
  2 - Error (connectivity)`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runHealth(ctx, os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

// runHealth executes the health check and returns exit code
func runHealth(ctx context.Context, w io.Writer) int {
	url := GetAPIURL()
	c := client.New(url)

	resp, err := c.Health(ctx)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	if IsJSONOutput() {
		printJSON(w, map[string]interface{}{"backend": url, "health": resp})
	} else {
		fmt.Fprintln(w, formatHealthHuman(url, resp))
	}

	if resp.Status != "ok" {
		return 1
	}
	return 0
}

// formatHealthHuman formats health response for human readability
func formatHealthHuman(url string, resp *client.HealthResponse) string {
	var b strings.Builder
	status := styles.StatusOK.Render(resp.Status)
	if resp.Status != "ok" {
		status = styles.StatusWarning.Render(resp.Status)
	}
	fmt.Fprintf(&b, "Backend:   %s\n", url)
	fmt.Fprintf(&b, "Status:    %s\n", status)
	catalog := fmt.Sprintf("%s (%d pesticides)", resp.Catalog.Driver, resp.Catalog.Pesticides)
	if resp.Catalog.Error != "" {
		catalog += " " + styles.StatusCritical.Render(resp.Catalog.Error)
	}
	fmt.Fprintf(&b, "Catalog:   %s\n", catalog)
	fmt.Fprintf(&b, "Uploads:   %s\n", resp.Uploads)
	fmt.Fprintf(&b, "LLM:       %s\n", resp.LLM)
	fmt.Fprint(&b, "Models:")

	names := make([]string, 0, len(resp.ModelServer))
	for name := range resp.ModelServer {
		names = append(names, name)
	}
	sort.Strings(names)
	if len(names) == 0 {
		fmt.Fprint(&b, "    none registered")
	}
	for _, name := range names {
		state := resp.ModelServer[name]
		rendered := styles.StatusOK.Render(state)
		if state != "AVAILABLE" {
			rendered = styles.StatusCritical.Render(state)
		}
		fmt.Fprintf(&b, "\n  %-18s %s", name, rendered)
	}
	return b.String()
}
