// ABOUTME: Treatment and cost commands for the leafdoctor CLI
// ABOUTME: Prints pesticide plans and treatment versus prevention costs

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
	treatmentSeverity float64
	treatmentCrop     string
	costArea          float64
)

var treatmentCmd = &cobra.Command{
	Use:   "treatment <disease>",
	Short: "Recommend pesticides for a disease",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		in := client.TreatmentInput{
			Disease:         strings.Join(args, " "),
			SeverityPercent: treatmentSeverity,
			Crop:            treatmentCrop,
		}
		if exitCode := runTreatment(ctx, os.Stdout, in); exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var costCmd = &cobra.Command{
	Use:   "cost <disease>",
	Short: "Compare treatment and prevention costs",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		in := client.CostInput{
			Disease:         strings.Join(args, " "),
			Crop:            treatmentCrop,
			SeverityPercent: treatmentSeverity,
			LandArea:        costArea,
		}
		if exitCode := runCost(ctx, os.Stdout, in); exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(treatmentCmd)
	rootCmd.AddCommand(costCmd)
	for _, c := range []*cobra.Command{treatmentCmd, costCmd} {
		c.Flags().Float64Var(&treatmentSeverity, "severity", 0, "Diseased leaf area percentage (0-100)")
		c.Flags().StringVar(&treatmentCrop, "crop", "", "Crop name")
	}
	costCmd.Flags().Float64Var(&costArea, "area", 0, "Land area in acres (default: server default)")
}

func runTreatment(ctx context.Context, w io.Writer, in client.TreatmentInput) int {
	plan, err := client.New(GetAPIURL()).Treatment(ctx, in)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	if IsJSONOutput() {
		printJSON(w, plan)
		return 0
	}
	fmt.Fprintln(w, formatPlanHuman(plan, plan.TreatmentApproach))
	return 0
}

func runCost(ctx context.Context, w io.Writer, in client.CostInput) int {
	cmp, err := client.New(GetAPIURL()).Cost(ctx, in)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	if IsJSONOutput() {
		printJSON(w, cmp)
		return 0
	}
	fmt.Fprintln(w, formatCostHuman(cmp))
	return 0
}

// formatPlanHuman renders a treatment plan with approach as its headline
func formatPlanHuman(plan *client.TreatmentPlan, approach string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", styles.KeyStyle.Render("Treatment"), styles.UrgencyStyle(plan.Urgency).Render("["+plan.Urgency+"]"))
	fmt.Fprintf(&b, "%s", approach)
	if plan.ApplicationNote != "" {
		fmt.Fprintf(&b, "\n%s", styles.Subtitle.Render(plan.ApplicationNote))
	}
	for i, p := range plan.RecommendedItems {
		kind := p.Type
		if p.IsOrganic {
			kind = "organic"
		}
		fmt.Fprintf(&b, "\n  %d. %s (%s) %s, %s", i+1, p.Name, kind, p.DosagePerAcre, strings.ToLower(p.Frequency))
		if p.Warnings != "" {
			fmt.Fprintf(&b, "\n     %s", styles.StatusWarning.Render(p.Warnings))
		}
	}
	return b.String()
}

func formatCostHuman(c *client.CostComparison) string {
	br := c.Breakdown
	var b strings.Builder
	fmt.Fprintf(&b, "%s for %.2f acres\n", styles.KeyStyle.Render("Cost"), br.LandAreaAcres)
	fmt.Fprintf(&b, "  Pesticides:   %10.2f\n", br.PesticideCost)
	fmt.Fprintf(&b, "  Labor:        %10.2f  (%d applications)\n", br.LaborCost, br.ApplicationsNeeded)
	fmt.Fprintf(&b, "  Treatment:    %10.2f\n", c.TreatmentCost)
	fmt.Fprintf(&b, "  Prevention:   %10.2f\n", c.PreventionCost)
	fmt.Fprintf(&b, "  Total:        %s\n", styles.ValueStyle.Render(fmt.Sprintf("%10.2f", c.TotalCost)))
	fmt.Fprintf(&b, "  Per acre:     %10.2f\n", br.CostPerAcre)
	fmt.Fprintf(&b, "  Prevention saves %.2f next season", c.SavingsWithPrevention)
	return b.String()
}
