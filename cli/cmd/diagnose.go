// ABOUTME: Diagnose command for the leafdoctor CLI
// ABOUTME: Uploads a leaf photo and prints diagnosis, treatment and cost

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/agrisense/leafdoctor/cli/internal/client"
	"github.com/agrisense/leafdoctor/cli/internal/history"
	"github.com/agrisense/leafdoctor/cli/internal/tui/croppicker"
	"github.com/agrisense/leafdoctor/cli/internal/tui/styles"
)

// cropPicker chooses a crop when the service could not identify one
type cropPicker func(crops []client.CropInfo) (string, error)

var diagnoseOpts client.DiagnoseInput

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose <image>",
	Short: "Diagnose a leaf photo",
	Long: `Upload a PNG or JPEG leaf photo and print the disease, its severity,
a treatment plan and the cost of treatment against prevention.

When the crop cannot be identified and the terminal is interactive, you are
asked to pick it and the photo is resubmitted.

Exit codes:
  0 - Diagnosis complete
  1 - Diagnosis rejected (quality, unsupported crop, unidentified crop)
  2 - Error (connectivity, unreadable file)`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		in := diagnoseOpts
		in.ImagePath = args[0]
		var pick cropPicker
		if interactive() && !IsJSONOutput() {
			pick = croppicker.Pick
		}
		if exitCode := runDiagnose(ctx, os.Stdout, in, pick); exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(diagnoseCmd)
	diagnoseCmd.Flags().StringVar(&diagnoseOpts.Crop, "crop", "", "Crop shown in the photo (skips identification)")
	diagnoseCmd.Flags().StringVar(&diagnoseOpts.Message, "message", "", "Free-text description, may name the crop")
	diagnoseCmd.Flags().Float64Var(&diagnoseOpts.LandArea, "area", 0, "Land area in acres for cost estimates")
	diagnoseCmd.Flags().StringVar(&diagnoseOpts.Language, "language", "en", "Report language (en, hi, te, ta, kn, mr)")
}

// runDiagnose uploads the photo and returns exit code. pick may be nil.
func runDiagnose(ctx context.Context, w io.Writer, in client.DiagnoseInput, pick cropPicker) int {
	data, err := os.ReadFile(in.ImagePath)
	if err != nil {
		fmt.Fprintf(w, "Error: cannot read image: %v\n", err)
		return 2
	}
	in.Image = data

	c := client.New(GetAPIURL())
	report, err := withSpinner(ctx, "Diagnosing leaf", func(ctx context.Context) (*client.DiagnosisReport, error) {
		return c.Diagnose(ctx, in)
	})

	if err != nil && in.Crop == "" && pick != nil && client.NeedsCropSelection(err) {
		crops, cerr := c.Crops(ctx)
		if cerr != nil {
			fmt.Fprintf(w, "Error: %v\n", cerr)
			return 2
		}
		crop, perr := pick(crops)
		if perr != nil {
			fmt.Fprintf(w, "Error: %v\n", perr)
			return 2
		}
		in.Crop = crop
		report, err = withSpinner(ctx, "Diagnosing "+crop+" leaf", func(ctx context.Context) (*client.DiagnosisReport, error) {
			return c.Diagnose(ctx, in)
		})
	}

	if err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) {
			if IsJSONOutput() {
				printJSON(w, apiErr.Response)
			} else {
				fmt.Fprintf(w, "Error: %v\n", err)
				if apiErr.Response.NeedsCropSelection {
					fmt.Fprintln(w, styles.Help.Render("Hint: rerun with --crop <name>; see `leafdoctor crops`"))
				}
			}
			if apiErr.StatusCode < 500 && apiErr.StatusCode != 429 {
				return 1
			}
			return 2
		}
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	if err := historyStore().Add(historyEntry(in.ImagePath, report)); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	if IsJSONOutput() {
		printJSON(w, report)
	} else {
		fmt.Fprintln(w, formatDiagnosisHuman(report))
	}
	return 0
}

func historyEntry(imagePath string, r *client.DiagnosisReport) history.Entry {
	at, err := time.Parse(time.RFC3339, r.Metadata.Timestamp)
	if err != nil {
		at = time.Now().UTC()
	}
	if abs, err := filepath.Abs(imagePath); err == nil {
		imagePath = abs
	}
	return history.Entry{
		ID:              r.ID,
		ImagePath:       imagePath,
		Crop:            r.Diagnosis.Crop,
		Disease:         r.Diagnosis.Disease,
		SeverityPercent: r.Diagnosis.SeverityPercent,
		Stage:           r.Diagnosis.Stage,
		Language:        r.Language,
		DiagnosedAt:     at,
	}
}

// formatDiagnosisHuman renders a report, preferring localized text
func formatDiagnosisHuman(r *client.DiagnosisReport) string {
	d := r.Diagnosis
	crop, disease, stage, approach := d.Crop, d.Disease, d.Stage, r.Treatment.TreatmentApproach
	if loc := r.Localized; loc != nil {
		crop = firstNonEmpty(loc.Crop, crop)
		disease = firstNonEmpty(loc.Disease, disease)
		stage = firstNonEmpty(loc.Stage, stage)
		approach = firstNonEmpty(loc.TreatmentNote, approach)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", styles.Title.Render(fmt.Sprintf("%s: %s", crop, disease)))
	fmt.Fprintf(&b, "Confidence:  %.1f%%\n", d.Confidence)
	fmt.Fprintf(&b, "Severity:    %s %.1f%% (%s)\n", styles.SeverityBar(d.SeverityPercent, 20), d.SeverityPercent, stage)
	fmt.Fprintf(&b, "Identified:  %s\n", d.IdentifiedBy)
	if r.Metadata.Cached {
		fmt.Fprintf(&b, "%s\n", styles.Subtitle.Render("(cached result)"))
	}

	if info := r.DiseaseInfo; info != nil {
		symptoms, prevention := info.Symptoms, info.PreventionSteps
		if loc := r.Localized; loc != nil {
			symptoms = firstNonEmpty(loc.Symptoms, symptoms)
			prevention = firstNonEmpty(loc.PreventionSteps, prevention)
		}
		fmt.Fprintf(&b, "\nSymptoms:    %s\n", symptoms)
		fmt.Fprintf(&b, "Prevention:  %s\n", prevention)
	}

	b.WriteString("\n")
	b.WriteString(formatPlanHuman(&r.Treatment, approach))
	b.WriteString("\n\n")
	b.WriteString(formatCostHuman(&r.Cost))
	return b.String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
