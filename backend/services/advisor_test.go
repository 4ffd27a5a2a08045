package services

import (
	"context"
	"testing"

	"github.com/agrisense/leafdoctor/backend/catalog"
	"github.com/agrisense/leafdoctor/backend/models"
)

func newSeededAdvisor(t *testing.T) *TreatmentAdvisor {
	t.Helper()
	store := catalog.NewMemoryStore()
	seed, err := catalog.DefaultSeed()
	if err != nil {
		t.Fatalf("Failed to read default seed: %v", err)
	}
	if err := store.Load(context.Background(), seed); err != nil {
		t.Fatalf("Failed to seed catalog: %v", err)
	}
	return NewTreatmentAdvisor(store)
}

func itemNames(items []models.Pesticide) []string {
	names := make([]string, len(items))
	for i, p := range items {
		names[i] = p.Name
	}
	return names
}

func equalNames(got []string, want ...string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range want {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestTreatmentAdvisor_RecommendBands(t *testing.T) {
	a := newSeededAdvisor(t)
	tests := []struct {
		severity float64
		urgency  models.Urgency
		want     []string
	}{
		{2, models.UrgencyLow, []string{"Bordeaux Mixture", "Trichoderma viride"}},
		{15, models.UrgencyMedium, []string{"Bordeaux Mixture", "Trichoderma viride", "Neem Oil"}},
		{40, models.UrgencyHigh, []string{"Bordeaux Mixture", "Trichoderma viride", "Neem Oil", "Mancozeb 75% WP"}},
		{70, models.UrgencyCritical, []string{"Mancozeb 75% WP", "Copper Oxychloride 50% WP", "Chlorothalonil 75% WP"}},
	}
	for _, tt := range tests {
		plan, err := a.Recommend(context.Background(), "Early blight", tt.severity, models.CropTomato)
		if err != nil {
			t.Fatalf("Recommend failed: %v", err)
		}
		if plan.Urgency != tt.urgency {
			t.Errorf("Severity %v: expected urgency %s, got %s", tt.severity, tt.urgency, plan.Urgency)
		}
		if got := itemNames(plan.RecommendedItems); !equalNames(got, tt.want...) {
			t.Errorf("Severity %v: expected %v, got %v", tt.severity, tt.want, got)
		}
	}
}

func TestTreatmentAdvisor_UnknownDisease(t *testing.T) {
	a := newSeededAdvisor(t)

	plan, err := a.Recommend(context.Background(), "Moon Rot", 40, models.CropRice)
	if err != nil {
		t.Fatalf("Recommend failed: %v", err)
	}
	if !plan.NoTreatmentFound || plan.TreatmentApproach != models.ApproachConsult {
		t.Errorf("Expected consult plan, got %+v", plan)
	}
	if len(plan.RecommendedItems) != 0 {
		t.Errorf("Expected no items, got %v", itemNames(plan.RecommendedItems))
	}
}

func TestTreatmentAdvisor_Filters(t *testing.T) {
	a := newSeededAdvisor(t)
	ctx := context.Background()

	organic, err := a.OrganicAlternatives(ctx, "Brown spot")
	if err != nil {
		t.Fatalf("OrganicAlternatives failed: %v", err)
	}
	if !equalNames(itemNames(organic), "Trichoderma viride", "Neem Oil") {
		t.Errorf("Unexpected organic list %v", itemNames(organic))
	}

	approved, err := a.GovernmentApproved(ctx, "Brown spot")
	if err != nil {
		t.Fatalf("GovernmentApproved failed: %v", err)
	}
	for _, p := range approved {
		if !p.IsGovernmentApproved {
			t.Errorf("Expected only approved products, got %s", p.Name)
		}
		if p.Name == "Carbendazim 50% WP" {
			t.Error("Expected Carbendazim to be filtered out")
		}
	}

	all, err := a.Pesticides(ctx, "Brown spot", false, false)
	if err != nil {
		t.Fatalf("Pesticides failed: %v", err)
	}
	if len(all) != len(approved)+1 {
		t.Errorf("Expected exactly one unapproved product, got %d vs %d", len(all), len(approved))
	}
}

func TestTreatmentAdvisor_CheckCompatibility(t *testing.T) {
	a := newSeededAdvisor(t)

	report, err := a.CheckCompatibility(context.Background(), []string{"Mancozeb 75% WP", "Bordeaux Mixture", "Unknown Spray"})
	if err != nil {
		t.Fatalf("CheckCompatibility failed: %v", err)
	}
	if report.IsCompatible {
		t.Error("Expected incompatible mix")
	}
	if len(report.Incompatibilities) != 1 {
		t.Fatalf("Expected 1 incompatibility, got %+v", report.Incompatibilities)
	}
	if got := report.Incompatibilities[0]; got.Pesticide1 != "Mancozeb 75% WP" || got.Pesticide2 != "Bordeaux Mixture" {
		t.Errorf("Unexpected pair %+v", got)
	}

	report, err = a.CheckCompatibility(context.Background(), []string{"Neem Oil", "Chlorothalonil 75% WP"})
	if err != nil {
		t.Fatalf("CheckCompatibility failed: %v", err)
	}
	if !report.IsCompatible {
		t.Errorf("Expected compatible mix, got %+v", report.Incompatibilities)
	}
}

func TestTreatmentAdvisor_DiseaseInfo(t *testing.T) {
	a := newSeededAdvisor(t)

	info, err := a.DiseaseInfo(context.Background(), models.CropTomato, "Early_blight")
	if err != nil {
		t.Fatalf("DiseaseInfo failed: %v", err)
	}
	if info == nil || info.DiseaseName != "Early blight" {
		t.Errorf("Expected Early blight info, got %+v", info)
	}

	info, err = a.DiseaseInfo(context.Background(), models.CropWheat, "Early blight")
	if err != nil || info != nil {
		t.Errorf("Expected nil info for wheat, got %+v, %v", info, err)
	}
}

func TestCostEstimator_Compare(t *testing.T) {
	c := NewCostEstimator(newSeededAdvisor(t))

	cmp, err := c.Compare(context.Background(), "Early blight", models.CropTomato, 40, 2)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	b := cmp.Breakdown
	// Bordeaux 2.5kg*2ac*3*120 + Trichoderma 1.5kg*2ac*3*180 + Neem 0.5L*2ac*3*350
	if b.PesticideCost != 4470 {
		t.Errorf("Expected pesticide cost 4470, got %v", b.PesticideCost)
	}
	if b.LaborCost != 1200 || b.TotalTreatmentCost != 5670 {
		t.Errorf("Expected labor 1200 and treatment 5670, got %v and %v", b.LaborCost, b.TotalTreatmentCost)
	}
	if cmp.TotalCost != 7470 || cmp.SavingsWithPrevention != 3870 {
		t.Errorf("Expected total 7470 and savings 3870, got %v and %v", cmp.TotalCost, cmp.SavingsWithPrevention)
	}
	if len(b.Items) != models.MaxCostedItems {
		t.Errorf("Expected %d costed items, got %d", models.MaxCostedItems, len(b.Items))
	}
}

func TestCostEstimator_PerAcre(t *testing.T) {
	c := NewCostEstimator(newSeededAdvisor(t))

	rows, err := c.PerAcre(context.Background(), "Early blight", models.CropTomato)
	if err != nil {
		t.Fatalf("PerAcre failed: %v", err)
	}
	if len(rows) != len(models.PerAcreSeverityProbes) {
		t.Fatalf("Expected %d rows, got %d", len(models.PerAcreSeverityProbes), len(rows))
	}
	for i, want := range []int{1, 2, 3, 4} {
		if rows[i].Applications != want {
			t.Errorf("Row %s: expected %d applications, got %d", rows[i].Level, want, rows[i].Applications)
		}
	}
	// Bordeaux 2.5*120 + Trichoderma 1.5*180 + labor 200
	if rows[0].TreatmentCostPerAcre != 770 {
		t.Errorf("Expected healthy-level cost 770, got %v", rows[0].TreatmentCostPerAcre)
	}
}
