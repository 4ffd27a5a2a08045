// ABOUTME: Treatment and prevention cost estimation for a land area
// ABOUTME: Uses decimal arithmetic with heuristic dosage parsing

package models

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Cost rates in local currency
const (
	DefaultCostPerLiter      = 500.0
	LaborCostPerAcre         = 200.0 // per application
	PreventiveSprayCost      = 300.0 // per acre per application
	PreventiveApplications   = 2
	MonitoringCostPerAcre    = 100.0
	GoodPracticesCostPerAcre = 200.0
	MaxCostedItems           = 3
)

// ItemCost is the cost of one recommended product across all applications
type ItemCost struct {
	Name                   string  `json:"name"`
	QuantityPerApplication float64 `json:"quantity_per_application"`
	TotalQuantity          float64 `json:"total_quantity"`
	CostPerUnit            float64 `json:"cost_per_unit"`
	TotalCost              float64 `json:"total_cost"`
}

// PreventionCost is the fixed-rate preventive programme for a land area
type PreventionCost struct {
	PreventiveSprayCost float64 `json:"preventive_spray_cost"`
	MonitoringCost      float64 `json:"monitoring_cost"`
	GoodPracticesCost   float64 `json:"good_practices_cost"`
	TotalPreventionCost float64 `json:"total_prevention_cost"`
	Applications        int     `json:"applications"`
}

// CostBreakdown is the cost of treating and then protecting a land area.
// It is derived entirely from its inputs and carries no identity.
type CostBreakdown struct {
	PesticideCost       float64        `json:"pesticide_cost"`
	LaborCost           float64        `json:"labor_cost"`
	TotalTreatmentCost  float64        `json:"total_treatment_cost"`
	ApplicationsNeeded  int            `json:"applications_needed"`
	TotalPreventionCost float64        `json:"total_prevention_cost"`
	TotalCost           float64        `json:"total_cost"`
	LandAreaAcres       float64        `json:"land_area_acres"`
	CostPerAcre         float64        `json:"cost_per_acre"`
	Items               []ItemCost     `json:"item_costs"`
	Prevention          PreventionCost `json:"prevention"`
}

// CostComparison sets treatment against prevention for one diagnosis
type CostComparison struct {
	Disease               string        `json:"disease"`
	Crop                  Crop          `json:"crop,omitempty"`
	SeverityLevel         SeverityLevel `json:"severity_level"`
	Urgency               Urgency       `json:"urgency"`
	Breakdown             CostBreakdown `json:"breakdown"`
	TreatmentCost         float64       `json:"treatment_cost"`
	PreventionCost        float64       `json:"prevention_cost"`
	TotalCost             float64       `json:"total_cost"`
	SavingsWithPrevention float64       `json:"savings_with_prevention"`
}

// PerAcreCost is the one-acre treatment cost at a reference severity
type PerAcreCost struct {
	Level                string  `json:"level"`
	SeverityPercent      float64 `json:"severity_percent"`
	TreatmentCostPerAcre float64 `json:"treatment_cost_per_acre"`
	Applications         int     `json:"applications"`
}

// PerAcreSeverityProbes are the reference severities used for per-acre comparison
var PerAcreSeverityProbes = []struct {
	Level    string
	Severity float64
}{
	{"Healthy", 2},
	{"Early", 15},
	{"Moderate", 40},
	{"Severe", 70},
}

// ApplicationsNeeded uses its own bands, separate from stage and treatment bands
func ApplicationsNeeded(severityPercent float64) int {
	switch {
	case severityPercent < 5:
		return 1
	case severityPercent < 25:
		return 2
	case severityPercent < 50:
		return 3
	default:
		return 4
	}
}

var quantityPattern = regexp.MustCompile(`\d+\.?\d*`)

// ParseDosageQuantity extracts a per-acre quantity from free text.
// Ranges ("2-3 kg") average the first two numbers. A single number in ml or
// grams is divided by 1000. This is an approximation, not unit conversion:
// ranges are never rescaled and other units pass through unchanged.
func ParseDosageQuantity(text string) float64 {
	nums := quantityPattern.FindAllString(text, -1)
	if len(nums) == 0 {
		return 1.0
	}
	first, _ := strconv.ParseFloat(nums[0], 64)
	if len(nums) >= 2 {
		second, _ := strconv.ParseFloat(nums[1], 64)
		return (first + second) / 2
	}
	lower := strings.ToLower(text)
	if strings.Contains(lower, "ml") || strings.Contains(lower, "gram") {
		return first / 1000
	}
	return first
}

// EstimatePrevention prices the preventive programme for a land area
func EstimatePrevention(landArea float64) PreventionCost {
	area := decimal.NewFromFloat(landArea)
	spray := decimal.NewFromFloat(PreventiveSprayCost).Mul(decimal.NewFromInt(PreventiveApplications)).Mul(area)
	monitoring := decimal.NewFromFloat(MonitoringCostPerAcre).Mul(area)
	practices := decimal.NewFromFloat(GoodPracticesCostPerAcre).Mul(area)
	return PreventionCost{
		PreventiveSprayCost: money(spray),
		MonitoringCost:      money(monitoring),
		GoodPracticesCost:   money(practices),
		TotalPreventionCost: money(spray.Add(monitoring).Add(practices)),
		Applications:        PreventiveApplications,
	}
}

// EstimateCost prices a treatment plan for a land area.
// Only the first MaxCostedItems products are costed. A plan with no products
// has zero treatment cost and zero applications; prevention is always priced.
func EstimateCost(plan TreatmentPlan, landArea, severityPercent float64) CostBreakdown {
	prevention := EstimatePrevention(landArea)
	b := CostBreakdown{
		LandAreaAcres:       landArea,
		Items:               []ItemCost{},
		Prevention:          prevention,
		TotalPreventionCost: prevention.TotalPreventionCost,
	}

	if len(plan.RecommendedItems) == 0 {
		b.TotalCost = prevention.TotalPreventionCost
		b.CostPerAcre = perAcre(decimal.NewFromFloat(b.TotalCost), landArea)
		return b
	}

	area := decimal.NewFromFloat(landArea)
	applications := ApplicationsNeeded(severityPercent)
	apps := decimal.NewFromInt(int64(applications))

	pesticide := decimal.Zero
	for _, p := range firstN(plan.RecommendedItems, MaxCostedItems) {
		unit := p.CostPerLiter
		if unit <= 0 {
			unit = DefaultCostPerLiter
		}
		perApplication := decimal.NewFromFloat(ParseDosageQuantity(p.DosagePerAcre)).Mul(area)
		quantity := perApplication.Mul(apps)
		cost := quantity.Mul(decimal.NewFromFloat(unit))
		pesticide = pesticide.Add(cost)

		b.Items = append(b.Items, ItemCost{
			Name:                   p.Name,
			QuantityPerApplication: perApplication.Round(3).InexactFloat64(),
			TotalQuantity:          quantity.Round(3).InexactFloat64(),
			CostPerUnit:            unit,
			TotalCost:              money(cost),
		})
	}

	labor := decimal.NewFromFloat(LaborCostPerAcre).Mul(area).Mul(apps)
	treatment := pesticide.Add(labor)
	total := treatment.Add(decimal.NewFromFloat(prevention.TotalPreventionCost))

	b.PesticideCost = money(pesticide)
	b.LaborCost = money(labor)
	b.TotalTreatmentCost = money(treatment)
	b.ApplicationsNeeded = applications
	b.TotalCost = money(total)
	b.CostPerAcre = perAcre(total, landArea)
	return b
}

// CompareCosts prices a plan and reports what prevention would have saved
func CompareCosts(plan TreatmentPlan, landArea, severityPercent float64) CostComparison {
	b := EstimateCost(plan, landArea, severityPercent)
	c := CostComparison{
		Disease:        plan.Disease,
		Crop:           plan.Crop,
		SeverityLevel:  plan.SeverityLevel,
		Urgency:        plan.Urgency,
		Breakdown:      b,
		TreatmentCost:  b.TotalTreatmentCost,
		PreventionCost: b.TotalPreventionCost,
		TotalCost:      b.TotalCost,
	}
	if b.TotalPreventionCost > 0 {
		savings := decimal.NewFromFloat(b.TotalTreatmentCost).Sub(decimal.NewFromFloat(b.TotalPreventionCost))
		c.SavingsWithPrevention = money(savings)
	}
	return c
}

func perAcre(total decimal.Decimal, landArea float64) float64 {
	if landArea <= 0 {
		return 0
	}
	return money(total.Div(decimal.NewFromFloat(landArea)))
}

func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
