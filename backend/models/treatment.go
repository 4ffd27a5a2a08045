// ABOUTME: Severity-banded treatment policy for pesticide recommendations
// ABOUTME: Organic-first at low severity, chemical-first at high severity

package models

// Urgency signals how quickly the grower should act
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

// SeverityLevel is the treatment-facing severity label (5/25/50/75 bands)
type SeverityLevel string

const (
	SeverityHealthy  SeverityLevel = "Healthy"
	SeverityEarly    SeverityLevel = "Early Stage"
	SeverityModerate SeverityLevel = "Moderate"
	SeveritySevere   SeverityLevel = "Severe"
	SeverityCritical SeverityLevel = "Critical"
)

// MaxRecommendedItems caps every plan
const MaxRecommendedItems = 4

// Treatment approach texts
const (
	ApproachPreventive = "Preventive measures recommended. Monitor regularly."
	ApproachEarly      = "Early stage detected. Start with organic treatment."
	ApproachModerate   = "Moderate infection. Use effective fungicides/insecticides."
	ApproachSevere     = "Severe infection. Immediate aggressive treatment required."
	ApproachConsult    = "No specific pesticides found. Consult agricultural expert."
)

// TreatmentPlan is the prioritized recommendation for one diagnosis
type TreatmentPlan struct {
	Disease           string        `json:"disease"`
	Crop              Crop          `json:"crop,omitempty"`
	SeverityLevel     SeverityLevel `json:"severity_level"`
	SeverityPercent   float64       `json:"severity_percent"`
	RecommendedItems  []Pesticide   `json:"recommended_pesticides"`
	TreatmentApproach string        `json:"treatment_approach"`
	Urgency           Urgency       `json:"urgency"`
	ApplicationNote   string        `json:"application_note,omitempty"`
	NoTreatmentFound  bool          `json:"no_treatment_found,omitempty"`
}

// SeverityLevelFor maps severity onto the treatment-facing level
func SeverityLevelFor(severityPercent float64) SeverityLevel {
	switch {
	case severityPercent < 5:
		return SeverityHealthy
	case severityPercent < 25:
		return SeverityEarly
	case severityPercent < 50:
		return SeverityModerate
	case severityPercent < 75:
		return SeveritySevere
	default:
		return SeverityCritical
	}
}

// ApplicationNoteFor returns spraying guidance for the severity band
func ApplicationNoteFor(severityPercent float64) string {
	switch {
	case severityPercent < 5:
		return "Focus on prevention. Maintain good agricultural practices."
	case severityPercent < 25:
		return "Apply pesticides at recommended intervals. Monitor progress closely."
	case severityPercent < 50:
		return "Apply pesticides every 7-10 days. Remove severely infected parts."
	default:
		return "Immediate action required. Apply pesticides every 5-7 days. Consider removing heavily infected plants to prevent spread."
	}
}

// BuildTreatmentPlan applies the severity band policy to catalog candidates.
// Candidates are expected in catalog order (organic first, then cheapest).
// An empty candidate list yields an advisory plan rather than an error.
func BuildTreatmentPlan(disease string, crop Crop, severityPercent float64, candidates []Pesticide) TreatmentPlan {
	plan := TreatmentPlan{
		Disease:          disease,
		Crop:             crop,
		SeverityLevel:    SeverityLevelFor(severityPercent),
		SeverityPercent:  severityPercent,
		RecommendedItems: []Pesticide{},
	}

	if len(candidates) == 0 {
		plan.TreatmentApproach = ApproachConsult
		plan.Urgency = UrgencyMedium
		plan.NoTreatmentFound = true
		return plan
	}

	organic := FilterPesticides(candidates, func(p Pesticide) bool { return p.IsOrganic })
	chemical := FilterPesticides(candidates, func(p Pesticide) bool { return !p.IsOrganic })

	var items []Pesticide
	switch {
	case severityPercent < 5:
		plan.TreatmentApproach = ApproachPreventive
		plan.Urgency = UrgencyLow
		items = firstN(organic, 2)
	case severityPercent < 25:
		plan.TreatmentApproach = ApproachEarly
		plan.Urgency = UrgencyMedium
		items = firstN(organic, 3)
		if len(items) < 2 {
			items = appendUnique(items, firstN(chemical, 2))
		}
	case severityPercent < 50:
		plan.TreatmentApproach = ApproachModerate
		plan.Urgency = UrgencyHigh
		items = firstN(candidates, 4)
	default:
		plan.TreatmentApproach = ApproachSevere
		plan.Urgency = UrgencyCritical
		items = firstN(chemical, 3)
		if len(items) < 2 {
			items = appendUnique(items, firstN(candidates, 3))
		}
	}

	plan.RecommendedItems = firstN(items, MaxRecommendedItems)
	plan.ApplicationNote = ApplicationNoteFor(severityPercent)
	return plan
}

func firstN(items []Pesticide, n int) []Pesticide {
	if len(items) > n {
		items = items[:n]
	}
	out := make([]Pesticide, len(items))
	copy(out, items)
	return out
}

// appendUnique adds extra items whose names are not already present
func appendUnique(items, extra []Pesticide) []Pesticide {
	seen := make(map[string]bool, len(items))
	for _, p := range items {
		seen[p.Name] = true
	}
	for _, p := range extra {
		if !seen[p.Name] {
			items = append(items, p)
			seen[p.Name] = true
		}
	}
	return items
}
