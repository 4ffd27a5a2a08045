// ABOUTME: Pesticide catalog record and candidate matching rules
// ABOUTME: Normalizes disease labels and orders candidates organic-first, cheapest-first

package models

import (
	"sort"
	"strings"
)

// Pesticide is one row of the pesticide reference catalog
type Pesticide struct {
	ID                   int64   `json:"id,omitempty"`
	Name                 string  `json:"name"`
	Type                 string  `json:"type"`
	TargetDiseases       string  `json:"target_diseases,omitempty"`
	DosagePerAcre        string  `json:"dosage_per_acre"`
	Frequency            string  `json:"frequency"`
	CostPerLiter         float64 `json:"cost_per_liter"`
	IsOrganic            bool    `json:"is_organic"`
	IsGovernmentApproved bool    `json:"is_government_approved"`
	Warnings             string  `json:"warnings"`
	IncompatibleWith     string  `json:"incompatible_with"`
}

// NormalizeDiseaseName turns classifier labels such as "Tomato___Early_blight"
// into catalog search text ("Tomato Early blight").
func NormalizeDiseaseName(name string) string {
	n := strings.ReplaceAll(name, "___", " ")
	n = strings.ReplaceAll(n, "_", " ")
	return strings.TrimSpace(n)
}

// MatchesDisease reports whether the pesticide targets the disease,
// using a case-insensitive substring match on the normalized name.
func (p Pesticide) MatchesDisease(disease string) bool {
	q := strings.ToLower(NormalizeDiseaseName(disease))
	if q == "" {
		return false
	}
	return strings.Contains(strings.ToLower(p.TargetDiseases), q)
}

// SortCandidates orders pesticides organic first, then by ascending unit cost.
// The sort is stable so catalog order breaks remaining ties.
func SortCandidates(items []Pesticide) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].IsOrganic != items[j].IsOrganic {
			return items[i].IsOrganic
		}
		return items[i].CostPerLiter < items[j].CostPerLiter
	})
}

// FilterPesticides returns the items for which keep is true
func FilterPesticides(items []Pesticide, keep func(Pesticide) bool) []Pesticide {
	out := make([]Pesticide, 0, len(items))
	for _, p := range items {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

// Incompatibility is a pair of products that must not be tank-mixed
type Incompatibility struct {
	Pesticide1 string `json:"pesticide1"`
	Pesticide2 string `json:"pesticide2"`
	Warning    string `json:"warning"`
}

// CompatibilityReport lists every incompatible pair found among a product list
type CompatibilityReport struct {
	IsCompatible      bool              `json:"is_compatible"`
	Incompatibilities []Incompatibility `json:"incompatibilities"`
}

// CheckCompatibility compares each named product against the names after it.
// Names that resolve to no catalog record are skipped.
func CheckCompatibility(names []string, resolve func(string) (Pesticide, bool)) CompatibilityReport {
	report := CompatibilityReport{Incompatibilities: []Incompatibility{}}
	for i, name1 := range names {
		p, ok := resolve(name1)
		if !ok || p.IncompatibleWith == "" {
			continue
		}
		against := strings.ToLower(p.IncompatibleWith)
		for _, name2 := range names[i+1:] {
			if name2 != "" && strings.Contains(against, strings.ToLower(name2)) {
				report.Incompatibilities = append(report.Incompatibilities, Incompatibility{
					Pesticide1: name1,
					Pesticide2: name2,
					Warning:    name1 + " is incompatible with " + name2,
				})
			}
		}
	}
	report.IsCompatible = len(report.Incompatibilities) == 0
	return report
}
