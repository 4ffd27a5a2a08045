// ABOUTME: Treatment recommendations and cost estimates backed by the pesticide catalog
// ABOUTME: Applies the severity-banded plan policy to catalog candidates

package services

import (
	"context"
	"fmt"

	"github.com/agrisense/leafdoctor/backend/catalog"
	"github.com/agrisense/leafdoctor/backend/models"
)

// TreatmentAdvisor recommends products for a diagnosed disease
type TreatmentAdvisor struct {
	store catalog.Store
}

// NewTreatmentAdvisor creates an advisor over store
func NewTreatmentAdvisor(store catalog.Store) *TreatmentAdvisor {
	return &TreatmentAdvisor{store: store}
}

// Recommend builds the treatment plan for disease at severity
func (a *TreatmentAdvisor) Recommend(ctx context.Context, disease string, severity float64, crop models.Crop) (models.TreatmentPlan, error) {
	candidates, err := a.store.SearchPesticides(ctx, disease)
	if err != nil {
		return models.TreatmentPlan{}, fmt.Errorf("failed to load candidates: %w", err)
	}
	return models.BuildTreatmentPlan(disease, crop, severity, candidates), nil
}

// Pesticides lists catalog products for disease, optionally restricted to
// organic or government-approved products
func (a *TreatmentAdvisor) Pesticides(ctx context.Context, disease string, organicOnly, approvedOnly bool) ([]models.Pesticide, error) {
	items, err := a.store.SearchPesticides(ctx, disease)
	if err != nil {
		return nil, fmt.Errorf("failed to search pesticides: %w", err)
	}
	return models.FilterPesticides(items, func(p models.Pesticide) bool {
		return (!organicOnly || p.IsOrganic) && (!approvedOnly || p.IsGovernmentApproved)
	}), nil
}

// OrganicAlternatives lists organic products for disease
func (a *TreatmentAdvisor) OrganicAlternatives(ctx context.Context, disease string) ([]models.Pesticide, error) {
	return a.Pesticides(ctx, disease, true, false)
}

// GovernmentApproved lists approved products for disease
func (a *TreatmentAdvisor) GovernmentApproved(ctx context.Context, disease string) ([]models.Pesticide, error) {
	return a.Pesticides(ctx, disease, false, true)
}

// CheckCompatibility reports products in names that must not be mixed
func (a *TreatmentAdvisor) CheckCompatibility(ctx context.Context, names []string) (models.CompatibilityReport, error) {
	resolved := make(map[string]models.Pesticide, len(names))
	for _, n := range names {
		p, ok, err := a.store.PesticideByName(ctx, n)
		if err != nil {
			return models.CompatibilityReport{}, err
		}
		if ok {
			resolved[n] = p
		}
	}
	return models.CheckCompatibility(names, func(n string) (models.Pesticide, bool) {
		p, ok := resolved[n]
		return p, ok
	}), nil
}

// DiseaseInfo returns the catalog description of disease, or nil when unknown
func (a *TreatmentAdvisor) DiseaseInfo(ctx context.Context, crop models.Crop, disease string) (*models.DiseaseInfo, error) {
	return a.store.DiseaseInfo(ctx, crop, disease)
}

// CostEstimator prices treatment plans
type CostEstimator struct {
	advisor *TreatmentAdvisor
}

// NewCostEstimator creates an estimator that plans through advisor
func NewCostEstimator(advisor *TreatmentAdvisor) *CostEstimator {
	return &CostEstimator{advisor: advisor}
}

// Compare prices the treatment plan for a diagnosis on landArea acres
func (c *CostEstimator) Compare(ctx context.Context, disease string, crop models.Crop, severity, landArea float64) (models.CostComparison, error) {
	plan, err := c.advisor.Recommend(ctx, disease, severity, crop)
	if err != nil {
		return models.CostComparison{}, err
	}
	return models.CompareCosts(plan, landArea, severity), nil
}

// PerAcre prices one acre at each reference severity
func (c *CostEstimator) PerAcre(ctx context.Context, disease string, crop models.Crop) ([]models.PerAcreCost, error) {
	out := make([]models.PerAcreCost, 0, len(models.PerAcreSeverityProbes))
	for _, probe := range models.PerAcreSeverityProbes {
		plan, err := c.advisor.Recommend(ctx, disease, probe.Severity, crop)
		if err != nil {
			return nil, err
		}
		b := models.EstimateCost(plan, 1, probe.Severity)
		out = append(out, models.PerAcreCost{
			Level:                probe.Level,
			SeverityPercent:      probe.Severity,
			TreatmentCostPerAcre: b.TotalTreatmentCost,
			Applications:         b.ApplicationsNeeded,
		})
	}
	return out, nil
}
