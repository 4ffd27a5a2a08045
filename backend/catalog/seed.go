// ABOUTME: Catalog seed loading from JSON, CSV and XLSX files
// ABOUTME: Column headers use the JSON field names of the catalog records

package catalog

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/agrisense/leafdoctor/backend/models"
	"github.com/xuri/excelize/v2"
)

// Sheet names read from XLSX workbooks
const (
	PesticideSheet = "pesticides"
	DiseaseSheet   = "diseases"
)

// LoadSeedFile reads a seed from disk, choosing the format by extension.
// CSV files hold pesticides only; XLSX workbooks may carry both sheets.
func LoadSeedFile(path string) (Seed, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return loadJSONSeed(path)
	case ".csv":
		return loadCSVSeed(path)
	case ".xlsx":
		return loadXLSXSeed(path)
	default:
		return Seed{}, fmt.Errorf("unsupported catalog seed format %q", filepath.Ext(path))
	}
}

func loadJSONSeed(path string) (Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, fmt.Errorf("failed to read seed: %w", err)
	}
	var s Seed
	if err := json.Unmarshal(data, &s); err != nil {
		return Seed{}, fmt.Errorf("failed to parse seed %s: %w", path, err)
	}
	return s, nil
}

func loadCSVSeed(path string) (Seed, error) {
	f, err := os.Open(path)
	if err != nil {
		return Seed{}, fmt.Errorf("failed to open seed: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return Seed{}, fmt.Errorf("failed to parse seed %s: %w", path, err)
	}
	pesticides, err := pesticidesFromRows(rows)
	if err != nil {
		return Seed{}, err
	}
	return Seed{Pesticides: pesticides}, nil
}

func loadXLSXSeed(path string) (Seed, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return Seed{}, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	var s Seed
	if idx, _ := f.GetSheetIndex(PesticideSheet); idx >= 0 {
		rows, err := f.GetRows(PesticideSheet)
		if err != nil {
			return Seed{}, fmt.Errorf("failed to read %s sheet: %w", PesticideSheet, err)
		}
		if s.Pesticides, err = pesticidesFromRows(rows); err != nil {
			return Seed{}, err
		}
	}
	if idx, _ := f.GetSheetIndex(DiseaseSheet); idx >= 0 {
		rows, err := f.GetRows(DiseaseSheet)
		if err != nil {
			return Seed{}, fmt.Errorf("failed to read %s sheet: %w", DiseaseSheet, err)
		}
		if s.Diseases, err = diseasesFromRows(rows); err != nil {
			return Seed{}, err
		}
	}
	return s, nil
}

// record gives header-addressed access to one spreadsheet row
type record struct {
	columns map[string]int
	values  []string
}

func (r record) get(name string) string {
	i, ok := r.columns[name]
	if !ok || i >= len(r.values) {
		return ""
	}
	return strings.TrimSpace(r.values[i])
}

func (r record) float(name string) (float64, error) {
	v := r.get(name)
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("column %s: %w", name, err)
	}
	return f, nil
}

func (r record) bool(name string) bool {
	switch strings.ToLower(r.get(name)) {
	case "1", "true", "yes", "y":
		return true
	default:
		return false
	}
}

func records(rows [][]string) []record {
	if len(rows) == 0 {
		return nil
	}
	columns := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		columns[strings.ToLower(strings.TrimSpace(h))] = i
	}
	out := make([]record, 0, len(rows)-1)
	for _, values := range rows[1:] {
		out = append(out, record{columns: columns, values: values})
	}
	return out
}

func pesticidesFromRows(rows [][]string) ([]models.Pesticide, error) {
	var out []models.Pesticide
	for n, r := range records(rows) {
		name := r.get("name")
		if name == "" {
			continue
		}
		cost, err := r.float("cost_per_liter")
		if err != nil {
			return nil, fmt.Errorf("pesticide row %d: %w", n+2, err)
		}
		out = append(out, models.Pesticide{
			Name:                 name,
			Type:                 r.get("type"),
			TargetDiseases:       r.get("target_diseases"),
			DosagePerAcre:        r.get("dosage_per_acre"),
			Frequency:            r.get("frequency"),
			CostPerLiter:         cost,
			IsOrganic:            r.bool("is_organic"),
			IsGovernmentApproved: r.bool("is_government_approved"),
			Warnings:             r.get("warnings"),
			IncompatibleWith:     r.get("incompatible_with"),
		})
	}
	return out, nil
}

func diseasesFromRows(rows [][]string) ([]models.DiseaseInfo, error) {
	var out []models.DiseaseInfo
	for n, r := range records(rows) {
		crop, ok := models.ParseCrop(r.get("crop"))
		if !ok {
			return nil, fmt.Errorf("disease row %d: unknown crop %q", n+2, r.get("crop"))
		}
		out = append(out, models.DiseaseInfo{
			Crop:            crop,
			DiseaseName:     r.get("disease_name"),
			Description:     r.get("description"),
			Symptoms:        r.get("symptoms"),
			PreventionSteps: r.get("prevention_steps"),
			IsHealthy:       r.bool("is_healthy"),
		})
	}
	return out, nil
}
