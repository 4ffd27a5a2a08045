// ABOUTME: Read-mostly pesticide and disease reference catalog
// ABOUTME: Defines the store contract shared by memory, SQLite and Postgres drivers

package catalog

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/agrisense/leafdoctor/backend/models"
)

// Driver names a catalog backend
type Driver string

const (
	DriverMemory   Driver = "memory"
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Store is a pesticide/disease reference table.
// SearchPesticides matches the normalized disease name as a case-insensitive
// substring of each record's target diseases and returns organic products
// first, then by ascending unit cost. Zero matches is not an error.
type Store interface {
	Driver() Driver
	SearchPesticides(ctx context.Context, disease string) ([]models.Pesticide, error)
	PesticideByName(ctx context.Context, name string) (models.Pesticide, bool, error)
	DiseaseInfo(ctx context.Context, crop models.Crop, disease string) (*models.DiseaseInfo, error)
	Count(ctx context.Context) (int, error)
	Load(ctx context.Context, seed Seed) error
	Close() error
}

// Seed is a batch of catalog records to upsert
type Seed struct {
	Pesticides []models.Pesticide   `json:"pesticides"`
	Diseases   []models.DiseaseInfo `json:"diseases"`
}

//go:embed seed/catalog.json
var defaultSeed []byte

// DefaultSeed returns the catalog bundled with the service
func DefaultSeed() (Seed, error) {
	var s Seed
	if err := json.Unmarshal(defaultSeed, &s); err != nil {
		return Seed{}, fmt.Errorf("failed to parse bundled catalog: %w", err)
	}
	return s, nil
}

// diseaseKey is the lookup form of a disease label ("common rust")
func diseaseKey(name string) string {
	return strings.ToLower(models.NormalizeDiseaseName(name))
}
