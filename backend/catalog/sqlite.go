// ABOUTME: SQLite catalog store backed by gorm and the CGO-free glebarez driver
// ABOUTME: Migrates its tables on open and upserts seeds by natural key

package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/agrisense/leafdoctor/backend/models"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

var _ Store = (*SQLiteStore)(nil)

type pesticideRow struct {
	ID                   int64  `gorm:"primaryKey"`
	Name                 string `gorm:"uniqueIndex;not null"`
	Type                 string
	TargetDiseases       string
	DosagePerAcre        string
	Frequency            string
	CostPerLiter         float64
	IsOrganic            bool
	IsGovernmentApproved bool
	Warnings             string
	IncompatibleWith     string
}

func (pesticideRow) TableName() string { return "pesticides" }

type diseaseRow struct {
	ID              int64  `gorm:"primaryKey"`
	Crop            string `gorm:"uniqueIndex:idx_disease_crop_key;not null"`
	DiseaseKey      string `gorm:"uniqueIndex:idx_disease_crop_key;not null"`
	DiseaseName     string
	Description     string
	Symptoms        string
	PreventionSteps string
	IsHealthy       bool
}

func (diseaseRow) TableName() string { return "diseases" }

// SQLiteStore persists the catalog in a SQLite file
type SQLiteStore struct {
	db *gorm.DB
}

// OpenSQLite opens (creating if needed) the catalog database at path.
// Use ":memory:" for a throwaway database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.AutoMigrate(&pesticideRow{}, &diseaseRow{}); err != nil {
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Driver() Driver { return DriverSQLite }

func (s *SQLiteStore) SearchPesticides(ctx context.Context, disease string) ([]models.Pesticide, error) {
	q := strings.ToLower(models.NormalizeDiseaseName(disease))
	if q == "" {
		return nil, nil
	}
	var rows []pesticideRow
	err := s.db.WithContext(ctx).
		Where("LOWER(target_diseases) LIKE ?", "%"+q+"%").
		Order("is_organic DESC, cost_per_liter ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("search pesticides: %w", err)
	}
	out := make([]models.Pesticide, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

func (s *SQLiteStore) PesticideByName(ctx context.Context, name string) (models.Pesticide, bool, error) {
	var row pesticideRow
	err := s.db.WithContext(ctx).
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Pesticide{}, false, nil
	}
	if err != nil {
		return models.Pesticide{}, false, fmt.Errorf("find pesticide: %w", err)
	}
	return row.toModel(), true, nil
}

func (s *SQLiteStore) DiseaseInfo(ctx context.Context, crop models.Crop, disease string) (*models.DiseaseInfo, error) {
	var row diseaseRow
	err := s.db.WithContext(ctx).
		Where("crop = ? AND disease_key = ?", string(crop), diseaseKey(disease)).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find disease: %w", err)
	}
	return &models.DiseaseInfo{
		Crop:            models.Crop(row.Crop),
		DiseaseName:     row.DiseaseName,
		Description:     row.Description,
		Symptoms:        row.Symptoms,
		PreventionSteps: row.PreventionSteps,
		IsHealthy:       row.IsHealthy,
	}, nil
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&pesticideRow{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count pesticides: %w", err)
	}
	return int(n), nil
}

func (s *SQLiteStore) Load(ctx context.Context, seed Seed) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, p := range seed.Pesticides {
			row := pesticideFromModel(p)
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "name"}},
				DoUpdates: clause.AssignmentColumns(pesticideUpdateColumns),
			}).Create(&row).Error
			if err != nil {
				return fmt.Errorf("upsert pesticide %s: %w", p.Name, err)
			}
		}
		for _, d := range seed.Diseases {
			row := diseaseRow{
				Crop:            string(d.Crop),
				DiseaseKey:      diseaseKey(d.DiseaseName),
				DiseaseName:     d.DiseaseName,
				Description:     d.Description,
				Symptoms:        d.Symptoms,
				PreventionSteps: d.PreventionSteps,
				IsHealthy:       d.IsHealthy,
			}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "crop"}, {Name: "disease_key"}},
				DoUpdates: clause.AssignmentColumns([]string{"disease_name", "description", "symptoms", "prevention_steps", "is_healthy"}),
			}).Create(&row).Error
			if err != nil {
				return fmt.Errorf("upsert disease %s/%s: %w", d.Crop, d.DiseaseName, err)
			}
		}
		return nil
	})
}

func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

var pesticideUpdateColumns = []string{
	"type", "target_diseases", "dosage_per_acre", "frequency", "cost_per_liter",
	"is_organic", "is_government_approved", "warnings", "incompatible_with",
}

func pesticideFromModel(p models.Pesticide) pesticideRow {
	return pesticideRow{
		Name:                 p.Name,
		Type:                 p.Type,
		TargetDiseases:       p.TargetDiseases,
		DosagePerAcre:        p.DosagePerAcre,
		Frequency:            p.Frequency,
		CostPerLiter:         p.CostPerLiter,
		IsOrganic:            p.IsOrganic,
		IsGovernmentApproved: p.IsGovernmentApproved,
		Warnings:             p.Warnings,
		IncompatibleWith:     p.IncompatibleWith,
	}
}

func (r pesticideRow) toModel() models.Pesticide {
	return models.Pesticide{
		ID:                   r.ID,
		Name:                 r.Name,
		Type:                 r.Type,
		TargetDiseases:       r.TargetDiseases,
		DosagePerAcre:        r.DosagePerAcre,
		Frequency:            r.Frequency,
		CostPerLiter:         r.CostPerLiter,
		IsOrganic:            r.IsOrganic,
		IsGovernmentApproved: r.IsGovernmentApproved,
		Warnings:             r.Warnings,
		IncompatibleWith:     r.IncompatibleWith,
	}
}
