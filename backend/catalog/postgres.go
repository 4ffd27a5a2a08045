// ABOUTME: Postgres catalog store using pgx through database/sql
// ABOUTME: Ensures its tables exist on open and upserts seeds with ON CONFLICT

package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/agrisense/leafdoctor/backend/models"
	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
)

var _ Store = (*PostgresStore)(nil)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS pesticides (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	type TEXT NOT NULL DEFAULT '',
	target_diseases TEXT NOT NULL DEFAULT '',
	dosage_per_acre TEXT NOT NULL DEFAULT '',
	frequency TEXT NOT NULL DEFAULT '',
	cost_per_liter DOUBLE PRECISION NOT NULL DEFAULT 0,
	is_organic BOOLEAN NOT NULL DEFAULT FALSE,
	is_government_approved BOOLEAN NOT NULL DEFAULT FALSE,
	warnings TEXT NOT NULL DEFAULT '',
	incompatible_with TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS diseases (
	id BIGSERIAL PRIMARY KEY,
	crop TEXT NOT NULL,
	disease_key TEXT NOT NULL,
	disease_name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	symptoms TEXT NOT NULL DEFAULT '',
	prevention_steps TEXT NOT NULL DEFAULT '',
	is_healthy BOOLEAN NOT NULL DEFAULT FALSE,
	UNIQUE (crop, disease_key)
)`

const pesticideColumns = `id, name, type, target_diseases, dosage_per_acre, frequency,
	cost_per_liter, is_organic, is_government_approved, warnings, incompatible_with`

// PostgresStore keeps the catalog in Postgres
type PostgresStore struct {
	db *sql.DB
}

// OpenPostgres connects to dsn and ensures the catalog tables exist
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	for _, stmt := range strings.Split(postgresSchema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("execute ddl: %w", err)
		}
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Driver() Driver { return DriverPostgres }

func (s *PostgresStore) SearchPesticides(ctx context.Context, disease string) ([]models.Pesticide, error) {
	q := models.NormalizeDiseaseName(disease)
	if q == "" {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+pesticideColumns+` FROM pesticides
		WHERE target_diseases ILIKE '%' || $1 || '%'
		ORDER BY is_organic DESC, cost_per_liter ASC, id ASC`, q)
	if err != nil {
		return nil, fmt.Errorf("search pesticides: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.Pesticide
	for rows.Next() {
		p, err := scanPesticide(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PostgresStore) PesticideByName(ctx context.Context, name string) (models.Pesticide, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+pesticideColumns+` FROM pesticides
		WHERE LOWER(name) = LOWER($1)`, strings.TrimSpace(name))
	p, err := scanPesticide(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Pesticide{}, false, nil
	}
	if err != nil {
		return models.Pesticide{}, false, err
	}
	return p, true, nil
}

func (s *PostgresStore) DiseaseInfo(ctx context.Context, crop models.Crop, disease string) (*models.DiseaseInfo, error) {
	var info models.DiseaseInfo
	var c string
	err := s.db.QueryRowContext(ctx, `SELECT crop, disease_name, description, symptoms, prevention_steps, is_healthy
		FROM diseases WHERE crop = $1 AND disease_key = $2`, string(crop), diseaseKey(disease)).
		Scan(&c, &info.DiseaseName, &info.Description, &info.Symptoms, &info.PreventionSteps, &info.IsHealthy)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find disease: %w", err)
	}
	info.Crop = models.Crop(c)
	return &info, nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pesticides`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count pesticides: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) Load(ctx context.Context, seed Seed) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, p := range seed.Pesticides {
		_, err := tx.ExecContext(ctx, `INSERT INTO pesticides
			(name, type, target_diseases, dosage_per_acre, frequency, cost_per_liter,
			 is_organic, is_government_approved, warnings, incompatible_with)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (name) DO UPDATE SET
				type = EXCLUDED.type,
				target_diseases = EXCLUDED.target_diseases,
				dosage_per_acre = EXCLUDED.dosage_per_acre,
				frequency = EXCLUDED.frequency,
				cost_per_liter = EXCLUDED.cost_per_liter,
				is_organic = EXCLUDED.is_organic,
				is_government_approved = EXCLUDED.is_government_approved,
				warnings = EXCLUDED.warnings,
				incompatible_with = EXCLUDED.incompatible_with`,
			p.Name, p.Type, p.TargetDiseases, p.DosagePerAcre, p.Frequency, p.CostPerLiter,
			p.IsOrganic, p.IsGovernmentApproved, p.Warnings, p.IncompatibleWith)
		if err != nil {
			return fmt.Errorf("upsert pesticide %s: %w", p.Name, err)
		}
	}
	for _, d := range seed.Diseases {
		_, err := tx.ExecContext(ctx, `INSERT INTO diseases
			(crop, disease_key, disease_name, description, symptoms, prevention_steps, is_healthy)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (crop, disease_key) DO UPDATE SET
				disease_name = EXCLUDED.disease_name,
				description = EXCLUDED.description,
				symptoms = EXCLUDED.symptoms,
				prevention_steps = EXCLUDED.prevention_steps,
				is_healthy = EXCLUDED.is_healthy`,
			string(d.Crop), diseaseKey(d.DiseaseName), d.DiseaseName, d.Description,
			d.Symptoms, d.PreventionSteps, d.IsHealthy)
		if err != nil {
			return fmt.Errorf("upsert disease %s/%s: %w", d.Crop, d.DiseaseName, err)
		}
	}
	return tx.Commit()
}

func (s *PostgresStore) Close() error { return s.db.Close() }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPesticide(r rowScanner) (models.Pesticide, error) {
	var p models.Pesticide
	err := r.Scan(&p.ID, &p.Name, &p.Type, &p.TargetDiseases, &p.DosagePerAcre, &p.Frequency,
		&p.CostPerLiter, &p.IsOrganic, &p.IsGovernmentApproved, &p.Warnings, &p.IncompatibleWith)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return p, err
		}
		return p, fmt.Errorf("scan pesticide: %w", err)
	}
	return p, nil
}
