// ABOUTME: Opens the configured catalog driver and seeds it when empty
// ABOUTME: Falls back to the bundled catalog when no seed file is configured

package catalog

import (
	"context"
	"fmt"
	"log/slog"
)

// Config selects and seeds a catalog store
type Config struct {
	Driver Driver
	// DSN is the SQLite file path or the Postgres connection string
	DSN string
	// SeedPath is an optional JSON, CSV or XLSX seed file
	SeedPath string
}

// Open creates the store for cfg.Driver. A store with no pesticides is
// seeded from cfg.SeedPath, or from the bundled catalog when unset.
func Open(ctx context.Context, cfg Config) (Store, error) {
	var (
		store Store
		err   error
	)
	switch cfg.Driver {
	case DriverMemory, "":
		store = NewMemoryStore()
	case DriverSQLite:
		store, err = OpenSQLite(cfg.DSN)
	case DriverPostgres:
		store, err = OpenPostgres(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown catalog driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	n, err := store.Count(ctx)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	if n > 0 {
		slog.Info("Catalog opened", "driver", store.Driver(), "pesticides", n)
		return store, nil
	}

	seed, err := loadSeed(cfg.SeedPath)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	if err := store.Load(ctx, seed); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("seed catalog: %w", err)
	}
	slog.Info("Catalog seeded",
		"driver", store.Driver(),
		"pesticides", len(seed.Pesticides),
		"diseases", len(seed.Diseases),
		"source", seedSource(cfg.SeedPath))
	return store, nil
}

func loadSeed(path string) (Seed, error) {
	if path == "" {
		return DefaultSeed()
	}
	return LoadSeedFile(path)
}

func seedSource(path string) string {
	if path == "" {
		return "bundled"
	}
	return path
}
