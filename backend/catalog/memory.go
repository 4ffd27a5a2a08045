// ABOUTME: In-memory catalog store
// ABOUTME: Default driver for local runs and tests

package catalog

import (
	"context"
	"strings"
	"sync"

	"github.com/agrisense/leafdoctor/backend/models"
)

// MemoryStore keeps the catalog in process memory
type MemoryStore struct {
	mu         sync.RWMutex
	pesticides []models.Pesticide
	diseases   []models.DiseaseInfo
}

// NewMemoryStore creates an empty in-memory catalog
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Driver() Driver { return DriverMemory }

func (s *MemoryStore) SearchPesticides(ctx context.Context, disease string) ([]models.Pesticide, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Pesticide
	for _, p := range s.pesticides {
		if p.MatchesDisease(disease) {
			out = append(out, p)
		}
	}
	models.SortCandidates(out)
	return out, nil
}

func (s *MemoryStore) PesticideByName(ctx context.Context, name string) (models.Pesticide, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.pesticides {
		if strings.EqualFold(p.Name, name) {
			return p, true, nil
		}
	}
	return models.Pesticide{}, false, nil
}

func (s *MemoryStore) DiseaseInfo(ctx context.Context, crop models.Crop, disease string) (*models.DiseaseInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key := diseaseKey(disease)
	for _, d := range s.diseases {
		if d.Crop == crop && diseaseKey(d.DiseaseName) == key {
			info := d
			return &info, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pesticides), nil
}

// Load upserts records by pesticide name and by crop + disease name
func (s *MemoryStore) Load(ctx context.Context, seed Seed) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range seed.Pesticides {
		replaced := false
		for i := range s.pesticides {
			if strings.EqualFold(s.pesticides[i].Name, p.Name) {
				p.ID = s.pesticides[i].ID
				s.pesticides[i] = p
				replaced = true
				break
			}
		}
		if !replaced {
			p.ID = int64(len(s.pesticides) + 1)
			s.pesticides = append(s.pesticides, p)
		}
	}

	for _, d := range seed.Diseases {
		replaced := false
		for i := range s.diseases {
			if s.diseases[i].Crop == d.Crop && diseaseKey(s.diseases[i].DiseaseName) == diseaseKey(d.DiseaseName) {
				s.diseases[i] = d
				replaced = true
				break
			}
		}
		if !replaced {
			s.diseases = append(s.diseases, d)
		}
	}
	return nil
}

func (s *MemoryStore) Close() error { return nil }
