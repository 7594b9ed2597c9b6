package garden

import (
	"context"

	"github.com/danbi-garden/danbi/internal/logger"
	"github.com/danbi-garden/danbi/internal/plant"
)

type sample struct {
	name     string
	species  string
	daysAgo  int
	interval int
	note     string
}

var samples = []sample{
	{"나의 첫 몬스테라", "Monstera deliciosa", 2, 7, ""},
	{"골든 포토스", "Epipremnum aureum", 5, 5, "선물받은 아이"},
	{"스네이크 플랜트", "Sansevieria trifasciata", 10, 14, "예민한 아이. 햇빛 조절 필수"},
	{"Fiddle Leaf Fig", "Ficus lyrata", 4, 7, ""},
}

// SeedSamples registers the demo plants without consulting the gate. It
// does nothing when plants already exist.
func (s *Service) SeedSamples(ctx context.Context) ([]*plant.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count, err := s.plants.Count(ctx)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		s.log.Info("skipping sample data, garden is not empty", logger.Int("plants", count))
		return nil, nil
	}

	now := s.now()
	created := make([]*plant.Record, 0, len(samples))
	for i, smp := range samples {
		rec, err := plant.New(smp.name, smp.species, now.AddDate(0, 0, -smp.daysAgo), smp.interval)
		if err != nil {
			return created, err
		}
		rec.Note = smp.note
		rec.SortOrder = i
		if err := s.plants.Insert(ctx, rec); err != nil {
			return created, err
		}
		s.scheduleLocked(ctx, rec)
		created = append(created, rec)
	}

	s.setPlantGauge(len(created))
	s.log.Info("sample plants added", logger.Int("plants", len(created)))
	return created, nil
}
