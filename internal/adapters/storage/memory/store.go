package memory

import (
	"sync"

	"sports-portal/internal/domain/profiles"
	"sports-portal/internal/domain/review"
	"sports-portal/internal/domain/training"
)

// Store guarda todos los agregados detrás de un solo lock, así un commit de
// revisión y sus cascadas se aplican juntos.
type Store struct {
	mu sync.RWMutex

	records  map[string]review.Record
	order    []string
	history  map[string][]review.HistoryEntry
	profiles map[string]profiles.Profile
	plans    map[string]training.Plan
}

var (
	_ review.Store        = (*Store)(nil)
	_ profiles.Repository = (*Store)(nil)
	_ training.Repository = (*Store)(nil)
)

func NewStore() *Store {
	return &Store{
		records:  make(map[string]review.Record),
		history:  make(map[string][]review.HistoryEntry),
		profiles: make(map[string]profiles.Profile),
		plans:    make(map[string]training.Plan),
	}
}
