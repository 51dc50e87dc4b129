package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"sports-portal/internal/domain/training"
)

func clonePlan(p training.Plan) training.Plan {
	p.Sessions = append([]training.Session(nil), p.Sessions...)
	return p
}

func (s *Store) CreatePlan(ctx context.Context, p training.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		return errors.New("plan id required")
	}
	if _, exists := s.plans[p.ID]; exists {
		return fmt.Errorf("plan %s already exists", p.ID)
	}
	s.plans[p.ID] = clonePlan(p)
	return nil
}

func (s *Store) GetPlan(ctx context.Context, id string) (training.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.plans[id]
	if !ok {
		return training.Plan{}, training.ErrNotFound
	}
	return clonePlan(p), nil
}

func (s *Store) ListPlansByAthlete(ctx context.Context, athleteID string) ([]training.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]training.Plan, 0)
	for _, p := range s.plans {
		if p.AthleteID == athleteID {
			out = append(out, clonePlan(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) CompleteSession(ctx context.Context, planID, sessionID string, at time.Time) (training.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.plans[planID]
	if !ok {
		return training.Plan{}, training.ErrNotFound
	}
	p := clonePlan(stored)
	changed, found := p.CompleteSession(sessionID, at)
	if !found {
		return training.Plan{}, training.ErrSessionNotFound
	}
	if changed {
		s.plans[planID] = p
	}
	return clonePlan(p), nil
}
