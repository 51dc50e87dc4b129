package memory

import (
	"context"
	"errors"

	"sports-portal/internal/domain/profiles"
)

func (s *Store) GetProfile(ctx context.Context, userID string) (profiles.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[userID]
	if !ok {
		return profiles.Profile{}, profiles.ErrNotFound
	}
	p.Certifications = append([]string(nil), p.Certifications...)
	return p, nil
}

func (s *Store) SaveProfile(ctx context.Context, p profiles.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.UserID == "" {
		return errors.New("profile user id required")
	}
	p.Certifications = append([]string(nil), p.Certifications...)
	s.profiles[p.UserID] = p
	return nil
}
