package memory

import (
	"context"
	"errors"
	"fmt"
	"maps"

	"sports-portal/internal/domain/profiles"
	"sports-portal/internal/domain/review"
	"sports-portal/internal/domain/training"
)

func (s *Store) CreateRecord(ctx context.Context, rec review.Record, entry review.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == "" {
		return errors.New("record id required")
	}
	if _, exists := s.records[rec.ID]; exists {
		return fmt.Errorf("record %s already exists", rec.ID)
	}
	s.insertRecord(rec, entry)
	return nil
}

func (s *Store) insertRecord(rec review.Record, entry review.HistoryEntry) {
	s.records[rec.ID] = cloneRecord(rec)
	s.order = append(s.order, rec.ID)
	s.history[rec.ID] = append(s.history[rec.ID], entry)
}

func (s *Store) GetRecord(ctx context.Context, id string) (review.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return review.Record{}, review.ErrRecordMissing
	}
	return cloneRecord(rec), nil
}

// QueryRecords devuelve las coincidencias en orden de envío.
func (s *Store) QueryRecords(ctx context.Context, q review.Query) ([]review.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]review.Record, 0)
	for _, id := range s.order {
		rec := s.records[id]
		if q.Kind != "" && rec.Kind != q.Kind {
			continue
		}
		if q.SubjectID != "" && rec.SubjectID != q.SubjectID {
			continue
		}
		if q.Status != "" && rec.Status != q.Status {
			continue
		}
		out = append(out, cloneRecord(rec))
	}
	return out, nil
}

func (s *Store) ListHistory(ctx context.Context, recordID string) ([]review.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.history[recordID]
	out := make([]review.HistoryEntry, len(entries))
	copy(out, entries)
	return out, nil
}

// CommitTransition valida todo antes de tocar el estado; una cascada que
// falla deja el store exactamente como estaba.
func (s *Store) CommitTransition(ctx context.Context, c review.Commit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.records[c.Record.ID]
	if !ok {
		return review.ErrRecordMissing
	}
	if cur.Status != c.From {
		return review.ErrStatusChanged
	}

	stagedProfiles := map[string]profiles.Profile{}
	stagedPlans := map[string]training.Plan{}
	var spawned []review.SpawnRecord

	profileFor := func(userID string) profiles.Profile {
		if p, ok := stagedProfiles[userID]; ok {
			return p
		}
		if p, ok := s.profiles[userID]; ok {
			p.Certifications = append([]string(nil), p.Certifications...)
			return p
		}
		return profiles.Profile{UserID: userID}
	}

	for _, e := range c.Effects {
		switch e := e.(type) {
		case review.SpawnRecord:
			if _, exists := s.records[e.Record.ID]; exists {
				return fmt.Errorf("spawned record %s already exists", e.Record.ID)
			}
			spawned = append(spawned, e)

		case review.PatchProfile:
			p, _ := profiles.ApplyChanges(profileFor(e.UserID), e.Changes)
			p.UpdatedAt = c.Record.UpdatedAt
			stagedProfiles[e.UserID] = p

		case review.AppendCertification:
			p := profileFor(e.CoachID)
			p.AddCertification(e.Title)
			p.UpdatedAt = c.Record.UpdatedAt
			stagedProfiles[e.CoachID] = p

		case review.ProvisionProfile:
			p := profileFor(e.UserID)
			p.Role = string(e.Role)
			p.FullName = e.FullName
			p.Email = e.Email
			p.UpdatedAt = c.Record.UpdatedAt
			stagedProfiles[e.UserID] = p

		case review.PausePlan:
			plan, ok := stagedPlans[e.PlanID]
			if !ok {
				if plan, ok = s.plans[e.PlanID]; !ok {
					// Un plan gestionado en otro lado no es un error.
					continue
				}
			}
			plan.Status = training.PlanPaused
			plan.UpdatedAt = c.Record.UpdatedAt
			stagedPlans[e.PlanID] = plan

		default:
			return fmt.Errorf("unsupported effect %T", e)
		}
	}

	s.records[c.Record.ID] = cloneRecord(c.Record)
	s.history[c.Record.ID] = append(s.history[c.Record.ID], c.History...)
	for _, sp := range spawned {
		s.insertRecord(sp.Record, sp.History)
	}
	for id, p := range stagedProfiles {
		s.profiles[id] = p
	}
	for id, p := range stagedPlans {
		s.plans[id] = p
	}
	return nil
}

// cloneRecord copia el diff de un cambio de perfil; el resto del payload son valores.
func cloneRecord(rec review.Record) review.Record {
	if p, ok := rec.Payload.(review.ProfileChangeRequest); ok {
		p.RequestedChanges = maps.Clone(p.RequestedChanges)
		rec.Payload = p
	}
	return rec
}
