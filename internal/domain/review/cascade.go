package review

import (
	"fmt"
	"strings"
	"time"

	"sports-portal/internal/ports/notify"
)

// mergeInput vuelca en el payload los campos que el revisor envía al transicionar.
func mergeInput(p Payload, to Status, actor Actor, in TransitionInput, now time.Time) Payload {
	switch v := p.(type) {
	case MedicalLeave:
		switch to {
		case StatusSpecialistReviewed:
			v.SpecialistReview = strings.TrimSpace(in.SpecialistReview)
			v.SpecialistRecommendation = strings.TrimSpace(in.SpecialistRecommendation)
			v.SpecialistReviewedBy = actor.ID
			v.SpecialistReviewedAt = &now
			if v.SpecialistID == "" {
				v.SpecialistID = actor.ID
			}
		case StatusApproved, StatusRejected:
			v.CoachDecision = strings.TrimSpace(in.CoachDecision)
			v.CoachNotes = strings.TrimSpace(firstNonEmpty(in.CoachNotes, in.Notes))
			v.CoachDecidedAt = &now
		}
		return v
	case TrainingPlanPause:
		if to == StatusApproved {
			v.NeedsMedicalReferral, v.SpecialistID = referralFor(v, in)
		}
		if n := strings.TrimSpace(firstNonEmpty(in.CoachNotes, in.Notes)); n != "" {
			v.Notes = n
		}
		return v
	case MedicalReferral:
		if n := strings.TrimSpace(in.Notes); n != "" && to == StatusCompleted {
			v.SpecialistNotes = n
		}
		return v
	}
	return p
}

// cascade lista las escrituras que deben aplicarse junto con next. Puede
// actualizar el payload de next, por ejemplo para ligar una derivación creada.
func (s *Service) cascade(prev Record, next *Record, actor Actor, now time.Time) []Effect {
	var out []Effect

	switch p := next.Payload.(type) {
	case TrainingPlanPause:
		if next.Status != StatusApproved {
			return nil
		}
		out = append(out, PausePlan{PlanID: p.PlanID})
		if p.NeedsMedicalReferral {
			ref := s.spawnReferral(prev, p, actor, now)
			p.ReferralID = ref.Record.ID
			next.Payload = p
			out = append(out, ref)
		}

	case ProfileChangeRequest:
		if next.Status == StatusApproved {
			out = append(out, PatchProfile{UserID: next.SubjectID, Changes: p.RequestedChanges})
		}

	case Certification:
		if next.Status == StatusVerified {
			out = append(out, AppendCertification{CoachID: next.SubjectID, Title: p.Title})
		}

	case UserRegistration:
		if next.Status == StatusApproved {
			out = append(out, ProvisionProfile{
				UserID:   next.SubjectID,
				Role:     p.RequestedRole,
				FullName: p.FullName,
				Email:    p.Email,
			})
		}
	}
	return out
}

func (s *Service) spawnReferral(pause Record, p TrainingPlanPause, actor Actor, now time.Time) SpawnRecord {
	id := s.newID()
	return SpawnRecord{
		Record: Record{
			ID:          id,
			Kind:        KindMedicalReferral,
			SubjectID:   pause.SubjectID,
			SubmittedBy: actor.ID,
			Status:      StatusPending,
			SubmittedAt: now,
			UpdatedAt:   now,
			Payload: MedicalReferral{
				SpecialistID:   p.SpecialistID,
				CoachID:        p.CoachID,
				PauseRequestID: pause.ID,
				Reason:         p.Reason,
			},
		},
		History: HistoryEntry{
			ID:         s.newID(),
			RecordID:   id,
			ToStatus:   StatusPending,
			ActorID:    actor.ID,
			OccurredAt: now,
			Note:       "referred from " + pause.ID,
		},
	}
}

// notificationsFor: el sujeto se entera de cada resultado; en flujos de varias
// etapas también se avisa a la parte que sigue.
func notificationsFor(next Record, effects []Effect) []notify.Notification {
	out := []notify.Notification{{
		UserID:   next.SubjectID,
		Kind:     string(next.Kind) + "." + string(next.Status),
		Message:  fmt.Sprintf("Your %s is now %s", humanize(next.Kind), humanize(next.Status)),
		RecordID: next.ID,
	}}

	if next.Status == StatusPendingCoachDecision {
		if coach := next.Payload.parties().coachID; coach != "" {
			out = append(out, notify.Notification{
				UserID:   coach,
				Kind:     string(next.Kind) + ".awaiting_decision",
				Message:  fmt.Sprintf("A %s reviewed by a specialist is waiting for your decision", humanize(next.Kind)),
				RecordID: next.ID,
			})
		}
	}

	for _, e := range effects {
		sp, ok := e.(SpawnRecord)
		if !ok {
			continue
		}
		if specialist := sp.Record.Payload.parties().specialistID; specialist != "" {
			out = append(out, notify.Notification{
				UserID:   specialist,
				Kind:     string(sp.Record.Kind) + ".assigned",
				Message:  fmt.Sprintf("New %s assigned to you", humanize(sp.Record.Kind)),
				RecordID: sp.Record.ID,
			})
		}
	}
	return out
}

func humanize[T ~string](s T) string {
	return strings.ReplaceAll(string(s), "_", " ")
}
