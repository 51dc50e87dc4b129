package review

import (
	"fmt"
	"strings"
)

// Authorize decide si actor puede llevar rec al estado pedido; nil permite.
// El orden es fijo: estado de origen, rol y parte, campos requeridos. Un
// registro ya terminal siempre responde InvalidSourceState, pida quien pida.
func Authorize(rec Record, to Status, actor Actor, in TransitionInput) *Denial {
	r, ok := transitions[edge{rec.Kind, rec.Status, to}]
	if !ok {
		if IsTerminal(rec.Kind, rec.Status) {
			return &Denial{
				Reason:  ReasonInvalidSourceState,
				Message: fmt.Sprintf("%s is already %s", rec.Kind, rec.Status),
			}
		}
		return &Denial{
			Reason:  ReasonInvalidSourceState,
			Message: fmt.Sprintf("%s cannot move from %s to %s", rec.Kind, rec.Status, to),
		}
	}

	if pr, ok := proxyTransitions[edge{rec.Kind, rec.Status, to}]; ok && filedForOwnDecision(rec) {
		r = pr
	}

	if d := checkActor(rec, r, actor); d != nil {
		return d
	}
	return requiredFields(rec, to, in)
}

func checkActor(rec Record, r rule, actor Actor) *Denial {
	if strings.TrimSpace(actor.ID) == "" || actor.Role != r.role {
		return &Denial{Reason: ReasonWrongRole, Message: fmt.Sprintf("requires role %s", r.role)}
	}
	if r.admin && !actor.IsAdmin {
		return &Denial{Reason: ReasonWrongRole, Message: "requires an admin official"}
	}

	p := rec.Payload.parties()
	switch r.party {
	case namedCoach:
		if p.coachID != actor.ID {
			return &Denial{Reason: ReasonWrongRole, Message: "only the assigned coach may decide"}
		}
	case namedSpecialist:
		if p.specialistID != "" && p.specialistID != actor.ID {
			return &Denial{Reason: ReasonWrongRole, Message: "only the assigned specialist may review"}
		}
	case boundSpecialist:
		if p.specialistID == "" || p.specialistID != actor.ID {
			return &Denial{Reason: ReasonWrongRole, Message: "only the referred specialist may complete"}
		}
	case submitter:
		if rec.SubmittedBy != actor.ID {
			return &Denial{Reason: ReasonWrongRole, Message: "only the submitter may cancel"}
		}
		return nil
	case subject:
		if rec.SubjectID != actor.ID {
			return &Denial{Reason: ReasonWrongRole, Message: "only the requesting athlete may cancel"}
		}
		return nil
	}

	// Nadie decide un registro sobre sí mismo ni uno que envió él.
	if rec.SubjectID == actor.ID || rec.SubmittedBy == actor.ID {
		return &Denial{Reason: ReasonWrongRole, Message: "cannot review your own submission"}
	}
	return nil
}

// filedForOwnDecision: un coach envió el registro en nombre del atleta y además
// es el coach que lo tendría que decidir.
func filedForOwnDecision(rec Record) bool {
	return rec.SubmittedBy != rec.SubjectID && rec.SubmittedBy == rec.Payload.parties().coachID
}

func requiredFields(rec Record, to Status, in TransitionInput) *Denial {
	switch p := rec.Payload.(type) {
	case MedicalLeave:
		switch to {
		case StatusSpecialistReviewed:
			if strings.TrimSpace(in.SpecialistReview) == "" {
				return missing("specialist_review")
			}
			if !validDecision(strings.TrimSpace(in.SpecialistRecommendation)) {
				return missing("specialist_recommendation")
			}
		case StatusApproved, StatusRejected:
			if !validDecision(strings.TrimSpace(in.CoachDecision)) {
				return missing("coach_decision")
			}
		}
	case TrainingPlanPause:
		if to == StatusApproved {
			needs, specialistID := referralFor(p, in)
			if needs && specialistID == "" {
				return missing("specialist_id")
			}
		}
	}
	return nil
}

func missing(field string) *Denial {
	return &Denial{Reason: ReasonMissingRequiredField, Field: field, Message: field + " is required"}
}

// referralFor resuelve la decisión de derivación: lo indicado al aprobar
// gana sobre lo enviado con la solicitud.
func referralFor(p TrainingPlanPause, in TransitionInput) (bool, string) {
	needs := p.NeedsMedicalReferral
	if in.NeedsMedicalReferral != nil {
		needs = *in.NeedsMedicalReferral
	}
	specialistID := strings.TrimSpace(in.SpecialistID)
	if specialistID == "" {
		specialistID = p.SpecialistID
	}
	return needs, specialistID
}
