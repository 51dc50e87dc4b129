package review

import (
	"encoding/json"
	"fmt"
	"maps"
	"strings"
	"time"
	"unicode"
)

// Payload es la parte propia de cada kind. Cada kind tiene un único tipo
// concreto; el type switch del executor es exhaustivo.
type Payload interface {
	Kind() Kind
	parties() parties
	check() error
	// sanitize borra lo que solo escribe el executor al transicionar.
	sanitize() Payload
}

// parties nombra a los usuarios que el payload liga a edges concretos.
type parties struct {
	coachID      string
	specialistID string
}

type Achievement struct {
	Title       string `json:"title" validate:"required"`
	Category    string `json:"category" validate:"required"`
	AchievedOn  string `json:"achieved_on" validate:"required,datetime=2006-01-02"`
	Description string `json:"description,omitempty"`
	EvidenceURL string `json:"evidence_url,omitempty" validate:"omitempty,url"`
	Notes       string `json:"notes,omitempty"`
}

type Certification struct {
	Title     string `json:"title" validate:"required"`
	Issuer    string `json:"issuer" validate:"required"`
	IssuedOn  string `json:"issued_on" validate:"required,datetime=2006-01-02"`
	ExpiresOn string `json:"expires_on,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Notes     string `json:"notes,omitempty"`
}

type SportRegistration struct {
	Sport   string `json:"sport" validate:"required"`
	CoachID string `json:"coach_id" validate:"required"`
	Level   string `json:"level,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

type PhysiotherapyAppointment struct {
	CoachID       string `json:"coach_id" validate:"required"`
	SpecialistID  string `json:"specialist_id,omitempty"`
	PreferredDate string `json:"preferred_date" validate:"required,datetime=2006-01-02"`
	Reason        string `json:"reason" validate:"required"`
	Notes         string `json:"notes,omitempty"`
}

type TrainingPlanPause struct {
	PlanID               string `json:"plan_id" validate:"required"`
	CoachID              string `json:"coach_id" validate:"required"`
	Reason               string `json:"reason" validate:"required"`
	StartDate            string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate              string `json:"end_date" validate:"required,datetime=2006-01-02"`
	NeedsMedicalReferral bool   `json:"needs_medical_referral"`
	SpecialistID         string `json:"specialist_id,omitempty"`
	ReferralID           string `json:"referral_id,omitempty"`
	Notes                string `json:"notes,omitempty"`
}

// Vocabularios de tipo de licencia y de decisión.
const (
	DecisionStopTraining     = "stop_training"
	DecisionContinueModified = "continue_modified"
	DecisionContinueNormal   = "continue_normal"
)

func validDecision(s string) bool {
	switch s {
	case DecisionStopTraining, DecisionContinueModified, DecisionContinueNormal:
		return true
	}
	return false
}

type MedicalLeave struct {
	CoachID      string `json:"coach_id" validate:"required"`
	SpecialistID string `json:"specialist_id,omitempty"` // empty: any specialist may review
	LeaveType    string `json:"leave_type" validate:"required,oneof=injury illness personal other"`
	Reason       string `json:"reason" validate:"required"`
	StartDate    string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate      string `json:"end_date" validate:"required,datetime=2006-01-02"`

	SpecialistReview         string     `json:"specialist_review,omitempty"`
	SpecialistRecommendation string     `json:"specialist_recommendation,omitempty"`
	SpecialistReviewedBy     string     `json:"specialist_reviewed_by,omitempty"`
	SpecialistReviewedAt     *time.Time `json:"specialist_reviewed_at,omitempty"`
	CoachDecision            string     `json:"coach_decision,omitempty"`
	CoachNotes               string     `json:"coach_notes,omitempty"`
	CoachDecidedAt           *time.Time `json:"coach_decided_at,omitempty"`
}

type ProfileChangeRequest struct {
	RequestedChanges map[string]any `json:"requested_changes" validate:"required,min=1"`
	Reason           string         `json:"reason,omitempty"`
	Notes            string         `json:"notes,omitempty"`
}

type UserRegistration struct {
	FullName      string `json:"full_name" validate:"required"`
	Email         string `json:"email" validate:"required,email"`
	RequestedRole Role   `json:"requested_role" validate:"required,oneof=athlete coach specialist official"`
	Notes         string `json:"notes,omitempty"`
}

type MedicalReferral struct {
	SpecialistID    string `json:"specialist_id" validate:"required"`
	CoachID         string `json:"coach_id,omitempty"`
	PauseRequestID  string `json:"pause_request_id,omitempty"`
	Reason          string `json:"reason" validate:"required"`
	SpecialistNotes string `json:"specialist_notes,omitempty"`
}

func (Achievement) Kind() Kind              { return KindAchievement }
func (Certification) Kind() Kind            { return KindCertification }
func (SportRegistration) Kind() Kind        { return KindSportRegistration }
func (PhysiotherapyAppointment) Kind() Kind { return KindPhysiotherapyAppointment }
func (TrainingPlanPause) Kind() Kind        { return KindTrainingPlanPause }
func (MedicalLeave) Kind() Kind             { return KindMedicalLeave }
func (ProfileChangeRequest) Kind() Kind     { return KindProfileChangeRequest }
func (UserRegistration) Kind() Kind         { return KindUserRegistration }
func (MedicalReferral) Kind() Kind          { return KindMedicalReferral }

func (Achievement) parties() parties         { return parties{} }
func (Certification) parties() parties       { return parties{} }
func (p SportRegistration) parties() parties { return parties{coachID: p.CoachID} }
func (p PhysiotherapyAppointment) parties() parties {
	return parties{coachID: p.CoachID, specialistID: p.SpecialistID}
}
func (p TrainingPlanPause) parties() parties {
	return parties{coachID: p.CoachID, specialistID: p.SpecialistID}
}
func (p MedicalLeave) parties() parties {
	return parties{coachID: p.CoachID, specialistID: p.SpecialistID}
}
func (ProfileChangeRequest) parties() parties { return parties{} }
func (UserRegistration) parties() parties     { return parties{} }
func (p MedicalReferral) parties() parties {
	return parties{coachID: p.CoachID, specialistID: p.SpecialistID}
}

func (Achievement) check() error { return nil }
func (p Certification) check() error {
	return dateRange("expires_on", "issued_on", p.IssuedOn, p.ExpiresOn)
}
func (SportRegistration) check() error        { return nil }
func (PhysiotherapyAppointment) check() error { return nil }
func (p TrainingPlanPause) check() error {
	return dateRange("end_date", "start_date", p.StartDate, p.EndDate)
}
func (p MedicalLeave) check() error {
	return dateRange("end_date", "start_date", p.StartDate, p.EndDate)
}
func (UserRegistration) check() error { return nil }
func (MedicalReferral) check() error  { return nil }

func (p ProfileChangeRequest) check() error {
	for k := range p.RequestedChanges {
		if strings.TrimSpace(k) == "" {
			return invalid("requested_changes", "blank field name")
		}
	}
	return nil
}

func (p Achievement) sanitize() Payload              { return p }
func (p Certification) sanitize() Payload            { return p }
func (p SportRegistration) sanitize() Payload        { return p }
func (p PhysiotherapyAppointment) sanitize() Payload { return p }
func (p UserRegistration) sanitize() Payload         { return p }

func (p TrainingPlanPause) sanitize() Payload {
	p.ReferralID = ""
	return p
}

func (p MedicalLeave) sanitize() Payload {
	p.SpecialistReview = ""
	p.SpecialistRecommendation = ""
	p.SpecialistReviewedBy = ""
	p.SpecialistReviewedAt = nil
	p.CoachDecision = ""
	p.CoachNotes = ""
	p.CoachDecidedAt = nil
	return p
}

func (p ProfileChangeRequest) sanitize() Payload {
	p.RequestedChanges = maps.Clone(p.RequestedChanges)
	return p
}

// Una derivación solo queda ligada a una pausa cuando la crea la cascada.
func (p MedicalReferral) sanitize() Payload {
	p.PauseRequestID = ""
	p.SpecialistNotes = ""
	return p
}

// dateRange rechaza end < start. Las fechas son ISO (YYYY-MM-DD), así que el orden de strings es el de fechas.
func dateRange(field, startField, start, end string) error {
	if start == "" || end == "" {
		return nil
	}
	if end < start {
		return invalid(field, "must not be before "+startField)
	}
	return nil
}

func newPayload(k Kind) (Payload, error) {
	switch k {
	case KindAchievement:
		return &Achievement{}, nil
	case KindCertification:
		return &Certification{}, nil
	case KindSportRegistration:
		return &SportRegistration{}, nil
	case KindPhysiotherapyAppointment:
		return &PhysiotherapyAppointment{}, nil
	case KindTrainingPlanPause:
		return &TrainingPlanPause{}, nil
	case KindMedicalLeave:
		return &MedicalLeave{}, nil
	case KindProfileChangeRequest:
		return &ProfileChangeRequest{}, nil
	case KindUserRegistration:
		return &UserRegistration{}, nil
	case KindMedicalReferral:
		return &MedicalReferral{}, nil
	}
	return nil, invalid("kind", fmt.Sprintf("unknown kind %q", k))
}

// DecodePayload convierte el JSON guardado o enviado en el payload del kind.
// Las claves se normalizan a snake_case (athleteId y athlete_id son el mismo
// campo) y nada más abajo ve variantes.
func DecodePayload(k Kind, raw []byte) (Payload, error) {
	ptr, err := newPayload(k)
	if err != nil {
		return nil, err
	}

	var fields map[string]any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, invalid("payload", "payload must be a JSON object")
		}
	}
	fields = normalizeKeys(fields)
	if k == KindProfileChangeRequest {
		if changes, ok := fields["requested_changes"].(map[string]any); ok {
			fields["requested_changes"] = normalizeKeys(changes)
		}
	}

	canon, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(canon, ptr); err != nil {
		return nil, invalid("payload", err.Error())
	}
	return deref(ptr), nil
}

// EncodePayload es la inversa de DecodePayload.
func EncodePayload(p Payload) ([]byte, error) {
	return json.Marshal(p)
}

// deref guarda los payloads como valores: copiar un Record copia su payload.
func deref(p Payload) Payload {
	switch v := p.(type) {
	case *Achievement:
		return *v
	case *Certification:
		return *v
	case *SportRegistration:
		return *v
	case *PhysiotherapyAppointment:
		return *v
	case *TrainingPlanPause:
		return *v
	case *MedicalLeave:
		return *v
	case *ProfileChangeRequest:
		return *v
	case *UserRegistration:
		return *v
	case *MedicalReferral:
		return *v
	}
	return p
}

func normalizeKeys(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[SnakeCase(k)] = v
	}
	return out
}

// SnakeCase convierte claves camelCase, kebab-case o con espacios a snake_case.
func SnakeCase(s string) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	b.Grow(len(s) + 4)
	prevLower := false
	for _, r := range s {
		switch {
		case r == '-' || r == ' ':
			b.WriteByte('_')
			prevLower = false
		case unicode.IsUpper(r):
			if prevLower {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			prevLower = false
		default:
			b.WriteRune(r)
			prevLower = unicode.IsLower(r) || unicode.IsDigit(r)
		}
	}
	return b.String()
}
