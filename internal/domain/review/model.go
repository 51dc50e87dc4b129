package review

import "time"

// Kind identifica el workflow de un registro. No cambia después de crearse.
type Kind string

const (
	KindAchievement              Kind = "achievement"
	KindCertification            Kind = "certification"
	KindSportRegistration        Kind = "sport_registration"
	KindPhysiotherapyAppointment Kind = "physiotherapy_appointment"
	KindTrainingPlanPause        Kind = "training_plan_pause"
	KindMedicalLeave             Kind = "medical_leave"
	KindProfileChangeRequest     Kind = "profile_change_request"
	KindUserRegistration         Kind = "user_registration"
	KindMedicalReferral          Kind = "medical_referral"
)

// Kinds lista todos los kinds en orden estable.
var Kinds = []Kind{
	KindAchievement,
	KindCertification,
	KindSportRegistration,
	KindPhysiotherapyAppointment,
	KindTrainingPlanPause,
	KindMedicalLeave,
	KindProfileChangeRequest,
	KindUserRegistration,
	KindMedicalReferral,
}

func (k Kind) Valid() bool {
	_, ok := initialStatus[k]
	return ok
}

// Los valores de Status se persisten y devuelven tal cual.
type Status string

const (
	StatusPending                 Status = "pending"
	StatusRequested               Status = "requested"
	StatusVerified                Status = "verified"
	StatusRejected                Status = "rejected"
	StatusApproved                Status = "approved"
	StatusCancelled               Status = "cancelled"
	StatusCompleted               Status = "completed"
	StatusPendingSpecialistReview Status = "pending_specialist_review"
	StatusSpecialistReviewed      Status = "specialist_reviewed"
	StatusPendingCoachDecision    Status = "pending_coach_decision"
)

type Role string

const (
	RoleAthlete    Role = "athlete"
	RoleCoach      Role = "coach"
	RoleSpecialist Role = "specialist"
	RoleOfficial   Role = "official"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAthlete, RoleCoach, RoleSpecialist, RoleOfficial:
		return true
	}
	return false
}

// Actor es el usuario autenticado que envía o transiciona un registro.
type Actor struct {
	ID      string
	Role    Role
	IsAdmin bool
}

// Record es la forma común de toda entidad revisable.
type Record struct {
	ID   string
	Kind Kind

	SubjectID   string // athlete or coach the record is about
	SubmittedBy string // subject, or a proxy (coach filing for an athlete)

	Status Status

	SubmittedAt time.Time
	UpdatedAt   time.Time

	// Se sobrescribe en cada etapa de los flujos de varias etapas.
	DecidedBy string
	DecidedAt *time.Time

	Payload Payload
}

// TransitionInput lleva los campos opcionales que un revisor adjunta a una transición.
type TransitionInput struct {
	SpecialistReview         string `json:"specialist_review"`
	SpecialistRecommendation string `json:"specialist_recommendation"`
	CoachDecision            string `json:"coach_decision"`
	CoachNotes               string `json:"coach_notes"`
	Notes                    string `json:"notes"`

	// Al aprobar una pausa de plan se puede decidir la derivación.
	NeedsMedicalReferral *bool  `json:"needs_medical_referral"`
	SpecialistID         string `json:"specialist_id"`
}

// HistoryEntry es una línea inmutable del historial de un registro.
type HistoryEntry struct {
	ID         string
	RecordID   string
	FromStatus Status // empty for the submit entry
	ToStatus   Status
	ActorID    string
	OccurredAt time.Time
	Note       string
}

// Query filtra registros. Un campo vacío no filtra.
type Query struct {
	Kind      Kind
	SubjectID string
	Status    Status
}
