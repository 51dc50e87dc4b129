package review

import "slices"

// party indica qué usuario, además del rol, es dueño de un edge.
type party int

const (
	anyParty        party = iota // any user holding the role
	namedCoach                   // payload coach_id
	namedSpecialist              // payload specialist_id; unassigned means any specialist
	boundSpecialist              // payload specialist_id, must be set
	submitter                    // the user who created the record
	subject                      // the user the record is about
)

type edge struct {
	kind Kind
	from Status
	to   Status
}

type rule struct {
	role  Role
	party party
	admin bool
}

// initialStatus es el estado con que se crea un registro.
var initialStatus = map[Kind]Status{
	KindAchievement:              StatusPending,
	KindCertification:            StatusPending,
	KindSportRegistration:        StatusPending,
	KindPhysiotherapyAppointment: StatusRequested,
	KindTrainingPlanPause:        StatusPending,
	KindMedicalLeave:             StatusPendingSpecialistReview,
	KindProfileChangeRequest:     StatusPending,
	KindUserRegistration:         StatusPending,
	KindMedicalReferral:          StatusPending,
}

// transitions es toda la tabla de autorización. Un kind nuevo se agrega con
// filas aquí y un tipo de payload, sin ramas nuevas en el executor.
var transitions = map[edge]rule{
	{KindAchievement, StatusPending, StatusVerified}: {role: RoleOfficial},
	{KindAchievement, StatusPending, StatusRejected}: {role: RoleOfficial},

	{KindCertification, StatusPending, StatusVerified}: {role: RoleOfficial},
	{KindCertification, StatusPending, StatusRejected}: {role: RoleOfficial},

	{KindSportRegistration, StatusPending, StatusApproved}:  {role: RoleCoach, party: namedCoach},
	{KindSportRegistration, StatusPending, StatusRejected}:  {role: RoleCoach, party: namedCoach},
	{KindSportRegistration, StatusPending, StatusCancelled}: {role: RoleAthlete, party: submitter},

	{KindPhysiotherapyAppointment, StatusRequested, StatusApproved}:  {role: RoleCoach, party: namedCoach},
	{KindPhysiotherapyAppointment, StatusRequested, StatusCancelled}: {role: RoleAthlete, party: subject},

	{KindTrainingPlanPause, StatusPending, StatusApproved}: {role: RoleCoach, party: namedCoach},
	{KindTrainingPlanPause, StatusPending, StatusRejected}: {role: RoleCoach, party: namedCoach},

	{KindMedicalLeave, StatusPendingSpecialistReview, StatusSpecialistReviewed}: {role: RoleSpecialist, party: namedSpecialist},
	{KindMedicalLeave, StatusPendingCoachDecision, StatusApproved}:              {role: RoleCoach, party: namedCoach},
	{KindMedicalLeave, StatusPendingCoachDecision, StatusRejected}:              {role: RoleCoach, party: namedCoach},
	{KindMedicalLeave, StatusPendingSpecialistReview, StatusCancelled}:          {role: RoleAthlete, party: submitter},
	{KindMedicalLeave, StatusPendingCoachDecision, StatusCancelled}:             {role: RoleAthlete, party: submitter},

	{KindProfileChangeRequest, StatusPending, StatusApproved}: {role: RoleOfficial},
	{KindProfileChangeRequest, StatusPending, StatusRejected}: {role: RoleOfficial},

	{KindUserRegistration, StatusPending, StatusApproved}: {role: RoleOfficial, admin: true},
	{KindUserRegistration, StatusPending, StatusRejected}: {role: RoleOfficial, admin: true},

	{KindMedicalReferral, StatusPending, StatusCompleted}: {role: RoleSpecialist, party: boundSpecialist},
	{KindMedicalReferral, StatusPending, StatusCancelled}: {role: RoleCoach, party: submitter},
}

// proxyTransitions reemplaza la regla de un edge cuando el coach que envió el
// registro por el atleta es también quien lo decidiría: decide un official.
var proxyTransitions = map[edge]rule{
	{KindTrainingPlanPause, StatusPending, StatusApproved}:          {role: RoleOfficial},
	{KindTrainingPlanPause, StatusPending, StatusRejected}:          {role: RoleOfficial},
	{KindPhysiotherapyAppointment, StatusRequested, StatusApproved}: {role: RoleOfficial},
}

// followOn mapea un estado que nunca se persiste al estado al que avanza en
// la misma escritura.
var followOn = map[edge]Status{
	{KindMedicalLeave, StatusPendingSpecialistReview, StatusSpecialistReviewed}: StatusPendingCoachDecision,
}

// InitialStatus devuelve el estado de creación de k.
func InitialStatus(k Kind) (Status, bool) {
	s, ok := initialStatus[k]
	return s, ok
}

// NextStatuses lista los estados alcanzables desde s para el kind k.
func NextStatuses(k Kind, s Status) []Status {
	out := make([]Status, 0, 3)
	for e := range transitions {
		if e.kind == k && e.from == s {
			out = append(out, e.to)
		}
	}
	slices.Sort(out)
	return out
}

// IsTerminal indica si s no tiene edges de salida para k.
func IsTerminal(k Kind, s Status) bool {
	for e := range transitions {
		if e.kind == k && e.from == s {
			return false
		}
	}
	return true
}
