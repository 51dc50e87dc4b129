package training

import "time"

type PlanStatus string

const (
	PlanActive    PlanStatus = "active"
	PlanPaused    PlanStatus = "paused"
	PlanCompleted PlanStatus = "completed"
)

// Plan es un plan de entrenamiento asignado por un coach a un atleta.
type Plan struct {
	ID        string
	AthleteID string
	CoachID   string
	Title     string
	Status    PlanStatus
	Sessions  []Session
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Session struct {
	ID          string
	Title       string
	ScheduledOn string // YYYY-MM-DD, opcional
	Completed   bool
	CompletedAt *time.Time
}

// CompleteSession marca una sesión como hecha. Completar una sesión ya hecha
// no cambia nada. El plan queda completado con su última sesión.
func (p *Plan) CompleteSession(sessionID string, at time.Time) (changed bool, found bool) {
	for i := range p.Sessions {
		s := &p.Sessions[i]
		if s.ID != sessionID {
			continue
		}
		if s.Completed {
			return false, true
		}
		s.Completed = true
		s.CompletedAt = &at
		p.UpdatedAt = at
		if p.allCompleted() {
			p.Status = PlanCompleted
		}
		return true, true
	}
	return false, false
}

func (p *Plan) allCompleted() bool {
	for _, s := range p.Sessions {
		if !s.Completed {
			return false
		}
	}
	return len(p.Sessions) > 0
}
