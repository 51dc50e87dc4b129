package training

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("plan not found")

type Repository interface {
	CreatePlan(ctx context.Context, p Plan) error
	GetPlan(ctx context.Context, id string) (Plan, error)
	ListPlansByAthlete(ctx context.Context, athleteID string) ([]Plan, error)

	// CompleteSession aplica Plan.CompleteSession bajo el lock o la transacción
	// del store y devuelve el plan resultante.
	CompleteSession(ctx context.Context, planID, sessionID string, at time.Time) (Plan, error)
}
