package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"sports-portal/internal/domain/training"
)

type TrainingRepo struct {
	db *sql.DB
}

var _ training.Repository = (*TrainingRepo)(nil)

func NewTrainingRepo(db *sql.DB) *TrainingRepo {
	return &TrainingRepo{db: db}
}

func (r *TrainingRepo) CreatePlan(ctx context.Context, p training.Plan) error {
	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO training_plans (id, athlete_id, coach_id, title, status, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
		`,
			p.ID,
			p.AthleteID,
			p.CoachID,
			p.Title,
			string(p.Status),
			p.CreatedAt,
			p.UpdatedAt,
		)
		if err != nil {
			return err
		}

		for i, s := range p.Sessions {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO training_sessions (id, plan_id, position, title, scheduled_on, completed, completed_at)
				VALUES ($1,$2,$3,$4,$5,$6,$7)
			`,
				s.ID,
				p.ID,
				i,
				s.Title,
				s.ScheduledOn,
				s.Completed,
				toNullTime(s.CompletedAt),
			)
			if err != nil {
				return fmt.Errorf("insert session %s: %w", s.ID, err)
			}
		}
		return nil
	})
}

func (r *TrainingRepo) GetPlan(ctx context.Context, id string) (training.Plan, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return training.Plan{}, training.ErrNotFound
	}
	return loadPlan(ctx, r.db, id, false)
}

func (r *TrainingRepo) ListPlansByAthlete(ctx context.Context, athleteID string) ([]training.Plan, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, athlete_id, coach_id, title, status, created_at, updated_at
		FROM training_plans
		WHERE athlete_id = $1
		ORDER BY created_at ASC, id ASC
	`, strings.TrimSpace(athleteID))
	if err != nil {
		return nil, err
	}

	out := make([]training.Plan, 0)
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range out {
		sessions, err := loadSessions(ctx, r.db, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Sessions = sessions
	}
	return out, nil
}

func (r *TrainingRepo) CompleteSession(ctx context.Context, planID, sessionID string, at time.Time) (training.Plan, error) {
	var out training.Plan
	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		p, err := loadPlan(ctx, tx, planID, true)
		if err != nil {
			return err
		}

		changed, found := p.CompleteSession(sessionID, at)
		if !found {
			return training.ErrSessionNotFound
		}
		out = p
		if !changed {
			return nil
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE training_sessions SET completed = TRUE, completed_at = $3
			WHERE plan_id = $1 AND id = $2
		`, p.ID, sessionID, at); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE training_plans SET status = $2, updated_at = $3 WHERE id = $1
		`, p.ID, string(p.Status), p.UpdatedAt)
		return err
	})
	if err != nil {
		return training.Plan{}, err
	}
	return out, nil
}

// pausePlan corre dentro del commit de una pausa aprobada. Un plan que no
// existe en este store no es error.
func pausePlan(ctx context.Context, tx *sql.Tx, planID string, at time.Time) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE training_plans SET status = $2, updated_at = $3 WHERE id = $1
	`, planID, string(training.PlanPaused), at)
	return err
}

func loadPlan(ctx context.Context, q querier, id string, forUpdate bool) (training.Plan, error) {
	query := `
		SELECT id, athlete_id, coach_id, title, status, created_at, updated_at
		FROM training_plans
		WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	p, err := scanPlan(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return training.Plan{}, training.ErrNotFound
	}
	if err != nil {
		return training.Plan{}, err
	}
	p.Sessions, err = loadSessions(ctx, q, p.ID)
	if err != nil {
		return training.Plan{}, err
	}
	return p, nil
}

func scanPlan(s rowScanner) (training.Plan, error) {
	var p training.Plan
	var status string
	if err := s.Scan(&p.ID, &p.AthleteID, &p.CoachID, &p.Title, &status, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return training.Plan{}, err
	}
	p.Status = training.PlanStatus(status)
	return p, nil
}

func loadSessions(ctx context.Context, q querier, planID string) ([]training.Session, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, title, scheduled_on, completed, completed_at
		FROM training_sessions
		WHERE plan_id = $1
		ORDER BY position ASC
	`, planID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]training.Session, 0)
	for rows.Next() {
		var s training.Session
		var completedAt sql.NullTime
		if err := rows.Scan(&s.ID, &s.Title, &s.ScheduledOn, &s.Completed, &completedAt); err != nil {
			return nil, err
		}
		s.CompletedAt = fromNullTime(completedAt)
		out = append(out, s)
	}
	return out, rows.Err()
}
