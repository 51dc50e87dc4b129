package postgres

import (
	"context"
	"testing"
	"time"

	"sports-portal/internal/domain/training"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var planCols = []string{"id", "athlete_id", "coach_id", "title", "status", "created_at", "updated_at"}
var sessionCols = []string{"id", "title", "scheduled_on", "completed", "completed_at"}

func TestTrainingRepo_CreatePlanInsertsSessionsInOrder(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTrainingRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO training_plans").
		WithArgs("plan-1", "athlete-1", "coach-1", "Base", "active", t0, t0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO training_sessions").
		WithArgs("s-1", "plan-1", 0, "Run", "2025-03-02", false, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO training_sessions").
		WithArgs("s-2", "plan-1", 1, "Swim", "", false, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.CreatePlan(context.Background(), training.Plan{
		ID: "plan-1", AthleteID: "athlete-1", CoachID: "coach-1", Title: "Base",
		Status: training.PlanActive, CreatedAt: t0, UpdatedAt: t0,
		Sessions: []training.Session{
			{ID: "s-1", Title: "Run", ScheduledOn: "2025-03-02"},
			{ID: "s-2", Title: "Swim"},
		},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTrainingRepo_GetPlanNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTrainingRepo(db)

	mock.ExpectQuery("FROM training_plans").WithArgs("nope").WillReturnRows(sqlmock.NewRows(planCols))

	_, err := repo.GetPlan(context.Background(), "nope")
	assert.ErrorIs(t, err, training.ErrNotFound)
}

func TestTrainingRepo_CompleteLastSessionCompletesPlan(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTrainingRepo(db)
	done := t0.Add(-24 * time.Hour)
	at := t0.Add(time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM training_plans WHERE id = \\$1 FOR UPDATE").
		WithArgs("plan-1").
		WillReturnRows(sqlmock.NewRows(planCols).AddRow("plan-1", "athlete-1", "coach-1", "Base", "active", t0, t0))
	mock.ExpectQuery("FROM training_sessions").
		WithArgs("plan-1").
		WillReturnRows(sqlmock.NewRows(sessionCols).
			AddRow("s-1", "Run", "", true, done).
			AddRow("s-2", "Swim", "", false, nil))
	mock.ExpectExec("UPDATE training_sessions").
		WithArgs("plan-1", "s-2", at).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE training_plans").
		WithArgs("plan-1", "completed", at).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	p, err := repo.CompleteSession(context.Background(), "plan-1", "s-2", at)
	require.NoError(t, err)
	assert.Equal(t, training.PlanCompleted, p.Status)
	require.Len(t, p.Sessions, 2)
	assert.True(t, p.Sessions[1].Completed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTrainingRepo_CompleteSessionTwiceWritesNothing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTrainingRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM training_plans").
		WillReturnRows(sqlmock.NewRows(planCols).AddRow("plan-1", "athlete-1", "coach-1", "Base", "active", t0, t0))
	mock.ExpectQuery("FROM training_sessions").
		WillReturnRows(sqlmock.NewRows(sessionCols).
			AddRow("s-1", "Run", "", true, t0).
			AddRow("s-2", "Swim", "", false, nil))
	mock.ExpectCommit()

	p, err := repo.CompleteSession(context.Background(), "plan-1", "s-1", t0)
	require.NoError(t, err)
	assert.Equal(t, training.PlanActive, p.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTrainingRepo_CompleteUnknownSession(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTrainingRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM training_plans").
		WillReturnRows(sqlmock.NewRows(planCols).AddRow("plan-1", "athlete-1", "coach-1", "Base", "active", t0, t0))
	mock.ExpectQuery("FROM training_sessions").WillReturnRows(sqlmock.NewRows(sessionCols))
	mock.ExpectRollback()

	_, err := repo.CompleteSession(context.Background(), "plan-1", "s-9", t0)
	assert.ErrorIs(t, err, training.ErrSessionNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
