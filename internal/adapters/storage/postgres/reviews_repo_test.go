package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"sports-portal/internal/domain/review"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

var t0 = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func pauseCommit() review.Commit {
	decided := t0
	rec := review.Record{
		ID:          "pause-1",
		Kind:        review.KindTrainingPlanPause,
		SubjectID:   "athlete-1",
		SubmittedBy: "athlete-1",
		Status:      review.StatusApproved,
		SubmittedAt: t0.Add(-time.Hour),
		UpdatedAt:   t0,
		DecidedBy:   "coach-1",
		DecidedAt:   &decided,
		Payload: review.TrainingPlanPause{
			PlanID:               "plan-1",
			CoachID:              "coach-1",
			Reason:               "knee",
			StartDate:            "2025-03-02",
			EndDate:              "2025-03-20",
			NeedsMedicalReferral: true,
			SpecialistID:         "spec-1",
			ReferralID:           "ref-1",
		},
	}
	return review.Commit{
		From:   review.StatusPending,
		Record: rec,
		History: []review.HistoryEntry{{
			ID: "h-2", RecordID: rec.ID, FromStatus: review.StatusPending, ToStatus: review.StatusApproved,
			ActorID: "coach-1", OccurredAt: t0,
		}},
		Effects: []review.Effect{
			review.PausePlan{PlanID: "plan-1"},
			review.SpawnRecord{
				Record: review.Record{
					ID: "ref-1", Kind: review.KindMedicalReferral, SubjectID: "athlete-1", SubmittedBy: "coach-1",
					Status: review.StatusPending, SubmittedAt: t0, UpdatedAt: t0,
					Payload: review.MedicalReferral{SpecialistID: "spec-1", CoachID: "coach-1", PauseRequestID: "pause-1", Reason: "knee"},
				},
				History: review.HistoryEntry{ID: "h-3", RecordID: "ref-1", ToStatus: review.StatusPending, ActorID: "coach-1", OccurredAt: t0},
			},
		},
	}
}

func TestCommitTransition_AppliesEffectsInOneTx(t *testing.T) {
	db, mock := newMock(t)
	store := NewReviewStore(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE review_records").
		WithArgs("pause-1", "approved", "coach-1", sqlmock.AnyArg(), t0, sqlmock.AnyArg(), "pending").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO review_history").
		WithArgs("h-2", "pause-1", "pending", "approved", "coach-1", t0, "").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE training_plans").
		WithArgs("plan-1", "paused", t0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO review_records").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO review_history").
		WithArgs("h-3", "ref-1", "", "pending", "coach-1", t0, "").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, store.CommitTransition(context.Background(), pauseCommit()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommitTransition_StatusChanged(t *testing.T) {
	db, mock := newMock(t)
	store := NewReviewStore(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE review_records").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT 1 FROM review_records").
		WithArgs("pause-1").
		WillReturnRows(sqlmock.NewRows([]string{"one"}).AddRow(1))
	mock.ExpectRollback()

	err := store.CommitTransition(context.Background(), pauseCommit())
	assert.ErrorIs(t, err, review.ErrStatusChanged)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommitTransition_RecordMissing(t *testing.T) {
	db, mock := newMock(t)
	store := NewReviewStore(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE review_records").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT 1 FROM review_records").
		WithArgs("pause-1").
		WillReturnRows(sqlmock.NewRows([]string{"one"}))
	mock.ExpectRollback()

	err := store.CommitTransition(context.Background(), pauseCommit())
	assert.ErrorIs(t, err, review.ErrRecordMissing)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommitTransition_RollsBackWhenEffectFails(t *testing.T) {
	db, mock := newMock(t)
	store := NewReviewStore(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE review_records").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO review_history").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE training_plans").WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	err := store.CommitTransition(context.Background(), pauseCommit())
	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetRecord_DecodesPayload(t *testing.T) {
	db, mock := newMock(t)
	store := NewReviewStore(db)

	rows := sqlmock.NewRows([]string{
		"id", "kind", "subject_id", "submitted_by", "status",
		"submitted_at", "updated_at", "decided_by", "decided_at", "payload",
	}).AddRow(
		"ach-1", "achievement", "athlete-1", "athlete-1", "pending",
		t0, t0, "", nil, []byte(`{"title":"Gold","category":"competition","achievedOn":"2025-02-01"}`),
	)
	mock.ExpectQuery("FROM review_records WHERE id = \\$1").WithArgs("ach-1").WillReturnRows(rows)

	rec, err := store.GetRecord(context.Background(), "ach-1")
	require.NoError(t, err)
	assert.Equal(t, review.KindAchievement, rec.Kind)
	assert.Nil(t, rec.DecidedAt)
	assert.Equal(t, review.Achievement{Title: "Gold", Category: "competition", AchievedOn: "2025-02-01"}, rec.Payload)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetRecord_Missing(t *testing.T) {
	db, mock := newMock(t)
	store := NewReviewStore(db)

	mock.ExpectQuery("FROM review_records").WithArgs("nope").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := store.GetRecord(context.Background(), "nope")
	assert.ErrorIs(t, err, review.ErrRecordMissing)
}

func TestQueryRecords_BuildsFilters(t *testing.T) {
	db, mock := newMock(t)
	store := NewReviewStore(db)

	mock.ExpectQuery(`WHERE kind = \$1 AND status = \$2 ORDER BY submitted_at`).
		WithArgs("certification", "pending").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	out, err := store.QueryRecords(context.Background(), review.Query{
		Kind:   review.KindCertification,
		Status: review.StatusPending,
	})
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.NoError(t, mock.ExpectationsWereMet())
}
