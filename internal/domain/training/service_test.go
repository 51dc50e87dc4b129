package training

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

type testRepo struct {
	byID map[string]Plan
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Plan{}}
}

func (r *testRepo) CreatePlan(ctx context.Context, p Plan) error {
	r.byID[p.ID] = p
	return nil
}

func (r *testRepo) GetPlan(ctx context.Context, id string) (Plan, error) {
	p, ok := r.byID[id]
	if !ok {
		return Plan{}, ErrNotFound
	}
	return p, nil
}

func (r *testRepo) ListPlansByAthlete(ctx context.Context, athleteID string) ([]Plan, error) {
	out := make([]Plan, 0)
	for _, p := range r.byID {
		if p.AthleteID == athleteID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *testRepo) CompleteSession(ctx context.Context, planID, sessionID string, at time.Time) (Plan, error) {
	p, ok := r.byID[planID]
	if !ok {
		return Plan{}, ErrNotFound
	}
	p.Sessions = append([]Session(nil), p.Sessions...)
	if _, found := p.CompleteSession(sessionID, at); !found {
		return Plan{}, ErrSessionNotFound
	}
	r.byID[planID] = p
	return p, nil
}

func newTestService(t *testing.T) (*Service, *testRepo) {
	t.Helper()
	repo := newTestRepo()
	svc := NewService(repo)
	svc.now = func() time.Time { return time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC) }
	n := 0
	svc.newID = func() string { n++; return fmt.Sprintf("id-%d", n) }
	return svc, repo
}

func TestCreatePlan_OnlyCoach(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreatePlan(ctx, "a1", "athlete", CreatePlanInput{AthleteID: "a1", Title: "Base"})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.CreatePlan(ctx, "c1", "coach", CreatePlanInput{AthleteID: "a1"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.CreatePlan(ctx, "c1", "coach", CreatePlanInput{
		AthleteID: "a1", Title: "Base",
		Sessions: []SessionInput{{Title: "Run", ScheduledOn: "03/01/2024"}},
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	p, err := svc.CreatePlan(ctx, "c1", "coach", CreatePlanInput{
		AthleteID: "a1", Title: "Base",
		Sessions: []SessionInput{{Title: "Run", ScheduledOn: "2024-03-02"}, {Title: "Gym"}},
	})
	require.NoError(t, err)
	assert.Equal(t, PlanActive, p.Status)
	assert.Equal(t, "c1", p.CoachID)
	assert.Len(t, p.Sessions, 2)
}

func TestCompleteSession_IdempotentAndCompletesPlan(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.CreatePlan(ctx, "c1", "coach", CreatePlanInput{
		AthleteID: "a1", Title: "Base",
		Sessions: []SessionInput{{Title: "Run"}, {Title: "Gym"}},
	})
	require.NoError(t, err)
	s1, s2 := p.Sessions[0].ID, p.Sessions[1].ID

	_, err = svc.CompleteSession(ctx, "stranger", p.ID, s1)
	assert.ErrorIs(t, err, ErrForbidden)

	got, err := svc.CompleteSession(ctx, "a1", p.ID, s1)
	require.NoError(t, err)
	assert.True(t, got.Sessions[0].Completed)
	assert.Equal(t, PlanActive, got.Status)

	again, err := svc.CompleteSession(ctx, "a1", p.ID, s1)
	require.NoError(t, err)
	assert.Equal(t, got.Sessions, again.Sessions)

	got, err = svc.CompleteSession(ctx, "c1", p.ID, s2)
	require.NoError(t, err)
	assert.Equal(t, PlanCompleted, got.Status)

	_, err = svc.CompleteSession(ctx, "a1", p.ID, "nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = svc.CompleteSession(ctx, "a1", "missing", s1)
	assert.ErrorIs(t, err, ErrNotFound)
}
