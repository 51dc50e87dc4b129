package review_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"sports-portal/internal/adapters/storage/memory"
	"sports-portal/internal/domain/profiles"
	"sports-portal/internal/domain/review"
	"sports-portal/internal/domain/training"
	"sports-portal/internal/ports/notify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -------------------------
// Test doubles
// -------------------------

type recordingEmitter struct {
	mu   sync.Mutex
	sent []notify.Notification
	err  error
}

func (e *recordingEmitter) Notify(ctx context.Context, n notify.Notification) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sent = append(e.sent, n)
	return e.err
}

func (e *recordingEmitter) to(userID string) []notify.Notification {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []notify.Notification
	for _, n := range e.sent {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

// staleStore serves a snapshot taken before another writer moved the record.
type staleStore struct {
	review.Store
	snapshot review.Record
}

func (s *staleStore) GetRecord(ctx context.Context, id string) (review.Record, error) {
	return s.snapshot, nil
}

var (
	athlete    = review.Actor{ID: "A", Role: review.RoleAthlete}
	coach      = review.Actor{ID: "C", Role: review.RoleCoach}
	specialist = review.Actor{ID: "S", Role: review.RoleSpecialist}
	official   = review.Actor{ID: "O", Role: review.RoleOfficial}
	admin      = review.Actor{ID: "ADM", Role: review.RoleOfficial, IsAdmin: true}
)

type fixture struct {
	svc   *review.Service
	store *memory.Store
	notes *recordingEmitter
	now   time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store: memory.NewStore(),
		notes: &recordingEmitter{},
		now:   time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC),
	}
	var n atomic.Int64
	f.svc = review.NewService(f.store, f.notes,
		review.WithClock(func() time.Time { return f.now }),
		review.WithIDs(func() string { return fmt.Sprintf("id-%d", n.Add(1)) }),
	)
	return f
}

func requireKind(t *testing.T, err, kind error, reason review.Reason) {
	t.Helper()
	require.Error(t, err)
	assert.ErrorIs(t, err, kind)
	assert.Equal(t, reason, review.ReasonOf(err))
}

func leavePayload() review.MedicalLeave {
	return review.MedicalLeave{
		CoachID:   "C",
		LeaveType: "injury",
		Reason:    "knee pain",
		StartDate: "2024-01-01",
		EndDate:   "2024-01-10",
	}
}

func TestMedicalLeave_TwoStageFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec, err := f.svc.Submit(ctx, athlete, review.SubmitInput{Kind: review.KindMedicalLeave, Payload: leavePayload()})
	require.NoError(t, err)
	assert.Equal(t, review.StatusPendingSpecialistReview, rec.Status)
	assert.Equal(t, "A", rec.SubjectID)

	f.now = f.now.Add(time.Hour)
	rec, err = f.svc.Transition(ctx, rec.ID, review.StatusSpecialistReviewed, specialist, review.TransitionInput{
		SpecialistReview:         "ACL strain, avoid impact",
		SpecialistRecommendation: review.DecisionContinueModified,
	})
	require.NoError(t, err)
	assert.Equal(t, review.StatusPendingCoachDecision, rec.Status)

	stored, err := f.svc.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, review.StatusPendingCoachDecision, stored.Status)
	leave := stored.Payload.(review.MedicalLeave)
	assert.Equal(t, "ACL strain, avoid impact", leave.SpecialistReview)
	assert.Equal(t, "S", leave.SpecialistReviewedBy)
	require.NotNil(t, leave.SpecialistReviewedAt)
	assert.Equal(t, f.now, *leave.SpecialistReviewedAt)

	f.now = f.now.Add(time.Hour)
	rec, err = f.svc.Transition(ctx, rec.ID, review.StatusApproved, coach, review.TransitionInput{
		CoachDecision: review.DecisionContinueModified,
		CoachNotes:    "reduced load this week",
	})
	require.NoError(t, err)
	assert.Equal(t, review.StatusApproved, rec.Status)
	assert.Equal(t, "C", rec.DecidedBy)
	require.NotNil(t, rec.DecidedAt)
	assert.Equal(t, f.now, *rec.DecidedAt)
	leave = rec.Payload.(review.MedicalLeave)
	assert.Equal(t, review.DecisionContinueModified, leave.CoachDecision)
	assert.Equal(t, "reduced load this week", leave.CoachNotes)

	assert.Len(t, f.notes.to("A"), 2)
	assert.Len(t, f.notes.to("C"), 1)

	hist, err := f.svc.History(ctx, rec.ID)
	require.NoError(t, err)
	require.Len(t, hist, 3)
	assert.Equal(t, review.Status(""), hist[0].FromStatus)
	assert.Equal(t, review.StatusPendingSpecialistReview, hist[1].FromStatus)
	assert.Equal(t, review.StatusPendingCoachDecision, hist[1].ToStatus)
	assert.Equal(t, review.StatusApproved, hist[2].ToStatus)
}

func TestMedicalLeave_EmptyReviewFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec, err := f.svc.Submit(ctx, athlete, review.SubmitInput{Kind: review.KindMedicalLeave, Payload: leavePayload()})
	require.NoError(t, err)

	_, err = f.svc.Transition(ctx, rec.ID, review.StatusSpecialistReviewed, specialist, review.TransitionInput{
		SpecialistRecommendation: review.DecisionStopTraining,
	})
	requireKind(t, err, review.ErrForbidden, review.ReasonMissingRequiredField)

	stored, err := f.svc.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, review.StatusPendingSpecialistReview, stored.Status)
	assert.Empty(t, f.notes.to("A"))
}

func submitPause(t *testing.T, f *fixture, p review.TrainingPlanPause) review.Record {
	t.Helper()
	rec, err := f.svc.Submit(context.Background(), athlete, review.SubmitInput{
		Kind: review.KindTrainingPlanPause, Payload: p,
	})
	require.NoError(t, err)
	assert.Equal(t, "A", rec.SubmittedBy)
	return rec
}

func pause() review.TrainingPlanPause {
	return review.TrainingPlanPause{
		PlanID: "P1", CoachID: "C", Reason: "knee",
		StartDate: "2024-02-01", EndDate: "2024-02-14",
	}
}

func referrals(t *testing.T, f *fixture) []review.Record {
	t.Helper()
	out, err := f.svc.List(context.Background(), review.Query{Kind: review.KindMedicalReferral})
	require.NoError(t, err)
	return out
}

func TestTrainingPlanPause_ReferralSpawnedExactlyOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.CreatePlan(ctx, training.Plan{ID: "P1", AthleteID: "A", CoachID: "C", Status: training.PlanActive}))

	rec := submitPause(t, f, pause())
	yes := true
	in := review.TransitionInput{NeedsMedicalReferral: &yes, SpecialistID: "S"}

	got, err := f.svc.Transition(ctx, rec.ID, review.StatusApproved, coach, in)
	require.NoError(t, err)
	assert.Equal(t, review.StatusApproved, got.Status)

	refs := referrals(t, f)
	require.Len(t, refs, 1)
	ref := refs[0].Payload.(review.MedicalReferral)
	assert.Equal(t, "S", ref.SpecialistID)
	assert.Equal(t, rec.ID, ref.PauseRequestID)
	assert.Equal(t, "A", refs[0].SubjectID)
	assert.Equal(t, refs[0].ID, got.Payload.(review.TrainingPlanPause).ReferralID)
	assert.Len(t, f.notes.to("S"), 1)

	plan, err := f.store.GetPlan(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, training.PlanPaused, plan.Status)

	for i := 0; i < 2; i++ {
		_, err = f.svc.Transition(ctx, rec.ID, review.StatusApproved, coach, in)
		requireKind(t, err, review.ErrForbidden, review.ReasonInvalidSourceState)
	}
	assert.Len(t, referrals(t, f), 1)

	// The bound specialist closes the referral.
	done, err := f.svc.Transition(ctx, refs[0].ID, review.StatusCompleted, specialist, review.TransitionInput{Notes: "cleared"})
	require.NoError(t, err)
	assert.Equal(t, review.StatusCompleted, done.Status)
	assert.Equal(t, "cleared", done.Payload.(review.MedicalReferral).SpecialistNotes)
}

func TestTrainingPlanPause_NoReferralWhenNotNeeded(t *testing.T) {
	f := newFixture(t)
	rec := submitPause(t, f, pause())

	_, err := f.svc.Transition(context.Background(), rec.ID, review.StatusApproved, coach, review.TransitionInput{})
	require.NoError(t, err)
	assert.Empty(t, referrals(t, f))
}

func TestTrainingPlanPause_CoachFiledIsDecidedByOfficial(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.CreatePlan(ctx, training.Plan{ID: "P1", AthleteID: "A", CoachID: "C", Status: training.PlanActive}))

	rec, err := f.svc.Submit(ctx, coach, review.SubmitInput{
		Kind: review.KindTrainingPlanPause, SubjectID: "A", Payload: pause(),
	})
	require.NoError(t, err)
	assert.Equal(t, "C", rec.SubmittedBy)

	yes := true
	in := review.TransitionInput{NeedsMedicalReferral: &yes, SpecialistID: "S"}
	_, err = f.svc.Transition(ctx, rec.ID, review.StatusApproved, coach, in)
	requireKind(t, err, review.ErrForbidden, review.ReasonWrongRole)

	assert.Empty(t, referrals(t, f))
	plan, err := f.store.GetPlan(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, training.PlanActive, plan.Status)

	got, err := f.svc.Transition(ctx, rec.ID, review.StatusApproved, official, in)
	require.NoError(t, err)
	assert.Equal(t, "O", got.DecidedBy)
	assert.Len(t, referrals(t, f), 1)
}

func TestTransition_StaleReadIsConcurrentModification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec, err := f.svc.Submit(ctx, athlete, review.SubmitInput{Kind: review.KindAchievement, Payload: review.Achievement{
		Title: "Gold", Category: "competition", AchievedOn: "2023-12-01",
	}})
	require.NoError(t, err)
	_, err = f.svc.Transition(ctx, rec.ID, review.StatusVerified, official, review.TransitionInput{})
	require.NoError(t, err)

	stale := review.NewService(&staleStore{Store: f.store, snapshot: rec}, f.notes)
	_, err = stale.Transition(ctx, rec.ID, review.StatusRejected, review.Actor{ID: "O2", Role: review.RoleOfficial}, review.TransitionInput{})
	assert.ErrorIs(t, err, review.ErrConcurrentModification)

	stored, err := f.svc.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, review.StatusVerified, stored.Status)
	assert.Len(t, f.notes.to("A"), 1)
}

func TestTransition_ConcurrentVerifiersOnlyOneWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec, err := f.svc.Submit(ctx, athlete, review.SubmitInput{Kind: review.KindAchievement, Payload: review.Achievement{
		Title: "Gold", Category: "competition", AchievedOn: "2023-12-01",
	}})
	require.NoError(t, err)

	const n = 16
	var wg sync.WaitGroup
	var wins atomic.Int32
	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			actor := review.Actor{ID: fmt.Sprintf("O%d", i), Role: review.RoleOfficial}
			_, err := f.svc.Transition(ctx, rec.ID, review.StatusVerified, actor, review.TransitionInput{})
			if err == nil {
				wins.Add(1)
				return
			}
			assert.True(t, errors.Is(err, review.ErrConcurrentModification) || review.ReasonOf(err) == review.ReasonInvalidSourceState, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	assert.Len(t, f.notes.to("A"), 1)
	hist, err := f.svc.History(ctx, rec.ID)
	require.NoError(t, err)
	assert.Len(t, hist, 2)
}

func TestTransition_NotificationFailureDoesNotRollBack(t *testing.T) {
	f := newFixture(t)
	f.notes.err = errors.New("smtp down")
	ctx := context.Background()

	rec, err := f.svc.Submit(ctx, athlete, review.SubmitInput{Kind: review.KindAchievement, Payload: review.Achievement{
		Title: "Gold", Category: "competition", AchievedOn: "2023-12-01",
	}})
	require.NoError(t, err)

	got, err := f.svc.Transition(ctx, rec.ID, review.StatusVerified, official, review.TransitionInput{})
	require.NoError(t, err)
	assert.Equal(t, review.StatusVerified, got.Status)
}

func TestTransition_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Transition(context.Background(), "missing", review.StatusVerified, official, review.TransitionInput{})
	assert.ErrorIs(t, err, review.ErrNotFound)
}

func TestProfileChangeRequest_AppliesTolerantDiff(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.SaveProfile(ctx, profiles.Profile{UserID: "A", Role: "athlete", FullName: "Ana"}))

	payload, err := review.DecodePayload(review.KindProfileChangeRequest, []byte(
		`{"requestedChanges":{"club":"River","heightCm":172,"role":"official","shoeSize":42}}`))
	require.NoError(t, err)
	rec, err := f.svc.Submit(ctx, athlete, review.SubmitInput{Kind: review.KindProfileChangeRequest, Payload: payload})
	require.NoError(t, err)

	_, err = f.svc.Transition(ctx, rec.ID, review.StatusApproved, official, review.TransitionInput{})
	require.NoError(t, err)

	p, err := f.store.GetProfile(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, "River", p.Club)
	assert.Equal(t, 172.0, p.HeightCM)
	assert.Equal(t, "athlete", p.Role)
	assert.Equal(t, "Ana", p.FullName)
}

func TestProfileChangeRequest_RejectedLeavesProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.SaveProfile(ctx, profiles.Profile{UserID: "A", Club: "Boca"}))

	rec, err := f.svc.Submit(ctx, athlete, review.SubmitInput{Kind: review.KindProfileChangeRequest, Payload: review.ProfileChangeRequest{
		RequestedChanges: map[string]any{"club": "River"},
	}})
	require.NoError(t, err)
	_, err = f.svc.Transition(ctx, rec.ID, review.StatusRejected, official, review.TransitionInput{})
	require.NoError(t, err)

	p, err := f.store.GetProfile(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, "Boca", p.Club)
}

func TestCertification_VerifiedAppendsToCoachProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec, err := f.svc.Submit(ctx, coach, review.SubmitInput{Kind: review.KindCertification, Payload: review.Certification{
		Title: "UEFA B", Issuer: "UEFA", IssuedOn: "2023-05-01",
	}})
	require.NoError(t, err)
	_, err = f.svc.Transition(ctx, rec.ID, review.StatusVerified, official, review.TransitionInput{})
	require.NoError(t, err)

	p, err := f.store.GetProfile(ctx, "C")
	require.NoError(t, err)
	assert.Equal(t, []string{"UEFA B"}, p.Certifications)
}

func TestUserRegistration_AdminProvisionsProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	newcomer := review.Actor{ID: "N", Role: review.RoleAthlete}

	rec, err := f.svc.Submit(ctx, newcomer, review.SubmitInput{Kind: review.KindUserRegistration, Payload: review.UserRegistration{
		FullName: "Nico", Email: "nico@example.com", RequestedRole: review.RoleCoach,
	}})
	require.NoError(t, err)

	_, err = f.svc.Transition(ctx, rec.ID, review.StatusApproved, official, review.TransitionInput{})
	requireKind(t, err, review.ErrForbidden, review.ReasonWrongRole)

	_, err = f.svc.Transition(ctx, rec.ID, review.StatusApproved, admin, review.TransitionInput{})
	require.NoError(t, err)

	p, err := f.store.GetProfile(ctx, "N")
	require.NoError(t, err)
	assert.Equal(t, "coach", p.Role)
	assert.Equal(t, "nico@example.com", p.Email)
}

func TestSubmit_Rules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, athlete, review.SubmitInput{Kind: review.KindAchievement, Payload: review.Certification{}})
	assert.ErrorIs(t, err, review.ErrValidation)

	_, err = f.svc.Submit(ctx, athlete, review.SubmitInput{Kind: "trophy", Payload: review.Achievement{}})
	assert.ErrorIs(t, err, review.ErrValidation)

	_, err = f.svc.Submit(ctx, athlete, review.SubmitInput{Kind: review.KindAchievement, Payload: review.Achievement{Title: "Gold"}})
	assert.ErrorIs(t, err, review.ErrValidation)

	// Only coaches may file on someone else's behalf, and only for some kinds.
	_, err = f.svc.Submit(ctx, athlete, review.SubmitInput{Kind: review.KindTrainingPlanPause, SubjectID: "B", Payload: pause()})
	requireKind(t, err, review.ErrForbidden, review.ReasonWrongRole)
	_, err = f.svc.Submit(ctx, coach, review.SubmitInput{Kind: review.KindAchievement, SubjectID: "A", Payload: review.Achievement{
		Title: "Gold", Category: "competition", AchievedOn: "2023-12-01",
	}})
	requireKind(t, err, review.ErrForbidden, review.ReasonWrongRole)

	ref, err := f.svc.Submit(ctx, coach, review.SubmitInput{Kind: review.KindMedicalReferral, SubjectID: "A", Payload: review.MedicalReferral{
		SpecialistID: "S", Reason: "shoulder",
	}})
	require.NoError(t, err)
	assert.Equal(t, "C", ref.Payload.(review.MedicalReferral).CoachID)

	_, err = f.svc.Submit(ctx, review.Actor{}, review.SubmitInput{Kind: review.KindAchievement})
	assert.ErrorIs(t, err, review.ErrValidation)
}

func TestSubmit_DropsReviewerFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := review.DecodePayload(review.KindMedicalLeave, []byte(`{
		"coach_id":"C","leave_type":"injury","reason":"knee","start_date":"2024-01-01","end_date":"2024-01-10",
		"specialist_review":"all fine","specialist_recommendation":"continue_normal",
		"specialist_reviewed_by":"S","specialist_reviewed_at":"2024-01-01T00:00:00Z",
		"coach_decision":"continue_normal","coach_notes":"ok","coach_decided_at":"2024-01-01T00:00:00Z"
	}`))
	require.NoError(t, err)

	rec, err := f.svc.Submit(ctx, athlete, review.SubmitInput{Kind: review.KindMedicalLeave, Payload: p})
	require.NoError(t, err)
	assert.Equal(t, review.StatusPendingSpecialistReview, rec.Status)

	stored, err := f.svc.Get(ctx, rec.ID)
	require.NoError(t, err)
	leave := stored.Payload.(review.MedicalLeave)
	assert.Equal(t, "knee", leave.Reason)
	assert.Empty(t, leave.SpecialistReview)
	assert.Empty(t, leave.SpecialistRecommendation)
	assert.Empty(t, leave.SpecialistReviewedBy)
	assert.Nil(t, leave.SpecialistReviewedAt)
	assert.Empty(t, leave.CoachDecision)
	assert.Empty(t, leave.CoachNotes)
	assert.Nil(t, leave.CoachDecidedAt)

	withRef := pause()
	withRef.ReferralID = "forged"
	pr := submitPause(t, f, withRef)
	assert.Empty(t, pr.Payload.(review.TrainingPlanPause).ReferralID)

	ref, err := f.svc.Submit(ctx, coach, review.SubmitInput{Kind: review.KindMedicalReferral, SubjectID: "A", Payload: review.MedicalReferral{
		SpecialistID: "S", Reason: "shoulder", PauseRequestID: pr.ID, SpecialistNotes: "cleared",
	}})
	require.NoError(t, err)
	assert.Empty(t, ref.Payload.(review.MedicalReferral).PauseRequestID)
	assert.Empty(t, ref.Payload.(review.MedicalReferral).SpecialistNotes)
}

func TestCanView(t *testing.T) {
	rec := review.Record{SubjectID: "A", SubmittedBy: "C"}
	assert.True(t, review.CanView(rec, athlete))
	assert.True(t, review.CanView(rec, coach))
	assert.True(t, review.CanView(rec, official))
	assert.False(t, review.CanView(rec, review.Actor{ID: "B", Role: review.RoleAthlete}))
	assert.False(t, review.CanView(rec, review.Actor{}))
}
