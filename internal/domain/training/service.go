package training

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrForbidden       = errors.New("forbidden")
	ErrSessionNotFound = errors.New("session not found")
)

type Service struct {
	repo  Repository
	now   func() time.Time
	newID func() string
}

func NewService(repo Repository) *Service {
	return &Service{
		repo:  repo,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

type SessionInput struct {
	Title       string
	ScheduledOn string
}

type CreatePlanInput struct {
	AthleteID string
	Title     string
	Sessions  []SessionInput
}

// CreatePlan: solo un coach crea planes; queda como coach del plan.
func (s *Service) CreatePlan(ctx context.Context, coachID, role string, in CreatePlanInput) (Plan, error) {
	coachID = strings.TrimSpace(coachID)
	if coachID == "" || role != "coach" {
		return Plan{}, ErrForbidden
	}
	if strings.TrimSpace(in.AthleteID) == "" || strings.TrimSpace(in.Title) == "" {
		return Plan{}, ErrInvalidInput
	}

	now := s.now()
	p := Plan{
		ID:        s.newID(),
		AthleteID: strings.TrimSpace(in.AthleteID),
		CoachID:   coachID,
		Title:     strings.TrimSpace(in.Title),
		Status:    PlanActive,
		Sessions:  make([]Session, 0, len(in.Sessions)),
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, si := range in.Sessions {
		if strings.TrimSpace(si.Title) == "" {
			return Plan{}, ErrInvalidInput
		}
		if d := strings.TrimSpace(si.ScheduledOn); d != "" {
			if _, err := time.Parse("2006-01-02", d); err != nil {
				return Plan{}, ErrInvalidInput
			}
		}
		p.Sessions = append(p.Sessions, Session{
			ID:          s.newID(),
			Title:       strings.TrimSpace(si.Title),
			ScheduledOn: strings.TrimSpace(si.ScheduledOn),
		})
	}

	if err := s.repo.CreatePlan(ctx, p); err != nil {
		return Plan{}, err
	}
	return p, nil
}

func (s *Service) ListByAthlete(ctx context.Context, athleteID string) ([]Plan, error) {
	athleteID = strings.TrimSpace(athleteID)
	if athleteID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListPlansByAthlete(ctx, athleteID)
}

// CompleteSession lo puede marcar el atleta del plan o su coach. Idempotente.
func (s *Service) CompleteSession(ctx context.Context, userID, planID, sessionID string) (Plan, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Plan{}, ErrForbidden
	}

	p, err := s.repo.GetPlan(ctx, strings.TrimSpace(planID))
	if err != nil {
		return Plan{}, err
	}
	if userID != p.AthleteID && userID != p.CoachID {
		return Plan{}, ErrForbidden
	}
	return s.repo.CompleteSession(ctx, p.ID, strings.TrimSpace(sessionID), s.now())
}
