package rating

import (
	"context"
	"errors"
	"math"
	"strings"

	"sports-portal/internal/domain/review"
	"sports-portal/internal/domain/training"
	"sports-portal/internal/platform/metrics"
)

var ErrInvalidInput = errors.New("invalid input")

// NeutralScore es lo que recibe un atleta sin datos, en cualquiera de los dos componentes.
const NeutralScore = 3.0

// Pesos por categoría de los logros verificados.
const (
	weightCompetition = 5.0
	weightSeasonAward = 5.0
	weightPerformance = 4.0
	weightDefault     = 3.0
)

type AchievementSource interface {
	QueryRecords(ctx context.Context, q review.Query) ([]review.Record, error)
}

type PlanSource interface {
	ListPlansByAthlete(ctx context.Context, athleteID string) ([]training.Plan, error)
}

type Breakdown struct {
	AthleteID        string
	AchievementScore float64
	PerformanceScore float64
	HybridScore      float64

	VerifiedAchievements int
	CompletedSessions    int
	TotalSessions        int
}

// Engine calcula el rating en cada llamada; no cachea nada.
type Engine struct {
	achievements AchievementSource
	plans        PlanSource
}

func NewEngine(achievements AchievementSource, plans PlanSource) *Engine {
	return &Engine{achievements: achievements, plans: plans}
}

func (e *Engine) Rate(ctx context.Context, athleteID string) (Breakdown, error) {
	athleteID = strings.TrimSpace(athleteID)
	if athleteID == "" {
		return Breakdown{}, ErrInvalidInput
	}

	records, err := e.achievements.QueryRecords(ctx, review.Query{
		Kind:      review.KindAchievement,
		SubjectID: athleteID,
		Status:    review.StatusVerified,
	})
	if err != nil {
		return Breakdown{}, err
	}
	plans, err := e.plans.ListPlansByAthlete(ctx, athleteID)
	if err != nil {
		return Breakdown{}, err
	}

	weights := make([]float64, 0, len(records))
	for _, rec := range records {
		// La query ya filtra, pero un registro leído a mitad de una transición
		// solo cuenta si está verificado.
		if rec.Kind != review.KindAchievement || rec.Status != review.StatusVerified {
			continue
		}
		a, ok := rec.Payload.(review.Achievement)
		if !ok {
			continue
		}
		weights = append(weights, CategoryWeight(a.Category))
	}

	var completed, total int
	for _, p := range plans {
		for _, s := range p.Sessions {
			total++
			if s.Completed {
				completed++
			}
		}
	}

	b := Breakdown{
		AthleteID:            athleteID,
		AchievementScore:     AchievementScore(weights),
		PerformanceScore:     PerformanceScore(completed, total),
		VerifiedAchievements: len(weights),
		CompletedSessions:    completed,
		TotalSessions:        total,
	}
	b.HybridScore = round1((b.AchievementScore + b.PerformanceScore) / 2)
	metrics.RecordRating()
	return b, nil
}

// CategoryWeight devuelve el peso de una categoría de logro. No distingue
// mayúsculas y trata "_" y "-" como espacios.
func CategoryWeight(category string) float64 {
	c := strings.ToLower(strings.TrimSpace(category))
	c = strings.NewReplacer("_", " ", "-", " ").Replace(c)
	c = strings.Join(strings.Fields(c), " ")

	switch c {
	case "competition":
		return weightCompetition
	case "season award":
		return weightSeasonAward
	case "performance":
		return weightPerformance
	default:
		return weightDefault
	}
}

// AchievementScore = min(5, mean(weights)*0.9 + 0.5), one decimal.
func AchievementScore(weights []float64) float64 {
	if len(weights) == 0 {
		return NeutralScore
	}
	var sum float64
	for _, w := range weights {
		sum += w
	}
	return round1(math.Min(5, sum/float64(len(weights))*0.9+0.5))
}

// PerformanceScore = 5 * completed/total, one decimal.
func PerformanceScore(completed, total int) float64 {
	if total == 0 {
		return NeutralScore
	}
	return round1(5 * float64(completed) / float64(total))
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
