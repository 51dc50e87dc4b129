package rating

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"sports-portal/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, engine *Engine) {
	r.Get("/athletes/{athleteID}/rating", getRatingHandler(engine))
}

type ratingResponse struct {
	AthleteID            string  `json:"athlete_id"`
	AchievementScore     float64 `json:"achievement_score"`
	PerformanceScore     float64 `json:"performance_score"`
	HybridScore          float64 `json:"hybrid_score"`
	VerifiedAchievements int     `json:"verified_achievements"`
	CompletedSessions    int     `json:"completed_sessions"`
	TotalSessions        int     `json:"total_sessions"`
}

// getRatingHandler godoc
// @Summary Rating de un atleta
// @Description Se recalcula en cada lectura a partir de logros verificados y sesiones completadas. Sin datos, cada componente vale 3.0.
// @Tags rating
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param athleteID path string true "ID del atleta"
// @Success 200 {object} ratingResponse
// @Failure 400 {string} string "invalid input"
// @Failure 401 {string} string "unauthorized"
// @Router /athletes/{athleteID}/rating [get]
func getRatingHandler(engine *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		b, err := engine.Rate(r.Context(), chi.URLParam(r, "athleteID"))
		if err != nil {
			if errors.Is(err, ErrInvalidInput) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(ratingResponse{
			AthleteID:            b.AthleteID,
			AchievementScore:     b.AchievementScore,
			PerformanceScore:     b.PerformanceScore,
			HybridScore:          b.HybridScore,
			VerifiedAchievements: b.VerifiedAchievements,
			CompletedSessions:    b.CompletedSessions,
			TotalSessions:        b.TotalSessions,
		})
	}
}
