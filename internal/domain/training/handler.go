package training

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"sports-portal/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Post("/plans", createPlanHandler(svc))
	r.Post("/plans/{planID}/sessions/{sessionID}/complete", completeSessionHandler(svc))
	r.Get("/athletes/{athleteID}/plans", listPlansHandler(svc))
}

type createPlanRequest struct {
	AthleteID string `json:"athlete_id"`
	Title     string `json:"title"`
	Sessions  []struct {
		Title       string `json:"title"`
		ScheduledOn string `json:"scheduled_on"` // YYYY-MM-DD opcional
	} `json:"sessions"`
}

type sessionResponse struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	ScheduledOn string     `json:"scheduled_on,omitempty"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

type planResponse struct {
	ID        string            `json:"id"`
	AthleteID string            `json:"athlete_id"`
	CoachID   string            `json:"coach_id"`
	Title     string            `json:"title"`
	Status    PlanStatus        `json:"status"`
	Sessions  []sessionResponse `json:"sessions"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// createPlanHandler godoc
// @Summary Crear plan de entrenamiento
// @Description Un coach crea un plan con sesiones para un atleta.
// @Tags training
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param X-Debug-User-Role header string false "Solo en modo dev: debe ser coach"
// @Param Authorization header string false "Bearer token en producción"
// @Param payload body createPlanRequest true "Plan y sesiones"
// @Success 201 {object} planResponse
// @Failure 400 {string} string "invalid json / invalid input"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Router /plans [post]
func createPlanHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createPlanRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		in := CreatePlanInput{AthleteID: req.AthleteID, Title: req.Title}
		for _, s := range req.Sessions {
			in.Sessions = append(in.Sessions, SessionInput{Title: s.Title, ScheduledOn: s.ScheduledOn})
		}

		p, err := svc.CreatePlan(r.Context(), claims.UserID, strings.ToLower(claims.Role), in)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toPlanResponse(p))
	}
}

// listPlansHandler godoc
// @Summary Listar planes de un atleta
// @Tags training
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param athleteID path string true "ID del atleta"
// @Success 200 {array} planResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Router /athletes/{athleteID}/plans [get]
func listPlansHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		athleteID := chi.URLParam(r, "athleteID")
		// Un atleta solo ve sus propios planes.
		if strings.EqualFold(claims.Role, "athlete") && athleteID != claims.UserID {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		items, err := svc.ListByAthlete(r.Context(), athleteID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		out := make([]planResponse, 0, len(items))
		for _, p := range items {
			out = append(out, toPlanResponse(p))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// completeSessionHandler godoc
// @Summary Marcar sesión como completada
// @Description Idempotente. Lo puede hacer el atleta del plan o su coach.
// @Tags training
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param planID path string true "ID del plan"
// @Param sessionID path string true "ID de la sesión"
// @Success 200 {object} planResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "plan not found / session not found"
// @Router /plans/{planID}/sessions/{sessionID}/complete [post]
func completeSessionHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		p, err := svc.CompleteSession(r.Context(), claims.UserID, chi.URLParam(r, "planID"), chi.URLParam(r, "sessionID"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPlanResponse(p))
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrSessionNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toPlanResponse(p Plan) planResponse {
	out := planResponse{
		ID:        p.ID,
		AthleteID: p.AthleteID,
		CoachID:   p.CoachID,
		Title:     p.Title,
		Status:    p.Status,
		Sessions:  make([]sessionResponse, 0, len(p.Sessions)),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	for _, s := range p.Sessions {
		out.Sessions = append(out.Sessions, sessionResponse{
			ID:          s.ID,
			Title:       s.Title,
			ScheduledOn: s.ScheduledOn,
			Completed:   s.Completed,
			CompletedAt: s.CompletedAt,
		})
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
