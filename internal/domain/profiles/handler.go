package profiles

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
	r.Get("/profiles/{userID}", getProfileHandler(svc))
}

type profileResponse struct {
	UserID         string    `json:"user_id"`
	Role           string    `json:"role"`
	FullName       string    `json:"full_name"`
	Email          string    `json:"email,omitempty"`
	Phone          string    `json:"phone,omitempty"`
	Sport          string    `json:"sport,omitempty"`
	Position       string    `json:"position,omitempty"`
	Club           string    `json:"club,omitempty"`
	Bio            string    `json:"bio,omitempty"`
	DateOfBirth    string    `json:"date_of_birth,omitempty"`
	HeightCM       float64   `json:"height_cm,omitempty"`
	WeightKG       float64   `json:"weight_kg,omitempty"`
	Certifications []string  `json:"certifications"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// getProfileHandler godoc
// @Summary Obtener perfil de usuario
// @Description Perfil público; las certificaciones verificadas aparecen en certifications.
// @Tags profiles
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param userID path string true "ID del usuario"
// @Success 200 {object} profileResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "profile not found"
// @Router /profiles/{userID} [get]
func getProfileHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		p, err := svc.Get(r.Context(), chi.URLParam(r, "userID"))
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidInput):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, ErrNotFound):
				http.Error(w, "profile not found", http.StatusNotFound)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		certs := p.Certifications
		if certs == nil {
			certs = []string{}
		}
		writeJSON(w, http.StatusOK, profileResponse{
			UserID:         p.UserID,
			Role:           p.Role,
			FullName:       p.FullName,
			Email:          p.Email,
			Phone:          p.Phone,
			Sport:          p.Sport,
			Position:       p.Position,
			Club:           p.Club,
			Bio:            p.Bio,
			DateOfBirth:    p.DateOfBirth,
			HeightCM:       p.HeightCM,
			WeightKG:       p.WeightKG,
			Certifications: certs,
			UpdatedAt:      p.UpdatedAt,
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
