package review

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
	r.Route("/reviews", func(rr chi.Router) {
		rr.Post("/", submitHandler(svc))
		rr.Get("/", listHandler(svc))

		rr.Get("/{recordID}", getHandler(svc))
		rr.Get("/{recordID}/history", historyHandler(svc))

		// Única vía de mutación: transición de estado validada por el authorizer
		rr.Post("/{recordID}/transitions", transitionHandler(svc))
	})
}

type submitRequest struct {
	Kind      Kind            `json:"kind"`
	SubjectID string          `json:"subject_id"`
	Payload   json.RawMessage `json:"payload" swaggertype:"object"`
}

type transitionRequest struct {
	Status Status `json:"status"`
	TransitionInput
}

type recordResponse struct {
	ID          string     `json:"id"`
	Kind        Kind       `json:"kind"`
	SubjectID   string     `json:"subject_id"`
	SubmittedBy string     `json:"submitted_by"`
	Status      Status     `json:"status"`
	SubmittedAt time.Time  `json:"submitted_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DecidedBy   string     `json:"decided_by,omitempty"`
	DecidedAt   *time.Time `json:"decided_at,omitempty"`
	Payload     Payload    `json:"payload" swaggertype:"object"`
	Next        []Status   `json:"next_statuses"`
}

type historyResponse struct {
	ID         string    `json:"id"`
	FromStatus Status    `json:"from_status,omitempty"`
	ToStatus   Status    `json:"to_status"`
	ActorID    string    `json:"actor_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Note       string    `json:"note,omitempty"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Reason  Reason `json:"reason,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message,omitempty"`
}

// submitHandler godoc
// @Summary Enviar un registro a revisión
// @Description Crea un registro revisable (logro, certificación, inscripción, etc.) en el estado inicial de su tipo. subject_id por defecto es el usuario autenticado; un coach puede enviar pausas, fisioterapia y derivaciones en nombre de un atleta.
// @Tags reviews
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param X-Debug-User-Role header string false "Solo en modo dev: athlete, coach, specialist u official"
// @Param Authorization header string false "Bearer token en producción"
// @Param payload body submitRequest true "Tipo, sujeto y payload específico del tipo"
// @Success 201 {object} recordResponse
// @Failure 400 {object} errorResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {object} errorResponse
// @Router /reviews [post]
func submitHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFrom(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req submitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, invalid("body", "invalid json"))
			return
		}
		kind := Kind(SnakeCase(string(req.Kind)))

		payload, err := DecodePayload(kind, req.Payload)
		if err != nil {
			writeError(w, err)
			return
		}

		rec, err := svc.Submit(r.Context(), actor, SubmitInput{
			Kind:      kind,
			SubjectID: req.SubjectID,
			Payload:   payload,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toRecordResponse(rec))
	}
}

// listHandler godoc
// @Summary Listar registros
// @Description Filtra por tipo, sujeto y estado. Un atleta solo ve los registros sobre sí mismo.
// @Tags reviews
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param kind query string false "Tipo de registro"
// @Param subject_id query string false "Usuario sobre el que trata el registro"
// @Param status query string false "Estado actual"
// @Success 200 {array} recordResponse
// @Failure 400 {object} errorResponse
// @Failure 401 {string} string "unauthorized"
// @Router /reviews [get]
func listHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFrom(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		qs := r.URL.Query()
		q := Query{
			Kind:      Kind(SnakeCase(qs.Get("kind"))),
			SubjectID: strings.TrimSpace(qs.Get("subject_id")),
			Status:    Status(strings.TrimSpace(qs.Get("status"))),
		}
		if actor.Role == RoleAthlete || !actor.Role.Valid() {
			q.SubjectID = actor.ID
		}

		items, err := svc.List(r.Context(), q)
		if err != nil {
			writeError(w, err)
			return
		}

		out := make([]recordResponse, 0, len(items))
		for _, rec := range items {
			out = append(out, toRecordResponse(rec))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// getHandler godoc
// @Summary Obtener un registro
// @Tags reviews
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param recordID path string true "ID del registro"
// @Success 200 {object} recordResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /reviews/{recordID} [get]
func getHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFrom(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		rec, err := svc.Get(r.Context(), chi.URLParam(r, "recordID"))
		if err != nil {
			writeError(w, err)
			return
		}
		if !CanView(rec, actor) {
			writeError(w, &Error{Kind: ErrForbidden, Reason: ReasonWrongRole, Message: "not allowed to view this record"})
			return
		}
		writeJSON(w, http.StatusOK, toRecordResponse(rec))
	}
}

// historyHandler godoc
// @Summary Historial de transiciones de un registro
// @Tags reviews
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param recordID path string true "ID del registro"
// @Success 200 {array} historyResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /reviews/{recordID}/history [get]
func historyHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFrom(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		id := chi.URLParam(r, "recordID")
		rec, err := svc.Get(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		if !CanView(rec, actor) {
			writeError(w, &Error{Kind: ErrForbidden, Reason: ReasonWrongRole, Message: "not allowed to view this record"})
			return
		}

		entries, err := svc.History(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		out := make([]historyResponse, 0, len(entries))
		for _, e := range entries {
			out = append(out, historyResponse{
				ID:         e.ID,
				FromStatus: e.FromStatus,
				ToStatus:   e.ToStatus,
				ActorID:    e.ActorID,
				OccurredAt: e.OccurredAt,
				Note:       e.Note,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// transitionHandler godoc
// @Summary Transicionar un registro
// @Description Aplica un cambio de estado. El authorizer valida estado origen, rol y campos requeridos; las cascadas (derivación médica, cambios de perfil, certificaciones) se aplican en la misma escritura.
// @Tags reviews
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param X-Debug-User-Role header string false "Solo en modo dev: athlete, coach, specialist u official"
// @Param X-Debug-User-Admin header bool false "Solo en modo dev: official administrador"
// @Param Authorization header string false "Bearer token en producción"
// @Param recordID path string true "ID del registro"
// @Param payload body transitionRequest true "Estado destino y campos del revisor"
// @Success 200 {object} recordResponse
// @Failure 400 {object} errorResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {object} errorResponse "wrong_role / invalid_source_state / missing_required_field"
// @Failure 404 {object} errorResponse
// @Failure 409 {object} errorResponse "concurrent modification"
// @Router /reviews/{recordID}/transitions [post]
func transitionHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFrom(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req transitionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, invalid("body", "invalid json"))
			return
		}
		if strings.TrimSpace(string(req.Status)) == "" {
			writeError(w, invalid("status", "status is required"))
			return
		}

		rec, err := svc.Transition(r.Context(), chi.URLParam(r, "recordID"), req.Status, actor, req.TransitionInput)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toRecordResponse(rec))
	}
}

func actorFrom(r *http.Request) (Actor, bool) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || strings.TrimSpace(claims.UserID) == "" {
		return Actor{}, false
	}
	return Actor{
		ID:      strings.TrimSpace(claims.UserID),
		Role:    Role(strings.ToLower(strings.TrimSpace(claims.Role))),
		IsAdmin: claims.IsAdmin,
	}, true
}

func toRecordResponse(rec Record) recordResponse {
	return recordResponse{
		ID:          rec.ID,
		Kind:        rec.Kind,
		SubjectID:   rec.SubjectID,
		SubmittedBy: rec.SubmittedBy,
		Status:      rec.Status,
		SubmittedAt: rec.SubmittedAt,
		UpdatedAt:   rec.UpdatedAt,
		DecidedBy:   rec.DecidedBy,
		DecidedAt:   rec.DecidedAt,
		Payload:     rec.Payload,
		Next:        NextStatuses(rec.Kind, rec.Status),
	}
}

func writeError(w http.ResponseWriter, err error) {
	var e *Error
	if !errors.As(err, &e) {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	status := http.StatusInternalServerError
	switch e.Kind {
	case ErrNotFound:
		status = http.StatusNotFound
	case ErrForbidden:
		status = http.StatusForbidden
	case ErrConcurrentModification:
		status = http.StatusConflict
	case ErrValidation:
		status = http.StatusBadRequest
	}
	writeJSON(w, status, errorResponse{
		Error:   e.Kind.Error(),
		Reason:  e.Reason,
		Field:   e.Field,
		Message: e.Message,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
