package review

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"sports-portal/internal/platform/logger"
	"sports-portal/internal/platform/metrics"
	"sports-portal/internal/ports/notify"

	"github.com/google/uuid"
)

// Service es el único punto de entrada para crear y transicionar registros.
type Service struct {
	store    Store
	notifier notify.Emitter
	log      logger.Logger
	now      func() time.Time
	newID    func() string
}

type Option func(*Service)

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func WithIDs(newID func() string) Option { return func(s *Service) { s.newID = newID } }

func WithLogger(l logger.Logger) Option { return func(s *Service) { s.log = l } }

func NewService(store Store, notifier notify.Emitter, opts ...Option) *Service {
	s := &Service{
		store:    store,
		notifier: notifier,
		log:      logger.NewNop(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

type SubmitInput struct {
	Kind      Kind
	SubjectID string // defaults to the actor
	Payload   Payload
}

// proxyKinds los puede enviar un coach en nombre de un atleta.
var proxyKinds = map[Kind]bool{
	KindTrainingPlanPause:        true,
	KindPhysiotherapyAppointment: true,
	KindMedicalReferral:          true,
}

// Submit crea un registro en el estado inicial de su kind.
func (s *Service) Submit(ctx context.Context, actor Actor, in SubmitInput) (Record, error) {
	actorID := strings.TrimSpace(actor.ID)
	if actorID == "" {
		return Record{}, invalid("actor", "actor is required")
	}
	status, ok := InitialStatus(in.Kind)
	if !ok {
		return Record{}, invalid("kind", fmt.Sprintf("unknown kind %q", in.Kind))
	}
	if in.Payload == nil || in.Payload.Kind() != in.Kind {
		return Record{}, invalid("payload", fmt.Sprintf("payload does not match kind %q", in.Kind))
	}

	subjectID := strings.TrimSpace(in.SubjectID)
	if subjectID == "" {
		subjectID = actorID
	}
	if subjectID != actorID && !(actor.Role == RoleCoach && proxyKinds[in.Kind]) {
		return Record{}, forbidden(&Denial{
			Reason:  ReasonWrongRole,
			Message: fmt.Sprintf("cannot submit %s on behalf of another user", in.Kind),
		})
	}

	payload := in.Payload.sanitize()
	if ref, ok := payload.(MedicalReferral); ok && ref.CoachID == "" && actor.Role == RoleCoach {
		ref.CoachID = actorID
		payload = ref
	}
	if err := ValidatePayload(payload); err != nil {
		return Record{}, err
	}

	now := s.now()
	rec := Record{
		ID:          s.newID(),
		Kind:        in.Kind,
		SubjectID:   subjectID,
		SubmittedBy: actorID,
		Status:      status,
		SubmittedAt: now,
		UpdatedAt:   now,
		Payload:     payload,
	}
	entry := HistoryEntry{
		ID:         s.newID(),
		RecordID:   rec.ID,
		ToStatus:   status,
		ActorID:    actorID,
		OccurredAt: now,
		Note:       "submitted",
	}

	if err := s.store.CreateRecord(ctx, rec, entry); err != nil {
		return Record{}, err
	}
	metrics.RecordSubmission(string(rec.Kind))
	s.log.Info("review submitted", map[string]any{
		"record_id": rec.ID,
		"kind":      rec.Kind,
		"subject":   rec.SubjectID,
		"actor":     actorID,
	})
	return rec, nil
}

// Transition valida y aplica un cambio de estado con sus cascadas en una sola
// escritura protegida, y después emite las notificaciones.
func (s *Service) Transition(ctx context.Context, recordID string, to Status, actor Actor, in TransitionInput) (Record, error) {
	rec, err := s.transition(ctx, strings.TrimSpace(recordID), to, actor, in)

	outcome := "ok"
	kind := ""
	if err != nil {
		outcome = outcomeOf(err)
	} else {
		kind = string(rec.Kind)
	}
	if kind == "" {
		kind = "unknown"
	}
	metrics.RecordTransition(kind, string(to), outcome)
	return rec, err
}

func (s *Service) transition(ctx context.Context, recordID string, to Status, actor Actor, in TransitionInput) (Record, error) {
	log := s.log.With(map[string]any{"record_id": recordID, "to": to, "actor": actor.ID})

	if recordID == "" {
		return Record{}, notFound(recordID)
	}
	prev, err := s.store.GetRecord(ctx, recordID)
	if err != nil {
		if errors.Is(err, ErrRecordMissing) {
			return Record{}, notFound(recordID)
		}
		return Record{}, err
	}
	if prev.Payload == nil {
		return Record{}, fmt.Errorf("record %s has no payload", prev.ID)
	}

	if d := Authorize(prev, to, actor, in); d != nil {
		log.Info("transition denied", map[string]any{"kind": prev.Kind, "from": prev.Status, "reason": d.Reason})
		return prev, forbidden(d)
	}

	now := s.now()
	next := prev
	next.Status = to
	next.DecidedBy = actor.ID
	next.DecidedAt = &now
	next.UpdatedAt = now
	next.Payload = mergeInput(prev.Payload, to, actor, in, now)

	if follow, ok := followOn[edge{prev.Kind, prev.Status, to}]; ok {
		next.Status = follow
	}

	effects := s.cascade(prev, &next, actor, now)

	commit := Commit{
		From:   prev.Status,
		Record: next,
		History: []HistoryEntry{{
			ID:         s.newID(),
			RecordID:   next.ID,
			FromStatus: prev.Status,
			ToStatus:   next.Status,
			ActorID:    actor.ID,
			OccurredAt: now,
			Note:       strings.TrimSpace(firstNonEmpty(in.Notes, in.CoachNotes)),
		}},
		Effects: effects,
	}
	for _, e := range effects {
		if sp, ok := e.(SpawnRecord); ok {
			commit.History = append(commit.History, HistoryEntry{
				ID:         s.newID(),
				RecordID:   next.ID,
				FromStatus: next.Status,
				ToStatus:   next.Status,
				ActorID:    actor.ID,
				OccurredAt: now,
				Note:       fmt.Sprintf("spawned %s %s", sp.Record.Kind, sp.Record.ID),
			})
		}
	}

	if err := s.store.CommitTransition(ctx, commit); err != nil {
		switch {
		case errors.Is(err, ErrStatusChanged):
			log.Warn("transition lost race", map[string]any{"kind": prev.Kind, "from": prev.Status})
			return prev, &Error{Kind: ErrConcurrentModification, Message: "record changed since it was read", Err: err}
		case errors.Is(err, ErrRecordMissing):
			return Record{}, notFound(recordID)
		default:
			log.Error("transition commit failed", map[string]any{"kind": prev.Kind, "error": err})
			return prev, err
		}
	}

	log.Info("transition applied", map[string]any{
		"kind":    next.Kind,
		"from":    prev.Status,
		"status":  next.Status,
		"effects": len(effects),
	})

	for _, n := range notificationsFor(next, effects) {
		s.emit(ctx, n)
	}
	return next, nil
}

func (s *Service) emit(ctx context.Context, n notify.Notification) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, n); err != nil {
		s.log.Warn("notification not delivered", map[string]any{
			"record_id": n.RecordID,
			"user_id":   n.UserID,
			"kind":      n.Kind,
			"error":     err,
		})
	}
}

func (s *Service) Get(ctx context.Context, id string) (Record, error) {
	id = strings.TrimSpace(id)
	rec, err := s.store.GetRecord(ctx, id)
	if err != nil {
		if errors.Is(err, ErrRecordMissing) {
			return Record{}, notFound(id)
		}
		return Record{}, err
	}
	return rec, nil
}

func (s *Service) List(ctx context.Context, q Query) ([]Record, error) {
	if q.Kind != "" && !q.Kind.Valid() {
		return nil, invalid("kind", fmt.Sprintf("unknown kind %q", q.Kind))
	}
	return s.store.QueryRecords(ctx, q)
}

func (s *Service) History(ctx context.Context, id string) ([]HistoryEntry, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.store.ListHistory(ctx, strings.TrimSpace(id))
}

// CanView: las personas nombradas en el registro y todo rol que no sea atleta.
func CanView(rec Record, actor Actor) bool {
	if actor.ID == "" {
		return false
	}
	if actor.ID == rec.SubjectID || actor.ID == rec.SubmittedBy {
		return true
	}
	return actor.Role.Valid() && actor.Role != RoleAthlete
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrConcurrentModification):
		return "conflict"
	case errors.Is(err, ErrValidation):
		return "invalid"
	default:
		return "error"
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
