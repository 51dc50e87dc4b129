package notify

import (
	"context"

	"sports-portal/internal/platform/logger"
	"sports-portal/internal/ports/notify"
)

// LogEmitter escribe cada notificación en el log. Es el driver por defecto en dev.
type LogEmitter struct {
	log logger.Logger
}

func NewLogEmitter(log logger.Logger) *LogEmitter {
	if log == nil {
		log = logger.NewNop()
	}
	return &LogEmitter{log: log.With(map[string]any{"component": "notify"})}
}

func (e *LogEmitter) Notify(ctx context.Context, n notify.Notification) error {
	e.log.Info("notification", map[string]any{
		"user_id":   n.UserID,
		"kind":      n.Kind,
		"record_id": n.RecordID,
		"message":   n.Message,
	})
	return nil
}
