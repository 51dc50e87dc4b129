package notify

import (
	"context"
	"errors"

	"sports-portal/internal/ports/notify"
)

// Fanout entrega a todos los emitters; un fallo no impide los demás.
type Fanout []notify.Emitter

func (f Fanout) Notify(ctx context.Context, n notify.Notification) error {
	var errs []error
	for _, e := range f {
		if e == nil {
			continue
		}
		if err := e.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
