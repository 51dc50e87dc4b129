package notify

import "context"

// Notification es un pedido de entrega. El core solo las arma; el emitter
// se encarga del transporte y de los reintentos.
type Notification struct {
	UserID   string `json:"user_id"`
	Kind     string `json:"kind"`
	Message  string `json:"message"`
	RecordID string `json:"record_id,omitempty"`
}

// Emitter entrega notificaciones. Sus errores solo se loguean; un fallo de
// entrega nunca deshace lo ya escrito.
type Emitter interface {
	Notify(ctx context.Context, n Notification) error
}
