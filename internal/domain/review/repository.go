package review

import "context"

// Commit es una escritura atómica: el registro actualizado, protegido por el
// estado en que se leyó, con sus líneas de historial y sus cascadas.
type Commit struct {
	From    Status
	Record  Record
	History []HistoryEntry
	Effects []Effect
}

type Store interface {
	CreateRecord(ctx context.Context, rec Record, entry HistoryEntry) error
	GetRecord(ctx context.Context, id string) (Record, error)
	QueryRecords(ctx context.Context, q Query) ([]Record, error)
	ListHistory(ctx context.Context, recordID string) ([]HistoryEntry, error)

	// CommitTransition aplica c todo o nada. Falla con ErrStatusChanged sin
	// escribir nada si el estado guardado ya no es c.From, y con
	// ErrRecordMissing si el registro no existe.
	CommitTransition(ctx context.Context, c Commit) error
}
