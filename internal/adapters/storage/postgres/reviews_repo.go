package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"sports-portal/internal/domain/review"
)

// ReviewStore implementa review.Store. CommitTransition aplica el cambio de
// estado y sus cascadas en una única transacción.
type ReviewStore struct {
	db *sql.DB
}

var _ review.Store = (*ReviewStore)(nil)

func NewReviewStore(db *sql.DB) *ReviewStore {
	return &ReviewStore{db: db}
}

const recordColumns = `
	id, kind, subject_id, submitted_by, status,
	submitted_at, updated_at, decided_by, decided_at, payload`

func (r *ReviewStore) CreateRecord(ctx context.Context, rec review.Record, entry review.HistoryEntry) error {
	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := insertRecord(ctx, tx, rec); err != nil {
			return err
		}
		return insertHistory(ctx, tx, entry)
	})
}

func insertRecord(ctx context.Context, q querier, rec review.Record) error {
	payload, err := review.EncodePayload(rec.Payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO review_records (`+recordColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`,
		rec.ID,
		string(rec.Kind),
		rec.SubjectID,
		rec.SubmittedBy,
		string(rec.Status),
		rec.SubmittedAt,
		rec.UpdatedAt,
		rec.DecidedBy,
		toNullTime(rec.DecidedAt),
		string(payload),
	)
	return err
}

func insertHistory(ctx context.Context, q querier, e review.HistoryEntry) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO review_history (id, record_id, from_status, to_status, actor_id, occurred_at, note)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`,
		e.ID,
		e.RecordID,
		string(e.FromStatus),
		string(e.ToStatus),
		e.ActorID,
		e.OccurredAt,
		e.Note,
	)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(s rowScanner) (review.Record, error) {
	var rec review.Record
	var kind, status string
	var decidedAt sql.NullTime
	var payload []byte

	if err := s.Scan(
		&rec.ID,
		&kind,
		&rec.SubjectID,
		&rec.SubmittedBy,
		&status,
		&rec.SubmittedAt,
		&rec.UpdatedAt,
		&rec.DecidedBy,
		&decidedAt,
		&payload,
	); err != nil {
		return review.Record{}, err
	}

	rec.Kind = review.Kind(kind)
	rec.Status = review.Status(status)
	rec.DecidedAt = fromNullTime(decidedAt)

	p, err := review.DecodePayload(rec.Kind, payload)
	if err != nil {
		return review.Record{}, fmt.Errorf("record %s: %w", rec.ID, err)
	}
	rec.Payload = p
	return rec, nil
}

func (r *ReviewStore) GetRecord(ctx context.Context, id string) (review.Record, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return review.Record{}, review.ErrRecordMissing
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM review_records WHERE id = $1`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return review.Record{}, review.ErrRecordMissing
	}
	return rec, err
}

func (r *ReviewStore) QueryRecords(ctx context.Context, q review.Query) ([]review.Record, error) {
	var (
		where []string
		args  []any
	)
	add := func(col, val string) {
		if val == "" {
			return
		}
		args = append(args, val)
		where = append(where, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	add("kind", string(q.Kind))
	add("subject_id", strings.TrimSpace(q.SubjectID))
	add("status", string(q.Status))

	query := `SELECT ` + recordColumns + ` FROM review_records`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY submitted_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]review.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *ReviewStore) ListHistory(ctx context.Context, recordID string) ([]review.HistoryEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, record_id, from_status, to_status, actor_id, occurred_at, note
		FROM review_history
		WHERE record_id = $1
		ORDER BY seq ASC
	`, strings.TrimSpace(recordID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]review.HistoryEntry, 0)
	for rows.Next() {
		var e review.HistoryEntry
		var from, to string
		if err := rows.Scan(&e.ID, &e.RecordID, &from, &to, &e.ActorID, &e.OccurredAt, &e.Note); err != nil {
			return nil, err
		}
		e.FromStatus = review.Status(from)
		e.ToStatus = review.Status(to)
		out = append(out, e)
	}
	return out, rows.Err()
}

// CommitTransition: UPDATE guardado por el estado leído; si no afecta filas,
// distinguimos registro inexistente de carrera perdida.
func (r *ReviewStore) CommitTransition(ctx context.Context, c review.Commit) error {
	rec := c.Record
	payload, err := review.EncodePayload(rec.Payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE review_records
			SET
				status = $2,
				decided_by = $3,
				decided_at = $4,
				updated_at = $5,
				payload = $6
			WHERE id = $1 AND status = $7
		`,
			rec.ID,
			string(rec.Status),
			rec.DecidedBy,
			toNullTime(rec.DecidedAt),
			rec.UpdatedAt,
			string(payload),
			string(c.From),
		)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			var one int
			err := tx.QueryRowContext(ctx, `SELECT 1 FROM review_records WHERE id = $1`, rec.ID).Scan(&one)
			if errors.Is(err, sql.ErrNoRows) {
				return review.ErrRecordMissing
			}
			if err != nil {
				return err
			}
			return review.ErrStatusChanged
		}

		for _, h := range c.History {
			if err := insertHistory(ctx, tx, h); err != nil {
				return err
			}
		}
		for _, e := range c.Effects {
			if err := applyEffect(ctx, tx, e, rec); err != nil {
				return err
			}
		}
		return nil
	})
}

func applyEffect(ctx context.Context, tx *sql.Tx, e review.Effect, rec review.Record) error {
	switch e := e.(type) {
	case review.SpawnRecord:
		if err := insertRecord(ctx, tx, e.Record); err != nil {
			return fmt.Errorf("spawn %s: %w", e.Record.Kind, err)
		}
		return insertHistory(ctx, tx, e.History)
	case review.PatchProfile:
		return patchProfile(ctx, tx, e, rec.UpdatedAt)
	case review.AppendCertification:
		return appendCertification(ctx, tx, e, rec.UpdatedAt)
	case review.ProvisionProfile:
		return provisionProfile(ctx, tx, e, rec.UpdatedAt)
	case review.PausePlan:
		return pausePlan(ctx, tx, e.PlanID, rec.UpdatedAt)
	}
	return fmt.Errorf("unsupported effect %T", e)
}
