package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"sports-portal/internal/domain/profiles"
	"sports-portal/internal/domain/review"
)

type ProfilesRepo struct {
	db *sql.DB
}

var _ profiles.Repository = (*ProfilesRepo)(nil)

func NewProfilesRepo(db *sql.DB) *ProfilesRepo {
	return &ProfilesRepo{db: db}
}

const profileColumns = `
	user_id, role, full_name, email, phone, sport, position, club, bio,
	date_of_birth, height_cm, weight_kg, certifications, updated_at`

func (r *ProfilesRepo) GetProfile(ctx context.Context, userID string) (profiles.Profile, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return profiles.Profile{}, profiles.ErrNotFound
	}
	p, found, err := loadProfile(ctx, r.db, userID, false)
	if err != nil {
		return profiles.Profile{}, err
	}
	if !found {
		return profiles.Profile{}, profiles.ErrNotFound
	}
	return p, nil
}

func (r *ProfilesRepo) SaveProfile(ctx context.Context, p profiles.Profile) error {
	if strings.TrimSpace(p.UserID) == "" {
		return errors.New("profile user id required")
	}
	return upsertProfile(ctx, r.db, p)
}

func loadProfile(ctx context.Context, q querier, userID string, forUpdate bool) (profiles.Profile, bool, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE user_id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var p profiles.Profile
	var certs []byte
	err := q.QueryRowContext(ctx, query, userID).Scan(
		&p.UserID,
		&p.Role,
		&p.FullName,
		&p.Email,
		&p.Phone,
		&p.Sport,
		&p.Position,
		&p.Club,
		&p.Bio,
		&p.DateOfBirth,
		&p.HeightCM,
		&p.WeightKG,
		&certs,
		&p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return profiles.Profile{UserID: userID}, false, nil
	}
	if err != nil {
		return profiles.Profile{}, false, err
	}
	if len(certs) > 0 {
		if err := json.Unmarshal(certs, &p.Certifications); err != nil {
			return profiles.Profile{}, false, err
		}
	}
	return p, true, nil
}

func upsertProfile(ctx context.Context, q querier, p profiles.Profile) error {
	certs := p.Certifications
	if certs == nil {
		certs = []string{}
	}
	raw, err := json.Marshal(certs)
	if err != nil {
		return err
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO profiles (`+profileColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		ON CONFLICT (user_id) DO UPDATE SET
			role = EXCLUDED.role,
			full_name = EXCLUDED.full_name,
			email = EXCLUDED.email,
			phone = EXCLUDED.phone,
			sport = EXCLUDED.sport,
			position = EXCLUDED.position,
			club = EXCLUDED.club,
			bio = EXCLUDED.bio,
			date_of_birth = EXCLUDED.date_of_birth,
			height_cm = EXCLUDED.height_cm,
			weight_kg = EXCLUDED.weight_kg,
			certifications = EXCLUDED.certifications,
			updated_at = EXCLUDED.updated_at
	`,
		p.UserID,
		p.Role,
		p.FullName,
		p.Email,
		p.Phone,
		p.Sport,
		p.Position,
		p.Club,
		p.Bio,
		p.DateOfBirth,
		p.HeightCM,
		p.WeightKG,
		string(raw),
		p.UpdatedAt,
	)
	return err
}

// Cascadas de review: leen con FOR UPDATE dentro de la transacción del commit.

func patchProfile(ctx context.Context, tx *sql.Tx, e review.PatchProfile, at time.Time) error {
	p, _, err := loadProfile(ctx, tx, e.UserID, true)
	if err != nil {
		return err
	}
	p, _ = profiles.ApplyChanges(p, e.Changes)
	p.UpdatedAt = at
	return upsertProfile(ctx, tx, p)
}

func appendCertification(ctx context.Context, tx *sql.Tx, e review.AppendCertification, at time.Time) error {
	p, _, err := loadProfile(ctx, tx, e.CoachID, true)
	if err != nil {
		return err
	}
	p.AddCertification(e.Title)
	p.UpdatedAt = at
	return upsertProfile(ctx, tx, p)
}

func provisionProfile(ctx context.Context, tx *sql.Tx, e review.ProvisionProfile, at time.Time) error {
	p, _, err := loadProfile(ctx, tx, e.UserID, true)
	if err != nil {
		return err
	}
	p.Role = string(e.Role)
	p.FullName = e.FullName
	p.Email = e.Email
	p.UpdatedAt = at
	return upsertProfile(ctx, tx, p)
}
