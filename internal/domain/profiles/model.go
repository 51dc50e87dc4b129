package profiles

import (
	"math"
	"slices"
	"strings"
	"time"
)

// Profile es el perfil público de un atleta, coach, especialista u oficial.
type Profile struct {
	UserID string
	Role   string

	FullName    string
	Email       string
	Phone       string
	Sport       string
	Position    string
	Club        string
	Bio         string
	DateOfBirth string // YYYY-MM-DD

	HeightCM float64
	WeightKG float64

	// Solo se modifica al verificar una certificación.
	Certifications []string

	UpdatedAt time.Time
}

// ApplyChanges aplica un diff de campos sobre p. Se ignoran las claves
// desconocidas o protegidas (user_id, role, certifications) y los valores de
// tipo incorrecto. Devuelve las claves aplicadas, ordenadas.
func ApplyChanges(p Profile, changes map[string]any) (Profile, []string) {
	applied := make([]string, 0, len(changes))
	for raw, v := range changes {
		key := strings.ToLower(strings.TrimSpace(raw))
		if setField(&p, key, v) {
			applied = append(applied, key)
		}
	}
	slices.Sort(applied)
	return p, applied
}

func setField(p *Profile, key string, v any) bool {
	if dst := stringField(p, key); dst != nil {
		s, ok := v.(string)
		if !ok {
			return false
		}
		*dst = strings.TrimSpace(s)
		return true
	}

	var dst *float64
	switch key {
	case "height_cm":
		dst = &p.HeightCM
	case "weight_kg":
		dst = &p.WeightKG
	default:
		return false
	}
	n, ok := number(v)
	if !ok || n < 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return false
	}
	*dst = n
	return true
}

func stringField(p *Profile, key string) *string {
	switch key {
	case "full_name":
		return &p.FullName
	case "email":
		return &p.Email
	case "phone":
		return &p.Phone
	case "sport":
		return &p.Sport
	case "position":
		return &p.Position
	case "club":
		return &p.Club
	case "bio":
		return &p.Bio
	case "date_of_birth":
		return &p.DateOfBirth
	}
	return nil
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// AddCertification agrega title si todavía no figura.
func (p *Profile) AddCertification(title string) bool {
	title = strings.TrimSpace(title)
	if title == "" || slices.Contains(p.Certifications, title) {
		return false
	}
	p.Certifications = append(p.Certifications, title)
	return true
}
