package review

// Effect es una cascada que el store aplica en el mismo commit atómico que el
// cambio de estado que la disparó.
type Effect interface {
	effect()
}

// SpawnRecord crea un registro dependiente, por ejemplo una derivación médica.
type SpawnRecord struct {
	Record  Record
	History HistoryEntry
}

// PatchProfile aplica Changes sobre el perfil del usuario; ignora claves desconocidas.
type PatchProfile struct {
	UserID  string
	Changes map[string]any
}

// AppendCertification agrega Title a las certificaciones públicas del coach.
type AppendCertification struct {
	CoachID string
	Title   string
}

// PausePlan marca pausado un plan de entrenamiento.
type PausePlan struct {
	PlanID string
}

// ProvisionProfile crea o refresca el perfil de un usuario dado de alta.
type ProvisionProfile struct {
	UserID   string
	Role     Role
	FullName string
	Email    string
}

func (SpawnRecord) effect()         {}
func (PatchProfile) effect()        {}
func (AppendCertification) effect() {}
func (PausePlan) effect()           {}
func (ProvisionProfile) effect()    {}
