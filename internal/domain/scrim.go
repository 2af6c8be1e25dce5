package domain

import "time"

// ScrimStatus es el estado del ciclo de confirmación de un scrim.
// La cancelación NO es un estado: un scrim cancelado se borra de la DB.
type ScrimStatus string

const (
	// Esperando que el equipo local junte sus votos.
	StatusPendingHost ScrimStatus = "pending_host"
	// El local ya confirmó; esperando al visitante.
	StatusPendingAway ScrimStatus = "pending_away"
	// Ambos lados confirmaron (o el visitante forzó con medio quorum).
	StatusScheduled ScrimStatus = "scheduled"
)

func (s ScrimStatus) Valid() bool {
	switch s {
	case StatusPendingHost, StatusPendingAway, StatusScheduled:
		return true
	}
	return false
}

func (s ScrimStatus) String() string { return string(s) }

// Side identifica de qué lado del scrim es un voto.
type Side string

const (
	SideHome Side = "home"
	SideAway Side = "away"
)

const (
	// El reminder se dispara 30 min antes del scrim...
	ReminderLead = 30 * time.Minute
	// ...pero sólo se agenda si el scrim se creó con más de 24h de anticipación.
	ReminderMinNotice = 24 * time.Hour
	// El canal del match se borra solo después de esta ventana.
	MatchChannelTTL = 4 * time.Hour
	// El force-confirm sólo se habilita dentro de esta ventana previa al scrim.
	ForceConfirmWindow = 30 * time.Minute
)

// QuorumReached: el quorum se chequea por igualdad exacta después de cada
// mutación; el invariante len(voters) <= perTeam hace imposible pasarse.
func QuorumReached(votes, perTeam int) bool { return votes == perTeam }

// ForceConfirmThreshold es la mitad (entera) del quorum configurado.
func ForceConfirmThreshold(perTeam int) int { return perTeam / 2 }

// CanOpenForceConfirm valida los guards para abrir una votación de
// force-confirm del lado visitante. `until` es cuánto falta para el scrim.
func CanOpenForceConfirm(perTeam, awayVotes int, until time.Duration) error {
	if perTeam < 2 {
		return ErrForceConfirmPerTeam
	}
	if awayVotes < ForceConfirmThreshold(perTeam) {
		return ErrForceConfirmTooFewVotes
	}
	if until > ForceConfirmWindow {
		return ErrForceConfirmTooEarly
	}
	return nil
}

// WantsReminder: el reminder sólo existe para scrims agendados con más de
// un día de anticipación.
func WantsReminder(createdAt, scheduledFor time.Time) bool {
	return scheduledFor.Sub(createdAt) > ReminderMinNotice
}
