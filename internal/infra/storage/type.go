package storage

import (
	"time"

	"github.com/jose-valero/scrim-bot/internal/domain"
)

// Scrim es la fila de teams.scrims. La fuente de verdad es siempre la DB;
// el registry en memoria es sólo un índice write-through.
type Scrim struct {
	ID        int64
	GuildID   string
	CreatorID string
	PerTeam   int
	HomeID    int64
	AwayID    int64
	Status    domain.ScrimStatus

	HomeVoterIDs               []string
	AwayVoterIDs               []string
	AwayConfirmAnywaysVoterIDs []string

	// home_message_id se setea al crear y nunca vuelve a ser vacío;
	// los otros dos se van llenando a medida que avanza el flujo.
	HomeMessageID               string
	AwayMessageID               *string
	AwayConfirmAnywaysMessageID *string

	ScheduledFor time.Time
	ScrimChatID  *string

	ScheduledTimerID *int64
	ReminderTimerID  *int64
	DeleteTimerID    *int64

	CreatedAt time.Time
}

func (s *Scrim) HomeQuorum() bool {
	return domain.QuorumReached(len(s.HomeVoterIDs), s.PerTeam)
}

func (s *Scrim) AwayQuorum() bool {
	return domain.QuorumReached(len(s.AwayVoterIDs), s.PerTeam)
}

func (s *Scrim) ForceConfirmPassed() bool {
	return len(s.AwayConfirmAnywaysVoterIDs) >= domain.ForceConfirmThreshold(s.PerTeam)
}

func (s *Scrim) VotedOn(side domain.Side, memberID string) bool {
	for _, id := range s.VotersFor(side) {
		if id == memberID {
			return true
		}
	}
	return false
}

func (s *Scrim) VotersFor(side domain.Side) []string {
	if side == domain.SideHome {
		return s.HomeVoterIDs
	}
	return s.AwayVoterIDs
}

// ScrimPatch: update parcial explícito, un puntero por columna mutable.
// nil = no tocar. Los timer ids van aparte (SetTimerIDs) porque ahí sí
// necesitamos poder escribir NULL.
type ScrimPatch struct {
	ScheduledFor                *time.Time
	HomeMessageID               *string
	AwayMessageID               *string
	AwayConfirmAnywaysMessageID *string
	ScrimChatID                 *string
}

// Team es una entrada del directorio de equipos del guild.
type Team struct {
	ID            int64
	GuildID       string
	Name          string
	TextChannelID *string
	CategoryID    *string
	Members       []TeamMember
	CreatedAt     time.Time
}

type TeamMember struct {
	MemberID  string
	IsCaptain bool
}

func (t *Team) HasMember(memberID string) bool {
	for _, m := range t.Members {
		if m.MemberID == memberID {
			return true
		}
	}
	return false
}

func (t *Team) MemberIDs() []string {
	out := make([]string, 0, len(t.Members))
	for _, m := range t.Members {
		out = append(out, m.MemberID)
	}
	return out
}

func (t *Team) CaptainIDs() []string {
	var out []string
	for _, m := range t.Members {
		if m.IsCaptain {
			out = append(out, m.MemberID)
		}
	}
	return out
}

// Timer es una fila de la tabla timers: un evento nombrado que se dispara
// at-least-once en expires. Sobrevive reinicios porque el estado es la tabla.
type Timer struct {
	ID        int64
	Event     string
	Payload   []byte
	Expires   time.Time
	CreatedAt time.Time
}
