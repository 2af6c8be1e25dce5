package service

import (
	"context"
	"time"

	"github.com/jose-valero/scrim-bot/internal/domain"
	"github.com/jose-valero/scrim-bot/internal/infra/storage"
	"github.com/jose-valero/scrim-bot/internal/infra/timers"
)

// Lo implementa internal/infra/storage.ScrimsRepo
type ScrimStore interface {
	Create(ctx context.Context, s storage.Scrim) (storage.Scrim, error)
	Get(ctx context.Context, id int64, guildID string) (storage.Scrim, error)
	ListAll(ctx context.Context) ([]storage.Scrim, error)
	AddVote(ctx context.Context, id int64, side domain.Side, memberID string) error
	RemoveVote(ctx context.Context, id int64, side domain.Side, memberID string) error
	AddForceConfirmVote(ctx context.Context, id int64, memberID string) error
	SetStatus(ctx context.Context, id int64, status domain.ScrimStatus) error
	Patch(ctx context.Context, id int64, p storage.ScrimPatch) error
	SetTimerIDs(ctx context.Context, id int64, scheduled, reminder, del *int64) error
	Delete(ctx context.Context, id int64) error
}

// Lo implementa internal/infra/storage.TeamsRepo
type TeamStore interface {
	Get(ctx context.Context, id int64, guildID string) (storage.Team, error)
}

// Lo implementa internal/infra/timers.Manager
type TimerScheduler interface {
	Schedule(ctx context.Context, due time.Time, event string, payload any) (int64, error)
	Cancel(ctx context.Context, id int64) error
}

// TimerRegistry registra handlers por nombre de evento (timers.Manager.Handle).
type TimerRegistry interface {
	Handle(event string, fn timers.Handler)
}

// Eventos de timer que maneja este bot.
const (
	EventScrimScheduled = "scrim_scheduled"
	EventScrimReminder  = "scrim_reminder"
	EventScrimDelete    = "scrim_delete"
)

// TimerPayload es el payload JSON de los tres eventos de scrim.
type TimerPayload struct {
	ScrimID int64  `json:"scrim_id"`
	GuildID string `json:"guild_id"`
}

// PanelView junta todo lo que la capa de presentación necesita para
// renderizar un panel: el scrim y los dos equipos ya resueltos.
type PanelView struct {
	Scrim storage.Scrim
	Home  storage.Team
	Away  storage.Team
}

// Panels lo implementa internal/adapters/discord.ScrimUI. Los Publish*
// mandan un mensaje nuevo (con @everyone) y devuelven su message id; los
// Refresh* editan el existente y devuelven domain.ErrMessageGone si el
// mensaje fue borrado a mano. Los Announce* son best-effort: el adapter
// loguea y sigue.
type Panels interface {
	PublishHome(ctx context.Context, v PanelView) (string, error)
	PublishAway(ctx context.Context, v PanelView) (string, error)
	PublishForceConfirm(ctx context.Context, v PanelView) (string, error)

	RefreshHome(ctx context.Context, v PanelView) error
	RefreshAway(ctx context.Context, v PanelView) error
	RefreshForceConfirm(ctx context.Context, v PanelView) error

	AnnounceCancelled(ctx context.Context, v PanelView, reason string)
	AnnounceNotStarted(ctx context.Context, v PanelView) error
	AnnounceReminder(ctx context.Context, v PanelView) error
	DeleteForceConfirmPrompt(ctx context.Context, v PanelView)
}

// ChannelManager lo implementa internal/adapters/discord.ChannelManager.
type ChannelManager interface {
	// CreateMatchChannel crea el canal privado del scrim bajo la categoría
	// del equipo local, con overwrites para los miembros de ambos equipos.
	CreateMatchChannel(ctx context.Context, v PanelView) (string, error)
	// DeleteChannel es best-effort: un canal ya borrado no es error.
	DeleteChannel(ctx context.Context, channelID string)
}
