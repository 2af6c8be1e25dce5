package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/jose-valero/scrim-bot/internal/domain"
	"github.com/jose-valero/scrim-bot/internal/infra/storage"
)

// ScrimService es el dueño del ciclo de vida del scrim: creación, timers,
// reagendado y cancelación. El flujo de votos vive en ConfirmService.
type ScrimService struct {
	scrims ScrimStore
	teams  TeamStore
	timers TimerScheduler
	panels Panels
	rooms  ChannelManager
	reg    *Registry
	clock  clockwork.Clock
}

func NewScrimService(
	scrims ScrimStore,
	teams TeamStore,
	timers TimerScheduler,
	panels Panels,
	rooms ChannelManager,
	reg *Registry,
	clock clockwork.Clock,
) *ScrimService {
	return &ScrimService{
		scrims: scrims,
		teams:  teams,
		timers: timers,
		panels: panels,
		rooms:  rooms,
		reg:    reg,
		clock:  clock,
	}
}

// Create arma el scrim completo: fila, panel del equipo local y timers.
// Si no podemos publicar el panel el scrim no existe: borramos la fila
// antes de devolver el error.
func (s *ScrimService) Create(
	ctx context.Context,
	guildID, creatorID string,
	homeID, awayID int64,
	perTeam int,
	when time.Time,
) (storage.Scrim, error) {
	home, err := s.teams.Get(ctx, homeID, guildID)
	if err != nil {
		return storage.Scrim{}, err
	}
	away, err := s.teams.Get(ctx, awayID, guildID)
	if err != nil {
		return storage.Scrim{}, err
	}
	if home.TextChannelID == nil {
		return storage.Scrim{}, domain.ErrNoHomeChannel
	}

	sc, err := s.scrims.Create(ctx, storage.Scrim{
		GuildID:      guildID,
		CreatorID:    creatorID,
		PerTeam:      perTeam,
		HomeID:       homeID,
		AwayID:       awayID,
		Status:       domain.StatusPendingHost,
		ScheduledFor: when,
	})
	if err != nil {
		return storage.Scrim{}, err
	}

	msgID, err := s.panels.PublishHome(ctx, PanelView{Scrim: sc, Home: home, Away: away})
	if err != nil {
		// sin panel no hay scrim: deshacemos la fila
		if derr := s.scrims.Delete(ctx, sc.ID); derr != nil {
			log.Printf("[scrims] rollback create scrim=%d: %v", sc.ID, derr)
		}
		return storage.Scrim{}, fmt.Errorf("publicando panel del equipo local: %w", err)
	}
	sc.HomeMessageID = msgID
	if err := s.scrims.Patch(ctx, sc.ID, storage.ScrimPatch{HomeMessageID: &msgID}); err != nil {
		return storage.Scrim{}, err
	}

	schedID, err := s.timers.Schedule(ctx, when, EventScrimScheduled, TimerPayload{ScrimID: sc.ID, GuildID: guildID})
	if err != nil {
		// la fila queda y el janitor la levanta; mejor que perder el mensaje ya publicado
		return storage.Scrim{}, fmt.Errorf("agendando timer de inicio: %w", err)
	}
	sc.ScheduledTimerID = &schedID

	if domain.WantsReminder(s.clock.Now(), when) {
		remID, err := s.timers.Schedule(ctx, when.Add(-domain.ReminderLead), EventScrimReminder, TimerPayload{ScrimID: sc.ID, GuildID: guildID})
		if err != nil {
			log.Printf("[scrims] reminder timer scrim=%d: %v", sc.ID, err)
		} else {
			sc.ReminderTimerID = &remID
		}
	}

	if err := s.scrims.SetTimerIDs(ctx, sc.ID, sc.ScheduledTimerID, sc.ReminderTimerID, nil); err != nil {
		return storage.Scrim{}, err
	}

	s.reg.Put(sc)
	log.Printf("[scrims] created scrim=%d guild=%s home=%d away=%d per_team=%d for=%s",
		sc.ID, guildID, homeID, awayID, perTeam, when.Format(time.RFC3339))
	return sc, nil
}

// List devuelve los scrims vivos del guild desde el registry, ordenados
// por fecha. El índice es write-through así que alcanza para un listado.
func (s *ScrimService) List(guildID string) []storage.Scrim {
	out := s.reg.ByGuild(guildID)
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledFor.Before(out[j].ScheduledFor) })
	return out
}

// Info resuelve scrim + equipos para renderizar (/scrim info).
func (s *ScrimService) Info(ctx context.Context, guildID string, id int64) (PanelView, error) {
	sc, err := s.scrims.Get(ctx, id, guildID)
	if err != nil {
		return PanelView{}, err
	}
	return s.view(ctx, sc)
}

// Reschedule mueve el scrim a otra fecha y re-apunta los timers de inicio y
// reminder (cancela los viejos, crea nuevos). El timer de borrado del canal
// no se toca: sólo existe cuando el scrim ya arrancó.
func (s *ScrimService) Reschedule(ctx context.Context, guildID string, id int64, when time.Time) (storage.Scrim, error) {
	unlock := s.reg.Lock(guildID, id)
	defer unlock()

	sc, err := s.scrims.Get(ctx, id, guildID)
	if err != nil {
		return storage.Scrim{}, err
	}

	if sc.ScheduledTimerID != nil {
		if err := s.timers.Cancel(ctx, *sc.ScheduledTimerID); err != nil {
			log.Printf("[scrims] cancel scheduled timer scrim=%d: %v", id, err)
		}
	}
	if sc.ReminderTimerID != nil {
		if err := s.timers.Cancel(ctx, *sc.ReminderTimerID); err != nil {
			log.Printf("[scrims] cancel reminder timer scrim=%d: %v", id, err)
		}
	}

	if err := s.scrims.Patch(ctx, id, storage.ScrimPatch{ScheduledFor: &when}); err != nil {
		return storage.Scrim{}, err
	}
	sc.ScheduledFor = when

	schedID, err := s.timers.Schedule(ctx, when, EventScrimScheduled, TimerPayload{ScrimID: id, GuildID: guildID})
	if err != nil {
		return storage.Scrim{}, fmt.Errorf("re-agendando timer de inicio: %w", err)
	}
	sc.ScheduledTimerID = &schedID

	sc.ReminderTimerID = nil
	if domain.WantsReminder(s.clock.Now(), when) {
		remID, err := s.timers.Schedule(ctx, when.Add(-domain.ReminderLead), EventScrimReminder, TimerPayload{ScrimID: id, GuildID: guildID})
		if err != nil {
			log.Printf("[scrims] reminder timer scrim=%d: %v", id, err)
		} else {
			sc.ReminderTimerID = &remID
		}
	}

	if err := s.scrims.SetTimerIDs(ctx, id, sc.ScheduledTimerID, sc.ReminderTimerID, sc.DeleteTimerID); err != nil {
		return storage.Scrim{}, err
	}
	s.reg.Put(sc)

	// refrescamos los paneles con la fecha nueva, best-effort
	if v, verr := s.view(ctx, sc); verr == nil {
		if err := s.panels.RefreshHome(ctx, v); err != nil {
			log.Printf("[scrims] refresh home scrim=%d: %v", id, err)
		}
		if sc.AwayMessageID != nil {
			if err := s.panels.RefreshAway(ctx, v); err != nil {
				log.Printf("[scrims] refresh away scrim=%d: %v", id, err)
			}
		}
	}

	log.Printf("[scrims] rescheduled scrim=%d guild=%s for=%s", id, guildID, when.Format(time.RFC3339))
	return sc, nil
}

// Cancel es idempotente: cancelar un scrim que ya no existe es un no-op.
func (s *ScrimService) Cancel(ctx context.Context, guildID string, id int64, reason string) error {
	unlock := s.reg.Lock(guildID, id)
	defer unlock()

	sc, err := s.scrims.Get(ctx, id, guildID)
	if errors.Is(err, domain.ErrScrimNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.cancelLocked(ctx, sc, reason)
}

// cancelLocked asume que el caller ya tiene el lock del scrim. Orden del
// teardown: primero la fila (la única parte que tiene que salir bien),
// después timers, registry y el resto best-effort.
func (s *ScrimService) cancelLocked(ctx context.Context, sc storage.Scrim, reason string) error {
	if err := s.scrims.Delete(ctx, sc.ID); err != nil {
		return err
	}

	for _, tid := range []*int64{sc.ScheduledTimerID, sc.ReminderTimerID, sc.DeleteTimerID} {
		if tid == nil {
			continue
		}
		if err := s.timers.Cancel(ctx, *tid); err != nil {
			log.Printf("[scrims] cancel timer=%d scrim=%d: %v", *tid, sc.ID, err)
		}
	}

	s.reg.Remove(sc.GuildID, sc.ID)

	v := s.viewLenient(ctx, sc)
	s.panels.AnnounceCancelled(ctx, v, reason)
	if sc.AwayConfirmAnywaysMessageID != nil {
		s.panels.DeleteForceConfirmPrompt(ctx, v)
	}
	if sc.ScrimChatID != nil {
		s.rooms.DeleteChannel(ctx, *sc.ScrimChatID)
	}

	log.Printf("[scrims] cancelled scrim=%d guild=%s reason=%q", sc.ID, sc.GuildID, reason)
	return nil
}

func (s *ScrimService) setStatusLocked(ctx context.Context, sc *storage.Scrim, status domain.ScrimStatus) error {
	if err := s.scrims.SetStatus(ctx, sc.ID, status); err != nil {
		return err
	}
	sc.Status = status
	s.reg.Put(*sc)
	return nil
}

// view resuelve los dos equipos; falla con domain.ErrTeamNotFound si alguno
// fue borrado (el caller decide si eso cancela el scrim).
func (s *ScrimService) view(ctx context.Context, sc storage.Scrim) (PanelView, error) {
	home, err := s.teams.Get(ctx, sc.HomeID, sc.GuildID)
	if err != nil {
		return PanelView{}, err
	}
	away, err := s.teams.Get(ctx, sc.AwayID, sc.GuildID)
	if err != nil {
		return PanelView{}, err
	}
	return PanelView{Scrim: sc, Home: home, Away: away}, nil
}

// viewLenient: para el teardown, donde un equipo borrado no nos detiene.
func (s *ScrimService) viewLenient(ctx context.Context, sc storage.Scrim) PanelView {
	v := PanelView{Scrim: sc}
	if home, err := s.teams.Get(ctx, sc.HomeID, sc.GuildID); err == nil {
		v.Home = home
	}
	if away, err := s.teams.Get(ctx, sc.AwayID, sc.GuildID); err == nil {
		v.Away = away
	}
	return v
}
