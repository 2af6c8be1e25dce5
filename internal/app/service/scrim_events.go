package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/jose-valero/scrim-bot/internal/domain"
	"github.com/jose-valero/scrim-bot/internal/infra/storage"
)

// EventService maneja los tres timers del ciclo de vida de un scrim.
// Todos los handlers son idempotentes contra un scrim que ya no existe:
// la entrega de timers es at-least-once.
type EventService struct {
	s *ScrimService
}

func NewEventService(s *ScrimService) *EventService {
	return &EventService{s: s}
}

// Register engancha los handlers en el dispatcher. Llamar antes de Run.
func (e *EventService) Register(reg TimerRegistry) {
	reg.Handle(EventScrimScheduled, e.handleScheduled)
	reg.Handle(EventScrimReminder, e.handleReminder)
	reg.Handle(EventScrimDelete, e.handleDelete)
}

// handleScheduled corre a la hora del scrim. Si está confirmado crea el
// canal del match y agenda su borrado; si no, anuncia que no arrancó y
// deja la fila (el janitor la limpia después).
func (e *EventService) handleScheduled(ctx context.Context, payload []byte) {
	p, ok := parsePayload(payload)
	if !ok {
		return
	}
	unlock := e.s.reg.Lock(p.GuildID, p.ScrimID)
	defer unlock()

	sc, err := e.s.scrims.Get(ctx, p.ScrimID, p.GuildID)
	if errors.Is(err, domain.ErrScrimNotFound) {
		return // cancelado mientras el timer estaba en vuelo
	}
	if err != nil {
		log.Printf("[events] scheduled: get scrim=%d: %v", p.ScrimID, err)
		return
	}

	v, err := e.s.view(ctx, sc)
	if err != nil {
		e.cancel(ctx, sc, "Uno de los equipos fue borrado.")
		return
	}

	if sc.Status != domain.StatusScheduled {
		if err := e.s.panels.AnnounceNotStarted(ctx, v); err != nil {
			if errors.Is(err, domain.ErrMessageGone) {
				e.cancel(ctx, sc, "El mensaje del equipo local fue borrado.")
				return
			}
			log.Printf("[events] scheduled: announce scrim=%d: %v", sc.ID, err)
		}
		return
	}

	chID, err := e.s.rooms.CreateMatchChannel(ctx, v)
	if err != nil {
		e.cancel(ctx, sc, "No pude crear el canal del scrim.")
		return
	}
	sc.ScrimChatID = &chID
	if err := e.s.scrims.Patch(ctx, sc.ID, storage.ScrimPatch{ScrimChatID: &chID}); err != nil {
		log.Printf("[events] scheduled: patch chat scrim=%d: %v", sc.ID, err)
	}

	delID, err := e.s.timers.Schedule(ctx,
		e.s.clock.Now().Add(domain.MatchChannelTTL),
		EventScrimDelete,
		TimerPayload{ScrimID: sc.ID, GuildID: sc.GuildID},
	)
	if err != nil {
		log.Printf("[events] scheduled: delete timer scrim=%d: %v", sc.ID, err)
	} else {
		sc.DeleteTimerID = &delID
		if err := e.s.scrims.SetTimerIDs(ctx, sc.ID, sc.ScheduledTimerID, sc.ReminderTimerID, sc.DeleteTimerID); err != nil {
			log.Printf("[events] scheduled: set timer ids scrim=%d: %v", sc.ID, err)
		}
	}

	e.s.reg.Put(sc)
	log.Printf("[events] scrim=%d started, chat=%s", sc.ID, chID)
}

// handleReminder corre 30 minutos antes del scrim. Con pending_host además
// cancela: si el local no juntó sus votos a esta altura, el visitante no
// va a llegar a tiempo.
func (e *EventService) handleReminder(ctx context.Context, payload []byte) {
	p, ok := parsePayload(payload)
	if !ok {
		return
	}
	unlock := e.s.reg.Lock(p.GuildID, p.ScrimID)
	defer unlock()

	sc, err := e.s.scrims.Get(ctx, p.ScrimID, p.GuildID)
	if errors.Is(err, domain.ErrScrimNotFound) {
		return
	}
	if err != nil {
		log.Printf("[events] reminder: get scrim=%d: %v", p.ScrimID, err)
		return
	}

	v, err := e.s.view(ctx, sc)
	if err != nil {
		e.cancel(ctx, sc, "Uno de los equipos fue borrado.")
		return
	}

	if err := e.s.panels.AnnounceReminder(ctx, v); err != nil {
		if errors.Is(err, domain.ErrMessageGone) {
			e.cancel(ctx, sc, "El mensaje del equipo local fue borrado.")
			return
		}
		log.Printf("[events] reminder: announce scrim=%d: %v", sc.ID, err)
	}

	if sc.Status == domain.StatusPendingHost {
		e.cancel(ctx, sc, "El equipo local no juntó los votos a tiempo.")
	}
}

// handleDelete corre 4 horas después del arranque: borra el canal del match
// y la fila del scrim. Fin del ciclo de vida.
func (e *EventService) handleDelete(ctx context.Context, payload []byte) {
	p, ok := parsePayload(payload)
	if !ok {
		return
	}
	unlock := e.s.reg.Lock(p.GuildID, p.ScrimID)
	defer unlock()

	sc, err := e.s.scrims.Get(ctx, p.ScrimID, p.GuildID)
	if errors.Is(err, domain.ErrScrimNotFound) {
		return
	}
	if err != nil {
		log.Printf("[events] delete: get scrim=%d: %v", p.ScrimID, err)
		return
	}

	if sc.ScrimChatID != nil {
		e.s.rooms.DeleteChannel(ctx, *sc.ScrimChatID)
	}
	if err := e.s.scrims.Delete(ctx, sc.ID); err != nil {
		log.Printf("[events] delete: scrim=%d: %v", sc.ID, err)
		return
	}
	e.s.reg.Remove(sc.GuildID, sc.ID)
	log.Printf("[events] scrim=%d finished and deleted", sc.ID)
}

func (e *EventService) cancel(ctx context.Context, sc storage.Scrim, reason string) {
	if err := e.s.cancelLocked(ctx, sc, reason); err != nil {
		log.Printf("[events] cancel scrim=%d: %v", sc.ID, err)
	}
}

func parsePayload(raw []byte) (TimerPayload, bool) {
	var p TimerPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		log.Printf("[events] bad timer payload %q: %v", raw, err)
		return p, false
	}
	return p, true
}
