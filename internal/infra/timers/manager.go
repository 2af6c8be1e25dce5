// Package timers implementa el dispatcher durable de eventos con fecha:
// los timers viven en la tabla `timers`, así que sobreviven reinicios; un
// único goroutine duerme hasta el vencimiento más próximo y despacha
// at-least-once (primero corre el handler, después borra la fila).
package timers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/jose-valero/scrim-bot/internal/infra/storage"
)

// Store es lo que el manager necesita de storage.TimersRepo.
type Store interface {
	Create(ctx context.Context, event string, payload []byte, expires time.Time) (int64, error)
	NextDue(ctx context.Context) (storage.Timer, error)
	Due(ctx context.Context, now time.Time, limit int) ([]storage.Timer, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

// Handler recibe el payload crudo del timer. Tiene que ser idempotente:
// la entrega es at-least-once y el scrim puede haber desaparecido.
type Handler func(ctx context.Context, payload []byte)

const (
	idlePoll      = 30 * time.Second
	dueBatchSize  = 16
	dispatchLimit = 25 * time.Second
)

type Manager struct {
	store Store
	clock clockwork.Clock
	log   zerolog.Logger

	mu       sync.RWMutex
	handlers map[string]Handler

	wakeCh chan struct{}
}

func New(store Store, clock clockwork.Clock, log zerolog.Logger) *Manager {
	return &Manager{
		store:    store,
		clock:    clock,
		log:      log.With().Str("component", "timers").Logger(),
		handlers: make(map[string]Handler),
		wakeCh:   make(chan struct{}, 1),
	}
}

// Handle registra el handler para un evento. Llamar antes de Run.
func (m *Manager) Handle(event string, fn Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[event] = fn
}

// Schedule persiste un timer y despierta al loop por si el nuevo
// vencimiento es más próximo que el que está esperando.
func (m *Manager) Schedule(ctx context.Context, due time.Time, event string, payload any) (int64, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("timers: marshal payload: %w", err)
	}
	id, err := m.store.Create(ctx, event, raw, due)
	if err != nil {
		return 0, err
	}
	m.log.Debug().Int64("timer_id", id).Str("event", event).Time("due", due).Msg("scheduled")
	m.wake()
	return id, nil
}

// Cancel borra un timer pendiente. Cancelar un timer que ya disparó (o que
// nunca existió) es un no-op, no un error.
func (m *Manager) Cancel(ctx context.Context, id int64) error {
	ok, err := m.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if ok {
		m.log.Debug().Int64("timer_id", id).Msg("cancelled")
		m.wake()
	}
	return nil
}

func (m *Manager) wake() {
	select {
	case m.wakeCh <- struct{}{}:
	default:
	}
}

// Run es el loop del scheduler. Bloquea hasta que ctx se cancele.
func (m *Manager) Run(ctx context.Context) error {
	m.log.Info().Msg("scheduler started")

	timer := m.clock.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.wakeCh:
			// drenamos wakes acumulados antes de releer
		default:
		}

		next, err := m.store.NextDue(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			if !m.sleep(ctx, timer, idlePoll) {
				return ctx.Err()
			}
			continue
		}
		if err != nil {
			m.log.Error().Err(err).Msg("fetching next timer")
			if !m.sleep(ctx, timer, time.Second) {
				return ctx.Err()
			}
			continue
		}

		if wait := next.Expires.Sub(m.clock.Now()); wait > 0 {
			if !m.sleep(ctx, timer, wait) {
				return ctx.Err()
			}
			// wake o vencimiento: releemos, puede haber cambiado todo
			continue
		}

		due, err := m.store.Due(ctx, m.clock.Now(), dueBatchSize)
		if err != nil {
			m.log.Error().Err(err).Msg("fetching due timers")
			continue
		}
		for _, t := range due {
			m.dispatch(ctx, t)
			if _, err := m.store.Delete(ctx, t.ID); err != nil {
				m.log.Error().Err(err).Int64("timer_id", t.ID).Msg("deleting fired timer")
			}
		}
	}
}

// sleep espera d, un wake, o la cancelación del ctx (false en este último caso).
func (m *Manager) sleep(ctx context.Context, timer clockwork.Timer, d time.Duration) bool {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
	timer.Reset(d)
	select {
	case <-timer.Chan():
		return true
	case <-m.wakeCh:
		return true
	case <-ctx.Done():
		return false
	}
}

func (m *Manager) dispatch(ctx context.Context, t storage.Timer) {
	m.mu.RLock()
	fn, ok := m.handlers[t.Event]
	m.mu.RUnlock()
	if !ok {
		m.log.Warn().Str("event", t.Event).Int64("timer_id", t.ID).Msg("no handler for event")
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			m.log.Error().Any("panic", rec).Str("event", t.Event).Int64("timer_id", t.ID).Msg("handler panicked")
		}
	}()

	hctx, cancel := context.WithTimeout(ctx, dispatchLimit)
	defer cancel()

	m.log.Info().Str("event", t.Event).Int64("timer_id", t.ID).Msg("dispatching")
	fn(hctx, t.Payload)
}
