package discord

import (
	"sync"
	"time"
)

// clickLimiter frena el doble-click en los botones de voto: una acción por
// clave (usuario+scrim) por ventana.
type clickLimiter struct {
	mu   sync.Mutex
	next map[string]time.Time
	win  time.Duration
}

func newClickLimiter(window time.Duration) *clickLimiter {
	return &clickLimiter{next: map[string]time.Time{}, win: window}
}

func (l *clickLimiter) Allow(key string) bool {
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	if until, ok := l.next[key]; ok && now.Before(until) {
		return false
	}
	// limpieza oportunista para que el map no crezca sin límite
	if len(l.next) > 1024 {
		for k, until := range l.next {
			if now.After(until) {
				delete(l.next, k)
			}
		}
	}
	l.next[key] = now.Add(l.win)
	return true
}
