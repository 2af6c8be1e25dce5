package timers

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/jose-valero/scrim-bot/internal/infra/storage"
)

type memStore struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]storage.Timer

	nextDueCalled chan struct{}
}

func newMemStore() *memStore {
	return &memStore{
		rows:          make(map[int64]storage.Timer),
		nextDueCalled: make(chan struct{}, 64),
	}
}

func (s *memStore) Create(ctx context.Context, event string, payload []byte, expires time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.rows[s.nextID] = storage.Timer{ID: s.nextID, Event: event, Payload: payload, Expires: expires}
	return s.nextID, nil
}

func (s *memStore) sorted() []storage.Timer {
	out := make([]storage.Timer, 0, len(s.rows))
	for _, t := range s.rows {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Expires.Before(out[j].Expires) })
	return out
}

func (s *memStore) NextDue(ctx context.Context) (storage.Timer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case s.nextDueCalled <- struct{}{}:
	default:
	}
	all := s.sorted()
	if len(all) == 0 {
		return storage.Timer{}, sql.ErrNoRows
	}
	return all[0], nil
}

func (s *memStore) Due(ctx context.Context, now time.Time, limit int) ([]storage.Timer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []storage.Timer
	for _, t := range s.sorted() {
		if !t.Expires.After(now) && len(out) < limit {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *memStore) Delete(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.rows[id]
	delete(s.rows, id)
	return ok, nil
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

func newTestManager(store Store, clock clockwork.Clock) *Manager {
	return New(store, clock, zerolog.Nop())
}

func TestDispatchesOverdueTimerOnStartup(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := newMemStore()
	fc := clockwork.NewFakeClock()

	// timer vencido antes de arrancar: simula un reinicio del bot
	if _, err := store.Create(ctx, "scrim_reminder", []byte(`{"scrim_id":7}`), fc.Now().Add(-time.Minute)); err != nil {
		t.Fatal(err)
	}

	m := newTestManager(store, fc)
	fired := make(chan []byte, 1)
	m.Handle("scrim_reminder", func(ctx context.Context, payload []byte) {
		fired <- payload
	})

	go m.Run(ctx)

	select {
	case payload := <-fired:
		if string(payload) != `{"scrim_id":7}` {
			t.Fatalf("payload = %s", payload)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("overdue timer never dispatched")
	}

	waitFor(t, func() bool { return store.count() == 0 })
}

func TestFiresWhenDeadlineArrives(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := newMemStore()
	fc := clockwork.NewFakeClock()
	m := newTestManager(store, fc)

	fired := make(chan struct{}, 1)
	m.Handle("scrim_scheduled", func(ctx context.Context, payload []byte) {
		fired <- struct{}{}
	})

	go m.Run(ctx)

	if _, err := m.Schedule(ctx, fc.Now().Add(30*time.Minute), "scrim_scheduled", map[string]int64{"scrim_id": 1}); err != nil {
		t.Fatal(err)
	}

	// esperamos a que el loop haya leído el timer y esté durmiendo
	<-store.nextDueCalled
	time.Sleep(20 * time.Millisecond)
	fc.Advance(31 * time.Minute)

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("timer never fired after advancing past the deadline")
	}
}

func TestCancelPreventsDispatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := newMemStore()
	fc := clockwork.NewFakeClock()
	m := newTestManager(store, fc)

	fired := make(chan struct{}, 1)
	m.Handle("scrim_delete", func(ctx context.Context, payload []byte) {
		fired <- struct{}{}
	})

	go m.Run(ctx)

	id, err := m.Schedule(ctx, fc.Now().Add(time.Hour), "scrim_delete", map[string]int64{"scrim_id": 2})
	if err != nil {
		t.Fatal(err)
	}
	<-store.nextDueCalled

	if err := m.Cancel(ctx, id); err != nil {
		t.Fatal(err)
	}
	if store.count() != 0 {
		t.Fatalf("timer row still present after cancel")
	}

	time.Sleep(20 * time.Millisecond)
	fc.Advance(2 * time.Hour)

	select {
	case <-fired:
		t.Fatal("cancelled timer was dispatched")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestCancelUnknownTimerIsNoop(t *testing.T) {
	m := newTestManager(newMemStore(), clockwork.NewFakeClock())
	if err := m.Cancel(context.Background(), 999); err != nil {
		t.Fatalf("Cancel(unknown) = %v", err)
	}
}

func TestTimerWithoutHandlerIsConsumed(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := newMemStore()
	fc := clockwork.NewFakeClock()
	m := newTestManager(store, fc)

	if _, err := store.Create(ctx, "unknown_event", []byte(`{}`), fc.Now().Add(-time.Second)); err != nil {
		t.Fatal(err)
	}

	go m.Run(ctx)

	// sin handler igual se consume: si no, el loop giraría para siempre
	waitFor(t, func() bool { return store.count() == 0 })
}

func TestPanickingHandlerStillDeletesRow(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := newMemStore()
	fc := clockwork.NewFakeClock()
	m := newTestManager(store, fc)
	m.Handle("boom", func(ctx context.Context, payload []byte) { panic("boom") })

	if _, err := store.Create(ctx, "boom", []byte(`{}`), fc.Now().Add(-time.Second)); err != nil {
		t.Fatal(err)
	}

	go m.Run(ctx)

	waitFor(t, func() bool { return store.count() == 0 })
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition never met")
}
