package service

import (
	"sync"

	"github.com/jose-valero/scrim-bot/internal/infra/storage"
)

type scrimKey struct {
	guildID string
	id      int64
}

// Registry es el índice en memoria de scrims activos, cargado al arranque y
// write-through en cada mutación. También es el dueño del mutex por-scrim:
// todo el que muta un scrim (votos, timers, cancel) toma Lock primero, así
// un timer disparando y un cancel concurrente se serializan en vez de pisarse.
type Registry struct {
	mu     sync.Mutex
	scrims map[scrimKey]storage.Scrim
	locks  map[scrimKey]*sync.Mutex
}

func NewRegistry() *Registry {
	return &Registry{
		scrims: make(map[scrimKey]storage.Scrim),
		locks:  make(map[scrimKey]*sync.Mutex),
	}
}

// Load reemplaza el índice completo (arranque del bot).
func (r *Registry) Load(scrims []storage.Scrim) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scrims = make(map[scrimKey]storage.Scrim, len(scrims))
	for _, s := range scrims {
		r.scrims[scrimKey{s.GuildID, s.ID}] = s
	}
}

// Lock toma el mutex del scrim y devuelve su unlock. Sirve también para
// scrims que todavía no están (o ya no están) en el índice.
func (r *Registry) Lock(guildID string, id int64) (unlock func()) {
	k := scrimKey{guildID, id}
	r.mu.Lock()
	m, ok := r.locks[k]
	if !ok {
		m = &sync.Mutex{}
		r.locks[k] = m
	}
	r.mu.Unlock()

	m.Lock()
	return m.Unlock
}

func (r *Registry) Put(s storage.Scrim) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scrims[scrimKey{s.GuildID, s.ID}] = s
}

func (r *Registry) Get(guildID string, id int64) (storage.Scrim, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.scrims[scrimKey{guildID, id}]
	return s, ok
}

func (r *Registry) Remove(guildID string, id int64) {
	k := scrimKey{guildID, id}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.scrims, k)
	delete(r.locks, k)
}

// ByGuild lista los scrims del guild (lo usa /scrim list).
func (r *Registry) ByGuild(guildID string) []storage.Scrim {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []storage.Scrim
	for k, s := range r.scrims {
		if k.guildID == guildID {
			out = append(out, s)
		}
	}
	return out
}
