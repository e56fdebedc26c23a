// Package engine implements the postulation-to-session scheduling core:
// the postulation state machine, capacity-aware acceptance, conflict
// detection, session generation and the expiration sweep.
package engine

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/openvolunteering/postulate/pkg/calendar"
)

// Engine wires the scheduling operations to a store. All mutating
// operations run inside a single store transaction and take the relevant
// per-work or per-volunteer lock, so the capacity check in Accept and the
// conflict check in Submit cannot race with themselves.
type Engine struct {
	store  Store
	logger *zap.Logger

	workLocks      keyedMutex
	volunteerLocks keyedMutex

	now func() time.Time
}

// New creates an engine over a store.
func New(store Store, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// today returns the current date at midnight UTC.
func (e *Engine) today() time.Time {
	return calendar.Midnight(e.now().UTC())
}

// keyedMutex hands out one mutex per key. Lock returns the unlock
// function for the key's mutex.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
