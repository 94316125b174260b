package export

import (
	"sync"
	"sync/atomic"
)

// Trigger drops runs that start while another is still in flight.
// The zero value is ready to use.
type Trigger struct {
	busy atomic.Bool
}

// Run calls fn unless a previous call is still running. ran is false when
// the call was dropped; err is fn's result otherwise.
func (t *Trigger) Run(fn func() error) (ran bool, err error) {
	if !t.busy.CompareAndSwap(false, true) {
		return false, nil
	}
	defer t.busy.Store(false)
	return true, fn()
}

// Busy reports whether a run is in flight.
func (t *Trigger) Busy() bool {
	return t.busy.Load()
}

// TriggerSet holds one Trigger per key, so separate export buttons do not
// block each other.
type TriggerSet struct {
	mu       sync.Mutex
	triggers map[string]*Trigger
}

// Get returns the trigger for key, creating it on first use.
func (s *TriggerSet) Get(key string) *Trigger {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.triggers == nil {
		s.triggers = make(map[string]*Trigger)
	}
	t, ok := s.triggers[key]
	if !ok {
		t = &Trigger{}
		s.triggers[key] = t
	}
	return t
}
