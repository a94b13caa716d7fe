package status

import (
	"fmt"
	"slices"
	"sync"

	"github.com/wahook/wahook/internal/bus"
)

// State represents the externally observable connection state.
type State string

const (
	Disconnected    State = "DISCONNECTED"
	AwaitingPairing State = "AWAITING_PAIRING"
	Connected       State = "CONNECTED"
)

// validTransitions defines allowed state transitions. A fresh session
// attempt from Disconnected either solicits a pairing challenge or,
// when credentials already exist, comes up Connected directly.
var validTransitions = map[State][]State{
	Disconnected:    {AwaitingPairing, Connected},
	AwaitingPairing: {Connected, Disconnected},
	Connected:       {Disconnected},
}

// Machine tracks and enforces connection state transitions.
type Machine struct {
	mu      sync.RWMutex
	current State
	bus     *bus.Bus
}

// NewMachine creates a state machine starting in Disconnected.
func NewMachine(b *bus.Bus) *Machine {
	return &Machine{
		current: Disconnected,
		bus:     b,
	}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Transition attempts to move to a new state. A transition to the
// current state is a no-op (a re-issued pairing code does not change
// state). Returns an error for a disallowed transition.
func (m *Machine) Transition(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if to == m.current {
		return nil
	}
	if !slices.Contains(validTransitions[m.current], to) {
		return fmt.Errorf("invalid transition from %s to %s", m.current, to)
	}
	from := m.current
	m.current = to
	if m.bus != nil {
		m.bus.Publish(bus.Event{
			Kind: bus.KindStatusChanged,
			Payload: StatusChange{
				From: from,
				To:   to,
			},
		})
	}
	return nil
}

// StatusChange is the payload for status change events.
type StatusChange struct {
	From State
	To   State
}
