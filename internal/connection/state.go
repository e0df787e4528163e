package connection

import (
	"fmt"
	"sync"
)

// State is the lifecycle state of the connection.
type State int

const (
	StateConnecting State = iota
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// stateMachine guards connection state. Closed is terminal.
type stateMachine struct {
	mu    sync.RWMutex
	state State
}

// allowed reports whether from -> to is a legal transition.
func allowed(from, to State) bool {
	switch from {
	case StateConnecting:
		return to == StateOpen || to == StateClosed
	case StateOpen:
		return to == StateClosed
	default:
		return false
	}
}

func (m *stateMachine) current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// transition moves to the target state or returns ErrInvalidTransition.
func (m *stateMachine) transition(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !allowed(m.state, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.state, to)
	}
	m.state = to
	return nil
}
