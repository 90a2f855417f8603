package inventory

import (
	"github.com/rileyhales/tethys/pkg/catalog"
	"github.com/rileyhales/tethys/pkg/engine"
)

// State is the lifecycle state of a service's container
type State int

const (
	NotInstalled State = iota
	Stopped
	Running
)

// String returns the status label shown to users
func (s State) String() string {
	switch s {
	case Running:
		return "Running"
	case Stopped:
		return "Stopped"
	default:
		return "Not Installed"
	}
}

// Installed reports whether a container exists, running or not
func (s State) Installed() bool {
	return s != NotInstalled
}

// Snapshot is the engine state of the managed services at one point in time.
// It is never updated; request a new one before acting.
type Snapshot struct {
	states     map[catalog.ServiceID]State
	containers map[catalog.ServiceID]engine.Container
}

// State returns the state of id, NotInstalled when its container is absent
func (s Snapshot) State(id catalog.ServiceID) State {
	return s.states[id]
}

// Lookup returns the state of id and whether its container exists
func (s Snapshot) Lookup(id catalog.ServiceID) (State, bool) {
	st, ok := s.states[id]
	return st, ok
}

// Container returns the raw engine metadata for an installed service
func (s Snapshot) Container(id catalog.ServiceID) (engine.Container, bool) {
	c, ok := s.containers[id]
	return c, ok
}

// Installed returns installed services in catalog order
func (s Snapshot) Installed() []catalog.ServiceID {
	var out []catalog.ServiceID
	for _, id := range catalog.All() {
		if _, ok := s.states[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

// States returns a copy of the installed-service mapping
func (s Snapshot) States() map[catalog.ServiceID]State {
	out := make(map[catalog.ServiceID]State, len(s.states))
	for k, v := range s.states {
		out[k] = v
	}
	return out
}
