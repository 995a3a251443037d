// Package confirm holds the two-step delete confirmation state machine.
package confirm

import "sync"

// State is where a Machine stands.
type State int

const (
	Idle State = iota
	PendingConfirmation
)

func (s State) String() string {
	if s == PendingConfirmation {
		return "pending_confirmation"
	}
	return "idle"
}

// Machine tracks one pending delete request.
//
//	Idle --Request(id)--> PendingConfirmation(id)
//	PendingConfirmation --Confirm--> Idle, returns id to delete
//	PendingConfirmation --Cancel--> Idle
type Machine struct {
	state State
	id    string
}

// Request asks to delete id. A second request replaces the first.
func (m *Machine) Request(id string) {
	m.state = PendingConfirmation
	m.id = id
}

// Confirm returns the pending id and goes back to Idle. ok is false when
// nothing was pending.
func (m *Machine) Confirm() (id string, ok bool) {
	if m.state != PendingConfirmation {
		return "", false
	}
	id = m.id
	m.reset()
	return id, true
}

// Cancel drops any pending request.
func (m *Machine) Cancel() {
	m.reset()
}

// State returns the current state.
func (m *Machine) State() State { return m.state }

// Pending returns the id awaiting confirmation, if any.
func (m *Machine) Pending() (string, bool) {
	return m.id, m.state == PendingConfirmation
}

func (m *Machine) reset() {
	m.state = Idle
	m.id = ""
}

// Registry keeps one Machine per session key (e.g. a browser cookie).
type Registry struct {
	mu       sync.Mutex
	machines map[string]*Machine
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{machines: make(map[string]*Machine)}
}

// Do runs fn against the session's machine while holding the registry lock.
// Machines that return to Idle are dropped.
func (r *Registry) Do(session string, fn func(m *Machine)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.machines[session]
	if !ok {
		m = &Machine{}
	}
	fn(m)
	if m.State() == Idle {
		delete(r.machines, session)
		return
	}
	r.machines[session] = m
}

// Len returns how many sessions have a pending request.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.machines)
}
