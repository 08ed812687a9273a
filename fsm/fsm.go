package fsm

import "sync"

// TransitionResult records a completed state change.
type TransitionResult struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Machine holds the single current behavioral state and validates
// transitions against the declared state set.
type Machine struct {
	mu           sync.Mutex
	states       map[string]bool
	ordered      []string
	defaultState string
	current      string
}

// New creates a machine over the declared state set. The default state is
// added to the set if missing, and is the initial current state.
func New(states []string, defaultState string) *Machine {
	m := &Machine{
		states:       make(map[string]bool, len(states)+1),
		defaultState: defaultState,
		current:      defaultState,
	}
	for _, s := range states {
		if !m.states[s] {
			m.states[s] = true
			m.ordered = append(m.ordered, s)
		}
	}
	if !m.states[defaultState] {
		m.states[defaultState] = true
		m.ordered = append([]string{defaultState}, m.ordered...)
	}
	return m
}

// Current returns the active behavioral state.
func (m *Machine) Current() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Default returns the default/initial state.
func (m *Machine) Default() string {
	return m.defaultState
}

// States returns the declared state set in order.
func (m *Machine) States() []string {
	return append([]string(nil), m.ordered...)
}

// Transition moves to target. Returns nil when target is undeclared or
// already current; the state is unchanged in both cases.
func (m *Machine) Transition(target string) *TransitionResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.states[target] || target == m.current {
		return nil
	}

	from := m.current
	m.current = target
	return &TransitionResult{From: from, To: target}
}

// Reset forces the default state. Always returns a result, even when the
// machine is already at default, so callers can drive clear/broadcast logic.
func (m *Machine) Reset() *TransitionResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	from := m.current
	m.current = m.defaultState
	return &TransitionResult{From: from, To: m.defaultState}
}
