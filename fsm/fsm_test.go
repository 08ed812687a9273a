package fsm

import "testing"

func newTestMachine() *Machine {
	return New([]string{"IDLE", "GREET", "SHOW"}, "IDLE")
}

func TestTransition(t *testing.T) {
	m := newTestMachine()

	res := m.Transition("GREET")
	if res == nil {
		t.Fatal("expected a transition result")
	}
	if res.From != "IDLE" || res.To != "GREET" {
		t.Errorf("got %s->%s, want IDLE->GREET", res.From, res.To)
	}
	if m.Current() != "GREET" {
		t.Errorf("current = %s, want GREET", m.Current())
	}
}

func TestTransitionToCurrentIsNoop(t *testing.T) {
	m := newTestMachine()

	for _, s := range m.States() {
		m.Reset()
		m.Transition(s)
		if res := m.Transition(s); res != nil {
			t.Errorf("self-transition to %s returned %+v, want nil", s, res)
		}
		if m.Current() != s && s != "IDLE" {
			t.Errorf("current changed to %s after self-transition to %s", m.Current(), s)
		}
	}
}

func TestTransitionToUndeclaredIsNoop(t *testing.T) {
	m := newTestMachine()

	if res := m.Transition("DANCE"); res != nil {
		t.Errorf("undeclared transition returned %+v, want nil", res)
	}
	if m.Current() != "IDLE" {
		t.Errorf("current = %s, want IDLE", m.Current())
	}
}

func TestReset(t *testing.T) {
	m := newTestMachine()

	m.Transition("SHOW")
	res := m.Reset()
	if res == nil {
		t.Fatal("expected a reset result")
	}
	if res.From != "SHOW" || res.To != "IDLE" {
		t.Errorf("got %s->%s, want SHOW->IDLE", res.From, res.To)
	}
	if m.Current() != "IDLE" {
		t.Errorf("current = %s, want IDLE", m.Current())
	}
}

func TestResetFromDefaultStillReports(t *testing.T) {
	m := newTestMachine()

	res := m.Reset()
	if res == nil {
		t.Fatal("reset from default returned nil, want a result")
	}
	if res.From != "IDLE" || res.To != "IDLE" {
		t.Errorf("got %s->%s, want IDLE->IDLE", res.From, res.To)
	}
}

func TestDefaultAlwaysDeclared(t *testing.T) {
	m := New([]string{"GREET"}, "IDLE")

	if m.Current() != "IDLE" {
		t.Errorf("current = %s, want IDLE", m.Current())
	}
	if res := m.Transition("GREET"); res == nil {
		t.Fatal("expected GREET to be declared")
	}
	if res := m.Transition("IDLE"); res == nil {
		t.Error("expected IDLE to be transitionable back to")
	}
}
