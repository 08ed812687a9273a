package player

import (
	"testing"

	"kioskagent/types"
)

type loadCall struct {
	slot Slot
	path string
}

// fakeDriver records driver calls; the test script fires engine callbacks.
type fakeDriver struct {
	loads  []loadCall
	plays  []Slot
	pauses []Slot
	raises []Slot
}

func (d *fakeDriver) Load(slot Slot, path string) { d.loads = append(d.loads, loadCall{slot, path}) }
func (d *fakeDriver) Play(slot Slot)              { d.plays = append(d.plays, slot) }
func (d *fakeDriver) Pause(slot Slot)             { d.pauses = append(d.pauses, slot) }
func (d *fakeDriver) Raise(slot Slot)             { d.raises = append(d.raises, slot) }

func (d *fakeDriver) lastLoad() loadCall {
	return d.loads[len(d.loads)-1]
}

// firstPick always selects the first candidate not excluded.
func firstPick(pool []string, excluding string) string {
	for _, p := range pool {
		if p != excluding {
			return p
		}
	}
	if len(pool) > 0 {
		return pool[0]
	}
	return ""
}

func newTestEngine() (*Engine, *fakeDriver, *[]string) {
	d := &fakeDriver{}
	e := NewEngine(d)
	e.Pick = firstPick

	events := &[]string{}
	e.SetNotifier(func(event, clip string) {
		*events = append(*events, event+":"+clip)
	})
	return e, d, events
}

var pool = []string{"idle_a.mp4", "idle_b.mp4", "idle_c.mp4"}

// startRolling brings the engine to steady state: A playing, B preloaded+ready.
func startRolling(e *Engine, d *fakeDriver) {
	e.Start(pool)
	e.OnReady(SlotA)
	e.OnPlaying(SlotA)
	e.OnReady(SlotB)
}

func TestStartLoadsAndPreloads(t *testing.T) {
	e, d, events := newTestEngine()

	e.Start(pool)
	if len(d.loads) != 1 || d.loads[0] != (loadCall{SlotA, "idle_a.mp4"}) {
		t.Fatalf("loads = %+v", d.loads)
	}
	if e.Active() != SlotA {
		t.Errorf("active = %s, want A", e.Active())
	}

	e.OnReady(SlotA)
	if len(d.plays) != 1 || d.plays[0] != SlotA {
		t.Fatalf("plays = %+v, want [A]", d.plays)
	}

	e.OnPlaying(SlotA)
	if len(d.loads) != 2 {
		t.Fatalf("expected standby preload, loads = %+v", d.loads)
	}
	if d.loads[1].slot != SlotB || d.loads[1].path == "idle_a.mp4" {
		t.Errorf("standby preload = %+v, must exclude the active clip", d.loads[1])
	}
	if len(*events) != 1 || (*events)[0] != types.EventPlaybackStarted+":idle_a.mp4" {
		t.Errorf("events = %v", *events)
	}
}

func TestPreemptiveSwap(t *testing.T) {
	e, d, events := newTestEngine()
	startRolling(e, d)

	// Far from the end: no swap.
	e.OnTimeUpdate(SlotA, 1.0, 5.0)
	if len(d.plays) != 1 {
		t.Fatalf("swap fired too early, plays = %+v", d.plays)
	}

	// Inside the threshold: standby starts, overlap begins.
	e.OnTimeUpdate(SlotA, 4.95, 5.0)
	if len(d.plays) != 2 || d.plays[1] != SlotB {
		t.Fatalf("plays = %+v, want standby started", d.plays)
	}
	if e.Active() != SlotA {
		t.Error("promotion must wait for standby's playing signal")
	}

	// Re-entering the threshold must not start a second swap.
	e.OnTimeUpdate(SlotA, 4.97, 5.0)
	if len(d.plays) != 2 {
		t.Fatalf("swap interleaved, plays = %+v", d.plays)
	}

	e.OnPlaying(SlotB)
	if e.Active() != SlotB {
		t.Fatalf("active = %s, want B after promotion", e.Active())
	}
	if len(d.raises) != 2 || d.raises[1] != SlotB {
		t.Errorf("raises = %+v", d.raises)
	}
	if len(d.pauses) != 1 || d.pauses[0] != SlotA {
		t.Errorf("pauses = %+v", d.pauses)
	}
	// Fresh random clip, excluding the one that just finished.
	last := d.lastLoad()
	if last.slot != SlotA || last.path == "idle_a.mp4" {
		t.Errorf("post-swap preload = %+v", last)
	}

	want := []string{
		types.EventPlaybackStarted + ":idle_a.mp4",
		types.EventPlaybackStarted + ":idle_b.mp4",
		types.EventPlaybackEnded + ":idle_a.mp4",
	}
	if len(*events) != len(want) {
		t.Fatalf("events = %v", *events)
	}
	for i, w := range want {
		if (*events)[i] != w {
			t.Errorf("event[%d] = %s, want %s", i, (*events)[i], w)
		}
	}
}

func TestFallbackSwapWhenStandbyReady(t *testing.T) {
	e, d, _ := newTestEngine()
	startRolling(e, d)

	e.OnEnded(SlotA)
	if len(d.plays) != 2 || d.plays[1] != SlotB {
		t.Fatalf("plays = %+v, want fallback swap", d.plays)
	}
	e.OnPlaying(SlotB)
	if e.Active() != SlotB {
		t.Errorf("active = %s, want B", e.Active())
	}
}

func TestFallbackSwapWaitsForReady(t *testing.T) {
	e, d, _ := newTestEngine()
	e.Start(pool)
	e.OnReady(SlotA)
	e.OnPlaying(SlotA)
	// Standby loaded but not yet ready.

	e.OnEnded(SlotA)
	if len(d.plays) != 1 {
		t.Fatalf("swap fired before standby was ready, plays = %+v", d.plays)
	}

	e.OnReady(SlotB)
	if len(d.plays) != 2 || d.plays[1] != SlotB {
		t.Fatalf("plays = %+v, want deferred swap on ready", d.plays)
	}
	e.OnPlaying(SlotB)
	if e.Active() != SlotB {
		t.Errorf("active = %s, want B", e.Active())
	}
}

func TestMediaErrorActsAsEnded(t *testing.T) {
	e, d, _ := newTestEngine()
	startRolling(e, d)

	e.OnError(SlotA)
	if len(d.plays) != 2 || d.plays[1] != SlotB {
		t.Fatalf("plays = %+v, want swap after media error", d.plays)
	}
}

func TestPlaySequenceBridgeThenTarget(t *testing.T) {
	e, d, _ := newTestEngine()
	startRolling(e, d)
	e.SetPool([]string{"greet_nod.mp4", "greet_wave.mp4"})

	e.PlaySequence("idle_to_greet.mp4", "greet_wave.mp4")
	if d.lastLoad() != (loadCall{SlotB, "idle_to_greet.mp4"}) {
		t.Fatalf("loads = %+v, want bridge on standby", d.loads)
	}

	// Bridge swaps in the moment it is ready.
	e.OnReady(SlotB)
	if len(d.plays) != 2 || d.plays[1] != SlotB {
		t.Fatalf("plays = %+v", d.plays)
	}
	e.OnPlaying(SlotB)
	if e.Active() != SlotB {
		t.Fatal("bridge not promoted")
	}
	if d.lastLoad() != (loadCall{SlotA, "greet_wave.mp4"}) {
		t.Fatalf("loads = %+v, want target preloaded next", d.loads)
	}

	// Target follows the same swap-on-ready path.
	e.OnReady(SlotA)
	e.OnPlaying(SlotA)
	if e.Active() != SlotA {
		t.Fatal("target not promoted")
	}
	if e.CurrentClip() != "greet_wave.mp4" {
		t.Errorf("current = %s", e.CurrentClip())
	}

	// Random looping resumes over the new state pool.
	last := d.lastLoad()
	if last.slot != SlotB || last.path != "greet_nod.mp4" {
		t.Errorf("post-sequence preload = %+v, want pool clip", last)
	}
}

func TestPlaySequenceBridgeOnly(t *testing.T) {
	e, d, _ := newTestEngine()
	startRolling(e, d)

	e.PlaySequence("greet_to_idle.mp4", "")
	if d.lastLoad() != (loadCall{SlotB, "greet_to_idle.mp4"}) {
		t.Fatalf("loads = %+v", d.loads)
	}
	e.OnReady(SlotB)
	e.OnPlaying(SlotB)
	if e.Active() != SlotB {
		t.Fatal("bridge not promoted")
	}
	// No target: next load is a random pool pick.
	last := d.lastLoad()
	if last.slot != SlotA || last.path == "" {
		t.Errorf("post-bridge preload = %+v", last)
	}
}

func TestExactlyOneActiveSlot(t *testing.T) {
	e, d, _ := newTestEngine()
	startRolling(e, d)

	steps := []func(){
		func() { e.OnTimeUpdate(SlotA, 4.95, 5.0) },
		func() { e.OnPlaying(SlotB) },
		func() { e.OnReady(SlotA) },
		func() { e.OnEnded(SlotB) },
		func() { e.OnPlaying(SlotA) },
	}
	for i, step := range steps {
		step()
		if a := e.Active(); a != SlotA && a != SlotB {
			t.Fatalf("step %d: active slot invalid: %v", i, a)
		}
	}
}

func TestEmptyPoolStaysIdle(t *testing.T) {
	e, d, _ := newTestEngine()

	e.Start(nil)
	if len(d.loads) != 0 {
		t.Errorf("loads = %+v, want none for empty pool", d.loads)
	}
}
