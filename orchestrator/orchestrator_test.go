package orchestrator

import (
	"encoding/json"
	"testing"

	"kioskagent/catalog"
	"kioskagent/fsm"
	"kioskagent/hub"
	"kioskagent/types"
)

// fakeBroadcaster records every broadcast and unicast event.
type fakeBroadcaster struct {
	broadcasts []interface{}
	sends      []interface{}
	channels   int
}

func (f *fakeBroadcaster) Broadcast(event interface{})            { f.broadcasts = append(f.broadcasts, event) }
func (f *fakeBroadcaster) Send(_ *hub.Channel, event interface{}) { f.sends = append(f.sends, event) }
func (f *fakeBroadcaster) Count() int                             { return f.channels }

func clip(path string) catalog.ClipInfo {
	return catalog.ClipInfo{Path: path, Filename: path}
}

func testCatalog() *catalog.Catalog {
	return &catalog.Catalog{
		IdleLoops: []catalog.ClipInfo{clip("idle_a.mp4")},
		Actions: []catalog.ClipInfo{
			clip("greet_nod.mp4"),
			clip("greet_wave.mp4"),
		},
		Bridges: []catalog.BridgeClip{
			{ClipInfo: clip("idle_to_greet.mp4"), From: "idle", To: "greet"},
			{ClipInfo: clip("greet_to_idle.mp4"), From: "greet", To: "idle"},
		},
	}
}

func newTestOrchestrator(b Broadcaster) *Orchestrator {
	o := &Orchestrator{
		machine: fsm.New([]string{"IDLE", "GREET", "SHOW"}, "IDLE"),
		hub:     b,
		// Deterministic: always the first candidate.
		Pick: func(pool []string, excluding string) string {
			if len(pool) == 0 {
				return ""
			}
			return pool[0]
		},
	}
	o.cat = testCatalog()
	return o
}

func handle(t *testing.T, o *Orchestrator, payload string) {
	t.Helper()
	o.HandleRaw([]byte(payload))
}

func lastTransition(t *testing.T, b *fakeBroadcaster) types.TransitionEvent {
	t.Helper()
	for i := len(b.broadcasts) - 1; i >= 0; i-- {
		if ev, ok := b.broadcasts[i].(types.TransitionEvent); ok {
			return ev
		}
	}
	t.Fatal("no fsm.transition broadcast found")
	return types.TransitionEvent{}
}

func TestManualTransitionBroadcast(t *testing.T) {
	b := &fakeBroadcaster{}
	o := newTestOrchestrator(b)

	handle(t, o, `{"type":"fsm.manual","state":"GREET"}`)

	ev := lastTransition(t, b)
	if ev.From != "IDLE" || ev.To != "GREET" {
		t.Errorf("transition %s->%s, want IDLE->GREET", ev.From, ev.To)
	}
	if ev.BridgeClip == nil || *ev.BridgeClip != "idle_to_greet.mp4" {
		t.Errorf("bridgeClip = %v, want idle_to_greet.mp4", ev.BridgeClip)
	}
	if len(ev.StateClips) != 2 {
		t.Fatalf("stateClips = %v, want both greet clips", ev.StateClips)
	}
	if ev.NextClip == nil || *ev.NextClip != "greet_nod.mp4" {
		t.Errorf("nextClip = %v, want deterministic first greet clip", ev.NextClip)
	}
}

func TestManualNoopIsSilent(t *testing.T) {
	b := &fakeBroadcaster{}
	o := newTestOrchestrator(b)

	handle(t, o, `{"type":"fsm.manual","state":"IDLE"}`)
	handle(t, o, `{"type":"fsm.manual","state":"NOPE"}`)

	if len(b.broadcasts) != 0 {
		t.Errorf("no-op transitions broadcast %d events, want 0", len(b.broadcasts))
	}
}

func TestResetBroadcastsTransitionThenClearAll(t *testing.T) {
	b := &fakeBroadcaster{}
	o := newTestOrchestrator(b)
	handle(t, o, `{"type":"fsm.manual","state":"GREET"}`)
	b.broadcasts = nil

	handle(t, o, `{"type":"fsm.reset"}`)

	if len(b.broadcasts) != 2 {
		t.Fatalf("reset broadcast %d events, want 2", len(b.broadcasts))
	}
	tr, ok := b.broadcasts[0].(types.TransitionEvent)
	if !ok {
		t.Fatalf("first broadcast = %T, want TransitionEvent", b.broadcasts[0])
	}
	if tr.From != "GREET" || tr.To != "IDLE" {
		t.Errorf("reset transition %s->%s", tr.From, tr.To)
	}
	if tr.NextClip != nil {
		t.Errorf("reset nextClip = %v, want nil", tr.NextClip)
	}
	if tr.BridgeClip == nil || *tr.BridgeClip != "greet_to_idle.mp4" {
		t.Errorf("reset bridgeClip = %v, want exit bridge", tr.BridgeClip)
	}
	ov, ok := b.broadcasts[1].(types.OverlayApplied)
	if !ok || ov.Name != "clearAll" {
		t.Errorf("second broadcast = %+v, want overlay.applied clearAll", b.broadcasts[1])
	}
}

func TestOverlayEventsDoubleBroadcast(t *testing.T) {
	b := &fakeBroadcaster{}
	o := newTestOrchestrator(b)

	raw := `{"type":"overlay.subtitle.set","text":"hello","ttlMs":3000}`
	handle(t, o, raw)

	if len(b.broadcasts) != 2 {
		t.Fatalf("overlay broadcast %d events, want 2", len(b.broadcasts))
	}
	ov, ok := b.broadcasts[0].(types.OverlayApplied)
	if !ok {
		t.Fatalf("first broadcast = %T", b.broadcasts[0])
	}
	if ov.Name != "subtitle.set" {
		t.Errorf("applied name = %q, want subtitle.set", ov.Name)
	}
	if ov.Details["text"] != "hello" {
		t.Errorf("applied details = %v", ov.Details)
	}
	rawOut, ok := b.broadcasts[1].(json.RawMessage)
	if !ok {
		t.Fatalf("second broadcast = %T, want raw message", b.broadcasts[1])
	}
	if string(rawOut) != raw {
		t.Errorf("raw rebroadcast = %s", rawOut)
	}
}

func TestPlaybackPassThrough(t *testing.T) {
	b := &fakeBroadcaster{}
	o := newTestOrchestrator(b)

	handle(t, o, `{"type":"playback.started","clip":"greet_wave.mp4"}`)
	handle(t, o, `{"type":"playback.ended","clip":"greet_wave.mp4"}`)
	handle(t, o, `{"type":"playback.queue","length":3}`)

	if len(b.broadcasts) != 3 {
		t.Fatalf("passthrough broadcast %d events, want 3", len(b.broadcasts))
	}
	st := o.Status()
	if st.CurrentClip != "greet_wave.mp4" {
		t.Errorf("currentClip = %q", st.CurrentClip)
	}
	if st.QueueLength != 3 {
		t.Errorf("queueLength = %d, want 3", st.QueueLength)
	}
	if st.State != "IDLE" {
		t.Errorf("telemetry touched the state machine: %s", st.State)
	}
}

func TestUnknownAndMalformedIgnored(t *testing.T) {
	b := &fakeBroadcaster{}
	o := newTestOrchestrator(b)

	handle(t, o, `{"type":"mystery.event"}`)
	handle(t, o, `{"no":"type"}`)
	handle(t, o, `not json at all`)

	if len(b.broadcasts) != 0 {
		t.Errorf("ignored events broadcast %d events", len(b.broadcasts))
	}
}

func TestOnConnectUnicastsStatus(t *testing.T) {
	b := &fakeBroadcaster{channels: 2}
	o := newTestOrchestrator(b)

	o.OnConnect(&hub.Channel{ID: "c1"})

	if len(b.sends) != 1 {
		t.Fatalf("sends = %d, want 1", len(b.sends))
	}
	st, ok := b.sends[0].(types.StatusEvent)
	if !ok {
		t.Fatalf("unicast = %T, want StatusEvent", b.sends[0])
	}
	if st.State != "IDLE" || !st.Online || st.Channels != 2 {
		t.Errorf("status = %+v", st)
	}
	if len(b.broadcasts) != 0 {
		t.Error("status snapshot must not be broadcast")
	}
}
