// Package orchestrator mediates control events: it drives the behavioral
// state machine, resolves bridge clips, and emits broadcast events to every
// connected display channel.
package orchestrator

import (
	"log"
	"math/rand"
	"sync"
	"time"

	"kioskagent/catalog"
	"kioskagent/fsm"
	"kioskagent/hub"
	"kioskagent/types"
)

// Broadcaster fans events out to channels. Satisfied by *hub.Hub; faked in
// tests.
type Broadcaster interface {
	Broadcast(event interface{})
	Send(ch *hub.Channel, event interface{})
	Count() int
}

// StateStore persists the current behavioral state across restarts.
// Satisfied by *statestore.Store; nil disables persistence.
type StateStore interface {
	Save(state string) error
	Load() (string, error)
}

// Orchestrator consumes control events and owns the catalog snapshot.
// Event handling is serialized: each event runs to completion before the
// next is processed.
type Orchestrator struct {
	mu      sync.Mutex
	machine *fsm.Machine
	scanner *catalog.Scanner
	cat     *catalog.Catalog
	hub     Broadcaster

	// Pick selects nextClip from a state's pool. Replaceable in tests.
	Pick catalog.Picker

	// Store persists behavioral state when non-nil.
	Store StateStore

	// ActionPrefix overrides the lowercased-state token used to select
	// action clips. Empty means derive from the state name.
	ActionPrefix string

	previousState string
	currentClip   string
	queueLength   int
	lastError     string
}

// New creates an orchestrator and performs the initial catalog scan.
func New(machine *fsm.Machine, scanner *catalog.Scanner, b Broadcaster) *Orchestrator {
	o := &Orchestrator{
		machine: machine,
		scanner: scanner,
		hub:     b,
		Pick:    catalog.RandomPicker(rand.New(rand.NewSource(time.Now().UnixNano()))),
	}
	o.cat = scanner.Scan()
	return o
}

// Catalog returns the current catalog snapshot.
func (o *Orchestrator) Catalog() *catalog.Catalog {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cat
}

// Rescan rebuilds the catalog wholesale and swaps it in.
func (o *Orchestrator) Rescan() *catalog.Catalog {
	cat := o.scanner.Scan()
	o.mu.Lock()
	o.cat = cat
	o.mu.Unlock()
	log.Printf("📁 Catalog rescanned: %d idle, %d bridges, %d actions",
		len(cat.IdleLoops), len(cat.Bridges), len(cat.Actions))
	return cat
}

// RestoreState re-enters the last persisted behavioral state, if any.
func (o *Orchestrator) RestoreState() {
	if o.Store == nil {
		return
	}
	state, err := o.Store.Load()
	if err != nil {
		log.Printf("⚠️  State restore failed: %v", err)
		return
	}
	if state == "" || state == o.machine.Default() {
		return
	}
	if res := o.machine.Transition(state); res != nil {
		log.Printf("♻️  Restored behavioral state: %s", state)
	}
}

// Status returns the current status snapshot.
func (o *Orchestrator) Status() types.Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.statusLocked()
}

func (o *Orchestrator) statusLocked() types.Status {
	channels := 0
	if o.hub != nil {
		channels = o.hub.Count()
	}
	return types.Status{
		State:         o.machine.Current(),
		PreviousState: o.previousState,
		CurrentClip:   o.currentClip,
		QueueLength:   o.queueLength,
		LastError:     o.lastError,
		Online:        channels > 0,
		Channels:      channels,
	}
}

// OnConnect unicasts a full status snapshot to a newly attached channel.
func (o *Orchestrator) OnConnect(ch *hub.Channel) {
	o.hub.Send(ch, types.NewStatusEvent(o.Status()))
}

// HandleInbound is the hub's inbound handler.
func (o *Orchestrator) HandleInbound(_ *hub.Channel, data []byte) {
	o.HandleRaw(data)
}

// HandleRaw parses and handles one control event. Parse failures are
// dropped silently; nothing propagates back to the transport layer.
func (o *Orchestrator) HandleRaw(data []byte) {
	ev, err := types.ParseControl(data)
	if err != nil {
		log.Printf("⚠️  Ignoring malformed control event: %v", err)
		return
	}
	o.HandleEvent(ev)
}

// HandleEvent executes one control event to completion. Unknown event
// types are ignored.
func (o *Orchestrator) HandleEvent(ev *types.ControlEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch {
	case ev.Type == types.EventFSMManual:
		res := o.machine.Transition(ev.StringField("state"))
		if res == nil {
			return
		}
		o.broadcastTransition(res)

	case ev.Type == types.EventFSMReset:
		res := o.machine.Reset()
		o.broadcastTransition(res)
		o.hub.Broadcast(types.NewOverlayApplied("clearAll", nil))

	case ev.Type == types.EventPlaybackStarted:
		o.currentClip = ev.StringField("clip")
		o.hub.Broadcast(ev.Raw)

	case ev.Type == types.EventPlaybackEnded:
		o.hub.Broadcast(ev.Raw)

	case ev.Type == types.EventPlaybackQueue:
		if n, ok := ev.Fields["length"].(float64); ok {
			o.queueLength = int(n)
		}
		o.hub.Broadcast(ev.Raw)

	case ev.Type == types.EventQueueClear:
		o.queueLength = 0
		o.hub.Broadcast(ev.Raw)

	case ev.IsOverlay():
		o.hub.Broadcast(types.NewOverlayApplied(ev.OverlayName(), ev.Fields))
		o.hub.Broadcast(ev.Raw)

	default:
		// Unknown event type: ignore.
	}
}

// broadcastTransition resolves the bridge and destination pool for a
// completed transition and announces it. Entering the default state never
// prescribes a clip: displays resume their idle loop locally.
func (o *Orchestrator) broadcastTransition(res *fsm.TransitionResult) {
	defaultState := o.machine.Default()

	var bridgePath *string
	if b := o.cat.FindBridge(res.From, res.To, defaultState); b != nil {
		bridgePath = &b.Path
	}

	stateClips := catalog.Paths(o.cat.StateClips(res.To, defaultState, o.ActionPrefix))

	var nextClip *string
	if res.To != defaultState {
		if picked := o.Pick(stateClips, ""); picked != "" {
			nextClip = &picked
		}
	}

	o.previousState = res.From
	o.persistState(res.To)

	log.Printf("🎭 %s → %s (bridge=%v, pool=%d)", res.From, res.To, bridgePath != nil, len(stateClips))
	o.hub.Broadcast(types.NewTransition(res.From, res.To, bridgePath, nextClip, stateClips))
}

func (o *Orchestrator) persistState(state string) {
	if o.Store == nil {
		return
	}
	if err := o.Store.Save(state); err != nil {
		o.lastError = err.Error()
		log.Printf("⚠️  State persist failed: %v", err)
	}
}
