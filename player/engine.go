// Package player implements the display client's gapless playback core: a
// dual-buffer switch engine that preloads the next clip on the standby
// buffer and swaps it in just before the active clip runs out.
package player

import (
	"log"
	"math/rand"
	"sync"
	"time"

	"kioskagent/catalog"
	"kioskagent/config"
	"kioskagent/types"
)

// Slot identifies one of the two playback buffers.
type Slot int

const (
	SlotA Slot = iota
	SlotB
)

func (s Slot) other() Slot {
	if s == SlotA {
		return SlotB
	}
	return SlotA
}

func (s Slot) String() string {
	if s == SlotA {
		return "A"
	}
	return "B"
}

// Driver is the media backend behind the two buffers. Load begins
// preloading and must report readiness asynchronously via OnReady; Play,
// Pause and Raise take effect immediately. Drivers must never invoke
// engine callbacks synchronously from within these methods.
type Driver interface {
	Load(slot Slot, path string)
	Play(slot Slot)
	Pause(slot Slot)
	Raise(slot Slot)
}

// Notifier receives playback lifecycle events (types.EventPlaybackStarted
// and types.EventPlaybackEnded) for upstream telemetry.
type Notifier func(event, clip string)

type slotState struct {
	clip    string
	ready   bool
	playing bool
}

// Engine owns the two buffer slots. Exactly one slot is active (topmost)
// at all times; a swap in progress is guarded by a single boolean, so
// concurrent swap attempts are rejected rather than interleaved.
type Engine struct {
	mu     sync.Mutex
	driver Driver
	notify Notifier

	// Pick selects the next random clip. Replaceable in tests.
	Pick catalog.Picker

	// SwapThreshold is how much remaining playtime triggers the
	// preemptive swap.
	SwapThreshold time.Duration

	pool   []string
	active Slot
	slots  [2]slotState

	swapInProgress bool
	swapTriggered  bool
	swapOnReady    bool // standby should swap in the moment it reports ready

	sequence []string // directed clips still to play (bridge first)
	started  bool
}

// NewEngine creates an engine over the given driver.
func NewEngine(driver Driver) *Engine {
	return &Engine{
		driver:        driver,
		Pick:          catalog.RandomPicker(rand.New(rand.NewSource(time.Now().UnixNano()))),
		SwapThreshold: config.SwapThreshold,
	}
}

// SetNotifier installs the telemetry callback.
func (e *Engine) SetNotifier(n Notifier) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.notify = n
}

// Active returns the currently topmost slot.
func (e *Engine) Active() Slot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// CurrentClip returns the clip on the active slot.
func (e *Engine) CurrentClip() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.slots[e.active].clip
}

// SetPool replaces the random playback pool. Takes effect on the next
// preload, after any directed sequence completes.
func (e *Engine) SetPool(pool []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pool = append([]string(nil), pool...)
}

// Start loads a random clip from pool onto slot A and makes it active.
// The second clip is preloaded once the first reports playing.
func (e *Engine) Start(pool []string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.pool = append([]string(nil), pool...)
	first := e.Pick(e.pool, "")
	if first == "" {
		log.Printf("⚠️  Playback pool is empty, engine idle")
		return
	}

	e.started = true
	e.active = SlotA
	e.slots[SlotA] = slotState{clip: first}
	e.slots[SlotB] = slotState{}
	e.driver.Load(SlotA, first)
	e.driver.Raise(SlotA)
}

// PlaySequence directs playback through a bridge and/or target clip
// instead of a random pick. Whichever clips are present are queued (bridge
// first), the head is loaded onto standby, and the swap fires as soon as
// it is ready. Random looping over the current pool resumes afterward.
func (e *Engine) PlaySequence(bridgeClip, targetClip string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	seq := make([]string, 0, 2)
	if bridgeClip != "" {
		seq = append(seq, bridgeClip)
	}
	if targetClip != "" {
		seq = append(seq, targetClip)
	}
	if len(seq) == 0 {
		return
	}

	e.sequence = seq[1:]
	standby := e.active.other()
	e.slots[standby] = slotState{clip: seq[0]}
	e.swapOnReady = true
	e.swapTriggered = false
	e.driver.Load(standby, seq[0])
}

// OnReady is the driver's buffering-complete signal.
func (e *Engine) OnReady(slot Slot) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.slots[slot].ready = true

	if slot == e.active {
		// Initial load: begin playing as soon as the buffer fills.
		if e.started && !e.slots[slot].playing {
			e.driver.Play(slot)
		}
		return
	}

	if e.swapOnReady {
		e.swapOnReady = false
		e.beginSwap()
	}
}

// OnPlaying is the driver's "now playing" signal.
func (e *Engine) OnPlaying(slot Slot) {
	e.mu.Lock()
	defer e.mu.Unlock()

	first := !e.slots[slot].playing
	e.slots[slot].playing = true

	if first {
		e.emit(types.EventPlaybackStarted, e.slots[slot].clip)
	}

	if slot != e.active && e.swapInProgress {
		e.completeSwap()
		return
	}

	// First clip is rolling: preload the second random pick.
	if slot == e.active && e.slots[e.active.other()].clip == "" && len(e.sequence) == 0 {
		e.preloadStandby()
	}
}

// OnTimeUpdate is the driver's position callback for a playing slot.
// Positions are seconds on the clip's own timeline.
func (e *Engine) OnTimeUpdate(slot Slot, position, duration float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if slot != e.active || duration <= 0 {
		return
	}

	remaining := time.Duration((duration - position) * float64(time.Second))
	standby := e.active.other()
	if remaining <= e.SwapThreshold && e.slots[standby].ready && !e.swapTriggered {
		e.swapTriggered = true
		e.beginSwap()
	}
}

// OnEnded is the driver's end-of-media signal. When the preemptive path
// did not fire in time, this is the fallback swap: immediate if standby is
// ready, otherwise deferred to standby's ready signal.
func (e *Engine) OnEnded(slot Slot) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.slots[slot].playing = false

	if slot != e.active {
		return
	}
	if e.swapInProgress {
		// Preemptive swap already running; it completes regardless.
		return
	}

	if e.slots[e.active.other()].ready {
		e.beginSwap()
	} else {
		e.swapOnReady = true
	}
}

// OnError routes a media fault into the fallback swap path; a decode error
// must not halt the loop.
func (e *Engine) OnError(slot Slot) {
	log.Printf("⚠️  Media error on slot %s, forcing end of clip", slot)
	e.OnEnded(slot)
}

// beginSwap starts playing the standby slot. Both buffers play during a
// brief overlap; promotion happens on standby's playing signal. Callers
// hold e.mu.
func (e *Engine) beginSwap() {
	standby := e.active.other()
	if e.slots[standby].clip == "" {
		return
	}
	if e.swapInProgress {
		// A directed sequence can replace the standby clip mid-swap;
		// converge the in-flight swap on whatever is loaded now.
		if !e.slots[standby].playing {
			e.driver.Play(standby)
		}
		return
	}
	e.swapInProgress = true

	if e.slots[standby].playing {
		e.completeSwap()
		return
	}
	e.driver.Play(standby)
}

// completeSwap promotes standby to active: raise it, pause and clear the
// old active, then kick off the next preload. Callers hold e.mu.
func (e *Engine) completeSwap() {
	old := e.active
	next := old.other()

	e.driver.Raise(next)
	e.driver.Pause(old)
	e.emit(types.EventPlaybackEnded, e.slots[old].clip)

	previous := e.slots[old].clip
	e.active = next
	e.slots[old] = slotState{}
	e.swapInProgress = false
	e.swapTriggered = false

	if len(e.sequence) > 0 {
		clip := e.sequence[0]
		e.sequence = e.sequence[1:]
		e.slots[old] = slotState{clip: clip}
		e.swapOnReady = true
		e.driver.Load(old, clip)
		return
	}

	if clip := e.Pick(e.pool, previous); clip != "" {
		e.slots[old] = slotState{clip: clip}
		e.driver.Load(old, clip)
	}
}

// preloadStandby loads a random clip, excluding the active one, onto the
// standby slot. Callers hold e.mu.
func (e *Engine) preloadStandby() {
	standby := e.active.other()
	clip := e.Pick(e.pool, e.slots[e.active].clip)
	if clip == "" {
		return
	}
	e.slots[standby] = slotState{clip: clip}
	e.driver.Load(standby, clip)
}

// emit reports a playback lifecycle event. Callers hold e.mu.
func (e *Engine) emit(event, clip string) {
	if e.notify == nil || clip == "" {
		return
	}
	e.notify(event, clip)
}
