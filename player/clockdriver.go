package player

import (
	"sync"
	"time"

	"kioskagent/config"
)

// ClockDriver simulates media timelines from probed clip durations: a
// ticker advances each playing slot's position and fires the engine's
// timeline callbacks. It backs headless displays and soak runs, where
// swap behavior matters but pixels do not.
//
// All engine callbacks are invoked from the driver's own goroutines, never
// synchronously from a Load/Play/Pause call.
type ClockDriver struct {
	mu     sync.Mutex
	engine *Engine

	durations  map[string]float64
	defaultDur float64
	topmost    Slot

	slots [2]*clockSlot
}

type clockSlot struct {
	clip     string
	position float64
	duration float64
	playing  bool
	stop     chan struct{}
}

// NewClockDriver creates a driver over a clip→duration map (seconds).
// Clips with no known duration play for defaultDur.
func NewClockDriver(durations map[string]float64, defaultDur float64) *ClockDriver {
	if defaultDur <= 0 {
		defaultDur = 5.0
	}
	return &ClockDriver{
		durations:  durations,
		defaultDur: defaultDur,
		slots:      [2]*clockSlot{{}, {}},
	}
}

// SetDurations replaces the duration map. Clips already loaded keep the
// duration they were loaded with.
func (d *ClockDriver) SetDurations(durations map[string]float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.durations = durations
}

// Bind attaches the engine whose callbacks this driver fires.
func (d *ClockDriver) Bind(e *Engine) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.engine = e
}

// Topmost returns the slot last raised.
func (d *ClockDriver) Topmost() Slot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.topmost
}

// Load resets the slot to the new clip and schedules the ready signal.
func (d *ClockDriver) Load(slot Slot, path string) {
	d.mu.Lock()
	s := d.slots[slot]
	d.stopLocked(s)
	dur, ok := d.durations[path]
	if !ok || dur <= 0 {
		dur = d.defaultDur
	}
	*s = clockSlot{clip: path, duration: dur}
	engine := d.engine
	d.mu.Unlock()

	go func() {
		time.Sleep(config.PreloadDelay)
		d.mu.Lock()
		stale := d.slots[slot].clip != path
		d.mu.Unlock()
		if !stale && engine != nil {
			engine.OnReady(slot)
		}
	}()
}

// Play starts the slot's simulated timeline.
func (d *ClockDriver) Play(slot Slot) {
	d.mu.Lock()
	s := d.slots[slot]
	if s.playing || s.clip == "" {
		d.mu.Unlock()
		return
	}
	s.playing = true
	stop := make(chan struct{})
	s.stop = stop
	engine := d.engine
	clip := s.clip
	d.mu.Unlock()

	go d.run(slot, clip, stop, engine)
}

// Pause halts the slot's timeline without clearing it.
func (d *ClockDriver) Pause(slot Slot) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := d.slots[slot]
	d.stopLocked(s)
	s.playing = false
}

// Raise marks the slot topmost.
func (d *ClockDriver) Raise(slot Slot) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.topmost = slot
}

func (d *ClockDriver) stopLocked(s *clockSlot) {
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
	s.playing = false
}

// run drives one slot's timeline until it ends or is stopped.
func (d *ClockDriver) run(slot Slot, clip string, stop chan struct{}, engine *Engine) {
	if engine != nil {
		engine.OnPlaying(slot)
	}

	ticker := time.NewTicker(config.PositionTick)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			d.mu.Lock()
			s := d.slots[slot]
			if s.clip != clip || !s.playing {
				d.mu.Unlock()
				return
			}
			s.position += config.PositionTick.Seconds()
			pos, dur := s.position, s.duration
			ended := pos >= dur
			if ended {
				d.stopLocked(s)
			}
			d.mu.Unlock()

			if engine == nil {
				return
			}
			if ended {
				engine.OnEnded(slot)
				return
			}
			engine.OnTimeUpdate(slot, pos, dur)
		}
	}
}
