package config

import "time"

// Behavioral State Constants
const (
	// DefaultState is the initial and fallback behavioral state
	DefaultState = "IDLE"
)

// DefaultStates is the compiled-in state set, used when KIOSK_STATES is unset.
// Installations with a custom character config override it via the environment.
var DefaultStates = []string{"IDLE", "GREET", "SHOW", "SPEAK", "THINK", "FAREWELL"}

// Clip Library Constants
const (
	// IdleLoopsDir holds the ambient clips played in the default state
	IdleLoopsDir = "idle_loops"

	// BridgesDir holds transition clips named <from>_to_<to>[_suffix]
	BridgesDir = "bridges"

	// InterruptsDir holds clips that cut in over the current loop
	InterruptsDir = "interrupts"

	// UtilityDir holds one-off utility clips
	UtilityDir = "utility"

	// ActionsDir holds per-state action clips prefixed with the lowercased state
	ActionsDir = "actions"

	// BridgeInfix separates the from/to halves of a bridge filename
	BridgeInfix = "_to_"
)

// Playback Constants
const (
	// SwapThreshold is how close to the end of the active clip the
	// preemptive buffer swap fires
	SwapThreshold = 120 * time.Millisecond

	// PositionTick is the simulated timeline resolution of the clock driver
	PositionTick = 50 * time.Millisecond

	// PreloadDelay approximates buffering latency in the clock driver
	PreloadDelay = 30 * time.Millisecond
)

// Channel Constants
const (
	// SendBufferSize is the per-channel outbound queue depth; full means drop
	SendBufferSize = 32

	// WriteTimeout bounds a single websocket write
	WriteTimeout = 5 * time.Second

	// ReconnectBase is the initial display-client reconnect delay
	ReconnectBase = 1 * time.Second

	// ReconnectMax caps the exponential reconnect backoff
	ReconnectMax = 30 * time.Second
)

// Overlay Zone Constants
var (
	// Zones is the fixed inventory of mutually exclusive screen regions
	Zones = []string{"lowerThird", "sidePanel"}

	// ZonePreferences maps each overlay kind to its ordered zone candidates
	ZonePreferences = map[string][]string{
		"subtitle":      {"lowerThird", "sidePanel"},
		"qr":            {"sidePanel", "lowerThird"},
		"card":          {"sidePanel", "lowerThird"},
		"agentState":    {"sidePanel", "lowerThird"},
		"agentAction":   {"lowerThird", "sidePanel"},
		"agentThinking": {"sidePanel", "lowerThird"},
		"agentEvent":    {"lowerThird", "sidePanel"},
	}
)
