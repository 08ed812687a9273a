package tui

import (
	"time"

	"kioskagent/types"
)

// StatusUpdateMsg carries a fresh status snapshot (or the poll error).
type StatusUpdateMsg struct {
	Status types.Status
	Err    error
}

// EventSentMsg reports the outcome of a fired control event.
type EventSentMsg struct {
	Label string
	Err   error
}

// TickMsg drives the status polling loop.
type TickMsg struct {
	Time time.Time
}
