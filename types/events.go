package types

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Control event types (inbound commands from UI, automation, or displays)
const (
	EventFSMManual  = "fsm.manual"
	EventFSMReset   = "fsm.reset"
	EventQueueClear = "queue.clear"

	EventSubtitleSet   = "overlay.subtitle.set"
	EventSubtitleClear = "overlay.subtitle.clear"
	EventCardShow      = "overlay.card.show"
	EventCardHide      = "overlay.card.hide"
	EventQRShow        = "overlay.qr.show"
	EventQRHide        = "overlay.qr.hide"
	EventOverlayClear  = "overlay.clearAll"

	EventAgentStateShow     = "overlay.agent.state.show"
	EventAgentStateClear    = "overlay.agent.state.clear"
	EventAgentActionShow    = "overlay.agent.action.show"
	EventAgentActionClear   = "overlay.agent.action.clear"
	EventAgentThinkingShow  = "overlay.agent.thinking.show"
	EventAgentThinkingClear = "overlay.agent.thinking.clear"
	EventAgentEventShow     = "overlay.agent.event.show"
	EventAgentEventClear    = "overlay.agent.event.clear"

	EventPlaybackStarted = "playback.started"
	EventPlaybackEnded   = "playback.ended"
	EventPlaybackQueue   = "playback.queue"
)

// Broadcast event types (outbound notifications to all channels)
const (
	EventStatus         = "status"
	EventTransition     = "fsm.transition"
	EventOverlayApplied = "overlay.applied"
	EventError          = "error"
)

// OverlayPrefix is stripped from overlay control types to derive the
// overlay.applied name (e.g. "overlay.subtitle.set" → "subtitle.set").
const OverlayPrefix = "overlay."

// ControlEvent is the parsed form of one inbound wire message. Raw keeps the
// original bytes so overlay events can be rebroadcast verbatim.
type ControlEvent struct {
	Type   string
	Fields map[string]interface{}
	Raw    json.RawMessage
}

// ParseControl decodes a wire message into a ControlEvent. A missing or
// non-string "type" field is an error; everything else is payload.
func ParseControl(data []byte) (*ControlEvent, error) {
	var fields map[string]interface{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("invalid event payload: %w", err)
	}

	typ, ok := fields["type"].(string)
	if !ok || typ == "" {
		return nil, fmt.Errorf("event missing type field")
	}
	delete(fields, "type")

	raw := make(json.RawMessage, len(data))
	copy(raw, data)

	return &ControlEvent{Type: typ, Fields: fields, Raw: raw}, nil
}

// IsOverlay reports whether the event is an overlay control command.
func (e *ControlEvent) IsOverlay() bool {
	return strings.HasPrefix(e.Type, OverlayPrefix)
}

// OverlayName returns the event type with the overlay prefix stripped.
func (e *ControlEvent) OverlayName() string {
	return strings.TrimPrefix(e.Type, OverlayPrefix)
}

// StringField returns a string payload field, or "" when absent.
func (e *ControlEvent) StringField(name string) string {
	s, _ := e.Fields[name].(string)
	return s
}

// TTL returns the optional ttlMs payload field as a duration, or zero.
func (e *ControlEvent) TTL() time.Duration {
	ms, ok := e.Fields["ttlMs"].(float64)
	if !ok || ms <= 0 {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}

// TransitionEvent announces a completed behavioral transition. Clip fields
// are media paths; nil means "no clip prescribed" (resume idle looping).
type TransitionEvent struct {
	Type       string   `json:"type"`
	From       string   `json:"from"`
	To         string   `json:"to"`
	BridgeClip *string  `json:"bridgeClip"`
	NextClip   *string  `json:"nextClip"`
	StateClips []string `json:"stateClips"`
}

// NewTransition builds a fsm.transition broadcast event.
func NewTransition(from, to string, bridgeClip, nextClip *string, stateClips []string) TransitionEvent {
	if stateClips == nil {
		stateClips = []string{}
	}
	return TransitionEvent{
		Type:       EventTransition,
		From:       from,
		To:         to,
		BridgeClip: bridgeClip,
		NextClip:   nextClip,
		StateClips: stateClips,
	}
}

// OverlayApplied is the semantic summary of an overlay control event.
type OverlayApplied struct {
	Type    string                 `json:"type"`
	Name    string                 `json:"name"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// NewOverlayApplied builds an overlay.applied broadcast event.
func NewOverlayApplied(name string, details map[string]interface{}) OverlayApplied {
	return OverlayApplied{Type: EventOverlayApplied, Name: name, Details: details}
}

// PlaybackEvent reports a clip starting or ending on a display.
type PlaybackEvent struct {
	Type string `json:"type"`
	Clip string `json:"clip"`
}

// Status is the orchestrator's point-in-time snapshot.
type Status struct {
	State         string `json:"state"`
	PreviousState string `json:"previousState"`
	CurrentClip   string `json:"currentClip"`
	QueueLength   int    `json:"queueLength"`
	LastError     string `json:"lastError"`
	Online        bool   `json:"online"`
	Channels      int    `json:"channels"`
}

// StatusEvent wraps a Status snapshot for the wire.
type StatusEvent struct {
	Type string `json:"type"`
	Status
}

// NewStatusEvent builds a status broadcast event.
func NewStatusEvent(s Status) StatusEvent {
	return StatusEvent{Type: EventStatus, Status: s}
}

// ErrorEvent is the only user-visible error surface on the wire.
type ErrorEvent struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewErrorEvent builds an error broadcast event.
func NewErrorEvent(code, message string) ErrorEvent {
	return ErrorEvent{Type: EventError, Code: code, Message: message}
}

// PeekType extracts the type tag from an encoded event without fully
// decoding it. Returns "" when the payload is not a tagged object.
func PeekType(data []byte) string {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return ""
	}
	return probe.Type
}
