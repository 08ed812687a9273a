// Package client implements the display side: it consumes broadcast events
// over the websocket channel and drives the playback engine and the
// overlay zone allocator.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"kioskagent/catalog"
	"kioskagent/config"
	"kioskagent/overlay"
	"kioskagent/player"
	"kioskagent/types"
)

// OverlayView renders overlay payloads. The headless display build logs
// them; a real panel layer draws them.
type OverlayView interface {
	overlay.Renderer
	Show(key, zone string, details map[string]interface{})
}

// LogView is the headless overlay view.
type LogView struct{}

func (LogView) Show(key, zone string, details map[string]interface{}) {
	log.Printf("🪧 Overlay %s → zone %s %v", key, zone, details)
}

func (LogView) Clear(key string) {
	log.Printf("🪧 Overlay %s cleared", key)
}

// Display is one connected display client.
type Display struct {
	baseURL string
	engine  *player.Engine
	zones   *overlay.Allocator
	view    OverlayView

	mu   sync.Mutex
	conn *websocket.Conn
}

// New creates a display client against the kiosk daemon at baseURL
// (e.g. "http://localhost:8080").
func New(baseURL string, engine *player.Engine, zones *overlay.Allocator, view OverlayView) *Display {
	d := &Display{
		baseURL: strings.TrimRight(baseURL, "/"),
		engine:  engine,
		zones:   zones,
		view:    view,
	}
	engine.SetNotifier(d.sendTelemetry)
	return d
}

// FetchManifest retrieves the full clip catalog over HTTP.
func (d *Display) FetchManifest(ctx context.Context) (*catalog.Catalog, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+"/manifest", nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("manifest fetch: status %d", resp.StatusCode)
	}

	var cat catalog.Catalog
	if err := json.NewDecoder(resp.Body).Decode(&cat); err != nil {
		return nil, err
	}
	return &cat, nil
}

// backoff tracks the reconnect delay schedule: doubling after consecutive
// failed dials, capped, and restarting from the base after any session
// that actually connected.
type backoff struct {
	delay time.Duration
}

// next returns the delay before the following reconnect attempt.
func (b *backoff) next(connected bool) time.Duration {
	if connected || b.delay == 0 {
		b.delay = config.ReconnectBase
	} else {
		b.delay *= 2
		if b.delay > config.ReconnectMax {
			b.delay = config.ReconnectMax
		}
	}
	return b.delay
}

// Run maintains the broadcast channel, reconnecting with exponential
// backoff: base delay doubling to a cap, reset on a successful connect.
func (d *Display) Run(ctx context.Context) {
	var b backoff

	for {
		connected, err := d.runOnce(ctx)
		delay := b.next(connected)
		if err != nil {
			log.Printf("⚠️  Channel lost: %v (retrying in %s)", err, delay)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

// runOnce dials the channel and reads until it drops. The connected flag
// reports whether the dial succeeded, regardless of how the session ended.
func (d *Display) runOnce(ctx context.Context) (bool, error) {
	wsURL, err := wsEndpoint(d.baseURL)
	if err != nil {
		return false, err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return false, err
	}
	log.Printf("🔌 Connected to %s", wsURL)

	d.mu.Lock()
	d.conn = conn
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		d.conn = nil
		d.mu.Unlock()
		conn.Close()
	}()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return true, err
		}
		d.dispatch(data)
	}
}

// wsEndpoint rewrites the HTTP base URL into the websocket channel URL.
func wsEndpoint(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/ws"
	u.RawQuery = "role=display"
	return u.String(), nil
}

// dispatch routes one broadcast event.
func (d *Display) dispatch(data []byte) {
	switch typ := types.PeekType(data); typ {
	case types.EventTransition:
		var ev types.TransitionEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			log.Printf("⚠️  Bad transition event: %v", err)
			return
		}
		d.handleTransition(ev)

	case types.EventOverlayApplied:
		var ev types.OverlayApplied
		if err := json.Unmarshal(data, &ev); err != nil {
			log.Printf("⚠️  Bad overlay event: %v", err)
			return
		}
		d.handleOverlay(ev.Name, ev.Details)

	case types.EventStatus:
		var ev types.StatusEvent
		if err := json.Unmarshal(data, &ev); err == nil {
			log.Printf("ℹ️  Server status: state=%s clip=%s", ev.State, ev.CurrentClip)
		}

	case types.EventError:
		var ev types.ErrorEvent
		if err := json.Unmarshal(data, &ev); err == nil {
			log.Printf("❌ Server error: %s %s", ev.Code, ev.Message)
		}

	case types.EventPlaybackStarted, types.EventPlaybackEnded, types.EventPlaybackQueue:
		// Our own telemetry echoed back to all channels.

	default:
		// Raw overlay control events ride alongside overlay.applied;
		// this client reacts to the semantic summary only.
	}
}

// handleTransition switches the playback pool and plays the directed
// bridge→target sequence.
func (d *Display) handleTransition(ev types.TransitionEvent) {
	log.Printf("🎭 Transition %s → %s", ev.From, ev.To)
	d.engine.SetPool(ev.StateClips)

	bridge, target := "", ""
	if ev.BridgeClip != nil {
		bridge = *ev.BridgeClip
	}
	if ev.NextClip != nil {
		target = *ev.NextClip
	}
	if bridge == "" && target == "" {
		// Entering the default state with no bridge: resume idle looping
		// on the updated pool at the next natural swap.
		return
	}
	d.engine.PlaySequence(bridge, target)
}

// overlayKeys maps overlay.applied names to allocator keys for the
// single-instance kinds.
var overlayKeys = map[string]string{
	"subtitle":       "subtitle",
	"qr":             "qr",
	"agent.state":    "agentState",
	"agent.action":   "agentAction",
	"agent.thinking": "agentThinking",
	"agent.event":    "agentEvent",
}

// handleOverlay places or removes overlay panels per the semantic summary.
func (d *Display) handleOverlay(name string, details map[string]interface{}) {
	if name == "clearAll" {
		d.zones.Clear()
		return
	}

	verb := name[strings.LastIndexByte(name, '.')+1:]
	base := strings.TrimSuffix(name, "."+verb)

	key := overlayKeys[base]
	if base == "card" {
		id, _ := details["id"].(string)
		key = "card:" + id
	}
	if key == "" {
		log.Printf("⚠️  Unknown overlay name %q", name)
		return
	}

	switch verb {
	case "set", "show":
		requested, _ := details["position"].(string)
		ttl := time.Duration(0)
		if ms, ok := details["ttlMs"].(float64); ok && ms > 0 {
			ttl = time.Duration(ms) * time.Millisecond
		}
		zone := d.zones.Allocate(key, requested, ttl)
		d.view.Show(key, zone, details)

	case "clear", "hide":
		d.zones.Release(key)
		d.view.Clear(key)
	}
}

// sendTelemetry reports playback lifecycle events upstream. Dropped when
// the channel is down; telemetry is not worth buffering.
func (d *Display) sendTelemetry(event, clip string) {
	d.mu.Lock()
	conn := d.conn
	d.mu.Unlock()
	if conn == nil {
		return
	}

	payload, err := json.Marshal(types.PlaybackEvent{Type: event, Clip: clip})
	if err != nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.conn == nil {
		return
	}
	d.conn.SetWriteDeadline(time.Now().Add(config.WriteTimeout))
	if err := d.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		log.Printf("⚠️  Telemetry send failed: %v", err)
	}
}
