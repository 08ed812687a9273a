package tui

import (
	"fmt"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
)

// Update implements tea.Model interface
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case StatusUpdateMsg:
		return m.handleStatusUpdate(msg)
	case EventSentMsg:
		return m.handleEventSent(msg)
	case TickMsg:
		return m, tea.Batch(pollStatus(m.Client), tickCmd())
	}
	return m, nil
}

// handleKeyPress processes keyboard input
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	switch key {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "r":
		return m, sendEvent(m.Client, "reset", map[string]interface{}{
			"type": "fsm.reset",
		})

	case "s":
		return m, sendEvent(m.Client, "subtitle", map[string]interface{}{
			"type":  "overlay.subtitle.set",
			"text":  "Hello from the console",
			"ttlMs": 5000,
		})

	case "o":
		return m, sendEvent(m.Client, "qr", map[string]interface{}{
			"type":  "overlay.qr.show",
			"url":   "https://example.com/menu",
			"ttlMs": 10000,
		})

	case "c":
		return m, sendEvent(m.Client, "clearAll", map[string]interface{}{
			"type": "overlay.clearAll",
		})
	}

	// Number keys fire manual transitions into the declared states.
	if n, err := strconv.Atoi(key); err == nil && n >= 1 && n <= len(m.States) {
		state := m.States[n-1]
		return m, sendEvent(m.Client, "→ "+state, map[string]interface{}{
			"type":  "fsm.manual",
			"state": state,
		})
	}

	return m, nil
}

// handleStatusUpdate refreshes the snapshot shown in the header
func (m Model) handleStatusUpdate(msg StatusUpdateMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.Connected = false
		m.Err = msg.Err
		return m, nil
	}
	m.Connected = true
	m.Err = nil
	m.Status = msg.Status
	return m, nil
}

// handleEventSent records the outcome of the last fired event
func (m Model) handleEventSent(msg EventSentMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.Err = fmt.Errorf("send %s: %w", msg.Label, msg.Err)
		return m, nil
	}
	m.LastAction = msg.Label
	m.Err = nil
	return m, pollStatus(m.Client)
}
