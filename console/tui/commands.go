package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// pollStatus creates a command to poll the kiosk daemon's status
func pollStatus(client *ConsoleClient) tea.Cmd {
	return func() tea.Msg {
		status, err := client.GetStatus()
		return StatusUpdateMsg{Status: status, Err: err}
	}
}

// sendEvent creates a command that fires one control event
func sendEvent(client *ConsoleClient, label string, event map[string]interface{}) tea.Cmd {
	return func() tea.Msg {
		return EventSentMsg{Label: label, Err: client.SendEvent(event)}
	}
}

// tickCmd creates a command that ticks every 500ms for polling
func tickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}
