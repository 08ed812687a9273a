package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"kioskagent/types"
)

// Model represents the operator console state (thin client)
type Model struct {
	Client *ConsoleClient

	// Declared behavioral states, in order; number keys map onto them.
	States []string

	Status     types.Status
	Connected  bool
	LastAction string
	Err        error
}

// NewModel creates a new console model
func NewModel(baseURL string, states []string) Model {
	return Model{
		Client: NewConsoleClient(baseURL),
		States: states,
	}
}

// Init implements tea.Model interface
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		pollStatus(m.Client),
		tickCmd(),
	)
}
