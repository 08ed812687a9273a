package tui

import (
	"fmt"
	"strings"
)

// View implements tea.Model interface
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("🎛  Kiosk Agent Console"))
	b.WriteString("\n\n")

	if !m.Connected {
		b.WriteString(ErrorStyle.Render("● offline"))
		if m.Err != nil {
			b.WriteString(InfoStyle.Render("  " + m.Err.Error()))
		}
		b.WriteString("\n\n")
		b.WriteString(InfoStyle.Render("q quit"))
		b.WriteString("\n")
		return BoxStyle.Render(b.String())
	}

	b.WriteString(StatusStyle.Render("● online"))
	b.WriteString(InfoStyle.Render(fmt.Sprintf("  %d channel(s)", m.Status.Channels)))
	b.WriteString("\n\n")

	b.WriteString("State: ")
	b.WriteString(StateStyle.Render(m.Status.State))
	if m.Status.PreviousState != "" {
		b.WriteString(InfoStyle.Render("  (was " + m.Status.PreviousState + ")"))
	}
	b.WriteString("\n")

	if m.Status.CurrentClip != "" {
		b.WriteString(InfoStyle.Render("🎬 " + m.Status.CurrentClip))
		b.WriteString("\n")
	}
	if m.Status.LastError != "" {
		b.WriteString(ErrorStyle.Render("⚠ " + m.Status.LastError))
		b.WriteString("\n")
	}
	if m.LastAction != "" {
		b.WriteString(InfoStyle.Render("last: " + m.LastAction))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	// Key legend
	for i, state := range m.States {
		b.WriteString(InfoStyle.Render(fmt.Sprintf("%d %s  ", i+1, state)))
	}
	b.WriteString("\n")
	b.WriteString(InfoStyle.Render("r reset  s subtitle  o qr  c clearAll  q quit"))
	b.WriteString("\n")

	if m.Err != nil {
		b.WriteString("\n")
		b.WriteString(ErrorStyle.Render(m.Err.Error()))
		b.WriteString("\n")
	}

	return BoxStyle.Render(b.String())
}
