package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// View renders the console.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	title := m.theme.Title.Render("Ledger") + " " +
		m.theme.Subtitle.Render("user "+m.config.UserID)

	sections := []string{title, m.viewport.View()}
	if buttons := m.renderButtons(); buttons != "" {
		sections = append(sections, buttons)
	}

	if m.busy {
		sections = append(sections, m.spinner.View()+m.theme.StatusPending.Render(" thinking..."))
	} else {
		sections = append(sections, m.input.View())
	}
	sections = append(sections, m.help.View(m.keymap))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderTranscript() string {
	var b strings.Builder
	for i, l := range m.lines {
		if i > 0 {
			b.WriteString("\n")
		}
		switch l.from {
		case speakerUser:
			b.WriteString(m.theme.UserLine.Render("you: " + l.text))
		case speakerOutbound:
			b.WriteString(m.theme.OutboundLine.Render(l.text))
		case speakerSystem:
			b.WriteString(m.theme.StatusSuccess.Render(l.text))
		default:
			b.WriteString(m.theme.BotLine.Width(max(m.width-2, 10)).Render(l.text))
		}
	}
	return b.String()
}

// renderButtons lists the buttons of the latest reply, one per row.
func (m Model) renderButtons() string {
	if len(m.buttons) == 0 {
		return ""
	}
	rows := make([]string, 0, len(m.buttons))
	for i, btn := range m.buttons {
		style := m.theme.Button
		marker := "  "
		if i == m.selected {
			style = m.theme.SelectedButton
			marker = "> "
		}
		rows = append(rows, marker+style.Render(btn.Label))
	}
	return strings.Join(rows, "\n")
}
