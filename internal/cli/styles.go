// Package cli holds the terminal output helpers of the ledger commands.
package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	accentColor  = lipgloss.Color("#7C3AED")
	incomeColor  = lipgloss.Color("#4ECDC4")
	expenseColor = lipgloss.Color("#FF6B6B")
	noticeColor  = lipgloss.Color("#FFE66D")
	infoColor    = lipgloss.Color("#95E1D3")

	boxTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	boxStyle      = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#333")).
			Padding(1, 2)

	incomeStyle  = lipgloss.NewStyle().Foreground(incomeColor)
	expenseStyle = lipgloss.NewStyle().Foreground(expenseColor)
	noticeStyle  = lipgloss.NewStyle().Foreground(noticeColor)
	infoStyle    = lipgloss.NewStyle().Foreground(infoColor)
)

// Message prefixes.
const (
	SuccessIcon = "✓"
	ErrorIcon   = "✗"
	WarningIcon = "⚠️"
	InfoIcon    = "ℹ️"
	ChartIcon   = "📊"
)

// FormatSuccess renders a completed step, in the income color.
func FormatSuccess(message string) string {
	return incomeStyle.Render(SuccessIcon + " " + message)
}

// FormatError renders a failed step, in the expense color.
func FormatError(message string) string {
	return expenseStyle.Render(ErrorIcon + " " + message)
}

// FormatWarning renders a message the user should act on.
func FormatWarning(message string) string {
	return noticeStyle.Render(WarningIcon + " " + message)
}

// FormatInfo renders a neutral note.
func FormatInfo(message string) string {
	return infoStyle.Render(InfoIcon + " " + message)
}

// FormatAmount renders a signed amount with its currency, income in the
// income color and expense in the expense color. Zero stays unstyled.
func FormatAmount(amount int64, currency string) string {
	text := fmt.Sprintf("%+d %s", amount, currency)
	switch {
	case amount > 0:
		return incomeStyle.Render(text)
	case amount < 0:
		return expenseStyle.Render(text)
	}
	return text
}

// RenderBox frames content under a bold title.
func RenderBox(title, content string) string {
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		boxTitleStyle.Render(title),
		content,
	))
}
