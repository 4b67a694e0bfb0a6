package bubbletea

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"

	"github.com/avisram/loom"
)

// Styles maps a Theme to lipgloss styles for TUI rendering.
type Styles struct {
	UserMsg  lipgloss.Style
	Tool     lipgloss.Style
	Error    lipgloss.Style
	Success  lipgloss.Style
	Muted    lipgloss.Style
	Accent   lipgloss.Style
	UserBg   lipgloss.Style
	ToolBg   lipgloss.Style
	ResultBg lipgloss.Style
	ErrorBg  lipgloss.Style
}

// NewStyles creates Styles from a Theme.
func NewStyles(t loom.Theme) Styles {
	return Styles{
		UserMsg:  lipgloss.NewStyle().Foreground(ansiColor(t.UserMsg)).Bold(true),
		Tool:     lipgloss.NewStyle().Foreground(ansiColor(t.Tool)),
		Error:    lipgloss.NewStyle().Foreground(ansiColor(t.Error)),
		Success:  lipgloss.NewStyle().Foreground(ansiColor(t.Success)),
		Muted:    lipgloss.NewStyle().Foreground(ansiColor(t.Muted)).Faint(true),
		Accent:   lipgloss.NewStyle().Foreground(ansiColor(t.Accent)).Bold(true),
		UserBg:   lipgloss.NewStyle().Background(ansiColor(t.UserBg)).PaddingLeft(1),
		ToolBg:   lipgloss.NewStyle().Background(ansiColor(t.ToolBg)).PaddingLeft(1),
		ResultBg: lipgloss.NewStyle().Background(ansiColor(t.ResultBg)).PaddingLeft(1),
		ErrorBg:  lipgloss.NewStyle().Background(ansiColor(t.ErrorBg)).PaddingLeft(1),
	}
}

func ansiColor(index int) lipgloss.TerminalColor {
	if index < 0 {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(strconv.Itoa(index))
}
