// Package bubbletea provides the Bubble Tea TUI for the loom client.
package bubbletea

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/avisram/loom"
)

// TaskFunc runs one agent turn for a prompt. The onEvent callback is called
// for each decoded event in stream order. The function blocks until the turn
// completes or the context is cancelled.
type TaskFunc func(ctx context.Context, prompt string, onEvent func(loom.Event)) error

// Run creates and runs the Bubble Tea TUI program. It blocks until the
// program exits. When ctx is cancelled the program quits.
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	go func() {
		<-ctx.Done()
		p.Quit()
	}()
	_, err := p.Run()
	return err
}

// StreamEventMsg wraps a decoded agent event for delivery to the model.
type StreamEventMsg struct {
	Event loom.Event
}

// AgentDoneMsg signals that the agent turn has completed.
type AgentDoneMsg struct {
	Err error
}
