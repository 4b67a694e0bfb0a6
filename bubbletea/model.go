package bubbletea

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/avisram/loom"
)

var _ tea.Model = Model{}

// Model is the Bubble Tea model for the loom TUI. It owns the task's event
// log; every incoming event is appended and the whole presentation is derived
// again from scratch, so the view never drifts from the log.
type Model struct {
	// Input is the text input component. Exported for test access.
	Input textinput.Model
	// Viewport is the scrollable output area. Exported for test access.
	Viewport viewport.Model

	run    TaskFunc
	task   *loom.Task
	store  loom.FileStore
	stored []loom.FileRecord
	theme  loom.Theme
	styles Styles

	transcript loom.Transcript
	blocks     []MessageBlock
	blockFocus int // index of focused collapsible block (-1 = none)

	running bool
	cancel  context.CancelFunc
	eventCh chan loom.Event
	doneCh  chan error
	err     error
	ready   bool
}

// New creates a TUI Model for a task. The store may be nil when no file
// records are kept for the task.
func New(run TaskFunc, task *loom.Task, store loom.FileStore, theme loom.Theme) Model {
	ti := textinput.New()
	ti.Placeholder = "Type a prompt..."
	ti.Prompt = ""
	ti.Focus()
	ti.CharLimit = 0

	m := Model{
		Input:      ti,
		run:        run,
		task:       task,
		store:      store,
		theme:      theme,
		styles:     NewStyles(theme),
		blockFocus: -1,
	}
	m = m.loadStored()
	return m.refresh()
}

// Running returns whether the agent is currently running.
func (m Model) Running() bool { return m.running }

// Err returns the last error, if any.
func (m Model) Err() error { return m.err }

// Transcript returns the derived presentation of the task's event log.
func (m Model) Transcript() loom.Transcript { return m.transcript }

// SetRunning is a test helper that puts the model in a running state.
func SetRunning(m Model) (Model, tea.Cmd) {
	m.running = true
	return m.refresh(), nil
}

// SetRunningWithCancel is a test helper that puts the model in a running
// state with a cancel function.
func SetRunningWithCancel(m Model, cancel func()) (Model, tea.Cmd) {
	m.running = true
	m.cancel = cancel
	return m.refresh(), nil
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m = m.handleWindowSize(msg)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case StreamEventMsg:
		m.task.Events = append(m.task.Events, msg.Event)
		m.task.UpdatedAt = time.Now()
		m = m.refresh()
		m.Viewport.SetContent(m.renderContent())
		m.Viewport.GotoBottom()
		if m.eventCh != nil {
			return m, listenForEvent(m.eventCh, m.doneCh)
		}
		return m, nil

	case AgentDoneMsg:
		m.running = false
		m.cancel = nil
		m.eventCh = nil
		m.doneCh = nil
		if msg.Err != nil && !errors.Is(msg.Err, context.Canceled) {
			m.err = msg.Err
		}
		m = m.loadStored()
		m = m.refresh()
		m.Viewport.SetContent(m.renderContent())
		cmd := m.Input.Focus()
		cmds = append(cmds, cmd)
		return m, tea.Batch(cmds...)
	}

	// Pass remaining messages to sub-components.
	// Viewport always receives messages for scrolling (keyboard and mouse).
	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	cmds = append(cmds, cmd)

	if !m.running {
		m.Input, cmd = m.Input.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var b strings.Builder
	b.WriteString(m.Viewport.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.Input.View())
	return b.String()
}

func (m Model) handleWindowSize(msg tea.WindowSizeMsg) Model {
	inputH := 1
	statusHeight := 1
	borderHeight := 2 // newlines between sections
	vpHeight := msg.Height - inputH - statusHeight - borderHeight

	if vpHeight < 1 {
		vpHeight = 1
	}

	if !m.ready {
		m.Viewport = viewport.New(msg.Width, vpHeight)
		m.Viewport.SetContent(m.renderContent())
		m.Viewport.GotoBottom()
		m.ready = true
	} else {
		m.Viewport.Width = msg.Width
		m.Viewport.Height = vpHeight
	}

	m.Input.Width = msg.Width
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		if m.running {
			if m.cancel != nil {
				m.cancel()
			}
			return m, nil
		}
		return m, tea.Quit

	case tea.KeyEnter:
		if m.running {
			return m, nil
		}
		text := strings.TrimSpace(m.Input.Value())
		if text == "" {
			return m, nil
		}
		return m.submitInput(text)

	case tea.KeyTab:
		if !m.running && m.blockFocus >= 0 {
			block, cmd := m.blocks[m.blockFocus].Update(ToggleMsg{})
			m.blocks[m.blockFocus] = block
			m.Viewport.SetContent(m.renderContent())
			return m, cmd
		}
		return m, nil

	case tea.KeyShiftTab:
		if !m.running {
			m = m.cycleFocusPrev()
			m.Viewport.SetContent(m.renderContent())
		}
		return m, nil
	}

	// When idle, pass keys to both input (for typing) and viewport (for
	// scrolling). Only forward non-character keys to viewport to avoid
	// conflicts (e.g. 'j'/'k' are viewport scroll AND text characters).
	if !m.running {
		var cmd tea.Cmd
		var cmds []tea.Cmd

		if msg.Type != tea.KeyRunes {
			m.Viewport, cmd = m.Viewport.Update(msg)
			cmds = append(cmds, cmd)
		}

		m.Input, cmd = m.Input.Update(msg)
		cmds = append(cmds, cmd)

		return m, tea.Batch(cmds...)
	}

	return m, nil
}

func (m Model) submitInput(text string) (tea.Model, tea.Cmd) {
	m.Input.SetValue("")
	m.err = nil

	now := time.Now()
	m.task.Events = append(m.task.Events, loom.UserEvent{Content: text})
	m.task.UpdatedAt = now
	if m.task.CreatedAt.IsZero() {
		m.task.CreatedAt = now
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.eventCh = make(chan loom.Event, 256)
	m.doneCh = make(chan error, 1)
	m.running = true

	m = m.refresh()
	m.Viewport.SetContent(m.renderContent())
	m.Viewport.GotoBottom()

	m.Input.Blur()

	return m, tea.Batch(
		startAgent(m.run, ctx, text, m.eventCh, m.doneCh),
		listenForEvent(m.eventCh, m.doneCh),
	)
}

// loadStored refreshes the cached file records for the task.
func (m Model) loadStored() Model {
	if m.store == nil {
		return m
	}
	records, err := m.store.FilesForTask(m.task.ID)
	if err != nil {
		m.err = fmt.Errorf("load stored files: %w", err)
		return m
	}
	m.stored = records
	return m
}

// refresh derives the transcript from the event log and rebuilds the block
// list, carrying over user-chosen collapse states where blocks line up.
func (m Model) refresh() Model {
	opts := []loom.InterpretOption{loom.WithRunning(m.running)}
	if len(m.stored) > 0 {
		opts = append(opts, loom.WithStoredFiles(m.stored))
	}
	m.transcript = loom.Interpret(m.task.Events, opts...)
	m.blocks = rebuildBlocks(m.blocks, m.transcript.Groups, m.theme, m.styles)
	return m.updateBlockFocus()
}

// rebuildBlocks maps groups to blocks. Group order is append-stable, so a
// block at the same index with the same kind is the same logical block; it
// is reused to keep its collapse state.
func rebuildBlocks(old []MessageBlock, groups []loom.Group, theme loom.Theme, styles Styles) []MessageBlock {
	blocks := make([]MessageBlock, 0, len(groups))
	for i, g := range groups {
		switch g := g.(type) {
		case loom.TaskGroup:
			if i < len(old) {
				if tb, ok := old[i].(*TaskGroupBlock); ok {
					tb.SetGroup(g)
					blocks = append(blocks, tb)
					continue
				}
			}
			blocks = append(blocks, NewTaskGroupBlock(g, styles))
		case loom.StandaloneGroup:
			blocks = append(blocks, standaloneBlock(i, old, g, theme, styles))
		}
	}
	return blocks
}

func standaloneBlock(i int, old []MessageBlock, g loom.StandaloneGroup, theme loom.Theme, styles Styles) MessageBlock {
	switch ev := g.Event.(type) {
	case loom.TextEvent:
		return NewAgentTextBlock(ev.Content, theme)
	case loom.UserEvent:
		return NewUserBlock(ev.Content, ev.Attachments, styles)
	case loom.ResultEvent:
		return NewResultBlock(ev, styles)
	case loom.ErrorEvent:
		return NewErrorBlock(ev.Message, styles)
	case loom.PlanEvent:
		if i < len(old) {
			if pb, ok := old[i].(*PlanBlock); ok && pb.plan == ev.Plan {
				return pb
			}
		}
		return NewPlanBlock(ev.Plan, theme, styles)
	default:
		return NewAgentTextBlock("", theme)
	}
}

func (m Model) renderContent() string {
	if len(m.blocks) == 0 {
		return ""
	}
	var b strings.Builder
	for i, block := range m.blocks {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(block.View(m.Viewport.Width))
	}
	return b.String()
}

// updateBlockFocus scans backwards to find the last collapsible block.
// Only the focused block responds to Tab. ShiftTab cycles to the previous
// collapsible block.
func (m Model) updateBlockFocus() Model {
	m.blockFocus = -1
	for i := len(m.blocks) - 1; i >= 0; i-- {
		switch m.blocks[i].(type) {
		case *TaskGroupBlock, *PlanBlock:
			m.blockFocus = i
			return m
		}
	}
	return m
}

// cycleFocusPrev moves blockFocus to the previous collapsible block, wrapping around.
func (m Model) cycleFocusPrev() Model {
	if len(m.blocks) == 0 {
		return m
	}
	start := m.blockFocus - 1
	if start < 0 {
		start = len(m.blocks) - 1
	}
	for i := range len(m.blocks) {
		idx := (start - i + len(m.blocks)) % len(m.blocks)
		switch m.blocks[idx].(type) {
		case *TaskGroupBlock, *PlanBlock:
			m.blockFocus = idx
			return m
		}
	}
	m.blockFocus = -1
	return m
}

func (m Model) statusLine() string {
	if m.err != nil {
		return m.styles.Error.Render(fmt.Sprintf("Error: %v", m.err))
	}
	if m.running {
		return m.styles.Muted.Render(m.transcript.Activity + "… (Ctrl+C to interrupt)")
	}
	hints := "Enter to send, Tab to toggle, Ctrl+C to quit"
	if n := len(m.transcript.Artifacts); n == 1 {
		hints = "1 file · " + hints
	} else if n > 1 {
		hints = fmt.Sprintf("%d files · ", n) + hints
	}
	return m.styles.Muted.Render(hints)
}

// startAgent runs one agent turn in a goroutine and signals completion.
func startAgent(run TaskFunc, ctx context.Context, prompt string, eventCh chan<- loom.Event, doneCh chan<- error) tea.Cmd {
	return func() tea.Msg {
		err := run(ctx, prompt, func(e loom.Event) {
			select {
			case eventCh <- e:
			case <-ctx.Done():
			}
		})
		close(eventCh)
		doneCh <- err
		return nil
	}
}

// listenForEvent waits for the next event from the channel.
// When the channel closes, it reads the error from doneCh and returns AgentDoneMsg.
func listenForEvent(ch <-chan loom.Event, doneCh <-chan error) tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-ch
		if !ok {
			err := <-doneCh
			return AgentDoneMsg{Err: err}
		}
		return StreamEventMsg{Event: evt}
	}
}
