package bubbletea_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avisram/loom"
	bt "github.com/avisram/loom/bubbletea"
	"github.com/avisram/loom/mock"
)

var ansiRe = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

func stripANSI(s string) string {
	return ansiRe.ReplaceAllString(s, "")
}

// nopAgent is a mock agent that does nothing.
func nopAgent(_ context.Context, _ string, _ func(loom.Event)) error {
	return nil
}

// initModel creates a model and sends a WindowSizeMsg to initialize the viewport.
func initModel(t *testing.T, run bt.TaskFunc, task *loom.Task) bt.Model {
	t.Helper()
	m := bt.New(run, task, nil, loom.DefaultTheme())
	return updateModel(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
}

// updateModel sends a message and returns the updated Model.
func updateModel(t *testing.T, m bt.Model, msg tea.Msg) bt.Model {
	t.Helper()
	updated, _ := m.Update(msg)
	model, ok := updated.(bt.Model)
	require.True(t, ok)
	return model
}

// toolEvents is a completed turn: user prompt, narration, one Read
// invocation with its result, and the terminal result.
func toolEvents() []loom.Event {
	return []loom.Event{
		loom.UserEvent{Content: "check the notes"},
		loom.TextEvent{Content: "working on it"},
		loom.ToolUseEvent{Name: "Read", Input: json.RawMessage(`{"file_path":"/tmp/notes.md"}`), ID: "toolu_1"},
		loom.ToolResultEvent{ToolUseID: "toolu_1", Output: "all good"},
		loom.ResultEvent{Subtype: "success", Duration: 2 * time.Second},
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	m := bt.New(nopAgent, &loom.Task{}, nil, loom.DefaultTheme())

	assert.False(t, m.Running())
	assert.NoError(t, m.Err())
	assert.Empty(t, m.Transcript().Groups)
}

func TestNew_ExistingEventsRender(t *testing.T) {
	t.Parallel()

	task := &loom.Task{Events: []loom.Event{
		loom.UserEvent{Content: "hello there"},
		loom.TextEvent{Content: "hi, how can I help?"},
	}}
	m := initModel(t, nopAgent, task)

	content := stripANSI(bt.RenderContent(m))
	assert.Contains(t, content, "> hello there")
	assert.Contains(t, content, "hi, how can I help?")
}

func TestModel_Update(t *testing.T) {
	t.Parallel()

	t.Run("window size initializes viewport", func(t *testing.T) {
		t.Parallel()
		m := bt.New(nopAgent, &loom.Task{}, nil, loom.DefaultTheme())
		m = updateModel(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
		assert.NotEmpty(t, m.View())
	})

	t.Run("stream event appends to the log and rebuilds blocks", func(t *testing.T) {
		t.Parallel()
		task := &loom.Task{}
		m := initModel(t, nopAgent, task)

		m = updateModel(t, m, bt.StreamEventMsg{Event: loom.TextEvent{Content: "thinking aloud"}})

		require.Len(t, task.Events, 1)
		assert.Contains(t, stripANSI(bt.RenderContent(m)), "thinking aloud")
	})

	t.Run("completed tool run renders as a collapsed group", func(t *testing.T) {
		t.Parallel()
		m := initModel(t, nopAgent, &loom.Task{Events: toolEvents()})

		content := stripANSI(bt.RenderContent(m))
		assert.Contains(t, content, "▶ working on it")
		// Collapsed: the tool line is hidden.
		assert.NotContains(t, content, "Reading notes.md")
	})

	t.Run("tab expands the focused group", func(t *testing.T) {
		t.Parallel()
		m := initModel(t, nopAgent, &loom.Task{Events: toolEvents()})
		require.GreaterOrEqual(t, bt.BlockFocus(m), 0)

		m = updateModel(t, m, tea.KeyMsg{Type: tea.KeyTab})

		content := stripANSI(bt.RenderContent(m))
		assert.Contains(t, content, "▼ working on it")
		assert.Contains(t, content, "Reading notes.md")
	})

	t.Run("enter submits the prompt and starts a run", func(t *testing.T) {
		t.Parallel()
		task := &loom.Task{}
		m := initModel(t, nopAgent, task)
		m.Input.SetValue("do the thing")

		updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		m = updated.(bt.Model)

		assert.True(t, m.Running())
		assert.NotNil(t, cmd)
		require.Len(t, task.Events, 1)
		assert.Equal(t, loom.UserEvent{Content: "do the thing"}, task.Events[0])
	})

	t.Run("enter is ignored while running", func(t *testing.T) {
		t.Parallel()
		task := &loom.Task{}
		m := initModel(t, nopAgent, task)
		m, _ = bt.SetRunning(m)
		m.Input.SetValue("queued")

		m = updateModel(t, m, tea.KeyMsg{Type: tea.KeyEnter})

		assert.Empty(t, task.Events)
	})

	t.Run("empty input is not submitted", func(t *testing.T) {
		t.Parallel()
		task := &loom.Task{}
		m := initModel(t, nopAgent, task)
		m.Input.SetValue("   ")

		m = updateModel(t, m, tea.KeyMsg{Type: tea.KeyEnter})

		assert.False(t, m.Running())
		assert.Empty(t, task.Events)
	})

	t.Run("ctrl+c quits when idle", func(t *testing.T) {
		t.Parallel()
		m := initModel(t, nopAgent, &loom.Task{})

		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

		require.NotNil(t, cmd)
		assert.Equal(t, tea.Quit(), cmd())
	})

	t.Run("ctrl+c cancels a running turn", func(t *testing.T) {
		t.Parallel()
		m := initModel(t, nopAgent, &loom.Task{})
		cancelled := false
		m, _ = bt.SetRunningWithCancel(m, func() { cancelled = true })

		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

		assert.Nil(t, cmd)
		assert.True(t, cancelled)
	})

	t.Run("agent done clears running and records the error", func(t *testing.T) {
		t.Parallel()
		m := initModel(t, nopAgent, &loom.Task{})
		m, _ = bt.SetRunning(m)

		wantErr := errors.New("agent exploded")
		m = updateModel(t, m, bt.AgentDoneMsg{Err: wantErr})

		assert.False(t, m.Running())
		assert.ErrorIs(t, m.Err(), wantErr)
	})

	t.Run("agent done ignores context cancellation", func(t *testing.T) {
		t.Parallel()
		m := initModel(t, nopAgent, &loom.Task{})
		m, _ = bt.SetRunning(m)

		m = updateModel(t, m, bt.AgentDoneMsg{Err: context.Canceled})

		assert.False(t, m.Running())
		assert.NoError(t, m.Err())
	})
}

func TestModel_StatusLine(t *testing.T) {
	t.Parallel()

	t.Run("shows activity while running", func(t *testing.T) {
		t.Parallel()
		task := &loom.Task{Events: []loom.Event{
			loom.UserEvent{Content: "go"},
			loom.ToolUseEvent{Name: "Bash", Input: json.RawMessage(`{"command":"ls"}`)},
		}}
		m := initModel(t, nopAgent, task)
		m, _ = bt.SetRunning(m)

		assert.Contains(t, stripANSI(bt.StatusLine(m)), "Running a command")
	})

	t.Run("shows key hints when idle", func(t *testing.T) {
		t.Parallel()
		m := initModel(t, nopAgent, &loom.Task{})

		assert.Contains(t, stripANSI(bt.StatusLine(m)), "Enter to send")
	})

	t.Run("counts produced files when idle", func(t *testing.T) {
		t.Parallel()
		task := &loom.Task{Events: []loom.Event{
			loom.ToolUseEvent{Name: "Write", Input: json.RawMessage(`{"file_path":"/tmp/report.md","content":"# R"}`), ID: "t1"},
			loom.ToolResultEvent{ToolUseID: "t1", Output: "ok"},
		}}
		m := initModel(t, nopAgent, task)

		assert.Contains(t, stripANSI(bt.StatusLine(m)), "1 file")
	})
}

func TestModel_StoredFiles(t *testing.T) {
	t.Parallel()

	store := &mock.FileStore{
		FilesForTaskFn: func(taskID string) ([]loom.FileRecord, error) {
			assert.Equal(t, "task-1", taskID)
			return []loom.FileRecord{{ID: "rec-1", Type: "markdown", Path: "old/report.md"}}, nil
		},
	}
	task := &loom.Task{ID: "task-1"}
	m := bt.New(nopAgent, task, store, loom.DefaultTheme())

	require.Len(t, m.Transcript().Artifacts, 1)
	assert.Equal(t, "old/report.md", m.Transcript().Artifacts[0].Path)
}

func TestModel_StoredFilesError(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("disk gone")
	store := &mock.FileStore{
		FilesForTaskFn: func(string) ([]loom.FileRecord, error) {
			return nil, wantErr
		},
	}
	m := bt.New(nopAgent, &loom.Task{ID: "task-1"}, store, loom.DefaultTheme())

	assert.ErrorIs(t, m.Err(), wantErr)
}

func TestModel_FullTurn(t *testing.T) {
	t.Parallel()

	agent := func(_ context.Context, prompt string, onEvent func(loom.Event)) error {
		onEvent(loom.TextEvent{Content: "Hello from the agent!"})
		onEvent(loom.ResultEvent{Subtype: "success", Duration: time.Second})
		return nil
	}
	task := &loom.Task{}
	m := bt.New(agent, task, nil, loom.DefaultTheme())

	tm := teatest.NewTestModel(t, m,
		teatest.WithInitialTermSize(80, 24),
	)

	tm.Type("hi")
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})

	teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
		return bytes.Contains(out, []byte("Hello from the agent!")) &&
			bytes.Contains(out, []byte("Enter to send"))
	}, teatest.WithDuration(5*time.Second))

	tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})

	fm := tm.FinalModel(t, teatest.WithFinalTimeout(5*time.Second))
	final, ok := fm.(bt.Model)
	require.True(t, ok)
	assert.False(t, final.Running())
	assert.NoError(t, final.Err())
	// User prompt plus the two streamed events.
	assert.Len(t, task.Events, 3)
}
