package bubbletea_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avisram/loom"
	bt "github.com/avisram/loom/bubbletea"
)

func testStyles() bt.Styles {
	return bt.NewStyles(loom.DefaultTheme())
}

func readPair(done bool) loom.ToolWithResult {
	pair := loom.ToolWithResult{
		Use: loom.ToolUseEvent{Name: "Read", Input: json.RawMessage(`{"file_path":"/tmp/notes.md"}`), ID: "t1"},
	}
	if done {
		pair.Result = &loom.ToolResultEvent{ToolUseID: "t1", Output: "contents"}
	}
	return pair
}

func TestTaskGroupBlock_DefaultCollapse(t *testing.T) {
	t.Parallel()

	t.Run("completed group starts collapsed", func(t *testing.T) {
		t.Parallel()
		b := bt.NewTaskGroupBlock(loom.TaskGroup{Title: "tidy up", Completed: true}, testStyles())
		assert.True(t, b.Collapsed())
	})

	t.Run("open group starts expanded", func(t *testing.T) {
		t.Parallel()
		b := bt.NewTaskGroupBlock(loom.TaskGroup{Title: "tidy up"}, testStyles())
		assert.False(t, b.Collapsed())
	})
}

func TestTaskGroupBlock_Toggle(t *testing.T) {
	t.Parallel()

	b := bt.NewTaskGroupBlock(loom.TaskGroup{Title: "tidy up", Completed: true}, testStyles())

	updated, _ := b.Update(bt.ToggleMsg{})
	toggled, ok := updated.(*bt.TaskGroupBlock)
	require.True(t, ok)
	assert.False(t, toggled.Collapsed())
}

func TestTaskGroupBlock_SetGroupKeepsUserChoice(t *testing.T) {
	t.Parallel()

	group := loom.TaskGroup{Title: "tidy up", Completed: false}
	b := bt.NewTaskGroupBlock(group, testStyles())

	// User collapses the in-flight group.
	updated, _ := b.Update(bt.ToggleMsg{})
	b = updated.(*bt.TaskGroupBlock)
	require.True(t, b.Collapsed())

	// Rebuild with more tools must not reopen it.
	group.Tools = append(group.Tools, readPair(true))
	b.SetGroup(group)
	assert.True(t, b.Collapsed())
}

func TestTaskGroupBlock_SetGroupCollapsesOnCompletion(t *testing.T) {
	t.Parallel()

	b := bt.NewTaskGroupBlock(loom.TaskGroup{Title: "tidy up"}, testStyles())
	require.False(t, b.Collapsed())

	b.SetGroup(loom.TaskGroup{Title: "tidy up", Completed: true})
	assert.True(t, b.Collapsed())
}

func TestTaskGroupBlock_View(t *testing.T) {
	t.Parallel()

	t.Run("collapsed shows only the header", func(t *testing.T) {
		t.Parallel()
		group := loom.TaskGroup{Title: "tidy up", Tools: []loom.ToolWithResult{readPair(true)}, Completed: true}
		b := bt.NewTaskGroupBlock(group, testStyles())

		view := stripANSI(b.View(80))
		assert.Contains(t, view, "▶ tidy up")
		assert.NotContains(t, view, "Reading")
	})

	t.Run("expanded lists tools with status markers", func(t *testing.T) {
		t.Parallel()
		group := loom.TaskGroup{
			Title:       "tidy up",
			Description: "cleaning stray files first",
			Tools:       []loom.ToolWithResult{readPair(true), readPair(false)},
		}
		b := bt.NewTaskGroupBlock(group, testStyles())

		view := stripANSI(b.View(80))
		assert.Contains(t, view, "▼ tidy up")
		assert.Contains(t, view, "cleaning stray files first")
		assert.Contains(t, view, "✓ Reading notes.md")
		assert.Contains(t, view, "… Reading notes.md")
	})

	t.Run("failed tool shows error marker and first output line", func(t *testing.T) {
		t.Parallel()
		pair := readPair(true)
		pair.Result.IsError = true
		pair.Result.Output = "no such file\nmore detail"
		b := bt.NewTaskGroupBlock(loom.TaskGroup{Title: "tidy up", Tools: []loom.ToolWithResult{pair}}, testStyles())

		view := stripANSI(b.View(80))
		assert.Contains(t, view, "✗ Reading notes.md")
		assert.Contains(t, view, "no such file")
		assert.NotContains(t, view, "more detail")
	})

	t.Run("untitled group falls back to a label", func(t *testing.T) {
		t.Parallel()
		b := bt.NewTaskGroupBlock(loom.TaskGroup{Tools: []loom.ToolWithResult{readPair(false)}}, testStyles())

		assert.Contains(t, stripANSI(b.View(80)), "Working")
	})
}
