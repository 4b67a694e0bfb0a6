package loom_test

import (
	"encoding/json"
	"testing"

	"github.com/avisram/loom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sampleStream is a representative task: a user turn, thinking text displaced
// by the segment's final statement, a tool run, and a terminal result.
func sampleStream() []loom.Event {
	return []loom.Event{
		loom.UserEvent{Content: "write the report"},
		loom.TextEvent{Content: "let me look around"},
		loom.TextEvent{Content: "writing the report now"},
		loom.ToolUseEvent{Name: "Write", ID: "t1", Input: json.RawMessage(`{"file_path":"/out/report.md","content":"# Report"}`)},
		loom.ToolResultEvent{ToolUseID: "t1", Output: "wrote /out/report.md"},
		loom.ResultEvent{Subtype: "success", CostUSD: 0.05},
	}
}

func TestInterpret_Deterministic(t *testing.T) {
	t.Parallel()

	events := sampleStream()
	first := loom.Interpret(events)
	second := loom.Interpret(events)

	assert.Equal(t, first, second)
}

func TestInterpret_FullSample(t *testing.T) {
	t.Parallel()

	tr := loom.Interpret(sampleStream())

	// user, task group, result.
	require.Len(t, tr.Groups, 3)
	assert.Equal(t, loom.StandaloneGroup{Event: loom.UserEvent{Content: "write the report"}}, tr.Groups[0])

	tg, ok := tr.Groups[1].(loom.TaskGroup)
	require.True(t, ok)
	assert.Equal(t, "writing the report now", tg.Description)
	assert.True(t, tg.Completed)
	require.Len(t, tg.Tools, 1)
	require.NotNil(t, tg.Tools[0].Result)

	sg, ok := tr.Groups[2].(loom.StandaloneGroup)
	require.True(t, ok)
	_, isResult := sg.Event.(loom.ResultEvent)
	assert.True(t, isResult)

	require.Len(t, tr.Artifacts, 1)
	assert.Equal(t, "/out/report.md", tr.Artifacts[0].ID)

	assert.Equal(t, "Thinking", tr.Activity)
}

func TestInterpret_IdempotentUnderAppend(t *testing.T) {
	t.Parallel()

	events := sampleStream()
	full := loom.Interpret(events, loom.WithRunning(false))

	for n := 0; n <= len(events); n++ {
		prefix := loom.Interpret(events[:n], loom.WithRunning(true))

		// Every prefix group except possibly the trailing one is closed and
		// must reappear unchanged at the same position in the full run.
		for i := 0; i < len(prefix.Groups)-1; i++ {
			require.Greater(t, len(full.Groups), i, "prefix %d", n)
			assert.Equal(t, full.Groups[i], prefix.Groups[i], "prefix %d group %d", n, i)
		}
	}
}

func TestInterpret_OnlyLastResultRendered(t *testing.T) {
	t.Parallel()

	events := []loom.Event{
		loom.ResultEvent{Subtype: "error_during_execution"},
		loom.ResultEvent{Subtype: "success"},
	}

	tr := loom.Interpret(events)

	require.Len(t, tr.Groups, 1)
	sg, ok := tr.Groups[0].(loom.StandaloneGroup)
	require.True(t, ok)
	res, ok := sg.Event.(loom.ResultEvent)
	require.True(t, ok)
	assert.Equal(t, "success", res.Subtype)
}

func TestInterpret_DuplicateTextSuppressed(t *testing.T) {
	t.Parallel()

	// Two identical texts across segment boundaries collapse to one group.
	tr := loom.Interpret([]loom.Event{
		loom.TextEvent{Content: "A"},
		loom.UserEvent{Content: "u"},
		loom.TextEvent{Content: "A"},
	})

	var texts int
	for _, g := range tr.Groups {
		if sg, ok := g.(loom.StandaloneGroup); ok {
			if _, ok := sg.Event.(loom.TextEvent); ok {
				texts++
			}
		}
	}
	assert.Equal(t, 1, texts)
}

func TestInterpret_WithStoredFiles(t *testing.T) {
	t.Parallel()

	tr := loom.Interpret(sampleStream(), loom.WithStoredFiles([]loom.FileRecord{
		{ID: "r1", Path: "/out/old.html", Type: "html", Preview: "<p>old</p>"},
		{ID: "r2", Path: "/out/report.md", Type: "markdown", Preview: "dup of structured"},
	}))

	require.Len(t, tr.Artifacts, 2)
	assert.Equal(t, "/out/report.md", tr.Artifacts[0].ID)
	assert.Equal(t, "/out/old.html", tr.Artifacts[1].ID)
}

func TestInterpret_EmptyStream(t *testing.T) {
	t.Parallel()

	tr := loom.Interpret(nil)

	assert.Empty(t, tr.Groups)
	assert.Empty(t, tr.Artifacts)
	assert.Equal(t, "Thinking", tr.Activity)
}
