package loom

import (
	"encoding/json"
	"path/filepath"
	"strings"
)

// Activity derives a one-line "currently doing X" label from the most recent
// unresolved tool invocation. With no unresolved invocation the agent is
// between tools, so the label falls back to "Thinking". The label is only
// meaningful while the stream is open; once the run finishes the UI stops
// showing it.
func Activity(events []Event) string {
	pairs := PairTools(events)
	for i := len(pairs) - 1; i >= 0; i-- {
		if pairs[i].Pending() {
			return ToolLabel(pairs[i].Use)
		}
	}
	return "Thinking"
}

// ToolLabel renders a tool invocation as a short human-readable phrase,
// e.g. "Reading main.go" or "Running a command".
func ToolLabel(use ToolUseEvent) string {
	target := targetName(use.Input)
	verb := ""
	switch use.Name {
	case "Read", "NotebookRead":
		verb = "Reading"
	case "Write":
		verb = "Writing"
	case "Edit", "MultiEdit", "NotebookEdit":
		verb = "Editing"
	case "Bash":
		return "Running a command"
	case "Grep", "Glob":
		return "Searching the codebase"
	case "WebSearch":
		return "Searching the web"
	case "WebFetch":
		return "Fetching a page"
	case "Task":
		return "Delegating a task"
	case "TodoWrite":
		return "Updating the task list"
	case "ExitPlanMode":
		return "Proposing a plan"
	default:
		return "Using " + use.Name
	}
	if target == "" {
		return verb + " a file"
	}
	return verb + " " + target
}

// targetName extracts the base name of the file an invocation targets, if
// its input carries one.
func targetName(input json.RawMessage) string {
	var in toolInput
	if err := json.Unmarshal(input, &in); err != nil {
		return ""
	}
	path := in.targetPath()
	if path == "" {
		return ""
	}
	return strings.TrimSpace(filepath.Base(path))
}
