package loom

import (
	"encoding/json"
	"time"
)

// Event is a sealed interface representing one immutable entry in the agent's
// execution log. The log is append-only and totally ordered; derived views
// (groups, artifacts, the activity label) are rebuilt from the full history
// on every change, never patched in place.
// The unexported marker method prevents external implementations.
type Event interface {
	event()
}

// TextEvent is assistant natural-language output. The runtime emits
// intermediate "thinking" text freely, including verbatim repeats; Collapse
// reduces each conversational segment to a single representative TextEvent.
type TextEvent struct {
	Content string
}

func (TextEvent) event() {}

// ToolUseEvent is an invocation of a named capability. ID may be empty; the
// runtime does not guarantee identifier correlation, so results are paired
// with invocations by arrival order (see PairTools).
type ToolUseEvent struct {
	Name  string
	Input json.RawMessage
	ID    string
}

func (ToolUseEvent) event() {}

// ToolResultEvent is the output of the most recently unresolved invocation.
// ToolUseID may be empty.
type ToolResultEvent struct {
	ToolUseID string
	Output    string
	IsError   bool
}

func (ToolResultEvent) event() {}

// UserEvent is a user-authored turn. It marks a segment boundary.
type UserEvent struct {
	Content     string
	Attachments []string
}

func (UserEvent) event() {}

// ResultEvent is the terminal summary of a completed run. It marks a segment
// boundary. Only the last ResultEvent in the whole stream is ever rendered.
type ResultEvent struct {
	Subtype  string
	CostUSD  float64
	Duration time.Duration
}

func (ResultEvent) event() {}

// ErrorEvent is a terminal failure notice from the runtime.
type ErrorEvent struct {
	Message string
}

func (ErrorEvent) event() {}

// PlanEvent is a structured plan proposal awaiting approval.
type PlanEvent struct {
	Plan string
}

func (PlanEvent) event() {}

// Interface compliance checks.
var (
	_ Event = TextEvent{}
	_ Event = ToolUseEvent{}
	_ Event = ToolResultEvent{}
	_ Event = UserEvent{}
	_ Event = ResultEvent{}
	_ Event = ErrorEvent{}
	_ Event = PlanEvent{}
)
