package loom

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// titleBudget is the display-width budget for TaskGroup titles, in terminal
// cells. Descriptions wider than this are truncated with an ellipsis.
const titleBudget = 60

// Group is a sealed interface representing one derived presentation unit.
// The unexported marker method prevents external implementations.
type Group interface {
	group()
}

// TaskGroup is a representative text followed by the tools it introduced:
// "plan statement" plus the ordered invocations carrying it out. Completed is
// false only for the trailing group of a still-running stream; the UI uses it
// to decide default expansion, not correctness.
type TaskGroup struct {
	Title       string
	Description string
	Tools       []ToolWithResult
	Completed   bool
}

func (TaskGroup) group() {}

// StandaloneGroup wraps exactly one terminal-kind event: a user turn, the
// final result, an error, a plan proposal, or a text that no tool followed.
type StandaloneGroup struct {
	Event Event
}

func (StandaloneGroup) group() {}

// Interface compliance checks.
var (
	_ Group = TaskGroup{}
	_ Group = StandaloneGroup{}
)

// groupAccum is the state threaded through the BuildGroups fold. Groups are
// appended at close time only, so output order is emission order.
type groupAccum struct {
	groups []Group

	pendingText string
	hasPending  bool

	openDesc  string
	openTools []ToolWithResult
	openGroup bool

	nextTool int // index into the pair table
}

// BuildGroups folds the collapsed event sequence into an ordered list of
// presentation groups. It is a pure function of its inputs; running indicates
// whether the stream is still open, which only affects whether a trailing
// open TaskGroup is marked completed.
//
// Unrecognized event kinds produce no group and no error: the builder is
// total over any event sequence and tolerant of future additions.
func BuildGroups(events []Event, running bool) []Group {
	pairs := PairTools(events)
	acc := groupAccum{}
	for _, ev := range events {
		acc = stepGroup(acc, ev, pairs)
	}
	return finalizeGroups(acc, running)
}

func stepGroup(acc groupAccum, ev Event, pairs []ToolWithResult) groupAccum {
	switch e := ev.(type) {
	case TextEvent:
		// A pending text that never attracted a tool stands alone. An open
		// group cannot coexist with a pending text (opening consumes it),
		// so at most one of these fires.
		acc = flushPending(acc)
		acc = closeOpen(acc, true)
		acc.pendingText = e.Content
		acc.hasPending = true

	case ToolUseEvent:
		if !acc.openGroup {
			acc.openGroup = true
			if acc.hasPending {
				acc.openDesc = acc.pendingText
				acc.pendingText = ""
				acc.hasPending = false
			}
		}
		if acc.nextTool < len(pairs) {
			acc.openTools = append(acc.openTools, pairs[acc.nextTool])
			acc.nextTool++
		}

	case ToolResultEvent:
		// Consumed by pairing; never a group of its own.

	case UserEvent, ResultEvent, ErrorEvent, PlanEvent:
		acc = flushPending(acc)
		acc = closeOpen(acc, true)
		acc.groups = append(acc.groups, StandaloneGroup{Event: ev})
	}
	return acc
}

func finalizeGroups(acc groupAccum, running bool) []Group {
	acc = flushPending(acc)
	acc = closeOpen(acc, !running)
	return acc.groups
}

func flushPending(acc groupAccum) groupAccum {
	if !acc.hasPending {
		return acc
	}
	acc.groups = append(acc.groups, StandaloneGroup{Event: TextEvent{Content: acc.pendingText}})
	acc.pendingText = ""
	acc.hasPending = false
	return acc
}

func closeOpen(acc groupAccum, completed bool) groupAccum {
	if !acc.openGroup {
		return acc
	}
	acc.groups = append(acc.groups, TaskGroup{
		Title:       groupTitle(acc.openDesc),
		Description: acc.openDesc,
		Tools:       acc.openTools,
		Completed:   completed,
	})
	acc.openDesc = ""
	acc.openTools = nil
	acc.openGroup = false
	return acc
}

// groupTitle reduces a description to its first line, truncated to the title
// budget by display width.
func groupTitle(desc string) string {
	line := desc
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)
	return runewidth.Truncate(line, titleBudget, "…")
}
