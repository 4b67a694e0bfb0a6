package bubbletea

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/avisram/loom"
)

var _ MessageBlock = (*TaskGroupBlock)(nil)

// TaskGroupBlock renders a titled run of tool activity with a collapsible
// toggle. Completed groups start collapsed; a group still accumulating tools
// starts expanded so in-flight activity is visible.
type TaskGroupBlock struct {
	group     loom.TaskGroup
	collapsed bool
	toggled   bool
	styles    Styles
}

// NewTaskGroupBlock creates a TaskGroupBlock with the default collapsed state
// for the group's completion status.
func NewTaskGroupBlock(group loom.TaskGroup, styles Styles) *TaskGroupBlock {
	return &TaskGroupBlock{group: group, collapsed: group.Completed, styles: styles}
}

// SetGroup replaces the group while keeping a user-chosen collapsed state.
// Blocks are rebuilt wholesale on every event; without this an explicit
// toggle would be lost on the next rebuild.
func (b *TaskGroupBlock) SetGroup(group loom.TaskGroup) {
	b.group = group
	if !b.toggled {
		b.collapsed = group.Completed
	}
}

// Collapsed reports the current collapsed state.
func (b *TaskGroupBlock) Collapsed() bool { return b.collapsed }

func (b *TaskGroupBlock) Update(msg tea.Msg) (MessageBlock, tea.Cmd) {
	if _, ok := msg.(ToggleMsg); ok {
		b.collapsed = !b.collapsed
		b.toggled = true
	}
	return b, nil
}

func (b *TaskGroupBlock) View(width int) string {
	indicator := "▶"
	if !b.collapsed {
		indicator = "▼"
	}
	title := b.group.Title
	if title == "" {
		title = "Working"
	}
	header := b.styles.Tool.Render(indicator + " " + title)
	if b.group.Completed {
		header += " " + b.styles.Success.Render("✓")
	}

	content := header
	if !b.collapsed {
		var lines []string
		if b.group.Description != "" && b.group.Description != b.group.Title {
			lines = append(lines, b.styles.Muted.Render(b.group.Description))
		}
		for _, pair := range b.group.Tools {
			lines = append(lines, "  "+b.toolLine(pair))
		}
		if len(lines) > 0 {
			content = header + "\n" + strings.Join(lines, "\n")
		}
	}
	return b.styles.ToolBg.
		Width(width).
		Render(content)
}

func (b *TaskGroupBlock) toolLine(pair loom.ToolWithResult) string {
	label := loom.ToolLabel(pair.Use)
	switch {
	case pair.Pending():
		return b.styles.Muted.Render("… " + label)
	case pair.Result.IsError:
		return b.styles.Error.Render("✗ "+label) + "  " + b.styles.Error.Render(firstLine(pair.Result.Output))
	default:
		return b.styles.Success.Render("✓") + " " + label
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
