package bubbletea

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/avisram/loom"
	"github.com/avisram/loom/markdown"
)

var _ MessageBlock = (*PlanBlock)(nil)

// PlanBlock renders a proposed plan with a collapsible toggle. Plans start
// expanded: they are the one thing the user is expected to read and approve.
type PlanBlock struct {
	plan      string
	theme     loom.Theme
	styles    Styles
	collapsed bool
}

// NewPlanBlock creates a PlanBlock.
func NewPlanBlock(plan string, theme loom.Theme, styles Styles) *PlanBlock {
	return &PlanBlock{plan: plan, theme: theme, styles: styles}
}

func (b *PlanBlock) Update(msg tea.Msg) (MessageBlock, tea.Cmd) {
	if _, ok := msg.(ToggleMsg); ok {
		b.collapsed = !b.collapsed
	}
	return b, nil
}

func (b *PlanBlock) View(width int) string {
	indicator := "▼"
	if b.collapsed {
		indicator = "▶"
	}
	header := b.styles.Accent.Render(indicator + " Plan")
	if b.collapsed {
		return header
	}
	return header + "\n" + markdown.Render(b.plan, width, b.theme)
}
