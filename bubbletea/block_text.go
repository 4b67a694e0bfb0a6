package bubbletea

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/avisram/loom"
	"github.com/avisram/loom/markdown"
)

var _ MessageBlock = (*AgentTextBlock)(nil)

// AgentTextBlock renders standalone agent text with markdown formatting.
// Rendering is cached per width; blocks are rebuilt on every event so the
// cache only has to survive repeated View calls at a stable width.
type AgentTextBlock struct {
	text  string
	theme loom.Theme

	cachedWidth int
	cached      string
}

// NewAgentTextBlock creates an AgentTextBlock.
func NewAgentTextBlock(text string, theme loom.Theme) *AgentTextBlock {
	return &AgentTextBlock{text: text, theme: theme, cachedWidth: -1}
}

func (b *AgentTextBlock) Update(msg tea.Msg) (MessageBlock, tea.Cmd) {
	return b, nil
}

func (b *AgentTextBlock) View(width int) string {
	if width != b.cachedWidth {
		b.cached = markdown.Render(b.text, width, b.theme)
		b.cachedWidth = width
	}
	return b.cached
}
