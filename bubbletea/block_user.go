package bubbletea

import (
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var _ MessageBlock = (*UserBlock)(nil)

// UserBlock renders a user turn with a "> " prefix and any attachments.
type UserBlock struct {
	text        string
	attachments []string
	styles      Styles
}

// NewUserBlock creates a UserBlock.
func NewUserBlock(text string, attachments []string, styles Styles) *UserBlock {
	return &UserBlock{text: text, attachments: attachments, styles: styles}
}

func (b *UserBlock) Update(msg tea.Msg) (MessageBlock, tea.Cmd) {
	return b, nil
}

func (b *UserBlock) View(width int) string {
	content := b.styles.UserMsg.Render("> ") + b.text
	for _, a := range b.attachments {
		content += "\n" + b.styles.Muted.Render("  ⎙ "+filepath.Base(strings.TrimSpace(a)))
	}
	return lipgloss.NewStyle().Width(width).Render(content)
}
