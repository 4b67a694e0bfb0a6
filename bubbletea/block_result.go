package bubbletea

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/avisram/loom"
)

var _ MessageBlock = (*ResultBlock)(nil)

// ResultBlock renders the terminal result line of a run: outcome, elapsed
// time, and cost when reported.
type ResultBlock struct {
	result loom.ResultEvent
	styles Styles
}

// NewResultBlock creates a ResultBlock.
func NewResultBlock(result loom.ResultEvent, styles Styles) *ResultBlock {
	return &ResultBlock{result: result, styles: styles}
}

func (b *ResultBlock) Update(msg tea.Msg) (MessageBlock, tea.Cmd) {
	return b, nil
}

func (b *ResultBlock) View(width int) string {
	icon := b.styles.Success.Render("✓")
	label := "Done"
	if b.result.Subtype != "" && b.result.Subtype != "success" {
		icon = b.styles.Error.Render("✗")
		label = b.result.Subtype
	}
	line := icon + " " + label
	if b.result.Duration > 0 {
		line += b.styles.Muted.Render(fmt.Sprintf(" in %.1fs", b.result.Duration.Seconds()))
	}
	if b.result.CostUSD > 0 {
		line += b.styles.Muted.Render(fmt.Sprintf(" ($%.2f)", b.result.CostUSD))
	}
	return b.styles.ResultBg.
		Width(width).
		Render(line)
}
