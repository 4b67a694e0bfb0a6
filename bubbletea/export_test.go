package bubbletea

// RenderContent exports renderContent for testing.
func RenderContent(m Model) string {
	return m.renderContent()
}

// StatusLine exports statusLine for testing.
func StatusLine(m Model) string {
	return m.statusLine()
}

// BlockFocus exports blockFocus for testing.
func BlockFocus(m Model) int {
	return m.blockFocus
}

// Blocks exports the block list for testing.
func Blocks(m Model) []MessageBlock {
	return m.blocks
}
