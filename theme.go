package loom

// Theme defines semantic color mappings using ANSI color indices (0-15).
// The user's terminal theme determines the actual RGB values, so the app
// automatically matches any color scheme.
type Theme struct {
	UserMsg  int // User turn accent
	Tool     int // Tool invocation header
	Error    int // Error messages
	Success  int // Completed groups, success results
	Muted    int // Status bar, pending tools, placeholders
	CodeBg   int // Code block background
	Accent   int // Headings, links, plan proposals
	UserBg   int // User turn background
	ToolBg   int // Task group background
	ResultBg int // Terminal result background
	ErrorBg  int // Error background
}

// DefaultTheme returns the default ANSI color mapping.
func DefaultTheme() Theme {
	return Theme{
		UserMsg:  4,
		Tool:     3,
		Error:    1,
		Success:  2,
		Muted:    8,
		CodeBg:   0,
		Accent:   5,
		UserBg:   -1,
		ToolBg:   -1,
		ResultBg: -1,
		ErrorBg:  -1,
	}
}
