package tui

import "github.com/charmbracelet/lipgloss"

var (
	// titleStyle styles the feed name in the header.
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF5F87"))

	// tabStyle styles the category tabs.
	tabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6E738D")).
			Padding(0, 1)

	// activeTabStyle highlights the selected category.
	activeTabStyle = tabStyle.
			Bold(true).
			Foreground(lipgloss.Color("#CAD3F5")).
			Underline(true)

	// statusBarStyle styles the bottom status bar.
	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6E738D"))

	// noticeStyle styles transient errors in the status bar.
	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ED8796"))

	// panelStyle frames the comment panel.
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#45475A")).
			Padding(0, 1)

	commentAuthorStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#7DC4E4"))

	commentBodyStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#CAD3F5"))

	// selectedCommentStyle marks the comment under the cursor.
	selectedCommentStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FF5F87")).
				Bold(true)

	likedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F87"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6E738D"))
)
