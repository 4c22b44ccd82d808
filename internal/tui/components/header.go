package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/angristan/magichome/internal/tui/styles"
)

// RenderHeader renders the application header with a status on the right.
// An empty status renders as "Disconnected".
func RenderHeader(width int, status string, loading bool) string {
	title := styles.StyleHeaderGradient.Render(" MAGIC HOME ")

	statusStyle := lipgloss.NewStyle().
		Foreground(styles.ColorSuccess).
		Padding(0, 1)

	switch {
	case loading:
		statusStyle = statusStyle.Foreground(styles.ColorWarning)
		if status == "" {
			status = "⟳ Loading..."
		}
	case status == "":
		status = "Disconnected"
		statusStyle = statusStyle.Foreground(styles.ColorError)
	}

	right := statusStyle.Render(status)

	spacing := width - lipgloss.Width(title) - lipgloss.Width(right)
	if spacing < 1 {
		spacing = 1
	}

	return title + strings.Repeat(" ", spacing) + right
}
