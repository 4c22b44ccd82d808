package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/angristan/magichome/internal/models"
	"github.com/angristan/magichome/internal/tui/styles"
)

// RenderBrightnessBar renders a horizontal brightness bar of the given width
func RenderBrightnessBar(brightness int, on bool, width int) string {
	if !on || brightness <= 0 {
		return styles.StyleBrightnessBarEmpty.Render(strings.Repeat("─", width))
	}

	filled := (brightness * width) / 100
	if filled == 0 {
		filled = 1
	}

	var bar strings.Builder
	for i := 0; i < width; i++ {
		if i < filled {
			bar.WriteString(lipgloss.NewStyle().Foreground(styles.GetBrightnessColor(i, width)).Render("█"))
		} else {
			bar.WriteString(styles.StyleBrightnessBarEmpty.Render("─"))
		}
	}
	return bar.String()
}

// RenderHueBar renders a rainbow with a marker at hueDeg
func RenderHueBar(hueDeg int, width int) string {
	pos := hueDeg * width / 360
	if pos >= width {
		pos = width - 1
	}

	var bar strings.Builder
	for i := 0; i < width; i++ {
		c := models.NewColorFromHSV(i*360/width, 100, 100)
		char := "─"
		if i == pos {
			char = "●"
		}
		bar.WriteString(lipgloss.NewStyle().Foreground(styles.LightColor(c)).Render(char))
	}
	return bar.String()
}

// RenderWhiteBar renders a warm white level (0-255) as a bar
func RenderWhiteBar(level uint8, width int) string {
	filled := int(level) * width / 255
	if level > 0 && filled == 0 {
		filled = 1
	}

	warm := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD8A8"))
	var bar strings.Builder
	for i := 0; i < width; i++ {
		if i < filled {
			bar.WriteString(warm.Render("█"))
		} else {
			bar.WriteString(styles.StyleBrightnessBarEmpty.Render("─"))
		}
	}
	return bar.String()
}
