package components

import (
	"fmt"
	"strings"

	"github.com/angristan/magichome/internal/models"
	"github.com/angristan/magichome/internal/tui/styles"
)

// RenderGroupHeader renders a group row with an on/brightness summary
func RenderGroupHeader(group *models.Group, selected bool) string {
	cursor := "  "
	if selected {
		cursor = styles.StyleSelected.Render("> ")
	}

	lightsOn := 0
	for _, light := range group.Lights {
		if light.On {
			lightsOn++
		}
	}

	summary := fmt.Sprintf("(%d/%d on", lightsOn, len(group.Lights))
	if lightsOn > 0 {
		summary += fmt.Sprintf(" • %d%%", group.AverageBrightness())
	}
	summary += ")"

	return fmt.Sprintf("%s%s %s", cursor, styles.StyleGroupTitle.Render(group.Name), styles.StyleTextMuted.Render(summary))
}

// RenderGroupDetails renders the side panel body for a group
func RenderGroupDetails(group *models.Group, width int) string {
	barWidth := min(max(width-10, 10), 25)

	var b strings.Builder
	b.WriteString(styles.StyleSelected.Render(group.Name))
	b.WriteString("\n\n")

	lightsOn := 0
	for _, light := range group.Lights {
		if light.On {
			lightsOn++
		}
	}

	switch {
	case lightsOn == 0:
		b.WriteString(styles.StyleStatusOff.Render("○ All Off"))
	case group.AllOn:
		b.WriteString(styles.StyleStatusOn.Render("● All On"))
	default:
		b.WriteString(styles.StyleStatusOn.Render(fmt.Sprintf("● %d/%d On", lightsOn, len(group.Lights))))
	}
	b.WriteString("\n\n")

	b.WriteString(styles.StyleTextMuted.Render("Avg Brightness: "))
	if lightsOn > 0 {
		avg := group.AverageBrightness()
		b.WriteString(fmt.Sprintf("%d%%\n", avg))
		b.WriteString(RenderBrightnessBar(avg, true, barWidth))
	} else {
		b.WriteString("--\n")
		b.WriteString(RenderBrightnessBar(0, false, barWidth))
	}
	b.WriteString("\n\n")

	b.WriteString(styles.StyleTextMuted.Render("Lights:\n"))
	const maxLights = 8
	maxNameLen := max(width-8, 12)
	for i, light := range group.Lights {
		if i >= maxLights {
			b.WriteString(fmt.Sprintf("  ... +%d more\n", len(group.Lights)-maxLights))
			break
		}
		icon := styles.StyleStatusOff.Render("○")
		if light.On {
			icon = styles.StyleStatusOn.Render("●")
		}
		b.WriteString(fmt.Sprintf("  %s %s\n", icon, strings.TrimRight(Truncate(light.DisplayName(), maxNameLen), " ")))
	}

	if connected := len(group.ConnectedLights()); connected < len(group.Lights) {
		b.WriteString("\n")
		b.WriteString(styles.StyleError.Render(fmt.Sprintf("%d not connected", len(group.Lights)-connected)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(styles.StyleTextMuted.Render("←→ dim • space toggle • p patterns"))

	return b.String()
}
