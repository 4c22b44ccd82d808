package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/angristan/magichome/internal/models"
	"github.com/angristan/magichome/internal/tui/styles"
)

// RenderSwatch renders a small block filled with the color
func RenderSwatch(c models.Color) string {
	return lipgloss.NewStyle().Background(styles.LightColor(c)).Render("    ")
}

// RenderLightRow renders a light as one list row: cursor, power icon, name,
// brightness bar, percentage and a color marker.
func RenderLightRow(light *models.Light, selected bool, width int) string {
	cursor := "  "
	if selected {
		cursor = styles.StyleSelected.Render("> ")
	}

	icon := styles.StyleStatusOff.Render("○")
	switch {
	case !light.Connected:
		icon = styles.StyleError.Render("×")
	case light.On:
		icon = styles.StyleStatusOn.Render("●")
	}

	// cursor(2) + icon(1) + space(1) + spaces(2) + space(1) + pct(4) + color(2)
	available := width - 13

	barWidth := available * 35 / 100
	barWidth = min(max(barWidth, 8), 20)
	nameWidth := min(max(available-barWidth, 10), 45)

	nameStyle := styles.StyleLightNameDim
	if light.On {
		nameStyle = styles.StyleLightName
	}
	if selected {
		nameStyle = styles.StyleSelected
	}
	name := nameStyle.Render(Truncate(light.DisplayName(), nameWidth))

	brightness := int(light.Brightness())
	bar := RenderBrightnessBar(brightness, light.On, barWidth)
	pct := styles.StyleTextMuted.Render(fmt.Sprintf("%3d%%", brightness))

	marker := ""
	if light.On && light.Mode == models.ModeColor && !light.Color.IsEmpty() {
		marker = lipgloss.NewStyle().Foreground(styles.LightColor(light.Color)).Render(" ◆")
	}

	return fmt.Sprintf("%s%s %s  %s %s%s", cursor, icon, name, bar, pct, marker)
}

// RenderLightDetails renders the side panel body for a single light
func RenderLightDetails(light *models.Light, barWidth int) string {
	var b strings.Builder

	b.WriteString(styles.StyleSelected.Render(light.DisplayName()))
	b.WriteString("\n")
	if light.Name != "" {
		b.WriteString(styles.StyleTextMuted.Render(light.Address))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch {
	case !light.Connected:
		b.WriteString(styles.StyleError.Render("× Not connected"))
	case light.On:
		b.WriteString(styles.StyleStatusOn.Render("● On"))
	default:
		b.WriteString(styles.StyleStatusOff.Render("○ Off"))
	}
	b.WriteString("\n\n")

	brightness := int(light.Brightness())
	b.WriteString(styles.StyleTextMuted.Render("Brightness: "))
	b.WriteString(fmt.Sprintf("%d%%\n", brightness))
	b.WriteString(RenderBrightnessBar(brightness, light.On, barWidth))
	b.WriteString("\n\n")

	b.WriteString(styles.StyleTextMuted.Render("Mode: "))
	b.WriteString(light.Mode.String())
	b.WriteString("\n\n")

	switch light.Mode {
	case models.ModeColor:
		hue, sat, _ := light.Color.HSV()
		b.WriteString(styles.StyleTextMuted.Render("Hue: "))
		b.WriteString(fmt.Sprintf("%d°  ", hue))
		b.WriteString(styles.StyleTextMuted.Render("Sat: "))
		b.WriteString(fmt.Sprintf("%d%%\n", sat))
		b.WriteString(RenderHueBar(hue, barWidth))
		b.WriteString("\n\n")
		b.WriteString(styles.StyleTextMuted.Render("Color: "))
		b.WriteString(RenderSwatch(light.Color))
		b.WriteString(" " + light.Color.Hex())
		b.WriteString("\n\n")
	case models.ModeWarmWhite:
		b.WriteString(styles.StyleTextMuted.Render("Warm white: "))
		b.WriteString(fmt.Sprintf("%d\n", light.WarmWhite))
		b.WriteString(RenderWhiteBar(light.WarmWhite, barWidth))
		b.WriteString("\n\n")
	}

	b.WriteString(styles.StyleTextMuted.Render("Protocol: "))
	b.WriteString(light.Protocol.String())
	if light.Connected && !light.UseChecksum {
		b.WriteString(styles.StyleWarning.Render(" (no checksum)"))
	}
	b.WriteString("\n")

	b.WriteString(styles.StyleTextMuted.Render("Clock: "))
	if light.Clock.IsZero() {
		b.WriteString("--")
	} else {
		b.WriteString(light.Clock.Format(time.DateTime))
	}

	if light.Group != "" {
		b.WriteString("\n")
		b.WriteString(styles.StyleTextMuted.Render("Group: "))
		b.WriteString(light.Group)
	}

	return b.String()
}

// Truncate pads or cuts s to exactly maxLen runes
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s + strings.Repeat(" ", maxLen-len(r))
	}
	if maxLen < 1 {
		return ""
	}
	return string(r[:maxLen-1]) + "…"
}
