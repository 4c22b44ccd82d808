package styles

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/angristan/magichome/internal/models"
)

// Color palette
var (
	// Primary colors
	ColorPrimary    = lipgloss.Color("#F6AD55") // Amber
	ColorAccent     = lipgloss.Color("#FEEBC8") // Light amber
	ColorSurface    = lipgloss.Color("#2D2D44") // Surface color
	ColorSurfaceAlt = lipgloss.Color("#3D3D5C") // Alternate surface

	// Text colors
	ColorText        = lipgloss.Color("#FAFAFA") // Primary text
	ColorTextMuted   = lipgloss.Color("#A0A0B0") // Muted text
	ColorTextDim     = lipgloss.Color("#6B6B80") // Dim text
	ColorTextInverse = lipgloss.Color("#1A1A2E") // Inverse text

	// State colors
	ColorSuccess = lipgloss.Color("#68D391") // Green
	ColorWarning = lipgloss.Color("#F6E05E") // Yellow
	ColorError   = lipgloss.Color("#FC8181") // Red

	// Light states
	ColorLightOn  = lipgloss.Color("#FBBF24") // Warm yellow for on
	ColorLightOff = lipgloss.Color("#4A4A5A") // Gray for off
)

// Styles for various UI components
var (
	StyleHeaderGradient = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorTextInverse).
				Background(ColorPrimary).
				Padding(0, 2)

	// Group styles
	StyleGroupTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent)

	StyleLightName = lipgloss.NewStyle().
			Foreground(ColorText)

	StyleLightNameDim = lipgloss.NewStyle().
				Foreground(ColorTextMuted)

	StyleSelected = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)

	// Status indicators
	StyleStatusOn = lipgloss.NewStyle().
			Foreground(ColorLightOn).
			Bold(true)

	StyleStatusOff = lipgloss.NewStyle().
			Foreground(ColorLightOff)

	// Brightness bar styles
	StyleBrightnessBarEmpty = lipgloss.NewStyle().
				Foreground(ColorSurfaceAlt)

	// Modal styles
	StyleModal = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(ColorPrimary).
			Background(ColorSurface).
			Padding(1, 2)

	StyleModalTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			MarginBottom(1)

	StyleInputFocused = lipgloss.NewStyle().
				Border(lipgloss.NormalBorder()).
				BorderForeground(ColorPrimary).
				Padding(0, 1)

	// Help styles
	StyleHelp = lipgloss.NewStyle().
			Foreground(ColorTextDim)

	StyleHelpKey = lipgloss.NewStyle().
			Foreground(ColorPrimary)

	// Side panel
	StyleSidePanel = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorPrimary).
			Padding(1, 2)

	// Pattern list styles
	StyleListItem = lipgloss.NewStyle().
			Foreground(ColorText).
			Padding(0, 1)

	StyleListItemSelected = lipgloss.NewStyle().
				Foreground(ColorTextInverse).
				Background(ColorPrimary).
				Padding(0, 1)

	StyleSearch = lipgloss.NewStyle().
			Foreground(ColorPrimary)

	StyleSpinner = lipgloss.NewStyle().
			Foreground(ColorPrimary)

	StyleError = lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true)

	StyleWarning = lipgloss.NewStyle().
			Foreground(ColorWarning)

	StyleTextMuted = lipgloss.NewStyle().
			Foreground(ColorTextMuted)
)

// GetBrightnessColor returns the color of bar segment i of width, going from
// dim amber at the left to full amber at the right.
func GetBrightnessColor(i, width int) lipgloss.Color {
	if width <= 0 {
		return ColorSurfaceAlt
	}
	intensity := 100 + (i * 155 / width)
	return lipgloss.Color(fmt.Sprintf("#%02X%02X00", intensity, intensity/2))
}

// LightColor returns a terminal color for a light's output
func LightColor(c models.Color) lipgloss.Color {
	return lipgloss.Color(c.Hex())
}
