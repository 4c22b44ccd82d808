package messages

import (
	"github.com/angristan/magichome/internal/api"
	"github.com/angristan/magichome/internal/models"
)

// LightsConnectedMsg carries session states once every light has been
// dialled. Err joins the lights that failed.
type LightsConnectedMsg struct {
	Lights []models.Light
	Err    error
}

// LightsRefreshedMsg carries fresh state from a poll or a manual refresh
type LightsRefreshedMsg struct {
	Lights []models.Light
	// Sessions that replaced dropped ones, keyed by address
	Reconnected map[string]api.Controller
	Err         error
}

// LightUpdatedMsg carries the state of the lights a command was sent to
type LightUpdatedMsg struct {
	Lights []models.Light
	Err    error
}

// ErrorMsg indicates an error occurred
type ErrorMsg struct {
	Err error
}

// ShowPatternsMsg requests the preset pattern picker
type ShowPatternsMsg struct {
	Group   string // Apply to this whole group
	Address string // Apply to this light only (takes precedence)
}

// HidePatternsMsg requests hiding the pattern picker
type HidePatternsMsg struct{}

// PatternSelectedMsg indicates a pattern was picked
type PatternSelectedMsg struct {
	Pattern models.PresetPattern
	Speed   uint8
}

// RefreshMsg requests a state refresh
type RefreshMsg struct{}

// LightsAddedMsg carries the lights chosen on the setup screen
type LightsAddedMsg struct {
	Lights []api.DiscoveredLight
}
