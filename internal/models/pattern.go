package models

import (
	"fmt"
	"strconv"
	"strings"
)

// PresetPattern is a built-in animation selected by its device code
type PresetPattern uint8

const (
	SevenColorsCrossFade  PresetPattern = 0x25
	RedGradualChange      PresetPattern = 0x26
	GreenGradualChange    PresetPattern = 0x27
	BlueGradualChange     PresetPattern = 0x28
	YellowGradualChange   PresetPattern = 0x29
	CyanGradualChange     PresetPattern = 0x2a
	PurpleGradualChange   PresetPattern = 0x2b
	WhiteGradualChange    PresetPattern = 0x2c
	RedGreenCrossFade     PresetPattern = 0x2d
	RedBlueCrossFade      PresetPattern = 0x2e
	GreenBlueCrossFade    PresetPattern = 0x2f
	SevenColorStrobeFlash PresetPattern = 0x30
	RedStrobeFlash        PresetPattern = 0x31
	GreenStrobeFlash      PresetPattern = 0x32
	BlueStrobeFlash       PresetPattern = 0x33
	YellowStrobeFlash     PresetPattern = 0x34
	CyanStrobeFlash       PresetPattern = 0x35
	PurpleStrobeFlash     PresetPattern = 0x36
	WhiteStrobeFlash      PresetPattern = 0x37
	SevenColorsJumping    PresetPattern = 0x38
)

var presetPatternNames = map[PresetPattern]string{
	SevenColorsCrossFade:  "SevenColorsCrossFade",
	RedGradualChange:      "RedGradualChange",
	GreenGradualChange:    "GreenGradualChange",
	BlueGradualChange:     "BlueGradualChange",
	YellowGradualChange:   "YellowGradualChange",
	CyanGradualChange:     "CyanGradualChange",
	PurpleGradualChange:   "PurpleGradualChange",
	WhiteGradualChange:    "WhiteGradualChange",
	RedGreenCrossFade:     "RedGreenCrossFade",
	RedBlueCrossFade:      "RedBlueCrossFade",
	GreenBlueCrossFade:    "GreenBlueCrossFade",
	SevenColorStrobeFlash: "SevenColorStrobeFlash",
	RedStrobeFlash:        "RedStrobeFlash",
	GreenStrobeFlash:      "GreenStrobeFlash",
	BlueStrobeFlash:       "BlueStrobeFlash",
	YellowStrobeFlash:     "YellowStrobeFlash",
	CyanStrobeFlash:       "CyanStrobeFlash",
	PurpleStrobeFlash:     "PurpleStrobeFlash",
	WhiteStrobeFlash:      "WhiteStrobeFlash",
	SevenColorsJumping:    "SevenColorsJumping",
}

// Valid reports whether p is one of the 20 device presets
func (p PresetPattern) Valid() bool {
	return p >= SevenColorsCrossFade && p <= SevenColorsJumping
}

func (p PresetPattern) String() string {
	if name, ok := presetPatternNames[p]; ok {
		return name
	}
	return fmt.Sprintf("PresetPattern(0x%02x)", uint8(p))
}

// PresetPatterns returns all presets in code order
func PresetPatterns() []PresetPattern {
	patterns := make([]PresetPattern, 0, len(presetPatternNames))
	for p := SevenColorsCrossFade; p <= SevenColorsJumping; p++ {
		patterns = append(patterns, p)
	}
	return patterns
}

// ParsePresetPattern accepts a pattern name (case-insensitive) or its numeric
// code ("0x25", "37").
func ParsePresetPattern(s string) (PresetPattern, error) {
	s = strings.TrimSpace(s)
	for p, name := range presetPatternNames {
		if strings.EqualFold(name, s) {
			return p, nil
		}
	}

	if code, err := strconv.ParseUint(s, 0, 8); err == nil {
		if p := PresetPattern(code); p.Valid() {
			return p, nil
		}
	}

	return 0, fmt.Errorf("unknown preset pattern %q", s)
}

// TransitionType selects how a custom pattern moves between colors
type TransitionType uint8

const (
	TransitionGradual TransitionType = 0x3a
	TransitionJump    TransitionType = 0x3b
	TransitionStrobe  TransitionType = 0x3c
)

// Valid reports whether t is a known transition code
func (t TransitionType) Valid() bool {
	return t >= TransitionGradual && t <= TransitionStrobe
}

func (t TransitionType) String() string {
	switch t {
	case TransitionGradual:
		return "Gradual"
	case TransitionJump:
		return "Jump"
	case TransitionStrobe:
		return "Strobe"
	default:
		return fmt.Sprintf("TransitionType(0x%02x)", uint8(t))
	}
}

// ParseTransitionType parses "gradual", "jump" or "strobe"
func ParseTransitionType(s string) (TransitionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "gradual":
		return TransitionGradual, nil
	case "jump":
		return TransitionJump, nil
	case "strobe":
		return TransitionStrobe, nil
	}
	return 0, fmt.Errorf("unknown transition %q", s)
}
