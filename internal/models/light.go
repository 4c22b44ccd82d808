package models

import (
	"fmt"
	"time"
)

// Protocol is the firmware dialect a controller speaks
type Protocol int

const (
	ProtocolUnknown Protocol = iota
	// ProtocolLEDENET is the current dialect (status query 81 8a 8b)
	ProtocolLEDENET
	// ProtocolLEDENETOriginal is the legacy dialect (status query ef 01 77)
	ProtocolLEDENETOriginal
)

func (p Protocol) String() string {
	switch p {
	case ProtocolLEDENET:
		return "LEDENET"
	case ProtocolLEDENETOriginal:
		return "LEDENET_ORIGINAL"
	default:
		return "Unknown"
	}
}

// Mode is what the controller is currently displaying
type Mode int

const (
	ModeUnknown Mode = iota
	ModeColor
	ModeWarmWhite
	ModePreset
	ModeCustom
)

func (m Mode) String() string {
	switch m {
	case ModeColor:
		return "Color"
	case ModeWarmWhite:
		return "WarmWhite"
	case ModePreset:
		return "Preset"
	case ModeCustom:
		return "Custom"
	default:
		return "Unknown"
	}
}

// Light is a snapshot of a controller's last known state
type Light struct {
	// Network address (host, without port)
	Address string
	// User-friendly name from the config, may be empty
	Name string
	// Group name from the config, may be empty
	Group string
	// Whether the session has completed its handshake
	Connected bool
	// Detected dialect
	Protocol Protocol
	// Current on/off state
	On bool
	// Current mode
	Mode Mode
	// RGB channels, meaningful in ModeColor
	Color Color
	// Warm white level, meaningful in ModeWarmWhite
	WarmWhite uint8
	// Device clock as of the last refresh
	Clock time.Time
	// Whether outgoing frames carry a checksum byte
	UseChecksum bool
}

// Brightness returns the brightness percentage (0-100) derived from the
// color channels and warm white level.
func (l Light) Brightness() uint8 {
	return BrightnessOf(max(l.Color.Max(), l.WarmWhite))
}

// DisplayName returns the configured name or the address
func (l Light) DisplayName() string {
	if l.Name != "" {
		return l.Name
	}
	return l.Address
}

// Clone creates a copy of the light
func (l *Light) Clone() *Light {
	clone := *l
	return &clone
}

// String summarizes the light on one line
func (l Light) String() string {
	clock := "-"
	if !l.Clock.IsZero() {
		clock = l.Clock.Format(time.TimeOnly)
	}
	return fmt.Sprintf("[%s]: Power %t, Mode %s, Color %s, Warm White %d, Brightness %d, Protocol %s, Time %s",
		l.Address, l.On, l.Mode, l.Color, l.WarmWhite, l.Brightness(), l.Protocol, clock)
}
