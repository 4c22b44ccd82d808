package api

import (
	"time"

	"github.com/angristan/magichome/internal/models"
)

// StatusLength is the size of every status and clock reply
const StatusLength = 14

// Status is a decoded status reply
type Status struct {
	// ChecksumDisabled is set when a legacy-dialect device reports that it
	// does not expect checksums (byte 1 == 0x01)
	ChecksumDisabled bool
	// PowerKnown is false when byte 2 is neither on nor off
	PowerKnown bool
	On         bool
	Mode       models.Mode
	// PatternCode is the raw byte 3
	PatternCode byte
	// Delay is the raw speed byte of a running pattern
	Delay     byte
	Color     models.Color
	WarmWhite uint8
}

// DecodeStatus decodes a 14-byte status reply. Shorter frames are rejected
// with ErrMalformedResponse; extra trailing bytes are ignored.
func DecodeStatus(p models.Protocol, frame []byte) (Status, error) {
	if len(frame) < StatusLength {
		return Status{}, malformed("status reply has %d bytes, want %d", len(frame), StatusLength)
	}

	st := Status{
		ChecksumDisabled: p == models.ProtocolLEDENETOriginal && frame[1] == 0x01,
		PatternCode:      frame[3],
		Delay:            frame[5],
		Mode:             DecodeMode(frame[3], frame[9]),
	}

	switch frame[2] {
	case 0x23:
		st.PowerKnown, st.On = true, true
	case 0x24:
		st.PowerKnown, st.On = true, false
	}

	switch st.Mode {
	case models.ModeColor:
		st.Color = models.NewColor(frame[6], frame[7], frame[8])
	case models.ModeWarmWhite:
		st.WarmWhite = frame[9]
	}

	return st, nil
}

// Apply copies the decoded fields onto l. Power is only written when known.
// Color and white are only meaningful in color and warm white modes, every
// other mode clears them.
func (s Status) Apply(l *models.Light) {
	if s.PowerKnown {
		l.On = s.On
	}
	if s.ChecksumDisabled {
		l.UseChecksum = false
	}
	l.Mode = s.Mode

	switch s.Mode {
	case models.ModeColor:
		l.Color = s.Color
		l.WarmWhite = 0
	case models.ModeWarmWhite:
		l.Color = models.ColorEmpty
		l.WarmWhite = s.WarmWhite
	default:
		l.Color = models.ColorEmpty
		l.WarmWhite = 0
	}
}

// DecodeMode maps the status pattern code and white byte to a mode. Every
// input maps to exactly one mode.
func DecodeMode(code, white byte) models.Mode {
	switch {
	case code == 0x41 || code == 0x61 || code == 0x62:
		if white == 0 {
			return models.ModeColor
		}
		return models.ModeWarmWhite
	case code == 0x60:
		return models.ModeCustom
	case models.PresetPattern(code).Valid():
		return models.ModePreset
	case code >= 25 && code <= 38:
		// Some firmware reports the preset number rather than its code
		return models.ModePreset
	default:
		return models.ModeUnknown
	}
}

// DecodeClock decodes the time fields of a 14-byte clock reply in loc
func DecodeClock(frame []byte, loc *time.Location) (time.Time, error) {
	if len(frame) < StatusLength {
		return time.Time{}, malformed("clock reply has %d bytes, want %d", len(frame), StatusLength)
	}

	year := 2000 + int(frame[3])
	month, day := int(frame[4]), int(frame[5])
	hour, minute, second := int(frame[6]), int(frame[7]), int(frame[8])

	if month < 1 || month > 12 || day < 1 || day > 31 || hour > 23 || minute > 59 || second > 59 {
		return time.Time{}, malformed("clock reply % x out of range", frame[3:9])
	}

	t := time.Date(year, time.Month(month), day, hour, minute, second, 0, loc)
	if t.Day() != day {
		return time.Time{}, malformed("clock reply day %d invalid for %d-%02d", day, year, month)
	}
	return t, nil
}
