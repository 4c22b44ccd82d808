package api

import (
	"time"

	"github.com/angristan/magichome/internal/models"
)

// DefaultPort is the TCP port controllers listen on
const DefaultPort = 5577

// MaxCustomColors is the number of color slots in a custom pattern frame
const MaxCustomColors = 16

var (
	statusQueryLEDENET         = []byte{0x81, 0x8a, 0x8b}
	statusQueryLEDENETOriginal = []byte{0xef, 0x01, 0x77}
	clockQuery                 = []byte{0x11, 0x1a, 0x1b, 0x0f}
	customFiller               = []byte{0x00, 0x01, 0x02, 0x03}
)

// Checksum returns the sum of all bytes modulo 256
func Checksum(b []byte) byte {
	var sum byte
	for _, v := range b {
		sum += v
	}
	return sum
}

// EncodeFrame returns a copy of cmd, followed by its checksum when
// withChecksum is set.
func EncodeFrame(cmd []byte, withChecksum bool) []byte {
	frame := make([]byte, len(cmd), len(cmd)+1)
	copy(frame, cmd)
	if withChecksum {
		frame = append(frame, Checksum(cmd))
	}
	return frame
}

// SpeedToDelay maps a speed percentage (0-100, clamped) to the device's
// delay byte: 100 is fastest (1), 0 is slowest (31).
func SpeedToDelay(speed uint8) byte {
	if speed > 100 {
		speed = 100
	}
	return byte((int(100-speed)*30)/100 + 1)
}

// DelayToSpeed is the approximate inverse of SpeedToDelay
func DelayToSpeed(delay byte) uint8 {
	if delay < 1 {
		delay = 1
	}
	if delay > 31 {
		delay = 31
	}
	return uint8(100 - (int(delay)-1)*100/30)
}

// StatusQueryCommand returns the dialect's status request
func StatusQueryCommand(p models.Protocol) []byte {
	if p == models.ProtocolLEDENETOriginal {
		return statusQueryLEDENETOriginal
	}
	return statusQueryLEDENET
}

// PowerCommand builds a power on/off command
func PowerCommand(p models.Protocol, on bool) []byte {
	state := byte(0x24)
	if on {
		state = 0x23
	}
	if p == models.ProtocolLEDENETOriginal {
		return []byte{0xcc, state, 0x33}
	}
	return []byte{0x71, state, 0x0f}
}

// ColorCommand builds a set-color command
func ColorCommand(p models.Protocol, c models.Color) []byte {
	if p == models.ProtocolLEDENETOriginal {
		return []byte{0x56, c.Red, c.Green, c.Blue, 0xaa}
	}
	return []byte{0x41, c.Red, c.Green, c.Blue, 0x00, 0x00, 0x0f}
}

// WarmWhiteCommand builds a warm white command. The legacy dialect has no
// white channel, so ok is false and callers fall back to ColorCommand.
func WarmWhiteCommand(p models.Protocol, level uint8) (cmd []byte, ok bool) {
	if p == models.ProtocolLEDENETOriginal {
		return nil, false
	}
	return []byte{0x31, 0x00, 0x00, 0x00, level, 0x0f, 0x0f}, true
}

// PresetCommand builds a preset pattern command. Both dialects share it.
func PresetCommand(pattern models.PresetPattern, speed uint8) ([]byte, error) {
	if !pattern.Valid() {
		return nil, invalidArgument("preset pattern 0x%02x out of range", uint8(pattern))
	}
	return []byte{0x61, byte(pattern), SpeedToDelay(speed), 0x0f}, nil
}

// CustomPatternCommand builds a custom pattern: the first color rides in the
// opcode group, the remaining slots hold colors or filler, then the
// terminator carries delay and transition.
func CustomPatternCommand(colors []models.Color, transition models.TransitionType, speed uint8) ([]byte, error) {
	if len(colors) == 0 {
		return nil, invalidArgument("custom pattern needs at least one color")
	}
	if len(colors) > MaxCustomColors {
		return nil, invalidArgument("custom pattern takes at most %d colors, got %d", MaxCustomColors, len(colors))
	}
	if !transition.Valid() {
		return nil, invalidArgument("transition 0x%02x out of range", uint8(transition))
	}

	cmd := make([]byte, 0, MaxCustomColors*4+5)
	first := colors[0]
	cmd = append(cmd, 0x51, first.Red, first.Green, first.Blue)
	for i := 1; i < MaxCustomColors; i++ {
		if i < len(colors) {
			c := colors[i]
			cmd = append(cmd, 0x00, c.Red, c.Green, c.Blue)
		} else {
			cmd = append(cmd, customFiller...)
		}
	}
	cmd = append(cmd, 0x00, SpeedToDelay(speed), byte(transition), 0xff, 0x0f)
	return cmd, nil
}

// SetClockCommand builds a set-clock command. The weekday byte is 0 for
// Sunday through 6 for Saturday.
func SetClockCommand(t time.Time) ([]byte, error) {
	year := t.Year() - 2000
	if year < 0 || year > 255 {
		return nil, invalidArgument("year %d not representable", t.Year())
	}
	return []byte{
		0x10, 0x14,
		byte(year), byte(t.Month()), byte(t.Day()),
		byte(t.Hour()), byte(t.Minute()), byte(t.Second()),
		byte(t.Weekday()), 0x00, 0x0f,
	}, nil
}

// ClockQueryCommand returns the clock request. Both dialects share it.
func ClockQueryCommand() []byte {
	return clockQuery
}
