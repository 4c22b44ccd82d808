package models

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidHex is returned when a hex color string cannot be parsed
var ErrInvalidHex = errors.New("invalid hex color")

// Color is an 8-bit RGB triple as sent to and reported by the controller
type Color struct {
	Red   uint8
	Green uint8
	Blue  uint8
}

// Named colors
var (
	ColorEmpty  = Color{}
	ColorRed    = Color{Red: 255}
	ColorGreen  = Color{Green: 255}
	ColorBlue   = Color{Blue: 255}
	ColorPurple = Color{Red: 255, Blue: 255}
	ColorCyan   = Color{Green: 255, Blue: 255}
	ColorYellow = Color{Red: 255, Green: 255}
	ColorWhite  = Color{Red: 255, Green: 255, Blue: 255}
)

var colorNames = map[string]Color{
	"red":    ColorRed,
	"green":  ColorGreen,
	"blue":   ColorBlue,
	"purple": ColorPurple,
	"cyan":   ColorCyan,
	"yellow": ColorYellow,
	"white":  ColorWhite,
}

// ParseColor accepts a color name ("red", "cyan", ...) or a hex string
func ParseColor(s string) (Color, error) {
	if c, ok := colorNames[strings.ToLower(strings.TrimSpace(s))]; ok {
		return c, nil
	}
	return ParseHex(s)
}

// NewColor creates a color from raw channel values
func NewColor(red, green, blue uint8) Color {
	return Color{Red: red, Green: green, Blue: blue}
}

// ParseHex parses "#RRGGBB" or "RRGGBB" (case-insensitive)
func ParseHex(s string) (Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 {
		return Color{}, fmt.Errorf("%w: %q", ErrInvalidHex, s)
	}

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("%w: %q", ErrInvalidHex, s)
	}

	return Color{
		Red:   uint8(v >> 16),
		Green: uint8(v >> 8),
		Blue:  uint8(v),
	}, nil
}

// Hex returns the color as "#RRGGBB"
func (c Color) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.Red, c.Green, c.Blue)
}

func (c Color) String() string {
	return fmt.Sprintf("R%d G%d B%d", c.Red, c.Green, c.Blue)
}

// Max returns the highest channel value
func (c Color) Max() uint8 {
	return max(c.Red, c.Green, c.Blue)
}

// IsEmpty reports whether all channels are zero
func (c Color) IsEmpty() bool {
	return c == ColorEmpty
}

// Scale rescales every channel linearly from brightness `from` to brightness
// `to` (both 0-100), keeping the hue. Scaling an empty color or from zero
// brightness yields a gray at the target level.
func (c Color) Scale(from, to uint8) Color {
	if to > 100 {
		to = 100
	}
	if from == 0 || c.IsEmpty() {
		level := LevelOf(to)
		return Color{Red: level, Green: level, Blue: level}
	}

	return Color{
		Red:   ScaleLevel(c.Red, from, to),
		Green: ScaleLevel(c.Green, from, to),
		Blue:  ScaleLevel(c.Blue, from, to),
	}
}

// ScaleLevel rescales a single channel level from brightness `from` to
// brightness `to`. From zero it returns the level for `to`.
func ScaleLevel(level, from, to uint8) uint8 {
	if to > 100 {
		to = 100
	}
	if from == 0 {
		return LevelOf(to)
	}
	return clampTo255(math.Round(float64(level) * float64(to) / float64(from)))
}

// BrightnessOf converts a channel level (0-255) to a brightness percentage,
// rounded to the nearest integer.
func BrightnessOf(level uint8) uint8 {
	return uint8((int(level)*100 + 127) / 255)
}

// LevelOf converts a brightness percentage (0-100) to a channel level
func LevelOf(pct uint8) uint8 {
	if pct > 100 {
		pct = 100
	}
	return uint8((int(pct)*255 + 50) / 100)
}

// HSV returns hue in degrees (0-359), saturation and value (0-100)
func (c Color) HSV() (hue, sat, val int) {
	rf := float64(c.Red) / 255
	gf := float64(c.Green) / 255
	bf := float64(c.Blue) / 255

	maxVal := math.Max(rf, math.Max(gf, bf))
	minVal := math.Min(rf, math.Min(gf, bf))
	delta := maxVal - minVal

	var h float64
	if delta != 0 {
		switch maxVal {
		case rf:
			h = math.Mod((gf-bf)/delta, 6)
		case gf:
			h = (bf-rf)/delta + 2
		default:
			h = (rf-gf)/delta + 4
		}
		h *= 60
		if h < 0 {
			h += 360
		}
	}

	var s float64
	if maxVal != 0 {
		s = delta / maxVal
	}

	return int(math.Round(h)) % 360, int(math.Round(s * 100)), int(math.Round(maxVal * 100))
}

// NewColorFromHSV builds a color from hue in degrees and saturation/value in
// percent.
func NewColorFromHSV(hue, sat, val int) Color {
	h := math.Mod(float64(hue), 360)
	if h < 0 {
		h += 360
	}
	s := clampFloat(float64(sat)/100, 0, 1)
	v := clampFloat(float64(val)/100, 0, 1)

	if s == 0 {
		level := clampTo255(math.Round(v * 255))
		return Color{Red: level, Green: level, Blue: level}
	}

	h /= 60
	i := math.Floor(h)
	f := h - i
	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))

	var rf, gf, bf float64
	switch int(i) {
	case 0:
		rf, gf, bf = v, t, p
	case 1:
		rf, gf, bf = q, v, p
	case 2:
		rf, gf, bf = p, v, t
	case 3:
		rf, gf, bf = p, q, v
	case 4:
		rf, gf, bf = t, p, v
	default:
		rf, gf, bf = v, p, q
	}

	return Color{
		Red:   clampTo255(math.Round(rf * 255)),
		Green: clampTo255(math.Round(gf * 255)),
		Blue:  clampTo255(math.Round(bf * 255)),
	}
}

// RotateHue returns the color with its hue shifted by deg degrees
func (c Color) RotateHue(deg int) Color {
	h, s, v := c.HSV()
	return NewColorFromHSV(h+deg, s, v)
}

func clampTo255(value float64) uint8 {
	if value < 0 {
		return 0
	}
	if value > 255 {
		return 255
	}
	return uint8(value)
}

func clampFloat(value, lo, hi float64) float64 {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}
