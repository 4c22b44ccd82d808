package models

import (
	"strings"
	"testing"
)

func TestLightBrightness(t *testing.T) {
	tests := []struct {
		name  string
		light Light
		want  uint8
	}{
		{name: "full red", light: Light{Color: ColorRed}, want: 100},
		{name: "half color", light: Light{Color: NewColor(128, 10, 0)}, want: 50},
		{name: "warm white", light: Light{WarmWhite: 200}, want: 78},
		{name: "off", light: Light{}, want: 0},
		{name: "max of both", light: Light{Color: NewColor(64, 0, 0), WarmWhite: 255}, want: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.light.Brightness(); got != tt.want {
				t.Errorf("Brightness() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestLightClone(t *testing.T) {
	orig := &Light{Address: "10.0.0.5", Color: ColorRed, On: true}
	clone := orig.Clone()
	clone.Color = ColorBlue
	clone.On = false

	if orig.Color != ColorRed || !orig.On {
		t.Error("modifying clone changed original")
	}
}

func TestLightDisplayName(t *testing.T) {
	l := Light{Address: "10.0.0.5"}
	if l.DisplayName() != "10.0.0.5" {
		t.Errorf("DisplayName() = %q, want address", l.DisplayName())
	}
	l.Name = "Desk"
	if l.DisplayName() != "Desk" {
		t.Errorf("DisplayName() = %q, want Desk", l.DisplayName())
	}
}

func TestLightString(t *testing.T) {
	l := Light{Address: "10.0.0.5", On: true, Mode: ModeColor, Color: ColorGreen, Protocol: ProtocolLEDENET}
	s := l.String()
	for _, want := range []string{"[10.0.0.5]", "Power true", "Mode Color", "Brightness 100", "Protocol LEDENET"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %q, missing %q", s, want)
		}
	}
}

func TestEnumStrings(t *testing.T) {
	if ProtocolLEDENETOriginal.String() != "LEDENET_ORIGINAL" {
		t.Errorf("unexpected protocol name %q", ProtocolLEDENETOriginal)
	}
	if ProtocolUnknown.String() != "Unknown" || ModeUnknown.String() != "Unknown" {
		t.Error("zero values should be Unknown")
	}
	if ModeWarmWhite.String() != "WarmWhite" {
		t.Errorf("unexpected mode name %q", ModeWarmWhite)
	}
}

func TestLightMethodsOnReturnedValue(t *testing.T) {
	snapshot := func() Light {
		return Light{Address: "10.0.0.1", Color: NewColor(0, 0, 255)}
	}

	if got := snapshot().Brightness(); got != 100 {
		t.Errorf("Brightness() = %d, want 100", got)
	}
	if got := snapshot().DisplayName(); got != "10.0.0.1" {
		t.Errorf("DisplayName() = %q, want 10.0.0.1", got)
	}
	if got := snapshot().String(); !strings.HasPrefix(got, "[10.0.0.1]: ") {
		t.Errorf("String() = %q", got)
	}
}
