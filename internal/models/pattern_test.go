package models

import "testing"

func TestPresetPatterns(t *testing.T) {
	patterns := PresetPatterns()
	if len(patterns) != 20 {
		t.Fatalf("len(PresetPatterns()) = %d, want 20", len(patterns))
	}
	if patterns[0] != SevenColorsCrossFade || patterns[19] != SevenColorsJumping {
		t.Errorf("unexpected ordering: first %v, last %v", patterns[0], patterns[19])
	}
	for i, p := range patterns {
		if !p.Valid() {
			t.Errorf("pattern %d (%v) not valid", i, p)
		}
		if p.String() == "" {
			t.Errorf("pattern 0x%02x has no name", uint8(p))
		}
	}
}

func TestPresetPatternValid(t *testing.T) {
	tests := []struct {
		code uint8
		want bool
	}{
		{0x24, false},
		{0x25, true},
		{0x2a, true},
		{0x38, true},
		{0x39, false},
		{0x00, false},
	}
	for _, tt := range tests {
		if got := PresetPattern(tt.code).Valid(); got != tt.want {
			t.Errorf("PresetPattern(0x%02x).Valid() = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestParsePresetPattern(t *testing.T) {
	tests := []struct {
		input   string
		want    PresetPattern
		wantErr bool
	}{
		{input: "RedStrobeFlash", want: RedStrobeFlash},
		{input: "redstrobeflash", want: RedStrobeFlash},
		{input: "0x25", want: SevenColorsCrossFade},
		{input: "56", want: SevenColorsJumping},
		{input: "99", wantErr: true},
		{input: "300", wantErr: true},
		{input: "disco", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParsePresetPattern(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParsePresetPattern(%q) = %v, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePresetPattern(%q) error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParsePresetPattern(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestTransitionType(t *testing.T) {
	tests := []struct {
		input string
		want  TransitionType
		name  string
	}{
		{"gradual", TransitionGradual, "Gradual"},
		{"JUMP", TransitionJump, "Jump"},
		{" strobe ", TransitionStrobe, "Strobe"},
	}
	for _, tt := range tests {
		got, err := ParseTransitionType(tt.input)
		if err != nil {
			t.Fatalf("ParseTransitionType(%q) error: %v", tt.input, err)
		}
		if got != tt.want || got.String() != tt.name || !got.Valid() {
			t.Errorf("ParseTransitionType(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}

	if _, err := ParseTransitionType("fade"); err == nil {
		t.Error("ParseTransitionType(fade) should fail")
	}
	if TransitionType(0x3d).Valid() {
		t.Error("0x3d should not be a valid transition")
	}
}
