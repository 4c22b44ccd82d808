package tui

import (
	"testing"
	"time"

	"github.com/angristan/magichome/internal/models"
)

func TestPendingTracker_ExactMatch(t *testing.T) {
	tracker := NewPendingTracker()

	tracker.Add("10.0.0.5", "on", true)

	if !tracker.ShouldIgnore("10.0.0.5", "on", true) {
		t.Error("Expected to ignore matching on=true")
	}

	// After match, pending op should be cleared
	if tracker.ShouldIgnore("10.0.0.5", "on", true) {
		t.Error("Expected pending op to be cleared after match")
	}
}

func TestPendingTracker_ExactMatch_StalePoll(t *testing.T) {
	tracker := NewPendingTracker()

	tracker.Add("10.0.0.5", "on", true)

	// A poll sent before the command still reports off
	if !tracker.ShouldIgnore("10.0.0.5", "on", false) {
		t.Error("Expected to ignore stale on=false")
	}
	if !tracker.Pending("10.0.0.5", "on") {
		t.Error("Expected op to stay pending until the target is seen")
	}
}

func TestPendingTracker_DirUp_IntermediateValues(t *testing.T) {
	tracker := NewPendingTracker()

	tracker.AddWithDirection("10.0.0.5", "brightness", 80, DirUp)

	if !tracker.ShouldIgnore("10.0.0.5", "brightness", 55) {
		t.Error("Expected to ignore intermediate value 55 (< 80)")
	}
	if !tracker.ShouldIgnore("10.0.0.5", "brightness", uint8(70)) {
		t.Error("Expected to ignore intermediate value 70 (< 80)")
	}
	if !tracker.ShouldIgnore("10.0.0.5", "brightness", 80) {
		t.Error("Expected to ignore target value 80")
	}
	if tracker.ShouldIgnore("10.0.0.5", "brightness", 85) {
		t.Error("Expected not to ignore after target reached")
	}
}

func TestPendingTracker_DirUp_ExternalIncrease(t *testing.T) {
	tracker := NewPendingTracker()

	tracker.AddWithDirection("10.0.0.5", "brightness", 60, DirUp)

	if tracker.ShouldIgnore("10.0.0.5", "brightness", 75) {
		t.Error("Expected not to ignore external value 75 (> 60 target)")
	}
	if tracker.Pending("10.0.0.5", "brightness") {
		t.Error("Expected op to be dropped after an external change")
	}
}

func TestPendingTracker_DirDown_IntermediateValues(t *testing.T) {
	tracker := NewPendingTracker()

	tracker.AddWithDirection("10.0.0.5", "brightness", 40, DirDown)

	if !tracker.ShouldIgnore("10.0.0.5", "brightness", 70) {
		t.Error("Expected to ignore intermediate value 70 (> 40)")
	}
	if !tracker.ShouldIgnore("10.0.0.5", "brightness", 40) {
		t.Error("Expected to ignore target value 40")
	}
	if tracker.ShouldIgnore("10.0.0.5", "brightness", 35) {
		t.Error("Expected not to ignore after target reached")
	}
}

func TestPendingTracker_DirDown_ExternalDecrease(t *testing.T) {
	tracker := NewPendingTracker()

	tracker.AddWithDirection("10.0.0.5", "brightness", 40, DirDown)

	if tracker.ShouldIgnore("10.0.0.5", "brightness", 30) {
		t.Error("Expected not to ignore external value 30 (< 40 target)")
	}
}

func TestPendingTracker_RapidChanges(t *testing.T) {
	tracker := NewPendingTracker()

	// 50 -> 60 -> 70 -> 80, only the last target matters
	tracker.AddWithDirection("10.0.0.5", "brightness", 60, DirUp)
	tracker.AddWithDirection("10.0.0.5", "brightness", 70, DirUp)
	tracker.AddWithDirection("10.0.0.5", "brightness", 80, DirUp)

	for _, v := range []int{55, 65, 75, 80} {
		if !tracker.ShouldIgnore("10.0.0.5", "brightness", v) {
			t.Errorf("Expected to ignore %d", v)
		}
	}
}

func TestPendingTracker_MultipleLights(t *testing.T) {
	tracker := NewPendingTracker()

	tracker.AddWithDirection("10.0.0.5", "brightness", 80, DirUp)
	tracker.AddWithDirection("10.0.0.6", "brightness", 40, DirDown)

	if !tracker.ShouldIgnore("10.0.0.5", "brightness", 70) {
		t.Error("Expected to ignore 10.0.0.5 brightness 70")
	}
	if !tracker.ShouldIgnore("10.0.0.6", "brightness", 50) {
		t.Error("Expected to ignore 10.0.0.6 brightness 50")
	}
	if tracker.ShouldIgnore("10.0.0.7", "brightness", 50) {
		t.Error("Expected not to ignore an unknown light")
	}
}

func TestPendingTracker_Expiry(t *testing.T) {
	tracker := NewPendingTracker()

	tracker.mu.Lock()
	tracker.ops["10.0.0.5:brightness"] = &PendingOp{
		Field:     "brightness",
		Target:    80,
		Direction: DirUp,
		ExpiresAt: time.Now().Add(-1 * time.Second),
	}
	tracker.mu.Unlock()

	if tracker.ShouldIgnore("10.0.0.5", "brightness", 70) {
		t.Error("Expected not to ignore expired pending op")
	}

	tracker.mu.Lock()
	tracker.ops["10.0.0.5:on"] = &PendingOp{Field: "on", Target: true, ExpiresAt: time.Now().Add(-time.Second)}
	tracker.mu.Unlock()
	tracker.Cleanup()
	if tracker.Pending("10.0.0.5", "on") {
		t.Error("Expected Cleanup to drop expired ops")
	}
}

func TestPendingTracker_Clear(t *testing.T) {
	tracker := NewPendingTracker()
	tracker.Add("10.0.0.5", "on", true)
	tracker.Add("10.0.0.5", "color", models.ColorRed)
	tracker.Add("10.0.0.6", "on", true)

	tracker.Clear("10.0.0.5")

	if tracker.Pending("10.0.0.5", "on") || tracker.Pending("10.0.0.5", "color") {
		t.Error("Expected ops for 10.0.0.5 to be cleared")
	}
	if !tracker.Pending("10.0.0.6", "on") {
		t.Error("Expected ops for other lights to survive")
	}
}

func TestPendingTracker_Merge(t *testing.T) {
	tracker := NewPendingTracker()

	local := models.Light{Address: "10.0.0.5", On: true, Mode: models.ModeColor, Color: models.ColorRed}
	stale := models.Light{Address: "10.0.0.5", On: false, Mode: models.ModeColor, Color: models.ColorBlue, Protocol: models.ProtocolLEDENET}

	tracker.Add("10.0.0.5", "on", true)
	tracker.Add("10.0.0.5", "color", models.ColorRed)

	merged := tracker.Merge(local, stale)
	if !merged.On || merged.Color != models.ColorRed {
		t.Errorf("Expected local power and color to win, got %+v", merged)
	}
	if merged.Protocol != models.ProtocolLEDENET {
		t.Error("Expected untracked fields to come from the poll")
	}

	// Once the device reports the target, the ops clear and the poll wins
	fresh := models.Light{Address: "10.0.0.5", On: true, Mode: models.ModeColor, Color: models.ColorRed}
	tracker.Merge(local, fresh)
	external := models.Light{Address: "10.0.0.5", On: false, Mode: models.ModeColor, Color: models.ColorGreen}
	merged = tracker.Merge(fresh, external)
	if merged.On || merged.Color != models.ColorGreen {
		t.Errorf("Expected external change to show, got %+v", merged)
	}
}

func TestCompareValues(t *testing.T) {
	tests := []struct {
		a, b     any
		expected int
	}{
		{50, 60, -1},
		{60, 50, 1},
		{50, 50, 0},
		{50.0, 60.0, -1},
		{50, 50.0, 0},
		{int64(50), 60, -1},
		{uint8(50), 60, -1},
	}

	for _, tt := range tests {
		result := compareValues(tt.a, tt.b)
		if result != tt.expected {
			t.Errorf("compareValues(%v, %v) = %d, expected %d", tt.a, tt.b, result, tt.expected)
		}
	}
}

func TestValuesEqual(t *testing.T) {
	tests := []struct {
		a, b     any
		expected bool
	}{
		{true, true, true},
		{true, false, false},
		{50, 50, true},
		{50, uint8(50), true},
		{50, 60, false},
		{models.ColorRed, models.ColorRed, true},
		{models.ColorRed, models.ColorBlue, false},
		{models.ColorRed, true, false},
	}

	for _, tt := range tests {
		result := valuesEqual(tt.a, tt.b)
		if result != tt.expected {
			t.Errorf("valuesEqual(%v, %v) = %v, expected %v", tt.a, tt.b, result, tt.expected)
		}
	}
}
