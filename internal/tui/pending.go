package tui

import (
	"sync"
	"time"

	"github.com/angristan/magichome/internal/models"
	"github.com/angristan/magichome/internal/tui/screens"
)

const pendingOpExpiry = 5 * time.Second

// Direction represents the direction of a change
type Direction = screens.Direction

const (
	DirExact = screens.DirExact
	DirUp    = screens.DirUp
	DirDown  = screens.DirDown
)

// PendingOp represents a command we sent whose effect a poll may not show yet
type PendingOp struct {
	Field     string    // "on", "brightness", "color"
	Target    any       // target value we're moving toward
	Direction Direction // direction of change
	ExpiresAt time.Time
}

// PendingTracker keeps optimistic updates from being reverted by a poll
// that was already in flight when the command was sent.
type PendingTracker struct {
	ops map[string]*PendingOp // keyed by address:field
	mu  sync.Mutex
}

// NewPendingTracker creates a new pending operations tracker
func NewPendingTracker() *PendingTracker {
	return &PendingTracker{
		ops: make(map[string]*PendingOp),
	}
}

// Add registers a pending operation for a light (exact match)
func (t *PendingTracker) Add(address, field string, value any) {
	t.AddWithDirection(address, field, value, DirExact)
}

// AddWithDirection registers a pending operation with a direction
func (t *PendingTracker) AddWithDirection(address, field string, target any, dir Direction) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.ops[address+":"+field] = &PendingOp{
		Field:     field,
		Target:    target,
		Direction: dir,
		ExpiresAt: time.Now().Add(pendingOpExpiry),
	}
}

// ShouldIgnore reports whether a polled value should be dropped in favour
// of the local one. Values "on the way" to the target are ignored; reaching
// the target clears the op.
func (t *PendingTracker) ShouldIgnore(address, field string, value any) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := address + ":" + field
	op, exists := t.ops[key]
	if !exists {
		return false
	}

	if time.Now().After(op.ExpiresAt) {
		delete(t.ops, key)
		return false
	}

	switch op.Direction {
	case DirExact:
		if valuesEqual(op.Target, value) {
			delete(t.ops, key)
		}
		// A stale poll still shows the old value
		return true

	case DirUp:
		cmp := compareValues(value, op.Target)
		if cmp <= 0 {
			if cmp == 0 {
				delete(t.ops, key)
			}
			return true
		}
		// Went past the target, someone else changed it
		delete(t.ops, key)
		return false

	case DirDown:
		cmp := compareValues(value, op.Target)
		if cmp >= 0 {
			if cmp == 0 {
				delete(t.ops, key)
			}
			return true
		}
		delete(t.ops, key)
		return false
	}

	return false
}

// Pending reports whether an op is outstanding for address and field
func (t *PendingTracker) Pending(address, field string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.ops[address+":"+field]
	return ok
}

// Clear drops every op for a light, used once a command's reply has
// replaced the local state.
func (t *PendingTracker) Clear(address string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, field := range []string{"on", "brightness", "color"} {
		delete(t.ops, address+":"+field)
	}
}

// Cleanup removes expired pending operations
func (t *PendingTracker) Cleanup() {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	for key, op := range t.ops {
		if now.After(op.ExpiresAt) {
			delete(t.ops, key)
		}
	}
}

// Merge folds a polled snapshot into the local one, keeping local fields
// that still have a command in flight.
func (t *PendingTracker) Merge(local, polled models.Light) models.Light {
	merged := polled
	addr := polled.Address

	if t.ShouldIgnore(addr, "on", polled.On) {
		merged.On = local.On
	}
	if t.ShouldIgnore(addr, "color", polled.Color) {
		merged.Mode = local.Mode
		merged.Color = local.Color
		merged.WarmWhite = local.WarmWhite
	} else if t.ShouldIgnore(addr, "brightness", polled.Brightness()) {
		merged.Mode = local.Mode
		merged.Color = local.Color
		merged.WarmWhite = local.WarmWhite
	}
	return merged
}

// compareValues compares two numeric values
// Returns -1 if a < b, 0 if a == b, 1 if a > b
func compareValues(a, b any) int {
	af := toFloat64(a)
	bf := toFloat64(b)

	if af < bf {
		return -1
	} else if af > bf {
		return 1
	}
	return 0
}

func toFloat64(v any) float64 {
	switch val := v.(type) {
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case float64:
		return val
	case uint8:
		return float64(val)
	case uint16:
		return float64(val)
	}
	return 0
}

// valuesEqual compares two values for equality (exact match)
func valuesEqual(a, b any) bool {
	switch av := a.(type) {
	case bool:
		if bv, ok := b.(bool); ok {
			return av == bv
		}
	case models.Color:
		if bv, ok := b.(models.Color); ok {
			return av == bv
		}
	case int, int64, uint8, uint16, float64:
		return toFloat64(a) == toFloat64(b)
	}
	return false
}
