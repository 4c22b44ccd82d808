// Package eventlog records what each light session did: connects, commands,
// refreshes, faults and compatibility fallbacks. Events can be mirrored to
// slog and appended to a CBOR log file that `magichome log` reads back.
package eventlog

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Kind classifies an event
type Kind string

const (
	KindConnect    Kind = "connect"
	KindDetect     Kind = "detect"
	KindCommand    Kind = "command"
	KindRefresh    Kind = "refresh"
	KindClock      Kind = "clock"
	KindCompat     Kind = "compat"
	KindFault      Kind = "fault"
	KindClose      Kind = "close"
	KindDiscovery  Kind = "discovery"
	KindRetry      Kind = "retry"
	KindMalformed  Kind = "malformed"
	KindStateError Kind = "state"
)

// Direction of a logged frame relative to this host
type Direction uint8

const (
	DirectionNone Direction = iota
	DirectionOut
	DirectionIn
)

func (d Direction) String() string {
	switch d {
	case DirectionOut:
		return "OUT"
	case DirectionIn:
		return "IN"
	default:
		return "-"
	}
}

// Event is a single entry in a light's event log.
// Integer keys keep the CBOR encoding compact.
type Event struct {
	Timestamp time.Time `cbor:"1,keyasint"`
	SessionID string    `cbor:"2,keyasint"`
	Address   string    `cbor:"3,keyasint"`
	Kind      Kind      `cbor:"4,keyasint"`
	Direction Direction `cbor:"5,keyasint,omitempty"`
	Message   string    `cbor:"6,keyasint,omitempty"`
	Frame     []byte    `cbor:"7,keyasint,omitempty"`
	Error     string    `cbor:"8,keyasint,omitempty"`
}

// String formats the event as a single human-readable line
func (e Event) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] (%s) %s", e.Timestamp.Format(time.TimeOnly), e.Address, e.Kind)
	if e.Message != "" {
		b.WriteString(" ")
		b.WriteString(e.Message)
	}
	if len(e.Frame) > 0 {
		fmt.Fprintf(&b, " %s %s", e.Direction, hex.EncodeToString(e.Frame))
	}
	if e.Error != "" {
		b.WriteString(" error=")
		b.WriteString(e.Error)
	}
	return b.String()
}
