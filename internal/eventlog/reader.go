package eventlog

import (
	"errors"
	"io"
	"os"
	"time"
)

// Filter selects events. Zero-valued fields match everything.
type Filter struct {
	Address   string
	SessionID string
	Kinds     []Kind
	Since     time.Time
	Until     time.Time
}

func (f Filter) matches(e Event) bool {
	if f.Address != "" && e.Address != f.Address {
		return false
	}
	if f.SessionID != "" && e.SessionID != f.SessionID {
		return false
	}
	if len(f.Kinds) > 0 {
		found := false
		for _, k := range f.Kinds {
			if e.Kind == k {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if !f.Since.IsZero() && e.Timestamp.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && !e.Timestamp.Before(f.Until) {
		return false
	}
	return true
}

// ReadEvents decodes every event in r that matches filter
func ReadEvents(r io.Reader, filter Filter) ([]Event, error) {
	dec := newDecoder(r)
	var events []Event
	for {
		var e Event
		if err := dec.Decode(&e); err != nil {
			if errors.Is(err, io.EOF) {
				return events, nil
			}
			return events, err
		}
		if filter.matches(e) {
			events = append(events, e)
		}
	}
}

// ReadFile reads matching events from a log file
func ReadFile(path string, filter Filter) (events []Event, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return ReadEvents(f, filter)
}
