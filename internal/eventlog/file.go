package eventlog

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// FileExt is the extension used for event log files
const FileExt = ".mlog"

// DailyPath returns the log file for sessions started on the day of start,
// e.g. dir/lightlog-20260314.mlog
func DailyPath(dir string, start time.Time) string {
	return filepath.Join(dir, "lightlog-"+start.Format("20060102")+FileExt)
}

// FileSink appends events to a file in CBOR format.
// It is safe for concurrent use from multiple goroutines.
type FileSink struct {
	file    *os.File
	encoder *cbor.Encoder
	mu      sync.Mutex
	closed  bool
	enabled bool
}

// NewFileSink opens (or creates) path for appending. Missing parent
// directories are created.
func NewFileSink(path string) (*FileSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	return &FileSink{
		file:    f,
		encoder: newEncoder(f),
		enabled: true,
	}, nil
}

// Path returns the file being written
func (s *FileSink) Path() string {
	return s.file.Name()
}

// SetEnabled pauses or resumes writing without closing the file
func (s *FileSink) SetEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = enabled
}

// Log appends an event. Encoding errors are dropped.
func (s *FileSink) Log(event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || !s.enabled {
		return
	}
	_ = s.encoder.Encode(event)
}

// Close closes the file. It is safe to call Close multiple times; events
// logged afterwards are ignored.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.file.Close()
}

var _ Sink = (*FileSink)(nil)
