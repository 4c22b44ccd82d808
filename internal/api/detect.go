package api

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/angristan/magichome/internal/models"
)

// DefaultTimeout bounds every read and write on a device socket
const DefaultTimeout = time.Second

// Detection is the result of a successful protocol probe
type Detection struct {
	Protocol models.Protocol
	// Status is the 14-byte reply that answered the probe
	Status []byte
}

// Detector works out which dialect a freshly connected controller speaks.
// Controllers only answer their own status query, so it sends the current
// dialect's query first and falls back to the legacy one.
type Detector struct {
	Timeout time.Duration
}

// Detect probes conn. A read failure on the first query moves on to the
// second; any failure of the second probe is ErrProtocolDetection. A write
// failure on the first query is returned as it is.
func (d Detector) Detect(ctx context.Context, conn net.Conn, withChecksum bool) (Detection, error) {
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	fc := frameConn{conn: conn, timeout: timeout}

	var lastErr error
	for i, p := range []models.Protocol{models.ProtocolLEDENET, models.ProtocolLEDENETOriginal} {
		if err := fc.write(ctx, EncodeFrame(StatusQueryCommand(p), withChecksum)); err != nil {
			if i > 0 {
				return Detection{}, fmt.Errorf("%w: %s query: %w", ErrProtocolDetection, p, err)
			}
			return Detection{}, err
		}

		reply, err := fc.readFull(ctx, StatusLength)
		if err == nil {
			return Detection{Protocol: p, Status: reply}, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			break
		}
	}

	if err := ctx.Err(); err != nil {
		return Detection{}, fmt.Errorf("%w: %w", ErrProtocolDetection, canceled("detect", err))
	}
	return Detection{}, fmt.Errorf("%w: no reply to either status query: %w", ErrProtocolDetection, lastErr)
}
