package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"
)

// frameConn bounds every read and write on a socket by a timeout and the
// context deadline. Cancelling the context forces the deadline into the
// past so blocked I/O returns at once.
type frameConn struct {
	conn    net.Conn
	timeout time.Duration
}

func (c frameConn) deadline(ctx context.Context) time.Time {
	d := time.Now().Add(c.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(d) {
		return ctxDeadline
	}
	return d
}

// watch must be called after the deadline has been set
func (c frameConn) watch(ctx context.Context) (stop func() bool) {
	return context.AfterFunc(ctx, func() {
		_ = c.conn.SetDeadline(time.Unix(1, 0))
	})
}

func (c frameConn) write(ctx context.Context, frame []byte) error {
	if err := ctx.Err(); err != nil {
		return canceled("write", err)
	}
	if err := c.conn.SetWriteDeadline(c.deadline(ctx)); err != nil {
		return fmt.Errorf("%w: set write deadline: %w", ErrConnection, err)
	}
	stop := c.watch(ctx)
	defer stop()

	if _, err := c.conn.Write(frame); err != nil {
		return ioError("write", err)
	}
	return nil
}

// readFull reads exactly n bytes
func (c frameConn) readFull(ctx context.Context, n int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, canceled("read", err)
	}
	if err := c.conn.SetReadDeadline(c.deadline(ctx)); err != nil {
		return nil, fmt.Errorf("%w: set read deadline: %w", ErrConnection, err)
	}
	stop := c.watch(ctx)
	defer stop()

	buf := make([]byte, n)
	got, err := io.ReadFull(c.conn, buf)
	if err == nil {
		return buf, nil
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || (got > 0 && isTimeout(err) && ctx.Err() == nil) {
		return buf[:got], malformed("reply truncated after %d of %d bytes", got, n)
	}
	return buf[:got], ioError("read", err)
}

// canceled reports a context that ended before I/O started
func canceled(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrTimeout, op, err)
}
