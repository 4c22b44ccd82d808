package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/angristan/magichome/internal/eventlog"
	"github.com/angristan/magichome/internal/models"
)

// Defaults for a device session
const (
	DefaultDialTimeout  = 3 * time.Second
	DefaultReadAttempts = 2
)

// SessionState is the lifecycle of a device session
type SessionState int

const (
	StateUnconnected SessionState = iota
	StateConnecting
	StateConnected
	StateFaulted
)

func (s SessionState) String() string {
	switch s {
	case StateUnconnected:
		return "Unconnected"
	case StateConnecting:
		return "Connecting"
	case StateConnected:
		return "Connected"
	case StateFaulted:
		return "Faulted"
	default:
		return fmt.Sprintf("SessionState(%d)", int(s))
	}
}

// DialFunc opens the TCP connection to a controller
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// DeviceOption configures a Device
type DeviceOption func(*Device)

// WithPort overrides the controller port (default 5577)
func WithPort(port int) DeviceOption {
	return func(d *Device) { d.port = port }
}

// WithTimeout sets the per-read and per-write timeout
func WithTimeout(timeout time.Duration) DeviceOption {
	return func(d *Device) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

// WithDialTimeout bounds the TCP connect
func WithDialTimeout(timeout time.Duration) DeviceOption {
	return func(d *Device) {
		if timeout > 0 {
			d.dialTimeout = timeout
		}
	}
}

// WithReadAttempts sets how many times a query is sent before giving up
func WithReadAttempts(n int) DeviceOption {
	return func(d *Device) {
		if n > 0 {
			d.readAttempts = n
		}
	}
}

// WithName sets the display name carried in the state snapshot
func WithName(name string) DeviceOption {
	return func(d *Device) { d.light.Name = name }
}

// WithGroup sets the group carried in the state snapshot
func WithGroup(group string) DeviceOption {
	return func(d *Device) { d.light.Group = group }
}

// WithSink sends session events to sink
func WithSink(sink eventlog.Sink) DeviceOption {
	return func(d *Device) {
		if sink != nil {
			d.sink = sink
		}
	}
}

// WithLogger sets the operational logger
func WithLogger(logger *slog.Logger) DeviceOption {
	return func(d *Device) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithDialer replaces the TCP dialer
func WithDialer(dial DialFunc) DeviceOption {
	return func(d *Device) {
		if dial != nil {
			d.dial = dial
		}
	}
}

// WithClock replaces time.Now, used when SetClock is given a zero time
func WithClock(now func() time.Time) DeviceOption {
	return func(d *Device) {
		if now != nil {
			d.now = now
		}
	}
}

// Device is a session with one controller. All operations are serialized
// by a mutex: the protocol has no request tags, so replies are matched to
// requests purely by order.
type Device struct {
	host         string
	port         int
	timeout      time.Duration
	dialTimeout  time.Duration
	readAttempts int
	dial         DialFunc
	now          func() time.Time
	sink         eventlog.Sink
	logger       *slog.Logger
	sessionID    string

	mu    sync.Mutex
	state SessionState
	conn  net.Conn
	fc    frameConn
	light models.Light
}

// NewDevice creates an unconnected session. address is a host, or
// host:port to override the default port.
func NewDevice(address string, opts ...DeviceOption) *Device {
	host, port := address, DefaultPort
	if h, p, err := net.SplitHostPort(address); err == nil {
		if n, err := strconv.Atoi(p); err == nil {
			host, port = h, n
		}
	}

	d := &Device{
		host:         host,
		port:         port,
		timeout:      DefaultTimeout,
		dialTimeout:  DefaultDialTimeout,
		readAttempts: DefaultReadAttempts,
		now:          time.Now,
		sink:         eventlog.NoopSink{},
		logger:       slog.New(slog.DiscardHandler),
		sessionID:    uuid.NewString(),
		light: models.Light{
			Address:     host,
			UseChecksum: true,
		},
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.dial == nil {
		dialer := &net.Dialer{Timeout: d.dialTimeout}
		d.dial = dialer.DialContext
	}
	d.logger = d.logger.With("address", host, "session", d.sessionID)
	return d
}

// Address returns the controller host
func (d *Device) Address() string {
	return d.host
}

// Endpoint returns host:port
func (d *Device) Endpoint() string {
	return net.JoinHostPort(d.host, strconv.Itoa(d.port))
}

// SessionID identifies this session in logs
func (d *Device) SessionID() string {
	return d.sessionID
}

// SessionState returns the current lifecycle state
func (d *Device) SessionState() SessionState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// State returns a snapshot of the last known device state
func (d *Device) State() models.Light {
	d.mu.Lock()
	defer d.mu.Unlock()
	l := d.light
	l.Connected = d.state == StateConnected
	return l
}

// Connect dials the controller, detects its dialect and reads its initial
// state. It is a no-op on a connected session; a faulted session cannot be
// reused.
func (d *Device) Connect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch d.state {
	case StateConnected:
		return nil
	case StateFaulted:
		return fmt.Errorf("%w: %s", ErrFaulted, d.host)
	}

	d.state = StateConnecting
	d.logger.Debug("connecting", "endpoint", d.Endpoint())

	dialCtx, cancel := context.WithTimeout(ctx, d.dialTimeout)
	conn, err := d.dial(dialCtx, "tcp", d.Endpoint())
	cancel()
	if err != nil {
		err = fmt.Errorf("%w: dial %s: %w", ErrConnection, d.Endpoint(), err)
		d.faultLocked(err)
		return err
	}
	d.conn = conn
	d.fc = frameConn{conn: conn, timeout: d.timeout}

	detection, err := Detector{Timeout: d.timeout}.Detect(ctx, conn, d.light.UseChecksum)
	if err != nil {
		d.faultLocked(err)
		return err
	}

	d.light.Protocol = detection.Protocol
	if detection.Protocol == models.ProtocolLEDENETOriginal && detection.Status[1] == 0x01 {
		d.light.UseChecksum = false
	}
	d.emit(eventlog.Event{
		Kind:      eventlog.KindDetect,
		Message:   "protocol " + detection.Protocol.String(),
		Direction: eventlog.DirectionIn,
		Frame:     detection.Status,
	})

	if err := d.refreshStatusLocked(ctx); err != nil {
		if d.state != StateFaulted {
			d.faultLocked(err)
		}
		return err
	}

	// Some firmware never answers the clock query
	if err := d.clockLocked(ctx, false); err != nil {
		if d.state == StateFaulted {
			return err
		}
		d.logger.Warn("initial clock query failed", "error", err)
	}
	d.state = StateConnected

	d.emit(eventlog.Event{Kind: eventlog.KindConnect, Message: d.light.String()})
	d.logger.Info("connected", "protocol", d.light.Protocol, "checksum", d.light.UseChecksum)
	return nil
}

// Close releases the socket. A faulted session stays faulted.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var err error
	if d.conn != nil {
		err = d.conn.Close()
		d.conn = nil
	}
	if d.state != StateFaulted {
		d.state = StateUnconnected
	}
	d.emit(eventlog.Event{Kind: eventlog.KindClose})
	return err
}

// Refresh reads power, mode, color and white level, then the device clock.
// The status fields are committed together only after a full reply. As in
// Connect, a clock query that goes unanswered is reported but leaves the
// session connected.
func (d *Device) Refresh(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.requireConnectedLocked(); err != nil {
		return err
	}
	if err := d.refreshStatusLocked(ctx); err != nil {
		return err
	}
	return d.clockLocked(ctx, false)
}

// SetPower turns the light on or off
func (d *Device) SetPower(ctx context.Context, on bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.requireConnectedLocked(); err != nil {
		return err
	}
	label := "power off"
	if on {
		label = "power on"
	}
	if err := d.writeLocked(ctx, label, PowerCommand(d.light.Protocol, on)); err != nil {
		return err
	}
	d.light.On = on
	return nil
}

// TurnOn is SetPower(ctx, true)
func (d *Device) TurnOn(ctx context.Context) error {
	return d.SetPower(ctx, true)
}

// TurnOff is SetPower(ctx, false)
func (d *Device) TurnOff(ctx context.Context) error {
	return d.SetPower(ctx, false)
}

// SetColor switches to color mode with the given channels
func (d *Device) SetColor(ctx context.Context, c models.Color) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.requireConnectedLocked(); err != nil {
		return err
	}
	return d.setColorLocked(ctx, c)
}

func (d *Device) setColorLocked(ctx context.Context, c models.Color) error {
	if err := d.writeLocked(ctx, "color "+c.Hex(), ColorCommand(d.light.Protocol, c)); err != nil {
		return err
	}
	d.light.Mode = models.ModeColor
	d.light.Color = c
	d.light.WarmWhite = 0
	return nil
}

// SetWarmWhite switches to the warm white channel. The legacy dialect has
// none, so it gets an equal-channel color instead.
func (d *Device) SetWarmWhite(ctx context.Context, level uint8) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.requireConnectedLocked(); err != nil {
		return err
	}
	return d.setWarmWhiteLocked(ctx, level)
}

func (d *Device) setWarmWhiteLocked(ctx context.Context, level uint8) error {
	label := fmt.Sprintf("warm white %d", level)
	cmd, ok := WarmWhiteCommand(d.light.Protocol, level)
	if !ok {
		d.emit(eventlog.Event{
			Kind:    eventlog.KindCompat,
			Message: fmt.Sprintf("warm white unsupported by %s, sending color %d,%d,%d", d.light.Protocol, level, level, level),
		})
		cmd = ColorCommand(d.light.Protocol, models.NewColor(level, level, level))
	}
	if err := d.writeLocked(ctx, label, cmd); err != nil {
		return err
	}
	d.light.Mode = models.ModeWarmWhite
	d.light.Color = models.ColorEmpty
	d.light.WarmWhite = level
	return nil
}

// SetColdWhite sets all color channels to level
func (d *Device) SetColdWhite(ctx context.Context, level uint8) error {
	return d.SetColor(ctx, models.NewColor(level, level, level))
}

// SetBrightness rescales the current color or white level to pct (0-100).
// Brightness itself is never sent; it stays derived from the channels.
func (d *Device) SetBrightness(ctx context.Context, pct uint8) error {
	if pct > 100 {
		return invalidArgument("brightness %d above 100", pct)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.requireConnectedLocked(); err != nil {
		return err
	}

	current := d.light.Brightness()
	switch d.light.Mode {
	case models.ModeColor:
		return d.setColorLocked(ctx, d.light.Color.Scale(current, pct))
	case models.ModeWarmWhite:
		return d.setWarmWhiteLocked(ctx, models.ScaleLevel(d.light.WarmWhite, current, pct))
	default:
		return invalidArgument("cannot set brightness in %s mode", d.light.Mode)
	}
}

// SetPresetPattern starts a built-in animation. speed runs 0-100 and is
// clamped.
func (d *Device) SetPresetPattern(ctx context.Context, pattern models.PresetPattern, speed uint8) error {
	cmd, err := PresetCommand(pattern, speed)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.requireConnectedLocked(); err != nil {
		return err
	}
	if err := d.writeLocked(ctx, fmt.Sprintf("preset %s speed %d", pattern, min(speed, 100)), cmd); err != nil {
		return err
	}
	d.light.Mode = models.ModePreset
	d.light.Color = models.ColorEmpty
	d.light.WarmWhite = 0
	return nil
}

// SetCustomPattern uploads and starts a cycle of up to 16 colors
func (d *Device) SetCustomPattern(ctx context.Context, colors []models.Color, transition models.TransitionType, speed uint8) error {
	cmd, err := CustomPatternCommand(colors, transition, speed)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.requireConnectedLocked(); err != nil {
		return err
	}
	label := fmt.Sprintf("custom %d colors %s speed %d", len(colors), transition, min(speed, 100))
	if err := d.writeLocked(ctx, label, cmd); err != nil {
		return err
	}
	d.light.Mode = models.ModeCustom
	d.light.Color = models.ColorEmpty
	d.light.WarmWhite = 0
	return nil
}

// SetClock sets the device clock. A zero t means now.
func (d *Device) SetClock(ctx context.Context, t time.Time) error {
	if t.IsZero() {
		t = d.now()
	}
	cmd, err := SetClockCommand(t)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.requireConnectedLocked(); err != nil {
		return err
	}
	if err := d.writeLocked(ctx, "set clock "+t.Format(time.DateTime), cmd); err != nil {
		return err
	}
	d.light.Clock = t.Truncate(time.Second)
	return nil
}

// Clock queries the device clock
func (d *Device) Clock(ctx context.Context) (time.Time, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.requireConnectedLocked(); err != nil {
		return time.Time{}, err
	}
	if err := d.clockLocked(ctx, true); err != nil {
		return time.Time{}, err
	}
	return d.light.Clock, nil
}

func (d *Device) requireConnectedLocked() error {
	switch d.state {
	case StateConnected:
		return nil
	case StateFaulted:
		return fmt.Errorf("%w: %s", ErrFaulted, d.host)
	default:
		return fmt.Errorf("%w: %s is %s", ErrNotConnected, d.host, d.state)
	}
}

func (d *Device) refreshStatusLocked(ctx context.Context) error {
	p := d.light.Protocol
	return d.queryLocked(ctx, eventlog.KindRefresh, StatusQueryCommand(p), true, func(reply []byte) error {
		st, err := DecodeStatus(p, reply)
		if err != nil {
			return err
		}
		st.Apply(&d.light)
		return nil
	})
}

func (d *Device) clockLocked(ctx context.Context, faultOnTimeout bool) error {
	return d.queryLocked(ctx, eventlog.KindClock, ClockQueryCommand(), faultOnTimeout, func(reply []byte) error {
		t, err := DecodeClock(reply, time.Local)
		if err != nil {
			return err
		}
		d.light.Clock = t
		return nil
	})
}

// queryLocked sends cmd and decodes the 14-byte reply, re-sending the query
// up to readAttempts times. Write failures and broken connections are not
// retried. When attempts run out on a timeout the session is faulted unless
// faultOnTimeout is false, since a late reply would be read as the answer to
// the next request.
func (d *Device) queryLocked(ctx context.Context, kind eventlog.Kind, cmd []byte, faultOnTimeout bool, decode func([]byte) error) error {
	var lastErr error
	for attempt := 1; attempt <= d.readAttempts; attempt++ {
		if err := d.writeLocked(ctx, string(kind)+" query", cmd); err != nil {
			return err
		}

		reply, err := d.fc.readFull(ctx, StatusLength)
		if err == nil {
			d.emit(eventlog.Event{Kind: kind, Direction: eventlog.DirectionIn, Frame: reply})
			if err = decode(reply); err == nil {
				return nil
			}
		}
		lastErr = err

		if errors.Is(err, ErrConnection) || ctx.Err() != nil {
			break
		}
		d.emit(eventlog.Event{
			Kind:    eventlog.KindRetry,
			Message: fmt.Sprintf("%s attempt %d/%d failed", kind, attempt, d.readAttempts),
			Error:   err.Error(),
			Frame:   reply,
		})
	}

	switch {
	case errors.Is(lastErr, ErrConnection):
		d.faultLocked(lastErr)
	case errors.Is(lastErr, ErrTimeout):
		if faultOnTimeout {
			d.faultLocked(lastErr)
		} else {
			d.emit(eventlog.Event{Kind: kind, Error: lastErr.Error()})
		}
	default:
		d.emit(eventlog.Event{Kind: eventlog.KindMalformed, Error: lastErr.Error()})
	}
	return lastErr
}

// writeLocked frames and sends cmd. Any failure on the wire faults the
// session; a context that already ended does not.
func (d *Device) writeLocked(ctx context.Context, label string, cmd []byte) error {
	if err := ctx.Err(); err != nil {
		return canceled(label, err)
	}
	frame := EncodeFrame(cmd, d.light.UseChecksum)
	if err := d.fc.write(ctx, frame); err != nil {
		d.faultLocked(err)
		return err
	}
	d.emit(eventlog.Event{
		Kind:      eventlog.KindCommand,
		Message:   label,
		Direction: eventlog.DirectionOut,
		Frame:     frame,
	})
	return nil
}

func (d *Device) faultLocked(err error) {
	d.state = StateFaulted
	if d.conn != nil {
		_ = d.conn.Close()
		d.conn = nil
	}
	d.logger.Warn("session faulted", "error", err)
	d.emit(eventlog.Event{Kind: eventlog.KindFault, Error: err.Error()})
}

func (d *Device) emit(e eventlog.Event) {
	e.Timestamp = d.now()
	e.SessionID = d.sessionID
	e.Address = d.host
	d.sink.Log(e)
}
