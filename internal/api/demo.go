package api

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/hashicorp/mdns"

	"github.com/angristan/magichome/internal/models"
)

// DemoService is the mDNS service demo servers advertise
const DemoService = "_magichome._tcp"

// Command lengths without checksum, keyed by opcode
var demoCommandLengths = map[byte]int{
	0x81: 3,  // status query, current dialect
	0xef: 3,  // status query, legacy dialect
	0x71: 3,  // power, current dialect
	0xcc: 3,  // power, legacy dialect
	0x41: 7,  // color, current dialect
	0x56: 5,  // color, legacy dialect
	0x31: 7,  // warm white
	0x61: 4,  // preset
	0x51: 69, // custom
	0x10: 11, // set clock
	0x11: 4,  // clock query
}

// DemoConfig describes a simulated controller
type DemoConfig struct {
	// Listen address (default 127.0.0.1:0)
	Addr string
	// Dialect to speak (default ProtocolLEDENET)
	Protocol models.Protocol
	// Legacy dialect only: report and expect no checksums
	ChecksumDisabled bool
	// Discovery identity
	ID    string
	Model string
	// Initial state
	On        bool
	Color     models.Color
	WarmWhite uint8
	// Clock source (default time.Now)
	Now func() time.Time
}

// DemoFaults injects misbehavior
type DemoFaults struct {
	// Never answer anything
	Silent bool
	// Never answer clock queries
	SilentClock bool
	// Answer clock queries with month 13
	BadClock bool
	// Send only the first 10 bytes of status replies
	ShortStatus bool
}

// DemoState is the simulated controller's internal state
type DemoState struct {
	On          bool
	ModeCode    byte
	Color       models.Color
	WarmWhite   uint8
	Delay       byte
	Transition  byte
	CustomCount int
	ClockOffset time.Duration
}

// DemoServer is an in-process controller speaking the TCP protocol. It
// backs demo mode and the package tests.
type DemoServer struct {
	cfg      DemoConfig
	listener net.Listener

	mu           sync.Mutex
	received     *sync.Cond
	state        DemoState
	faults       DemoFaults
	commands     [][]byte
	badChecksums int
	conns        map[net.Conn]struct{}
	closed       bool

	wg sync.WaitGroup
}

// NewDemoServer starts a simulated controller
func NewDemoServer(cfg DemoConfig) (*DemoServer, error) {
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:0"
	}
	if cfg.Protocol == models.ProtocolUnknown {
		cfg.Protocol = models.ProtocolLEDENET
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Model == "" {
		cfg.Model = "AK001-ZJ100"
	}

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("%w: demo listen %s: %w", ErrConnection, cfg.Addr, err)
	}
	if cfg.ID == "" {
		cfg.ID = fmt.Sprintf("ACCF23%06X", ln.Addr().(*net.TCPAddr).Port)
	}

	s := &DemoServer{
		cfg:      cfg,
		listener: ln,
		conns:    make(map[net.Conn]struct{}),
		state: DemoState{
			On:        cfg.On,
			ModeCode:  0x61,
			Color:     cfg.Color,
			WarmWhite: cfg.WarmWhite,
			Delay:     0x10,
		},
	}
	s.received = sync.NewCond(&s.mu)
	if cfg.WarmWhite > 0 {
		s.state.Color = models.ColorEmpty
	}

	s.wg.Add(1)
	go s.acceptLoop()
	return s, nil
}

// Addr returns the host:port the server listens on
func (s *DemoServer) Addr() string {
	return s.listener.Addr().String()
}

// Port returns the TCP port
func (s *DemoServer) Port() int {
	return s.listener.Addr().(*net.TCPAddr).Port
}

// DiscoveryReply is the "address,id,model" line this server answers
// discovery with
func (s *DemoServer) DiscoveryReply() string {
	return s.Addr() + "," + s.cfg.ID + "," + s.cfg.Model
}

// SetFaults replaces the injected faults
func (s *DemoServer) SetFaults(f DemoFaults) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = f
}

// State returns the simulated state
func (s *DemoServer) State() DemoState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Commands returns every command received, without checksums
func (s *DemoServer) Commands() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]byte, len(s.commands))
	copy(out, s.commands)
	return out
}

// WaitCommands blocks until the server has handled at least n commands or
// timeout passes. It reports whether n was reached.
func (s *DemoServer) WaitCommands(n int, timeout time.Duration) bool {
	expired := false
	timer := time.AfterFunc(timeout, func() {
		s.mu.Lock()
		expired = true
		s.received.Broadcast()
		s.mu.Unlock()
	})
	defer timer.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.commands) < n && !expired {
		s.received.Wait()
	}
	return len(s.commands) >= n
}

// BadChecksums counts frames whose checksum byte did not match
func (s *DemoServer) BadChecksums() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.badChecksums
}

// DropConnections closes every open client connection
func (s *DemoServer) DropConnections() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.conns {
		_ = c.Close()
	}
}

// Advertise announces the server over mDNS until the returned shutdown
// function is called.
func (s *DemoServer) Advertise(service string) (shutdown func() error, err error) {
	if service == "" {
		service = DemoService
	}
	txt := []string{"id=" + s.cfg.ID, "model=" + s.cfg.Model}
	svc, err := mdns.NewMDNSService(s.cfg.ID, service, "", "", s.Port(), []net.IP{net.IPv4(127, 0, 0, 1)}, txt)
	if err != nil {
		return nil, fmt.Errorf("mDNS service: %w", err)
	}
	server, err := mdns.NewServer(&mdns.Config{Zone: svc})
	if err != nil {
		return nil, fmt.Errorf("mDNS server: %w", err)
	}
	return server.Shutdown, nil
}

// Close stops the server and waits for its goroutines
func (s *DemoServer) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	for c := range s.conns {
		_ = c.Close()
	}
	s.mu.Unlock()

	err := s.listener.Close()
	s.wg.Wait()
	return err
}

func (s *DemoServer) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			_ = conn.Close()
			return
		}
		s.conns[conn] = struct{}{}
		s.mu.Unlock()

		s.wg.Add(1)
		go s.serve(conn)
	}
}

func (s *DemoServer) expectsChecksum() bool {
	return !(s.cfg.Protocol == models.ProtocolLEDENETOriginal && s.cfg.ChecksumDisabled)
}

func (s *DemoServer) serve(conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		_ = conn.Close()
	}()

	r := bufio.NewReader(conn)
	for {
		op, err := r.ReadByte()
		if err != nil {
			return
		}
		n, ok := demoCommandLengths[op]
		if !ok {
			// Stray checksum or garbage
			continue
		}

		cmd := make([]byte, n)
		cmd[0] = op
		if _, err := io.ReadFull(r, cmd[1:]); err != nil {
			return
		}
		if s.expectsChecksum() {
			sum, err := r.ReadByte()
			if err != nil {
				return
			}
			if sum != Checksum(cmd) {
				s.mu.Lock()
				s.badChecksums++
				s.mu.Unlock()
			}
		}

		if reply := s.handle(cmd); len(reply) > 0 {
			if _, err := conn.Write(reply); err != nil {
				return
			}
		}
	}
}

func (s *DemoServer) handle(cmd []byte) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.commands = append(s.commands, cmd)
	defer s.received.Broadcast()
	if s.faults.Silent {
		return nil
	}

	legacy := s.cfg.Protocol == models.ProtocolLEDENETOriginal
	st := &s.state

	switch cmd[0] {
	case 0x81:
		if !legacy {
			return s.statusReplyLocked()
		}
	case 0xef:
		if legacy {
			return s.statusReplyLocked()
		}
	case 0x71:
		if !legacy {
			st.On = cmd[1] == 0x23
		}
	case 0xcc:
		if legacy {
			st.On = cmd[1] == 0x23
		}
	case 0x41, 0x56:
		if (cmd[0] == 0x56) == legacy {
			st.ModeCode = 0x61
			st.Color = models.NewColor(cmd[1], cmd[2], cmd[3])
			st.WarmWhite = 0
		}
	case 0x31:
		if !legacy {
			st.ModeCode = 0x61
			st.Color = models.ColorEmpty
			st.WarmWhite = cmd[4]
		}
	case 0x61:
		st.ModeCode = cmd[1]
		st.Delay = cmd[2]
		st.Color = models.ColorEmpty
		st.WarmWhite = 0
	case 0x51:
		st.ModeCode = 0x60
		st.Delay = cmd[65]
		st.Transition = cmd[66]
		st.CustomCount = 0
		for i := 0; i < MaxCustomColors; i++ {
			group := cmd[i*4 : i*4+4]
			if i > 0 && group[0] == 0x00 && group[1] == 0x01 && group[2] == 0x02 && group[3] == 0x03 {
				break
			}
			st.CustomCount++
		}
		st.Color = models.ColorEmpty
		st.WarmWhite = 0
	case 0x10:
		t := time.Date(2000+int(cmd[2]), time.Month(cmd[3]), int(cmd[4]), int(cmd[5]), int(cmd[6]), int(cmd[7]), 0, time.Local)
		st.ClockOffset = t.Sub(s.cfg.Now())
	case 0x11:
		if s.faults.SilentClock {
			return nil
		}
		return s.clockReplyLocked()
	}
	return nil
}

func (s *DemoServer) statusReplyLocked() []byte {
	st := s.state
	reply := make([]byte, StatusLength)

	reply[0] = 0x81
	reply[1] = 0x04
	if s.cfg.Protocol == models.ProtocolLEDENETOriginal {
		reply[0] = 0x66
		if s.cfg.ChecksumDisabled {
			reply[1] = 0x01
		}
	}
	reply[2] = 0x24
	if st.On {
		reply[2] = 0x23
	}
	reply[3] = st.ModeCode
	reply[4] = 0x21
	reply[5] = st.Delay
	reply[6], reply[7], reply[8] = st.Color.Red, st.Color.Green, st.Color.Blue
	reply[9] = st.WarmWhite
	reply[10] = 0x03
	reply[13] = Checksum(reply[:13])

	if s.faults.ShortStatus {
		return reply[:10]
	}
	return reply
}

func (s *DemoServer) clockReplyLocked() []byte {
	now := s.cfg.Now().Add(s.state.ClockOffset)
	reply := make([]byte, StatusLength)
	reply[0] = 0x0f
	reply[1] = 0x11
	reply[2] = 0x14
	reply[3] = byte(now.Year() - 2000)
	reply[4] = byte(now.Month())
	reply[5] = byte(now.Day())
	reply[6] = byte(now.Hour())
	reply[7] = byte(now.Minute())
	reply[8] = byte(now.Second())
	reply[9] = byte(now.Weekday())
	if s.faults.BadClock {
		reply[4] = 13
	}
	reply[13] = Checksum(reply[:13])
	return reply
}

// DemoResponder answers UDP discovery probes on behalf of demo servers
type DemoResponder struct {
	conn net.PacketConn

	mu      sync.Mutex
	replies []string
	repeat  int
	echo    bool

	done chan struct{}
}

// NewDemoResponder listens for probes on addr (e.g. "127.0.0.1:0")
func NewDemoResponder(addr string) (*DemoResponder, error) {
	conn, err := net.ListenPacket("udp4", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: demo responder listen %s: %w", ErrConnection, addr, err)
	}
	r := &DemoResponder{conn: conn, repeat: 1, done: make(chan struct{})}
	go r.loop()
	return r, nil
}

// Addr is where probes should be sent
func (r *DemoResponder) Addr() string {
	return r.conn.LocalAddr().String()
}

// Add registers reply lines, typically DemoServer.DiscoveryReply()
func (r *DemoResponder) Add(replies ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replies = append(r.replies, replies...)
}

// SetRepeat sends every reply n times per probe
func (r *DemoResponder) SetRepeat(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.repeat = max(n, 1)
}

// SetEcho makes the responder send the probe back before its replies, the
// way a broadcast loops back to the sender.
func (r *DemoResponder) SetEcho(echo bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.echo = echo
}

// Close stops the responder
func (r *DemoResponder) Close() error {
	err := r.conn.Close()
	<-r.done
	return err
}

func (r *DemoResponder) loop() {
	defer close(r.done)
	buf := make([]byte, 256)
	for {
		n, from, err := r.conn.ReadFrom(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			continue
		}
		if string(buf[:n]) != DiscoveryMessage {
			continue
		}

		r.mu.Lock()
		var out []string
		if r.echo {
			out = append(out, DiscoveryMessage)
		}
		for i := 0; i < r.repeat; i++ {
			out = append(out, r.replies...)
		}
		r.mu.Unlock()

		for _, line := range out {
			_, _ = r.conn.WriteTo([]byte(line), from)
		}
	}
}

// DemoFleet is a set of demo servers plus a discovery responder
type DemoFleet struct {
	Servers   []*DemoServer
	Responder *DemoResponder
}

// NewDemoFleet starts three sample controllers on loopback: a current
// dialect RGB strip, a current dialect warm white bulb, and a legacy
// controller that runs without checksums.
func NewDemoFleet() (*DemoFleet, error) {
	configs := []DemoConfig{
		{Protocol: models.ProtocolLEDENET, On: true, Color: models.NewColor(255, 80, 0), Model: "AK001-ZJ200"},
		{Protocol: models.ProtocolLEDENET, On: true, WarmWhite: 180, Model: "AK001-ZJ210"},
		{Protocol: models.ProtocolLEDENETOriginal, ChecksumDisabled: true, Color: models.ColorBlue, Model: "HF-LPB100"},
	}

	fleet := &DemoFleet{}
	for _, cfg := range configs {
		s, err := NewDemoServer(cfg)
		if err != nil {
			_ = fleet.Close()
			return nil, err
		}
		fleet.Servers = append(fleet.Servers, s)
	}

	responder, err := NewDemoResponder("127.0.0.1:0")
	if err != nil {
		_ = fleet.Close()
		return nil, err
	}
	for _, s := range fleet.Servers {
		responder.Add(s.DiscoveryReply())
	}
	fleet.Responder = responder
	return fleet, nil
}

// DiscoveryOptions points discovery at the fleet's responder
func (f *DemoFleet) DiscoveryOptions() DiscoveryOptions {
	return DiscoveryOptions{
		BroadcastAddr: f.Responder.Addr(),
		ListenAddr:    "127.0.0.1:0",
		Window:        300 * time.Millisecond,
	}
}

// Addresses returns each server's host:port
func (f *DemoFleet) Addresses() []string {
	addrs := make([]string, len(f.Servers))
	for i, s := range f.Servers {
		addrs[i] = s.Addr()
	}
	return addrs
}

// Close stops every server and the responder
func (f *DemoFleet) Close() error {
	var errs []error
	for _, s := range f.Servers {
		errs = append(errs, s.Close())
	}
	if f.Responder != nil {
		errs = append(errs, f.Responder.Close())
	}
	return errors.Join(errs...)
}
