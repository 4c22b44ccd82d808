package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/mdns"
	"golang.org/x/sync/errgroup"
)

// Discovery wire constants
const (
	DiscoveryPort    = 48899
	DiscoveryMessage = "HF-A11ASSISTHREAD"
)

// Defaults for a discovery window
const (
	DefaultDiscoveryWindow = time.Second
	DefaultMDNSTimeout     = 2 * time.Second
)

// DiscoveredLight is a controller that answered discovery
type DiscoveredLight struct {
	// IP address of the controller
	Host string
	// Hardware identifier (usually the MAC), may be empty
	ID string
	// Model string, may be empty
	Model string
	// Port to connect to, 0 for the default
	Port int
	// Where the result came from: "udp" or "mdns"
	Source string
}

// Address returns host or host:port when a non-default port is known
func (l DiscoveredLight) Address() string {
	if l.Port == 0 || l.Port == DefaultPort {
		return l.Host
	}
	return net.JoinHostPort(l.Host, strconv.Itoa(l.Port))
}

// DiscoveryOptions tunes a discovery run
type DiscoveryOptions struct {
	// Where the probe is sent (default 255.255.255.255:48899)
	BroadcastAddr string
	// Local address to listen on (default ":0", an ephemeral port)
	ListenAddr string
	// How long to collect replies (default 1s)
	Window time.Duration
	// Close the window early once no reply has arrived for this long after
	// the first one. Zero disables it.
	IdleGap time.Duration
	// mDNS service to browse as well, e.g. "_magichome._tcp". Empty disables it.
	MDNSService string
}

func (o DiscoveryOptions) withDefaults() DiscoveryOptions {
	if o.BroadcastAddr == "" {
		o.BroadcastAddr = net.JoinHostPort(net.IPv4bcast.String(), strconv.Itoa(DiscoveryPort))
	}
	if o.ListenAddr == "" {
		o.ListenAddr = ":0"
	}
	if o.Window <= 0 {
		o.Window = DefaultDiscoveryWindow
	}
	return o
}

// ParseDiscoveryReply parses an "ip,id,model" reply. Replies with an empty
// host, and the echo of our own probe, are rejected.
func ParseDiscoveryReply(reply string) (DiscoveredLight, bool) {
	reply = strings.TrimSpace(reply)
	if reply == "" || reply == DiscoveryMessage {
		return DiscoveredLight{}, false
	}

	fields := strings.Split(reply, ",")
	light := DiscoveredLight{
		Host:   strings.TrimSpace(fields[0]),
		Source: "udp",
	}
	if light.Host == "" {
		return DiscoveredLight{}, false
	}
	if len(fields) > 1 {
		light.ID = strings.TrimSpace(fields[1])
	}
	if len(fields) > 2 {
		light.Model = strings.TrimSpace(fields[2])
	}
	return light, true
}

// Discover broadcasts the discovery probe and collects replies until the
// window closes. Results are unique by host and sorted. If ctx ends first,
// whatever was collected is returned along with ctx.Err().
func Discover(ctx context.Context, opts DiscoveryOptions) ([]DiscoveredLight, error) {
	opts = opts.withDefaults()

	raddr, err := net.ResolveUDPAddr("udp4", opts.BroadcastAddr)
	if err != nil {
		return nil, fmt.Errorf("%w: broadcast address %q: %w", ErrInvalidArgument, opts.BroadcastAddr, err)
	}

	conn, err := net.ListenPacket("udp4", opts.ListenAddr)
	if err != nil {
		return nil, fmt.Errorf("%w: listen %s: %w", ErrConnection, opts.ListenAddr, err)
	}
	defer func() { _ = conn.Close() }()

	if _, err := conn.WriteTo([]byte(DiscoveryMessage), raddr); err != nil {
		return nil, fmt.Errorf("%w: send probe to %s: %w", ErrConnection, raddr, err)
	}

	end := time.Now().Add(opts.Window)
	if d, ok := ctx.Deadline(); ok && d.Before(end) {
		end = d
	}
	if err := conn.SetReadDeadline(end); err != nil {
		return nil, fmt.Errorf("%w: set read deadline: %w", ErrConnection, err)
	}
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetReadDeadline(time.Unix(1, 0))
	})
	defer stop()

	seen := make(map[string]DiscoveredLight)
	buf := make([]byte, 1024)

	for ctx.Err() == nil {
		if opts.IdleGap > 0 && len(seen) > 0 {
			deadline := time.Now().Add(opts.IdleGap)
			if end.Before(deadline) {
				deadline = end
			}
			if err := conn.SetReadDeadline(deadline); err != nil {
				break
			}
		}

		n, _, err := conn.ReadFrom(buf)
		if err != nil {
			if isTimeout(err) || ctx.Err() != nil {
				break
			}
			return sortLights(seen), fmt.Errorf("%w: read discovery reply: %w", ErrConnection, err)
		}

		light, ok := ParseDiscoveryReply(string(buf[:n]))
		if !ok {
			continue
		}
		if _, dup := seen[light.Host]; !dup {
			seen[light.Host] = light
		}
	}

	results := sortLights(seen)
	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

// DiscoverMDNS browses for controllers advertised over mDNS, typically by a
// gateway or a demo server.
func DiscoverMDNS(ctx context.Context, service string, timeout time.Duration) ([]DiscoveredLight, error) {
	if service == "" {
		return nil, fmt.Errorf("%w: empty mDNS service", ErrInvalidArgument)
	}
	if timeout <= 0 {
		timeout = DefaultMDNSTimeout
	}
	if d, ok := ctx.Deadline(); ok {
		if remaining := time.Until(d); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return nil, ctx.Err()
	}

	var lights []DiscoveredLight
	var mu sync.Mutex
	done := make(chan struct{})

	entriesCh := make(chan *mdns.ServiceEntry, 10)

	go func() {
		defer close(done)
		for entry := range entriesCh {
			if entry.AddrV4 == nil {
				continue
			}
			light := DiscoveredLight{
				Host:   entry.AddrV4.String(),
				Port:   entry.Port,
				Source: "mdns",
			}

			for _, txt := range entry.InfoFields {
				if strings.HasPrefix(txt, "id=") {
					light.ID = strings.TrimPrefix(txt, "id=")
				}
				if strings.HasPrefix(txt, "model=") {
					light.Model = strings.TrimPrefix(txt, "model=")
				}
			}

			mu.Lock()
			lights = append(lights, light)
			mu.Unlock()
		}
	}()

	params := mdns.DefaultParams(service)
	params.Entries = entriesCh
	params.Timeout = timeout
	params.DisableIPv6 = true

	err := mdns.Query(params)
	close(entriesCh)
	<-done

	if err != nil {
		return lights, fmt.Errorf("%w: mDNS query: %w", ErrConnection, err)
	}
	return lights, nil
}

// DiscoverAll runs UDP discovery and, when opts.MDNSService is set, an mDNS
// browse concurrently, and merges the results by host. UDP results win.
func DiscoverAll(ctx context.Context, opts DiscoveryOptions) ([]DiscoveredLight, error) {
	opts = opts.withDefaults()

	var udpLights, mdnsLights []DiscoveredLight
	var udpErr, mdnsErr error

	var g errgroup.Group
	g.Go(func() error {
		udpLights, udpErr = Discover(ctx, opts)
		return nil
	})
	if opts.MDNSService != "" {
		g.Go(func() error {
			mdnsLights, mdnsErr = DiscoverMDNS(ctx, opts.MDNSService, opts.Window)
			return nil
		})
	}
	_ = g.Wait()

	seen := make(map[string]DiscoveredLight)
	for _, l := range mdnsLights {
		seen[l.Host] = l
	}
	for _, l := range udpLights {
		seen[l.Host] = l
	}
	results := sortLights(seen)

	if len(results) == 0 {
		return nil, errors.Join(udpErr, mdnsErr)
	}
	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

func sortLights(seen map[string]DiscoveredLight) []DiscoveredLight {
	results := make([]DiscoveredLight, 0, len(seen))
	for _, l := range seen {
		results = append(results, l)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Host < results[j].Host
	})
	return results
}
