// Package pool maintains bounded, reusable per-device connections.
//
// Each device gets an idle queue and an in-use budget guarded by that
// device's mutex; a registry mutex protects first-use creation of the
// per-device structures. Checked-out connections are owned by exactly one
// caller until released.
package pool

import (
	"context"
	"sync"
	"time"

	"github.com/fibron-net/fibron/pkg/device"
	"github.com/fibron-net/fibron/pkg/transport"
	"github.com/fibron-net/fibron/pkg/util"
)

// Dialer opens a connected protocol client for a device. The default
// dialer resolves credentials and performs the transport handshake; tests
// substitute fakes.
type Dialer func(ctx context.Context, d *device.Device) (transport.Client, error)

// Config bounds pool behavior.
type Config struct {
	MaxPerDevice    int           // hard cap on concurrent connections per device
	MaxIdle         int           // idle connections retained per device
	CheckoutTimeout time.Duration // how long Checkout blocks when exhausted
}

// DefaultConfig returns production defaults: OLT management planes
// tolerate very few concurrent sessions.
func DefaultConfig() Config {
	return Config{
		MaxPerDevice:    4,
		MaxIdle:         2,
		CheckoutTimeout: 5 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	if c.MaxPerDevice <= 0 {
		c.MaxPerDevice = 4
	}
	if c.MaxIdle < 0 {
		c.MaxIdle = 0
	}
	if c.CheckoutTimeout <= 0 {
		c.CheckoutTimeout = 5 * time.Second
	}
	return c
}

// DefaultDialer resolves the device's credentials and opens its protocol
// client.
func DefaultDialer(transportCfg transport.Config) Dialer {
	return func(ctx context.Context, d *device.Device) (transport.Client, error) {
		creds, err := d.ResolveCredentials()
		if err != nil {
			return nil, util.NewConnectionError(d.Name, d.Addr(), err)
		}
		client, err := transport.NewClient(d, creds, transportCfg)
		if err != nil {
			return nil, err
		}
		if err := client.Connect(ctx); err != nil {
			return nil, err
		}
		return client, nil
	}
}

// Pool is the per-device connection registry. Constructed once at process
// start and torn down with DrainAll.
type Pool struct {
	cfg  Config
	dial Dialer

	mu      sync.Mutex // registry mutex: guards devices map only
	devices map[string]*devicePool
}

// New creates a pool using the given dialer.
func New(cfg Config, dial Dialer) *Pool {
	return &Pool{
		cfg:     cfg.withDefaults(),
		dial:    dial,
		devices: make(map[string]*devicePool),
	}
}

// devicePool holds one device's idle queue and in-use accounting.
type devicePool struct {
	dev   *device.Device
	slots chan struct{} // capacity = MaxPerDevice; holding a token = holding budget

	mu          sync.Mutex
	idle        []transport.Client
	inUse       int
	outstanding map[*Conn]struct{}
}

// Conn is a checked-out connection. It is owned by exactly one caller and
// must be returned with Release exactly once; extra releases are no-ops.
type Conn struct {
	Client transport.Client

	dp       *devicePool
	released bool // guarded by dp.mu
}

func (p *Pool) devicePool(d *device.Device) *devicePool {
	p.mu.Lock()
	defer p.mu.Unlock()

	dp, ok := p.devices[d.Name]
	if !ok {
		dp = &devicePool{
			dev:         d,
			slots:       make(chan struct{}, p.cfg.MaxPerDevice),
			outstanding: make(map[*Conn]struct{}),
		}
		for i := 0; i < p.cfg.MaxPerDevice; i++ {
			dp.slots <- struct{}{}
		}
		p.devices[d.Name] = dp
	}
	return dp
}

// Checkout returns a connection for the device: an idle one when
// available, a freshly dialed one while under budget, otherwise it blocks
// up to CheckoutTimeout for a release and then fails with PoolExhausted.
// Dial failures surface as ConnectionError and do not consume budget.
func (p *Pool) Checkout(ctx context.Context, d *device.Device) (*Conn, error) {
	dp := p.devicePool(d)

	select {
	case <-dp.slots:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(p.cfg.CheckoutTimeout):
		return nil, &util.PoolExhaustedError{
			Device:  d.Name,
			Max:     p.cfg.MaxPerDevice,
			Timeout: p.cfg.CheckoutTimeout.String(),
		}
	}

	// Budget token held from here; return it on any failure path.
	dp.mu.Lock()
	if n := len(dp.idle); n > 0 {
		client := dp.idle[n-1]
		dp.idle = dp.idle[:n-1]
		conn := dp.track(client)
		dp.mu.Unlock()
		return conn, nil
	}
	dp.mu.Unlock()

	client, err := p.dial(ctx, d)
	if err != nil {
		dp.slots <- struct{}{}
		return nil, err
	}

	dp.mu.Lock()
	conn := dp.track(client)
	dp.mu.Unlock()
	return conn, nil
}

// track registers a checked-out connection. Caller holds dp.mu.
func (dp *devicePool) track(client transport.Client) *Conn {
	dp.inUse++
	conn := &Conn{Client: client, dp: dp}
	dp.outstanding[conn] = struct{}{}
	return conn
}

// Release returns the connection to its device pool. The connection is
// queued for reuse when the idle queue has spare capacity, otherwise
// closed immediately. Releasing twice is a no-op: in-use never goes
// negative.
func (p *Pool) Release(c *Conn) {
	if c == nil {
		return
	}
	dp := c.dp

	dp.mu.Lock()
	if c.released {
		dp.mu.Unlock()
		return
	}
	c.released = true
	delete(dp.outstanding, c)
	dp.inUse--

	reuse := len(dp.idle) < p.cfg.MaxIdle
	if reuse {
		dp.idle = append(dp.idle, c.Client)
	}
	dp.mu.Unlock()

	if !reuse {
		if err := c.Client.Close(); err != nil {
			util.WithDevice(dp.dev.Name).Debugf("closing surplus connection: %v", err)
		}
	}
	dp.slots <- struct{}{}
}

// InUse reports the device's current checked-out count, for status
// queries and tests.
func (p *Pool) InUse(d *device.Device) int {
	dp := p.devicePool(d)
	dp.mu.Lock()
	defer dp.mu.Unlock()
	return dp.inUse
}

// DrainAll closes every idle and tracked connection across all devices.
// Used at process shutdown; concurrent callers holding connections will
// see their next command fail.
func (p *Pool) DrainAll() {
	p.mu.Lock()
	devices := make([]*devicePool, 0, len(p.devices))
	for _, dp := range p.devices {
		devices = append(devices, dp)
	}
	p.mu.Unlock()

	for _, dp := range devices {
		dp.mu.Lock()
		clients := append([]transport.Client(nil), dp.idle...)
		dp.idle = nil
		for conn := range dp.outstanding {
			clients = append(clients, conn.Client)
		}
		dp.mu.Unlock()

		for _, client := range clients {
			if err := client.Close(); err != nil {
				util.WithDevice(dp.dev.Name).Debugf("drain close: %v", err)
			}
		}
	}
}
