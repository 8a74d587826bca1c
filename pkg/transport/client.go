// Package transport implements the protocol clients that carry commands
// to managed devices: interactive CLI sessions over SSH or Telnet, and a
// binary word-framed API for RouterOS equipment. All implementations
// capture output into a bounded Transcript.
package transport

import (
	"context"
	"fmt"
	"net"
	"regexp"
	"time"

	"github.com/fibron-net/fibron/pkg/device"
	"github.com/fibron-net/fibron/pkg/util"
)

// Defaults for session behavior. Tuned for access-network gear that can
// be slow to render command output.
const (
	DefaultConnectTimeout   = 10 * time.Second
	DefaultIdleTimeout      = 2 * time.Second
	DefaultSessionTimeout   = 90 * time.Second
	DefaultTranscriptCap    = 64 * 1024
	DefaultInterCommandWait = 300 * time.Millisecond
)

// defaultPromptPattern matches common OLT/router shell prompts at end of
// output: "OLT>", "OLT(config)#", "ZXAN#", "$".
var defaultPromptPattern = regexp.MustCompile(`[>#$\]]\s*$`)

// Client is the capability interface every protocol implementation
// satisfies. A Client is owned by exactly one caller between pool
// checkout and release; it is not safe for concurrent use.
type Client interface {
	// Connect establishes the transport session and performs any login
	// handshake. The context bounds only the handshake.
	Connect(ctx context.Context) error

	// RunCommands executes commands in order and returns the accumulated
	// transcript. On error the transcript captured up to the failure
	// point is still returned.
	RunCommands(commands []string) (string, error)

	// Close tears down the session. Safe to call more than once.
	Close() error
}

// Config carries session tuning shared by all client kinds.
type Config struct {
	ConnectTimeout   time.Duration
	IdleTimeout      time.Duration
	SessionTimeout   time.Duration
	InterCommandWait time.Duration
	TranscriptCap    int
	PromptPattern    *regexp.Regexp
}

// withDefaults fills zero fields with package defaults.
func (c Config) withDefaults() Config {
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = DefaultIdleTimeout
	}
	if c.SessionTimeout <= 0 {
		c.SessionTimeout = DefaultSessionTimeout
	}
	if c.InterCommandWait <= 0 {
		c.InterCommandWait = DefaultInterCommandWait
	}
	if c.TranscriptCap <= 0 {
		c.TranscriptCap = DefaultTranscriptCap
	}
	if c.PromptPattern == nil {
		c.PromptPattern = defaultPromptPattern
	}
	return c
}

// NewClient builds the protocol client matching the device's transport.
// Credentials must already be resolved; they are never logged.
func NewClient(d *device.Device, creds device.Credentials, cfg Config) (Client, error) {
	cfg = cfg.withDefaults()
	switch d.Transport {
	case device.TransportAPI:
		return NewAPIClient(d, creds, cfg), nil
	case device.TransportSSH, device.TransportTelnet:
		return NewCLIClient(d, creds, cfg), nil
	}
	return nil, fmt.Errorf("device %s: unsupported transport %q", d.Name, d.Transport)
}

// Probe checks TCP reachability of addr within timeout. Used by dry-run
// and as the fail-fast step before live execution.
func Probe(addr string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return util.NewConnectionError("", addr, err)
	}
	return conn.Close()
}
