package transport

import (
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/fibron-net/fibron/pkg/device"
	"github.com/fibron-net/fibron/pkg/util"
)

// CLIClient drives an interactive shell session over SSH or Telnet. For
// each command it writes the command followed by CRLF and reads output
// until a known shell prompt appears or the inter-command idle window
// elapses. Command echo is not assumed; whatever the device sends is
// captured as-is into the bounded transcript.
type CLIClient struct {
	device *device.Device
	creds  device.Credentials
	cfg    Config

	mu        sync.Mutex
	connected bool

	stdin   io.Writer
	outc    chan []byte
	done    chan struct{}
	closeFn func() error
}

// NewCLIClient creates an unconnected CLI client for an SSH or Telnet
// device.
func NewCLIClient(d *device.Device, creds device.Credentials, cfg Config) *CLIClient {
	return &CLIClient{
		device: d,
		creds:  creds,
		cfg:    cfg.withDefaults(),
	}
}

// Connect dials the device, performs the transport's login handshake and
// drains the login banner.
func (c *CLIClient) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		return nil
	}

	var err error
	switch c.device.Transport {
	case device.TransportSSH:
		err = c.connectSSH()
	case device.TransportTelnet:
		err = c.connectTelnet(ctx)
	default:
		return fmt.Errorf("CLI client cannot drive transport %q", c.device.Transport)
	}
	if err != nil {
		return err
	}

	c.connected = true
	c.device.TouchLastSeen()
	util.WithDevice(c.device.Name).Debug("CLI session established")
	return nil
}

func (c *CLIClient) connectSSH() error {
	config := &ssh.ClientConfig{
		User:    c.creds.Username,
		Auth:    []ssh.AuthMethod{ssh.Password(c.creds.Password)},
		Timeout: c.cfg.ConnectTimeout,
		// Access gear rarely has stable host keys across RMAs; the
		// inventory is the source of truth for addresses.
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
	}

	client, err := ssh.Dial("tcp", c.device.Addr(), config)
	if err != nil {
		return util.NewConnectionError(c.device.Name, c.device.Addr(), err)
	}

	session, err := client.NewSession()
	if err != nil {
		client.Close()
		return util.NewConnectionError(c.device.Name, c.device.Addr(), err)
	}

	modes := ssh.TerminalModes{
		ssh.ECHO:          0,
		ssh.TTY_OP_ISPEED: 14400,
		ssh.TTY_OP_OSPEED: 14400,
	}
	if err := session.RequestPty("vt100", 200, 80, modes); err != nil {
		session.Close()
		client.Close()
		return util.NewConnectionError(c.device.Name, c.device.Addr(), err)
	}

	stdin, err := session.StdinPipe()
	if err != nil {
		session.Close()
		client.Close()
		return util.NewConnectionError(c.device.Name, c.device.Addr(), err)
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		session.Close()
		client.Close()
		return util.NewConnectionError(c.device.Name, c.device.Addr(), err)
	}

	if err := session.Shell(); err != nil {
		session.Close()
		client.Close()
		return util.NewConnectionError(c.device.Name, c.device.Addr(), err)
	}

	c.stdin = stdin
	c.closeFn = func() error {
		session.Close()
		return client.Close()
	}
	c.startReader(stdout)

	// Swallow the login banner so it does not pollute the first
	// command's transcript.
	c.drainIdle()
	return nil
}

func (c *CLIClient) connectTelnet(ctx context.Context) error {
	dialer := net.Dialer{Timeout: c.cfg.ConnectTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", c.device.Addr())
	if err != nil {
		return util.NewConnectionError(c.device.Name, c.device.Addr(), err)
	}

	c.stdin = conn
	c.closeFn = conn.Close
	c.startReader(newTelnetReader(conn, conn))

	// Telnet authenticates in-band: wait for the username prompt, then
	// the password prompt. Devices that drop straight to a shell (open
	// lab gear) skip both.
	if got, _ := c.expect("ogin:", "sername:", ">", "#"); strings.Contains(got, "ogin:") || strings.Contains(got, "sername:") {
		if _, err := fmt.Fprintf(conn, "%s\r\n", c.creds.Username); err != nil {
			conn.Close()
			return util.NewConnectionError(c.device.Name, c.device.Addr(), err)
		}
		if got, _ := c.expect("assword:"); strings.Contains(got, "assword:") {
			if _, err := fmt.Fprintf(conn, "%s\r\n", c.creds.Password); err != nil {
				conn.Close()
				return util.NewConnectionError(c.device.Name, c.device.Addr(), err)
			}
		}
	}

	c.drainIdle()
	return nil
}

// startReader pumps session output into outc until EOF or Close.
func (c *CLIClient) startReader(r io.Reader) {
	c.outc = make(chan []byte, 16)
	c.done = make(chan struct{})
	outc, done := c.outc, c.done

	go func() {
		buf := make([]byte, 4096)
		for {
			n, err := r.Read(buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				select {
				case outc <- chunk:
				case <-done:
					return
				}
			}
			if err != nil {
				close(outc)
				return
			}
		}
	}()
}

// expect reads until any of the markers appears in the accumulated tail
// or the idle window elapses. Returns what was read.
func (c *CLIClient) expect(markers ...string) (string, bool) {
	var sb strings.Builder
	idle := time.NewTimer(c.cfg.IdleTimeout)
	defer idle.Stop()

	for {
		select {
		case chunk, ok := <-c.outc:
			if !ok {
				return sb.String(), false
			}
			sb.Write(chunk)
			for _, m := range markers {
				if strings.Contains(sb.String(), m) {
					return sb.String(), true
				}
			}
			resetTimer(idle, c.cfg.IdleTimeout)
		case <-idle.C:
			return sb.String(), false
		}
	}
}

// drainIdle discards buffered output until the session goes quiet.
func (c *CLIClient) drainIdle() {
	idle := time.NewTimer(c.cfg.IdleTimeout)
	defer idle.Stop()
	for {
		select {
		case _, ok := <-c.outc:
			if !ok {
				return
			}
			resetTimer(idle, c.cfg.IdleTimeout)
		case <-idle.C:
			return
		}
	}
}

// RunCommands writes each command and captures output until a prompt is
// observed or the idle window elapses, bounded overall by the session
// timeout. Partial reads are tolerated: reading continues until the
// session is idle, not until a fixed byte count.
func (c *CLIClient) RunCommands(commands []string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	tr := NewTranscript(c.cfg.TranscriptCap)
	if !c.connected {
		return tr.String(), util.NewConnectionError(c.device.Name, c.device.Addr(), fmt.Errorf("session not connected"))
	}

	session := time.NewTimer(c.cfg.SessionTimeout)
	defer session.Stop()

	for _, cmd := range commands {
		if _, err := io.WriteString(c.stdin, cmd+"\r\n"); err != nil {
			return tr.String(), &util.ExecutionError{
				Device:     c.device.Name,
				Command:    cmd,
				Transcript: tr.String(),
				Err:        err,
			}
		}

		if err := c.collect(tr, session.C); err != nil {
			return tr.String(), &util.ExecutionError{
				Device:     c.device.Name,
				Command:    cmd,
				Transcript: tr.String(),
				Err:        err,
			}
		}

		time.Sleep(c.cfg.InterCommandWait)
	}

	return tr.String(), nil
}

// collect appends session output to tr until a prompt is seen at the tail
// of the output, the idle window elapses, or the session timer fires.
func (c *CLIClient) collect(tr *Transcript, sessionExpired <-chan time.Time) error {
	idle := time.NewTimer(c.cfg.IdleTimeout)
	defer idle.Stop()

	for {
		select {
		case chunk, ok := <-c.outc:
			if !ok {
				return fmt.Errorf("session closed by device")
			}
			tr.Append(chunk)
			if c.cfg.PromptPattern.Match(tr.Tail(128)) {
				return nil
			}
			resetTimer(idle, c.cfg.IdleTimeout)
		case <-idle.C:
			return nil
		case <-sessionExpired:
			return fmt.Errorf("session timeout after %s", c.cfg.SessionTimeout)
		}
	}
}

// Close tears down the session. Safe to call more than once.
func (c *CLIClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return nil
	}
	c.connected = false
	close(c.done)
	if c.closeFn != nil {
		return c.closeFn()
	}
	return nil
}

func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}
