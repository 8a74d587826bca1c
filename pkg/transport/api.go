package transport

import (
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/fibron-net/fibron/pkg/device"
	"github.com/fibron-net/fibron/pkg/util"
)

// APIClient speaks the RouterOS binary management API: length-prefixed
// words grouped into sentences, one request/response round trip per
// command. Replies stream as "!re" data sentences terminated by "!done"
// or, on error, "!trap" with a message attribute.
type APIClient struct {
	device *device.Device
	creds  device.Credentials
	cfg    Config

	mu        sync.Mutex
	conn      net.Conn
	connected bool
}

// NewAPIClient creates an unconnected binary-API client.
func NewAPIClient(d *device.Device, creds device.Credentials, cfg Config) *APIClient {
	return &APIClient{
		device: d,
		creds:  creds,
		cfg:    cfg.withDefaults(),
	}
}

// Connect dials the API port and performs the plaintext login handshake.
func (c *APIClient) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		return nil
	}

	dialer := net.Dialer{Timeout: c.cfg.ConnectTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", c.device.Addr())
	if err != nil {
		return util.NewConnectionError(c.device.Name, c.device.Addr(), err)
	}
	c.conn = conn

	login := []string{
		"/login",
		"=name=" + c.creds.Username,
		"=password=" + c.creds.Password,
	}
	reply, err := c.roundTrip(login)
	if err != nil {
		conn.Close()
		c.conn = nil
		return util.NewConnectionError(c.device.Name, c.device.Addr(), err)
	}
	if reply.trap != "" {
		conn.Close()
		c.conn = nil
		return util.NewConnectionError(c.device.Name, c.device.Addr(),
			fmt.Errorf("login rejected: %s", reply.trap))
	}

	c.connected = true
	c.device.TouchLastSeen()
	util.WithDevice(c.device.Name).Debug("API session established")
	return nil
}

// RunCommands issues each command as one API sentence and accumulates the
// rendered replies into a bounded transcript. A "!trap" reply fails the
// batch; commands after the failed one are not sent.
func (c *APIClient) RunCommands(commands []string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	tr := NewTranscript(c.cfg.TranscriptCap)
	if !c.connected {
		return tr.String(), util.NewConnectionError(c.device.Name, c.device.Addr(), fmt.Errorf("session not connected"))
	}

	for _, cmd := range commands {
		words := strings.Fields(cmd)
		if len(words) == 0 {
			continue
		}

		tr.AppendString("> " + cmd + "\n")
		reply, err := c.roundTrip(words)
		if err != nil {
			return tr.String(), &util.ExecutionError{
				Device:     c.device.Name,
				Command:    cmd,
				Transcript: tr.String(),
				Err:        err,
			}
		}
		for _, line := range reply.data {
			tr.AppendString(line + "\n")
		}
		if reply.trap != "" {
			tr.AppendString("!trap " + reply.trap + "\n")
			return tr.String(), &util.ExecutionError{
				Device:     c.device.Name,
				Command:    cmd,
				Transcript: tr.String(),
				Err:        fmt.Errorf("device rejected command: %s", reply.trap),
			}
		}
	}

	return tr.String(), nil
}

// Close closes the API connection. Safe to call more than once.
func (c *APIClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected && c.conn == nil {
		return nil
	}
	c.connected = false
	conn := c.conn
	c.conn = nil
	if conn != nil {
		return conn.Close()
	}
	return nil
}

// apiReply is one command's parsed response stream.
type apiReply struct {
	data []string // rendered "!re" sentences
	trap string   // message attribute of a "!trap" sentence, empty on success
}

// roundTrip writes one sentence and reads reply sentences until "!done".
// The whole exchange is bounded by the session timeout.
func (c *APIClient) roundTrip(words []string) (*apiReply, error) {
	deadline := time.Now().Add(c.cfg.SessionTimeout)
	if err := c.conn.SetDeadline(deadline); err != nil {
		return nil, err
	}
	defer c.conn.SetDeadline(time.Time{})

	if err := writeSentence(c.conn, words); err != nil {
		return nil, fmt.Errorf("writing sentence: %w", err)
	}

	reply := &apiReply{}
	for {
		sentence, err := readSentence(c.conn)
		if err != nil {
			return nil, fmt.Errorf("reading reply: %w", err)
		}
		if len(sentence) == 0 {
			continue
		}
		switch sentence[0] {
		case "!done":
			return reply, nil
		case "!re":
			reply.data = append(reply.data, renderAttributes(sentence[1:]))
		case "!trap", "!fatal":
			reply.trap = trapMessage(sentence[1:])
		}
	}
}

// renderAttributes flattens "=key=value" words to "key=value ..." text.
func renderAttributes(words []string) string {
	parts := make([]string, 0, len(words))
	for _, w := range words {
		parts = append(parts, strings.TrimPrefix(w, "="))
	}
	return strings.Join(parts, " ")
}

func trapMessage(words []string) string {
	for _, w := range words {
		if strings.HasPrefix(w, "=message=") {
			return strings.TrimPrefix(w, "=message=")
		}
	}
	return strings.Join(words, " ")
}

// writeSentence encodes words with RouterOS length prefixes, terminated
// by a zero-length word.
func writeSentence(w io.Writer, words []string) error {
	for _, word := range words {
		if err := writeWord(w, word); err != nil {
			return err
		}
	}
	return writeWord(w, "")
}

func writeWord(w io.Writer, word string) error {
	if _, err := w.Write(encodeLength(len(word))); err != nil {
		return err
	}
	if word == "" {
		return nil
	}
	_, err := io.WriteString(w, word)
	return err
}

// encodeLength implements the RouterOS variable-length prefix.
func encodeLength(n int) []byte {
	switch {
	case n < 0x80:
		return []byte{byte(n)}
	case n < 0x4000:
		return []byte{byte(n>>8) | 0x80, byte(n)}
	case n < 0x200000:
		return []byte{byte(n>>16) | 0xC0, byte(n >> 8), byte(n)}
	case n < 0x10000000:
		return []byte{byte(n>>24) | 0xE0, byte(n >> 16), byte(n >> 8), byte(n)}
	default:
		return []byte{0xF0, byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n)}
	}
}

// readSentence reads words until the zero-length terminator.
func readSentence(r io.Reader) ([]string, error) {
	var words []string
	for {
		word, err := readWord(r)
		if err != nil {
			return nil, err
		}
		if word == "" {
			return words, nil
		}
		words = append(words, word)
	}
}

func readWord(r io.Reader) (string, error) {
	n, err := decodeLength(r)
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func decodeLength(r io.Reader) (int, error) {
	b, err := readByte(r)
	if err != nil {
		return 0, err
	}

	switch {
	case b&0x80 == 0:
		return int(b), nil
	case b&0xC0 == 0x80:
		rest, err := readBytes(r, 1)
		if err != nil {
			return 0, err
		}
		return int(b&^0x80)<<8 | int(rest[0]), nil
	case b&0xE0 == 0xC0:
		rest, err := readBytes(r, 2)
		if err != nil {
			return 0, err
		}
		return int(b&^0xC0)<<16 | int(rest[0])<<8 | int(rest[1]), nil
	case b&0xF0 == 0xE0:
		rest, err := readBytes(r, 3)
		if err != nil {
			return 0, err
		}
		return int(b&^0xE0)<<24 | int(rest[0])<<16 | int(rest[1])<<8 | int(rest[2]), nil
	case b == 0xF0:
		rest, err := readBytes(r, 4)
		if err != nil {
			return 0, err
		}
		return int(rest[0])<<24 | int(rest[1])<<16 | int(rest[2])<<8 | int(rest[3]), nil
	}
	return 0, fmt.Errorf("invalid length prefix 0x%02x", b)
}

func readByte(r io.Reader) (byte, error) {
	buf, err := readBytes(r, 1)
	if err != nil {
		return 0, err
	}
	return buf[0], nil
}

func readBytes(r io.Reader, n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
