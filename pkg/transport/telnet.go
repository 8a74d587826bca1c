package transport

import "io"

// Telnet protocol bytes (RFC 854).
const (
	telnetIAC  = 255
	telnetDONT = 254
	telnetDO   = 253
	telnetWONT = 252
	telnetWILL = 251
	telnetSB   = 250
	telnetSE   = 240
)

// telnetReader strips IAC negotiation from a telnet stream and refuses
// every option the server proposes (DO -> WONT, WILL -> DONT). OLT telnet
// servers accept a dumb client; we only need the raw byte stream.
type telnetReader struct {
	r     io.Reader
	w     io.Writer
	inSub bool
}

func newTelnetReader(r io.Reader, w io.Writer) *telnetReader {
	return &telnetReader{r: r, w: w}
}

func (t *telnetReader) Read(p []byte) (int, error) {
	raw := make([]byte, len(p))
	for {
		n, err := t.r.Read(raw)
		if n > 0 {
			out := t.filter(raw[:n], p)
			if len(out) > 0 {
				return len(out), nil
			}
			// Chunk was all negotiation; keep reading unless errored.
		}
		if err != nil {
			return 0, err
		}
	}
}

// filter copies data bytes from raw into dst, handling IAC sequences.
// dst has at least len(raw) capacity so data can never overflow it.
func (t *telnetReader) filter(raw, dst []byte) []byte {
	out := dst[:0]
	i := 0
	for i < len(raw) {
		b := raw[i]

		if t.inSub {
			// Inside subnegotiation: discard until IAC SE.
			if b == telnetIAC && i+1 < len(raw) && raw[i+1] == telnetSE {
				t.inSub = false
				i += 2
				continue
			}
			i++
			continue
		}

		if b != telnetIAC {
			out = append(out, b)
			i++
			continue
		}

		// IAC at end of chunk: drop it; servers resend negotiation.
		if i+1 >= len(raw) {
			break
		}

		cmd := raw[i+1]
		switch cmd {
		case telnetIAC:
			// Escaped literal 0xFF.
			out = append(out, telnetIAC)
			i += 2
		case telnetDO, telnetWILL, telnetDONT, telnetWONT:
			if i+2 >= len(raw) {
				// Option byte split across chunks: drop the partial
				// sequence; servers re-negotiate.
				return out
			}
			opt := raw[i+2]
			switch cmd {
			case telnetDO:
				t.w.Write([]byte{telnetIAC, telnetWONT, opt})
			case telnetWILL:
				t.w.Write([]byte{telnetIAC, telnetDONT, opt})
			}
			i += 3
		case telnetSB:
			t.inSub = true
			i += 2
		default:
			// Single-byte command (NOP, GA, ...): skip.
			i += 2
		}
	}
	return out
}
