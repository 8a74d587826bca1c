package transport

import (
	"bytes"
	"io"
	"testing"
)

func TestTelnetReaderStripsNegotiation(t *testing.T) {
	// Server proposes ECHO (WILL 1) and asks for terminal type (DO 24)
	// interleaved with data.
	in := bytes.NewReader([]byte{
		'L', 'o', 'g',
		telnetIAC, telnetWILL, 1,
		'i', 'n', ':',
		telnetIAC, telnetDO, 24,
		' ',
	})
	var responses bytes.Buffer
	r := newTelnetReader(in, &responses)

	out, err := io.ReadAll(r)
	if err != nil && err != io.EOF {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(out) != "Login: " {
		t.Errorf("data = %q, want %q", out, "Login: ")
	}

	want := []byte{telnetIAC, telnetDONT, 1, telnetIAC, telnetWONT, 24}
	if !bytes.Equal(responses.Bytes(), want) {
		t.Errorf("responses = %v, want %v", responses.Bytes(), want)
	}
}

func TestTelnetReaderEscapedIAC(t *testing.T) {
	in := bytes.NewReader([]byte{'a', telnetIAC, telnetIAC, 'b'})
	r := newTelnetReader(in, io.Discard)
	out, _ := io.ReadAll(r)
	if !bytes.Equal(out, []byte{'a', telnetIAC, 'b'}) {
		t.Errorf("out = %v", out)
	}
}

func TestTelnetReaderDiscardsSubnegotiation(t *testing.T) {
	in := bytes.NewReader([]byte{
		'x',
		telnetIAC, telnetSB, 24, 1, 2, 3, telnetIAC, telnetSE,
		'y',
	})
	r := newTelnetReader(in, io.Discard)
	out, _ := io.ReadAll(r)
	if string(out) != "xy" {
		t.Errorf("out = %q, want %q", out, "xy")
	}
}
