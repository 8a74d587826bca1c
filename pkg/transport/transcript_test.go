package transport

import (
	"strings"
	"testing"
)

func TestTranscriptAppendWithinCap(t *testing.T) {
	tr := NewTranscript(32)
	tr.AppendString("hello ")
	tr.AppendString("world")
	if tr.Truncated() {
		t.Error("should not be truncated")
	}
	if got := tr.String(); got != "hello world" {
		t.Errorf("String = %q", got)
	}
}

func TestTranscriptDropsOldest(t *testing.T) {
	tr := NewTranscript(10)
	tr.AppendString("0123456789") // fills exactly
	tr.AppendString("ABCDE")      // evicts "01234"

	if !tr.Truncated() {
		t.Fatal("should be truncated")
	}
	got := tr.String()
	if !strings.HasPrefix(got, truncationMark) {
		t.Errorf("missing truncation mark: %q", got)
	}
	body := strings.TrimPrefix(got, truncationMark)
	if body != "56789ABCDE" {
		t.Errorf("body = %q, want newest content preserved", body)
	}
}

func TestTranscriptOversizedChunkKeepsTail(t *testing.T) {
	tr := NewTranscript(4)
	tr.AppendString("abcdefgh")
	body := strings.TrimPrefix(tr.String(), truncationMark)
	if body != "efgh" {
		t.Errorf("body = %q, want tail of oversized chunk", body)
	}
	if tr.Len() != 4 {
		t.Errorf("Len = %d, want 4", tr.Len())
	}
}

func TestTranscriptTail(t *testing.T) {
	tr := NewTranscript(64)
	tr.AppendString("line1\nOLT(config)# ")
	tail := tr.Tail(8)
	if string(tail) != "onfig)# " {
		t.Errorf("Tail = %q", tail)
	}
	// Tail larger than buffer returns everything
	if got := tr.Tail(1000); string(got) != "line1\nOLT(config)# " {
		t.Errorf("Tail(1000) = %q", got)
	}
}

func TestPromptPatternMatchesCommonPrompts(t *testing.T) {
	for _, p := range []string{"OLT> ", "OLT(config)#", "ZXAN#  ", "[admin@rtr] $ "} {
		if !defaultPromptPattern.Match([]byte(p)) {
			t.Errorf("prompt %q not matched", p)
		}
	}
	if defaultPromptPattern.Match([]byte("loading...\n")) {
		t.Error("mid-output text should not match prompt")
	}
}
