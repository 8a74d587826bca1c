package transport

import "sync"

// truncationMark is prepended to a transcript that overflowed its cap.
const truncationMark = "[transcript truncated, oldest output dropped]\n"

// Transcript is a fixed-capacity append buffer for captured device output.
// On overflow the OLDEST content is dropped, never the newest, so the
// output surrounding a failure point is preserved. Worst-case memory is
// bounded regardless of how much a pathological device prints.
type Transcript struct {
	mu        sync.Mutex
	buf       []byte
	cap       int
	truncated bool
}

// NewTranscript creates a transcript with the given byte capacity.
// Capacity <= 0 uses DefaultTranscriptCap.
func NewTranscript(capacity int) *Transcript {
	if capacity <= 0 {
		capacity = DefaultTranscriptCap
	}
	return &Transcript{cap: capacity}
}

// Append adds captured output, evicting from the front when over capacity.
func (t *Transcript) Append(p []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(p) >= t.cap {
		// Single chunk larger than the whole buffer: keep its tail.
		t.buf = append(t.buf[:0], p[len(p)-t.cap:]...)
		t.truncated = true
		return
	}

	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.cap; over > 0 {
		t.buf = t.buf[over:]
		t.truncated = true
	}
}

// AppendString adds captured output from a string.
func (t *Transcript) AppendString(s string) {
	t.Append([]byte(s))
}

// Len returns the current buffered size in bytes.
func (t *Transcript) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.buf)
}

// Truncated reports whether any output was dropped.
func (t *Transcript) Truncated() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.truncated
}

// Tail returns up to n bytes from the end of the buffer, used for prompt
// detection without copying the whole transcript.
func (t *Transcript) Tail(n int) []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	if n >= len(t.buf) {
		return append([]byte(nil), t.buf...)
	}
	return append([]byte(nil), t.buf[len(t.buf)-n:]...)
}

// String renders the transcript, with a truncation mark when output was
// dropped.
func (t *Transcript) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.truncated {
		return truncationMark + string(t.buf)
	}
	return string(t.buf)
}
