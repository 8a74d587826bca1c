package command

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Payload carries the caller-supplied parameters for an action. Keys the
// vendor template does not use are ignored; missing required keys fail
// generation. Numeric fields are coerced to integers and string fields
// are trimmed, so payloads arriving from JSON (all numbers float64) and
// from Go callers generate identical commands.
type Payload map[string]interface{}

// Int coerces the value at key to an integer.
func (p Payload) Int(key string) (int, error) {
	v, ok := p[key]
	if !ok {
		return 0, fmt.Errorf("missing required field %q", key)
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, fmt.Errorf("field %q: %q is not an integer", key, n)
		}
		return i, nil
	}
	return 0, fmt.Errorf("field %q: unsupported type %T", key, v)
}

// String returns the trimmed string value at key.
func (p Payload) String(key string) (string, error) {
	v, ok := p[key]
	if !ok {
		return "", fmt.Errorf("missing required field %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("field %q: expected string, got %T", key, v)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("field %q: empty", key)
	}
	return s, nil
}

// StringOr returns the trimmed string value at key, or fallback when the
// key is absent or empty.
func (p Payload) StringOr(key, fallback string) string {
	s, err := p.String(key)
	if err != nil {
		return fallback
	}
	return s
}

// Canonical returns a deterministic serialization of the payload: keys
// sorted, values normalized through the same coercion generation uses.
// Two payloads with identical intent canonicalize identically regardless
// of key order or numeric representation; any differing field yields a
// different serialization.
func (p Payload) Canonical() string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		switch v := p[k].(type) {
		case string:
			sb.WriteString(strings.TrimSpace(v))
		case float64:
			// JSON numbers: render integers without exponent/decimals.
			if v == float64(int64(v)) {
				sb.WriteString(strconv.FormatInt(int64(v), 10))
			} else {
				sb.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
			}
		case int:
			sb.WriteString(strconv.Itoa(v))
		case int64:
			sb.WriteString(strconv.FormatInt(v, 10))
		case bool:
			sb.WriteString(strconv.FormatBool(v))
		case nil:
			sb.WriteString("null")
		default:
			// Nested structures are rare; JSON is stable enough for them.
			b, _ := json.Marshal(v)
			sb.Write(b)
		}
	}
	return sb.String()
}

// Fingerprint hashes the canonical payload together with device and
// operation identity into the idempotency key.
func Fingerprint(deviceName, action string, p Payload) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%s", deviceName, action, p.Canonical())
	return hex.EncodeToString(h.Sum(nil))
}
