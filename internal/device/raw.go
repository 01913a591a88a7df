package device

// RawStatus is the opaque mapping of raw CoAP keys to primitive values, as
// returned verbatim by get_status. The bridge never synthesizes a key that
// isn't present here; decoders fall back to documented defaults instead.
type RawStatus map[string]any

// Clone returns a shallow copy, safe to hand to a caller that must not
// observe later mutation of the original (e.g. for raw_state publishing).
func (r RawStatus) Clone() RawStatus {
	out := make(RawStatus, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Command is a minimal raw sub-mapping describing a write to push to the
// device: exactly the raw keys a single writer call touched, so the device
// observes every co-affected key as one atomic change.
type Command map[string]any

// intOf coerces a raw status value to an int, defaulting when the key is
// absent or of an unexpected type. CoAP payloads commonly decode JSON
// numbers as float64, so both int and float64 are accepted.
func intOf(raw RawStatus, key string, def int) int {
	v, ok := raw[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return def
	}
}

// stringOf coerces a raw status value to a string, defaulting when absent.
func stringOf(raw RawStatus, key string, def string) string {
	v, ok := raw[key]
	if !ok {
		return def
	}
	if s, ok := v.(string); ok {
		return s
	}
	return def
}
