package simplepir

import "fmt"

// ConfigError reports parameters that cannot yield a working PIR instance
// (e.g. an out-of-range plaintext modulus). Fatal at startup.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string { return fmt.Sprintf("simplepir: config: %s", e.Msg) }

// ProtocolError reports a malformed query or answer: wrong ciphertext
// length, or otherwise not shaped the way the protocol requires. Callers
// should close the offending session; it does not affect others.
type ProtocolError struct {
	Msg string
}

func (e *ProtocolError) Error() string { return fmt.Sprintf("simplepir: protocol: %s", e.Msg) }

// BoundsError reports a client-side out-of-range index, raised before a
// query is ever sent.
type BoundsError struct {
	Index uint64
	Limit uint64
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("simplepir: index %d out of bounds for limit %d", e.Index, e.Limit)
}

// SnapshotChangedError signals that a session's hint no longer matches the
// server's live snapshot. The client recovers by reconnecting.
type SnapshotChangedError struct {
	Msg string
}

func (e *SnapshotChangedError) Error() string { return fmt.Sprintf("simplepir: snapshot changed: %s", e.Msg) }

// NoiseOverflowError reports a decode that cannot be trusted: the
// accumulated LWE noise has (or may have) exceeded Delta/2. Recover itself
// never returns this — it is raised by callers that cross-check a decoded
// row against a known-good field (e.g. a codec length header) and find it
// implausible.
type NoiseOverflowError struct {
	Msg string
}

func (e *NoiseOverflowError) Error() string { return fmt.Sprintf("simplepir: noise overflow: %s", e.Msg) }

// TransportError wraps an underlying I/O or connection failure.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("simplepir: transport: %v", e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }
