package hub

import "errors"

// Handshake error kinds, spec.md §7. Decode/version/self-fuse failures
// are protocol-level, not transport-level: the transport error (if
// any) is returned as-is rather than wrapped in one of these.
var (
	ErrConnectionRefused = errors.New("hub: handshake decode failed, connection refused")
	ErrNoProtocolOption  = errors.New("hub: handshake protocol version mismatch")
	ErrAlreadyConnected  = errors.New("hub: handshake peer_id equals self_id")
)
