package transport

import (
	"fmt"
	"io"
)

// Socket is the reliable per-peer channel the hub needs: send a
// framed buffer, be told about every inbound framed buffer via
// Handler, and close. spec.md calls this "reliable channel"
// throughout §4 without naming a concrete transport; this interface
// is the out-of-scope boundary spec.md §1 names.
type Socket interface {
	// Send writes one frame; safe to call from any goroutine, the
	// same contract net/tcp/protocol.Client.WriteAsync gives callers.
	Send(payload []byte) error

	// SetHandler installs the callback invoked for every inbound
	// frame and for socket closure. Must be called before the first
	// ReadLoop-driving goroutine is started.
	SetHandler(h Handler)

	// RemoteDescriptor is a human-readable peer label for logging,
	// mirroring protocol.ConnVolatileData.Descriptor.
	RemoteDescriptor() string

	Close() error
}

// Handler receives inbound frames and the closed notification for one
// Socket, called directly from whatever goroutine is driving that
// socket's read loop (PipeSocket.Run/TCPSocket.Run) — not
// synchronized with the hub's arbiter goroutine. Implementations (the
// hub's Dispatcher) are responsible for re-dispatching onto their own
// single-threaded loop before touching any state, the same way
// protocol.Client.ReadLoop calls p.options.Arbiter.Dispatch around
// every handler invocation.
type Handler interface {
	OnFrame(s Socket, payload []byte)
	OnClosed(s Socket)
}

// UnreliableSocket is the best-effort datagram channel used by
// unreliable broadcast, spec.md §4.12 and §6.3.
type UnreliableSocket interface {
	SendTo(addr string, payload []byte, onComplete func(error)) error
	SetUnreliableHandler(h func(from string, payload []byte))
	Close() error
}

// ReliableExchange performs one atomic request/response round trip:
// write self's preamble, then read the peer's, per spec.md §4.5 step
// 1. Both sides call this concurrently against the same raw
// connection; io.ReadWriter must support concurrent Write-then-Read
// from one side while the other side is doing the same (true of
// net.Conn).
func ReliableExchange(rw io.ReadWriter, selfPreamble []byte) (peerPreamble []byte, err error) {
	if err := WriteFrame(rw, selfPreamble); err != nil {
		return nil, fmt.Errorf("transport: reliable exchange write failed: %w", err)
	}

	peerPreamble, err = ReadFrame(rw)
	if err != nil {
		return nil, fmt.Errorf("transport: reliable exchange read failed: %w", err)
	}
	return peerPreamble, nil
}
