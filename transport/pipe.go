package transport

import (
	"net"
	"sync"
)

// PipeSocket is an in-memory Socket backed by net.Pipe, used by the
// hub's tests in place of a real TCP connection. Grounded on
// mosaicnetworks-babble/net/inmem_transport.go's role — an in-memory
// stand-in for the real transport so gossip/commit behavior can be
// tested without opening sockets — though the shape here is a plain
// net.Pipe wrapper rather than babble's RPC-pipeline abstraction,
// since the hub only needs framed-byte send/receive, not a
// request/response RPC.
type PipeSocket struct {
	conn       net.Conn
	descriptor string

	mutex   sync.Mutex
	handler Handler
	closed  bool
}

// NewPipePair returns two connected PipeSockets, analogous to dialing
// and accepting a loopback TCP connection.
func NewPipePair(descA, descB string) (*PipeSocket, *PipeSocket) {
	a, b := net.Pipe()
	return &PipeSocket{conn: a, descriptor: descA}, &PipeSocket{conn: b, descriptor: descB}
}

func (s *PipeSocket) SetHandler(h Handler) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.handler = h
}

func (s *PipeSocket) getHandler() Handler {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.handler
}

// Run drives the read loop until the pipe closes or a frame fails to
// decode; callers start it in its own goroutine right after
// SetHandler. Mirrors protocol.Client.ReadLoop's for-loop-until-error
// shape, minus the handshake (the handshake uses ReliableExchange
// directly against s.conn before Run is started).
func (s *PipeSocket) Run() {
	for {
		payload, err := ReadFrame(s.conn)
		if err != nil {
			if h := s.getHandler(); h != nil {
				h.OnClosed(s)
			}
			return
		}
		if h := s.getHandler(); h != nil {
			h.OnFrame(s, payload)
		}
	}
}

func (s *PipeSocket) Send(payload []byte) error {
	return WriteFrame(s.conn, payload)
}

func (s *PipeSocket) RemoteDescriptor() string {
	return s.descriptor
}

func (s *PipeSocket) Close() error {
	s.mutex.Lock()
	if s.closed {
		s.mutex.Unlock()
		return nil
	}
	s.closed = true
	s.mutex.Unlock()

	return s.conn.Close()
}

// Conn exposes the underlying net.Conn for the handshake's
// ReliableExchange, which needs a raw io.ReadWriter before Run starts
// consuming frames.
func (s *PipeSocket) Conn() net.Conn {
	return s.conn
}
