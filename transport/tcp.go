// Package transport is the boundary the hub uses to move bytes:
// reliable per-peer sockets (which also carry gossip), the handshake's
// blocking reliable exchange, and the best-effort unreliable channel
// for unreliable broadcast. Grounded on net/tcp/protocol/protocol.go's
// framing and net/tcp/tcp.go's Matrix dial/accept/keepalive idiom,
// adapted from the teacher's asymmetric client/server split to a
// single symmetric Socket per connected peer — club nodes are peers,
// not clients-of-a-server.
package transport

import (
	"fmt"
	"log"
	"net"
	"sync"
	"time"

	"github.com/Meander-Cloud/go-transport/tcp"
)

const (
	TcpKeepAliveInterval time.Duration = time.Second * 17
	TcpKeepAliveCount    uint16        = 2
	TcpDialTimeout       time.Duration = time.Second * 3
)

// TCPOptions configures a TCPSocket, trimmed from net/tcp/tcp.go's
// Matrix options down to what one symmetric peer-to-peer connection
// needs (no ReconnectInterval/Window: the hub treats a dropped socket
// as a departure, spec.md §4's "Peer drop", not something to silently
// reconnect underneath the membership protocol).
type TCPOptions struct {
	KeepAliveInterval time.Duration
	KeepAliveCount    uint16
	DialTimeout       time.Duration
	LogPrefix         string
	LogDebug          bool
}

func (o *TCPOptions) fillDefaults() {
	if o.KeepAliveInterval == 0 {
		o.KeepAliveInterval = TcpKeepAliveInterval
	}
	if o.KeepAliveCount == 0 {
		o.KeepAliveCount = TcpKeepAliveCount
	}
	if o.DialTimeout == 0 {
		o.DialTimeout = TcpDialTimeout
	}
}

// tcpProtocolAdapter implements go-transport/tcp's Protocol interface
// (evidenced only by net/tcp/protocol's Client/Server, each of which
// is assigned to tcp.Options.Protocol and defines ReadLoop(net.Conn)):
// tcp.TcpClient/TcpServer invoke ReadLoop once per established
// connection and expect it to block for that connection's lifetime,
// the same contract protocol.Client.ReadLoop/Server's per-conn loop
// honors. Club's Socket owns its own framed read loop (Run), so the
// adapter's only job is to hand the raw net.Conn off once and then
// sit blocked until the Socket built from it is closed.
type tcpProtocolAdapter struct {
	onConn func(conn net.Conn) (doneCh chan struct{})
}

func (a *tcpProtocolAdapter) ReadLoop(conn net.Conn) {
	done := a.onConn(conn)
	<-done
}

func (a *tcpProtocolAdapter) Close() {}

// TCPSocket is the real Socket, one per connected club peer. Grounded
// on net/tcp/tcp.go's Matrix (dial/accept/keepalive) collapsed from
// the teacher's asymmetric ClientStruct/ServerStruct pair into one
// type, since a club peer dials or accepts exactly once per
// connection and then behaves identically either way.
type TCPSocket struct {
	options    *TCPOptions
	conn       net.Conn
	descriptor string

	client *tcp.TcpClient // set only for a dialed socket, released on Close
	doneCh chan struct{}  // closed on Close to release the blocked adapter.ReadLoop

	mutex   sync.Mutex
	handler Handler
	closed  bool
}

// Dial opens a reliable connection to address through
// github.com/Meander-Cloud/go-transport/tcp's keepalive-tuned
// tcp.TcpClient, the same options tcp.Options carries in
// net/tcp/tcp.go's Matrix, bridged via tcpProtocolAdapter into a
// single synchronously-returned *TCPSocket. The underlying TcpClient
// is shut down the moment the one expected connection is handed off:
// club's Fuse handshake owns reconnection semantics (there is none —
// a dropped socket is a departure, not a transient fault), not
// TcpClient's own reconnect loop.
func Dial(address string, options *TCPOptions) (*TCPSocket, error) {
	if options == nil {
		options = &TCPOptions{}
	}
	options.fillDefaults()

	connCh := make(chan net.Conn, 1)
	doneCh := make(chan struct{})
	adapter := &tcpProtocolAdapter{
		onConn: func(conn net.Conn) chan struct{} {
			connCh <- conn
			return doneCh
		},
	}

	client, err := tcp.NewTcpClient(
		&tcp.Options{
			Address:           address,
			KeepAliveInterval: options.KeepAliveInterval,
			KeepAliveCount:    options.KeepAliveCount,
			DialTimeout:       options.DialTimeout,
			Protocol:          adapter,
			LogPrefix:         options.LogPrefix,
			LogDebug:          options.LogDebug,
		},
	)
	if err != nil {
		close(doneCh)
		return nil, fmt.Errorf("%s: dial %s failed: %w", options.LogPrefix, address, err)
	}

	var conn net.Conn
	select {
	case conn = <-connCh:
	case <-time.After(options.DialTimeout):
		close(doneCh)
		client.Shutdown()
		return nil, fmt.Errorf("%s: dial %s timed out after %s", options.LogPrefix, address, options.DialTimeout)
	}

	s := newTCPSocket(conn, options, fmt.Sprintf("->%s", address))
	s.client = client
	s.doneCh = doneCh
	return s, nil
}

// TCPListener accepts club peers on one address for the hub's
// lifetime, via a tcp.TcpServer bridged the same way Dial bridges
// tcp.TcpClient: every ReadLoop invocation produces one *TCPSocket on
// acceptCh.
type TCPListener struct {
	server   *tcp.TcpServer
	options  *TCPOptions
	acceptCh chan *TCPSocket
}

// Listen starts a tcp.TcpServer on address, adapted from
// net/tcp/tcp.go's Matrix server half.
func Listen(address string, options *TCPOptions) (*TCPListener, error) {
	if options == nil {
		options = &TCPOptions{}
	}
	options.fillDefaults()

	l := &TCPListener{
		options:  options,
		acceptCh: make(chan *TCPSocket, 16),
	}

	adapter := &tcpProtocolAdapter{
		onConn: func(conn net.Conn) chan struct{} {
			s := newTCPSocket(conn, options, fmt.Sprintf("<-%s", conn.RemoteAddr().String()))
			s.doneCh = make(chan struct{})
			l.acceptCh <- s
			return s.doneCh
		},
	}

	server, err := tcp.NewTcpServer(
		&tcp.Options{
			Address:           address,
			KeepAliveInterval: options.KeepAliveInterval,
			KeepAliveCount:    options.KeepAliveCount,
			DialTimeout:       options.DialTimeout,
			Protocol:          adapter,
			LogPrefix:         options.LogPrefix,
			LogDebug:          options.LogDebug,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: listen %s failed: %w", options.LogPrefix, address, err)
	}
	l.server = server

	return l, nil
}

// Accept blocks until the next inbound club peer connects.
func (l *TCPListener) Accept() (*TCPSocket, error) {
	s, ok := <-l.acceptCh
	if !ok {
		return nil, fmt.Errorf("%s: listener closed", l.options.LogPrefix)
	}
	return s, nil
}

func (l *TCPListener) Close() error {
	l.server.Shutdown()
	close(l.acceptCh)
	return nil
}

func newTCPSocket(conn net.Conn, options *TCPOptions, descriptor string) *TCPSocket {
	return &TCPSocket{
		options:    options,
		conn:       conn,
		descriptor: descriptor,
	}
}

func (s *TCPSocket) SetHandler(h Handler) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.handler = h
}

func (s *TCPSocket) getHandler() Handler {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.handler
}

// Run drives the read loop, mirroring protocol.Client.ReadLoop's
// for-loop-until-error shape: read one frame, dispatch it to the
// handler, repeat; any error (including EOF) closes the connection
// and reports OnClosed.
func (s *TCPSocket) Run() {
	defer func() {
		s.Close()
		if h := s.getHandler(); h != nil {
			h.OnClosed(s)
		}
	}()

	for {
		payload, err := ReadFrame(s.conn)
		if err != nil {
			if s.options.LogDebug {
				log.Printf("%s: %s: read loop ending: %s", s.options.LogPrefix, s.descriptor, err.Error())
			}
			return
		}
		if h := s.getHandler(); h != nil {
			h.OnFrame(s, payload)
		}
	}
}

func (s *TCPSocket) Send(payload []byte) error {
	return WriteFrame(s.conn, payload)
}

func (s *TCPSocket) RemoteDescriptor() string {
	return s.descriptor
}

func (s *TCPSocket) Close() error {
	s.mutex.Lock()
	if s.closed {
		s.mutex.Unlock()
		return nil
	}
	s.closed = true
	s.mutex.Unlock()

	if s.doneCh != nil {
		close(s.doneCh)
	}
	if s.client != nil {
		s.client.Shutdown()
	}

	return s.conn.Close()
}

// Conn exposes the underlying net.Conn for ReliableExchange, run
// before Run starts consuming frames for the hub's Dispatcher.
func (s *TCPSocket) Conn() net.Conn {
	return s.conn
}
