package tlsutil

import (
	"crypto/tls"
	"errors"
	"net"
	"sync"
	"time"
)

// recordTypeHandshake is the first byte of every TLS ClientHello
const recordTypeHandshake = 0x16

// sniffTimeout bounds the wait for a client's first byte
const sniffTimeout = 5 * time.Second

// MuxListener accepts on one socket and sorts connections into a plain
// listener and a TLS listener by their first byte
type MuxListener struct {
	inner     net.Listener
	tlsConfig *tls.Config

	plain   chan net.Conn
	secured chan net.Conn

	closeOnce sync.Once
	closed    chan struct{}
}

// NewMuxListener starts sorting the connections accepted by inner
func NewMuxListener(inner net.Listener, tlsConfig *tls.Config) *MuxListener {
	ml := &MuxListener{
		inner:     inner,
		tlsConfig: tlsConfig,
		plain:     make(chan net.Conn, 128),
		secured:   make(chan net.Conn, 128),
		closed:    make(chan struct{}),
	}
	go ml.acceptLoop()
	return ml
}

func (ml *MuxListener) acceptLoop() {
	for {
		conn, err := ml.inner.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ml.isClosed() {
				return
			}
			continue
		}
		go ml.route(conn)
	}
}

func (ml *MuxListener) isClosed() bool {
	select {
	case <-ml.closed:
		return true
	default:
		return false
	}
}

// route reads the first byte and hands the connection, with that byte
// replayed, to the matching listener
func (ml *MuxListener) route(conn net.Conn) {
	conn.SetReadDeadline(time.Now().Add(sniffTimeout))
	first := make([]byte, 1)
	n, err := conn.Read(first)
	conn.SetReadDeadline(time.Time{})
	if err != nil || n == 0 {
		conn.Close()
		return
	}

	var routed net.Conn = &peekedConn{Conn: conn, peeked: first[:n]}
	target := ml.plain
	if first[0] == recordTypeHandshake {
		routed = tls.Server(routed, ml.tlsConfig)
		target = ml.secured
	}

	select {
	case target <- routed:
	case <-ml.closed:
		routed.Close()
	}
}

// HTTPListener yields the plain connections
func (ml *MuxListener) HTTPListener() net.Listener {
	return &chanListener{conns: ml.plain, closed: ml.closed, addr: ml.inner.Addr()}
}

// HTTPSListener yields the TLS connections, handshake pending
func (ml *MuxListener) HTTPSListener() net.Listener {
	return &chanListener{conns: ml.secured, closed: ml.closed, addr: ml.inner.Addr()}
}

// Close stops both derived listeners and the underlying socket
func (ml *MuxListener) Close() error {
	ml.closeOnce.Do(func() {
		close(ml.closed)
	})
	return ml.inner.Close()
}

// Addr returns the underlying socket address
func (ml *MuxListener) Addr() net.Addr {
	return ml.inner.Addr()
}

// peekedConn replays bytes already read from the connection
type peekedConn struct {
	net.Conn
	peeked []byte
}

func (c *peekedConn) Read(b []byte) (int, error) {
	if len(c.peeked) > 0 {
		n := copy(b, c.peeked)
		c.peeked = c.peeked[n:]
		return n, nil
	}
	return c.Conn.Read(b)
}

// chanListener is one side of a MuxListener. Closing it is a no-op; the
// MuxListener owns the socket.
type chanListener struct {
	conns  chan net.Conn
	closed chan struct{}
	addr   net.Addr
}

func (cl *chanListener) Accept() (net.Conn, error) {
	select {
	case conn := <-cl.conns:
		return conn, nil
	case <-cl.closed:
		return nil, net.ErrClosed
	}
}

func (cl *chanListener) Close() error {
	return nil
}

func (cl *chanListener) Addr() net.Addr {
	return cl.addr
}
