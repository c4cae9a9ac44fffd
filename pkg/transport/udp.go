package transport

import (
	"fmt"
	"log"
	"net"
	"sync"
	"time"
)

// maxDatagramSize bounds a single read. The beacon's own framing caps
// LISTPEER datagrams at 1100 bytes; this leaves headroom for other
// message kinds without growing unbounded.
const maxDatagramSize = 2048

// readDeadline bounds each blocking read so Close() is responsive without
// needing a second control goroutine.
const readDeadline = 500 * time.Millisecond

// udpHandle is the one concrete Handle, keyed by a stable remote address.
type udpHandle struct {
	addr *net.UDPAddr
	conn *net.UDPConn
}

func (h *udpHandle) DstAddr() *net.UDPAddr { return h.addr }

func (h *udpHandle) Send(data []byte) error {
	_, err := h.conn.WriteToUDP(data, h.addr)
	return err
}

// UDPFactory is the concrete transport.Factory over a single bound UDP
// socket. All packets for the socket are read and dispatched to the
// delegate from one goroutine, in arrival order. UDPFactory never calls
// the delegate's DidDial or DidSendPacket: Dial and Send report failures
// only through their return values.
type UDPFactory struct {
	conn     *net.UDPConn
	delegate Delegate

	mu      sync.Mutex
	handles map[string]*udpHandle
	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

// NewUDPFactory constructs an unbound factory. Call Bind to start
// servicing a socket.
func NewUDPFactory() *UDPFactory {
	return &UDPFactory{handles: make(map[string]*udpHandle)}
}

// Bind opens a UDP socket at addr and starts the read loop.
func (f *UDPFactory) Bind(addr *net.UDPAddr, delegate Delegate) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.running {
		return fmt.Errorf("transport: factory already bound")
	}

	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return fmt.Errorf("transport: bind %s: %w", addr, err)
	}

	f.conn = conn
	f.delegate = delegate
	f.stopCh = make(chan struct{})
	f.doneCh = make(chan struct{})
	f.running = true

	go f.readLoop()
	log.Printf("[Transport] bound UDP socket on %s", conn.LocalAddr())
	return nil
}

// Dial registers (or reuses) a Handle for addr without requiring a prior
// inbound packet.
func (f *UDPFactory) Dial(addr *net.UDPAddr) (Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.running {
		return nil, fmt.Errorf("transport: factory not bound")
	}
	h := f.handleLocked(addr)
	return h, nil
}

// Close stops the read loop and releases the socket.
func (f *UDPFactory) Close() error {
	f.mu.Lock()
	if !f.running {
		f.mu.Unlock()
		return nil
	}
	f.running = false
	close(f.stopCh)
	conn := f.conn
	f.mu.Unlock()

	err := conn.Close()
	<-f.doneCh
	return err
}

// handleLocked returns the stable Handle for addr, creating one if this
// is the first time addr has been seen. It does not call the delegate;
// readLoop calls DidCreateTransport for handles it creates. Callers must
// hold f.mu.
func (f *UDPFactory) handleLocked(addr *net.UDPAddr) *udpHandle {
	key := addr.String()
	h, ok := f.handles[key]
	if ok {
		return h
	}
	h = &udpHandle{addr: addr, conn: f.conn}
	f.handles[key] = h
	return h
}

func (f *UDPFactory) readLoop() {
	defer close(f.doneCh)
	buf := make([]byte, maxDatagramSize)

	for {
		select {
		case <-f.stopCh:
			return
		default:
		}

		f.conn.SetReadDeadline(time.Now().Add(readDeadline))
		n, remote, err := f.conn.ReadFromUDP(buf)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			select {
			case <-f.stopCh:
				return
			default:
				log.Printf("[Transport] read error: %v", err)
				continue
			}
		}

		f.mu.Lock()
		key := remote.String()
		h, known := f.handles[key]
		if !known {
			if !f.delegate.ShouldAccept(remote) {
				f.mu.Unlock()
				continue
			}
			h = f.handleLocked(remote)
		}
		f.mu.Unlock()

		if !known {
			f.delegate.DidCreateTransport(h)
		}

		data := make([]byte, n)
		copy(data, buf[:n])
		f.delegate.DidRecvPacket(h, data)
	}
}
