// Package transport defines the external transport contract the beacon
// and relay components are built against: binding a socket, sending to a
// stable per-peer handle, and a delegate interface the transport calls
// back into on accept/dial/send/receive events.
//
// Everything in the beacon and relay core depends only on these
// interfaces; pkg/transport/udp.go is the one concrete implementation a
// runnable binary wires in.
package transport

import "net"

// Handle is a stable, comparable reference to a remote peer's transport
// state. Two packets from the same source address demultiplex to the same
// Handle for the lifetime of that peer's activity.
type Handle interface {
	// DstAddr returns the remote address this handle sends to.
	DstAddr() *net.UDPAddr
	// Send queues data for delivery to the remote address. Failures are
	// reported but never retried by the transport itself.
	Send(data []byte) error
}

// Delegate receives callbacks from a Factory/Handle pair. Implementations
// must not block inside any of these methods, since they run on the
// transport's own event loop goroutine.
type Delegate interface {
	// ShouldAccept decides whether to admit a packet from a previously
	// unseen source address. Returning false causes the packet to be
	// dropped before a Handle is created for it.
	ShouldAccept(addr *net.UDPAddr) bool
	// DidCreateTransport is called once per newly admitted source
	// address, before the first DidRecvPacket for it.
	DidCreateTransport(h Handle)
	// DidDial is called after a locally-initiated Dial completes.
	DidDial(h Handle, err error)
	// DidRecvPacket delivers a datagram payload from h in arrival order
	// relative to other packets from the same h.
	DidRecvPacket(h Handle, data []byte)
	// DidSendPacket reports the outcome of a prior Handle.Send call.
	DidSendPacket(h Handle, err error)
}

// Factory binds a local socket and produces Handles for traffic observed
// on it, dispatching to a Delegate.
type Factory interface {
	// Bind opens the local socket at addr and begins servicing it on an
	// internal goroutine. Packets are delivered to delegate until Close.
	Bind(addr *net.UDPAddr, delegate Delegate) error
	// Dial creates (or reuses) a Handle for sending to addr without
	// waiting for an inbound packet from it first.
	Dial(addr *net.UDPAddr) (Handle, error)
	// Close stops the factory's event loop and releases the socket.
	Close() error
}
