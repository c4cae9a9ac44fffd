package beacon

import (
	"fmt"
	"log"
	"net"
	"sync"
	"time"

	"github.com/openweaver/relaymesh/pkg/capability"
	"github.com/openweaver/relaymesh/pkg/identity"
	"github.com/openweaver/relaymesh/pkg/transport"
)

// HeartbeatInterval is how often the client sends HEARTBEAT to the
// rendezvous server, independent of and unsynchronized with the server's
// reaper period.
const HeartbeatInterval = 10 * time.Second

// DiscpeerInterval is how often the client sends DISCPEER.
const DiscpeerInterval = 15 * time.Second

// NewPeerFunc is invoked once per peer address whose protocol tag has
// been resolved (see ResolveProtocol), mirroring the relay's
// new_peer(addr, protocol, pubsubPort) contract.
type NewPeerFunc func(addr *net.UDPAddr, protocol capability.Tag, pubsubPort uint16)

// pendingPeer is a LISTPEER entry waiting for its protocol tag to be
// resolved before new_peer fires for it (see Open Question OQ-2: the
// wire's LISTPEER entry carries no protocol tag by itself).
type pendingPeer struct {
	publicKey  identity.PublicKey
	appAddress identity.AppAddress
	notified   bool
}

// Client is the discovery client: it heartbeats a rendezvous server,
// periodically asks it for peers, and resolves each into a new_peer call
// once its protocol tag becomes known.
type Client struct {
	factory    transport.Factory
	rendezvous *net.UDPAddr
	identity   *identity.NodeIdentity
	appAddr    identity.AppAddress
	onNewPeer  NewPeerFunc

	mu           sync.Mutex
	rendezvousH  transport.Handle
	pending      map[string]*pendingPeer
	protocolTags map[string]capability.Tag

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewClient constructs a discovery client. onNewPeer may be nil if the
// caller only wants heartbeating (e.g. a leaf node with no topology
// controller to drive).
func NewClient(factory transport.Factory, rendezvous *net.UDPAddr, id *identity.NodeIdentity, appAddr identity.AppAddress, onNewPeer NewPeerFunc) *Client {
	return &Client{
		factory:      factory,
		rendezvous:   rendezvous,
		identity:     id,
		appAddr:      appAddr,
		onNewPeer:    onNewPeer,
		pending:      make(map[string]*pendingPeer),
		protocolTags: make(map[string]capability.Tag),
	}
}

// Start binds localAddr, dials the rendezvous server, issues an initial
// DISCPROTO, and begins the HEARTBEAT/DISCPEER ticker loop.
func (c *Client) Start(localAddr *net.UDPAddr) error {
	if err := c.factory.Bind(localAddr, c); err != nil {
		return fmt.Errorf("beacon client: start: %w", err)
	}
	h, err := c.factory.Dial(c.rendezvous)
	if err != nil {
		return fmt.Errorf("beacon client: dial rendezvous: %w", err)
	}
	c.mu.Lock()
	c.rendezvousH = h
	c.mu.Unlock()

	if err := h.Send(encodeHeader(kindDISCPROTO)); err != nil {
		log.Printf("[BeaconClient] initial DISCPROTO send failed: %v", err)
	}

	c.stopCh = make(chan struct{})
	c.doneCh = make(chan struct{})
	go c.loop()
	return nil
}

// Close stops the ticker loop and the underlying transport.
func (c *Client) Close() error {
	if c.stopCh != nil {
		close(c.stopCh)
		<-c.doneCh
	}
	return c.factory.Close()
}

// ResolveProtocol feeds back a peer's protocol tag and advertised pub/sub
// port — learned out of band from a LISTPROTO exchange with that peer
// directly, which is outside this module's wire protocol — so any
// LISTPEER entry already seen for addr can now fire new_peer.
func (c *Client) ResolveProtocol(addr *net.UDPAddr, tag capability.Tag, pubsubPort uint16) {
	key := addr.String()

	c.mu.Lock()
	c.protocolTags[key] = tag
	p, ok := c.pending[key]
	c.mu.Unlock()

	if !ok || p.notified {
		return
	}
	c.notify(addr, tag, pubsubPort, p)
}

func (c *Client) notify(addr *net.UDPAddr, tag capability.Tag, pubsubPort uint16, p *pendingPeer) {
	c.mu.Lock()
	if p.notified {
		c.mu.Unlock()
		return
	}
	p.notified = true
	c.mu.Unlock()

	if c.onNewPeer != nil {
		c.onNewPeer(addr, tag, pubsubPort)
	}
}

func (c *Client) loop() {
	defer close(c.doneCh)
	hbTicker := time.NewTicker(HeartbeatInterval)
	defer hbTicker.Stop()
	dpTicker := time.NewTicker(DiscpeerInterval)
	defer dpTicker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-hbTicker.C:
			c.sendHeartbeat()
		case <-dpTicker.C:
			c.sendDiscpeer()
		}
	}
}

func (c *Client) sendHeartbeat() {
	c.mu.Lock()
	h := c.rendezvousH
	c.mu.Unlock()
	if h == nil {
		return
	}
	datagram := encodeHeartbeat(c.identity.Public, c.appAddr)
	if err := h.Send(datagram); err != nil {
		log.Printf("[BeaconClient] HEARTBEAT send failed: %v", err)
	}
}

func (c *Client) sendDiscpeer() {
	c.mu.Lock()
	h := c.rendezvousH
	c.mu.Unlock()
	if h == nil {
		return
	}
	if err := h.Send(encodeHeader(kindDISCPEER)); err != nil {
		log.Printf("[BeaconClient] DISCPEER send failed: %v", err)
	}
}

// ---- transport.Delegate ----

func (c *Client) ShouldAccept(addr *net.UDPAddr) bool {
	return addr.String() == c.rendezvous.String()
}

func (c *Client) DidCreateTransport(h transport.Handle) {}

func (c *Client) DidDial(h transport.Handle, err error) {
	if err != nil {
		log.Printf("[BeaconClient] dial error: %v", err)
	}
}

func (c *Client) DidSendPacket(h transport.Handle, err error) {
	if err != nil {
		log.Printf("[BeaconClient] send error: %v", err)
	}
}

func (c *Client) DidRecvPacket(h transport.Handle, data []byte) {
	kind, ok := decodeHeader(data)
	if !ok {
		log.Printf("[BeaconClient] dropped datagram from %s: shorter than header", h.DstAddr())
		return
	}

	switch kind {
	case kindLISTPROTO:
		// The reference emits an empty LISTPROTO; a populated payload is
		// a forward-compatible extension this client does not yet parse.
	case kindLISTPEER:
		c.handleListpeer(data)
	case kindDISCPROTO, kindDISCPEER, kindHEARTBEAT:
		log.Printf("[BeaconClient] unexpected client-side kind %d from %s", kind, h.DstAddr())
	default:
		log.Printf("[BeaconClient] unknown message kind %d from %s", kind, h.DstAddr())
	}
}

func (c *Client) handleListpeer(data []byte) {
	for _, entry := range decodeListpeerDatagram(data) {
		addr, err := addrFromWire(entry.RemoteAddr)
		if err != nil {
			log.Printf("[BeaconClient] malformed LISTPEER entry: %v", err)
			continue
		}
		key := addr.String()

		c.mu.Lock()
		p, existed := c.pending[key]
		if !existed {
			p = &pendingPeer{}
			c.pending[key] = p
		}
		p.publicKey = entry.PublicKey
		p.appAddress = entry.AppAddress
		c.mu.Unlock()
		// Resolution (and the new_peer call) happens in ResolveProtocol,
		// once a LISTPROTO round with this peer supplies its tag and
		// pub/sub port; the wire's LISTPEER entry alone carries neither.
	}
}
