package relay

import (
	"log"
	"net"

	"github.com/openweaver/relaymesh/pkg/capability"
	"github.com/openweaver/relaymesh/pkg/transport"
)

// Controller is the relay topology controller: it translates discovery
// events into a maintained set of upstream subscriptions, using a greedy
// one-swap-per-tick churn policy to push the active set toward lower
// RTT.
//
// Controller runs on whatever goroutine its owner drives it from (the
// pub/sub layer's own event loop, per spec §5); it holds no lock of its
// own because nothing else is meant to touch its buckets concurrently.
type Controller struct {
	tag         capability.Tag
	maxSolConns int
	channels    []string
	config      Config
	pubsub      PubSub
	dialer      transport.Factory

	solConns        *ConnectionBucket
	solStandbyConns *ConnectionBucket
}

// New constructs a Controller for tag. If tag is not MASTER or RELAY
// per the capability table, the controller is inert — ManageSubscriptions
// and NewPeer become no-ops — which is how leaf clients are expressed
// (spec §4.3 step 1).
func New(tag capability.Tag, table *capability.Table, pubsub PubSub, dialer transport.Factory, channels []string, cfg Config) *Controller {
	maxSolConns := 0
	if capability.IsTopologyController(tag) {
		if p, ok := table.Lookup(tag); ok {
			maxSolConns = p.MaxSolConns
		}
	}
	if channels == nil {
		channels = DefaultChannels
	}

	return &Controller{
		tag:             tag,
		maxSolConns:     maxSolConns,
		channels:        channels,
		config:          cfg,
		pubsub:          pubsub,
		dialer:          dialer,
		solConns:        NewConnectionBucket(),
		solStandbyConns: NewConnectionBucket(),
	}
}

// Inert reports whether this controller is a no-op topology controller
// (i.e. tag is neither MASTER nor RELAY).
func (c *Controller) Inert() bool {
	return c.maxSolConns == 0 && !capability.IsTopologyController(c.tag)
}

// SolConns exposes the active bucket for introspection.
func (c *Controller) SolConns() *ConnectionBucket { return c.solConns }

// SolStandbyConns exposes the standby bucket for introspection.
func (c *Controller) SolStandbyConns() *ConnectionBucket { return c.solStandbyConns }

// Config returns the feature-flag record this controller was built with.
func (c *Controller) Config() Config { return c.config }

// NewPeer handles a discovered peer. If the remote's advertised protocol
// is MASTER, the peer is subscribed on every channel and added as an
// active solicited connection. Any other tag is ignored by a MASTER/RELAY
// controller, and NewPeer is a no-op on an inert controller.
func (c *Controller) NewPeer(addr *net.UDPAddr, protocol capability.Tag, initialRTTMs float64) {
	if c.Inert() {
		return
	}
	if protocol != capability.MASTER {
		return
	}

	h, err := c.dialer.Dial(addr)
	if err != nil {
		log.Printf("[Relay] dial %s: %v", addr, err)
		return
	}

	for _, ch := range c.channels {
		c.pubsub.Subscribe(h, ch)
	}
	c.solConns.Add(h, initialRTTMs)
	metricSolConns.Add(nil, 1)
}

// ManageSubscriptions is the churn policy: when the active bucket is at
// or over capacity, it replaces the worst-RTT active connection with the
// best-RTT standby candidate, sending UNSUBSCRIBE then SUBSCRIBE on every
// channel in order. It performs at most one swap per call and makes no
// change when under capacity or when either extremum is missing.
func (c *Controller) ManageSubscriptions() {
	if c.Inert() {
		return
	}
	if c.solConns.Len() < c.maxSolConns {
		return
	}

	worst := c.solConns.FindMaxRTT()
	best := c.solStandbyConns.FindMinRTT()
	if worst == nil || best == nil {
		return
	}

	for _, ch := range c.channels {
		c.pubsub.Unsubscribe(worst, ch)
	}
	worstRTT := c.solConns.rtt[worst]
	c.solConns.Remove(worst)
	c.solStandbyConns.Add(worst, worstRTT)
	metricSolConns.Add(nil, -1)
	metricStandbyConns.Add(nil, 1)

	for _, ch := range c.channels {
		c.pubsub.Subscribe(best, ch)
	}
	bestRTT := c.solStandbyConns.rtt[best]
	c.solStandbyConns.Remove(best)
	c.solConns.Add(best, bestRTT)
	metricStandbyConns.Add(nil, -1)
	metricSolConns.Add(nil, 1)

	metricChurnSwaps.Add(nil, 1)
}
