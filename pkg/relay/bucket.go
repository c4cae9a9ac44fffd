// Package relay implements the topology controller: it turns discovery
// events into a maintained set of upstream subscriptions, churning the
// active set toward lower RTT as standby candidates arrive.
package relay

import "github.com/openweaver/relaymesh/pkg/transport"

// ConnectionBucket is a set of transport handles, each carrying an
// observed RTT in milliseconds maintained by the pub/sub layer.
// Membership transitions only via Add/Remove; two buckets used together
// (active and standby) must stay disjoint — callers are responsible for
// moving an entry out of one bucket before adding it to the other.
type ConnectionBucket struct {
	rtt map[transport.Handle]float64
}

// NewConnectionBucket returns an empty bucket.
func NewConnectionBucket() *ConnectionBucket {
	return &ConnectionBucket{rtt: make(map[transport.Handle]float64)}
}

// Add inserts h with the given observed RTT (milliseconds), or updates
// its RTT if already present.
func (b *ConnectionBucket) Add(h transport.Handle, rttMs float64) {
	b.rtt[h] = rttMs
}

// Remove deletes h from the bucket, if present.
func (b *ConnectionBucket) Remove(h transport.Handle) {
	delete(b.rtt, h)
}

// Contains reports whether h is in the bucket.
func (b *ConnectionBucket) Contains(h transport.Handle) bool {
	_, ok := b.rtt[h]
	return ok
}

// Len returns the number of handles in the bucket.
func (b *ConnectionBucket) Len() int {
	return len(b.rtt)
}

// Each calls fn once per handle in the bucket, in unspecified order.
func (b *ConnectionBucket) Each(fn func(h transport.Handle, rttMs float64)) {
	for h, rtt := range b.rtt {
		fn(h, rtt)
	}
}

// FindMaxRTT returns the handle with the highest observed RTT, or nil if
// the bucket is empty. Ties are broken by Go's map iteration order, which
// is randomized, so among several handles with the same highest RTT the
// one returned can differ from call to call.
func (b *ConnectionBucket) FindMaxRTT() transport.Handle {
	var best transport.Handle
	bestRTT := -1.0
	for h, rtt := range b.rtt {
		if rtt > bestRTT {
			bestRTT = rtt
			best = h
		}
	}
	return best
}

// FindMinRTT returns the handle with the lowest observed RTT, or nil if
// the bucket is empty.
func (b *ConnectionBucket) FindMinRTT() transport.Handle {
	var best transport.Handle
	bestRTT := 0.0
	first := true
	for h, rtt := range b.rtt {
		if first || rtt < bestRTT {
			bestRTT = rtt
			best = h
			first = false
		}
	}
	return best
}
