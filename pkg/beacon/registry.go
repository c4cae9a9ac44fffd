package beacon

import (
	"sync"
	"time"

	"github.com/openweaver/relaymesh/pkg/identity"
	"github.com/openweaver/relaymesh/pkg/transport"
)

// peerDeadAfter is the liveness window: a peer with no HEARTBEAT in this
// long is eligible for reaping.
const peerDeadAfter = 60 * time.Second

// PeerRecord is everything the registry keeps about a heartbeating peer.
// The reference implementation splits this across two parallel maps
// walked with two iterators in lockstep; that invites the termination
// mismatch the original's own comments flag as unresolved. Collapsing to
// one record per handle in one map removes the hazard entirely.
type PeerRecord struct {
	Handle        transport.Handle
	LastSeen      time.Time
	PublicKey     identity.PublicKey
	AppAddress    identity.AppAddress
	RemoteAddress [transportAddrSize]byte
}

// Registry is the beacon's peer table, keyed by transport handle. It is
// read and written from at least three independently scheduled
// goroutines — the transport's read loop, the server's reaper ticker,
// and (when enabled) the JSON-RPC introspection server's per-connection
// handlers — so every access goes through mu.
type Registry struct {
	mu    sync.Mutex
	peers map[transport.Handle]*PeerRecord
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{peers: make(map[transport.Handle]*PeerRecord)}
}

// Touch creates or refreshes the record for h, setting its last-seen time
// to now and overwriting its public key and app address. existed reports
// whether h already had a record before this call.
func (r *Registry) Touch(h transport.Handle, now time.Time, pub identity.PublicKey, app identity.AppAddress, addr [transportAddrSize]byte) (rec *PeerRecord, existed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, existed = r.peers[h]
	if !existed {
		rec = &PeerRecord{Handle: h}
		r.peers[h] = rec
	}
	rec.LastSeen = now
	rec.PublicKey = pub
	rec.AppAddress = app
	rec.RemoteAddress = addr
	return rec, existed
}

// Remove deletes the record for h, if any.
func (r *Registry) Remove(h transport.Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.peers, h)
}

// Len returns the number of registered peers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.peers)
}

// Each calls fn once per registered peer, in map iteration order
// (unspecified, per spec: "insertion order is irrelevant"). fn runs
// while the registry lock is held; it must not call back into the
// registry.
func (r *Registry) Each(fn func(h transport.Handle, rec *PeerRecord)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for h, rec := range r.peers {
		fn(h, rec)
	}
}

// ReapStale removes every record whose last heartbeat is older than
// peerDeadAfter relative to now, and returns the records removed.
func (r *Registry) ReapStale(now time.Time) []*PeerRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed []*PeerRecord
	for h, rec := range r.peers {
		if now.Sub(rec.LastSeen) > peerDeadAfter {
			delete(r.peers, h)
			removed = append(removed, rec)
		}
	}
	return removed
}
