// Package beacon implements the discovery server and client: the
// rendezvous point clients heartbeat into and query for peer lists, and
// the client-side helper that drives that exchange on their behalf.
package beacon

import (
	"fmt"
	"log"
	"net"
	"time"

	"github.com/openweaver/relaymesh/pkg/identity"
	"github.com/openweaver/relaymesh/pkg/ratelimit"
	"github.com/openweaver/relaymesh/pkg/transport"
)

// reaperPeriod is the reaper tick interval; the first tick also fires
// this long after Start, matching the reference server's timer.
const reaperPeriod = 10 * time.Second

// Mirror is an optional secondary registry a server keeps in sync with
// its authoritative in-memory one (see pkg/beaconha.MirrorRegistry). The
// in-memory registry stays authoritative for the local DISCPEER fast
// path; a Mirror is read only when reconciling across instances.
type Mirror interface {
	Touch(pub identity.PublicKey, app identity.AppAddress, addr *net.UDPAddr, now time.Time)
	Remove(pub identity.PublicKey)
}

// Server is the discovery server: it answers DISCPROTO/DISCPEER queries
// and maintains the peer registry from HEARTBEATs.
//
// Server's message handling runs on the goroutine driving its
// transport.Factory's read loop, but its registry is also reached from
// the reaper's own ticker goroutine and, when enabled, the JSON-RPC
// introspection server's connection goroutines — see Registry's lock.
type Server struct {
	factory  transport.Factory
	registry *Registry
	limiter  *ratelimit.IPRateLimiter
	mirror   Mirror

	reapStop chan struct{}
	reapDone chan struct{}
}

// NewServer constructs a Server. limiter may be nil to disable per-source
// rate limiting; mirror may be nil to run without a cross-instance view.
func NewServer(factory transport.Factory, limiter *ratelimit.IPRateLimiter, mirror Mirror) *Server {
	return &Server{
		factory:  factory,
		registry: NewRegistry(),
		limiter:  limiter,
		mirror:   mirror,
	}
}

// Start binds addr and begins servicing discovery traffic. The reaper
// runs on its own goroutine, independent of the transport's read loop and
// any JSON-RPC introspection connections; the registry's own lock is what
// keeps those goroutines from colliding.
func (s *Server) Start(addr *net.UDPAddr) error {
	if err := s.factory.Bind(addr, s); err != nil {
		return fmt.Errorf("beacon: start: %w", err)
	}

	s.reapStop = make(chan struct{})
	s.reapDone = make(chan struct{})
	go s.reapLoop()

	log.Printf("[Beacon] discovery server listening on %s", addr)
	return nil
}

// Close stops the reaper and the underlying transport.
func (s *Server) Close() error {
	if s.reapStop != nil {
		close(s.reapStop)
		<-s.reapDone
	}
	return s.factory.Close()
}

// Registry exposes the server's peer table for introspection (e.g. the
// JSON-RPC admin surface).
func (s *Server) Registry() *Registry {
	return s.registry
}

func (s *Server) reapLoop() {
	defer close(s.reapDone)
	ticker := time.NewTicker(reaperPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-s.reapStop:
			return
		case now := <-ticker.C:
			s.reap(now)
		}
	}
}

func (s *Server) reap(now time.Time) {
	removed := s.registry.ReapStale(now)
	if len(removed) == 0 {
		return
	}
	metricReaperEvictions.Add(nil, int64(len(removed)))
	metricPeersActive.Add(nil, int64(-len(removed)))
	if s.mirror != nil {
		for _, rec := range removed {
			s.mirror.Remove(rec.PublicKey)
		}
	}
}

// ---- transport.Delegate ----

// ShouldAccept returns true for every source when the server has no rate
// limiter. With a limiter installed, it returns false for a source IP
// whose token bucket is empty, so packets from that source are dropped.
func (s *Server) ShouldAccept(addr *net.UDPAddr) bool {
	if s.limiter != nil && !s.limiter.Allow(addr.IP.String()) {
		return false
	}
	return true
}

func (s *Server) DidCreateTransport(h transport.Handle) {}

func (s *Server) DidDial(h transport.Handle, err error) {}

func (s *Server) DidSendPacket(h transport.Handle, err error) {
	if err != nil {
		log.Printf("[Beacon] send error to %s: %v", h.DstAddr(), err)
	}
}

func (s *Server) DidRecvPacket(h transport.Handle, data []byte) {
	kind, ok := decodeHeader(data)
	if !ok {
		metricMalformedDatagrams.Add(nil, 1)
		log.Printf("[Beacon] dropped datagram from %s: shorter than header", h.DstAddr())
		return
	}

	switch kind {
	case kindDISCPROTO:
		s.handleDiscproto(h)
	case kindDISCPEER:
		s.handleDiscpeer(h)
	case kindHEARTBEAT:
		s.handleHeartbeat(h, data)
	case kindLISTPROTO, kindLISTPEER:
		metricMalformedDatagrams.Add(nil, 1)
		log.Printf("[Beacon] unexpected server-side kind %d from %s", kind, h.DstAddr())
	default:
		metricMalformedDatagrams.Add(nil, 1)
		log.Printf("[Beacon] unknown message kind %d from %s", kind, h.DstAddr())
	}
}

func (s *Server) handleDiscproto(h transport.Handle) {
	if err := h.Send(encodeHeader(kindLISTPROTO)); err != nil {
		log.Printf("[Beacon] LISTPROTO send failed: %v", err)
	}
}

func (s *Server) handleDiscpeer(h transport.Handle) {
	var entries []listpeerEntry
	s.registry.Each(func(peerHandle transport.Handle, rec *PeerRecord) {
		if peerHandle == h {
			return
		}
		entries = append(entries, listpeerEntry{
			RemoteAddr: rec.RemoteAddress,
			PublicKey:  rec.PublicKey,
			AppAddress: rec.AppAddress,
		})
	})

	for _, datagram := range encodeListpeerDatagrams(entries) {
		if err := h.Send(datagram); err != nil {
			log.Printf("[Beacon] LISTPEER send failed: %v", err)
			continue
		}
		metricListpeerDatagrams.Add(nil, 1)
	}
}

func (s *Server) handleHeartbeat(h transport.Handle, data []byte) {
	pub, app, err := decodeHeartbeat(data)
	if err != nil {
		metricMalformedDatagrams.Add(nil, 1)
		log.Printf("[Beacon] malformed HEARTBEAT from %s: %v", h.DstAddr(), err)
		return
	}

	addrBytes, err := addrToWire(h.DstAddr())
	if err != nil {
		log.Printf("[Beacon] HEARTBEAT from unencodable address %s: %v", h.DstAddr(), err)
		return
	}

	now := time.Now()
	_, existed := s.registry.Touch(h, now, pub, app, addrBytes)
	if !existed {
		metricPeersActive.Add(nil, 1)
	}
	metricHeartbeats.Add(nil, 1)

	if s.mirror != nil {
		s.mirror.Touch(pub, app, h.DstAddr(), now)
	}
}
