// Package rendezvousdht bootstraps beacon server addresses from the
// BitTorrent Mainline DHT instead of a static address list, so a fleet of
// beacons can be located by name alone.
package rendezvousdht

import (
	"context"
	"crypto/sha1"
	"fmt"
	"log"
	"net"
	"time"

	"github.com/anacrolix/dht/v2"
	"github.com/anacrolix/dht/v2/krpc"
)

// DefaultBootstrapNodes are well-known Mainline DHT bootstrap nodes, used
// when no other nodes are already known.
var DefaultBootstrapNodes = []string{
	"router.bittorrent.com:6881",
	"router.utorrent.com:6881",
	"dht.transmissionbt.com:6881",
}

// AnnounceInterval is how often Locator re-announces this beacon's port
// under its rendezvous infohash.
const AnnounceInterval = 15 * time.Minute

// QueryTimeout bounds a single get_peers round.
const QueryTimeout = 30 * time.Second

// Infohash derives the 20-byte DHT key a rendezvous name maps to. Any
// two processes that agree on the name converge on the same key.
func Infohash(rendezvous string) [20]byte {
	return sha1.Sum([]byte(rendezvous))
}

// Locator announces and queries a DHT swarm keyed by a rendezvous name,
// standing in for a fixed beacon address list.
type Locator struct {
	server     *dht.Server
	infohash   [20]byte
	beaconPort int
}

// NewLocator starts a DHT node on conn and configures it to use
// bootstrapAddrs (or DefaultBootstrapNodes, resolved, if empty) as its
// starting routing table.
func NewLocator(conn net.PacketConn, rendezvous string, beaconPort int, bootstrapAddrs []string) (*Locator, error) {
	if len(bootstrapAddrs) == 0 {
		bootstrapAddrs = DefaultBootstrapNodes
	}

	var starting []dht.Addr
	for _, node := range bootstrapAddrs {
		addr, err := net.ResolveUDPAddr("udp", node)
		if err != nil {
			log.Printf("[RendezvousDHT] resolve bootstrap %s: %v", node, err)
			continue
		}
		starting = append(starting, dht.NewAddr(addr))
	}
	if len(starting) == 0 {
		return nil, fmt.Errorf("rendezvousdht: no bootstrap nodes resolved")
	}

	cfg := dht.NewDefaultServerConfig()
	cfg.Conn = conn
	cfg.StartingNodes = func() ([]dht.Addr, error) { return starting, nil }

	server, err := dht.NewServer(cfg)
	if err != nil {
		return nil, fmt.Errorf("rendezvousdht: new server: %w", err)
	}

	return &Locator{
		server:     server,
		infohash:   Infohash(rendezvous),
		beaconPort: beaconPort,
	}, nil
}

// Announce advertises this process as a beacon reachable on beaconPort
// under the locator's rendezvous infohash, and blocks until the
// announce round completes or ctx is done.
func (l *Locator) Announce(ctx context.Context) error {
	a, err := l.server.Announce(l.infohash, l.beaconPort, false)
	if err != nil {
		return fmt.Errorf("rendezvousdht: announce: %w", err)
	}
	defer a.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-a.Peers:
			if !ok {
				return nil
			}
		}
	}
}

// AnnounceLoop calls Announce every AnnounceInterval until ctx is done.
func (l *Locator) AnnounceLoop(ctx context.Context) {
	ticker := time.NewTicker(AnnounceInterval)
	defer ticker.Stop()

	announceCtx, cancel := context.WithTimeout(ctx, QueryTimeout)
	if err := l.Announce(announceCtx); err != nil {
		log.Printf("[RendezvousDHT] announce: %v", err)
	}
	cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			announceCtx, cancel := context.WithTimeout(ctx, QueryTimeout)
			if err := l.Announce(announceCtx); err != nil {
				log.Printf("[RendezvousDHT] announce: %v", err)
			}
			cancel()
		}
	}
}

// Locate queries the swarm for beacon addresses, returning whatever peer
// addresses arrive before ctx is done.
func (l *Locator) Locate(ctx context.Context) ([]*net.UDPAddr, error) {
	peers, err := l.server.Announce(l.infohash, 0, false)
	if err != nil {
		return nil, fmt.Errorf("rendezvousdht: locate: %w", err)
	}
	defer peers.Close()

	var out []*net.UDPAddr
	for {
		select {
		case <-ctx.Done():
			return out, nil
		case batch, ok := <-peers.Peers:
			if !ok {
				return out, nil
			}
			for _, addr := range batch.Peers {
				out = append(out, krpcToUDPAddr(addr))
			}
		}
	}
}

func krpcToUDPAddr(addr krpc.NodeAddr) *net.UDPAddr {
	return &net.UDPAddr{IP: addr.IP, Port: addr.Port}
}

// Close shuts down the underlying DHT server.
func (l *Locator) Close() {
	l.server.Close()
}
