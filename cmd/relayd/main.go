// relayd is the relay topology controller: it discovers MASTER peers via
// a beacon and drives subscribe/unsubscribe churn to keep the active
// connection set at the lowest observed RTT.
//
// The pub/sub transport itself is an external collaborator (spec'd out
// of this module's scope) — relayd logs what it would subscribe to
// rather than shipping a bundled pub/sub node.
//
// relayd never calls the discovery client's ResolveProtocol, so LISTPEER
// entries stay pending and discovery alone never adds a peer to the
// controller.
//
// Usage:
//
//	relayd -beacon 203.0.113.1:9527 -listen :9528 -tag master
package main

import (
	"flag"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/openweaver/relaymesh/pkg/beacon"
	"github.com/openweaver/relaymesh/pkg/capability"
	"github.com/openweaver/relaymesh/pkg/identity"
	"github.com/openweaver/relaymesh/pkg/relay"
	"github.com/openweaver/relaymesh/pkg/rpc"
	"github.com/openweaver/relaymesh/pkg/transport"
)

// logPubSub stands in for the external pub/sub layer: it logs every
// subscribe/unsubscribe the controller issues instead of driving a real
// channel transport.
type logPubSub struct{}

func (logPubSub) Subscribe(h transport.Handle, channel string) {
	log.Printf("[Relayd] SUBSCRIBE %s channel=%s", h.DstAddr(), channel)
}

func (logPubSub) Unsubscribe(h transport.Handle, channel string) {
	log.Printf("[Relayd] UNSUBSCRIBE %s channel=%s", h.DstAddr(), channel)
}

func main() {
	beaconAddr := flag.String("beacon", "", "beacon server address (host:port)")
	listenAddr := flag.String("listen", ":9528", "address to listen for discovery traffic on")
	tagName := flag.String("tag", "relay", "this node's capability tag: master, relay, or client")
	churnInterval := flag.Duration("churn-interval", 5*time.Second, "how often to run the churn policy")
	rpcSocket := flag.String("rpc-socket", "", "Unix socket path for the JSON-RPC introspection server (disabled if empty)")
	flag.Parse()

	if *beaconAddr == "" {
		log.Fatal("relayd: -beacon is required")
	}

	tag, err := parseTag(*tagName)
	if err != nil {
		log.Fatalf("relayd: %v", err)
	}

	rendezvous, err := net.ResolveUDPAddr("udp", *beaconAddr)
	if err != nil {
		log.Fatalf("relayd: resolve beacon address: %v", err)
	}
	localAddr, err := net.ResolveUDPAddr("udp", *listenAddr)
	if err != nil {
		log.Fatalf("relayd: resolve listen address: %v", err)
	}

	appAddr, err := identity.ParseAppAddress("000000000000000000000000000000000000dead")
	if err != nil {
		log.Fatalf("relayd: app address: %v", err)
	}
	id, err := identity.NewNodeIdentity(appAddr)
	if err != nil {
		log.Fatalf("relayd: identity: %v", err)
	}

	table := capability.NewTable()
	dialer := transport.NewUDPFactory()
	controller := relay.New(tag, table, logPubSub{}, dialer, relay.DefaultChannels, relay.Config{})

	discoveryFactory := transport.NewUDPFactory()
	// initialRTTSeed is used until a real ping-based RTT sampler (outside
	// this module's scope) starts reporting measured values.
	const initialRTTSeed = 0
	onNewPeer := func(addr *net.UDPAddr, protocol capability.Tag, pubsubPort uint16) {
		controller.NewPeer(addr, protocol, initialRTTSeed)
	}

	client := beacon.NewClient(discoveryFactory, rendezvous, id, appAddr, onNewPeer)
	if err := client.Start(localAddr); err != nil {
		log.Fatalf("relayd: discovery client: %v", err)
	}
	defer client.Close()

	if controller.Inert() {
		log.Printf("[Relayd] tag=%s is not a topology controller; running as a passive leaf", *tagName)
	}

	if *rpcSocket != "" {
		rpcServer, err := rpc.NewServer(rpc.ServerConfig{
			SocketPath: *rpcSocket,
			Version:    "relaymesh-relayd",
			GetTopology: func() *rpc.TopologyData {
				topo := &rpc.TopologyData{Inert: controller.Inert()}
				controller.SolConns().Each(func(h transport.Handle, rtt float64) {
					topo.SolConns = append(topo.SolConns, rpc.ConnData{RemoteAddress: h.DstAddr().String(), RTTMs: rtt})
				})
				controller.SolStandbyConns().Each(func(h transport.Handle, rtt float64) {
					topo.SolStandbyConns = append(topo.SolStandbyConns, rpc.ConnData{RemoteAddress: h.DstAddr().String(), RTTMs: rtt})
				})
				return topo
			},
		})
		if err != nil {
			log.Fatalf("rpc: %v", err)
		}
		if err := rpcServer.Start(); err != nil {
			log.Fatalf("rpc: %v", err)
		}
		defer rpcServer.Stop()
	}

	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(*churnInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				controller.ManageSubscriptions()
			case <-stop:
				return
			}
		}
	}()

	log.Printf("[Relayd] tag=%s listening on %s, beacon=%s", *tagName, localAddr, rendezvous)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	close(stop)
	log.Printf("[Relayd] shutting down")
}

func parseTag(name string) (capability.Tag, error) {
	switch name {
	case "master":
		return capability.MASTER, nil
	case "relay":
		return capability.RELAY, nil
	case "client":
		return capability.CLIENT, nil
	default:
		return 0, &invalidTagError{name}
	}
}

type invalidTagError struct{ name string }

func (e *invalidTagError) Error() string {
	return "unknown tag " + e.name + " (expected master, relay, or client)"
}
