// beacond is the discovery rendezvous server: it answers DISCPROTO and
// DISCPEER queries and maintains the peer registry from heartbeats.
//
// Usage:
//
//	beacond -addr :9527
//	beacond -addr :9527 -redis 127.0.0.1:6379 -rendezvous relaymesh-prod
package main

import (
	"context"
	"flag"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/openweaver/relaymesh/pkg/beacon"
	"github.com/openweaver/relaymesh/pkg/beaconha"
	"github.com/openweaver/relaymesh/pkg/otelx"
	"github.com/openweaver/relaymesh/pkg/ratelimit"
	"github.com/openweaver/relaymesh/pkg/rendezvousdht"
	"github.com/openweaver/relaymesh/pkg/rpc"
	"github.com/openweaver/relaymesh/pkg/transport"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	addr := flag.String("addr", ":9527", "UDP listen address")
	redisAddr := flag.String("redis", "", "Redis/Dragonfly address for the shared mirror registry (disabled if empty)")
	rateLimitRPS := flag.Float64("rate-limit-rps", ratelimit.DefaultRate, "per-source-IP rate limit, messages per second (0 to disable)")
	rateLimitBurst := flag.Float64("rate-limit-burst", ratelimit.DefaultBurst, "per-source-IP token bucket burst size")
	rendezvous := flag.String("rendezvous", "", "DHT rendezvous name to announce this beacon under (disabled if empty)")
	dhtPort := flag.Int("dht-port", 0, "UDP port for the DHT locator (0 lets the OS pick)")
	rpcSocket := flag.String("rpc-socket", "", "Unix socket path for the JSON-RPC introspection server (disabled if empty)")
	flag.Parse()

	shutdown, err := otelx.Init(context.Background(), "relaymesh-beacond", version)
	if err != nil {
		log.Fatalf("otel: %v", err)
	}
	defer shutdown(context.Background())

	udpAddr, err := net.ResolveUDPAddr("udp", *addr)
	if err != nil {
		log.Fatalf("resolve %s: %v", *addr, err)
	}

	var limiter *ratelimit.IPRateLimiter
	if *rateLimitRPS > 0 {
		limiter = ratelimit.New(*rateLimitRPS, *rateLimitBurst, ratelimit.DefaultMaxIPs)
	}

	var mirror beacon.Mirror
	if *redisAddr != "" {
		m, err := beaconha.NewMirrorRegistry(*redisAddr)
		if err != nil {
			log.Fatalf("beaconha: %v", err)
		}
		defer m.Close()
		mirror = m
		log.Printf("[Beacond] shared mirror registry active (redis=%s)", *redisAddr)
	}

	factory := transport.NewUDPFactory()
	server := beacon.NewServer(factory, limiter, mirror)
	if err := server.Start(udpAddr); err != nil {
		log.Fatalf("beacon: %v", err)
	}
	defer server.Close()

	log.Printf("[Beacond] listening on %s", udpAddr)

	if *rpcSocket != "" {
		rpcServer, err := rpc.NewServer(rpc.ServerConfig{
			SocketPath: *rpcSocket,
			Version:    "relaymesh-beacond",
			GetPeers: func() []*rpc.PeerData {
				var out []*rpc.PeerData
				server.Registry().Each(func(_ transport.Handle, rec *beacon.PeerRecord) {
					out = append(out, &rpc.PeerData{
						PublicKey:     rec.PublicKey.String(),
						AppAddress:    rec.AppAddress.String(),
						RemoteAddress: rec.Handle.DstAddr().String(),
						LastSeen:      rec.LastSeen,
					})
				})
				return out
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

	if *rendezvous != "" {
		dhtConn, err := net.ListenUDP("udp", &net.UDPAddr{Port: *dhtPort})
		if err != nil {
			log.Fatalf("rendezvousdht: bind: %v", err)
		}
		locator, err := rendezvousdht.NewLocator(dhtConn, *rendezvous, udpAddr.Port, nil)
		if err != nil {
			log.Fatalf("rendezvousdht: %v", err)
		}
		defer locator.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go locator.AnnounceLoop(ctx)
		log.Printf("[Beacond] announcing under rendezvous %q via DHT", *rendezvous)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("[Beacond] shutting down")
}
