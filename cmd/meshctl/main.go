// meshctl is the operator CLI for a running beacond/relayd pair: it talks
// to their JSON-RPC introspection sockets to list peers and inspect relay
// topology.
//
// Usage:
//
//	meshctl -socket /tmp/beacond.sock peers
//	meshctl -socket /tmp/beacond.sock stats
//	meshctl -socket /tmp/relayd.sock topology
//	meshctl -socket /tmp/beacond.sock ping
package main

import (
	"fmt"
	"os"

	"github.com/openweaver/relaymesh/pkg/rpc"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	socketPath := os.Getenv("RELAYMESH_SOCKET")
	args := os.Args[1:]
	if len(args) >= 2 && args[0] == "-socket" {
		socketPath = args[1]
		args = args[2:]
	}
	if socketPath == "" {
		socketPath = rpc.GetSocketPath()
	}
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	client, err := rpc.NewClient(socketPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "meshctl: failed to connect to %s: %v\n", rpc.FormatSocketPath(socketPath), err)
		os.Exit(1)
	}
	defer client.Close()

	switch args[0] {
	case "peers":
		runPeers(client)
	case "stats":
		runStats(client)
	case "topology":
		runTopology(client)
	case "ping":
		runPing(client)
	default:
		fmt.Fprintf(os.Stderr, "meshctl: unknown command %q\n", args[0])
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: meshctl [-socket path] <peers|stats|topology|ping>")
}

func runPeers(client *rpc.Client) {
	result, err := client.Call("beacon.peers", nil)
	fatalOnErr(err)

	resultMap := result.(map[string]interface{})
	peers, _ := resultMap["peers"].([]interface{})
	if len(peers) == 0 {
		fmt.Println("No active peers")
		return
	}

	fmt.Printf("%-68s %-44s %-22s %s\n", "PUBLIC KEY", "APP ADDRESS", "REMOTE ADDRESS", "LAST SEEN")
	for _, p := range peers {
		peer := p.(map[string]interface{})
		fmt.Printf("%-68s %-44s %-22s %s\n",
			peer["public_key"], peer["app_address"], peer["remote_address"], peer["last_seen"])
	}
}

func runStats(client *rpc.Client) {
	result, err := client.Call("beacon.stats", nil)
	fatalOnErr(err)

	stats := result.(map[string]interface{})
	fmt.Printf("peer_count: %v\n", stats["peer_count"])
}

func runTopology(client *rpc.Client) {
	result, err := client.Call("relay.topology", nil)
	fatalOnErr(err)

	topo := result.(map[string]interface{})
	fmt.Printf("inert: %v\n", topo["inert"])
	printConns("sol_conns", topo["sol_conns"])
	printConns("sol_standby_conns", topo["sol_standby_conns"])
}

func printConns(label string, v interface{}) {
	fmt.Printf("%s:\n", label)
	conns, _ := v.([]interface{})
	if len(conns) == 0 {
		fmt.Println("  (none)")
		return
	}
	for _, c := range conns {
		conn := c.(map[string]interface{})
		fmt.Printf("  %-22s rtt_ms=%v\n", conn["remote_address"], conn["rtt_ms"])
	}
}

func runPing(client *rpc.Client) {
	result, err := client.Call("daemon.ping", nil)
	fatalOnErr(err)

	resp := result.(map[string]interface{})
	fmt.Printf("pong: %v (version %v)\n", resp["pong"], resp["version"])
}

func fatalOnErr(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "meshctl: %v\n", err)
		os.Exit(1)
	}
}
