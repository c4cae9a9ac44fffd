package rpc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// PeerData is the beacon-registry information the server's callbacks
// hand back; it mirrors beacon.PeerRecord without importing pkg/beacon,
// keeping this package usable against any registry-shaped source.
type PeerData struct {
	PublicKey     string
	AppAddress    string
	RemoteAddress string
	LastSeen      time.Time
}

// ConnData is one entry of a relay topology bucket.
type ConnData struct {
	RemoteAddress string
	RTTMs         float64
}

// TopologyData is the relay controller's current bucket snapshot.
type TopologyData struct {
	Inert           bool
	SolConns        []ConnData
	SolStandbyConns []ConnData
}

// ServerConfig configures the RPC server with callback functions that
// read live state from the beacon registry and relay controller.
type ServerConfig struct {
	SocketPath  string
	Version     string
	GetPeers    func() []*PeerData
	GetTopology func() *TopologyData
}

// Server implements an RPC server using Unix domain sockets, exposing
// beacon and relay introspection methods.
type Server struct {
	socketPath    string
	listener      net.Listener
	version       string
	ctx           context.Context
	cancel        context.CancelFunc
	getPeersFn    func() []*PeerData
	getTopologyFn func() *TopologyData
}

// NewServer creates a new RPC server.
func NewServer(config ServerConfig) (*Server, error) {
	if _, err := os.Stat(config.SocketPath); err == nil {
		if err := os.Remove(config.SocketPath); err != nil {
			return nil, fmt.Errorf("failed to remove existing socket: %w", err)
		}
	}

	dir := filepath.Dir(config.SocketPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create socket directory: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		socketPath:    config.SocketPath,
		version:       config.Version,
		ctx:           ctx,
		cancel:        cancel,
		getPeersFn:    config.GetPeers,
		getTopologyFn: config.GetTopology,
	}

	return s, nil
}

// Start starts the RPC server
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to listen on socket: %w", err)
	}
	s.listener = listener

	if err := os.Chmod(s.socketPath, 0600); err != nil {
		s.listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	log.Printf("[RPC] listening on %s", s.socketPath)

	go s.acceptLoop()

	return nil
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.ctx.Done():
				return
			default:
				log.Printf("[RPC] accept error: %v", err)
				continue
			}
		}

		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	writer := bufio.NewWriter(conn)

	for scanner.Scan() {
		line := scanner.Bytes()

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			resp := &Response{
				JSONRPC: "2.0",
				Error: &Error{
					Code:    ErrCodeParseError,
					Message: fmt.Sprintf("failed to parse request: %v", err),
				},
				ID: nil,
			}
			s.writeResponse(writer, resp)
			continue
		}

		resp := s.handleRequest(&req)
		s.writeResponse(writer, resp)
	}

	if err := scanner.Err(); err != nil {
		log.Printf("[RPC] connection error: %v", err)
	}
}

func (s *Server) writeResponse(w *bufio.Writer, resp *Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		log.Printf("[RPC] failed to encode response: %v", err)
		return
	}

	if _, err := w.Write(append(data, '\n')); err != nil {
		log.Printf("[RPC] failed to write response: %v", err)
		return
	}

	if err := w.Flush(); err != nil {
		log.Printf("[RPC] failed to flush response: %v", err)
	}
}

// handleRequest dispatches a single RPC request to its method handler.
func (s *Server) handleRequest(req *Request) *Response {
	resp := &Response{
		JSONRPC: "2.0",
		ID:      req.ID,
	}

	if req.JSONRPC != "2.0" {
		resp.Error = &Error{
			Code:    ErrCodeInvalidRequest,
			Message: "invalid jsonrpc version, must be 2.0",
		}
		return resp
	}

	switch req.Method {
	case "beacon.peers":
		result, err := s.handleBeaconPeers()
		if err != nil {
			resp.Error = err
		} else {
			resp.Result = result
		}

	case "beacon.stats":
		result, err := s.handleBeaconStats()
		if err != nil {
			resp.Error = err
		} else {
			resp.Result = result
		}

	case "relay.topology":
		result, err := s.handleRelayTopology()
		if err != nil {
			resp.Error = err
		} else {
			resp.Result = result
		}

	case "daemon.ping":
		resp.Result = s.handleDaemonPing()

	default:
		resp.Error = &Error{
			Code:    ErrCodeMethodNotFound,
			Message: fmt.Sprintf("method not found: %s", req.Method),
		}
	}

	return resp
}

func (s *Server) handleBeaconPeers() (*BeaconPeersResult, *Error) {
	if s.getPeersFn == nil {
		return nil, &Error{Code: ErrCodeInternalError, Message: "beacon.peers not available on this instance"}
	}

	peers := s.getPeersFn()
	result := &BeaconPeersResult{Peers: make([]*PeerInfo, 0, len(peers))}
	for _, p := range peers {
		result.Peers = append(result.Peers, &PeerInfo{
			PublicKey:     p.PublicKey,
			AppAddress:    p.AppAddress,
			RemoteAddress: p.RemoteAddress,
			LastSeen:      p.LastSeen.Format(time.RFC3339),
		})
	}
	return result, nil
}

func (s *Server) handleBeaconStats() (*BeaconStatsResult, *Error) {
	if s.getPeersFn == nil {
		return nil, &Error{Code: ErrCodeInternalError, Message: "beacon.stats not available on this instance"}
	}
	return &BeaconStatsResult{PeerCount: len(s.getPeersFn())}, nil
}

func (s *Server) handleRelayTopology() (*RelayTopologyResult, *Error) {
	if s.getTopologyFn == nil {
		return nil, &Error{Code: ErrCodeInternalError, Message: "relay.topology not available on this instance"}
	}

	topo := s.getTopologyFn()
	result := &RelayTopologyResult{Inert: topo.Inert}
	for _, c := range topo.SolConns {
		result.SolConns = append(result.SolConns, ConnEntry{RemoteAddress: c.RemoteAddress, RTTMs: c.RTTMs})
	}
	for _, c := range topo.SolStandbyConns {
		result.SolStandbyConns = append(result.SolStandbyConns, ConnEntry{RemoteAddress: c.RemoteAddress, RTTMs: c.RTTMs})
	}
	return result, nil
}

func (s *Server) handleDaemonPing() *DaemonPingResult {
	return &DaemonPingResult{Pong: true, Version: s.version}
}

// Stop stops the RPC server
func (s *Server) Stop() error {
	s.cancel()

	if s.listener != nil {
		s.listener.Close()
	}

	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove socket: %w", err)
	}

	log.Printf("[RPC] stopped")
	return nil
}

// GetSocketPath determines the appropriate socket path
func GetSocketPath() string {
	if path := os.Getenv("RELAYMESH_SOCKET"); path != "" {
		return path
	}

	if IsWritable("/var/run") {
		return "/var/run/relaymesh.sock"
	}

	if runtimeDir := os.Getenv("XDG_RUNTIME_DIR"); runtimeDir != "" {
		return filepath.Join(runtimeDir, "relaymesh.sock")
	}

	return "/tmp/relaymesh.sock"
}

// IsWritable checks if a directory is writable
func IsWritable(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}

	if !info.IsDir() {
		return false
	}

	testFile := filepath.Join(path, ".relaymesh-test")
	f, err := os.Create(testFile)
	if err != nil {
		return false
	}
	f.Close()
	os.Remove(testFile)

	return true
}

// FormatSocketPath formats a socket path for display, shortening home directory
func FormatSocketPath(path string) string {
	home, err := os.UserHomeDir()
	if err == nil && strings.HasPrefix(path, home) {
		return "~" + strings.TrimPrefix(path, home)
	}
	return path
}
