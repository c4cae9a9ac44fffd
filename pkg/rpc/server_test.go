package rpc

import (
	"testing"
	"time"
)

func TestServerConfig(t *testing.T) {
	mockPeers := []*PeerData{
		{
			PublicKey:     "test-key-1",
			AppAddress:    "00112233445566778899aabbccddeeff0011223",
			RemoteAddress: "1.2.3.4:51820",
			LastSeen:      time.Now(),
		},
	}

	config := ServerConfig{
		SocketPath: "/tmp/test-relaymesh.sock",
		Version:    "test",
		GetPeers: func() []*PeerData {
			return mockPeers
		},
		GetTopology: func() *TopologyData {
			return &TopologyData{
				SolConns: []ConnData{{RemoteAddress: "1.2.3.4:1", RTTMs: 50}},
			}
		},
	}

	server, err := NewServer(config)
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}

	if server == nil {
		t.Fatal("server is nil")
	}

	if server.version != "test" {
		t.Errorf("expected version 'test', got %s", server.version)
	}
}

func TestGetSocketPath(t *testing.T) {
	path := GetSocketPath()
	if path == "" {
		t.Error("socket path should not be empty")
	}
}

func TestIsWritable(t *testing.T) {
	if !IsWritable("/tmp") {
		t.Error("/tmp should be writable")
	}

	if IsWritable("/nonexistent") {
		t.Error("/nonexistent should not be writable")
	}
}

func TestFormatSocketPath(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"/tmp/relaymesh.sock", "/tmp/relaymesh.sock"},
		{"/var/run/relaymesh.sock", "/var/run/relaymesh.sock"},
	}

	for _, tt := range tests {
		result := FormatSocketPath(tt.input)
		if result == "" {
			t.Errorf("FormatSocketPath returned empty string for %s", tt.input)
		}
	}
}
