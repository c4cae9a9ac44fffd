package rpc

import (
	"encoding/json"
	"testing"
)

func TestRequestSerialization(t *testing.T) {
	req := &Request{
		JSONRPC: "2.0",
		Method:  "beacon.peers",
		Params:  map[string]interface{}{"test": "value"},
		ID:      1,
	}

	data, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("failed to marshal request: %v", err)
	}

	var decoded Request
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("failed to unmarshal request: %v", err)
	}

	if decoded.JSONRPC != "2.0" {
		t.Errorf("expected JSONRPC 2.0, got %s", decoded.JSONRPC)
	}
	if decoded.Method != "beacon.peers" {
		t.Errorf("expected method beacon.peers, got %s", decoded.Method)
	}
}

func TestResponseSerialization(t *testing.T) {
	resp := &Response{
		JSONRPC: "2.0",
		Result:  map[string]interface{}{"peers": []interface{}{}},
		ID:      1,
	}

	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("failed to marshal response: %v", err)
	}

	var decoded Response
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	if decoded.JSONRPC != "2.0" {
		t.Errorf("expected JSONRPC 2.0, got %s", decoded.JSONRPC)
	}
}

func TestErrorResponse(t *testing.T) {
	resp := &Response{
		JSONRPC: "2.0",
		Error: &Error{
			Code:    ErrCodeMethodNotFound,
			Message: "method not found",
		},
		ID: 1,
	}

	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("failed to marshal error response: %v", err)
	}

	var decoded Response
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("failed to unmarshal error response: %v", err)
	}

	if decoded.Error == nil {
		t.Fatal("expected error to be present")
	}
	if decoded.Error.Code != ErrCodeMethodNotFound {
		t.Errorf("expected error code %d, got %d", ErrCodeMethodNotFound, decoded.Error.Code)
	}
}

func TestBeaconPeersResult(t *testing.T) {
	result := &BeaconPeersResult{
		Peers: []*PeerInfo{
			{
				PublicKey:     "deadbeef",
				AppAddress:    "00112233445566778899aabbccddeeff0011223",
				RemoteAddress: "1.2.3.4:51820",
				LastSeen:      "2024-01-01T00:00:00Z",
			},
		},
	}

	data, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("failed to marshal result: %v", err)
	}

	var decoded BeaconPeersResult
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("failed to unmarshal result: %v", err)
	}

	if len(decoded.Peers) != 1 {
		t.Errorf("expected 1 peer, got %d", len(decoded.Peers))
	}
	if decoded.Peers[0].PublicKey != "deadbeef" {
		t.Errorf("expected public_key deadbeef, got %s", decoded.Peers[0].PublicKey)
	}
}

func TestRelayTopologyResult(t *testing.T) {
	result := &RelayTopologyResult{
		SolConns:        []ConnEntry{{RemoteAddress: "1.2.3.4:1", RTTMs: 50}},
		SolStandbyConns: []ConnEntry{{RemoteAddress: "1.2.3.4:2", RTTMs: 900}},
	}

	data, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("failed to marshal result: %v", err)
	}

	var decoded RelayTopologyResult
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("failed to unmarshal result: %v", err)
	}

	if len(decoded.SolConns) != 1 || decoded.SolConns[0].RTTMs != 50 {
		t.Errorf("sol_conns round-trip mismatch: %+v", decoded.SolConns)
	}
}
