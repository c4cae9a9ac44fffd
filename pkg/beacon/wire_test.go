package beacon

import (
	"net"
	"testing"

	"github.com/openweaver/relaymesh/pkg/identity"
)

func TestEncodeDecodeHeartbeatRoundTrip(t *testing.T) {
	var pub identity.PublicKey
	var app identity.AppAddress
	for i := range pub {
		pub[i] = byte(i)
	}
	for i := range app {
		app[i] = byte(i + 100)
	}

	datagram := encodeHeartbeat(pub, app)
	if len(datagram) != headerSize+heartbeatPayloadSize {
		t.Fatalf("datagram length = %d, want %d", len(datagram), headerSize+heartbeatPayloadSize)
	}
	kind, ok := decodeHeader(datagram)
	if !ok || kind != kindHEARTBEAT {
		t.Fatalf("kind = %d ok=%v, want %d", kind, ok, kindHEARTBEAT)
	}

	gotPub, gotApp, err := decodeHeartbeat(datagram)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if gotPub != pub {
		t.Errorf("public key mismatch: got %x, want %x", gotPub, pub)
	}
	if gotApp != app {
		t.Errorf("app address mismatch: got %x, want %x", gotApp, app)
	}
}

func TestDecodeHeartbeatTooShort(t *testing.T) {
	if _, _, err := decodeHeartbeat([]byte{0, 4, 1, 2, 3}); err == nil {
		t.Error("expected error decoding a truncated HEARTBEAT")
	}
}

func TestListpeerPaginationCap(t *testing.T) {
	if maxEntriesPerDatagram != 18 {
		t.Fatalf("maxEntriesPerDatagram = %d, want 18", maxEntriesPerDatagram)
	}

	entries := make([]listpeerEntry, 40)
	for i := range entries {
		entries[i].AppAddress[0] = byte(i)
	}

	datagrams := encodeListpeerDatagrams(entries)
	if len(datagrams) != 3 {
		t.Fatalf("got %d datagrams, want 3 (18+18+4)", len(datagrams))
	}
	for _, d := range datagrams {
		if len(d) > listpeerDatagramCap {
			t.Errorf("datagram length %d exceeds cap %d", len(d), listpeerDatagramCap)
		}
	}

	var decoded []listpeerEntry
	for _, d := range datagrams {
		decoded = append(decoded, decodeListpeerDatagram(d)...)
	}
	if len(decoded) != len(entries) {
		t.Fatalf("decoded %d entries, want %d", len(decoded), len(entries))
	}
	for i := range entries {
		if decoded[i].AppAddress != entries[i].AppAddress {
			t.Errorf("entry %d mismatch: got %x, want %x", i, decoded[i].AppAddress, entries[i].AppAddress)
		}
	}
}

func TestEncodeListpeerEmptyStillEmitsHeaderOnlyDatagram(t *testing.T) {
	datagrams := encodeListpeerDatagrams(nil)
	if len(datagrams) != 1 {
		t.Fatalf("got %d datagrams, want 1", len(datagrams))
	}
	if len(datagrams[0]) != headerSize {
		t.Errorf("datagram length = %d, want %d", len(datagrams[0]), headerSize)
	}
	kind, ok := decodeHeader(datagrams[0])
	if !ok || kind != kindLISTPEER {
		t.Errorf("kind = %d ok=%v, want %d", kind, ok, kindLISTPEER)
	}
}

func TestAddrToWireRoundTrip(t *testing.T) {
	addr := &net.UDPAddr{IP: net.IPv4(198, 51, 100, 7), Port: 12345}
	enc, err := addrToWire(addr)
	if err != nil {
		t.Fatalf("addrToWire: %v", err)
	}
	if len(enc) != transportAddrSize {
		t.Fatalf("encoded length = %d, want %d", len(enc), transportAddrSize)
	}
}
