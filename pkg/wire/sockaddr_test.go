package wire

import (
	"net"
	"testing"
)

func TestEncodeDecodeSockAddrRoundTrip(t *testing.T) {
	addr := &net.UDPAddr{IP: net.IPv4(10, 0, 0, 42), Port: 8998}
	enc, err := EncodeSockAddr(addr)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(enc) != SockAddrSize {
		t.Fatalf("encoded length = %d, want %d", len(enc), SockAddrSize)
	}

	dec, err := DecodeSockAddr(enc[:])
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !dec.IP.Equal(addr.IP) || dec.Port != addr.Port {
		t.Errorf("got %s:%d, want %s:%d", dec.IP, dec.Port, addr.IP, addr.Port)
	}
}

func TestEncodeSockAddrRejectsIPv6(t *testing.T) {
	addr := &net.UDPAddr{IP: net.ParseIP("::1"), Port: 1}
	if _, err := EncodeSockAddr(addr); err == nil {
		t.Error("expected error encoding an IPv6 address")
	}
}

func TestDecodeSockAddrRejectsShortBuffer(t *testing.T) {
	if _, err := DecodeSockAddr([]byte{1, 2, 3}); err == nil {
		t.Error("expected error decoding a short buffer")
	}
}

func TestDecodeSockAddrRejectsBadFamily(t *testing.T) {
	b := [SockAddrSize]byte{}
	b[0] = 99
	if _, err := DecodeSockAddr(b[:]); err == nil {
		t.Error("expected error decoding an unsupported address family")
	}
}

func TestParseSockAddr(t *testing.T) {
	addr, err := ParseSockAddr("192.168.1.5:9000")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if addr.Port != 9000 || !addr.IP.Equal(net.IPv4(192, 168, 1, 5)) {
		t.Errorf("got %s:%d, want 192.168.1.5:9000", addr.IP, addr.Port)
	}

	if _, err := ParseSockAddr("not-an-address"); err == nil {
		t.Error("expected error parsing a malformed address")
	}
	if _, err := ParseSockAddr("::1:9000"); err == nil {
		t.Error("expected error parsing an IPv6 host")
	}
	if _, err := ParseSockAddr("10.0.0.1:not-a-port"); err == nil {
		t.Error("expected error parsing a malformed port")
	}
}

func TestParseEncodeDecodeRoundTrip(t *testing.T) {
	parsed, err := ParseSockAddr("203.0.113.9:4321")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	enc, err := EncodeSockAddr(parsed)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	dec, err := DecodeSockAddr(enc[:])
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !dec.IP.Equal(parsed.IP) || dec.Port != parsed.Port {
		t.Errorf("got %s:%d, want %s:%d", dec.IP, dec.Port, parsed.IP, parsed.Port)
	}
}
