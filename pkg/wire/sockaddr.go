package wire

import (
	"encoding/binary"
	"fmt"
	"net"
	"strconv"
)

// afINET is the address family tag used in the 8-byte serialized form,
// matching the reference transport's AF_INET convention.
const afINET = 2

// SockAddrSize is the length in bytes of a serialized IPv4 socket address:
// 2 bytes family, 4 bytes address, 2 bytes port.
const SockAddrSize = 8

// EncodeSockAddr serializes an IPv4 "A.B.C.D:port" address into an 8-byte
// buffer: family(2) || ipv4(4) || port(2), with family and port
// little-endian.
func EncodeSockAddr(addr *net.UDPAddr) ([SockAddrSize]byte, error) {
	var out [SockAddrSize]byte
	ip4 := addr.IP.To4()
	if ip4 == nil {
		return out, fmt.Errorf("wire: not an IPv4 address: %s", addr.IP)
	}
	binary.LittleEndian.PutUint16(out[0:2], afINET)
	copy(out[2:6], ip4)
	binary.LittleEndian.PutUint16(out[6:8], uint16(addr.Port))
	return out, nil
}

// DecodeSockAddr parses an 8-byte serialized socket address back into a
// *net.UDPAddr.
func DecodeSockAddr(b []byte) (*net.UDPAddr, error) {
	if len(b) < SockAddrSize {
		return nil, fmt.Errorf("wire: socket address needs %d bytes, got %d", SockAddrSize, len(b))
	}
	family := binary.LittleEndian.Uint16(b[0:2])
	if family != afINET {
		return nil, fmt.Errorf("wire: unsupported address family %d", family)
	}
	ip := net.IPv4(b[2], b[3], b[4], b[5])
	port := binary.LittleEndian.Uint16(b[6:8])
	return &net.UDPAddr{IP: ip, Port: int(port)}, nil
}

// ParseSockAddr parses an "A.B.C.D:port" string into a *net.UDPAddr.
func ParseSockAddr(s string) (*net.UDPAddr, error) {
	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		return nil, fmt.Errorf("wire: invalid address %q: %w", s, err)
	}
	ip := net.ParseIP(host)
	if ip == nil || ip.To4() == nil {
		return nil, fmt.Errorf("wire: invalid IPv4 host %q", host)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 0 || port > 65535 {
		return nil, fmt.Errorf("wire: invalid port %q", portStr)
	}
	return &net.UDPAddr{IP: ip.To4(), Port: port}, nil
}
