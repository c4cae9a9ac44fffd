package beacon

import (
	"fmt"
	"net"

	"github.com/openweaver/relaymesh/pkg/identity"
	"github.com/openweaver/relaymesh/pkg/wire"
)

// Message kinds, carried in the second byte of the 2-byte header; the
// first byte is reserved and observed as 0.
const (
	kindDISCPROTO = 0
	kindLISTPROTO = 1
	kindDISCPEER  = 2
	kindLISTPEER  = 3
	kindHEARTBEAT = 4
)

const headerSize = 2

// transportAddrSize is the size of the serialized (family, IPv4, port)
// tuple used inside LISTPEER entries.
const transportAddrSize = wire.SockAddrSize

// peerEntrySize is one LISTPEER entry: remote_address(8) || public_key(32)
// || app_address(20).
const peerEntrySize = transportAddrSize + identity.PublicKeySize + identity.AppAddressSize

// listpeerDatagramCap bounds a single LISTPEER datagram to 1100 bytes,
// matching the reference buffer size.
const listpeerDatagramCap = 1100

// maxEntriesPerDatagram is floor((1100-2)/60) = 18.
const maxEntriesPerDatagram = (listpeerDatagramCap - headerSize) / peerEntrySize

// heartbeatPayloadSize is public_key(32) || app_address(20).
const heartbeatPayloadSize = identity.PublicKeySize + identity.AppAddressSize

// addrToWire serializes addr into the 8-byte (family, IPv4, port) form
// carried in LISTPEER entries.
func addrToWire(addr *net.UDPAddr) ([transportAddrSize]byte, error) {
	return wire.EncodeSockAddr(addr)
}

// addrFromWire is the inverse of addrToWire.
func addrFromWire(b [transportAddrSize]byte) (*net.UDPAddr, error) {
	return wire.DecodeSockAddr(b[:])
}

func encodeHeader(kind byte) []byte {
	return []byte{0, kind}
}

// decodeHeader returns the message kind from a datagram, and whether the
// datagram was at least long enough to carry a header.
func decodeHeader(data []byte) (kind byte, ok bool) {
	if len(data) < headerSize {
		return 0, false
	}
	return data[1], true
}

// encodeHeartbeat builds a HEARTBEAT payload: header || public_key || app_address.
func encodeHeartbeat(pub identity.PublicKey, app identity.AppAddress) []byte {
	buf := make([]byte, headerSize+heartbeatPayloadSize)
	buf[0], buf[1] = 0, kindHEARTBEAT
	copy(buf[headerSize:], pub[:])
	copy(buf[headerSize+identity.PublicKeySize:], app[:])
	return buf
}

// decodeHeartbeat parses a HEARTBEAT payload's public key and app address
// out of data, which must already have been confirmed to carry kindHEARTBEAT.
func decodeHeartbeat(data []byte) (identity.PublicKey, identity.AppAddress, error) {
	if len(data) < headerSize+heartbeatPayloadSize {
		var pub identity.PublicKey
		var app identity.AppAddress
		return pub, app, fmt.Errorf("beacon: HEARTBEAT too short: %d bytes", len(data))
	}
	var pub identity.PublicKey
	var app identity.AppAddress
	copy(pub[:], data[headerSize:headerSize+identity.PublicKeySize])
	copy(app[:], data[headerSize+identity.PublicKeySize:headerSize+heartbeatPayloadSize])
	return pub, app, nil
}

// listpeerEntry is one decoded LISTPEER record.
type listpeerEntry struct {
	RemoteAddr [transportAddrSize]byte
	PublicKey  identity.PublicKey
	AppAddress identity.AppAddress
}

// encodeListpeerDatagrams packs entries into as many 1100-byte datagrams
// as needed, at most maxEntriesPerDatagram entries each.
func encodeListpeerDatagrams(entries []listpeerEntry) [][]byte {
	if len(entries) == 0 {
		buf := make([]byte, headerSize)
		buf[0], buf[1] = 0, kindLISTPEER
		return [][]byte{buf}
	}

	var out [][]byte
	for start := 0; start < len(entries); start += maxEntriesPerDatagram {
		end := start + maxEntriesPerDatagram
		if end > len(entries) {
			end = len(entries)
		}
		chunk := entries[start:end]

		buf := make([]byte, headerSize+len(chunk)*peerEntrySize)
		buf[0], buf[1] = 0, kindLISTPEER
		pos := headerSize
		for _, e := range chunk {
			copy(buf[pos:], e.RemoteAddr[:])
			copy(buf[pos+transportAddrSize:], e.PublicKey[:])
			copy(buf[pos+transportAddrSize+identity.PublicKeySize:], e.AppAddress[:])
			pos += peerEntrySize
		}
		out = append(out, buf)
	}
	return out
}

// decodeListpeerDatagram parses all whole entries out of a LISTPEER
// payload, ignoring any trailing partial entry (which should not occur
// from a well-behaved sender).
func decodeListpeerDatagram(data []byte) []listpeerEntry {
	if len(data) <= headerSize {
		return nil
	}
	body := data[headerSize:]
	count := len(body) / peerEntrySize

	entries := make([]listpeerEntry, 0, count)
	for i := 0; i < count; i++ {
		off := i * peerEntrySize
		var e listpeerEntry
		copy(e.RemoteAddr[:], body[off:off+transportAddrSize])
		copy(e.PublicKey[:], body[off+transportAddrSize:off+transportAddrSize+identity.PublicKeySize])
		copy(e.AppAddress[:], body[off+transportAddrSize+identity.PublicKeySize:off+peerEntrySize])
		entries = append(entries, e)
	}
	return entries
}
