// Package identity holds a node's long-lived public-key identity and the
// application-level address carried alongside it in peer records.
//
// Keys are Curve25519 keypairs from golang.org/x/crypto/nacl/box, which
// happen to produce the same 32-byte public key size as the reference
// deployment's libsodium crypto_box keys. This package only generates and
// holds keys — it never encrypts or authenticates wire traffic with them;
// the discovery and relay wire protocols remain unauthenticated.
package identity

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/nacl/box"
)

// PublicKeySize is the length in bytes of a node's public key.
const PublicKeySize = 32

// AppAddressSize is the length in bytes of an application-level address.
const AppAddressSize = 20

// PublicKey is a 32-byte Curve25519 public key.
type PublicKey [PublicKeySize]byte

// String renders the key as lowercase hex.
func (k PublicKey) String() string {
	return hex.EncodeToString(k[:])
}

// AppAddress is the 20-byte application-level identity carried in peer
// records and HEARTBEAT payloads (e.g. an account or contract-style
// identifier).
type AppAddress [AppAddressSize]byte

// String renders the address as lowercase hex.
func (a AppAddress) String() string {
	return hex.EncodeToString(a[:])
}

// ParseAppAddress decodes a hex-encoded application address.
func ParseAppAddress(s string) (AppAddress, error) {
	var a AppAddress
	b, err := hex.DecodeString(s)
	if err != nil {
		return a, fmt.Errorf("identity: invalid app address %q: %w", s, err)
	}
	if len(b) != AppAddressSize {
		return a, fmt.Errorf("identity: app address must be %d bytes, got %d", AppAddressSize, len(b))
	}
	copy(a[:], b)
	return a, nil
}

// NodeIdentity is a node's long-lived keypair plus its application
// address.
type NodeIdentity struct {
	Public     PublicKey
	private    [32]byte
	AppAddress AppAddress
}

// NewNodeIdentity generates a fresh Curve25519 keypair and pairs it with
// appAddr.
func NewNodeIdentity(appAddr AppAddress) (*NodeIdentity, error) {
	pub, priv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("identity: generate keypair: %w", err)
	}
	return &NodeIdentity{
		Public:     PublicKey(*pub),
		private:    *priv,
		AppAddress: appAddr,
	}, nil
}

// PrivateKey returns the node's private key. Exposed for callers that need
// it (e.g. a future authenticated transport); the discovery and relay wire
// protocols themselves never read it.
func (n *NodeIdentity) PrivateKey() [32]byte {
	return n.private
}
