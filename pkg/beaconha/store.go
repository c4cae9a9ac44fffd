// Package beaconha provides an optional Redis-backed implementation of
// beacon.Mirror: several beacon processes behind a load balancer can write
// their live peers into one shared Redis index. Each beacon.Server still
// keeps its own registry and answers DISCPEER only from it; the server
// never reads the mirror back.
package beaconha

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/openweaver/relaymesh/pkg/identity"
)

const (
	keyPrefixPeer = "relaymesh:beacon:peer:"
	keyIndexPeers = "relaymesh:beacon:idx:peers"
	peerTTL       = 70 * time.Second
)

// peerRecord is the JSON payload stored per public key.
type peerRecord struct {
	PublicKey     string `json:"public_key"`
	AppAddress    string `json:"app_address"`
	RemoteAddress string `json:"remote_address"`
}

// MirrorRegistry implements beacon.Mirror against a shared Redis/Dragonfly
// instance. Entries expire on their own (SETEX) so a beacon process that
// dies without reaping its peers does not poison the shared view forever.
type MirrorRegistry struct {
	rdb *redis.Client
}

// NewMirrorRegistry connects to redisAddr. DB 2 is used so a beaconha
// deployment can share the same Redis instance as a lighthouse (DB 1) or
// chimney (DB 0) without key collisions.
func NewMirrorRegistry(redisAddr string) (*MirrorRegistry, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         redisAddr,
		DB:           2,
		ReadTimeout:  200 * time.Millisecond,
		WriteTimeout: 200 * time.Millisecond,
		DialTimeout:  2 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("beaconha: redis connection failed: %w", err)
	}

	return &MirrorRegistry{rdb: rdb}, nil
}

func peerKey(pub identity.PublicKey) string {
	return keyPrefixPeer + hex.EncodeToString(pub[:])
}

// Touch upserts a peer's liveness record with a 70s TTL, one 10s
// heartbeat interval past the registry's 60s liveness window. It implements
// beacon.Mirror, so failures are logged rather than returned: a mirror
// write never blocks or fails the local registry update it accompanies.
func (m *MirrorRegistry) Touch(pub identity.PublicKey, appAddr identity.AppAddress, addr *net.UDPAddr, now time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	remote := ""
	if addr != nil {
		remote = addr.String()
	}
	rec := peerRecord{
		PublicKey:     hex.EncodeToString(pub[:]),
		AppAddress:    appAddr.String(),
		RemoteAddress: remote,
	}
	data, err := json.Marshal(rec)
	if err != nil {
		log.Printf("[BeaconHA] marshal peer: %v", err)
		return
	}

	key := peerKey(pub)
	pipe := m.rdb.Pipeline()
	pipe.Set(ctx, key, data, peerTTL)
	pipe.SAdd(ctx, keyIndexPeers, key)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[BeaconHA] touch peer: %v", err)
	}
}

// Remove evicts a peer's record immediately instead of waiting on its TTL.
func (m *MirrorRegistry) Remove(pub identity.PublicKey) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	key := peerKey(pub)
	pipe := m.rdb.Pipeline()
	pipe.Del(ctx, key)
	pipe.SRem(ctx, keyIndexPeers, key)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[BeaconHA] remove peer: %v", err)
	}
}

// Peers lists every peer currently known across the shared registry,
// skipping index entries whose payload has already expired rather than
// failing the whole call — such index members remain until Reconcile
// drops them.
func (m *MirrorRegistry) Peers(ctx context.Context) ([]identity.PublicKey, error) {
	keys, err := m.rdb.SMembers(ctx, keyIndexPeers).Result()
	if err != nil {
		return nil, fmt.Errorf("beaconha: list peers: %w", err)
	}

	out := make([]identity.PublicKey, 0, len(keys))
	for _, key := range keys {
		data, err := m.rdb.Get(ctx, key).Bytes()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("beaconha: get peer %s: %w", key, err)
		}
		var rec peerRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("beaconha: unmarshal peer %s: %w", key, err)
		}
		raw, err := hex.DecodeString(rec.PublicKey)
		if err != nil || len(raw) != identity.PublicKeySize {
			continue
		}
		var pub identity.PublicKey
		copy(pub[:], raw)
		out = append(out, pub)
	}
	return out, nil
}

// Reconcile drops index members whose backing key has expired, bounding
// the index set's growth under continuous churn.
func (m *MirrorRegistry) Reconcile(ctx context.Context) (int, error) {
	keys, err := m.rdb.SMembers(ctx, keyIndexPeers).Result()
	if err != nil {
		return 0, fmt.Errorf("beaconha: reconcile list: %w", err)
	}

	stale := make([]string, 0)
	for _, key := range keys {
		exists, err := m.rdb.Exists(ctx, key).Result()
		if err != nil {
			return 0, fmt.Errorf("beaconha: reconcile exists %s: %w", key, err)
		}
		if exists == 0 {
			stale = append(stale, key)
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}
	if err := m.rdb.SRem(ctx, keyIndexPeers, stale).Err(); err != nil {
		return 0, fmt.Errorf("beaconha: reconcile srem: %w", err)
	}
	return len(stale), nil
}

// Close releases the underlying Redis client.
func (m *MirrorRegistry) Close() error {
	return m.rdb.Close()
}
