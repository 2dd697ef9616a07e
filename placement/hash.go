package placement

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"

	"github.com/cespare/xxhash/v2"
)

// HashKey derives an activation_id from a key, panicking on an
// unsupported key type deliberately, the same choice
// IvanBrykalov-shardcache/internal/util.Fnv64a makes, to avoid silently
// producing a poor hash instead of failing loudly at development time
// (supplemented from original_source/tests/actor_keys.cpp, which asserts
// every declared ActorKey is hashable).
func HashKey[K comparable](key K) uint64 {
	return xxhash.Sum64(KeyBytes(key))
}

// FNVHashKey is the same contract as HashKey but using 64-bit FNV-1a,
// kept for parity with code ported from internal/shard.Shard.OwnsKey and
// internal/coordinator/shard_registry.go.GetShardForKey, both of which
// hash with FNV.
func FNVHashKey[K comparable](key K) uint64 {
	h := fnv.New64a()
	_, _ = h.Write(KeyBytes(key))
	return h.Sum64()
}

// KeyBytes extracts a canonical byte representation of a key, exported so
// package actorref can reuse it to encode a key for the wire path of a
// Remote reference without duplicating the type switch.
func KeyBytes[K comparable](key K) []byte {
	switch v := any(key).(type) {
	case string:
		return []byte(v)
	case []byte:
		return v
	case [16]byte:
		return v[:]
	case [32]byte:
		return v[:]
	case uint8:
		return leUint64(uint64(v))
	case uint16:
		return leUint64(uint64(v))
	case uint32:
		return leUint64(uint64(v))
	case uint64:
		return leUint64(v)
	case uint:
		return leUint64(uint64(v))
	case uintptr:
		return leUint64(uint64(v))
	case int8:
		return leUint64(uint64(uint8(v)))
	case int16:
		return leUint64(uint64(uint16(v)))
	case int32:
		return leUint64(uint64(uint32(v)))
	case int64:
		return leUint64(uint64(v))
	case int:
		return leUint64(uint64(v))
	case fmt.Stringer:
		return []byte(v.String())
	default:
		panic(fmt.Sprintf("placement: unsupported key type %T; convert the key to string or provide a custom hasher", key))
	}
}

func leUint64(u uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, u)
	return b
}
