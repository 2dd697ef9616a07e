package main

import (
	"encoding/binary"
	"fmt"

	"github.com/dreamware/vactor/actor"
)

// Counter is the example actor: Singleton, reentrant, Increment
// accumulates a running total per key and Count reads it back without
// mutating it. It exists so this binary has
// something concrete to register, dispatch, and expose over HTTP —
// vactor itself is a library, not an application, so every cmd/
// entrypoint needs a user-level actor to stand in for one.
type Counter struct {
	key   string
	total uint64
}

var incrementHandler = actor.NewHandler[Counter, uint64, uint64]("vactornode.Counter.Increment",
	func(c *Counter, delta uint64) (uint64, error) {
		c.total += delta
		return c.total, nil
	})

var countHandler = actor.NewHandler[Counter, struct{}, uint64]("vactornode.Counter.Count",
	func(c *Counter, _ struct{}) (uint64, error) {
		return c.total, nil
	})

// getKeyHandler answers an activation's own key, the Go counterpart of
// original_source/tests/actor_keys.cpp's string_actor::get_key.
var getKeyHandler = actor.NewHandler[Counter, struct{}, string]("vactornode.Counter.GetKey",
	func(c *Counter, _ struct{}) (string, error) {
		return c.key, nil
	})

func encodeUint64(v uint64) ([]byte, error) {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b, nil
}

func decodeUint64(raw []byte) (uint64, error) {
	if len(raw) != 8 {
		return 0, fmt.Errorf("decode uint64: want 8 bytes, have %d", len(raw))
	}
	return binary.LittleEndian.Uint64(raw), nil
}

func decodeUnit([]byte) (struct{}, error) { return struct{}{}, nil }

func encodeString(s string) ([]byte, error) { return []byte(s), nil }
