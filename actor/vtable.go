package actor

import "hash/crc32"

// MessageID stably identifies a handler method across builds and nodes.
// It is derived from a handler's fully-qualified name, the Go equivalent
// of how the source derives a message index from the macro-declared
// method name.
type MessageID uint32

// DeriveMessageID computes a MessageID for a fully-qualified handler name
// such as "counter.Counter.Increment". CRC32 (IEEE) gives a stable 32-bit
// fingerprint without pulling in a second hash family solely for this.
// The top bit and the low bit of the checksum are cleared, so every ID is
// even and at most 0x7FFFFFFE, leaving ID|1 free for the handler's packed
// batch companion.
func DeriveMessageID(qualifiedName string) MessageID {
	return MessageID(crc32.ChecksumIEEE([]byte(qualifiedName)) & 0x7FFFFFFE)
}

// Handler is a typed tag identifying one method on actor type A that takes
// a Req and returns a Res. It is the Go replacement for the per-actor
// Message namespace the source's macro.hpp generates: tell() and the
// directory both take a Handler value, so a caller supplying the wrong
// Req/Res type fails to compile rather than failing at dispatch time.
type Handler[A any, Req any, Res any] struct {
	ID   MessageID
	Name string
	Call func(a *A, req Req) (Res, error)
}

// NewHandler builds a Handler tag, deriving its MessageID from name. name
// should be a fully-qualified, stable identifier ("package.Type.Method")
// so ID does not collide with another actor type's handler of the same
// short name.
func NewHandler[A any, Req any, Res any](name string, call func(a *A, req Req) (Res, error)) Handler[A, Req, Res] {
	return Handler[A, Req, Res]{
		ID:   DeriveMessageID(name),
		Name: name,
		Call: call,
	}
}
