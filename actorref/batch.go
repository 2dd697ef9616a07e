package actorref

import (
	"encoding/binary"
	"fmt"
)

// BatchCodec lifts a per-item WireCodec into the []Req/[]Res WireCodec
// TellBatch needs, by length-prefix-framing the slice with
// EncodeSlice/DecodeSlice around the same per-item Encode/Decode
// functions the single-item Tell path already uses. This is what lets
// rpcendpoint.RegisterHandler derive a batch trampoline from one
// registered handler instead of requiring a second, independently-typed
// batch Handler.
func BatchCodec[Req any, Res any](item *WireCodec[Req, Res]) *WireCodec[[]Req, []Res] {
	if item == nil {
		return nil
	}
	return &WireCodec[[]Req, []Res]{
		EncodeReq: func(reqs []Req) ([]byte, error) { return EncodeSlice(reqs, item.EncodeReq) },
		DecodeRes: func(b []byte) ([]Res, error) { return DecodeSlice(b, item.DecodeRes) },
	}
}

// EncodeSlice frames a slice of values as a length-prefixed sequence of
// independently-encoded elements: a uint32 count, then for each element a
// uint32 byte length followed by its encoding. Kept in package actorref
// (rather than rpcendpoint, which already imports actorref, or a new
// shared package) since both actorref's remote batch Tell path and
// rpcendpoint's batch trampoline need it and only one direction of
// import is allowed.
func EncodeSlice[T any](vals []T, encode func(T) ([]byte, error)) ([]byte, error) {
	out := appendUint32(nil, uint32(len(vals)))
	for _, v := range vals {
		raw, err := encode(v)
		if err != nil {
			return nil, err
		}
		out = appendBytes(out, raw)
	}
	return out, nil
}

// DecodeSlice is EncodeSlice's inverse.
func DecodeSlice[T any](b []byte, decode func([]byte) (T, error)) ([]T, error) {
	count, rest, err := readUint32(b)
	if err != nil {
		return nil, err
	}
	vals := make([]T, 0, count)
	for i := uint32(0); i < count; i++ {
		var raw []byte
		raw, rest, err = readBytes(rest)
		if err != nil {
			return nil, err
		}
		v, err := decode(raw)
		if err != nil {
			return nil, err
		}
		vals = append(vals, v)
	}
	return vals, nil
}

func appendUint32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

func appendBytes(buf []byte, b []byte) []byte {
	buf = appendUint32(buf, uint32(len(b)))
	return append(buf, b...)
}

func readUint32(buf []byte) (uint32, []byte, error) {
	if len(buf) < 4 {
		return 0, nil, fmt.Errorf("actorref: truncated length prefix")
	}
	return binary.LittleEndian.Uint32(buf), buf[4:], nil
}

func readBytes(buf []byte) ([]byte, []byte, error) {
	n, buf, err := readUint32(buf)
	if err != nil {
		return nil, nil, err
	}
	if uint32(len(buf)) < n {
		return nil, nil, fmt.Errorf("actorref: truncated body: want %d have %d", n, len(buf))
	}
	return buf[:n], buf[n:], nil
}
