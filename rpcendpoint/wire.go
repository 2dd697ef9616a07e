package rpcendpoint

import (
	"encoding/binary"
	"fmt"

	"github.com/dreamware/vactor/actor"
)

// callFrame is the wire envelope for one outbound call: a message_id plus
// the activation's raw key bytes and the handler's raw encoded arguments,
// little-endian length-prefixed.
type callFrame struct {
	MessageID actor.MessageID
	RawKey    []byte
	RawArgs   []byte
}

func encodeCallFrame(f callFrame) []byte {
	buf := make([]byte, 0, 4+4+len(f.RawKey)+4+len(f.RawArgs))
	buf = appendUint32(buf, uint32(f.MessageID))
	buf = appendBytes(buf, f.RawKey)
	buf = appendBytes(buf, f.RawArgs)
	return buf
}

func decodeCallFrame(raw []byte) (callFrame, error) {
	if len(raw) < 4 {
		return callFrame{}, fmt.Errorf("rpcendpoint: truncated call frame header")
	}
	id := actor.MessageID(binary.LittleEndian.Uint32(raw))
	rest := raw[4:]

	key, rest, err := readBytes(rest)
	if err != nil {
		return callFrame{}, fmt.Errorf("rpcendpoint: call frame key: %w", err)
	}
	args, _, err := readBytes(rest)
	if err != nil {
		return callFrame{}, fmt.Errorf("rpcendpoint: call frame args: %w", err)
	}
	return callFrame{MessageID: id, RawKey: key, RawArgs: args}, nil
}

// replyFrame is the wire envelope for a call's reply: either the raw
// result bytes, or an error message if the handler (or dispatch itself)
// failed.
type replyFrame struct {
	OK      bool
	Err     string
	RawBody []byte
}

func encodeReplyFrame(f replyFrame) []byte {
	buf := make([]byte, 0, 1+4+len(f.Err)+len(f.RawBody))
	if f.OK {
		buf = append(buf, 1)
		buf = appendBytes(buf, f.RawBody)
		return buf
	}
	buf = append(buf, 0)
	buf = appendBytes(buf, []byte(f.Err))
	return buf
}

func decodeReplyFrame(raw []byte) (replyFrame, error) {
	if len(raw) < 1 {
		return replyFrame{}, fmt.Errorf("rpcendpoint: truncated reply frame")
	}
	ok := raw[0] == 1
	body, _, err := readBytes(raw[1:])
	if err != nil {
		return replyFrame{}, fmt.Errorf("rpcendpoint: reply frame body: %w", err)
	}
	if ok {
		return replyFrame{OK: true, RawBody: body}, nil
	}
	return replyFrame{OK: false, Err: string(body)}, nil
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

func readBytes(buf []byte) ([]byte, []byte, error) {
	if len(buf) < 4 {
		return nil, nil, fmt.Errorf("truncated length prefix")
	}
	n := binary.LittleEndian.Uint32(buf)
	buf = buf[4:]
	if uint32(len(buf)) < n {
		return nil, nil, fmt.Errorf("truncated body: want %d have %d", n, len(buf))
	}
	return buf[:n], buf[n:], nil
}

// BatchMessageID returns the wire ID registered for id's packed-batch
// companion trampoline: IDs id | 0x1 are reserved for the batch
// companion of id & ~0x1.
func BatchMessageID(id actor.MessageID) actor.MessageID {
	return id | 1
}
