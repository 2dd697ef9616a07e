package cluster

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/dreamware/vactor/placement"
)

// HandshakeRequest is sent by the connecting peer, carrying its own
// address (Origin) and every peer it currently knows about, per
// original_source/src/handshake.cpp's
// handshake_request(known_nodes, origin).
type HandshakeRequest struct {
	Origin     placement.NodeDescriptor
	KnownNodes []placement.NodeDescriptor
}

// HandshakeResponse is the server's reply: its own known-peers view plus
// its shard count, per handshake_response(known_nodes, shard_count).
type HandshakeResponse struct {
	KnownNodes []placement.NodeDescriptor
	ShardCount uint32
}

// Codec serializes and deserializes handshake frames. Two
// implementations are provided: BinaryCodec, the little-endian
// length-prefixed wire format, and JSONCodec, kept for interoperability
// with a PostJSON/GetJSON style of transport and for easier debugging.
type Codec interface {
	EncodeRequest(HandshakeRequest) ([]byte, error)
	DecodeRequest([]byte) (HandshakeRequest, error)
	EncodeResponse(HandshakeResponse) ([]byte, error)
	DecodeResponse([]byte) (HandshakeResponse, error)
}

// BinaryCodec implements the binary wire layout: arithmetic fields are
// little-endian fixed-width (u32 for IPv4, u16 for port, u32 length
// prefixes for vectors).
type BinaryCodec struct{}

func putNode(buf []byte, n placement.NodeDescriptor) []byte {
	var ip [4]byte
	binary.LittleEndian.PutUint32(ip[:], binary.BigEndian.Uint32(n.IPv4[:]))
	buf = append(buf, ip[:]...)
	var port [2]byte
	binary.LittleEndian.PutUint16(port[:], n.Port)
	return append(buf, port[:]...)
}

func getNode(buf []byte) (placement.NodeDescriptor, []byte, error) {
	if len(buf) < 6 {
		return placement.NodeDescriptor{}, nil, fmt.Errorf("cluster: truncated node descriptor")
	}
	var n placement.NodeDescriptor
	binary.BigEndian.PutUint32(n.IPv4[:], binary.LittleEndian.Uint32(buf[0:4]))
	n.Port = binary.LittleEndian.Uint16(buf[4:6])
	return n, buf[6:], nil
}

func putNodeList(buf []byte, nodes []placement.NodeDescriptor) []byte {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(nodes)))
	buf = append(buf, lenBuf[:]...)
	for _, n := range nodes {
		buf = putNode(buf, n)
	}
	return buf
}

func getNodeList(buf []byte) ([]placement.NodeDescriptor, []byte, error) {
	if len(buf) < 4 {
		return nil, nil, fmt.Errorf("cluster: truncated node list length")
	}
	count := binary.LittleEndian.Uint32(buf[0:4])
	buf = buf[4:]
	nodes := make([]placement.NodeDescriptor, 0, count)
	for i := uint32(0); i < count; i++ {
		var n placement.NodeDescriptor
		var err error
		n, buf, err = getNode(buf)
		if err != nil {
			return nil, nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, buf, nil
}

func (BinaryCodec) EncodeRequest(req HandshakeRequest) ([]byte, error) {
	buf := putNode(nil, req.Origin)
	buf = putNodeList(buf, req.KnownNodes)
	return buf, nil
}

func (BinaryCodec) DecodeRequest(raw []byte) (HandshakeRequest, error) {
	origin, rest, err := getNode(raw)
	if err != nil {
		return HandshakeRequest{}, err
	}
	known, _, err := getNodeList(rest)
	if err != nil {
		return HandshakeRequest{}, err
	}
	return HandshakeRequest{Origin: origin, KnownNodes: known}, nil
}

func (BinaryCodec) EncodeResponse(resp HandshakeResponse) ([]byte, error) {
	buf := putNodeList(nil, resp.KnownNodes)
	var shardCountBuf [4]byte
	binary.LittleEndian.PutUint32(shardCountBuf[:], resp.ShardCount)
	buf = append(buf, shardCountBuf[:]...)
	return buf, nil
}

func (BinaryCodec) DecodeResponse(raw []byte) (HandshakeResponse, error) {
	known, rest, err := getNodeList(raw)
	if err != nil {
		return HandshakeResponse{}, err
	}
	if len(rest) < 4 {
		return HandshakeResponse{}, fmt.Errorf("cluster: truncated shard count")
	}
	shardCount := binary.LittleEndian.Uint32(rest[0:4])
	return HandshakeResponse{KnownNodes: known, ShardCount: shardCount}, nil
}

// JSONCodec encodes handshake frames as JSON, a simpler style of
// wire-level serialization, kept as an alternative to BinaryCodec for
// debugging and tooling.
type JSONCodec struct{}

func (JSONCodec) EncodeRequest(req HandshakeRequest) ([]byte, error) {
	return json.Marshal(req)
}

func (JSONCodec) EncodeResponse(r HandshakeResponse) ([]byte, error) {
	return json.Marshal(r)
}

func (JSONCodec) DecodeRequest(raw []byte) (HandshakeRequest, error) {
	var req HandshakeRequest
	err := json.Unmarshal(raw, &req)
	return req, err
}

func (JSONCodec) DecodeResponse(raw []byte) (HandshakeResponse, error) {
	var resp HandshakeResponse
	err := json.Unmarshal(raw, &resp)
	return resp, err
}
