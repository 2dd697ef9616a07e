package cluster

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Transport performs the client side of a handshake against a peer
// address. HTTPTransport is the only implementation this module ships,
// grounded on internal/cluster.PostJSON's "shared package-level
// http.Client with a fixed timeout" idiom — torua itself never needed
// anything but net/http for node-to-node RPC, and nothing else in the
// example pack offers a more apt single-hop transport.
type Transport interface {
	Handshake(ctx context.Context, addr string, req HandshakeRequest) (HandshakeResponse, error)
}

// HTTPTransport POSTs a codec-encoded handshake frame to a peer's
// /cluster/handshake endpoint and decodes the reply with the same codec.
type HTTPTransport struct {
	Codec  Codec
	Client *http.Client
}

// NewHTTPTransport returns an HTTPTransport using codec (BinaryCodec if
// nil) and a client with the same 5-second timeout
// internal/cluster.httpClient uses.
func NewHTTPTransport(codec Codec) *HTTPTransport {
	if codec == nil {
		codec = BinaryCodec{}
	}
	return &HTTPTransport{
		Codec:  codec,
		Client: &http.Client{Timeout: 5 * time.Second},
	}
}

func (t *HTTPTransport) Handshake(ctx context.Context, addr string, req HandshakeRequest) (HandshakeResponse, error) {
	raw, err := t.Codec.EncodeRequest(req)
	if err != nil {
		return HandshakeResponse{}, fmt.Errorf("cluster: encode handshake request: %w", err)
	}

	url := fmt.Sprintf("http://%s/cluster/handshake", addr)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return HandshakeResponse{}, err
	}
	httpReq.Header.Set("Content-Type", "application/octet-stream")

	resp, err := t.Client.Do(httpReq)
	if err != nil {
		return HandshakeResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return HandshakeResponse{}, fmt.Errorf("cluster: handshake http %s: %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return HandshakeResponse{}, err
	}
	return t.Codec.DecodeResponse(body)
}
