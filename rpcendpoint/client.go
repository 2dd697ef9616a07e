package rpcendpoint

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/dreamware/vactor/actor"
	"github.com/dreamware/vactor/actorref"
	"github.com/dreamware/vactor/placement"
)

var _ actorref.RemoteCaller = (*Client)(nil)

// Client is the outbound half of the endpoint, implementing
// actorref.RemoteCaller so actorref.Tell's Remote path can reach a peer
// node over net/http exactly the way cluster.HTTPTransport reaches one
// for a handshake.
type Client struct {
	httpClient *http.Client
	metrics    *Metrics
}

// NewClient returns a Client with a 10-second per-call timeout, longer
// than cluster's 5s handshake timeout since a handler call can
// reasonably run longer than a lightweight handshake.
func NewClient(metrics *Metrics) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		metrics:    metrics,
	}
}

// CallRemote implements actorref.RemoteCaller.
func (c *Client) CallRemote(ctx context.Context, node placement.NodeDescriptor, messageID actor.MessageID, rawKey, rawArgs []byte) ([]byte, error) {
	start := time.Now()
	label := strconv.FormatUint(uint64(messageID), 10)

	result, err := c.call(ctx, node, messageID, rawKey, rawArgs)
	c.metrics.observe("client", label, start, err)
	return result, err
}

func (c *Client) call(ctx context.Context, node placement.NodeDescriptor, messageID actor.MessageID, rawKey, rawArgs []byte) ([]byte, error) {
	raw := encodeCallFrame(callFrame{MessageID: messageID, RawKey: rawKey, RawArgs: rawArgs})

	url := fmt.Sprintf("http://%s%s", addrOf(node), CallPath)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rpcendpoint: call %s message %d: %w", addrOf(node), messageID, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("rpcendpoint: call %s message %d: http %d: %s", addrOf(node), messageID, resp.StatusCode, body)
	}

	reply, err := decodeReplyFrame(body)
	if err != nil {
		return nil, err
	}
	if !reply.OK {
		return nil, fmt.Errorf("rpcendpoint: remote handler error: %s", reply.Err)
	}
	return reply.RawBody, nil
}

func addrOf(n placement.NodeDescriptor) string {
	return fmt.Sprintf("%d.%d.%d.%d:%d", n.IPv4[0], n.IPv4[1], n.IPv4[2], n.IPv4[3], n.Port)
}
