// Package main implements the vactor node service: a single OS process
// hosting a shard pool, the directories for every actor type it
// registers, cluster membership, and the RPC endpoint peers use to reach
// this node's activations.
//
// A node is symmetric — there is no separate coordinator role.
// vactor's cluster membership (package cluster) is gossip-only with no
// coordinating node, so there is exactly one binary here, not two (see
// DESIGN.md for why cmd/coordinator was dropped).
//
// Configuration follows a getenv/mustGetenv convention:
//   - NODE_LISTEN: local listen address (default ":8090")
//   - NODE_ADDR: address peers should dial to reach this node, host:port
//     with an IPv4 host (default "127.0.0.1:8090")
//   - SHARD_COUNT: number of shards in the pool (default 4)
//   - CLUSTER_SEEDS: comma-separated host:port peers to join through
//     (optional — omit to start standalone)
//   - MIN_PEERS: minimum peer count required before Join reports success
//     (default 0, i.e. standalone is acceptable)
package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/dreamware/vactor/actor"
	"github.com/dreamware/vactor/actorref"
	"github.com/dreamware/vactor/cluster"
	"github.com/dreamware/vactor/internal/engine"
	"github.com/dreamware/vactor/placement"
	"github.com/dreamware/vactor/rpcendpoint"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// parseNodeDescriptor turns a "host:port" address into a
// placement.NodeDescriptor, requiring an IPv4 host since NodeDescriptor
// only carries a 4-byte address.
func parseNodeDescriptor(addr string) (placement.NodeDescriptor, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return placement.NodeDescriptor{}, err
	}
	ip := net.ParseIP(host).To4()
	if ip == nil {
		return placement.NodeDescriptor{}, &net.AddrError{Err: "not an IPv4 address", Addr: addr}
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return placement.NodeDescriptor{}, err
	}
	var nd placement.NodeDescriptor
	copy(nd.IPv4[:], ip)
	nd.Port = uint16(port)
	return nd, nil
}

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	log := logger.Sugar()

	listen := getenv("NODE_LISTEN", ":8090")
	public := getenv("NODE_ADDR", "127.0.0.1:8090")
	shardCount := getenvInt("SHARD_COUNT", 4)
	minPeers := getenvInt("MIN_PEERS", 0)

	local, err := parseNodeDescriptor(public)
	if err != nil {
		log.Fatalw("invalid NODE_ADDR", "addr", public, "error", err)
	}

	var seeds []placement.NodeDescriptor
	if raw := os.Getenv("CLUSTER_SEEDS"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			seed, err := parseNodeDescriptor(strings.TrimSpace(s))
			if err != nil {
				log.Fatalw("invalid CLUSTER_SEEDS entry", "addr", s, "error", err)
			}
			seeds = append(seeds, seed)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool := engine.NewPool(shardCount, 1024)
	defer pool.Stop()

	counterType := &actor.Type[Counter, string]{
		Kind:      actor.Singleton,
		Reentrant: true,
		New:       func(key string) *Counter { return &Counter{key: key} },
	}
	sys := actorref.NewSystem(counterType, pool)
	if err := sys.Start(ctx); err != nil {
		log.Fatalw("failed to start actor system", "error", err)
	}

	metrics := rpcendpoint.NewMetrics(nil)
	client := rpcendpoint.NewClient(metrics)
	membership := cluster.New(local, uint32(shardCount), cluster.NewHTTPTransport(nil), log)
	sys.WithCluster(membership, client)

	keyCodec := rpcendpoint.KeyCodec[string]{Decode: func(b []byte) (string, error) { return string(b), nil }}
	if err := rpcendpoint.RegisterHandler(sys, incrementHandler, keyCodec,
		rpcendpoint.HandlerCodec[uint64, uint64]{DecodeReq: decodeUint64, EncodeRes: encodeUint64}); err != nil {
		log.Fatalw("failed to register Increment handler", "error", err)
	}
	if err := rpcendpoint.RegisterHandler(sys, countHandler, keyCodec,
		rpcendpoint.HandlerCodec[struct{}, uint64]{DecodeReq: decodeUnit, EncodeRes: encodeUint64}); err != nil {
		log.Fatalw("failed to register Count handler", "error", err)
	}
	if err := rpcendpoint.RegisterHandler(sys, getKeyHandler, keyCodec,
		rpcendpoint.HandlerCodec[struct{}, string]{DecodeReq: decodeUnit, EncodeRes: encodeString}); err != nil {
		log.Fatalw("failed to register GetKey handler", "error", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/cluster/handshake", membership.HandshakeHandler())
	mux.HandleFunc(rpcendpoint.CallPath, rpcendpoint.NewServer(metrics, log).Handler())
	mux.HandleFunc("/actor/counter/", handleCounterRequest(ctx, sys, membership, client, log))
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Infow("node listening", "listen", listen, "public", public, "shards", shardCount)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("listen failed", "error", err)
		}
	}()

	membership.Start(ctx)
	if err := membership.Join(ctx, seeds, minPeers); err != nil {
		log.Warnw("cluster join did not reach min_peers", "error", err)
	}
	log.Infow("cluster membership", "state", membership.State().String(), "ring_size", membership.Ring().Size())

	<-ctx.Done()
	log.Infow("shutting down")

	membership.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warnw("graceful shutdown failed", "error", err)
	}
}
