package rpcendpoint

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/dreamware/vactor/actor"

	"go.uber.org/zap"
)

// CallPath is the fixed HTTP path every peer mounts its dispatch handler
// under, the rpcendpoint counterpart of cluster's /cluster/handshake.
const CallPath = "/rpc/call"

// Server is the inbound half of the endpoint: it decodes a callFrame,
// looks up the trampoline actor.RegisterRemote installed for its
// message_id, invokes it, and writes back a replyFrame. It never knows
// about any particular actor type; every type-specific decode/encode step
// lives inside the Trampoline closure RegisterHandler built.
type Server struct {
	metrics *Metrics
	log     *zap.SugaredLogger
}

// NewServer returns a Server. metrics and log may both be nil.
func NewServer(metrics *Metrics, log *zap.SugaredLogger) *Server {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Server{metrics: metrics, log: log}
}

// Handler returns the http.HandlerFunc to mount at CallPath.
func (s *Server) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		raw, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		frame, err := decodeCallFrame(raw)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		label := strconv.FormatUint(uint64(frame.MessageID), 10)

		trampoline, ok := actor.LookupRemote(frame.MessageID)
		if !ok {
			err := fmt.Errorf("rpcendpoint: no handler registered for message id %d", frame.MessageID)
			s.metrics.observe("server", label, start, err)
			s.writeReply(w, replyFrame{OK: false, Err: err.Error()})
			return
		}

		rawResult, err := trampoline(r.Context(), frame.RawKey, frame.RawArgs)
		s.metrics.observe("server", label, start, err)
		if err != nil {
			s.log.Debugw("rpcendpoint: handler returned error", "message_id", frame.MessageID, "error", err)
			s.writeReply(w, replyFrame{OK: false, Err: err.Error()})
			return
		}
		s.writeReply(w, replyFrame{OK: true, RawBody: rawResult})
	}
}

func (s *Server) writeReply(w http.ResponseWriter, f replyFrame) {
	w.Header().Set("Content-Type", "application/octet-stream")
	_, err := w.Write(encodeReplyFrame(f))
	if err != nil {
		s.log.Debugw("rpcendpoint: write reply failed", "error", err)
	}
}
