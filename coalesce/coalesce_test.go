package coalesce

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dreamware/vactor/actor"
	"github.com/dreamware/vactor/actorref"
	"github.com/dreamware/vactor/internal/engine"

	"github.com/stretchr/testify/require"
)

type ledger struct {
	entries []int
}

// appendHandler is the single-item handler Deduplicate coalesces calls
// to — the same handler a non-batched Tell would use, invoked once per
// element server-side rather than hand-duplicated into a second,
// independently-typed batch handler.
var appendHandler = actor.NewHandler[ledger, int, int]("coalesce_test.ledger.Append",
	func(a *ledger, v int) (int, error) {
		a.entries = append(a.entries, v)
		return len(a.entries), nil
	})

var countHandler = actor.NewHandler[ledger, struct{}, int]("coalesce_test.ledger.Count",
	func(a *ledger, _ struct{}) (int, error) {
		a.entries = append(a.entries, 1)
		return len(a.entries), nil
	})

func newLedgerSystem(t *testing.T) (*actorref.System[ledger, string], actorref.Ref[ledger, string]) {
	t.Helper()
	pool := engine.NewPool(2, 16)
	t.Cleanup(pool.Stop)

	ty := &actor.Type[ledger, string]{New: func(string) *ledger { return &ledger{} }}
	sys := actorref.NewSystem(ty, pool)
	require.NoError(t, sys.Start(context.Background()))
	return sys, actorref.Get(sys, 0, "main")
}

func TestDeduplicateBatchesSingleTell(t *testing.T) {
	sys, ref := newLedgerSystem(t)

	results, err := Deduplicate(context.Background(), sys, ref, appendHandler, func(add func(int)) {
		add(1)
		add(2)
		add(3)
	}, nil).Get(context.Background())

	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 3}, results)
}

func TestDeduplicateZeroCallsSendsNothing(t *testing.T) {
	sys, ref := newLedgerSystem(t)

	results, err := Deduplicate[ledger, string, int, int](context.Background(), sys, ref, appendHandler, func(add func(int)) {
		// never calls add
	}, nil).Get(context.Background())

	require.NoError(t, err)
	require.Empty(t, results)
}

func TestDeduplicateCountInvokesHandlerOncePerCall(t *testing.T) {
	sys, ref := newLedgerSystem(t)

	results, err := DeduplicateCount(context.Background(), sys, ref, countHandler, func(add func()) {
		add()
		add()
		add()
		add()
	}).Get(context.Background())

	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 3, 4}, results)
}

func TestWithBufferBoundsConcurrency(t *testing.T) {
	var active int32
	var maxActive int32

	err := WithBuffer(context.Background(), 3, func(submit func(func(context.Context) error)) {
		for i := 0; i < 20; i++ {
			submit(func(ctx context.Context) error {
				n := atomic.AddInt32(&active, 1)
				for {
					cur := atomic.LoadInt32(&maxActive)
					if n <= cur || atomic.CompareAndSwapInt32(&maxActive, cur, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				atomic.AddInt32(&active, -1)
				return nil
			})
		}
	})

	require.NoError(t, err)
	require.LessOrEqual(t, int(maxActive), 3)
}

func TestWithBufferPropagatesFirstError(t *testing.T) {
	sentinel := errors.New("boom")

	err := WithBuffer(context.Background(), 2, func(submit func(func(context.Context) error)) {
		submit(func(context.Context) error { return sentinel })
		submit(func(context.Context) error { return nil })
	})

	require.ErrorIs(t, err, sentinel)
}
