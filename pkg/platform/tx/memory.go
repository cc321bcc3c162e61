package tx

import (
	"context"
	"hash/fnv"
	"slices"
	"sync"
	"time"

	dErrors "dlms/pkg/domain-errors"
)

const numShards = 128

// ShardedRunner serializes work for in-memory stores using a fixed array of
// mutexes. Keys hash onto shards; shards are locked in ascending index order
// so multi-key units of work cannot deadlock.
type ShardedRunner struct {
	shards  [numShards]sync.Mutex
	timeout time.Duration
}

// NewShardedRunner builds an in-memory runner. A zero timeout uses the default.
func NewShardedRunner(timeout time.Duration) *ShardedRunner {
	return &ShardedRunner{timeout: timeout}
}

func (r *ShardedRunner) RunInTx(ctx context.Context, keys []string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	// Re-entry from inside a unit of work is allowed only for keys the outer
	// call already holds; widening the set would break lock ordering.
	if held, ok := ctx.Value(heldKeysKey).(map[string]struct{}); ok {
		for _, k := range keys {
			if _, ok := held[k]; !ok {
				return dErrors.Newf(dErrors.CodeInternal, "nested unit of work requested unheld key %s", k)
			}
		}
		return fn(ctx)
	}

	ctx, cancel := withDefaultTimeout(ctx, r.timeout)
	defer cancel()

	shards := r.shardsFor(keys)
	for _, s := range shards {
		r.shards[s].Lock()
	}
	defer func() {
		for i := len(shards) - 1; i >= 0; i-- {
			r.shards[shards[i]].Unlock()
		}
	}()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	held := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		held[k] = struct{}{}
	}
	outer := ctx
	ctx, hooks := withCommitHooks(ctx)
	if err := fn(context.WithValue(ctx, heldKeysKey, held)); err != nil {
		return err
	}
	hooks.run(outer)
	return nil
}

type heldKeysCtxKey struct{}

var heldKeysKey = heldKeysCtxKey{}

func (r *ShardedRunner) shardsFor(keys []string) []int {
	out := make([]int, 0, len(keys))
	for _, k := range normalizeKeys(keys) {
		out = append(out, shardOf(k))
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func shardOf(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % numShards)
}
