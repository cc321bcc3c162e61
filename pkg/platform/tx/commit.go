package tx

import (
	"context"
	"sync"
)

type hooksCtxKey struct{}

var hooksKey = hooksCtxKey{}

type commitHooks struct {
	mu  sync.Mutex
	fns []func(context.Context)
}

// AfterCommit runs fn once the enclosing unit of work has committed. Outside
// a unit of work it runs immediately. When the unit of work fails, fn never
// runs.
func AfterCommit(ctx context.Context, fn func(context.Context)) {
	h, ok := ctx.Value(hooksKey).(*commitHooks)
	if !ok {
		fn(ctx)
		return
	}
	h.mu.Lock()
	h.fns = append(h.fns, fn)
	h.mu.Unlock()
}

func withCommitHooks(ctx context.Context) (context.Context, *commitHooks) {
	h := &commitHooks{}
	return context.WithValue(ctx, hooksKey, h), h
}

// run calls the hooks in registration order with ctx, which must not carry
// the finished transaction.
func (h *commitHooks) run(ctx context.Context) {
	h.mu.Lock()
	fns := h.fns
	h.fns = nil
	h.mu.Unlock()
	for _, fn := range fns {
		fn(ctx)
	}
}
