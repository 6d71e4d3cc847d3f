package tx

import "context"

// AfterCommitHooks collects callbacks to run once the surrounding
// transaction commits. Side effects that must not observe uncommitted
// state (cache invalidation, event delivery) register here instead of
// firing mid-transaction.
type AfterCommitHooks struct {
	fns []func(ctx context.Context)
}

type afterCommitKey struct{}

// WithAfterCommitHooks attaches a hook collector to ctx. The transaction
// manager calls this when opening a transaction and runs the collector
// after a successful commit.
func WithAfterCommitHooks(ctx context.Context) (context.Context, *AfterCommitHooks) {
	hooks := &AfterCommitHooks{}
	return context.WithValue(ctx, afterCommitKey{}, hooks), hooks
}

// AfterCommit registers fn to run after the current transaction commits.
// Returns false when ctx carries no transaction; the caller should then
// run fn immediately.
func AfterCommit(ctx context.Context, fn func(ctx context.Context)) bool {
	hooks, ok := ctx.Value(afterCommitKey{}).(*AfterCommitHooks)
	if !ok {
		return false
	}
	hooks.fns = append(hooks.fns, fn)
	return true
}

// Run executes the registered callbacks in registration order.
func (h *AfterCommitHooks) Run(ctx context.Context) {
	for _, fn := range h.fns {
		fn(ctx)
	}
}
