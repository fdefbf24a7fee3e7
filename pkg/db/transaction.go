package db

import "context"

// TransactionFunc runs inside a store transaction. The context it receives
// carries the transaction and must be passed to every repository call.
type TransactionFunc func(ctx context.Context) error

type TransactionManager interface {
	ExecuteTransaction(ctx context.Context, fn TransactionFunc) error
}

type passthroughManager struct{}

// Passthrough runs fn without a transaction. In-memory stores use it.
func Passthrough() TransactionManager {
	return passthroughManager{}
}

func (passthroughManager) ExecuteTransaction(ctx context.Context, fn TransactionFunc) error {
	return fn(ctx)
}
