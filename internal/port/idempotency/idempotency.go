package idempotency

import "context"

// Store remembers the result of an operation under a client-supplied key so a
// retried request can be answered without redoing the work.
type Store interface {
	Check(ctx context.Context, key string) ([]byte, bool, error)
	Store(ctx context.Context, key, opType string, resultJSON []byte) error
}
