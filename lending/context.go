package lending

import "context"

// contextKey is a private type to prevent context key collisions.
type contextKey string

// IdempotencyKeyKey is the context key under which the idempotency key of a write is stored.
const IdempotencyKeyKey contextKey = "lending.idempotency_key"

// WithIdempotencyKey returns a context carrying key. Gateways send it with the write request,
// so the remote store can recognize a repeated submission of the same user action.
//
// Example usage:
//
//	ctx = lending.WithIdempotencyKey(ctx, uuid.NewString())
//	err := gateway.Issue(ctx, bookID, borrowerName, loanDays)
func WithIdempotencyKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, IdempotencyKeyKey, key)
}

// IdempotencyKeyFrom extracts the idempotency key from the context, or "" if none is set.
func IdempotencyKeyFrom(ctx context.Context) string {
	if key, ok := ctx.Value(IdempotencyKeyKey).(string); ok {
		return key
	}

	return ""
}
