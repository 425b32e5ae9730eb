package service

import (
	"context"

	"task_service/internal/domain"
)

// DeliverySink carries notifications toward the chat platform. Delivery
// is best effort: callers log failures and move on.
type DeliverySink interface {
	Notify(ctx context.Context, n domain.Notification) error
}

// IdempotencyGuard rejects a duplicate of an operation that is still in
// flight for the same requester.
type IdempotencyGuard interface {
	Acquire(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string)
}
