package port

import (
	"context"

	"github.com/fieldstack/fleetstock/internal/core/domain"
)

type CacheRepository interface {
	// SetIdempotency sets a key for idempotency check, returns false if already exists
	SetIdempotency(ctx context.Context, key string) (bool, error)

	// ReleaseIdempotency frees a claimed key so the request id can be retried
	ReleaseIdempotency(ctx context.Context, key string) error

	// PublishTransfer fans a committed transfer record out to subscribers (best-effort)
	PublishTransfer(ctx context.Context, record domain.TransferRecord) error
}
