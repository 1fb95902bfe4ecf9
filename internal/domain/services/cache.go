package services

import (
	"context"
	"time"
)

// Cache stores small JSON values with a TTL.
// Get reports found=false on a miss; any other failure is returned as an error.
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}
