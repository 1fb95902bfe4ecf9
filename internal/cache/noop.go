package cache

import (
	"context"
	"time"

	"archivist/internal/domain/services"
)

// Noop is used when no Redis URL is configured. Every lookup misses.
type Noop struct{}

var _ services.Cache = Noop{}

func (Noop) Get(context.Context, string, any) (bool, error) { return false, nil }
func (Noop) Set(context.Context, string, any, time.Duration) error { return nil }
func (Noop) Delete(context.Context, ...string) error { return nil }
