package cache

import (
	"context"

	"github.com/ficmart/charge-gateway/internal/application"
)

// Noop is wired when no cache address is configured. Every lookup misses and
// every write succeeds silently, so the charge path runs purely on Postgres.
type Noop struct{}

func NewNoop() *Noop {
	return &Noop{}
}

func (Noop) Get(ctx context.Context, scope, key string) (*application.CachedResponse, error) {
	return nil, nil
}

func (Noop) Put(ctx context.Context, scope, key string, response application.CachedResponse) error {
	return nil
}

var _ application.ResponseCache = (*Noop)(nil)
