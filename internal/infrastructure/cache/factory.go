// Package cache provides the session stores backing allocation sessions.
package cache

import (
	"context"
	"fmt"

	"github.com/erp/settlement/internal/domain/allocation"
	"github.com/erp/settlement/internal/infrastructure/config"
	"go.uber.org/zap"
)

// SessionStore is an allocation.SessionStore that owns a connection
type SessionStore interface {
	allocation.SessionStore
	Ping(ctx context.Context) error
	Close() error
}

// SessionStoreFactory creates session stores based on configuration
type SessionStoreFactory struct {
	redisConfig   config.RedisConfig
	sessionConfig config.SessionConfig
	logger        *zap.Logger
}

// SessionStoreFactoryOption is a functional option for configuring the factory
type SessionStoreFactoryOption func(*SessionStoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) SessionStoreFactoryOption {
	return func(f *SessionStoreFactory) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewSessionStoreFactory creates a new factory
func NewSessionStoreFactory(redisCfg config.RedisConfig, sessionCfg config.SessionConfig, opts ...SessionStoreFactoryOption) *SessionStoreFactory {
	f := &SessionStoreFactory{
		redisConfig:   redisCfg,
		sessionConfig: sessionCfg,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateStore returns the configured store. When Redis is configured but unreachable
// it falls back to memory if the session config allows it.
func (f *SessionStoreFactory) CreateStore() (SessionStore, error) {
	if f.sessionConfig.Store == config.SessionStoreMemory {
		f.logger.Info("using in-memory allocation session store")
		return NewInMemorySessionStore(), nil
	}

	store, err := NewRedisSessionStore(f.redisConfig, f.sessionConfig.KeyPrefix)
	if err == nil {
		f.logger.Info("using Redis allocation session store", zap.String("addr", f.redisConfig.Addr()))
		return store, nil
	}

	if !f.sessionConfig.FallbackMemory {
		return nil, fmt.Errorf("redis required for allocation sessions but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory allocation session store. "+
		"Sessions will not be shared between instances.",
		zap.Error(err),
	)
	return NewInMemorySessionStore(), nil
}
