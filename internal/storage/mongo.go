// Package storage persists rankings and run audit records.
//
// The MongoDB client is process-wide and lazily dialed: a scheduler
// that invokes several runs in one process reuses the warm connection
// pool instead of paying the TLS handshake each time. Release tears it
// down explicitly so tests and clean shutdowns get a fresh state.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/flixtrack/flixtrack/internal/config"
	"github.com/flixtrack/flixtrack/internal/types"
)

var (
	clientMu sync.Mutex
	client   *mongo.Client
)

// Acquire returns a handle to the configured database, dialing and
// pinging the server on first use.
func Acquire(ctx context.Context, cfg *config.MongoConfig, logger *slog.Logger) (*mongo.Database, error) {
	clientMu.Lock()
	defer clientMu.Unlock()

	if client == nil {
		logger.Info("connecting to mongodb", "database", cfg.Database)

		opts := options.Client().
			ApplyURI(cfg.URI).
			SetMaxPoolSize(cfg.MaxPoolSize).
			SetServerSelectionTimeout(cfg.SelectionTimeout)

		c, err := mongo.Connect(ctx, opts)
		if err != nil {
			return nil, &types.StorageError{Backend: "mongodb", Err: fmt.Errorf("connect: %w", err)}
		}
		if err := c.Ping(ctx, nil); err != nil {
			_ = c.Disconnect(ctx)
			return nil, &types.StorageError{Backend: "mongodb", Err: fmt.Errorf("ping: %w", err)}
		}
		client = c
	}

	return client.Database(cfg.Database), nil
}

// Release disconnects the shared client. Safe to call when nothing was
// ever acquired.
func Release(ctx context.Context) error {
	clientMu.Lock()
	defer clientMu.Unlock()

	if client == nil {
		return nil
	}
	err := client.Disconnect(ctx)
	client = nil
	if err != nil {
		return &types.StorageError{Backend: "mongodb", Err: fmt.Errorf("disconnect: %w", err)}
	}
	return nil
}
