// Package store persists generation records.
package store

import (
	"context"

	"github.com/manash/adhook/pkg/models"
)

const (
	Table            = "adhook_generations"
	DefaultListLimit = 20
)

// Store is an append-only record store.
type Store interface {
	// Insert assigns ID and CreatedAt when they are empty.
	Insert(ctx context.Context, gen *models.Generation) error
	// ListRecent returns at most limit records, newest first.
	ListRecent(ctx context.Context, limit int) ([]*models.Generation, error)
	Close() error
}

// Migrator is implemented by backends that own their schema.
type Migrator interface {
	Migrate(ctx context.Context) error
}

// ClampLimit bounds a requested listing size to (0, DefaultListLimit].
func ClampLimit(limit int) int {
	if limit <= 0 || limit > DefaultListLimit {
		return DefaultListLimit
	}
	return limit
}
