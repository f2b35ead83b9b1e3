package storage

import (
	"context"

	"github.com/rs/zerolog"
)

// Open selects the storage backend: Postgres when databaseURL is set (the
// managed-hosting path), SQLite at dbPath otherwise.
func Open(ctx context.Context, databaseURL, dbPath string, logger zerolog.Logger) (Store, error) {
	if databaseURL != "" {
		return NewPostgresStore(ctx, databaseURL, logger)
	}
	return NewSQLiteStore(dbPath, logger)
}
