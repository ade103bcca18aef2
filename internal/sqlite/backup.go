package sqlite

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"
)

// Backup writes a consistent copy of the database to path with VACUUM INTO. The target must not exist yet.
func (db *Database) Backup(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("backup target %s: %w", path, os.ErrExist)
	}
	start := time.Now()
	if _, err := db.ReadWrite.ExecContext(ctx, "VACUUM INTO ?", path); err != nil {
		return fmt.Errorf("vacuum into: %w", err)
	}
	db.logger.LogAttrs(ctx, slog.LevelInfo, "backed up database",
		slog.String("path", path), slog.Duration("duration", time.Since(start)))
	return nil
}
