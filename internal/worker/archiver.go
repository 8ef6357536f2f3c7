// Package worker writes JSON snapshot archives in response to dataset-change
// messages, giving the dataset automatic timestamped backups.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"expenza/internal/core"
	"expenza/internal/events"
	"expenza/internal/export"
)

// SnapshotLoader reads the current dataset from durable storage.
type SnapshotLoader interface {
	Load(ctx context.Context) (core.Snapshot, error)
}

type Archiver struct {
	loader SnapshotLoader
	dir    string
	clock  core.Clock
}

func NewArchiver(loader SnapshotLoader, dir string, clock core.Clock) *Archiver {
	if clock == nil {
		clock = time.Now
	}
	return &Archiver{loader: loader, dir: dir, clock: clock}
}

// HandleChange archives the current snapshot. Called for each consumed
// dataset-change message.
func (a *Archiver) HandleChange(msg *events.DatasetChange) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	path, err := a.Archive(ctx)
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "Archived snapshot",
		"op", msg.Op, "entity_id", msg.EntityID, "path", path)
	return nil
}

// Archive loads the latest snapshot and writes it as a timestamped JSON
// export under the archive directory, returning the file path.
func (a *Archiver) Archive(ctx context.Context) (string, error) {
	snap, err := a.loader.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("load snapshot: %w", err)
	}

	now := a.clock()
	data, err := export.JSON(snap, now)
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}

	if err := os.MkdirAll(a.dir, 0755); err != nil {
		return "", fmt.Errorf("create archive directory: %w", err)
	}
	name := "expenses-" + now.Format("20060102-150405") + ".json"
	path := filepath.Join(a.dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write archive: %w", err)
	}
	return path, nil
}
