// Package pipeline defines the external collaborators the lifecycle worker
// coordinates: storage adapters, database destroy adapters and the
// create/upgrade/backup/restore operations. The worker owns coordination
// only; the heavy lifting happens behind these interfaces.
package pipeline

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tracelay/workspaced/config"
)

// ProgressFunc receives progress as a percentage in [0, 100].
type ProgressFunc func(percent float64)

// StorageAdapter is a handle on a backup storage target. Every acquired
// adapter must be closed on all exit paths.
type StorageAdapter interface {
	URL() string
	Bucket() string
	Close(ctx context.Context) error
}

// StorageFactory builds a storage adapter for a storage URL and bucket.
type StorageFactory func(ctx context.Context, rawURL, bucket string) (StorageAdapter, error)

// Destroyer drops a workspace's database. Registered per DB URL scheme.
type Destroyer interface {
	DeleteWorkspace(ctx context.Context, req DeleteRequest) error
}

// CreateRequest describes a workspace to initialise: model init, indices and
// seed data.
type CreateRequest struct {
	Workspace   string
	UUID        uuid.UUID
	DatabaseURL string
	Branding    *config.Branding
}

// UpgradeRequest describes a workspace schema upgrade. The operation behind
// it is re-entrant.
type UpgradeRequest struct {
	Workspace   string
	UUID        uuid.UUID
	DatabaseURL string
	FromVersion string
	ToVersion   string
	Force       bool
}

// BackupRequest describes a workspace backup. FullCheck requests a full
// integrity pass; migration backups skip it because they are time-critical.
type BackupRequest struct {
	Workspace   string
	UUID        uuid.UUID
	DatabaseURL string
	FullCheck   bool
}

// RestoreRequest describes a workspace restore, restricted to the listed
// data domains.
type RestoreRequest struct {
	Workspace   string
	UUID        uuid.UUID
	DatabaseURL string
	Domains     []string
}

// DeleteRequest identifies the workspace database to drop.
type DeleteRequest struct {
	Name string
	UUID uuid.UUID
}

// Creator initialises a fresh workspace.
type Creator interface {
	Create(ctx context.Context, req CreateRequest, log *zap.SugaredLogger, progress ProgressFunc) error
}

// Upgrader migrates a workspace schema to the worker's version.
type Upgrader interface {
	Upgrade(ctx context.Context, req UpgradeRequest, log *zap.SugaredLogger, progress ProgressFunc) error
}

// BackupRunner pumps workspace data into a storage adapter. The boolean
// result reports whether the backup actually completed; false without an
// error means the run was a no-op and no completion should be recorded.
type BackupRunner interface {
	Backup(ctx context.Context, req BackupRequest, storage StorageAdapter, log *zap.SugaredLogger, progress ProgressFunc) (bool, error)
}

// RestoreRunner pumps workspace data back out of a storage adapter.
type RestoreRunner interface {
	Restore(ctx context.Context, req RestoreRequest, storage StorageAdapter, log *zap.SugaredLogger, progress ProgressFunc) error
}

// Suite bundles the registry and operation runners handed to the worker.
type Suite struct {
	Registry *Registry
	Creator  Creator
	Upgrader Upgrader
	Backup   BackupRunner
	Restore  RestoreRunner
}
