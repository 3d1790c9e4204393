package lifecycle

import (
	"context"

	"go.uber.org/zap"
)

// dispatch routes a workspace snapshot to the handler for its current mode.
// Routing only; all side effects live in the handlers. An unknown mode is
// logged and skipped so a control-plane running ahead of this worker's
// vocabulary cannot poison the loop.
func (w *Worker) dispatch(ctx context.Context, ws *WorkspaceInfo, log *zap.SugaredLogger) error {
	switch ws.EffectiveMode() {
	case ModePendingCreation, ModeCreating:
		return w.handleCreate(ctx, ws, log)
	case ModeUpgrading, ModeActive:
		return w.handleUpgrade(ctx, ws, log)
	case ModeArchivingPendingBackup, ModeArchivingBackup:
		return w.handleBackup(ctx, ws, log, backupArchive)
	case ModeArchivingPendingClean, ModeArchivingClean:
		return w.handleCleanup(ctx, ws, log, cleanupArchive)
	case ModeMigrationPendingBackup, ModeMigrationBackup:
		return w.handleBackup(ctx, ws, log, backupMigrate)
	case ModeMigrationPendingClean, ModeMigrationClean:
		return w.handleCleanup(ctx, ws, log, w.migrateCleanup())
	case ModePendingRestore, ModeRestoring:
		return w.handleRestore(ctx, ws, log)
	case ModePendingDeletion, ModeDeleting:
		return w.handleCleanup(ctx, ws, log, cleanupDelete)
	default:
		w.log.Errorw("Unknown workspace mode",
			"workspace", ws.Workspace,
			"mode", ws.Mode)
		return nil
	}
}
