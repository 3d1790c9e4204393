package lifecycle

import (
	"context"

	"go.uber.org/zap"

	"github.com/tracelay/workspaced/pipeline"
)

// backupPhase parameterises the shared backup handler for the archive and
// migration flavours.
type backupPhase struct {
	started Event
	done    Event
	// fullCheck requests an integrity pass after the dump. Migration backups
	// skip it: they are time-critical and the check is scheduled separately
	// before the migration window.
	fullCheck bool
}

var (
	backupArchive = backupPhase{
		started:   EventArchivingBackupStarted,
		done:      EventArchivingBackupDone,
		fullCheck: true,
	}
	backupMigrate = backupPhase{
		started:   EventMigrateBackupStarted,
		done:      EventMigrateBackupDone,
		fullCheck: false,
	}
)

// handleBackup pumps a workspace into backup storage via the external backup
// tool. The storage adapter is closed on every exit path.
func (w *Worker) handleBackup(ctx context.Context, ws *WorkspaceInfo, log *zap.SugaredLogger, phase backupPhase) error {
	rep := newReporter(w.deps.ControlPlane, log, ws.Workspace, w.version)
	if err := rep.Marker(ctx, phase.started, 0); err != nil {
		return err
	}

	storage, err := w.deps.Pipeline.Registry.StorageFor(ctx, w.opts.BackupStorage, w.opts.BackupBucket)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := storage.Close(ctx); cerr != nil {
			log.Warnw("Failed to close storage adapter",
				"workspace", ws.Workspace,
				"error", cerr)
		}
	}()

	stop := rep.StartKeepalive(ctx)
	defer stop()

	ok, err := w.deps.Pipeline.Backup.Backup(ctx, pipeline.BackupRequest{
		Workspace:   ws.Workspace,
		UUID:        ws.UUID,
		DatabaseURL: w.opts.DatabaseURL,
		FullCheck:   phase.fullCheck,
	}, storage, log, rep.ReportFunc(ctx))
	if err != nil {
		return err
	}
	if !ok {
		// the run was a no-op; leave the mode untouched so the control-plane
		// can offer the workspace again
		log.Warnw("Backup did not complete, leaving workspace pending",
			"workspace", ws.Workspace)
		return nil
	}

	stop()
	return rep.Marker(ctx, phase.done, 100)
}
