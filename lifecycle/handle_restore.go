package lifecycle

import (
	"context"

	"go.uber.org/zap"

	"github.com/tracelay/workspaced/pipeline"
)

// restoreDomains limits what a restore pumps back. Only blob data is
// restored; structured data is rebuilt by the serving tier on first access.
var restoreDomains = []string{"blob"}

// handleRestore pumps a workspace back out of backup storage, then triggers a
// full-text rebuild so search catches up with the restored content.
func (w *Worker) handleRestore(ctx context.Context, ws *WorkspaceInfo, log *zap.SugaredLogger) error {
	rep := newReporter(w.deps.ControlPlane, log, ws.Workspace, w.version)
	if err := rep.Marker(ctx, EventRestoreStarted, 0); err != nil {
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

	err = w.deps.Pipeline.Restore.Restore(ctx, pipeline.RestoreRequest{
		Workspace:   ws.Workspace,
		UUID:        ws.UUID,
		DatabaseURL: w.opts.DatabaseURL,
		Domains:     restoreDomains,
	}, storage, log, rep.ReportFunc(ctx))
	if err != nil {
		return err
	}

	w.reindex(ctx, ws, log, false)

	stop()
	return rep.Marker(ctx, EventRestoreDone, 100)
}
