package lifecycle

import (
	"context"

	"go.uber.org/zap"

	"github.com/tracelay/workspaced/pipeline"
)

// cleanupPhase parameterises the shared cleanup handler for the archive-clean,
// migrate-clean and delete flavours.
type cleanupPhase struct {
	started Event
	done    Event
	// doneProgress is the progress reported with the done marker. The
	// migrate-clean flavour reports 0 to match the control-plane's state
	// machine, which treats the migration window as still open after clean.
	doneProgress float64
	// destroy drops the workspace database. When false the phase only
	// records the transition.
	destroy bool
	// reindex calls the full-text service after the drop; onlyDrop skips the
	// rebuild for workspaces that will never serve again.
	reindex  bool
	onlyDrop bool
}

var (
	cleanupArchive = cleanupPhase{
		started:      EventArchivingCleanStarted,
		done:         EventArchivingCleanDone,
		doneProgress: 100,
		destroy:      true,
		reindex:      true,
		onlyDrop:     false,
	}
	cleanupDelete = cleanupPhase{
		started:      EventDeleteStarted,
		done:         EventDeleteDone,
		doneProgress: 100,
		destroy:      true,
		reindex:      true,
		onlyDrop:     true,
	}
)

// migrateCleanup builds the migrate-clean phase. The database drop is gated
// on the MIGRATION_CLEANUP environment flag so a misconfigured worker cannot
// destroy workspaces mid-migration.
func (w *Worker) migrateCleanup() cleanupPhase {
	return cleanupPhase{
		started:      EventMigrateCleanStarted,
		done:         EventMigrateCleanDone,
		doneProgress: 0,
		destroy:      w.opts.MigrationCleanup,
		reindex:      false,
	}
}

// handleCleanup drops a workspace database after live sessions have been
// force-closed, then notifies the full-text service.
func (w *Worker) handleCleanup(ctx context.Context, ws *WorkspaceInfo, log *zap.SugaredLogger, phase cleanupPhase) error {
	rep := newReporter(w.deps.ControlPlane, log, ws.Workspace, w.version)
	if err := rep.Marker(ctx, phase.started, 0); err != nil {
		return err
	}

	if phase.destroy {
		w.forceCloseSessions(ctx, ws, log)

		destroyer, err := w.deps.Pipeline.Registry.DestroyerFor(w.opts.DatabaseURL)
		if err != nil {
			return err
		}
		if err := destroyer.DeleteWorkspace(ctx, pipeline.DeleteRequest{
			Name: ws.Workspace,
			UUID: ws.UUID,
		}); err != nil {
			return err
		}
	} else {
		log.Infow("Skipping workspace database drop, cleanup is disabled",
			"workspace", ws.Workspace)
	}

	if phase.reindex {
		w.reindex(ctx, ws, log, phase.onlyDrop)
	}

	return rep.Marker(ctx, phase.done, phase.doneProgress)
}

// forceCloseSessions asks the serving tier to drop live sessions against the
// workspace. Best-effort: the transactor may already be down, and the
// destructive action is authorised regardless.
func (w *Worker) forceCloseSessions(ctx context.Context, ws *WorkspaceInfo, log *zap.SugaredLogger) {
	endpoint, err := w.deps.ControlPlane.GetTransactorEndpoint(ctx)
	if err != nil {
		log.Warnw("Failed to resolve transactor endpoint",
			"workspace", ws.Workspace,
			"error", err)
		return
	}
	if err := w.deps.Sessions.ForceClose(ctx, endpoint); err != nil {
		log.Warnw("Failed to force-close workspace sessions",
			"workspace", ws.Workspace,
			"endpoint", endpoint,
			"error", err)
	}
}

// reindex notifies the full-text service. Failures are logged and swallowed:
// the workspace transition has already happened and reindexing can be retried
// out-of-band.
func (w *Worker) reindex(ctx context.Context, ws *WorkspaceInfo, log *zap.SugaredLogger, onlyDrop bool) {
	if w.deps.Fulltext == nil {
		return
	}
	if err := w.deps.Fulltext.Reindex(ctx, onlyDrop); err != nil {
		log.Warnw("Full-text reindex failed",
			"workspace", ws.Workspace,
			"onlyDrop", onlyDrop,
			"error", err)
	}
}
