package lifecycle

import (
	"context"
	"slices"

	"go.uber.org/zap"

	"github.com/tracelay/workspaced/pipeline"
)

// upgradeSkipModes are the in-between lifecycle states during which an
// upgrade must not run even when the control-plane offers the workspace.
var upgradeSkipModes = []Mode{
	ModeArchivingPendingBackup, ModeArchivingBackup,
	ModeArchivingPendingClean, ModeArchivingClean,
	ModeMigrationPendingBackup, ModeMigrationBackup,
	ModeMigrationPendingClean, ModeMigrationClean,
	ModePendingRestore, ModeRestoring,
}

// handleUpgrade migrates a workspace schema to the worker's version. Skips
// are silent: no events are emitted, the workspace is simply consumed.
func (w *Worker) handleUpgrade(ctx context.Context, ws *WorkspaceInfo, log *zap.SugaredLogger) error {
	if ws.Disabled {
		log.Infow("Skipping upgrade of disabled workspace", "workspace", ws.Workspace)
		return nil
	}
	if slices.Contains(upgradeSkipModes, ws.EffectiveMode()) {
		log.Infow("Skipping upgrade, workspace is mid-transition",
			"workspace", ws.Workspace,
			"mode", ws.Mode)
		return nil
	}
	if slices.Contains(w.opts.Ignore, ws.Workspace) {
		log.Infow("Skipping ignored workspace", "workspace", ws.Workspace)
		return nil
	}

	rep := newReporter(w.deps.ControlPlane, log, ws.Workspace, w.version)
	if err := rep.Marker(ctx, EventUpgradeStarted, 0); err != nil {
		return err
	}
	stop := rep.StartKeepalive(ctx)
	defer stop()

	from := ""
	if ws.Version != nil {
		from = ws.Version.String()
	}
	err := w.deps.Pipeline.Upgrader.Upgrade(ctx, pipeline.UpgradeRequest{
		Workspace:   ws.Workspace,
		UUID:        ws.UUID,
		DatabaseURL: w.opts.DatabaseURL,
		FromVersion: from,
		ToVersion:   w.version.String(),
		Force:       w.opts.Force,
	}, log, rep.ReportFunc(ctx))
	if err != nil {
		return err
	}

	stop()
	return rep.Marker(ctx, EventUpgradeDone, 100)
}
