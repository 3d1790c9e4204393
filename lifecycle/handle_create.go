package lifecycle

import (
	"context"

	"go.uber.org/zap"

	"github.com/tracelay/workspaced/config"
	"github.com/tracelay/workspaced/pipeline"
)

// createResumeProgressThreshold is the progress past which a previous create
// attempt is assumed to have run the init step. The init step is not reliably
// re-entrant, so at or above this mark the workspace is pushed forward
// instead of re-initialised.
const createResumeProgressThreshold = 30

// handleCreate initialises a fresh workspace: model init, indices and seed
// data, all performed by the external create tool.
func (w *Worker) handleCreate(ctx context.Context, ws *WorkspaceInfo, log *zap.SugaredLogger) error {
	rep := newReporter(w.deps.ControlPlane, log, ws.Workspace, w.version)

	if ws.EffectiveMode() == ModeCreating && ws.ObservedProgress() >= createResumeProgressThreshold {
		// the previous attempt died after init; re-running init would wedge
		// the workspace, so advance the state machine at the observed mark
		log.Warnw("Resuming interrupted creation without re-running init",
			"workspace", ws.Workspace,
			"progress", ws.ObservedProgress())
		return rep.Marker(ctx, EventCreateDone, ws.ObservedProgress())
	}

	if err := rep.Marker(ctx, EventCreateStarted, 0); err != nil {
		return err
	}
	stop := rep.StartKeepalive(ctx)
	defer stop()

	var branding *config.Branding
	if b, ok := w.opts.Brandings[ws.Branding]; ok {
		branding = &b
	} else if ws.Branding != "" {
		log.Warnw("Unknown branding, creating without seed data",
			"workspace", ws.Workspace,
			"branding", ws.Branding)
	}

	err := w.deps.Pipeline.Creator.Create(ctx, pipeline.CreateRequest{
		Workspace:   ws.Workspace,
		UUID:        ws.UUID,
		DatabaseURL: w.opts.DatabaseURL,
		Branding:    branding,
	}, log, rep.ReportFunc(ctx))
	if err != nil {
		return err
	}

	stop()
	return rep.Marker(ctx, EventCreateDone, 100)
}
