package lifecycle

import (
	"context"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"
	"go.uber.org/zap"

	"github.com/tracelay/workspaced/config"
	"github.com/tracelay/workspaced/errors"
	"github.com/tracelay/workspaced/logger"
	"github.com/tracelay/workspaced/pipeline"
)

// Operation capability strings declared at handshake. The control-plane only
// hands a worker workspaces its declared operation covers.
const (
	OperationCreate    = "create"
	OperationUpgrade   = "upgrade"
	OperationAll       = "all"
	OperationAllBackup = "all+backup"
)

// stopTimeout bounds the graceful wait for in-flight jobs on shutdown.
const stopTimeout = 30 * time.Second

// Options carries the worker identity and runtime tuning. All fields are
// immutable for the process lifetime.
type Options struct {
	Version     *semver.Version
	Region      string
	Limit       int
	Operation   string
	WaitTimeout time.Duration
	Brandings   map[string]config.Branding

	Ignore  []string // workspace names excluded from upgrade
	Force   bool     // upgrade even when versions already match
	Console bool     // workspace logs to stdout instead of files
	LogsDir string

	DatabaseURL   string
	BackupStorage string
	BackupBucket  string

	// MigrationCleanup gates the destructive step of the migrate-clean phase.
	MigrationCleanup bool

	// ErrorHandler receives every workspace-level failure after it has been
	// logged. Optional; used to feed analytics.
	ErrorHandler func(ws *WorkspaceInfo, err error)
}

// Dependencies are the external collaborators the worker coordinates.
type Dependencies struct {
	ControlPlane ControlPlane
	Sessions     SessionCloser
	Fulltext     Reindexer // nil disables reindex calls
	Pipeline     *pipeline.Suite
}

// Worker is the workspace lifecycle worker. One instance runs per process;
// Run blocks until the context is cancelled.
type Worker struct {
	opts    Options
	deps    Dependencies
	log     *zap.SugaredLogger
	version Version

	gate    *gate
	sleeper *sleeper
	wg      sync.WaitGroup

	mu     sync.Mutex
	active map[string]struct{} // workspaces currently in flight
}

// New validates the options and builds a worker.
func New(opts Options, deps Dependencies, log *zap.SugaredLogger) (*Worker, error) {
	if opts.Version == nil {
		return nil, errors.New("worker version is required")
	}
	if opts.Limit < 1 {
		return nil, errors.Newf("worker limit must be at least 1, got %d", opts.Limit)
	}
	switch opts.Operation {
	case OperationCreate, OperationUpgrade, OperationAll, OperationAllBackup:
	default:
		return nil, errors.Newf("unknown worker operation %q", opts.Operation)
	}
	if opts.WaitTimeout <= 0 {
		return nil, errors.New("worker wait timeout must be positive")
	}
	if deps.ControlPlane == nil {
		return nil, errors.New("control-plane client is required")
	}
	if deps.Pipeline == nil {
		return nil, errors.New("pipeline suite is required")
	}

	w := &Worker{
		opts:    opts,
		deps:    deps,
		log:     log,
		version: VersionOf(opts.Version),
		gate:    newGate(opts.Limit),
		sleeper: newSleeper(),
		active:  make(map[string]struct{}),
	}
	// waking the idle sleep when a slot frees cuts the idle->busy latency
	// from waitTimeout down to the next poll
	w.gate.onRelease = w.sleeper.Wake
	return w, nil
}

// Run performs the handshake and then polls for pending workspaces until ctx
// is cancelled. Jobs already in flight are not interrupted by cancellation;
// Run waits for them up to stopTimeout before returning.
func (w *Worker) Run(ctx context.Context) error {
	w.warnOnMemoryPressure()

	w.log.Infow("Registering worker",
		"region", w.opts.Region,
		"version", w.version.String(),
		"operation", w.opts.Operation,
		"limit", w.opts.Limit)

	_, err := retryUntilSuccess(ctx, w.log, "worker handshake", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, w.deps.ControlPlane.WorkerHandshake(ctx, w.opts.Region, w.version, w.opts.Operation)
	})
	if err != nil {
		return err
	}
	w.log.Infow("Worker registered, accepting work")

	for ctx.Err() == nil {
		if err := w.gate.acquire(ctx); err != nil {
			break
		}

		ws, err := retryUntilSuccess(ctx, w.log, "get pending workspace", func(ctx context.Context) (*WorkspaceInfo, error) {
			return w.deps.ControlPlane.GetPendingWorkspace(ctx, w.opts.Region, w.version, w.opts.Operation)
		})
		if err != nil {
			w.gate.release()
			break
		}
		if ws == nil {
			w.gate.release()
			w.sleeper.Sleep(ctx, w.opts.WaitTimeout)
			continue
		}
		if !w.track(ws.Workspace) {
			// already in flight on this worker; hand the slot back and let
			// the control-plane re-offer it once the running job reports
			w.log.Debugw("Workspace already in flight, skipping",
				"workspace", ws.Workspace)
			w.gate.release()
			w.sleeper.Sleep(ctx, w.opts.WaitTimeout)
			continue
		}

		w.wg.Add(1)
		go w.runJob(ctx, ws)
	}

	w.waitForJobs()
	return ctx.Err()
}

// runJob drives one workspace through its current phase. It owns the gate
// slot and the uniqueness entry; both are released on every exit path, and a
// panicking handler is contained here.
func (w *Worker) runJob(ctx context.Context, ws *WorkspaceInfo) {
	defer w.wg.Done()
	defer w.gate.release()
	defer w.untrack(ws.Workspace)
	defer func() {
		if r := recover(); r != nil {
			w.reportFailure(ws, errors.Newf("workspace handler panicked: %v", r))
		}
	}()

	// in-flight jobs survive loop cancellation; they finish or fail naturally
	jctx := context.WithoutCancel(ctx)

	wslog, closeLog, err := logger.ForWorkspace(ws.Workspace, w.opts.LogsDir, w.opts.Console)
	if err != nil {
		w.reportFailure(ws, err)
		return
	}
	defer closeLog()

	w.log.Infow("Picked up workspace",
		"workspace", ws.Workspace,
		"mode", ws.EffectiveMode())

	if err := w.dispatch(jctx, ws, wslog); err != nil {
		wslog.Errorw("Workspace phase failed",
			"workspace", ws.Workspace,
			"mode", ws.EffectiveMode(),
			"error", err)
		w.reportFailure(ws, err)
	}
}

// reportFailure logs a workspace-level failure and routes it to the
// configured error handler. The failure never reaches the poll loop.
func (w *Worker) reportFailure(ws *WorkspaceInfo, err error) {
	w.log.Errorw("Workspace job failed",
		"workspace", ws.Workspace,
		"mode", ws.EffectiveMode(),
		"error", err)
	if w.opts.ErrorHandler != nil {
		w.opts.ErrorHandler(ws, err)
	}
}

func (w *Worker) track(workspace string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.active[workspace]; ok {
		return false
	}
	w.active[workspace] = struct{}{}
	return true
}

func (w *Worker) untrack(workspace string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.active, workspace)
}

// InFlight returns the number of currently running workspace jobs.
func (w *Worker) InFlight() int {
	return w.gate.inFlight()
}

// waitForJobs blocks until all in-flight jobs finish or stopTimeout elapses.
func (w *Worker) waitForJobs() {
	running := w.gate.inFlight()
	if running == 0 {
		return
	}
	w.log.Infow("Waiting for in-flight workspace jobs", "jobs", running)

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		w.log.Infow("All workspace jobs finished")
	case <-time.After(stopTimeout):
		w.log.Warnw("Shutdown timed out with jobs still running",
			"jobs", w.gate.inFlight())
	}
}
