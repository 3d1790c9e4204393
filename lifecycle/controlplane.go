package lifecycle

import "context"

// ControlPlane is the account service surface the worker consumes. All durable
// workspace state lives behind it; the worker only observes and reports.
type ControlPlane interface {
	// WorkerHandshake announces the worker's capabilities. Idempotent.
	WorkerHandshake(ctx context.Context, region string, version Version, operation string) error

	// GetPendingWorkspace requests one workspace whose mode matches the
	// worker's declared capabilities. Returns nil when no work is pending.
	GetPendingWorkspace(ctx context.Context, region string, version Version, operation string) (*WorkspaceInfo, error)

	// UpdateWorkspaceInfo reports a lifecycle event with the given progress.
	UpdateWorkspaceInfo(ctx context.Context, workspace string, event Event, version Version, progress float64, message string) error

	// GetTransactorEndpoint resolves the current serving-tier endpoint.
	GetTransactorEndpoint(ctx context.Context) (string, error)
}

// SessionCloser force-closes live serving sessions against a workspace before
// destructive phases. Calls are best-effort; the serving tier may be down.
type SessionCloser interface {
	ForceClose(ctx context.Context, endpoint string) error
}

// Reindexer asks the full-text service to rebuild or drop its indexes after a
// restore or cleanup. Failures are logged and swallowed by callers; reindexing
// can be retried out-of-band.
type Reindexer interface {
	Reindex(ctx context.Context, onlyDrop bool) error
}
