package lifecycle

import (
	"context"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// keepaliveInterval is how often a long-running job pings the
	// control-plane with its latest progress.
	keepaliveInterval = 5 * time.Second

	// updateRetryBudget bounds retries of a single progress or ping update so
	// a dead control-plane cannot stall a running job.
	updateRetryBudget = 5 * time.Second
)

// reporter owns progress reporting for one (workspace, phase) execution.
// Progress is rounded to an integer percent and an update is emitted only
// when the rounded value changes; the emitted sequence is monotone
// non-decreasing within the phase.
type reporter struct {
	cp        ControlPlane
	log       *zap.SugaredLogger
	workspace string
	version   Version
	budget    time.Duration // per-update retry budget

	mu       sync.Mutex
	latest   float64
	lastSent int
}

func newReporter(cp ControlPlane, log *zap.SugaredLogger, workspace string, version Version) *reporter {
	return &reporter{
		cp:        cp,
		log:       log,
		workspace: workspace,
		version:   version,
		budget:    updateRetryBudget,
		lastSent:  -1,
	}
}

// Report records progress p and emits a progress event when the rounded
// percent advanced. Update failures are retried within the budget and then
// swallowed; the next report supersedes them.
func (r *reporter) Report(ctx context.Context, p float64) {
	r.mu.Lock()
	if p < r.latest {
		// external pipelines occasionally re-report an earlier percentage
		// after a resume; the emitted sequence stays monotone
		r.mu.Unlock()
		return
	}
	r.latest = p
	rounded := int(math.Round(p))
	if rounded == r.lastSent {
		r.mu.Unlock()
		return
	}
	r.lastSent = rounded
	r.mu.Unlock()

	r.send(ctx, EventProgress, float64(rounded), "")
}

// ReportFunc adapts Report to the progress callback collaborators expect.
func (r *reporter) ReportFunc(ctx context.Context) func(float64) {
	return func(p float64) { r.Report(ctx, p) }
}

// Marker emits a phase marker such as create-started or restore-done.
func (r *reporter) Marker(ctx context.Context, event Event, progress float64) error {
	r.mu.Lock()
	r.latest = progress
	r.lastSent = int(math.Round(progress))
	r.mu.Unlock()

	_, err := retryUntilTimeout(ctx, r.log, string(event), r.budget, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, r.cp.UpdateWorkspaceInfo(ctx, r.workspace, event, r.version, progress, "")
	})
	return err
}

// StartKeepalive launches the periodic ping carrying the latest observed
// progress. The returned stop function is idempotent and must be called on
// every exit path.
func (r *reporter) StartKeepalive(ctx context.Context) (stop func()) {
	kctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(keepaliveInterval)
		defer ticker.Stop()
		for {
			select {
			case <-kctx.Done():
				return
			case <-ticker.C:
				r.mu.Lock()
				p := r.latest
				r.mu.Unlock()
				r.send(kctx, EventPing, p, "")
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}
}

// send delivers one update under the bounded retry budget, swallowing failure.
func (r *reporter) send(ctx context.Context, event Event, progress float64, message string) {
	_, err := retryUntilTimeout(ctx, r.log, string(event), r.budget, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, r.cp.UpdateWorkspaceInfo(ctx, r.workspace, event, r.version, progress, message)
	})
	if err != nil && ctx.Err() == nil {
		r.log.Warnw("Dropped workspace update",
			"workspace", r.workspace,
			"event", event,
			"progress", progress,
			"error", err)
	}
}
