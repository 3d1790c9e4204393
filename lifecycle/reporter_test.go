package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/tracelay/workspaced/errors"
)

func newTestReporter(t *testing.T) (*reporter, *fakeControlPlane) {
	t.Helper()
	cp := &fakeControlPlane{}
	rep := newReporter(cp, zaptest.NewLogger(t).Sugar(), "w1", Version{Major: 1, Minor: 2, Patch: 3})
	return rep, cp
}

func TestReporter_DedupesRoundedPercent(t *testing.T) {
	rep, cp := newTestReporter(t)
	ctx := context.Background()

	rep.Report(ctx, 10.2)
	rep.Report(ctx, 10.4) // same rounded value, no second call
	rep.Report(ctx, 11.0)

	events := cp.eventsFor("w1")
	require.Len(t, events, 2)
	assert.Equal(t, recordedEvent{"w1", EventProgress, 10}, events[0])
	assert.Equal(t, recordedEvent{"w1", EventProgress, 11}, events[1])
}

func TestReporter_IgnoresDecreases(t *testing.T) {
	rep, cp := newTestReporter(t)
	ctx := context.Background()

	rep.Report(ctx, 50)
	rep.Report(ctx, 30) // re-reported earlier percentage after a resume
	rep.Report(ctx, 60)

	events := cp.eventsFor("w1")
	require.Len(t, events, 2)
	assert.Equal(t, float64(50), events[0].Progress)
	assert.Equal(t, float64(60), events[1].Progress)
}

func TestReporter_MarkerResetsBaseline(t *testing.T) {
	rep, cp := newTestReporter(t)
	ctx := context.Background()

	require.NoError(t, rep.Marker(ctx, EventCreateStarted, 0))
	rep.Report(ctx, 25)
	require.NoError(t, rep.Marker(ctx, EventCreateDone, 100))

	events := cp.eventsFor("w1")
	require.Len(t, events, 3)
	assert.Equal(t, EventCreateStarted, events[0].Event)
	assert.Equal(t, recordedEvent{"w1", EventProgress, 25}, events[1])
	assert.Equal(t, recordedEvent{"w1", EventCreateDone, 100}, events[2])
}

func TestReporter_UpdateFailureSwallowed(t *testing.T) {
	rep, cp := newTestReporter(t)
	cp.updateErr = assert.AnError
	rep.budget = 10 * time.Millisecond

	// a dead control-plane must not stall the running job
	rep.Report(context.Background(), 10)
	assert.Empty(t, cp.eventsFor("w1"))
}

func TestReporter_MarkerFailureSurfaced(t *testing.T) {
	rep, cp := newTestReporter(t)
	cp.updateErr = assert.AnError
	rep.budget = 10 * time.Millisecond

	err := rep.Marker(context.Background(), EventCreateStarted, 0)
	require.Error(t, err)
	assert.True(t, errors.IsRetryBudgetExceeded(err))
}

func TestReporter_KeepaliveStopIdempotent(t *testing.T) {
	rep, _ := newTestReporter(t)
	stop := rep.StartKeepalive(context.Background())
	stop()
	stop()
}
