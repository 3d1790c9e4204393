package pipeline

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/tracelay/workspaced/config"
)

func execConfig(createCmd string) config.PipelineConfig {
	return config.PipelineConfig{
		CreateCmd:  createCmd,
		UpgradeCmd: "true",
		BackupCmd:  "true",
		RestoreCmd: "true",
	}
}

func TestNewExecOps_RequiresAllCommands(t *testing.T) {
	_, err := NewExecOps(config.PipelineConfig{CreateCmd: "create-tool"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upgrade_cmd")

	_, err = NewExecOps(config.PipelineConfig{
		CreateCmd:  `tool --flag "unterminated`,
		UpgradeCmd: "true", BackupCmd: "true", RestoreCmd: "true",
	})
	assert.Error(t, err)
}

func TestExecOps_ProgressProtocol(t *testing.T) {
	ops, err := NewExecOps(execConfig(`sh -c "echo PROGRESS 25; echo copying models; echo PROGRESS 75.5"`))
	require.NoError(t, err)

	core, logs := observer.New(zap.InfoLevel)
	log := zap.New(core).Sugar()

	var progress []float64
	err = ops.Create(context.Background(), CreateRequest{
		Workspace:   "ws-alpha",
		UUID:        uuid.New(),
		DatabaseURL: "postgresql://localhost/ws",
	}, log, func(p float64) { progress = append(progress, p) })
	require.NoError(t, err)

	assert.Equal(t, []float64{25, 75.5}, progress)

	// non-progress output goes to the workspace log
	var lines []string
	for _, e := range logs.All() {
		lines = append(lines, e.Message)
	}
	assert.Contains(t, lines, "copying models")
}

func TestExecOps_ToolFailure(t *testing.T) {
	ops, err := NewExecOps(execConfig(`sh -c "echo PROGRESS 10; exit 3"`))
	require.NoError(t, err)

	var progress []float64
	err = ops.Create(context.Background(), CreateRequest{
		Workspace: "ws-alpha",
		UUID:      uuid.New(),
	}, zaptest.NewLogger(t).Sugar(), func(p float64) { progress = append(progress, p) })
	require.Error(t, err)
	// progress emitted before the crash still reached the callback
	assert.Equal(t, []float64{10}, progress)
}

func TestExecOps_BackupReportsCompletion(t *testing.T) {
	ops, err := NewExecOps(config.PipelineConfig{
		CreateCmd:  "true",
		UpgradeCmd: "true",
		BackupCmd:  "true",
		RestoreCmd: "true",
	})
	require.NoError(t, err)

	storage := &fsAdapter{rawURL: "file:///tmp/backups", root: t.TempDir(), bucket: "backups"}
	ok, err := ops.Backup(context.Background(), BackupRequest{
		Workspace: "ws-alpha",
		UUID:      uuid.New(),
		FullCheck: true,
	}, storage, zaptest.NewLogger(t).Sugar(), nil)
	require.NoError(t, err)
	assert.True(t, ok)
}
