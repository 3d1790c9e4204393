package logger

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tracelay/workspaced/errors"
)

// ForWorkspace returns a sugared logger for a single workspace job.
//
// When console is true the returned logger is a named child of the process
// logger and close is a no-op. Otherwise log lines go to <dir>/<workspace>.log
// and close flushes and releases the file handle. The file is appended to so
// successive phases of the same workspace share one log.
func ForWorkspace(workspace string, dir string, console bool) (log *zap.SugaredLogger, close func(), err error) {
	if console {
		return Logger.Named(workspace), func() {}, nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, errors.Wrap(err, "failed to create workspace log directory")
	}

	path := filepath.Join(dir, workspace+".log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to open workspace log %s", path)
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.AddSync(f),
		zap.InfoLevel,
	)

	zl := zap.New(core)
	return zl.Sugar(), func() {
		zl.Sync()
		f.Close()
	}, nil
}
