package pipeline

import (
	"bufio"
	"context"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"github.com/kballard/go-shellquote"
	"go.uber.org/zap"

	"github.com/tracelay/workspaced/config"
	"github.com/tracelay/workspaced/errors"
)

// progressPrefix marks progress lines on a pipeline tool's output:
// "PROGRESS 42.5" reports 42.5 percent.
const progressPrefix = "PROGRESS "

// ExecOps runs the create/upgrade/backup/restore operations by invoking the
// configured pipeline tools as child processes. Tool output streams into the
// per-workspace log; progress lines feed the progress callback.
type ExecOps struct {
	create  []string
	upgrade []string
	backup  []string
	restore []string
}

// NewExecOps parses the configured pipeline commands. Every command must be
// configured; the worker cannot run phases it has no tool for.
func NewExecOps(cfg config.PipelineConfig) (*ExecOps, error) {
	ops := &ExecOps{}
	for _, c := range []struct {
		name string
		raw  string
		dst  *[]string
	}{
		{"pipeline.create_cmd", cfg.CreateCmd, &ops.create},
		{"pipeline.upgrade_cmd", cfg.UpgradeCmd, &ops.upgrade},
		{"pipeline.backup_cmd", cfg.BackupCmd, &ops.backup},
		{"pipeline.restore_cmd", cfg.RestoreCmd, &ops.restore},
	} {
		argv, err := parseCommand(c.name, c.raw)
		if err != nil {
			return nil, err
		}
		*c.dst = argv
	}
	return ops, nil
}

func parseCommand(name, raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, errors.Newf("%s is not configured", name)
	}
	argv, err := shellquote.Split(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", name)
	}
	return argv, nil
}

// Create implements Creator.
func (o *ExecOps) Create(ctx context.Context, req CreateRequest, log *zap.SugaredLogger, progress ProgressFunc) error {
	args := []string{
		"--workspace", req.Workspace,
		"--uuid", req.UUID.String(),
		"--db-url", req.DatabaseURL,
	}
	if req.Branding != nil {
		if req.Branding.Title != "" {
			args = append(args, "--branding-title", req.Branding.Title)
		}
		if req.Branding.Language != "" {
			args = append(args, "--language", req.Branding.Language)
		}
		if req.Branding.InitRepo != "" {
			args = append(args, "--init-repo", req.Branding.InitRepo)
		}
	}
	return o.run(ctx, o.create, args, log, progress)
}

// Upgrade implements Upgrader.
func (o *ExecOps) Upgrade(ctx context.Context, req UpgradeRequest, log *zap.SugaredLogger, progress ProgressFunc) error {
	args := []string{
		"--workspace", req.Workspace,
		"--uuid", req.UUID.String(),
		"--db-url", req.DatabaseURL,
		"--to-version", req.ToVersion,
	}
	if req.FromVersion != "" {
		args = append(args, "--from-version", req.FromVersion)
	}
	if req.Force {
		args = append(args, "--force")
	}
	return o.run(ctx, o.upgrade, args, log, progress)
}

// Backup implements BackupRunner.
func (o *ExecOps) Backup(ctx context.Context, req BackupRequest, storage StorageAdapter, log *zap.SugaredLogger, progress ProgressFunc) (bool, error) {
	args := []string{
		"--workspace", req.Workspace,
		"--uuid", req.UUID.String(),
		"--db-url", req.DatabaseURL,
		"--storage", storage.URL(),
		"--bucket", storage.Bucket(),
	}
	if req.FullCheck {
		args = append(args, "--full-check")
	}
	if err := o.run(ctx, o.backup, args, log, progress); err != nil {
		return false, err
	}
	return true, nil
}

// Restore implements RestoreRunner.
func (o *ExecOps) Restore(ctx context.Context, req RestoreRequest, storage StorageAdapter, log *zap.SugaredLogger, progress ProgressFunc) error {
	args := []string{
		"--workspace", req.Workspace,
		"--uuid", req.UUID.String(),
		"--db-url", req.DatabaseURL,
		"--storage", storage.URL(),
		"--bucket", storage.Bucket(),
	}
	if len(req.Domains) > 0 {
		args = append(args, "--domains", strings.Join(req.Domains, ","))
	}
	return o.run(ctx, o.restore, args, log, progress)
}

func (o *ExecOps) run(ctx context.Context, base, args []string, log *zap.SugaredLogger, progress ProgressFunc) error {
	argv := make([]string, 0, len(base)+len(args))
	argv = append(argv, base...)
	argv = append(argv, args...)

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	scanned := make(chan struct{})
	go func() {
		defer close(scanned)
		scanner := bufio.NewScanner(pr)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			if rest, ok := strings.CutPrefix(line, progressPrefix); ok {
				if p, err := strconv.ParseFloat(strings.TrimSpace(rest), 64); err == nil {
					if progress != nil {
						progress(p)
					}
					continue
				}
			}
			log.Info(line)
		}
	}()

	err := cmd.Run()
	pw.Close()
	<-scanned
	if err != nil {
		return errors.Wrapf(err, "pipeline tool %s failed", argv[0])
	}
	return nil
}
