package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/tracelay/workspaced/errors"
)

// PostgresDestroyer drops workspace databases on a PostgreSQL cluster. It
// connects per call against the configured maintenance URL; workspace
// deletion is rare enough that pooling is not worth carrying.
type PostgresDestroyer struct {
	adminURL string
	log      *zap.SugaredLogger
}

// NewPostgresDestroyer creates the destroy adapter for postgresql:// URLs.
func NewPostgresDestroyer(adminURL string, log *zap.SugaredLogger) *PostgresDestroyer {
	return &PostgresDestroyer{adminURL: adminURL, log: log}
}

// DeleteWorkspace implements Destroyer. Live backends are terminated first so
// the drop does not block on lingering sessions the transactor failed to
// close.
func (d *PostgresDestroyer) DeleteWorkspace(ctx context.Context, req DeleteRequest) error {
	conn, err := pgx.Connect(ctx, d.adminURL)
	if err != nil {
		return errors.Wrap(err, "failed to connect to postgres")
	}
	defer conn.Close(ctx)

	dbName := workspaceDatabaseName(req.Name)

	if _, err := conn.Exec(ctx,
		`SELECT pg_terminate_backend(pid) FROM pg_stat_activity WHERE datname = $1 AND pid <> pg_backend_pid()`,
		dbName); err != nil {
		d.log.Warnw("Failed to terminate workspace backends",
			"workspace", req.Name,
			"database", dbName,
			"error", err)
	}

	drop := fmt.Sprintf(`DROP DATABASE IF EXISTS %s`, pgx.Identifier{dbName}.Sanitize())
	if _, err := conn.Exec(ctx, drop); err != nil {
		return errors.Wrapf(err, "failed to drop database %s", dbName)
	}

	d.log.Infow("Dropped workspace database",
		"workspace", req.Name,
		"database", dbName)
	return nil
}

// workspaceDatabaseName maps a workspace id to its database name. Hyphens are
// not valid unquoted identifier characters, so they become underscores the
// same way the provisioning side does it.
func workspaceDatabaseName(workspace string) string {
	return strings.ReplaceAll(workspace, "-", "_")
}
