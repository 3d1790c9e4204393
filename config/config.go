// Package config holds the workspaced daemon configuration.
package config

import (
	"os"
	"strings"
)

// Config represents the full workspaced configuration
type Config struct {
	Worker    WorkerConfig        `mapstructure:"worker"`
	Account   AccountConfig       `mapstructure:"account"`
	Database  DatabaseConfig      `mapstructure:"database"`
	Backup    BackupConfig        `mapstructure:"backup"`
	Fulltext  FulltextConfig      `mapstructure:"fulltext"`
	Pipeline  PipelineConfig      `mapstructure:"pipeline"`
	Brandings map[string]Branding `mapstructure:"brandings"`
}

// PipelineConfig names the external tools that perform the heavy lifecycle
// operations. Each is a full command line; the worker appends the workspace
// arguments and streams tool output into the workspace log.
type PipelineConfig struct {
	CreateCmd  string `mapstructure:"create_cmd"`
	UpgradeCmd string `mapstructure:"upgrade_cmd"`
	BackupCmd  string `mapstructure:"backup_cmd"`
	RestoreCmd string `mapstructure:"restore_cmd"`
}

// WorkerConfig configures the lifecycle worker identity and loop
type WorkerConfig struct {
	Version     string `mapstructure:"version"`      // semantic version the worker registers with
	Region      string `mapstructure:"region"`       // empty = default region
	Limit       int    `mapstructure:"limit"`        // max concurrent jobs (>= 1)
	Operation   string `mapstructure:"operation"`    // create | upgrade | all | all+backup
	WaitTimeout int    `mapstructure:"wait_timeout"` // idle sleep between empty polls, milliseconds
	Ignore      string `mapstructure:"ignore"`       // comma-separated workspace names excluded from upgrade
	Force       bool   `mapstructure:"force"`        // force upgrade even when versions match
	Console     bool   `mapstructure:"console"`      // log workspace jobs to stdout instead of files
	LogsDir     string `mapstructure:"logs_dir"`     // per-workspace log directory when console=false
}

// AccountConfig configures the control-plane connection
type AccountConfig struct {
	URL   string `mapstructure:"url"`
	Token string `mapstructure:"token"`
}

// DatabaseConfig configures the workspace database backend
type DatabaseConfig struct {
	URL string `mapstructure:"url"` // mongodb:// or postgresql://
}

// BackupConfig configures the backup storage target
type BackupConfig struct {
	Storage string `mapstructure:"storage"` // storage adapter URL
	Bucket  string `mapstructure:"bucket"`
}

// FulltextConfig configures the full-text reindex endpoint
type FulltextConfig struct {
	URL string `mapstructure:"url"` // empty disables reindex calls
}

// Branding describes workspace seed branding applied at creation
type Branding struct {
	Title    string `mapstructure:"title"`
	Language string `mapstructure:"language"`
	InitRepo string `mapstructure:"init_repo"` // optional seed-data source
}

// IgnoredWorkspaces returns the parsed upgrade ignore list.
func (w WorkerConfig) IgnoredWorkspaces() []string {
	if strings.TrimSpace(w.Ignore) == "" {
		return nil
	}
	parts := strings.Split(w.Ignore, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// MigrationCleanupEnabled reports whether the MIGRATION_CLEANUP environment
// gate allows the migrate-clean phase to drop workspace databases.
func MigrationCleanupEnabled() bool {
	return strings.EqualFold(os.Getenv("MIGRATION_CLEANUP"), "true")
}
