package config

import "github.com/spf13/viper"

// Default worker loop values
const (
	DefaultLimit       = 5
	DefaultWaitTimeout = 5000 // ms
	DefaultLogsDir     = "logs"
	DefaultOperation   = "all"
)

// SetDefaults applies default configuration values to a Viper instance
func SetDefaults(v *viper.Viper) {
	v.SetDefault("worker.version", "0.1.0")
	v.SetDefault("worker.region", "")
	v.SetDefault("worker.limit", DefaultLimit)
	v.SetDefault("worker.operation", DefaultOperation)
	v.SetDefault("worker.wait_timeout", DefaultWaitTimeout)
	v.SetDefault("worker.console", false)
	v.SetDefault("worker.logs_dir", DefaultLogsDir)

	v.SetDefault("account.url", "http://localhost:3000")

	v.SetDefault("backup.bucket", "backups")
}
