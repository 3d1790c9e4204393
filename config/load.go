package config

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/tracelay/workspaced/errors"
)

var validOperations = map[string]bool{
	"create":     true,
	"upgrade":    true,
	"all":        true,
	"all+backup": true,
}

// Load reads configuration from the given file (TOML) merged with
// WORKSPACED_* environment variables. An empty path loads defaults and
// environment only.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("WORKSPACED")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", path)
		}
	}

	return LoadWithViper(v)
}

// LoadWithViper unmarshals and validates configuration from a prepared Viper
// instance.
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration invariants the worker relies on.
func (c *Config) Validate() error {
	if c.Worker.Limit < 1 {
		return errors.Newf("worker.limit must be >= 1, got %d", c.Worker.Limit)
	}
	if !validOperations[c.Worker.Operation] {
		return errors.Newf("worker.operation must be one of create, upgrade, all, all+backup; got %q", c.Worker.Operation)
	}
	if c.Worker.WaitTimeout <= 0 {
		return errors.Newf("worker.wait_timeout must be positive, got %d", c.Worker.WaitTimeout)
	}
	if c.Account.URL == "" {
		return errors.New("account.url is required")
	}
	return nil
}
