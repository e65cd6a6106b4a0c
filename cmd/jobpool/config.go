package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/utkarsh5026/jobpool/internal/logging"
)

const envPrefix = "JOBPOOL"

// Config holds the settings of one run. Keys match flag names.
type Config struct {
	LogLevel  string `mapstructure:"log-level"`
	LogFormat string `mapstructure:"log-format"`
	Metrics   bool   `mapstructure:"metrics"`

	Workers int           `mapstructure:"workers"`
	Queue   int           `mapstructure:"queue"`
	Timeout time.Duration `mapstructure:"timeout"`
	Pin     bool          `mapstructure:"pin"`

	// simulate
	Jobs      int           `mapstructure:"jobs"`
	Sleep     time.Duration `mapstructure:"sleep"`
	Spacing   time.Duration `mapstructure:"spacing"`
	FailEvery int           `mapstructure:"fail-every"`
	Retry     bool          `mapstructure:"retry"`

	// batch
	Items    int           `mapstructure:"items"`
	MaxSleep time.Duration `mapstructure:"max-sleep"`
	FailRate float64       `mapstructure:"fail-rate"`
	Seed     uint64        `mapstructure:"seed"`
}

// addPoolFlags declares the flags shared by every command that builds a pool.
func addPoolFlags(f *flag.FlagSet) {
	f.Int("workers", 2, "number of execution slots")
	f.Int("queue", 2, "waiting queue depth")
	f.Duration("timeout", time.Second, "per-job execution timeout")
	f.Bool("pin", false, "pin each slot's jobs to one CPU (Linux only)")
}

// loadConfig resolves cmd's flags against the environment and the optional
// config file. Explicitly set flags win over JOBPOOL_* variables, which win
// over the file, which wins over flag defaults.
func loadConfig(cmd *cobra.Command) (Config, error) {
	v := viper.New()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return Config{}, fmt.Errorf("binding flags: %w", err)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be at least 1, got %d", c.Workers))
	}
	if c.Queue < 0 {
		errs = append(errs, fmt.Errorf("queue must not be negative, got %d", c.Queue))
	}
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive, got %s", c.Timeout))
	}
	if c.Jobs < 0 || c.Items < 0 {
		errs = append(errs, errors.New("job and item counts must not be negative"))
	}
	if c.Sleep < 0 || c.MaxSleep < 0 || c.Spacing < 0 {
		errs = append(errs, errors.New("durations must not be negative"))
	}
	if c.FailEvery < 0 {
		errs = append(errs, fmt.Errorf("fail-every must not be negative, got %d", c.FailEvery))
	}
	if c.FailRate < 0 || c.FailRate > 1 {
		errs = append(errs, fmt.Errorf("fail-rate must be within [0, 1], got %g", c.FailRate))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

func (c Config) logger() (*zap.Logger, error) {
	return logging.New(c.LogLevel, c.LogFormat)
}
