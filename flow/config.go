package flow

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables recognized at runtime startup.
const (
	// EnvThreadPoolSize overrides the shared worker pool size.
	EnvThreadPoolSize = "ROUTILUX_THREAD_POOL_SIZE"

	// EnvExecutionTimeout overrides the default per-job timeout, in
	// seconds. Zero or unset means unbounded.
	EnvExecutionTimeout = "ROUTILUX_EXECUTION_TIMEOUT"

	// EnvEnableMonitoring sets Config.EnableMonitoring. The engine does
	// not act on it; hooks are installed only through SetHooks.
	EnvEnableMonitoring = "ROUTILUX_ENABLE_MONITORING"
)

// Config is the recognized runtime startup configuration, loadable from
// the environment and optionally from a YAML file.
type Config struct {
	// ThreadPoolSize is the shared worker pool size. Must be >= 1;
	// values above 1000 validate but are flagged by Warnings.
	ThreadPoolSize int `yaml:"thread_pool_size"`

	// ExecutionTimeoutSeconds is the default per-job timeout in seconds.
	// Zero means unbounded.
	ExecutionTimeoutSeconds float64 `yaml:"execution_timeout"`

	// EnableMonitoring records whether monitoring is requested. Options
	// does not apply it and no hooks are installed from it; the active
	// hooks are whatever SetHooks last installed (null hooks by default).
	EnableMonitoring bool `yaml:"enable_monitoring"`

	// JobRetentionSeconds is a job retention period in seconds, read from
	// YAML only. Options does not apply it to any job registry; registry
	// retention is set with WithRetention on NewJobRegistry.
	JobRetentionSeconds float64 `yaml:"job_retention"`
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		ThreadPoolSize: defaultThreadPoolSize,
	}
}

// LoadConfig builds a Config from defaults overlaid with recognized
// environment variables. Malformed values fail loudly rather than being
// silently dropped.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	if raw := os.Getenv(EnvThreadPoolSize); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return cfg, &FlowError{
				Message: fmt.Sprintf("%s: invalid integer %q", EnvThreadPoolSize, raw),
				Code:    "INVALID_CONFIG",
			}
		}
		cfg.ThreadPoolSize = n
	}

	if raw := os.Getenv(EnvExecutionTimeout); raw != "" {
		secs, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return cfg, &FlowError{
				Message: fmt.Sprintf("%s: invalid number %q", EnvExecutionTimeout, raw),
				Code:    "INVALID_CONFIG",
			}
		}
		cfg.ExecutionTimeoutSeconds = secs
	}

	if raw := os.Getenv(EnvEnableMonitoring); raw != "" {
		enabled, err := strconv.ParseBool(raw)
		if err != nil {
			return cfg, &FlowError{
				Message: fmt.Sprintf("%s: invalid boolean %q", EnvEnableMonitoring, raw),
				Code:    "INVALID_CONFIG",
			}
		}
		cfg.EnableMonitoring = enabled
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadConfigFile reads a YAML config file and overlays it on the defaults.
// Environment variables are not consulted; compose with LoadConfig if both
// sources matter.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, &FlowError{
			Message: "invalid config file " + path + ": " + err.Error(),
			Code:    "INVALID_CONFIG",
		}
	}
	if cfg.ThreadPoolSize == 0 {
		cfg.ThreadPoolSize = defaultThreadPoolSize
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks hard constraints. Soft concerns are reported by
// Warnings instead.
func (c Config) Validate() error {
	if c.ThreadPoolSize < 1 {
		return &FlowError{
			Message: fmt.Sprintf("thread_pool_size must be at least 1, got %d", c.ThreadPoolSize),
			Code:    "INVALID_CONFIG",
		}
	}
	if c.ExecutionTimeoutSeconds < 0 {
		return &FlowError{
			Message: "execution_timeout cannot be negative",
			Code:    "INVALID_CONFIG",
		}
	}
	return nil
}

// Warnings returns human-readable notes about legal-but-suspect settings.
func (c Config) Warnings() []string {
	var out []string
	if c.ThreadPoolSize > largePoolWarnThreshold {
		out = append(out, fmt.Sprintf(
			"thread_pool_size %d is unusually large and may exhaust resources", c.ThreadPoolSize))
	}
	return out
}

// ExecutionTimeout returns the configured default job timeout as a
// duration. Zero means unbounded.
func (c Config) ExecutionTimeout() time.Duration {
	return time.Duration(c.ExecutionTimeoutSeconds * float64(time.Second))
}

// Options converts the config into runtime options.
func (c Config) Options() []Option {
	return []Option{
		WithThreadPoolSize(c.ThreadPoolSize),
		WithExecutionTimeout(c.ExecutionTimeout()),
	}
}
