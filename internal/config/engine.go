package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/JaimeStill/cascade/internal/engine"
)

const (
	EnvEngineWorkers         = "CASCADE_ENGINE_WORKERS"
	EnvEngineQueueSize       = "CASCADE_ENGINE_QUEUE_SIZE"
	EnvEngineDispatchTimeout = "CASCADE_ENGINE_DISPATCH_TIMEOUT"
	EnvEngineOutputPrefix    = "CASCADE_ENGINE_OUTPUT_PREFIX"
)

// EngineConfig holds worker pool sizing and dispatch timeouts for the
// execution engine. OperationTimeouts keys are operation names; values
// override DispatchTimeout for that operation. OutputPrefix is the blob
// key prefix execution results are persisted under.
type EngineConfig struct {
	Workers           int               `toml:"workers"`
	QueueSize         int               `toml:"queue_size"`
	DispatchTimeout   string            `toml:"dispatch_timeout"`
	OutputPrefix      string            `toml:"output_prefix"`
	OperationTimeouts map[string]string `toml:"operation_timeouts"`
}

// DispatcherConfig converts the parsed settings into the engine's
// dispatcher configuration.
func (c *EngineConfig) DispatcherConfig() engine.DispatcherConfig {
	timeout, _ := time.ParseDuration(c.DispatchTimeout)

	overrides := make(map[string]time.Duration, len(c.OperationTimeouts))
	for operation, raw := range c.OperationTimeouts {
		if d, err := time.ParseDuration(raw); err == nil {
			overrides[operation] = d
		}
	}

	return engine.DispatcherConfig{
		Workers:           c.Workers,
		QueueSize:         c.QueueSize,
		Timeout:           timeout,
		OperationTimeouts: overrides,
	}
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *EngineConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay. Operation timeout
// overrides merge per key.
func (c *EngineConfig) Merge(overlay *EngineConfig) {
	if overlay.Workers != 0 {
		c.Workers = overlay.Workers
	}
	if overlay.QueueSize != 0 {
		c.QueueSize = overlay.QueueSize
	}
	if overlay.DispatchTimeout != "" {
		c.DispatchTimeout = overlay.DispatchTimeout
	}
	if overlay.OutputPrefix != "" {
		c.OutputPrefix = overlay.OutputPrefix
	}
	for operation, timeout := range overlay.OperationTimeouts {
		if c.OperationTimeouts == nil {
			c.OperationTimeouts = make(map[string]string)
		}
		c.OperationTimeouts[operation] = timeout
	}
}

func (c *EngineConfig) loadDefaults() {
	if c.Workers == 0 {
		c.Workers = 2
	}
	if c.QueueSize == 0 {
		c.QueueSize = 64
	}
	if c.DispatchTimeout == "" {
		c.DispatchTimeout = "5m"
	}
	if c.OutputPrefix == "" {
		c.OutputPrefix = "executions"
	}
}

func (c *EngineConfig) loadEnv() {
	// Worker and queue overrides must be positive to take effect.
	if v := os.Getenv(EnvEngineWorkers); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Workers = n
		}
	}
	if v := os.Getenv(EnvEngineQueueSize); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.QueueSize = n
		}
	}
	envString(EnvEngineDispatchTimeout, &c.DispatchTimeout)
	envString(EnvEngineOutputPrefix, &c.OutputPrefix)
}

func (c *EngineConfig) validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("invalid workers: %d", c.Workers)
	}
	if c.QueueSize < 1 {
		return fmt.Errorf("invalid queue_size: %d", c.QueueSize)
	}
	if _, err := time.ParseDuration(c.DispatchTimeout); err != nil {
		return fmt.Errorf("invalid dispatch_timeout: %w", err)
	}
	for operation, timeout := range c.OperationTimeouts {
		if _, err := time.ParseDuration(timeout); err != nil {
			return fmt.Errorf("invalid operation timeout %s: %w", operation, err)
		}
	}
	return nil
}
