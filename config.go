package adminguard

import (
	"fmt"
	"strings"
	"time"
)

// maxClockSkew bounds the grace window past exp.
const maxClockSkew = 5 * time.Minute

// Config holds Engine settings.
//
// Config instances are intended to be configured during initialization and then treated as immutable.
type Config struct {
	// LoginPath is the view a denied session is sent to.
	LoginPath string
	// HomePath is the view shown after a successful login.
	HomePath string
	// ClockSkew is the grace window past the token's exp claim. Zero is strict.
	ClockSkew time.Duration
	Audit     AuditConfig
	Metrics   MetricsConfig
	Store     StoreConfig
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process counters and the evaluate latency histogram.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// StoreBackend names a session store implementation.
type StoreBackend string

const (
	// StoreMemory keeps the session in process memory.
	StoreMemory StoreBackend = "memory"
	// StoreFile keeps the session in a JSON file shared by console processes.
	StoreFile StoreBackend = "file"
	// StoreRedis keeps the session in a Redis hash with pub/sub notifications.
	StoreRedis StoreBackend = "redis"
)

// StoreConfig selects and locates the session store. The Engine itself takes an
// opened store.Store; this section is read by the console when opening one.
type StoreConfig struct {
	Backend     StoreBackend
	Path        string
	RedisAddr   string
	RedisPrefix string
}

// DefaultConfig returns the settings used when none are supplied.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		LoginPath: "/login",
		HomePath:  "/dashboard",
		ClockSkew: 0,
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
		Store: StoreConfig{
			Backend:     StoreMemory,
			RedisPrefix: "farm2go",
		},
	}
}

func cloneConfig(cfg Config) Config {
	return cfg
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.LoginPath, "/") {
		return fmt.Errorf("%w: LoginPath must start with /", ErrInvalidConfig)
	}
	if !strings.HasPrefix(c.HomePath, "/") {
		return fmt.Errorf("%w: HomePath must start with /", ErrInvalidConfig)
	}
	if c.HomePath == c.LoginPath {
		return fmt.Errorf("%w: HomePath must differ from LoginPath", ErrInvalidConfig)
	}
	if c.ClockSkew < 0 {
		return fmt.Errorf("%w: ClockSkew must be >= 0", ErrInvalidConfig)
	}
	if c.ClockSkew > maxClockSkew {
		return fmt.Errorf("%w: ClockSkew must be <= %s", ErrInvalidConfig, maxClockSkew)
	}
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return fmt.Errorf("%w: Audit BufferSize must be > 0 when enabled", ErrInvalidConfig)
	}
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return fmt.Errorf("%w: latency histograms require Metrics Enabled", ErrInvalidConfig)
	}

	switch c.Store.Backend {
	case StoreMemory:
	case StoreFile:
		if c.Store.Path == "" {
			return fmt.Errorf("%w: file store requires Store Path", ErrInvalidConfig)
		}
	case StoreRedis:
		if c.Store.RedisAddr == "" {
			return fmt.Errorf("%w: redis store requires Store RedisAddr", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unsupported store backend %q", ErrInvalidConfig, c.Store.Backend)
	}

	return nil
}
