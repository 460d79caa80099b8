// Package config loads gateway settings: built-in defaults, then an optional
// TOML file, then environment overrides.
package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Duration is a time.Duration that decodes from strings like "15m"
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	dur, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = dur
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

type Config struct {
	Server    ServerConfig             `toml:"server"`
	Log       LogConfig                `toml:"log"`
	RateLimit RateLimitConfig          `toml:"rate_limit"`
	Worker    WorkerConfig             `toml:"worker"`
	Session   SessionConfig            `toml:"session"`
	Jobs      JobsConfig               `toml:"jobs"`
	Redis     RedisConfig              `toml:"redis"`
	Database  DatabaseConfig           `toml:"database"`
	Storage   StorageConfig            `toml:"storage"`
	XRay      XRayConfig               `toml:"xray"`
	Runtimes  map[string]RuntimeConfig `toml:"runtimes"`
}

type ServerConfig struct {
	Port            string   `toml:"port"`
	ProxyHeader     string   `toml:"proxy_header"`
	BodyLimit       int      `toml:"body_limit"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type RateLimitConfig struct {
	Max    int      `toml:"max"`
	Window Duration `toml:"window"`
}

type WorkerConfig struct {
	DefaultTimeout     Duration `toml:"default_timeout"`
	MaxTimeout         Duration `toml:"max_timeout"`
	DefaultMemoryLimit int64    `toml:"default_memory_limit"`
	MaxOutputBytes     int      `toml:"max_output_bytes"`
	TempDir            string   `toml:"temp_dir"`
}

type SessionConfig struct {
	Backend       string   `toml:"backend"`
	MaxAge        Duration `toml:"max_age"`
	SweepInterval Duration `toml:"sweep_interval"`
}

type JobsConfig struct {
	Concurrency int      `toml:"concurrency"`
	QueueSize   int      `toml:"queue_size"`
	StartDelay  Duration `toml:"start_delay"`
	StepTimeout Duration `toml:"step_timeout"`
}

type RedisConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// DatabaseConfig enables the execution history when Host is set
type DatabaseConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Name     string `toml:"name"`
}

type StorageConfig struct {
	Type string `toml:"type"` // none, local or s3
	Path string `toml:"path"` // directory or bucket
}

type XRayConfig struct {
	Enabled     bool   `toml:"enabled"`
	ServiceName string `toml:"service_name"`
	DaemonAddr  string `toml:"daemon_addr"`
}

// RuntimeConfig describes one language runtime. Endpoint, when set, sends
// calls to a remote gRPC worker instead of a local interpreter.
type RuntimeConfig struct {
	DisplayName        string   `toml:"display_name"`
	Dialect            string   `toml:"dialect"`
	Binary             string   `toml:"binary"`
	Args               []string `toml:"args"`
	ScriptMode         string   `toml:"script_mode"`
	InlineFlag         string   `toml:"inline_flag"`
	Extension          string   `toml:"extension"`
	Preamble           string   `toml:"preamble"`
	EnforceMemoryLimit *bool    `toml:"enforce_memory_limit"`
	Endpoint           string   `toml:"endpoint"`
	Env                []string `toml:"env"`
}

// MemoryLimitEnforced reports whether RLIMIT_AS is applied to this runtime
func (r RuntimeConfig) MemoryLimitEnforced() bool {
	return r.EnforceMemoryLimit == nil || *r.EnforceMemoryLimit
}

func boolPtr(b bool) *bool { return &b }

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            "8080",
			BodyLimit:       50 * 1024 * 1024,
			ShutdownTimeout: Duration{10 * time.Second},
		},
		Log: LogConfig{Level: "info", Format: "text"},
		RateLimit: RateLimitConfig{
			Max:    100,
			Window: Duration{15 * time.Minute},
		},
		Worker: WorkerConfig{
			DefaultTimeout:     Duration{30 * time.Second},
			MaxTimeout:         Duration{10 * time.Minute},
			DefaultMemoryLimit: 512 * 1024 * 1024,
			MaxOutputBytes:     10 * 1024 * 1024,
		},
		Session: SessionConfig{
			Backend:       "memory",
			MaxAge:        Duration{time.Hour},
			SweepInterval: Duration{time.Hour},
		},
		Jobs: JobsConfig{
			Concurrency: 4,
			QueueSize:   64,
			StartDelay:  Duration{100 * time.Millisecond},
			StepTimeout: Duration{5 * time.Minute},
		},
		Redis: RedisConfig{Host: "localhost", Port: 6379},
		Database: DatabaseConfig{
			Port: 5432,
			User: "bert",
			Name: "bert",
		},
		Storage: StorageConfig{Type: "none", Path: "/data/scripts"},
		XRay:    XRayConfig{ServiceName: "bert-gateway"},
		Runtimes: map[string]RuntimeConfig{
			"r": {
				DisplayName: "R",
				Dialect:     "r",
				Binary:      "Rscript",
				Args:        []string{"--vanilla"},
				ScriptMode:  "file",
				Extension:   ".R",
			},
			"julia": {
				DisplayName: "Julia",
				Dialect:     "julia",
				Binary:      "julia",
				Args:        []string{"--startup-file=no", "--quiet"},
				ScriptMode:  "file",
				Extension:   ".jl",
				// the Julia runtime reserves more address space than any sane limit
				EnforceMemoryLimit: boolPtr(false),
			},
			"python": {
				DisplayName: "Python",
				Dialect:     "python",
				Binary:      "python3",
				ScriptMode:  "file",
				Extension:   ".py",
			},
		},
	}
}

// Load builds the configuration. path may be empty, in which case only
// defaults and environment are used.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Parse decodes TOML text on top of the defaults
func Parse(data string) (*Config, error) {
	cfg := Default()
	if _, err := toml.Decode(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	c.Server.Port = getEnv("SERVER_PORT", c.Server.Port)
	c.Server.ProxyHeader = getEnv("PROXY_HEADER", c.Server.ProxyHeader)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)

	c.Session.Backend = getEnv("SESSION_BACKEND", c.Session.Backend)
	c.Redis.Host = getEnv("REDIS_HOST", c.Redis.Host)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.Name = getEnv("DB_NAME", c.Database.Name)
	c.Storage.Type = getEnv("STORAGE_TYPE", c.Storage.Type)
	c.Storage.Path = getEnv("STORAGE_PATH", c.Storage.Path)
	c.Worker.TempDir = getEnv("WORKER_TEMP_DIR", c.Worker.TempDir)

	var err error
	ints := []struct {
		key string
		dst *int
	}{
		{"REDIS_PORT", &c.Redis.Port},
		{"DB_PORT", &c.Database.Port},
		{"RATE_LIMIT_MAX", &c.RateLimit.Max},
		{"JOB_CONCURRENCY", &c.Jobs.Concurrency},
		{"JOB_QUEUE_SIZE", &c.Jobs.QueueSize},
	}
	for _, e := range ints {
		if *e.dst, err = getEnvInt(e.key, *e.dst); err != nil {
			return err
		}
	}

	durations := []struct {
		key string
		dst *Duration
	}{
		{"RATE_LIMIT_WINDOW", &c.RateLimit.Window},
		{"WORKER_TIMEOUT", &c.Worker.DefaultTimeout},
		{"SESSION_MAX_AGE", &c.Session.MaxAge},
		{"SWEEP_INTERVAL", &c.Session.SweepInterval},
	}
	for _, e := range durations {
		if e.dst.Duration, err = getEnvDuration(e.key, e.dst.Duration); err != nil {
			return err
		}
	}

	if v := os.Getenv("XRAY_ENABLED"); v != "" {
		c.XRay.Enabled = v == "true" || v == "1"
	}
	c.XRay.DaemonAddr = getEnv("AWS_XRAY_DAEMON_ADDRESS", c.XRay.DaemonAddr)

	binaries := map[string]string{"r": "RSCRIPT_PATH", "julia": "JULIA_PATH", "python": "PYTHON_PATH"}
	for name, rt := range c.Runtimes {
		if key, ok := binaries[name]; ok {
			rt.Binary = getEnv(key, rt.Binary)
		}
		rt.Endpoint = getEnv(strings.ToUpper(name)+"_WORKER_ENDPOINT", rt.Endpoint)
		c.Runtimes[name] = rt
	}
	return nil
}

// Validate checks values that would otherwise fail later at startup
func (c *Config) Validate() error {
	if c.RateLimit.Max <= 0 {
		return fmt.Errorf("rate_limit.max must be positive")
	}
	if c.RateLimit.Window.Duration <= 0 {
		return fmt.Errorf("rate_limit.window must be positive")
	}
	if c.Worker.DefaultTimeout.Duration <= 0 {
		return fmt.Errorf("worker.default_timeout must be positive")
	}
	switch c.Session.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown session backend: %q", c.Session.Backend)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format: %q", c.Log.Format)
	}
	if len(c.Runtimes) == 0 {
		return fmt.Errorf("no runtimes configured")
	}
	for name, rt := range c.Runtimes {
		if rt.Endpoint == "" && rt.Binary == "" {
			return fmt.Errorf("runtime %s: binary or endpoint is required", name)
		}
		if rt.Dialect == "" {
			return fmt.Errorf("runtime %s: dialect is required", name)
		}
		switch rt.ScriptMode {
		case "", "file":
		case "inline":
			if rt.InlineFlag == "" {
				return fmt.Errorf("runtime %s: inline script mode needs inline_flag", name)
			}
		default:
			return fmt.Errorf("runtime %s: unknown script mode %q", name, rt.ScriptMode)
		}
	}
	return nil
}

// RuntimeNames returns the configured runtime names, sorted
func (c *Config) RuntimeNames() []string {
	names := make([]string, 0, len(c.Runtimes))
	for name := range c.Runtimes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", key, value)
	}
	return n, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q", key, value)
	}
	return d, nil
}
