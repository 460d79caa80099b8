package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 100, cfg.RateLimit.Max)
	assert.Equal(t, 15*time.Minute, cfg.RateLimit.Window.Duration)
	assert.Equal(t, 30*time.Second, cfg.Worker.DefaultTimeout.Duration)
	assert.Equal(t, time.Hour, cfg.Session.MaxAge.Duration)
	assert.Equal(t, time.Hour, cfg.Session.SweepInterval.Duration)
	assert.Equal(t, 4, cfg.Jobs.Concurrency)
	assert.Equal(t, []string{"julia", "python", "r"}, cfg.RuntimeNames())

	assert.True(t, cfg.Runtimes["r"].MemoryLimitEnforced())
	assert.False(t, cfg.Runtimes["julia"].MemoryLimitEnforced())
}

func TestParseTOML(t *testing.T) {
	cfg, err := Parse(`
[server]
port = "9090"
proxy_header = "X-Forwarded-For"

[rate_limit]
max = 5
window = "1m"

[session]
backend = "redis"
max_age = "30m"

[runtimes.sh]
dialect = "python"
binary = "python3"
script_mode = "inline"
inline_flag = "-c"
`)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "X-Forwarded-For", cfg.Server.ProxyHeader)
	assert.Equal(t, 5, cfg.RateLimit.Max)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window.Duration)
	assert.Equal(t, "redis", cfg.Session.Backend)
	assert.Equal(t, 30*time.Minute, cfg.Session.MaxAge.Duration)
	// untouched sections keep their defaults
	assert.Equal(t, time.Hour, cfg.Session.SweepInterval.Duration)
	assert.Equal(t, []string{"julia", "python", "r", "sh"}, cfg.RuntimeNames())
	assert.Equal(t, "-c", cfg.Runtimes["sh"].InlineFlag)
}

func TestParseRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"bad duration":   "[rate_limit]\nwindow = \"soon\"\n",
		"bad backend":    "[session]\nbackend = \"mongo\"\n",
		"zero limit":     "[rate_limit]\nmax = 0\n",
		"inline no flag": "[runtimes.x]\ndialect = \"r\"\nbinary = \"R\"\nscript_mode = \"inline\"\n",
		"no dialect":     "[runtimes.x]\nbinary = \"R\"\n",
		"bad format":     "[log]\nformat = \"xml\"\n",
	}
	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(text)
			assert.Error(t, err)
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "7000")
	t.Setenv("RATE_LIMIT_MAX", "7")
	t.Setenv("RATE_LIMIT_WINDOW", "2m")
	t.Setenv("RSCRIPT_PATH", "/opt/R/bin/Rscript")
	t.Setenv("JULIA_WORKER_ENDPOINT", "julia-worker:50051")
	t.Setenv("XRAY_ENABLED", "true")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "7000", cfg.Server.Port)
	assert.Equal(t, 7, cfg.RateLimit.Max)
	assert.Equal(t, 2*time.Minute, cfg.RateLimit.Window.Duration)
	assert.Equal(t, "/opt/R/bin/Rscript", cfg.Runtimes["r"].Binary)
	assert.Equal(t, "julia-worker:50051", cfg.Runtimes["julia"].Endpoint)
	assert.True(t, cfg.XRay.Enabled)
}

func TestEnvOverridesRejectGarbage(t *testing.T) {
	t.Setenv("JOB_CONCURRENCY", "many")
	_, err := Load("")
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bert.toml")
	require.NoError(t, os.WriteFile(path, []byte("[jobs]\nconcurrency = 2\nstart_delay = \"250ms\"\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Jobs.Concurrency)
	assert.Equal(t, 250*time.Millisecond, cfg.Jobs.StartDelay.Duration)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestDurationText(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("90s")))
	assert.Equal(t, 90*time.Second, d.Duration)

	text, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1m30s", string(text))
}
