package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metrics-exporter/pkg/config"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Log.Path = t.TempDir()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "127.0.0.1:4224", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
}

func TestLoadFile(t *testing.T) {
	logDir := filepath.Join(t.TempDir(), "logs")
	path := writeFile(t, `
server:
  addr: "0.0.0.0:9000"
  read_timeout: 2s
collector:
  enable: true
  interval: 30s
  per_cpu: true
log:
  level: debug
  format: json
  path: `+logDir+`
`)

	cfg, err := config.LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Addr)
	assert.Equal(t, 2*time.Second, cfg.Server.ReadTimeout)
	// 未配置的字段保持默认值
	assert.Equal(t, 10*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, 30*time.Second, cfg.Collector.Interval)
	assert.True(t, cfg.Collector.PerCPU)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, logDir, cfg.Log.Path)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := config.LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope.yaml")
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"empty addr", func(c *config.Config) { c.Server.Addr = "" }},
		{"addr without port", func(c *config.Config) { c.Server.Addr = "localhost" }},
		{"zero shutdown timeout", func(c *config.Config) { c.Server.ShutdownTimeout = 0 }},
		{"interval too short", func(c *config.Config) { c.Collector.Interval = 100 * time.Millisecond }},
		{"interval too long", func(c *config.Config) { c.Collector.Interval = 2 * time.Hour }},
		{"bad level", func(c *config.Config) { c.Log.Level = "verbose" }},
		{"bad format", func(c *config.Config) { c.Log.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.NewDefaultConfig()
			cfg.Log.Path = t.TempDir()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDisabledCollectorSkipsIntervalCheck(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Log.Path = t.TempDir()
	cfg.Collector.Enable = false
	cfg.Collector.Interval = 0

	assert.NoError(t, cfg.Validate())
}

func TestLogPathMustBeDirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	cfg := config.NewDefaultConfig()
	cfg.Log.Path = file
	assert.Error(t, cfg.Validate())
}

func TestValidateDoesNotCreateLogDir(t *testing.T) {
	logDir := filepath.Join(t.TempDir(), "missing", "logs")

	cfg := config.NewDefaultConfig()
	cfg.Log.Path = logDir
	require.NoError(t, cfg.Validate())
	assert.NoDirExists(t, logDir)
}

func newCommand(t *testing.T) *cobra.Command {
	t.Helper()
	def := config.NewDefaultConfig()
	cmd := &cobra.Command{Use: "test"}
	f := cmd.Flags()
	f.String("config", "", "")
	f.String("server.addr", def.Server.Addr, "")
	f.Duration("server.read_timeout", def.Server.ReadTimeout, "")
	f.String("log.path", t.TempDir(), "")
	return cmd
}

func TestLoadConfigWithCliPrecedence(t *testing.T) {
	path := writeFile(t, `
server:
  addr: "127.0.0.1:7000"
  read_timeout: 3s
`)
	cmd := newCommand(t)
	require.NoError(t, cmd.Flags().Set("config", path))
	require.NoError(t, cmd.Flags().Set("server.addr", "127.0.0.1:8000"))
	t.Setenv("SERVER_READ_TIMEOUT", "4s")

	cfg, err := config.LoadConfigWithCli(cmd)
	require.NoError(t, err)

	// flag > env > file
	assert.Equal(t, "127.0.0.1:8000", cfg.Server.Addr)
	assert.Equal(t, 4*time.Second, cfg.Server.ReadTimeout)
}

func TestLoadConfigWithCliDefaults(t *testing.T) {
	cfg, err := config.LoadConfigWithCli(newCommand(t))
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:4224", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
}
