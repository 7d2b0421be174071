package exporter

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metrics-exporter/pkg/config"
	"github.com/metrics-exporter/pkg/logger"
)

func TestFlagsFeedConfig(t *testing.T) {
	cmd := newRootCommand()
	require.NoError(t, cmd.ParseFlags([]string{
		"--server.addr=127.0.0.1:9100",
		"--server.shutdown_timeout=2s",
		"--collector.per_cpu",
		"--log.level=debug",
		"--log.path=" + t.TempDir(),
	}))

	cfg, err := config.LoadConfigWithCli(cmd)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9100", cfg.Server.Addr)
	assert.Equal(t, 2*time.Second, cfg.Server.ShutdownTimeout)
	assert.True(t, cfg.Collector.PerCPU)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, defaultCfg.Collector.Interval, cfg.Collector.Interval)
}

func TestRunStopsWhenContextDone(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Server.Addr = "127.0.0.1:0"
	cfg.Log.Path = t.TempDir()
	t.Cleanup(func() { logger.Use(nil) })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, run(ctx, cfg))
}

func TestRunBindFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	cfg := config.NewDefaultConfig()
	cfg.Server.Addr = ln.Addr().String()
	cfg.Log.Path = t.TempDir()
	t.Cleanup(func() { logger.Use(nil) })

	err = run(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ln.Addr().String())
}

func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

func TestRunSlowMetricsShutdownDoesNotFail(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Server.Addr = freeAddr(t)
	cfg.Server.ShutdownTimeout = 100 * time.Millisecond
	cfg.Collector.Enable = false
	cfg.Log.Path = t.TempDir()
	t.Cleanup(func() { logger.Use(nil) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- run(ctx, cfg) }()

	var conn net.Conn
	require.Eventually(t, func() bool {
		c, err := net.Dial("tcp", cfg.Server.Addr)
		if err != nil {
			return false
		}
		conn = c
		return true
	}, 2*time.Second, 10*time.Millisecond)
	defer conn.Close()

	// 请求头未结束，连接保持活跃，指标服务无法在超时内优雅关闭
	_, err := io.WriteString(conn, "GET / HTTP/1.1\r\nHost: exporter\r\n")
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return")
	}
}
