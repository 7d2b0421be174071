package collector

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
	"go.uber.org/zap"

	"github.com/metrics-exporter/pkg/config"
	"github.com/metrics-exporter/pkg/logger"
	"github.com/metrics-exporter/pkg/metrics"
)

// hostSource 主机数据源，默认由 gopsutil 实现，测试中替换
type hostSource interface {
	CPUPercent(ctx context.Context, perCPU bool) ([]float64, error)
	CPUCount(ctx context.Context) (int, error)
	LoadAvg(ctx context.Context) (*load.AvgStat, error)
	VirtualMemory(ctx context.Context) (*mem.VirtualMemoryStat, error)
}

type gopsutilSource struct{}

func (gopsutilSource) CPUPercent(ctx context.Context, perCPU bool) ([]float64, error) {
	return cpu.PercentWithContext(ctx, 0, perCPU)
}

func (gopsutilSource) CPUCount(ctx context.Context) (int, error) {
	return cpu.CountsWithContext(ctx, true)
}

func (gopsutilSource) LoadAvg(ctx context.Context) (*load.AvgStat, error) {
	return load.AvgWithContext(ctx)
}

func (gopsutilSource) VirtualMemory(ctx context.Context) (*mem.VirtualMemoryStat, error) {
	return mem.VirtualMemoryWithContext(ctx)
}

// HostCollector 主机指标采集器（CPU使用率、负载、内存）
type HostCollector struct {
	name   string
	perCPU bool
	src    hostSource

	cpuUsage    *prometheus.GaugeVec // CPU使用率（0-1），标签 cpu
	cpuCount    prometheus.Gauge     // 逻辑核心数
	load1       prometheus.Gauge
	load5       prometheus.Gauge
	load15      prometheus.Gauge
	memoryBytes *prometheus.GaugeVec // 内存字节数，标签 state
}

// NewHostCollector 创建主机采集器并注册其指标
func NewHostCollector(cfg config.CollectorConfig, reg *metrics.Registry) *HostCollector {
	return newHostCollector(cfg, reg, gopsutilSource{})
}

func newHostCollector(cfg config.CollectorConfig, reg *metrics.Registry, src hostSource) *HostCollector {
	return &HostCollector{
		name:        "host",
		perCPU:      cfg.PerCPU,
		src:         src,
		cpuUsage:    reg.GaugeVec("host_cpu_usage_ratio", "CPU usage ratio since the previous collection", "cpu"),
		cpuCount:    reg.Gauge("host_cpu_count", "Number of logical CPUs"),
		load1:       reg.Gauge("host_load1", "1 minute load average"),
		load5:       reg.Gauge("host_load5", "5 minute load average"),
		load15:      reg.Gauge("host_load15", "15 minute load average"),
		memoryBytes: reg.GaugeVec("host_memory_bytes", "Virtual memory in bytes by state", "state"),
	}
}

// Name 返回采集器名称
func (c *HostCollector) Name() string { return c.name }

// Init 预检查CPU可用性，并记录核心数（静态信息只采集一次）
func (c *HostCollector) Init() error {
	n, err := c.src.CPUCount(context.Background())
	if err != nil {
		return fmt.Errorf("get cpu count: %w", err)
	}
	c.cpuCount.Set(float64(n))
	return nil
}

// Collect 执行一次采集；某一项失败时其余项照常更新，错误合并返回
func (c *HostCollector) Collect(ctx context.Context) error {
	var errs []error

	if usage, err := c.src.CPUPercent(ctx, c.perCPU); err != nil {
		errs = append(errs, fmt.Errorf("get cpu usage: %w", err))
	} else {
		c.setCPUUsage(usage)
	}

	if avg, err := c.src.LoadAvg(ctx); err != nil {
		errs = append(errs, fmt.Errorf("get load average: %w", err))
	} else {
		c.load1.Set(avg.Load1)
		c.load5.Set(avg.Load5)
		c.load15.Set(avg.Load15)
	}

	if vm, err := c.src.VirtualMemory(ctx); err != nil {
		errs = append(errs, fmt.Errorf("get virtual memory: %w", err))
	} else {
		c.memoryBytes.WithLabelValues("total").Set(float64(vm.Total))
		c.memoryBytes.WithLabelValues("available").Set(float64(vm.Available))
		c.memoryBytes.WithLabelValues("used").Set(float64(vm.Used))
		c.memoryBytes.WithLabelValues("free").Set(float64(vm.Free))
	}

	return errors.Join(errs...)
}

func (c *HostCollector) setCPUUsage(usage []float64) {
	if len(usage) == 0 {
		return
	}
	if !c.perCPU {
		c.cpuUsage.WithLabelValues("total").Set(usage[0] / 100)
		return
	}
	for i, u := range usage {
		c.cpuUsage.WithLabelValues(fmt.Sprintf("cpu%d", i)).Set(u / 100)
	}
	logger.Debug("collected per-cpu usage", zap.Int("cpus", len(usage)))
}

// Close 无资源需要释放
func (c *HostCollector) Close() error {
	return nil
}
