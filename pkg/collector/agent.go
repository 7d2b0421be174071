package collector

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/metrics-exporter/pkg/logger"
	"github.com/metrics-exporter/pkg/metrics"
)

// Collector 采集器核心接口（所有采集器必须实现）
type Collector interface {
	Name() string                      // 采集器名称（唯一标识，也作为指标标签）
	Init() error                       // 初始化（预检查资源）
	Collect(ctx context.Context) error // 采集数据（更新指标）
	Close() error                      // 关闭（释放资源）
}

// Agent 定时驱动所有已注册采集器，并记录每次采集的耗时和错误数
type Agent struct {
	collectors []Collector
	interval   time.Duration

	collectDuration *metrics.Histogram
	collectErrors   *prometheus.CounterVec

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewAgent 创建采集器Agent，自身指标注册到 reg
func NewAgent(interval time.Duration, reg *metrics.Registry) *Agent {
	return &Agent{
		interval: interval,
		collectDuration: reg.HistogramVec(
			"exporter_collect_duration_seconds",
			"Duration of a single collection per collector",
			"collector",
		),
		collectErrors: reg.CounterVec(
			"exporter_collect_errors_total",
			"Total number of failed collections per collector",
			"collector",
		),
	}
}

// Register 注册采集器，需在 Start 之前调用
func (a *Agent) Register(c Collector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.collectors = append(a.collectors, c)
}

// Start 初始化所有采集器并启动后台采集循环；初始化失败直接返回
func (a *Agent) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cancel != nil {
		return errors.New("collector agent already started")
	}
	for _, c := range a.collectors {
		if err := c.Init(); err != nil {
			return fmt.Errorf("collector %s init failed: %w", c.Name(), err)
		}
		logger.Debug("collector initialized successfully", zap.String("name", c.Name()))
	}

	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.done = make(chan struct{})
	collectors := append([]Collector(nil), a.collectors...)

	logger.Info("collector agent started",
		zap.Duration("interval", a.interval),
		zap.Int("collectors", len(collectors)))

	go a.loop(ctx, collectors, a.done)
	return nil
}

func (a *Agent) loop(ctx context.Context, collectors []Collector, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	// 首次立即采集，失败仅警告
	if err := a.collectAll(ctx, collectors); err != nil {
		logger.Warn("first collection failed", zap.Error(err))
	}
	for {
		select {
		case <-ticker.C:
			_ = a.collectAll(ctx, collectors)
		case <-ctx.Done():
			logger.Debug("collector agent loop stopped", zap.Error(ctx.Err()))
			return
		}
	}
}

// collectAll 依次执行所有采集器，单个采集器失败不影响其他采集器
func (a *Agent) collectAll(ctx context.Context, collectors []Collector) error {
	var failed []string
	for _, c := range collectors {
		err := a.collectDuration.ObserveDuration(c.Name(), func() error {
			return c.Collect(ctx)
		})
		if err != nil {
			a.collectErrors.WithLabelValues(c.Name()).Inc()
			logger.Warn("collection failed", zap.String("name", c.Name()), zap.Error(err))
			failed = append(failed, c.Name())
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("collectors failed: %v", failed)
	}
	return nil
}

// Shutdown 停止采集循环并关闭所有采集器，返回最后一个关闭错误。
// ctx 先于采集循环结束时返回错误且不关闭采集器，可再次调用 Shutdown 完成关闭。
func (a *Agent) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	cancel, done := a.cancel, a.done
	a.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()

	select {
	case <-done:
	case <-ctx.Done():
		return fmt.Errorf("wait for collector loop: %w", ctx.Err())
	}

	a.mu.Lock()
	if a.cancel == nil {
		// 并发的 Shutdown 已完成关闭
		a.mu.Unlock()
		return nil
	}
	a.cancel = nil
	collectors := append([]Collector(nil), a.collectors...)
	a.mu.Unlock()

	var lastErr error
	for _, c := range collectors {
		if err := c.Close(); err != nil {
			logger.Error("failed to close collector", zap.String("name", c.Name()), zap.Error(err))
			lastErr = err
		}
	}
	logger.Info("collector agent stopped")
	return lastErr
}
