// Package metrics 进程内指标注册器与HTTP导出：注册 counter/gauge/histogram，
// 在后台HTTP服务上以文本格式暴露全部指标，并提供耗时、大小观测辅助。
//
// 所有指标应在初始化阶段创建，之后由任意goroutine并发更新。Registry 不提供注销操作。
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/metrics-exporter/internal/server"
	"github.com/metrics-exporter/pkg/config"
	"github.com/metrics-exporter/pkg/logger"
)

// Registry 持有指标注册器和后台抓取服务，二者一起通过 Close 释放
type Registry struct {
	reg       Registers
	server    *server.HTTPServer
	closeOnce sync.Once
}

// New 使用默认超时在 addr 上启动指标服务
func New(addr string) (*Registry, error) {
	cfg := config.NewDefaultConfig().Server
	cfg.Addr = addr
	return NewWithConfig(cfg)
}

// NewWithConfig 创建注册器、注册进程指标采集器并启动指标服务。
// 监听失败返回带地址的错误；进程采集器注册失败直接 panic。
func NewWithConfig(cfg config.ServerConfig) (*Registry, error) {
	reg := NewPromRegistry(prometheus.NewRegistry())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	srv := server.NewHTTPServer(cfg, newScrapeHandler(reg))
	if err := srv.Start(); err != nil {
		return nil, err
	}
	logger.Info("serving Prometheus metrics", zap.String("addr", srv.Addr()))

	return &Registry{reg: reg, server: srv}, nil
}

// Addr 返回指标服务的实际监听地址
func (r *Registry) Addr() string {
	return r.server.Addr()
}

// HistogramVec 创建并注册默认分桶的直方图
func (r *Registry) HistogramVec(name, help string, labels ...string) *Histogram {
	hist := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    name,
		Help:    help,
		Buckets: prometheus.DefBuckets,
	}, labels)
	r.reg.MustRegister(hist)
	return &Histogram{hist: hist}
}

// Gauge 创建并注册无标签的 Gauge
func (r *Registry) Gauge(name, help string) prometheus.Gauge {
	g := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: name,
		Help: help,
	})
	r.reg.MustRegister(g)
	return g
}

// GaugeVec 创建并注册只有一个标签维度的 GaugeVec
func (r *Registry) GaugeVec(name, help, label string) *prometheus.GaugeVec {
	gv := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: name,
		Help: help,
	}, []string{label})
	r.reg.MustRegister(gv)
	return gv
}

// CounterVec 创建并注册 CounterVec
func (r *Registry) CounterVec(name, help string, labels ...string) *prometheus.CounterVec {
	cv := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: name,
		Help: help,
	}, labels)
	r.reg.MustRegister(cv)
	return cv
}

// Close 关闭指标服务，可重复调用。关闭失败只记录警告，不影响进程退出。
func (r *Registry) Close() {
	r.closeOnce.Do(func() {
		logger.Debug("closing Prometheus server", zap.String("addr", r.server.Addr()))
		if err := r.server.Shutdown(); err != nil {
			logger.Warn("failed to stop Prometheus server", zap.Error(err))
		}
	})
}
