package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Histogram 带标签的直方图句柄，可在多个goroutine间共享
type Histogram struct {
	hist *prometheus.HistogramVec
}

// Observe 按标签值记录一次观测
func (h *Histogram) Observe(value float64, labelValues ...string) {
	h.hist.WithLabelValues(labelValues...).Observe(value)
}

// ObserveSize 在单标签直方图上记录一次大小观测
func (h *Histogram) ObserveSize(label string, value int) {
	h.Observe(float64(value), label)
}

// ObserveDuration 执行 fn 并记录其耗时（秒），原样返回 fn 的错误
func (h *Histogram) ObserveDuration(label string, fn func() error) error {
	return Timed(h, label, fn)
}

// Timed 执行 fn 并记录其耗时（秒），原样返回 fn 的结果。
// 耗时在 fn 返回后记录，fn panic 时不记录。
func Timed[T any](h *Histogram, label string, fn func() T) T {
	start := time.Now()
	v := fn()
	h.Observe(time.Since(start).Seconds(), label)
	return v
}
