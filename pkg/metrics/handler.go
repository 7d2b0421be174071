package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"go.uber.org/zap"

	"github.com/metrics-exporter/pkg/logger"
)

// scrapeHandler 对任意方法、任意路径都返回文本格式的全部指标，不做内容协商
type scrapeHandler struct {
	gatherer prometheus.Gatherer
	format   expfmt.Format
}

func newScrapeHandler(g prometheus.Gatherer) http.Handler {
	return &scrapeHandler{
		gatherer: g,
		format:   expfmt.NewFormat(expfmt.TypeTextPlain),
	}
}

func (h *scrapeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	buf, err := h.encode()
	if err != nil {
		// 编码只会因指标元数据非法而失败，属于程序错误，直接中止本次请求
		panic(err)
	}

	w.Header().Set("Content-Type", string(h.format))
	w.Header().Set("Content-Length", strconv.Itoa(len(buf)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf); err != nil {
		logger.Warn("failed to send metrics", zap.String("remote", r.RemoteAddr), zap.Error(err))
	}
}

func (h *scrapeHandler) encode() ([]byte, error) {
	mfs, err := h.gatherer.Gather()
	if err != nil {
		// 单个采集器失败时 Gather 仍返回其余指标族
		logger.Warn("gathering metrics reported errors", zap.Error(err))
	}

	var buf bytes.Buffer
	enc := expfmt.NewEncoder(&buf, h.format)
	for _, mf := range mfs {
		if err := enc.Encode(mf); err != nil {
			return nil, fmt.Errorf("failed to encode metrics: %w", err)
		}
	}
	return buf.Bytes(), nil
}
