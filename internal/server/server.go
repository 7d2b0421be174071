// Package server 提供指标暴露用的HTTP服务：同步绑定监听地址、后台goroutine处理请求、
// 请求日志中间件以及带超时的优雅关闭。
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/metrics-exporter/pkg/config"
	"github.com/metrics-exporter/pkg/logger"
)

// HTTPServer HTTP服务实例，封装监听地址、监听器和HTTP服务器核心对象
type HTTPServer struct {
	addr            string        // 配置的监听地址（格式：ip:port）
	server          *http.Server  // 底层HTTP服务器对象
	shutdownTimeout time.Duration // 优雅关闭超时时间

	mu       sync.Mutex
	listener net.Listener
	done     chan struct{} // Serve 返回后关闭
}

// statusWriter 包装http.ResponseWriter，用于捕获HTTP响应状态码
type statusWriter struct {
	http.ResponseWriter
	status int
}

// WriteHeader 记录响应状态码
func (w *statusWriter) WriteHeader(statusCode int) {
	w.status = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

// NewHTTPServer 创建HTTP服务实例，handler 处理所有路径和方法的请求
func NewHTTPServer(cfg config.ServerConfig, handler http.Handler) *HTTPServer {
	return &HTTPServer{
		addr:            cfg.Addr,
		shutdownTimeout: cfg.ShutdownTimeout,
		server: &http.Server{
			Handler:      logMiddleware(handler),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
			ErrorLog:     zap.NewStdLog(logger.GetLogger()),
		},
	}
}

// logMiddleware 记录请求方法、URL、客户端地址、响应状态码、处理耗时
func logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		logger.Debug(
			"HTTP request",
			zap.String("method", r.Method),
			zap.String("url", r.URL.String()),
			zap.String("remote", r.RemoteAddr),
			zap.Int("status", sw.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// Start 绑定监听地址并在后台goroutine中处理请求（非阻塞）
// 绑定失败（端口占用、无权限）同步返回，错误信息包含地址
func (s *HTTPServer) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to serve on %s: %w", s.addr, err)
	}

	s.mu.Lock()
	s.listener = ln
	s.done = make(chan struct{})
	s.mu.Unlock()

	logger.Info(
		"starting HTTP server",
		zap.String("listen_addr", ln.Addr().String()),
		zap.Duration("read_timeout", s.server.ReadTimeout),
		zap.Duration("write_timeout", s.server.WriteTimeout),
		zap.Duration("idle_timeout", s.server.IdleTimeout),
	)

	go func(done chan struct{}) {
		defer close(done)
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", zap.Error(err), zap.String("listen_addr", ln.Addr().String()))
			return
		}
		logger.Debug("HTTP server stopped listening", zap.String("listen_addr", ln.Addr().String()))
	}(s.done)
	return nil
}

// Addr 返回实际监听地址（配置端口为0时为系统分配的端口）
func (s *HTTPServer) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Done 返回在 Serve 退出后关闭的通道；未启动时返回 nil
func (s *HTTPServer) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// Shutdown 优雅关闭HTTP服务
//  1. 停止接收新请求
//  2. 等待现有请求在 shutdownTimeout 内处理完成
//  3. 超时后强制关闭所有连接并返回超时错误
func (s *HTTPServer) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			_ = s.server.Close()
			return fmt.Errorf("shutdown of %s timed out after %s: %w", s.Addr(), s.shutdownTimeout, err)
		}
		return fmt.Errorf("shutdown of %s: %w", s.Addr(), err)
	}
	logger.Info("HTTP server shutdown successfully", zap.String("listen_addr", s.Addr()))
	return nil
}
