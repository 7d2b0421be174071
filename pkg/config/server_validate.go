package config

import (
	"fmt"
	"net"
	"time"
)

// Validate 指标HTTP服务配置校验
func (s *ServerConfig) Validate() error {
	if err := valid.Struct(s); err != nil {
		return fmt.Errorf("server config invalid: %w", err)
	}
	// 用net包解析地址，验证格式合法性（必须是 ":port" 或 "ip:port"）
	if _, err := net.ResolveTCPAddr("tcp", s.Addr); err != nil {
		return fmt.Errorf("server.addr format invalid (expected: :port or ip:port), got %s: %w", s.Addr, err)
	}
	return nil
}

// Validate 主机采集配置校验，未启用时不校验间隔
func (c *CollectorConfig) Validate() error {
	if !c.Enable {
		return nil
	}
	if c.Interval < time.Second || c.Interval > time.Hour {
		return fmt.Errorf("collector.interval must be between 1s and 1h, got %s", c.Interval)
	}
	return nil
}
