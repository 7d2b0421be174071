package exporter

import (
	"github.com/spf13/cobra"
)

func initServerFlags(root *cobra.Command) {
	f := root.Flags()

	f.String("server.addr", defaultCfg.Server.Addr, "-> Metrics HTTP listening address | 指标HTTP监听地址")
	f.Duration("server.read_timeout", defaultCfg.Server.ReadTimeout, "-> Read timeout duration | 读取超时时间")
	f.Duration("server.write_timeout", defaultCfg.Server.WriteTimeout, "-> Write timeout duration | 写入超时时间")
	f.Duration("server.idle_timeout", defaultCfg.Server.IdleTimeout, "-> Idle connection timeout duration | 空闲连接超时时间")
	f.Duration("server.shutdown_timeout", defaultCfg.Server.ShutdownTimeout, "-> Graceful shutdown timeout | 优雅关闭超时时间")
}
