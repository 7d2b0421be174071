package exporter

import (
	"github.com/spf13/cobra"
)

func initCollectorFlags(root *cobra.Command) {
	f := root.Flags()

	f.Bool("collector.enable", defaultCfg.Collector.Enable, "-> Enable host collector | 启用主机采集器")
	f.Duration("collector.interval", defaultCfg.Collector.Interval, "-> Collection interval | 采集间隔")
	f.Bool("collector.per_cpu", defaultCfg.Collector.PerCPU, "-> Collect CPU usage per core | 按每核心采集CPU使用率")
}
