package exporter

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/metrics-exporter/pkg/collector"
	"github.com/metrics-exporter/pkg/config"
	"github.com/metrics-exporter/pkg/logger"
	"github.com/metrics-exporter/pkg/metrics"
	"github.com/metrics-exporter/pkg/signal"
	"github.com/metrics-exporter/pkg/util"
)

const projectName = "metrics-exporter"

// 构建时通过 -ldflags "-X github.com/metrics-exporter/cmd/exporter.version=..." 注入
var version = "dev"

var defaultCfg = config.NewDefaultConfig()

var rootCmd = newRootCommand()

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           projectName,
		Short:         "Prometheus metrics registry with a text-format scrape endpoint",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfigWithCli(cmd)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return run(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringP("config", "c", "", "配置文件路径（可选，YAML）")
	// 注册分组 flag
	initServerFlags(cmd)
	initCollectorFlags(cmd)
	initLogFlags(cmd)
	return cmd
}

func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	if _, err := logger.InitLogger(&cfg.Log); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	util.PrintBanner(os.Stdout, projectName, "blue", version)
	logger.SetDefaultComponent("exporter")

	reg, err := metrics.NewWithConfig(cfg.Server)
	if err != nil {
		return err
	}
	// 任意返回路径上都释放监听
	defer reg.Close()

	reg.GaugeVec("exporter_build_info", "Build information of the exporter", "version").
		WithLabelValues(version).Set(1)

	var agent *collector.Agent
	if cfg.Collector.Enable {
		agent = collector.NewAgent(cfg.Collector.Interval, reg)
		agent.Register(collector.NewHostCollector(cfg.Collector, reg))
		if err := agent.Start(ctx); err != nil {
			return fmt.Errorf("start collector agent: %w", err)
		}
	}

	// 关闭顺序：采集器 → 指标服务（defer reg.Close，失败只记录警告，不影响退出码）
	return signal.WaitForShutdown(ctx, cfg.Server.ShutdownTimeout, func() error {
		if agent == nil {
			return nil
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := agent.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown collector agent: %w", err)
		}
		return nil
	})
}
