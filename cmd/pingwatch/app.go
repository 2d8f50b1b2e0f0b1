package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Kevin-Rudy/pingwatch/pkg/core"
	"github.com/Kevin-Rudy/pingwatch/pkg/monitor"
	"github.com/Kevin-Rudy/pingwatch/pkg/output"
	"github.com/Kevin-Rudy/pingwatch/pkg/pinger"
	"github.com/Kevin-Rudy/pingwatch/pkg/stunprobe"
	"github.com/Kevin-Rudy/pingwatch/pkg/tui"
	"github.com/urfave/cli/v2"
)

// runApp 主要应用逻辑处理函数
func runApp(c *cli.Context) error {
	// IP版本冲突检查
	explicitIPv4 := c.IsSet("4")
	ipv6 := c.Bool("6")
	if explicitIPv4 && ipv6 {
		return cli.Exit("错误: -4 和 -6 选项不能同时使用", 1)
	}

	// 构建配置
	appConfig, err := buildConfigFromCLI(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("配置加载失败: %v", err), 1)
	}

	// STUN模式下探测目标就是STUN服务器
	if appConfig.STUNServer != "" && appConfig.MonitorConfig.Destination == "" {
		appConfig.MonitorConfig.Destination = appConfig.STUNServer
	}

	if appConfig.MonitorConfig.Destination == "" {
		return cli.Exit("错误: 必须指定一个探测目标\n使用方法: pingwatch <目标主机>", 1)
	}

	// 验证配置 - 无效配置在循环开始前就报错退出
	if err := validateConfig(appConfig); err != nil {
		return cli.Exit(fmt.Sprintf("配置验证失败: %v", err), 1)
	}

	// 显示运行配置
	printRunningConfig(appConfig)

	// 显示系统环境信息
	showSystemInfo()

	fmt.Println("\n正在初始化探测引擎...")

	// 创建探测器实例
	prober, err := buildProber(appConfig)
	if err != nil {
		return cli.Exit(fmt.Sprintf("无法创建探测引擎: %v", err), 1)
	}
	defer prober.Close()

	fmt.Println("探测引擎初始化成功")

	// 创建输出端
	sinks, err := buildSinks(appConfig)
	if err != nil {
		return cli.Exit(fmt.Sprintf("无法创建输出端: %v", err), 1)
	}
	defer func() {
		for _, sink := range sinks {
			sink.Close()
		}
	}()

	if appConfig.UseTUI {
		return runWithTUI(appConfig, prober, sinks)
	}
	return runHeadless(appConfig, prober, sinks)
}

// runHeadless 以纯控制台模式运行会话
// Ctrl+C触发协作式取消：循环在tick边界观察到信号后走收尾路径
func runHeadless(appConfig *AppConfig, prober core.Prober, sinks []core.Sink) error {
	session, err := monitor.NewSession(prober, appConfig.MonitorConfig, sinks...)
	if err != nil {
		return cli.Exit(fmt.Sprintf("无法创建监控会话: %v", err), 1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	printUsageInstructions(false)

	session.Run(ctx)

	fmt.Println("\n程序已退出")
	return nil
}

// runWithTUI 以实时终端界面模式运行会话
func runWithTUI(appConfig *AppConfig, prober core.Prober, sinks []core.Sink) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tuiInstance := tui.NewTUI(appConfig.MonitorConfig.Destination, appConfig.TUIConfig, cancel)
	sinks = append(sinks, tuiInstance)

	session, err := monitor.NewSession(prober, appConfig.MonitorConfig, sinks...)
	if err != nil {
		return cli.Exit(fmt.Sprintf("无法创建监控会话: %v", err), 1)
	}

	printUsageInstructions(true)

	// 会话在后台运行，TUI占据前台直到用户退出
	summaryChan := make(chan *core.SessionSummary, 1)
	go func() {
		summaryChan <- session.Run(ctx)
	}()

	if err := tuiInstance.Run(); err != nil {
		cancel()
		<-summaryChan
		return cli.Exit(fmt.Sprintf("TUI运行出错: %v", err), 1)
	}

	// TUI退出后把会话汇总打印到控制台
	cancel()
	summary := <-summaryChan
	fmt.Println(output.FormatSummary(summary))

	fmt.Println("\n程序已退出")
	return nil
}

// buildProber 根据配置创建ICMP或STUN探测器
func buildProber(appConfig *AppConfig) (core.Prober, error) {
	if appConfig.STUNServer != "" {
		return stunprobe.NewProber(appConfig.STUNServer, appConfig.PingerConfig.Timeout)
	}
	return pinger.NewProber(appConfig.MonitorConfig.Destination, appConfig.PingerConfig)
}

// buildSinks 根据配置创建输出端集合
func buildSinks(appConfig *AppConfig) ([]core.Sink, error) {
	var sinks []core.Sink

	// TUI模式下控制台被界面占用，文本输出只落日志文件
	if appConfig.UseTUI {
		if appConfig.LogPath != "" {
			sink, err := output.NewFileSink(appConfig.LogPath)
			if err != nil {
				return nil, err
			}
			sinks = append(sinks, sink)
		}
	} else {
		sink, err := output.NewConsoleSink(appConfig.LogPath)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, sink)
	}

	if appConfig.RemoteURL != "" {
		sink, err := output.NewWebSocketSink(appConfig.RemoteURL, appConfig.MonitorConfig.Destination)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, sink)
	}

	if appConfig.PostgresDSN != "" {
		sink, err := output.NewPostgresSink(appConfig.PostgresDSN, appConfig.MonitorConfig.Destination)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, sink)
	}

	return sinks, nil
}

// printRunningConfig 打印运行配置信息
func printRunningConfig(config *AppConfig) {
	fmt.Printf("探测目标: %s\n", config.MonitorConfig.Destination)
	fmt.Printf("探测间隔: %v\n", config.MonitorConfig.Interval)
	fmt.Printf("探测超时: %v\n", config.PingerConfig.Timeout)
	if config.MonitorConfig.TimeLimit > 0 {
		fmt.Printf("时长上限: %v\n", config.MonitorConfig.TimeLimit)
	} else {
		fmt.Println("时长上限: 不限")
	}
	fmt.Printf("阈值参数: 倍率%d%% 区间[%.0fms, %.0fms] 每%d个样本重算\n",
		config.MonitorConfig.Threshold.MultiplierPercent,
		config.MonitorConfig.Threshold.Min,
		config.MonitorConfig.Threshold.Max,
		config.MonitorConfig.Threshold.RecomputeInterval)
	if config.STUNServer != "" {
		fmt.Printf("探测方式: STUN (%s)\n", config.STUNServer)
	}
	if config.LogPath != "" {
		fmt.Printf("日志文件: %s\n", config.LogPath)
	}
}
