package main

import (
	"fmt"
	"time"

	"github.com/Kevin-Rudy/pingwatch/pkg/pinger"
	"github.com/urfave/cli/v2"
)

// createCliApp 创建CLI应用实例
func createCliApp() *cli.App {
	app := &cli.App{
		Name:    AppName,
		Version: AppVersion,
		Usage:   AppDesc,
		Flags:   createCliFlags(),
		Action:  runApp,
		Before: func(c *cli.Context) error {
			// 显示启动信息
			fmt.Printf("正在启动 %s v%s...\n", AppName, AppVersion)
			return nil
		},
		ArgsUsage: "<目标主机>",
	}

	// 添加版本子命令
	app.Commands = createCommands()

	return app
}

// createCliFlags 创建CLI参数定义
func createCliFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "4",
			Usage: "使用IPv4进行域名解析（默认）",
			Value: true,
		},
		&cli.BoolFlag{
			Name:  "6",
			Usage: "使用IPv6进行域名解析",
		},
		&cli.DurationFlag{
			Name:    "interval",
			Aliases: []string{"n"},
			Value:   1000 * time.Millisecond,
			Usage:   "探测间隔时间 (例如: 500ms, 1s)",
		},
		&cli.DurationFlag{
			Name:    "timeout",
			Aliases: []string{"t"},
			Value:   3 * time.Second,
			Usage:   "单次探测超时时间 (例如: 3s, 1000ms)",
		},
		&cli.DurationFlag{
			Name:    "time-limit",
			Aliases: []string{"l"},
			Value:   0,
			Usage:   "会话时长上限，0表示持续运行 (例如: 10m, 1h)",
		},
		&cli.IntFlag{
			Name:    "multiplier",
			Aliases: []string{"m"},
			Value:   200,
			Usage:   "尖峰阈值倍率(%)，200表示基线的2倍",
		},
		&cli.IntFlag{
			Name:    "recompute-interval",
			Aliases: []string{"r"},
			Value:   10,
			Usage:   "每多少个成功样本重算一次阈值",
		},
		&cli.Float64Flag{
			Name:  "min-threshold",
			Value: 20.0,
			Usage: "阈值下界 (ms)",
		},
		&cli.Float64Flag{
			Name:  "max-threshold",
			Value: 500.0,
			Usage: "阈值上界 (ms)",
		},
		&cli.BoolFlag{
			Name:    "debug",
			Aliases: []string{"d"},
			Usage:   "调试模式：每次阈值重算时输出中间量",
		},
		&cli.StringFlag{
			Name:    "log",
			Aliases: []string{"o"},
			Usage:   "会话日志文件路径（追加写入）",
		},
		&cli.StringFlag{
			Name:  "stun",
			Usage: "改用STUN探测，指定STUN服务器 (例如: stun.l.google.com:19302)",
		},
		&cli.StringFlag{
			Name:  "remote",
			Usage: "把事件实时推送到远程收集服务 (ws://或wss://地址)",
		},
		&cli.StringFlag{
			Name:  "postgres",
			Usage: "把会话数据写入PostgreSQL (连接串)",
		},
		&cli.BoolFlag{
			Name:  "tui",
			Usage: "启用实时终端界面",
		},
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "YAML配置文件路径，命令行参数优先于文件",
		},
	}
}

// createCommands 创建子命令
func createCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:    "version",
			Aliases: []string{"v"},
			Usage:   "显示详细版本信息",
			Action: func(c *cli.Context) error {
				fmt.Printf("%s v%s\n", AppName, AppVersion)
				fmt.Printf("描述: %s\n", AppDesc)
				fmt.Printf("系统: %s\n", pinger.GetOSName())
				fmt.Printf("实现: %s\n", pinger.GetImplementationType())
				return nil
			},
		},
	}
}
