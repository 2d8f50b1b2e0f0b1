package main

import (
	"fmt"
	"os"
	"time"

	"github.com/Kevin-Rudy/pingwatch/pkg/monitor"
	"github.com/Kevin-Rudy/pingwatch/pkg/pinger"
	"github.com/Kevin-Rudy/pingwatch/pkg/tui"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

// AppConfig 应用层配置聚合
type AppConfig struct {
	MonitorConfig *monitor.Config
	PingerConfig  *pinger.Config
	TUIConfig     *tui.Config

	LogPath     string // 会话日志文件路径，空表示不落盘
	STUNServer  string // 非空时改用STUN探测
	RemoteURL   string // 非空时推送到远程收集服务
	PostgresDSN string // 非空时写入数据库
	UseTUI      bool   // 启用实时终端界面
}

// fileOptions YAML配置文件的结构
// 命令行显式指定的参数优先于文件中的值
type fileOptions struct {
	Destination       string        `yaml:"destination"`
	Interval          time.Duration `yaml:"interval"`
	Timeout           time.Duration `yaml:"timeout"`
	TimeLimit         time.Duration `yaml:"time_limit"`
	IPVersion         int           `yaml:"ip_version"`
	MultiplierPercent int           `yaml:"multiplier_percent"`
	RecomputeInterval int           `yaml:"recompute_interval"`
	MinThresholdMs    float64       `yaml:"min_threshold_ms"`
	MaxThresholdMs    float64       `yaml:"max_threshold_ms"`
	Debug             bool          `yaml:"debug"`
	LogPath           string        `yaml:"log_path"`
	STUNServer        string        `yaml:"stun_server"`
	RemoteURL         string        `yaml:"remote_url"`
	PostgresDSN       string        `yaml:"postgres_dsn"`
	TUI               bool          `yaml:"tui"`
}

// loadFileOptions 读取并解析YAML配置文件
func loadFileOptions(path string) (*fileOptions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("无法读取配置文件 '%s': %v", path, err)
	}

	opts := &fileOptions{}
	if err := yaml.Unmarshal(data, opts); err != nil {
		return nil, fmt.Errorf("配置文件 '%s' 解析失败: %v", path, err)
	}
	return opts, nil
}

// buildConfigFromCLI 从命令行参数（和可选的配置文件）构建配置
func buildConfigFromCLI(c *cli.Context) (*AppConfig, error) {
	monitorConfig := monitor.DefaultConfig()
	pingerConfig := pinger.DefaultConfig()
	tuiConfig := tui.DefaultConfig()

	config := &AppConfig{
		MonitorConfig: monitorConfig,
		PingerConfig:  pingerConfig,
		TUIConfig:     tuiConfig,
	}

	// 先套用配置文件的值
	if c.IsSet("config") {
		opts, err := loadFileOptions(c.String("config"))
		if err != nil {
			return nil, err
		}
		applyFileOptions(config, opts)
	}

	// 命令行参数覆盖文件值
	if c.Args().Len() > 0 {
		monitorConfig.Destination = c.Args().First()
	}
	if c.Bool("6") {
		pingerConfig.IPVersion = 6
	}
	if c.IsSet("interval") {
		monitorConfig.Interval = c.Duration("interval")
	}
	if c.IsSet("timeout") {
		pingerConfig.Timeout = c.Duration("timeout")
	}
	if c.IsSet("time-limit") {
		monitorConfig.TimeLimit = c.Duration("time-limit")
	}
	if c.IsSet("multiplier") {
		monitorConfig.Threshold.MultiplierPercent = c.Int("multiplier")
	}
	if c.IsSet("recompute-interval") {
		monitorConfig.Threshold.RecomputeInterval = c.Int("recompute-interval")
	}
	if c.IsSet("min-threshold") {
		monitorConfig.Threshold.Min = c.Float64("min-threshold")
	}
	if c.IsSet("max-threshold") {
		monitorConfig.Threshold.Max = c.Float64("max-threshold")
	}
	if c.IsSet("debug") {
		monitorConfig.Debug = c.Bool("debug")
	}
	if c.IsSet("log") {
		config.LogPath = c.String("log")
	}
	if c.IsSet("stun") {
		config.STUNServer = c.String("stun")
	}
	if c.IsSet("remote") {
		config.RemoteURL = c.String("remote")
	}
	if c.IsSet("postgres") {
		config.PostgresDSN = c.String("postgres")
	}
	if c.IsSet("tui") {
		config.UseTUI = c.Bool("tui")
	}

	return config, nil
}

// applyFileOptions 把配置文件中的非零值套用到应用配置上
func applyFileOptions(config *AppConfig, opts *fileOptions) {
	if opts.Destination != "" {
		config.MonitorConfig.Destination = opts.Destination
	}
	if opts.Interval > 0 {
		config.MonitorConfig.Interval = opts.Interval
	}
	if opts.Timeout > 0 {
		config.PingerConfig.Timeout = opts.Timeout
	}
	if opts.TimeLimit > 0 {
		config.MonitorConfig.TimeLimit = opts.TimeLimit
	}
	if opts.IPVersion != 0 {
		config.PingerConfig.IPVersion = opts.IPVersion
	}
	if opts.MultiplierPercent > 0 {
		config.MonitorConfig.Threshold.MultiplierPercent = opts.MultiplierPercent
	}
	if opts.RecomputeInterval > 0 {
		config.MonitorConfig.Threshold.RecomputeInterval = opts.RecomputeInterval
	}
	if opts.MinThresholdMs > 0 {
		config.MonitorConfig.Threshold.Min = opts.MinThresholdMs
	}
	if opts.MaxThresholdMs > 0 {
		config.MonitorConfig.Threshold.Max = opts.MaxThresholdMs
	}
	if opts.Debug {
		config.MonitorConfig.Debug = true
	}
	if opts.LogPath != "" {
		config.LogPath = opts.LogPath
	}
	if opts.STUNServer != "" {
		config.STUNServer = opts.STUNServer
	}
	if opts.RemoteURL != "" {
		config.RemoteURL = opts.RemoteURL
	}
	if opts.PostgresDSN != "" {
		config.PostgresDSN = opts.PostgresDSN
	}
	if opts.TUI {
		config.UseTUI = true
	}
}

// validateConfig 验证配置的合理性
func validateConfig(config *AppConfig) error {
	// 验证 monitor 配置（包含阈值参数）
	if err := config.MonitorConfig.Validate(); err != nil {
		return fmt.Errorf("监控配置错误: %v", err)
	}

	// STUN模式下不校验ICMP目标解析
	if config.STUNServer == "" {
		if err := config.PingerConfig.Validate(); err != nil {
			return fmt.Errorf("探测配置错误: %v", err)
		}
	}

	// 验证 TUI 配置
	if err := config.TUIConfig.Validate(); err != nil {
		return fmt.Errorf("tui配置错误: %v", err)
	}

	return nil
}
