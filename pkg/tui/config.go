// Package tui 配置定义
package tui

import (
	"errors"
	"time"
)

// Config TUI组件的配置结构
type Config struct {
	RefreshInterval time.Duration // UI刷新间隔
	MaxHistorySize  int           // 图表历史缓冲区大小
	MinChartWidth   int           // 最小图表宽度
	MinChartHeight  int           // 最小图表高度
	MaxSpikeLines   int           // 尖峰日志最多保留的行数
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		RefreshInterval: 200 * time.Millisecond, // 默认200ms刷新
		MaxHistorySize:  120,                    // 默认120个历史点
		MinChartWidth:   20,                     // 最小图表宽度
		MinChartHeight:  5,                      // 最小图表高度
		MaxSpikeLines:   50,                     // 尖峰日志行数上限
	}
}

// Validate 验证配置的合理性
func (c *Config) Validate() error {
	if c.RefreshInterval <= 0 {
		return errors.New("UI刷新间隔必须大于0")
	}

	if c.RefreshInterval < 10*time.Millisecond {
		return errors.New("UI刷新间隔不能小于10ms")
	}

	if c.MaxHistorySize < 10 {
		return errors.New("历史缓冲区大小不能小于10")
	}

	if c.MaxHistorySize > 1000 {
		return errors.New("历史缓冲区大小不能超过1000")
	}

	if c.MinChartWidth <= 0 {
		return errors.New("最小图表宽度必须大于0")
	}

	if c.MinChartHeight <= 0 {
		return errors.New("最小图表高度必须大于0")
	}

	if c.MaxSpikeLines <= 0 {
		return errors.New("尖峰日志行数上限必须大于0")
	}

	return nil
}
