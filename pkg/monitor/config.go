// Package monitor 配置定义
package monitor

import (
	"errors"
	"time"

	"github.com/Kevin-Rudy/pingwatch/pkg/threshold"
)

// Config 会话协调器的配置结构
type Config struct {
	Destination string           // 探测目标（必填）
	TimeLimit   time.Duration    // 会话时长上限，0表示不限
	Interval    time.Duration    // 探测间隔
	Threshold   threshold.Config // 自适应阈值参数
	Debug       bool             // 调试模式：每次重算时输出中间量
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		TimeLimit: 0,                          // 默认不限时长
		Interval:  1000 * time.Millisecond,    // 默认1秒间隔
		Threshold: threshold.DefaultConfig(),
		Debug:     false,
	}
}

// Validate 验证配置的合理性
func (c *Config) Validate() error {
	if c.Destination == "" {
		return errors.New("必须指定探测目标")
	}

	if c.TimeLimit < 0 {
		return errors.New("时长上限不能为负数")
	}

	if c.Interval <= 0 {
		return errors.New("探测间隔必须大于0")
	}

	if c.Interval < 10*time.Millisecond {
		return errors.New("探测间隔不能小于10ms")
	}

	return c.Threshold.Validate()
}
