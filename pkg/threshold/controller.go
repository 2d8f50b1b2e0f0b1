// Package threshold 实现自适应尖峰阈值的计算与判定
// 阈值由稳健基线乘以倍率后钳制到配置边界内，按固定节奏重算
package threshold

import (
	"errors"

	"github.com/Kevin-Rudy/pingwatch/pkg/stats"
)

// 默认参数
const (
	DefaultInitial           = 20.0 // 初始阈值(ms)，适合一般消费级网络路径
	DefaultMin               = 20.0 // 阈值下界(ms)
	DefaultMax               = 500.0 // 阈值上界(ms)
	DefaultMultiplier        = 200  // 倍率(%)，200表示基线的2倍
	DefaultRecomputeInterval = 10   // 每多少个成功样本重算一次
	DefaultActivationSamples = 15   // 冷启动期长度：样本数达到该值前阈值固定
)

// Config 阈值控制器的配置结构
type Config struct {
	MultiplierPercent int     // 基线倍率(%)
	RecomputeInterval int     // 重算间隔（成功样本数）
	Min               float64 // 阈值下界(ms)
	Max               float64 // 阈值上界(ms)
	ActivationSamples int     // 冷启动期样本数
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		MultiplierPercent: DefaultMultiplier,
		RecomputeInterval: DefaultRecomputeInterval,
		Min:               DefaultMin,
		Max:               DefaultMax,
		ActivationSamples: DefaultActivationSamples,
	}
}

// Validate 验证配置的合理性
func (c Config) Validate() error {
	if c.MultiplierPercent <= 0 {
		return errors.New("倍率必须大于0")
	}

	if c.RecomputeInterval <= 0 {
		return errors.New("重算间隔必须大于0")
	}

	if c.Min <= 0 {
		return errors.New("阈值下界必须大于0")
	}

	if c.Max < c.Min {
		return errors.New("阈值上界不能小于下界")
	}

	if c.ActivationSamples <= 0 {
		return errors.New("冷启动样本数必须大于0")
	}

	return nil
}

// Recompute 表示一次阈值重算的中间量，供调试输出使用
type Recompute struct {
	TrimmedMean   float64 // 截尾均值(ms)
	TrimmedJitter float64 // 截尾抖动(ms)
	Baseline      float64 // 基线(ms)
	RawThreshold  float64 // 钳制前的阈值(ms)
	Threshold     float64 // 钳制后的当前阈值(ms)
}

// Controller 持有当前阈值这一个状态变量
// 样本数不足ActivationSamples时处于冷启动期，阈值固定为初始值；
// 之后每RecomputeInterval个成功样本重算一次
type Controller struct {
	config  Config
	current float64
}

// NewController 创建阈值控制器，初始阈值取配置的下界
func NewController(config Config) *Controller {
	return &Controller{
		config:  config,
		current: config.Min,
	}
}

// Current 返回当前阈值(ms)
func (c *Controller) Current() float64 {
	return c.current
}

// Active 判断控制器是否已脱离冷启动期
func (c *Controller) Active(sampleCount int) bool {
	return sampleCount >= c.config.ActivationSamples
}

// Observe 在每个成功样本后调用，按节奏重算阈值
// 到达重算点时返回本次重算的中间量和true，否则返回零值和false
// 重算对相同的样本历史是幂等的纯计算
func (c *Controller) Observe(latencies []float64) (Recompute, bool) {
	count := len(latencies)
	if count < c.config.ActivationSamples {
		return Recompute{}, false
	}

	if count%c.config.RecomputeInterval != 0 {
		return Recompute{}, false
	}

	baseline := stats.EstimateBaseline(latencies)
	raw := baseline.Value * float64(c.config.MultiplierPercent) / 100.0
	c.current = clamp(raw, c.config.Min, c.config.Max)

	return Recompute{
		TrimmedMean:   baseline.TrimmedMean,
		TrimmedJitter: baseline.TrimmedJitter,
		Baseline:      baseline.Value,
		RawThreshold:  raw,
		Threshold:     c.current,
	}, true
}

// clamp 把值钳制到[min, max]区间内
func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
