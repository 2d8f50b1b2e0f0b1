// Package stats 提供延迟序列的统计计算
// 所有计算都是纯函数：输入相同则输出相同，不持有任何状态
package stats

import (
	"math"

	"github.com/Kevin-Rudy/pingwatch/pkg/core"
)

// 抖动等级标签
const (
	JitterLow      = "低"
	JitterModerate = "中等"
	JitterHigh     = "高"
)

// 抖动等级的分界值(ms)，下边界包含在较低等级内
const (
	jitterLowBound      = 2.0
	jitterModerateBound = 10.0
)

// Compute 计算一段延迟序列的统计快照
// 空序列返回nil；单样本序列min=max=mean=该值且抖动未定义，
// 调用方必须检查HasJitter再使用Jitter字段
func Compute(samples []float64) *core.Statistics {
	if len(samples) == 0 {
		return nil
	}

	if len(samples) == 1 {
		return &core.Statistics{
			Count:     1,
			Min:       samples[0],
			Max:       samples[0],
			Mean:      samples[0],
			HasJitter: false,
		}
	}

	min, max := samples[0], samples[0]
	sum := 0.0
	for _, v := range samples {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
		sum += v
	}
	mean := sum / float64(len(samples))

	// 总体标准差（除以n而不是n-1）
	var sumSquares float64
	for _, v := range samples {
		diff := v - mean
		sumSquares += diff * diff
	}
	jitter := math.Sqrt(sumSquares / float64(len(samples)))

	return &core.Statistics{
		Count:     len(samples),
		Min:       min,
		Max:       max,
		Mean:      mean,
		Jitter:    jitter,
		HasJitter: true,
		Quality:   JitterQuality(jitter),
	}
}

// JitterQuality 返回抖动大小对应的等级标签
// jitter≤2为低，2<jitter≤10为中等，jitter>10为高
func JitterQuality(jitter float64) string {
	switch {
	case jitter <= jitterLowBound:
		return JitterLow
	case jitter <= jitterModerateBound:
		return JitterModerate
	default:
		return JitterHigh
	}
}
