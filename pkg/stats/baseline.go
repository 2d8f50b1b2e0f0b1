// Package stats 稳健基线估计
package stats

import "sort"

// trimRatio 截尾比例：排序后最低和最高各去掉15%
const trimRatio = 0.15

// minTrimmableSamples 低于等于该数量时不做截尾，避免小样本被去空
const minTrimmableSamples = 4

// Baseline 表示一次稳健基线估计的结果
type Baseline struct {
	TrimmedMean   float64 // 截尾均值(ms)
	TrimmedJitter float64 // 截尾子集的总体标准差(ms)，子集不足2个时为0
	Value         float64 // 基线 = TrimmedMean + TrimmedJitter
}

// EstimateBaseline 对延迟序列做截尾统计，得到抗离群点的基线估计
// 截尾均值抑制了系统正要检测的那些离群点对基线的影响，
// 叠加截尾抖动则为正常波动留出余量
func EstimateBaseline(samples []float64) Baseline {
	if len(samples) == 0 {
		return Baseline{}
	}

	sorted := make([]float64, len(samples))
	copy(sorted, samples)
	sort.Float64s(sorted)

	trimmed := sorted
	if n := len(sorted); n > minTrimmableSamples {
		trimCount := int(float64(n) * trimRatio)
		// 保留排序后的闭区间 [trimCount, n-1-trimCount]
		trimmed = sorted[trimCount : n-trimCount]
	}

	var trimmedMean, trimmedJitter float64
	if s := Compute(trimmed); s != nil {
		trimmedMean = s.Mean
		if s.HasJitter {
			trimmedJitter = s.Jitter
		}
	}

	return Baseline{
		TrimmedMean:   trimmedMean,
		TrimmedJitter: trimmedJitter,
		Value:         trimmedMean + trimmedJitter,
	}
}
