// Package threshold 尖峰判定
package threshold

// IsSpike 判断一个样本是否为延迟尖峰
// 样本总数未达到activationSamples时一律返回false（冷启动期不产生误报），
// 之后采用严格大于比较：恰好等于阈值不算尖峰
func IsSpike(latency float64, sampleCount, activationSamples int, currentThreshold float64) bool {
	if sampleCount < activationSamples {
		return false
	}
	return latency > currentThreshold
}
