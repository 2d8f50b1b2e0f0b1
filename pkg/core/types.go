// Package core 定义了延迟监控会话的核心接口和数据结构
// 这些接口保证了会话协调器与具体探测器、输出端的完全解耦
package core

import (
	"context"
	"math"
	"time"
)

// ProbeResult 表示单次探测操作的原子结果
// 用于在探测器和会话协调器之间传递单次探测的结果
type ProbeResult struct {
	Success     bool      // 是否成功收到回复
	Latency     float64   // 延迟(ms)。超时或失败时为 math.NaN()
	RawMessage  string    // 探测器产生的原始描述信息
	SendTime    time.Time // 探测发送时间
	ReceiveTime time.Time // 探测接收时间，用于精确计算延迟
}

// Failed 判断本次探测是否失败（显式标记或延迟为NaN）
func (r ProbeResult) Failed() bool {
	return !r.Success || math.IsNaN(r.Latency)
}

// Prober 定义了探测器的标准接口
// 任何探测实现（ICMP、STUN等）都应该实现这个接口
// 目标地址和超时时间在构造时确定，Probe本身是阻塞调用：
// 成功、失败或超时后返回对应结果
type Prober interface {
	// Probe 执行一次探测并返回结果
	// ctx用于协作式取消；实现应在超时或取消后尽快返回
	Probe(ctx context.Context) ProbeResult

	// Close 释放探测器持有的资源（socket、句柄等）
	Close() error
}

// Sample 表示一次成功探测记录下的延迟样本
// 一旦记录即不可变，由SampleStore独占持有
type Sample struct {
	Seq     int       // 单调递增的序号，从1开始
	Latency float64   // 延迟(ms)，非负
	Time    time.Time // 记录时的墙钟时间
}

// SampleStore 按到达顺序保存成功样本的只追加序列
// 不变量：长度只增不减，顺序永不改变
type SampleStore struct {
	samples   []Sample
	latencies []float64 // 与samples平行的延迟切片，供统计计算直接使用
}

// NewSampleStore 创建一个空的样本存储
func NewSampleStore() *SampleStore {
	return &SampleStore{
		samples:   make([]Sample, 0, 64),
		latencies: make([]float64, 0, 64),
	}
}

// Append 追加一个新样本并返回它（序号自动分配）
func (s *SampleStore) Append(latency float64, at time.Time) Sample {
	sample := Sample{
		Seq:     len(s.samples) + 1,
		Latency: latency,
		Time:    at,
	}
	s.samples = append(s.samples, sample)
	s.latencies = append(s.latencies, latency)
	return sample
}

// Len 返回已记录的样本数量
func (s *SampleStore) Len() int {
	return len(s.samples)
}

// Latencies 返回延迟序列的只读视图
// 调用方不得修改返回的切片
func (s *SampleStore) Latencies() []float64 {
	return s.latencies
}

// At 返回指定下标的样本（0起始）
func (s *SampleStore) At(i int) Sample {
	return s.samples[i]
}

// SpikeRecord 表示一次被判定为异常的延迟尖峰
// Threshold记录判定时刻的阈值，后续阈值变化不会回溯修改历史记录
type SpikeRecord struct {
	Seq        int       // 触发尖峰的样本序号
	Time       time.Time // 判定时刻
	Latency    float64   // 观测到的延迟(ms)
	Threshold  float64   // 判定时刻的阈值(ms)
	RawMessage string    // 探测器的原始信息
}

// EventKind 表示会话事件的类型
type EventKind int

const (
	EventSample    EventKind = iota // 成功探测
	EventFailure                    // 探测失败（超时或不可达）
	EventSpike                      // 延迟尖峰
	EventRecompute                  // 阈值重算（调试模式下发出）
	EventInfo                       // 一般信息
)

// Event 表示会话协调器发往输出端的一条带时间戳的事件
type Event struct {
	Time      time.Time // 事件发生时间
	Kind      EventKind // 事件类型
	Seq       int       // 关联的样本序号（无关联时为0）
	Latency   float64   // 延迟(ms)，失败事件为NaN
	Threshold float64   // 事件发生时的当前阈值(ms)
	Message   string    // 格式化后的文本内容
}

// SessionSummary 表示一次监控会话结束时的汇总结果
// 会话结束（正常或取消）时创建一次，之后不再修改
type SessionSummary struct {
	Destination    string        // 探测目标
	StartTime      time.Time     // 会话开始时间
	Elapsed        time.Duration // 会话总时长
	Attempts       int           // 总探测次数
	Successes      int           // 成功次数
	Failures       int           // 失败次数
	SuccessRate    float64       // 成功率(%)，按标准舍入保留2位小数
	Stats          *Statistics   // 全部成功样本的统计快照，无样本时为nil
	FinalThreshold float64       // 会话结束时的阈值(ms)
	Spikes         []SpikeRecord // 按时间顺序排列的全部尖峰
}

// Statistics 表示对一段延迟序列的统计快照
// 由统计引擎按需计算，不持久化
type Statistics struct {
	Count     int     // 样本数量
	Min       float64 // 最小延迟(ms)
	Max       float64 // 最大延迟(ms)
	Mean      float64 // 平均延迟(ms)
	Jitter    float64 // 抖动：总体标准差(ms)；HasJitter为false时无意义
	HasJitter bool    // 样本数不足2时为false（抖动未定义）
	Quality   string  // 抖动等级标签
}

// Sink 定义了输出端的标准接口
// 会话协调器把事件和最终汇总同时推送给所有已注册的输出端
// 任何输出端的写入失败都不应中止会话，由调用方记录警告后继续
type Sink interface {
	// Write 输出一条会话事件
	Write(event Event) error

	// WriteSummary 输出会话结束时的汇总
	WriteSummary(summary *SessionSummary) error

	// Close 关闭输出端并释放资源
	Close() error
}
