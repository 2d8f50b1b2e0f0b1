// Package monitor 实现单次监控会话的协调循环
// 串行的tick循环：探测 -> 记录样本 -> 阈值重算 -> 尖峰判定 -> 输出
// 单写者、无并发探测，取消通过context在tick边界协作式观察
package monitor

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/Kevin-Rudy/pingwatch/pkg/core"
	"github.com/Kevin-Rudy/pingwatch/pkg/stats"
	"github.com/Kevin-Rudy/pingwatch/pkg/threshold"
)

// Session 驱动一次监控会话
// 所有可变状态（计数、样本、尖峰）由Session独占持有，
// 纯计算（统计、基线、阈值）通过显式传参调用
type Session struct {
	config *Config
	prober core.Prober
	sinks  []core.Sink

	store      *core.SampleStore
	controller *threshold.Controller

	attempts  int
	successes int
	failures  int
	spikes    []core.SpikeRecord
	startTime time.Time
}

// NewSession 创建一个新的监控会话
func NewSession(prober core.Prober, config *Config, sinks ...core.Sink) (*Session, error) {
	if prober == nil {
		return nil, fmt.Errorf("必须提供探测器")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Session{
		config:     config,
		prober:     prober,
		sinks:      sinks,
		store:      core.NewSampleStore(),
		controller: threshold.NewController(config.Threshold),
	}, nil
}

// Run 运行会话直到时长上限到期或ctx被取消
// 两种结束方式都会走完整的收尾路径并返回汇总，绝不静默中止
func (s *Session) Run(ctx context.Context) *core.SessionSummary {
	s.startTime = time.Now()

	s.emit(core.Event{
		Time:      s.startTime,
		Kind:      core.EventInfo,
		Threshold: s.controller.Current(),
		Message:   fmt.Sprintf("开始监控 %s，初始阈值 %.0fms", s.config.Destination, s.controller.Current()),
	})

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	// 第一次探测立即执行，之后每个间隔一次
	s.tick(ctx)

	for {
		if s.expired() {
			break
		}

		select {
		case <-ctx.Done():
			s.emit(core.Event{
				Time:    time.Now(),
				Kind:    core.EventInfo,
				Message: "收到停止信号，正在生成汇总...",
			})
			return s.finalize()
		case <-ticker.C:
			if s.expired() {
				return s.finalize()
			}
			s.tick(ctx)
		}
	}

	return s.finalize()
}

// expired 检查会话时长是否已达上限（0表示不限）
func (s *Session) expired() bool {
	if s.config.TimeLimit <= 0 {
		return false
	}
	return time.Since(s.startTime) >= s.config.TimeLimit
}

// tick 执行一次完整的探测-记录-判定流程
func (s *Session) tick(ctx context.Context) {
	result := s.prober.Probe(ctx)
	s.attempts++

	if result.Failed() {
		s.failures++
		s.emit(core.Event{
			Time:      time.Now(),
			Kind:      core.EventFailure,
			Latency:   math.NaN(),
			Threshold: s.controller.Current(),
			Message:   fmt.Sprintf("探测失败: %s", result.RawMessage),
		})
		return
	}

	s.successes++
	sample := s.store.Append(result.Latency, time.Now())

	// 阈值重算在尖峰判定之前，与样本记录同步进行
	if recompute, ok := s.controller.Observe(s.store.Latencies()); ok && s.config.Debug {
		s.emit(core.Event{
			Time:      sample.Time,
			Kind:      core.EventRecompute,
			Seq:       sample.Seq,
			Threshold: recompute.Threshold,
			Message: fmt.Sprintf("阈值重算: 截尾均值=%.2fms 截尾抖动=%.2fms 基线=%.2fms 原始阈值=%.2fms 当前阈值=%.2fms",
				recompute.TrimmedMean, recompute.TrimmedJitter, recompute.Baseline,
				recompute.RawThreshold, recompute.Threshold),
		})
	}

	current := s.controller.Current()
	isSpike := threshold.IsSpike(sample.Latency, s.store.Len(),
		s.config.Threshold.ActivationSamples, current)

	if isSpike {
		// 记录判定时刻的阈值，后续重算不会回溯修改
		s.spikes = append(s.spikes, core.SpikeRecord{
			Seq:        sample.Seq,
			Time:       sample.Time,
			Latency:    sample.Latency,
			Threshold:  current,
			RawMessage: result.RawMessage,
		})
		s.emit(core.Event{
			Time:      sample.Time,
			Kind:      core.EventSpike,
			Seq:       sample.Seq,
			Latency:   sample.Latency,
			Threshold: current,
			Message:   fmt.Sprintf("[SPIKE] 延迟 %.1fms 超过阈值 %.1fms", sample.Latency, current),
		})
		return
	}

	s.emit(core.Event{
		Time:      sample.Time,
		Kind:      core.EventSample,
		Seq:       sample.Seq,
		Latency:   sample.Latency,
		Threshold: current,
		Message:   fmt.Sprintf("延迟 %.1fms", sample.Latency),
	})
}

// finalize 计算并分发会话汇总，正常结束和取消走同一条路径
func (s *Session) finalize() *core.SessionSummary {
	summary := &core.SessionSummary{
		Destination:    s.config.Destination,
		StartTime:      s.startTime,
		Elapsed:        time.Since(s.startTime),
		Attempts:       s.attempts,
		Successes:      s.successes,
		Failures:       s.failures,
		SuccessRate:    SuccessRate(s.successes, s.attempts),
		Stats:          stats.Compute(s.store.Latencies()),
		FinalThreshold: s.controller.Current(),
		Spikes:         s.spikes,
	}

	for _, sink := range s.sinks {
		if err := sink.WriteSummary(summary); err != nil {
			log.Printf("警告: 汇总输出失败: %v", err)
		}
	}

	return summary
}

// emit 把事件分发给所有输出端
// 任何输出端失败只记录警告，会话继续
func (s *Session) emit(event core.Event) {
	for _, sink := range s.sinks {
		if err := sink.Write(event); err != nil {
			log.Printf("警告: 事件输出失败: %v", err)
		}
	}
}

// SuccessRate 计算成功率(%)，标准舍入保留2位小数
func SuccessRate(successes, attempts int) float64 {
	if attempts == 0 {
		return 0
	}
	rate := float64(successes) / float64(attempts) * 100
	return math.Round(rate*100) / 100
}
