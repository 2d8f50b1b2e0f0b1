package monitor

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/Kevin-Rudy/pingwatch/pkg/core"
)

// mockProber 按脚本返回探测结果，脚本耗尽时取消会话
type mockProber struct {
	results []core.ProbeResult
	index   int
	cancel  context.CancelFunc
	closed  bool
}

func successResult(latency float64) core.ProbeResult {
	return core.ProbeResult{Success: true, Latency: latency, RawMessage: "ok"}
}

func failureResult() core.ProbeResult {
	return core.ProbeResult{Success: false, Latency: math.NaN(), RawMessage: "timeout"}
}

func (m *mockProber) Probe(ctx context.Context) core.ProbeResult {
	if m.index >= len(m.results) {
		// 脚本耗尽，确保会话停止
		if m.cancel != nil {
			m.cancel()
		}
		return failureResult()
	}

	result := m.results[m.index]
	m.index++
	if m.index == len(m.results) && m.cancel != nil {
		m.cancel()
	}
	return result
}

func (m *mockProber) Close() error {
	m.closed = true
	return nil
}

// captureSink 记录收到的所有事件和汇总
type captureSink struct {
	events  []core.Event
	summary *core.SessionSummary
	closed  bool
}

func (s *captureSink) Write(event core.Event) error {
	s.events = append(s.events, event)
	return nil
}

func (s *captureSink) WriteSummary(summary *core.SessionSummary) error {
	s.summary = summary
	return nil
}

func (s *captureSink) Close() error {
	s.closed = true
	return nil
}

// failingSink 所有写入都失败的输出端
type failingSink struct{}

func (s *failingSink) Write(core.Event) error                  { return errors.New("write failed") }
func (s *failingSink) WriteSummary(*core.SessionSummary) error { return errors.New("write failed") }
func (s *failingSink) Close() error                            { return nil }

// testConfig 返回测试用的快速配置
func testConfig() *Config {
	config := DefaultConfig()
	config.Destination = "test.example"
	config.Interval = 10 * time.Millisecond
	return config
}

// runScripted 用脚本化的探测结果运行一个完整会话
func runScripted(t *testing.T, config *Config, results []core.ProbeResult) (*core.SessionSummary, *captureSink) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	prober := &mockProber{results: results, cancel: cancel}
	sink := &captureSink{}

	session, err := NewSession(prober, config, sink)
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}

	summary := session.Run(ctx)
	if summary == nil {
		t.Fatal("Expected non-nil summary")
	}
	return summary, sink
}

// TestNewSessionValidation 测试会话创建时的参数验证
func TestNewSessionValidation(t *testing.T) {
	config := testConfig()

	// 缺少探测器
	if _, err := NewSession(nil, config); err == nil {
		t.Error("Expected error for nil prober")
	}

	// 缺少目标
	invalid := testConfig()
	invalid.Destination = ""
	if _, err := NewSession(&mockProber{}, invalid); err == nil {
		t.Error("Expected error for missing destination")
	}

	// 间隔过小
	invalid = testConfig()
	invalid.Interval = time.Millisecond
	if _, err := NewSession(&mockProber{}, invalid); err == nil {
		t.Error("Expected error for too-small interval")
	}
}

// TestSessionCounts 测试计数和成功率：29成功+1失败 -> 96.67%
func TestSessionCounts(t *testing.T) {
	results := make([]core.ProbeResult, 0, 30)
	results = append(results, failureResult())
	for i := 0; i < 29; i++ {
		results = append(results, successResult(12))
	}

	summary, _ := runScripted(t, testConfig(), results)

	if summary.Attempts != 30 {
		t.Errorf("Expected 30 attempts, got %d", summary.Attempts)
	}
	if summary.Successes != 29 {
		t.Errorf("Expected 29 successes, got %d", summary.Successes)
	}
	if summary.Failures != 1 {
		t.Errorf("Expected 1 failure, got %d", summary.Failures)
	}
	if summary.SuccessRate != 96.67 {
		t.Errorf("Expected success rate 96.67, got %f", summary.SuccessRate)
	}
}

// TestSessionFailureNeverAborts 测试单次失败不中止会话
func TestSessionFailureNeverAborts(t *testing.T) {
	results := []core.ProbeResult{
		successResult(10),
		failureResult(),
		failureResult(),
		successResult(11),
	}

	summary, _ := runScripted(t, testConfig(), results)

	if summary.Attempts != 4 {
		t.Errorf("Expected all 4 attempts to run, got %d", summary.Attempts)
	}
	if summary.Successes != 2 || summary.Failures != 2 {
		t.Errorf("Expected 2 successes and 2 failures, got %d/%d",
			summary.Successes, summary.Failures)
	}
}

// TestSessionSpikeScenario 测试端到端尖峰场景：
// 20个12ms样本后阈值重算为24ms，第21个样本500ms被判定为尖峰
func TestSessionSpikeScenario(t *testing.T) {
	results := make([]core.ProbeResult, 0, 23)
	for i := 0; i < 20; i++ {
		results = append(results, successResult(12))
	}
	results = append(results, successResult(500))
	results = append(results, successResult(12), successResult(12))

	summary, sink := runScripted(t, testConfig(), results)

	// 阈值：12ms基线 × 200% = 24ms
	if summary.FinalThreshold != 24 {
		t.Errorf("Expected final threshold 24, got %f", summary.FinalThreshold)
	}

	if len(summary.Spikes) != 1 {
		t.Fatalf("Expected exactly 1 spike, got %d", len(summary.Spikes))
	}

	spike := summary.Spikes[0]
	if spike.Seq != 21 {
		t.Errorf("Expected spike at sample #21, got #%d", spike.Seq)
	}
	if spike.Latency != 500 {
		t.Errorf("Expected spike latency 500, got %f", spike.Latency)
	}
	if spike.Threshold != 24 {
		t.Errorf("Expected spike recorded with threshold 24, got %f", spike.Threshold)
	}

	// 前20个样本都在冷启动或阈值以下，不应有尖峰事件
	spikeEvents := 0
	for _, event := range sink.events {
		if event.Kind == core.EventSpike {
			spikeEvents++
		}
	}
	if spikeEvents != 1 {
		t.Errorf("Expected 1 spike event, got %d", spikeEvents)
	}
}

// TestSessionColdStateNoSpikes 测试冷启动期不产生尖峰：第5个样本9999ms也不算
func TestSessionColdStateNoSpikes(t *testing.T) {
	results := []core.ProbeResult{
		successResult(10), successResult(10), successResult(10),
		successResult(10), successResult(9999),
	}

	summary, _ := runScripted(t, testConfig(), results)

	if len(summary.Spikes) != 0 {
		t.Errorf("Expected no spikes during cold state, got %d", len(summary.Spikes))
	}
	if summary.FinalThreshold != 20 {
		t.Errorf("Expected threshold to stay 20 during cold state, got %f", summary.FinalThreshold)
	}
}

// TestSessionDebugEmitsRecompute 测试调试模式下输出重算中间量
func TestSessionDebugEmitsRecompute(t *testing.T) {
	config := testConfig()
	config.Debug = true

	results := make([]core.ProbeResult, 0, 20)
	for i := 0; i < 20; i++ {
		results = append(results, successResult(15))
	}

	_, sink := runScripted(t, config, results)

	recomputeEvents := 0
	for _, event := range sink.events {
		if event.Kind == core.EventRecompute {
			recomputeEvents++
		}
	}
	if recomputeEvents != 1 {
		t.Errorf("Expected 1 recompute event in debug mode, got %d", recomputeEvents)
	}
}

// TestSessionNoDebugNoRecomputeEvents 测试非调试模式下不输出重算事件
func TestSessionNoDebugNoRecomputeEvents(t *testing.T) {
	results := make([]core.ProbeResult, 0, 20)
	for i := 0; i < 20; i++ {
		results = append(results, successResult(15))
	}

	_, sink := runScripted(t, testConfig(), results)

	for _, event := range sink.events {
		if event.Kind == core.EventRecompute {
			t.Fatal("Expected no recompute events without debug mode")
		}
	}
}

// TestSessionCancellationProducesSummary 测试中途取消仍产生完整汇总
func TestSessionCancellationProducesSummary(t *testing.T) {
	results := make([]core.ProbeResult, 0, 5)
	for i := 0; i < 5; i++ {
		results = append(results, successResult(10))
	}

	summary, sink := runScripted(t, testConfig(), results)

	if sink.summary == nil {
		t.Fatal("Expected summary to be delivered to sink on cancellation")
	}
	if summary.Successes != 5 {
		t.Errorf("Expected 5 successes before cancellation, got %d", summary.Successes)
	}
	if summary.Stats == nil {
		t.Fatal("Expected statistics over collected samples")
	}
	if summary.Stats.Mean != 10 {
		t.Errorf("Expected mean 10, got %f", summary.Stats.Mean)
	}
}

// TestSessionTimeLimit 测试时长上限到期后正常收尾
func TestSessionTimeLimit(t *testing.T) {
	config := testConfig()
	config.TimeLimit = 50 * time.Millisecond

	// 脚本足够长，会话应因时长上限而不是脚本耗尽结束
	results := make([]core.ProbeResult, 0, 100)
	for i := 0; i < 100; i++ {
		results = append(results, successResult(10))
	}

	prober := &mockProber{results: results}
	sink := &captureSink{}
	session, err := NewSession(prober, config, sink)
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}

	start := time.Now()
	summary := session.Run(context.Background())
	elapsed := time.Since(start)

	if summary == nil {
		t.Fatal("Expected summary after time limit")
	}
	if elapsed < config.TimeLimit {
		t.Errorf("Session ended before time limit: %v < %v", elapsed, config.TimeLimit)
	}
	if summary.Attempts == 0 {
		t.Error("Expected at least one attempt within time limit")
	}
	if prober.index >= len(results) {
		t.Error("Expected session to stop on time limit, not script exhaustion")
	}
}

// TestSessionSinkFailureTolerated 测试输出端故障不影响会话
func TestSessionSinkFailureTolerated(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	results := []core.ProbeResult{successResult(10), successResult(11), successResult(12)}
	prober := &mockProber{results: results, cancel: cancel}

	session, err := NewSession(prober, testConfig(), &failingSink{})
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}

	summary := session.Run(ctx)
	if summary.Attempts != 3 {
		t.Errorf("Expected session to complete despite sink failures, got %d attempts", summary.Attempts)
	}
}

// TestSuccessRateRounding 测试成功率的标准舍入
func TestSuccessRateRounding(t *testing.T) {
	cases := []struct {
		successes int
		attempts  int
		expected  float64
	}{
		{29, 30, 96.67},
		{1, 3, 33.33},
		{2, 3, 66.67},
		{30, 30, 100.0},
		{0, 10, 0.0},
		{0, 0, 0.0},
	}

	for _, tc := range cases {
		if got := SuccessRate(tc.successes, tc.attempts); got != tc.expected {
			t.Errorf("SuccessRate(%d, %d): expected %f, got %f",
				tc.successes, tc.attempts, tc.expected, got)
		}
	}
}
