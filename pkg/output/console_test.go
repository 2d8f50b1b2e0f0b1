package output

import (
	"bytes"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Kevin-Rudy/pingwatch/pkg/core"
)

// TestFormatLatency 测试延迟的自适应格式化
func TestFormatLatency(t *testing.T) {
	cases := []struct {
		latency  float64
		expected string
	}{
		{0.5, "500µs"},
		{12.34, "12.3ms"},
		{999.9, "999.9ms"},
		{1500.0, "1.50s"},
		{math.NaN(), "N/A"},
	}

	for _, tc := range cases {
		if got := FormatLatency(tc.latency); got != tc.expected {
			t.Errorf("FormatLatency(%f): expected '%s', got '%s'", tc.latency, tc.expected, got)
		}
	}
}

// TestConsoleSinkWrite 测试事件的控制台输出
func TestConsoleSinkWrite(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsoleSinkWithWriter(&buf)

	event := core.Event{
		Time:    time.Date(2026, 8, 29, 10, 30, 0, 0, time.UTC),
		Kind:    core.EventSample,
		Seq:     1,
		Latency: 12.3,
		Message: "延迟 12.3ms",
	}
	if err := sink.Write(event); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	line := buf.String()
	if !strings.Contains(line, "2026-08-29 10:30:00") {
		t.Errorf("Expected timestamp in output, got: %s", line)
	}
	if !strings.Contains(line, "延迟 12.3ms") {
		t.Errorf("Expected event message in output, got: %s", line)
	}
}

// TestFormatSummary 测试汇总文本包含全部关键信息
func TestFormatSummary(t *testing.T) {
	spikeTime := time.Date(2026, 8, 29, 10, 31, 5, 0, time.UTC)
	summary := &core.SessionSummary{
		Destination: "8.8.8.8",
		StartTime:   time.Date(2026, 8, 29, 10, 30, 0, 0, time.UTC),
		Elapsed:     90 * time.Second,
		Attempts:    30,
		Successes:   29,
		Failures:    1,
		SuccessRate: 96.67,
		Stats: &core.Statistics{
			Count:     29,
			Min:       10.0,
			Max:       500.0,
			Mean:      28.5,
			Jitter:    12.1,
			HasJitter: true,
			Quality:   "高",
		},
		FinalThreshold: 24.0,
		Spikes: []core.SpikeRecord{
			{Seq: 21, Time: spikeTime, Latency: 500.0, Threshold: 24.0},
		},
	}

	text := FormatSummary(summary)

	expectations := []string{
		"监控汇总: 8.8.8.8",
		"探测次数: 30  成功: 29  失败: 1",
		"成功率: 96.67%",
		"最小/平均/最大: 10.0ms / 28.5ms / 500.0ms",
		"抖动: 12.1ms (高)",
		"最终阈值: 24.0ms",
		"尖峰: 1 次",
		"#21 2026-08-29 10:31:05 500.0ms (阈值 24.0ms)",
	}
	for _, want := range expectations {
		if !strings.Contains(text, want) {
			t.Errorf("Expected summary to contain '%s', got:\n%s", want, text)
		}
	}
}

// TestFormatSummaryNoSamples 测试无成功样本时的汇总
func TestFormatSummaryNoSamples(t *testing.T) {
	summary := &core.SessionSummary{
		Destination: "10.0.0.1",
		Attempts:    5,
		Failures:    5,
		SuccessRate: 0,
	}

	text := FormatSummary(summary)
	if !strings.Contains(text, "延迟统计: 无成功样本") {
		t.Errorf("Expected no-samples marker, got:\n%s", text)
	}
	if !strings.Contains(text, "尖峰: 0 次") {
		t.Errorf("Expected zero spikes line, got:\n%s", text)
	}
}

// TestFormatSummaryInsufficientJitter 测试单样本时抖动显示为数据不足
func TestFormatSummaryInsufficientJitter(t *testing.T) {
	summary := &core.SessionSummary{
		Destination: "1.1.1.1",
		Attempts:    1,
		Successes:   1,
		SuccessRate: 100,
		Stats: &core.Statistics{
			Count: 1, Min: 15, Max: 15, Mean: 15, HasJitter: false,
		},
	}

	text := FormatSummary(summary)
	if !strings.Contains(text, "抖动: 数据不足") {
		t.Errorf("Expected insufficient-jitter marker, got:\n%s", text)
	}
}

// TestConsoleSinkLogFile 测试事件同时写入日志文件
func TestConsoleSinkLogFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "probe.log")

	sink, err := NewConsoleSink(logPath)
	if err != nil {
		t.Fatalf("NewConsoleSink failed: %v", err)
	}
	sink.out = io.Discard

	event := core.Event{
		Time:    time.Now(),
		Kind:    core.EventSample,
		Message: "延迟 10.0ms",
	}
	if err := sink.Write(event); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "延迟 10.0ms") {
		t.Errorf("Expected event in log file, got: %s", data)
	}
}

// TestFileSinkDiscardsConsole 测试纯文件输出端不写控制台
func TestFileSinkDiscardsConsole(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "probe.log")

	sink, err := NewFileSink(logPath)
	if err != nil {
		t.Fatalf("NewFileSink failed: %v", err)
	}
	defer sink.Close()

	if err := sink.Write(core.Event{Time: time.Now(), Message: "test"}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "test") {
		t.Errorf("Expected event in log file, got: %s", data)
	}
}
