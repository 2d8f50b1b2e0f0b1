// Package output 提供会话事件和汇总的各种输出端实现
// 控制台+日志文件、WebSocket远程流、PostgreSQL持久化
package output

import (
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"strings"
	"time"

	"github.com/Kevin-Rudy/pingwatch/pkg/core"
)

// timeLayout 事件行的时间戳格式
const timeLayout = "2006-01-02 15:04:05"

// ConsoleSink 把事件同时写到控制台和可选的追加式日志文件
// 日志文件写入失败只警告一次并继续，绝不影响会话
type ConsoleSink struct {
	out     io.Writer
	logFile *os.File
	logPath string
	warned  bool
}

// NewConsoleSink 创建控制台输出端
// logPath为空时只输出到控制台；文件以追加模式打开
func NewConsoleSink(logPath string) (*ConsoleSink, error) {
	sink := &ConsoleSink{
		out:     os.Stdout,
		logPath: logPath,
	}

	if logPath != "" {
		file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("无法打开日志文件 '%s': %v", logPath, err)
		}
		sink.logFile = file
	}

	return sink, nil
}

// NewConsoleSinkWithWriter 创建只写入指定Writer的输出端，供测试使用
func NewConsoleSinkWithWriter(w io.Writer) *ConsoleSink {
	return &ConsoleSink{out: w}
}

// NewFileSink 创建只写日志文件的输出端
// TUI模式下控制台被界面占用时使用
func NewFileSink(logPath string) (*ConsoleSink, error) {
	sink, err := NewConsoleSink(logPath)
	if err != nil {
		return nil, err
	}
	sink.out = io.Discard
	return sink, nil
}

// Write 实现core.Sink接口，输出一条带时间戳的事件行
func (s *ConsoleSink) Write(event core.Event) error {
	line := fmt.Sprintf("%s %s", event.Time.Format(timeLayout), event.Message)
	fmt.Fprintln(s.out, line)
	s.appendLog(line)
	return nil
}

// WriteSummary 实现core.Sink接口，输出格式化的会话汇总
func (s *ConsoleSink) WriteSummary(summary *core.SessionSummary) error {
	text := FormatSummary(summary)
	fmt.Fprintln(s.out, text)
	s.appendLog(text)
	return nil
}

// appendLog 把一行文本追加到日志文件
// 失败时只在第一次输出警告，之后静默跳过
func (s *ConsoleSink) appendLog(line string) {
	if s.logFile == nil {
		return
	}
	if _, err := fmt.Fprintln(s.logFile, line); err != nil {
		if !s.warned {
			log.Printf("警告: 写入日志文件 '%s' 失败: %v，控制台输出不受影响", s.logPath, err)
			s.warned = true
		}
	}
}

// Close 关闭日志文件
func (s *ConsoleSink) Close() error {
	if s.logFile != nil {
		return s.logFile.Close()
	}
	return nil
}

// FormatSummary 把会话汇总渲染为多行文本
func FormatSummary(summary *core.SessionSummary) string {
	var b strings.Builder

	b.WriteString("========================================\n")
	b.WriteString(fmt.Sprintf("监控汇总: %s\n", summary.Destination))
	b.WriteString(fmt.Sprintf("  运行时长: %s\n", summary.Elapsed.Round(time.Millisecond)))
	b.WriteString(fmt.Sprintf("  探测次数: %d  成功: %d  失败: %d\n",
		summary.Attempts, summary.Successes, summary.Failures))
	b.WriteString(fmt.Sprintf("  成功率: %.2f%%\n", summary.SuccessRate))

	if summary.Stats == nil {
		b.WriteString("  延迟统计: 无成功样本\n")
	} else {
		b.WriteString(fmt.Sprintf("  最小/平均/最大: %s / %s / %s\n",
			FormatLatency(summary.Stats.Min),
			FormatLatency(summary.Stats.Mean),
			FormatLatency(summary.Stats.Max)))
		if summary.Stats.HasJitter {
			b.WriteString(fmt.Sprintf("  抖动: %s (%s)\n",
				FormatLatency(summary.Stats.Jitter), summary.Stats.Quality))
		} else {
			b.WriteString("  抖动: 数据不足\n")
		}
	}

	b.WriteString(fmt.Sprintf("  最终阈值: %s\n", FormatLatency(summary.FinalThreshold)))
	b.WriteString(fmt.Sprintf("  尖峰: %d 次\n", len(summary.Spikes)))
	for _, spike := range summary.Spikes {
		b.WriteString(fmt.Sprintf("    #%d %s %s (阈值 %s)\n",
			spike.Seq, spike.Time.Format(timeLayout),
			FormatLatency(spike.Latency), FormatLatency(spike.Threshold)))
	}
	b.WriteString("========================================")

	return b.String()
}

// FormatLatency 提供自适应的延迟格式化
func FormatLatency(latency float64) string {
	if math.IsNaN(latency) {
		return "N/A"
	}

	if latency < 1.0 {
		// 小于1ms，显示为微秒
		return fmt.Sprintf("%.0fµs", latency*1000)
	} else if latency < 1000.0 {
		// 1ms到1000ms之间，显示为毫秒
		return fmt.Sprintf("%.1fms", latency)
	} else {
		// 大于等于1000ms，显示为秒
		return fmt.Sprintf("%.2fs", latency/1000)
	}
}
