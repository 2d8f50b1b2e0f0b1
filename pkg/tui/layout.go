// Package tui 布局管理模块
package tui

import (
	"fmt"
	"strings"

	"github.com/Kevin-Rudy/pingwatch/pkg/core"
	"github.com/Kevin-Rudy/pingwatch/pkg/output"
	"github.com/rivo/tview"
)

// setupUI 设置用户界面布局
func (t *TUI) setupUI() {
	t.header.SetDynamicColors(true)
	t.header.SetText(fmt.Sprintf("[green]pingwatch[white] - [yellow]正在监控 %s，等待数据...[white]", t.destination))

	t.chart.SetWordWrap(false)
	t.chart.SetDynamicColors(true)
	t.chart.SetText("[yellow]正在初始化，等待数据...[white]")

	t.spikeLog.SetDynamicColors(true)
	t.spikeLog.SetText("[gray]尚未检测到尖峰[white]")
	t.spikeLog.SetBorder(true).SetTitle(" 尖峰日志 ")

	// 主垂直布局：统计头两行、图表占剩余空间、尖峰日志固定高度
	t.flex = tview.NewFlex()
	t.flex.SetDirection(tview.FlexRow)
	t.flex.AddItem(t.header, 2, 0, false)
	t.flex.AddItem(t.chart, 0, 1, false)
	t.flex.AddItem(t.spikeLog, 8, 0, false)

	t.app.SetRoot(t.flex, true)
}

// updateHeader 更新统计头
func (t *TUI) updateHeader() {
	t.historyMu.RLock()
	defer t.historyMu.RUnlock()

	if t.summary != nil {
		t.header.SetText(fmt.Sprintf(
			"[green]%s[white] - [yellow]会话已结束[white]  成功率 %.2f%%  尖峰 %d 次  按 q 退出",
			t.destination, t.summary.SuccessRate, len(t.summary.Spikes)))
		return
	}

	rate := 0.0
	if t.attempts > 0 {
		rate = float64(t.successes) / float64(t.attempts) * 100
	}

	line1 := fmt.Sprintf("[green]目标: %s[white]  阈值: [aqua]%s[white]  尖峰: [red]%d[white]",
		t.destination, output.FormatLatency(t.currentThreshold), t.spikeCount)
	line2 := fmt.Sprintf("探测: %d  成功: %d  失败: %d  成功率: %.1f%%  (q 退出)",
		t.attempts, t.successes, t.failures, rate)
	t.header.SetText(line1 + "\n" + line2)
}

// updateChart 更新延迟图表
func (t *TUI) updateChart() {
	// 获取图表视图的实际可绘制尺寸
	_, _, width, height := t.chart.GetInnerRect()

	if width < t.config.MinChartWidth {
		width = 80
	}
	if height < t.config.MinChartHeight {
		height = 15
	}

	t.historyMu.RLock()
	history := make([]core.Event, len(t.history))
	copy(history, t.history)
	threshold := t.currentThreshold
	t.historyMu.RUnlock()

	t.chart.SetText(renderChart(history, threshold, width, height))
}

// updateSpikeLog 更新尖峰日志
func (t *TUI) updateSpikeLog() {
	t.historyMu.RLock()
	defer t.historyMu.RUnlock()

	var lines []string
	for i := len(t.history) - 1; i >= 0 && len(lines) < t.config.MaxSpikeLines; i-- {
		event := t.history[i]
		if event.Kind != core.EventSpike {
			continue
		}
		lines = append(lines, fmt.Sprintf("[red]#%d %s %s[white] (阈值 %s)",
			event.Seq, event.Time.Format("15:04:05"),
			output.FormatLatency(event.Latency), output.FormatLatency(event.Threshold)))
	}

	if len(lines) == 0 {
		t.spikeLog.SetText("[gray]尚未检测到尖峰[white]")
		return
	}

	t.spikeLog.SetText(strings.Join(lines, "\n"))
}
