// Package tui 图表渲染模块
package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/Kevin-Rudy/pingwatch/pkg/core"
	"github.com/Kevin-Rudy/pingwatch/pkg/output"
)

// 图表刻度标签占用的左侧宽度
const axisLabelWidth = 9

// renderChart 把最近的延迟历史渲染为彩色柱状图
// 普通样本为绿色，尖峰为红色，失败在底行画红叉，
// 阈值所在高度画一条黄色虚线
func renderChart(history []core.Event, threshold float64, width, height int) string {
	if len(history) == 0 {
		return "[yellow]没有数据[white]"
	}

	columns := width - axisLabelWidth
	if columns < 10 {
		columns = 10
	}
	if height < 3 {
		height = 3
	}

	// 只画最近columns个点
	if len(history) > columns {
		history = history[len(history)-columns:]
	}

	// 计算值范围，保证阈值可见
	maxVal := threshold
	for _, event := range history {
		if !math.IsNaN(event.Latency) && event.Latency > maxVal {
			maxVal = event.Latency
		}
	}
	if maxVal <= 0 {
		maxVal = 1
	}
	maxVal *= 1.1 // 顶部留10%缓冲

	// 阈值所在的行（行0为顶部）
	thresholdRow := -1
	if threshold > 0 && threshold < maxVal {
		thresholdRow = height - 1 - int(threshold/maxVal*float64(height-1))
	}

	var b strings.Builder
	for row := 0; row < height; row++ {
		// 行对应的延迟值（行中心）
		rowValue := maxVal * float64(height-row) / float64(height)

		// 左侧刻度：顶行、阈值行和底行标注数值
		switch {
		case row == 0:
			b.WriteString(fmt.Sprintf("%8s ", output.FormatLatency(maxVal)))
		case row == thresholdRow:
			b.WriteString(fmt.Sprintf("[yellow]%8s[white] ", output.FormatLatency(threshold)))
		case row == height-1:
			b.WriteString(fmt.Sprintf("%8s ", "0"))
		default:
			b.WriteString(strings.Repeat(" ", axisLabelWidth))
		}

		for _, event := range history {
			b.WriteString(chartCell(event, rowValue, row == height-1, row == thresholdRow))
		}

		if row < height-1 {
			b.WriteString("\n")
		}
	}

	return b.String()
}

// chartCell 渲染图表中的一个单元格
func chartCell(event core.Event, rowValue float64, bottomRow, thresholdRow bool) string {
	// 失败的探测在底行显示红叉
	if math.IsNaN(event.Latency) {
		if bottomRow {
			return "[red]×[white]"
		}
		if thresholdRow {
			return "[yellow]╌[white]"
		}
		return " "
	}

	if event.Latency >= rowValue || bottomRow {
		if event.Kind == core.EventSpike {
			return "[red]█[white]"
		}
		return "[green]█[white]"
	}

	if thresholdRow {
		return "[yellow]╌[white]"
	}
	return " "
}
