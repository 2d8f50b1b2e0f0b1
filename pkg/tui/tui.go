// Package tui 提供监控会话的实时终端界面
// 显示滚动延迟柱状图、运行统计和尖峰日志
// 作为core.Sink接入会话协调器：事件经通道进入界面的刷新循环
package tui

import (
	"sync"
	"time"

	"github.com/Kevin-Rudy/pingwatch/pkg/core"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// TUI 主界面结构
type TUI struct {
	app      *tview.Application
	header   *tview.TextView
	chart    *tview.TextView
	spikeLog *tview.TextView
	flex     *tview.Flex

	// 配置信息
	config      *Config
	destination string

	// 数据状态，由processData循环独占写入
	historyMu        sync.RWMutex
	history          []core.Event // 仅保留样本/失败/尖峰事件的滚动窗口
	attempts         int
	successes        int
	failures         int
	spikeCount       int
	currentThreshold float64
	summary          *core.SessionSummary

	// 事件入口（Sink侧写入，processData侧消费）
	events      chan core.Event
	summaryChan chan *core.SessionSummary

	// 控制
	onStop   func() // 用户退出时触发会话取消
	stopChan chan struct{}
	doneChan chan struct{}
	stopOnce sync.Once

	// 测试模式标志
	testMode bool
}

// NewTUI 创建新的TUI实例
// onStop在用户按q/Ctrl+C时调用，用于取消正在运行的会话
func NewTUI(destination string, config *Config, onStop func()) *TUI {
	tui := &TUI{
		app:         tview.NewApplication(),
		header:      tview.NewTextView(),
		chart:       tview.NewTextView(),
		spikeLog:    tview.NewTextView(),
		config:      config,
		destination: destination,
		events:      make(chan core.Event, 100),
		summaryChan: make(chan *core.SessionSummary, 1),
		onStop:      onStop,
		stopChan:    make(chan struct{}),
		doneChan:    make(chan struct{}),
	}

	tui.setupUI()
	tui.setupKeyBindings()

	return tui
}

// NewTUIForTest 创建用于测试的TUI实例（不初始化图形组件）
func NewTUIForTest(destination string, config *Config) *TUI {
	return &TUI{
		app:         tview.NewApplication(), // 创建应用实例但不会运行
		config:      config,
		destination: destination,
		events:      make(chan core.Event, 100),
		summaryChan: make(chan *core.SessionSummary, 1),
		stopChan:    make(chan struct{}),
		doneChan:    make(chan struct{}),
		testMode:    true,
	}
}

// Write 实现core.Sink接口，把事件送入界面刷新循环
// 通道满时丢弃（界面只展示近况，丢点可以接受）
func (t *TUI) Write(event core.Event) error {
	select {
	case t.events <- event:
	default:
	}
	return nil
}

// WriteSummary 实现core.Sink接口，通知界面会话已结束
func (t *TUI) WriteSummary(summary *core.SessionSummary) error {
	select {
	case t.summaryChan <- summary:
	default:
	}
	return nil
}

// Close 实现core.Sink接口
// 界面的生命周期由Run/Stop控制，这里不需要额外清理
func (t *TUI) Close() error {
	return nil
}

// Run 启动TUI界面，阻塞直到用户退出
func (t *TUI) Run() error {
	// 启动数据处理goroutine
	go t.processData()

	// 运行应用
	err := t.app.Run()

	// 确保清理工作完成
	t.signalStop()
	<-t.doneChan

	return err
}

// Stop 停止TUI界面并取消会话
func (t *TUI) Stop() {
	t.signalStop()

	if t.onStop != nil {
		t.onStop()
	}

	t.app.Stop()
}

// signalStop 发送停止信号（幂等）
func (t *TUI) signalStop() {
	t.stopOnce.Do(func() {
		close(t.stopChan)
	})
}

// processData 消费会话事件并按刷新节奏重绘界面
func (t *TUI) processData() {
	defer close(t.doneChan)

	uiTicker := time.NewTicker(t.config.RefreshInterval)
	defer uiTicker.Stop()

	for {
		select {
		case event := <-t.events:
			t.handleEvent(event)

		case summary := <-t.summaryChan:
			t.historyMu.Lock()
			t.summary = summary
			t.historyMu.Unlock()
			t.refresh()

		case <-uiTicker.C:
			t.refresh()

		case <-t.stopChan:
			return
		}
	}
}

// handleEvent 把一条会话事件并入界面状态
func (t *TUI) handleEvent(event core.Event) {
	t.historyMu.Lock()
	defer t.historyMu.Unlock()

	if event.Threshold > 0 {
		t.currentThreshold = event.Threshold
	}

	switch event.Kind {
	case core.EventSample:
		t.attempts++
		t.successes++
		t.appendHistory(event)
	case core.EventSpike:
		t.attempts++
		t.successes++
		t.spikeCount++
		t.appendHistory(event)
	case core.EventFailure:
		t.attempts++
		t.failures++
		t.appendHistory(event)
	}
}

// appendHistory 追加到滚动历史窗口，超出上限时移除最老的点
func (t *TUI) appendHistory(event core.Event) {
	t.history = append(t.history, event)
	if len(t.history) > t.config.MaxHistorySize {
		t.history = t.history[len(t.history)-t.config.MaxHistorySize:]
	}
}

// refresh 重绘所有界面组件
func (t *TUI) refresh() {
	if t.testMode {
		return
	}

	t.safeUIUpdate(func() {
		t.updateHeader()
		t.updateChart()
		t.updateSpikeLog()
	})
}

// setupKeyBindings 设置键盘绑定
func (t *TUI) setupKeyBindings() {
	t.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyCtrlC:
			t.Stop()
			return nil
		case tcell.KeyRune:
			switch event.Rune() {
			case 'q', 'Q':
				t.Stop()
				return nil
			}
		}
		return event
	})
}

// safeUIUpdate 安全地执行UI更新操作
func (t *TUI) safeUIUpdate(updateFunc func()) {
	defer func() {
		if r := recover(); r != nil {
			// 如果应用已经停止，忽略panic
		}
	}()
	t.app.QueueUpdateDraw(updateFunc)
}
