// Package output - WebSocket远程输出端
// 把会话事件实时流式推送到远端收集服务
package output

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net/url"
	"sync"
	"time"

	"github.com/Kevin-Rudy/pingwatch/pkg/core"
	"github.com/gorilla/websocket"
)

// remoteMessage WebSocket线上传输的消息格式
type remoteMessage struct {
	Type        string  `json:"type"` // "event" 或 "summary"
	Destination string  `json:"destination"`
	Timestamp   int64   `json:"timestamp"` // Unix毫秒
	Seq         int     `json:"seq,omitempty"`
	Latency     float64 `json:"latency_ms,omitempty"`
	Threshold   float64 `json:"threshold_ms,omitempty"`
	Spike       bool    `json:"spike,omitempty"`
	Message     string  `json:"message,omitempty"`

	// 汇总消息专用字段
	Attempts    int     `json:"attempts,omitempty"`
	Successes   int     `json:"successes,omitempty"`
	Failures    int     `json:"failures,omitempty"`
	SuccessRate float64 `json:"success_rate,omitempty"`
	SpikeCount  int     `json:"spike_count,omitempty"`
}

// WebSocketSink 通过WebSocket把事件推送到远端
// 发送通道满时丢弃事件（高频场景下可接受），连接失败不影响会话
type WebSocketSink struct {
	conn        *websocket.Conn
	serverURL   string
	destination string
	connected   bool
	mutex       sync.RWMutex
	sendChannel chan remoteMessage
	done        chan struct{}
	writeWait   time.Duration
	pongWait    time.Duration
	pingPeriod  time.Duration
}

// NewWebSocketSink 创建并连接WebSocket输出端
func NewWebSocketSink(serverURL, destination string) (*WebSocketSink, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("无效的远程地址 '%s': %v", serverURL, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, fmt.Errorf("远程地址必须是ws://或wss:// ('%s')", serverURL)
	}

	sink := &WebSocketSink{
		serverURL:   serverURL,
		destination: destination,
		sendChannel: make(chan remoteMessage, 100), // 发送缓冲
		done:        make(chan struct{}),
		writeWait:   10 * time.Second,
		pongWait:    60 * time.Second,
		pingPeriod:  54 * time.Second, // 必须小于pongWait
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	conn, _, err := dialer.Dial(u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("连接远程收集服务失败: %v", err)
	}

	sink.conn = conn
	sink.connected = true

	conn.SetReadDeadline(time.Now().Add(sink.pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(sink.pongWait))
		return nil
	})

	// 读goroutine只负责消费pong和检测连接断开
	go sink.readPump()
	go sink.writePump()

	return sink, nil
}

// Write 实现core.Sink接口，非阻塞地推送一条事件
func (s *WebSocketSink) Write(event core.Event) error {
	latency := event.Latency
	if math.IsNaN(latency) {
		latency = -1 // JSON不支持NaN
	}

	msg := remoteMessage{
		Type:        "event",
		Destination: s.destination,
		Timestamp:   event.Time.UnixMilli(),
		Seq:         event.Seq,
		Latency:     latency,
		Threshold:   event.Threshold,
		Spike:       event.Kind == core.EventSpike,
		Message:     event.Message,
	}

	select {
	case s.sendChannel <- msg:
	default:
		// 通道满了，丢弃这条事件
		log.Printf("警告: 远程发送缓冲已满，丢弃事件")
	}
	return nil
}

// WriteSummary 实现core.Sink接口，推送会话汇总
func (s *WebSocketSink) WriteSummary(summary *core.SessionSummary) error {
	msg := remoteMessage{
		Type:        "summary",
		Destination: summary.Destination,
		Timestamp:   time.Now().UnixMilli(),
		Threshold:   summary.FinalThreshold,
		Attempts:    summary.Attempts,
		Successes:   summary.Successes,
		Failures:    summary.Failures,
		SuccessRate: summary.SuccessRate,
		SpikeCount:  len(summary.Spikes),
	}

	select {
	case s.sendChannel <- msg:
	case <-time.After(s.writeWait):
		return fmt.Errorf("推送汇总超时")
	}
	return nil
}

// Close 断开连接并停止后台goroutine
func (s *WebSocketSink) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.connected {
		return nil
	}

	close(s.done)
	s.connected = false
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// readPump 处理来自远端的消息（仅用于保活和断开检测）
func (s *WebSocketSink) readPump() {
	defer s.markDisconnected()

	for {
		select {
		case <-s.done:
			return
		default:
		}

		s.conn.SetReadDeadline(time.Now().Add(s.pongWait))
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("警告: 远程连接读取错误: %v", err)
			}
			return
		}
	}
}

// writePump 处理发往远端的消息和保活ping
func (s *WebSocketSink) writePump() {
	ticker := time.NewTicker(s.pingPeriod)
	defer func() {
		ticker.Stop()
		s.markDisconnected()
	}()

	for {
		select {
		case <-s.done:
			s.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case msg := <-s.sendChannel:
			if err := s.writeMessage(msg); err != nil {
				log.Printf("警告: 远程推送失败: %v", err)
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(s.writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// writeMessage 序列化并发送一条消息
func (s *WebSocketSink) writeMessage(msg remoteMessage) error {
	s.mutex.RLock()
	connected := s.connected
	s.mutex.RUnlock()
	if !connected {
		return nil // 已断开，静默丢弃
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	s.conn.SetWriteDeadline(time.Now().Add(s.writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// markDisconnected 标记连接已断开
func (s *WebSocketSink) markDisconnected() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.connected {
		s.connected = false
		s.conn.Close()
	}
}
