// Package stunprobe 实现基于STUN绑定请求的core.Prober
// 在ICMP不可用的网络环境（容器、受限云主机等）下用UDP往返时间替代
package stunprobe

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Kevin-Rudy/pingwatch/pkg/core"
	"github.com/pion/stun/v3"
)

// Prober 基于STUN服务器的探测实现
// 每次Probe发起一次Binding Request并测量往返时间
type Prober struct {
	server  string
	timeout time.Duration
}

// NewProber 创建STUN探测器
// server形如 "stun.l.google.com:19302"，可带stun:前缀
func NewProber(server string, timeout time.Duration) (*Prober, error) {
	server = strings.TrimSpace(server)
	if server == "" {
		return nil, errors.New("必须指定STUN服务器地址")
	}

	if timeout <= 0 {
		return nil, errors.New("超时时间必须大于0")
	}

	// 提前验证URI格式，无效地址在启动时报错而不是首次探测时
	if _, err := stun.ParseURI(NormalizeURI(server)); err != nil {
		return nil, fmt.Errorf("无效的STUN服务器地址 '%s': %v", server, err)
	}

	return &Prober{
		server:  server,
		timeout: timeout,
	}, nil
}

// Probe 实现core.Prober接口，执行一次STUN绑定请求
func (p *Prober) Probe(ctx context.Context) core.ProbeResult {
	sendTime := time.Now()

	uri, err := stun.ParseURI(NormalizeURI(p.server))
	if err != nil {
		return failed(sendTime, err.Error())
	}

	client, err := stun.DialURI(uri, &stun.DialConfig{})
	if err != nil {
		return failed(sendTime, fmt.Sprintf("连接STUN服务器失败: %v", err))
	}
	defer client.Close()

	msg := stun.MustBuild(stun.TransactionID, stun.BindingRequest)
	result := make(chan core.ProbeResult, 1)
	fail := make(chan error, 1)

	sendTime = time.Now()
	go func() {
		err := client.Do(msg, func(res stun.Event) {
			receiveTime := time.Now()
			if res.Error != nil {
				fail <- res.Error
				return
			}

			raw := "binding response"
			var mapped stun.XORMappedAddress
			if err := mapped.GetFrom(res.Message); err == nil {
				raw = fmt.Sprintf("binding response mapped=%s", mapped.String())
			}

			latencyMs := float64(receiveTime.Sub(sendTime).Nanoseconds()) / 1e6
			result <- core.ProbeResult{
				Success:     true,
				Latency:     latencyMs,
				RawMessage:  raw,
				SendTime:    sendTime,
				ReceiveTime: receiveTime,
			}
		})
		if err != nil {
			fail <- err
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	select {
	case r := <-result:
		return r
	case err := <-fail:
		return failed(sendTime, fmt.Sprintf("STUN请求失败: %v", err))
	case <-ctx.Done():
		return failed(sendTime, fmt.Sprintf("等待回复超时: %v", ctx.Err()))
	}
}

// Close 实现core.Prober接口
// 客户端按次创建按次关闭，这里没有长期持有的资源
func (p *Prober) Close() error {
	return nil
}

// NormalizeURI 补全stun:前缀
func NormalizeURI(server string) string {
	if strings.HasPrefix(server, "stun:") {
		return server
	}
	return "stun:" + server
}

// failed 构造失败结果
func failed(sendTime time.Time, message string) core.ProbeResult {
	return core.ProbeResult{
		Success:     false,
		Latency:     math.NaN(),
		RawMessage:  message,
		SendTime:    sendTime,
		ReceiveTime: time.Now(),
	}
}
