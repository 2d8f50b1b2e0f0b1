// Package pinger - 特权模式实现
// 使用原始套接字，需要管理员/root权限，但支持所有操作系统
package pinger

import (
	"context"
	"fmt"
	"math"
	"net"
	"os"
	"time"

	"github.com/Kevin-Rudy/pingwatch/pkg/core"
	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
)

// privilegedProber 特权模式的探测实现
// 连接在构造时建立并在多次Probe之间复用
type privilegedProber struct {
	config      *Config
	destination string
	conn        net.Conn
	id          int // ICMP Echo ID，取进程号低16位
	seq         int // 回显序列号，每次探测递增
}

// newPrivilegedProber 创建特权模式的探测器实例
func newPrivilegedProber(destination string, config *Config) (core.Prober, error) {
	dst, err := net.ResolveIPAddr(config.GetIPProtocol(), destination)
	if err != nil {
		return nil, err
	}

	protocol := "ip4:icmp"
	if config.IPVersion == 6 {
		protocol = "ip6:ipv6-icmp"
	}
	conn, err := net.Dial(protocol, dst.String())
	if err != nil {
		return nil, err
	}

	return &privilegedProber{
		config:      config,
		destination: destination,
		conn:        conn,
		id:          os.Getpid() & 0xffff,
	}, nil
}

// Probe 实现core.Prober接口，执行一次ICMP回显探测
func (p *privilegedProber) Probe(ctx context.Context) core.ProbeResult {
	p.seq++

	// 构建ICMP回显请求
	echoType := icmp.Type(ipv4.ICMPTypeEcho)
	if p.config.IPVersion == 6 {
		echoType = ipv6.ICMPTypeEchoRequest
	}
	msg := &icmp.Message{
		Type: echoType,
		Code: 0,
		Body: &icmp.Echo{
			ID:   p.id,
			Seq:  p.seq,
			Data: []byte("pingwatch"),
		},
	}

	data, err := msg.Marshal(nil)
	if err != nil {
		return failedResult(time.Now(), err.Error())
	}

	sendTime := time.Now()
	p.conn.SetDeadline(probeDeadline(ctx, sendTime, p.config.Timeout))

	if _, err := p.conn.Write(data); err != nil {
		return failedResult(sendTime, fmt.Sprintf("发送失败: %v", err))
	}

	reply := make([]byte, 1500)
	for {
		n, err := p.conn.Read(reply)
		if err != nil {
			return failedResult(sendTime, fmt.Sprintf("等待回复超时: %v", err))
		}

		replyMsg, err := icmp.ParseMessage(p.replyProtocol(), reply[:n])
		if err != nil {
			continue
		}

		// 验证回复的ID和序列号，忽略串台的包
		echo, ok := replyMsg.Body.(*icmp.Echo)
		if !ok || echo.ID != p.id || echo.Seq != p.seq {
			continue
		}

		receiveTime := time.Now()
		latencyMs := float64(receiveTime.Sub(sendTime).Nanoseconds()) / 1e6
		return core.ProbeResult{
			Success:     true,
			Latency:     latencyMs,
			RawMessage:  fmt.Sprintf("icmp_seq=%d time=%.1fms", p.seq, latencyMs),
			SendTime:    sendTime,
			ReceiveTime: receiveTime,
		}
	}
}

// replyProtocol 返回解析回复用的协议号
func (p *privilegedProber) replyProtocol() int {
	if p.config.IPVersion == 6 {
		return ipv6.ICMPTypeEchoReply.Protocol()
	}
	return ipv4.ICMPTypeEchoReply.Protocol()
}

// Close 关闭探测器持有的连接
func (p *privilegedProber) Close() error {
	return p.conn.Close()
}

// failedResult 构造失败结果，延迟固定为NaN
func failedResult(sendTime time.Time, message string) core.ProbeResult {
	return core.ProbeResult{
		Success:     false,
		Latency:     math.NaN(),
		RawMessage:  message,
		SendTime:    sendTime,
		ReceiveTime: time.Now(),
	}
}

// probeDeadline 计算本次探测的截止时间
// 取配置超时和ctx截止时间中较早的一个
func probeDeadline(ctx context.Context, sendTime time.Time, timeout time.Duration) time.Time {
	deadline := sendTime.Add(timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		return ctxDeadline
	}
	return deadline
}
