//go:build linux

// Package pinger - Linux非特权模式实现
// 使用SOCK_DGRAM类型的ICMP套接字，仅适用于Linux系统
package pinger

import (
	"context"
	"fmt"
	"net"
	"os"
	"syscall"
	"time"

	"github.com/Kevin-Rudy/pingwatch/pkg/core"
	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
)

// dgramProber Linux非特权模式的探测实现
type dgramProber struct {
	config      *Config
	destination string
	dst         *net.IPAddr
	sock4       int // IPv4 DGRAM socket
	id          int
	seq         int
}

// newLinuxDgramProber 创建Linux非特权模式的探测器实例
func newLinuxDgramProber(destination string, config *Config) (core.Prober, error) {
	dst, err := net.ResolveIPAddr(config.GetIPProtocol(), destination)
	if err != nil {
		return nil, err
	}

	// 创建DGRAM ICMP socket
	sock, err := syscall.Socket(syscall.AF_INET, syscall.SOCK_DGRAM, syscall.IPPROTO_ICMP)
	if err != nil {
		return nil, err
	}

	return &dgramProber{
		config:      config,
		destination: destination,
		dst:         dst,
		sock4:       sock,
		id:          os.Getpid() & 0xffff,
	}, nil
}

// Probe 实现core.Prober接口，执行一次ICMP回显探测
func (p *dgramProber) Probe(ctx context.Context) core.ProbeResult {
	p.seq++

	msg := &icmp.Message{
		Type: ipv4.ICMPTypeEcho,
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

	// 构建sockaddr_in结构
	sockaddr := &syscall.SockaddrInet4{}
	copy(sockaddr.Addr[:], p.dst.IP.To4())

	sendTime := time.Now()

	// 设置接收超时，兼顾ctx的截止时间
	timeout := time.Until(probeDeadline(ctx, sendTime, p.config.Timeout))
	tv := syscall.Timeval{
		Sec:  int64(timeout.Seconds()),
		Usec: int64(timeout.Nanoseconds()/1000) % 1000000,
	}
	if err := syscall.SetsockoptTimeval(p.sock4, syscall.SOL_SOCKET, syscall.SO_RCVTIMEO, &tv); err != nil {
		return failedResult(sendTime, fmt.Sprintf("设置超时失败: %v", err))
	}

	if err := syscall.Sendto(p.sock4, data, 0, sockaddr); err != nil {
		return failedResult(sendTime, fmt.Sprintf("发送失败: %v", err))
	}

	reply := make([]byte, 1500)
	for {
		n, from, err := syscall.Recvfrom(p.sock4, reply, 0)
		if err != nil {
			// 超时或其他错误
			return failedResult(sendTime, fmt.Sprintf("等待回复超时: %v", err))
		}

		// 检查来源地址
		if fromAddr, ok := from.(*syscall.SockaddrInet4); ok {
			fromIP := net.IPv4(fromAddr.Addr[0], fromAddr.Addr[1], fromAddr.Addr[2], fromAddr.Addr[3])
			if !fromIP.Equal(p.dst.IP) {
				continue
			}
		}

		replyMsg, err := icmp.ParseMessage(ipv4.ICMPTypeEchoReply.Protocol(), reply[:n])
		if err != nil {
			continue
		}

		// 验证回复的ID和序列号
		// DGRAM socket下内核会重写ID，因此只校验序列号
		echo, ok := replyMsg.Body.(*icmp.Echo)
		if !ok || echo.Seq != p.seq {
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

// Close 关闭探测器持有的socket
func (p *dgramProber) Close() error {
	if p.sock4 > 0 {
		return syscall.Close(p.sock4)
	}
	return nil
}
