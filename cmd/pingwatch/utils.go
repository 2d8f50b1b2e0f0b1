package main

import (
	"fmt"

	"github.com/Kevin-Rudy/pingwatch/pkg/pinger"
)

// 程序信息常量
const (
	AppName    = "pingwatch"
	AppVersion = "0.1.0"
	AppDesc    = "带自适应尖峰检测的持续网络延迟监控工具"
)

// showSystemInfo 显示系统环境和配置信息
func showSystemInfo() {
	fmt.Println("\n系统信息:")
	fmt.Printf("  操作系统: %s\n", pinger.GetOSName())
	fmt.Printf("  权限状态: %s\n", pinger.GetPrivilegeStatus())
	fmt.Printf("  实现方式: %s\n", pinger.GetImplementationType())
}

// printUsageInstructions 显示操作说明
func printUsageInstructions(useTUI bool) {
	fmt.Println("操作说明:")
	if useTUI {
		fmt.Println("  q 或 Ctrl+C - 退出并打印会话汇总")
	} else {
		fmt.Println("  Ctrl+C - 停止监控并打印会话汇总")
	}
	fmt.Println("========================================")
}
