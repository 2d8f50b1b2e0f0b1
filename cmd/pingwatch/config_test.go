package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Kevin-Rudy/pingwatch/pkg/monitor"
	"github.com/Kevin-Rudy/pingwatch/pkg/pinger"
	"github.com/Kevin-Rudy/pingwatch/pkg/tui"
)

// writeConfigFile 写一个临时YAML配置文件并返回其路径
func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pingwatch.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

// TestLoadFileOptions 测试YAML配置文件的解析
func TestLoadFileOptions(t *testing.T) {
	path := writeConfigFile(t, `
destination: 8.8.8.8
interval: 500ms
timeout: 2s
ip_version: 6
multiplier_percent: 150
recompute_interval: 5
min_threshold_ms: 10
max_threshold_ms: 300
debug: true
log_path: /tmp/probe.log
tui: true
`)

	opts, err := loadFileOptions(path)
	if err != nil {
		t.Fatalf("loadFileOptions failed: %v", err)
	}

	if opts.Destination != "8.8.8.8" {
		t.Errorf("Expected destination '8.8.8.8', got '%s'", opts.Destination)
	}
	if opts.Interval != 500*time.Millisecond {
		t.Errorf("Expected interval 500ms, got %v", opts.Interval)
	}
	if opts.Timeout != 2*time.Second {
		t.Errorf("Expected timeout 2s, got %v", opts.Timeout)
	}
	if opts.IPVersion != 6 {
		t.Errorf("Expected IP version 6, got %d", opts.IPVersion)
	}
	if opts.MultiplierPercent != 150 {
		t.Errorf("Expected multiplier 150, got %d", opts.MultiplierPercent)
	}
	if !opts.Debug || !opts.TUI {
		t.Error("Expected debug and tui flags to be set")
	}
}

// TestLoadFileOptionsErrors 测试配置文件的错误处理
func TestLoadFileOptionsErrors(t *testing.T) {
	// 文件不存在
	if _, err := loadFileOptions("/nonexistent/pingwatch.yaml"); err == nil {
		t.Error("Expected error for missing config file")
	}

	// 非法YAML
	path := writeConfigFile(t, "destination: [unclosed")
	if _, err := loadFileOptions(path); err == nil {
		t.Error("Expected error for invalid YAML")
	}
}

// TestApplyFileOptions 测试文件配置的套用
func TestApplyFileOptions(t *testing.T) {
	config := &AppConfig{
		MonitorConfig: monitor.DefaultConfig(),
		PingerConfig:  pinger.DefaultConfig(),
		TUIConfig:     tui.DefaultConfig(),
	}

	opts := &fileOptions{
		Destination:       "1.1.1.1",
		Interval:          2 * time.Second,
		MultiplierPercent: 300,
		MinThresholdMs:    30,
		STUNServer:        "stun.example.com:3478",
	}
	applyFileOptions(config, opts)

	if config.MonitorConfig.Destination != "1.1.1.1" {
		t.Errorf("Expected destination '1.1.1.1', got '%s'", config.MonitorConfig.Destination)
	}
	if config.MonitorConfig.Interval != 2*time.Second {
		t.Errorf("Expected interval 2s, got %v", config.MonitorConfig.Interval)
	}
	if config.MonitorConfig.Threshold.MultiplierPercent != 300 {
		t.Errorf("Expected multiplier 300, got %d", config.MonitorConfig.Threshold.MultiplierPercent)
	}
	if config.MonitorConfig.Threshold.Min != 30 {
		t.Errorf("Expected min threshold 30, got %f", config.MonitorConfig.Threshold.Min)
	}
	if config.STUNServer != "stun.example.com:3478" {
		t.Errorf("Expected STUN server applied, got '%s'", config.STUNServer)
	}

	// 未出现在文件中的值保持默认
	if config.PingerConfig.Timeout != 3*time.Second {
		t.Errorf("Expected default timeout preserved, got %v", config.PingerConfig.Timeout)
	}
}

// TestValidateConfig 测试应用层配置验证
func TestValidateConfig(t *testing.T) {
	valid := &AppConfig{
		MonitorConfig: monitor.DefaultConfig(),
		PingerConfig:  pinger.DefaultConfig(),
		TUIConfig:     tui.DefaultConfig(),
	}
	valid.MonitorConfig.Destination = "8.8.8.8"
	if err := validateConfig(valid); err != nil {
		t.Errorf("Expected valid config, got: %v", err)
	}

	// 缺少目标
	missing := &AppConfig{
		MonitorConfig: monitor.DefaultConfig(),
		PingerConfig:  pinger.DefaultConfig(),
		TUIConfig:     tui.DefaultConfig(),
	}
	if err := validateConfig(missing); err == nil {
		t.Error("Expected error for missing destination")
	}

	// STUN模式下跳过ICMP配置验证
	stunMode := &AppConfig{
		MonitorConfig: monitor.DefaultConfig(),
		PingerConfig:  &pinger.Config{IPVersion: 9, Timeout: time.Second}, // 非法但不应被检查
		TUIConfig:     tui.DefaultConfig(),
		STUNServer:    "stun.l.google.com:19302",
	}
	stunMode.MonitorConfig.Destination = "stun.l.google.com:19302"
	if err := validateConfig(stunMode); err != nil {
		t.Errorf("Expected STUN mode to skip pinger validation, got: %v", err)
	}
}
