package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr        string `yaml:"listen_addr"`
	Port              string `yaml:"port"`
	DataPath          string `yaml:"data_path"`
	BlocklistPath     string `yaml:"blocklist_path"`
	AuditLogPath      string `yaml:"audit_log_path"`
	SessionSecret     string `yaml:"session_secret"`
	GinMode           string `yaml:"gin_mode"`
	LogLevel          string `yaml:"log_level"`
	LogJSON           bool   `yaml:"log_json"`
	Timezone          string `yaml:"timezone"`
	TrustForwardedFor bool   `yaml:"trust_forwarded_for"`
}

// Defaults 返回与原始部署一致的默认配置：数据文件位于工作目录，监听 81 端口。
func Defaults() AppConfig {
	return AppConfig{
		Port:              "81",
		DataPath:          "data.json",
		BlocklistPath:     "blocked_ips.json",
		AuditLogPath:      "audit_log.txt",
		SessionSecret:     "flatblog-dev-secret",
		GinMode:           "release",
		LogLevel:          "info",
		Timezone:          "Local",
		TrustForwardedFor: true,
	}
}

// Load 先读取 CONFIG_FILE 指向的 YAML（可选），再用环境变量覆盖。
func Load() (AppConfig, error) {
	cfg := Defaults()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, err
		}
	}

	applyEnv(&cfg)

	if cfg.ListenAddr == "" {
		cfg.ListenAddr = fmt.Sprintf("0.0.0.0:%s", cfg.Port)
	}
	return cfg, nil
}

func loadFile(path string, cfg *AppConfig) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *AppConfig) {
	setString(&cfg.ListenAddr, "LISTEN_ADDR")
	setString(&cfg.Port, "PORT")
	setString(&cfg.DataPath, "DATA_PATH")
	setString(&cfg.BlocklistPath, "BLOCKLIST_PATH")
	setString(&cfg.AuditLogPath, "AUDIT_LOG_PATH")
	setString(&cfg.SessionSecret, "SESSION_SECRET")
	setString(&cfg.GinMode, "GIN_MODE")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.Timezone, "TIMEZONE")
	setBool(&cfg.LogJSON, "LOG_JSON")
	setBool(&cfg.TrustForwardedFor, "TRUST_FORWARDED_FOR")
}

func setString(dst *string, key string) {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		*dst = value
	}
}

// 无法解析的布尔值被忽略，保留原有配置。
func setBool(dst *bool, key string) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return
	}
	*dst = parsed
}

// Location 解析时区配置；空值或 "Local" 使用进程本地时区。
func (c AppConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(c.Timezone)
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", name, err)
	}
	return loc, nil
}
