// Package config 提供配置管理
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/BlackDevilOC/managmetn-android-sub000/pkg/model"
	"github.com/BlackDevilOC/managmetn-android-sub000/pkg/workload"
)

// EnvPrefix 环境变量前缀，层级用双下划线分隔，如 SUBSTITUTE_ENGINE__WORKLOAD_CAP
const EnvPrefix = "SUBSTITUTE_"

// 存储后端
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

// Config 应用配置
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Data     DataConfig     `koanf:"data"`
	Engine   EngineConfig   `koanf:"engine"`
	Store    StoreConfig    `koanf:"store"`
	Database DatabaseConfig `koanf:"database"`
	Log      LogConfig      `koanf:"log"`
	Metrics  MetricsConfig  `koanf:"metrics"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Host         string        `koanf:"host"`
	Port         int           `koanf:"port"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`

	// APIKeys 为空时不做认证
	APIKeys []string `koanf:"api_keys"`

	// RateLimit 每个客户端每分钟的请求上限，0 表示不限
	RateLimit int `koanf:"rate_limit"`
}

// Addr 返回监听地址
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DataConfig 数据文件配置，相对路径以 Dir 为基准
type DataConfig struct {
	Dir         string `koanf:"dir"`
	Roster      string `koanf:"roster"`
	Timetable   string `koanf:"timetable"`
	Schedules   string `koanf:"schedules"`
	Absent      string `koanf:"absent"`
	Overrides   string `koanf:"overrides"`
	Assignments string `koanf:"assignments"`
	Logs        string `koanf:"logs"`
}

// Path 解析数据文件路径；空名称返回空字符串
func (c *DataConfig) Path(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Dir, name)
}

// EngineConfig 分配引擎配置
type EngineConfig struct {
	WorkloadCap         int     `koanf:"workload_cap"`
	DefaultGrade        int     `koanf:"default_grade"`
	SimilarityThreshold float64 `koanf:"similarity_threshold"`
	MaxGini             float64 `koanf:"max_gini"`
}

// StoreConfig 分配文档存储配置
type StoreConfig struct {
	Backend string `koanf:"backend"` // file | postgres
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Name            string        `koanf:"dbname"`
	User            string        `koanf:"user"`
	Password        string        `koanf:"password"`
	SSLMode         string        `koanf:"sslmode"`
	MaxOpenConns    int           `koanf:"max_open"`
	MaxIdleConns    int           `koanf:"max_idle"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
}

// DSN 返回数据库连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json | console
	Output string `koanf:"output"` // stdout | stderr | file
	File   string `koanf:"file"`
}

// MetricsConfig 监控配置
type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         7012,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			RateLimit:    120,
		},
		Data: DataConfig{
			Dir:         "data",
			Roster:      "total_teacher.json",
			Timetable:   "timetable_file.csv",
			Schedules:   "teacher_schedules.json",
			Absent:      "absent_teachers.json",
			Overrides:   "overrides.yaml",
			Assignments: "assigned_teacher.json",
			Logs:        "logs",
		},
		Engine: EngineConfig{
			WorkloadCap:         workload.DefaultCap,
			DefaultGrade:        model.DefaultGradeLevel,
			SimilarityThreshold: 0.98,
			MaxGini:             0.5,
		},
		Store: StoreConfig{
			Backend: BackendFile,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			Name:            "substitute",
			User:            "substitute",
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
			Output: "stderr",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Load 加载配置：默认值 -> 可选 YAML 文件 -> 环境变量
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".yaml" && ext != ".yml" {
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envKey SUBSTITUTE_ENGINE__WORKLOAD_CAP -> engine.workload_cap
func envKey(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(s), "__", ".")
}

// Validate 校验配置
func (c *Config) Validate() error {
	if c.Engine.WorkloadCap < 1 {
		return fmt.Errorf("engine.workload_cap must be at least 1, got %d", c.Engine.WorkloadCap)
	}
	if c.Engine.SimilarityThreshold <= 0 || c.Engine.SimilarityThreshold > 1 {
		return fmt.Errorf("engine.similarity_threshold must be in (0, 1], got %g", c.Engine.SimilarityThreshold)
	}
	if c.Engine.DefaultGrade < 1 {
		return fmt.Errorf("engine.default_grade must be positive, got %d", c.Engine.DefaultGrade)
	}
	switch c.Store.Backend {
	case BackendFile, BackendPostgres:
	default:
		return fmt.Errorf("unknown store.backend %q", c.Store.Backend)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("server.rate_limit must not be negative, got %d", c.Server.RateLimit)
	}
	return nil
}
