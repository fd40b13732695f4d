// Package config 提供配置管理
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	apperrors "github.com/paiban/fca/pkg/errors"
	"github.com/paiban/fca/pkg/logger"
	"github.com/paiban/fca/pkg/reserve"
	"github.com/paiban/fca/pkg/scheduler/solver"
)

// EnvPrefix 环境变量前缀，双下划线表示层级，如 FCA_SOLVER__TIME_LIMIT
const EnvPrefix = "FCA_"

// Config 应用配置
type Config struct {
	App      AppConfig       `json:"app"`
	Data     DataConfig      `json:"data"`
	Database DatabaseConfig  `json:"database"`
	Solver   SolverConfig    `json:"solver"`
	Rules    RulesConfig     `json:"rules"`
	Output   OutputConfig    `json:"output"`
	Metrics  MetricsConfig   `json:"metrics"`
	Reserve  []reserve.Slate `json:"reserve" validate:"dive"`
}

// AppConfig 应用基础配置
type AppConfig struct {
	Name      string `json:"name" validate:"required"`
	Env       string `json:"env" validate:"oneof=development test production"`
	LogLevel  string `json:"log_level" validate:"oneof=debug info warn error"`
	LogFormat string `json:"log_format" validate:"oneof=console json"`
	LogOutput string `json:"log_output" validate:"oneof=stdout stderr file"`
	LogFile   string `json:"log_file" validate:"required_if=LogOutput file"`
}

// Logger 转换为日志配置
func (c AppConfig) Logger() logger.Config {
	cfg := logger.DefaultConfig()
	cfg.Level = c.LogLevel
	cfg.Format = c.LogFormat
	cfg.Output = c.LogOutput
	cfg.FilePath = c.LogFile
	return cfg
}

// 数据来源
const (
	SourceCSV      = "csv"
	SourcePostgres = "postgres"
)

// DataConfig 输入数据配置；文件名中的 {seat} 替换为岗位
type DataConfig struct {
	Source      string `json:"source" validate:"oneof=csv postgres"`
	Dir         string `json:"dir" validate:"required"`
	Pairings    string `json:"pairings" validate:"required"`
	CrewRecords string `json:"crew_records" validate:"required"`
	Preferences string `json:"preferences" validate:"required"`
}

// PairingsPath 任务表路径
func (c DataConfig) PairingsPath(seat string) string { return c.path(c.Pairings, seat) }

// CrewRecordsPath 机组记录表路径
func (c DataConfig) CrewRecordsPath(seat string) string { return c.path(c.CrewRecords, seat) }

// PreferencesPath 偏好表路径
func (c DataConfig) PreferencesPath(seat string) string { return c.path(c.Preferences, seat) }

func (c DataConfig) path(name, seat string) string {
	return filepath.Join(c.Dir, strings.ReplaceAll(name, "{seat}", seat))
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host            string        `json:"host"`
	Port            int           `json:"port" validate:"gte=0,lte=65535"`
	Name            string        `json:"name"`
	User            string        `json:"user"`
	Password        string        `json:"password"`
	SSLMode         string        `json:"ssl_mode" validate:"omitempty,oneof=disable require verify-ca verify-full"`
	MaxOpenConns    int           `json:"max_open_conns" validate:"gte=0"`
	MaxIdleConns    int           `json:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime"`
	SlowQuery       time.Duration `json:"slow_query"`
}

// DSN 返回数据库连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// SolverConfig 求解器配置
type SolverConfig struct {
	Backend       string        `json:"backend" validate:"oneof=cbc glpk"`
	Binary        string        `json:"binary"`
	Threads       int           `json:"threads" validate:"gte=0"`
	TimeLimit     time.Duration `json:"time_limit" validate:"gt=0"`
	Gap           float64       `json:"gap" validate:"gte=0,lt=1"`
	StepTimeLimit time.Duration `json:"step_time_limit" validate:"gt=0"`
	WorkDir       string        `json:"work_dir"`
	KeepFiles     bool          `json:"keep_files"`
}

// Options 完整求解的参数
func (c SolverConfig) Options() solver.Options {
	return solver.Options{
		TimeLimit: c.TimeLimit,
		Gap:       c.Gap,
		Threads:   c.Threads,
		WorkDir:   c.WorkDir,
		KeepFiles: c.KeepFiles,
	}
}

// StepOptions 诊断每一步的求解参数：只求可行，不要求间隙
func (c SolverConfig) StepOptions() solver.Options {
	opts := c.Options()
	opts.TimeLimit = c.StepTimeLimit
	opts.Gap = 0
	return opts
}

// New 按配置创建求解器
func (c SolverConfig) New() (solver.Solver, error) {
	return solver.New(c.Backend, solver.Config{Binary: c.Binary})
}

// OutputConfig 结果输出配置
type OutputConfig struct {
	Dir string `json:"dir" validate:"required"`
}

// MetricsConfig 监控配置；Textfile 为空时不写出
type MetricsConfig struct {
	Enabled  bool   `json:"enabled"`
	Textfile string `json:"textfile" validate:"required_if=Enabled true"`
}

// Default 返回不依赖配置文件即可使用的默认配置
func Default() *Config {
	return &Config{
		App: AppConfig{
			Name:      "fca",
			Env:       "development",
			LogLevel:  "info",
			LogFormat: "console",
			LogOutput: "stdout",
		},
		Data: DataConfig{
			Source:      SourceCSV,
			Dir:         ".",
			Pairings:    "selpair_setup_{seat}.csv",
			CrewRecords: "{seat}_crew_records.csv",
			Preferences: "bid_dat_test.csv",
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			Name:            "fca",
			User:            "fca",
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
			SlowQuery:       100 * time.Millisecond,
		},
		Solver: SolverConfig{
			Backend:       "cbc",
			Binary:        "cbc",
			Threads:       4,
			TimeLimit:     10 * time.Minute,
			Gap:           0.01,
			StepTimeLimit: 30 * time.Second,
		},
		Rules: DefaultRules(),
		Output: OutputConfig{
			Dir: ".",
		},
		Metrics: MetricsConfig{
			Enabled: false,
		},
	}
}

// Load 读取配置文件（YAML 或 JSON）并叠加 FCA_ 环境变量；path 为空时只用默认值和环境变量
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		var parser koanf.Parser
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("不支持的配置文件格式: %s", path)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("读取环境变量失败: %w", err)
	}

	cfg := Default()
	// 列表整体替换，不与默认值按下标合并
	if k.Exists("rules.windows") {
		cfg.Rules.Windows = nil
	}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envKey FCA_SOLVER__TIME_LIMIT -> solver.time_limit
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

var validate = validator.New()

// Validate 校验配置，返回汇总全部问题的 VALIDATION_FAILED 错误
func (c *Config) Validate() error {
	var ve apperrors.ValidationErrors
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return apperrors.Wrap(err, apperrors.CodeInternal, "配置校验失败")
		}
		for _, fe := range fieldErrs {
			ve.Add(fe.Namespace(), fmt.Sprintf("不满足 %s %s", fe.Tag(), fe.Param()))
		}
	}
	if c.Data.Source == SourcePostgres && c.Database.Name == "" {
		ve.Add("Config.Database.Name", "数据来源为 postgres 时必须配置")
	}
	if err := c.Rules.validateBases(); err != nil {
		ve.Add("Config.Rules.Bases", err.Error())
	}
	for i, s := range c.Reserve {
		if err := s.Validate(); err != nil {
			ve.Add(fmt.Sprintf("Config.Reserve[%d]", i), err.Error())
		}
	}
	if ve.HasErrors() {
		return ve.ToAppError()
	}
	return nil
}
