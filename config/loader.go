// =============================================================================
// 📦 FedSearch 配置加载器
// =============================================================================
// 统一配置加载，支持 YAML 文件 + 环境变量覆盖
//
// 使用方法:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("config.yaml").
//	    WithEnvPrefix("FEDSEARCH").
//	    Load()
//
// 配置优先级: 默认值 → YAML 文件 → 环境变量
// =============================================================================
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// 🎯 核心配置结构
// =============================================================================

// Config 是联邦检索层的完整配置结构
type Config struct {
	// Server HTTP 服务配置
	Server ServerConfig `yaml:"server" env:"SERVER"`

	// Federation 联邦调度配置
	Federation FederationConfig `yaml:"federation" env:"FEDERATION"`

	// Health 健康监控配置
	Health HealthConfig `yaml:"health" env:"HEALTH"`

	// Privacy 隐私变换配置
	Privacy PrivacyConfig `yaml:"privacy" env:"PRIVACY"`

	// Registry 节点注册表配置
	Registry RegistryConfig `yaml:"registry" env:"REGISTRY"`

	// Redis 结果缓存配置
	Redis RedisConfig `yaml:"redis" env:"REDIS"`

	// Auth API 鉴权配置
	Auth AuthConfig `yaml:"auth" env:"AUTH"`

	// Log 日志配置
	Log LogConfig `yaml:"log" env:"LOG"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	// HTTP 端口
	HTTPPort int `yaml:"http_port" env:"HTTP_PORT"`
	// Metrics 端口
	MetricsPort int `yaml:"metrics_port" env:"METRICS_PORT"`
	// 读取超时
	ReadTimeout time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	// 写入超时
	WriteTimeout time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	// 优雅关闭超时
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	// 每客户端限流 RPS
	RateLimitRPS float64 `yaml:"rate_limit_rps" env:"RATE_LIMIT_RPS"`
	// 限流突发量
	RateLimitBurst int `yaml:"rate_limit_burst" env:"RATE_LIMIT_BURST"`
}

// FederationConfig 联邦调度配置
type FederationConfig struct {
	// 单次查询最多选中的节点数
	MaxNodesPerQuery int `yaml:"max_nodes_per_query" env:"MAX_NODES_PER_QUERY"`
	// 单节点调用超时
	NodeTimeout time.Duration `yaml:"node_timeout" env:"NODE_TIMEOUT"`
	// 默认排序策略: quality_weighted, diversity_aware, score_fusion, round_robin
	DefaultStrategy string `yaml:"default_strategy" env:"DEFAULT_STRATEGY"`
	// 节点选择策略: weighted, round_robin, least_connections
	SelectionStrategy string `yaml:"selection_strategy" env:"SELECTION_STRATEGY"`
	// 最终返回的文档数上限
	MaxResults int `yaml:"max_results" env:"MAX_RESULTS"`
	// 单节点请求的文档数
	PerNodeLimit int `yaml:"per_node_limit" env:"PER_NODE_LIMIT"`
}

// HealthConfig 健康监控配置
type HealthConfig struct {
	// 探测间隔
	ProbeInterval time.Duration `yaml:"probe_interval" env:"PROBE_INTERVAL"`
	// 单次探测超时
	ProbeTimeout time.Duration `yaml:"probe_timeout" env:"PROBE_TIMEOUT"`
	// 连续失败阈值，达到后标记不健康
	MaxConsecutiveFailures int `yaml:"max_consecutive_failures" env:"MAX_CONSECUTIVE_FAILURES"`
	// 可用率滚动窗口
	UptimeWindow time.Duration `yaml:"uptime_window" env:"UPTIME_WINDOW"`
}

// PrivacyConfig 隐私变换配置
type PrivacyConfig struct {
	// 模式: strict 或 standard。strict 模式下泛化失败也 fail-closed
	Mode string `yaml:"mode" env:"MODE"`
	// 受限节点对称加密共享密钥
	SharedSecret string `yaml:"shared_secret" env:"SHARED_SECRET"`
	// 噪声注入预算参数，越小扰动越强
	Epsilon float64 `yaml:"epsilon" env:"EPSILON"`
}

// RegistryConfig 节点注册表配置
type RegistryConfig struct {
	// 是否持久化节点描述符
	PersistEnabled bool `yaml:"persist_enabled" env:"PERSIST_ENABLED"`
	// SQLite 存储路径
	StorePath string `yaml:"store_path" env:"STORE_PATH"`
	// 自动发现并发上限
	DiscoveryConcurrency int `yaml:"discovery_concurrency" env:"DISCOVERY_CONCURRENCY"`
	// 自动发现准入健康检查超时
	DiscoveryTimeout time.Duration `yaml:"discovery_timeout" env:"DISCOVERY_TIMEOUT"`
}

// RedisConfig Redis 结果缓存配置
type RedisConfig struct {
	// 是否启用结果缓存
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// 地址
	Addr string `yaml:"addr" env:"ADDR"`
	// 密码
	Password string `yaml:"password" env:"PASSWORD"`
	// 数据库编号
	DB int `yaml:"db" env:"DB"`
	// 结果缓存 TTL
	ResultTTL time.Duration `yaml:"result_ttl" env:"RESULT_TTL"`
	// 连接池大小
	PoolSize int `yaml:"pool_size" env:"POOL_SIZE"`
	// 最小空闲连接
	MinIdleConns int `yaml:"min_idle_conns" env:"MIN_IDLE_CONNS"`
}

// AuthConfig API 鉴权配置
type AuthConfig struct {
	// 是否启用 JWT 鉴权
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// JWT HMAC 签名密钥
	JWTSecret string `yaml:"jwt_secret" env:"JWT_SECRET"`
	// 签发者校验，留空则不校验
	Issuer string `yaml:"issuer" env:"ISSUER"`
}

// LogConfig 日志配置
type LogConfig struct {
	// 日志级别: debug, info, warn, error
	Level string `yaml:"level" env:"LEVEL"`
	// 输出格式: json, console
	Format string `yaml:"format" env:"FORMAT"`
	// 输出路径
	OutputPaths []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
	// 是否启用调用者信息
	EnableCaller bool `yaml:"enable_caller" env:"ENABLE_CALLER"`
}

// =============================================================================
// 🔧 配置加载器
// =============================================================================

// Loader 配置加载器（Builder 模式）
type Loader struct {
	configPath string
	envPrefix  string
	validators []func(*Config) error
}

// NewLoader 创建新的配置加载器
func NewLoader() *Loader {
	return &Loader{
		envPrefix:  "FEDSEARCH",
		validators: make([]func(*Config) error, 0),
	}
}

// WithConfigPath 设置配置文件路径
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix 设置环境变量前缀
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithValidator 添加配置验证器
func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// Load 加载配置
// 优先级: 默认值 → YAML 文件 → 环境变量
func (l *Loader) Load() (*Config, error) {
	// 1. 从默认值开始
	cfg := DefaultConfig()

	// 2. 如果指定了配置文件，从文件加载
	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// 3. 从环境变量覆盖
	if err := l.loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	// 4. 运行验证器
	for _, v := range l.validators {
		if err := v(cfg); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}

	return cfg, nil
}

// loadFromFile 从 YAML 文件加载配置
func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// 文件不存在，使用默认值
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// loadFromEnv 从环境变量加载配置
func (l *Loader) loadFromEnv(cfg *Config) error {
	return l.setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix)
}

// setFieldsFromEnv 递归设置结构体字段
func (l *Loader) setFieldsFromEnv(v reflect.Value, prefix string) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		// 获取 env tag
		envTag := fieldType.Tag.Get("env")
		if envTag == "" || envTag == "-" {
			continue
		}

		envKey := prefix + "_" + envTag

		// 如果是结构体，递归处理
		if field.Kind() == reflect.Struct {
			if err := l.setFieldsFromEnv(field, envKey); err != nil {
				return err
			}
			continue
		}

		// 获取环境变量值
		envValue := os.Getenv(envKey)
		if envValue == "" {
			continue
		}

		// 设置字段值
		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("failed to set %s: %w", envKey, err)
		}
	}

	return nil
}

// setFieldValue 设置字段值
func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		// 特殊处理 time.Duration
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return err
			}
			field.SetInt(i)
		}

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)

	case reflect.Slice:
		// 支持逗号分隔的字符串切片
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			field.Set(reflect.ValueOf(parts))
		}
	}

	return nil
}

// =============================================================================
// 🔍 辅助函数
// =============================================================================

// MustLoad 加载配置，失败时 panic
func MustLoad(path string) *Config {
	cfg, err := NewLoader().WithConfigPath(path).Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// Validate 验证配置
func (c *Config) Validate() error {
	var errs []string

	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		errs = append(errs, "invalid HTTP port")
	}
	if c.Federation.MaxNodesPerQuery <= 0 {
		errs = append(errs, "max_nodes_per_query must be positive")
	}
	if c.Federation.NodeTimeout <= 0 {
		errs = append(errs, "node_timeout must be positive")
	}
	switch c.Federation.DefaultStrategy {
	case "quality_weighted", "diversity_aware", "score_fusion", "round_robin":
	default:
		errs = append(errs, fmt.Sprintf("unknown default_strategy %q", c.Federation.DefaultStrategy))
	}
	switch c.Federation.SelectionStrategy {
	case "weighted", "round_robin", "least_connections":
	default:
		errs = append(errs, fmt.Sprintf("unknown selection_strategy %q", c.Federation.SelectionStrategy))
	}
	if c.Health.MaxConsecutiveFailures <= 0 {
		errs = append(errs, "max_consecutive_failures must be positive")
	}
	if c.Health.ProbeInterval <= 0 {
		errs = append(errs, "probe_interval must be positive")
	}
	switch c.Privacy.Mode {
	case "strict", "standard":
	default:
		errs = append(errs, fmt.Sprintf("unknown privacy mode %q", c.Privacy.Mode))
	}
	if c.Privacy.Epsilon <= 0 {
		errs = append(errs, "privacy epsilon must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}

	return nil
}
