// =============================================================================
// 📦 FedSearch 默认配置
// =============================================================================
// 提供所有配置项的合理默认值
// =============================================================================
package config

import "time"

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Server:     DefaultServerConfig(),
		Federation: DefaultFederationConfig(),
		Health:     DefaultHealthConfig(),
		Privacy:    DefaultPrivacyConfig(),
		Registry:   DefaultRegistryConfig(),
		Redis:      DefaultRedisConfig(),
		Auth:       DefaultAuthConfig(),
		Log:        DefaultLogConfig(),
	}
}

// DefaultServerConfig 返回默认服务器配置
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		HTTPPort:        8080,
		MetricsPort:     9091,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    60 * time.Second,
		ShutdownTimeout: 15 * time.Second,
		RateLimitRPS:    100,
		RateLimitBurst:  200,
	}
}

// DefaultFederationConfig 返回默认联邦调度配置
func DefaultFederationConfig() FederationConfig {
	return FederationConfig{
		MaxNodesPerQuery:  5,
		NodeTimeout:       30 * time.Second,
		DefaultStrategy:   "quality_weighted",
		SelectionStrategy: "weighted",
		MaxResults:        20,
		PerNodeLimit:      10,
	}
}

// DefaultHealthConfig 返回默认健康监控配置
func DefaultHealthConfig() HealthConfig {
	return HealthConfig{
		ProbeInterval:          30 * time.Second,
		ProbeTimeout:           5 * time.Second,
		MaxConsecutiveFailures: 3,
		UptimeWindow:           24 * time.Hour,
	}
}

// DefaultPrivacyConfig 返回默认隐私变换配置
func DefaultPrivacyConfig() PrivacyConfig {
	return PrivacyConfig{
		Mode:    "standard",
		Epsilon: 1.0,
	}
}

// DefaultRegistryConfig 返回默认注册表配置
func DefaultRegistryConfig() RegistryConfig {
	return RegistryConfig{
		PersistEnabled:       false,
		StorePath:            "fedsearch_nodes.db",
		DiscoveryConcurrency: 4,
		DiscoveryTimeout:     5 * time.Second,
	}
}

// DefaultRedisConfig 返回默认 Redis 配置
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Enabled:      false,
		Addr:         "localhost:6379",
		Password:     "",
		DB:           0,
		ResultTTL:    5 * time.Minute,
		PoolSize:     10,
		MinIdleConns: 2,
	}
}

// DefaultAuthConfig 返回默认鉴权配置
func DefaultAuthConfig() AuthConfig {
	return AuthConfig{
		Enabled: false,
	}
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:        "info",
		Format:       "json",
		OutputPaths:  []string{"stdout"},
		EnableCaller: false,
	}
}
