package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀
const EnvPrefix = "GSACONSOLE"

// LoadConfig 加载配置文件
// configPath: 配置文件目录，如果为空则使用默认路径
// env: 环境标识，支持 development, test, production
func LoadConfig(configPath, env string) (*Config, error) {
	// 设置默认环境
	if env == "" {
		env = getEnvFromEnvironment()
	}

	// 创建viper实例
	v := viper.New()
	v.SetConfigType("yaml")

	if configPath == "" {
		configPath = getDefaultConfigPath()
	}

	// 根据环境选择配置文件
	configFile := getConfigFileName(configPath, env)
	v.SetConfigFile(configFile)

	// 设置环境变量前缀
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)
	bindEnvironmentVariables(v)

	// 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	// 解析配置到结构体
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 验证配置
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// MustLoadConfig 加载配置，如果失败则panic
func MustLoadConfig(configPath, env string) *Config {
	config, err := LoadConfig(configPath, env)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}
	return config
}

// getEnvFromEnvironment 从环境变量获取环境标识
func getEnvFromEnvironment() string {
	env := os.Getenv(EnvPrefix + "_ENV")
	if env == "" {
		env = os.Getenv("GO_ENV")
	}
	if env == "" {
		env = "development" // 默认开发环境
	}
	return env
}

// getDefaultConfigPath 获取默认配置文件路径
func getDefaultConfigPath() string {
	if configPath := os.Getenv(EnvPrefix + "_CONFIG_PATH"); configPath != "" {
		return configPath
	}
	return "configs"
}

// getConfigFileName 根据环境获取配置文件名
func getConfigFileName(configPath, env string) string {
	var configFile string

	switch env {
	case "production", "prod":
		configFile = filepath.Join(configPath, "config.prod.yaml")
	case "test", "testing":
		configFile = filepath.Join(configPath, "config.test.yaml")
	default:
		configFile = filepath.Join(configPath, "config.yaml")
	}

	// 检查文件是否存在，如果不存在则使用默认配置文件
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		defaultConfig := filepath.Join(configPath, "config.yaml")
		if _, err := os.Stat(defaultConfig); err == nil {
			return defaultConfig
		}
	}

	return configFile
}

// setDefaults 配置文件中可以省略的字段
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "gsa-console")
	v.SetDefault("app.environment", "development")

	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8090)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("log.max_size", 100)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age", 30)

	v.SetDefault("backend.path", "/gmp")
	v.SetDefault("backend.timeout", 60*time.Second)
	v.SetDefault("backend.retry_max", 3)
	v.SetDefault("backend.retry_wait_min", 500*time.Millisecond)
	v.SetDefault("backend.retry_wait_max", 5*time.Second)

	v.SetDefault("cache.ttl", 30*time.Second)
	v.SetDefault("cache.prefix", "gsaconsole:")
	v.SetDefault("cache.redis.host", "127.0.0.1")
	v.SetDefault("cache.redis.port", 6379)
	v.SetDefault("cache.redis.pool_size", 10)
}

// bindEnvironmentVariables 绑定环境变量
func bindEnvironmentVariables(v *viper.Viper) {
	// 后端配置
	_ = v.BindEnv("backend.url", EnvPrefix+"_BACKEND_URL")
	_ = v.BindEnv("backend.username", EnvPrefix+"_BACKEND_USERNAME")
	_ = v.BindEnv("backend.password", EnvPrefix+"_BACKEND_PASSWORD")
	_ = v.BindEnv("backend.insecure_skip_verify", EnvPrefix+"_BACKEND_INSECURE_SKIP_VERIFY")

	// 缓存配置
	_ = v.BindEnv("cache.enabled", EnvPrefix+"_CACHE_ENABLED")
	_ = v.BindEnv("cache.redis.host", EnvPrefix+"_REDIS_HOST")
	_ = v.BindEnv("cache.redis.port", EnvPrefix+"_REDIS_PORT")
	_ = v.BindEnv("cache.redis.password", EnvPrefix+"_REDIS_PASSWORD")
	_ = v.BindEnv("cache.redis.database", EnvPrefix+"_REDIS_DATABASE")

	// 服务器配置
	_ = v.BindEnv("server.host", EnvPrefix+"_SERVER_HOST")
	_ = v.BindEnv("server.port", EnvPrefix+"_SERVER_PORT")
	_ = v.BindEnv("server.mode", EnvPrefix+"_SERVER_MODE")

	// 日志配置
	_ = v.BindEnv("log.level", EnvPrefix+"_LOG_LEVEL")
	_ = v.BindEnv("log.format", EnvPrefix+"_LOG_FORMAT")

	// 应用配置
	_ = v.BindEnv("app.environment", EnvPrefix+"_APP_ENVIRONMENT")
	_ = v.BindEnv("app.debug", EnvPrefix+"_APP_DEBUG")
}

// validateConfig 验证配置
func validateConfig(config *Config) error {
	// 验证服务器配置
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if !slices.Contains([]string{"debug", "release", "test"}, config.Server.Mode) {
		return fmt.Errorf("invalid server mode: %s", config.Server.Mode)
	}

	// 验证后端配置
	if strings.TrimSpace(config.Backend.URL) == "" {
		return fmt.Errorf("backend url is required")
	}
	if u, err := url.Parse(config.Backend.URL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid backend url: %s", config.Backend.URL)
	}
	if config.Backend.RetryMax < 0 {
		return fmt.Errorf("invalid backend retry_max: %d", config.Backend.RetryMax)
	}

	// 验证日志配置
	validLogLevels := []string{"debug", "info", "warn", "error", "fatal", "panic"}
	if !slices.Contains(validLogLevels, config.Log.Level) {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	validLogFormats := []string{"json", "text"}
	if !slices.Contains(validLogFormats, config.Log.Format) {
		return fmt.Errorf("invalid log format: %s", config.Log.Format)
	}

	validLogOutputs := []string{"stdout", "stderr", "file"}
	if !slices.Contains(validLogOutputs, config.Log.Output) {
		return fmt.Errorf("invalid log output: %s", config.Log.Output)
	}

	// 如果日志输出到文件，验证文件路径
	if config.Log.Output == "file" && config.Log.FilePath == "" {
		return fmt.Errorf("log file path is required when output is file")
	}

	// 启用缓存时必须配置 Redis
	if config.Cache.Enabled && config.Cache.Redis.Host == "" {
		return fmt.Errorf("redis host is required when cache is enabled")
	}

	return nil
}
