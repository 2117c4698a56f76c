package config

import (
	"fmt"
	"time"
)

// Config 应用配置结构体 [这里的字段和配置文件中一级字段保持一致，否则会没有值]
type Config struct {
	App     AppConfig     `yaml:"app" mapstructure:"app"`         // 应用配置
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`   // 控制台 REST 服务配置
	Log     LogConfig     `yaml:"log" mapstructure:"log"`         // 日志配置
	Backend BackendConfig `yaml:"backend" mapstructure:"backend"` // gsad 后端配置
	Cache   CacheConfig   `yaml:"cache" mapstructure:"cache"`     // 响应缓存配置
}

// AppConfig 应用配置
type AppConfig struct {
	Name        string `yaml:"name" mapstructure:"name"`               // 应用名称
	Version     string `yaml:"version" mapstructure:"version"`         // 应用版本
	Environment string `yaml:"environment" mapstructure:"environment"` // 运行环境
	Debug       bool   `yaml:"debug" mapstructure:"debug"`             // 是否调试模式
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host         string        `yaml:"host" mapstructure:"host"`                   // 服务器主机地址
	Port         int           `yaml:"port" mapstructure:"port"`                   // 服务器端口
	Mode         string        `yaml:"mode" mapstructure:"mode"`                   // 运行模式: debug, release, test
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`   // 读取超时时间
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"` // 写入超时时间
	IdleTimeout  time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout"`   // 空闲超时时间
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `yaml:"level" mapstructure:"level"`             // 日志级别
	Format     string `yaml:"format" mapstructure:"format"`           // 日志格式: json, text
	Output     string `yaml:"output" mapstructure:"output"`           // 输出方式: stdout, stderr, file
	FilePath   string `yaml:"file_path" mapstructure:"file_path"`     // 日志文件路径
	MaxSize    int    `yaml:"max_size" mapstructure:"max_size"`       // 单个日志文件最大大小(MB)
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"` // 保留的日志文件数量
	MaxAge     int    `yaml:"max_age" mapstructure:"max_age"`         // 日志文件保留天数
	Compress   bool   `yaml:"compress" mapstructure:"compress"`       // 是否压缩日志文件
	Caller     bool   `yaml:"caller" mapstructure:"caller"`           // 是否显示调用者信息
}

// BackendConfig gsad 后端连接配置
type BackendConfig struct {
	URL                string        `yaml:"url" mapstructure:"url"`                                   // gsad 地址，例如 https://127.0.0.1:9392
	Path               string        `yaml:"path" mapstructure:"path"`                                 // 命令接口路径，默认 /gmp
	Username           string        `yaml:"username" mapstructure:"username"`                         // 登录用户名
	Password           string        `yaml:"password" mapstructure:"password"`                         // 登录密码
	Timeout            time.Duration `yaml:"timeout" mapstructure:"timeout"`                           // 单次请求超时
	RetryMax           int           `yaml:"retry_max" mapstructure:"retry_max"`                       // GET 请求最大重试次数
	RetryWaitMin       time.Duration `yaml:"retry_wait_min" mapstructure:"retry_wait_min"`             // 重试最小等待
	RetryWaitMax       time.Duration `yaml:"retry_wait_max" mapstructure:"retry_wait_max"`             // 重试最大等待
	InsecureSkipVerify bool          `yaml:"insecure_skip_verify" mapstructure:"insecure_skip_verify"` // 跳过 TLS 证书校验（自签名证书）
}

// CacheConfig 响应缓存配置
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"` // 是否启用缓存
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`         // 缓存有效期
	Prefix  string        `yaml:"prefix" mapstructure:"prefix"`   // 缓存键前缀
	Redis   RedisConfig   `yaml:"redis" mapstructure:"redis"`     // Redis配置
}

// RedisConfig Redis配置
type RedisConfig struct {
	Host         string        `yaml:"host" mapstructure:"host"`                     // Redis主机
	Port         int           `yaml:"port" mapstructure:"port"`                     // Redis端口
	Password     string        `yaml:"password" mapstructure:"password"`             // Redis密码
	Database     int           `yaml:"database" mapstructure:"database"`             // Redis数据库索引
	PoolSize     int           `yaml:"pool_size" mapstructure:"pool_size"`           // 连接池大小
	MinIdleConns int           `yaml:"min_idle_conns" mapstructure:"min_idle_conns"` // 最小空闲连接数
	DialTimeout  time.Duration `yaml:"dial_timeout" mapstructure:"dial_timeout"`     // 连接超时
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`     // 读取超时
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`   // 写入超时
}

// GetAddress 获取服务器完整地址
func (s *ServerConfig) GetAddress() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// GetRedisAddress 获取Redis地址
func (r *RedisConfig) GetRedisAddress() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// IsDevelopment 判断是否为开发环境
func (a *AppConfig) IsDevelopment() bool {
	return a.Environment == "development"
}

// IsProduction 判断是否为生产环境
func (a *AppConfig) IsProduction() bool {
	return a.Environment == "production"
}
