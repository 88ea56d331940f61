package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀，例如 MOIR_MYSQL_HOST 覆盖 mysql.host。
const EnvPrefix = "MOIR"

// AppConfig 进程级配置汇总。
type AppConfig struct {
	Server    ServerConfig    `json:"server" yaml:"server"`
	Logger    LoggerConfig    `json:"logger" yaml:"logger"`
	MySQL     MySQLConfig     `json:"mysql" yaml:"mysql"`
	Redis     RedisConfig     `json:"redis" yaml:"redis"`
	Kafka     KafkaConfig     `json:"kafka" yaml:"kafka"`
	Async     AsyncConfig     `json:"async" yaml:"async"`
	JWT       JWTConfig       `json:"jwt" yaml:"jwt"`
	Greeting  GreetingConfig  `json:"greeting" yaml:"greeting"`
	RateLimit RateLimitConfig `json:"rateLimit" yaml:"rateLimit"`
}

// DefaultAppConfig 汇总各模块默认配置。
func DefaultAppConfig() AppConfig {
	return AppConfig{
		Server:    DefaultServerConfig(),
		Logger:    DefaultLoggerConfig(),
		MySQL:     DefaultMySQLConfig(),
		Redis:     DefaultRedisConfig(),
		Kafka:     DefaultKafkaConfig(),
		Async:     DefaultAsyncConfig(),
		JWT:       DefaultJWTConfig(),
		Greeting:  DefaultGreetingConfig(),
		RateLimit: DefaultRateLimitConfig(),
	}
}

// Load 加载配置，优先级：环境变量 > 配置文件 > 默认值。
// - path 为空时在当前目录及上级目录查找 config.yaml，找不到则只用默认值；
// - 启动前会尝试加载 .env（不存在时忽略）。
func Load(path string) (*AppConfig, error) {
	_ = godotenv.Load()

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("..")
		v.AddConfigPath("../..")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 默认值必须先注册，AutomaticEnv 只会覆盖 viper 已知的 key
	defaults, err := toSettings(DefaultAppConfig())
	if err != nil {
		return nil, err
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || path != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := DefaultAppConfig()
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// toSettings 将默认配置结构体展开为 viper 的点分 key/value（如 mysql.host）。
func toSettings(cfg AppConfig) (map[string]any, error) {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	var tree map[string]any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, err
	}
	settings := make(map[string]any)
	flatten("", tree, settings)
	return settings, nil
}

func flatten(prefix string, tree map[string]any, out map[string]any) {
	for key, value := range tree {
		if prefix != "" {
			key = prefix + "." + key
		}
		if child, ok := value.(map[string]any); ok {
			flatten(key, child, out)
			continue
		}
		out[key] = value
	}
}
