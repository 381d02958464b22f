package config

import (
	"fmt"
	"sync"
	"time"

	"meme-radar/pkg/logger"

	"github.com/fsnotify/fsnotify"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// PlaceholderAPIKey .env 模板里的占位值，视为未配置
const PlaceholderAPIKey = "your_dune_api_key_here"

// Config 定义整个配置的结构
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Server    ServerConfig    `mapstructure:"server"`
	Postgres  PostgresConfig  `mapstructure:"postgres"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Monitor   MonitorConfig   `mapstructure:"monitor"`
	Dune      DuneConfig      `mapstructure:"dune"`
	Birdeye   BirdeyeConfig   `mapstructure:"birdeye"`
	QuickNode QuickNodeConfig `mapstructure:"quicknode"`
	Tracker   TrackerConfig   `mapstructure:"tracker"`
}

// LogConfig Log 日志配置
type LogConfig struct {
	Level string `mapstructure:"level"`
	Dir   string `mapstructure:"dir"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
	Mode string `mapstructure:"mode"` // gin mode: debug / release / test
}

// PostgresConfig PostgreSQL 配置，dsn 为空时使用内存存储
type PostgresConfig struct {
	DSN          string `mapstructure:"dsn"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	AutoMigrate  bool   `mapstructure:"auto_migrate"`
}

// RedisConfig Redis 配置，address 为空时变更通知走进程内
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// KafkaConfig Kafka 配置，brokers 为空时不投递导入事件
type KafkaConfig struct {
	Brokers     string `mapstructure:"brokers"`
	TopicImport string `mapstructure:"topic_import"`
}

type MonitorConfig struct {
	Enable         bool   `mapstructure:"enable"`
	PrometheusAddr string `mapstructure:"prometheus_addr"`
}

type DuneConfig struct {
	BaseURL             string `mapstructure:"base_url"`
	APIKey              string `mapstructure:"api_key"`
	BuyersQueryID       int    `mapstructure:"buyers_query_id"`
	TestQueryID         int    `mapstructure:"test_query_id"` // 连通性测试用
	InitialDelaySeconds int    `mapstructure:"initial_delay_seconds"`
	PollIntervalSeconds int    `mapstructure:"poll_interval_seconds"`
	MaxWaitSeconds      int    `mapstructure:"max_wait_seconds"`
	Timeout             int    `mapstructure:"timeout"` // 单次请求超时（秒）
}

func (c DuneConfig) InitialDelay() time.Duration {
	return time.Duration(c.InitialDelaySeconds) * time.Second
}

func (c DuneConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

func (c DuneConfig) MaxWait() time.Duration {
	return time.Duration(c.MaxWaitSeconds) * time.Second
}

type BirdeyeConfig struct {
	BaseURL       string `mapstructure:"base_url"`
	APIKey        string `mapstructure:"api_key"`
	RateLimit     int    `mapstructure:"rate_limit"` // 每分钟
	Timeout       int    `mapstructure:"timeout"`
	SpacingMillis int    `mapstructure:"spacing_millis"`
}

type QuickNodeConfig struct {
	SolanaEndpoint   string `mapstructure:"solana_endpoint"`
	EthereumEndpoint string `mapstructure:"ethereum_endpoint"`
}

type TrackerConfig struct {
	PriceRefreshMinutes  int `mapstructure:"price_refresh_minutes"`
	ImportTimeoutSeconds int `mapstructure:"import_timeout_seconds"`
	BatchSize            int `mapstructure:"batch_size"`
	MaxWritesPerImport   int `mapstructure:"max_writes_per_import"`
}

// IsKeyConfigured 非空且不是占位值
func IsKeyConfigured(key string) bool {
	return key != "" && key != PlaceholderAPIKey
}

var envBindings = map[string]string{
	"dune.api_key":                "DUNE_API_KEY",
	"birdeye.api_key":             "BIRDEYE_API_KEY",
	"quicknode.solana_endpoint":   "QUICKNODE_SOLANA_ENDPOINT",
	"quicknode.ethereum_endpoint": "QUICKNODE_ETHEREUM_ENDPOINT",
	"postgres.dsn":                "POSTGRES_DSN",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.dir", "logs")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("kafka.topic_import", "meme_radar_import")
	v.SetDefault("monitor.prometheus_addr", ":9100")
	v.SetDefault("dune.base_url", "https://api.dune.com/api/v1")
	v.SetDefault("dune.buyers_query_id", 5233698)
	v.SetDefault("dune.test_query_id", 4396790)
	v.SetDefault("dune.initial_delay_seconds", 60)
	v.SetDefault("dune.poll_interval_seconds", 20)
	v.SetDefault("dune.max_wait_seconds", 300)
	v.SetDefault("dune.timeout", 30)
	v.SetDefault("birdeye.base_url", "https://public-api.birdeye.so")
	v.SetDefault("birdeye.timeout", 10)
	v.SetDefault("birdeye.spacing_millis", 100)
	v.SetDefault("tracker.price_refresh_minutes", 5)
	v.SetDefault("tracker.import_timeout_seconds", 600)
	v.SetDefault("tracker.batch_size", 50)
	v.SetDefault("tracker.max_writes_per_import", 10000)
}

var (
	mu      sync.Mutex
	current *viper.Viper
)

// Load 读取 dir 下的 config.tracker.yaml，环境变量覆盖密钥类配置
func Load(dir string) (Config, error) {
	var config Config

	v := viper.New()
	v.SetConfigName("config.tracker")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	setDefaults(v)
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return config, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		return config, fmt.Errorf("read config file: %w", err)
	}
	if err := mapstructure.Decode(v.AllSettings(), &config); err != nil {
		return config, fmt.Errorf("decode config file: %w", err)
	}

	mu.Lock()
	current = v
	mu.Unlock()
	return config, nil
}

func InitConfig() Config {
	config, err := Load("./config/")
	if err != nil {
		panic(fmt.Errorf("fatal error config file: %s", err))
	}
	return config
}

// WatchConfig 配置文件变更时热更新，目前只有日志级别实时生效
func WatchConfig(config *Config) {
	mu.Lock()
	v := current
	mu.Unlock()
	if v == nil {
		return
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		var newConfig Config
		if err := mapstructure.Decode(v.AllSettings(), &newConfig); err != nil {
			return
		}
		*config = newConfig
		logger.SetLogLevel(config.Log.Level)
	})
	v.WatchConfig()
}
