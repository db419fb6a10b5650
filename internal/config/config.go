package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config 全局配置结构体
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Presentation PresentationConfig `mapstructure:"presentation"`
	Autoplay     AutoplayConfig     `mapstructure:"autoplay"`
	Recorder     RecorderConfig     `mapstructure:"recorder"`
	Bridge       BridgeConfig       `mapstructure:"bridge"`
	Log          LogConfig          `mapstructure:"log"`
}

// ServerConfig 游戏服务器配置
type ServerConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	GameID         string        `mapstructure:"game_id"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"` // 单次请求超时，0表示不限制
	AuthToken      string        `mapstructure:"auth_token"`      // 可选的Bearer令牌
}

// PresentationConfig 演出配置（只影响动画节奏，不影响游戏结果）
type PresentationConfig struct {
	Turbo        bool `mapstructure:"turbo"`
	SoundEnabled bool `mapstructure:"sound_enabled"`
}

// AutoplayConfig 自动旋转默认配置
type AutoplayConfig struct {
	Spins          int    `mapstructure:"spins"`
	StopOnAnyWin   bool   `mapstructure:"stop_on_any_win"`
	StopOnFeature  bool   `mapstructure:"stop_on_feature"`
	SingleWinLimit string `mapstructure:"single_win_limit"` // 单次中奖阈值（十进制字符串，空表示不启用）
	LossLimit      string `mapstructure:"loss_limit"`       // 累计亏损阈值（十进制字符串，空表示不启用）
}

// RecorderConfig 回合记录器配置
type RecorderConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	LogLevel        string        `mapstructure:"log_level"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// BridgeConfig 推送通道（WebSocket桥接）配置
type BridgeConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	Path              string        `mapstructure:"path"`
	ReadBufferSize    int           `mapstructure:"read_buffer_size"`
	WriteBufferSize   int           `mapstructure:"write_buffer_size"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	PingInterval      time.Duration `mapstructure:"ping_interval"`
	EnableCompression bool          `mapstructure:"enable_compression"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level   string            `mapstructure:"level"`
	Format  string            `mapstructure:"format"`
	Output  string            `mapstructure:"output"`
	File    LogFileConfig     `mapstructure:"file"`
	Modules map[string]string `mapstructure:"modules"`
}

// LogFileConfig 日志文件配置
type LogFileConfig struct {
	Path       string `mapstructure:"path"`
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
	Compress   bool   `mapstructure:"compress"`
}

var (
	cfg  *Config
	once sync.Once
	mu   sync.RWMutex
	v    *viper.Viper
)

// Init 初始化配置
func Init(configPath string) error {
	var err error
	once.Do(func() {
		v = viper.New()

		// 设置配置文件路径
		if configPath != "" {
			v.SetConfigFile(configPath)
		} else {
			v.SetConfigName("config")
			v.SetConfigType("yaml")
			v.AddConfigPath("./config")
			v.AddConfigPath(".")
		}

		// 设置环境变量前缀
		v.SetEnvPrefix("SLOT_CLIENT")
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()

		// 设置默认值
		setDefaults(v)

		// 读取配置文件
		if err = v.ReadInConfig(); err != nil {
			// 如果配置文件不存在，使用默认配置
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return
			}
			err = nil
		}

		// 解析配置到结构体
		cfg = &Config{}
		if err = v.Unmarshal(cfg); err != nil {
			return
		}
	})

	return err
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	// 游戏服务器默认配置
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.game_id", "goldenfields")
	v.SetDefault("server.request_timeout", "15s")

	// 演出默认配置
	v.SetDefault("presentation.turbo", false)
	v.SetDefault("presentation.sound_enabled", true)

	// 自动旋转默认配置
	v.SetDefault("autoplay.spins", 10)
	v.SetDefault("autoplay.stop_on_any_win", false)
	v.SetDefault("autoplay.stop_on_feature", true)

	// 回合记录器默认配置
	v.SetDefault("recorder.enabled", true)
	v.SetDefault("recorder.driver", "sqlite")
	v.SetDefault("recorder.dsn", "./data/slot-client.db")
	v.SetDefault("recorder.max_idle_conns", 2)
	v.SetDefault("recorder.max_open_conns", 10)
	v.SetDefault("recorder.conn_max_lifetime", "1h")
	v.SetDefault("recorder.log_level", "warn")
	v.SetDefault("recorder.auto_migrate", true)

	// 推送通道默认配置
	v.SetDefault("bridge.enabled", false)
	v.SetDefault("bridge.host", "0.0.0.0")
	v.SetDefault("bridge.port", 8082)
	v.SetDefault("bridge.path", "/ws")
	v.SetDefault("bridge.read_buffer_size", 1024)
	v.SetDefault("bridge.write_buffer_size", 1024)
	v.SetDefault("bridge.write_timeout", "10s")
	v.SetDefault("bridge.ping_interval", "30s")
	v.SetDefault("bridge.enable_compression", true)

	// 日志默认配置
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output", "both")
	v.SetDefault("log.file.path", "./logs")
	v.SetDefault("log.file.filename", "slot-client.log")
	v.SetDefault("log.file.max_size", 100)
	v.SetDefault("log.file.max_age", 30)
	v.SetDefault("log.file.max_backups", 7)
	v.SetDefault("log.file.compress", true)
}

// Get 获取配置实例
func Get() *Config {
	mu.RLock()
	defer mu.RUnlock()
	return cfg
}

// Watch 监听配置文件变化（仅演出类配置热更新，服务器地址等需重启生效）
func Watch(callback func(*Config)) {
	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		mu.Lock()
		defer mu.Unlock()

		newCfg := &Config{}
		if err := v.Unmarshal(newCfg); err != nil {
			fmt.Printf("配置重载失败: %v\n", err)
			return
		}

		cfg = newCfg

		if callback != nil {
			callback(cfg)
		}

		fmt.Println("配置已重新加载")
	})
}

// GetString 获取字符串配置
func GetString(key string) string {
	return v.GetString(key)
}

// GetInt 获取整数配置
func GetInt(key string) int {
	return v.GetInt(key)
}

// GetBool 获取布尔配置
func GetBool(key string) bool {
	return v.GetBool(key)
}

// GetDuration 获取时间间隔配置
func GetDuration(key string) time.Duration {
	return v.GetDuration(key)
}

// IsSet 检查配置项是否存在
func IsSet(key string) bool {
	return v.IsSet(key)
}

// Set 动态设置配置值
func Set(key string, value interface{}) {
	v.Set(key, value)
}
