package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig
	DB     DBConfig
	Redis  RedisConfig
	JWT    JWTConfig
	Chat   ChatConfig
}

type ServerConfig struct {
	Address string
}

type DBConfig struct {
	Host     string
	User     string
	Password string
	Name     string
	Port     int
}

// RedisConfig 控制廣播傳輸：Enabled 為 true 時改用 Redis pub/sub，
// 讓多個伺服器實例共享同一個廣播域；否則使用單機的記憶體傳輸。
type RedisConfig struct {
	Enabled  bool
	Address  string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
}

// ChatConfig 聊天核心的可調上限
type ChatConfig struct {
	HistoryLimit     int           // 歷史查詢回傳的最大條數
	MaxMessageLength int           // 消息內容的最大字元數
	SendTimeout      time.Duration // 單一成員遞送的等待時限
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./pkg/config")

	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("chat.historylimit", 100)
	viper.SetDefault("chat.maxmessagelength", 10000)
	viper.SetDefault("chat.sendtimeout", "5s")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
