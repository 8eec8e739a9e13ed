package config

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Auth struct {
	// Secret signs the HS256 access tokens; shared with the account
	// service.
	Secret string        `mapstructure:"secret"`
	Leeway time.Duration `mapstructure:"leeway"`
}

type Meetings struct {
	// Backend selects the meetings read model: "memory" or "redis".
	Backend   string `mapstructure:"backend"`
	RedisAddr string `mapstructure:"redis_addr"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

type Config struct {
	Mode              string        `mapstructure:"mode"`
	Port              int           `mapstructure:"port"`
	LogLevel          string        `mapstructure:"log_level"`
	ReadLimit         int64         `mapstructure:"read_limit"`
	PingPeriod        time.Duration `mapstructure:"ping_period"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	SendBuffer        int           `mapstructure:"send_buffer"`
	MaxProtocolErrors int           `mapstructure:"max_protocol_errors"`
	RateLimitPerMin   int           `mapstructure:"rate_limit_per_minute"`
	HookToken         string        `mapstructure:"hook_token"`
	MetricsEnabled    bool          `mapstructure:"metrics_enabled"`
	Auth              Auth          `mapstructure:"auth"`
	Meetings          Meetings      `mapstructure:"meetings"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "info")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("write_timeout", "5s")
	v.SetDefault("send_buffer", 32)
	v.SetDefault("max_protocol_errors", 8)
	v.SetDefault("rate_limit_per_minute", 60)
	v.SetDefault("hook_token", "")
	v.SetDefault("metrics_enabled", true)
	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.leeway", "60s")
	v.SetDefault("meetings.backend", "memory")
	v.SetDefault("meetings.redis_addr", "localhost:6379")
	v.SetDefault("meetings.key_prefix", "huddle:")

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Str("meetings", cfg.Meetings.Backend).Msg("effective config")
	return &cfg, nil
}
