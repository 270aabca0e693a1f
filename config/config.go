package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Session SessionConfig `mapstructure:"session"`
	Economy EconomyConfig `mapstructure:"economy"`
	Market  MarketConfig  `mapstructure:"market"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type SessionConfig struct {
	Secret        string        `mapstructure:"secret"`
	CookieName    string        `mapstructure:"cookie_name"`
	SecureCookie  bool          `mapstructure:"secure_cookie"`
	TTL           time.Duration `mapstructure:"ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

type EconomyConfig struct {
	StartingBalance float64 `mapstructure:"starting_balance"`
	MiningPower     int     `mapstructure:"mining_power"`
	StreamReward    float64 `mapstructure:"stream_reward"`
}

type MarketConfig struct {
	Days               int     `mapstructure:"days"`
	MinPrice           float64 `mapstructure:"min_price"`
	MaxPrice           float64 `mapstructure:"max_price"`
	RegenerateOnRender bool    `mapstructure:"regenerate_on_render"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadConfig reads defaults, then the optional file at path, then
// HARMONY_* environment variables (HARMONY_SERVER_PORT and so on).
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("HARMONY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

func LoadConfigOrPanic(path string) Config {
	cfg, err := LoadConfig(path)
	if err != nil {
		panic(fmt.Sprintf("load config: %v", err))
	}
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("invalid config: %v", err))
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.shutdown_timeout", "5s")

	v.SetDefault("session.secret", "harmony-dev-secret")
	v.SetDefault("session.cookie_name", "harmony_session")
	v.SetDefault("session.secure_cookie", false)
	v.SetDefault("session.ttl", "24h")
	v.SetDefault("session.sweep_interval", "5m")

	v.SetDefault("economy.starting_balance", 1000.0)
	v.SetDefault("economy.mining_power", 10)
	v.SetDefault("economy.stream_reward", 5.0)

	v.SetDefault("market.days", 30)
	v.SetDefault("market.min_price", 0.90)
	v.SetDefault("market.max_price", 1.10)
	v.SetDefault("market.regenerate_on_render", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

func (c Config) Validate() error {
	var errs []error
	if c.Server.Port == "" {
		errs = append(errs, errors.New("server.port is required"))
	}
	if c.Session.Secret == "" {
		errs = append(errs, errors.New("session.secret is required"))
	}
	if c.Session.CookieName == "" {
		errs = append(errs, errors.New("session.cookie_name is required"))
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, errors.New("session.ttl must be positive"))
	}
	if c.Session.SweepInterval <= 0 {
		errs = append(errs, errors.New("session.sweep_interval must be positive"))
	}
	if c.Economy.StartingBalance < 0 {
		errs = append(errs, errors.New("economy.starting_balance must not be negative"))
	}
	if c.Economy.MiningPower <= 0 {
		errs = append(errs, errors.New("economy.mining_power must be positive"))
	}
	if c.Economy.StreamReward < 0 {
		errs = append(errs, errors.New("economy.stream_reward must not be negative"))
	}
	if c.Market.Days < 2 {
		errs = append(errs, errors.New("market.days must be at least 2"))
	}
	if c.Market.MinPrice <= 0 || c.Market.MaxPrice < c.Market.MinPrice {
		errs = append(errs, errors.New("market price band must satisfy 0 < min_price <= max_price"))
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, errors.New("logging.level must be one of: debug, info, warn, error"))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "text":
	default:
		errs = append(errs, errors.New("logging.format must be one of: json, text"))
	}
	return errors.Join(errs...)
}
