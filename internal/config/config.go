// Package config loads the exchange's startup parameters (ticker list,
// trading-window durations) via viper, satisfying the Config Provider
// interface from the exchange-core specification.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds everything the session controller and exchange need at
// startup. Durations are parsed from seconds in the source file/env but
// exposed as time.Duration for direct use.
type Config struct {
	ExchangeName string        `mapstructure:"exchange_name"`
	Tickers      []string      `mapstructure:"tickers"`
	ConnectTime  time.Duration `mapstructure:"-"`
	TradingTime  time.Duration `mapstructure:"-"`
	TechReady    time.Duration `mapstructure:"-"`
	IdleGrace    time.Duration `mapstructure:"-"`
	DataDir      string        `mapstructure:"data_dir"`

	ConnectTimeSeconds int `mapstructure:"connect_time_seconds"`
	TradingTimeSeconds int `mapstructure:"trading_time_seconds"`
	TechReadySeconds   int `mapstructure:"tech_ready_seconds"`
	IdleGraceSeconds   int `mapstructure:"idle_grace_seconds"`
}

// defaults mirror the reference exchange's hardcoded values: a 4-second
// technical-ready delay and a 5-second connect-phase idle grace.
func setDefaults(v *viper.Viper) {
	v.SetDefault("exchange_name", "dsxe")
	v.SetDefault("tickers", []string{"BTC-USD"})
	v.SetDefault("connect_time_seconds", 30)
	v.SetDefault("trading_time_seconds", 300)
	v.SetDefault("tech_ready_seconds", 4)
	v.SetDefault("idle_grace_seconds", 5)
	v.SetDefault("data_dir", "")
}

// Load reads configuration from configPath (if non-empty) layered under
// environment variables prefixed DSXE_ (e.g. DSXE_TRADING_TIME_SECONDS),
// layered under the package defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("dsxe")
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", configPath, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshalling: %w", err)
	}

	cfg.ConnectTime = time.Duration(cfg.ConnectTimeSeconds) * time.Second
	cfg.TradingTime = time.Duration(cfg.TradingTimeSeconds) * time.Second
	cfg.TechReady = time.Duration(cfg.TechReadySeconds) * time.Second
	cfg.IdleGrace = time.Duration(cfg.IdleGraceSeconds) * time.Second

	if len(cfg.Tickers) == 0 {
		return nil, fmt.Errorf("config: at least one ticker must be configured")
	}

	return &cfg, nil
}
