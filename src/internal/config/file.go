package config

import (
	"fmt"
	"strings"
	"time"
)

// fileConfig mirrors Config for TOML decoding; durations are written as
// strings such as "10s" and only non-empty values override the defaults.
type fileConfig struct {
	HTTPAddr        string `toml:"http_addr"`
	LogLevel        string `toml:"log_level"`
	StoreDriver     string `toml:"store_driver"`
	DatabaseDSN     string `toml:"database_dsn"`
	MigrationsDir   string `toml:"migrations_dir"`
	StoreTimeout    string `toml:"store_timeout"`
	ShutdownTimeout string `toml:"shutdown_timeout"`
	ChannelID       string `toml:"channel_id"`
	ChannelKey      string `toml:"channel_key"`
	Redis           struct {
		Addr            string `toml:"addr"`
		Password        string `toml:"password"`
		DB              *int   `toml:"db"`
		BalanceCacheTTL string `toml:"balance_cache_ttl"`
	} `toml:"redis"`
	Events struct {
		Driver       string   `toml:"driver"`
		RedisChannel string   `toml:"redis_channel"`
		KafkaBrokers []string `toml:"kafka_brokers"`
		KafkaTopic   string   `toml:"kafka_topic"`
	} `toml:"events"`
}

func (f fileConfig) applyTo(cfg *Config) error {
	override(&cfg.HTTPAddr, f.HTTPAddr)
	override(&cfg.LogLevel, f.LogLevel)
	override(&cfg.StoreDriver, f.StoreDriver)
	override(&cfg.DatabaseDSN, f.DatabaseDSN)
	override(&cfg.MigrationsDir, f.MigrationsDir)
	override(&cfg.ChannelID, f.ChannelID)
	override(&cfg.ChannelKey, f.ChannelKey)
	override(&cfg.Redis.Addr, f.Redis.Addr)
	override(&cfg.Redis.Password, f.Redis.Password)
	override(&cfg.Events.Driver, f.Events.Driver)
	override(&cfg.Events.RedisChannel, f.Events.RedisChannel)
	override(&cfg.Events.KafkaTopic, f.Events.KafkaTopic)

	if f.Redis.DB != nil {
		cfg.Redis.DB = *f.Redis.DB
	}
	if len(f.Events.KafkaBrokers) > 0 {
		cfg.Events.KafkaBrokers = f.Events.KafkaBrokers
	}

	durations := []struct {
		name   string
		raw    string
		target *time.Duration
	}{
		{"store_timeout", f.StoreTimeout, &cfg.StoreTimeout},
		{"shutdown_timeout", f.ShutdownTimeout, &cfg.ShutdownTimeout},
		{"redis.balance_cache_ttl", f.Redis.BalanceCacheTTL, &cfg.Redis.BalanceCacheTTL},
	}
	for _, d := range durations {
		raw := strings.TrimSpace(d.raw)
		if raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("config file %s must be a duration: %w", d.name, err)
		}
		*d.target = parsed
	}

	return nil
}

func override(target *string, value string) {
	if v := strings.TrimSpace(value); v != "" {
		*target = v
	}
}
