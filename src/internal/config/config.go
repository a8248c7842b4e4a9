package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

const defaultConnectionString = "Host=localhost;Port=5432;Database=savings_ledger_db;Username=postgres;Password=postgres;Timeout=30;CommandTimeout=30"
const defaultChannelID = "LedgerAdmin"
const defaultChannelKey = "LedgerAdminKey001"
const defaultHTTPAddr = ":8080"

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"

	EventsDriverNone  = "none"
	EventsDriverRedis = "redis"
	EventsDriverKafka = "kafka"
)

type Config struct {
	HTTPAddr        string
	LogLevel        string
	StoreDriver     string
	DatabaseDSN     string
	MigrationsDir   string
	StoreTimeout    time.Duration
	ShutdownTimeout time.Duration
	ChannelID       string
	// ChannelKey may be the plain key or its bcrypt hash.
	ChannelKey string
	Redis      RedisConfig
	Events     EventConfig
}

type RedisConfig struct {
	Addr            string
	Password        string
	DB              int
	BalanceCacheTTL time.Duration
}

type EventConfig struct {
	Driver       string
	RedisChannel string
	KafkaBrokers []string
	KafkaTopic   string
}

func Default() Config {
	return Config{
		HTTPAddr:        defaultHTTPAddr,
		LogLevel:        "info",
		StoreDriver:     StoreDriverPostgres,
		DatabaseDSN:     defaultConnectionString,
		MigrationsDir:   filepath.Join("src", "migrations"),
		StoreTimeout:    10 * time.Second,
		ShutdownTimeout: 15 * time.Second,
		ChannelID:       defaultChannelID,
		ChannelKey:      defaultChannelKey,
		Redis: RedisConfig{
			BalanceCacheTTL: 30 * time.Second,
		},
		Events: EventConfig{
			Driver:       EventsDriverNone,
			RedisChannel: "ledger_events",
			KafkaTopic:   "ledger-events",
		},
	}
}

// Load builds the configuration from defaults, the optional TOML file named by
// LEDGER_CONFIG_FILE, an optional .env file and finally the process environment.
func Load() (Config, error) {
	cfg := Default()

	if path := strings.TrimSpace(os.Getenv("LEDGER_CONFIG_FILE")); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	// .env is optional; variables already set in the environment win.
	_ = godotenv.Load()

	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}

	cfg.DatabaseDSN = normalizeConnectionString(cfg.DatabaseDSN)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %q: %w", path, err)
	}

	var fileCfg fileConfig
	if err := toml.Unmarshal(raw, &fileCfg); err != nil {
		return fmt.Errorf("parse config file %q: %w", path, err)
	}

	return fileCfg.applyTo(cfg)
}

func (c Config) Validate() error {
	var errs []string

	switch c.StoreDriver {
	case StoreDriverPostgres:
		if strings.TrimSpace(c.DatabaseDSN) == "" {
			errs = append(errs, "database dsn is required for the postgres store")
		}
	case StoreDriverMemory:
	default:
		errs = append(errs, fmt.Sprintf("store driver must be %s or %s", StoreDriverPostgres, StoreDriverMemory))
	}

	switch c.Events.Driver {
	case EventsDriverNone:
	case EventsDriverRedis:
		if strings.TrimSpace(c.Redis.Addr) == "" {
			errs = append(errs, "redis addr is required for redis events")
		}
	case EventsDriverKafka:
		if len(c.Events.KafkaBrokers) == 0 {
			errs = append(errs, "kafka brokers are required for kafka events")
		}
		if strings.TrimSpace(c.Events.KafkaTopic) == "" {
			errs = append(errs, "kafka topic is required for kafka events")
		}
	default:
		errs = append(errs, fmt.Sprintf("events driver must be one of %s, %s, %s", EventsDriverNone, EventsDriverRedis, EventsDriverKafka))
	}

	if c.StoreTimeout <= 0 {
		errs = append(errs, "store timeout must be greater than zero")
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func applyEnvOverrides(cfg *Config) error {
	setString(&cfg.HTTPAddr, "HTTP_ADDR")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.StoreDriver, "STORE_DRIVER")
	setString(&cfg.DatabaseDSN, "DATABASE_DSN")
	setString(&cfg.MigrationsDir, "MIGRATIONS_DIR")
	setString(&cfg.ChannelID, "CHANNEL_ID")
	setString(&cfg.ChannelKey, "CHANNEL_KEY")
	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	setString(&cfg.Events.Driver, "EVENTS_DRIVER")
	setString(&cfg.Events.RedisChannel, "REDIS_EVENTS_CHANNEL")
	setString(&cfg.Events.KafkaTopic, "KAFKA_TOPIC")

	cfg.StoreDriver = strings.ToLower(cfg.StoreDriver)
	cfg.Events.Driver = strings.ToLower(cfg.Events.Driver)

	if brokers := strings.TrimSpace(os.Getenv("KAFKA_BROKERS")); brokers != "" {
		cfg.Events.KafkaBrokers = splitList(brokers)
	}

	if err := setDuration(&cfg.StoreTimeout, "STORE_TIMEOUT"); err != nil {
		return err
	}
	if err := setDuration(&cfg.ShutdownTimeout, "SHUTDOWN_TIMEOUT"); err != nil {
		return err
	}
	if err := setDuration(&cfg.Redis.BalanceCacheTTL, "BALANCE_CACHE_TTL"); err != nil {
		return err
	}

	if raw := strings.TrimSpace(os.Getenv("REDIS_DB")); raw != "" {
		db, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("REDIS_DB must be an integer: %w", err)
		}
		cfg.Redis.DB = db
	}

	return nil
}

func setString(target *string, key string) {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		*target = value
	}
}

func setDuration(target *time.Duration, key string) error {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("%s must be a duration: %w", key, err)
	}
	*target = d
	return nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func normalizeConnectionString(raw string) string {
	if strings.HasPrefix(raw, "postgres://") || strings.HasPrefix(raw, "postgresql://") {
		return raw
	}

	parts := strings.Split(raw, ";")
	out := make([]string, 0, len(parts))
	hasSSLMode := false

	for _, part := range parts {
		p := strings.TrimSpace(part)
		if p == "" {
			continue
		}

		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}

		key := strings.ToLower(strings.TrimSpace(kv[0]))
		val := strings.TrimSpace(kv[1])

		switch key {
		case "host":
			out = append(out, "host="+val)
		case "port":
			out = append(out, "port="+val)
		case "database":
			out = append(out, "dbname="+val)
		case "username":
			out = append(out, "user="+val)
		case "password":
			out = append(out, "password="+val)
		case "timeout", "connect timeout":
			out = append(out, "connect_timeout="+val)
		case "commandtimeout", "command timeout":
			out = append(out, "statement_timeout="+val+"s")
		case "sslmode":
			hasSSLMode = true
			out = append(out, "sslmode="+val)
		default:
			out = append(out, key+"="+val)
		}
	}

	if len(out) == 0 {
		return raw
	}

	if !hasSSLMode {
		out = append(out, "sslmode=disable")
	}

	return strings.Join(out, " ")
}
