package config

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"schnl-ledger/internal/core/domain"
	"schnl-ledger/pkg/units"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Log       LogConfig       `mapstructure:"log"`
	Ledger    LedgerConfig    `mapstructure:"ledger"`
	Oracle    OracleConfig    `mapstructure:"oracle"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Webhook   WebhookConfig   `mapstructure:"webhook"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Nonce     NonceConfig     `mapstructure:"nonce"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // debug, release, test
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Enabled         bool          `mapstructure:"enabled"` // false runs on an in-memory journal
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`

	ConnMaxIdleTime   time.Duration `mapstructure:"conn_max_idle_time"`
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
	// StatementTimeout bounds journal writes, which run under the ledger writer lock.
	StatementTimeout time.Duration `mapstructure:"statement_timeout"`
	ApplicationName  string        `mapstructure:"application_name"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	ClientName   string        `mapstructure:"client_name"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"` // guards sit on the request path
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	PoolSize     int           `mapstructure:"pool_size"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Expiry time.Duration `mapstructure:"expiry"`
	Issuer string        `mapstructure:"issuer"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// LedgerConfig seeds an empty journal. Amounts and rates are human decimal
// strings ("1000000", "120.5"); addresses are 0x-prefixed hex.
type LedgerConfig struct {
	Admin        string `mapstructure:"admin"`
	Operator     string `mapstructure:"operator"`
	SupplyCap    string `mapstructure:"supply_cap"` // "0" means uncapped
	ToleranceBps uint64 `mapstructure:"tolerance_bps"`
	MaxStaleness uint64 `mapstructure:"max_staleness"` // seconds, 0 disables
	MinRate      string `mapstructure:"min_rate"`
	MaxRate      string `mapstructure:"max_rate"`
}

// LedgerParams is LedgerConfig parsed into domain values.
type LedgerParams struct {
	Admin        domain.Address
	Operator     domain.Address
	SupplyCap    *big.Int
	ToleranceBps uint64
	MaxStaleness uint64
	MinRate      *big.Int
	MaxRate      *big.Int
}

// Parse validates the ledger section.
func (l LedgerConfig) Parse() (LedgerParams, error) {
	var p LedgerParams
	var err error
	if p.Admin, err = domain.ParseAddress(l.Admin); err != nil {
		return p, fmt.Errorf("ledger.admin: %w", err)
	}
	if p.Operator, err = domain.ParseAddress(l.Operator); err != nil {
		return p, fmt.Errorf("ledger.operator: %w", err)
	}
	if p.SupplyCap, err = units.ParseDecimal(l.SupplyCap); err != nil {
		return p, fmt.Errorf("ledger.supply_cap: %w", err)
	}
	if p.MinRate, err = units.ParseDecimal(l.MinRate); err != nil {
		return p, fmt.Errorf("ledger.min_rate: %w", err)
	}
	if p.MaxRate, err = units.ParseDecimal(l.MaxRate); err != nil {
		return p, fmt.Errorf("ledger.max_rate: %w", err)
	}
	p.ToleranceBps = l.ToleranceBps
	p.MaxStaleness = l.MaxStaleness
	return p, nil
}

// OracleConfig selects the rate source. Feeds maps source addresses to the
// base URL of an HTTP feed. A non-empty StaticRate registers a fixed source
// at Source instead, for local runs.
type OracleConfig struct {
	Source         string            `mapstructure:"source"`
	Feeds          map[string]string `mapstructure:"feeds"`
	StaticRate     string            `mapstructure:"static_rate"`
	StaticDecimals uint8             `mapstructure:"static_decimals"`
	Timeout        time.Duration     `mapstructure:"timeout"`
	CacheTTL       time.Duration     `mapstructure:"cache_ttl"`
}

type KafkaConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Brokers         string        `mapstructure:"brokers"` // comma separated
	Topic           string        `mapstructure:"topic"`
	Acks            string        `mapstructure:"acks"`
	Retries         int           `mapstructure:"retries"`
	DeliveryTimeout time.Duration `mapstructure:"delivery_timeout"`
}

type WebhookConfig struct {
	URL     string        `mapstructure:"url"` // empty disables
	Secret  string        `mapstructure:"secret"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int64         `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

type NonceConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// Validate checks cross-field requirements that defaults cannot cover.
func (c *Config) Validate() error {
	var errs []error
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("jwt.secret is required"))
	}
	if _, err := c.Ledger.Parse(); err != nil {
		errs = append(errs, err)
	}
	if c.Kafka.Enabled && (c.Kafka.Brokers == "" || c.Kafka.Topic == "") {
		errs = append(errs, errors.New("kafka.brokers and kafka.topic are required when kafka is enabled"))
	}
	if c.Webhook.URL != "" && c.Webhook.Secret == "" {
		errs = append(errs, errors.New("webhook.secret is required when webhook.url is set"))
	}
	if c.RateLimit.Enabled && !c.Redis.Enabled {
		errs = append(errs, errors.New("ratelimit requires redis"))
	}
	return errors.Join(errs...)
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: SCHNL_.
// Nested keys use underscore: SCHNL_DATABASE_HOST, SCHNL_LEDGER_ADMIN, etc.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.shutdown_timeout", "15s")
	v.SetDefault("server.max_body_bytes", 1<<20)
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "schnl_ledger")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.conn_max_idle_time", "5m")
	v.SetDefault("database.health_check_period", "30s")
	v.SetDefault("database.statement_timeout", "5s")
	v.SetDefault("database.application_name", "schnl-ledger")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.client_name", "schnl-ledger")
	v.SetDefault("redis.dial_timeout", "2s")
	v.SetDefault("redis.read_timeout", "500ms")
	v.SetDefault("redis.write_timeout", "500ms")
	v.SetDefault("redis.pool_size", 20)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiry", "24h")
	v.SetDefault("jwt.issuer", "schnl-ledger")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("ledger.admin", "")
	v.SetDefault("ledger.operator", "")
	v.SetDefault("ledger.supply_cap", "0")
	v.SetDefault("ledger.tolerance_bps", 100)
	v.SetDefault("ledger.max_staleness", 3600)
	v.SetDefault("ledger.min_rate", "1")
	v.SetDefault("ledger.max_rate", "1000000")
	v.SetDefault("oracle.source", "")
	v.SetDefault("oracle.static_rate", "")
	v.SetDefault("oracle.static_decimals", 8)
	v.SetDefault("oracle.timeout", "5s")
	v.SetDefault("oracle.cache_ttl", "2s")
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", "localhost:9092")
	v.SetDefault("kafka.topic", "schnl.ledger.events")
	v.SetDefault("kafka.acks", "all")
	v.SetDefault("kafka.retries", 5)
	v.SetDefault("kafka.delivery_timeout", "30s")
	v.SetDefault("webhook.url", "")
	v.SetDefault("webhook.secret", "")
	v.SetDefault("webhook.timeout", "10s")
	v.SetDefault("ratelimit.enabled", false)
	v.SetDefault("ratelimit.requests", 120)
	v.SetDefault("ratelimit.window", "1m")
	v.SetDefault("nonce.ttl", "24h")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// SCHNL_DATABASE_HOST -> database.host
	v.SetEnvPrefix("SCHNL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// A config file is optional; env vars can suffice.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}
