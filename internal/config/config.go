// Package config loads the monitor service configuration from the
// environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the monitor service configuration.
type Config struct {
	// Symbols
	Symbols []string `env:"SYMBOLS" envSeparator:"," envDefault:"EUR/USD,GBP/USD,USD/JPY"`

	// Kafka
	KafkaBrokers  []string `env:"KAFKA_BROKERS" envSeparator:"," envDefault:"localhost:9092"`
	KafkaTopic    string   `env:"KAFKA_TOPIC" envDefault:"fx.market.events"`
	ConsumerGroup string   `env:"CONSUMER_GROUP" envDefault:"fx-monitor"`
	KafkaMinBytes int      `env:"KAFKA_MIN_BYTES" envDefault:"1"`
	KafkaMaxBytes int      `env:"KAFKA_MAX_BYTES" envDefault:"10485760"`

	// Redis
	RedisURL      string `env:"REDIS_URL" envDefault:"redis://localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	CacheTTLSec   int    `env:"CACHE_TTL_SEC" envDefault:"300"`
	AlertChannel  string `env:"ALERT_CHANNEL" envDefault:"fx:alerts"`

	// HTTP
	APIPort        int `env:"API_PORT" envDefault:"8080"`
	PrometheusPort int `env:"PROMETHEUS_PORT" envDefault:"9091"`

	// Observability
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Metric windows
	SpreadWindowSize int `env:"SPREAD_WINDOW_SIZE" envDefault:"100"`
	DepthHistorySize int `env:"DEPTH_HISTORY_SIZE" envDefault:"100"`
	FlowWindowSec    int `env:"FLOW_WINDOW_SEC" envDefault:"60"`
	VolatilityWindow int `env:"VOLATILITY_WINDOW_SIZE" envDefault:"100"`
	VPINBuckets      int `env:"VPIN_BUCKETS" envDefault:"50"`

	// Detector thresholds
	ZScoreThreshold      float64 `env:"ZSCORE_THRESHOLD" envDefault:"3.0"`
	ZScoreWindowSize     int     `env:"ZSCORE_WINDOW_SIZE" envDefault:"100"`
	QuoteStuffingRate    int     `env:"QUOTE_STUFFING_RATE" envDefault:"100"`
	SpoofingSizeMult     float64 `env:"SPOOFING_SIZE_MULTIPLIER" envDefault:"3.0"`
	WashPriceTolerance   float64 `env:"WASH_PRICE_TOLERANCE" envDefault:"0.0001"`
	OracleScoreThreshold float64 `env:"ORACLE_SCORE_THRESHOLD" envDefault:"0.7"`
	OracleEnabled        bool    `env:"ORACLE_ENABLED" envDefault:"true"`

	// Alerting
	AlertCooldownSec int `env:"ALERT_COOLDOWN_SEC" envDefault:"60"`

	// Storage
	BatchSize     int `env:"STORAGE_BATCH_SIZE" envDefault:"100"`
	BatchFlushSec int `env:"STORAGE_FLUSH_SEC" envDefault:"5"`

	// Computed durations (not from env)
	CacheTTL      time.Duration `env:"-"`
	FlowWindow    time.Duration `env:"-"`
	AlertCooldown time.Duration `env:"-"`
	BatchFlush    time.Duration `env:"-"`
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{}); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	for i := range cfg.Symbols {
		cfg.Symbols[i] = strings.TrimSpace(cfg.Symbols[i])
	}

	cfg.CacheTTL = time.Duration(cfg.CacheTTLSec) * time.Second
	cfg.FlowWindow = time.Duration(cfg.FlowWindowSec) * time.Second
	cfg.AlertCooldown = time.Duration(cfg.AlertCooldownSec) * time.Second
	cfg.BatchFlush = time.Duration(cfg.BatchFlushSec) * time.Second

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if len(c.Symbols) == 0 {
		return fmt.Errorf("at least one symbol must be configured")
	}
	for _, symbol := range c.Symbols {
		if symbol == "" {
			return fmt.Errorf("empty symbol in SYMBOLS")
		}
	}

	if len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("at least one kafka broker must be configured")
	}
	if c.KafkaTopic == "" {
		return fmt.Errorf("kafka topic must not be empty")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}

	if c.CacheTTL < time.Second {
		return fmt.Errorf("cache TTL must be at least 1 second")
	}
	if c.FlowWindow < time.Second {
		return fmt.Errorf("flow window must be at least 1 second")
	}

	if c.SpreadWindowSize <= 0 || c.DepthHistorySize <= 0 || c.VolatilityWindow <= 0 {
		return fmt.Errorf("metric window sizes must be positive")
	}
	if c.VPINBuckets <= 0 {
		return fmt.Errorf("VPIN bucket count must be positive")
	}
	if c.ZScoreThreshold <= 0 {
		return fmt.Errorf("zscore threshold must be positive")
	}
	if c.ZScoreWindowSize <= 0 {
		return fmt.Errorf("zscore window size must be positive")
	}
	if c.QuoteStuffingRate <= 0 {
		return fmt.Errorf("quote stuffing rate must be positive")
	}
	if c.SpoofingSizeMult <= 1 {
		return fmt.Errorf("spoofing size multiplier must exceed 1")
	}
	if c.WashPriceTolerance <= 0 {
		return fmt.Errorf("wash trading price tolerance must be positive")
	}
	if c.OracleScoreThreshold <= 0 || c.OracleScoreThreshold >= 1 {
		return fmt.Errorf("oracle score threshold must be in (0, 1)")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("storage batch size must be positive")
	}

	return nil
}
