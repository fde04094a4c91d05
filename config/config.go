package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	postgres_wrapper "github.com/joripage/lightengine/pkg/infra/postgres"
	redis_wrapper "github.com/joripage/lightengine/pkg/infra/redis"
	fixgateway "github.com/joripage/lightengine/pkg/oms/fix"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type AppConfig struct {
	ServiceName string `yaml:"service_name"`
	LogLevel    string `yaml:"log_level"`
	// MetricsAddr serves /metrics and pprof; empty disables both.
	MetricsAddr string `yaml:"metrics_addr"`

	// SharedOrderIDs draws order ids for every book from one sequence.
	SharedOrderIDs       bool               `yaml:"shared_order_ids"`
	DepthLevels          int                `yaml:"depth_levels"`
	CleanIntervalSeconds int                `yaml:"clean_interval_seconds"`
	Instruments          []InstrumentConfig `yaml:"instruments"`

	Fix   *fixgateway.FixGatewayConfig    `yaml:"fix"`
	Kafka *KafkaConfig                    `yaml:"kafka"`
	Redis *redis_wrapper.RedisConfig      `yaml:"redis"`
	OmsDB *postgres_wrapper.PostgresConfig `yaml:"oms_db"`
}

type InstrumentConfig struct {
	Symbol   string `yaml:"symbol"`
	TickSize string `yaml:"tick_size"`
}

func (c InstrumentConfig) Tick() (decimal.Decimal, error) {
	tick, err := decimal.NewFromString(c.TickSize)
	if err != nil {
		return decimal.Zero, fmt.Errorf("instrument %s: tick size %q: %w", c.Symbol, c.TickSize, err)
	}
	if !tick.IsPositive() {
		return decimal.Zero, fmt.Errorf("instrument %s: tick size %q must be positive", c.Symbol, c.TickSize)
	}
	return tick, nil
}

type KafkaConfig struct {
	Brokers     []string `yaml:"brokers"`
	ReportTopic string   `yaml:"report_topic"`
	GroupID     string   `yaml:"group_id"`
	WorkerCount int      `yaml:"worker_count"`
	BatchSize   int      `yaml:"batch_size"`
	MaxRetries  int      `yaml:"max_retries"`
	DLQTopic    string   `yaml:"dlq_topic"`
}

func (c *AppConfig) CleanInterval() time.Duration {
	return time.Duration(c.CleanIntervalSeconds) * time.Second
}

// Validate checks what the engine needs to start.
func (c *AppConfig) Validate() error {
	if len(c.Instruments) == 0 {
		return errors.New("no instruments configured")
	}
	seen := make(map[string]struct{}, len(c.Instruments))
	for _, inst := range c.Instruments {
		if inst.Symbol == "" {
			return errors.New("instrument without symbol")
		}
		if _, dup := seen[inst.Symbol]; dup {
			return fmt.Errorf("instrument %s configured twice", inst.Symbol)
		}
		seen[inst.Symbol] = struct{}{}
		if _, err := inst.Tick(); err != nil {
			return err
		}
	}
	if c.Kafka != nil && len(c.Kafka.Brokers) > 0 && c.Kafka.ReportTopic == "" {
		return errors.New("kafka report_topic is empty")
	}
	return nil
}

// Load load config from file and environment variables. A .env file in the
// working directory, when present, is applied to the environment first.
func Load(filePath string) (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		zap.S().Warnf("load .env: %v", err)
	}

	if len(filePath) == 0 {
		filePath = os.Getenv("CONFIG_FILE")
	}

	fields := []interface{}{
		"func",
		"config.readFromFile",
		"filePath",
		filePath,
	}

	sugar := zap.S().With(fields...)

	sugar.Debug("Load config...")
	zap.S().Debugf("CONFIG_FILE=%v", filePath)

	configBytes, err := os.ReadFile(filePath)
	if err != nil {
		sugar.Error("Failed to load config file")
		return nil, err
	}

	cfg, err := Parse(configBytes)
	if err != nil {
		sugar.Error("Failed to parse config file")
		return nil, err
	}

	zap.S().Debugf("config: %+v", cfg)

	return cfg, nil
}

// Parse expands ${VAR} references from the environment and decodes the yaml.
func Parse(configBytes []byte) (*AppConfig, error) {
	configBytes = []byte(os.ExpandEnv(string(configBytes)))

	cfg := &AppConfig{}
	if err := yaml.Unmarshal(configBytes, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
