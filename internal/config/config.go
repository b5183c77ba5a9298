package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	DBSource       string
	Port           string
	Env            string
	LogLevel       string
	MigrateOnStart bool

	RedisAddrs    []string
	RedisPassword string
	RedisCluster  bool

	KafkaBrokers      []string
	KafkaTopic        string
	KafkaGroupID      string
	WorkerConcurrency int
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("MIGRATE_ON_START", true)
	v.SetDefault("REDIS_ADDRS", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_CLUSTER", false)
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_TOPIC", "webhooks.process")
	v.SetDefault("KAFKA_GROUP_ID", "webhook-processors")
	v.SetDefault("WORKER_CONCURRENCY", 4)
	v.AutomaticEnv()

	dbSource := v.GetString("DB_SOURCE")
	if dbSource == "" {
		return nil, fmt.Errorf("DB_SOURCE environment variable is required")
	}

	cfg := &Config{
		DBSource:          dbSource,
		Port:              v.GetString("SERVER_PORT"),
		Env:               v.GetString("ENVIRONMENT"),
		LogLevel:          v.GetString("LOG_LEVEL"),
		MigrateOnStart:    v.GetBool("MIGRATE_ON_START"),
		RedisAddrs:        splitList(v.GetString("REDIS_ADDRS")),
		RedisPassword:     v.GetString("REDIS_PASSWORD"),
		RedisCluster:      v.GetBool("REDIS_CLUSTER"),
		KafkaBrokers:      splitList(v.GetString("KAFKA_BROKERS")),
		KafkaTopic:        v.GetString("KAFKA_TOPIC"),
		KafkaGroupID:      v.GetString("KAFKA_GROUP_ID"),
		WorkerConcurrency: v.GetInt("WORKER_CONCURRENCY"),
	}
	if cfg.WorkerConcurrency < 1 {
		return nil, fmt.Errorf("WORKER_CONCURRENCY must be at least 1, got %d", cfg.WorkerConcurrency)
	}
	if len(cfg.RedisAddrs) == 0 {
		return nil, fmt.Errorf("REDIS_ADDRS must list at least one address")
	}
	if len(cfg.KafkaBrokers) == 0 {
		return nil, fmt.Errorf("KAFKA_BROKERS must list at least one broker")
	}
	return cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
