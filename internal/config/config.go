package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LoadEnv loads variables from a .env file if present.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file found: %v", err)
	}
}

// GetEnv returns an environment variable or a default value.
func GetEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return defaultVal
}

// GetIntEnv returns an int environment variable or a default value.
func GetIntEnv(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// GetDurationEnv returns a duration environment variable or a default value.
func GetDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

// IsProduction checks if the app runs in production mode.
func IsProduction() bool {
	return GetEnv("ENV", "development") == "production"
}

// GatewayConfig tunes the simulated banking gateway.
type GatewayConfig struct {
	TransferLatency time.Duration
	VerifyLatency   time.Duration
	TransferCeiling string // decimal string, e.g. "100000.00"
}

// KafkaConfig configures the reconciliation event publisher.
type KafkaConfig struct {
	Brokers []string
	Topic   string
	Enabled bool
}

// GatewayFromEnv reads gateway tuning from the environment.
func GatewayFromEnv() GatewayConfig {
	return GatewayConfig{
		TransferLatency: GetDurationEnv("GATEWAY_TRANSFER_LATENCY", 800*time.Millisecond),
		VerifyLatency:   GetDurationEnv("GATEWAY_VERIFY_LATENCY", time.Second),
		TransferCeiling: GetEnv("GATEWAY_TRANSFER_CEILING", "100000.00"),
	}
}

// KafkaFromEnv reads Kafka settings from the environment. The publisher is
// disabled when no brokers are configured; reconciliation events then stay in
// the outbox table where operators can still query them.
func KafkaFromEnv() KafkaConfig {
	brokers := GetEnv("KAFKA_BROKERS", "")
	cfg := KafkaConfig{
		Topic: GetEnv("KAFKA_RECONCILIATION_TOPIC", "wallet.reconciliation"),
	}
	if brokers != "" {
		cfg.Brokers = strings.Split(brokers, ",")
		cfg.Enabled = true
	}
	return cfg
}
