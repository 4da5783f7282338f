package config

import (
	"os"
	"strconv"
)

type MarketplaceServiceConfig struct {
	Port        string
	AdminID     string
	PostgresCfg PostgresConfig
	RabbitMQCfg RabbitMQConfig
	RedisCfg    RedisConfig
	MinioCfg    MinioConfig
	Marketplace MarketplaceConfig
}

// MarketplaceConfig carries the ledger parameters. Durations are seconds so
// deadline arithmetic stays on the injected unix clock.
type MarketplaceConfig struct {
	MinBidDuration             int64
	MaxBidDuration             int64
	MaxProposalDuration        int64
	ClaimVerificationWindow    int64
	ApprovalThresholdFraction  float64
	RejectionThresholdFraction float64
	MaxCoverageLimit           int64
}

type PostgresConfig struct {
	DBname   string
	Username string
	Password string
	Host     string
	Port     string
}

type RabbitMQConfig struct {
	Username string
	Password string
	Host     string
	Port     string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type MinioConfig struct {
	MinioURL         string
	MinioAccessKey   string
	MinioSecretKey   string
	MinioLocation    string
	MinioSecure      string
	MinioResourceURL string
}

func New() *MarketplaceServiceConfig {
	return &MarketplaceServiceConfig{
		Port:    getEnvOrDefault("PORT", "8086"),
		AdminID: getEnvOrDefault("MARKETPLACE_ADMIN_ID", "admin"),
		PostgresCfg: PostgresConfig{
			DBname:   getEnvOrDefault("POSTGRES_DB", "marketplace"),
			Username: getEnvOrDefault("POSTGRES_USER", "postgres"),
			Password: getEnvOrDefault("POSTGRES_PASSWORD", "postgres"),
			Host:     getEnvOrDefault("POSTGRES_HOST", "localhost"),
			Port:     getEnvOrDefault("POSTGRES_PORT", "5432"),
		},
		RabbitMQCfg: RabbitMQConfig{
			Username: getEnvOrDefault("RABBITMQ_USER", "admin"),
			Password: getEnvOrDefault("RABBITMQ_PWD", "admin"),
			Host:     getEnvOrDefault("RABBITMQ_HOST", "localhost"),
			Port:     getEnvOrDefault("RABBITMQ_PORT", "5672"),
		},
		RedisCfg: RedisConfig{
			Host:     getEnvOrDefault("REDIS_HOST", "localhost"),
			Port:     getEnvOrDefault("REDIS_PORT", "6379"),
			Password: getEnvOrDefault("REDIS_PASSWORD", ""),
			DB:       0,
		},
		MinioCfg: MinioConfig{
			MinioURL:         getEnvOrDefault("MINIO_ENDPOINT", "http://localhost:9407"),
			MinioAccessKey:   getEnvOrDefault("MINIO_ACCESS_KEY", "minio"),
			MinioSecretKey:   getEnvOrDefault("MINIO_SECRET_KEY", "minio123"),
			MinioLocation:    getEnvOrDefault("MINIO_LOCATION", "us-east-1"),
			MinioSecure:      getEnvOrDefault("MINIO_SECURE", "false"),
			MinioResourceURL: getEnvOrDefault("MINIO_RESOURCE_URL", "http://localhost:9407/"),
		},
		Marketplace: MarketplaceConfig{
			MinBidDuration:             getEnvInt64("MIN_BID_DURATION", 3600),
			MaxBidDuration:             getEnvInt64("MAX_BID_DURATION", 30*24*3600),
			MaxProposalDuration:        getEnvInt64("MAX_PROPOSAL_DURATION", 90*24*3600),
			ClaimVerificationWindow:    getEnvInt64("CLAIM_VERIFICATION_WINDOW", 7*24*3600),
			ApprovalThresholdFraction:  getEnvFloat("APPROVAL_THRESHOLD_FRACTION", 0.5),
			RejectionThresholdFraction: getEnvFloat("REJECTION_THRESHOLD_FRACTION", 0.5),
			MaxCoverageLimit:           getEnvInt64("MAX_COVERAGE_LIMIT", 0),
		},
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}
