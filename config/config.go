package config

import (
	"os"
	"strconv"
	"time"

	"ticket-marketplace/internal/chain/evm"
)

type Config struct {
	// Server configuration
	Port        string
	Environment string

	// Redis configuration
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// PubNub configuration (realtime change notifications)
	PubNubPublishKey   string
	PubNubSubscribeKey string
	PubNubSecretKey    string

	// Chain gateway configuration
	ChainProvider       string
	EVMConfig           evm.Config
	ChainCallbackSecret string
	TicketMetadataURI   string

	// Workflow configuration
	GuardTTL          time.Duration
	ConfirmTimeout    time.Duration
	PenaltyInterval   time.Duration
	ReconcileInterval time.Duration
	ProfileCacheTTL   time.Duration

	// Monitoring
	EnableMetrics bool
	MetricsPort   string
}

func LoadConfig() *Config {
	return &Config{
		// Server
		Port:        getEnv("PORT", "8090"),
		Environment: getEnv("ENVIRONMENT", "development"),

		// Redis
		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		// PubNub
		PubNubPublishKey:   getEnv("PUBNUB_PUBLISH_KEY", ""),
		PubNubSubscribeKey: getEnv("PUBNUB_SUBSCRIBE_KEY", ""),
		PubNubSecretKey:    getEnv("PUBNUB_SECRET_KEY", ""),

		// Chain gateway
		ChainProvider: getEnv("CHAIN_PROVIDER", "evm"),
		EVMConfig: evm.Config{
			BaseURL:     getEnv("CHAIN_GATEWAY_URL", "http://localhost:8545"),
			ContractID:  getEnv("CHAIN_CONTRACT_ID", ""),
			ClientID:    getEnv("CHAIN_CLIENT_ID", ""),
			ClientKey:   getEnv("CHAIN_CLIENT_KEY", ""),
			HMACKey:     getEnv("CHAIN_HMAC_KEY", ""),
			PNSubKey:    getEnv("CHAIN_PN_SUBSCRIBE_KEY", ""),
			PNUUID:      getEnv("CHAIN_PN_UUID", "ticket-marketplace"),
			PNChannel:   getEnv("CHAIN_PN_CHANNEL", "chain-tx-notifications"),
			PNCipherKey: getEnv("CHAIN_PN_CIPHER_KEY", ""),
		},
		ChainCallbackSecret: getEnv("CHAIN_CALLBACK_SECRET", ""),
		TicketMetadataURI:   getEnv("TICKET_METADATA_URI", "ipfs://ticket-metadata"),

		// Workflow
		GuardTTL:          getEnvAsDuration("GUARD_TTL", "2m"),
		ConfirmTimeout:    getEnvAsDuration("CONFIRM_TIMEOUT", "3m"),
		PenaltyInterval:   getEnvAsDuration("PENALTY_INTERVAL", "10m"),
		ReconcileInterval: getEnvAsDuration("RECONCILE_INTERVAL", "1m"),
		ProfileCacheTTL:   getEnvAsDuration("PROFILE_CACHE_TTL", "5m"),

		// Monitoring
		EnableMetrics: getEnvAsBool("ENABLE_METRICS", true),
		MetricsPort:   getEnv("METRICS_PORT", "9090"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	// If parsing fails, try to parse default value
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
