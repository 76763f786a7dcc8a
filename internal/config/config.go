package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration values
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	SwapNetwork SwapNetworkConfig
	Chain       ChainConfig
	Reconciler  ReconcilerConfig
	Companion   CompanionConfig
	JWT         JWTConfig
	Security    SecurityConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Env  string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// URL returns the database connection URL
func (c DatabaseConfig) URL() string {
	return "postgres://" + c.User + ":" + c.Password + "@" + c.Host + ":" + strconv.Itoa(c.Port) + "/" + c.DBName + "?sslmode=" + c.SSLMode + "&prepare_threshold=0"
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	URL      string
	Password string
}

// SwapNetworkConfig holds the external swap network API configuration
type SwapNetworkConfig struct {
	BaseURL         string
	APIKey          string
	Timeout         time.Duration
	DepositDeadline time.Duration
	SlippageBps     int
}

// ChainConfig holds the chain RPC used for companion wallet balance checks
// and transfers
type ChainConfig struct {
	RPCURL string
}

// ReconcilerConfig holds the reconciliation sweep configuration
type ReconcilerConfig struct {
	Interval          time.Duration
	CompanionInterval time.Duration
	LockTTL           time.Duration
	Retention         time.Duration
	BatchLimit        int
}

// CompanionConfig holds two-hop routing configuration
type CompanionConfig struct {
	IntermediateAsset string
	FeeMultiplier     float64
	KeyTTL            time.Duration
	DustWei           string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret       string
	AccessExpiry time.Duration
}

// SecurityConfig holds security encryption keys
type SecurityConfig struct {
	KeyVaultEncryptionKey string
	APITokenHash          string
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Env:  getEnv("SERVER_ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "swaproute"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", "redis://localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
		},
		SwapNetwork: SwapNetworkConfig{
			BaseURL:         getEnv("SWAP_NETWORK_URL", "https://1click.chaindefuser.com"),
			APIKey:          getEnv("SWAP_NETWORK_API_KEY", ""),
			Timeout:         getEnvAsDuration("SWAP_NETWORK_TIMEOUT", 15*time.Second),
			DepositDeadline: getEnvAsDuration("DEPOSIT_DEADLINE", 1*time.Hour),
			SlippageBps:     getEnvAsInt("SWAP_SLIPPAGE_BPS", 100),
		},
		Chain: ChainConfig{
			RPCURL: getEnv("CHAIN_RPC_URL", "https://ethereum-rpc.publicnode.com"),
		},
		Reconciler: ReconcilerConfig{
			Interval:          getEnvAsDuration("RECONCILE_INTERVAL", 1*time.Minute),
			CompanionInterval: getEnvAsDuration("COMPANION_RECONCILE_INTERVAL", 1*time.Minute),
			LockTTL:           getEnvAsDuration("RECONCILE_LOCK_TTL", 2*time.Minute),
			Retention:         getEnvAsDuration("RECONCILE_RETENTION", 72*time.Hour),
			BatchLimit:        getEnvAsInt("RECONCILE_BATCH_LIMIT", 100),
		},
		Companion: CompanionConfig{
			IntermediateAsset: getEnv("COMPANION_INTERMEDIATE_ASSET", "eth:1:native"),
			FeeMultiplier:     getEnvAsFloat("COMPANION_FEE_MULTIPLIER", 1.05),
			KeyTTL:            getEnvAsDuration("COMPANION_KEY_TTL", 24*time.Hour),
			DustWei:           getEnv("COMPANION_DUST_WEI", "1000000000000"), // 0.000001 ETH
		},
		JWT: JWTConfig{
			Secret:       getEnv("JWT_SECRET", "change-this-in-production"),
			AccessExpiry: getEnvAsDuration("JWT_ACCESS_EXPIRY", 15*time.Minute),
		},
		Security: SecurityConfig{
			KeyVaultEncryptionKey: getEnv("KEYVAULT_ENCRYPTION_KEY", "0000000000000000000000000000000000000000000000000000000000000000"), // 32-bytes hex string
			APITokenHash:          getEnv("API_TOKEN_HASH", ""),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
