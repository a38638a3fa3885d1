package config

import (
	"os"
	"strconv"
	"time"

	kycstrings "kyc/pkg/platform/strings"
)

// Environment names. Anything other than EnvProduction is treated as non-production.
const (
	EnvProduction  = "production"
	EnvDevelopment = "development"
)

// Config is the full service configuration, built from the environment so main stays lean.
type Config struct {
	Environment  string
	Server       Server
	Database     DatabaseConfig
	Redis        RedisConfig
	Kafka        KafkaConfig
	Credential   CredentialConfig
	Storage      StorageConfig
	Pipeline     PipelineConfig
	Verification VerificationConfig
}

// Server captures the ops HTTP server configuration.
type Server struct {
	Addr            string
	ShutdownTimeout time.Duration
	// AdminToken guards /admin; empty disables the admin routes.
	AdminToken string
	LogLevel   string
}

// DatabaseConfig selects the Postgres stores. An empty URL wires in-memory stores.
type DatabaseConfig struct {
	URL             string
	Driver          string // "pgx" (default) or "postgres" for lib/pq
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig configures the status cache. An empty URL disables it.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	StatusTTL    time.Duration
}

// KafkaConfig configures command intake and event publishing. No brokers disables both.
type KafkaConfig struct {
	Brokers       []string
	CommandsTopic string
	EventsTopic   string
	ConsumerGroup string
	Partitions    int32
	Replication   int16
}

// CredentialConfig is one OAuth client-credentials set for the verification services.
type CredentialConfig struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scope        string
	Timeout      time.Duration
	// AllowInsecureTLSFallback enables a certificate-unverified retry after a
	// TLS handshake failure. Ignored in production.
	AllowInsecureTLSFallback bool
}

// StorageConfig selects the document storage backend.
type StorageConfig struct {
	S3Bucket      string
	S3Region      string
	S3Endpoint    string
	S3AccessKey   string // static credentials; empty uses the default AWS chain
	S3SecretKey   string
	Prefix        string
	EncryptionKey string // hex-encoded 32-byte key; empty disables encryption at rest
	EncryptionKID string
	Timeout       time.Duration
}

// PipelineConfig tunes document ingestion.
type PipelineConfig struct {
	MaxImageBytes  int
	CompressWorker int
}

// VerificationConfig points at the remote identity registry / liveness service.
type VerificationConfig struct {
	BaseURL          string
	Timeout          time.Duration
	RegisterAttempts int
	RegisterDelay    time.Duration
}

// IsProduction reports whether relaxed debug paths must stay disabled.
func (c Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// FromEnv builds a Config from environment variables, applying defaults.
func FromEnv() Config {
	return Config{
		Environment: getEnv("KYC_ENV", EnvDevelopment),
		Server: Server{
			Addr:            getEnv("KYC_OPS_ADDR", ":8080"),
			ShutdownTimeout: getDuration("KYC_SHUTDOWN_TIMEOUT", 10*time.Second),
			AdminToken:      os.Getenv("KYC_ADMIN_TOKEN"),
			LogLevel:        getEnv("KYC_LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			Driver:          getEnv("DATABASE_DRIVER", "pgx"),
			MaxOpenConns:    getInt("DATABASE_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    getInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDuration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			StatusTTL:    getDuration("REDIS_STATUS_TTL", 5*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers:       kycstrings.SplitList(os.Getenv("KAFKA_BROKERS"), ","),
			CommandsTopic: getEnv("KAFKA_COMMANDS_TOPIC", "kyc.commands"),
			EventsTopic:   getEnv("KAFKA_EVENTS_TOPIC", "kyc.process-events"),
			ConsumerGroup: getEnv("KAFKA_CONSUMER_GROUP", "kyc-core"),
			Partitions:    int32(getInt("KAFKA_TOPIC_PARTITIONS", 6)),
			Replication:   int16(getInt("KAFKA_TOPIC_REPLICATION", 1)),
		},
		Credential: CredentialConfig{
			TokenURL:                 os.Getenv("VERIFICATION_TOKEN_URL"),
			ClientID:                 os.Getenv("VERIFICATION_CLIENT_ID"),
			ClientSecret:             os.Getenv("VERIFICATION_CLIENT_SECRET"),
			Scope:                    os.Getenv("VERIFICATION_SCOPE"),
			Timeout:                  getDuration("VERIFICATION_TOKEN_TIMEOUT", 10*time.Second),
			AllowInsecureTLSFallback: os.Getenv("ALLOW_INSECURE_TLS_FALLBACK") == "true",
		},
		Storage: StorageConfig{
			S3Bucket:      os.Getenv("STORAGE_S3_BUCKET"),
			S3Region:      getEnv("STORAGE_S3_REGION", "us-east-1"),
			S3Endpoint:    os.Getenv("STORAGE_S3_ENDPOINT"),
			S3AccessKey:   os.Getenv("STORAGE_S3_ACCESS_KEY_ID"),
			S3SecretKey:   os.Getenv("STORAGE_S3_SECRET_ACCESS_KEY"),
			Prefix:        getEnv("STORAGE_PREFIX", "kyc"),
			EncryptionKey: os.Getenv("STORAGE_ENCRYPTION_KEY"),
			EncryptionKID: getEnv("STORAGE_ENCRYPTION_KID", "default"),
			Timeout:       getDuration("STORAGE_TIMEOUT", 30*time.Second),
		},
		Pipeline: PipelineConfig{
			MaxImageBytes:  getInt("PIPELINE_MAX_IMAGE_BYTES", 250_000),
			CompressWorker: getInt("PIPELINE_COMPRESS_WORKERS", 4),
		},
		Verification: VerificationConfig{
			BaseURL:          os.Getenv("VERIFICATION_BASE_URL"),
			Timeout:          getDuration("VERIFICATION_TIMEOUT", 15*time.Second),
			RegisterAttempts: getInt("VERIFICATION_REGISTER_ATTEMPTS", 5),
			RegisterDelay:    getDuration("VERIFICATION_REGISTER_DELAY", 2*time.Second),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
