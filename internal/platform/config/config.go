package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	pkgstrings "fraudintel/pkg/platform/strings"
)

// Server captures process-level configuration.
type Server struct {
	Addr     string
	LogLevel string
	LogJSON  bool

	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string
	AdminToken    string

	CORSAllowedOrigins []string

	Database     DatabaseConfig
	Redis        RedisConfig
	Kafka        KafkaConfig
	Audit        AuditConfig
	Notification NotificationConfig
	Decoy        DecoyConfig
}

// DatabaseConfig holds PostgreSQL connection settings. An empty URL selects
// the in-memory stores, which SeedAccounts (a YAML file) can populate.
type DatabaseConfig struct {
	URL             string
	SeedAccounts    string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	RunMigrations   bool
}

// RedisConfig holds Redis connection settings. An empty URL serves the decoy
// dataset from the embedded copy.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig holds broker settings for the outbox relay and the
// notification dispatcher. No brokers means notifications are only logged.
type KafkaConfig struct {
	Brokers           []string
	NotificationTopic string
	ConsumerGroup     string
	RelayInterval     time.Duration
	RelayBatchSize    int
}

// AuditConfig tunes the non-blocking search audit pipeline.
type AuditConfig struct {
	BufferSize    int
	BatchSize     int
	FlushInterval time.Duration
	HashKey       string
}

// NotificationConfig tunes the low-quota notice.
type NotificationConfig struct {
	LowQuotaRatio float64
}

// DecoyConfig locates the decoy dataset in Redis.
type DecoyConfig struct {
	RedisKey string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	jwtSigningKey := getEnv("JWT_SIGNING_KEY", "")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	return Server{
		Addr:               getEnv("FRAUDINTEL_ADDR", ":8080"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogJSON:            getEnv("LOG_FORMAT", "json") == "json",
		JWTSigningKey:      jwtSigningKey,
		JWTIssuer:          getEnv("JWT_ISSUER", "fraudintel"),
		JWTAudience:        getEnv("JWT_AUDIENCE", "fraudintel"),
		AdminToken:         os.Getenv("ADMIN_TOKEN"),
		CORSAllowedOrigins: pkgstrings.DedupeAndTrim(strings.Split(os.Getenv("CORS_ALLOWED_ORIGINS"), ","), true),
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			SeedAccounts:    os.Getenv("SEED_ACCOUNTS"),
			MaxOpenConns:    getEnvInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
			RunMigrations:   getEnv("DATABASE_RUN_MIGRATIONS", "true") == "true",
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getEnvInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:           pkgstrings.SplitList(os.Getenv("KAFKA_BROKERS"), ","),
			NotificationTopic: getEnv("NOTIFICATION_TOPIC", "fraudintel.notifications"),
			ConsumerGroup:     getEnv("NOTIFICATION_CONSUMER_GROUP", "fraudintel-notifier"),
			RelayInterval:     getEnvDuration("OUTBOX_RELAY_INTERVAL", time.Second),
			RelayBatchSize:    getEnvInt("OUTBOX_RELAY_BATCH_SIZE", 100),
		},
		Audit: AuditConfig{
			BufferSize:    getEnvInt("AUDIT_BUFFER_SIZE", 10000),
			BatchSize:     getEnvInt("AUDIT_BATCH_SIZE", 100),
			FlushInterval: getEnvDuration("AUDIT_FLUSH_INTERVAL", 500*time.Millisecond),
			HashKey:       getEnv("AUDIT_HASH_KEY", "dev-audit-hash-key"),
		},
		Notification: NotificationConfig{
			LowQuotaRatio: getEnvFloat("LOW_QUOTA_RATIO", 0.9),
		},
		Decoy: DecoyConfig{
			RedisKey: getEnv("DECOY_REDIS_KEY", "fraudintel:decoy:records"),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
