package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	AppName                       string   `env:"APP_NAME" env-default:"fern-api"`
	Port                          int      `env:"PORT" env-default:"3004"`
	LogLevel                      string   `env:"LOG_LEVEL" env-default:"info"`
	PrettyLogs                    bool     `env:"PRETTY_LOGS" env-default:"false"`
	HttpServerWriteTimeoutSeconds int      `env:"HTTP_SERVER_WRITE_TIMEOUT_SECONDS" env-default:"10"`
	HttpServerReadTimeoutSeconds  int      `env:"HTTP_SERVER_READ_TIMEOUT_SECONDS" env-default:"10"`
	HttpServerIdleTimeoutSeconds  int      `env:"HTTP_SERVER_IDLE_TIMEOUT_SECONDS" env-default:"10"`
	MaxHeaderBytes                int      `env:"HTTP_SERVER_MAX_HEADER_BYTES" env-default:"64000"` // 64KB
	ReadHeaderTimeoutSeconds      int      `env:"HTTP_SERVER_READ_HEADER_TIMEOUT_SECONDS" env-default:"10"`
	AllowOrigins                  []string `env:"HTTP_SERVER_ALLOW_ORIGINS" env-default:"*"`
	AllowMethods                  []string `env:"HTTP_SERVER_ALLOW_METHODS" env-default:"GET,POST,PUT,DELETE"`
	StartupMaxAttempts            int      `env:"STARTUP_MAX_ATTEMPTS" env-default:"5"`

	// Record store (upstream catalog service)
	RecordStoreBaseURL       string        `env:"RECORD_STORE_BASE_URL" env-default:"http://localhost:3005"`
	RecordStoreTimeout       time.Duration `env:"RECORD_STORE_TIMEOUT" env-default:"15s"`
	RecordStoreMaxResponseMB int           `env:"RECORD_STORE_MAX_RESPONSE_MB" env-default:"10"`
	StoreKey                 string        `env:"STORE_KEY" env-default:""`

	// PostgreSQL (catalogd only)
	DatabaseDriver                string        `env:"DB_DRIVER" env-default:"postgres"`
	DatabaseHost                  string        `env:"DB_HOST" env-default:""`
	DatabasePort                  string        `env:"DB_PORT" env-default:"5432"`
	DatabaseUserName              string        `env:"DB_USER_NAME" env-default:""`
	DatabasePassword              string        `env:"DB_PASSWORD" env-default:""`
	DatabaseName                  string        `env:"DB_NAME" env-default:"fern"`
	DatabaseSSLMode               string        `env:"DB_SQL_MODE" env-default:"disable"`
	DatabaseReconnectRetryCount   int           `env:"DB_RECONNECT_RETRY_COUNT" env-default:"3"`
	DatabaseMaxOpenConns          int           `env:"DB_MAX_OPEN_CONNS" env-default:"25"`
	DatabaseMaxIdleConns          int           `env:"DB_MAX_IDLE_CONNS" env-default:"10"`
	DatabaseConnMaxLifetime       time.Duration `env:"DB_CONN_MAX_LIFETIME" env-default:"10s"`
	DatabaseMigrationFolderPath   string        `env:"DB_MIGRATION_FOLDER_PATH" env-default:"db/pg"`
	DatabaseMigrationVersion      int           `env:"DB_MIGRATION_VERSION" env-default:"0"`
	DatabaseMigrationForce        int           `env:"DB_MIGRATION_FORCE" env-default:"0"`
	DatabaseMigrationAutoRollback bool          `env:"DB_MIGRATION_AUTO_ROLLBACK" env-default:"true"`

	// Image storage (catalogd only)
	ImageStorageDir string `env:"IMAGE_STORAGE_DIR" env-default:"images"`
	ImageBaseURL    string `env:"IMAGE_BASE_URL" env-default:"http://localhost:3005/images"`

	// Kafka Producer settings
	KafkaEnabled      bool     `env:"KAFKA_ENABLED" env-default:"false"`
	KafkaBrokers      []string `env:"KAFKA_BROKERS" env-default:"localhost:9092"`
	KafkaOutputTopic  string   `env:"KAFKA_OUTPUT_TOPIC" env-default:"catalog-events"`
	KafkaBatchSize    int      `env:"KAFKA_BATCH_SIZE" env-default:"100"`
	KafkaBatchTimeout int      `env:"KAFKA_BATCH_TIMEOUT_MS" env-default:"100"`
	KafkaRequiredAcks int      `env:"KAFKA_REQUIRED_ACKS" env-default:"1"`
	KafkaCompression  string   `env:"KAFKA_COMPRESSION" env-default:"snappy"`

	// Tracing settings
	OTLPEnabled  bool   `env:"OTLP_ENABLED" env-default:"false"`
	OTLPEndpoint string `env:"OTLP_ENDPOINT" env-default:"localhost:4317"`
	OTLPProtocol string `env:"OTLP_PROTOCOL" env-default:"grpc"`
	OTLPInsecure bool   `env:"OTLP_INSECURE" env-default:"true"`
}

// Load reads the configuration from the environment, falling back to each
// field's default.
func Load() *Config {
	return &Config{
		AppName:                       envString("APP_NAME", "fern-api"),
		Port:                          envInt("PORT", 3004),
		LogLevel:                      envString("LOG_LEVEL", "info"),
		PrettyLogs:                    envBool("PRETTY_LOGS", false),
		HttpServerWriteTimeoutSeconds: envInt("HTTP_SERVER_WRITE_TIMEOUT_SECONDS", 10),
		HttpServerReadTimeoutSeconds:  envInt("HTTP_SERVER_READ_TIMEOUT_SECONDS", 10),
		HttpServerIdleTimeoutSeconds:  envInt("HTTP_SERVER_IDLE_TIMEOUT_SECONDS", 10),
		MaxHeaderBytes:                envInt("HTTP_SERVER_MAX_HEADER_BYTES", 64000),
		ReadHeaderTimeoutSeconds:      envInt("HTTP_SERVER_READ_HEADER_TIMEOUT_SECONDS", 10),
		AllowOrigins:                  envList("HTTP_SERVER_ALLOW_ORIGINS", "*"),
		AllowMethods:                  envList("HTTP_SERVER_ALLOW_METHODS", "GET,POST,PUT,DELETE"),
		StartupMaxAttempts:            envInt("STARTUP_MAX_ATTEMPTS", 5),

		RecordStoreBaseURL:       envString("RECORD_STORE_BASE_URL", "http://localhost:3005"),
		RecordStoreTimeout:       envDuration("RECORD_STORE_TIMEOUT", 15*time.Second),
		RecordStoreMaxResponseMB: envInt("RECORD_STORE_MAX_RESPONSE_MB", 10),
		StoreKey:                 envString("STORE_KEY", ""),

		DatabaseDriver:                envString("DB_DRIVER", "postgres"),
		DatabaseHost:                  envString("DB_HOST", ""),
		DatabasePort:                  envString("DB_PORT", "5432"),
		DatabaseUserName:              envString("DB_USER_NAME", ""),
		DatabasePassword:              envString("DB_PASSWORD", ""),
		DatabaseName:                  envString("DB_NAME", "fern"),
		DatabaseSSLMode:               envString("DB_SQL_MODE", "disable"),
		DatabaseReconnectRetryCount:   envInt("DB_RECONNECT_RETRY_COUNT", 3),
		DatabaseMaxOpenConns:          envInt("DB_MAX_OPEN_CONNS", 25),
		DatabaseMaxIdleConns:          envInt("DB_MAX_IDLE_CONNS", 10),
		DatabaseConnMaxLifetime:       envDuration("DB_CONN_MAX_LIFETIME", 10*time.Second),
		DatabaseMigrationFolderPath:   envString("DB_MIGRATION_FOLDER_PATH", "db/pg"),
		DatabaseMigrationVersion:      envInt("DB_MIGRATION_VERSION", 0),
		DatabaseMigrationForce:        envInt("DB_MIGRATION_FORCE", 0),
		DatabaseMigrationAutoRollback: envBool("DB_MIGRATION_AUTO_ROLLBACK", true),

		ImageStorageDir: envString("IMAGE_STORAGE_DIR", "images"),
		ImageBaseURL:    envString("IMAGE_BASE_URL", "http://localhost:3005/images"),

		KafkaEnabled:      envBool("KAFKA_ENABLED", false),
		KafkaBrokers:      envList("KAFKA_BROKERS", "localhost:9092"),
		KafkaOutputTopic:  envString("KAFKA_OUTPUT_TOPIC", "catalog-events"),
		KafkaBatchSize:    envInt("KAFKA_BATCH_SIZE", 100),
		KafkaBatchTimeout: envInt("KAFKA_BATCH_TIMEOUT_MS", 100),
		KafkaRequiredAcks: envInt("KAFKA_REQUIRED_ACKS", 1),
		KafkaCompression:  envString("KAFKA_COMPRESSION", "snappy"),

		OTLPEnabled:  envBool("OTLP_ENABLED", false),
		OTLPEndpoint: envString("OTLP_ENDPOINT", "localhost:4317"),
		OTLPProtocol: envString("OTLP_PROTOCOL", "grpc"),
		OTLPInsecure: envBool("OTLP_INSECURE", true),
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envList(key, fallback string) []string {
	v := os.Getenv(key)
	if v == "" {
		v = fallback
	}
	parts := strings.Split(v, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
