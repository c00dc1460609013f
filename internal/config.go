package internal

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"http_server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Gateway       GatewayConfig       `mapstructure:"gateway"`
	Kafka         KafkaConfig         `mapstructure:"kafka"`
	Outbox        OutboxConfig        `mapstructure:"outbox"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	BaseURL           string        `mapstructure:"base_url"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Source          string        `mapstructure:"source"`
}

type GatewayConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	SecretKey string        `mapstructure:"secret_key"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type KafkaConfig struct {
	Brokers                   []string `mapstructure:"brokers"`
	ConsumerGroupID           string   `mapstructure:"consumer_group_id"`
	ReservationConfirmedTopic string   `mapstructure:"reservation_confirmed_topic"`
}

type OutboxConfig struct {
	DispatchInterval time.Duration `mapstructure:"dispatch_interval"`
	RetryInterval    time.Duration `mapstructure:"retry_interval"`
	BatchSize        int           `mapstructure:"batch_size"`
	MaxRetryCount    int           `mapstructure:"max_retry_count"`
}

type ObservabilityConfig struct {
	Logging LoggingConfig `mapstructure:"logging"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ----------------- HELPERS -----------------

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultVal
}

// LoadConfigFromEnv builds the whole config from environment variables,
// used when the service runs in a container without a config file.
func LoadConfigFromEnv() *Config {
	return &Config{
		Server: ServerConfig{
			Port:              getEnvAsInt("SERVER_PORT", 8080),
			BaseURL:           getEnv("SERVER_BASE_URL", "http://localhost:8080"),
			ReadHeaderTimeout: getEnvAsDuration("SERVER_READ_HEADER_TIMEOUT", 5*time.Second),
			ReadTimeout:       getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			IdleTimeout:       getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			WriteTimeout:      getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
		},
		Database: DatabaseConfig{
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
			Source:          getEnv("DATABASE_URL", ""),
		},
		Gateway: GatewayConfig{
			BaseURL:   getEnv("GATEWAY_BASE_URL", ""),
			SecretKey: getEnv("GATEWAY_SECRET_KEY", ""),
			Timeout:   getEnvAsDuration("GATEWAY_TIMEOUT", 30*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:                   strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
			ConsumerGroupID:           getEnv("KAFKA_CONSUMER_GROUP_ID", "payment-service"),
			ReservationConfirmedTopic: getEnv("KAFKA_RESERVATION_CONFIRMED_TOPIC", "reservation.confirmed"),
		},
		Outbox: OutboxConfig{
			DispatchInterval: getEnvAsDuration("OUTBOX_DISPATCH_INTERVAL", 5*time.Second),
			RetryInterval:    getEnvAsDuration("OUTBOX_RETRY_INTERVAL", 30*time.Second),
			BatchSize:        getEnvAsInt("OUTBOX_BATCH_SIZE", 100),
			MaxRetryCount:    getEnvAsInt("OUTBOX_MAX_RETRY_COUNT", 5),
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "json"),
			},
		},
	}
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	var errs []string

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}
	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}
	if err := c.Gateway.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("gateway config: %v", err))
	}
	if err := c.Kafka.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("kafka config: %v", err))
	}
	if err := c.Outbox.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("outbox config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func (c *ServerConfig) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

func (c *DatabaseConfig) Validate() error {
	if c.Source == "" {
		return errors.New("database source is required")
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

func (c *DatabaseConfig) GetDSN() string {
	return c.Source
}

func (c *GatewayConfig) Validate() error {
	if c.BaseURL == "" {
		return errors.New("gateway base_url is required")
	}
	if c.SecretKey == "" {
		return errors.New("gateway secret_key is required")
	}
	return nil
}

func (c *KafkaConfig) Validate() error {
	if len(c.Brokers) == 0 {
		return errors.New("at least one kafka broker is required")
	}
	if c.ConsumerGroupID == "" {
		return errors.New("kafka consumer_group_id is required")
	}
	return nil
}

func (c *OutboxConfig) Validate() error {
	if c.BatchSize <= 0 {
		return errors.New("outbox batch_size must be positive")
	}
	if c.MaxRetryCount <= 0 {
		return errors.New("outbox max_retry_count must be positive")
	}
	if c.DispatchInterval <= 0 || c.RetryInterval <= 0 {
		return errors.New("outbox intervals must be positive")
	}
	return nil
}
