package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	JWT          JWTConfig
	CORS         CORSConfig
	Redis        RedisConfig
	RabbitMQ     RabbitMQConfig
	S3           S3Config
	Notification NotificationConfig
	Inventory    InventoryConfig
	Scheduler    SchedulerConfig
}

type ServerConfig struct {
	Port            string
	GinMode         string
	Environment     string
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxIdle  int
	MaxOpen  int
}

type JWTConfig struct {
	Secret             string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

// RedisConfig is optional; an empty Host disables Redis-backed features.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

func (c RedisConfig) Enabled() bool {
	return c.Host != ""
}

// RabbitMQConfig is optional; an empty Host disables the broker event sink.
type RabbitMQConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Exchange string
}

func (c RabbitMQConfig) Enabled() bool {
	return c.Host != ""
}

func (c RabbitMQConfig) URL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d/", c.User, c.Password, c.Host, c.Port)
}

type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	BaseURL         string // CloudFront or S3 direct URL
}

func (c S3Config) Enabled() bool {
	return c.Bucket != ""
}

type NotificationConfig struct {
	QueueSize    int
	Policy       string // drop, block
	BlockTimeout time.Duration
	RedisChannel string
}

type InventoryConfig struct {
	// Used when an ingredient has no min_quantity of its own.
	DefaultLowStockThreshold float64
}

type SchedulerConfig struct {
	IngredientSweepSpec string
	CartSweepSpec       string
	CartAbandonAfter    time.Duration

	NotificationPurgeSpec string
	NotificationRetention time.Duration
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			GinMode:         getEnv("GIN_MODE", "debug"),
			Environment:     getEnv("ENVIRONMENT", "development"),
			ShutdownTimeout: parseDuration(getEnv("SERVER_SHUTDOWN_TIMEOUT", "10s"), 10*time.Second),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "pos"),
			Password: getEnv("DB_PASSWORD", "pos"),
			DBName:   getEnv("DB_NAME", "restaurant_pos"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxIdle:  parseInt(getEnv("DB_MAX_IDLE_CONNS", "10"), 10),
			MaxOpen:  parseInt(getEnv("DB_MAX_OPEN_CONNS", "50"), 50),
		},
		JWT: JWTConfig{
			Secret:             getEnv("JWT_SECRET", "change-me"),
			AccessTokenExpiry:  parseDuration(getEnv("JWT_ACCESS_TOKEN_EXPIRY", "15m"), 15*time.Minute),
			RefreshTokenExpiry: parseDuration(getEnv("JWT_REFRESH_TOKEN_EXPIRY", "168h"), 168*time.Hour),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", ""),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       parseInt(getEnv("REDIS_DB", "0"), 0),
		},
		RabbitMQ: RabbitMQConfig{
			Host:     getEnv("RABBITMQ_HOST", ""),
			Port:     parseInt(getEnv("RABBITMQ_PORT", "5672"), 5672),
			User:     getEnv("RABBITMQ_USER", "guest"),
			Password: getEnv("RABBITMQ_PASSWORD", "guest"),
			Exchange: getEnv("RABBITMQ_EXCHANGE", "pos_events"),
		},
		S3: S3Config{
			Region:          getEnv("AWS_REGION", "ap-southeast-1"),
			Bucket:          getEnv("AWS_S3_BUCKET", ""),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			BaseURL:         getEnv("AWS_S3_BASE_URL", ""),
		},
		Notification: NotificationConfig{
			QueueSize:    parseInt(getEnv("NOTIFY_QUEUE_SIZE", "256"), 256),
			Policy:       getEnv("NOTIFY_POLICY", "drop"),
			BlockTimeout: parseDuration(getEnv("NOTIFY_BLOCK_TIMEOUT", "200ms"), 200*time.Millisecond),
			RedisChannel: getEnv("NOTIFY_REDIS_CHANNEL", "pos:events"),
		},
		Inventory: InventoryConfig{
			DefaultLowStockThreshold: parseFloat(getEnv("INVENTORY_LOW_STOCK_THRESHOLD", "5"), 5),
		},
		Scheduler: SchedulerConfig{
			IngredientSweepSpec: getEnv("SCHEDULER_INGREDIENT_SWEEP", "@every 30m"),
			CartSweepSpec:       getEnv("SCHEDULER_CART_SWEEP", "@hourly"),
			CartAbandonAfter:    parseDuration(getEnv("CART_ABANDON_AFTER", "24h"), 24*time.Hour),

			NotificationPurgeSpec: getEnv("SCHEDULER_NOTIFICATION_PURGE", "@daily"),
			NotificationRetention: parseDuration(getEnv("NOTIFICATION_RETENTION", "720h"), 720*time.Hour),
		},
	}

	return config, nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	duration, err := time.ParseDuration(s)
	if err != nil {
		log.Printf("Invalid duration %s, using default %s", s, fallback)
		return fallback
	}
	return duration
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Printf("Invalid integer %s, using default %d", s, fallback)
		return fallback
	}
	return n
}

func parseFloat(s string, fallback float64) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		log.Printf("Invalid number %s, using default %v", s, fallback)
		return fallback
	}
	return f
}

func parseSlice(s string) []string {
	if s == "" {
		return []string{}
	}
	var result []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
