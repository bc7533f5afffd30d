package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	DBHost         string `envconfig:"DB_HOST" required:"true"`
	DBUser         string `envconfig:"DB_USER"`
	DBPassword     string `envconfig:"DB_PASSWORD"`
	DBName         string `envconfig:"DB_NAME"`
	DBPort         string `envconfig:"DB_PORT" default:"5432"`
	DBSSLMode      string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxOpenConns int    `envconfig:"DB_MAX_OPEN_CONNS" default:"10"`

	AppPort   string `envconfig:"APP_PORT" default:"8080"`
	AppEnv    string `envconfig:"APP_ENV" default:"development"`
	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`

	// OrderTxTimeout bounds a single checkout transaction, lock waits included.
	OrderTxTimeout time.Duration `envconfig:"ORDER_TX_TIMEOUT" default:"5s"`

	KafkaBrokers    []string `envconfig:"KAFKA_BROKERS"`
	KafkaOrderTopic string   `envconfig:"KAFKA_ORDER_TOPIC" default:"order-events"`
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func LoadConfig() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("Environment variables not loaded properly: %v", err)
	}
	return cfg
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}
