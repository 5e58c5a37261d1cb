package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	SMTP       SMTPConfig
	Courier    CourierConfig
	Payment    PaymentConfig
	Resolution ResolutionConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
}

type CourierConfig struct {
	BaseURL       string
	APIKey        string
	WebhookSecret string
}

type PaymentConfig struct {
	MidtransServerKey    string
	MidtransIsProduction bool
}

type ResolutionConfig struct {
	ExternalCallTimeout time.Duration
	PickupRetryMax      int
	PickupRetryBase     time.Duration
	ReconcileInterval   time.Duration
	ReconcileTopic      string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			ClientURL:          getEnv("CLIENT_URL", "http://localhost:5173"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			Email:      getEnv("SMTP_EMAIL", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "ShopNest"),
		},
		Courier: CourierConfig{
			BaseURL:       getEnv("COURIER_BASE_URL", "https://api.courierhub.example.com/v1"),
			APIKey:        getEnv("COURIER_API_KEY", ""),
			WebhookSecret: getEnv("COURIER_WEBHOOK_SECRET", ""),
		},
		Payment: PaymentConfig{
			MidtransServerKey:    getEnv("MIDTRANS_SERVER_KEY", ""),
			MidtransIsProduction: getEnv("MIDTRANS_IS_PRODUCTION", "false") == "true",
		},
		Resolution: ResolutionConfig{
			ExternalCallTimeout: getEnvAsDuration("RESOLUTION_EXTERNAL_TIMEOUT", 15*time.Second),
			PickupRetryMax:      getEnvAsInt("RESOLUTION_PICKUP_RETRY_MAX", 3),
			PickupRetryBase:     getEnvAsDuration("RESOLUTION_PICKUP_RETRY_BASE", 2*time.Second),
			ReconcileInterval:   getEnvAsDuration("RESOLUTION_RECONCILE_INTERVAL", 5*time.Minute),
			ReconcileTopic:      getEnv("RESOLUTION_RECONCILE_TOPIC", "REFUND_RECONCILE"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
