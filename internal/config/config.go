package config

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config carries everything the binaries read from the environment.
type Config struct {
	HTTPPort string

	KafkaBrokers []string
	FeedTopic    string
	FeedGroupID  string
	AuditTopic   string

	RemoteBaseURL  string
	AuthServiceURL string
	AuthAPIKey     string

	TickInterval time.Duration
}

// Load reads the environment, trying a .env file in the working directory or
// its parents first.
func Load() Config {
	loadEnv()

	return Config{
		HTTPPort:       getenv("HTTP_PORT", "9000"),
		KafkaBrokers:   strings.Split(getenv("KAFKA_BROKERS", "localhost:9092"), ","),
		FeedTopic:      getenv("FEED_TOPIC", "order_feed"),
		FeedGroupID:    getenv("FEED_GROUP_ID", "orderdesk"),
		AuditTopic:     getenv("AUDIT_TOPIC", "audit_logs"),
		RemoteBaseURL:  getenv("REMOTE_ORDER_URL", "http://localhost:8080"),
		AuthServiceURL: getenv("AUTH_SERVICE_URL", ""),
		AuthAPIKey:     getenv("AUTH_API_KEY", ""),
		TickInterval:   durationEnv("TICK_INTERVAL", time.Second),
	}
}

func loadEnv() {
	wd, err := os.Getwd()
	if err != nil {
		log.Fatal("Error getting working directory:", err)
	}

	possiblePaths := []string{
		filepath.Join(wd, ".env"),
		filepath.Join(wd, "..", ".env"),
		filepath.Join(wd, "..", "..", ".env"),
	}

	for _, envPath := range possiblePaths {
		if err := godotenv.Load(envPath); err == nil {
			log.Printf("Loaded environment variables from %s", envPath)
			return
		}
	}

	log.Println("No .env file found, relying on process environment")
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("Invalid %s=%q, using default %s", key, v, fallback)
		return fallback
	}
	return d
}
