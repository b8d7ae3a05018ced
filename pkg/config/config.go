package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all agent configuration.
type Config struct {
	// ServerURL is the websocket endpoint of the café backend.
	ServerURL string
	// HTTPPort is the local port the renderer control API listens on.
	HTTPPort string
	// SessionFile is where the session snapshot is persisted between
	// renderer reloads.
	SessionFile string
	// ConnectAttempts and ConnectDelay bound the automatic dial retry.
	ConnectAttempts int
	ConnectDelay    time.Duration
	// NotificationAutoClose is how long a top-up toast stays up before it
	// dismisses itself.
	NotificationAutoClose time.Duration
}

// LoadConfig loads configuration from environment variables, with an
// optional .env file.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		ServerURL:             getEnv("CAFE_SERVER_URL", "ws://localhost:4000/ws"),
		HTTPPort:              getEnv("HTTP_PORT", "8080"),
		SessionFile:           getEnv("SESSION_FILE", defaultSessionFile()),
		ConnectAttempts:       getEnvInt("CONNECT_ATTEMPTS", 5),
		ConnectDelay:          getEnvDuration("CONNECT_DELAY", 2*time.Second),
		NotificationAutoClose: getEnvDuration("NOTIFICATION_AUTO_CLOSE", 5*time.Second),
	}
}

func defaultSessionFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return dir + string(os.PathSeparator) + "cyber2025.session.json"
}

// getEnv gets an environment variable with a fallback.
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Warning: invalid value for %s: %v", key, err)
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Warning: invalid value for %s: %v", key, err)
		return fallback
	}
	return d
}
