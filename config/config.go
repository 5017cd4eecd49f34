package config

import (
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	// ServerURL is the backend origin. The live channel derives its
	// ws(s) URL from this origin's scheme.
	ServerURL string

	// APIBase is the request path prefix, joined to ServerURL unless it
	// is itself an absolute URL.
	APIBase string

	// InitData is the Telegram launch assertion for this session.
	// Empty means the client operates anonymously.
	InitData string
}

func LoadConfig() Config {
	if os.Getenv("ENV") == "dev" {
		godotenv.Load()
	}

	return Config{
		ServerURL: getEnv("SERVER_URL", "http://localhost:8000"),
		APIBase:   getEnv("API_BASE", "/api"),
		InitData:  getEnv("TG_INIT_DATA", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
