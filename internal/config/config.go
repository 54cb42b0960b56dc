package config

import (
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DatabaseURL string
	JWTSecret   string
	SeedWords   bool
}

// FromEnv loads configuration from the environment, reading an
// optional .env file first. Existing variables are not overwritten.
func FromEnv() Config {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load(".env")
	}
	c := Config{}
	c.Port = getenv("PORT", "8080")
	c.DatabaseURL = os.Getenv("DATABASE_URL")
	c.JWTSecret = getenv("JWT_SECRET", "secret")
	c.SeedWords = getenv("SEED_WORDS", "true") == "true"
	return c
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
