package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays Config values from environment variables. A .env file in
// the working directory is loaded first when present; real environment
// variables win over the file.
//
// Recognized variables:
//
//	ADDRESS            HTTP bind address (e.g. ":8080")
//	DATABASE_DSN       PostgreSQL DSN
//	JWT_SECRET         token signing secret
//	JWT_EXPIRES_IN     token validity as a Go duration (e.g. "1h")
//	APP_ENV            "development" or "production"
//	AUTH_RATE_LIMIT    register/login attempts per window
//	API_RATE_LIMIT     API requests per window
//	RATE_LIMIT_WINDOW  rate limit window as a Go duration (e.g. "15m")
func parseEnv(config *Config) {
	// Missing .env is fine; the environment itself may carry everything.
	_ = godotenv.Load()

	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	setDuration := func(key string, dst *time.Duration) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			if d, err := time.ParseDuration(v); err == nil {
				*dst = d
			}
		}
	}
	setInt := func(key string, dst *int) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	setString("ADDRESS", &config.Addr)
	setString("DATABASE_DSN", &config.DatabaseDSN)
	setString("JWT_SECRET", &config.SecretKey)
	setDuration("JWT_EXPIRES_IN", &config.TokenValidityDuration)
	setString("APP_ENV", &config.Environment)
	setInt("AUTH_RATE_LIMIT", &config.AuthRateLimit)
	setInt("API_RATE_LIMIT", &config.APIRateLimit)
	setDuration("RATE_LIMIT_WINDOW", &config.RateLimitWindow)
}
