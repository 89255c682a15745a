package config

import (
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Story backends selectable through STORY_BACKEND
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
)

type Config struct {
	Port                    string
	Env                     string
	JWTSecret               string
	FirebaseCredentialsPath string
	SentryDSN               string

	PostgresURL   string
	MongoURI      string
	MongoDatabase string
	RedisURL      string
	StoryBackend  string

	StoryTTL      time.Duration
	SweepInterval time.Duration
	TickInterval  time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	return &Config{
		Port:                    getEnv("PORT", "8080"),
		Env:                     getEnv("ENV", "development"),
		JWTSecret:               getEnv("JWT_SECRET", "supersecretjwtkey"),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		SentryDSN:               getEnv("SENTRY_DSN", ""),

		PostgresURL:   getEnv("POSTGRES_CONN_STR", ""),
		MongoURI:      getEnv("MONGO_URI", ""),
		MongoDatabase: getEnv("MONGO_DATABASE", "socialmedia"),
		RedisURL:      getEnv("REDIS_URL", ""),
		StoryBackend:  getEnv("STORY_BACKEND", BackendPostgres),

		StoryTTL:      getDuration("STORY_TTL", 24*time.Hour),
		SweepInterval: getDuration("SWEEP_INTERVAL", time.Minute),
		TickInterval:  getDuration("TICK_INTERVAL", 50*time.Millisecond),
	}
}

// IsDevelopment reports whether the service runs with development defaults
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		slog.Warn("invalid duration, using default", "key", key, "value", value, "default", defaultValue)
		return defaultValue
	}
	return d
}
