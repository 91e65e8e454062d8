package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/yukikurage/household-api/internal/constants"
)

type Config struct {
	Port    string
	GinMode string

	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string

	RedisHost       string
	RedisPort       string
	RedisPassword   string
	RealtimeBackend string

	JWTAccessSecret  string
	JWTRefreshSecret string
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration

	OpenAIAPIKey  string
	OpenAIBaseURL string

	PostmarkToken   string
	PostmarkFrom    string
	PostmarkBaseURL string

	VAPIDPublicKey  string
	VAPIDPrivateKey string
	VAPIDSubject    string

	LogLevel  string
	LogFormat string

	JobsEnabled       bool
	CronNotifications string
	CronChoreRotation string
	CronReminders     string
	RateLimitRPS      float64
	RateLimitBurst    int
	CORSOrigin        string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:    getEnv("PORT", "8080"),
		GinMode: getEnv("GIN_MODE", "debug"),

		DBDriver:   getEnv("DB_DRIVER", "postgres"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "household"),
		DBPassword: getEnv("DB_PASSWORD", "household"),
		DBName:     getEnv("DB_NAME", "household"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
		SQLitePath: getEnv("SQLITE_PATH", "household.db"),

		RedisHost:       getEnv("REDIS_HOST", "localhost"),
		RedisPort:       getEnv("REDIS_PORT", "6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RealtimeBackend: getEnv("REALTIME_BACKEND", "memory"),

		JWTAccessSecret:  getEnv("JWT_ACCESS_SECRET", "default-access-secret-change-me"),
		JWTRefreshSecret: getEnv("JWT_REFRESH_SECRET", "default-refresh-secret-change-me"),
		AccessTokenTTL:   getDuration("JWT_ACCESS_TTL", constants.DefaultAccessTokenTTL),
		RefreshTokenTTL:  getDuration("JWT_REFRESH_TTL", constants.DefaultRefreshTokenTTL),

		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),

		PostmarkToken:   getEnv("POSTMARK_TOKEN", ""),
		PostmarkFrom:    getEnv("POSTMARK_FROM", "noreply@household.local"),
		PostmarkBaseURL: getEnv("POSTMARK_BASE_URL", "https://api.postmarkapp.com"),

		VAPIDPublicKey:  getEnv("VAPID_PUBLIC_KEY", ""),
		VAPIDPrivateKey: getEnv("VAPID_PRIVATE_KEY", ""),
		VAPIDSubject:    getEnv("VAPID_SUBJECT", "mailto:admin@household.local"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		JobsEnabled:       getBool("JOBS_ENABLED", true),
		CronNotifications: getEnv("CRON_NOTIFICATIONS", "@every 1m"),
		CronChoreRotation: getEnv("CRON_CHORE_ROTATION", "0 0 * * *"),
		CronReminders:     getEnv("CRON_REMINDERS", "0 * * * *"),
		RateLimitRPS:      getFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst:    getInt("RATE_LIMIT_BURST", 10),
		CORSOrigin:        getEnv("CORS_ORIGIN", "http://localhost:3000"),
	}
}

// IsProduction reports whether gin runs in release mode.
func (c *Config) IsProduction() bool {
	return c.GinMode == "release"
}

// RedisAddr returns host:port of the redis server.
func (c *Config) RedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

func getBool(key string, defaultValue bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return b
}

func getInt(key string, defaultValue int) int {
	i, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return i
}

func getFloat(key string, defaultValue float64) float64 {
	f, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return defaultValue
	}
	return f
}
