package utils

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds all configuration for the application
type Config struct {
	App       AppConfig
	Reddit    RedditConfig
	Server    ServerConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
}

// AppConfig holds application-level configuration
type AppConfig struct {
	Name    string
	Version string
}

// RedditConfig holds Reddit API configuration
type RedditConfig struct {
	ClientID     string
	ClientSecret string
	UserAgent    string
	RedirectURI  string
	// FetchWindow is the number of most-recent posts analyzed per request
	FetchWindow int
	// MaxRequestsPerMinute paces our own calls against Reddit's allocation
	MaxRequestsPerMinute int
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	AllowedOrigins []string
}

// CacheConfig holds result cache configuration
type CacheConfig struct {
	TTL time.Duration
}

// RateLimitConfig holds per-client request ceilings
type RateLimitConfig struct {
	SearchPerMinute   int
	AnalysisPerMinute int
	GlobalPerHour     int
}

// LoadConfig loads configuration from a .env file plus the process environment
func LoadConfig(envPath string, log *logrus.Logger) (*Config, error) {
	if envPath == "" {
		envPath = ".env"
	}

	// a missing .env file is fine when the environment is already populated
	if err := godotenv.Load(envPath); err != nil {
		log.WithField("file", envPath).Debug("No .env file loaded, using process environment")
	}

	config := &Config{
		App: AppConfig{
			Name:    getEnv("APP_NAME", "Redd Into It"),
			Version: getEnv("APP_VERSION", "1.0.0"),
		},
		Reddit: RedditConfig{
			ClientID:             getEnv("REDDIT_CLIENT_ID", ""),
			ClientSecret:         getEnv("REDDIT_CLIENT_SECRET", ""),
			UserAgent:            getEnv("REDDIT_USER_AGENT", ""),
			RedirectURI:          getEnv("REDDIT_REDIRECT_URI", ""),
			FetchWindow:          getEnvAsInt("REDDIT_FETCH_WINDOW", 1000),
			MaxRequestsPerMinute: getEnvAsInt("REDDIT_MAX_REQUESTS_PER_MINUTE", 100),
		},
		Server: ServerConfig{
			Port:           getEnvAsInt("PORT", 5000),
			AllowedOrigins: parseOrigins(getEnv("ALLOWED_ORIGINS", "https://redd-into-it.vercel.app,http://localhost:3000")),
		},
		Cache: CacheConfig{
			TTL: getEnvAsDuration("CACHE_TTL", 5*time.Minute),
		},
		RateLimit: RateLimitConfig{
			SearchPerMinute:   getEnvAsInt("RATE_LIMIT_SEARCH_PER_MINUTE", 10),
			AnalysisPerMinute: getEnvAsInt("RATE_LIMIT_ANALYSIS_PER_MINUTE", 10),
			GlobalPerHour:     getEnvAsInt("RATE_LIMIT_GLOBAL_PER_HOUR", 50),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	log.WithField("file", envPath).Info("Config loaded successfully")
	return config, nil
}

// parseOrigins parses a comma-separated list of allowed CORS origins
func parseOrigins(originsStr string) []string {
	parts := strings.Split(originsStr, ",")

	origins := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			origins = append(origins, trimmed)
		}
	}

	return origins
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt gets an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsDuration gets an environment variable as a duration ("5m", "30s")
// or returns a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	// Reddit API credentials are required; User-Agent has strict format
	// requirements per the API documentation
	if config.Reddit.ClientID == "" {
		return fmt.Errorf("REDDIT_CLIENT_ID environment variable is required")
	}
	if config.Reddit.ClientSecret == "" {
		return fmt.Errorf("REDDIT_CLIENT_SECRET environment variable is required")
	}
	if config.Reddit.UserAgent == "" {
		return fmt.Errorf("REDDIT_USER_AGENT environment variable is required")
	}
	if config.Reddit.FetchWindow < 1 {
		return fmt.Errorf("REDDIT_FETCH_WINDOW must be positive")
	}
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("PORT must be a valid port number")
	}
	if config.Cache.TTL < time.Second {
		return fmt.Errorf("CACHE_TTL must be at least one second")
	}
	if len(config.Server.AllowedOrigins) == 0 {
		return fmt.Errorf("ALLOWED_ORIGINS environment variable is required")
	}

	return nil
}
