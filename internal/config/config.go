package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// JWT
	JWTSecret string

	// Gemini AI
	GoogleAPIKey         string
	GoogleDefaultModel   string
	GeminiRequestsPerMin int
	GeminiConcurrentReqs int

	// Weekly quiz generation
	QuizPerContent int
	WorkerCount    int

	// YouTube search
	YouTubeAPIKey     string
	VideoCacheTTL     int // seconds
	VideoCacheMaxRows int

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:                 getEnvOrDefault("PORT", "8080"),
		Env:                  getEnvOrDefault("ENV", "development"),
		DatabaseURL:          mustGetEnv("DATABASE_URL"),
		RedisURL:             mustGetEnv("REDIS_URL"),
		JWTSecret:            mustGetEnv("JWT_SECRET"),
		GoogleAPIKey:         getEnvOrDefault("GOOGLE_API_KEY", ""),
		GoogleDefaultModel:   getEnvOrDefault("GOOGLE_DEFAULT_MODEL", "gemini-1.5-flash"),
		GeminiRequestsPerMin: getEnvAsIntOrDefault("GEMINI_REQUESTS_PER_MINUTE", 60),
		GeminiConcurrentReqs: getEnvAsIntOrDefault("GEMINI_CONCURRENT_REQUESTS", 5),
		QuizPerContent:       getEnvAsIntOrDefault("QUIZ_PER_CONTENT", 5),
		WorkerCount:          getEnvAsIntOrDefault("WORKER_COUNT", 5),
		YouTubeAPIKey:        getEnvOrDefault("YT_API_KEY", ""),
		VideoCacheTTL:        getEnvAsIntOrDefault("YT_CACHE_TTL", 600),
		VideoCacheMaxRows:    getEnvAsIntOrDefault("YT_CACHE_MAX_ROWS", 2000),
		FrontendURL:          getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
	}

	return cfg
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}
