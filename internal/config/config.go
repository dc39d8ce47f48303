package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	GeminiAPIKey    string
	DatabaseURL     string
	HTTPPort        string
	LogLevel        string
	JWTSecret       string
	TokenTTL        time.Duration
	Environment     string
	MaxUploadBytes  int64
	PointsPerAnswer int
}

var AppConfig Config

func LoadConfig() {
	err := godotenv.Load() // Load .env file if it exists
	if err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	AppConfig = Config{
		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		DatabaseURL:     getEnv("DATABASE_URL", "edubot.db"),
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		JWTSecret:       getEnv("JWT_SECRET", ""),
		TokenTTL:        time.Duration(getEnvAsInt("TOKEN_TTL_HOURS", 24)) * time.Hour,
		Environment:     getEnv("ENVIRONMENT", "development"),
		MaxUploadBytes:  int64(getEnvAsInt("MAX_UPLOAD_BYTES", 5<<20)),
		PointsPerAnswer: getEnvAsInt("POINTS_PER_CORRECT_ANSWER", 10),
	}

	if AppConfig.GeminiAPIKey == "" {
		log.Fatal("GEMINI_API_KEY environment variable is required")
	}

	if AppConfig.JWTSecret == "" {
		log.Fatal("JWT_SECRET environment variable is required")
	}
}

// IsProduction reports whether upstream error detail must be withheld from
// API responses.
func IsProduction() bool {
	return AppConfig.Environment == "production"
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}
