package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Ai       AIConfig
	Search   SearchConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type AIConfig struct {
	EmbeddingProvider string // "gemini" or "ollama"
	OllamaBaseURL     string
	OllamaModel       string
	LLMProvider       string // "ollama", etc
	LLMModel          string // e.g. "llama3", "qwen2.5"
	GeminiAPIKey      string
	// Per-call deadlines. External calls carry no cancellation of their
	// own, so every oracle/generation/embedding call is bounded here.
	LLMTimeoutSeconds     int
	EmbedTimeoutSeconds   int
	StorageTimeoutSeconds int
}

type SearchConfig struct {
	SchemaVariants int // hypothetical schemas generated per task
	InitialTopK    int // result cap for the first (unrestricted) search
	RefineTopK     int // result cap for refinement turns
	EmbedTopicName string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Ai: AIConfig{
			EmbeddingProvider:     getEnv("EMBEDDING_PROVIDER", "ollama"),
			OllamaBaseURL:         getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:           getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			LLMProvider:           getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:              getEnv("LLM_MODEL", "llama3"),
			GeminiAPIKey:          getEnv("GOOGLE_GEMINI_API_KEY", ""),
			LLMTimeoutSeconds:     getEnvAsInt("LLM_TIMEOUT_SECONDS", 60),
			EmbedTimeoutSeconds:   getEnvAsInt("EMBED_TIMEOUT_SECONDS", 30),
			StorageTimeoutSeconds: getEnvAsInt("STORAGE_TIMEOUT_SECONDS", 15),
		},
		Search: SearchConfig{
			SchemaVariants: getEnvAsInt("HYSE_SCHEMA_VARIANTS", 2),
			InitialTopK:    getEnvAsInt("SEARCH_INITIAL_TOP_K", 50),
			RefineTopK:     getEnvAsInt("SEARCH_REFINE_TOP_K", 50),
			EmbedTopicName: getEnv("EMBED_DATASET_TOPIC_NAME", "EMBED_DATASET_METADATA"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}
