package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Keys      APIKeys
	Ai        AIConfig
	Vector    VectorConfig
	Chat      ChatConfig
	Session   SessionConfig
	Cache     CacheConfig
	Reconcile ReconcileConfig
	Otel      OtelConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	LogLevel           string
	PromptTraceLogPath string // empty disables the prompt trace
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	CleanupTopic       string
}

type DatabaseConfig struct {
	Connection string // empty selects the in-memory store
}

type APIKeys struct {
	GoogleGemini string
	HuggingFace  string
	Anthropic    string
}

type AIConfig struct {
	EmbeddingProvider string // "ollama", "gemini" or "hash"
	EmbeddingModel    string
	OllamaBaseURL     string
	LLMProvider       string // "ollama", "huggingface", "gemini", "anthropic"
	LLMModel          string
	LLMBaseURL        string
	MaxTokens         int
}

type VectorConfig struct {
	Driver     string // "pgvector" or "chromem"
	TopK       int
	Dimensions int
}

type ChatConfig struct {
	HistoryWindow int
	HistoryPage   int
	Timeout       time.Duration
}

type SessionConfig struct {
	CookieName string
	MaxAge     time.Duration
}

type CacheConfig struct {
	EmbeddingTTL time.Duration
}

type ReconcileConfig struct {
	Interval time.Duration
}

type OtelConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			LogLevel:           getEnv("LOG_LEVEL", "info"),
			PromptTraceLogPath: getEnv("PROMPT_TRACE_LOG_PATH", ""),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
			CleanupTopic:       getEnv("VECTOR_CLEANUP_TOPIC_NAME", "VECTOR_CLEANUP"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Keys: APIKeys{
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
			HuggingFace:  getEnv("HUGGINGFACE_API_KEY", ""),
			Anthropic:    getEnv("ANTHROPIC_API_KEY", ""),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "ollama"),
			EmbeddingModel:    getEnv("EMBEDDING_MODEL", "nomic-embed-text"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			LLMProvider:       getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:          getEnv("LLM_MODEL", "llama3"),
			LLMBaseURL:        getEnv("LLM_BASE_URL", ""),
			MaxTokens:         getEnvAsInt("LLM_MAX_TOKENS", 1024),
		},
		Vector: VectorConfig{
			Driver:     getEnv("VECTOR_DRIVER", "pgvector"),
			TopK:       getEnvAsInt("VECTOR_TOP_K", 3),
			Dimensions: getEnvAsInt("VECTOR_DIMENSIONS", 768),
		},
		Chat: ChatConfig{
			HistoryWindow: getEnvAsInt("CHAT_HISTORY_WINDOW", 5),
			HistoryPage:   getEnvAsInt("CHAT_HISTORY_PAGE", 50),
			Timeout:       getEnvAsDuration("CHAT_TIMEOUT", 60*time.Second),
		},
		Session: SessionConfig{
			CookieName: getEnv("SESSION_COOKIE_NAME", "session_id"),
			MaxAge:     getEnvAsDuration("SESSION_MAX_AGE", 7*24*time.Hour),
		},
		Cache: CacheConfig{
			EmbeddingTTL: getEnvAsDuration("EMBEDDING_CACHE_TTL", 24*time.Hour),
		},
		Reconcile: ReconcileConfig{
			Interval: getEnvAsDuration("RECONCILE_INTERVAL", 0),
		},
		Otel: OtelConfig{
			Enabled:     getEnvAsBool("OTEL_ENABLED", false),
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "rag-notes-backend"),
		},
	}
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
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

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go durations ("90s", "5m") or a bare number of seconds.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	if seconds, err := strconv.Atoi(strValue); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return fallback
}
