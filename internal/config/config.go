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
	Embedding EmbeddingConfig
	LLM       LLMConfig
	Pipeline  PipelineConfig
	Ingest    IngestConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	OtlpEndpoint       string
}

type DatabaseConfig struct {
	Connection string
}

type EmbeddingConfig struct {
	Provider      string // "cohere" or "ollama"
	Dimension     int
	CohereAPIKey  string
	CohereBaseURL string
	CohereModel   string
	OllamaBaseURL string
	OllamaModel   string
}

type LLMConfig struct {
	Provider string // "openai" or "ollama"
	Model    string
	APIKey   string
	BaseURL  string
}

type PipelineConfig struct {
	DefaultTopK         int
	ContextCharBudget   int
	OverlapThreshold    float64
	MaxUnsupportedRatio float64
	EmbedTimeout        time.Duration
	SearchTimeout       time.Duration
	GenerateTimeout     time.Duration
	OverallTimeout      time.Duration
	AnswerCacheTTL      time.Duration
}

type IngestConfig struct {
	ChunkSize    int
	ChunkOverlap int
	JobTopic     string
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
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log.csv"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			OtlpEndpoint:       getEnv("OTLP_ENDPOINT", ""),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Embedding: EmbeddingConfig{
			Provider:      getEnv("EMBEDDING_PROVIDER", "cohere"),
			Dimension:     getEnvAsInt("EMBEDDING_DIMENSION", 1024),
			CohereAPIKey:  getEnv("COHERE_API_KEY", ""),
			CohereBaseURL: getEnv("COHERE_BASE_URL", "https://api.cohere.ai"),
			CohereModel:   getEnv("COHERE_EMBEDDING_MODEL", "embed-english-v3.0"),
			OllamaBaseURL: getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:   getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
		},
		LLM: LLMConfig{
			Provider: getEnv("LLM_PROVIDER", "openai"),
			Model:    getEnv("LLM_MODEL", "gpt-4o-mini"),
			APIKey:   getEnv("LLM_API_KEY", ""),
			BaseURL:  getEnv("LLM_BASE_URL", "https://api.openai.com/v1"),
		},
		Pipeline: PipelineConfig{
			DefaultTopK:         getEnvAsInt("PIPELINE_DEFAULT_TOP_K", 5),
			ContextCharBudget:   getEnvAsInt("PIPELINE_CONTEXT_CHAR_BUDGET", 8000),
			OverlapThreshold:    getEnvAsFloat("GROUNDING_OVERLAP_THRESHOLD", 0.4),
			MaxUnsupportedRatio: getEnvAsFloat("GROUNDING_MAX_UNSUPPORTED_RATIO", 0.0),
			EmbedTimeout:        getEnvAsDuration("PIPELINE_EMBED_TIMEOUT", 2*time.Second),
			SearchTimeout:       getEnvAsDuration("PIPELINE_SEARCH_TIMEOUT", 1*time.Second),
			GenerateTimeout:     getEnvAsDuration("PIPELINE_GENERATE_TIMEOUT", 15*time.Second),
			OverallTimeout:      getEnvAsDuration("PIPELINE_OVERALL_TIMEOUT", 30*time.Second),
			AnswerCacheTTL:      getEnvAsDuration("ANSWER_CACHE_TTL", 5*time.Minute),
		},
		Ingest: IngestConfig{
			ChunkSize:    getEnvAsInt("INGEST_CHUNK_SIZE", 1200),
			ChunkOverlap: getEnvAsInt("INGEST_CHUNK_OVERLAP", 200),
			JobTopic:     getEnv("INGEST_JOB_TOPIC", "EMBED_DOCUMENT_CHUNKS"),
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

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
