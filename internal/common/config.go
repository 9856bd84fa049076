package common

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/joseph-ayodele/gym-slots/constants"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Fetch    FetchConfig
	Extract  ExtractConfig
	LLM      LLMConfig
	Pipeline PipelineConfig
	Queue    QueueConfig
	Redis    RedisConfig
	Cache    CacheConfig
	AMQP     AMQPConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Driver           string // "postgres" or "sqlite"
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
	AutoMigrate      bool
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr string
	GRPCAddr string
}

// FetchConfig controls document downloads.
type FetchConfig struct {
	Timeout  time.Duration
	MaxBytes int64
}

// ExtractConfig holds text extraction tool configuration
type ExtractConfig struct {
	Pdftotext     string
	Pdfinfo       string
	Pdftoppm      string
	Tesseract     string
	TesseractLang string
	EnableOCR     bool
	TempDir       string
}

// LLMConfig holds completion service configuration
type LLMConfig struct {
	BaseURL       string
	Model         string
	APIKey        string
	Temperature   float32
	MaxTokens     int
	MaxInputChars int
	Timeout       time.Duration
}

// PipelineConfig selects slot extraction behavior
type PipelineConfig struct {
	SlotExtractor     string // "ai" or "heuristic"
	HeuristicFallback bool
	ParserVersion     string
}

// QueueConfig sizes the background ingestion worker pool
type QueueConfig struct {
	Workers        int
	Size           int
	ProcessTimeout time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// CacheConfig controls the read-endpoint response cache.
type CacheConfig struct {
	Enabled      bool
	TTL          time.Duration
	Prefix       string
	MaxBodyBytes int
}

type AMQPConfig struct {
	URL   string // empty disables event publishing
	Queue string
}

// LoadConfig loads configuration from a .env file (if present) and environment variables
func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		Database: DatabaseConfig{
			Driver:           getEnv("DB_DRIVER", "postgres"),
			DSN:              getEnv("DB_URL", ""),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 2),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
			AutoMigrate:      getEnvAsBool("DB_AUTO_MIGRATE", true),
		},
		Server: ServerConfig{
			HTTPAddr: getEnv("HTTP_ADDR", ":3000"),
			GRPCAddr: getEnv("GRPC_ADDR", ":8080"),
		},
		Fetch: FetchConfig{
			Timeout:  getEnvAsDuration("FETCH_TIMEOUT", 30*time.Second),
			MaxBytes: int64(getEnvAsInt("FETCH_MAX_BYTES", 32<<20)),
		},
		Extract: ExtractConfig{
			Pdftotext:     getEnv("PDFTOTEXT_BIN", "pdftotext"),
			Pdfinfo:       getEnv("PDFINFO_BIN", "pdfinfo"),
			Pdftoppm:      getEnv("PDFTOPPM_BIN", "pdftoppm"),
			Tesseract:     getEnv("TESSERACT_BIN", "tesseract"),
			TesseractLang: getEnv("TESSERACT_LANG", "jpn"),
			EnableOCR:     getEnvAsBool("ENABLE_OCR", false),
			TempDir:       getEnv("EXTRACT_TMP_DIR", ""),
		},
		LLM: LLMConfig{
			BaseURL:       getEnv("LLM_BASE_URL", "https://api.deepseek.com/v1"),
			Model:         getEnv("LLM_MODEL", "deepseek-chat"),
			APIKey:        getEnv("DEEPSEEK_API_KEY", ""),
			Temperature:   getEnvAsFloat32("LLM_TEMPERATURE", 0.3),
			MaxTokens:     getEnvAsInt("LLM_MAX_TOKENS", 2000),
			MaxInputChars: getEnvAsInt("LLM_MAX_INPUT_CHARS", 8000),
			Timeout:       getEnvAsDuration("LLM_TIMEOUT", 60*time.Second),
		},
		Pipeline: PipelineConfig{
			SlotExtractor:     strings.ToLower(getEnv("SLOT_EXTRACTOR", "ai")),
			HeuristicFallback: getEnvAsBool("HEURISTIC_FALLBACK", false),
			ParserVersion:     getEnv("PARSER_VERSION", constants.ParserVersion),
		},
		Queue: QueueConfig{
			Workers:        getEnvAsInt("QUEUE_WORKERS", 2),
			Size:           getEnvAsInt("QUEUE_SIZE", 64),
			ProcessTimeout: getEnvAsDuration("QUEUE_PROCESS_TIMEOUT", 3*time.Minute),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Cache: CacheConfig{
			Enabled:      getEnvAsBool("CACHE_ENABLED", true),
			TTL:          getEnvAsDuration("CACHE_TTL", 30*time.Second),
			Prefix:       getEnv("CACHE_PREFIX", "gymslots"),
			MaxBodyBytes: getEnvAsInt("CACHE_MAX_BODY_BYTES", 1<<20),
		},
		AMQP: AMQPConfig{
			URL:   getEnv("AMQP_URL", ""),
			Queue: getEnv("AMQP_QUEUE", "slots.ingested"),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration. A missing completion API key
// is not a startup error; it surfaces as a configuration error per ingestion.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return NewAppError(CodeConfig, "DB_DRIVER must be postgres or sqlite", ErrInvalidInput)
	}
	if c.Database.DSN == "" {
		return NewAppError(CodeConfig, "DB_URL is required", ErrInvalidInput)
	}
	if c.Server.HTTPAddr == "" && c.Server.GRPCAddr == "" {
		return NewAppError(CodeConfig, "HTTP_ADDR or GRPC_ADDR is required", ErrInvalidInput)
	}
	switch c.Pipeline.SlotExtractor {
	case "ai", "heuristic":
	default:
		return NewAppError(CodeConfig, "SLOT_EXTRACTOR must be ai or heuristic", ErrInvalidInput)
	}
	return nil
}
