package openai

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/gym-slots/internal/llm"
)

// Config for an OpenAI-compatible chat/completions client (DeepSeek by default).
type Config struct {
	APIKey        string        // if empty, falls back to env DEEPSEEK_API_KEY
	BaseURL       string        // default https://api.deepseek.com/v1
	Model         string        // default "deepseek-chat"
	Temperature   float32       // default 0.3
	MaxTokens     int           // default 2000
	MaxInputChars int           // document text budget in runes, default 8000
	Timeout       time.Duration // http client timeout
	Sports        []string      // canonical sport names listed in the prompt
}

type Client struct {
	cfg    Config
	http   *http.Client
	schema *jsonschema.Schema
	now    func() time.Time
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("DEEPSEEK_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.deepseek.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "deepseek-chat"
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = 0.3
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 2000
	}
	if cfg.MaxInputChars <= 0 {
		cfg.MaxInputChars = 8000
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	schema, err := llm.CompileSchema(llm.BuildScheduleJSONSchema())
	if err != nil {
		// the schema is static; failing here is a programming error
		panic(err)
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		schema: schema,
		now:    time.Now,
		logger: logger,
	}
}
