package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTPAddr string `yaml:"http_addr"`

	// transcript persistence: "db" (gorm) or "file" (json)
	TranscriptBackend string `yaml:"transcript_backend"`
	TranscriptFile    string `yaml:"transcript_file"`
	DBDSN             string `yaml:"db_dsn"`

	UploadDir   string `yaml:"upload_dir"`
	CatalogFile string `yaml:"catalog_file"`
	DocMaxChars int    `yaml:"doc_max_chars"`

	// "catalog" (csv search) or "engine" (scored table)
	RecommendMode string `yaml:"recommend_mode"`

	JWTSecret string `yaml:"jwt_secret"`

	// AI provider
	AIProvider        string        `yaml:"ai_provider"`
	OllamaBaseURL     string        `yaml:"ollama_base_url"`
	TextModel         string        `yaml:"text_model"`
	VisionModel       string        `yaml:"vision_model"`
	OpenRouterBaseURL string        `yaml:"openrouter_base_url"`
	OpenRouterAPIKey  string        `yaml:"openrouter_api_key"`
	OpenRouterSiteURL string        `yaml:"openrouter_site_url"`
	OpenRouterAppName string        `yaml:"openrouter_app_name"`
	InferenceAttempts int           `yaml:"inference_attempts"`
	InferenceDelay    time.Duration `yaml:"inference_delay"`
	InferenceTimeout  time.Duration `yaml:"inference_timeout"`

	// web search
	SerperURL        string        `yaml:"serper_url"`
	SerperAPIKey     string        `yaml:"serper_api_key"`
	SearchAttempts   int           `yaml:"search_attempts"`
	SearchDelay      time.Duration `yaml:"search_delay"`
	SearchTimeout    time.Duration `yaml:"search_timeout"`
	SearchRatePerSec float64       `yaml:"search_rate_per_sec"`
	SearchCacheTTL   time.Duration `yaml:"search_cache_ttl"`

	// redis (search cache, optional)
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	// rabbitMQ (async turns, optional)
	RabbitURL         string `yaml:"rabbit_url"`
	RabbitQueue       string `yaml:"rabbit_queue"`
	WorkerConcurrency int    `yaml:"worker_concurrency"`
}

// Default returns the configuration used when neither a file nor env vars override it.
func Default() Config {
	return Config{
		HTTPAddr:          ":8000",
		TranscriptBackend: "file",
		TranscriptFile:    "data/chat_history.json",
		UploadDir:         "uploads",
		CatalogFile:       "llm_data.csv",
		DocMaxChars:       5000,
		RecommendMode:     "catalog",

		AIProvider:        "ollama",
		OllamaBaseURL:     "http://localhost:11434",
		TextModel:         "phi3",
		VisionModel:       "llava",
		OpenRouterBaseURL: "https://openrouter.ai/api/v1",
		InferenceAttempts: 2,
		InferenceDelay:    3 * time.Second,
		InferenceTimeout:  180 * time.Second,

		SerperURL:        "https://google.serper.dev/search",
		SearchAttempts:   1,
		SearchDelay:      time.Second,
		SearchTimeout:    10 * time.Second,
		SearchRatePerSec: 5,
		SearchCacheTTL:   10 * time.Minute,

		RabbitQueue:       "chat_turns",
		WorkerConcurrency: 2,
	}
}

// Load builds the config from defaults, an optional YAML file named by CONFIG_FILE,
// and finally environment variables.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	str(&cfg.HTTPAddr, "HTTP_ADDR")
	str(&cfg.TranscriptBackend, "TRANSCRIPT_BACKEND")
	str(&cfg.TranscriptFile, "TRANSCRIPT_FILE")
	// DSN demo：
	// app:apppass@tcp(127.0.0.1:3306)/ai_assistant?charset=utf8mb4&parseTime=true&loc=Local
	str(&cfg.DBDSN, "DB_DSN")
	str(&cfg.UploadDir, "UPLOAD_DIR")
	str(&cfg.CatalogFile, "CATALOG_FILE")
	num(&cfg.DocMaxChars, "DOC_MAX_CHARS")
	str(&cfg.RecommendMode, "RECOMMEND_MODE")
	str(&cfg.JWTSecret, "JWT_SECRET")

	str(&cfg.AIProvider, "AI_PROVIDER")
	str(&cfg.OllamaBaseURL, "OLLAMA_BASE_URL")
	str(&cfg.TextModel, "TEXT_MODEL")
	str(&cfg.VisionModel, "VISION_MODEL")
	str(&cfg.OpenRouterBaseURL, "OPENROUTER_BASE_URL")
	str(&cfg.OpenRouterAPIKey, "OPENROUTER_API_KEY")
	str(&cfg.OpenRouterSiteURL, "OPENROUTER_SITE_URL")
	str(&cfg.OpenRouterAppName, "OPENROUTER_APP_NAME")
	num(&cfg.InferenceAttempts, "INFERENCE_ATTEMPTS")
	dur(&cfg.InferenceDelay, "INFERENCE_DELAY")
	dur(&cfg.InferenceTimeout, "INFERENCE_TIMEOUT")

	str(&cfg.SerperURL, "SERPER_URL")
	str(&cfg.SerperAPIKey, "SERPER_API_KEY")
	num(&cfg.SearchAttempts, "SEARCH_ATTEMPTS")
	dur(&cfg.SearchDelay, "SEARCH_DELAY")
	dur(&cfg.SearchTimeout, "SEARCH_TIMEOUT")
	if v := os.Getenv("SEARCH_RATE_PER_SEC"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.SearchRatePerSec = f
		}
	}
	dur(&cfg.SearchCacheTTL, "SEARCH_CACHE_TTL")

	str(&cfg.RedisAddr, "REDIS_ADDR")
	str(&cfg.RedisPassword, "REDIS_PASSWORD")
	num(&cfg.RedisDB, "REDIS_DB")

	str(&cfg.RabbitURL, "RABBIT_URL")
	str(&cfg.RabbitQueue, "RABBIT_QUEUE")
	num(&cfg.WorkerConcurrency, "WORKER_CONCURRENCY")
	if cfg.WorkerConcurrency <= 0 {
		cfg.WorkerConcurrency = 2
	}
	if cfg.WorkerConcurrency > 50 {
		cfg.WorkerConcurrency = 50
	}
}

func str(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func num(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

// dur accepts Go durations ("3s") or a bare number of seconds.
func dur(dst *time.Duration, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	if d, err := time.ParseDuration(v); err == nil {
		*dst = d
		return
	}
	if n, err := strconv.Atoi(v); err == nil {
		*dst = time.Duration(n) * time.Second
	}
}
