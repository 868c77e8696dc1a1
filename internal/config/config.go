package config

import (
	"time"

	"github.com/caarlos0/env/v10"
)

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"data/pathforge.db"`
	CatalogDir  string `env:"CATALOG_DIR"`

	LLMAPIKey  string        `env:"LLM_API_KEY"`
	LLMBaseURL string        `env:"LLM_BASE_URL" envDefault:"https://api.openai.com/v1"`
	LLMModel   string        `env:"LLM_MODEL" envDefault:"gpt-5.1"`
	LLMTimeout time.Duration `env:"LLM_TIMEOUT" envDefault:"30s"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser     string `env:"SMTP_USER"`
	SMTPPass     string `env:"SMTP_PASS"`
	SMTPFrom     string `env:"SMTP_FROM"`
	SMTPFromName string `env:"SMTP_FROM_NAME" envDefault:"PathForge"`
	SMTPUseTLS   bool   `env:"SMTP_USE_TLS" envDefault:"false"`

	ReportEmailLimit  int           `env:"REPORT_EMAIL_LIMIT" envDefault:"3"`
	ReportEmailWindow time.Duration `env:"REPORT_EMAIL_WINDOW" envDefault:"1h"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	MarketAPIURL   string        `env:"MARKET_API_URL"`
	MarketAppID    string        `env:"MARKET_APP_ID"`
	MarketAppKey   string        `env:"MARKET_APP_KEY"`
	MarketCacheTTL time.Duration `env:"MARKET_CACHE_TTL" envDefault:"1h"`

	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"30m"`
	Seed       uint64        `env:"QUESTION_SEED" envDefault:"0"`

	Engine EngineConfig `envPrefix:"ENGINE_"`
}

// EngineConfig son los umbrales del orquestador.
type EngineConfig struct {
	ConfidenceThreshold int     `env:"CONFIDENCE_THRESHOLD" envDefault:"2"`
	StopThreshold       float64 `env:"STOP_THRESHOLD" envDefault:"6.5"`
	DomainGapThreshold  float64 `env:"DOMAIN_GAP_THRESHOLD" envDefault:"1.0"`
	MaxClarify          int     `env:"MAX_CLARIFY" envDefault:"5"`
	MaxQuestions        int     `env:"MAX_QUESTIONS" envDefault:"30"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
