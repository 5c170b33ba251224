package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// CanonicalLanguages is the full set of languages a code analysis record may carry.
var CanonicalLanguages = []string{"python", "javascript", "typescript", "java", "cpp", "c"}

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

type Config struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"codementor-api"`
	Environment string `env:"ENVIRONMENT"`
	HTTPPort    string `env:"PORT"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"console"`

	DatabaseURL   string `env:"DATABASE_URL"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"codementor"`

	InferenceProvider string        `env:"INFERENCE_PROVIDER" envDefault:"openai"`
	InferenceTimeout  time.Duration `env:"INFERENCE_TIMEOUT" envDefault:"60s"`
	OpenAIAPIKey      string        `env:"OPENAI_API_KEY"`
	OpenAIModel       string        `env:"OPENAI_MODEL" envDefault:"gpt-4.1-mini"`
	OpenAIBaseURL     string        `env:"OPENAI_BASE_URL"`
	GeminiAPIKey      string        `env:"GEMINI_API_KEY"`
	GeminiModel       string        `env:"GEMINI_MODEL" envDefault:"gemini-1.5-flash-latest"`

	SupportedLanguages []string `env:"SUPPORTED_LANGUAGES" envSeparator:","`

	FrontendURL     string        `env:"FRONTEND_URL"`
	MaxBodyBytes    int64         `env:"MAX_BODY_BYTES" envDefault:"102400"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// Load reads an optional .env file and parses the process environment into a Config.
func Load() (*Config, error) {
	for _, path := range []string{".env", "../.env"} {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
	return parse(env.Options{})
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}

	lookup := func(key string) string {
		if opts.Environment != nil {
			return opts.Environment[key]
		}
		return os.Getenv(key)
	}

	if cfg.Environment == "" {
		cfg.Environment = firstNonEmpty(lookup("NODE_ENV"), "development")
	}
	if cfg.HTTPPort == "" {
		cfg.HTTPPort = firstNonEmpty(lookup("HTTP_PORT"), "5000")
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = firstNonEmpty(lookup("MONGO_URI"), lookup("MONGODB_URI"), "codementor.db")
	}

	cfg.InferenceProvider = strings.ToLower(strings.TrimSpace(cfg.InferenceProvider))
	switch cfg.InferenceProvider {
	case ProviderOpenAI, ProviderGemini:
	default:
		return nil, fmt.Errorf("INFERENCE_PROVIDER must be %q or %q, got %q", ProviderOpenAI, ProviderGemini, cfg.InferenceProvider)
	}
	if cfg.InferenceTimeout <= 0 {
		return nil, fmt.Errorf("INFERENCE_TIMEOUT must be positive")
	}
	if cfg.MaxBodyBytes <= 0 {
		return nil, fmt.Errorf("MAX_BODY_BYTES must be positive")
	}

	langs, err := normalizeLanguages(cfg.SupportedLanguages)
	if err != nil {
		return nil, err
	}
	cfg.SupportedLanguages = langs

	return cfg, nil
}

func normalizeLanguages(raw []string) ([]string, error) {
	var langs []string
	for _, l := range raw {
		l = strings.ToLower(strings.TrimSpace(l))
		if l == "" {
			continue
		}
		if !IsCanonicalLanguage(l) {
			return nil, fmt.Errorf("SUPPORTED_LANGUAGES: %q is not one of %s", l, strings.Join(CanonicalLanguages, ", "))
		}
		langs = append(langs, l)
	}
	if len(langs) == 0 {
		return append([]string(nil), CanonicalLanguages...), nil
	}
	return langs, nil
}

// IsCanonicalLanguage reports whether lang belongs to CanonicalLanguages.
func IsCanonicalLanguage(lang string) bool {
	for _, l := range CanonicalLanguages {
		if l == lang {
			return true
		}
	}
	return false
}

// IsProduction controls whether internal error detail is hidden from API responses.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return ":" + c.HTTPPort
}

// UsesMongo reports whether DatabaseURL points at a MongoDB deployment.
func (c *Config) UsesMongo() bool {
	return strings.HasPrefix(c.DatabaseURL, "mongodb://") || strings.HasPrefix(c.DatabaseURL, "mongodb+srv://")
}

// InferenceAPIKey returns the credential for the selected provider.
func (c *Config) InferenceAPIKey() string {
	if c.InferenceProvider == ProviderGemini {
		return c.GeminiAPIKey
	}
	return c.OpenAIAPIKey
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
