package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/kitbuilder587/websearch/internal/provider"
	"github.com/kitbuilder587/websearch/internal/search"
)

var (
	ErrInvalidRateLimit = errors.New("invalid rate limit settings")
	ErrInvalidAddr      = errors.New("invalid HTTP_ADDR")
	ErrInvalidTelegram  = errors.New("invalid telegram settings")
)

// границы дедлайна одного запроса к провайдеру
const (
	MinProviderTimeout = 15 * time.Second
	MaxProviderTimeout = 30 * time.Second
)

type Config struct {
	Providers ProvidersConfig
	RateLimit RateLimitConfig
	HTTP      HTTPConfig
	Telegram  TelegramConfig
	Database  DatabaseConfig
	Log       LogConfig
}

type ProvidersConfig struct {
	Credentials provider.Credentials
	Order       []search.Identity
	// Ignored - записи WEB_SEARCH_PROVIDERS, которых мы не знаем
	Ignored []string

	Google   EndpointConfig
	Brave    EndpointConfig
	XAI      EndpointConfig
	XAIModel string
}

type EndpointConfig struct {
	BaseURL string
	Timeout time.Duration
}

type RateLimitConfig struct {
	MaxTokens    float64
	RefillPerSec float64
}

type HTTPConfig struct {
	Addr        string
	CORSOrigins []string
}

// TelegramConfig - бот включается, только если задан токен.
type TelegramConfig struct {
	Token             string
	RequestsPerMinute int
}

// DatabaseConfig - без URL журнал поисков не пишется.
type DatabaseConfig struct {
	URL string
}

type LogConfig struct {
	Level  string
	Format string // json | console, пусто = по уровню
}

func Load() (*Config, error) {
	order, ignored := parseOrder(os.Getenv("WEB_SEARCH_PROVIDERS"))

	cfg := &Config{
		Providers: ProvidersConfig{
			Credentials: provider.Credentials{
				GoogleAPIKey: os.Getenv(provider.EnvGoogleAPIKey),
				GoogleCSEID:  os.Getenv(provider.EnvGoogleCSEID),
				BraveAPIKey:  os.Getenv(provider.EnvBraveAPIKey),
				XAIAPIKey:    os.Getenv(provider.EnvXAIAPIKey),
			},
			Order:   order,
			Ignored: ignored,
			Google: EndpointConfig{
				BaseURL: getEnvOrDefault("GOOGLE_BASE_URL", "https://www.googleapis.com"),
				Timeout: clampTimeout(getEnvIntOrDefault("GOOGLE_TIMEOUT_SEC", 15)),
			},
			Brave: EndpointConfig{
				BaseURL: getEnvOrDefault("BRAVE_BASE_URL", "https://api.search.brave.com"),
				Timeout: clampTimeout(getEnvIntOrDefault("BRAVE_TIMEOUT_SEC", 15)),
			},
			XAI: EndpointConfig{
				BaseURL: getEnvOrDefault("XAI_BASE_URL", "https://api.x.ai"),
				Timeout: clampTimeout(getEnvIntOrDefault("XAI_TIMEOUT_SEC", 30)),
			},
			XAIModel: getEnvOrDefault("XAI_MODEL", "grok-3"),
		},
		RateLimit: RateLimitConfig{
			MaxTokens:    getEnvFloatOrDefault("PROVIDER_RATE_MAX_TOKENS", 10),
			RefillPerSec: getEnvFloatOrDefault("PROVIDER_RATE_REFILL_PER_SEC", 10),
		},
		HTTP: HTTPConfig{
			Addr:        getEnvOrDefault("HTTP_ADDR", ":8080"),
			CORSOrigins: splitList(getEnvOrDefault("CORS_ORIGINS", "*")),
		},
		Telegram: TelegramConfig{
			Token:             os.Getenv("TELEGRAM_BOT_TOKEN"),
			RequestsPerMinute: getEnvIntOrDefault("TELEGRAM_REQUESTS_PER_MINUTE", 10),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Log: LogConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: os.Getenv("LOG_FORMAT"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate проверяет только то, без чего процесс не поднять.
// Отсутствие кредов ошибкой не считается: каждый поиск тогда вернёт понятный отказ.
func (c *Config) Validate() error {
	err := validation.ValidateStruct(&c.RateLimit,
		validation.Field(&c.RateLimit.MaxTokens, validation.Required, validation.Min(1.0)),
		validation.Field(&c.RateLimit.RefillPerSec, validation.Required, validation.Min(0.001)),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRateLimit, err)
	}

	if _, _, err := net.SplitHostPort(c.HTTP.Addr); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAddr, err)
	}

	if c.Telegram.Token != "" && c.Telegram.RequestsPerMinute < 1 {
		return ErrInvalidTelegram
	}

	return nil
}

// Settings - endpoints и таймауты в том виде, в каком их ждёт реестр провайдеров.
func (p ProvidersConfig) Settings() provider.Settings {
	return provider.Settings{
		Google:   provider.Endpoint{BaseURL: p.Google.BaseURL, Timeout: p.Google.Timeout},
		Brave:    provider.Endpoint{BaseURL: p.Brave.BaseURL, Timeout: p.Brave.Timeout},
		XAI:      provider.Endpoint{BaseURL: p.XAI.BaseURL, Timeout: p.XAI.Timeout},
		XAIModel: p.XAIModel,
	}
}

// parseOrder: "Brave, google ,bing" -> [brave google], ignored [bing]. Пусто -> порядок по умолчанию.
func parseOrder(raw string) ([]search.Identity, []string) {
	var (
		ids     []search.Identity
		ignored []string
	)
	for _, part := range splitList(raw) {
		id, ok := search.ParseIdentity(part)
		if !ok {
			ignored = append(ignored, part)
			continue
		}
		ids = append(ids, id)
	}

	ids = search.FilterKnown(ids)
	if len(ids) == 0 {
		ids = search.KnownIdentities()
	}
	return ids, ignored
}

func clampTimeout(sec int) time.Duration {
	d := time.Duration(sec) * time.Second
	if d < MinProviderTimeout {
		return MinProviderTimeout
	}
	if d > MaxProviderTimeout {
		return MaxProviderTimeout
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
