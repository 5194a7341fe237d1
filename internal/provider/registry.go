// Package provider превращает креды в готовый клиент нужного бэкенда.
package provider

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kitbuilder587/websearch/internal/search"
	"github.com/kitbuilder587/websearch/internal/search/brave"
	"github.com/kitbuilder587/websearch/internal/search/google"
	"github.com/kitbuilder587/websearch/internal/search/xai"
)

var (
	ErrNotConfigured   = errors.New("not configured")
	ErrUnknownProvider = errors.New("unknown provider")
)

const (
	DefaultTimeout    = 15 * time.Second
	DefaultXAITimeout = 30 * time.Second
)

type Endpoint struct {
	BaseURL string
	Timeout time.Duration
}

// Settings - всё, кроме кредов, что нужно для сборки клиентов.
type Settings struct {
	Google   Endpoint
	Brave    Endpoint
	XAI      Endpoint
	XAIModel string
}

// Factory собирает клиент из полного набора кредов.
type Factory func(creds Credentials, logger *zap.Logger) search.Client

type Registry struct {
	defaults  Credentials
	factories map[search.Identity]Factory
	timeouts  map[search.Identity]time.Duration
	logger    *zap.Logger
}

func NewRegistry(defaults Credentials, settings Settings, logger *zap.Logger) *Registry {
	r := &Registry{
		defaults:  defaults,
		factories: make(map[search.Identity]Factory),
		timeouts:  make(map[search.Identity]time.Duration),
		logger:    logger,
	}

	r.Register(search.Google, timeoutOr(settings.Google.Timeout, DefaultTimeout),
		func(c Credentials, l *zap.Logger) search.Client {
			return google.New(google.Config{
				APIKey:   c.GoogleAPIKey,
				EngineID: c.GoogleCSEID,
				BaseURL:  settings.Google.BaseURL,
				Timeout:  timeoutOr(settings.Google.Timeout, DefaultTimeout),
			}, l)
		})

	r.Register(search.Brave, timeoutOr(settings.Brave.Timeout, DefaultTimeout),
		func(c Credentials, l *zap.Logger) search.Client {
			return brave.New(brave.Config{
				APIKey:  c.BraveAPIKey,
				BaseURL: settings.Brave.BaseURL,
				Timeout: timeoutOr(settings.Brave.Timeout, DefaultTimeout),
			}, l)
		})

	r.Register(search.XAI, timeoutOr(settings.XAI.Timeout, DefaultXAITimeout),
		func(c Credentials, l *zap.Logger) search.Client {
			return xai.New(xai.Config{
				APIKey:  c.XAIAPIKey,
				Model:   settings.XAIModel,
				BaseURL: settings.XAI.BaseURL,
				Timeout: timeoutOr(settings.XAI.Timeout, DefaultXAITimeout),
			}, l)
		})

	return r
}

// Register подменяет фабрику и таймаут для известного провайдера.
// Набор идентификаторов фиксирован, неизвестные игнорируются.
func (r *Registry) Register(id search.Identity, timeout time.Duration, f Factory) {
	if !id.IsKnown() {
		return
	}
	r.factories[id] = f
	r.timeouts[id] = timeout
}

// Resolve отдаёт клиент или ErrNotConfigured, если кредов не хватает.
// Явные override перекрывают значения из окружения поле за полем.
func (r *Registry) Resolve(id search.Identity, override *Credentials) (search.Client, error) {
	f, ok := r.factories[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, id)
	}

	creds := r.defaults.Merge(override)
	if !creds.Complete(id) {
		return nil, ErrNotConfigured
	}

	return f(creds, r.logger.With(zap.String("provider", id.String()))), nil
}

// Timeout - дедлайн одного запроса к провайдеру.
func (r *Registry) Timeout(id search.Identity) time.Duration {
	if t, ok := r.timeouts[id]; ok && t > 0 {
		return t
	}
	return DefaultTimeout
}

// Configured - провайдеры с полными кредами, в порядке DefaultOrder.
func (r *Registry) Configured(override *Credentials) []search.Identity {
	creds := r.defaults.Merge(override)
	var out []search.Identity
	for _, id := range search.DefaultOrder {
		if creds.Complete(id) {
			out = append(out, id)
		}
	}
	return out
}

// Hint - подсказка, что выставить, чтобы провайдер заработал.
func Hint(id search.Identity) string {
	env := RequiredEnv(id)
	if len(env) == 0 {
		return id.String()
	}
	return id.String() + ": set " + strings.Join(env, " and ")
}

// Hints - по подсказке на каждого известного провайдера.
func Hints() []string {
	out := make([]string, 0, len(search.DefaultOrder))
	for _, id := range search.DefaultOrder {
		out = append(out, Hint(id))
	}
	return out
}

func timeoutOr(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
