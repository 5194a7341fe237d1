package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kitbuilder587/websearch/internal/domain"
	"github.com/kitbuilder587/websearch/internal/metrics"
	"github.com/kitbuilder587/websearch/internal/provider"
	"github.com/kitbuilder587/websearch/internal/repository"
	"github.com/kitbuilder587/websearch/internal/search"
	"github.com/kitbuilder587/websearch/internal/urlguard"
)

// maxDiagnosticLen - сообщения бэкендов бывают с целым HTML внутри
const maxDiagnosticLen = 300

type ProviderRegistry interface {
	Resolve(id search.Identity, override *provider.Credentials) (search.Client, error)
	Timeout(id search.Identity) time.Duration
	Configured(override *provider.Credentials) []search.Identity
}

// Limiter - token bucket на провайдера, ключ = Identity.
type Limiter interface {
	Allow(key string) bool
}

type SearchRequest struct {
	Query string
	Count int // 0 = по умолчанию

	// Provider - принудительный провайдер, без fallback
	Provider string
	// Order перекрывает порядок из конфига. Неизвестные отбрасываются.
	Order       []search.Identity
	Credentials *provider.Credentials
}

type WebSearchService interface {
	Search(ctx context.Context, req *SearchRequest) (*search.Response, error)
	Providers(override *provider.Credentials) []search.Identity
}

type WebSearchDeps struct {
	Registry ProviderRegistry
	Limiter  Limiter
	Logs     repository.SearchLogRepository // опционально
	Logger   *zap.Logger
	Metrics  *metrics.Metrics // опционально

	// Order - порядок fallback по умолчанию; пустой = search.DefaultOrder
	Order []search.Identity
}

type webSearchService struct {
	registry ProviderRegistry
	limiter  Limiter
	logs     repository.SearchLogRepository
	logger   *zap.Logger
	metrics  *metrics.Metrics
	order    []search.Identity
}

func NewWebSearchService(deps WebSearchDeps) WebSearchService {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	order := search.FilterKnown(deps.Order)
	if len(order) == 0 {
		order = search.KnownIdentities()
	}

	return &webSearchService{
		registry: deps.Registry,
		limiter:  deps.Limiter,
		logs:     deps.Logs,
		logger:   deps.Logger,
		metrics:  deps.Metrics,
		order:    order,
	}
}

// Search проходит кандидатов строго по очереди и возвращает первый успех.
// Если никто не ответил, ошибка - *search.ExhaustedError с диагностикой по каждому.
func (s *webSearchService) Search(ctx context.Context, req *SearchRequest) (*search.Response, error) {
	startTime := time.Now()

	if s.metrics != nil {
		s.metrics.IncRequestsInFlight()
		defer s.metrics.DecRequestsInFlight()
	}

	q := domain.Query{Text: req.Query, Count: req.Count}
	if err := q.Validate(); err != nil {
		s.recordRequest("invalid", startTime)
		return nil, err
	}
	q.Sanitize()

	var diagnostics []string

	for _, id := range s.candidates(req) {
		if err := ctx.Err(); err != nil {
			diagnostics = append(diagnostics, diagnostic(id, err.Error()))
			continue
		}

		client, err := s.registry.Resolve(id, req.Credentials)
		if err != nil {
			reason := "not configured"
			if errors.Is(err, provider.ErrUnknownProvider) {
				reason = "unknown provider"
			}
			s.logger.Debug("provider skipped", zap.String("provider", id.String()), zap.String("reason", reason))
			s.recordAttempt(id, metrics.StatusNotConfigured)
			diagnostics = append(diagnostics, diagnostic(id, reason))
			continue
		}

		if s.limiter != nil && !s.limiter.Allow(id.String()) {
			s.logger.Debug("provider skipped", zap.String("provider", id.String()), zap.String("reason", "rate limited"))
			s.recordAttempt(id, metrics.StatusRateLimited)
			diagnostics = append(diagnostics, diagnostic(id, "rate limited"))
			continue
		}

		raw, err := s.call(ctx, id, client, q)
		if err != nil {
			s.logger.Warn("provider failed",
				zap.String("provider", id.String()),
				zap.Error(err),
			)
			s.recordAttempt(id, metrics.StatusError)
			diagnostics = append(diagnostics, diagnostic(id, err.Error()))
			continue
		}

		results := urlguard.Filter(raw)
		dropped := len(raw) - len(results)

		s.recordAttempt(id, metrics.StatusSuccess)
		if s.metrics != nil {
			s.metrics.RecordFiltered(id.String(), dropped)
		}

		s.logger.Info("web search completed",
			zap.String("provider", id.String()),
			zap.Int("raw", len(raw)),
			zap.Int("results", len(results)),
			zap.Int("dropped", dropped),
			zap.Duration("duration", time.Since(startTime)),
		)

		resp := &search.Response{
			Provider: id,
			Query:    q.Text,
			Results:  results,
			Dropped:  dropped,
			Skipped:  diagnostics,
		}

		s.recordRequest("success", startTime)
		s.saveLog(ctx, &domain.SearchLog{
			Query:       q.Text,
			Provider:    id.String(),
			Success:     true,
			ResultCount: len(results),
			Dropped:     dropped,
			Diagnostics: diagnostics,
			Duration:    time.Since(startTime),
		})

		return resp, nil
	}

	s.logger.Warn("all providers failed", zap.Strings("diagnostics", diagnostics))

	s.recordRequest("exhausted", startTime)
	s.saveLog(ctx, &domain.SearchLog{
		Query:       q.Text,
		Success:     false,
		Diagnostics: diagnostics,
		Duration:    time.Since(startTime),
	})

	return nil, &search.ExhaustedError{Diagnostics: diagnostics}
}

func (s *webSearchService) Providers(override *provider.Credentials) []search.Identity {
	return s.registry.Configured(override)
}

// candidates: принудительный провайдер > порядок из запроса > порядок из конфига.
func (s *webSearchService) candidates(req *SearchRequest) []search.Identity {
	if forced := strings.TrimSpace(req.Provider); forced != "" {
		id, _ := search.ParseIdentity(forced)
		return []search.Identity{id}
	}

	if order := search.FilterKnown(req.Order); len(order) > 0 {
		return order
	}

	return s.order
}

// call - один вызов бэкенда под своим дедлайном. Паника бэкенда превращается в ошибку.
func (s *webSearchService) call(ctx context.Context, id search.Identity, client search.Client, q domain.Query) (results []search.Result, err error) {
	callCtx, cancel := context.WithTimeout(ctx, s.registry.Timeout(id))
	defer cancel()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("provider panic", zap.String("provider", id.String()), zap.Any("panic", r))
			results, err = nil, fmt.Errorf("%w: panic: %v", search.ErrSearchFailed, r)
		}
		if s.metrics != nil {
			s.metrics.RecordProviderRequest(id.String(), time.Since(start))
		}
	}()

	return client.Search(callCtx, q.Text, q.Count)
}

func (s *webSearchService) saveLog(ctx context.Context, log *domain.SearchLog) {
	if s.logs == nil {
		return
	}

	log.ID = uuid.NewString()

	// запрос вызывающего мог уже отмениться, а запись всё равно нужна
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := s.logs.Create(saveCtx, log); err != nil {
		s.logger.Warn("failed to save search log", zap.Error(err))
	}
}

func (s *webSearchService) recordAttempt(id search.Identity, status string) {
	if s.metrics != nil {
		s.metrics.RecordProviderAttempt(id.String(), status)
	}
}

func (s *webSearchService) recordRequest(status string, start time.Time) {
	if s.metrics != nil {
		s.metrics.RecordRequest(status, time.Since(start))
	}
}

func diagnostic(id search.Identity, msg string) string {
	return id.String() + ": " + search.Truncate(msg, maxDiagnosticLen)
}
