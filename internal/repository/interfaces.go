package repository

import (
	"context"

	"github.com/kitbuilder587/websearch/internal/domain"
)

// SearchLogRepository - журнал вызовов web_search. Только аудит, результаты не храним.
type SearchLogRepository interface {
	Create(ctx context.Context, log *domain.SearchLog) error
	ListRecent(ctx context.Context, limit int) ([]domain.SearchLog, error)
	// CountByProvider - сколько успешных ответов дал каждый провайдер
	CountByProvider(ctx context.Context) (map[string]int, error)
}
