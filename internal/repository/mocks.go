package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kitbuilder587/websearch/internal/domain"
)

type MockSearchLogRepository struct {
	mu   sync.RWMutex
	logs []domain.SearchLog

	// Err, если задан, возвращается из Create
	Err error
}

func NewMockSearchLogRepository() *MockSearchLogRepository {
	return &MockSearchLogRepository{}
}

func (m *MockSearchLogRepository) Create(ctx context.Context, log *domain.SearchLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}

	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now()
	}
	entry := *log
	entry.Diagnostics = append([]string(nil), log.Diagnostics...)
	m.logs = append(m.logs, entry)
	return nil
}

func (m *MockSearchLogRepository) ListRecent(ctx context.Context, limit int) ([]domain.SearchLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.SearchLog, len(m.logs))
	copy(out, m.logs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockSearchLogRepository) CountByProvider(ctx context.Context) (map[string]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := make(map[string]int)
	for _, l := range m.logs {
		if l.Success {
			counts[l.Provider]++
		}
	}
	return counts, nil
}

func (m *MockSearchLogRepository) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.logs)
}

var _ SearchLogRepository = (*MockSearchLogRepository)(nil)
