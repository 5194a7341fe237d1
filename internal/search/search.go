package search

import (
	"context"
	"errors"
	"strings"

	"github.com/kitbuilder587/websearch/internal/domain"
)

var (
	ErrUnauthorized   = errors.New("invalid API key")
	ErrRateLimit      = errors.New("rate limit exceeded")
	ErrInvalidRequest = errors.New("invalid request parameters")
	ErrSearchFailed   = errors.New("search request failed")
)

// Identity - стабильный lowercase идентификатор провайдера.
// Ключ бакета rate limiter'а, ключ кредов и то, что возвращаем вызывающему.
type Identity string

const (
	Google Identity = "google"
	Brave  Identity = "brave"
	XAI    Identity = "xai"
)

// DefaultOrder - порядок fallback по умолчанию
var DefaultOrder = []Identity{Google, Brave, XAI}

var known = map[Identity]bool{
	Google: true,
	Brave:  true,
	XAI:    true,
}

func (id Identity) IsKnown() bool {
	return known[id]
}

func (id Identity) String() string {
	return string(id)
}

// ParseIdentity нормализует регистр и пробелы.
func ParseIdentity(s string) (Identity, bool) {
	id := Identity(strings.ToLower(strings.TrimSpace(s)))
	return id, id.IsKnown()
}

// KnownIdentities возвращает известных провайдеров в порядке DefaultOrder.
func KnownIdentities() []Identity {
	out := make([]Identity, len(DefaultOrder))
	copy(out, DefaultOrder)
	return out
}

// FilterKnown оставляет только известные идентификаторы, без дублей, сохраняя порядок.
func FilterKnown(ids []Identity) []Identity {
	seen := make(map[Identity]bool, len(ids))
	out := make([]Identity, 0, len(ids))
	for _, raw := range ids {
		id, ok := ParseIdentity(string(raw))
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// Client - контракт бэкенда: (query, count) -> results.
// Ошибка транспорта или API должна возвращаться как error, не паникой.
type Client interface {
	Name() Identity
	Search(ctx context.Context, query string, count int) ([]Result, error)
}

type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Response - успешный исход: кто ответил, на какой запрос и что осталось после фильтра.
type Response struct {
	Provider Identity
	Query    string
	Results  []Result

	// Dropped - сколько результатов отрезал фильтр URL
	Dropped int
	// Skipped - диагностика кандидатов, пропущенных до успешного
	Skipped []string
}

func (r *Response) ResultCount() int {
	return len(r.Results)
}

// ExhaustedError - все кандидаты пропущены или упали.
// Diagnostics идут в порядке попыток, по строке на кандидата.
type ExhaustedError struct {
	Diagnostics []string
}

func (e *ExhaustedError) Error() string {
	if len(e.Diagnostics) == 0 {
		return domain.ErrAllProvidersFailed.Error()
	}
	return domain.ErrAllProvidersFailed.Error() + ": " + strings.Join(e.Diagnostics, "; ")
}

func (e *ExhaustedError) Unwrap() error {
	return domain.ErrAllProvidersFailed
}
