// Package tool выставляет web search как вызываемый инструмент: JSON на входе, payload или текст ошибки на выходе.
package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.uber.org/zap"

	"github.com/kitbuilder587/websearch/internal/domain"
	"github.com/kitbuilder587/websearch/internal/provider"
	"github.com/kitbuilder587/websearch/internal/search"
	"github.com/kitbuilder587/websearch/internal/service"
)

const Name = "web_search"

type Input struct {
	Query    string   `json:"query"`
	Count    *float64 `json:"count,omitempty"`
	Provider string   `json:"provider,omitempty"`
}

func (in *Input) Normalize() {
	in.Query = strings.TrimSpace(in.Query)
	in.Provider = strings.ToLower(strings.TrimSpace(in.Provider))
}

func (in Input) Validate() error {
	known := make([]interface{}, 0, len(search.DefaultOrder))
	for _, id := range search.KnownIdentities() {
		known = append(known, id.String())
	}

	return validation.ValidateStruct(&in,
		validation.Field(&in.Query,
			validation.Required,
			validation.Length(1, domain.MaxQueryLength),
		),
		validation.Field(&in.Provider, validation.In(known...).Error("must be one of: "+strings.Join(identities(), ", "))),
	)
}

// ResultCount: отсутствует -> 0 (дефолт сервиса), явное значение < 1 -> 1.
func (in Input) ResultCount() int {
	if in.Count == nil {
		return 0
	}
	n := *in.Count
	switch {
	case math.IsNaN(n) || n < domain.MinResultCount:
		return domain.MinResultCount
	case n > domain.MaxResultCount:
		return domain.MaxResultCount
	default:
		return int(n)
	}
}

type Payload struct {
	Provider    string          `json:"provider"`
	Query       string          `json:"query"`
	ResultCount int             `json:"resultCount"`
	Results     []search.Result `json:"results"`
}

type Output struct {
	Content string   `json:"content"`
	IsError bool     `json:"isError"`
	Data    *Payload `json:"data,omitempty"`
}

type Options struct {
	// Credentials - явные креды из конфига хоста, перекрывают окружение
	Credentials *provider.Credentials
}

type WebSearch struct {
	svc    service.WebSearchService
	creds  *provider.Credentials
	logger *zap.Logger
}

func NewWebSearch(svc service.WebSearchService, logger *zap.Logger, opts Options) *WebSearch {
	return &WebSearch{
		svc:    svc,
		creds:  opts.Credentials,
		logger: logger,
	}
}

func (t *WebSearch) Name() string { return Name }

func (t *WebSearch) Description() string {
	return "Search the web and return title, URL and snippet for each result. " +
		"Tries Google, Brave and xAI in order until one answers; results pointing at private or internal addresses are removed."
}

func (t *WebSearch) Parameters() map[string]interface{} {
	return MustSchemaMap(webSearchParameterSchema{
		Type: "object",
		Properties: webSearchSchemaProps{
			Query: ParamSchema{
				Type:        "string",
				Description: "Search query",
			},
			Count: ParamSchema{
				Type:        "integer",
				Description: fmt.Sprintf("Number of results to return (%d-%d, default: %d)", domain.MinResultCount, domain.MaxResultCount, domain.DefaultResultCount),
				Minimum:     intPtr(domain.MinResultCount),
				Maximum:     intPtr(domain.MaxResultCount),
			},
			Provider: ParamSchema{
				Type:        "string",
				Description: "Use only this provider, without fallback",
				Enum:        identities(),
			},
		},
		Required: []string{"query"},
	})
}

func (t *WebSearch) Definition() Definition {
	return Definition{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters:  t.Parameters(),
	}
}

// Execute никогда не возвращает error: любой исход упакован в Output.
func (t *WebSearch) Execute(ctx context.Context, raw json.RawMessage) Output {
	var in Input
	if err := json.Unmarshal(raw, &in); err != nil {
		return errorOutput("Invalid input: " + err.Error())
	}
	return t.Run(ctx, in)
}

// Run - то же, что Execute, для уже разобранного ввода (CLI, Telegram).
func (t *WebSearch) Run(ctx context.Context, in Input) Output {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return errorOutput("Invalid input: " + err.Error())
	}

	resp, err := t.svc.Search(ctx, &service.SearchRequest{
		Query:       in.Query,
		Count:       in.ResultCount(),
		Provider:    in.Provider,
		Credentials: t.creds,
	})
	if err != nil {
		return t.failure(err)
	}

	payload := &Payload{
		Provider:    resp.Provider.String(),
		Query:       resp.Query,
		ResultCount: resp.ResultCount(),
		Results:     resp.Results,
	}
	if payload.Results == nil {
		payload.Results = []search.Result{}
	}

	content, err := json.Marshal(payload)
	if err != nil {
		t.logger.Error("failed to marshal payload", zap.Error(err))
		return errorOutput("Web search failed: " + err.Error())
	}

	return Output{Content: string(content), Data: payload}
}

func (t *WebSearch) failure(err error) Output {
	var ex *search.ExhaustedError
	if errors.As(err, &ex) {
		return errorOutput(FailureMessage(ex.Diagnostics))
	}

	if errors.Is(err, domain.ErrEmptyQuery) || errors.Is(err, domain.ErrQueryTooLong) {
		return errorOutput("Invalid input: " + err.Error())
	}

	t.logger.Error("web search failed", zap.Error(err))
	return errorOutput("Web search failed: " + err.Error())
}

// FailureMessage - многострочный текст: что случилось с каждым провайдером и что настроить.
func FailureMessage(diagnostics []string) string {
	var sb strings.Builder

	sb.WriteString("Web search failed: no provider returned results.\n")
	for _, d := range diagnostics {
		sb.WriteString("  - ")
		sb.WriteString(d)
		sb.WriteString("\n")
	}

	sb.WriteString("Configure at least one provider:\n")
	for _, h := range provider.Hints() {
		sb.WriteString("  - ")
		sb.WriteString(h)
		sb.WriteString("\n")
	}

	return strings.TrimRight(sb.String(), "\n")
}

func errorOutput(msg string) Output {
	return Output{Content: msg, IsError: true}
}

func identities() []string {
	ids := search.KnownIdentities()
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
