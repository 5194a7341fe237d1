package xai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kitbuilder587/websearch/internal/search"
)

const (
	MaxCount     = 20
	DefaultModel = "grok-3"
)

const systemPrompt = `You are a web search backend. Search the web for the user's query and answer ONLY with JSON of the form
{"results":[{"title":"...","url":"...","snippet":"..."}]}
Return at most %d results. Use real URLs from your search, no commentary.`

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// Client ходит в chat completions xAI с включённым live search.
type Client struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.x.ai"
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Client{
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
	}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type searchSource struct {
	Type string `json:"type"`
}

type searchParameters struct {
	Mode             string         `json:"mode"`
	Sources          []searchSource `json:"sources"`
	ReturnCitations  bool           `json:"return_citations"`
	MaxSearchResults int            `json:"max_search_results"`
}

type chatRequest struct {
	Model            string           `json:"model"`
	Messages         []message        `json:"messages"`
	SearchParameters searchParameters `json:"search_parameters"`
	Temperature      float64          `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
	Citations []string  `json:"citations"`
	Error     *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

type answer struct {
	Results []search.Result `json:"results"`
}

func (c *Client) Name() search.Identity { return search.XAI }

func (c *Client) Search(ctx context.Context, query string, count int) ([]search.Result, error) {
	count = search.CapCount(count, MaxCount)

	req := chatRequest{
		Model: c.model,
		Messages: []message{
			{Role: "system", Content: fmt.Sprintf(systemPrompt, count)},
			{Role: "user", Content: query},
		},
		SearchParameters: searchParameters{
			Mode:             "on",
			Sources:          []searchSource{{Type: "web"}},
			ReturnCitations:  true,
			MaxSearchResults: count,
		},
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	respBody, status, err := search.DoRequest(c.client, httpReq)
	if err != nil {
		return nil, err
	}
	if !search.IsSuccess(status) {
		return nil, search.HandleHTTPError(status, respBody, c.logger, search.XAI)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if chatResp.Error != nil {
		return nil, fmt.Errorf("%w: %s", search.ErrSearchFailed, chatResp.Error.Message)
	}

	var content string
	if len(chatResp.Choices) > 0 {
		content = chatResp.Choices[0].Message.Content
	}

	results := parseAnswer(content, count)
	if len(results) == 0 {
		results = fromCitations(chatResp.Citations, count)
	}

	c.logger.Debug("xai search completed",
		zap.Int("requested", count),
		zap.Int("results", len(results)),
		zap.Int("citations", len(chatResp.Citations)),
	)

	return results, nil
}

// parseAnswer достаёт {"results":[...]} из ответа модели.
// Модель любит оборачивать JSON в ```json ... ``` или добавлять текст вокруг.
func parseAnswer(content string, count int) []search.Result {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return nil
	}

	var a answer
	if err := json.Unmarshal([]byte(content[start:end+1]), &a); err != nil {
		return nil
	}

	out := make([]search.Result, 0, len(a.Results))
	for _, r := range a.Results {
		if len(out) >= count {
			break
		}
		r.URL = strings.TrimSpace(r.URL)
		if r.URL == "" {
			continue
		}
		r.Title = strings.TrimSpace(r.Title)
		r.Snippet = strings.TrimSpace(r.Snippet)
		out = append(out, r)
	}
	return out
}

func fromCitations(citations []string, count int) []search.Result {
	out := make([]search.Result, 0, len(citations))
	for _, u := range citations {
		if len(out) >= count {
			break
		}
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		out = append(out, search.Result{Title: u, URL: u})
	}
	return out
}
