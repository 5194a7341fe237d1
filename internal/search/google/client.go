package google

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kitbuilder587/websearch/internal/search"
)

// MaxCount - Custom Search JSON API отдаёт максимум 10 за запрос
const MaxCount = 10

type Config struct {
	APIKey   string
	EngineID string // cx
	BaseURL  string
	Timeout  time.Duration
}

type Client struct {
	apiKey   string
	engineID string
	baseURL  string
	client   *http.Client
	logger   *zap.Logger
}

func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://www.googleapis.com"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}

	return &Client{
		apiKey:   cfg.APIKey,
		engineID: cfg.EngineID,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		client:   &http.Client{Timeout: cfg.Timeout},
		logger:   logger,
	}
}

type googleResponse struct {
	Items []googleItem `json:"items"`
	Error *apiError    `json:"error,omitempty"`
}

type googleItem struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (c *Client) Name() search.Identity { return search.Google }

func (c *Client) Search(ctx context.Context, query string, count int) ([]search.Result, error) {
	count = search.CapCount(count, MaxCount)

	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("cx", c.engineID)
	params.Set("q", query)
	params.Set("num", strconv.Itoa(count))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/customsearch/v1?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	body, status, err := search.DoRequest(c.client, httpReq)
	if err != nil {
		return nil, err
	}
	if !search.IsSuccess(status) {
		return nil, search.HandleHTTPError(status, body, c.logger, search.Google)
	}

	var parsed googleResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("%w: %s", search.ErrSearchFailed, parsed.Error.Message)
	}

	// items отсутствует, если ничего не нашлось - это не ошибка
	results := make([]search.Result, 0, len(parsed.Items))
	for _, it := range parsed.Items {
		if len(results) >= count {
			break
		}
		results = append(results, search.Result{
			Title:   strings.TrimSpace(it.Title),
			URL:     strings.TrimSpace(it.Link),
			Snippet: strings.TrimSpace(it.Snippet),
		})
	}

	c.logger.Debug("google search completed",
		zap.Int("requested", count),
		zap.Int("results", len(results)),
	)

	return results, nil
}
