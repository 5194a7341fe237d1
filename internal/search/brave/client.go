package brave

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

// MaxCount - потолок count у Brave Web Search API
const MaxCount = 20

type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.search.brave.com"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}

	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
	}
}

type braveResponse struct {
	Web struct {
		Results []braveResult `json:"results"`
	} `json:"web"`
}

type braveResult struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

func (c *Client) Name() search.Identity { return search.Brave }

func (c *Client) Search(ctx context.Context, query string, count int) ([]search.Result, error) {
	count = search.CapCount(count, MaxCount)

	params := url.Values{}
	params.Set("q", query)
	params.Set("count", strconv.Itoa(count))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/res/v1/web/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Subscription-Token", c.apiKey)

	body, status, err := search.DoRequest(c.client, httpReq)
	if err != nil {
		return nil, err
	}
	if !search.IsSuccess(status) {
		return nil, search.HandleHTTPError(status, body, c.logger, search.Brave)
	}

	var parsed braveResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	results := make([]search.Result, 0, len(parsed.Web.Results))
	for _, r := range parsed.Web.Results {
		if len(results) >= count {
			break
		}
		results = append(results, search.Result{
			Title:   strings.TrimSpace(r.Title),
			URL:     strings.TrimSpace(r.URL),
			Snippet: strings.TrimSpace(r.Description),
		})
	}

	c.logger.Debug("brave search completed",
		zap.Int("requested", count),
		zap.Int("results", len(results)),
	)

	return results, nil
}
