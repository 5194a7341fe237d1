package mock

import (
	"context"
	"sync"
	"time"

	"github.com/kitbuilder587/websearch/internal/search"
)

type Call struct {
	Query string
	Count int
}

// Client - скриптуемый бэкенд для тестов оркестратора и транспортов.
type Client struct {
	ID      search.Identity
	Results []search.Result
	Error   error
	Delay   time.Duration

	CallCount int
	LastCall  Call
	AllCalls  []Call

	mu sync.Mutex
}

func New(id search.Identity) *Client {
	return &Client{ID: id}
}

func (c *Client) WithResults(results []search.Result) *Client {
	c.Results = results
	return c
}

func (c *Client) WithError(err error) *Client {
	c.Error = err
	return c
}

func (c *Client) WithDelay(delay time.Duration) *Client {
	c.Delay = delay
	return c
}

func (c *Client) Name() search.Identity {
	return c.ID
}

func (c *Client) Search(ctx context.Context, query string, count int) ([]search.Result, error) {
	c.mu.Lock()
	c.CallCount++
	c.LastCall = Call{Query: query, Count: count}
	c.AllCalls = append(c.AllCalls, c.LastCall)
	delay := c.Delay
	err := c.Error
	results := c.Results
	c.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	if err != nil {
		return nil, err
	}

	out := make([]search.Result, len(results))
	copy(out, results)
	return out, nil
}

func (c *Client) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.CallCount
}

func (c *Client) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.CallCount = 0
	c.LastCall = Call{}
	c.AllCalls = nil
}
