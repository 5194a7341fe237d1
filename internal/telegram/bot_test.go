package telegram

import (
	"context"
	"strings"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/kitbuilder587/websearch/internal/metrics"
	"github.com/kitbuilder587/websearch/internal/provider"
	"github.com/kitbuilder587/websearch/internal/search"
	"github.com/kitbuilder587/websearch/internal/tool"
)

type TrackingSearcher struct {
	mu        sync.Mutex
	CallCount int
	LastInput tool.Input
	Output    tool.Output
	PanicWith interface{}
}

func (s *TrackingSearcher) Run(ctx context.Context, in tool.Input) tool.Output {
	s.mu.Lock()
	s.CallCount++
	s.LastInput = in
	s.mu.Unlock()

	if s.PanicWith != nil {
		panic(s.PanicWith)
	}
	if s.Output.Content == "" && s.Output.Data == nil {
		return tool.Output{
			Content: "ok",
			Data: &tool.Payload{
				Provider:    "brave",
				Query:       in.Query,
				ResultCount: 1,
				Results:     []search.Result{{Title: "Go", URL: "https://go.dev", Snippet: "The Go language"}},
			},
		}
	}
	return s.Output
}

type MockProviders struct {
	Configured []search.Identity
}

func (m *MockProviders) Providers(override *provider.Credentials) []search.Identity {
	return m.Configured
}

type sentMessage struct {
	ChatID int64
	Text   string
}

func createTestBot(searcher *TrackingSearcher, rpm int) (*Bot, *[]sentMessage) {
	bot := newBot(
		BotConfig{RequestsPerMinute: rpm},
		searcher,
		&MockProviders{Configured: []search.Identity{search.Brave}},
		zap.NewNop(),
		nil,
	)

	var sent []sentMessage
	bot.send = func(chatID int64, text string) error {
		sent = append(sent, sentMessage{ChatID: chatID, Text: text})
		return nil
	}
	return bot, &sent
}

func TestBot_SendWithoutAPI(t *testing.T) {
	bot := newBot(BotConfig{}, &TrackingSearcher{}, &MockProviders{}, zap.NewNop(), nil)

	if err := bot.Send(1, "hello"); err != nil {
		t.Errorf("Send() without api should be a no-op, got %v", err)
	}
	bot.SendTyping(1)
	bot.RecordRateLimitHit()
}

func TestBot_PerUserRateLimit(t *testing.T) {
	searcher := &TrackingSearcher{}
	bot, sent := createTestBot(searcher, 2)

	for i := 0; i < 3; i++ {
		bot.handler.HandleMessage(context.Background(), createTestMessage(1, "golang"))
	}

	if searcher.CallCount != 2 {
		t.Errorf("CallCount = %d, want 2", searcher.CallCount)
	}

	last := (*sent)[len(*sent)-1].Text
	if !strings.HasPrefix(last, "Слишком много запросов") {
		t.Errorf("last message = %q, want rate limit notice", last)
	}

	// другой пользователь со своим бакетом
	bot.handler.HandleMessage(context.Background(), createTestMessage(2, "golang"))
	if searcher.CallCount != 3 {
		t.Errorf("CallCount = %d, want 3 after another user", searcher.CallCount)
	}
}

func TestBot_RateLimitMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	searcher := &TrackingSearcher{}
	bot, _ := createTestBot(searcher, 1)
	bot.metrics = m

	bot.handler.HandleMessage(context.Background(), createTestMessage(1, "q"))
	bot.handler.HandleMessage(context.Background(), createTestMessage(1, "q"))

	if got := testutil.ToFloat64(m.TelegramRateLimitHitsTotal); got != 1 {
		t.Errorf("rate limit hits = %v, want 1", got)
	}
}

func TestBot_HandleUpdateRecoversPanic(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	searcher := &TrackingSearcher{PanicWith: "boom"}
	bot, _ := createTestBot(searcher, 10)
	bot.metrics = m

	bot.handleUpdate(context.Background(), tgbotapi.Update{Message: createTestMessage(1, "q")})

	if got := testutil.ToFloat64(m.TelegramMessagesTotal.WithLabelValues("query", "panic")); got != 1 {
		t.Errorf("panic counter = %v, want 1", got)
	}
}

func TestBot_HandleUpdateRecordsProcessed(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	bot, _ := createTestBot(&TrackingSearcher{}, 10)
	bot.metrics = m

	bot.handleUpdate(context.Background(), tgbotapi.Update{Message: createCommandMessage(1, "/help")})

	if got := testutil.ToFloat64(m.TelegramMessagesTotal.WithLabelValues("command", "processed")); got != 1 {
		t.Errorf("processed counter = %v, want 1", got)
	}
}

func TestBotConfig_DefaultValues(t *testing.T) {
	bot := newBot(BotConfig{}, &TrackingSearcher{}, &MockProviders{}, zap.NewNop(), nil)

	if got := bot.rateLimiter.Tokens("1"); got != 10 {
		t.Errorf("default per-user burst = %v, want 10", got)
	}
}
