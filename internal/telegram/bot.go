package telegram

import (
	"context"
	"fmt"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/kitbuilder587/websearch/internal/metrics"
	"github.com/kitbuilder587/websearch/internal/provider"
	"github.com/kitbuilder587/websearch/internal/ratelimit"
	"github.com/kitbuilder587/websearch/internal/search"
	"github.com/kitbuilder587/websearch/internal/tool"
)

// Searcher - web_search тул в разобранном виде.
type Searcher interface {
	Run(ctx context.Context, in tool.Input) tool.Output
}

type ProviderLister interface {
	Providers(override *provider.Credentials) []search.Identity
}

type BotConfig struct {
	Token             string
	Debug             bool
	RequestsPerMinute int
}

type Bot struct {
	api         *tgbotapi.BotAPI
	searcher    Searcher
	providers   ProviderLister
	logger      *zap.Logger
	metrics     *metrics.Metrics
	handler     *Handler
	rateLimiter *ratelimit.Registry
	wg          sync.WaitGroup

	// send подменяется в тестах, по умолчанию шлёт через api
	send func(chatID int64, text string) error
}

func New(cfg BotConfig, searcher Searcher, providers ProviderLister, logger *zap.Logger, m *metrics.Metrics) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	api.Debug = cfg.Debug

	bot := newBot(cfg, searcher, providers, logger, m)
	bot.api = api

	logger.Info("telegram bot authorized",
		zap.String("username", api.Self.UserName),
	)

	return bot, nil
}

func newBot(cfg BotConfig, searcher Searcher, providers ProviderLister, logger *zap.Logger, m *metrics.Metrics) *Bot {
	rpm := float64(cfg.RequestsPerMinute)
	if rpm <= 0 {
		rpm = 10
	}

	bot := &Bot{
		searcher:  searcher,
		providers: providers,
		logger:    logger,
		metrics:   m,
		// rpm запросов подряд, дальше по rpm/60 в секунду
		rateLimiter: ratelimit.New(ratelimit.Config{
			MaxTokens:  rpm,
			RefillRate: rpm / 60,
		}),
	}
	bot.handler = NewHandler(bot)
	return bot
}

func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	b.logger.Info("bot started, waiting for updates")

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("bot stopping, waiting for handlers to finish")
			b.api.StopReceivingUpdates()
			b.wg.Wait()
			b.logger.Info("all handlers finished")
			return ctx.Err()
		case update := <-updates:
			if update.Message == nil || update.Message.From == nil {
				continue
			}
			b.wg.Add(1)
			go func(upd tgbotapi.Update) {
				defer b.wg.Done()
				b.handleUpdate(ctx, upd)
			}(update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	reqType := "query"
	if update.Message.IsCommand() {
		reqType = "command"
	}

	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("panic in update handler",
				zap.Any("panic", r),
				zap.Int64("chat_id", update.Message.Chat.ID),
			)
			b.recordMessage(reqType, "panic")
		}
	}()

	b.handler.HandleMessage(ctx, update.Message)
	b.recordMessage(reqType, "processed")
}

func (b *Bot) Send(chatID int64, text string) error {
	if b.send != nil {
		return b.send(chatID, text)
	}
	if b.api == nil {
		return nil
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "HTML"
	msg.DisableWebPagePreview = true
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) SendTyping(chatID int64) {
	if b.api == nil {
		return
	}
	action := tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)
	b.api.Send(action)
}

func (b *Bot) RecordRateLimitHit() {
	if b.metrics != nil {
		b.metrics.RecordRateLimitHit()
	}
}

func (b *Bot) recordMessage(reqType, status string) {
	if b.metrics != nil {
		b.metrics.RecordTelegramMessage(reqType, status)
	}
}

// retryIn - округлённое вверх время до следующего разрешённого запроса пользователя.
func (b *Bot) retryIn(key string) time.Duration {
	d := b.rateLimiter.RetryAfter(key)
	return d.Round(time.Second) + time.Second
}
