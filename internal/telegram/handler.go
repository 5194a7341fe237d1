package telegram

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/kitbuilder587/websearch/internal/tool"
)

type Handler struct {
	bot *Bot
}

func NewHandler(bot *Bot) *Handler {
	return &Handler{bot: bot}
}

func (h *Handler) HandleMessage(ctx context.Context, msg *tgbotapi.Message) {
	h.bot.logger.Debug("received message",
		zap.Int64("user_id", msg.From.ID),
		zap.String("username", msg.From.UserName),
		zap.Bool("is_command", msg.IsCommand()),
	)

	if msg.IsCommand() && !IsQueryCommand(msg.Command()) {
		h.handleCommand(ctx, msg)
		return
	}
	h.handleQuery(ctx, msg)
}

func (h *Handler) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start", "help":
		h.handleHelp(ctx, msg)
	case "providers":
		h.handleProviders(ctx, msg)
	default:
		h.bot.Send(msg.Chat.ID, "Неизвестная команда. Используйте /help для справки.")
	}
}

func (h *Handler) handleHelp(ctx context.Context, msg *tgbotapi.Message) {
	helpText := `<b>Доступные команды:</b>

/search запрос - Поиск в интернете
/google запрос - Искать только через Google
/brave запрос - Искать только через Brave
/xai запрос - Искать только через xAI
/providers - Какие провайдеры настроены
/help - Показать эту справку

<b>Как использовать:</b>
Просто отправьте текст - это тоже поиск. Провайдеры пробуются по очереди, пока один не ответит.
Ссылки на внутренние и приватные адреса из выдачи убираются.`

	h.bot.Send(msg.Chat.ID, helpText)
}

func (h *Handler) handleProviders(ctx context.Context, msg *tgbotapi.Message) {
	h.bot.Send(msg.Chat.ID, FormatProviders(h.bot.providers.Providers(nil)))
}

func (h *Handler) handleQuery(ctx context.Context, msg *tgbotapi.Message) {
	query, forced := ParseQueryCommand(msg.Text)
	if query == "" {
		h.bot.Send(msg.Chat.ID, "Пустой запрос. Например: /search golang generics")
		return
	}

	userKey := strconv.FormatInt(msg.From.ID, 10)
	if !h.bot.rateLimiter.Allow(userKey) {
		retry := h.bot.retryIn(userKey)
		h.bot.logger.Warn("rate limit exceeded",
			zap.Int64("user_id", msg.From.ID),
			zap.Duration("retry_in", retry),
		)
		h.bot.RecordRateLimitHit()
		h.bot.Send(msg.Chat.ID, fmt.Sprintf("Слишком много запросов. Попробуйте через %d сек.", int(retry.Seconds())))
		return
	}

	h.bot.SendTyping(msg.Chat.ID)

	out := h.bot.searcher.Run(ctx, tool.Input{
		Query:    query,
		Provider: forced.String(),
	})

	if out.IsError {
		h.bot.logger.Info("search failed",
			zap.Int64("user_id", msg.From.ID),
			zap.String("provider", forced.String()),
		)
		h.bot.Send(msg.Chat.ID, FormatFailure(out.Content))
		return
	}

	for _, m := range SplitMessage(FormatSearchResponse(out.Data), maxMessageLen) {
		if err := h.bot.Send(msg.Chat.ID, m); err != nil {
			h.bot.logger.Error("failed to send message", zap.Error(err))
		}
	}
}
