package notification

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"lead-consultant/internal/common/config"
	apperrors "lead-consultant/internal/common/errors"
	commonhttp "lead-consultant/internal/common/http"
	"lead-consultant/internal/common/logger"
	"lead-consultant/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// BotAPI is the part of *tgbotapi.BotAPI the Telegram channel uses.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetMe() (tgbotapi.User, error)
}

// TelegramChannel posts applications as plain text messages to one chat.
type TelegramChannel struct {
	bot     BotAPI
	chatID  string
	enabled bool
	now     func() time.Time
}

// NewTelegramChannel wraps an already authorized bot. A nil bot or an empty
// chat id yields a disabled channel.
func NewTelegramChannel(bot BotAPI, chatID string) *TelegramChannel {
	return &TelegramChannel{
		bot:     bot,
		chatID:  strings.TrimSpace(chatID),
		enabled: bot != nil && strings.TrimSpace(chatID) != "",
		now:     time.Now,
	}
}

// NewTelegramChannelFromConfig authorizes the bot with getMe. Any failure is
// logged and leaves the channel disabled, so startup never depends on
// Telegram being reachable.
func NewTelegramChannelFromConfig(cfg config.TelegramConfig, timeout time.Duration, log logger.Logger) *TelegramChannel {
	if !cfg.Enabled {
		log.Warn("telegram notifications disabled in config", nil)
		return NewTelegramChannel(nil, cfg.ChatID)
	}
	if cfg.BotToken == "" || cfg.ChatID == "" {
		log.Warn("telegram enabled but bot token or chat id missing", nil)
		return NewTelegramChannel(nil, cfg.ChatID)
	}

	bot, err := NewBot(cfg, timeout)
	if err != nil {
		log.Warn("telegram bot authorization failed, channel disabled", map[string]interface{}{
			"error": err,
		})
		return NewTelegramChannel(nil, cfg.ChatID)
	}

	log.Info("telegram bot authorized", map[string]interface{}{"bot": bot.Self.UserName})
	return NewTelegramChannel(bot, cfg.ChatID)
}

// NewBot authorizes against the Bot API through a timeout bound client.
func NewBot(cfg config.TelegramConfig, timeout time.Duration) (*tgbotapi.BotAPI, error) {
	endpoint := cfg.APIEndpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	return tgbotapi.NewBotAPIWithClient(cfg.BotToken, endpoint, commonhttp.NewClient(timeout))
}

// UpdatesSource is implemented by *tgbotapi.BotAPI.
type UpdatesSource interface {
	GetUpdates(config tgbotapi.UpdateConfig) ([]tgbotapi.Update, error)
}

// ChannelChats lists the channels that appear in the bot's pending updates,
// in order of first appearance. Posting anything to the channel after adding
// the bot makes it show up here.
func ChannelChats(src UpdatesSource) ([]tgbotapi.Chat, error) {
	updates, err := src.GetUpdates(tgbotapi.NewUpdate(0))
	if err != nil {
		return nil, fmt.Errorf("telegram getUpdates: %w", err)
	}

	seen := map[int64]bool{}
	var chats []tgbotapi.Chat
	for _, u := range updates {
		if u.ChannelPost == nil || u.ChannelPost.Chat == nil {
			continue
		}
		chat := *u.ChannelPost.Chat
		if seen[chat.ID] {
			continue
		}
		seen[chat.ID] = true
		chats = append(chats, chat)
	}
	return chats, nil
}

func (t *TelegramChannel) Name() string  { return ChannelTelegram }
func (t *TelegramChannel) Enabled() bool { return t.enabled }

func (t *TelegramChannel) Send(ctx context.Context, app models.Application, sessionID string) error {
	doc := BuildDocument(app, sessionID, t.now())
	return t.post(ctx, doc.Text())
}

// Check calls getMe.
func (t *TelegramChannel) Check(ctx context.Context) error {
	if !t.enabled {
		return apperrors.NewChannelDisabledError(ChannelTelegram)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := t.bot.GetMe(); err != nil {
		return fmt.Errorf("telegram getMe: %w", err)
	}
	return nil
}

// SendTest posts a test message to the configured chat.
func (t *TelegramChannel) SendTest(ctx context.Context) error {
	return t.post(ctx, "Тестовое сообщение от ИИ-консультанта BBKinvest")
}

func (t *TelegramChannel) post(ctx context.Context, text string) error {
	if !t.enabled {
		return apperrors.NewChannelDisabledError(ChannelTelegram)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := t.message(text)
	msg.DisableWebPagePreview = true

	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram sendMessage: %w", err)
	}
	return nil
}

// message addresses a numeric chat id directly and "@channel" by username.
func (t *TelegramChannel) message(text string) tgbotapi.MessageConfig {
	if id, err := strconv.ParseInt(t.chatID, 10, 64); err == nil {
		return tgbotapi.NewMessage(id, text)
	}
	return tgbotapi.NewMessageToChannel(t.chatID, text)
}
