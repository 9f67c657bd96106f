package alerting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/slack-go/slack"

	"github.com/seenimoa/newspulse/internal/config"
	"github.com/seenimoa/newspulse/internal/logging"
)

// ErrNotConfigured is returned by a notifier that lacks a token or channel.
var ErrNotConfigured = errors.New("alert channel not configured")

// Notifier delivers one alert message.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// ── Slack ──

// SlackNotifier posts to a channel with chat.postMessage.
type SlackNotifier struct {
	client  *slack.Client
	channel string
}

// NewSlackNotifier builds a notifier for token and channel. apiURL overrides
// the Slack API base (must end in "/"); empty uses the public endpoint.
func NewSlackNotifier(token, channel, apiURL string) *SlackNotifier {
	var opts []slack.Option
	if apiURL != "" {
		if !strings.HasSuffix(apiURL, "/") {
			apiURL += "/"
		}
		opts = append(opts, slack.OptionAPIURL(apiURL))
	}
	return &SlackNotifier{client: slack.New(token, opts...), channel: channel}
}

// Notify posts message as plain text.
func (s *SlackNotifier) Notify(ctx context.Context, message string) error {
	if _, _, err := s.client.PostMessageContext(ctx, s.channel, slack.MsgOptionText(message, false)); err != nil {
		return fmt.Errorf("slack %s: %w", s.channel, err)
	}
	return nil
}

// ── Telegram ──

// TelegramSender is the part of *tgbotapi.BotAPI the notifier uses.
type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier sends to a chat id or a public @channel. The bot is
// created on first use because tgbotapi validates the token over the network.
type TelegramNotifier struct {
	token string
	chat  string

	mu     sync.Mutex
	sender TelegramSender
}

// NewTelegramNotifier builds a notifier for token and chat.
func NewTelegramNotifier(token, chat string) *TelegramNotifier {
	return &TelegramNotifier{token: token, chat: chat}
}

// NewTelegramNotifierWithSender uses an existing sender.
func NewTelegramNotifierWithSender(sender TelegramSender, chat string) *TelegramNotifier {
	return &TelegramNotifier{chat: chat, sender: sender}
}

func (t *TelegramNotifier) bot() (TelegramSender, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sender != nil {
		return t.sender, nil
	}
	b, err := tgbotapi.NewBotAPI(t.token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	t.sender = b
	return b, nil
}

// Notify sends message. ctx is checked before sending; tgbotapi has no
// context-aware send.
func (t *TelegramNotifier) Notify(ctx context.Context, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	bot, err := t.bot()
	if err != nil {
		return err
	}
	msg, err := telegramMessage(t.chat, message)
	if err != nil {
		return err
	}
	if _, err := bot.Send(msg); err != nil {
		return fmt.Errorf("telegram %s: %w", t.chat, err)
	}
	return nil
}

func telegramMessage(chat, text string) (tgbotapi.MessageConfig, error) {
	if strings.HasPrefix(chat, "@") {
		return tgbotapi.NewMessageToChannel(chat, text), nil
	}
	id, err := strconv.ParseInt(chat, 10, 64)
	if err != nil {
		return tgbotapi.MessageConfig{}, fmt.Errorf("telegram chat %q: want numeric id or @channel", chat)
	}
	return tgbotapi.NewMessage(id, text), nil
}

// ── Composition ──

// MultiNotifier fans a message out to every notifier and joins the errors.
// Unconfigured members only count when no member delivered the message.
type MultiNotifier []Notifier

// Notify tries every notifier.
func (m MultiNotifier) Notify(ctx context.Context, message string) error {
	var errs, unconfigured []error
	delivered := false
	for _, n := range m {
		err := n.Notify(ctx, message)
		switch {
		case err == nil:
			delivered = true
		case errors.Is(err, ErrNotConfigured):
			unconfigured = append(unconfigured, err)
		default:
			errs = append(errs, err)
		}
	}
	if !delivered {
		errs = append(errs, unconfigured...)
	}
	return errors.Join(errs...)
}

// Unconfigured is a notifier that always reports ErrNotConfigured.
type Unconfigured struct {
	Channel string
	Reason  string
}

// Notify returns ErrNotConfigured.
func (u Unconfigured) Notify(context.Context, string) error {
	return fmt.Errorf("%s: %w (%s)", u.Channel, ErrNotConfigured, u.Reason)
}

// NewNotifierFromConfig builds the notifier named by alerts.notifier. A
// missing token or channel yields an Unconfigured notifier; "none" yields nil.
func NewNotifierFromConfig(cfg config.AlertsConfig, logger *slog.Logger) Notifier {
	logger = logging.OrDefault(logger)
	switch strings.ToLower(cfg.Notifier) {
	case "", "none":
		return nil
	case "telegram":
		if cfg.Telegram.BotToken == "" || cfg.Telegram.ChatID == "" {
			logger.Warn("alert channel not configured", slog.String("notifier", "telegram"))
			return Unconfigured{Channel: "telegram", Reason: "bot token or chat id missing"}
		}
		return NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	default:
		if cfg.Slack.BotToken == "" || cfg.Slack.Channel == "" {
			logger.Warn("alert channel not configured", slog.String("notifier", "slack"))
			return Unconfigured{Channel: "slack", Reason: "bot token or channel missing"}
		}
		return NewSlackNotifier(cfg.Slack.BotToken, cfg.Slack.Channel, cfg.Slack.APIURL)
	}
}
