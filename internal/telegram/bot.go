// Package telegram is a Telegram front end for the converter service: every text
// message is treated as a booking code.
package telegram

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Vodeneev/slipconv/internal/api"
	"github.com/Vodeneev/slipconv/internal/pkg/config"
	"github.com/Vodeneev/slipconv/internal/pkg/validation"
)

// Converter is the part of ConverterClient the bot needs.
type Converter interface {
	Convert(ctx context.Context, bookingCode string) (*api.ConvertResponse, error)
}

type Bot struct {
	api     *tgbotapi.BotAPI
	conv    Converter
	allowed map[int64]bool
	timeout int
	logger  *slog.Logger
}

func NewBot(cfg config.TelegramConfig, conv Converter, logger *slog.Logger) (*Bot, error) {
	botAPI, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, err
	}
	botAPI.Debug = false
	if logger == nil {
		logger = slog.Default()
	}
	allowed := make(map[int64]bool, len(cfg.AllowedUserIDs))
	for _, id := range cfg.AllowedUserIDs {
		allowed[id] = true
	}
	logger.Info("Authorized on account", "username", botAPI.Self.UserName)
	return &Bot{api: botAPI, conv: conv, allowed: allowed, timeout: cfg.UpdateTimeout, logger: logger}, nil
}

// Run handles updates until ctx is cancelled. Each conversion runs in its own
// goroutine; Run waits for them before returning.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.timeout
	updates := b.api.GetUpdatesChan(u)

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil {
				continue
			}
			if !b.isAllowed(update.Message.From) {
				b.send(update.Message.Chat.ID, "Access denied. You are not authorized to use this bot.", false)
				continue
			}
			wg.Add(1)
			go func(msg *tgbotapi.Message) {
				defer wg.Done()
				b.handleMessage(ctx, msg)
			}(update.Message)
		}
	}
}

func (b *Bot) isAllowed(from *tgbotapi.User) bool {
	if len(b.allowed) == 0 {
		return true
	}
	return from != nil && b.allowed[from.ID]
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	text := strings.TrimSpace(message.Text)
	if text == "" {
		return
	}

	if strings.HasPrefix(text, "/") {
		switch strings.ToLower(strings.Fields(text)[0]) {
		case "/start", "/help":
			b.send(message.Chat.ID, helpText, true)
		default:
			b.send(message.Chat.ID, "Unknown command. Use /help to see available commands.", false)
		}
		return
	}

	code, err := validation.BookingCode(text)
	if err != nil {
		b.send(message.Chat.ID, "Send a booking code like 51GGAS. Use /help for details.", false)
		return
	}

	b.typing(message.Chat.ID)
	b.send(message.Chat.ID, "⏳ Converting "+escapeMarkdown(code)+"...", true)

	log := b.logger.With("chat_id", message.Chat.ID, "booking_code", code)
	res, err := b.conv.Convert(ctx, code)
	var msgs []string
	if err != nil {
		log.Warn("Conversion failed", "error", err)
		msgs = FormatError(code, err)
	} else {
		log.Info("Conversion succeeded", "converted_code", res.ConvertedCode)
		msgs = FormatResult(code, res)
	}
	for _, m := range msgs {
		b.send(message.Chat.ID, m, true)
	}
}

// typing shows the "typing..." indicator. Chat actions answer with a bare true,
// so they go through Request rather than Send.
func (b *Bot) typing(chatID int64) {
	if _, err := b.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		b.logger.Warn("Failed to send chat action", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) send(chatID int64, text string, markdown bool) {
	msg := tgbotapi.NewMessage(chatID, text)
	if markdown {
		msg.ParseMode = tgbotapi.ModeMarkdown
	}
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Warn("Failed to send message", "chat_id", chatID, "error", err)
	}
}
