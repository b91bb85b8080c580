// Package telegram delivers drawdown alerts via the Telegram Bot API.
// Significant events are formatted into a MarkdownV2 message and sent with
// retry and linear backoff, since a missed alert is worse than a late one.
package telegram

import (
	"fmt"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/hydrolab/drawdown/internal/drawdown"
)

// Client handles Telegram notifications
type Client struct {
	bot            *tgbotapi.BotAPI
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
}

// NewClient creates a new Telegram client
func NewClient(botToken, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}

	return &Client{
		bot:            bot,
		chatID:         chatIDInt,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}, nil
}

// SendAlerts sends a notification for significant drawdown events detected
// in the named source.
func (c *Client) SendAlerts(source string, events []drawdown.Event) error {
	if len(events) == 0 {
		return nil
	}

	msg := tgbotapi.NewMessage(c.chatID, formatMessage(source, events))
	msg.ParseMode = "MarkdownV2"

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		_, err := c.bot.Send(msg)
		if err == nil {
			return nil
		}
		lastErr = err
		time.Sleep(c.retryDelayBase * time.Duration(i+1))
	}

	return fmt.Errorf("failed to send message after %d retries: %w", c.maxRetries, lastErr)
}

// formatMessage formats drawdown events into a Telegram message
func formatMessage(source string, events []drawdown.Event) string {
	message := "💧 *Significant Drawdowns Detected*\n\n"
	message += fmt.Sprintf("📄 Source: %s\n\n", escapeMarkdownV2(source))

	for i, e := range events {
		magnitudeStr := escapeMarkdownV2(fmt.Sprintf("%.2f", e.Magnitude))
		peakStr := escapeMarkdownV2(fmt.Sprintf("%.2f", e.PeakValue))
		troughStr := escapeMarkdownV2(fmt.Sprintf("%.2f", e.TroughValue))

		message += fmt.Sprintf("%d\\. Magnitude *%s* \\(%s → %s\\)\n", i+1, magnitudeStr, peakStr, troughStr)
		message += fmt.Sprintf("   ⏱ Steps %d–%d, draining %d, filling %d\n",
			e.PeakIndex, e.RecoveryIndex, e.Draining, e.Filling)
		if !e.Resolved {
			message += "   ⚠️ Still unresolved at end of record\n"
		}
		message += "\n"
	}

	return message
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2
func escapeMarkdownV2(text string) string {
	result := ""
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!':
			result += "\\" + string(char)
		default:
			result += string(char)
		}
	}
	return result
}
