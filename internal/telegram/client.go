// Package telegram delivers calendar notifications via the Telegram Bot API.
// It renders events into plain-text messages (see Formatter) and sends each
// message with a single sendMessage call.
//
// Delivery is not retried: a failed call is returned to the caller, which aborts
// the invocation.
package telegram

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rewired-gh/calendarbot/internal/config"
)

// Client handles Telegram notifications
type Client struct {
	bot     *tgbotapi.BotAPI
	chatID  int64
	channel string // set instead of chatID for @channel targets
}

// NewClient creates a new Telegram client. Missing credentials fail with
// config.ErrMissingCredentials before anything touches the network.
// A nil httpClient gets one bounded by cfg.Timeout.
func NewClient(cfg config.TelegramConfig, httpClient tgbotapi.HTTPClient) (*Client, error) {
	token := strings.TrimSpace(cfg.BotToken)
	chat := strings.TrimSpace(cfg.ChatID)
	if token == "" || chat == "" {
		return nil, config.ErrMissingCredentials
	}

	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	// Built directly rather than with NewBotAPI, which calls getMe first.
	bot := &tgbotapi.BotAPI{
		Token:  token,
		Client: httpClient,
		Buffer: 100,
	}
	bot.SetAPIEndpoint(cfg.APIEndpoint)

	c := &Client{bot: bot}
	if strings.HasPrefix(chat, "@") {
		c.channel = chat
	} else {
		chatIDInt, err := strconv.ParseInt(chat, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid chat ID: %w", err)
		}
		c.chatID = chatIDInt
	}

	return c, nil
}

// Send sends one plain-text message with link previews disabled
func (c *Client) Send(text string) error {
	var msg tgbotapi.MessageConfig
	if c.channel != "" {
		msg = tgbotapi.NewMessageToChannel(c.channel, text)
	} else {
		msg = tgbotapi.NewMessage(c.chatID, text)
	}
	msg.DisableWebPagePreview = true

	if _, err := c.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send Telegram message: %w", err)
	}
	return nil
}

// Printer writes messages to w instead of sending them, for dry runs
type Printer struct {
	w io.Writer
}

// NewPrinter creates a Printer
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Send writes the message followed by a separator line
func (p *Printer) Send(text string) error {
	_, err := fmt.Fprintf(p.w, "%s\n-----\n", text)
	return err
}
