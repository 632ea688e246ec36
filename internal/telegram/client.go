// Package telegram talks to the Telegram Bot API: replies to chats, resolves
// file ids to download URLs and manages the webhook registration.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/dharsanguruparan/ReelRelay/internal/config"
	"github.com/dharsanguruparan/ReelRelay/internal/logging"
	"github.com/dharsanguruparan/ReelRelay/internal/model"
)

var (
	// ErrNoFilePath is returned when getFile answers without a file_path,
	// which happens for files above the Bot API download limit.
	ErrNoFilePath = errors.New("telegram: getFile returned no file_path")
	// ErrEmptyFileID rejects a resolve call before it reaches the network.
	ErrEmptyFileID = errors.New("telegram: empty file id")
)

// Client wraps tgbotapi.BotAPI. It is safe for concurrent use: BotAPI holds
// no per-request state and http.Client is goroutine safe.
type Client struct {
	bot          *tgbotapi.BotAPI
	fileEndpoint string
	logger       zerolog.Logger
}

// New authenticates against the Bot API (getMe) and returns a Client.
func New(cfg config.TelegramConfig, logger zerolog.Logger) (*Client, error) {
	if cfg.BotToken == "" {
		return nil, errors.New("telegram: bot token is required")
	}
	httpClient := &http.Client{Timeout: cfg.RequestTimeout}
	bot, err := tgbotapi.NewBotAPIWithClient(cfg.BotToken, cfg.APIEndpoint, httpClient)
	if err != nil {
		return nil, fmt.Errorf("telegram: authorize bot: %w", err)
	}
	logger.Info().Str("username", bot.Self.UserName).Msg("telegram bot authorized")
	return &Client{
		bot:          bot,
		fileEndpoint: cfg.FileEndpoint,
		logger:       logger,
	}, nil
}

// Username returns the bot's @handle as reported by getMe.
func (c *Client) Username() string {
	return c.bot.Self.UserName
}

// Notify sends text to chatID. Failures are logged and swallowed: the chat may
// be gone (bot blocked, chat deleted) and nothing upstream can act on it.
func (c *Client) Notify(ctx context.Context, chatID int64, text string) {
	if _, err := c.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		log := logging.FromContext(ctx, c.logger)
		log.Warn().Err(err).Int64("chat_id", chatID).Msg("send message failed")
	}
}

// ResolveFile turns a file id into a download URL. The URL embeds the bot
// token and stays valid for at least an hour per Bot API docs.
func (c *Client) ResolveFile(_ context.Context, fileID string) (model.MediaReference, error) {
	if fileID == "" {
		return model.MediaReference{}, ErrEmptyFileID
	}
	file, err := c.bot.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return model.MediaReference{}, fmt.Errorf("telegram: getFile %s: %w", fileID, err)
	}
	if file.FilePath == "" {
		return model.MediaReference{}, ErrNoFilePath
	}
	return model.MediaReference{
		FileID: fileID,
		URL:    fmt.Sprintf(c.fileEndpoint, c.bot.Token, file.FilePath),
	}, nil
}

// SetWebhook registers url as the update callback. secretToken is sent only
// when non-empty. The raw API response is returned even when Telegram rejects
// the call, alongside a *tgbotapi.Error.
func (c *Client) SetWebhook(_ context.Context, url, secretToken string) (*tgbotapi.APIResponse, error) {
	params := tgbotapi.Params{"url": url}
	params.AddNonEmpty("secret_token", secretToken)
	return c.bot.MakeRequest("setWebhook", params)
}

// WebhookInfo returns getWebhookInfo verbatim.
func (c *Client) WebhookInfo(_ context.Context) (*tgbotapi.APIResponse, error) {
	return c.bot.MakeRequest("getWebhookInfo", nil)
}

// DeleteWebhook removes the callback so the bot can fall back to polling.
func (c *Client) DeleteWebhook(_ context.Context) (*tgbotapi.APIResponse, error) {
	return c.bot.MakeRequest("deleteWebhook", nil)
}

// IsAPIError reports whether err is Telegram rejecting a well-formed request
// (ok=false) as opposed to a transport failure.
func IsAPIError(err error) bool {
	var apiErr *tgbotapi.Error
	return errors.As(err, &apiErr)
}
