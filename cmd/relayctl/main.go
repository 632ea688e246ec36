package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dharsanguruparan/ReelRelay/internal/config"
	"github.com/dharsanguruparan/ReelRelay/internal/signing"
	"github.com/dharsanguruparan/ReelRelay/internal/telegram"
)

// errNoHost stops the CLI from registering the placeholder domain.
var errNoHost = errors.New("no public host: pass --host or set PUBLIC_HOST")

// webhookAdmin is the slice of the Telegram client the CLI drives.
type webhookAdmin interface {
	SetWebhook(ctx context.Context, url, secretToken string) (*tgbotapi.APIResponse, error)
	WebhookInfo(ctx context.Context) (*tgbotapi.APIResponse, error)
	DeleteWebhook(ctx context.Context) (*tgbotapi.APIResponse, error)
}

// connectFunc loads configuration and dials the Bot API.
type connectFunc func() (webhookAdmin, *config.Config, error)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCommand(connect)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "relayctl: %v\n", err)
		os.Exit(1)
	}
}

func connect() (webhookAdmin, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.ValidateTelegram(); err != nil {
		return nil, nil, err
	}
	client, err := telegram.New(cfg.Telegram, zerolog.Nop())
	if err != nil {
		return nil, nil, err
	}
	return client, cfg, nil
}

func newRootCommand(dial connectFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "relayctl",
		Short: "Video relay administration CLI",
		Long: `relayctl manages the Telegram webhook registration of the video relay bot
without going through the HTTP admin endpoints.`,
		SilenceUsage: true,
	}
	cmd.AddCommand(newWebhookCmd(dial))
	return cmd
}

func newWebhookCmd(dial connectFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webhook",
		Short: "Inspect or change the bot's webhook",
	}
	cmd.AddCommand(
		newWebhookSetCmd(dial),
		newWebhookInfoCmd(dial),
		newWebhookDeleteCmd(dial),
	)
	return cmd
}

func newWebhookSetCmd(dial connectFunc) *cobra.Command {
	var host string
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Point the bot's webhook at the given host",
		RunE: func(cmd *cobra.Command, args []string) error {
			admin, cfg, err := dial()
			if err != nil {
				return err
			}
			if host == "" {
				host = cfg.Telegram.PublicHost
			}
			if strings.TrimSpace(host) == "" {
				return errNoHost
			}
			webhookURL := telegram.WebhookURL(host)
			signer := signing.NewSigner([]byte(cfg.Telegram.WebhookSecret))
			resp, err := admin.SetWebhook(cmd.Context(), webhookURL, signer.Token(cfg.Telegram.BotToken))
			if err != nil && !telegram.IsAPIError(err) {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"success":           resp != nil && resp.Ok,
				"webhook_url":       webhookURL,
				"telegram_response": resp,
			})
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "Public host serving the relay (defaults to PUBLIC_HOST or VERCEL_URL)")
	return cmd
}

func newWebhookInfoCmd(dial connectFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the current webhook registration",
		RunE: func(cmd *cobra.Command, args []string) error {
			admin, _, err := dial()
			if err != nil {
				return err
			}
			resp, err := admin.WebhookInfo(cmd.Context())
			if err != nil && !telegram.IsAPIError(err) {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"success":      resp != nil && resp.Ok,
				"webhook_info": resp,
			})
		},
	}
}

func newWebhookDeleteCmd(dial connectFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "delete",
		Short: "Remove the webhook so updates stop being pushed",
		RunE: func(cmd *cobra.Command, args []string) error {
			admin, _, err := dial()
			if err != nil {
				return err
			}
			resp, err := admin.DeleteWebhook(cmd.Context())
			if err != nil && !telegram.IsAPIError(err) {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"success":           resp != nil && resp.Ok,
				"telegram_response": resp,
			})
		},
	}
}

func printJSON(w io.Writer, payload any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}
