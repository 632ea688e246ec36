// Package server exposes the relay over HTTP: the Telegram webhook, webhook
// administration and health probes.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dharsanguruparan/ReelRelay/internal/config"
	"github.com/dharsanguruparan/ReelRelay/internal/model"
	"github.com/dharsanguruparan/ReelRelay/internal/relay"
	"github.com/dharsanguruparan/ReelRelay/internal/signing"
	"github.com/dharsanguruparan/ReelRelay/internal/telegram"
)

// maxUpdateBytes caps an inbound update body. Real updates are a few KiB.
const maxUpdateBytes = 1 << 20

// UpdateHandler acts on one decoded update.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, requestID string, u model.Update) relay.Kind
}

// Registrar manages the webhook registration on Telegram's side.
type Registrar interface {
	SetWebhook(ctx context.Context, url, secretToken string) (*tgbotapi.APIResponse, error)
	WebhookInfo(ctx context.Context) (*tgbotapi.APIResponse, error)
}

// Server hosts the HTTP handlers.
type Server struct {
	cfg       *config.Config
	updates   UpdateHandler
	registrar Registrar
	signer    *signing.Signer
	logger    zerolog.Logger
	now       func() time.Time
}

// New creates a configured server.
func New(cfg *config.Config, updates UpdateHandler, registrar Registrar, signer *signing.Signer, logger zerolog.Logger) *Server {
	return &Server{
		cfg:       cfg,
		updates:   updates,
		registrar: registrar,
		signer:    signer,
		logger:    logger,
		now:       time.Now,
	}
}

// Serve runs the HTTP server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.cfg.Address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()
	s.logger.Info().Str("addr", s.cfg.Address).Msg("relay listening")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(telegram.WebhookPath, s.recoverMiddleware(http.HandlerFunc(s.handleWebhook)))
	mux.HandleFunc("/api/set-webhook", s.handleSetWebhook)
	mux.HandleFunc("/api/webhook-info", s.handleWebhookInfo)
	mux.HandleFunc("/api/health", s.handleHealth)
	return corsMiddleware(s.loggingMiddleware(mux))
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		respondJSON(w, http.StatusOK, map[string]string{"status": "Telegram webhook is running"})
	case http.MethodPost:
		s.handleUpdate(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if !s.signer.Validate(s.cfg.Telegram.BotToken, r.Header.Get(signing.HeaderName)) {
		s.logger.Warn().Str("remote", r.RemoteAddr).Msg("webhook secret token mismatch")
		respondJSON(w, http.StatusUnauthorized, map[string]string{"status": "unauthorized"})
		return
	}
	requestID := uuid.NewString()
	log := s.logger.With().Str("request_id", requestID).Logger()

	// Anything short of a panic is acknowledged with 200 so Telegram does not
	// redeliver the update.
	var raw tgbotapi.Update
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUpdateBytes)).Decode(&raw); err != nil {
		log.Warn().Err(err).Msg("undecodable update ignored")
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	update, ok := model.FromTelegram(raw)
	if !ok {
		log.Debug().Int("update_id", raw.UpdateID).Msg("update without message ignored")
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	log = log.With().Int64("chat_id", update.ChatID).Logger()
	kind := s.updates.HandleUpdate(log.WithContext(r.Context()), requestID, update)
	log.Info().Stringer("kind", kind).Int("update_id", update.UpdateID).Msg("update handled")
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSetWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	webhookURL := telegram.WebhookURL(s.callbackHost(r))
	resp, err := s.registrar.SetWebhook(r.Context(), webhookURL, s.signer.Token(s.cfg.Telegram.BotToken))
	if failure := registrationFailure(resp, err); failure != nil {
		s.logger.Error().Err(failure).Str("webhook_url", webhookURL).Msg("set webhook failed")
		respondJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": failure.Error()})
		return
	}
	s.logger.Info().Str("webhook_url", webhookURL).Bool("ok", resp.Ok).Msg("webhook registered")
	respondJSON(w, http.StatusOK, map[string]any{
		"success":           resp.Ok,
		"webhook_url":       webhookURL,
		"telegram_response": resp,
	})
}

func (s *Server) handleWebhookInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	resp, err := s.registrar.WebhookInfo(r.Context())
	if failure := registrationFailure(resp, err); failure != nil {
		s.logger.Error().Err(failure).Msg("get webhook info failed")
		respondJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": failure.Error()})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success":      resp.Ok,
		"webhook_info": resp,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": s.now().UTC().Format(time.RFC3339),
	})
}

// callbackHost prefers the Host header of the registering request, then the
// configured public host. WebhookURL supplies the placeholder.
func (s *Server) callbackHost(r *http.Request) string {
	if r.Host != "" {
		return r.Host
	}
	return s.cfg.Telegram.PublicHost
}

// registrationFailure separates transport failures from Telegram answering
// ok=false. The latter still carries a response worth showing to the caller.
func registrationFailure(resp *tgbotapi.APIResponse, err error) error {
	if err != nil && !telegram.IsAPIError(err) {
		return err
	}
	if resp == nil {
		if err != nil {
			return err
		}
		return errors.New("telegram returned an empty response")
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
