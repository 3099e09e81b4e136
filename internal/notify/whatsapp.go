package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/linemk/gamekeys-shop/internal/config"
)

// WhatsApp - канал уведомления оператора магазина.
// Оператор вручную сверяет перевод по transaction id и выдаёт ключи.
type WhatsApp struct {
	log        *slog.Logger
	number     string
	webhookURL string
	client     *http.Client
}

func NewWhatsApp(log *slog.Logger, cfg config.NotifyConfig) *WhatsApp {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &WhatsApp{
		log:        log,
		number:     digitsOnly(cfg.WhatsAppNumber),
		webhookURL: cfg.WebhookURL,
		client:     &http.Client{Timeout: timeout},
	}
}

// Link строит deep link вида https://wa.me/<number>?text=<message>
func (w *WhatsApp) Link(message string) string {
	text := strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
	return "https://wa.me/" + w.number + "?text=" + text
}

type webhookPayload struct {
	Message string `json:"message"`
	Link    string `json:"link"`
}

// NotifyHuman отправляет сообщение оператору.
// Без webhook сообщение только пишется в лог, ссылку клиент откроет сам.
func (w *WhatsApp) NotifyHuman(ctx context.Context, message string) error {
	const op = "notify.WhatsApp.NotifyHuman"
	logger := w.log.With(slog.String("op", op))

	link := w.Link(message)
	if w.webhookURL == "" {
		logger.Info("operator notification", slog.String("link", link))
		return nil
	}

	body, err := json.Marshal(webhookPayload{Message: message, Link: link})
	if err != nil {
		return fmt.Errorf("%s: failed to marshal payload: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: failed to build request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		logger.Error("webhook request failed", slog.Any("error", err))
		return fmt.Errorf("%s: webhook request failed: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.Error("webhook rejected notification", slog.Int("status", resp.StatusCode))
		return fmt.Errorf("%s: webhook returned status %d", op, resp.StatusCode)
	}

	logger.Info("operator notified")
	return nil
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
