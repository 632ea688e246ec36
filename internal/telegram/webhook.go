package telegram

import "strings"

const (
	// WebhookPath is where the relay receives updates.
	WebhookPath = "/api/webhook"
	// PlaceholderHost is used when no host is known at registration time.
	PlaceholderHost = "your-domain.vercel.app"
)

// WebhookURL builds the callback URL for host. Telegram only delivers to
// HTTPS endpoints, so the scheme is fixed. The result depends on host alone,
// which keeps registration idempotent.
func WebhookURL(host string) string {
	host = strings.TrimSpace(host)
	host = strings.TrimPrefix(host, "https://")
	host = strings.TrimPrefix(host, "http://")
	host = strings.TrimSuffix(host, "/")
	if host == "" {
		host = PlaceholderHost
	}
	return "https://" + host + WebhookPath
}
