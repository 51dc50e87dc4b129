package notify

import (
	"context"
	"errors"
	"strings"
	"time"

	"sports-portal/internal/platform/httpclient"
	"sports-portal/internal/ports/notify"
)

// WebhookEmitter hace POST de cada notificación a un endpoint externo.
type WebhookEmitter struct {
	client *httpclient.Client
	url    string
}

func NewWebhookEmitter(url, token string, timeout time.Duration) (*WebhookEmitter, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, errors.New("webhook url required")
	}
	var opts []httpclient.Option
	if token = strings.TrimSpace(token); token != "" {
		opts = append(opts, httpclient.WithHeader("Authorization", "Bearer "+token))
	}
	return &WebhookEmitter{
		client: httpclient.New(timeout, opts...),
		url:    url,
	}, nil
}

func (e *WebhookEmitter) Notify(ctx context.Context, n notify.Notification) error {
	return e.client.PostJSON(ctx, e.url, n)
}
