// Package notify delivers submission notifications to the transactional
// email collaborator.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vytor/skillforge/internal/logger"
	"github.com/vytor/skillforge/internal/models"
	"github.com/vytor/skillforge/internal/retry"
)

type Notifier interface {
	Notify(ctx context.Context, n models.Notification) error
}

// WebhookNotifier posts notifications as JSON to a fixed URL.
type WebhookNotifier struct {
	url        string
	httpClient *http.Client
	retry      retry.Config
}

func NewWebhookNotifier(url string, httpClient *http.Client) *WebhookNotifier {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &WebhookNotifier{url: url, httpClient: httpClient, retry: retry.DefaultConfig()}
}

func (n *WebhookNotifier) Notify(ctx context.Context, notification models.Notification) error {
	log := logger.FromContext(ctx).WithPrefix("notify").WithFields(map[string]any{
		"notification_id": notification.ID,
		"kind":            notification.Kind,
	})

	body, err := json.Marshal(notification)
	if err != nil {
		return err
	}

	return retry.Do(ctx, n.retry, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
		if err != nil {
			return retry.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Idempotency-Key", notification.ID)

		resp, err := n.httpClient.Do(req)
		if err != nil {
			log.Warn("notification delivery failed: %v", err)
			return err
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

		if resp.StatusCode >= 500 {
			return fmt.Errorf("notification webhook status %d", resp.StatusCode)
		}
		if resp.StatusCode >= 300 {
			return retry.Permanent(fmt.Errorf("notification webhook status %d", resp.StatusCode))
		}
		log.Debug("notification delivered")
		return nil
	})
}

// LogNotifier writes notifications to the log. Used when no webhook is configured.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, n models.Notification) error {
	log := logger.FromContext(ctx).WithPrefix("notify")
	log.WithFields(map[string]any{
		"notification_id": n.ID,
		"kind":            n.Kind,
		"user_id":         n.UserID,
		"submission_id":   n.SubmissionID,
	}).Info("notification")
	return nil
}

var (
	_ Notifier = (*WebhookNotifier)(nil)
	_ Notifier = LogNotifier{}
)
