package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/feedpress/feedpress/app/queue"
)

const deliveryBatchSize = 20

// DeliverNotificationsTask drains the notification queue and pings each
// hub with a WebSub publish request. Messages are deleted only after the
// hub accepted the ping; rejected ones become visible again once their
// receive times out.
type DeliverNotificationsTask struct {
	Task
	adapter    *queue.Adapter
	httpClient *http.Client
	userAgent  string
}

func NewDeliverNotificationsTask(adapter *queue.Adapter, httpClient *http.Client, userAgent string) *DeliverNotificationsTask {
	return &DeliverNotificationsTask{
		Task:       NewTask(TaskTypeDeliverNotifications, ""),
		adapter:    adapter,
		httpClient: httpClient,
		userAgent:  userAgent,
	}
}

func (t *DeliverNotificationsTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	msgs, err := t.adapter.ReceiveMessages(ctx, NotificationQueue, deliveryBatchSize)
	if err != nil {
		return fmt.Errorf("failed to receive notifications: %w", err)
	}

	if len(msgs) == 0 {
		return nil
	}

	delivered := 0
	var lastErr error
	for _, msg := range msgs {
		var notification Notification
		if err := json.Unmarshal(msg.Body, &notification); err != nil {
			slog.Warn("Discarding malformed notification", "message_id", msg.ID, "error", err)
			if err := t.adapter.DeleteMessage(ctx, NotificationQueue, msg); err != nil {
				lastErr = err
			}
			continue
		}

		if err := t.ping(ctx, notification); err != nil {
			slog.Warn("Hub ping failed", "feed", notification.Feed, "hub", notification.Hub, "error", err)
			lastErr = err
			continue
		}

		if err := t.adapter.DeleteMessage(ctx, NotificationQueue, msg); err != nil {
			lastErr = err
			continue
		}
		delivered++
	}

	slog.Info("Task completed",
		"type", "DeliverNotifications",
		"received", len(msgs),
		"delivered", delivered,
		"duration", t.GetDuration())

	if lastErr != nil {
		return fmt.Errorf("some notifications were not delivered: %w", lastErr)
	}

	return nil
}

func (t *DeliverNotificationsTask) ping(ctx context.Context, notification Notification) error {
	form := url.Values{
		"hub.mode": {"publish"},
		"hub.url":  {notification.FeedURL},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, notification.Hub,
		strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create hub request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", t.userAgent)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("hub request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("hub returned status %d", resp.StatusCode)
	}

	return nil
}
