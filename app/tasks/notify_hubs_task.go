package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/feedpress/feedpress/app/cfg"
	"github.com/feedpress/feedpress/app/database"
	"github.com/feedpress/feedpress/app/feed"
	"github.com/feedpress/feedpress/app/queue"
)

// NotifyHubsTask renders a channel as a validation gate and enqueues one
// announcement per configured hub. Delivery happens separately; a failed
// render means nothing is announced.
type NotifyHubsTask struct {
	Task
	Definition *feed.Definition
	renderer   *feed.Renderer
	adapter    *queue.Adapter
	feedRepo   database.FeedRepository
	entryRepo  database.EntryRepository
}

func NewNotifyHubsTask(feedName string, definition *feed.Definition, renderer *feed.Renderer,
	adapter *queue.Adapter, feedRepo database.FeedRepository, entryRepo database.EntryRepository) *NotifyHubsTask {
	return &NotifyHubsTask{
		Task:       NewTask(TaskTypeNotifyHubs, feedName),
		Definition: definition,
		renderer:   renderer,
		adapter:    adapter,
		feedRepo:   feedRepo,
		entryRepo:  entryRepo,
	}
}

func (t *NotifyHubsTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if len(t.Definition.Channel.Hubs) == 0 {
		slog.Debug("No hubs configured, skipping", "feed", t.FeedName)
		return nil
	}

	records, err := t.entryRepo.GetEntries(t.FeedName, *t.Definition.Settings.MaxEntries)
	if err != nil {
		return fmt.Errorf("failed to load entries: %w", err)
	}

	feedURL := cfg.Get().FeedURL(t.FeedName)
	now := time.Now().In(time.Local)
	doc := t.Definition.Document(feedURL, EntriesFromRecords(records), &now)

	if _, err := t.renderer.Run(doc); err != nil {
		return fmt.Errorf("feed does not render, not announcing: %w", err)
	}

	for _, hub := range t.Definition.Channel.Hubs {
		body, err := json.Marshal(Notification{
			Feed:    t.FeedName,
			FeedURL: feedURL,
			Hub:     hub,
		})
		if err != nil {
			return fmt.Errorf("failed to encode notification: %w", err)
		}

		msgID, err := t.adapter.SendMessage(ctx, NotificationQueue, body)
		if err != nil {
			return fmt.Errorf("failed to enqueue notification for %s: %w", hub, err)
		}

		slog.Debug("Hub notification enqueued", "feed", t.FeedName, "hub", hub, "message_id", msgID)
	}

	if err := t.feedRepo.MarkPublished(t.FeedName, now); err != nil {
		return fmt.Errorf("failed to record publish time: %w", err)
	}

	slog.Info("Task completed",
		"type", "NotifyHubs",
		"feed", t.FeedName,
		"hubs", len(t.Definition.Channel.Hubs),
		"duration", t.GetDuration())

	return nil
}

// EntriesFromRecords converts stored entries into renderable ones.
func EntriesFromRecords(records []database.Entry) []feed.Entry {
	entries := make([]feed.Entry, 0, len(records))
	for _, record := range records {
		entry := feed.Entry{
			GUID:        record.GUID,
			Title:       record.Title,
			Link:        record.Link,
			Description: record.Description,
			Content:     record.Content,
			PublishedAt: record.PublishedAt,
		}

		if record.AuthorName != "" {
			entry.Authors = []feed.Author{{Name: record.AuthorName}}
		}

		for _, term := range record.Categories {
			entry.Categories = append(entry.Categories, feed.Category{Term: term})
		}

		if record.EnclosureURL != "" {
			entry.Enclosure = &feed.Enclosure{
				URL:    record.EnclosureURL,
				Length: record.EnclosureLength,
				Type:   record.EnclosureType,
			}
		}

		entries = append(entries, entry)
	}
	return entries
}
