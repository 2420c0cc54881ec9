package tasks

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/feedpress/feedpress/app/database"
	"github.com/feedpress/feedpress/app/feed"
	"github.com/feedpress/feedpress/app/queue"
)

func testDefinition(hubs []string) *feed.Definition {
	maxEntries := 100
	return &feed.Definition{
		Name: "news",
		Channel: feed.DefinitionChannel{
			Title:       "News Feed",
			Description: "All the news",
			Link:        "https://example.com",
			Hubs:        hubs,
		},
		Settings: feed.DefinitionSettings{Enabled: true, MaxEntries: &maxEntries, Notify: true},
	}
}

func newNotifyQueue(t *testing.T) *queue.Adapter {
	t.Helper()

	adapter := queue.NewAdapter(queue.NewMemoryClient())
	if _, err := adapter.CreateQueue(context.Background(), NotificationQueue); err != nil {
		t.Fatalf("Failed to create notification queue: %v", err)
	}
	return adapter
}

func TestNotifyHubsTaskEnqueuesPerHub(t *testing.T) {
	setupTestConfig(t)

	adapter := newNotifyQueue(t)
	feedRepo := newFakeFeedRepo()
	entryRepo := newFakeEntryRepo()
	entryRepo.entries["news"] = []database.Entry{{GUID: "e1", Title: "Entry"}}

	hubs := []string{"https://hub1.example.com", "https://hub2.example.com"}
	task := NewNotifyHubsTask("news", testDefinition(hubs), feed.NewRenderer(), adapter, feedRepo, entryRepo)

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	msgs, err := adapter.ReceiveMessages(context.Background(), NotificationQueue, 10)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("Expected one notification per hub, got %d", len(msgs))
	}

	seen := map[string]bool{}
	for _, msg := range msgs {
		var notification Notification
		if err := json.Unmarshal(msg.Body, &notification); err != nil {
			t.Fatalf("Failed to decode notification: %v", err)
		}
		if notification.Feed != "news" {
			t.Errorf("Expected feed news, got %q", notification.Feed)
		}
		if notification.FeedURL == "" {
			t.Error("Expected a feed URL in the notification")
		}
		seen[notification.Hub] = true
	}
	for _, hub := range hubs {
		if !seen[hub] {
			t.Errorf("Expected a notification for %s", hub)
		}
	}

	if _, ok := feedRepo.published["news"]; !ok {
		t.Error("Expected publish time to be recorded")
	}
}

func TestNotifyHubsTaskNoHubs(t *testing.T) {
	setupTestConfig(t)

	adapter := newNotifyQueue(t)
	feedRepo := newFakeFeedRepo()
	entryRepo := newFakeEntryRepo()

	task := NewNotifyHubsTask("news", testDefinition(nil), feed.NewRenderer(), adapter, feedRepo, entryRepo)

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	msgs, err := adapter.ReceiveMessages(context.Background(), NotificationQueue, 10)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("Expected no notifications without hubs, got %d", len(msgs))
	}
	if len(feedRepo.published) != 0 {
		t.Error("Expected no publish time without hubs")
	}
}

func TestNotifyHubsTaskInvalidChannel(t *testing.T) {
	setupTestConfig(t)

	adapter := newNotifyQueue(t)
	feedRepo := newFakeFeedRepo()
	entryRepo := newFakeEntryRepo()

	definition := testDefinition([]string{"https://hub.example.com"})
	definition.Channel.Description = ""

	task := NewNotifyHubsTask("news", definition, feed.NewRenderer(), adapter, feedRepo, entryRepo)

	if err := task.Execute(context.Background()); err == nil {
		t.Fatal("Expected error when the channel does not render")
	}

	msgs, err := adapter.ReceiveMessages(context.Background(), NotificationQueue, 10)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("Expected no notifications for an invalid channel, got %d", len(msgs))
	}
	if len(feedRepo.published) != 0 {
		t.Error("Expected no publish time for an invalid channel")
	}
}

func TestSyncFeedDefinitionTask(t *testing.T) {
	feedRepo := newFakeFeedRepo()

	task := NewSyncFeedDefinitionTask("news", testDefinition(nil), feedRepo)

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	stored := feedRepo.feeds["news"]
	if stored == nil {
		t.Fatal("Expected feed to be registered")
	}
	if stored.Title != "News Feed" || stored.Link != "https://example.com" {
		t.Errorf("Unexpected stored feed: %+v", stored)
	}
}
