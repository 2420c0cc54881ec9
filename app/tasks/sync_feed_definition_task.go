package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/feedpress/feedpress/app/database"
	"github.com/feedpress/feedpress/app/feed"
)

type SyncFeedDefinitionTask struct {
	Task
	Definition *feed.Definition
	feedRepo   database.FeedRepository
}

func NewSyncFeedDefinitionTask(feedName string, definition *feed.Definition, feedRepo database.FeedRepository) *SyncFeedDefinitionTask {
	return &SyncFeedDefinitionTask{
		Task:       NewTask(TaskTypeSyncFeedDefinition, feedName),
		Definition: definition,
		feedRepo:   feedRepo,
	}
}

func (t *SyncFeedDefinitionTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	channel := t.Definition.Channel
	err := t.feedRepo.UpsertFeed(
		t.Definition.Name,
		channel.Title,
		channel.Link,
		channel.Description,
		channel.Language)
	if err != nil {
		slog.Error("Task failed", "type", "SyncFeedDefinition", "feed", t.FeedName, "error", err)
		return fmt.Errorf("failed to sync feed definition to database: %w", err)
	}

	slog.Info("Task completed",
		"type", "SyncFeedDefinition",
		"feed", t.FeedName,
		"duration", t.GetDuration())

	return nil
}
