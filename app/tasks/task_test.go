package tasks

import (
	"os"
	"testing"
	"time"

	"github.com/feedpress/feedpress/app/cfg"
	"github.com/feedpress/feedpress/app/database"
)

func setupTestConfig(t *testing.T) {
	t.Helper()

	oldArgs := os.Args
	os.Args = []string{"feedpress"}
	defer func() { os.Args = oldArgs }()

	if _, err := cfg.Load(); err != nil {
		t.Fatalf("Failed to load test configuration: %v", err)
	}
}

type fakeFeedRepo struct {
	feeds     map[string]*database.Feed
	published map[string]time.Time
	upserts   int
}

func newFakeFeedRepo() *fakeFeedRepo {
	return &fakeFeedRepo{
		feeds:     make(map[string]*database.Feed),
		published: make(map[string]time.Time),
	}
}

func (r *fakeFeedRepo) GetFeed(feedName string) (*database.Feed, error) {
	return r.feeds[feedName], nil
}

func (r *fakeFeedRepo) GetFeedCount() (int, error) {
	return len(r.feeds), nil
}

func (r *fakeFeedRepo) UpsertFeed(feedName, title, link, description, language string) error {
	r.upserts++
	r.feeds[feedName] = &database.Feed{
		Name: feedName, Title: title, Link: link,
		Description: description, Language: language,
	}
	return nil
}

func (r *fakeFeedRepo) MarkPublished(feedName string, publishedAt time.Time) error {
	r.published[feedName] = publishedAt
	return nil
}

type fakeEntryRepo struct {
	entries map[string][]database.Entry
}

func newFakeEntryRepo() *fakeEntryRepo {
	return &fakeEntryRepo{entries: make(map[string][]database.Entry)}
}

func (r *fakeEntryRepo) GetEntries(feedName string, limit int) ([]database.Entry, error) {
	entries := r.entries[feedName]
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (r *fakeEntryRepo) GetEntryCount(feedName string) (int, error) {
	return len(r.entries[feedName]), nil
}

func (r *fakeEntryRepo) UpsertEntry(feedName string, entry database.Entry) (string, error) {
	r.entries[feedName] = append(r.entries[feedName], entry)
	return entry.ID, nil
}

var (
	_ database.FeedRepository  = (*fakeFeedRepo)(nil)
	_ database.EntryRepository = (*fakeEntryRepo)(nil)
)

func TestNewTask(t *testing.T) {
	task := NewTask(TaskTypeNotifyHubs, "news")

	if task.GetType() != TaskTypeNotifyHubs {
		t.Errorf("Expected type %s, got %s", TaskTypeNotifyHubs, task.GetType())
	}
	if task.GetFeedName() != "news" {
		t.Errorf("Expected feed name news, got %s", task.GetFeedName())
	}
	if task.GetID() == "" {
		t.Error("Expected a task ID")
	}
	if task.GetRetryCount() != 0 {
		t.Errorf("Expected zero retries, got %d", task.GetRetryCount())
	}
	if task.GetMaxRetries() != DefaultMaxRetries {
		t.Errorf("Expected max retries %d, got %d", DefaultMaxRetries, task.GetMaxRetries())
	}

	other := NewTask(TaskTypeNotifyHubs, "news")
	if other.GetID() == task.GetID() {
		t.Error("Expected distinct task IDs")
	}
}

func TestTaskRetryBookkeeping(t *testing.T) {
	task := NewTask(TaskTypeSyncFeedDefinition, "news")

	for i := 0; i < DefaultMaxRetries; i++ {
		if !task.CanRetry() {
			t.Fatalf("Expected retry %d to be allowed", i)
		}
		task.IncrementRetryCount()
	}

	if task.CanRetry() {
		t.Error("Expected retries to be exhausted")
	}
	if task.GetRetryCount() != DefaultMaxRetries {
		t.Errorf("Expected retry count %d, got %d", DefaultMaxRetries, task.GetRetryCount())
	}
}

func TestTaskDuration(t *testing.T) {
	task := NewTask(TaskTypeNotifyHubs, "news")

	if task.GetDuration() != 0 {
		t.Error("Expected zero duration before start")
	}

	task.Start()
	time.Sleep(time.Millisecond)

	if task.GetDuration() <= 0 {
		t.Error("Expected positive duration after start")
	}
}
