package database

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewConnection(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return db
}

func TestFeedRepositoryUpsertAndGet(t *testing.T) {
	db := newTestDB(t)
	repo := NewFeedRepository(db)

	err := repo.UpsertFeed("news", "News Feed", "https://example.com", "All the news", "en-us")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	feed, err := repo.GetFeed("news")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if feed == nil {
		t.Fatal("Expected feed, got nil")
	}
	if feed.Name != "news" || feed.Title != "News Feed" || feed.Language != "en-us" {
		t.Errorf("Unexpected feed: %+v", feed)
	}
	if feed.LastPublishedAt != nil {
		t.Error("Expected no publish timestamp on a fresh feed")
	}

	// Updating keeps the row and its id
	err = repo.UpsertFeed("news", "Updated News", "https://example.com", "Updated description", "en-us")
	if err != nil {
		t.Fatalf("Expected no error on update, got: %v", err)
	}

	updated, err := repo.GetFeed("news")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if updated.ID != feed.ID {
		t.Errorf("Expected stable feed id, got %s then %s", feed.ID, updated.ID)
	}
	if updated.Title != "Updated News" {
		t.Errorf("Expected updated title, got %q", updated.Title)
	}

	count, err := repo.GetFeedCount()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 feed, got %d", count)
	}
}

func TestFeedRepositoryGetFeedMissing(t *testing.T) {
	db := newTestDB(t)
	repo := NewFeedRepository(db)

	feed, err := repo.GetFeed("missing")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if feed != nil {
		t.Errorf("Expected nil feed, got %+v", feed)
	}
}

func TestFeedRepositoryMarkPublished(t *testing.T) {
	db := newTestDB(t)
	repo := NewFeedRepository(db)

	if err := repo.MarkPublished("missing", time.Now()); err == nil {
		t.Error("Expected error marking an unregistered feed")
	}

	if err := repo.UpsertFeed("news", "News", "https://example.com", "d", ""); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	publishedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := repo.MarkPublished("news", publishedAt); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	feed, err := repo.GetFeed("news")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if feed.LastPublishedAt == nil || !feed.LastPublishedAt.Equal(publishedAt) {
		t.Errorf("Expected publish timestamp %v, got %v", publishedAt, feed.LastPublishedAt)
	}
}

func TestEntryRepositoryUpsertAndGet(t *testing.T) {
	db := newTestDB(t)
	feedRepo := NewFeedRepository(db)
	entryRepo := NewEntryRepository(db)

	if err := feedRepo.UpsertFeed("news", "News", "https://example.com", "d", ""); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	entry := Entry{
		GUID:            "entry-1",
		Title:           "First Entry",
		Link:            "https://example.com/1",
		Description:     "First description",
		Content:         "<p>Content</p>",
		AuthorName:      "Jane",
		Categories:      []string{"tech", "golang"},
		PublishedAt:     time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		EnclosureURL:    "https://example.com/audio.mp3",
		EnclosureLength: 1024,
		EnclosureType:   "audio/mpeg",
	}

	id, err := entryRepo.UpsertEntry("news", entry)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if id == "" {
		t.Error("Expected entry id")
	}

	// Same guid updates in place and keeps the id
	entry.Title = "Updated Entry"
	again, err := entryRepo.UpsertEntry("news", entry)
	if err != nil {
		t.Fatalf("Expected no error on update, got: %v", err)
	}
	if again != id {
		t.Errorf("Expected stable entry id, got %s then %s", id, again)
	}

	entries, err := entryRepo.GetEntries("news", 10)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}

	got := entries[0]
	if got.Title != "Updated Entry" || got.AuthorName != "Jane" {
		t.Errorf("Unexpected entry: %+v", got)
	}
	if len(got.Categories) != 2 || got.Categories[0] != "tech" {
		t.Errorf("Expected categories to round-trip, got %v", got.Categories)
	}
	if got.EnclosureURL != "https://example.com/audio.mp3" || got.EnclosureLength != 1024 {
		t.Errorf("Unexpected enclosure fields: %+v", got)
	}

	count, err := entryRepo.GetEntryCount("news")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 entry, got %d", count)
	}
}

func TestEntryRepositoryOrdering(t *testing.T) {
	db := newTestDB(t)
	feedRepo := NewFeedRepository(db)
	entryRepo := NewEntryRepository(db)

	if err := feedRepo.UpsertFeed("news", "News", "https://example.com", "d", ""); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, guid := range []string{"old", "middle", "new"} {
		entry := Entry{GUID: guid, Title: guid, PublishedAt: base.Add(time.Duration(i) * time.Hour)}
		if _, err := entryRepo.UpsertEntry("news", entry); err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
	}

	entries, err := entryRepo.GetEntries("news", 2)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected limit to apply, got %d entries", len(entries))
	}
	if entries[0].GUID != "new" || entries[1].GUID != "middle" {
		t.Errorf("Expected newest first, got %s then %s", entries[0].GUID, entries[1].GUID)
	}
}

func TestEntryRepositoryUnregisteredFeed(t *testing.T) {
	db := newTestDB(t)
	entryRepo := NewEntryRepository(db)

	if _, err := entryRepo.UpsertEntry("missing", Entry{GUID: "x", Title: "t"}); err == nil {
		t.Error("Expected error for unregistered feed")
	}
}

func TestEntryRepositoryFeedIsolation(t *testing.T) {
	db := newTestDB(t)
	feedRepo := NewFeedRepository(db)
	entryRepo := NewEntryRepository(db)

	for _, name := range []string{"alpha", "beta"} {
		if err := feedRepo.UpsertFeed(name, name, "https://example.com", "d", ""); err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
	}

	// Same guid in different feeds stays distinct
	if _, err := entryRepo.UpsertEntry("alpha", Entry{GUID: "shared", Title: "in alpha"}); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if _, err := entryRepo.UpsertEntry("beta", Entry{GUID: "shared", Title: "in beta"}); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	entries, err := entryRepo.GetEntries("alpha", 10)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(entries) != 1 || entries[0].Title != "in alpha" {
		t.Errorf("Expected only alpha's entry, got %+v", entries)
	}
}
