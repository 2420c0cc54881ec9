package database

import (
	"time"
)

type FeedRepository interface {
	GetFeed(feedName string) (*Feed, error)
	GetFeedCount() (int, error)

	UpsertFeed(feedName, title, link, description, language string) error
	MarkPublished(feedName string, publishedAt time.Time) error
}

type EntryRepository interface {
	GetEntries(feedName string, limit int) ([]Entry, error)
	GetEntryCount(feedName string) (int, error)

	UpsertEntry(feedName string, entry Entry) (string, error)
}
