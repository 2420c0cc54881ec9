package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type FeedRepositoryImpl struct {
	db *DB
}

var _ FeedRepository = (*FeedRepositoryImpl)(nil)

func NewFeedRepository(db *DB) *FeedRepositoryImpl {
	return &FeedRepositoryImpl{db: db}
}

// UpsertFeed registers a channel definition, updating its metadata when
// the name is already known.
func (r *FeedRepositoryImpl) UpsertFeed(feedName, title, link, description, language string) error {
	_, err := r.db.Exec(`
		INSERT INTO feeds (id, name, title, link, description, language)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			title = excluded.title,
			link = excluded.link,
			description = excluded.description,
			language = excluded.language,
			updated_at = CURRENT_TIMESTAMP
	`, uuid.NewString(), feedName, title, link, description, language)
	if err != nil {
		return fmt.Errorf("failed to upsert feed: %w", err)
	}

	return nil
}

func (r *FeedRepositoryImpl) GetFeed(feedName string) (*Feed, error) {
	var feed Feed
	var lastPublishedAt sql.NullTime

	err := r.db.QueryRow(`
		SELECT id, name, title, link, description, language,
		       last_published_at, created_at, updated_at
		FROM feeds
		WHERE name = ?
	`, feedName).Scan(
		&feed.ID, &feed.Name, &feed.Title, &feed.Link, &feed.Description,
		&feed.Language, &lastPublishedAt, &feed.CreatedAt, &feed.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feed: %w", err)
	}

	if lastPublishedAt.Valid {
		feed.LastPublishedAt = &lastPublishedAt.Time
	}

	return &feed, nil
}

func (r *FeedRepositoryImpl) GetFeedCount() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM feeds`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count feeds: %w", err)
	}
	return count, nil
}

// MarkPublished records the time a render of the feed was announced.
func (r *FeedRepositoryImpl) MarkPublished(feedName string, publishedAt time.Time) error {
	result, err := r.db.Exec(`
		UPDATE feeds
		SET last_published_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE name = ?
	`, publishedAt, feedName)
	if err != nil {
		return fmt.Errorf("failed to mark feed published: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check publish update: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("feed %s is not registered", feedName)
	}

	return nil
}
