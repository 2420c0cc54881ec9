package database

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

type EntryRepositoryImpl struct {
	db *DB
}

var _ EntryRepository = (*EntryRepositoryImpl)(nil)

func NewEntryRepository(db *DB) *EntryRepositoryImpl {
	return &EntryRepositoryImpl{db: db}
}

// UpsertEntry stores an entry keyed by (feed, guid) and returns its ID.
// Categories are stored as a JSON array; SQLite has no array type.
func (r *EntryRepositoryImpl) UpsertEntry(feedName string, entry Entry) (string, error) {
	feedID, err := r.feedID(feedName)
	if err != nil {
		return "", err
	}

	categories, err := json.Marshal(entry.Categories)
	if err != nil {
		return "", fmt.Errorf("failed to encode categories: %w", err)
	}

	id := uuid.NewString()
	err = r.db.QueryRow(`
		INSERT INTO feed_entries (
			id, feed_id, guid, title, link, description, content,
			author_name, categories, published_at,
			enclosure_url, enclosure_length, enclosure_type
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (feed_id, guid) DO UPDATE SET
			title = excluded.title,
			link = excluded.link,
			description = excluded.description,
			content = excluded.content,
			author_name = excluded.author_name,
			categories = excluded.categories,
			published_at = excluded.published_at,
			enclosure_url = excluded.enclosure_url,
			enclosure_length = excluded.enclosure_length,
			enclosure_type = excluded.enclosure_type
		RETURNING id
	`, id, feedID, entry.GUID, entry.Title, entry.Link, entry.Description,
		entry.Content, entry.AuthorName, string(categories), entry.PublishedAt,
		entry.EnclosureURL, entry.EnclosureLength, entry.EnclosureType).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to upsert entry: %w", err)
	}

	return id, nil
}

// GetEntries returns the newest entries for a feed, most recent first.
func (r *EntryRepositoryImpl) GetEntries(feedName string, limit int) ([]Entry, error) {
	rows, err := r.db.Query(`
		SELECT e.id, e.feed_id, e.guid, e.title, e.link, e.description,
		       e.content, e.author_name, e.categories, e.published_at,
		       e.enclosure_url, e.enclosure_length, e.enclosure_type,
		       e.created_at
		FROM feed_entries e
		JOIN feeds f ON f.id = e.feed_id
		WHERE f.name = ?
		ORDER BY COALESCE(e.published_at, e.created_at) DESC
		LIMIT ?
	`, feedName, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		var categories string
		var publishedAt sql.NullTime

		err := rows.Scan(
			&entry.ID, &entry.FeedID, &entry.GUID, &entry.Title, &entry.Link,
			&entry.Description, &entry.Content, &entry.AuthorName, &categories,
			&publishedAt, &entry.EnclosureURL, &entry.EnclosureLength,
			&entry.EnclosureType, &entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry row: %w", err)
		}

		if err := json.Unmarshal([]byte(categories), &entry.Categories); err != nil {
			return nil, fmt.Errorf("failed to decode categories: %w", err)
		}
		if publishedAt.Valid {
			entry.PublishedAt = publishedAt.Time
		}

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entry rows: %w", err)
	}

	return entries, nil
}

func (r *EntryRepositoryImpl) GetEntryCount(feedName string) (int, error) {
	var count int
	err := r.db.QueryRow(`
		SELECT COUNT(*)
		FROM feed_entries e
		JOIN feeds f ON f.id = e.feed_id
		WHERE f.name = ?
	`, feedName).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return count, nil
}

func (r *EntryRepositoryImpl) feedID(feedName string) (string, error) {
	var id string
	err := r.db.QueryRow(`SELECT id FROM feeds WHERE name = ?`, feedName).Scan(&id)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("feed %s is not registered", feedName)
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up feed: %w", err)
	}
	return id, nil
}
