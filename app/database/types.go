package database

import (
	"time"
)

type Feed struct {
	ID              string // Database UUID
	Name            string // Channel identifier derived from the definition filename
	Title           string
	Link            string
	Description     string
	Language        string
	LastPublishedAt *time.Time // Last time a render was announced to hubs
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type Entry struct {
	ID              string
	FeedID          string
	GUID            string
	Title           string
	Link            string
	Description     string
	Content         string
	AuthorName      string
	Categories      []string
	PublishedAt     time.Time
	EnclosureURL    string
	EnclosureLength int64
	EnclosureType   string
	CreatedAt       time.Time
}
