package api

import (
	"github.com/feedpress/feedpress/app/database"
	"github.com/feedpress/feedpress/app/feed"
	"github.com/feedpress/feedpress/app/tasks"
)

type RendererInterface interface {
	Run(doc *feed.Document) (*feed.RenderedFeed, error)
}

var _ RendererInterface = (*feed.Renderer)(nil)

type Handler struct {
	feedRepo        database.FeedRepository
	entryRepo       database.EntryRepository
	renderer        RendererInterface
	extractor       *feed.ContentExtractor
	definitionCache *feed.DefinitionCache
	scheduler       tasks.TaskSchedulerInterface
}

// EntryRequest is the JSON payload for submitting an entry.
type EntryRequest struct {
	GUID        string   `json:"guid"`
	Title       string   `json:"title"`
	Link        string   `json:"link"`
	Description string   `json:"description"`
	Content     string   `json:"content"`
	Author      string   `json:"author"`
	Categories  []string `json:"categories"`
	PublishedAt string   `json:"published_at"`

	Enclosure *EnclosureRequest `json:"enclosure"`
}

type EnclosureRequest struct {
	URL    string `json:"url"`
	Length int64  `json:"length"`
	Type   string `json:"type"`
}
