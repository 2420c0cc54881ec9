package api

import (
	"cmp"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/feedpress/feedpress/app/cfg"
	"github.com/feedpress/feedpress/app/database"
	"github.com/feedpress/feedpress/app/feed"
	"github.com/feedpress/feedpress/app/tasks"
)

func NewHandler(definitionCache *feed.DefinitionCache, feedRepo database.FeedRepository,
	entryRepo database.EntryRepository, scheduler tasks.TaskSchedulerInterface) *Handler {
	return &Handler{
		feedRepo:        feedRepo,
		entryRepo:       entryRepo,
		renderer:        feed.NewRenderer(),
		extractor:       feed.NewContentExtractor(),
		definitionCache: definitionCache,
		scheduler:       scheduler,
	}
}

func (h *Handler) GetFeed(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		c.Status(http.StatusBadRequest)
		return
	}

	definition, err := h.definitionCache.GetDefinition(name)
	if err != nil {
		slog.Error("Feed definition not found", "feed", name, "error", err)
		c.Status(http.StatusNotFound)
		return
	}

	record, err := h.feedRepo.GetFeed(name)
	if err != nil {
		slog.Error("Database error", "operation", "get_feed", "feed", name, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	if record == nil {
		slog.Error("Feed not found in database", "feed", name)
		c.Status(http.StatusNotFound)
		return
	}

	records, err := h.entryRepo.GetEntries(name, *definition.Settings.MaxEntries)
	if err != nil {
		slog.Error("Database error", "operation", "get_entries", "feed", name, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	doc := definition.Document(cfg.Get().FeedURL(name),
		tasks.EntriesFromRecords(records), record.LastPublishedAt)

	rendered, err := h.renderer.Run(doc)
	if err != nil {
		slog.Error("RSS rendering error", "feed", name, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	body, err := rendered.Bytes()
	if err != nil {
		slog.Error("RSS encoding error", "feed", name, "encoding", rendered.Encoding(), "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("X-Feed-Entries", strconv.Itoa(len(records)))
	c.Header("X-Feed-Name", name)
	c.Header("X-Last-Updated", record.UpdatedAt.Format(time.RFC3339))

	contentType := fmt.Sprintf("application/rss+xml; charset=%s", rendered.Encoding())
	c.Data(http.StatusOK, contentType, body)
}

func (h *Handler) PostEntry(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		c.Status(http.StatusBadRequest)
		return
	}

	if _, err := h.definitionCache.GetDefinition(name); err != nil {
		slog.Error("Feed definition not found", "feed", name, "error", err)
		c.Status(http.StatusNotFound)
		return
	}

	var req EntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entry payload", "message": err.Error()})
		return
	}

	if req.Title == "" && req.Description == "" && req.Content == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "entry must have a title, description, or content"})
		return
	}

	entry := database.Entry{
		GUID:        cmp.Or(req.GUID, req.Link),
		Title:       req.Title,
		Link:        req.Link,
		Description: req.Description,
		Content:     req.Content,
		AuthorName:  req.Author,
		Categories:  req.Categories,
	}

	if entry.GUID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "entry must have a guid or a link"})
		return
	}

	if req.PublishedAt != "" {
		publishedAt, err := time.Parse(time.RFC3339, req.PublishedAt)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "published_at must be RFC 3339", "message": err.Error()})
			return
		}
		entry.PublishedAt = publishedAt
	} else {
		entry.PublishedAt = time.Now().In(time.Local)
	}

	if req.Enclosure != nil {
		entry.EnclosureURL = req.Enclosure.URL
		entry.EnclosureLength = req.Enclosure.Length
		entry.EnclosureType = req.Enclosure.Type
	}

	// Derive a readable description from HTML content when none was given
	if entry.Description == "" && entry.Content != "" {
		if text, err := h.extractor.Run([]byte(entry.Content)); err == nil {
			entry.Description = text
		} else {
			slog.Debug("Content extraction failed", "feed", name, "error", err)
		}
	}

	id, err := h.entryRepo.UpsertEntry(name, entry)
	if err != nil {
		slog.Error("Database error", "operation", "upsert_entry", "feed", name, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id, "guid": entry.GUID})
}

// PostSync queues a definition sync for the named feed, so operators can
// push an edited definition into the database without waiting for the
// scheduler's next startup pass.
func (h *Handler) PostSync(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		c.Status(http.StatusBadRequest)
		return
	}

	definition, err := h.definitionCache.GetDefinition(name)
	if err != nil {
		slog.Error("Feed definition not found", "feed", name, "error", err)
		c.Status(http.StatusNotFound)
		return
	}

	task := tasks.NewSyncFeedDefinitionTask(name, definition, h.feedRepo)
	if err := h.scheduler.EnqueueTask(task); err != nil {
		slog.Error("Failed to enqueue sync task", "feed", name, "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "task queue unavailable", "message": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"feed": name, "task": string(task.GetType()), "id": task.GetID()})
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"version":   cfg.Get().Version,
	}

	feedCount, err := h.feedRepo.GetFeedCount()
	if err != nil {
		health["status"] = "unhealthy"
		health["error"] = err.Error()
		c.JSON(http.StatusServiceUnavailable, health)
		return
	}

	health["status"] = "ok"
	health["feeds"] = feedCount
	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	definitions := h.definitionCache.GetDefinitions()

	feeds := make([]gin.H, 0, len(definitions))
	for name, definition := range definitions {
		stat := gin.H{
			"name":    name,
			"enabled": definition.Settings.Enabled,
			"notify":  definition.Settings.Notify,
			"hubs":    len(definition.Channel.Hubs),
		}

		if count, err := h.entryRepo.GetEntryCount(name); err == nil {
			stat["entries"] = count
		}

		feeds = append(feeds, stat)
	}

	c.JSON(http.StatusOK, gin.H{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"version":   cfg.Get().Version,
		"feeds":     feeds,
	})
}
