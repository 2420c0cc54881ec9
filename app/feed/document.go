package feed

import (
	"fmt"
	"time"
)

// Document is the in-memory representation of a channel prior to
// serialization. All fields are plain values the caller may set, clear,
// and set again; nothing is validated until Render is invoked.
type Document struct {
	Title       string
	Description string
	Link        string

	// FeedLinks maps a serialization format ("rss") to the feed's own URL,
	// distinct from Link which points at the human-readable page.
	FeedLinks map[string]string

	BaseURL   string
	Language  string
	Copyright string

	// Encoding is the charset declared in the XML declaration.
	// Defaults to UTF-8 when empty.
	Encoding string

	// Generator defaults to the library-identifying string when nil.
	Generator *Generator

	DateModified  *time.Time
	LastBuildDate *time.Time

	Authors    []Author
	Categories []Category
	Hubs       []string
	Image      *Image

	Entries []Entry
}

type Generator struct {
	Name    string
	Version string
	URI     string
}

type Author struct {
	Name  string
	Email string
	URI   string
}

type Category struct {
	Term   string
	Label  string
	Scheme string
}

// Image is the channel image. Width, Height and Description are optional
// and distinguish "unset" from "set to a zero value".
type Image struct {
	URI         string
	Link        string
	Title       string
	Width       *int
	Height      *int
	Description *string
}

type Entry struct {
	GUID        string
	Title       string
	Link        string
	Description string
	Content     string
	PublishedAt time.Time
	Authors     []Author
	Categories  []Category
	Enclosure   *Enclosure
}

type Enclosure struct {
	URL    string
	Length int64
	Type   string
}

// ValidationError reports a document that cannot be rendered. No partial
// output is produced when Render returns one.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid feed document: %s %s", e.Field, e.Reason)
}
