package feed

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/mmcdole/gofeed/rss"
)

// Reader parses rendered RSS back into a read model. It exists to verify
// the round-trip contract and to back the entry import surface; it is a
// thin mapping over gofeed's RSS parser, which keeps charset handling and
// entity decoding out of this package.
type Reader struct {
	parser *rss.Parser
}

func NewReader() *Reader {
	return &Reader{parser: &rss.Parser{}}
}

type ReadFeed struct {
	Title       string
	Description string
	Link        string
	Language    string
	Copyright   string
	Generator   string
	Encoding    string

	PubDate       *time.Time
	LastBuildDate *time.Time

	SelfLink string
	Hubs     []string

	Authors    []ReadAuthor
	Categories []ReadCategory
	Image      *ReadImage
	Entries    []ReadEntry
}

type ReadAuthor struct {
	Name string
}

// ReadCategory carries the parsed term, a label defaulted to the term
// (RSS categories have no label of their own), and the scheme when the
// domain attribute was present.
type ReadCategory struct {
	Term   string
	Label  string
	Scheme *string
}

type ReadImage struct {
	URL         string
	Link        string
	Title       string
	Width       *int
	Height      *int
	Description *string
}

type ReadEntry struct {
	GUID        string
	Title       string
	Link        string
	Description string
	Content     string
	Author      string
	Categories  []ReadCategory
	PublishedAt *time.Time
	Enclosure   *Enclosure
}

var encodingDeclRe = regexp.MustCompile(`<\?xml[^>]*encoding=["']([^"']+)["']`)

func (r *Reader) Parse(data []byte) (*ReadFeed, error) {
	parsed, err := r.parser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	feed := &ReadFeed{
		Title:         parsed.Title,
		Description:   parsed.Description,
		Link:          parsed.Link,
		Language:      parsed.Language,
		Copyright:     parsed.Copyright,
		Generator:     parsed.Generator,
		Encoding:      declaredEncoding(data),
		PubDate:       parsed.PubDateParsed,
		LastBuildDate: parsed.LastBuildDateParsed,
	}

	for _, link := range parsed.Extensions["atom"]["link"] {
		switch link.Attrs["rel"] {
		case "self":
			feed.SelfLink = link.Attrs["href"]
		case "hub":
			feed.Hubs = append(feed.Hubs, link.Attrs["href"])
		}
	}

	for _, creator := range parsed.Extensions["dc"]["creator"] {
		feed.Authors = append(feed.Authors, ReadAuthor{Name: creator.Value})
	}

	for _, category := range parsed.Categories {
		feed.Categories = append(feed.Categories, readCategory(category))
	}

	if parsed.Image != nil {
		feed.Image = readImage(parsed.Image)
	}

	for _, item := range parsed.Items {
		feed.Entries = append(feed.Entries, readEntry(item))
	}

	return feed, nil
}

func readCategory(category *rss.Category) ReadCategory {
	read := ReadCategory{Term: category.Value, Label: category.Value}
	if category.Domain != "" {
		domain := category.Domain
		read.Scheme = &domain
	}
	return read
}

func readImage(image *rss.Image) *ReadImage {
	read := &ReadImage{
		URL:   image.URL,
		Link:  image.Link,
		Title: image.Title,
	}

	if image.Width != "" {
		if width, err := strconv.Atoi(image.Width); err == nil {
			read.Width = &width
		}
	}
	if image.Height != "" {
		if height, err := strconv.Atoi(image.Height); err == nil {
			read.Height = &height
		}
	}
	if image.Description != "" {
		description := image.Description
		read.Description = &description
	}

	return read
}

func readEntry(item *rss.Item) ReadEntry {
	entry := ReadEntry{
		Title:       item.Title,
		Link:        item.Link,
		Description: item.Description,
		Author:      item.Author,
		PublishedAt: item.PubDateParsed,
	}

	if item.GUID != nil {
		entry.GUID = item.GUID.Value
	}

	if encoded := item.Extensions["content"]["encoded"]; len(encoded) > 0 {
		entry.Content = encoded[0].Value
	}

	for _, category := range item.Categories {
		entry.Categories = append(entry.Categories, readCategory(category))
	}

	if item.Enclosure != nil {
		enclosure := &Enclosure{
			URL:  item.Enclosure.URL,
			Type: item.Enclosure.Type,
		}
		if item.Enclosure.Length != "" {
			if length, err := strconv.ParseInt(item.Enclosure.Length, 10, 64); err == nil {
				enclosure.Length = length
			}
		}
		entry.Enclosure = enclosure
	}

	return entry
}

// declaredEncoding reports the charset named in the XML declaration,
// defaulting to UTF-8 when the declaration omits it.
func declaredEncoding(data []byte) string {
	if m := encodingDeclRe.FindSubmatch(data); m != nil {
		return string(m[1])
	}
	return "UTF-8"
}
