package feed

import (
	"time"
)

// Definition is a channel definition loaded from a YAML file in the
// feeds directory. The file name (minus extension) becomes the feed name.
type Definition struct {
	Name     string             // Derived from filename (without .yml extension)
	Channel  DefinitionChannel  `yaml:"channel"`
	Settings DefinitionSettings `yaml:"settings"`
}

type DefinitionChannel struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Link        string `yaml:"link"`
	Language    string `yaml:"language"`
	Copyright   string `yaml:"copyright"`
	Encoding    string `yaml:"encoding"`

	Generator  *GeneratorDefinition `yaml:"generator"`
	Image      *ImageDefinition     `yaml:"image"`
	Authors    []AuthorDefinition   `yaml:"authors"`
	Categories []CategoryDefinition `yaml:"categories"`
	Hubs       []string             `yaml:"hubs"`
}

type GeneratorDefinition struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	URI     string `yaml:"uri"`
}

type ImageDefinition struct {
	URL         string  `yaml:"url"`
	Link        string  `yaml:"link"`
	Title       string  `yaml:"title"`
	Width       *int    `yaml:"width"`
	Height      *int    `yaml:"height"`
	Description *string `yaml:"description"`
}

type AuthorDefinition struct {
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
	URI   string `yaml:"uri"`
}

type CategoryDefinition struct {
	Term   string `yaml:"term"`
	Label  string `yaml:"label"`
	Scheme string `yaml:"scheme"`
}

type DefinitionSettings struct {
	Enabled    bool `yaml:"enabled"`
	MaxEntries *int `yaml:"max_entries"` // defaulted at load time when unset
	Notify     bool `yaml:"notify"`      // announce renders to the channel's hubs
}

// Document materializes the definition into a renderable document.
// selfLink is the service URL the rendered feed is served from; entries
// come from storage.
func (d *Definition) Document(selfLink string, entries []Entry, lastBuildDate *time.Time) *Document {
	channel := d.Channel

	doc := &Document{
		Title:         channel.Title,
		Description:   channel.Description,
		Link:          channel.Link,
		Language:      channel.Language,
		Copyright:     channel.Copyright,
		Encoding:      channel.Encoding,
		Hubs:          channel.Hubs,
		LastBuildDate: lastBuildDate,
		Entries:       entries,
	}

	if selfLink != "" {
		doc.FeedLinks = map[string]string{"rss": selfLink}
	}

	if channel.Generator != nil {
		doc.Generator = &Generator{
			Name:    channel.Generator.Name,
			Version: channel.Generator.Version,
			URI:     channel.Generator.URI,
		}
	}

	if channel.Image != nil {
		doc.Image = &Image{
			URI:         channel.Image.URL,
			Link:        channel.Image.Link,
			Title:       channel.Image.Title,
			Width:       channel.Image.Width,
			Height:      channel.Image.Height,
			Description: channel.Image.Description,
		}
	}

	for _, author := range channel.Authors {
		doc.Authors = append(doc.Authors, Author{
			Name:  author.Name,
			Email: author.Email,
			URI:   author.URI,
		})
	}

	for _, category := range channel.Categories {
		doc.Categories = append(doc.Categories, Category{
			Term:   category.Term,
			Label:  category.Label,
			Scheme: category.Scheme,
		})
	}

	return doc
}
