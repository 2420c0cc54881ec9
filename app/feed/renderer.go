package feed

import (
	"bytes"
	"cmp"
	"encoding/xml"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding/htmlindex"

	"github.com/feedpress/feedpress/app/cfg"
)

// Default generator identity, emitted when a document carries no explicit
// generator. Language deliberately has no such default.
const (
	GeneratorName = "FeedPress"
	GeneratorURI  = "https://github.com/feedpress/feedpress"
)

const (
	// RSS 2.0 limits for the channel image
	maxImageWidth  = 144
	maxImageHeight = 400
)

type Renderer struct{}

func NewRenderer() *Renderer {
	return &Renderer{}
}

// Run validates doc and serializes it as an RSS 2.0 document. Validation
// happens on every call: fields removed since the previous render are
// re-checked, and no output is produced on failure.
func (r *Renderer) Run(doc *Document) (*RenderedFeed, error) {
	encoding := cmp.Or(doc.Encoding, "UTF-8")

	if err := validateDocument(doc, encoding); err != nil {
		return nil, err
	}

	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="%s"?>`, html.EscapeString(encoding)))
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/" xmlns:atom="http://www.w3.org/2005/Atom" xmlns:dc="http://purl.org/dc/elements/1.1/">`)
	buf.WriteString("\n  <channel>\n")

	r.writeElement(&buf, "title", doc.Title, 4)
	r.writeElement(&buf, "link", doc.Link, 4)
	r.writeElement(&buf, "description", doc.Description, 4)

	if selfLink := doc.FeedLinks["rss"]; selfLink != "" {
		buf.WriteString(fmt.Sprintf("    <atom:link href=\"%s\" rel=\"self\" type=\"application/rss+xml\" />\n",
			html.EscapeString(selfLink)))
	}

	for _, hub := range doc.Hubs {
		if hub != "" {
			buf.WriteString(fmt.Sprintf("    <atom:link href=\"%s\" rel=\"hub\" />\n",
				html.EscapeString(hub)))
		}
	}

	if doc.DateModified != nil {
		r.writeElement(&buf, "pubDate", doc.DateModified.Format(time.RFC1123Z), 4)
	}

	if doc.LastBuildDate != nil {
		r.writeElement(&buf, "lastBuildDate", doc.LastBuildDate.Format(time.RFC1123Z), 4)
	}

	r.writeElement(&buf, "generator", generatorString(doc.Generator), 4)
	r.writeElement(&buf, "language", doc.Language, 4)
	r.writeElement(&buf, "copyright", doc.Copyright, 4)

	// RSS has no structured author element, so only the name survives
	for _, author := range doc.Authors {
		r.writeElement(&buf, "dc:creator", author.Name, 4)
	}

	for _, category := range doc.Categories {
		r.writeCategory(&buf, category, 4)
	}

	if doc.Image != nil {
		r.writeImage(&buf, doc.Image)
	}

	for _, entry := range doc.Entries {
		r.writeEntry(&buf, entry)
	}

	buf.WriteString("  </channel>\n</rss>")

	return &RenderedFeed{encoding: encoding, xml: buf.String()}, nil
}

func (r *Renderer) writeImage(buf *bytes.Buffer, image *Image) {
	buf.WriteString("    <image>\n")
	r.writeElement(buf, "url", image.URI, 6)
	r.writeElement(buf, "title", image.Title, 6)
	r.writeElement(buf, "link", image.Link, 6)
	if image.Width != nil {
		r.writeElement(buf, "width", strconv.Itoa(*image.Width), 6)
	}
	if image.Height != nil {
		r.writeElement(buf, "height", strconv.Itoa(*image.Height), 6)
	}
	if image.Description != nil {
		r.writeElement(buf, "description", *image.Description, 6)
	}
	buf.WriteString("    </image>\n")
}

func (r *Renderer) writeEntry(buf *bytes.Buffer, entry Entry) {
	buf.WriteString("    <item>\n")

	if entry.GUID != "" {
		buf.WriteString(fmt.Sprintf("      <guid isPermaLink=\"%t\">", r.isURL(entry.GUID)))
		xml.EscapeText(buf, []byte(entry.GUID))
		buf.WriteString("</guid>\n")
	}

	r.writeElement(buf, "title", entry.Title, 6)
	r.writeElement(buf, "link", entry.Link, 6)
	r.writeElement(buf, "description", entry.Description, 6)

	if entry.Content != "" && entry.Content != entry.Description {
		// "]]>" inside content would terminate the CDATA section early
		buf.WriteString("      <content:encoded><![CDATA[")
		buf.WriteString(strings.ReplaceAll(entry.Content, "]]>", "]]]]><![CDATA[>"))
		buf.WriteString("]]></content:encoded>\n")
	}

	if !entry.PublishedAt.IsZero() {
		r.writeElement(buf, "pubDate", entry.PublishedAt.Format(time.RFC1123Z), 6)
	}

	if len(entry.Authors) > 0 {
		r.writeElement(buf, "author", entry.Authors[0].Name, 6)
	}

	for _, category := range entry.Categories {
		r.writeCategory(buf, category, 6)
	}

	// RSS 2.0 allows one enclosure per item; url and type are required
	if entry.Enclosure != nil && entry.Enclosure.URL != "" && entry.Enclosure.Type != "" {
		buf.WriteString(fmt.Sprintf("      <enclosure url=\"%s\" length=\"%d\" type=\"%s\" />\n",
			html.EscapeString(entry.Enclosure.URL),
			entry.Enclosure.Length,
			html.EscapeString(entry.Enclosure.Type)))
	}

	buf.WriteString("    </item>\n")
}

// writeCategory emits the term as character data and the scheme as the
// domain attribute when provided. Labels are never serialized: RSS readers
// default a category's label to its term.
func (r *Renderer) writeCategory(buf *bytes.Buffer, category Category, indent int) {
	if category.Term == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	if category.Scheme != "" {
		buf.WriteString(fmt.Sprintf(`<category domain="%s">`, html.EscapeString(category.Scheme)))
	} else {
		buf.WriteString("<category>")
	}
	xml.EscapeText(buf, []byte(category.Term))
	buf.WriteString("</category>\n")
}

func (r *Renderer) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}

func (r *Renderer) isURL(s string) bool {
	return (len(s) > 7 && s[:7] == "http://") || (len(s) > 8 && s[:8] == "https://")
}

func generatorString(g *Generator) string {
	if g == nil {
		g = &Generator{Name: GeneratorName, Version: cfg.GetVersion(), URI: GeneratorURI}
	}

	s := g.Name
	if g.Version != "" {
		s += " " + g.Version
	}
	if g.URI != "" {
		s += " (" + g.URI + ")"
	}
	return s
}

func validateDocument(doc *Document, encoding string) error {
	if doc.Title == "" {
		return &ValidationError{Field: "title", Reason: "is required"}
	}
	if doc.Description == "" {
		return &ValidationError{Field: "description", Reason: "is required"}
	}
	if doc.Link == "" {
		return &ValidationError{Field: "link", Reason: "is required"}
	}

	if _, err := htmlindex.Get(strings.ToLower(encoding)); err != nil {
		return &ValidationError{Field: "encoding", Reason: fmt.Sprintf("%q is not a recognized charset", encoding)}
	}

	if doc.Image != nil {
		if err := validateImage(doc.Image); err != nil {
			return err
		}
	}

	for i, entry := range doc.Entries {
		if entry.Title == "" && entry.Description == "" {
			return &ValidationError{
				Field:  fmt.Sprintf("entries[%d]", i),
				Reason: "must have a title or a description",
			}
		}
	}

	return nil
}

func validateImage(image *Image) error {
	if image.URI == "" {
		return &ValidationError{Field: "image.url", Reason: "is required"}
	}
	if image.Link == "" {
		return &ValidationError{Field: "image.link", Reason: "is required"}
	}
	if image.Title == "" {
		return &ValidationError{Field: "image.title", Reason: "is required"}
	}
	if image.Description != nil && *image.Description == "" {
		return &ValidationError{Field: "image.description", Reason: "must not be empty when set"}
	}
	if image.Width != nil && (*image.Width < 0 || *image.Width > maxImageWidth) {
		return &ValidationError{
			Field:  "image.width",
			Reason: fmt.Sprintf("must be between 0 and %d, got %d", maxImageWidth, *image.Width),
		}
	}
	if image.Height != nil && (*image.Height < 0 || *image.Height > maxImageHeight) {
		return &ValidationError{
			Field:  "image.height",
			Reason: fmt.Sprintf("must be between 0 and %d, got %d", maxImageHeight, *image.Height),
		}
	}
	return nil
}

// RenderedFeed is a validated, serialized document.
type RenderedFeed struct {
	encoding string
	xml      string
}

// Encoding returns the charset declared in the XML declaration.
func (f *RenderedFeed) Encoding() string {
	return f.encoding
}

// String returns the document as a UTF-8 Go string.
func (f *RenderedFeed) String() string {
	return f.xml
}

// Bytes returns the document transcoded to the declared charset.
func (f *RenderedFeed) Bytes() ([]byte, error) {
	if strings.EqualFold(f.encoding, "UTF-8") {
		return []byte(f.xml), nil
	}

	enc, err := htmlindex.Get(strings.ToLower(f.encoding))
	if err != nil {
		return nil, fmt.Errorf("unsupported encoding %q: %w", f.encoding, err)
	}

	out, err := enc.NewEncoder().String(f.xml)
	if err != nil {
		return nil, fmt.Errorf("failed to encode feed as %s: %w", f.encoding, err)
	}

	return []byte(out), nil
}
