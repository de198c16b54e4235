// Package feed handles RSS export of the news collection and import of
// posts from external feeds.
package feed

import (
	"context"
	"encoding/xml"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mmcdole/gofeed"

	"github.com/Bryant005/NerdsMedia/internal/model"
)

// RSS represents the root of an RSS 2.0 document.
type RSS struct {
	XMLName xml.Name `xml:"rss"`
	Version string   `xml:"version,attr"`
	Channel Channel  `xml:"channel"`
}

// Channel contains the feed metadata and items.
type Channel struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate,omitempty"`
	Items       []Item `xml:"item"`
}

// Item represents a single feed entry.
type Item struct {
	Title       string `xml:"title"`
	Link        string `xml:"link,omitempty"`
	GUID        string `xml:"guid,omitempty"`
	Description string `xml:"description,omitempty"`
	PubDate     string `xml:"pubDate,omitempty"`
}

// Export generates an RSS 2.0 document for the given posts, newest
// insertion first. baseURL is the site root used for item links.
func Export(title, baseURL string, posts []model.NewsPost) ([]byte, error) {
	doc := RSS{
		Version: "2.0",
		Channel: Channel{
			Title:       title,
			Link:        baseURL,
			Description: title,
			PubDate:     time.Now().Format(time.RFC1123Z),
		},
	}
	for i := len(posts) - 1; i >= 0; i-- {
		p := posts[i]
		item := Item{
			Title:       p.Title,
			GUID:        p.ID,
			Description: p.Excerpt,
			PubDate:     pubDate(p.Date),
		}
		if baseURL != "" {
			item.Link = fmt.Sprintf("%s/news/%s", baseURL, p.ID)
		}
		doc.Channel.Items = append(doc.Channel.Items, item)
	}

	output, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), output...), nil
}

// pubDate converts a stored YYYY-MM-DD date to RFC1123Z, passing the
// value through untouched when it doesn't parse.
func pubDate(date string) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	return t.Format(time.RFC1123Z)
}

// Importer fetches external feeds and converts their entries to posts.
type Importer struct {
	parser *gofeed.Parser
}

// NewImporter creates an importer.
func NewImporter() *Importer {
	return &Importer{parser: gofeed.NewParser()}
}

// Import fetches and parses the feed at url, returning its entries as
// news posts. Each post gets a fresh id; the feed title becomes the
// author. Items without a title are skipped.
func (im *Importer) Import(ctx context.Context, url string) ([]model.NewsPost, error) {
	parsed, err := im.parser.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", url, err)
	}

	author := parsed.Title
	if author == "" {
		author = url
	}

	var posts []model.NewsPost
	for _, item := range parsed.Items {
		if item.Title == "" {
			continue
		}
		date := time.Now().Format("2006-01-02")
		if item.PublishedParsed != nil {
			date = item.PublishedParsed.Format("2006-01-02")
		}
		content := item.Content
		if content == "" {
			content = item.Description
		}
		posts = append(posts, model.NewsPost{
			ID:      uuid.NewString(),
			Title:   item.Title,
			Content: content,
			Excerpt: item.Description,
			Author:  author,
			Date:    date,
		})
	}
	return posts, nil
}
