// Package model defines shared data structures.
package model

// NewsPost is a single news article, either shipped as fixture data or
// published by a visitor.
type NewsPost struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Slug      string `json:"slug,omitempty"`
	Content   string `json:"content,omitempty"` // trusted HTML, rendered unescaped
	Excerpt   string `json:"excerpt,omitempty"`
	Thumbnail string `json:"thumbnail,omitempty"` // data URL or external URL
	Author    string `json:"author,omitempty"`
	Date      string `json:"date"` // YYYY-MM-DD
}

// GalleryItem is an image (or other media kind) in the gallery.
type GalleryItem struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Title string `json:"title"`
	Src   string `json:"src"` // data URL or external URL
	Alt   string `json:"alt,omitempty"`
	Desc  string `json:"desc,omitempty"`
	Date  string `json:"date"`
}

// VideoItem is a playable video. Src holds a directly playable source
// (data URL or direct file URL); Embed holds a hosted-platform video
// identifier instead. At least one of the two must be set.
type VideoItem struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Src     string `json:"src,omitempty"`
	Embed   string `json:"embed,omitempty"`
	Thumb   string `json:"thumb,omitempty"`
	Excerpt string `json:"excerpt,omitempty"`
	Date    string `json:"date"`
}

// GalleryTypeImage is the only gallery item type the views render with
// an img tag; anything else falls back to a caption-only card.
const GalleryTypeImage = "image"

// DefaultAuthor is used when a published post carries no author name.
const DefaultAuthor = "Community"

// Storage key constants, one per collection. Each key holds the JSON
// array of user-added entities only; fixtures are never written back.
const (
	KeyNews    = "news"
	KeyGallery = "gallery"
	KeyVideos  = "videos"
)
