// Package repo holds the in-memory content collections, formed by
// merging bundled fixture data with user-added entries from the kv
// store. It is the single writer for all three collections.
package repo

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Bryant005/NerdsMedia/internal/kv"
	"github.com/Bryant005/NerdsMedia/internal/model"
)

// Fixture file names, resolved against the data directory.
const (
	FixtureNews    = "news.json"
	FixtureGallery = "gallery.json"
	FixtureVideos  = "videos.json"
)

// Repository owns the three content collections.
type Repository struct {
	mu      sync.Mutex
	store   *kv.Store
	dataDir string

	news    []model.NewsPost
	gallery []model.GalleryItem
	videos  []model.VideoItem

	// Number of fixture entries at the head of each collection. Only
	// the suffix past this point is ever written back to the store.
	fixedNews    int
	fixedGallery int
	fixedVideos  int
}

// New creates a repository backed by the given store, loading fixtures
// from dataDir.
func New(store *kv.Store, dataDir string) *Repository {
	return &Repository{store: store, dataDir: dataDir}
}

// Load populates the collections: fixture entries first, then stored
// (user) entries. A missing or malformed fixture file degrades to an
// empty slice, and so does a missing or corrupt stored value; startup
// never fails on bad content data.
func (r *Repository) Load() {
	r.mu.Lock()
	defer r.mu.Unlock()

	fn := loadFixture[model.NewsPost](filepath.Join(r.dataDir, FixtureNews))
	fg := loadFixture[model.GalleryItem](filepath.Join(r.dataDir, FixtureGallery))
	fv := loadFixture[model.VideoItem](filepath.Join(r.dataDir, FixtureVideos))

	r.news = append(fn, readStored[model.NewsPost](r.store, model.KeyNews)...)
	r.gallery = append(fg, readStored[model.GalleryItem](r.store, model.KeyGallery)...)
	r.videos = append(fv, readStored[model.VideoItem](r.store, model.KeyVideos)...)

	r.fixedNews = len(fn)
	r.fixedGallery = len(fg)
	r.fixedVideos = len(fv)
}

// loadFixture reads a JSON array of entities from disk, treating any
// failure as an empty collection.
func loadFixture[T any](path string) []T {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Skipping fixture %s: %v", path, err)
		}
		return nil
	}
	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		log.Printf("Skipping fixture %s: %v", path, err)
		return nil
	}
	return out
}

// readStored fetches and decodes a stored collection. Corrupt state is
// indistinguishable from never-written; both yield nil.
func readStored[T any](s *kv.Store, key string) []T {
	raw, err := s.Get(key)
	if err != nil {
		return nil
	}
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

// News returns a snapshot of the news collection in insertion order.
func (r *Repository) News() []model.NewsPost {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.NewsPost(nil), r.news...)
}

// Gallery returns a snapshot of the gallery collection in insertion order.
func (r *Repository) Gallery() []model.GalleryItem {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.GalleryItem(nil), r.gallery...)
}

// Videos returns a snapshot of the video collection in insertion order.
func (r *Repository) Videos() []model.VideoItem {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.VideoItem(nil), r.videos...)
}

// RecentNews returns up to n posts, newest insertion first.
func (r *Repository) RecentNews(n int) []model.NewsPost {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.NewsPost, 0, n)
	for i := len(r.news) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, r.news[i])
	}
	return out
}

// NewsByID finds a post by id.
func (r *Repository) NewsByID(id string) (model.NewsPost, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.news {
		if p.ID == id {
			return p, true
		}
	}
	return model.NewsPost{}, false
}

// AppendNews adds a post to the collection and persists the user
// entries. The in-memory append always takes effect; a non-nil error
// means the post lives only in this session.
func (r *Repository) AppendNews(p model.NewsPost) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.news = append(r.news, p)
	return r.store.Put(model.KeyNews, r.news[r.fixedNews:])
}

// AppendGalleryItem adds a gallery item and persists the user entries.
func (r *Repository) AppendGalleryItem(it model.GalleryItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gallery = append(r.gallery, it)
	return r.store.Put(model.KeyGallery, r.gallery[r.fixedGallery:])
}

// AppendVideo adds a video and persists the user entries.
func (r *Repository) AppendVideo(v model.VideoItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.videos = append(r.videos, v)
	return r.store.Put(model.KeyVideos, r.videos[r.fixedVideos:])
}

// SearchResult is one title match from any collection.
type SearchResult struct {
	ID    string
	Kind  string // "news", "video" or "gallery"
	Title string
	Date  string
}

// Search performs a case-insensitive substring match against titles,
// news first, then videos, then gallery. An empty or whitespace-only
// query means search is inactive and yields nil.
func (r *Repository) Search(query string) []SearchResult {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []SearchResult
	for _, p := range r.news {
		if strings.Contains(strings.ToLower(p.Title), q) {
			out = append(out, SearchResult{ID: p.ID, Kind: "news", Title: p.Title, Date: p.Date})
		}
	}
	for _, v := range r.videos {
		if strings.Contains(strings.ToLower(v.Title), q) {
			out = append(out, SearchResult{ID: v.ID, Kind: "video", Title: v.Title, Date: v.Date})
		}
	}
	for _, g := range r.gallery {
		if strings.Contains(strings.ToLower(g.Title), q) {
			out = append(out, SearchResult{ID: g.ID, Kind: "gallery", Title: g.Title, Date: g.Date})
		}
	}
	return out
}
