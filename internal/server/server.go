// Package server provides the HTTP server and handlers.
package server

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/Bryant005/NerdsMedia/internal/feed"
	"github.com/Bryant005/NerdsMedia/internal/model"
	"github.com/Bryant005/NerdsMedia/internal/repo"
	"github.com/Bryant005/NerdsMedia/internal/router"
	"github.com/Bryant005/NerdsMedia/internal/upload"
)

//go:embed templates/*.html
var templatesFS embed.FS

// maxFormMemory bounds how much of a multipart body is held in memory
// before spilling to disk.
const maxFormMemory = 32 << 20

// Config holds server settings.
type Config struct {
	SiteTitle      string
	BaseURL        string
	MaxUploadBytes int64 // 0 = unlimited
}

// Server is the main HTTP server.
type Server struct {
	cfg       Config
	repo      *repo.Repository
	importer  *feed.Importer
	router    chi.Router
	templates *template.Template
}

// New creates a new server.
func New(rep *repo.Repository, cfg Config) (*Server, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"safeHTML": func(s string) template.HTML { return template.HTML(s) },
		"excerpt":  deriveExcerpt,
	}).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	s := &Server{
		cfg:       cfg,
		repo:      rep,
		importer:  feed.NewImporter(),
		templates: tmpl,
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	// Form submissions.
	r.Post("/news", s.handlePublishNews)
	r.Post("/gallery", s.handleUploadImage)
	r.Post("/videos", s.handleAddVideo)

	r.Get("/search", s.handleSearch)
	r.Get("/feed.xml", s.handleFeedXML)

	// API.
	r.Post("/api/import-feed", s.handleImportFeed)

	// Everything else resolves as a view fragment.
	r.Get("/*", s.handlePage)

	s.router = r
}

// Router exposes the chi router for serving and tests.
func (s *Server) Router() chi.Router { return s.router }

// --- Page Handlers ---

// pageData is passed to every view template.
type pageData struct {
	Title   string
	Notice  string
	Query   string
	Recent  []model.NewsPost
	News    []model.NewsPost
	Post    model.NewsPost
	Videos  []model.VideoItem
	Gallery []model.GalleryItem
	Results []repo.SearchResult
}

// handlePage resolves the URL path as a location fragment and renders
// the matching view. Unknown fragments get the not-found view with a
// 404 status; that is a defined state, not an error.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	rt := router.Resolve(strings.TrimPrefix(r.URL.Path, "/"))
	data := pageData{
		Title:  router.TitleFor(rt.View),
		Notice: r.URL.Query().Get("notice"),
	}

	switch rt.View {
	case router.ViewHome:
		data.Recent = s.repo.RecentNews(6)
		s.render(w, "home", data)
	case router.ViewNews:
		data.News = reverseNews(s.repo.News())
		s.render(w, "news", data)
	case router.ViewNewsPost:
		post, ok := s.repo.NewsByID(rt.ID)
		if !ok {
			s.renderNotFound(w)
			return
		}
		data.Title = fmt.Sprintf("%s — NerdsMedia", post.Title)
		data.Post = post
		s.render(w, "post", data)
	case router.ViewVideos:
		data.Videos = reverseVideos(s.repo.Videos())
		s.render(w, "videos", data)
	case router.ViewGallery:
		data.Gallery = reverseGallery(s.repo.Gallery())
		s.render(w, "gallery", data)
	case router.ViewAbout:
		s.render(w, "about", data)
	default:
		s.renderNotFound(w)
	}
}

func (s *Server) renderNotFound(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	data := pageData{Title: router.TitleFor(router.ViewNotFound)}
	if err := s.templates.ExecuteTemplate(w, "notfound", data); err != nil {
		log.Printf("Template error: %v", err)
	}
}

// handleSearch renders title matches across all collections. An empty
// or whitespace-only query means search is inactive; the visitor is
// sent back to the view they came from instead of a stale result grid.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if strings.TrimSpace(q) == "" {
		back := r.Referer()
		if back == "" {
			back = "/"
		}
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}
	data := pageData{
		Title:   fmt.Sprintf("Search: %s — NerdsMedia", q),
		Query:   q,
		Results: s.repo.Search(q),
	}
	s.render(w, "search", data)
}

// --- Form Handlers ---

// handlePublishNews creates a news post from the publish form. Title is
// required; the thumbnail file is optional and stored inline as a data
// URL. Validation failure aborts with no mutation.
func (s *Server) handlePublishNews(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		s.redirectNotice(w, r, "/", "Could not read the form")
		return
	}
	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		s.redirectNotice(w, r, "/", "Title required")
		return
	}
	content := strings.TrimSpace(r.FormValue("content"))
	author := strings.TrimSpace(r.FormValue("author"))
	if author == "" {
		author = model.DefaultAuthor
	}

	thumbnail, err := s.formDataURL(r, "thumbnail")
	if err != nil {
		s.redirectNotice(w, r, "/", uploadNotice(err))
		return
	}

	post := model.NewsPost{
		ID:        uuid.NewString(),
		Title:     title,
		Content:   content,
		Thumbnail: thumbnail,
		Excerpt:   deriveExcerpt(content),
		Author:    author,
		Date:      today(),
	}
	s.appendAndRedirect(w, r, "/news", "Published", s.repo.AppendNews(post))
}

// handleUploadImage adds an image to the gallery. The file is required;
// title defaults to the file name.
func (s *Server) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		s.redirectNotice(w, r, "/", "Could not read the form")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		s.redirectNotice(w, r, "/", "Choose an image")
		return
	}
	defer file.Close()

	src, err := upload.DataURL(file, header.Header.Get("Content-Type"), s.cfg.MaxUploadBytes)
	if err != nil {
		s.redirectNotice(w, r, "/", uploadNotice(err))
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		title = header.Filename
	}
	item := model.GalleryItem{
		ID:    uuid.NewString(),
		Type:  model.GalleryTypeImage,
		Title: title,
		Src:   src,
		Alt:   title,
		Desc:  strings.TrimSpace(r.FormValue("desc")),
		Date:  today(),
	}
	s.appendAndRedirect(w, r, "/gallery", "Image added to gallery", s.repo.AppendGalleryItem(item))
}

// handleAddVideo adds a video from either an uploaded file or an
// external link; at least one source is required.
func (s *Server) handleAddVideo(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		s.redirectNotice(w, r, "/", "Could not read the form")
		return
	}
	link := strings.TrimSpace(r.FormValue("link"))

	var src, filename string
	file, header, err := r.FormFile("video")
	switch err {
	case nil:
		defer file.Close()
		src, err = upload.DataURL(file, header.Header.Get("Content-Type"), s.cfg.MaxUploadBytes)
		if err != nil {
			s.redirectNotice(w, r, "/", uploadNotice(err))
			return
		}
		filename = header.Filename
	case http.ErrMissingFile:
		if link == "" {
			s.redirectNotice(w, r, "/", "Provide a video file or link")
			return
		}
		src = link
	default:
		s.redirectNotice(w, r, "/", "Could not read the video file")
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		if filename != "" {
			title = filename
		} else {
			title = link
		}
	}
	video := model.VideoItem{
		ID:    uuid.NewString(),
		Title: title,
		Src:   src,
		Date:  today(),
	}
	s.appendAndRedirect(w, r, "/videos", "Video added", s.repo.AppendVideo(video))
}

// --- API Handlers ---

// handleImportFeed pulls posts from an external RSS/Atom feed into the
// news collection.
func (s *Server) handleImportFeed(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.URL) == "" {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), time.Minute)
	defer cancel()

	posts, err := s.importer.Import(ctx, req.URL)
	if err != nil {
		http.Error(w, fmt.Sprintf("Import error: %v", err), http.StatusBadGateway)
		return
	}

	imported := 0
	for _, p := range posts {
		if err := s.repo.AppendNews(p); err != nil {
			log.Printf("Error persisting imported post %s: %v", p.ID, err)
			continue
		}
		imported++
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":   "ok",
		"imported": imported,
		"total":    len(posts),
	})
}

// handleFeedXML serves the news collection as RSS 2.0.
func (s *Server) handleFeedXML(w http.ResponseWriter, r *http.Request) {
	data, err := feed.Export(s.cfg.SiteTitle, s.cfg.BaseURL, s.repo.News())
	if err != nil {
		http.Error(w, "Failed to export feed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	w.Write(data)
}

// --- Helpers ---

func (s *Server) render(w http.ResponseWriter, name string, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		log.Printf("Template error: %v", err)
		http.Error(w, "Render error", http.StatusInternalServerError)
	}
}

// appendAndRedirect routes every submission outcome through the same
// notice banner. A failed persist keeps the entity for this session
// and says so, rather than dropping the submission.
func (s *Server) appendAndRedirect(w http.ResponseWriter, r *http.Request, dest, ok string, err error) {
	if err != nil {
		log.Printf("Error persisting entry: %v", err)
		s.redirectNotice(w, r, dest, "Saved for this session only — storage failed")
		return
	}
	s.redirectNotice(w, r, dest, ok)
}

func (s *Server) redirectNotice(w http.ResponseWriter, r *http.Request, dest, notice string) {
	http.Redirect(w, r, dest+"?notice="+url.QueryEscape(notice), http.StatusSeeOther)
}

// formDataURL encodes an optional form file as a data URL. A missing
// file yields an empty string, not an error.
func (s *Server) formDataURL(r *http.Request, field string) (string, error) {
	file, header, err := r.FormFile(field)
	if err == http.ErrMissingFile {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	defer file.Close()
	return upload.DataURL(file, header.Header.Get("Content-Type"), s.cfg.MaxUploadBytes)
}

func uploadNotice(err error) string {
	if err == upload.ErrTooLarge {
		return "File too large"
	}
	return "Could not read the file"
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// deriveExcerpt strips markup and truncates, matching the excerpt shown
// on list cards.
func deriveExcerpt(content string) string {
	text := strings.TrimSpace(tagPattern.ReplaceAllString(content, ""))
	if text == "" {
		return ""
	}
	if len(text) > 200 {
		text = text[:200]
	}
	return text + "..."
}

func today() string {
	return time.Now().Format("2006-01-02")
}

func reverseNews(in []model.NewsPost) []model.NewsPost {
	out := make([]model.NewsPost, len(in))
	for i, p := range in {
		out[len(in)-1-i] = p
	}
	return out
}

func reverseVideos(in []model.VideoItem) []model.VideoItem {
	out := make([]model.VideoItem, len(in))
	for i, v := range in {
		out[len(in)-1-i] = v
	}
	return out
}

func reverseGallery(in []model.GalleryItem) []model.GalleryItem {
	out := make([]model.GalleryItem, len(in))
	for i, g := range in {
		out[len(in)-1-i] = g
	}
	return out
}
