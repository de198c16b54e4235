package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Bryant005/NerdsMedia/internal/kv"
	"github.com/Bryant005/NerdsMedia/internal/model"
	"github.com/Bryant005/NerdsMedia/internal/repo"
)

func newTestServer(t *testing.T) (*Server, *repo.Repository) {
	t.Helper()
	store, err := kv.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	dir := t.TempDir()
	fixture, _ := json.Marshal([]model.NewsPost{
		{ID: "n1", Title: "Launch Day", Content: "<p>It shipped.</p>", Author: "Editor", Date: "2025-06-01"},
	})
	if err := os.WriteFile(filepath.Join(dir, repo.FixtureNews), fixture, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	rep := repo.New(store, dir)
	rep.Load()

	srv, err := New(rep, Config{SiteTitle: "NerdsMedia", BaseURL: "https://example.com"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return srv, rep
}

func get(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

// postForm sends a multipart form. files maps field name to a
// filename/content pair.
func postForm(t *testing.T, srv *Server, path string, fields map[string]string, files map[string][2]string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	for field, f := range files {
		fw, err := mw.CreateFormFile(field, f[0])
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		io.WriteString(fw, f[1])
	}
	mw.Close()

	req := httptest.NewRequest("POST", path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func TestHomeView(t *testing.T) {
	srv, _ := newTestServer(t)
	w := get(t, srv, "/")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "<title>NerdsMedia — Home</title>") {
		t.Error("missing home title")
	}
	if !strings.Contains(body, "Launch Day") {
		t.Error("home does not list the fixture post")
	}
}

func TestNewsListReverseOrder(t *testing.T) {
	srv, rep := newTestServer(t)
	if err := rep.AppendNews(model.NewsPost{ID: "u1", Title: "Patch Notes", Date: "2025-07-01"}); err != nil {
		t.Fatalf("AppendNews: %v", err)
	}

	body := get(t, srv, "/news").Body.String()
	patch := strings.Index(body, "Patch Notes")
	launch := strings.Index(body, "Launch Day")
	if patch < 0 || launch < 0 {
		t.Fatal("posts missing from news view")
	}
	if patch > launch {
		t.Error("user post should render above the fixture post")
	}
}

func TestNewsPostView(t *testing.T) {
	srv, _ := newTestServer(t)
	w := get(t, srv, "/news/n1")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "<title>Launch Day — NerdsMedia</title>") {
		t.Error("missing post title")
	}
	// Rich-text content renders unescaped.
	if !strings.Contains(body, "<p>It shipped.</p>") {
		t.Error("content was escaped or dropped")
	}
}

func TestNewsPostTitleEscaped(t *testing.T) {
	srv, rep := newTestServer(t)
	if err := rep.AppendNews(model.NewsPost{ID: "u2", Title: "<script>alert(1)</script>", Date: "2025-07-01"}); err != nil {
		t.Fatalf("AppendNews: %v", err)
	}
	body := get(t, srv, "/news/u2").Body.String()
	if strings.Contains(body, "<script>alert(1)</script>") {
		t.Error("title rendered unescaped")
	}
}

func TestUnknownPostIs404(t *testing.T) {
	srv, _ := newTestServer(t)
	if w := get(t, srv, "/news/nope"); w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestUnknownRouteIs404(t *testing.T) {
	srv, _ := newTestServer(t)
	w := get(t, srv, "/loot/123")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if !strings.Contains(w.Body.String(), "404 — Not Found") {
		t.Error("missing not-found view body")
	}
}

func TestPublishNews(t *testing.T) {
	srv, rep := newTestServer(t)
	w := postForm(t, srv, "/news", map[string]string{
		"title":   "Patch Notes",
		"content": "<p>Bug fixes.</p>",
	}, nil)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", w.Code)
	}
	loc := w.Header().Get("Location")
	if !strings.HasPrefix(loc, "/news?notice=") {
		t.Errorf("Location = %q", loc)
	}

	news := rep.News()
	if len(news) != 2 {
		t.Fatalf("len(news) = %d, want 2", len(news))
	}
	got := news[1]
	if got.Title != "Patch Notes" {
		t.Errorf("title = %q", got.Title)
	}
	if got.Author != model.DefaultAuthor {
		t.Errorf("author = %q, want default", got.Author)
	}
	if got.Excerpt != "Bug fixes...." {
		t.Errorf("excerpt = %q", got.Excerpt)
	}
	if got.ID == "" || got.ID == "n1" {
		t.Errorf("id = %q", got.ID)
	}
}

func TestPublishNewsRequiresTitle(t *testing.T) {
	srv, rep := newTestServer(t)
	w := postForm(t, srv, "/news", map[string]string{"content": "x"}, nil)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Header().Get("Location"), "Title+required") {
		t.Errorf("Location = %q, want title-required notice", w.Header().Get("Location"))
	}
	if len(rep.News()) != 1 {
		t.Error("validation failure must not mutate the collection")
	}
}

func TestPublishNewsWithThumbnail(t *testing.T) {
	srv, rep := newTestServer(t)
	postForm(t, srv, "/news", map[string]string{"title": "Shot"}, map[string][2]string{
		"thumbnail": {"shot.png", "\x89PNG fake bytes"},
	})
	news := rep.News()
	if len(news) != 2 {
		t.Fatalf("len(news) = %d", len(news))
	}
	if !strings.HasPrefix(news[1].Thumbnail, "data:") {
		t.Errorf("thumbnail = %q, want data URL", news[1].Thumbnail)
	}
}

func TestUploadImage(t *testing.T) {
	srv, rep := newTestServer(t)
	w := postForm(t, srv, "/gallery", map[string]string{"desc": "boss fight"}, map[string][2]string{
		"image": {"boss.gif", "GIF89a..."},
	})
	if w.Code != http.StatusSeeOther || !strings.HasPrefix(w.Header().Get("Location"), "/gallery?") {
		t.Fatalf("status = %d, loc = %q", w.Code, w.Header().Get("Location"))
	}
	items := rep.Gallery()
	if len(items) != 1 {
		t.Fatalf("len(gallery) = %d", len(items))
	}
	it := items[0]
	if it.Title != "boss.gif" {
		t.Errorf("title = %q, want filename default", it.Title)
	}
	if it.Alt != it.Title {
		t.Errorf("alt = %q, want title default", it.Alt)
	}
	if it.Type != model.GalleryTypeImage {
		t.Errorf("type = %q", it.Type)
	}
	if !strings.HasPrefix(it.Src, "data:") {
		t.Errorf("src = %q, want data URL", it.Src)
	}
}

func TestUploadImageRequiresFile(t *testing.T) {
	srv, rep := newTestServer(t)
	w := postForm(t, srv, "/gallery", map[string]string{"title": "no file"}, nil)
	if !strings.Contains(w.Header().Get("Location"), "Choose+an+image") {
		t.Errorf("Location = %q", w.Header().Get("Location"))
	}
	if len(rep.Gallery()) != 0 {
		t.Error("gallery mutated on validation failure")
	}
}

func TestAddVideoWithLink(t *testing.T) {
	srv, rep := newTestServer(t)
	postForm(t, srv, "/videos", map[string]string{"link": "https://example.com/clip.mp4"}, nil)
	videos := rep.Videos()
	if len(videos) != 1 {
		t.Fatalf("len(videos) = %d", len(videos))
	}
	if videos[0].Src != "https://example.com/clip.mp4" {
		t.Errorf("src = %q", videos[0].Src)
	}
	if videos[0].Title != "https://example.com/clip.mp4" {
		t.Errorf("title = %q, want link default", videos[0].Title)
	}
}

func TestAddVideoRequiresSource(t *testing.T) {
	srv, rep := newTestServer(t)
	w := postForm(t, srv, "/videos", map[string]string{"title": "nothing"}, nil)
	if !strings.Contains(w.Header().Get("Location"), "Provide+a+video") {
		t.Errorf("Location = %q", w.Header().Get("Location"))
	}
	if len(rep.Videos()) != 0 {
		t.Error("video collection mutated on validation failure")
	}
}

func TestSearchView(t *testing.T) {
	srv, rep := newTestServer(t)
	if err := rep.AppendNews(model.NewsPost{ID: "u1", Title: "Patch Notes", Date: "2025-07-01"}); err != nil {
		t.Fatalf("AppendNews: %v", err)
	}

	body := get(t, srv, "/search?q=patch").Body.String()
	if !strings.Contains(body, "Patch Notes") {
		t.Error("search result missing")
	}
	if strings.Contains(body, "Launch Day") {
		t.Error("non-matching post in results")
	}

	// Zero matches still renders the (empty) result grid.
	w := get(t, srv, "/search?q=zzz")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "searchGrid") {
		t.Errorf("empty search: status = %d", w.Code)
	}
}

func TestEmptySearchRestoresView(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest("GET", "/search?q=++", nil)
	req.Header.Set("Referer", "/videos")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want redirect", w.Code)
	}
	if w.Header().Get("Location") != "/videos" {
		t.Errorf("Location = %q, want /videos", w.Header().Get("Location"))
	}
}

func TestNoticeBanner(t *testing.T) {
	srv, _ := newTestServer(t)
	body := get(t, srv, "/news?notice=Published").Body.String()
	if !strings.Contains(body, `class="notice"`) || !strings.Contains(body, "Published") {
		t.Error("notice banner missing")
	}
}

func TestFeedXML(t *testing.T) {
	srv, _ := newTestServer(t)
	w := get(t, srv, "/feed.xml")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "application/rss+xml") {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(w.Body.String(), "Launch Day") {
		t.Error("feed missing fixture post")
	}
}

func TestImportFeed(t *testing.T) {
	srv, rep := newTestServer(t)
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		io.WriteString(w, `<?xml version="1.0"?><rss version="2.0"><channel><title>Wire</title>
			<item><title>Imported Story</title><description>d</description></item>
			</channel></rss>`)
	}))
	defer upstream.Close()

	reqBody, _ := json.Marshal(map[string]string{"url": upstream.URL})
	req := httptest.NewRequest("POST", "/api/import-feed", bytes.NewReader(reqBody))
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp["imported"] != float64(1) {
		t.Errorf("imported = %v, want 1", resp["imported"])
	}
	if len(rep.News()) != 2 {
		t.Errorf("len(news) = %d, want fixture + imported", len(rep.News()))
	}
}

func TestImportFeedBadRequest(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest("POST", "/api/import-feed", strings.NewReader("{}"))
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestDeriveExcerpt(t *testing.T) {
	if got := deriveExcerpt("<p>Hello <b>world</b></p>"); got != "Hello world..." {
		t.Errorf("got %q", got)
	}
	if got := deriveExcerpt(""); got != "" {
		t.Errorf("got %q, want empty", got)
	}
	long := strings.Repeat("a", 300)
	if got := deriveExcerpt(long); len(got) != 203 {
		t.Errorf("len = %d, want 200 + ellipsis", len(got))
	}
}
