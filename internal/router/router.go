// Package router resolves a location fragment to a view.
package router

import "strings"

// View identifies one of the renderable pages.
type View string

const (
	ViewHome     View = "home"
	ViewNews     View = "news"
	ViewNewsPost View = "news-post"
	ViewVideos   View = "videos"
	ViewGallery  View = "gallery"
	ViewAbout    View = "about"
	ViewNotFound View = "not-found"
)

// Route is the result of resolving a fragment.
type Route struct {
	View View
	ID   string // set only for ViewNewsPost
}

var views = map[string]View{
	"":        ViewHome,
	"home":    ViewHome,
	"news":    ViewNews,
	"videos":  ViewVideos,
	"gallery": ViewGallery,
	"about":   ViewAbout,
}

// Resolve maps a fragment of the form "", "segment" or "segment/id" to
// a route. "news/<id>" selects the single-post view; an unknown segment
// yields the not-found view regardless of id.
func Resolve(fragment string) Route {
	fragment = strings.Trim(fragment, "/")
	segment, id, _ := strings.Cut(fragment, "/")
	view, ok := views[segment]
	if !ok {
		return Route{View: ViewNotFound}
	}
	if view == ViewNews && id != "" {
		return Route{View: ViewNewsPost, ID: id}
	}
	return Route{View: view}
}

// TitleFor returns the document title for a view. The news-post and
// search views build their titles from content and are not listed here.
func TitleFor(v View) string {
	switch v {
	case ViewHome:
		return "NerdsMedia — Home"
	case ViewNews:
		return "NerdsMedia — News"
	case ViewVideos:
		return "NerdsMedia — Videos"
	case ViewGallery:
		return "NerdsMedia — Gallery"
	case ViewAbout:
		return "About — NerdsMedia"
	default:
		return "Not Found — NerdsMedia"
	}
}
