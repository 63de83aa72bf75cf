package web

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"path"
	"strings"
)

//go:embed dist
var content embed.FS

// pages maps each site path to the embedded HTML file that renders it.
// Every story is rendered by the same page, which fetches by slug.
var pages = map[string]string{
	"/":              "index.html",
	"/admin":         "admin/index.html",
	"/admin/login":   "admin/login/index.html",
	"/admin/stories": "admin/stories/index.html",
	"/stories/*":     "stories/index.html",
}

const notFoundPage = "404.html"

// Handler returns an http.Handler that serves the embedded site pages and
// their assets under /assets/. Unknown paths get the 404 page.
func Handler() (http.Handler, error) {
	fsys, err := fs.Sub(content, "dist")
	if err != nil {
		return nil, fmt.Errorf("loading embedded web assets: %w", err)
	}

	// Read pages once at init.
	bodies := make(map[string][]byte, len(pages)+1)
	for _, name := range append(pageFiles(), notFoundPage) {
		b, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("reading embedded %s: %w", name, err)
		}
		bodies[name] = b
	}

	static := http.FileServer(http.FS(fsys))

	servePage := func(w http.ResponseWriter, status int, name string) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		w.WriteHeader(status)
		w.Write(bodies[name])
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}

		cleanPath := path.Clean("/" + r.URL.Path)
		if name, ok := lookupPage(cleanPath); ok {
			servePage(w, http.StatusOK, name)
			return
		}

		if strings.HasPrefix(cleanPath, "/assets/") {
			if _, err := fs.Stat(fsys, strings.TrimPrefix(cleanPath, "/")); err == nil {
				static.ServeHTTP(w, r)
				return
			}
		}

		servePage(w, http.StatusNotFound, notFoundPage)
	}), nil
}

func lookupPage(p string) (string, bool) {
	if name, ok := pages[p]; ok {
		return name, true
	}
	if dir, slug := path.Split(p); slug != "" {
		if name, ok := pages[dir+"*"]; ok {
			return name, true
		}
	}
	return "", false
}

func pageFiles() []string {
	files := make([]string, 0, len(pages))
	for _, name := range pages {
		files = append(files, name)
	}
	return files
}
