package main

import (
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
)

// fileServerHandler serves ui/static and falls back to the HTML 404 page for anything else.
func (app *application) fileServerHandler() (http.Handler, error) {
	root, err := resolveUIDir(app.staticPath, "static")
	if err != nil {
		return nil, fmt.Errorf("resolve static dir: %w", err)
	}
	fileServer := http.FileServer(http.Dir(root))
	notFound := noCache(http.HandlerFunc(app.notFound))

	static := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The mux has already cleaned the path so it stays inside root.
		name := filepath.Join(root, filepath.FromSlash(path.Clean("/"+r.URL.Path)))
		if stat, statErr := os.Stat(name); statErr != nil || stat.IsDir() {
			notFound.ServeHTTP(w, r)
			return
		}
		cacheForever(fileServer).ServeHTTP(w, r)
	})

	return app.recoverPanic(app.logAndTraceRequest(secureHeaders(app.crossOriginProtection(
		commonContext(app.timeout(static)))))), nil
}
