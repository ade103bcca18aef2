package main

import (
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// fileServerHandler serves ui/static and renders the not found page for anything else.
func (app *application) fileServerHandler() (http.Handler, error) {
	fileRoot := path.Join(".", "ui", "static")
	var err error
	if _, err = os.Stat(fileRoot); os.IsNotExist(err) {
		var dir string
		dir, err = findModuleDir()
		if err != nil {
			return nil, fmt.Errorf("findModuleDir: %w", err)
		}
		fileRoot = path.Join(dir, "ui", "static")
	}
	var stat os.FileInfo
	if stat, err = os.Stat(fileRoot); os.IsNotExist(err) || !stat.IsDir() {
		return nil, fmt.Errorf("file server root %s does not exist or is not a directory", fileRoot)
	}
	fileServer := http.FileServer(http.Dir(fileRoot))

	noAuth := func(next http.Handler) http.Handler {
		return app.recoverPanic(app.logAndTraceRequest(secureHeaders(app.crossOriginProtection(
			commonContext(app.timeout(next))))))
	}
	notFound := app.recoverPanic(noCache(app.logAndTraceRequest(app.basicAuth(secureHeaders(
		commonContext(http.HandlerFunc(app.notFound)))))))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Directory traversal attempts get the not found page too.
		cleanPath := filepath.Clean(r.URL.Path)
		if strings.Contains(cleanPath, "..") {
			notFound.ServeHTTP(w, r)
			return
		}
		staticPath := filepath.Join(fileRoot, cleanPath)
		if stat, statErr := os.Stat(staticPath); statErr != nil || stat.IsDir() {
			notFound.ServeHTTP(w, r)
			return
		}
		noAuth(cacheForever(fileServer)).ServeHTTP(w, r)
	}), nil
}
