package route

import (
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"advisordesk/src-server/utils"
)

// SPA serves the prebuilt web client, falling back to index.html for
// client-side routes. Nothing is registered when no directory is set.
func SPA(muxer *http.ServeMux, as *utils.AppState) {
	dir := as.Config.GetStaticWebClientDir()
	if dir == "" {
		return
	}
	SPAFromFS(muxer, os.DirFS(dir))
}

func SPAFromFS(muxer *http.ServeMux, fsys fs.FS) {
	files := http.FS(fsys)
	if _, err := fs.Stat(fsys, "index.html"); err != nil {
		slog.Error("Can't open index.html", "err", err)
		return
	}

	serveIndex := func(w http.ResponseWriter, r *http.Request) {
		indexFile, err := files.Open("index.html")
		if err != nil {
			http.NotFound(w, r)
			return
		}
		defer indexFile.Close()
		indexFileStat, err := indexFile.Stat()
		if err != nil {
			http.NotFound(w, r)
			return
		}
		http.ServeContent(w, r, indexFileStat.Name(), indexFileStat.ModTime(), indexFile)
	}

	muxer.HandleFunc("GET /{filepath...}", func(w http.ResponseWriter, r *http.Request) {
		filepath := filepath.Clean(r.PathValue("filepath"))
		switch filepath {
		case ".":
			filepath = "index.html"
		case "calendar", "tasks", "clients":
			filepath += "/index.html"
		case "404":
			filepath = "404.html"
		}

		file, err := files.Open(filepath)
		if err != nil {
			serveIndex(w, r)
			return
		}
		defer file.Close()

		stat, err := file.Stat()
		if err != nil || stat.IsDir() {
			serveIndex(w, r)
			return
		}

		http.ServeContent(w, r, stat.Name(), stat.ModTime(), file)
	})
}
