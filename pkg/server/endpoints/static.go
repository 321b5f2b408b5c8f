package endpoints

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/doodlesbykumbi/pawguardian/pkg/server"
)

//go:embed static/css
var staticFiles embed.FS

// cssFS is the stylesheet tree served under /css/
var cssFS = mustSub(staticFiles, "static/css")

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}

// RegisterStaticFiles serves the dashboard stylesheet compiled into the
// binary. Browsers may cache it for as long as the process runs.
func RegisterStaticFiles(srv *server.Server) {
	files := http.StripPrefix("/css/", http.FileServer(http.FS(cssFS)))
	srv.Router.PathPrefix("/css/").Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		files.ServeHTTP(w, r)
	}))

	// There is no icon; answer quickly instead of falling through to the
	// dashboard route.
	srv.Router.Handle("/favicon.ico", http.NotFoundHandler())
}
