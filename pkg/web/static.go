package web

import (
	"io/fs"
	"net/http"
)

// DistServer serves the asset tree rooted at subdir of fsys, stripping
// urlPrefix from request paths first. An empty urlPrefix serves the tree
// at the handler root. Panics when subdir does not exist in fsys; asset
// trees are embedded, so that is a build defect.
func DistServer(fsys fs.FS, subdir, urlPrefix string) http.HandlerFunc {
	sub, err := fs.Sub(fsys, subdir)
	if err != nil {
		panic("static asset subdirectory missing: " + err.Error())
	}

	server := http.StripPrefix(urlPrefix, http.FileServer(http.FS(sub)))
	return server.ServeHTTP
}
