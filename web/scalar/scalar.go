// Package scalar serves the Scalar API reference UI from embedded assets.
package scalar

import (
	"embed"
	"net/http"

	"github.com/JaimeStill/cascade/pkg/module"
	"github.com/JaimeStill/cascade/pkg/web"
)

//go:embed static
var staticFS embed.FS

// NewModule creates a module serving the API reference UI at basePath.
func NewModule(basePath string) (*module.Module, error) {
	router, err := buildRouter(basePath)
	if err != nil {
		return nil, err
	}
	return module.New(basePath, router), nil
}

func buildRouter(basePath string) (http.Handler, error) {
	views, err := web.NewTemplateSet(staticFS, "static/*.html", basePath)
	if err != nil {
		return nil, err
	}

	router := web.NewRouter()
	router.HandleFunc("GET /{$}", views.PageHandler("index.html", "Cascade API Reference", nil))

	// Asset requests fall through to the embedded static tree.
	router.SetFallback(web.DistServer(staticFS, "static", ""))

	return router, nil
}
