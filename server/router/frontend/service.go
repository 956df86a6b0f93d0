// Package frontend serves the embedded chat page.
package frontend

import (
	"io/fs"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type FrontendService struct{}

func NewFrontendService() *FrontendService {
	return &FrontendService{}
}

// Serve mounts the embedded chat page on all non-API routes.
func (*FrontendService) Serve(e *echo.Echo) {
	skipper := func(c echo.Context) bool {
		// Skip API and operational routes.
		if strings.HasPrefix(c.Path(), "/api") ||
			strings.HasPrefix(c.Path(), "/metrics") ||
			strings.HasPrefix(c.Path(), "/healthz") {
			return true
		}

		c.Response().Header().Set("X-Content-Type-Options", "nosniff")
		// The page is tiny and unhashed; keep it out of browser caches.
		c.Response().Header().Set(echo.HeaderCacheControl, "no-cache, no-store, must-revalidate")
		return false
	}

	e.Use(middleware.StaticWithConfig(middleware.StaticConfig{
		Filesystem: getFileSystem("dist"),
		HTML5:      true,
		Skipper:    skipper,
	}))
}

func getFileSystem(path string) http.FileSystem {
	sub, err := fs.Sub(embeddedFiles, path)
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}
