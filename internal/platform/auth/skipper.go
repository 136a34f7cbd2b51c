package auth

import (
	"github.com/labstack/echo/v4"
)

// publicPaths bypass authentication.
var publicPaths = map[string]bool{
	"/health":    true,
	"/health/db": true,
	"/metrics":   true,

	"/api/v1/openapi.json": true,
	"/api/v1/docs":         true,
}

// AuthSkipper matches on the registered route, so it only works after
// routing. Use IsPublicPath for pre-routing middleware.
func AuthSkipper(c echo.Context) bool {
	return publicPaths[c.Path()] || publicPaths[c.Request().URL.Path]
}

func IsPublicPath(path string) bool {
	return publicPaths[path]
}
