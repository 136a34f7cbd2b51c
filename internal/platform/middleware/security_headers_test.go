package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestSecurityHeaders(t *testing.T) {
	for _, hsts := range []bool{false, true} {
		e := echo.New()
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

		_ = SecurityHeaders(hsts)(func(c echo.Context) error { return c.NoContent(http.StatusOK) })(c)

		if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
			t.Error("expected nosniff")
		}
		if rec.Header().Get("Cache-Control") != "no-store" {
			t.Error("expected no-store")
		}
		if got := rec.Header().Get("Strict-Transport-Security") != ""; got != hsts {
			t.Errorf("hsts=%v but header present=%v", hsts, got)
		}
	}
}
