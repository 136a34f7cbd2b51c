package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestParseLimit(t *testing.T) {
	tests := map[string]int64{
		"":      1 << 20,
		"512":   512,
		"4K":    4 << 10,
		"2MB":   2 << 20,
		"1g":    1 << 30,
		"bogus": 1 << 20,
	}
	for in, want := range tests {
		if got := parseLimit(in); got != want {
			t.Errorf("parseLimit(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestBodyLimit_RejectsByContentLength(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/patients", strings.NewReader(strings.Repeat("a", 20)))
	c := e.NewContext(req, httptest.NewRecorder())

	err := BodyLimit("10")(func(c echo.Context) error { return nil })(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %v", err)
	}
}

func TestBodyLimit_RejectsWhileReading(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/patients", strings.NewReader(strings.Repeat("a", 20)))
	req.ContentLength = -1
	c := e.NewContext(req, httptest.NewRecorder())

	var readErr error
	_ = BodyLimit("10")(func(c echo.Context) error {
		_, readErr = io.ReadAll(c.Request().Body)
		return nil
	})(c)
	if readErr == nil {
		t.Fatal("expected read error once limit is exceeded")
	}
}

func TestBodyLimit_AllowsSmallBody(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/patients", strings.NewReader(`{"name":"Asha"}`))
	c := e.NewContext(req, httptest.NewRecorder())

	var body []byte
	err := BodyLimit("1K")(func(c echo.Context) error {
		var err error
		body, err = io.ReadAll(c.Request().Body)
		return err
	})(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(body) != `{"name":"Asha"}` {
		t.Errorf("unexpected body %q", body)
	}
}
