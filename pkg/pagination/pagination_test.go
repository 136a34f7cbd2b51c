package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func paramsFor(target string) Params {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), httptest.NewRecorder())
	return FromContext(c)
}

func TestFromContext(t *testing.T) {
	tests := []struct {
		target string
		want   Params
	}{
		{"/", Params{Limit: DefaultLimit}},
		{"/?limit=10&offset=30", Params{Limit: 10, Offset: 30}},
		{"/?limit=100000", Params{Limit: MaxLimit}},
		{"/?limit=-4&offset=-2", Params{Limit: DefaultLimit}},
		{"/?per_page=25&page=3", Params{Limit: 25, Offset: 50}},
		{"/?page=1", Params{Limit: DefaultLimit}},
	}
	for _, tt := range tests {
		if got := paramsFor(tt.target); got != tt.want {
			t.Errorf("%s: got %+v want %+v", tt.target, got, tt.want)
		}
	}
}

func TestNewResponse_HasMore(t *testing.T) {
	r := NewResponse("ok", []int{1, 2}, 5, Params{Limit: 2, Offset: 2})
	if !r.HasMore {
		t.Error("expected more results")
	}
	r = NewResponse("ok", []int{5}, 5, Params{Limit: 2, Offset: 4})
	if r.HasMore {
		t.Error("expected last page")
	}
}

func TestSQL(t *testing.T) {
	if got := (Params{Limit: 10, Offset: 20}).SQL(); got != "LIMIT 10 OFFSET 20" {
		t.Errorf("unexpected %q", got)
	}
}
