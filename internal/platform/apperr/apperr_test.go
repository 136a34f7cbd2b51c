package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf_Wrapped(t *testing.T) {
	err := fmt.Errorf("reserve bed: %w", Conflict("bed %d is already occupied", 7))
	assert.Equal(t, KindConflict, KindOf(err))
	assert.True(t, IsKind(err, KindConflict))
	assert.False(t, IsKind(err, KindNotFound))
}

func TestKindOf_PlainError(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.False(t, IsKind(nil, KindInternal))
}

func TestStatusCode(t *testing.T) {
	cases := map[Kind]int{
		KindValidation:        http.StatusBadRequest,
		KindNotFound:          http.StatusNotFound,
		KindConflict:          http.StatusConflict,
		KindInsufficientStock: http.StatusConflict,
		KindUnavailable:       http.StatusServiceUnavailable,
		KindTimeout:           http.StatusGatewayTimeout,
		KindInternal:          http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, StatusCode(kind), kind)
	}
}

func TestUnwrapKeepsCause(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := Unavailable(cause, "store unavailable")
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, cause.Error(), err.Detail)
}

func TestFrom(t *testing.T) {
	v := Validation("name is required")
	assert.Same(t, v, From(fmt.Errorf("wrap: %w", v)))

	e := From(errors.New("boom"))
	assert.Equal(t, KindInternal, e.Kind)
	assert.Equal(t, "boom", e.Detail)
}
