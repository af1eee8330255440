package client

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorForStatus(t *testing.T) {
	assert.Nil(t, errorForStatus(http.StatusOK))
	assert.Nil(t, errorForStatus(http.StatusTeapot))
	assert.Nil(t, errorForStatus(http.StatusBadGateway))
	assert.Equal(t, KindForbidden, errorForStatus(http.StatusForbidden).Kind)
	assert.Equal(t, KindServiceUnavailable, errorForStatus(http.StatusServiceUnavailable).Kind)
}

func TestError_Is(t *testing.T) {
	wrapped := fmt.Errorf("lookup failed: %w", &Error{Kind: KindNotFound})
	assert.True(t, errors.Is(wrapped, ErrNotFound))
	assert.False(t, errors.Is(wrapped, ErrForbidden))

	other := OtherError("boom")
	assert.True(t, errors.Is(other, &Error{Kind: KindOther}))
	assert.True(t, errors.Is(other, OtherError("boom")))
	assert.False(t, errors.Is(other, OtherError("bang")))
	assert.False(t, errors.Is(other, errors.New("boom")))
}

func TestError_Message(t *testing.T) {
	assert.Equal(t, "whale alert: too many requests", ErrTooManyRequests.Error())
	assert.Equal(t, "whale alert: missing API key", ErrMissingAPIKey.Error())
	assert.Equal(t, "whale alert: Result: error | Message: bad key.", envelopeError("error", "bad key").Error())
}

func TestError_Temporary(t *testing.T) {
	assert.True(t, ErrTooManyRequests.Temporary())
	assert.True(t, ErrServerError.Temporary())
	assert.True(t, ErrServiceUnavailable.Temporary())
	assert.False(t, ErrUnauthorized.Temporary())
	assert.False(t, OtherError("x").Temporary())
}
