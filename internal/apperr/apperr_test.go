package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	base := New(Forbidden, "not yours")
	wrapped := fmt.Errorf("update listing: %w", base)

	assert.Equal(t, Forbidden, KindOf(wrapped))
	assert.True(t, Is(wrapped, Forbidden))
	assert.False(t, Is(wrapped, NotFound))
	assert.Equal(t, Internal, KindOf(errors.New("boom")))
}

func TestMessage(t *testing.T) {
	cause := errors.New("pq: connection refused")
	err := Wrap(UpstreamFailure, "Failed to upload image", cause)

	assert.Equal(t, "Failed to upload image", Message(err, "fallback"))
	assert.Equal(t, "fallback", Message(cause, "fallback"))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "upstream_failure")
}
