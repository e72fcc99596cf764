package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesByKind(t *testing.T) {
	err := NotFound("Product not found")

	assert.True(t, stderrors.Is(err, ErrNotFound))
	assert.False(t, stderrors.Is(err, ErrDuplicateEntity))
	assert.Equal(t, http.StatusNotFound, err.Code)
}

func TestIsThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("update product: %w", InvalidArgument("Invalid product ID", nil))

	assert.True(t, stderrors.Is(wrapped, ErrInvalidArgument))
	assert.Equal(t, KindInvalidArgument, KindOf(wrapped))
}

func TestStorageKeepsCause(t *testing.T) {
	cause := stderrors.New("connection reset by peer")
	err := Storage("failed to delete image", cause)

	assert.Equal(t, "failed to delete image: connection reset by peer", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrStorage)
}

func TestFromClassifiesForeignErrors(t *testing.T) {
	err := From(stderrors.New("boom"))

	assert.Equal(t, KindInternal, err.Kind)
	assert.Equal(t, http.StatusInternalServerError, err.Code)
	assert.Nil(t, From(nil))
}
