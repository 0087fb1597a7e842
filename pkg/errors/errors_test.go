package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAppError_Classification(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		check    func(error) bool
		expected bool
	}{
		{"element not found", NewElementNotFoundError("abc"), IsNotFound, true},
		{"duplicate element", NewDuplicateElementError("Mud", "🟤"), IsConflict, true},
		{"generation failed", NewGenerationFailedError("empty reply", nil), IsGenerationFailed, true},
		{"store unavailable", NewStoreUnavailableError("get element", fmt.Errorf("boom")), IsStoreUnavailable, true},
		{"wrapped store error", fmt.Errorf("outer: %w", NewStoreUnavailableError("x", nil)), IsStoreUnavailable, true},
		{"plain error is not found", fmt.Errorf("plain"), IsNotFound, false},
		{"nil is not validation", nil, IsValidation, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.check(tt.err))
		})
	}
}

func TestWrap_PreservesClassification(t *testing.T) {
	original := NewElementNotFoundError("e1")

	wrapped := Wrap(original, "resolving result")

	assert.True(t, IsNotFound(wrapped))
	assert.Equal(t, CodeElementNotFound, GetAppError(wrapped).Code)
	assert.Contains(t, wrapped.Error(), "resolving result")
	assert.Equal(t, "element not found", original.Message, "original must not be mutated")
}

func TestWrap_PlainErrorBecomesInternal(t *testing.T) {
	wrapped := Wrap(fmt.Errorf("disk on fire"), "saving")

	require.True(t, IsType(wrapped, ErrorTypeInternal))
	assert.Nil(t, Wrap(nil, "nothing"))
}

func TestIsContextError(t *testing.T) {
	assert.True(t, IsContextError(context.DeadlineExceeded))
	assert.True(t, IsContextError(fmt.Errorf("call: %w", context.Canceled)))
	assert.False(t, IsContextError(fmt.Errorf("other")))
}

func TestErrorHandler_Handle(t *testing.T) {
	handler := NewErrorHandler(zap.NewNop(), false)

	t.Run("app error uses its status and code", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/elements/base", nil)

		handler.Handle(rec, req, NewStoreUnavailableError("list base elements", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		var body ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.False(t, body.Success)
		assert.Equal(t, CodeStoreUnavailable, body.Error.Code)
	})

	t.Run("unknown error hides details", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)

		handler.Handle(rec, req, fmt.Errorf("secret connection string"))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "secret")
	})
}

func TestErrorHandler_MiddlewareRecoversPanics(t *testing.T) {
	handler := NewErrorHandler(zap.NewNop(), false)
	panicking := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	handler.Middleware(panicking).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
