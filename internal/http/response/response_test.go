package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/listenupapp/readinglists-server/internal/errors"
	"github.com/listenupapp/readinglists-server/internal/store"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body, 1)
	return body["Error"]
}

func TestJSON_WritesBareBody(t *testing.T) {
	w := httptest.NewRecorder()

	Created(w, map[string]int{"id": 1}, discard())

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"id":1}`, w.Body.String())
}

func TestNoContent(t *testing.T) {
	w := httptest.NewRecorder()
	NoContent(w)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"not found", domainerrors.NotFound("No book with this book_id exists"), http.StatusNotFound, "No book with this book_id exists"},
		{"wrapped validation", fmt.Errorf("ctx: %w", domainerrors.Validation("Invalid book_id")), http.StatusBadRequest, "Invalid book_id"},
		{"conflict is 400", domainerrors.Conflict("Book already in reading list"), http.StatusBadRequest, "Book already in reading list"},
		{"forbidden", domainerrors.Forbidden("nope"), http.StatusForbidden, "nope"},
		{"unauthorized", domainerrors.ErrUnauthorized, http.StatusUnauthorized, "Unauthorized"},
		{"store not found", store.ErrNotFound, http.StatusNotFound, "resource not found"},
		{"internal hides cause", domainerrors.ErrInternal.WithCause(errors.New("db exploded at /var/lib")), http.StatusInternalServerError, "Internal server error"},
		{"not acceptable", domainerrors.ErrNotAcceptable, http.StatusNotAcceptable, "Not acceptable"},
		{"unsupported media type", domainerrors.ErrUnsupportedMediaType, http.StatusUnsupportedMediaType, "Unsupported media type"},
		{"method not allowed", domainerrors.ErrMethodNotAllowed, http.StatusMethodNotAllowed, "Method not allowed"},
		{"rate limited", domainerrors.ErrRateLimited, http.StatusTooManyRequests, "Too many requests"},
		{"unauthorized hides cause", domainerrors.ErrUnauthorized.WithCause(errors.New("exp claim in the past")), http.StatusUnauthorized, "Unauthorized"},
		{"unknown", errors.New("secret detail"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			HandleError(w, tt.err, discard())

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.message, decodeError(t, w))
		})
	}
}
