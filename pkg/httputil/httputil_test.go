package httputil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wtag-io/wtag/pkg/observability"
)

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	require.NoError(t, WriteJSON(w, http.StatusCreated, map[string]string{"a": "b"}))

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "b", body["a"])
}

func TestErrorWriters(t *testing.T) {
	tests := []struct {
		name   string
		write  func(http.ResponseWriter)
		status int
	}{
		{"bad request", func(w http.ResponseWriter) { WriteBadRequest(w, "x") }, http.StatusBadRequest},
		{"unauthorized", func(w http.ResponseWriter) { WriteUnauthorized(w, "x") }, http.StatusUnauthorized},
		{"forbidden", func(w http.ResponseWriter) { WriteForbidden(w, "x") }, http.StatusForbidden},
		{"not found", func(w http.ResponseWriter) { WriteNotFound(w, "x") }, http.StatusNotFound},
		{"conflict", func(w http.ResponseWriter) { WriteConflict(w, "x") }, http.StatusConflict},
		{"unprocessable", func(w http.ResponseWriter) { WriteUnprocessable(w, "x") }, http.StatusUnprocessableEntity},
		{"internal", func(w http.ResponseWriter) { WriteInternalError(w) }, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.write(w)
			assert.Equal(t, tt.status, w.Code)
			var body map[string]string
			require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestParseJSONOrError(t *testing.T) {
	var dest struct {
		Name string `json:"name"`
	}

	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"x"}`))
	w := httptest.NewRecorder()
	assert.True(t, ParseJSONOrError(w, r, &dest))
	assert.Equal(t, "x", dest.Name)

	r = httptest.NewRequest("POST", "/", strings.NewReader(`{broken`))
	w = httptest.NewRecorder()
	assert.False(t, ParseJSONOrError(w, r, &dest))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestParseQueryHelpers(t *testing.T) {
	r := httptest.NewRequest("GET", "/?max=25&sort=hash&bad=abc", nil)

	assert.Equal(t, int64(25), ParseQueryInt64(r, "max", 0))
	assert.Equal(t, int64(7), ParseQueryInt64(r, "missing", 7))
	assert.Equal(t, int64(7), ParseQueryInt64(r, "bad", 7))
	assert.Equal(t, "hash", ParseQueryString(r, "sort", "name"))
	assert.Equal(t, "name", ParseQueryString(r, "missing", "name"))
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = observability.GetRequestID(r.Context())
	}))

	// Generated when absent
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, w.Header().Get("X-Request-ID"))

	// Echoed when supplied
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("X-Request-ID", "req-123")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	assert.Equal(t, "req-123", seen)
	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))
}

func TestRecoveryMiddleware(t *testing.T) {
	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)
	handler := RecoveryMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestMaxBytesMiddleware(t *testing.T) {
	handler := MaxBytesMiddleware(4)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, err := io.ReadAll(r.Body)
		if err != nil {
			WriteBadRequest(w, "body too large")
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("POST", "/", strings.NewReader("ok")))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("POST", "/", strings.NewReader("way too long")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
