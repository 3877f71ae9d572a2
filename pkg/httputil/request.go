package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
)

// ParseJSON decodes the request body into dest
func ParseJSON(r *http.Request, dest interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// ParseJSONOrError decodes the body into dest, writing a 400 response and
// returning false on failure.
func ParseJSONOrError(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	if err := ParseJSON(r, dest); err != nil {
		WriteBadRequest(w, err.Error())
		return false
	}
	return true
}

// ParseQueryInt64 reads an integer query parameter, falling back to
// defaultVal when absent or malformed.
func ParseQueryInt64(r *http.Request, key string, defaultVal int64) int64 {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return defaultVal
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return defaultVal
	}
	return v
}

// ParseQueryString reads a string query parameter with a default
func ParseQueryString(r *http.Request, key, defaultVal string) string {
	if v := r.URL.Query().Get(key); v != "" {
		return v
	}
	return defaultVal
}
