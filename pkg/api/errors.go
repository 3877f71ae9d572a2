package api

import (
	"errors"
	"net/http"

	"github.com/wtag-io/wtag/pkg/auth"
	"github.com/wtag-io/wtag/pkg/httputil"
	"github.com/wtag-io/wtag/pkg/images"
	"github.com/wtag-io/wtag/pkg/observability"
)

// writeError maps service errors onto status codes. Anything outside the
// known error vocabulary is a dependency failure and surfaces as a 500 with
// the detail kept in the logs.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidToken):
		httputil.WriteUnauthorized(w, "invalid token")
	case errors.Is(err, auth.ErrForbidden):
		httputil.WriteForbidden(w, "forbidden")
	case errors.Is(err, auth.ErrAlreadyInitialized):
		httputil.WriteForbidden(w, "already initialized")
	case errors.Is(err, images.ErrNotFound):
		httputil.WriteNotFound(w, "image not found")
	case errors.Is(err, images.ErrAlreadyExists):
		httputil.WriteConflict(w, "image already exists")
	case errors.Is(err, auth.ErrUserExists):
		httputil.WriteConflict(w, "username already taken")
	case errors.Is(err, auth.ErrInvalidAccessCode):
		httputil.WriteUnprocessable(w, "invalid access code")
	case errors.Is(err, auth.ErrNoSuchAccount):
		httputil.WriteUnprocessable(w, "no such account")
	case errors.Is(err, auth.ErrBadPassword):
		httputil.WriteUnprocessable(w, "bad password")
	case errors.Is(err, auth.ErrInvalidRole):
		httputil.WriteUnprocessable(w, "invalid role")
	default:
		observability.FromContext(r.Context()).WithError(err).Error("request failed")
		httputil.WriteInternalError(w)
	}
}
