package api

import (
	"net/http"

	"github.com/wtag-io/wtag/pkg/httputil"
)

// listTags handles GET /api/v2/tags
func (s *Server) listTags(w http.ResponseWriter, r *http.Request) {
	names, err := s.registry.ListAll(r.Context(), token(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tagListResponse{Tags: names})
}

// ensureTags handles POST /api/v2/tags
func (s *Server) ensureTags(w http.ResponseWriter, r *http.Request) {
	var req ensureTagsRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if len(req.Tags) == 0 {
		httputil.WriteBadRequest(w, "tags are required")
		return
	}

	if err := s.registry.EnsureTags(r.Context(), token(r), req.Tags); err != nil {
		writeError(w, r, err)
		return
	}
	httputil.WriteNoContent(w)
}
