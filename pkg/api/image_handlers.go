package api

import (
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/wtag-io/wtag/pkg/httputil"
)

// ingestImage handles POST /api/v2/images?name=. The body is the raw image
// bytes in any registered format.
func (s *Server) ingestImage(w http.ResponseWriter, r *http.Request) {
	name := httputil.ParseQueryString(r, "name", "")
	if name == "" {
		httputil.WriteBadRequest(w, "name query parameter is required")
		return
	}

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		httputil.WriteBadRequest(w, "reading request body: "+err.Error())
		return
	}
	if len(raw) == 0 {
		httputil.WriteBadRequest(w, "empty request body")
		return
	}

	hash, err := s.catalog.Ingest(r.Context(), token(r), raw, name)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if s.metrics != nil {
		s.metrics.ImagesIngestedTotal.Inc()
	}
	httputil.WriteJSON(w, http.StatusCreated, ingestResponse{Hash: hash})
}

// defaultPageSize bounds listings when the caller sends no usable max.
const defaultPageSize = 50

// listImages handles GET /api/v2/images?tags=&max=&skip=&sort-by=. The tags
// parameter is a comma-separated tag expression.
func (s *Server) listImages(w http.ResponseWriter, r *http.Request) {
	var terms []string
	if raw := httputil.ParseQueryString(r, "tags", ""); raw != "" {
		terms = strings.Split(raw, ",")
	}
	max := httputil.ParseQueryInt64(r, "max", defaultPageSize)
	if max <= 0 {
		max = defaultPageSize
	}
	skip := httputil.ParseQueryInt64(r, "skip", 0)
	if skip < 0 {
		skip = 0
	}
	sortKey := httputil.ParseQueryString(r, "sort-by", "")

	views, err := s.catalog.List(r.Context(), token(r), terms, max, skip, sortKey)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, views)
}

// getImage handles GET /api/v2/images/{hash}
func (s *Server) getImage(w http.ResponseWriter, r *http.Request) {
	hash := mux.Vars(r)["hash"]
	view, err := s.catalog.Get(r.Context(), token(r), hash)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

// assignTags handles PUT /api/v2/images/{hash}/tags
func (s *Server) assignTags(w http.ResponseWriter, r *http.Request) {
	hash := mux.Vars(r)["hash"]
	var req assignTagsRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	if err := s.catalog.AssignTags(r.Context(), token(r), hash, req.Tags); err != nil {
		writeError(w, r, err)
		return
	}
	httputil.WriteNoContent(w)
}

// deleteImage handles DELETE /api/v2/images/{hash}
func (s *Server) deleteImage(w http.ResponseWriter, r *http.Request) {
	hash := mux.Vars(r)["hash"]
	if err := s.catalog.Delete(r.Context(), token(r), hash); err != nil {
		writeError(w, r, err)
		return
	}

	if s.metrics != nil {
		s.metrics.ImagesDeletedTotal.Inc()
	}
	httputil.WriteNoContent(w)
}

// regenerateThumbnails handles POST /api/v2/images/maintenance/thumbnails
func (s *Server) regenerateThumbnails(w http.ResponseWriter, r *http.Request) {
	if err := s.catalog.RegenerateThumbnails(r.Context(), token(r)); err != nil {
		writeError(w, r, err)
		return
	}
	httputil.WriteNoContent(w)
}

// deduplicate handles POST /api/v2/images/maintenance/dedup
func (s *Server) deduplicate(w http.ResponseWriter, r *http.Request) {
	removed, err := s.catalog.Deduplicate(r.Context(), token(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	if removed && s.metrics != nil {
		s.metrics.DuplicatesRemovedTotal.Inc()
	}
	httputil.WriteJSON(w, http.StatusOK, dedupResponse{RemovedAny: removed})
}
