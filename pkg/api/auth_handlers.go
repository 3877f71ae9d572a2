package api

import (
	"net/http"

	"github.com/wtag-io/wtag/pkg/auth"
	"github.com/wtag-io/wtag/pkg/httputil"
)

// bootstrap handles GET /api/v2/auth/init
func (s *Server) bootstrap(w http.ResponseWriter, r *http.Request) {
	code, err := s.engine.Bootstrap(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, accessCodeResponse{AccessCode: code})
}

// register handles POST /api/v2/auth/register
func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.Username == "" || req.Password == "" {
		httputil.WriteBadRequest(w, "username and password are required")
		return
	}

	tok, err := s.engine.Register(r.Context(), req.Username, req.Password, req.AccessCode)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, tokenResponse{Token: tok})
}

// login handles POST /api/v2/auth/login
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	tok, err := s.engine.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tokenResponse{Token: tok})
}

// generateAccessCode handles POST /api/v2/auth/access-codes
func (s *Server) generateAccessCode(w http.ResponseWriter, r *http.Request) {
	var req accessCodeRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	code, err := s.engine.GenerateAccessCode(r.Context(), token(r), auth.Role(req.Role))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, accessCodeResponse{AccessCode: code})
}
