package api

// TokenHeader is the request header carrying the identity token.
const TokenHeader = "auth-token"

type registerRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	AccessCode string `json:"accessCode"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type accessCodeRequest struct {
	Role string `json:"role"`
}

type accessCodeResponse struct {
	AccessCode string `json:"accessCode"`
}

type ingestResponse struct {
	Hash string `json:"hash"`
}

type assignTagsRequest struct {
	Tags []string `json:"tags"`
}

type ensureTagsRequest struct {
	Tags []string `json:"tags"`
}

type tagListResponse struct {
	Tags []string `json:"tags"`
}

type dedupResponse struct {
	RemovedAny bool `json:"removedAny"`
}
