package auth

import (
	"net/http"

	"github.com/noah-isme/backend-tieshop/internal/common"
)

// Handler serves the login and session endpoints.
type Handler struct {
	Service *Service
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Login exchanges admin credentials for an access token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	if err := common.ValidateStruct(req); err != nil {
		common.WriteError(w, err)
		return
	}
	result, err := h.Service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, result)
}

// Me returns the admin the request token was issued to. It runs behind
// RequireAuth.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	username, _ := common.Admin(r.Context())
	admin, err := h.Service.Me(r.Context(), username)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, admin)
}
