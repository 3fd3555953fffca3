package marketplace

import (
	"net/http"

	"github.com/imranshabbir-developer/project-management/internal/platform/httpx"
	"github.com/imranshabbir-developer/project-management/internal/platform/requestctx"
	"github.com/imranshabbir-developer/project-management/internal/services/marketplace/lifecycle"
)

type registerUserRequest struct {
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Role        string `json:"role"`
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request, actor requestctx.Actor) {
	u, err := h.coord.Me(r.Context(), actor.UserID)
	h.respond(w, r, http.StatusOK, toUserView(u), err)
}

func (h *Handler) handleRegisterUser(w http.ResponseWriter, r *http.Request, actor requestctx.Actor) {
	var req registerUserRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.errs.Write(w, r, err)
		return
	}
	u, err := h.coord.RegisterUser(r.Context(), actor.UserID, actor.Role, lifecycle.RegisterInput{
		DisplayName: req.DisplayName,
		Email:       req.Email,
		Role:        req.Role,
	})
	h.respond(w, r, http.StatusCreated, toUserView(u), err)
}

func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request, actor requestctx.Actor) {
	u, err := h.coord.GetUser(r.Context(), actor.UserID, r.PathValue("id"))
	h.respond(w, r, http.StatusOK, toUserView(u), err)
}
