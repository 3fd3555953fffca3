package marketplace

import (
	"net/http"

	"github.com/imranshabbir-developer/project-management/internal/platform/httpx"
	"github.com/imranshabbir-developer/project-management/internal/platform/requestctx"
)

type coverLetterRequest struct {
	CoverLetter string `json:"cover_letter"`
}

type decisionRequest struct {
	Decision string `json:"decision"`
	Reason   string `json:"reason"`
}

func (h *Handler) handleCreateApplication(w http.ResponseWriter, r *http.Request, actor requestctx.Actor) {
	var req coverLetterRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.errs.Write(w, r, err)
		return
	}
	a, err := h.coord.CreateApplication(r.Context(), r.PathValue("id"), actor.UserID, req.CoverLetter)
	h.respond(w, r, http.StatusCreated, toApplicationView(a), err)
}

func (h *Handler) handleListApplications(w http.ResponseWriter, r *http.Request, actor requestctx.Actor) {
	apps, err := h.coord.ListApplications(r.Context(), actor.UserID, r.URL.Query().Get("mission_id"))
	h.respond(w, r, http.StatusOK, map[string]any{
		"applications": mapSlice(apps, toApplicationView),
	}, err)
}

func (h *Handler) handleGetApplication(w http.ResponseWriter, r *http.Request, actor requestctx.Actor) {
	a, err := h.coord.GetApplication(r.Context(), actor.UserID, r.PathValue("id"))
	h.respond(w, r, http.StatusOK, toApplicationView(a), err)
}

func (h *Handler) handleUpdateCoverLetter(w http.ResponseWriter, r *http.Request, actor requestctx.Actor) {
	var req coverLetterRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.errs.Write(w, r, err)
		return
	}
	a, err := h.coord.UpdateCoverLetter(r.Context(), actor.UserID, r.PathValue("id"), req.CoverLetter)
	h.respond(w, r, http.StatusOK, toApplicationView(a), err)
}

func (h *Handler) handleDecideApplication(w http.ResponseWriter, r *http.Request, actor requestctx.Actor) {
	var req decisionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.errs.Write(w, r, err)
		return
	}
	a, err := h.coord.DecideApplication(r.Context(), r.PathValue("id"), actor.UserID, req.Decision, req.Reason)
	h.respond(w, r, http.StatusOK, toApplicationView(a), err)
}
