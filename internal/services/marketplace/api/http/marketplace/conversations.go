package marketplace

import (
	"net/http"

	"github.com/imranshabbir-developer/project-management/internal/platform/httpx"
	"github.com/imranshabbir-developer/project-management/internal/platform/requestctx"
	"github.com/imranshabbir-developer/project-management/internal/services/marketplace/domain/user"
)

type conversationRequest struct {
	CounterpartID string `json:"counterpart_id"`
	MissionID     string `json:"mission_id"`
}

type messageRequest struct {
	Content string `json:"content"`
}

func (h *Handler) handleGetOrCreateConversation(w http.ResponseWriter, r *http.Request, actor requestctx.Actor) {
	var req conversationRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.errs.Write(w, r, err)
		return
	}
	// An unrecognized claim is treated as absent; the stored role decides.
	role, _ := user.ParseRole(actor.Role)
	conv, err := h.coord.GetOrCreateConversation(r.Context(), actor.UserID, role, req.CounterpartID, req.MissionID)
	h.respond(w, r, http.StatusOK, toConversationView(conv), err)
}

func (h *Handler) handleListConversations(w http.ResponseWriter, r *http.Request, actor requestctx.Actor) {
	list, err := h.coord.ListConversations(r.Context(), actor.UserID)
	h.respond(w, r, http.StatusOK, map[string]any{
		"conversations": mapSlice(list, toConversationView),
	}, err)
}

func (h *Handler) handleListMessages(w http.ResponseWriter, r *http.Request, actor requestctx.Actor) {
	msgs, err := h.coord.ListMessages(r.Context(), r.PathValue("id"), actor.UserID)
	h.respond(w, r, http.StatusOK, map[string]any{
		"messages": mapSlice(msgs, toMessageView),
	}, err)
}

func (h *Handler) handlePostMessage(w http.ResponseWriter, r *http.Request, actor requestctx.Actor) {
	var req messageRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.errs.Write(w, r, err)
		return
	}
	msg, err := h.coord.PostMessage(r.Context(), r.PathValue("id"), actor.UserID, req.Content)
	h.respond(w, r, http.StatusCreated, toMessageView(msg), err)
}
