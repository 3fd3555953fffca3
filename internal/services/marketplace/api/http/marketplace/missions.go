package marketplace

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/imranshabbir-developer/project-management/internal/platform/errors"
	"github.com/imranshabbir-developer/project-management/internal/platform/httpx"
	"github.com/imranshabbir-developer/project-management/internal/platform/requestctx"
	"github.com/imranshabbir-developer/project-management/internal/services/marketplace/domain/mission"
	"github.com/imranshabbir-developer/project-management/internal/services/marketplace/lifecycle"
)

type createMissionRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Budget      int64      `json:"budget"`
	Deadline    *time.Time `json:"deadline"`
	Location    string     `json:"location"`
	IsRemote    bool       `json:"is_remote"`
}

type updateMissionRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Category    *string    `json:"category"`
	Budget      *int64     `json:"budget"`
	Deadline    *time.Time `json:"deadline"`
	Location    *string    `json:"location"`
	IsRemote    *bool      `json:"is_remote"`
}

type statusRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

func (h *Handler) handleCreateMission(w http.ResponseWriter, r *http.Request, actor requestctx.Actor) {
	var req createMissionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.errs.Write(w, r, err)
		return
	}
	m, err := h.coord.CreateMission(r.Context(), actor.UserID, mission.Draft{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Budget:      req.Budget,
		Deadline:    req.Deadline,
		Location:    req.Location,
		IsRemote:    req.IsRemote,
	})
	h.respond(w, r, http.StatusCreated, toMissionView(m), err)
}

func (h *Handler) handleListMissions(w http.ResponseWriter, r *http.Request, actor requestctx.Actor) {
	in, err := listMissionsInput(r)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	page, err := h.coord.ListMissions(r.Context(), actor.UserID, in)
	h.respond(w, r, http.StatusOK, missionPageView{
		Missions:      mapSlice(page.Missions, toMissionView),
		NextPageToken: page.NextPageToken,
	}, err)
}

func listMissionsInput(r *http.Request) (lifecycle.ListMissionsInput, error) {
	query := r.URL.Query()
	in := lifecycle.ListMissionsInput{
		Filter:    query.Get("filter"),
		PageToken: query.Get("page_token"),
	}
	if raw := strings.TrimSpace(query.Get("page_size")); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size < 0 {
			return lifecycle.ListMissionsInput{}, apperrors.Validation("page_size", "page_size must be a non-negative integer")
		}
		in.PageSize = size
	}
	if raw := strings.TrimSpace(query.Get("remote")); raw != "" {
		remote, err := strconv.ParseBool(raw)
		if err != nil {
			return lifecycle.ListMissionsInput{}, apperrors.Validation("remote", "remote must be a boolean")
		}
		in.Remote = &remote
	}
	return in, nil
}

func (h *Handler) handleGetMission(w http.ResponseWriter, r *http.Request, actor requestctx.Actor) {
	m, err := h.coord.GetMission(r.Context(), actor.UserID, r.PathValue("id"))
	h.respond(w, r, http.StatusOK, toMissionView(m), err)
}

func (h *Handler) handleUpdateMission(w http.ResponseWriter, r *http.Request, actor requestctx.Actor) {
	var req updateMissionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.errs.Write(w, r, err)
		return
	}
	m, err := h.coord.UpdateMission(r.Context(), actor.UserID, r.PathValue("id"), mission.Patch{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Budget:      req.Budget,
		Deadline:    req.Deadline,
		Location:    req.Location,
		IsRemote:    req.IsRemote,
	})
	h.respond(w, r, http.StatusOK, toMissionView(m), err)
}

func (h *Handler) handleChangeMissionStatus(w http.ResponseWriter, r *http.Request, actor requestctx.Actor) {
	var req statusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.errs.Write(w, r, err)
		return
	}
	m, err := h.coord.ChangeMissionStatus(r.Context(), actor.UserID, r.PathValue("id"), req.Status)
	h.respond(w, r, http.StatusOK, toMissionView(m), err)
}

func (h *Handler) handleDeleteMission(w http.ResponseWriter, r *http.Request, actor requestctx.Actor) {
	if err := h.coord.DeleteMission(r.Context(), actor.UserID, r.PathValue("id")); err != nil {
		h.errs.Write(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
