package marketplace

import (
	"net/http"
	"time"

	"github.com/imranshabbir-developer/project-management/internal/platform/httpx"
	"github.com/imranshabbir-developer/project-management/internal/platform/requestctx"
	"github.com/imranshabbir-developer/project-management/internal/services/marketplace/domain/booking"
)

type createBookingRequest struct {
	StudentID   string     `json:"student_id"`
	MissionID   string     `json:"mission_id"`
	Description string     `json:"description"`
	HourlyRate  float64    `json:"hourly_rate"`
	Hours       float64    `json:"hours"`
	ScheduledAt *time.Time `json:"scheduled_at"`
}

func (h *Handler) handleCreateBooking(w http.ResponseWriter, r *http.Request, actor requestctx.Actor) {
	var req createBookingRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.errs.Write(w, r, err)
		return
	}
	b, err := h.coord.CreateBooking(r.Context(), actor.UserID, booking.Draft{
		StudentID:   req.StudentID,
		MissionID:   req.MissionID,
		Description: req.Description,
		HourlyRate:  req.HourlyRate,
		Hours:       req.Hours,
		ScheduledAt: req.ScheduledAt,
	})
	h.respond(w, r, http.StatusCreated, toBookingView(b), err)
}

func (h *Handler) handleListBookings(w http.ResponseWriter, r *http.Request, actor requestctx.Actor) {
	list, err := h.coord.ListBookings(r.Context(), actor.UserID)
	h.respond(w, r, http.StatusOK, map[string]any{
		"bookings": mapSlice(list, toBookingView),
	}, err)
}

func (h *Handler) handleGetBooking(w http.ResponseWriter, r *http.Request, actor requestctx.Actor) {
	b, err := h.coord.GetBooking(r.Context(), actor.UserID, r.PathValue("id"))
	h.respond(w, r, http.StatusOK, toBookingView(b), err)
}

func (h *Handler) handleTransitionBooking(w http.ResponseWriter, r *http.Request, actor requestctx.Actor) {
	var req statusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.errs.Write(w, r, err)
		return
	}
	b, err := h.coord.TransitionBooking(r.Context(), r.PathValue("id"), actor.UserID, req.Status, req.Reason)
	h.respond(w, r, http.StatusOK, toBookingView(b), err)
}
