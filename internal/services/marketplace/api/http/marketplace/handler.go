// Package marketplace exposes the lifecycle coordinator over JSON/HTTP.
package marketplace

import (
	"errors"
	"log"
	"net/http"

	apperrors "github.com/imranshabbir-developer/project-management/internal/platform/errors"
	"github.com/imranshabbir-developer/project-management/internal/platform/httpx"
	"github.com/imranshabbir-developer/project-management/internal/platform/requestctx"
	"github.com/imranshabbir-developer/project-management/internal/services/marketplace/lifecycle"
)

// Options configures a Handler.
type Options struct {
	// DevMode exposes raw error detail in responses.
	DevMode bool
	Logf    func(string, ...any)
}

// Handler serves the marketplace HTTP API.
type Handler struct {
	coord    *lifecycle.Coordinator
	verifier *TokenVerifier
	errs     httpx.ErrorWriter
	logf     func(string, ...any)
}

// NewHandler builds the API handler.
func NewHandler(coord *lifecycle.Coordinator, verifier *TokenVerifier, opts Options) (*Handler, error) {
	if coord == nil {
		return nil, errors.New("lifecycle coordinator is required")
	}
	if verifier == nil {
		return nil, errors.New("token verifier is required")
	}
	logf := opts.Logf
	if logf == nil {
		logf = log.Printf
	}
	return &Handler{
		coord:    coord,
		verifier: verifier,
		errs:     httpx.ErrorWriter{DevMode: opts.DevMode, Logf: logf},
		logf:     logf,
	}, nil
}

// Routes returns the full middleware-wrapped route table.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /up", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	h.handle(mux, "GET /v1/me", h.handleMe)
	h.handle(mux, "POST /v1/users", h.handleRegisterUser)
	h.handle(mux, "GET /v1/users/{id}", h.handleGetUser)

	h.handle(mux, "POST /v1/missions", h.handleCreateMission)
	h.handle(mux, "GET /v1/missions", h.handleListMissions)
	h.handle(mux, "GET /v1/missions/{id}", h.handleGetMission)
	h.handle(mux, "PATCH /v1/missions/{id}", h.handleUpdateMission)
	h.handle(mux, "POST /v1/missions/{id}/status", h.handleChangeMissionStatus)
	h.handle(mux, "DELETE /v1/missions/{id}", h.handleDeleteMission)
	h.handle(mux, "POST /v1/missions/{id}/applications", h.handleCreateApplication)

	h.handle(mux, "GET /v1/applications", h.handleListApplications)
	h.handle(mux, "GET /v1/applications/{id}", h.handleGetApplication)
	h.handle(mux, "PATCH /v1/applications/{id}", h.handleUpdateCoverLetter)
	h.handle(mux, "POST /v1/applications/{id}/decision", h.handleDecideApplication)

	h.handle(mux, "POST /v1/bookings", h.handleCreateBooking)
	h.handle(mux, "GET /v1/bookings", h.handleListBookings)
	h.handle(mux, "GET /v1/bookings/{id}", h.handleGetBooking)
	h.handle(mux, "POST /v1/bookings/{id}/status", h.handleTransitionBooking)

	h.handle(mux, "POST /v1/conversations", h.handleGetOrCreateConversation)
	h.handle(mux, "GET /v1/conversations", h.handleListConversations)
	h.handle(mux, "GET /v1/conversations/{id}/messages", h.handleListMessages)
	h.handle(mux, "POST /v1/conversations/{id}/messages", h.handlePostMessage)

	return httpx.Chain(mux,
		httpx.RequestID(),
		httpx.LogRequests(h.logf),
		httpx.RecoverPanic(),
	)
}

// handle registers an authenticated route.
func (h *Handler) handle(mux *http.ServeMux, pattern string, fn func(http.ResponseWriter, *http.Request, requestctx.Actor)) {
	mux.Handle(pattern, h.verifier.Authenticate(h.errs, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, _ := requestctx.ActorFromContext(r.Context())
		fn(w, r, actor)
	})))
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, status int, payload any, err error) {
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	if err := httpx.WriteJSON(w, status, payload); err != nil {
		if errors.Is(err, httpx.ErrEncodeResponse) {
			h.errs.Write(w, r, apperrors.Wrap(apperrors.CodeInternal, "encode response", err))
			return
		}
		h.logf("write response path=%s err=%v", r.URL.Path, err)
	}
}
