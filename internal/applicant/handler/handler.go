package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"dlms/internal/applicant/models"
	id "dlms/pkg/domain"
	dErrors "dlms/pkg/domain-errors"
	"dlms/pkg/platform/audit"
	"dlms/pkg/platform/httputil"
	"dlms/pkg/requestcontext"
)

// Service is the registry surface the handler needs.
type Service interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.Applicant, error)
	Get(ctx context.Context, applicantID id.ApplicantID) (*models.Applicant, error)
	GetByNationalID(ctx context.Context, nationalID string) (*models.Applicant, error)
	Disqualify(ctx context.Context, applicantID id.ApplicantID, req models.DisqualifyRequest) (*models.Applicant, error)
}

// EventLister serves the per-applicant event history. Optional.
type EventLister interface {
	ListByApplicant(ctx context.Context, applicantID id.ApplicantID) ([]audit.Event, error)
}

type Handler struct {
	svc    Service
	events EventLister
	logger *slog.Logger
}

func New(svc Service, events EventLister, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, events: events, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/applicants", func(r chi.Router) {
		r.Post("/", h.handleRegister)
		r.Get("/", h.handleFindByNationalID)
		r.Get("/{id}", h.handleGet)
		r.Post("/{id}/disqualifications", h.handleDisqualify)
		r.Get("/{id}/events", h.handleEvents)
	})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	a, err := h.svc.Register(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, a)
}

func (h *Handler) handleFindByNationalID(w http.ResponseWriter, r *http.Request) {
	nationalID := r.URL.Query().Get("national_id")
	if nationalID == "" {
		h.writeError(w, r, dErrors.New(dErrors.CodeInvalidInput, "national_id query parameter is required"))
		return
	}
	a, err := h.svc.GetByNationalID(r.Context(), nationalID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, a)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	applicantID, err := id.ParseApplicantID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	a, err := h.svc.Get(r.Context(), applicantID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, a)
}

func (h *Handler) handleDisqualify(w http.ResponseWriter, r *http.Request) {
	applicantID, err := id.ParseApplicantID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req models.DisqualifyRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	a, err := h.svc.Disqualify(r.Context(), applicantID, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, a)
}

type eventResponse struct {
	Action    string `json:"action"`
	Category  string `json:"category"`
	Subject   string `json:"subject"`
	Reason    string `json:"reason,omitempty"`
	Agent     string `json:"agent,omitempty"`
	Timestamp string `json:"timestamp"`
}

func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	applicantID, err := id.ParseApplicantID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if h.events == nil {
		httputil.WriteJSON(w, http.StatusOK, []eventResponse{})
		return
	}
	events, err := h.events.ListByApplicant(r.Context(), applicantID)
	if err != nil {
		h.writeError(w, r, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list events"))
		return
	}
	out := make([]eventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, eventResponse{
			Action:    e.Action,
			Category:  string(e.Category),
			Subject:   e.Subject,
			Reason:    e.Reason,
			Agent:     e.Agent,
			Timestamp: e.Timestamp.UTC().Format(time.RFC3339),
		})
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal && h.logger != nil {
		h.logger.ErrorContext(r.Context(), "applicant request failed",
			"error", err,
			"request_id", requestcontext.RequestID(r.Context()),
		)
	}
	httputil.WriteError(w, err)
}
