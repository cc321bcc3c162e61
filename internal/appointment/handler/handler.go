package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"dlms/internal/appointment/models"
	id "dlms/pkg/domain"
	dErrors "dlms/pkg/domain-errors"
	"dlms/pkg/platform/httputil"
	"dlms/pkg/requestcontext"
)

type Service interface {
	Book(ctx context.Context, req models.BookRequest) (*models.Appointment, error)
	Get(ctx context.Context, appointmentID id.AppointmentID) (*models.Appointment, error)
	ListByApplicant(ctx context.Context, applicantID id.ApplicantID) ([]*models.Appointment, error)
	ListByResource(ctx context.Context, resourceID id.ResourceID) ([]*models.Appointment, error)
	ListInPeriod(ctx context.Context, from, to time.Time) ([]*models.Appointment, error)
	Confirm(ctx context.Context, appointmentID id.AppointmentID) (*models.Appointment, error)
	Complete(ctx context.Context, appointmentID id.AppointmentID, notes string) (*models.Appointment, error)
	Cancel(ctx context.Context, appointmentID id.AppointmentID, reason string) (*models.Appointment, error)
	MarkAbsent(ctx context.Context, appointmentID id.AppointmentID) (*models.Appointment, error)
	AssignProfessional(ctx context.Context, appointmentID id.AppointmentID, name string) (*models.Appointment, error)
}

type Handler struct {
	svc    Service
	logger *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/appointments", func(r chi.Router) {
		r.Post("/", h.handleBook)
		r.Get("/", h.handleList)
		r.Get("/{id}", h.handleGet)
		r.Post("/{id}/confirm", h.handleAction(func(ctx context.Context, appointmentID id.AppointmentID, _ actionRequest) (*models.Appointment, error) {
			return h.svc.Confirm(ctx, appointmentID)
		}))
		r.Post("/{id}/complete", h.handleAction(func(ctx context.Context, appointmentID id.AppointmentID, req actionRequest) (*models.Appointment, error) {
			return h.svc.Complete(ctx, appointmentID, req.Notes)
		}))
		r.Post("/{id}/cancel", h.handleAction(func(ctx context.Context, appointmentID id.AppointmentID, req actionRequest) (*models.Appointment, error) {
			return h.svc.Cancel(ctx, appointmentID, req.Reason)
		}))
		r.Post("/{id}/absent", h.handleAction(func(ctx context.Context, appointmentID id.AppointmentID, _ actionRequest) (*models.Appointment, error) {
			return h.svc.MarkAbsent(ctx, appointmentID)
		}))
		r.Post("/{id}/professional", h.handleAction(func(ctx context.Context, appointmentID id.AppointmentID, req actionRequest) (*models.Appointment, error) {
			return h.svc.AssignProfessional(ctx, appointmentID, req.Professional)
		}))
	})
}

// actionRequest is the optional body shared by the lifecycle endpoints.
type actionRequest struct {
	Notes        string `json:"notes"`
	Reason       string `json:"reason"`
	Professional string `json:"professional"`
}

func (h *Handler) handleBook(w http.ResponseWriter, r *http.Request) {
	var req models.BookRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	a, err := h.svc.Book(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, a)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var (
		out []*models.Appointment
		err error
	)
	switch {
	case q.Get("applicant_id") != "":
		var applicantID id.ApplicantID
		applicantID, err = id.ParseApplicantID(q.Get("applicant_id"))
		if err == nil {
			out, err = h.svc.ListByApplicant(r.Context(), applicantID)
		}
	case q.Get("resource_id") != "":
		var resourceID id.ResourceID
		resourceID, err = id.ParseResourceID(q.Get("resource_id"))
		if err == nil {
			out, err = h.svc.ListByResource(r.Context(), resourceID)
		}
	case q.Get("from") != "" || q.Get("to") != "":
		var from, to time.Time
		from, to, err = parsePeriod(q.Get("from"), q.Get("to"))
		if err == nil {
			out, err = h.svc.ListInPeriod(r.Context(), from, to)
		}
	default:
		err = dErrors.New(dErrors.CodeInvalidInput, "applicant_id, resource_id or from/to is required")
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func parsePeriod(fromRaw, toRaw string) (time.Time, time.Time, error) {
	from, err := time.Parse(time.RFC3339, fromRaw)
	if err != nil {
		return time.Time{}, time.Time{}, dErrors.New(dErrors.CodeInvalidInput, "from must be an RFC3339 timestamp")
	}
	to, err := time.Parse(time.RFC3339, toRaw)
	if err != nil {
		return time.Time{}, time.Time{}, dErrors.New(dErrors.CodeInvalidInput, "to must be an RFC3339 timestamp")
	}
	return from, to, nil
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	appointmentID, err := id.ParseAppointmentID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	a, err := h.svc.Get(r.Context(), appointmentID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, a)
}

func (h *Handler) handleAction(action func(context.Context, id.AppointmentID, actionRequest) (*models.Appointment, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		appointmentID, err := id.ParseAppointmentID(chi.URLParam(r, "id"))
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		var req actionRequest
		if r.ContentLength != 0 {
			if err := httputil.DecodeJSON(r, &req); err != nil {
				h.writeError(w, r, err)
				return
			}
		}
		a, err := action(r.Context(), appointmentID, req)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, a)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal && h.logger != nil {
		h.logger.ErrorContext(r.Context(), "appointment request failed",
			"error", err,
			"request_id", requestcontext.RequestID(r.Context()),
		)
	}
	httputil.WriteError(w, err)
}
