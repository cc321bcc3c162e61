package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"dlms/internal/license/models"
	id "dlms/pkg/domain"
	dErrors "dlms/pkg/domain-errors"
	"dlms/pkg/platform/httputil"
	"dlms/pkg/requestcontext"
)

// defaultExpiringDays is used when the expiring query omits days.
const defaultExpiringDays = 30

type Service interface {
	Get(ctx context.Context, licenseID id.LicenseID) (*models.License, error)
	GetByNumber(ctx context.Context, number string) (*models.License, error)
	ListByApplicant(ctx context.Context, applicantID id.ApplicantID) ([]*models.License, error)
	ListExpiringWithin(ctx context.Context, days int) ([]*models.License, error)
	ListExpired(ctx context.Context) ([]*models.License, error)
	Suspend(ctx context.Context, licenseID id.LicenseID, reason string) (*models.License, error)
	Disqualify(ctx context.Context, licenseID id.LicenseID, reason string) (*models.License, error)
	Reinstate(ctx context.Context, licenseID id.LicenseID) (*models.License, error)
	ExpireOverdue(ctx context.Context, today time.Time) (int, error)
}

type Handler struct {
	svc    Service
	logger *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/licenses", func(r chi.Router) {
		r.Get("/", h.handleListByApplicant)
		r.Get("/expiring", h.handleExpiring)
		r.Get("/expired", h.handleExpired)
		r.Post("/expire-overdue", h.handleExpireOverdue)
		r.Get("/by-number/{number}", h.handleGetByNumber)
		r.Get("/{id}", h.handleGet)
		r.Post("/{id}/suspend", h.handleReasoned(h.svc.Suspend))
		r.Post("/{id}/disqualify", h.handleReasoned(h.svc.Disqualify))
		r.Post("/{id}/reinstate", h.handleReinstate)
	})
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

type expireResponse struct {
	Expired int `json:"expired"`
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	licenseID, err := id.ParseLicenseID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	l, err := h.svc.Get(r.Context(), licenseID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, l)
}

func (h *Handler) handleGetByNumber(w http.ResponseWriter, r *http.Request) {
	l, err := h.svc.GetByNumber(r.Context(), chi.URLParam(r, "number"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, l)
}

func (h *Handler) handleListByApplicant(w http.ResponseWriter, r *http.Request) {
	applicantID, err := id.ParseApplicantID(r.URL.Query().Get("applicant_id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out, err := h.svc.ListByApplicant(r.Context(), applicantID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleExpiring(w http.ResponseWriter, r *http.Request) {
	days := defaultExpiringDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.writeError(w, r, dErrors.New(dErrors.CodeInvalidInput, "days must be an integer"))
			return
		}
		days = n
	}
	out, err := h.svc.ListExpiringWithin(r.Context(), days)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleExpired(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.ListExpired(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleExpireOverdue(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.ExpireOverdue(r.Context(), requestcontext.Now(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, expireResponse{Expired: n})
}

func (h *Handler) handleReasoned(action func(context.Context, id.LicenseID, string) (*models.License, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		licenseID, err := id.ParseLicenseID(chi.URLParam(r, "id"))
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		var req reasonRequest
		if err := httputil.DecodeJSON(r, &req); err != nil {
			h.writeError(w, r, err)
			return
		}
		l, err := action(r.Context(), licenseID, req.Reason)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, l)
	}
}

func (h *Handler) handleReinstate(w http.ResponseWriter, r *http.Request) {
	licenseID, err := id.ParseLicenseID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	l, err := h.svc.Reinstate(r.Context(), licenseID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, l)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal && h.logger != nil {
		h.logger.ErrorContext(r.Context(), "license request failed",
			"error", err,
			"request_id", requestcontext.RequestID(r.Context()),
		)
	}
	httputil.WriteError(w, err)
}
