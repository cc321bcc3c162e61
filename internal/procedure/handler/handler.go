package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"dlms/internal/procedure/models"
	id "dlms/pkg/domain"
	dErrors "dlms/pkg/domain-errors"
	"dlms/pkg/platform/httputil"
	"dlms/pkg/requestcontext"
)

type Service interface {
	Start(ctx context.Context, req models.StartRequest) (*models.Procedure, error)
	Get(ctx context.Context, procedureID id.ProcedureID) (*models.Procedure, error)
	ListByApplicant(ctx context.Context, applicantID id.ApplicantID) ([]*models.Procedure, error)
	ListByStatus(ctx context.Context, status string) ([]*models.Procedure, error)
	ValidateDocumentation(ctx context.Context, procedureID id.ProcedureID, agent string) (*models.Procedure, error)
	RegisterMedicalFitness(ctx context.Context, procedureID id.ProcedureID, passed bool) (*models.Procedure, error)
	RegisterTheoryExam(ctx context.Context, procedureID id.ProcedureID, passed bool) (*models.Procedure, error)
	RegisterPracticalExam(ctx context.Context, procedureID id.ProcedureID, passed bool) (*models.Procedure, error)
	RegisterPayment(ctx context.Context, procedureID id.ProcedureID, confirmed bool) (*models.Procedure, error)
	AllowRetry(ctx context.Context, procedureID id.ProcedureID, reason string) (*models.Procedure, error)
	IssueLicense(ctx context.Context, procedureID id.ProcedureID) (*models.Procedure, error)
	Cancel(ctx context.Context, procedureID id.ProcedureID, reason string) (*models.Procedure, error)
}

type Handler struct {
	svc    Service
	logger *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/procedures", func(r chi.Router) {
		r.Post("/", h.handleStart)
		r.Get("/", h.handleList)
		r.Get("/{id}", h.handleGet)
		r.Post("/{id}/documentation", h.handleDocumentation)
		r.Post("/{id}/medical", h.handleResult(h.svc.RegisterMedicalFitness))
		r.Post("/{id}/theory", h.handleResult(h.svc.RegisterTheoryExam))
		r.Post("/{id}/practical", h.handleResult(h.svc.RegisterPracticalExam))
		r.Post("/{id}/payment", h.handlePayment)
		r.Post("/{id}/retry", h.handleReasoned(h.svc.AllowRetry))
		r.Post("/{id}/issue", h.handleIssue)
		r.Post("/{id}/cancel", h.handleReasoned(h.svc.Cancel))
	})
}

type documentationRequest struct {
	Agent string `json:"agent"`
}

type resultRequest struct {
	Passed *bool `json:"passed"`
}

type paymentRequest struct {
	Confirmed *bool `json:"confirmed"`
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	var req models.StartRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.Agent == "" {
		req.Agent = requestcontext.Agent(r.Context())
	}
	p, err := h.svc.Start(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var (
		out []*models.Procedure
		err error
	)
	switch {
	case q.Get("applicant_id") != "":
		var applicantID id.ApplicantID
		applicantID, err = id.ParseApplicantID(q.Get("applicant_id"))
		if err == nil {
			out, err = h.svc.ListByApplicant(r.Context(), applicantID)
		}
	case q.Get("status") != "":
		out, err = h.svc.ListByStatus(r.Context(), q.Get("status"))
	default:
		err = dErrors.New(dErrors.CodeInvalidInput, "applicant_id or status is required")
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	procedureID, err := id.ParseProcedureID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	p, err := h.svc.Get(r.Context(), procedureID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) handleDocumentation(w http.ResponseWriter, r *http.Request) {
	procedureID, err := id.ParseProcedureID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req documentationRequest
	if r.ContentLength != 0 {
		if err := httputil.DecodeJSON(r, &req); err != nil {
			h.writeError(w, r, err)
			return
		}
	}
	if req.Agent == "" {
		req.Agent = requestcontext.Agent(r.Context())
	}
	p, err := h.svc.ValidateDocumentation(r.Context(), procedureID, req.Agent)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) handleResult(register func(context.Context, id.ProcedureID, bool) (*models.Procedure, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		procedureID, err := id.ParseProcedureID(chi.URLParam(r, "id"))
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		var req resultRequest
		if err := httputil.DecodeJSON(r, &req); err != nil {
			h.writeError(w, r, err)
			return
		}
		if req.Passed == nil {
			h.writeError(w, r, dErrors.New(dErrors.CodeInvalidInput, "passed is required"))
			return
		}
		p, err := register(r.Context(), procedureID, *req.Passed)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, p)
	}
}

func (h *Handler) handlePayment(w http.ResponseWriter, r *http.Request) {
	procedureID, err := id.ParseProcedureID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req paymentRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.Confirmed == nil {
		h.writeError(w, r, dErrors.New(dErrors.CodeInvalidInput, "confirmed is required"))
		return
	}
	p, err := h.svc.RegisterPayment(r.Context(), procedureID, *req.Confirmed)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) handleReasoned(action func(context.Context, id.ProcedureID, string) (*models.Procedure, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		procedureID, err := id.ParseProcedureID(chi.URLParam(r, "id"))
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		var req reasonRequest
		if err := httputil.DecodeJSON(r, &req); err != nil {
			h.writeError(w, r, err)
			return
		}
		p, err := action(r.Context(), procedureID, req.Reason)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, p)
	}
}

func (h *Handler) handleIssue(w http.ResponseWriter, r *http.Request) {
	procedureID, err := id.ParseProcedureID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	p, err := h.svc.IssueLicense(r.Context(), procedureID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal && h.logger != nil {
		h.logger.ErrorContext(r.Context(), "procedure request failed",
			"error", err,
			"request_id", requestcontext.RequestID(r.Context()),
		)
	}
	httputil.WriteError(w, err)
}
