package handler

import (
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"dlms/internal/procedure/handler/mocks"
	"dlms/internal/procedure/models"
	id "dlms/pkg/domain"
	dErrors "dlms/pkg/domain-errors"
	"dlms/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/procedure-mocks.go -package=mocks Service
type ProcedureHandlerSuite struct {
	suite.Suite
	svc    *mocks.MockService
	router chi.Router
}

func TestProcedureHandlerSuite(t *testing.T) {
	suite.Run(t, new(ProcedureHandlerSuite))
}

func (s *ProcedureHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.T().Cleanup(ctrl.Finish)
	s.svc = mocks.NewMockService(ctrl)
	s.router = chi.NewRouter()
	New(s.svc, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(s.router)
}

func sampleProcedure(status models.Status) *models.Procedure {
	p := models.NewProcedure(id.NewProcedureID(), id.NewApplicantID(), id.ProcedureFirstIssuance, id.ClassB, time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	p.Status = status
	return p
}

func (s *ProcedureHandlerSuite) TestStart() {
	applicantID := id.NewApplicantID()
	p := sampleProcedure(models.StatusStarted)
	s.svc.EXPECT().Start(gomock.Any(), models.StartRequest{
		ApplicantID: applicantID,
		Type:        "first_issuance",
		Class:       "B",
		Agent:       "clerk-7",
	}).Return(p, nil)

	req := testutil.WithAgent(testutil.NewJSONRequest(s.T(), http.MethodPost, "/procedures", map[string]any{
		"applicant_id": applicantID.String(),
		"type":         "first_issuance",
		"class":        "B",
	}), "clerk-7")
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatus(s.T(), rr, http.StatusCreated)
	testutil.AssertJSONContains(s.T(), rr, "status", "started")
}

func (s *ProcedureHandlerSuite) TestStartEligibilityMapsTo422() {
	s.svc.EXPECT().Start(gomock.Any(), gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeEligibility, "applicant has an active disqualification"))

	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/procedures", map[string]any{
		"applicant_id": id.NewApplicantID().String(), "type": "renewal", "class": "B",
	}))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusUnprocessableEntity, "eligibility_violation")
}

func (s *ProcedureHandlerSuite) TestGateResult() {
	s.Run("failed practical", func() {
		p := sampleProcedure(models.StatusPracticalRejected)
		s.svc.EXPECT().RegisterPracticalExam(gomock.Any(), p.ID, false).Return(p, nil)

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/procedures/"+p.ID.String()+"/practical", map[string]any{"passed": false}))
		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONContains(s.T(), rr, "status", "practical_rejected")
	})

	s.Run("missing passed flag", func() {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/procedures/"+id.NewProcedureID().String()+"/theory", map[string]any{}))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "invalid_input")
	})

	s.Run("gate out of order is 409", func() {
		procedureID := id.NewProcedureID()
		s.svc.EXPECT().RegisterTheoryExam(gomock.Any(), procedureID, true).
			Return(nil, dErrors.New(dErrors.CodeInvalidState, "medical gate must be satisfied before theory"))

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/procedures/"+procedureID.String()+"/theory", map[string]any{"passed": true}))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, "invalid_state")
	})
}

func (s *ProcedureHandlerSuite) TestPaymentAndIssue() {
	p := sampleProcedure(models.StatusPaymentOK)
	s.svc.EXPECT().RegisterPayment(gomock.Any(), p.ID, true).Return(p, nil)
	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/procedures/"+p.ID.String()+"/payment", map[string]any{"confirmed": true}))
	testutil.AssertStatusOK(s.T(), rr)

	issued := *p
	issued.Status = models.StatusIssued
	s.svc.EXPECT().IssueLicense(gomock.Any(), p.ID).Return(&issued, nil)
	rr = testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodPost, "/procedures/"+p.ID.String()+"/issue"))
	testutil.AssertStatusOK(s.T(), rr)
	testutil.AssertJSONContains(s.T(), rr, "status", "issued")
}

func (s *ProcedureHandlerSuite) TestGenerationExhaustedIs503() {
	procedureID := id.NewProcedureID()
	s.svc.EXPECT().IssueLicense(gomock.Any(), procedureID).
		Return(nil, dErrors.New(dErrors.CodeGenerationExhausted, "no free license number after 20 attempts"))

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodPost, "/procedures/"+procedureID.String()+"/issue"))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusServiceUnavailable, "generation_exhausted")
}

func (s *ProcedureHandlerSuite) TestRetryAndCancelPassReason() {
	p := sampleProcedure(models.StatusTheoryOK)
	s.svc.EXPECT().AllowRetry(gomock.Any(), p.ID, "second attempt booked").Return(p, nil)
	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/procedures/"+p.ID.String()+"/retry", map[string]any{"reason": "second attempt booked"}))
	testutil.AssertStatusOK(s.T(), rr)

	cancelled := *p
	cancelled.Status = models.StatusCancelled
	s.svc.EXPECT().Cancel(gomock.Any(), p.ID, "applicant withdrew").Return(&cancelled, nil)
	rr = testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/procedures/"+p.ID.String()+"/cancel", map[string]any{"reason": "applicant withdrew"}))
	testutil.AssertStatusOK(s.T(), rr)
	testutil.AssertJSONContains(s.T(), rr, "status", "cancelled")
}

func (s *ProcedureHandlerSuite) TestList() {
	s.Run("by status", func() {
		s.svc.EXPECT().ListByStatus(gomock.Any(), "payment_ok").Return([]*models.Procedure{sampleProcedure(models.StatusPaymentOK)}, nil)
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/procedures?status=payment_ok"))
		testutil.AssertStatusOK(s.T(), rr)
		list := testutil.UnmarshalResponse[[]models.Procedure](s.T(), rr)
		s.Len(*list, 1)
	})

	s.Run("requires a filter", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/procedures"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "invalid_input")
	})

	s.Run("not found", func() {
		procedureID := id.NewProcedureID()
		s.svc.EXPECT().Get(gomock.Any(), procedureID).Return(nil, dErrors.New(dErrors.CodeNotFound, "procedure not found"))
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/procedures/"+procedureID.String()))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
	})
}
