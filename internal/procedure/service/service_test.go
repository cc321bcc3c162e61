package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	applicantmodels "dlms/internal/applicant/models"
	applicantstore "dlms/internal/applicant/store"
	licensemodels "dlms/internal/license/models"
	licenseservice "dlms/internal/license/service"
	licensestore "dlms/internal/license/store"
	"dlms/internal/procedure/models"
	"dlms/internal/procedure/service/mocks"
	"dlms/internal/procedure/store"
	id "dlms/pkg/domain"
	dErrors "dlms/pkg/domain-errors"
	"dlms/pkg/platform/audit"
	auditmemory "dlms/pkg/platform/audit/store/memory"
	"dlms/pkg/platform/tx"
	"dlms/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks LicenseIssuer
type ServiceSuite struct {
	suite.Suite
	ctx        context.Context
	today      time.Time
	applicants *applicantstore.InMemoryStore
	licenses   *licensestore.InMemoryStore
	procedures *store.InMemoryStore
	events     *auditmemory.InMemoryStore
	runner     *tx.ShardedRunner
	svc        *Service
	serial     int
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.today = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.today.Add(9*time.Hour))
	s.applicants = applicantstore.NewInMemoryStore()
	s.licenses = licensestore.NewInMemoryStore()
	s.procedures = store.NewInMemoryStore()
	s.events = auditmemory.NewInMemoryStore()
	s.runner = tx.NewShardedRunner(time.Second)

	emitter := audit.NewEmitter(nil, s.events)
	licenses := licenseservice.New(s.licenses, s.applicants, s.runner, licenseservice.WithAuditEmitter(emitter))
	s.svc = New(s.procedures, s.applicants, licenses, s.runner, WithAuditEmitter(emitter))
}

func (s *ServiceSuite) applicant(age int) *applicantmodels.Applicant {
	a, err := applicantmodels.NewApplicant(id.NewApplicantID(), "NID-"+id.NewApplicantID().String()[:12], "Luis", "Mora", s.today.AddDate(-age, 0, -10), s.today)
	s.Require().NoError(err)
	a.Address = "Old Street 1"
	s.Require().NoError(s.applicants.Create(s.ctx, a))
	return a
}

func (s *ServiceSuite) seedLicense(a *applicantmodels.Applicant, status licensemodels.Status, expires time.Time) *licensemodels.License {
	s.serial++
	l := &licensemodels.License{
		ID:          id.NewLicenseID(),
		ApplicantID: a.ID,
		Class:       id.ClassB,
		Number:      licensemodels.FormatNumber(expires, 900_000+s.serial),
		IssuedAt:    expires.AddDate(-5, 0, 0),
		ExpiresAt:   expires,
		Status:      status,
		ProcedureID: id.NewProcedureID(),
		CreatedAt:   s.today,
		UpdatedAt:   s.today,
	}
	s.Require().NoError(s.licenses.Create(s.ctx, l))
	return l
}

func (s *ServiceSuite) start(a *applicantmodels.Applicant, typ id.ProcedureType) (*models.Procedure, error) {
	return s.svc.Start(s.ctx, models.StartRequest{
		ApplicantID:      a.ID,
		Type:             string(typ),
		Class:            "B",
		RequestedAddress: "New Avenue 9",
		Agent:            "clerk-1",
	})
}

// completeGates drives a procedure through every gate its type requires.
func (s *ServiceSuite) completeGates(p *models.Procedure) *models.Procedure {
	var err error
	p, err = s.svc.ValidateDocumentation(s.ctx, p.ID, "clerk-1")
	s.Require().NoError(err)
	if models.Requires(p.Type, models.GateMedical) {
		p, err = s.svc.RegisterMedicalFitness(s.ctx, p.ID, true)
		s.Require().NoError(err)
	}
	if models.Requires(p.Type, models.GateTheory) {
		p, err = s.svc.RegisterTheoryExam(s.ctx, p.ID, true)
		s.Require().NoError(err)
	}
	if models.Requires(p.Type, models.GatePractical) {
		p, err = s.svc.RegisterPracticalExam(s.ctx, p.ID, true)
		s.Require().NoError(err)
	}
	if models.Requires(p.Type, models.GatePayment) {
		p, err = s.svc.RegisterPayment(s.ctx, p.ID, true)
		s.Require().NoError(err)
	}
	s.Require().Equal(models.StatusPaymentOK, p.Status)
	return p
}

func (s *ServiceSuite) issuedLicense(p *models.Procedure) *licensemodels.License {
	s.Require().NotNil(p.LicenseID)
	l, err := s.licenses.FindByID(s.ctx, *p.LicenseID)
	s.Require().NoError(err)
	return l
}

func (s *ServiceSuite) TestScenarioAdultFirstIssuanceGetsFiveYears() {
	a := s.applicant(25)
	p, err := s.start(a, id.ProcedureFirstIssuance)
	s.Require().NoError(err)
	p = s.completeGates(p)

	p, err = s.svc.IssueLicense(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusIssued, p.Status)

	l := s.issuedLicense(p)
	s.Equal(licensemodels.StatusValid, l.Status)
	s.Equal(s.today.AddDate(5, 0, 0), l.ExpiresAt)
	s.Equal(p.ID, l.ProcedureID)

	_, err = s.svc.IssueLicense(s.ctx, p.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState), "second issuance")
}

func (s *ServiceSuite) TestScenarioNoviceFirstIssuanceGetsOneYear() {
	a := s.applicant(19)
	p, err := s.start(a, id.ProcedureFirstIssuance)
	s.Require().NoError(err)
	p = s.completeGates(p)
	p, err = s.svc.IssueLicense(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(s.today.AddDate(1, 0, 0), s.issuedLicense(p).ExpiresAt)
}

func (s *ServiceSuite) TestScenarioDuplicatePreservesExpiry() {
	a := s.applicant(40)
	original := s.seedLicense(a, licensemodels.StatusValid, s.today.AddDate(3, 0, 0))

	p, err := s.start(a, id.ProcedureDuplicate)
	s.Require().NoError(err)
	p = s.completeGates(p)
	p, err = s.svc.IssueLicense(s.ctx, p.ID)
	s.Require().NoError(err)

	l := s.issuedLicense(p)
	s.Equal(original.ExpiresAt, l.ExpiresAt)
	prev, err := s.licenses.FindByID(s.ctx, original.ID)
	s.Require().NoError(err)
	s.Equal(licensemodels.StatusSuperseded, prev.Status)
}

func (s *ServiceSuite) TestScenarioDuplicateRequiresValidOriginal() {
	a := s.applicant(40)
	s.seedLicense(a, licensemodels.StatusSuspended, s.today.AddDate(3, 0, 0))
	_, err := s.start(a, id.ProcedureDuplicate)
	s.True(dErrors.HasCode(err, dErrors.CodeEligibility))

	// the original loses validity after the procedure started
	b := s.applicant(40)
	original := s.seedLicense(b, licensemodels.StatusValid, s.today.AddDate(3, 0, 0))
	p, err := s.start(b, id.ProcedureDuplicate)
	s.Require().NoError(err)
	p = s.completeGates(p)
	original.ApplySuspend("review", s.today)
	s.Require().NoError(s.licenses.Update(s.ctx, original))

	_, err = s.svc.IssueLicense(s.ctx, p.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	still, err := s.svc.Get(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusPaymentOK, still.Status)
}

func (s *ServiceSuite) TestAddressChangeUpdatesApplicant() {
	a := s.applicant(40)
	s.seedLicense(a, licensemodels.StatusValid, s.today.AddDate(2, 0, 0))

	_, err := s.svc.Start(s.ctx, models.StartRequest{ApplicantID: a.ID, Type: "address_change", Class: "B"})
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput), "address required")

	p, err := s.start(a, id.ProcedureAddressChange)
	s.Require().NoError(err)
	p = s.completeGates(p)
	_, err = s.svc.IssueLicense(s.ctx, p.ID)
	s.Require().NoError(err)

	updated, err := s.applicants.FindByID(s.ctx, a.ID)
	s.Require().NoError(err)
	s.Equal("New Avenue 9", updated.Address)
}

func (s *ServiceSuite) TestScenarioRenewalOfLongExpiredLicenseIsIneligible() {
	a := s.applicant(40)
	s.seedLicense(a, licensemodels.StatusExpired, s.today.AddDate(-3, 0, 0))
	_, err := s.start(a, id.ProcedureRenewal)
	s.True(dErrors.HasCode(err, dErrors.CodeEligibility))

	s.Run("within the grace period renewal works", func() {
		b := s.applicant(40)
		old := s.seedLicense(b, licensemodels.StatusExpired, s.today.AddDate(-1, 0, 0))
		p, err := s.start(b, id.ProcedureRenewal)
		s.Require().NoError(err)
		p = s.completeGates(p)
		p, err = s.svc.IssueLicense(s.ctx, p.ID)
		s.Require().NoError(err)
		s.Equal(s.today.AddDate(5, 0, 0), s.issuedLicense(p).ExpiresAt)

		prev, err := s.licenses.FindByID(s.ctx, old.ID)
		s.Require().NoError(err)
		s.Equal(licensemodels.StatusSuperseded, prev.Status)
	})

	s.Run("no license at all", func() {
		_, err := s.start(s.applicant(40), id.ProcedureRenewal)
		s.True(dErrors.HasCode(err, dErrors.CodeEligibility))
	})
}

func (s *ServiceSuite) TestScenarioPracticalRetryKeepsTheory() {
	a := s.applicant(30)
	p, err := s.start(a, id.ProcedureFirstIssuance)
	s.Require().NoError(err)
	_, err = s.svc.ValidateDocumentation(s.ctx, p.ID, "")
	s.Require().NoError(err)
	_, err = s.svc.RegisterMedicalFitness(s.ctx, p.ID, true)
	s.Require().NoError(err)
	_, err = s.svc.RegisterTheoryExam(s.ctx, p.ID, true)
	s.Require().NoError(err)

	p, err = s.svc.RegisterPracticalExam(s.ctx, p.ID, false)
	s.Require().NoError(err)
	s.Equal(models.StatusPracticalRejected, p.Status)

	_, err = s.svc.IssueLicense(s.ctx, p.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))

	p, err = s.svc.AllowRetry(s.ctx, p.ID, "second attempt")
	s.Require().NoError(err)
	s.Equal(models.StatusTheoryOK, p.Status)
	s.True(p.TheoryExamPassed)
	s.False(p.PracticalExamPassed)

	_, err = s.svc.AllowRetry(s.ctx, p.ID, "again")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))

	s.Contains(s.events.Actions(a.ID), string(audit.EventProcedureGateRejected))
	s.Contains(s.events.Actions(a.ID), string(audit.EventProcedureRetryAllowed))
}

func (s *ServiceSuite) TestStartChecks() {
	s.Run("unknown applicant", func() {
		_, err := s.svc.Start(s.ctx, models.StartRequest{ApplicantID: id.NewApplicantID(), Type: "first_issuance", Class: "B"})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("unknown class", func() {
		_, err := s.svc.Start(s.ctx, models.StartRequest{ApplicantID: s.applicant(30).ID, Type: "first_issuance", Class: "Z"})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("active disqualification", func() {
		a := s.applicant(30)
		s.Require().NoError(s.applicants.AddDisqualification(s.ctx, a.ID, applicantmodels.Disqualification{
			Reason: "court order", From: s.today.AddDate(0, -1, 0),
		}))
		_, err := s.start(a, id.ProcedureFirstIssuance)
		s.True(dErrors.HasCode(err, dErrors.CodeEligibility))
	})

	s.Run("expired disqualification does not block", func() {
		a := s.applicant(30)
		until := s.today.AddDate(0, 0, -1)
		s.Require().NoError(s.applicants.AddDisqualification(s.ctx, a.ID, applicantmodels.Disqualification{
			Reason: "old", From: s.today.AddDate(-1, 0, 0), Until: &until,
		}))
		_, err := s.start(a, id.ProcedureFirstIssuance)
		s.NoError(err)
	})

	s.Run("under minimum age", func() {
		a := s.applicant(19)
		_, err := s.svc.Start(s.ctx, models.StartRequest{ApplicantID: a.ID, Type: "first_issuance", Class: "C"})
		s.True(dErrors.HasCode(err, dErrors.CodeEligibility))
	})

	s.Run("first issuance while holding a valid license", func() {
		a := s.applicant(30)
		s.seedLicense(a, licensemodels.StatusValid, s.today.AddDate(1, 0, 0))
		_, err := s.start(a, id.ProcedureFirstIssuance)
		s.True(dErrors.HasCode(err, dErrors.CodeEligibility))
	})
}

func (s *ServiceSuite) TestSingleActiveProcedure() {
	a := s.applicant(30)
	p, err := s.start(a, id.ProcedureFirstIssuance)
	s.Require().NoError(err)

	_, err = s.start(a, id.ProcedureFirstIssuance)
	s.True(dErrors.HasCode(err, dErrors.CodeEligibility))

	_, err = s.svc.Cancel(s.ctx, p.ID, "")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	cancelled, err := s.svc.Cancel(s.ctx, p.ID, "applicant withdrew")
	s.Require().NoError(err)
	s.Equal(models.StatusCancelled, cancelled.Status)

	_, err = s.start(a, id.ProcedureFirstIssuance)
	s.NoError(err)
}

func (s *ServiceSuite) TestConcurrentStartsCreateOneProcedure() {
	a := s.applicant(30)
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.start(a, id.ProcedureFirstIssuance); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	s.Equal(1, successes)

	list, err := s.svc.ListByApplicant(s.ctx, a.ID)
	s.Require().NoError(err)
	s.Len(list, 1)
}

func (s *ServiceSuite) TestPaymentNotConfirmedLeavesFlags() {
	a := s.applicant(30)
	p, err := s.start(a, id.ProcedureFirstIssuance)
	s.Require().NoError(err)
	_, err = s.svc.RegisterPayment(s.ctx, p.ID, false)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState), "documentation first")

	_, err = s.svc.ValidateDocumentation(s.ctx, p.ID, "")
	s.Require().NoError(err)
	p, err = s.svc.RegisterPayment(s.ctx, p.ID, false)
	s.Require().NoError(err)
	s.False(p.PaymentConfirmed)
	s.Equal(models.StatusDocsOK, p.Status)
}

func (s *ServiceSuite) TestListByStatus() {
	a := s.applicant(30)
	_, err := s.start(a, id.ProcedureFirstIssuance)
	s.Require().NoError(err)

	out, err := s.svc.ListByStatus(s.ctx, "started")
	s.Require().NoError(err)
	s.Len(out, 1)

	_, err = s.svc.ListByStatus(s.ctx, "paused")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *ServiceSuite) TestIssueFailureLeavesProcedureReady() {
	ctrl := gomock.NewController(s.T())
	issuer := mocks.NewMockLicenseIssuer(ctrl)
	svc := New(s.procedures, s.applicants, issuer, s.runner)

	a := s.applicant(40)
	issuer.EXPECT().ListByApplicant(gomock.Any(), a.ID).Return(nil, nil)
	p, err := svc.Start(s.ctx, models.StartRequest{ApplicantID: a.ID, Type: "first_issuance", Class: "B"})
	s.Require().NoError(err)
	p = s.completeGates(p)

	issuer.EXPECT().Issue(gomock.Any(), gomock.Cond(func(req licenseservice.IssueRequest) bool {
		return req.ProcedureID == p.ID && req.Class == id.ClassB
	})).Return(nil, dErrors.New(dErrors.CodeGenerationExhausted, "no free license number after 20 attempts"))

	_, err = svc.IssueLicense(s.ctx, p.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeGenerationExhausted))

	still, err := svc.Get(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusPaymentOK, still.Status)
	s.Nil(still.LicenseID)
}
