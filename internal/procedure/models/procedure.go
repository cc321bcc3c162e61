package models

import (
	"strings"
	"time"

	id "dlms/pkg/domain"
	dErrors "dlms/pkg/domain-errors"
)

// Procedure is an applicant's request for a license action. Status is derived
// from the gate flags by Recompute except for rejections, retries, issuance
// and cancellation, which set it explicitly.
//
// Invariants:
//   - at most one active procedure per applicant
//   - Status only moves forward along the rank table outside reject/retry
//   - terminal statuses never change
type Procedure struct {
	ID                     id.ProcedureID   `json:"id"`
	ApplicantID            id.ApplicantID   `json:"applicant_id"`
	Type                   id.ProcedureType `json:"type"`
	Class                  id.LicenseClass  `json:"class"`
	Status                 Status           `json:"status"`
	DocumentationValidated bool             `json:"documentation_validated"`
	MedicalFitnessValid    bool             `json:"medical_fitness_valid"`
	TheoryExamPassed       bool             `json:"theory_exam_passed"`
	PracticalExamPassed    bool             `json:"practical_exam_passed"`
	PaymentConfirmed       bool             `json:"payment_confirmed"`
	TheoryAttempts         int              `json:"theory_attempts"`
	PracticalAttempts      int              `json:"practical_attempts"`
	RequestedAddress       string           `json:"requested_address,omitempty"`
	LicenseID              *id.LicenseID    `json:"license_id,omitempty"`
	Agent                  string           `json:"agent,omitempty"`
	Notes                  string           `json:"notes,omitempty"`
	RejectionReason        string           `json:"rejection_reason,omitempty"`
	CreatedAt              time.Time        `json:"created_at"`
	UpdatedAt              time.Time        `json:"updated_at"`
}

func NewProcedure(procedureID id.ProcedureID, applicantID id.ApplicantID, typ id.ProcedureType, class id.LicenseClass, now time.Time) *Procedure {
	return &Procedure{
		ID:          procedureID,
		ApplicantID: applicantID,
		Type:        typ,
		Class:       class,
		Status:      StatusStarted,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Satisfied reports the flag backing gate g.
func (p *Procedure) Satisfied(g Gate) bool {
	switch g {
	case GateDocumentation:
		return p.DocumentationValidated
	case GateMedical:
		return p.MedicalFitnessValid
	case GateTheory:
		return p.TheoryExamPassed
	case GatePractical:
		return p.PracticalExamPassed
	case GatePayment:
		return p.PaymentConfirmed
	}
	return false
}

func (p *Procedure) setFlag(g Gate, v bool) {
	switch g {
	case GateDocumentation:
		p.DocumentationValidated = v
	case GateMedical:
		p.MedicalFitnessValid = v
	case GateTheory:
		p.TheoryExamPassed = v
	case GatePractical:
		p.PracticalExamPassed = v
	case GatePayment:
		p.PaymentConfirmed = v
	}
}

// ReadyToIssue reports whether every gate the type requires is satisfied.
func (p *Procedure) ReadyToIssue() bool {
	for _, g := range RequiredGates(p.Type) {
		if !p.Satisfied(g) {
			return false
		}
	}
	return true
}

// Recompute sets Status to the status of the last contiguously satisfied
// required gate. Terminal and rejected statuses are left alone, and a status
// of lower rank than the current one is refused: only ApplyRetry, which
// resets to started first, moves a procedure back.
func (p *Procedure) Recompute() {
	if p.Status.IsTerminal() || p.Status.IsRecoverable() {
		return
	}
	next := p.flagStatus()
	if p.Status.Outranks(next) {
		return
	}
	p.Status = next
}

func (p *Procedure) flagStatus() Status {
	if p.ReadyToIssue() {
		return StatusPaymentOK
	}
	next := StatusStarted
	for _, g := range RequiredGates(p.Type) {
		if !p.Satisfied(g) {
			break
		}
		next = gateStatus[g]
	}
	return next
}

// preceding returns the gate that must be satisfied before g can be
// registered. Payment only waits on documentation.
func (p *Procedure) preceding(g Gate) (Gate, bool) {
	if g == GatePayment {
		return GateDocumentation, true
	}
	var prev Gate
	found := false
	for _, r := range RequiredGates(p.Type) {
		if r == g {
			return prev, found
		}
		prev, found = r, true
	}
	return "", false
}

func (p *Procedure) requireOpen() error {
	switch {
	case p.Status == StatusIssued:
		return dErrors.New(dErrors.CodeInvalidState, "procedure already issued")
	case p.Status.IsTerminal():
		return dErrors.Newf(dErrors.CodeInvalidState, "procedure is closed (status %s)", p.Status)
	case p.Status.IsRecoverable():
		return dErrors.Newf(dErrors.CodeInvalidState, "procedure awaits a retry decision (status %s)", p.Status)
	}
	return nil
}

func (p *Procedure) CanValidateDocumentation() error {
	if p.Status != StatusStarted {
		return dErrors.Newf(dErrors.CodeInvalidState, "documentation can only be validated from started (status %s)", p.Status)
	}
	return nil
}

func (p *Procedure) ApplyValidateDocumentation(agent string, now time.Time) {
	p.DocumentationValidated = true
	if agent = strings.TrimSpace(agent); agent != "" {
		p.Agent = agent
	}
	p.Recompute()
	p.UpdatedAt = now
}

// CanRegister checks that gate g is required for the type, still open, and
// that the gate before it is satisfied.
func (p *Procedure) CanRegister(g Gate) error {
	if err := p.requireOpen(); err != nil {
		return err
	}
	if !Requires(p.Type, g) {
		return dErrors.Newf(dErrors.CodeInvalidState, "%s procedures do not require the %s gate", p.Type, g)
	}
	if p.Satisfied(g) {
		return dErrors.Newf(dErrors.CodeInvalidState, "%s gate already satisfied", g)
	}
	if prev, ok := p.preceding(g); ok && !p.Satisfied(prev) {
		return dErrors.Newf(dErrors.CodeInvalidState, "%s gate must be satisfied before %s", prev, g)
	}
	return nil
}

// ApplyResult records a gate outcome. A failed medical gate ends the
// procedure; failed exams move to their recoverable rejected status.
func (p *Procedure) ApplyResult(g Gate, passed bool, now time.Time) {
	switch g {
	case GateTheory:
		p.TheoryAttempts++
	case GatePractical:
		p.PracticalAttempts++
	}
	p.UpdatedAt = now
	if passed {
		p.setFlag(g, true)
		p.Recompute()
		return
	}
	if rejected, ok := g.RejectedStatus(); ok {
		p.setFlag(g, false)
		p.Status = rejected
		p.RejectionReason = string(g) + " gate failed"
	}
}

func (p *Procedure) CanAllowRetry() error {
	if !p.Status.IsRecoverable() {
		return dErrors.Newf(dErrors.CodeInvalidState, "retry is only allowed from a recoverable rejection (status %s)", p.Status)
	}
	return nil
}

// ApplyRetry clears the failed gate and returns to the status before it.
func (p *Procedure) ApplyRetry(reason string, now time.Time) {
	g, _ := gateOf(p.Status)
	p.setFlag(g, false)
	p.Status = StatusStarted
	p.RejectionReason = ""
	p.Notes = appendNote(p.Notes, "retry "+string(g)+": "+strings.TrimSpace(reason))
	p.Recompute()
	p.UpdatedAt = now
}

func (p *Procedure) CanIssue() error {
	if err := p.requireOpen(); err != nil {
		return err
	}
	if !p.ReadyToIssue() {
		return dErrors.Newf(dErrors.CodeInvalidState, "procedure is not ready to issue (status %s)", p.Status)
	}
	return nil
}

func (p *Procedure) ApplyIssued(licenseID id.LicenseID, now time.Time) {
	p.Status = StatusIssued
	p.LicenseID = &licenseID
	p.UpdatedAt = now
}

func (p *Procedure) CanCancel() error {
	if p.Status.IsTerminal() {
		return dErrors.Newf(dErrors.CodeInvalidState, "procedure is closed (status %s)", p.Status)
	}
	return nil
}

func (p *Procedure) ApplyCancel(reason string, now time.Time) {
	p.Status = StatusCancelled
	p.Notes = appendNote(p.Notes, "cancelled: "+strings.TrimSpace(reason))
	p.UpdatedAt = now
}

func appendNote(notes, note string) string {
	if notes == "" {
		return note
	}
	return notes + "; " + note
}

// StartRequest opens a procedure. Type and Class are parsed by the service.
type StartRequest struct {
	ApplicantID      id.ApplicantID `json:"applicant_id"`
	Type             string         `json:"type"`
	Class            string         `json:"class"`
	RequestedAddress string         `json:"requested_address,omitempty"`
	Agent            string         `json:"agent,omitempty"`
	Notes            string         `json:"notes,omitempty"`
}
