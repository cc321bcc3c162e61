package models

import (
	"time"

	id "dlms/pkg/domain"
	dErrors "dlms/pkg/domain-errors"
)

type Status string

const (
	StatusValid        Status = "valid"
	StatusExpired      Status = "expired"
	StatusSuspended    Status = "suspended"
	StatusDisqualified Status = "disqualified"
	StatusSuperseded   Status = "superseded"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusValid, StatusExpired, StatusSuspended, StatusDisqualified, StatusSuperseded:
		return true
	}
	return false
}

// License is an issued credential. Replaced licenses are re-flagged as
// superseded and kept.
//
// Invariants:
//   - at most one license per (applicant, class) has status valid
//   - Number is unique across the store
//   - ExpiresAt never changes after creation
type License struct {
	ID           id.LicenseID    `json:"id"`
	ApplicantID  id.ApplicantID  `json:"applicant_id"`
	Class        id.LicenseClass `json:"class"`
	Number       string          `json:"number"`
	IssuedAt     time.Time       `json:"issued_at"`
	ExpiresAt    time.Time       `json:"expires_at"`
	Status       Status          `json:"status"`
	ProcedureID  id.ProcedureID  `json:"procedure_id"`
	SupersededBy *id.LicenseID   `json:"superseded_by,omitempty"`
	Notes        string          `json:"notes,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// IsCurrentlyValid reports status valid and expiry not yet passed on day.
// The sweep may lag behind the calendar, so both are checked.
func (l *License) IsCurrentlyValid(day time.Time) bool {
	return l.Status == StatusValid && !l.ExpiresAt.Before(StartOfDay(day))
}

func (l *License) CanSuspend() error {
	if l.Status != StatusValid {
		return dErrors.Newf(dErrors.CodeInvalidState, "only a valid license can be suspended (status %s)", l.Status)
	}
	return nil
}

func (l *License) ApplySuspend(reason string, now time.Time) {
	l.Status = StatusSuspended
	l.Notes = appendNote(l.Notes, "suspended: "+reason)
	l.UpdatedAt = now
}

// CanDisqualify allows every status except disqualified itself, including
// superseded and expired records.
func (l *License) CanDisqualify() error {
	if l.Status == StatusDisqualified {
		return dErrors.New(dErrors.CodeInvalidState, "license is already disqualified")
	}
	return nil
}

func (l *License) ApplyDisqualify(reason string, now time.Time) {
	l.Status = StatusDisqualified
	l.Notes = appendNote(l.Notes, "disqualified: "+reason)
	l.UpdatedAt = now
}

func (l *License) CanReinstate(today time.Time) error {
	if l.Status != StatusSuspended {
		return dErrors.Newf(dErrors.CodeInvalidState, "only a suspended license can be reinstated (status %s)", l.Status)
	}
	if l.ExpiresAt.Before(StartOfDay(today)) {
		return dErrors.New(dErrors.CodeInvalidState, "license expired while suspended")
	}
	return nil
}

func (l *License) ApplyReinstate(now time.Time) {
	l.Status = StatusValid
	l.Notes = appendNote(l.Notes, "reinstated")
	l.UpdatedAt = now
}

func (l *License) ApplySupersede(by id.LicenseID, now time.Time) {
	l.Status = StatusSuperseded
	l.SupersededBy = &by
	l.UpdatedAt = now
}

func appendNote(notes, note string) string {
	if notes == "" {
		return note
	}
	return notes + "; " + note
}

// StartOfDay truncates t to midnight in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
