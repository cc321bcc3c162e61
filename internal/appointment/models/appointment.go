package models

import (
	"strings"
	"time"

	resourcemodels "dlms/internal/resource/models"
	id "dlms/pkg/domain"
	dErrors "dlms/pkg/domain-errors"
)

type Status string

const (
	StatusReserved  Status = "reserved"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusAbsent    Status = "absent"
)

// Blocks reports whether an appointment in this status holds its slot.
func (s Status) Blocks() bool {
	return s == StatusReserved || s == StatusConfirmed
}

// BlockingStatuses lists the statuses that hold a slot, for store queries.
func BlockingStatuses() []Status {
	return []Status{StatusReserved, StatusConfirmed}
}

type Type string

const (
	TypeMedicalExam   Type = "medical_exam"
	TypeTheoryExam    Type = "theory_exam"
	TypePracticalExam Type = "practical_exam"
	TypeDocumentation Type = "documentation"
	TypeLicensePickup Type = "license_pickup"
)

func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case TypeMedicalExam, TypeTheoryExam, TypePracticalExam, TypeDocumentation, TypeLicensePickup:
		return t, nil
	}
	return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown appointment type %q", s)
}

// Appointment is a slot on a resource. Status only changes through the
// Can*/Apply* pairs below.
//
// Invariant: no two blocking appointments on one resource, or for one
// applicant and type, overlap.
type Appointment struct {
	ID                 id.AppointmentID            `json:"id"`
	ApplicantID        id.ApplicantID              `json:"applicant_id"`
	Type               Type                        `json:"type"`
	StartsAt           time.Time                   `json:"starts_at"`
	EndsAt             time.Time                   `json:"ends_at"`
	ResourceID         id.ResourceID               `json:"resource_id"`
	ResourceType       resourcemodels.ResourceType `json:"resource_type"`
	Status             Status                      `json:"status"`
	Professional       string                      `json:"professional,omitempty"`
	ProcedureID        *id.ProcedureID             `json:"procedure_id,omitempty"`
	Notes              string                      `json:"notes,omitempty"`
	CancellationReason string                      `json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time                   `json:"created_at"`
	ConfirmedAt        *time.Time                  `json:"confirmed_at,omitempty"`
	CompletedAt        *time.Time                  `json:"completed_at,omitempty"`
	CancelledAt        *time.Time                  `json:"cancelled_at,omitempty"`
}

// Overlaps compares [a1,a2] and [b1,b2] with closed bounds: an interval that
// ends exactly when the other starts still overlaps.
func Overlaps(a1, a2, b1, b2 time.Time) bool {
	return !a1.After(b2) && !a2.Before(b1)
}

func (a *Appointment) Overlaps(start, end time.Time) bool {
	return Overlaps(a.StartsAt, a.EndsAt, start, end)
}

func (a *Appointment) CanConfirm(now time.Time) error {
	if a.Status != StatusReserved {
		return dErrors.Newf(dErrors.CodeInvalidState, "only a reserved appointment can be confirmed (status %s)", a.Status)
	}
	if a.StartsAt.Before(now) {
		return dErrors.New(dErrors.CodeInvalidState, "reservation expired: the appointment has already started")
	}
	return nil
}

func (a *Appointment) ApplyConfirm(now time.Time) {
	a.Status = StatusConfirmed
	a.ConfirmedAt = &now
}

func (a *Appointment) CanComplete() error {
	if !a.Status.Blocks() {
		return dErrors.Newf(dErrors.CodeInvalidState, "appointment cannot be completed (status %s)", a.Status)
	}
	return nil
}

func (a *Appointment) ApplyComplete(notes string, now time.Time) {
	a.Status = StatusCompleted
	a.CompletedAt = &now
	if notes = strings.TrimSpace(notes); notes != "" {
		a.Notes = appendNote(a.Notes, notes)
	}
}

// CanCancel allows every status except completed and cancelled.
func (a *Appointment) CanCancel() error {
	switch a.Status {
	case StatusCompleted:
		return dErrors.New(dErrors.CodeInvalidState, "a completed appointment cannot be cancelled")
	case StatusCancelled:
		return dErrors.New(dErrors.CodeInvalidState, "appointment is already cancelled")
	}
	return nil
}

func (a *Appointment) ApplyCancel(reason string, now time.Time) {
	a.Status = StatusCancelled
	a.CancelledAt = &now
	a.CancellationReason = strings.TrimSpace(reason)
}

func (a *Appointment) CanMarkAbsent() error {
	if !a.Status.Blocks() {
		return dErrors.Newf(dErrors.CodeInvalidState, "appointment cannot be marked absent (status %s)", a.Status)
	}
	return nil
}

func (a *Appointment) ApplyAbsent() {
	a.Status = StatusAbsent
}

// CanAssignProfessional allows every state except completed and cancelled;
// absent appointments stay open until cancelled.
func (a *Appointment) CanAssignProfessional() error {
	if a.Status == StatusCompleted || a.Status == StatusCancelled {
		return dErrors.Newf(dErrors.CodeInvalidState, "professional cannot be assigned to a %s appointment", a.Status)
	}
	return nil
}

func (a *Appointment) ApplyAssignProfessional(name string) {
	a.Professional = strings.TrimSpace(name)
}

func appendNote(notes, note string) string {
	if notes == "" {
		return note
	}
	return notes + "; " + note
}

// BookRequest asks for a slot. ProcedureID is optional.
type BookRequest struct {
	ApplicantID id.ApplicantID  `json:"applicant_id"`
	Type        string          `json:"type"`
	StartsAt    time.Time       `json:"starts_at"`
	EndsAt      time.Time       `json:"ends_at"`
	ResourceID  id.ResourceID   `json:"resource_id"`
	ProcedureID *id.ProcedureID `json:"procedure_id,omitempty"`
	Notes       string          `json:"notes,omitempty"`
}

// Validate checks the slot shape: end after start, both on one calendar day.
func (r BookRequest) Validate() (Type, error) {
	typ, err := ParseType(r.Type)
	if err != nil {
		return "", err
	}
	if r.StartsAt.IsZero() || r.EndsAt.IsZero() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "starts_at and ends_at are required")
	}
	if !r.EndsAt.After(r.StartsAt) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "ends_at must be after starts_at")
	}
	sy, sm, sd := r.StartsAt.Date()
	ey, em, ed := r.EndsAt.In(r.StartsAt.Location()).Date()
	if sy != ey || sm != em || sd != ed {
		return "", dErrors.New(dErrors.CodeInvalidInput, "appointment must start and end on the same day")
	}
	return typ, nil
}
