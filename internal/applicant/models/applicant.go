package models

import (
	"strings"
	"time"

	id "dlms/pkg/domain"
	dErrors "dlms/pkg/domain-errors"
)

// Applicant is a person seeking or holding a license. The registry owns the
// record; the license engine only ever changes Address.
type Applicant struct {
	ID                id.ApplicantID     `json:"id"`
	NationalID        string             `json:"national_id"`
	FirstName         string             `json:"first_name"`
	LastName          string             `json:"last_name"`
	BirthDate         time.Time          `json:"birth_date"`
	Address           string             `json:"address"`
	Email             string             `json:"email,omitempty"`
	Phone             string             `json:"phone,omitempty"`
	Disqualifications []Disqualification `json:"disqualifications,omitempty"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

// Disqualification is a court or administrative ban on driving. A nil Until
// means indefinite.
type Disqualification struct {
	Reason string     `json:"reason"`
	From   time.Time  `json:"from"`
	Until  *time.Time `json:"until,omitempty"`
}

// ActiveAt reports whether the ban covers t.
func (d Disqualification) ActiveAt(t time.Time) bool {
	if t.Before(d.From) {
		return false
	}
	return d.Until == nil || t.Before(*d.Until)
}

// HasActiveDisqualification reports whether any ban covers t.
func (a *Applicant) HasActiveDisqualification(t time.Time) bool {
	for _, d := range a.Disqualifications {
		if d.ActiveAt(t) {
			return true
		}
	}
	return false
}

// AgeAt returns completed years at t.
func (a *Applicant) AgeAt(t time.Time) int {
	by, bm, bd := a.BirthDate.Date()
	ty, tm, td := t.In(a.BirthDate.Location()).Date()
	age := ty - by
	if tm < bm || (tm == bm && td < bd) {
		age--
	}
	return age
}

// FullName joins first and last name.
func (a *Applicant) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// NewApplicant validates identity fields and builds a registry record.
func NewApplicant(applicantID id.ApplicantID, nationalID, firstName, lastName string, birthDate time.Time, now time.Time) (*Applicant, error) {
	nationalID = strings.TrimSpace(nationalID)
	if nationalID == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "national_id is required")
	}
	if strings.TrimSpace(firstName) == "" || strings.TrimSpace(lastName) == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "first_name and last_name are required")
	}
	if birthDate.IsZero() || birthDate.After(now) {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "birth_date must be in the past")
	}
	return &Applicant{
		ID:         applicantID,
		NationalID: nationalID,
		FirstName:  strings.TrimSpace(firstName),
		LastName:   strings.TrimSpace(lastName),
		BirthDate:  birthDate,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}
