// Package domain holds shared domain primitives: typed identifiers and the
// license class catalogue. Typed IDs keep an applicant ID from being passed
// where a procedure ID is expected; the compiler enforces the distinction.
package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "dlms/pkg/domain-errors"
)

type (
	ApplicantID   uuid.UUID
	ProcedureID   uuid.UUID
	LicenseID     uuid.UUID
	ResourceID    uuid.UUID
	AppointmentID uuid.UUID
)

// parseID is the single trust-boundary parser behind every Parse*ID function.
// Empty, malformed and nil UUIDs are rejected with CodeInvalidInput.
func parseID(kind, s string) (uuid.UUID, error) {
	if strings.TrimSpace(s) == "" {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s is required", kind)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "invalid %s", kind)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "invalid %s", kind)
	}
	return u, nil
}

func unmarshalID(kind string, text []byte) (uuid.UUID, error) {
	if len(text) == 0 {
		return uuid.Nil, nil
	}
	return parseID(kind, string(text))
}

func ParseApplicantID(s string) (ApplicantID, error) {
	u, err := parseID("applicant id", s)
	return ApplicantID(u), err
}

func ParseProcedureID(s string) (ProcedureID, error) {
	u, err := parseID("procedure id", s)
	return ProcedureID(u), err
}

func ParseLicenseID(s string) (LicenseID, error) {
	u, err := parseID("license id", s)
	return LicenseID(u), err
}

func ParseResourceID(s string) (ResourceID, error) {
	u, err := parseID("resource id", s)
	return ResourceID(u), err
}

func ParseAppointmentID(s string) (AppointmentID, error) {
	u, err := parseID("appointment id", s)
	return AppointmentID(u), err
}

func NewApplicantID() ApplicantID     { return ApplicantID(uuid.New()) }
func NewProcedureID() ProcedureID     { return ProcedureID(uuid.New()) }
func NewLicenseID() LicenseID         { return LicenseID(uuid.New()) }
func NewResourceID() ResourceID       { return ResourceID(uuid.New()) }
func NewAppointmentID() AppointmentID { return AppointmentID(uuid.New()) }

func (id ApplicantID) String() string   { return uuid.UUID(id).String() }
func (id ProcedureID) String() string   { return uuid.UUID(id).String() }
func (id LicenseID) String() string     { return uuid.UUID(id).String() }
func (id ResourceID) String() string    { return uuid.UUID(id).String() }
func (id AppointmentID) String() string { return uuid.UUID(id).String() }

func (id ApplicantID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id ProcedureID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id LicenseID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id ResourceID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id AppointmentID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// marshalID writes the canonical UUID form, or nothing for the nil UUID so an
// unset ID survives a JSON round trip through unmarshalID.
func marshalID(u uuid.UUID) ([]byte, error) {
	if u == uuid.Nil {
		return []byte{}, nil
	}
	return []byte(u.String()), nil
}

func (id ApplicantID) MarshalText() ([]byte, error)   { return marshalID(uuid.UUID(id)) }
func (id ProcedureID) MarshalText() ([]byte, error)   { return marshalID(uuid.UUID(id)) }
func (id LicenseID) MarshalText() ([]byte, error)     { return marshalID(uuid.UUID(id)) }
func (id ResourceID) MarshalText() ([]byte, error)    { return marshalID(uuid.UUID(id)) }
func (id AppointmentID) MarshalText() ([]byte, error) { return marshalID(uuid.UUID(id)) }

func (id *ApplicantID) UnmarshalText(text []byte) error {
	u, err := unmarshalID("applicant id", text)
	*id = ApplicantID(u)
	return err
}

func (id *ProcedureID) UnmarshalText(text []byte) error {
	u, err := unmarshalID("procedure id", text)
	*id = ProcedureID(u)
	return err
}

func (id *LicenseID) UnmarshalText(text []byte) error {
	u, err := unmarshalID("license id", text)
	*id = LicenseID(u)
	return err
}

func (id *ResourceID) UnmarshalText(text []byte) error {
	u, err := unmarshalID("resource id", text)
	*id = ResourceID(u)
	return err
}

func (id *AppointmentID) UnmarshalText(text []byte) error {
	u, err := unmarshalID("appointment id", text)
	*id = AppointmentID(u)
	return err
}
