package domain

import (
	"strings"

	dErrors "dlms/pkg/domain-errors"
)

// ProcedureType is the kind of license action a procedure requests. Shared by
// the workflow engine, which gates on it, and the issuance engine, which picks
// the expiry and supersession rule from it.
type ProcedureType string

const (
	ProcedureFirstIssuance ProcedureType = "first_issuance"
	ProcedureRenewal       ProcedureType = "renewal"
	ProcedureDuplicate     ProcedureType = "duplicate"
	ProcedureAddressChange ProcedureType = "address_change"
)

func ParseProcedureType(s string) (ProcedureType, error) {
	t := ProcedureType(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown procedure type %q", s)
	}
	return t, nil
}

func (t ProcedureType) IsValid() bool {
	switch t {
	case ProcedureFirstIssuance, ProcedureRenewal, ProcedureDuplicate, ProcedureAddressChange:
		return true
	}
	return false
}

// PreservesExpiry reports whether the new license keeps the replaced
// license's expiry date instead of starting a new validity period.
func (t ProcedureType) PreservesExpiry() bool {
	return t == ProcedureDuplicate || t == ProcedureAddressChange
}

func (t ProcedureType) String() string {
	return string(t)
}
