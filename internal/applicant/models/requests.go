package models

import (
	"strings"
	"time"

	dErrors "dlms/pkg/domain-errors"
)

const dateLayout = "2006-01-02"

// RegisterRequest is the body of POST /applicants.
type RegisterRequest struct {
	NationalID string `json:"national_id"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	BirthDate  string `json:"birth_date"`
	Address    string `json:"address"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
}

// ParseBirthDate reads the YYYY-MM-DD birth date.
func (r *RegisterRequest) ParseBirthDate() (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(r.BirthDate))
	if err != nil {
		return time.Time{}, dErrors.New(dErrors.CodeInvalidInput, "birth_date must be YYYY-MM-DD")
	}
	return t, nil
}

// DisqualifyRequest is the body of POST /applicants/{id}/disqualifications.
type DisqualifyRequest struct {
	Reason string     `json:"reason"`
	From   time.Time  `json:"from"`
	Until  *time.Time `json:"until,omitempty"`
}

func (r *DisqualifyRequest) Validate() error {
	if strings.TrimSpace(r.Reason) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "reason is required")
	}
	if r.From.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "from is required")
	}
	if r.Until != nil && !r.Until.After(r.From) {
		return dErrors.New(dErrors.CodeInvalidInput, "until must be after from")
	}
	return nil
}
