package models

import (
	"fmt"
	"time"
)

// Validity periods in years.
const (
	NoviceValidityYears   = 1
	StandardValidityYears = 5
	SeniorValidityYears   = 3

	NoviceAgeLimit = 21
	SeniorAge      = 65
)

// ValidityYears picks the validity period for a new license.
//
//	age < 21, first license of the class  -> 1
//	age >= 65                             -> 3
//	otherwise                             -> 5
//
// Under-21 applicants renewing or re-issuing get the standard period.
func ValidityYears(age int, firstOfClass bool) int {
	switch {
	case age < NoviceAgeLimit && firstOfClass:
		return NoviceValidityYears
	case age >= SeniorAge:
		return SeniorValidityYears
	default:
		return StandardValidityYears
	}
}

// FormatNumber renders a license number as YYYYMMDD-NNNNNN.
func FormatNumber(issueDate time.Time, serial int) string {
	return fmt.Sprintf("%s-%06d", issueDate.Format("20060102"), serial%1_000_000)
}
