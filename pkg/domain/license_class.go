package domain

import (
	"strings"

	dErrors "dlms/pkg/domain-errors"
)

// LicenseClass identifies the category of vehicle a license covers.
// Invariant: the value must be one of the catalogued classes.
//
// Usage: construct via ParseLicenseClass at trust boundaries; direct casting
// bypasses validation.
type LicenseClass string

const (
	ClassA LicenseClass = "A" // motorcycles
	ClassB LicenseClass = "B" // cars and light vans
	ClassC LicenseClass = "C" // trucks
	ClassD LicenseClass = "D" // passenger transport
	ClassE LicenseClass = "E" // articulated and heavy vehicles
	ClassF LicenseClass = "F" // adapted vehicles
	ClassG LicenseClass = "G" // agricultural machinery
)

// minimumAges is the single source of truth for valid classes.
var minimumAges = map[LicenseClass]int{
	ClassA: 17,
	ClassB: 17,
	ClassC: 21,
	ClassD: 21,
	ClassE: 21,
	ClassF: 17,
	ClassG: 17,
}

// ParseLicenseClass constructs a LicenseClass from external input. Input is
// case-insensitive.
//
// Errors: returns CodeInvalidInput when the value is empty or not catalogued.
func ParseLicenseClass(s string) (LicenseClass, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "license class cannot be empty")
	}
	c := LicenseClass(s)
	if !c.IsValid() {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown license class %q", s)
	}
	return c, nil
}

func (c LicenseClass) IsValid() bool {
	_, ok := minimumAges[c]
	return ok
}

// MinimumAge returns the youngest age at which the class may be requested.
func (c LicenseClass) MinimumAge() int {
	return minimumAges[c]
}

func (c LicenseClass) String() string {
	return string(c)
}
