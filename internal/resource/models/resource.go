package models

import (
	"fmt"
	"strings"
	"time"

	id "dlms/pkg/domain"
	dErrors "dlms/pkg/domain-errors"
)

// ResourceType is the kind of bookable asset.
type ResourceType string

const (
	ResourceTypeMedicalOffice  ResourceType = "medical_office"
	ResourceTypeExamTrack      ResourceType = "exam_track"
	ResourceTypeTheoryRoom     ResourceType = "theory_room"
	ResourceTypeServiceCounter ResourceType = "service_counter"
)

func (t ResourceType) IsValid() bool {
	switch t {
	case ResourceTypeMedicalOffice, ResourceTypeExamTrack, ResourceTypeTheoryRoom, ResourceTypeServiceCounter:
		return true
	}
	return false
}

// ParseResourceType accepts the canonical lower-case names.
func ParseResourceType(s string) (ResourceType, error) {
	t := ResourceType(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown resource type %q", s)
	}
	return t, nil
}

// TimeOfDay is minutes since midnight, written as "HH:MM".
type TimeOfDay int

const endOfDay TimeOfDay = 24 * 60

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var h, m int
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d:%d", &h, &m); err != nil {
		return 0, dErrors.Newf(dErrors.CodeInvalidInput, "time of day %q must be HH:MM", s)
	}
	if h < 0 || m < 0 || m > 59 || h*60+m > int(endOfDay) {
		return 0, dErrors.Newf(dErrors.CodeInvalidInput, "time of day %q out of range", s)
	}
	return TimeOfDay(h*60 + m), nil
}

// TimeOfDayOf reads the wall-clock time of t in t's own location.
func TimeOfDayOf(t time.Time) TimeOfDay {
	return TimeOfDay(t.Hour()*60 + t.Minute())
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TimeOfDay) UnmarshalText(text []byte) error {
	v, err := ParseTimeOfDay(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Resource is a bookable physical asset. The scheduler only reads it.
type Resource struct {
	ID       id.ResourceID `json:"id"`
	Name     string        `json:"name"`
	Type     ResourceType  `json:"type"`
	Active   bool          `json:"active"`
	Capacity int           `json:"capacity"`
	OpensAt  TimeOfDay     `json:"opens_at"`
	ClosesAt TimeOfDay     `json:"closes_at"`
}

// WithinHours reports whether both ends of a slot fall inside the daily
// window, bounds inclusive. Seconds are ignored; a slot ending at 18:00:30
// against a 18:00 close is inside.
func (r *Resource) WithinHours(start, end time.Time) bool {
	s, e := TimeOfDayOf(start), TimeOfDayOf(end)
	return s >= r.OpensAt && s <= r.ClosesAt && e >= r.OpensAt && e <= r.ClosesAt
}

// NewResource validates and builds an active resource.
func NewResource(resourceID id.ResourceID, name string, typ ResourceType, capacity int, opensAt, closesAt TimeOfDay) (*Resource, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "resource name is required")
	}
	if !typ.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "unknown resource type %q", typ)
	}
	if capacity <= 0 {
		capacity = 1
	}
	if opensAt < 0 || closesAt > endOfDay || opensAt >= closesAt {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "opening hours must satisfy opens_at < closes_at")
	}
	return &Resource{
		ID:       resourceID,
		Name:     name,
		Type:     typ,
		Active:   true,
		Capacity: capacity,
		OpensAt:  opensAt,
		ClosesAt: closesAt,
	}, nil
}

// CreateRequest is the body of POST /resources.
type CreateRequest struct {
	Name     string    `json:"name"`
	Type     string    `json:"type"`
	Capacity int       `json:"capacity"`
	OpensAt  TimeOfDay `json:"opens_at"`
	ClosesAt TimeOfDay `json:"closes_at"`
}
