package audit

import (
	"time"

	id "dlms/pkg/domain"
)

// EventCategory classifies events so sinks can apply different retention.
type EventCategory string

const (
	// CategoryCompliance covers events with legal significance: issuance,
	// supersession, suspension and disqualification of licenses.
	CategoryCompliance EventCategory = "compliance"
	// CategoryOperations covers routine workflow and scheduling activity.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain services after a unit of work commits. It is
// transport-agnostic so stores and brokers can fan out.
type Event struct {
	Category    EventCategory
	Timestamp   time.Time
	ApplicantID id.ApplicantID
	// Subject is the ID of the entity the action applies to (procedure,
	// license or appointment).
	Subject   string
	Action    string
	Reason    string
	Agent     string
	RequestID string
}

type Action string

const (
	// Applicant registry
	EventApplicantRegistered   Action = "applicant_registered"
	EventApplicantDisqualified Action = "applicant_disqualified"

	// Procedure workflow
	EventProcedureStarted       Action = "procedure_started"
	EventDocumentationValidated Action = "documentation_validated"
	EventMedicalFitnessRecorded Action = "medical_fitness_recorded"
	EventTheoryExamRecorded     Action = "theory_exam_recorded"
	EventPracticalExamRecorded  Action = "practical_exam_recorded"
	EventPaymentRecorded        Action = "payment_recorded"
	EventProcedureRetryAllowed  Action = "procedure_retry_allowed"
	EventProcedureIssued        Action = "procedure_issued"
	EventProcedureCancelled     Action = "procedure_cancelled"
	EventProcedureGateRejected  Action = "procedure_gate_rejected"

	// Licenses
	EventLicenseIssued       Action = "license_issued"
	EventLicenseSuperseded   Action = "license_superseded"
	EventLicenseSuspended    Action = "license_suspended"
	EventLicenseDisqualified Action = "license_disqualified"
	EventLicenseReinstated   Action = "license_reinstated"
	EventLicenseExpired      Action = "license_expired"
	EventApplicantRelocated  Action = "applicant_address_updated"

	// Appointments
	EventAppointmentBooked    Action = "appointment_booked"
	EventAppointmentConfirmed Action = "appointment_confirmed"
	EventAppointmentCompleted Action = "appointment_completed"
	EventAppointmentCancelled Action = "appointment_cancelled"
	EventAppointmentAbsent    Action = "appointment_absent"
	EventProfessionalAssigned Action = "appointment_professional_assigned"
)

var actionCategories = map[Action]EventCategory{
	EventApplicantDisqualified: CategoryCompliance,
	EventApplicantRelocated:    CategoryCompliance,
	EventLicenseIssued:         CategoryCompliance,
	EventLicenseSuperseded:     CategoryCompliance,
	EventLicenseSuspended:      CategoryCompliance,
	EventLicenseDisqualified:   CategoryCompliance,
	EventLicenseReinstated:     CategoryCompliance,
	EventLicenseExpired:        CategoryCompliance,
	EventProcedureIssued:       CategoryCompliance,
}

// Category returns the category for this action.
// Unknown and unlisted actions default to CategoryOperations.
func (a Action) Category() EventCategory {
	if cat, ok := actionCategories[a]; ok {
		return cat
	}
	return CategoryOperations
}
