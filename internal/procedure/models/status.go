package models

// Status is the workflow position of a procedure.
type Status string

const (
	StatusStarted     Status = "started"
	StatusDocsOK      Status = "docs_ok"
	StatusMedicalOK   Status = "medical_ok"
	StatusTheoryOK    Status = "theory_ok"
	StatusPracticalOK Status = "practical_ok"
	StatusPaymentOK   Status = "payment_ok"
	StatusIssued      Status = "issued"

	StatusMedicalRejected   Status = "medical_rejected"
	StatusTheoryRejected    Status = "theory_rejected"
	StatusPracticalRejected Status = "practical_rejected"
	StatusCancelled         Status = "cancelled"
)

// statusRank orders the forward path. Rejected and cancelled statuses have
// no rank and are absent from the table.
var statusRank = map[Status]int{
	StatusStarted:     0,
	StatusDocsOK:      1,
	StatusMedicalOK:   2,
	StatusTheoryOK:    3,
	StatusPracticalOK: 4,
	StatusPaymentOK:   5,
	StatusIssued:      6,
}

// Rank returns the position of s on the forward path and false for statuses
// off the path.
func (s Status) Rank() (int, bool) {
	r, ok := statusRank[s]
	return r, ok
}

// Outranks reports whether s is further along the forward path than o.
// Statuses off the path outrank nothing and are outranked by nothing.
func (s Status) Outranks(o Status) bool {
	rs, ok := s.Rank()
	if !ok {
		return false
	}
	ro, ok := o.Rank()
	return ok && rs > ro
}

func (s Status) IsValid() bool {
	if _, ok := statusRank[s]; ok {
		return true
	}
	return s.IsRecoverable() || s == StatusMedicalRejected || s == StatusCancelled
}

// IsTerminal reports statuses that end the procedure for good.
func (s Status) IsTerminal() bool {
	return s == StatusIssued || s == StatusMedicalRejected || s == StatusCancelled
}

// IsRecoverable reports rejected statuses that AllowRetry can leave.
func (s Status) IsRecoverable() bool {
	return s == StatusTheoryRejected || s == StatusPracticalRejected
}

// IsActive reports whether s blocks the applicant from starting another
// procedure. Recoverable rejections still count.
func (s Status) IsActive() bool {
	return !s.IsTerminal()
}

// ActiveStatuses lists every non-terminal status, for store queries.
func ActiveStatuses() []Status {
	return []Status{
		StatusStarted, StatusDocsOK, StatusMedicalOK, StatusTheoryOK,
		StatusPracticalOK, StatusPaymentOK, StatusTheoryRejected, StatusPracticalRejected,
	}
}

func (s Status) String() string {
	return string(s)
}
