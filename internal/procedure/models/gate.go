package models

import id "dlms/pkg/domain"

// Gate is a named prerequisite.
type Gate string

const (
	GateDocumentation Gate = "documentation"
	GateMedical       Gate = "medical"
	GateTheory        Gate = "theory"
	GatePractical     Gate = "practical"
	GatePayment       Gate = "payment"
)

// gateOrder is the forward order of every gate.
var gateOrder = []Gate{GateDocumentation, GateMedical, GateTheory, GatePractical, GatePayment}

// gateStatus is the status reached once a gate and every required gate
// before it are satisfied.
var gateStatus = map[Gate]Status{
	GateDocumentation: StatusDocsOK,
	GateMedical:       StatusMedicalOK,
	GateTheory:        StatusTheoryOK,
	GatePractical:     StatusPracticalOK,
	GatePayment:       StatusPaymentOK,
}

var gateRejected = map[Gate]Status{
	GateMedical:   StatusMedicalRejected,
	GateTheory:    StatusTheoryRejected,
	GatePractical: StatusPracticalRejected,
}

var requiredGates = map[id.ProcedureType]map[Gate]bool{
	id.ProcedureFirstIssuance: {GateDocumentation: true, GateMedical: true, GateTheory: true, GatePractical: true, GatePayment: true},
	id.ProcedureRenewal:       {GateDocumentation: true, GateMedical: true, GatePayment: true},
	id.ProcedureDuplicate:     {GateDocumentation: true},
	id.ProcedureAddressChange: {GateDocumentation: true},
}

// RequiredGates returns the gates a procedure type must satisfy, in order.
func RequiredGates(t id.ProcedureType) []Gate {
	out := make([]Gate, 0, len(gateOrder))
	for _, g := range gateOrder {
		if requiredGates[t][g] {
			out = append(out, g)
		}
	}
	return out
}

// Requires reports whether procedures of type t must pass gate g.
func Requires(t id.ProcedureType, g Gate) bool {
	return requiredGates[t][g]
}

// RejectedStatus is the status a failed gate leads to. Documentation and
// payment cannot fail.
func (g Gate) RejectedStatus() (Status, bool) {
	s, ok := gateRejected[g]
	return s, ok
}

// gateOf maps a recoverable rejected status back to its gate.
func gateOf(s Status) (Gate, bool) {
	for g, rejected := range gateRejected {
		if rejected == s {
			return g, true
		}
	}
	return "", false
}
