package domain

type PaymentMethod string

const (
	PaymentMethodCash PaymentMethod = "cash"
	PaymentMethodQris PaymentMethod = "qris"
)

// FlowState is the state of a checkout/payment session.
type FlowState string

const (
	FlowStateClosed          FlowState = "CLOSED"
	FlowStateMethodSelection FlowState = "METHOD_SELECTION"
	FlowStateQrisPending     FlowState = "QRIS_PENDING"
	FlowStateCashInput       FlowState = "CASH_INPUT"
	FlowStateSubmitting      FlowState = "SUBMITTING"
	FlowStateCompleted       FlowState = "COMPLETED"
	FlowStateFailed          FlowState = "FAILED"
)

// String representation (for logging)
func (s FlowState) String() string {
	return string(s)
}

// flowTransitions lists the legal moves of the payment state machine.
// Submitting is not cancellable; Completed has no outgoing edges.
var flowTransitions = map[FlowState][]FlowState{
	FlowStateClosed:          {FlowStateMethodSelection},
	FlowStateMethodSelection: {FlowStateQrisPending, FlowStateCashInput, FlowStateClosed},
	FlowStateQrisPending:     {FlowStateSubmitting, FlowStateMethodSelection, FlowStateClosed},
	FlowStateCashInput:       {FlowStateSubmitting, FlowStateMethodSelection, FlowStateClosed},
	FlowStateSubmitting:      {FlowStateCompleted, FlowStateFailed},
	FlowStateFailed:          {FlowStateSubmitting, FlowStateMethodSelection, FlowStateClosed},
}

func CanTransition(from, to FlowState) bool {
	for _, next := range flowTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
