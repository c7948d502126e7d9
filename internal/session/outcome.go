package session

import "subburn/internal/services"

// OutcomeKind classifies the result of handling one inbound document.
type OutcomeKind string

const (
	// OutcomeStored means the artifact filled its slot and the session is
	// waiting for the other one.
	OutcomeStored OutcomeKind = "stored"
	// OutcomeRejected means nothing changed; Reason says why.
	OutcomeRejected OutcomeKind = "rejected"
	// OutcomeBusy means the session is rendering or delivering.
	OutcomeBusy OutcomeKind = "busy"
	// OutcomeCompleted means the result reached the user.
	OutcomeCompleted OutcomeKind = "completed"
	// OutcomeFailed accompanies a terminal error.
	OutcomeFailed OutcomeKind = "failed"
)

// Outcome reports what an inbound document did to its session.
type Outcome struct {
	Kind      OutcomeKind
	Reason    services.ErrorKind
	State     State
	SessionID string
	// Link is set when a completed session was delivered by link.
	Link string
	// Err is the recoverable error behind a rejection.
	Err error
}

func rejected(err error, snap Snapshot) Outcome {
	return Outcome{Kind: OutcomeRejected, Reason: services.Kind(err), State: snap.State, SessionID: snap.ID, Err: err}
}
