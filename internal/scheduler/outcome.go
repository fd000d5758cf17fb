package scheduler

import "time"

// State is the stage of the sync cycle currently running.
type State int32

const (
	StateIdle State = iota
	StateFetching
	StateParsing
	StateStoring
	StateNotifying
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateParsing:
		return "parsing"
	case StateStoring:
		return "storing"
	case StateNotifying:
		return "notifying"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// OutcomeKind classifies the result of one sync cycle.
type OutcomeKind string

const (
	OutcomeSuccess  OutcomeKind = "success"
	OutcomeNoData   OutcomeKind = "no_data"
	OutcomeFailure  OutcomeKind = "failure"
	OutcomeCanceled OutcomeKind = "canceled"
	// OutcomeSkipped means another cycle was already in flight.
	OutcomeSkipped OutcomeKind = "skipped"
)

// Reason names the failure class of an OutcomeFailure.
type Reason string

const (
	ReasonNetwork   Reason = "network_error"
	ReasonMalformed Reason = "malformed_response"
	ReasonUpstream  Reason = "upstream_error"
	ReasonStore     Reason = "store_error"
	ReasonConfig    Reason = "config_error"
	ReasonInternal  Reason = "internal_error"
)

// Outcome is the result of RunSyncCycle.
type Outcome struct {
	CycleID     string      `json:"cycleId,omitempty"`
	Kind        OutcomeKind `json:"kind"`
	RecordCount int         `json:"recordCount"`
	Reason      Reason      `json:"reason,omitempty"`
	Err         error       `json:"-"`
	Notified    bool        `json:"notified"`
	StartedAt   time.Time   `json:"startedAt"`
	FinishedAt  time.Time   `json:"finishedAt"`
}

// ErrorMessage returns the failure message, if any.
func (o Outcome) ErrorMessage() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}
