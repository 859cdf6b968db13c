// Package fallback retries a search with progressively relaxed constraints
// when the strict query finds nothing.
package fallback

import "github.com/hyperjump/vitrine/internal/models"

// State is the phase a run ended in. Outcome tells how it ended.
type State int

const (
	// StateStrict means the original constraints decided the result.
	StateStrict State = iota
	// StateRelaxing means the result came from a remap or relaxation, or
	// relaxation was exhausted.
	StateRelaxing
)

// String returns a string representation of the state.
func (s State) String() string {
	switch s {
	case StateStrict:
		return "strict"
	case StateRelaxing:
		return "relaxing"
	default:
		return "unknown"
	}
}

// Outcome is how a finished run ended.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeExhausted
)

// String returns a string representation of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return models.StateSuccess
	case OutcomeExhausted:
		return models.StateExhausted
	default:
		return "unknown"
	}
}

// Actions recorded in a trace.
const (
	ActionRemap  = "remap"
	ActionRemove = "remove"
	ActionWiden  = "widen"
)

// Attempt is one retry made while relaxing.
type Attempt struct {
	Action string `json:"action"`
	// Key is the filter key or range token acted on.
	Key string `json:"key"`
	// Value is the widened range value, or the mapped category for a remap.
	Value string `json:"value,omitempty"`
	Found int    `json:"found"`
}

// Trace explains how a result was obtained.
type Trace struct {
	// Applied lists, in order, the relaxations in effect on the final attempt:
	// removed keys, and range tokens with the "_expandido" suffix when widened.
	Applied  []string              `json:"applied"`
	Attempts []Attempt             `json:"attempts"`
	Remap    *models.CategoryRemap `json:"remap,omitempty"`
}
